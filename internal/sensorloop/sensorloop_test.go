package sensorloop

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/edgeflow/telemetryd/internal/broadcaster"
	"github.com/edgeflow/telemetryd/internal/errs"
	"github.com/edgeflow/telemetryd/internal/gnss"
	"github.com/edgeflow/telemetryd/internal/imu"
	"github.com/edgeflow/telemetryd/internal/nmea"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// scriptedIMU replays a fixed slice of Results on Iterate, mirroring the
// queue-fed fakes used to drive the sensor loops without real hardware.
type scriptedIMU struct {
	script []imu.Result
}

func (s *scriptedIMU) Iterate(ctx context.Context, timeout time.Duration) <-chan imu.Result {
	out := make(chan imu.Result)
	go func() {
		defer close(out)
		for _, r := range s.script {
			select {
			case out <- r:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// scriptedGNSS replays a fixed slice of Results on Iterate.
type scriptedGNSS struct {
	script []gnss.Result
}

func (s *scriptedGNSS) Read(ctx context.Context) (gnss.Data, error) { return gnss.Data{}, nil }
func (s *scriptedGNSS) Cancel()                                     {}
func (s *scriptedGNSS) Close() error                                { return nil }
func (s *scriptedGNSS) Iterate(ctx context.Context) <-chan gnss.Result {
	out := make(chan gnss.Result)
	go func() {
		defer close(out)
		for _, r := range s.script {
			select {
			case out <- r:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func drainToQueue(t *testing.T, ctx context.Context, b *broadcaster.Broadcaster) *broadcaster.Queue {
	t.Helper()
	q := broadcaster.NewQueue(64)
	b.Register(q)
	go b.Run(ctx)
	return q
}

func TestRunIMUBroadcastsEveryFifthSuccessfulRead(t *testing.T) {
	script := make([]imu.Result, 0, 11)
	for i := 0; i < 11; i++ {
		script = append(script, imu.Result{Sample: imu.Sample{TimestampNS: int64(i), GyroZ: float64(i)}})
	}
	fake := &scriptedIMU{script: script}

	b := broadcaster.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q := drainToQueue(t, ctx, b)

	log := zap.NewNop()
	err := RunIMU(ctx, fake, time.Second, b, log)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	var gotZ []float64
	for {
		msg, ok := q.TryRecv()
		if !ok {
			break
		}
		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal(msg, &decoded))
		gotZ = append(gotZ, decoded["gyro_z"].(float64))
	}

	require.Equal(t, []float64{0, 5, 10}, gotZ)
}

func TestRunIMUTimeoutsDoNotAdvanceDecimationCounter(t *testing.T) {
	script := []imu.Result{
		{Err: errs.ErrTimeout},
		{Err: errs.ErrTimeout},
		{Sample: imu.Sample{GyroZ: 1}},
	}
	fake := &scriptedIMU{script: script}

	b := broadcaster.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q := drainToQueue(t, ctx, b)

	err := RunIMU(ctx, fake, time.Second, b, zap.NewNop())
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	msg, ok := q.TryRecv()
	require.True(t, ok, "the one successful sample after two timeouts is the 1st, must broadcast")
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(msg, &decoded))
	require.EqualValues(t, 1, decoded["gyro_z"])

	_, ok = q.TryRecv()
	require.False(t, ok)
}

func TestRunIMUStopsOnHardwareFault(t *testing.T) {
	script := []imu.Result{
		{Sample: imu.Sample{GyroZ: 1}},
		{Err: errs.ErrHardwareFault},
	}
	fake := &scriptedIMU{script: script}

	b := broadcaster.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	drainToQueue(t, ctx, b)

	err := RunIMU(ctx, fake, time.Second, b, zap.NewNop())
	require.ErrorIs(t, err, errs.ErrHardwareFault)
}

func TestRunGNSSBroadcastsEachSampleAndExitsCleanlyOnEof(t *testing.T) {
	script := []gnss.Result{
		{Data: gnss.Data{GGA: nmea.GGA{FixQuality: 1, Valid: true}}},
		{Data: gnss.Data{GGA: nmea.GGA{FixQuality: 1, Valid: true}}},
		{Err: errs.ErrEOF},
	}
	fake := &scriptedGNSS{script: script}

	b := broadcaster.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q := drainToQueue(t, ctx, b)

	err := RunGNSS(ctx, fake, b, zap.NewNop())
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	require.Equal(t, 2, q.Len())
}

func TestRunGNSSPropagatesNonEofError(t *testing.T) {
	script := []gnss.Result{{Err: errs.ErrHardwareFault}}
	fake := &scriptedGNSS{script: script}

	b := broadcaster.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	drainToQueue(t, ctx, b)

	err := RunGNSS(ctx, fake, b, zap.NewNop())
	require.ErrorIs(t, err, errs.ErrHardwareFault)
}
