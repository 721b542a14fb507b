package imu

import (
	"context"
	"encoding/binary"
	"testing"
	"time"

	"github.com/edgeflow/telemetryd/internal/errs"
	"github.com/edgeflow/telemetryd/internal/hal"
	"github.com/stretchr/testify/require"
)

func whoAmIResponse() []byte {
	return []byte{0x00, whoAmIExpect}
}

func openTestReader(t *testing.T) (*Reader, *hal.MockHAL) {
	t.Helper()
	m := hal.NewMockHAL()
	m.SPI().(*hal.MockSPI).SetResponse(whoAmIResponse())

	r, err := Open(m, DefaultConfig())
	require.NoError(t, err)
	return r, m
}

func TestOpenRejectsWrongDeviceID(t *testing.T) {
	m := hal.NewMockHAL()
	m.SPI().(*hal.MockSPI).SetResponse([]byte{0x00, 0x00})

	_, err := Open(m, DefaultConfig())
	require.ErrorIs(t, err, errs.ErrConfiguration)
}

func TestReadDecodesBurstPayload(t *testing.T) {
	r, m := openTestReader(t)
	defer r.Close()

	// gyroX=0, gyroY=0, gyroZ=32767, accelX=16384, accelY=0, accelZ=0
	payload := make([]byte, 13)
	binary.LittleEndian.PutUint16(payload[1:], 0)
	binary.LittleEndian.PutUint16(payload[3:], 0)
	binary.LittleEndian.PutUint16(payload[5:], 32767)
	binary.LittleEndian.PutUint16(payload[7:], 16384)
	binary.LittleEndian.PutUint16(payload[9:], 0)
	binary.LittleEndian.PutUint16(payload[11:], 0)
	m.SPI().(*hal.MockSPI).SetResponse(payload)

	m.GPIO().(*hal.MockGPIO).ArmEdge(DefaultConfig().GPIOLine, hal.EdgeRising, hal.PullNone)
	m.GPIO().(*hal.MockGPIO).FireEdge(DefaultConfig().GPIOLine, 123456789)

	sample, err := r.Read(context.Background(), time.Second)
	require.NoError(t, err)
	require.EqualValues(t, 123456789, sample.TimestampNS)
	require.InDelta(t, 9.80665, sample.AccelX, 0.01*9.80665)
	require.InDelta(t, 2293.69*3.14159265/180, sample.GyroZ, 0.01*2293.69*3.14159265/180)
}

func TestReadAllZeroPayloadYieldsZeroSample(t *testing.T) {
	r, m := openTestReader(t)
	defer r.Close()

	m.SPI().(*hal.MockSPI).SetResponse(make([]byte, 13))

	m.GPIO().(*hal.MockGPIO).ArmEdge(DefaultConfig().GPIOLine, hal.EdgeRising, hal.PullNone)
	m.GPIO().(*hal.MockGPIO).FireEdge(DefaultConfig().GPIOLine, 1)

	sample, err := r.Read(context.Background(), time.Second)
	require.NoError(t, err)
	require.Zero(t, sample.AccelX)
	require.Zero(t, sample.AccelY)
	require.Zero(t, sample.AccelZ)
	require.Zero(t, sample.GyroX)
	require.Zero(t, sample.GyroY)
	require.Zero(t, sample.GyroZ)
}

func TestReadTimesOutWithNoEdge(t *testing.T) {
	r, _ := openTestReader(t)
	defer r.Close()

	_, err := r.Read(context.Background(), 10*time.Millisecond)
	require.ErrorIs(t, err, errs.ErrTimeout)
}

func TestIterateSurfacesTimeoutsWithoutStopping(t *testing.T) {
	r, m := openTestReader(t)
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	results := r.Iterate(ctx, 10*time.Millisecond)

	first := <-results
	require.ErrorIs(t, first.Err, errs.ErrTimeout)

	m.GPIO().(*hal.MockGPIO).FireEdge(DefaultConfig().GPIOLine, 42)
	second := <-results
	require.NoError(t, second.Err)
}

func TestCloseIsIdempotent(t *testing.T) {
	r, _ := openTestReader(t)
	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
}
