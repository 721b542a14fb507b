// Package sensorloop runs the long-lived producer loops that pull samples
// from an already-open IMU or GNSS reader and hand encoded messages to the
// Broadcaster.
package sensorloop

import (
	"context"
	"time"

	"github.com/edgeflow/telemetryd/internal/broadcaster"
	"github.com/edgeflow/telemetryd/internal/errs"
	"github.com/edgeflow/telemetryd/internal/format"
	"github.com/edgeflow/telemetryd/internal/gnss"
	"github.com/edgeflow/telemetryd/internal/imu"
	"go.uber.org/zap"
)

// RunGNSS iterates an already-open GNSS reader, formats each sample, and
// broadcasts it. Exits cleanly (nil error) on Eof; any other error
// propagates to the caller, which logs it and continues serving existing
// subscribers.
func RunGNSS(ctx context.Context, reader gnss.Reader, b *broadcaster.Broadcaster, log *zap.Logger) error {
	for result := range reader.Iterate(ctx) {
		if result.Err != nil {
			if result.Err == errs.ErrEOF {
				log.Info("gnss reader stream ended")
				return nil
			}
			return result.Err
		}

		payload, err := format.GNSS(result.Data)
		if err != nil {
			log.Error("failed to encode gnss sample", zap.Error(err))
			continue
		}
		b.Broadcast(payload)
	}
	return nil
}

// decimationFactor broadcasts every Nth successful IMU sample. The counter
// starts at 0 and is tested before increment, so the 1st, 6th, 11th, ...
// successful reads are the ones broadcast.
const decimationFactor = 5

// imuReader is the subset of *imu.Reader this loop needs; scripted fakes in
// tests implement it without touching real hardware.
type imuReader interface {
	Iterate(ctx context.Context, timeout time.Duration) <-chan imu.Result
}

// RunIMU iterates an already-open IMU reader, decimating successful samples
// by decimationFactor before broadcasting. Timeouts never advance the
// counter and never stop the loop; a HardwareFault (or any non-timeout
// error) exits the loop cleanly.
func RunIMU(ctx context.Context, reader imuReader, timeout time.Duration, b *broadcaster.Broadcaster, log *zap.Logger) error {
	counter := 0
	for result := range reader.Iterate(ctx, timeout) {
		if result.Err != nil {
			if result.Err == errs.ErrTimeout {
				log.Debug("imu read timed out")
				continue
			}
			log.Error("imu reader failed", zap.Error(result.Err))
			return result.Err
		}

		broadcastThisSample := counter%decimationFactor == 0
		counter++

		if !broadcastThisSample {
			continue
		}

		payload, err := format.IMU(result.Sample)
		if err != nil {
			log.Error("failed to encode imu sample", zap.Error(err))
			continue
		}
		b.Broadcast(payload)
	}
	return nil
}
