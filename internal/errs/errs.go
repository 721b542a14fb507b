// Package errs defines the error taxonomy shared by the IMU and GNSS
// readers: a small set of sentinel errors callers match with errors.Is,
// rather than one exception type per failure site.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a reader failure for logging and control-flow purposes.
type Kind int

const (
	KindTimeout Kind = iota
	KindEOF
	KindHardwareFault
	KindConfiguration
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindEOF:
		return "eof"
	case KindHardwareFault:
		return "hardware_fault"
	case KindConfiguration:
		return "configuration"
	default:
		return "unknown"
	}
}

var (
	// ErrTimeout: a bounded wait elapsed with no event. Not an outage —
	// the caller decides whether to retry, decimate, or close.
	ErrTimeout = errors.New("errs: timed out waiting for next event")

	// ErrEOF: the upstream stream ended or was cancelled cooperatively.
	// Producer loops exit quietly on this; never logged at error level.
	ErrEOF = errors.New("errs: stream ended")

	// ErrHardwareFault: a non-recoverable I/O error from SPI/GPIO/serial.
	ErrHardwareFault = errors.New("errs: hardware fault")

	// ErrConfiguration: a setup-time failure (device ID mismatch, daemon
	// refused connection). Any partially-acquired resources must still be
	// released by the caller before this is returned.
	ErrConfiguration = errors.New("errs: configuration error")
)

// Wrap pairs a sentinel with additional context while keeping it matchable
// via errors.Is(err, errs.ErrTimeout) and friends.
func Wrap(sentinel error, context string) error {
	return fmt.Errorf("%s: %w", context, sentinel)
}
