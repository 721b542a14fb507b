// Package hal is a hardware abstraction layer for the GPIO edge detection
// and SPI register access the IMU driver needs.
package hal

import (
	"fmt"
	"sync"
	"time"
)

// PinMode is the direction a GPIO line is requested in.
type PinMode int

const (
	Input PinMode = iota
	Output
)

// PullMode is the bias applied to an input line.
type PullMode int

const (
	PullNone PullMode = iota
	PullUp
	PullDown
)

// EdgeMode selects which transitions WaitEdge reports.
type EdgeMode int

const (
	EdgeNone EdgeMode = iota
	EdgeRising
	EdgeFalling
	EdgeBoth
)

// EdgeEvent is one consumed GPIO transition, timestamped by the kernel at
// the instant the edge was detected.
type EdgeEvent struct {
	Pin         int
	RisingEdge  bool
	TimestampNS int64
}

// ErrTimeout is returned by WaitEdge when no edge arrives within the
// supplied timeout. It is not an error condition for the caller — see
// internal/errs.
var ErrTimeout = fmt.Errorf("hal: edge wait timed out")

// GPIOProvider is the GPIO access the IMU driver needs: arm a line for edge
// detection, then block for the next edge with a timeout.
type GPIOProvider interface {
	// ArmEdge requests pin as an input with the given edge detection and
	// pull bias. Must be called before WaitEdge; safe to call again to
	// re-arm (e.g. after Close).
	ArmEdge(pin int, edge EdgeMode, pull PullMode) error
	// WaitEdge blocks until the next edge on pin fires or timeout elapses.
	// Each call consumes exactly one edge event; events are never replayed
	// to a later call.
	WaitEdge(pin int, timeout time.Duration) (EdgeEvent, error)
	// DigitalRead reads the instantaneous level of an armed pin.
	DigitalRead(pin int) (bool, error)
	// Close releases every line this provider has requested. Idempotent.
	Close() error
}

// SPIProvider is a minimal SPI bus: open a device, configure it, run
// full-duplex transfers.
type SPIProvider interface {
	Open(bus, device int) error
	SetSpeed(hz int) error
	SetMode(mode byte) error
	SetBitsPerWord(bits byte) error
	// Transfer writes tx and returns the bytes clocked in during the same
	// transaction; len(rx) == len(tx).
	Transfer(tx []byte) (rx []byte, err error)
	Close() error
}

// HAL composes the GPIO and SPI access the IMU driver needs, plus board
// identity for startup logging.
type HAL interface {
	GPIO() GPIOProvider
	SPI() SPIProvider
	Info() BoardInfo
	Close() error
}

var (
	globalHAL HAL
	halMu     sync.RWMutex
)

// SetGlobalHAL set global HAL
func SetGlobalHAL(hal HAL) {
	halMu.Lock()
	defer halMu.Unlock()
	globalHAL = hal
}

// GetGlobalHAL get global HAL
func GetGlobalHAL() (HAL, error) {
	halMu.RLock()
	defer halMu.RUnlock()
	if globalHAL == nil {
		return nil, fmt.Errorf("HAL not initialized")
	}
	return globalHAL, nil
}
