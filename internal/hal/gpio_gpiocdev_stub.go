//go:build !linux
// +build !linux

package hal

import (
	"fmt"
	"time"
)

// GpiocdevGPIO is a non-Linux stub; the GPIO character device ABI is
// Linux-only. Use MockHAL on these platforms.
type GpiocdevGPIO struct {
	chipName string
}

func NewGpiocdevGPIO(chipName string) (*GpiocdevGPIO, error) {
	return &GpiocdevGPIO{chipName: chipName}, nil
}

func (g *GpiocdevGPIO) ArmEdge(pin int, edge EdgeMode, pull PullMode) error {
	return fmt.Errorf("hal: GPIO character devices are not available on this platform")
}

func (g *GpiocdevGPIO) WaitEdge(pin int, timeout time.Duration) (EdgeEvent, error) {
	return EdgeEvent{}, fmt.Errorf("hal: GPIO character devices are not available on this platform")
}

func (g *GpiocdevGPIO) DigitalRead(pin int) (bool, error) {
	return false, fmt.Errorf("hal: GPIO character devices are not available on this platform")
}

func (g *GpiocdevGPIO) Close() error {
	return nil
}
