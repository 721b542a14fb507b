//go:build linux
// +build linux

package hal

import "fmt"

// LinuxHAL composes GpiocdevGPIO and LinuxSPI into the HAL a production
// deployment on a Raspberry Pi uses. Board detection picks the right GPIO
// chip name; everything else is delegated straight through to the two
// concrete providers.
type LinuxHAL struct {
	gpio *GpiocdevGPIO
	spi  *LinuxSPI
	info BoardInfo
}

// NewLinuxHAL detects the board, opens its GPIO chip, and returns a HAL
// ready for ArmEdge/Transfer calls.
func NewLinuxHAL() (*LinuxHAL, error) {
	info, err := DetectBoard()
	if err != nil {
		return nil, fmt.Errorf("hal: detect board: %w", err)
	}

	gpio, err := NewGpiocdevGPIO(info.GPIOChip)
	if err != nil {
		return nil, fmt.Errorf("hal: init GPIO on %s: %w", info.GPIOChip, err)
	}

	return &LinuxHAL{gpio: gpio, spi: NewLinuxSPI(), info: *info}, nil
}

func (h *LinuxHAL) GPIO() GPIOProvider { return h.gpio }
func (h *LinuxHAL) SPI() SPIProvider   { return h.spi }
func (h *LinuxHAL) Info() BoardInfo    { return h.info }

func (h *LinuxHAL) Close() error {
	gErr := h.gpio.Close()
	sErr := h.spi.Close()
	if gErr != nil {
		return gErr
	}
	return sErr
}
