package hal

import (
	"fmt"
	"os"
	"strings"
)

// BoardModel identifies the single-board computer telemetryd is running on.
// Only the detail that changes IMU wiring (which GPIO chip owns the DRDY
// line) actually varies by model; the rest is kept for diagnostic logging.
type BoardModel int

const (
	BoardUnknown BoardModel = iota
	BoardRPi3
	BoardRPi4
	BoardRPi5
	BoardRPiCM4
)

// BoardInfo is what telemetryd logs at startup and uses to pick a GPIO chip.
type BoardInfo struct {
	Model    BoardModel
	Name     string
	GPIOChip string
}

// GPIOChipName returns the GPIO character device name for this board model,
// auto-detected by reading chip labels under /sys/bus/gpio/devices. Pi 5's
// RP1 southbridge can enumerate as gpiochip0 or gpiochip4 depending on
// kernel/OS version, so a label match is more reliable than a fixed index.
func (b BoardModel) GPIOChipName() string {
	for _, chip := range []string{"gpiochip4", "gpiochip0"} {
		labelPath := fmt.Sprintf("/sys/bus/gpio/devices/%s/label", chip)
		data, err := os.ReadFile(labelPath)
		if err != nil {
			continue
		}
		label := strings.TrimSpace(string(data))
		if strings.Contains(label, "pinctrl-rp1") || strings.Contains(label, "pinctrl-bcm2") {
			return chip
		}
	}
	return "gpiochip0"
}

// DetectBoard reads /proc/cpuinfo (falling back to /proc/device-tree/model
// for the Pi 5, which omits a Model line in cpuinfo) to identify the board.
func DetectBoard() (*BoardInfo, error) {
	data, err := os.ReadFile("/proc/cpuinfo")
	if err != nil {
		return nil, fmt.Errorf("hal: read cpuinfo: %w", err)
	}

	model := extractModel(string(data))
	info := &BoardInfo{Model: model, Name: model.String(), GPIOChip: model.GPIOChipName()}
	return info, nil
}

func extractModel(cpuinfo string) BoardModel {
	for _, line := range strings.Split(cpuinfo, "\n") {
		if strings.HasPrefix(line, "Model") {
			if m := matchBoardModel(line); m != BoardUnknown {
				return m
			}
		}
	}
	if dtModel, err := os.ReadFile("/proc/device-tree/model"); err == nil {
		if m := matchBoardModel(string(dtModel)); m != BoardUnknown {
			return m
		}
	}
	return BoardUnknown
}

func matchBoardModel(text string) BoardModel {
	model := strings.ToLower(text)
	switch {
	case strings.Contains(model, "pi 5"):
		return BoardRPi5
	case strings.Contains(model, "pi 4"):
		return BoardRPi4
	case strings.Contains(model, "pi 3"):
		return BoardRPi3
	case strings.Contains(model, "compute module 4"):
		return BoardRPiCM4
	default:
		return BoardUnknown
	}
}

func (b BoardModel) String() string {
	switch b {
	case BoardRPi3:
		return "Raspberry Pi 3"
	case BoardRPi4:
		return "Raspberry Pi 4"
	case BoardRPi5:
		return "Raspberry Pi 5"
	case BoardRPiCM4:
		return "Raspberry Pi Compute Module 4"
	default:
		return "Unknown board"
	}
}
