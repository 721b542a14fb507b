//go:build linux
// +build linux

package main

import (
	"github.com/edgeflow/telemetryd/internal/hal"
	"github.com/edgeflow/telemetryd/internal/logging"
	"go.uber.org/zap"
)

func initHAL() {
	linuxHAL, err := hal.NewLinuxHAL()
	if err != nil {
		logging.Get().Warn("failed to initialize Linux HAL, falling back to mock HAL", zap.Error(err))
		hal.SetGlobalHAL(hal.NewMockHAL())
		return
	}
	logging.Get().Info("Linux HAL initialized",
		zap.String("board", linuxHAL.Info().Name),
		zap.String("gpio_chip", linuxHAL.Info().GPIOChip))
	hal.SetGlobalHAL(linuxHAL)
}
