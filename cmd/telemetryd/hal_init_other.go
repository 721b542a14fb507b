//go:build !linux
// +build !linux

package main

import (
	"github.com/edgeflow/telemetryd/internal/hal"
	"github.com/edgeflow/telemetryd/internal/logging"
)

func initHAL() {
	logging.Get().Info("non-Linux platform detected, using mock HAL for GPIO/SPI")
	hal.SetGlobalHAL(hal.NewMockHAL())
}
