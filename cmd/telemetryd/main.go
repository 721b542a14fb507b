// Command telemetryd streams IMU and GNSS samples from a single-board
// computer to any number of websocket subscribers.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/edgeflow/telemetryd/internal/broadcaster"
	"github.com/edgeflow/telemetryd/internal/config"
	"github.com/edgeflow/telemetryd/internal/gnss"
	"github.com/edgeflow/telemetryd/internal/hal"
	"github.com/edgeflow/telemetryd/internal/imu"
	"github.com/edgeflow/telemetryd/internal/logging"
	"github.com/edgeflow/telemetryd/internal/sensorloop"
	"github.com/edgeflow/telemetryd/internal/subscriber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

// Version is set at build time via -ldflags.
var Version = "0.1.0"

func main() {
	configPath := flag.String("config", "", "path to config.yaml (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "telemetryd: failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logging.Init(cfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "telemetryd: failed to init logging: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync()
	log := logging.Get()

	log.Info("telemetryd starting", zap.String("version", Version))

	initHAL()
	h, err := hal.GetGlobalHAL()
	if err != nil {
		log.Fatal("no HAL available", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := broadcaster.New()
	go b.Run(ctx)

	imuReader, err := openIMU(h, cfg)
	if err != nil {
		log.Fatal("failed to open IMU", zap.Error(err))
	}
	defer imuReader.Close()

	gnssReader, err := openGNSS(cfg)
	if err != nil {
		log.Fatal("failed to open GNSS reader", zap.Error(err))
	}
	defer gnssReader.Close()

	go func() {
		if err := sensorloop.RunIMU(ctx, imuReader, cfg.Timeouts.IMURead, b, logging.WithReader("imu")); err != nil {
			log.Error("imu sensor loop exited", zap.Error(err))
		}
	}()
	go func() {
		if err := sensorloop.RunGNSS(ctx, gnssReader, b, logging.WithReader("gnss")); err != nil {
			log.Error("gnss sensor loop exited", zap.Error(err))
		}
	}()

	app := fiber.New(fiber.Config{AppName: "telemetryd v" + Version})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{AllowOrigins: "*"}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "running", "version": Version})
	})
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(subscriber.Handle(b, log)))

	go func() {
		if err := app.Listen(cfg.Server.Addr()); err != nil {
			log.Error("http server stopped", zap.Error(err))
		}
	}()
	log.Info("listening", zap.String("addr", cfg.Server.Addr()), zap.String("ws", "/ws"))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	log.Info("shutting down")
	cancel()
	gnssReader.Cancel()
	_ = app.Shutdown()
}

func openIMU(h hal.HAL, cfg *config.Config) (*imu.Reader, error) {
	imuCfg := imu.Config{
		GPIOChip:   cfg.HAL.GPIOChip,
		GPIOLine:   cfg.HAL.GPIOLine,
		SPIBus:     cfg.HAL.SPIBus,
		SPIDevice:  cfg.HAL.SPIDevice,
		SPISpeedHz: cfg.HAL.SPISpeedHz,
	}
	return imu.Open(h, imuCfg)
}

func openGNSS(cfg *config.Config) (gnss.Reader, error) {
	switch cfg.GNSS.Variant {
	case "daemon":
		daemonCfg := gnss.DaemonConfig{Addr: cfg.GNSS.DaemonAddr, ReadTimeout: cfg.Timeouts.GNSSRead}
		return gnss.OpenDaemon(daemonCfg)
	default:
		serialCfg := gnss.SerialConfig{Port: cfg.GNSS.SerialPort, Baud: cfg.GNSS.SerialBaud}
		return gnss.OpenSerial(serialCfg)
	}
}
