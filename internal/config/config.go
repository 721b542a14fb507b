// Package config loads telemetryd's configuration from a YAML file (if
// present) overlaid with TELEMETRYD_-prefixed environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/edgeflow/telemetryd/internal/logging"
	"github.com/spf13/viper"
)

// Config holds all configuration for the telemetry service.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	HAL         HALConfig         `mapstructure:"hal"`
	GNSS        GNSSConfig        `mapstructure:"gnss"`
	Timeouts    TimeoutsConfig    `mapstructure:"timeouts"`
	Broadcaster BroadcasterConfig `mapstructure:"broadcaster"`
	Logger      logging.Config    `mapstructure:"logger"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr returns the host:port the fiber app should listen on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// HALConfig wires the IMU's SPI/GPIO hardware. Defaults match the
// reference rig: gpiochip4 line 25, SPI bus 0 device 0 at 5 MHz.
type HALConfig struct {
	GPIOChip   string `mapstructure:"gpio_chip"`
	GPIOLine   int    `mapstructure:"gpio_line"`
	SPIBus     int    `mapstructure:"spi_bus"`
	SPIDevice  int    `mapstructure:"spi_device"`
	SPISpeedHz int    `mapstructure:"spi_speed_hz"`
}

// GNSSConfig selects and wires one of the two GNSS reader variants.
type GNSSConfig struct {
	Variant    string `mapstructure:"variant"` // "serial" | "daemon"
	SerialPort string `mapstructure:"serial_port"`
	SerialBaud int    `mapstructure:"serial_baud"`
	DaemonAddr string `mapstructure:"daemon_addr"`
}

// TimeoutsConfig holds the process's three bounded-wait durations.
type TimeoutsConfig struct {
	IMURead        time.Duration `mapstructure:"imu_read"`
	GNSSRead       time.Duration `mapstructure:"gnss_read"`
	SubscriberIdle time.Duration `mapstructure:"subscriber_idle"`
}

// BroadcasterConfig holds the per-subscriber queue capacity.
type BroadcasterConfig struct {
	QueueCapacity int `mapstructure:"queue_capacity"`
}

// Load reads configuration from file and environment variables. configPath
// may be empty, in which case ./configs, ., and ~/.telemetryd are searched
// for config.yaml; a missing file is not an error, defaults apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		v.AddConfigPath(getConfigDir())
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	v.SetEnvPrefix("TELEMETRYD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	v.SetDefault("hal.gpio_chip", "/dev/gpiochip4")
	v.SetDefault("hal.gpio_line", 25)
	v.SetDefault("hal.spi_bus", 0)
	v.SetDefault("hal.spi_device", 0)
	v.SetDefault("hal.spi_speed_hz", 5_000_000)

	v.SetDefault("gnss.variant", "serial")
	v.SetDefault("gnss.serial_port", "/dev/ttyAMA5")
	v.SetDefault("gnss.serial_baud", 38400)
	v.SetDefault("gnss.daemon_addr", "localhost:2947")

	v.SetDefault("timeouts.imu_read", time.Second)
	v.SetDefault("timeouts.gnss_read", 2*time.Second)
	v.SetDefault("timeouts.subscriber_idle", 5*time.Second)

	v.SetDefault("broadcaster.queue_capacity", 10)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.log_dir", "./logs")
	v.SetDefault("logger.max_size_mb", 50)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age_days", 7)
	v.SetDefault("logger.compress", true)
}

func getConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".telemetryd")
}
