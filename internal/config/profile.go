package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/edgeflow/telemetryd/internal/hal"
	"github.com/spf13/viper"
)

// Profile is a deployment-size tier telemetryd can be tuned for: how many
// concurrent websocket subscribers a board is expected to serve, and how
// generous their queues can afford to be.
type Profile string

const (
	// ProfileMinimal targets a Pi Zero/Pi 3-class board: few subscribers,
	// small queues, to keep memory and goroutine count low.
	ProfileMinimal Profile = "minimal"

	// ProfileStandard targets a Pi 4-class board.
	ProfileStandard Profile = "standard"

	// ProfileFull targets a Pi 5/CM4-class board with headroom to serve
	// many dashboard subscribers at once.
	ProfileFull Profile = "full"
)

// ProfileConfig holds profile-specific tuning applied on top of Config's
// own Broadcaster/Timeouts defaults.
type ProfileConfig struct {
	Name        Profile `mapstructure:"name"`
	Description string  `mapstructure:"description"`

	MaxSubscribers int `mapstructure:"max_subscribers"`
	QueueCapacity  int `mapstructure:"queue_capacity"`

	SubscriberIdle time.Duration `mapstructure:"subscriber_idle"`
}

// GetDefaultProfiles returns the built-in profile tiers.
func GetDefaultProfiles() map[Profile]*ProfileConfig {
	return map[Profile]*ProfileConfig{
		ProfileMinimal: {
			Name:           ProfileMinimal,
			Description:    "Minimal profile for Pi Zero/Pi 3-class boards",
			MaxSubscribers: 5,
			QueueCapacity:  5,
			SubscriberIdle: 5 * time.Second,
		},
		ProfileStandard: {
			Name:           ProfileStandard,
			Description:    "Standard profile for Pi 4-class boards",
			MaxSubscribers: 20,
			QueueCapacity:  10,
			SubscriberIdle: 5 * time.Second,
		},
		ProfileFull: {
			Name:           ProfileFull,
			Description:    "Full profile for Pi 5/CM4-class boards",
			MaxSubscribers: 100,
			QueueCapacity:  20,
			SubscriberIdle: 5 * time.Second,
		},
	}
}

// LoadProfile loads a profile configuration, falling back to the built-in
// default for profileName if no on-disk override exists.
func LoadProfile(profileName string) (*ProfileConfig, error) {
	profile := Profile(profileName)

	defaults := GetDefaultProfiles()
	defaultConfig, exists := defaults[profile]
	if !exists {
		return nil, fmt.Errorf("unknown profile: %s", profileName)
	}

	v := viper.New()
	v.SetConfigName(fmt.Sprintf("profile-%s", profileName))
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(getConfigDir())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read profile config: %w", err)
		}
		return defaultConfig, nil
	}

	var cfg ProfileConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile config: %w", err)
	}

	mergeProfileConfig(&cfg, defaultConfig)

	return &cfg, nil
}

// DetectProfile picks a profile tier from the board hal.DetectBoard
// identifies, falling back to ProfileStandard off-Pi or on detection
// failure.
func DetectProfile() Profile {
	info, err := hal.DetectBoard()
	if err != nil {
		return ProfileStandard
	}

	switch info.Model {
	case hal.BoardRPi3:
		return ProfileMinimal
	case hal.BoardRPi4:
		return ProfileStandard
	case hal.BoardRPi5, hal.BoardRPiCM4:
		return ProfileFull
	default:
		return ProfileStandard
	}
}

// mergeProfileConfig fills zero-valued fields in cfg from defaults.
func mergeProfileConfig(cfg *ProfileConfig, defaults *ProfileConfig) {
	if cfg.Name == "" {
		cfg.Name = defaults.Name
	}
	if cfg.Description == "" {
		cfg.Description = defaults.Description
	}
	if cfg.MaxSubscribers == 0 {
		cfg.MaxSubscribers = defaults.MaxSubscribers
	}
	if cfg.QueueCapacity == 0 {
		cfg.QueueCapacity = defaults.QueueCapacity
	}
	if cfg.SubscriberIdle == 0 {
		cfg.SubscriberIdle = defaults.SubscriberIdle
	}
}

// SaveProfileConfig saves a profile configuration to file.
func SaveProfileConfig(profileName string, cfg *ProfileConfig) error {
	configPath := filepath.Join(getConfigDir(), fmt.Sprintf("profile-%s.yaml", profileName))

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.Set("name", cfg.Name)
	v.Set("description", cfg.Description)
	v.Set("max_subscribers", cfg.MaxSubscribers)
	v.Set("queue_capacity", cfg.QueueCapacity)
	v.Set("subscriber_idle", cfg.SubscriberIdle)

	return v.WriteConfigAs(configPath)
}

// ValidateProfile rejects a profile configuration with nonsensical tuning.
func ValidateProfile(cfg *ProfileConfig) error {
	if cfg.MaxSubscribers < 1 {
		return fmt.Errorf("max_subscribers must be at least 1")
	}
	if cfg.QueueCapacity < 1 {
		return fmt.Errorf("queue_capacity must be at least 1")
	}
	if cfg.SubscriberIdle <= 0 {
		return fmt.Errorf("subscriber_idle must be positive")
	}
	return nil
}
