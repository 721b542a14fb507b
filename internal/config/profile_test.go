package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetDefaultProfilesCoversAllThreeTiers(t *testing.T) {
	defaults := GetDefaultProfiles()
	require.Len(t, defaults, 3)
	require.Less(t, defaults[ProfileMinimal].MaxSubscribers, defaults[ProfileStandard].MaxSubscribers)
	require.Less(t, defaults[ProfileStandard].MaxSubscribers, defaults[ProfileFull].MaxSubscribers)
}

func TestLoadProfileUnknownNameErrors(t *testing.T) {
	_, err := LoadProfile("nonexistent")
	require.Error(t, err)
}

func TestLoadProfileFallsBackToDefaultsWithoutOverrideFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, err := LoadProfile(string(ProfileMinimal))
	require.NoError(t, err)
	require.Equal(t, 5, cfg.MaxSubscribers)
	require.Equal(t, 5, cfg.QueueCapacity)
}

func TestValidateProfileRejectsNonPositiveFields(t *testing.T) {
	require.Error(t, ValidateProfile(&ProfileConfig{MaxSubscribers: 0, QueueCapacity: 1, SubscriberIdle: 1}))
	require.Error(t, ValidateProfile(&ProfileConfig{MaxSubscribers: 1, QueueCapacity: 0, SubscriberIdle: 1}))
	require.Error(t, ValidateProfile(&ProfileConfig{MaxSubscribers: 1, QueueCapacity: 1, SubscriberIdle: 0}))
}

func TestDetectProfileReturnsAKnownTier(t *testing.T) {
	p := DetectProfile()
	_, ok := GetDefaultProfiles()[p]
	require.True(t, ok)
}
