package format

import (
	"encoding/json"
	"testing"

	"github.com/edgeflow/telemetryd/internal/gnss"
	"github.com/edgeflow/telemetryd/internal/imu"
	"github.com/edgeflow/telemetryd/internal/nmea"
	"github.com/stretchr/testify/require"
)

func TestGNSSAbsentFieldsSerializeToNull(t *testing.T) {
	data := gnss.Data{GGA: nmea.GGA{FixQuality: 0, Valid: false}}

	raw, err := GNSS(data)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	for _, key := range []string{"lat", "lon", "alt", "num_satellites", "hdop", "utc_time", "speed_ms", "track_degrees", "vtg_valid"} {
		val, ok := decoded[key]
		require.True(t, ok, "key %s must be present", key)
		require.Nil(t, val, "key %s must be null, not absent/zero", key)
	}
	require.EqualValues(t, 0, decoded["fix_quality"])
}

func TestGNSSWithVTGPopulatesFields(t *testing.T) {
	speed := 2.833
	track := 54.7
	mode := "D"
	data := gnss.Data{
		GGA: nmea.GGA{FixQuality: 4, Valid: true},
		VTG: &nmea.VTG{SpeedMS: &speed, TrackTrueDegrees: &track, Mode: &mode, Valid: true},
	}

	raw, err := GNSS(data)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.InDelta(t, 2.833, decoded["speed_ms"], 1e-9)
	require.InDelta(t, 54.7, decoded["track_degrees"], 1e-9)
	require.Equal(t, true, decoded["vtg_valid"])
}

func TestIMUOnlyEmitsGyroZ(t *testing.T) {
	sample := imu.Sample{TimestampNS: 123, AccelX: 1, AccelY: 2, AccelZ: 3, GyroX: 4, GyroY: 5, GyroZ: 6}

	raw, err := IMU(sample)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.EqualValues(t, 6, decoded["gyro_z"])
	_, hasGyroX := decoded["gyro_x"]
	_, hasGyroY := decoded["gyro_y"]
	require.False(t, hasGyroX)
	require.False(t, hasGyroY)
	require.Equal(t, "imu", decoded["type"])
}
