// Package format converts IMU and GNSS samples into the stable JSON payload
// shapes sent to websocket subscribers. Both functions are pure.
package format

import (
	"encoding/json"

	"github.com/edgeflow/telemetryd/internal/gnss"
	"github.com/edgeflow/telemetryd/internal/imu"
)

type gnssMessage struct {
	Type          string   `json:"type"`
	Lat           *float64 `json:"lat"`
	Lon           *float64 `json:"lon"`
	Alt           *float64 `json:"alt"`
	FixQuality    int      `json:"fix_quality"`
	NumSatellites *int     `json:"num_satellites"`
	HDOP          *float64 `json:"hdop"`
	UTCTime       *string  `json:"utc_time"`
	SpeedMS       *float64 `json:"speed_ms"`
	TrackDegrees  *float64 `json:"track_degrees"`
	VTGValid      *bool    `json:"vtg_valid"`
}

type imuMessage struct {
	Type        string  `json:"type"`
	TimestampNS int64   `json:"timestamp_ns"`
	AccelX      float64 `json:"accel_x"`
	AccelY      float64 `json:"accel_y"`
	AccelZ      float64 `json:"accel_z"`
	GyroZ       float64 `json:"gyro_z"`
}

// GNSS encodes a GNSS sample. vtg_valid is null iff no VTG has been
// observed yet; every other field is present (possibly null) per §6.
func GNSS(data gnss.Data) ([]byte, error) {
	msg := gnssMessage{
		Type:          "gnss",
		Lat:           data.GGA.LatitudeDegrees,
		Lon:           data.GGA.LongitudeDegrees,
		Alt:           data.GGA.AltitudeMeters,
		FixQuality:    data.GGA.FixQuality,
		NumSatellites: data.GGA.NumSatellites,
		HDOP:          data.GGA.HDOP,
		UTCTime:       data.GGA.UTCTime,
	}
	if data.VTG != nil {
		msg.SpeedMS = data.VTG.SpeedMS
		msg.TrackDegrees = data.VTG.TrackTrueDegrees
		valid := data.VTG.Valid
		msg.VTGValid = &valid
	}
	return json.Marshal(msg)
}

// IMU encodes an IMU sample. Only the Z gyroscope axis is wired into the
// payload; X/Y remain on imu.Sample but are not emitted (spec §6, §9 open
// question — this implementation's chosen shape).
func IMU(sample imu.Sample) ([]byte, error) {
	return json.Marshal(imuMessage{
		Type:        "imu",
		TimestampNS: sample.TimestampNS,
		AccelX:      sample.AccelX,
		AccelY:      sample.AccelY,
		AccelZ:      sample.AccelZ,
		GyroZ:       sample.GyroZ,
	})
}
