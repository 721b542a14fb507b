package nmea

import "strings"

const vtgMinFields = 9
const kphToMS = 3.6

// VTG is a parsed "Track Made Good and Ground Speed" sentence.
type VTG struct {
	TrackTrueDegrees  *float64
	SpeedKnots        *float64
	SpeedKPH          *float64
	SpeedMS           *float64
	Mode              *string
	Valid             bool
}

// ParseVTG validates the checksum and decodes a VTG sentence, mirroring
// ParseGGA's ok=false-on-anything-malformed contract.
func ParseVTG(sentence string) (VTG, bool) {
	sentence = strings.TrimSpace(sentence)
	if !validChecksum(sentence) {
		return VTG{}, false
	}

	star := indexByte(sentence, '*')
	dollar := indexByte(sentence, '$')
	fields := strings.Split(sentence[dollar+1:star], ",")
	if len(fields) < vtgMinFields {
		return VTG{}, false
	}
	if !messageTypeOK(fields, "VTG") {
		return VTG{}, false
	}

	speedKPH := parseFloatField(fields[7])
	var speedMS *float64
	if speedKPH != nil {
		ms := *speedKPH / kphToMS
		speedMS = &ms
	}

	var mode *string
	if len(fields) > 9 {
		mode = parseStringField(fields[9])
	}

	return VTG{
		TrackTrueDegrees: parseFloatField(fields[1]),
		SpeedKnots:       parseFloatField(fields[5]),
		SpeedKPH:         speedKPH,
		SpeedMS:          speedMS,
		Mode:             mode,
		Valid:            mode != nil && *mode != "N",
	}, true
}
