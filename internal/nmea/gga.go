package nmea

import "strings"

const ggaMinFields = 14

// GGA is a parsed "Global Positioning System Fix Data" sentence. Optional
// fields are pointers so an absent value serializes to JSON null rather
// than being confused with a parsed zero.
type GGA struct {
	UTCTime             *string
	LatitudeDegrees     *float64
	LongitudeDegrees    *float64
	FixQuality          int
	NumSatellites       *int
	HDOP                *float64
	AltitudeMeters      *float64
	GeoidHeightMeters   *float64
	Valid               bool
}

// ParseGGA validates the checksum and decodes a GGA sentence. It returns
// ok=false for any malformed, wrong-type, or checksum-invalid input —
// callers discard these silently, per the GNSS reader's parser-boundary
// error policy.
func ParseGGA(sentence string) (GGA, bool) {
	sentence = strings.TrimSpace(sentence)
	if !validChecksum(sentence) {
		return GGA{}, false
	}

	star := indexByte(sentence, '*')
	dollar := indexByte(sentence, '$')
	fields := strings.Split(sentence[dollar+1:star], ",")
	if len(fields) < ggaMinFields {
		return GGA{}, false
	}
	if !messageTypeOK(fields, "GGA") {
		return GGA{}, false
	}

	fixQuality := 0
	if fq := parseIntField(fields[6]); fq != nil {
		fixQuality = *fq
	}

	return GGA{
		UTCTime:           parseStringField(fields[1]),
		LatitudeDegrees:   convertToDecimalDegrees(fields[2], fields[3]),
		LongitudeDegrees:  convertToDecimalDegrees(fields[4], fields[5]),
		FixQuality:        fixQuality,
		NumSatellites:     parseIntField(fields[7]),
		HDOP:              parseFloatField(fields[8]),
		AltitudeMeters:    parseFloatField(fields[9]),
		GeoidHeightMeters: parseFloatField(fields[11]),
		Valid:             fixQuality > 0,
	}, true
}
