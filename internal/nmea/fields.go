package nmea

import (
	"strconv"
	"strings"
)

// validTalkerIDs are the talker prefixes this reader recognizes on GGA/VTG
// sentences; anything else is treated as unparseable.
var validTalkerIDs = map[string]bool{
	"GP": true, "GN": true, "GL": true, "GA": true, "GB": true, "GQ": true,
}

func parseFloatField(value string) *float64 {
	if value == "" {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	return &f
}

func parseIntField(value string) *int {
	if value == "" {
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return nil
	}
	return &n
}

func parseStringField(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

// convertToDecimalDegrees converts an NMEA coordinate in DDDMM.MMMM form,
// paired with a hemisphere letter, into signed decimal degrees.
func convertToDecimalDegrees(value, direction string) *float64 {
	if value == "" || direction == "" {
		return nil
	}

	dot := strings.IndexByte(value, '.')
	if dot < 2 {
		return nil
	}

	degrees, err := strconv.Atoi(value[:dot-2])
	if err != nil {
		return nil
	}
	minutes, err := strconv.ParseFloat(value[dot-2:], 64)
	if err != nil {
		return nil
	}

	decimal := float64(degrees) + minutes/60.0
	if direction == "S" || direction == "W" {
		decimal = -decimal
	}
	return &decimal
}

// messageTypeOK reports whether fields[0] (e.g. "GNGGA") has a recognized
// talker ID and matches the wanted sentence type.
func messageTypeOK(fields []string, wantType string) bool {
	if len(fields) == 0 || len(fields[0]) < 5 {
		return false
	}
	talker := fields[0][:2]
	sentenceType := fields[0][2:]
	return validTalkerIDs[talker] && sentenceType == wantType
}
