// Package gnss provides two interchangeable GNSS readers — a serial NMEA
// stream and a GNSS-daemon JSON stream — behind one Reader interface.
package gnss

import (
	"context"

	"github.com/edgeflow/telemetryd/internal/nmea"
)

// Data pairs a position fix with the most recently observed velocity
// message. VTG is nil until the reader has seen at least one.
type Data struct {
	GGA nmea.GGA
	VTG *nmea.VTG
}

// Result pairs a Data sample with the error from one Read call.
type Result struct {
	Data Data
	Err  error
}

// Reader is implemented by both the serial and daemon variants.
type Reader interface {
	Read(ctx context.Context) (Data, error)
	Iterate(ctx context.Context) <-chan Result
	Cancel()
	Close() error
}
