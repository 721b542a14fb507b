package gnss

import (
	"bufio"
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/edgeflow/telemetryd/internal/errs"
	"github.com/edgeflow/telemetryd/internal/nmea"
	"go.bug.st/serial"
)

// SerialConfig configures the serial NMEA variant.
type SerialConfig struct {
	Port string
	Baud int
}

// DefaultSerialConfig matches the reference rig's u-blox ZED-F9P wiring.
func DefaultSerialConfig() SerialConfig {
	return SerialConfig{Port: "/dev/ttyAMA5", Baud: 38400}
}

// SerialReader consumes NMEA 0183 lines from a serial port, pairing each
// GGA with the most recently seen VTG.
type SerialReader struct {
	port      serial.Port
	reader    *bufio.Reader
	lastVTG   *nmea.VTG
	mu        sync.Mutex
	cancelled atomic.Bool
}

// OpenSerial opens the configured port and returns a ready-to-read SerialReader.
func OpenSerial(cfg SerialConfig) (*SerialReader, error) {
	mode := &serial.Mode{BaudRate: cfg.Baud, DataBits: 8, Parity: serial.NoParity, StopBits: serial.OneStopBit}
	port, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, errs.Wrap(errs.ErrConfiguration, "open serial port "+cfg.Port)
	}
	return &SerialReader{port: port, reader: bufio.NewReader(port)}, nil
}

// Read blocks until the next GGA sentence arrives and returns it paired
// with the most recently received VTG (nil if none has arrived yet). Any
// other sentence, checksum failure, or malformed line is silently skipped.
// An empty read signals cancellation or EOF.
func (r *SerialReader) Read(ctx context.Context) (Data, error) {
	for {
		if r.cancelled.Load() {
			return Data{}, errs.ErrEOF
		}

		line, err := r.reader.ReadString('\n')
		if line == "" {
			if err != nil || r.cancelled.Load() {
				return Data{}, errs.ErrEOF
			}
			continue
		}

		line = strings.TrimSpace(line)

		if vtg, ok := nmea.ParseVTG(line); ok {
			r.mu.Lock()
			r.lastVTG = &vtg
			r.mu.Unlock()
			continue
		}

		if gga, ok := nmea.ParseGGA(line); ok {
			r.mu.Lock()
			vtg := r.lastVTG
			r.mu.Unlock()
			return Data{GGA: gga, VTG: vtg}, nil
		}

		if err != nil {
			return Data{}, errs.ErrEOF
		}
	}
}

// Iterate repeatedly calls Read, forwarding every result until Eof.
func (r *SerialReader) Iterate(ctx context.Context) <-chan Result {
	out := make(chan Result)
	go func() {
		defer close(out)
		for {
			data, err := r.Read(ctx)
			select {
			case out <- Result{Data: data, Err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()
	return out
}

// Cancel closes the underlying port, which unblocks any pending Read with
// an error that surfaces as Eof.
func (r *SerialReader) Cancel() {
	r.cancelled.Store(true)
	if r.port != nil {
		r.port.Close()
	}
}

func (r *SerialReader) Close() error {
	if r.port == nil {
		return nil
	}
	err := r.port.Close()
	r.port = nil
	return err
}
