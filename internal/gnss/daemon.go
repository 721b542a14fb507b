package gnss

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/edgeflow/telemetryd/internal/errs"
	"github.com/edgeflow/telemetryd/internal/nmea"
)

// DaemonConfig configures the GNSS-daemon JSON variant.
type DaemonConfig struct {
	Addr       string
	ReadTimeout time.Duration
}

// DefaultDaemonConfig matches gpsd's default listen address.
func DefaultDaemonConfig() DaemonConfig {
	return DaemonConfig{Addr: "localhost:2947", ReadTimeout: 2 * time.Second}
}

var statusToFixQuality = map[int]int{0: 0, 1: 1, 2: 2, 3: 4, 4: 5, 5: 6}
var statusToVTGMode = map[int]string{0: "N", 1: "A", 2: "D", 3: "D", 4: "D", 5: "E"}

type classEnvelope struct {
	Class string `json:"class"`
}

type skyMessage struct {
	USat       *int              `json:"uSat"`
	NSat       *int              `json:"nSat"`
	HDOP       *float64          `json:"hdop"`
	Satellites []skySatellite    `json:"satellites"`
}

type skySatellite struct {
	Used bool `json:"used"`
}

type tpvMessage struct {
	Status *int     `json:"status"`
	Time   *string  `json:"time"`
	Lat    *float64 `json:"lat"`
	Lon    *float64 `json:"lon"`
	AltMSL *float64 `json:"altMSL"`
	Alt    *float64 `json:"alt"`
	Speed  *float64 `json:"speed"`
	Track  *float64 `json:"track"`
}

// DaemonReader consumes newline-delimited JSON from a GNSS daemon (gpsd
// protocol), merging SKY satellite/HDOP state into each TPV-derived sample.
type DaemonReader struct {
	conn      net.Conn
	reader    *bufio.Reader
	timeout   time.Duration
	cancelled atomic.Bool

	mu            sync.Mutex
	numSatellites *int
	hdop          *float64
}

// OpenDaemon dials the daemon, sends the ?WATCH handshake, and returns a
// ready-to-read DaemonReader. If any setup step fails the socket is closed
// before the error is returned.
func OpenDaemon(cfg DaemonConfig) (*DaemonReader, error) {
	conn, err := net.Dial("tcp", cfg.Addr)
	if err != nil {
		return nil, errs.Wrap(errs.ErrConfiguration, "dial GNSS daemon "+cfg.Addr)
	}

	if _, err := conn.Write([]byte(`?WATCH={"enable":true,"json":true}` + "\n")); err != nil {
		conn.Close()
		return nil, errs.Wrap(errs.ErrConfiguration, "send WATCH handshake")
	}

	return &DaemonReader{conn: conn, reader: bufio.NewReader(conn), timeout: cfg.ReadTimeout}, nil
}

// Read blocks until the next TPV message produces a Data sample. SKY
// messages update stored satellite-count/HDOP state but never return;
// timeouts loop back to the top; any other error is Eof.
func (d *DaemonReader) Read(ctx context.Context) (Data, error) {
	for {
		if d.cancelled.Load() {
			return Data{}, errs.ErrEOF
		}

		d.conn.SetReadDeadline(time.Now().Add(d.timeout))
		line, err := d.reader.ReadString('\n')
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return Data{}, errs.ErrEOF
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var env classEnvelope
		if err := json.Unmarshal([]byte(line), &env); err != nil || env.Class == "" {
			continue
		}

		switch env.Class {
		case "SKY":
			var sky skyMessage
			if err := json.Unmarshal([]byte(line), &sky); err != nil {
				continue
			}
			d.applySky(sky)
		case "TPV":
			var tpv tpvMessage
			if err := json.Unmarshal([]byte(line), &tpv); err != nil {
				continue
			}
			return d.buildData(tpv), nil
		}
	}
}

func (d *DaemonReader) applySky(sky skyMessage) {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch {
	case sky.USat != nil:
		d.numSatellites = sky.USat
	case sky.NSat != nil:
		d.numSatellites = sky.NSat
	case sky.Satellites != nil:
		used := 0
		for _, s := range sky.Satellites {
			if s.Used {
				used++
			}
		}
		d.numSatellites = &used
	}

	if sky.HDOP != nil {
		d.hdop = sky.HDOP
	}
}

func (d *DaemonReader) buildData(tpv tpvMessage) Data {
	status := 0
	if tpv.Status != nil {
		status = *tpv.Status
	}
	fixQuality, ok := statusToFixQuality[status]
	if !ok {
		fixQuality = 0
	}
	mode, ok := statusToVTGMode[status]
	if !ok {
		mode = "N"
	}

	alt := tpv.AltMSL
	if alt == nil {
		alt = tpv.Alt
	}

	var utc *string
	if tpv.Time != nil {
		if t := isoToHHMMSS(*tpv.Time); t != "" {
			utc = &t
		}
	}

	d.mu.Lock()
	numSatellites := d.numSatellites
	hdop := d.hdop
	d.mu.Unlock()

	gga := nmea.GGA{
		UTCTime:           utc,
		LatitudeDegrees:   tpv.Lat,
		LongitudeDegrees:  tpv.Lon,
		FixQuality:        fixQuality,
		NumSatellites:     numSatellites,
		HDOP:              hdop,
		AltitudeMeters:    alt,
		Valid:             fixQuality > 0,
	}

	var speedMS, speedKnots, speedKPH *float64
	if tpv.Speed != nil {
		ms := *tpv.Speed
		kt := ms * 1.94384
		kph := ms * 3.6
		speedMS, speedKnots, speedKPH = &ms, &kt, &kph
	}

	vtg := nmea.VTG{
		TrackTrueDegrees: tpv.Track,
		SpeedMS:          speedMS,
		SpeedKnots:       speedKnots,
		SpeedKPH:         speedKPH,
		Mode:             &mode,
		Valid:            mode != "N",
	}

	return Data{GGA: gga, VTG: &vtg}
}

// isoToHHMMSS converts an ISO-8601 Z-suffixed timestamp
// ("2025-03-01T12:35:19.000Z") to "HHMMSS.ss". Returns "" if the string
// doesn't contain the expected "T" separator.
func isoToHHMMSS(iso string) string {
	t := strings.IndexByte(iso, 'T')
	if t < 0 || t+1 >= len(iso) {
		return ""
	}
	timePart := strings.TrimSuffix(iso[t+1:], "Z")

	hh, mm, ss, frac := "", "", "", "00"
	dot := strings.IndexByte(timePart, '.')
	clock := timePart
	if dot >= 0 {
		clock = timePart[:dot]
		fracDigits := timePart[dot+1:]
		if len(fracDigits) >= 2 {
			frac = fracDigits[:2]
		} else if len(fracDigits) == 1 {
			frac = fracDigits + "0"
		}
	}

	parts := strings.Split(clock, ":")
	if len(parts) != 3 {
		return ""
	}
	hh, mm, ss = parts[0], parts[1], parts[2]

	hhN, err1 := strconv.Atoi(hh)
	mmN, err2 := strconv.Atoi(mm)
	ssN, err3 := strconv.Atoi(ss)
	if err1 != nil || err2 != nil || err3 != nil {
		return ""
	}

	return fmt.Sprintf("%02d%02d%02d.%s", hhN, mmN, ssN, frac)
}

// Iterate repeatedly calls Read, forwarding every result until Eof.
func (d *DaemonReader) Iterate(ctx context.Context) <-chan Result {
	out := make(chan Result)
	go func() {
		defer close(out)
		for {
			data, err := d.Read(ctx)
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

// Cancel sets the cancel flag and half-closes the read side so the blocked
// read unblocks promptly; the next Read call observes the flag and returns
// Eof without waiting for the read timeout.
func (d *DaemonReader) Cancel() {
	d.cancelled.Store(true)
	if tc, ok := d.conn.(*net.TCPConn); ok {
		tc.CloseRead()
	}
}

func (d *DaemonReader) Close() error {
	if d.conn == nil {
		return nil
	}
	err := d.conn.Close()
	d.conn = nil
	return err
}
