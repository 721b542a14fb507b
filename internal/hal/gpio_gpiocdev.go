//go:build linux
// +build linux

package hal

import (
	"fmt"
	"sync"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// GpiocdevGPIO implements GPIOProvider using the Linux GPIO character
// device interface via go-gpiocdev. It works on both Pi 4 (gpiochip0) and
// Pi 5 (gpiochip4 / RP1 southbridge).
//
// Edge events arrive on the go-gpiocdev event handler goroutine, which must
// never block; each event is pushed onto a small buffered channel that
// WaitEdge drains. A full channel means the caller hasn't collected the
// previous edge yet, which should not happen under the IMU's read(timeout)
// discipline (invariant: one WaitEdge call consumes exactly one edge). On
// such an overrun the newer edge is dropped; the drop is not reported to
// WaitEdge or to the caller.
type GpiocdevGPIO struct {
	mu       sync.Mutex
	chipName string
	lines    map[int]*gpiocdev.Line
	events   map[int]chan EdgeEvent
}

// NewGpiocdevGPIO verifies chipName exists and returns a provider for it.
func NewGpiocdevGPIO(chipName string) (*GpiocdevGPIO, error) {
	c, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("hal: open GPIO chip %s: %w", chipName, err)
	}
	c.Close()

	return &GpiocdevGPIO{
		chipName: chipName,
		lines:    make(map[int]*gpiocdev.Line),
		events:   make(map[int]chan EdgeEvent),
	}, nil
}

func (g *GpiocdevGPIO) ArmEdge(pin int, edge EdgeMode, pull PullMode) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.closeLineLocked(pin)

	events := make(chan EdgeEvent, 1)
	handler := func(evt gpiocdev.LineEvent) {
		e := EdgeEvent{
			Pin:         pin,
			RisingEdge:  evt.Type == gpiocdev.LineEventRisingEdge,
			TimestampNS: int64(evt.Timestamp),
		}
		select {
		case events <- e:
		default:
			// Previous edge not yet consumed by WaitEdge; drop the new one
			// rather than block the event-handler goroutine. Under the
			// read(timeout) discipline this should never be reached.
		}
	}

	// The kernel timestamps edge events on its own clock (monotonic by
	// default); per spec this is acceptable interchangeably with realtime
	// as long as the chosen source is used consistently end to end.
	opts := []gpiocdev.LineReqOption{
		gpiocdev.AsInput,
		gpiocdev.WithEventHandler(handler),
		pullOption(pull),
	}
	switch edge {
	case EdgeRising:
		opts = append(opts, gpiocdev.WithRisingEdge)
	case EdgeFalling:
		opts = append(opts, gpiocdev.WithFallingEdge)
	case EdgeBoth:
		opts = append(opts, gpiocdev.WithBothEdges)
	default:
		return fmt.Errorf("hal: ArmEdge requires a rising, falling, or both-edge mode")
	}

	line, err := gpiocdev.RequestLine(g.chipName, pin, opts...)
	if err != nil {
		return fmt.Errorf("hal: arm edge detection on pin %d: %w", pin, err)
	}

	g.lines[pin] = line
	g.events[pin] = events
	return nil
}

func (g *GpiocdevGPIO) WaitEdge(pin int, timeout time.Duration) (EdgeEvent, error) {
	g.mu.Lock()
	events, ok := g.events[pin]
	g.mu.Unlock()
	if !ok {
		return EdgeEvent{}, fmt.Errorf("hal: pin %d not armed for edge detection", pin)
	}

	select {
	case evt := <-events:
		return evt, nil
	case <-time.After(timeout):
		return EdgeEvent{}, ErrTimeout
	}
}

func (g *GpiocdevGPIO) DigitalRead(pin int) (bool, error) {
	g.mu.Lock()
	line, ok := g.lines[pin]
	g.mu.Unlock()
	if !ok {
		return false, fmt.Errorf("hal: pin %d not requested", pin)
	}
	val, err := line.Value()
	if err != nil {
		return false, fmt.Errorf("hal: read pin %d: %w", pin, err)
	}
	return val != 0, nil
}

func (g *GpiocdevGPIO) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for pin := range g.lines {
		g.closeLineLocked(pin)
	}
	return nil
}

// closeLineLocked closes the line for pin, if any. Must be called with g.mu held.
func (g *GpiocdevGPIO) closeLineLocked(pin int) {
	if line, ok := g.lines[pin]; ok {
		line.Close()
		delete(g.lines, pin)
	}
	delete(g.events, pin)
}

func pullOption(pull PullMode) gpiocdev.LineReqOption {
	switch pull {
	case PullUp:
		return gpiocdev.WithPullUp
	case PullDown:
		return gpiocdev.WithPullDown
	default:
		return gpiocdev.WithBiasDisabled
	}
}
