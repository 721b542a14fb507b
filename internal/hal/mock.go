package hal

import (
	"fmt"
	"sync"
	"time"
)

// MockHAL is an in-memory HAL for tests and non-Linux development builds.
type MockHAL struct {
	gpio *MockGPIO
	spi  *MockSPI
	info BoardInfo
}

func NewMockHAL() *MockHAL {
	return &MockHAL{
		gpio: &MockGPIO{armed: make(map[int]chan EdgeEvent), levels: make(map[int]bool)},
		spi:  &MockSPI{},
		info: BoardInfo{Model: BoardUnknown, Name: "Mock Board", GPIOChip: "mock0"},
	}
}

func (m *MockHAL) GPIO() GPIOProvider { return m.gpio }
func (m *MockHAL) SPI() SPIProvider   { return m.spi }
func (m *MockHAL) Info() BoardInfo    { return m.info }
func (m *MockHAL) Close() error       { return nil }

// MockGPIO simulates edge-triggered input lines. Tests drive it by calling
// FireEdge; production code only ever sees the GPIOProvider interface.
type MockGPIO struct {
	mu     sync.Mutex
	armed  map[int]chan EdgeEvent
	levels map[int]bool
}

func (g *MockGPIO) ArmEdge(pin int, edge EdgeMode, pull PullMode) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.armed[pin] = make(chan EdgeEvent, 1)
	return nil
}

func (g *MockGPIO) WaitEdge(pin int, timeout time.Duration) (EdgeEvent, error) {
	g.mu.Lock()
	ch, ok := g.armed[pin]
	g.mu.Unlock()
	if !ok {
		return EdgeEvent{}, fmt.Errorf("hal: pin %d not armed for edge detection", pin)
	}
	select {
	case evt := <-ch:
		return evt, nil
	case <-time.After(timeout):
		return EdgeEvent{}, ErrTimeout
	}
}

// FireEdge simulates a kernel edge event for tests and marks pin's level
// high. If pin hasn't been armed, no edge event is queued.
func (g *MockGPIO) FireEdge(pin int, timestampNS int64) {
	g.mu.Lock()
	ch, ok := g.armed[pin]
	g.levels[pin] = true
	g.mu.Unlock()
	if !ok {
		return
	}
	select {
	case ch <- EdgeEvent{Pin: pin, RisingEdge: true, TimestampNS: timestampNS}:
	default:
	}
}

func (g *MockGPIO) DigitalRead(pin int) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.levels[pin], nil
}

func (g *MockGPIO) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.armed = make(map[int]chan EdgeEvent)
	return nil
}

// MockSPI records configuration and echoes back whatever the test installs
// via SetResponse (default: zeroed response of the same length as tx).
type MockSPI struct {
	mu          sync.Mutex
	speed       int
	mode        byte
	bitsPerWord byte
	response    []byte
}

func (s *MockSPI) Open(bus, device int) error { return nil }

func (s *MockSPI) SetSpeed(hz int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.speed = hz
	return nil
}

func (s *MockSPI) SetMode(mode byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = mode
	return nil
}

func (s *MockSPI) SetBitsPerWord(bits byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bitsPerWord = bits
	return nil
}

// SetResponse installs the bytes the next Transfer(s) will return, ignoring
// tx content. Used by tests to inject a known IMU register payload.
func (s *MockSPI) SetResponse(resp []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.response = append([]byte(nil), resp...)
}

func (s *MockSPI) Transfer(tx []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.response != nil {
		out := make([]byte, len(tx))
		copy(out, s.response)
		return out, nil
	}
	return make([]byte, len(tx)), nil
}

func (s *MockSPI) Close() error { return nil }
