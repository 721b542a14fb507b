//go:build linux
// +build linux

package hal

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// LinuxSPI implements SPIProvider over periph.io's spireg registry. Unlike
// periph's own Connect, which bakes speed/mode/bits into a single call, our
// callers Open once and then call SetSpeed/SetMode/SetBitsPerWord
// separately (mirroring the teacher's SPI node executor); we remember the
// last-set values and (re)connect lazily on the next Transfer.
type LinuxSPI struct {
	mu     sync.Mutex
	port   spi.PortCloser
	conn   spi.Conn
	speed  physic.Frequency
	mode   spi.Mode
	bits   int
	dirty  bool
}

func init() {
	// host.Init wires up every platform-specific driver periph.io knows
	// about (spireg, gpioreg, etc); safe to call more than once per process.
	if _, err := host.Init(); err != nil {
		panic(fmt.Sprintf("hal: periph.io host init: %v", err))
	}
}

func NewLinuxSPI() *LinuxSPI {
	return &LinuxSPI{speed: physic.MegaHertz, mode: spi.Mode0, bits: 8, dirty: true}
}

func (s *LinuxSPI) Open(bus, device int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	port, err := spireg.Open(fmt.Sprintf("SPI%d.%d", bus, device))
	if err != nil {
		return fmt.Errorf("hal: open SPI%d.%d: %w", bus, device, err)
	}
	if s.port != nil {
		s.port.Close()
	}
	s.port = port
	s.dirty = true
	return nil
}

func (s *LinuxSPI) SetSpeed(hz int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.speed = physic.Frequency(hz) * physic.Hertz
	s.dirty = true
	return nil
}

func (s *LinuxSPI) SetMode(mode byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch mode {
	case 0:
		s.mode = spi.Mode0
	case 1:
		s.mode = spi.Mode1
	case 2:
		s.mode = spi.Mode2
	case 3:
		s.mode = spi.Mode3
	default:
		return fmt.Errorf("hal: invalid SPI mode %d", mode)
	}
	s.dirty = true
	return nil
}

func (s *LinuxSPI) SetBitsPerWord(bits byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bits = int(bits)
	s.dirty = true
	return nil
}

func (s *LinuxSPI) Transfer(tx []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.port == nil {
		return nil, fmt.Errorf("hal: SPI not open")
	}
	if s.dirty || s.conn == nil {
		conn, err := s.port.Connect(s.speed, s.mode, s.bits)
		if err != nil {
			return nil, fmt.Errorf("hal: connect SPI: %w", err)
		}
		s.conn = conn
		s.dirty = false
	}

	rx := make([]byte, len(tx))
	if err := s.conn.Tx(tx, rx); err != nil {
		return nil, fmt.Errorf("hal: SPI transfer: %w", err)
	}
	return rx, nil
}

func (s *LinuxSPI) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	s.conn = nil
	return err
}
