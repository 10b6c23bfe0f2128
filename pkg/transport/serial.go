package transport

import (
	"fmt"
	"sync"
	"time"

	"github.com/tarm/serial"
)

// defaultReadTimeout bounds a single serial read so the pipeline's reader
// goroutine can observe shutdown instead of parking forever in a syscall.
const defaultReadTimeout = 250 * time.Millisecond

// SerialConfig holds serial port settings for a brick connection.
type SerialConfig struct {
	// Name is the port device path, e.g. "/dev/rfcomm0" or "/dev/ttyACM0".
	Name string

	// Baud is the line speed. Bluetooth RFCOMM ignores it; USB serial
	// bridges typically want 57600 (NXT) or 115200 (EV3).
	Baud int

	// ReadTimeout bounds an individual read. Zero means the package
	// default of 250ms.
	ReadTimeout time.Duration
}

// Serial is a Transport over a local serial port.
type Serial struct {
	port *serial.Port

	mu     sync.Mutex
	closed bool
}

// OpenSerial opens the configured serial port.
//
// Returns ErrOpenFailed (wrapped) if the port cannot be opened.
func OpenSerial(cfg SerialConfig) (*Serial, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("%w: empty port name", ErrOpenFailed)
	}
	timeout := cfg.ReadTimeout
	if timeout == 0 {
		timeout = defaultReadTimeout
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Name,
		Baud:        cfg.Baud,
		ReadTimeout: timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpenFailed, cfg.Name, err)
	}

	return &Serial{port: port}, nil
}

// Read reads available bytes from the port. A read timeout surfaces as
// (0, nil), which the pipeline treats as idle.
func (s *Serial) Read(p []byte) (int, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return 0, ErrClosed
	}
	return s.port.Read(p)
}

// Write sends p to the port in full.
func (s *Serial) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	return s.port.Write(p)
}

// Close closes the port. Safe to call more than once.
func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.port.Close()
}
