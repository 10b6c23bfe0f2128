package transport

import (
	"bytes"
	"sync"
)

// Loopback is an in-memory Transport for tests.
//
// Written frames are recorded and optionally answered by a responder
// function; the reply bytes become available to Read. Bytes can also be
// queued directly with QueueRead to simulate unsolicited or fragmented
// arrival, and writes can be made to fail with FailWrites.
type Loopback struct {
	mu        sync.Mutex
	buf       bytes.Buffer
	writes    [][]byte
	responder func(written []byte) [][]byte
	writeErr  error

	dataCh    chan struct{}
	closed    chan struct{}
	closeOnce sync.Once
}

// NewLoopback creates an empty loopback transport.
func NewLoopback() *Loopback {
	return &Loopback{
		dataCh: make(chan struct{}, 1),
		closed: make(chan struct{}),
	}
}

// SetResponder installs fn, called with every written frame. The returned
// chunks are appended, in order, to the bytes available for Read. fn must
// not call back into the Loopback.
func (l *Loopback) SetResponder(fn func(written []byte) [][]byte) {
	l.mu.Lock()
	l.responder = fn
	l.mu.Unlock()
}

// QueueRead makes p available to the next Read.
func (l *Loopback) QueueRead(p []byte) {
	l.mu.Lock()
	l.buf.Write(p)
	l.mu.Unlock()
	l.signal()
}

// FailWrites makes every subsequent Write return err. Passing nil restores
// normal behaviour.
func (l *Loopback) FailWrites(err error) {
	l.mu.Lock()
	l.writeErr = err
	l.mu.Unlock()
}

// Writes returns a snapshot of everything written so far, one entry per
// Write call.
func (l *Loopback) Writes() [][]byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([][]byte, len(l.writes))
	for i, w := range l.writes {
		out[i] = append([]byte(nil), w...)
	}
	return out
}

// Read blocks until bytes are available or the transport is closed.
func (l *Loopback) Read(p []byte) (int, error) {
	for {
		l.mu.Lock()
		if l.buf.Len() > 0 {
			n, _ := l.buf.Read(p)
			l.mu.Unlock()
			return n, nil
		}
		l.mu.Unlock()

		select {
		case <-l.dataCh:
		case <-l.closed:
			return 0, ErrClosed
		}
	}
}

// Write records p and, if a responder is installed, queues its reply bytes.
func (l *Loopback) Write(p []byte) (int, error) {
	select {
	case <-l.closed:
		return 0, ErrClosed
	default:
	}

	l.mu.Lock()
	if l.writeErr != nil {
		err := l.writeErr
		l.mu.Unlock()
		return 0, err
	}

	written := append([]byte(nil), p...)
	l.writes = append(l.writes, written)

	if l.responder != nil {
		for _, chunk := range l.responder(written) {
			l.buf.Write(chunk)
		}
	}
	l.mu.Unlock()
	l.signal()
	return len(p), nil
}

// Close releases read waiters. Safe to call more than once.
func (l *Loopback) Close() error {
	l.closeOnce.Do(func() { close(l.closed) })
	return nil
}

func (l *Loopback) signal() {
	select {
	case l.dataCh <- struct{}{}:
	default:
	}
}
