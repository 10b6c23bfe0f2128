package pipeline

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brickgate/brickgate/pkg/transport"
)

// Command is one request/reply exchange with the brick. Encode receives
// the sequence number assigned at enqueue time; codecs that carry a
// message counter embed it, the rest ignore it. Decode receives the
// reply payload with the length prefix already stripped.
type Command interface {
	Encode(seq uint16) ([]byte, error)
	Decode(payload []byte) (any, error)
}

// CompletionFunc receives a command's decoded result or its error. It
// runs on the dispatch goroutine.
type CompletionFunc func(result any, err error)

// Logger is the subset of log/slog the pipeline needs.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Stats is a snapshot of pipeline counters.
type Stats struct {
	Enqueued    uint64
	Completed   uint64
	Failed      uint64
	Unsolicited uint64
}

type entry struct {
	cmd      Command
	complete CompletionFunc
	critical bool
}

type event struct {
	frame []byte
	err   error
}

// Option adjusts pipeline construction.
type Option func(*Pipeline)

// WithLogger sets the pipeline logger. Nil loggers are ignored.
func WithLogger(log Logger) Option {
	return func(p *Pipeline) {
		if log != nil {
			p.log = log
		}
	}
}

// Pipeline owns one transport and serializes all traffic over it.
type Pipeline struct {
	tr  transport.Transport
	log Logger

	mu       sync.Mutex
	cond     *sync.Cond
	inflight []*entry
	current  *entry // entry whose completion is running
	critical int    // critical entries, in-flight or current
	seq      uint16
	closed   bool
	dead     error // latched transport failure

	events  chan event
	tasks   chan func()
	drained chan struct{} // reader exited and events fully consumed
	done    chan struct{} // tells the dispatcher to exit
	stopped chan struct{} // dispatcher exited

	closeOnce sync.Once
	wg        sync.WaitGroup

	enqueued    atomic.Uint64
	completed   atomic.Uint64
	failed      atomic.Uint64
	unsolicited atomic.Uint64
}

// New starts a pipeline over tr. The caller keeps ownership of nothing:
// Close shuts the transport down too.
func New(tr transport.Transport, opts ...Option) *Pipeline {
	p := &Pipeline{
		tr:      tr,
		log:     nopLogger{},
		events:  make(chan event, 16),
		tasks:   make(chan func(), 16),
		drained: make(chan struct{}),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	p.cond = sync.NewCond(&p.mu)
	for _, opt := range opts {
		opt(p)
	}
	p.wg.Add(2)
	go p.readLoop()
	go p.dispatchLoop()
	return p
}

// Enqueue encodes cmd, writes it to the transport and appends it to the
// in-flight queue. complete may be nil for fire-and-forget commands;
// the reply still occupies a queue slot. Encoding and write errors are
// returned synchronously and the command never enters the queue.
func (p *Pipeline) Enqueue(cmd Command, complete CompletionFunc) error {
	return p.enqueue(cmd, complete, false)
}

// EnqueueCritical is Enqueue for commands that DrainCritical must wait
// for, such as motor stops issued during teardown.
func (p *Pipeline) EnqueueCritical(cmd Command, complete CompletionFunc) error {
	return p.enqueue(cmd, complete, true)
}

func (p *Pipeline) enqueue(cmd Command, complete CompletionFunc, critical bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if p.dead != nil {
		return fmt.Errorf("%w: %v", ErrDisconnected, p.dead)
	}

	p.seq++
	payload, err := cmd.Encode(p.seq)
	if err != nil {
		p.seq--
		return fmt.Errorf("%w: %v", ErrEncode, err)
	}

	frame := make([]byte, 0, 2+len(payload))
	frame = binary.LittleEndian.AppendUint16(frame, uint16(len(payload)))
	frame = append(frame, payload...)

	// The write happens under the lock so the wire order always
	// matches the queue order. A failed write only drops this
	// command; in-flight entries keep waiting for their replies, and
	// a genuinely dead transport surfaces through the reader.
	if _, werr := p.tr.Write(frame); werr != nil {
		p.seq--
		return fmt.Errorf("%w: %v", ErrWrite, werr)
	}

	p.inflight = append(p.inflight, &entry{cmd: cmd, complete: complete, critical: critical})
	if critical {
		p.critical++
	}
	p.enqueued.Add(1)
	return nil
}

// Drain blocks until the in-flight queue is empty, including commands
// enqueued by completions that run while draining. ctx is the only
// bound. Drain must not be called from a completion callback; use
// NotifyWhen for follow-up work instead.
func (p *Pipeline) Drain(ctx context.Context) error {
	return p.wait(ctx, func() bool {
		return len(p.inflight) == 0 && p.current == nil
	})
}

// DrainCritical blocks until no critical command is in flight.
// Non-critical commands are not waited for.
func (p *Pipeline) DrainCritical(ctx context.Context) error {
	return p.wait(ctx, func() bool {
		return p.critical == 0
	})
}

// wait blocks until idle() holds. idle is evaluated with p.mu held.
func (p *Pipeline) wait(ctx context.Context, idle func() bool) error {
	stop := context.AfterFunc(ctx, func() {
		p.mu.Lock()
		p.cond.Broadcast()
		p.mu.Unlock()
	})
	defer stop()

	p.mu.Lock()
	defer p.mu.Unlock()
	for !idle() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if p.dead != nil {
			// failAll already emptied the queue; nothing left to wait for.
			return nil
		}
		p.cond.Wait()
	}
	return nil
}

// After runs fn on the dispatch goroutine once d has elapsed. Tasks
// pending when the pipeline closes are dropped.
func (p *Pipeline) After(d time.Duration, fn func()) {
	time.AfterFunc(d, func() {
		select {
		case p.tasks <- fn:
		case <-p.stopped:
		}
	})
}

// Stats returns a snapshot of the pipeline counters.
func (p *Pipeline) Stats() Stats {
	return Stats{
		Enqueued:    p.enqueued.Load(),
		Completed:   p.completed.Load(),
		Failed:      p.failed.Load(),
		Unsolicited: p.unsolicited.Load(),
	}
}

// Close shuts the transport down, fails whatever is still in flight
// with ErrClosed and stops both goroutines. Safe to call more than
// once.
func (p *Pipeline) Close() error {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()

		p.tr.Close()
		<-p.drained // the failure event has been dispatched
		close(p.done)
		p.wg.Wait()
	})
	return nil
}

// readLoop turns the transport byte stream into length-delimited
// frames. It does no dispatching of its own.
func (p *Pipeline) readLoop() {
	defer p.wg.Done()
	defer close(p.events)

	var buf []byte
	tmp := make([]byte, 512)
	for {
		n, err := p.tr.Read(tmp)
		if n > 0 {
			buf = append(buf, tmp[:n]...)
			for {
				frame, rest, ok := splitFrame(buf)
				if !ok {
					break
				}
				buf = rest
				p.events <- event{frame: frame}
			}
		}
		if err != nil {
			p.events <- event{err: err}
			return
		}
	}
}

// splitFrame extracts one length-prefixed frame from buf. The returned
// frame is a copy so the read buffer can be reused.
func splitFrame(buf []byte) (frame, rest []byte, ok bool) {
	if len(buf) < 2 {
		return nil, buf, false
	}
	n := int(binary.LittleEndian.Uint16(buf))
	if len(buf) < 2+n {
		return nil, buf, false
	}
	frame = make([]byte, n)
	copy(frame, buf[2:2+n])
	return frame, buf[2+n:], true
}

func (p *Pipeline) dispatchLoop() {
	defer p.wg.Done()
	defer close(p.stopped)

	events := p.events
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				events = nil
				close(p.drained)
				continue
			}
			if ev.err != nil {
				p.failAll(ev.err)
				continue
			}
			p.dispatch(ev.frame)
		case fn := <-p.tasks:
			fn()
		case <-p.done:
			return
		}
	}
}

// dispatch completes the oldest in-flight command with one reply frame.
func (p *Pipeline) dispatch(frame []byte) {
	p.mu.Lock()
	if len(p.inflight) == 0 {
		p.mu.Unlock()
		p.unsolicited.Add(1)
		p.log.Warn("discarding unsolicited frame", "bytes", len(frame))
		return
	}
	e := p.inflight[0]
	p.inflight = p.inflight[1:]
	p.current = e
	p.mu.Unlock()

	result, err := e.cmd.Decode(frame)
	if err != nil {
		p.failed.Add(1)
		p.log.Debug("command failed", "error", err)
	} else {
		p.completed.Add(1)
	}
	if e.complete != nil {
		e.complete(result, err)
	}

	p.mu.Lock()
	p.current = nil
	if e.critical {
		p.critical--
	}
	p.cond.Broadcast()
	p.mu.Unlock()
}

// failAll empties the queue and completes every entry with the
// transport failure, oldest first.
func (p *Pipeline) failAll(cause error) {
	p.mu.Lock()
	if p.dead != nil {
		p.mu.Unlock()
		return
	}
	p.dead = cause
	pending := p.inflight
	p.inflight = nil
	p.critical = 0
	closed := p.closed
	p.cond.Broadcast()
	p.mu.Unlock()

	wrapped := fmt.Errorf("%w: %v", ErrDisconnected, cause)
	if closed {
		wrapped = fmt.Errorf("%w: %v", ErrClosed, cause)
	} else if len(pending) > 0 {
		p.log.Error("transport lost, failing in-flight commands",
			"pending", len(pending), "error", cause)
	}
	for _, e := range pending {
		p.failed.Add(1)
		if e.complete != nil {
			e.complete(nil, wrapped)
		}
	}
}
