package pipeline

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/brickgate/brickgate/pkg/transport"
)

// fakeCmd is a minimal Command whose payload is echoed through the test
// transport. Decode failures model a brick-reported error.
type fakeCmd struct {
	payload   []byte
	encodeErr error
	decodeErr error
}

func (c *fakeCmd) Encode(_ uint16) ([]byte, error) {
	if c.encodeErr != nil {
		return nil, c.encodeErr
	}
	return c.payload, nil
}

func (c *fakeCmd) Decode(payload []byte) (any, error) {
	if c.decodeErr != nil {
		return nil, c.decodeErr
	}
	return append([]byte(nil), payload...), nil
}

func frame(payload []byte) []byte {
	out := binary.LittleEndian.AppendUint16(nil, uint16(len(payload)))
	return append(out, payload...)
}

// echoResponder answers every write with the written payload framed
// back, so each command completes with its own bytes.
func echoResponder(written []byte) [][]byte {
	return [][]byte{frame(written[2:])}
}

// recorder collects completion outcomes across goroutines.
type recorder struct {
	mu      sync.Mutex
	results []any
	errs    []error
}

func (r *recorder) complete(result any, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
	r.errs = append(r.errs, err)
}

func (r *recorder) snapshot() ([]any, []error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]any(nil), r.results...), append([]error(nil), r.errs...)
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestEnqueueCompletesInOrder(t *testing.T) {
	lb := transport.NewLoopback()
	lb.SetResponder(echoResponder)
	p := New(lb)
	defer p.Close()

	rec := &recorder{}
	for i := 0; i < 5; i++ {
		cmd := &fakeCmd{payload: []byte{byte(i)}}
		if err := p.Enqueue(cmd, rec.complete); err != nil {
			t.Fatalf("Enqueue(%d) error = %v", i, err)
		}
	}
	if err := p.Drain(testContext(t)); err != nil {
		t.Fatalf("Drain() error = %v", err)
	}

	results, errs := rec.snapshot()
	if len(results) != 5 {
		t.Fatalf("got %d completions, want 5", len(results))
	}
	for i, res := range results {
		if errs[i] != nil {
			t.Fatalf("completion %d error = %v", i, errs[i])
		}
		b := res.([]byte)
		if len(b) != 1 || b[0] != byte(i) {
			t.Errorf("completion %d = % X, want %02X", i, b, i)
		}
	}
	if st := p.Stats(); st.Enqueued != 5 || st.Completed != 5 {
		t.Errorf("stats = %+v", st)
	}
}

func TestDrainWaitsForCommandsEnqueuedByCompletions(t *testing.T) {
	lb := transport.NewLoopback()
	lb.SetResponder(echoResponder)
	p := New(lb)
	defer p.Close()

	rec := &recorder{}
	first := &fakeCmd{payload: []byte{0x01}}
	err := p.Enqueue(first, func(result any, err error) {
		rec.complete(result, err)
		follow := &fakeCmd{payload: []byte{0x02}}
		if err := p.Enqueue(follow, rec.complete); err != nil {
			t.Errorf("follow-up Enqueue error = %v", err)
		}
	})
	if err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	if err := p.Drain(testContext(t)); err != nil {
		t.Fatalf("Drain() error = %v", err)
	}

	results, _ := rec.snapshot()
	if len(results) != 2 {
		t.Fatalf("got %d completions after Drain, want 2", len(results))
	}
}

func TestDeviceErrorDoesNotDisturbLaterCommands(t *testing.T) {
	lb := transport.NewLoopback()
	lb.SetResponder(echoResponder)
	p := New(lb)
	defer p.Close()

	rec := &recorder{}
	bad := errors.New("device said no")
	if err := p.Enqueue(&fakeCmd{payload: []byte{0x01}, decodeErr: bad}, rec.complete); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	if err := p.Enqueue(&fakeCmd{payload: []byte{0x02}}, rec.complete); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	if err := p.Drain(testContext(t)); err != nil {
		t.Fatalf("Drain() error = %v", err)
	}

	_, errs := rec.snapshot()
	if len(errs) != 2 {
		t.Fatalf("got %d completions, want 2", len(errs))
	}
	if !errors.Is(errs[0], bad) {
		t.Errorf("first completion error = %v, want %v", errs[0], bad)
	}
	if errs[1] != nil {
		t.Errorf("second completion error = %v, want nil", errs[1])
	}
	if st := p.Stats(); st.Failed != 1 || st.Completed != 1 {
		t.Errorf("stats = %+v", st)
	}
}

func TestEncodeErrorIsSynchronous(t *testing.T) {
	lb := transport.NewLoopback()
	p := New(lb)
	defer p.Close()

	bad := errors.New("no such port")
	err := p.Enqueue(&fakeCmd{encodeErr: bad}, func(any, error) {
		t.Error("completion must not run for a command that never encoded")
	})
	if !errors.Is(err, ErrEncode) {
		t.Fatalf("Enqueue() error = %v, want ErrEncode", err)
	}
	if got := lb.Writes(); len(got) != 0 {
		t.Errorf("transport saw %d writes, want 0", len(got))
	}
	if st := p.Stats(); st.Enqueued != 0 {
		t.Errorf("stats = %+v", st)
	}
}

func TestTransportFailureFailsAllInFlight(t *testing.T) {
	lb := transport.NewLoopback() // no responder: commands stay in flight
	p := New(lb)
	defer p.Close()

	rec := &recorder{}
	for i := 0; i < 3; i++ {
		if err := p.Enqueue(&fakeCmd{payload: []byte{byte(i)}}, rec.complete); err != nil {
			t.Fatalf("Enqueue(%d) error = %v", i, err)
		}
	}
	lb.Close() // the reader sees the transport die

	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, errs := rec.snapshot(); len(errs) == 3 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("in-flight commands never failed")
		}
		time.Sleep(time.Millisecond)
	}

	_, errs := rec.snapshot()
	for i, err := range errs {
		if !errors.Is(err, ErrDisconnected) {
			t.Errorf("completion %d error = %v, want ErrDisconnected", i, err)
		}
	}
	if err := p.Enqueue(&fakeCmd{payload: []byte{0xFF}}, nil); !errors.Is(err, ErrDisconnected) {
		t.Errorf("Enqueue() after failure error = %v, want ErrDisconnected", err)
	}
	if err := p.Drain(testContext(t)); err != nil {
		t.Errorf("Drain() after failure error = %v, want nil", err)
	}
}

func TestEnqueueAfterCloseReturnsErrClosed(t *testing.T) {
	p := New(transport.NewLoopback())
	if err := p.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := p.Enqueue(&fakeCmd{payload: []byte{0x01}}, nil); !errors.Is(err, ErrClosed) {
		t.Errorf("Enqueue() error = %v, want ErrClosed", err)
	}
	// Close is idempotent.
	if err := p.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestUnsolicitedFrameIsDiscarded(t *testing.T) {
	lb := transport.NewLoopback()
	lb.SetResponder(echoResponder)
	p := New(lb)
	defer p.Close()

	lb.QueueRead(frame([]byte{0xDE, 0xAD}))
	deadline := time.Now().Add(5 * time.Second)
	for p.Stats().Unsolicited == 0 {
		if time.Now().After(deadline) {
			t.Fatal("unsolicited frame never counted")
		}
		time.Sleep(time.Millisecond)
	}

	// The pipeline is still healthy afterwards.
	rec := &recorder{}
	if err := p.Enqueue(&fakeCmd{payload: []byte{0x07}}, rec.complete); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	if err := p.Drain(testContext(t)); err != nil {
		t.Fatalf("Drain() error = %v", err)
	}
	results, errs := rec.snapshot()
	if len(results) != 1 || errs[0] != nil {
		t.Fatalf("completions = %v / %v", results, errs)
	}
	if b := results[0].([]byte); b[0] != 0x07 {
		t.Errorf("completed with % X, want 07", b)
	}
}

func TestFragmentedRepliesReassemble(t *testing.T) {
	lb := transport.NewLoopback() // replies fed by hand, byte by byte
	p := New(lb)
	defer p.Close()

	rec := &recorder{}
	if err := p.Enqueue(&fakeCmd{payload: []byte{0x10}}, rec.complete); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	reply := frame([]byte{0xAA, 0xBB, 0xCC})
	for _, b := range reply {
		lb.QueueRead([]byte{b})
	}
	if err := p.Drain(testContext(t)); err != nil {
		t.Fatalf("Drain() error = %v", err)
	}

	results, errs := rec.snapshot()
	if len(results) != 1 || errs[0] != nil {
		t.Fatalf("completions = %v / %v", results, errs)
	}
	got := results[0].([]byte)
	if len(got) != 3 || got[0] != 0xAA || got[2] != 0xCC {
		t.Errorf("reassembled payload = % X", got)
	}
}

func TestDrainCriticalIgnoresNonCriticalCommands(t *testing.T) {
	lb := transport.NewLoopback()
	// Answer the first write only, leaving the second in flight.
	answered := false
	lb.SetResponder(func(written []byte) [][]byte {
		if answered {
			return nil
		}
		answered = true
		return [][]byte{frame(written[2:])}
	})
	p := New(lb)
	defer p.Close()

	if err := p.EnqueueCritical(&fakeCmd{payload: []byte{0x01}}, nil); err != nil {
		t.Fatalf("EnqueueCritical() error = %v", err)
	}
	if err := p.Enqueue(&fakeCmd{payload: []byte{0x02}}, nil); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	if err := p.DrainCritical(testContext(t)); err != nil {
		t.Fatalf("DrainCritical() error = %v", err)
	}

	// The non-critical command is still in flight, so a full Drain
	// times out.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := p.Drain(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Drain() error = %v, want DeadlineExceeded", err)
	}
}

func TestDrainHonorsContext(t *testing.T) {
	lb := transport.NewLoopback() // never answers
	p := New(lb)
	defer p.Close()

	if err := p.Enqueue(&fakeCmd{payload: []byte{0x01}}, nil); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := p.Drain(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Drain() error = %v, want DeadlineExceeded", err)
	}
}

func TestPipelinesAreIndependent(t *testing.T) {
	lbA := transport.NewLoopback()
	pA := New(lbA)
	defer pA.Close()

	lbB := transport.NewLoopback()
	lbB.SetResponder(echoResponder)
	pB := New(lbB)
	defer pB.Close()

	if err := pA.Enqueue(&fakeCmd{payload: []byte{0x01}}, nil); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	lbA.Close()

	// The failure on A must not leak into B.
	rec := &recorder{}
	if err := pB.Enqueue(&fakeCmd{payload: []byte{0x02}}, rec.complete); err != nil {
		t.Fatalf("Enqueue() on healthy pipeline error = %v", err)
	}
	if err := pB.Drain(testContext(t)); err != nil {
		t.Fatalf("Drain() error = %v", err)
	}
	if _, errs := rec.snapshot(); len(errs) != 1 || errs[0] != nil {
		t.Errorf("healthy pipeline completions = %v", errs)
	}
}

func TestWriteFailureDropsOnlyThatCommand(t *testing.T) {
	lb := transport.NewLoopback()
	lb.SetResponder(echoResponder)
	p := New(lb)
	defer p.Close()

	lb.FailWrites(fmt.Errorf("cable yanked"))
	if err := p.Enqueue(&fakeCmd{payload: []byte{0x01}}, nil); !errors.Is(err, ErrWrite) {
		t.Fatalf("Enqueue() error = %v, want ErrWrite", err)
	}

	// Once writes work again the pipeline carries on.
	lb.FailWrites(nil)
	rec := &recorder{}
	if err := p.Enqueue(&fakeCmd{payload: []byte{0x02}}, rec.complete); err != nil {
		t.Fatalf("Enqueue() after recovery error = %v", err)
	}
	if err := p.Drain(testContext(t)); err != nil {
		t.Fatalf("Drain() error = %v", err)
	}
	if results, errs := rec.snapshot(); len(results) != 1 || errs[0] != nil {
		t.Errorf("completions = %v / %v", results, errs)
	}
}
