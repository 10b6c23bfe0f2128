package transport

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func TestLoopbackResponder(t *testing.T) {
	lb := NewLoopback()
	lb.SetResponder(func(written []byte) [][]byte {
		// Echo the written frame back in two fragments.
		mid := len(written) / 2
		return [][]byte{written[:mid], written[mid:]}
	})

	frame := []byte{0x04, 0x00, 0x01, 0x02, 0x03, 0x04}
	if _, err := lb.Write(frame); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got := make([]byte, 0, len(frame))
	buf := make([]byte, 16)
	for len(got) < len(frame) {
		n, err := lb.Read(buf)
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		got = append(got, buf[:n]...)
	}

	if !bytes.Equal(got, frame) {
		t.Errorf("Read() = %x, want %x", got, frame)
	}

	writes := lb.Writes()
	if len(writes) != 1 || !bytes.Equal(writes[0], frame) {
		t.Errorf("Writes() = %x, want one entry %x", writes, frame)
	}
}

func TestLoopbackFailWrites(t *testing.T) {
	lb := NewLoopback()
	boom := errors.New("boom")
	lb.FailWrites(boom)

	if _, err := lb.Write([]byte{0x01}); !errors.Is(err, boom) {
		t.Errorf("Write() error = %v, want %v", err, boom)
	}

	lb.FailWrites(nil)
	if _, err := lb.Write([]byte{0x01}); err != nil {
		t.Errorf("Write() after reset error = %v", err)
	}
}

func TestLoopbackCloseUnblocksRead(t *testing.T) {
	lb := NewLoopback()

	done := make(chan error, 1)
	go func() {
		_, err := lb.Read(make([]byte, 8))
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	lb.Close()

	select {
	case err := <-done:
		if !errors.Is(err, ErrClosed) {
			t.Errorf("Read() after Close error = %v, want ErrClosed", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Read() did not unblock after Close")
	}
}
