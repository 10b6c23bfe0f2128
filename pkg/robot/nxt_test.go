package robot

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/brickgate/brickgate/pkg/pipeline"
	"github.com/brickgate/brickgate/pkg/protocol/nxt"
	"github.com/brickgate/brickgate/pkg/transport"
)

// nxtBrick answers every write like a healthy brick. The first write is
// the construction-time firmware query (protocol 1.124, firmware as
// given); later writes get the data bytes produced by script(i, opcode).
func nxtBrick(fwMajor, fwMinor byte, script func(i int, opcode byte) []byte) func([]byte) [][]byte {
	call := -1
	return func(written []byte) [][]byte {
		call++
		opcode := written[3]
		if call == 0 {
			return [][]byte{frame([]byte{0x02, opcode, 0x00, 0x7C, 0x01, fwMinor, fwMajor})}
		}
		payload := []byte{0x02, opcode, 0x00}
		if script != nil {
			payload = append(payload, script(call-1, opcode)...)
		}
		return [][]byte{frame(payload)}
	}
}

func newTestNXT(t *testing.T, lb *transport.Loopback, opts ...Option) *NXT {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	opts = append([]Option{
		WithTransport(lb),
		WithRegistry(pipeline.NewRegistry()),
	}, opts...)
	h, err := NewNXT(ctx, opts...)
	if err != nil {
		t.Fatalf("NewNXT() error = %v", err)
	}
	t.Cleanup(func() { h.Close() })
	return h
}

func TestNewNXTReadsFirmware(t *testing.T) {
	lb := transport.NewLoopback()
	lb.SetResponder(nxtBrick(1, 28, nil))
	h := newTestNXT(t, lb)
	if h.Firmware != "1.28" {
		t.Errorf("Firmware = %q, want 1.28", h.Firmware)
	}
}

func TestNewNXTRejectsOldFirmware(t *testing.T) {
	lb := transport.NewLoopback()
	lb.SetResponder(nxtBrick(1, 5, nil))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := NewNXT(ctx, WithTransport(lb), WithRegistry(pipeline.NewRegistry()))
	if !errors.Is(err, ErrFirmwareUnsupported) {
		t.Fatalf("NewNXT() error = %v, want ErrFirmwareUnsupported", err)
	}
}

func TestNXTMotorRunAndStop(t *testing.T) {
	lb := transport.NewLoopback()
	lb.SetResponder(nxtBrick(1, 28, nil))
	h := newTestNXT(t, lb)

	m := h.Motor(nxt.OutA)
	if err := m.Run(80); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if err := m.Stop(false); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.Pipeline().Drain(ctx); err != nil {
		t.Fatalf("Drain() error = %v", err)
	}

	writes := lb.Writes()
	if len(writes) != 3 { // firmware + run + stop
		t.Fatalf("got %d writes, want 3", len(writes))
	}
	run := writes[1]
	if run[3] != 0x04 { // SETOUTPUTSTATE
		t.Fatalf("run opcode = 0x%02X", run[3])
	}
	if run[5] != 80 {
		t.Errorf("run power = %d, want 80", int8(run[5]))
	}
	stop := writes[2]
	if stop[5] != 0 || stop[9] != nxt.RunStateIdle {
		t.Errorf("coast stop frame = % X", stop)
	}
}

func TestNXTMotorPosition(t *testing.T) {
	lb := transport.NewLoopback()
	lb.SetResponder(nxtBrick(1, 28, func(int, byte) []byte {
		data := []byte{byte(nxt.OutB), 50, 0x01, 0x01, 0, nxt.RunStateRunning}
		data = binary.LittleEndian.AppendUint32(data, 0)   // limit
		data = binary.LittleEndian.AppendUint32(data, 540) // tacho
		data = binary.LittleEndian.AppendUint32(data, 0)
		data = binary.LittleEndian.AppendUint32(data, 0)
		return data
	}))
	h := newTestNXT(t, lb)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	got, ok := h.Motor(nxt.OutB).Position(ctx)
	if !ok || got != 540 {
		t.Errorf("Position() = %d, %v, want 540, true", got, ok)
	}
}

func TestNXTTouchSensor(t *testing.T) {
	lb := transport.NewLoopback()
	lb.SetResponder(nxtBrick(1, 28, func(_ int, opcode byte) []byte {
		if opcode != 0x07 { // GETINPUTVALUES
			return nil
		}
		data := []byte{byte(nxt.Sensor1), 0x01, 0x00, nxt.TypeSwitch, nxt.ModeBoolean}
		data = binary.LittleEndian.AppendUint16(data, 183) // raw
		data = binary.LittleEndian.AppendUint16(data, 1023)
		data = binary.LittleEndian.AppendUint16(data, 1) // scaled: pressed
		data = binary.LittleEndian.AppendUint16(data, 0)
		return data
	}))
	h := newTestNXT(t, lb)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	pressed, ok := h.Sensor(nxt.Sensor1).Pressed(ctx)
	if !ok || !pressed {
		t.Errorf("Pressed() = %v, %v, want true, true", pressed, ok)
	}
}

func TestNXTSensorAbsenceOnInvalidReading(t *testing.T) {
	lb := transport.NewLoopback()
	lb.SetResponder(nxtBrick(1, 28, func(_ int, opcode byte) []byte {
		if opcode != 0x07 {
			return nil
		}
		// valid flag clear
		data := []byte{byte(nxt.Sensor2), 0x00, 0x00, nxt.TypeLightActive, nxt.ModePctFullScale}
		data = append(data, make([]byte, 8)...)
		return data
	}))
	h := newTestNXT(t, lb)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, ok := h.Sensor(nxt.Sensor2).LightPercent(ctx, true); ok {
		t.Error("LightPercent() ok = true for invalid reading, want false")
	}
}

func TestNXTUltrasonicDistance(t *testing.T) {
	lb := transport.NewLoopback()
	statusPolls := 0
	lb.SetResponder(nxtBrick(1, 28, func(_ int, opcode byte) []byte {
		switch opcode {
		case 0x0E: // LSGETSTATUS: first poll not ready yet
			statusPolls++
			if statusPolls == 1 {
				return []byte{0}
			}
			return []byte{1}
		case 0x10: // LSREAD
			data := make([]byte, 17)
			data[0] = 1
			data[1] = 47
			return data
		default:
			return nil
		}
	}))
	h := newTestNXT(t, lb)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	got, ok := h.Sensor(nxt.Sensor4).DistanceCM(ctx)
	if !ok || got != 47 {
		t.Errorf("DistanceCM() = %d, %v, want 47, true", got, ok)
	}
	if statusPolls != 2 {
		t.Errorf("status polled %d times, want 2", statusPolls)
	}
}

func TestNXTUltrasonicNoEcho(t *testing.T) {
	lb := transport.NewLoopback()
	lb.SetResponder(nxtBrick(1, 28, func(_ int, opcode byte) []byte {
		switch opcode {
		case 0x0E:
			return []byte{1}
		case 0x10:
			data := make([]byte, 17)
			data[0] = 1
			data[1] = noEcho
			return data
		default:
			return nil
		}
	}))
	h := newTestNXT(t, lb)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, ok := h.Sensor(nxt.Sensor4).DistanceCM(ctx); ok {
		t.Error("DistanceCM() ok = true with no echo, want false")
	}
}

func TestNXTBatteryMillivolts(t *testing.T) {
	lb := transport.NewLoopback()
	lb.SetResponder(nxtBrick(1, 28, func(int, byte) []byte {
		return binary.LittleEndian.AppendUint16(nil, 8100)
	}))
	h := newTestNXT(t, lb)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	got, ok := h.BatteryMillivolts(ctx)
	if !ok || got != 8100 {
		t.Errorf("BatteryMillivolts() = %d, %v, want 8100, true", got, ok)
	}
}

func TestCheckFirmwareNormalization(t *testing.T) {
	tests := []struct {
		name       string
		reported   string
		constraint string
		wantErr    bool
	}{
		{"ev3 style", "V1.09H", ">= 1.0.0", false},
		{"nxt style", "1.28", ">= 1.26", false},
		{"below floor", "1.05", ">= 1.26", true},
		{"garbage", "???", ">= 1.0.0", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkFirmware(tt.reported, tt.constraint)
			if (err != nil) != tt.wantErr {
				t.Errorf("checkFirmware(%q, %q) error = %v, wantErr %v",
					tt.reported, tt.constraint, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrFirmwareUnsupported) {
				t.Errorf("error %v is not ErrFirmwareUnsupported", err)
			}
		})
	}
}
