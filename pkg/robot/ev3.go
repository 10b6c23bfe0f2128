package robot

import (
	"context"
	"fmt"
	"sync"

	"github.com/brickgate/brickgate/pkg/pipeline"
	"github.com/brickgate/brickgate/pkg/protocol/ev3"
	"github.com/brickgate/brickgate/pkg/transport"
)

// minEV3Firmware is the default firmware constraint for EV3 bricks.
const minEV3Firmware = ">= 1.0.0"

// EV3 is a handle to one connected EV3 brick.
type EV3 struct {
	pl      *pipeline.Pipeline
	reg     *pipeline.Registry
	display *EV3Display

	closeOnce sync.Once
	closeErr  error

	// Firmware as reported by the brick at construction, e.g. "V1.09H".
	Firmware string
}

// NewEV3 connects a handle: it opens the transport (injected or
// discovered from BRICKGATE_DEVICE_*), verifies the firmware version
// and registers the handle for teardown flushing. ctx bounds the
// firmware round trip.
func NewEV3(ctx context.Context, opts ...Option) (*EV3, error) {
	o := buildOptions(minEV3Firmware, opts)
	tr, err := o.openTransport(transport.DeviceEV3)
	if err != nil {
		return nil, err
	}

	var plOpts []pipeline.Option
	if o.log != nil {
		plOpts = append(plOpts, pipeline.WithLogger(o.log))
	}
	pl := pipeline.New(tr, plOpts...)

	res, err := roundTrip(ctx, pl, &ev3.FirmwareVersion{})
	if err != nil {
		pl.Close()
		return nil, fmt.Errorf("reading firmware version: %w", err)
	}
	reported := string(res.(ev3.Version))
	if err := checkFirmware(reported, o.minFirmware); err != nil {
		pl.Close()
		return nil, err
	}

	h := &EV3{pl: pl, reg: o.reg, Firmware: reported}
	h.display = &EV3Display{h: h}
	o.reg.Register(pl)
	return h, nil
}

// Pipeline exposes the handle's pipeline for drain and poll helpers.
func (h *EV3) Pipeline() *pipeline.Pipeline { return h.pl }

// Close flushes critical commands (motor and sound stops), then
// unregisters and shuts the pipeline down. Safe to call more than
// once.
func (h *EV3) Close() error {
	h.closeOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		h.closeErr = h.pl.DrainCritical(ctx)
		h.reg.Unregister(h.pl)
		h.pl.Close()
	})
	return h.closeErr
}

// KeepAwake resets the brick's sleep timer to minutes.
func (h *EV3) KeepAwake(minutes byte) error {
	return h.pl.Enqueue(&ev3.KeepAlive{Minutes: minutes}, nil)
}

// Motor returns a facade for the motor on port.
func (h *EV3) Motor(port ev3.OutPort) EV3Motor {
	return EV3Motor{h: h, port: port}
}

// MotorPair returns a synchronized facade for exactly two distinct
// motors.
func (h *EV3) MotorPair(a, b ev3.OutPort) (EV3MotorPair, error) {
	if a.Index() < 0 || b.Index() < 0 || a == b {
		return EV3MotorPair{}, fmt.Errorf("%w: got %04b and %04b", ErrInvalidPortPair, a, b)
	}
	return EV3MotorPair{h: h, ports: a | b}, nil
}

// Sensor returns a facade for the sensor on port.
func (h *EV3) Sensor(port ev3.InPort) EV3Sensor {
	return EV3Sensor{h: h, port: port}
}

// Sound returns the sound facade.
func (h *EV3) Sound() EV3Sound { return EV3Sound{h: h} }

// Display returns the LCD facade. The same value is returned on every
// call so the batch flag persists.
func (h *EV3) Display() *EV3Display { return h.display }

// Buttons returns the face-button facade.
func (h *EV3) Buttons() EV3Buttons { return EV3Buttons{h: h} }

// LED returns the button-backlight facade.
func (h *EV3) LED() EV3LED { return EV3LED{h: h} }
