package robot

import (
	"context"
	"fmt"
	"sync"

	"github.com/brickgate/brickgate/pkg/pipeline"
	"github.com/brickgate/brickgate/pkg/protocol/nxt"
	"github.com/brickgate/brickgate/pkg/transport"
)

// minNXTFirmware is the default firmware constraint for NXT bricks.
// 1.26 is the oldest firmware with reliable low-speed bus behaviour.
const minNXTFirmware = ">= 1.26"

// NXT is a handle to one connected NXT brick.
type NXT struct {
	pl  *pipeline.Pipeline
	reg *pipeline.Registry

	closeOnce sync.Once
	closeErr  error

	// Firmware as reported by the brick at construction, e.g. "1.28".
	Firmware string
}

// NewNXT connects a handle the same way NewEV3 does, against the NXT
// device class and firmware floor.
func NewNXT(ctx context.Context, opts ...Option) (*NXT, error) {
	o := buildOptions(minNXTFirmware, opts)
	tr, err := o.openTransport(transport.DeviceNXT)
	if err != nil {
		return nil, err
	}

	var plOpts []pipeline.Option
	if o.log != nil {
		plOpts = append(plOpts, pipeline.WithLogger(o.log))
	}
	pl := pipeline.New(tr, plOpts...)

	res, err := roundTrip(ctx, pl, &nxt.GetFirmwareVersion{})
	if err != nil {
		pl.Close()
		return nil, fmt.Errorf("reading firmware version: %w", err)
	}
	info := res.(nxt.FirmwareInfo)
	if err := checkFirmware(info.FirmwareVersion, o.minFirmware); err != nil {
		pl.Close()
		return nil, err
	}

	h := &NXT{pl: pl, reg: o.reg, Firmware: info.FirmwareVersion}
	o.reg.Register(pl)
	return h, nil
}

// Pipeline exposes the handle's pipeline for drain and poll helpers.
func (h *NXT) Pipeline() *pipeline.Pipeline { return h.pl }

// Close flushes critical commands, unregisters and shuts the pipeline
// down. Safe to call more than once.
func (h *NXT) Close() error {
	h.closeOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		h.closeErr = h.pl.DrainCritical(ctx)
		h.reg.Unregister(h.pl)
		h.pl.Close()
	})
	return h.closeErr
}

// KeepAwake resets the brick's sleep timer.
func (h *NXT) KeepAwake() error {
	return h.pl.Enqueue(&nxt.KeepAlive{}, nil)
}

// BatteryMillivolts reads the battery voltage.
func (h *NXT) BatteryMillivolts(ctx context.Context) (int, bool) {
	res, err := roundTrip(ctx, h.pl, &nxt.GetBatteryLevel{})
	if err != nil {
		return 0, false
	}
	return int(res.(nxt.Millivolts)), true
}

// Motor returns a facade for the motor on port.
func (h *NXT) Motor(port nxt.OutPort) NXTMotor {
	return NXTMotor{h: h, port: port}
}

// Sensor returns a facade for the sensor on port.
func (h *NXT) Sensor(port nxt.SensorPort) NXTSensor {
	return NXTSensor{h: h, port: port}
}

// Sound returns the sound facade.
func (h *NXT) Sound() NXTSound { return NXTSound{h: h} }
