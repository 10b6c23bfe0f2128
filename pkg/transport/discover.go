package transport

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// DeviceClass identifies a brick family.
type DeviceClass string

// Supported device classes.
const (
	DeviceEV3 DeviceClass = "ev3"
	DeviceNXT DeviceClass = "nxt"
)

// DeviceInfo describes a brick found through environment discovery.
type DeviceInfo struct {
	Class DeviceClass
	Port  string
	Baud  int
}

// deviceEnv maps the discovery environment variables.
type deviceEnv struct {
	Class string `env:"BRICKGATE_DEVICE_CLASS"`
	Port  string `env:"BRICKGATE_DEVICE_PORT"`
	Baud  int    `env:"BRICKGATE_DEVICE_BAUD" envDefault:"57600"`
}

// Discover reads the device description from the process environment.
//
// Required variables:
//   - BRICKGATE_DEVICE_CLASS: "ev3" or "nxt"
//   - BRICKGATE_DEVICE_PORT:  serial port path, e.g. "/dev/rfcomm0"
//
// Optional:
//   - BRICKGATE_DEVICE_BAUD: line speed, default 57600
//
// Returns ErrNoDevice when the required variables are absent and
// ErrBadDeviceEnv when they are present but malformed.
func Discover() (DeviceInfo, error) {
	var e deviceEnv
	if err := env.Parse(&e); err != nil {
		return DeviceInfo{}, fmt.Errorf("%w: %w", ErrBadDeviceEnv, err)
	}

	if e.Class == "" && e.Port == "" {
		return DeviceInfo{}, ErrNoDevice
	}

	class := DeviceClass(e.Class)
	switch class {
	case DeviceEV3, DeviceNXT:
	default:
		return DeviceInfo{}, fmt.Errorf("%w: unknown device class %q", ErrBadDeviceEnv, e.Class)
	}

	if e.Port == "" {
		return DeviceInfo{}, fmt.Errorf("%w: BRICKGATE_DEVICE_PORT not set", ErrBadDeviceEnv)
	}
	if e.Baud <= 0 {
		return DeviceInfo{}, fmt.Errorf("%w: baud %d out of range", ErrBadDeviceEnv, e.Baud)
	}

	return DeviceInfo{Class: class, Port: e.Port, Baud: e.Baud}, nil
}

// Open opens a serial Transport for the discovered device.
func (d DeviceInfo) Open() (Transport, error) {
	return OpenSerial(SerialConfig{
		Name:        d.Port,
		Baud:        d.Baud,
		ReadTimeout: 250 * time.Millisecond,
	})
}

// Validate checks that the discovered device matches the family a handle
// is being constructed for. Returns ErrClassMismatch (wrapped) otherwise.
func (d DeviceInfo) Validate(want DeviceClass) error {
	if d.Class != want {
		return fmt.Errorf("%w: environment names %q, handle wants %q", ErrClassMismatch, d.Class, want)
	}
	return nil
}
