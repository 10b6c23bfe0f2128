package robot

import "errors"

var (
	// ErrInvalidPortPair is returned when a synchronized motor pair is
	// requested with anything other than two distinct output ports.
	ErrInvalidPortPair = errors.New("robot: motor pair needs two distinct output ports")

	// ErrFirmwareUnsupported is returned at construction when the
	// brick reports a firmware version below the required minimum, or
	// one that cannot be parsed.
	ErrFirmwareUnsupported = errors.New("robot: firmware version not supported")
)
