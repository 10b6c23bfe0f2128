package transport

import "errors"

// Domain errors for the transport package.
var (
	// ErrNoDevice is returned by Discover when the device environment
	// variables are absent.
	ErrNoDevice = errors.New("transport: no device configured in environment")

	// ErrBadDeviceEnv is returned by Discover when the device environment
	// variables are present but malformed.
	ErrBadDeviceEnv = errors.New("transport: invalid device environment")

	// ErrClassMismatch is returned when the environment names a different
	// device family than the handle being constructed.
	ErrClassMismatch = errors.New("transport: device class mismatch")

	// ErrOpenFailed is returned when the serial port cannot be opened.
	ErrOpenFailed = errors.New("transport: open failed")

	// ErrClosed is returned for operations on a closed transport.
	ErrClosed = errors.New("transport: closed")
)
