// Package transport provides the byte-stream connection to a LEGO
// Mindstorms brick.
//
// A Transport is a plain ordered byte stream: the command pipeline writes
// length-prefixed frames to it and reads reply bytes back. Two
// implementations ship with the package:
//
//   - Serial: a Bluetooth RFCOMM or USB serial port (tarm/serial)
//   - Loopback: an in-memory transport with scripted replies, used in tests
//
// Device discovery reads BRICKGATE_DEVICE_* environment variables and
// returns a DeviceInfo describing the brick's family, port and baud rate.
// Discovery failures are configuration errors: they surface when a robot
// handle is constructed, never per command.
package transport
