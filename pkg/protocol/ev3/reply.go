package ev3

// Reply values produced by Decode. Commands without readable results
// return Ack.

// Ack is the reply for commands that carry no result data.
type Ack struct{}

// TypeMode is the reply for InputGetTypeMode.
type TypeMode struct {
	Type byte
	Mode byte
}

// SIValue is a sensor reading in SI units (READY_SI).
type SIValue float64

// Tacho is a motor position in degrees.
type Tacho int32

// Busy reports whether sound playback is in progress.
type Busy bool

// Pressed reports a button state.
type Pressed bool

// Version is the brick firmware version string, e.g. "V1.09H".
type Version string
