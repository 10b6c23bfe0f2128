package ev3

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// ackDecode validates a reply that carries no result data.
func ackDecode(c *directCommand, payload []byte) (any, error) {
	if _, err := c.globalsFrom(payload); err != nil {
		return nil, err
	}
	return Ack{}, nil
}

func checkPercent(v int) error {
	if v < -100 || v > 100 {
		return fmt.Errorf("%w: %d outside [-100,100]", ErrBadParameter, v)
	}
	return nil
}

// OutputPower sets the raw power of the motors in Ports.
type OutputPower struct {
	directCommand
	Ports OutPort
	Power int
}

func (c *OutputPower) Encode(seq uint16) ([]byte, error) {
	if err := checkPercent(c.Power); err != nil {
		return nil, err
	}
	var bc bytecode
	bc.op(opOutPower)
	bc.lc1(0) // layer
	bc.lc1(int(c.Ports))
	bc.lc1(c.Power)
	return c.encode(seq, 0, &bc), nil
}

func (c *OutputPower) Decode(payload []byte) (any, error) {
	return ackDecode(&c.directCommand, payload)
}

// OutputSpeed sets the regulated speed of the motors in Ports.
type OutputSpeed struct {
	directCommand
	Ports OutPort
	Speed int
}

func (c *OutputSpeed) Encode(seq uint16) ([]byte, error) {
	if err := checkPercent(c.Speed); err != nil {
		return nil, err
	}
	var bc bytecode
	bc.op(opOutSpeed)
	bc.lc1(0)
	bc.lc1(int(c.Ports))
	bc.lc1(c.Speed)
	return c.encode(seq, 0, &bc), nil
}

func (c *OutputSpeed) Decode(payload []byte) (any, error) {
	return ackDecode(&c.directCommand, payload)
}

// OutputStart starts the motors in Ports at their configured power/speed.
type OutputStart struct {
	directCommand
	Ports OutPort
}

func (c *OutputStart) Encode(seq uint16) ([]byte, error) {
	var bc bytecode
	bc.op(opOutStart)
	bc.lc1(0)
	bc.lc1(int(c.Ports))
	return c.encode(seq, 0, &bc), nil
}

func (c *OutputStart) Decode(payload []byte) (any, error) {
	return ackDecode(&c.directCommand, payload)
}

// OutputStop stops the motors in Ports, braking or coasting.
type OutputStop struct {
	directCommand
	Ports OutPort
	Brake bool
}

func (c *OutputStop) Encode(seq uint16) ([]byte, error) {
	var bc bytecode
	bc.op(opOutStop)
	bc.lc1(0)
	bc.lc1(int(c.Ports))
	bc.bool1(c.Brake)
	return c.encode(seq, 0, &bc), nil
}

func (c *OutputStop) Decode(payload []byte) (any, error) {
	return ackDecode(&c.directCommand, payload)
}

// OutputStepSpeed runs the motors in Ports through a ramp-up, constant and
// ramp-down phase measured in tacho degrees.
type OutputStepSpeed struct {
	directCommand
	Ports    OutPort
	Speed    int
	RampUp   uint32
	Steps    uint32
	RampDown uint32
	Brake    bool
}

func (c *OutputStepSpeed) Encode(seq uint16) ([]byte, error) {
	if err := checkPercent(c.Speed); err != nil {
		return nil, err
	}
	var bc bytecode
	bc.op(opOutStepSpd)
	bc.lc1(0)
	bc.lc1(int(c.Ports))
	bc.lc1(c.Speed)
	bc.lc4(c.RampUp)
	bc.lc4(c.Steps)
	bc.lc4(c.RampDown)
	bc.bool1(c.Brake)
	return c.encode(seq, 0, &bc), nil
}

func (c *OutputStepSpeed) Decode(payload []byte) (any, error) {
	return ackDecode(&c.directCommand, payload)
}

// OutputStepSync drives exactly two motors in lockstep with a turn ratio.
type OutputStepSync struct {
	directCommand
	Ports OutPort
	Speed int
	Turn  int
	Steps uint32
	Brake bool
}

func (c *OutputStepSync) Encode(seq uint16) ([]byte, error) {
	if err := checkPercent(c.Speed); err != nil {
		return nil, err
	}
	if c.Turn < -200 || c.Turn > 200 {
		return nil, fmt.Errorf("%w: turn %d outside [-200,200]", ErrBadParameter, c.Turn)
	}
	var bc bytecode
	bc.op(opOutStepSyn)
	bc.lc1(0)
	bc.lc1(int(c.Ports))
	bc.lc1(c.Speed)
	bc.lc2(c.Turn)
	bc.lc4(c.Steps)
	bc.bool1(c.Brake)
	return c.encode(seq, 0, &bc), nil
}

func (c *OutputStepSync) Decode(payload []byte) (any, error) {
	return ackDecode(&c.directCommand, payload)
}

// OutputClearCount zeroes the tacho counters of the motors in Ports.
type OutputClearCount struct {
	directCommand
	Ports OutPort
}

func (c *OutputClearCount) Encode(seq uint16) ([]byte, error) {
	var bc bytecode
	bc.op(opOutClrCnt)
	bc.lc1(0)
	bc.lc1(int(c.Ports))
	return c.encode(seq, 0, &bc), nil
}

func (c *OutputClearCount) Decode(payload []byte) (any, error) {
	return ackDecode(&c.directCommand, payload)
}

// OutputGetCount reads the tacho counter of a single motor.
type OutputGetCount struct {
	directCommand
	Port OutPort
}

func (c *OutputGetCount) Encode(seq uint16) ([]byte, error) {
	idx := c.Port.Index()
	if idx < 0 {
		return nil, fmt.Errorf("%w: GetCount wants exactly one port", ErrBadParameter)
	}
	var bc bytecode
	bc.op(opOutGetCnt)
	bc.lc1(0)
	bc.lc1(idx)
	bc.gv(0)
	return c.encode(seq, 4, &bc), nil
}

func (c *OutputGetCount) Decode(payload []byte) (any, error) {
	globals, err := c.globalsFrom(payload)
	if err != nil {
		return nil, err
	}
	if len(globals) < 4 {
		return nil, fmt.Errorf("%w: tacho reply needs 4 bytes, got %d", ErrBadReply, len(globals))
	}
	return Tacho(int32(binary.LittleEndian.Uint32(globals[:4]))), nil
}

// OutputReset resets the regulation state of the motors in Ports.
type OutputReset struct {
	directCommand
	Ports OutPort
}

func (c *OutputReset) Encode(seq uint16) ([]byte, error) {
	var bc bytecode
	bc.op(opOutReset)
	bc.lc1(0)
	bc.lc1(int(c.Ports))
	return c.encode(seq, 0, &bc), nil
}

func (c *OutputReset) Decode(payload []byte) (any, error) {
	return ackDecode(&c.directCommand, payload)
}

// InputGetTypeMode asks which sensor is attached to Port and its mode.
type InputGetTypeMode struct {
	directCommand
	Port InPort
}

func (c *InputGetTypeMode) Encode(seq uint16) ([]byte, error) {
	var bc bytecode
	bc.op(opInputDev)
	bc.sub(inputGetTypeMode)
	bc.lc1(0)
	bc.lc1(int(c.Port))
	bc.gv(0)
	bc.gv(1)
	return c.encode(seq, 2, &bc), nil
}

func (c *InputGetTypeMode) Decode(payload []byte) (any, error) {
	globals, err := c.globalsFrom(payload)
	if err != nil {
		return nil, err
	}
	if len(globals) < 2 {
		return nil, fmt.Errorf("%w: typemode reply needs 2 bytes, got %d", ErrBadReply, len(globals))
	}
	return TypeMode{Type: globals[0], Mode: globals[1]}, nil
}

// InputReadySI reads one sensor value in SI units, switching the sensor to
// the requested type and mode first if necessary.
type InputReadySI struct {
	directCommand
	Port InPort
	Type byte
	Mode byte
}

func (c *InputReadySI) Encode(seq uint16) ([]byte, error) {
	var bc bytecode
	bc.op(opInputDev)
	bc.sub(inputReadySI)
	bc.lc1(0)
	bc.lc1(int(c.Port))
	bc.lc1(int(c.Type))
	bc.lc1(int(c.Mode))
	bc.lc1(1) // one value
	bc.gv(0)
	return c.encode(seq, 4, &bc), nil
}

func (c *InputReadySI) Decode(payload []byte) (any, error) {
	globals, err := c.globalsFrom(payload)
	if err != nil {
		return nil, err
	}
	if len(globals) < 4 {
		return nil, fmt.Errorf("%w: SI reply needs 4 bytes, got %d", ErrBadReply, len(globals))
	}
	bits := binary.LittleEndian.Uint32(globals[:4])
	return SIValue(math.Float32frombits(bits)), nil
}

// SoundTone plays a tone.
type SoundTone struct {
	directCommand
	Volume     int // 0-100
	Frequency  int // Hz, 250-10000
	DurationMS int
}

func (c *SoundTone) Encode(seq uint16) ([]byte, error) {
	if c.Volume < 0 || c.Volume > 100 {
		return nil, fmt.Errorf("%w: volume %d outside [0,100]", ErrBadParameter, c.Volume)
	}
	var bc bytecode
	bc.op(opSound)
	bc.sub(soundTone)
	bc.lc1(c.Volume)
	bc.lc2(c.Frequency)
	bc.lc2(c.DurationMS)
	return c.encode(seq, 0, &bc), nil
}

func (c *SoundTone) Decode(payload []byte) (any, error) {
	return ackDecode(&c.directCommand, payload)
}

// SoundPlayFile plays a sound file stored on the brick.
type SoundPlayFile struct {
	directCommand
	Volume int
	Name   string // path without the .rsf extension
	Repeat bool
}

func (c *SoundPlayFile) Encode(seq uint16) ([]byte, error) {
	if c.Name == "" {
		return nil, fmt.Errorf("%w: empty sound file name", ErrBadParameter)
	}
	var bc bytecode
	bc.op(opSound)
	if c.Repeat {
		bc.sub(soundRpt)
	} else {
		bc.sub(soundPlay)
	}
	bc.lc1(c.Volume)
	bc.lcs(c.Name)
	return c.encode(seq, 0, &bc), nil
}

func (c *SoundPlayFile) Decode(payload []byte) (any, error) {
	return ackDecode(&c.directCommand, payload)
}

// SoundBreak stops any sound playback.
type SoundBreak struct {
	directCommand
}

func (c *SoundBreak) Encode(seq uint16) ([]byte, error) {
	var bc bytecode
	bc.op(opSound)
	bc.sub(soundBreak)
	return c.encode(seq, 0, &bc), nil
}

func (c *SoundBreak) Decode(payload []byte) (any, error) {
	return ackDecode(&c.directCommand, payload)
}

// SoundTest asks whether sound playback is in progress.
type SoundTest struct {
	directCommand
}

func (c *SoundTest) Encode(seq uint16) ([]byte, error) {
	var bc bytecode
	bc.op(opSoundTest)
	bc.gv(0)
	return c.encode(seq, 1, &bc), nil
}

func (c *SoundTest) Decode(payload []byte) (any, error) {
	globals, err := c.globalsFrom(payload)
	if err != nil {
		return nil, err
	}
	if len(globals) < 1 {
		return nil, fmt.Errorf("%w: busy reply needs 1 byte", ErrBadReply)
	}
	return Busy(globals[0] != 0), nil
}

// DrawUpdate refreshes the LCD with everything drawn since the last update.
type DrawUpdate struct {
	directCommand
}

func (c *DrawUpdate) Encode(seq uint16) ([]byte, error) {
	var bc bytecode
	bc.op(opUIDraw)
	bc.sub(drawUpdate)
	return c.encode(seq, 0, &bc), nil
}

func (c *DrawUpdate) Decode(payload []byte) (any, error) {
	return ackDecode(&c.directCommand, payload)
}

// DrawClean clears the LCD.
type DrawClean struct {
	directCommand
}

func (c *DrawClean) Encode(seq uint16) ([]byte, error) {
	var bc bytecode
	bc.op(opUIDraw)
	bc.sub(drawClean)
	return c.encode(seq, 0, &bc), nil
}

func (c *DrawClean) Decode(payload []byte) (any, error) {
	return ackDecode(&c.directCommand, payload)
}

// DrawPixel draws one pixel. Color 0 is background, 1 foreground.
type DrawPixel struct {
	directCommand
	Color byte
	X, Y  int
}

func (c *DrawPixel) Encode(seq uint16) ([]byte, error) {
	var bc bytecode
	bc.op(opUIDraw)
	bc.sub(drawPixel)
	bc.lc1(int(c.Color))
	bc.lc2(c.X)
	bc.lc2(c.Y)
	return c.encode(seq, 0, &bc), nil
}

func (c *DrawPixel) Decode(payload []byte) (any, error) {
	return ackDecode(&c.directCommand, payload)
}

// DrawLine draws a line between two points.
type DrawLine struct {
	directCommand
	Color          byte
	X0, Y0, X1, Y1 int
}

func (c *DrawLine) Encode(seq uint16) ([]byte, error) {
	var bc bytecode
	bc.op(opUIDraw)
	bc.sub(drawLine)
	bc.lc1(int(c.Color))
	bc.lc2(c.X0)
	bc.lc2(c.Y0)
	bc.lc2(c.X1)
	bc.lc2(c.Y1)
	return c.encode(seq, 0, &bc), nil
}

func (c *DrawLine) Decode(payload []byte) (any, error) {
	return ackDecode(&c.directCommand, payload)
}

// DrawRect draws a rectangle, optionally filled.
type DrawRect struct {
	directCommand
	Color      byte
	X, Y, W, H int
	Fill       bool
}

func (c *DrawRect) Encode(seq uint16) ([]byte, error) {
	var bc bytecode
	bc.op(opUIDraw)
	if c.Fill {
		bc.sub(drawFillRect)
	} else {
		bc.sub(drawRect)
	}
	bc.lc1(int(c.Color))
	bc.lc2(c.X)
	bc.lc2(c.Y)
	bc.lc2(c.W)
	bc.lc2(c.H)
	return c.encode(seq, 0, &bc), nil
}

func (c *DrawRect) Decode(payload []byte) (any, error) {
	return ackDecode(&c.directCommand, payload)
}

// DrawCircle draws a circle, optionally filled.
type DrawCircle struct {
	directCommand
	Color   byte
	X, Y, R int
	Fill    bool
}

func (c *DrawCircle) Encode(seq uint16) ([]byte, error) {
	var bc bytecode
	bc.op(opUIDraw)
	if c.Fill {
		bc.sub(drawFillCircle)
	} else {
		bc.sub(drawCircle)
	}
	bc.lc1(int(c.Color))
	bc.lc2(c.X)
	bc.lc2(c.Y)
	bc.lc2(c.R)
	return c.encode(seq, 0, &bc), nil
}

func (c *DrawCircle) Decode(payload []byte) (any, error) {
	return ackDecode(&c.directCommand, payload)
}

// DrawText draws a text string at a pixel position.
type DrawText struct {
	directCommand
	Color byte
	X, Y  int
	Text  string
}

func (c *DrawText) Encode(seq uint16) ([]byte, error) {
	var bc bytecode
	bc.op(opUIDraw)
	bc.sub(drawText)
	bc.lc1(int(c.Color))
	bc.lc2(c.X)
	bc.lc2(c.Y)
	bc.lcs(c.Text)
	return c.encode(seq, 0, &bc), nil
}

func (c *DrawText) Decode(payload []byte) (any, error) {
	return ackDecode(&c.directCommand, payload)
}

// DrawBmpFile blits a bitmap file stored on the brick.
type DrawBmpFile struct {
	directCommand
	Color byte
	X, Y  int
	Path  string
}

func (c *DrawBmpFile) Encode(seq uint16) ([]byte, error) {
	if c.Path == "" {
		return nil, fmt.Errorf("%w: empty bitmap path", ErrBadParameter)
	}
	var bc bytecode
	bc.op(opUIDraw)
	bc.sub(drawBmpFile)
	bc.lc1(int(c.Color))
	bc.lc2(c.X)
	bc.lc2(c.Y)
	bc.lcs(c.Path)
	return c.encode(seq, 0, &bc), nil
}

func (c *DrawBmpFile) Decode(payload []byte) (any, error) {
	return ackDecode(&c.directCommand, payload)
}

// DrawTopline shows or hides the brick status bar.
type DrawTopline struct {
	directCommand
	Enabled bool
}

func (c *DrawTopline) Encode(seq uint16) ([]byte, error) {
	var bc bytecode
	bc.op(opUIDraw)
	bc.sub(drawTopline)
	bc.bool1(c.Enabled)
	return c.encode(seq, 0, &bc), nil
}

func (c *DrawTopline) Decode(payload []byte) (any, error) {
	return ackDecode(&c.directCommand, payload)
}

// ButtonPressed asks whether one face button is currently held.
type ButtonPressed struct {
	directCommand
	Button Button
}

func (c *ButtonPressed) Encode(seq uint16) ([]byte, error) {
	if c.Button < ButtonUp || c.Button > ButtonBack {
		return nil, fmt.Errorf("%w: unknown button %d", ErrBadParameter, c.Button)
	}
	var bc bytecode
	bc.op(opUIButton)
	bc.sub(uiButtonPressed)
	bc.lc1(int(c.Button))
	bc.gv(0)
	return c.encode(seq, 1, &bc), nil
}

func (c *ButtonPressed) Decode(payload []byte) (any, error) {
	globals, err := c.globalsFrom(payload)
	if err != nil {
		return nil, err
	}
	if len(globals) < 1 {
		return nil, fmt.Errorf("%w: pressed reply needs 1 byte", ErrBadReply)
	}
	return Pressed(globals[0] != 0), nil
}

// LEDWrite sets the brick button backlight pattern.
type LEDWrite struct {
	directCommand
	Pattern LEDPattern
}

func (c *LEDWrite) Encode(seq uint16) ([]byte, error) {
	if c.Pattern > LEDOrangePulse {
		return nil, fmt.Errorf("%w: unknown LED pattern %d", ErrBadParameter, c.Pattern)
	}
	var bc bytecode
	bc.op(opUIWrite)
	bc.sub(uiWriteLED)
	bc.lc1(int(c.Pattern))
	return c.encode(seq, 0, &bc), nil
}

func (c *LEDWrite) Decode(payload []byte) (any, error) {
	return ackDecode(&c.directCommand, payload)
}

// firmwareReplySize is the global buffer reserved for the version string.
const firmwareReplySize = 16

// FirmwareVersion reads the brick firmware version string.
type FirmwareVersion struct {
	directCommand
}

func (c *FirmwareVersion) Encode(seq uint16) ([]byte, error) {
	var bc bytecode
	bc.op(opUIRead)
	bc.sub(uiReadFWVers)
	bc.lc1(firmwareReplySize)
	bc.gv(0)
	return c.encode(seq, firmwareReplySize, &bc), nil
}

func (c *FirmwareVersion) Decode(payload []byte) (any, error) {
	globals, err := c.globalsFrom(payload)
	if err != nil {
		return nil, err
	}
	if len(globals) == 0 {
		return nil, fmt.Errorf("%w: empty version reply", ErrBadReply)
	}
	return Version(strings.TrimRight(string(globals), "\x00")), nil
}

// KeepAlive resets the brick's sleep timer.
type KeepAlive struct {
	directCommand
	Minutes byte
}

func (c *KeepAlive) Encode(seq uint16) ([]byte, error) {
	var bc bytecode
	bc.op(opKeepAlive)
	bc.lc1(int(c.Minutes))
	return c.encode(seq, 0, &bc), nil
}

func (c *KeepAlive) Decode(payload []byte) (any, error) {
	return ackDecode(&c.directCommand, payload)
}
