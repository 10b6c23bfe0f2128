package nxt

import (
	"encoding/binary"
	"fmt"
)

// telegram remembers the opcode sent so the reply echo can be checked.
type telegram struct {
	opcode byte
}

// encode assembles a telegram of the given type.
func (t *telegram) encode(typ, opcode byte, args ...byte) []byte {
	t.opcode = opcode
	payload := make([]byte, 0, 2+len(args))
	payload = append(payload, typ, opcode)
	return append(payload, args...)
}

// dataFrom validates a reply telegram and returns the bytes after the
// status. A non-zero status byte becomes a *StatusError.
func (t *telegram) dataFrom(payload []byte) ([]byte, error) {
	if len(payload) < 3 {
		return nil, fmt.Errorf("%w: %d bytes", ErrBadReply, len(payload))
	}
	if payload[0] != telegramReply {
		return nil, fmt.Errorf("%w: type 0x%02X", ErrBadReply, payload[0])
	}
	if payload[1] != t.opcode {
		return nil, fmt.Errorf("%w: opcode echo 0x%02X, sent 0x%02X", ErrBadReply, payload[1], t.opcode)
	}
	if payload[2] != 0 {
		return nil, &StatusError{Opcode: payload[1], Code: payload[2]}
	}
	return payload[3:], nil
}

// Ack is the reply for commands that carry no result data.
type Ack struct{}

func ackDecode(t *telegram, payload []byte) (any, error) {
	if _, err := t.dataFrom(payload); err != nil {
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

// SetOutputState configures and runs one motor.
type SetOutputState struct {
	telegram
	Port       OutPort
	Power      int
	Mode       byte
	Regulation byte
	TurnRatio  int
	RunState   byte
	TachoLimit uint32 // 0 means run forever
}

func (c *SetOutputState) Encode(_ uint16) ([]byte, error) {
	if c.Port > OutC {
		return nil, fmt.Errorf("%w: output port %d", ErrBadParameter, c.Port)
	}
	if err := checkPercent(c.Power); err != nil {
		return nil, err
	}
	if err := checkPercent(c.TurnRatio); err != nil {
		return nil, err
	}
	args := make([]byte, 0, 10)
	args = append(args, byte(c.Port), byte(int8(c.Power)), c.Mode, c.Regulation,
		byte(int8(c.TurnRatio)), c.RunState)
	args = binary.LittleEndian.AppendUint32(args, c.TachoLimit)
	return c.encode(telegramDirect, opSetOutputState, args...), nil
}

func (c *SetOutputState) Decode(payload []byte) (any, error) {
	return ackDecode(&c.telegram, payload)
}

// OutputState is the reply for GetOutputState.
type OutputState struct {
	Port            OutPort
	Power           int
	Mode            byte
	Regulation      byte
	TurnRatio       int
	RunState        byte
	TachoLimit      uint32
	TachoCount      int32
	BlockTachoCount int32
	RotationCount   int32
}

// GetOutputState reads the full state of one motor.
type GetOutputState struct {
	telegram
	Port OutPort
}

func (c *GetOutputState) Encode(_ uint16) ([]byte, error) {
	if c.Port > OutC {
		return nil, fmt.Errorf("%w: output port %d", ErrBadParameter, c.Port)
	}
	return c.encode(telegramDirect, opGetOutputState, byte(c.Port)), nil
}

func (c *GetOutputState) Decode(payload []byte) (any, error) {
	data, err := c.dataFrom(payload)
	if err != nil {
		return nil, err
	}
	if len(data) < 22 {
		return nil, fmt.Errorf("%w: output state needs 22 bytes, got %d", ErrBadReply, len(data))
	}
	return OutputState{
		Port:            OutPort(data[0]),
		Power:           int(int8(data[1])),
		Mode:            data[2],
		Regulation:      data[3],
		TurnRatio:       int(int8(data[4])),
		RunState:        data[5],
		TachoLimit:      binary.LittleEndian.Uint32(data[6:10]),
		TachoCount:      int32(binary.LittleEndian.Uint32(data[10:14])),
		BlockTachoCount: int32(binary.LittleEndian.Uint32(data[14:18])),
		RotationCount:   int32(binary.LittleEndian.Uint32(data[18:22])),
	}, nil
}

// ResetMotorPosition zeroes a motor counter.
type ResetMotorPosition struct {
	telegram
	Port     OutPort
	Relative bool // reset relative to the last movement instead of absolute
}

func (c *ResetMotorPosition) Encode(_ uint16) ([]byte, error) {
	if c.Port > OutC {
		return nil, fmt.Errorf("%w: output port %d", ErrBadParameter, c.Port)
	}
	rel := byte(0)
	if c.Relative {
		rel = 1
	}
	return c.encode(telegramDirect, opResetMotorPosition, byte(c.Port), rel), nil
}

func (c *ResetMotorPosition) Decode(payload []byte) (any, error) {
	return ackDecode(&c.telegram, payload)
}

// SetInputMode configures the sensor attached to a port.
type SetInputMode struct {
	telegram
	Port SensorPort
	Type byte
	Mode byte
}

func (c *SetInputMode) Encode(_ uint16) ([]byte, error) {
	if c.Port > Sensor4 {
		return nil, fmt.Errorf("%w: sensor port %d", ErrBadParameter, c.Port)
	}
	return c.encode(telegramDirect, opSetInputMode, byte(c.Port), c.Type, c.Mode), nil
}

func (c *SetInputMode) Decode(payload []byte) (any, error) {
	return ackDecode(&c.telegram, payload)
}

// InputValues is the reply for GetInputValues.
type InputValues struct {
	Port       SensorPort
	Valid      bool
	Calibrated bool
	Type       byte
	Mode       byte
	Raw        uint16
	Normalized uint16
	Scaled     int16
	CalValue   int16
}

// GetInputValues reads the current values of one sensor port.
type GetInputValues struct {
	telegram
	Port SensorPort
}

func (c *GetInputValues) Encode(_ uint16) ([]byte, error) {
	if c.Port > Sensor4 {
		return nil, fmt.Errorf("%w: sensor port %d", ErrBadParameter, c.Port)
	}
	return c.encode(telegramDirect, opGetInputValues, byte(c.Port)), nil
}

func (c *GetInputValues) Decode(payload []byte) (any, error) {
	data, err := c.dataFrom(payload)
	if err != nil {
		return nil, err
	}
	if len(data) < 13 {
		return nil, fmt.Errorf("%w: input values need 13 bytes, got %d", ErrBadReply, len(data))
	}
	return InputValues{
		Port:       SensorPort(data[0]),
		Valid:      data[1] != 0,
		Calibrated: data[2] != 0,
		Type:       data[3],
		Mode:       data[4],
		Raw:        binary.LittleEndian.Uint16(data[5:7]),
		Normalized: binary.LittleEndian.Uint16(data[7:9]),
		Scaled:     int16(binary.LittleEndian.Uint16(data[9:11])),
		CalValue:   int16(binary.LittleEndian.Uint16(data[11:13])),
	}, nil
}

// ResetInputScaledValue zeroes the scaled value of a sensor port.
type ResetInputScaledValue struct {
	telegram
	Port SensorPort
}

func (c *ResetInputScaledValue) Encode(_ uint16) ([]byte, error) {
	if c.Port > Sensor4 {
		return nil, fmt.Errorf("%w: sensor port %d", ErrBadParameter, c.Port)
	}
	return c.encode(telegramDirect, opResetInputScaled, byte(c.Port)), nil
}

func (c *ResetInputScaledValue) Decode(payload []byte) (any, error) {
	return ackDecode(&c.telegram, payload)
}

// maxLSData is the payload limit of the low-speed bus.
const maxLSData = 16

// LSWrite starts a low-speed (I2C) bus transaction.
type LSWrite struct {
	telegram
	Port  SensorPort
	Data  []byte
	RxLen byte // bytes expected from the device
}

func (c *LSWrite) Encode(_ uint16) ([]byte, error) {
	if c.Port > Sensor4 {
		return nil, fmt.Errorf("%w: sensor port %d", ErrBadParameter, c.Port)
	}
	if len(c.Data) == 0 || len(c.Data) > maxLSData {
		return nil, fmt.Errorf("%w: LS data length %d outside [1,%d]", ErrBadParameter, len(c.Data), maxLSData)
	}
	if c.RxLen > maxLSData {
		return nil, fmt.Errorf("%w: LS rx length %d exceeds %d", ErrBadParameter, c.RxLen, maxLSData)
	}
	args := make([]byte, 0, 3+len(c.Data))
	args = append(args, byte(c.Port), byte(len(c.Data)), c.RxLen)
	args = append(args, c.Data...)
	return c.encode(telegramDirect, opLSWrite, args...), nil
}

func (c *LSWrite) Decode(payload []byte) (any, error) {
	return ackDecode(&c.telegram, payload)
}

// BytesReady is the reply for LSGetStatus.
type BytesReady int

// LSGetStatus asks how many low-speed bus bytes are ready to read.
type LSGetStatus struct {
	telegram
	Port SensorPort
}

func (c *LSGetStatus) Encode(_ uint16) ([]byte, error) {
	if c.Port > Sensor4 {
		return nil, fmt.Errorf("%w: sensor port %d", ErrBadParameter, c.Port)
	}
	return c.encode(telegramDirect, opLSGetStatus, byte(c.Port)), nil
}

func (c *LSGetStatus) Decode(payload []byte) (any, error) {
	data, err := c.dataFrom(payload)
	if err != nil {
		return nil, err
	}
	if len(data) < 1 {
		return nil, fmt.Errorf("%w: LS status needs 1 byte", ErrBadReply)
	}
	return BytesReady(data[0]), nil
}

// LSData is the reply for LSRead.
type LSData []byte

// LSRead fetches the bytes a low-speed device made available.
type LSRead struct {
	telegram
	Port SensorPort
}

func (c *LSRead) Encode(_ uint16) ([]byte, error) {
	if c.Port > Sensor4 {
		return nil, fmt.Errorf("%w: sensor port %d", ErrBadParameter, c.Port)
	}
	return c.encode(telegramDirect, opLSRead, byte(c.Port)), nil
}

func (c *LSRead) Decode(payload []byte) (any, error) {
	data, err := c.dataFrom(payload)
	if err != nil {
		return nil, err
	}
	if len(data) < 1+maxLSData {
		return nil, fmt.Errorf("%w: LS read needs %d bytes, got %d", ErrBadReply, 1+maxLSData, len(data))
	}
	n := int(data[0])
	if n > maxLSData {
		return nil, fmt.Errorf("%w: LS read count %d exceeds %d", ErrBadReply, n, maxLSData)
	}
	out := make(LSData, n)
	copy(out, data[1:1+n])
	return out, nil
}

// PlayTone plays a tone.
type PlayTone struct {
	telegram
	Frequency  int // Hz, 200-14000
	DurationMS int
}

func (c *PlayTone) Encode(_ uint16) ([]byte, error) {
	if c.Frequency < 200 || c.Frequency > 14000 {
		return nil, fmt.Errorf("%w: frequency %d outside [200,14000]", ErrBadParameter, c.Frequency)
	}
	args := binary.LittleEndian.AppendUint16(nil, uint16(c.Frequency))
	args = binary.LittleEndian.AppendUint16(args, uint16(c.DurationMS))
	return c.encode(telegramDirect, opPlayTone, args...), nil
}

func (c *PlayTone) Decode(payload []byte) (any, error) {
	return ackDecode(&c.telegram, payload)
}

// maxFileName is the NXT filename limit: 15.3 format plus NUL.
const maxFileName = 19

// PlaySoundFile plays a sound file stored on the brick.
type PlaySoundFile struct {
	telegram
	Name string // e.g. "Woops.rso"
	Loop bool
}

func (c *PlaySoundFile) Encode(_ uint16) ([]byte, error) {
	if c.Name == "" || len(c.Name)+1 > maxFileName {
		return nil, fmt.Errorf("%w: sound file name %q", ErrBadParameter, c.Name)
	}
	loop := byte(0)
	if c.Loop {
		loop = 1
	}
	args := make([]byte, 1+maxFileName)
	args[0] = loop
	copy(args[1:], c.Name) // remainder stays NUL padded
	return c.encode(telegramDirect, opPlaySoundFile, args...), nil
}

func (c *PlaySoundFile) Decode(payload []byte) (any, error) {
	return ackDecode(&c.telegram, payload)
}

// StopSoundPlayback stops any sound playback.
type StopSoundPlayback struct {
	telegram
}

func (c *StopSoundPlayback) Encode(_ uint16) ([]byte, error) {
	return c.encode(telegramDirect, opStopSoundPlayback), nil
}

func (c *StopSoundPlayback) Decode(payload []byte) (any, error) {
	return ackDecode(&c.telegram, payload)
}

// Millivolts is the reply for GetBatteryLevel.
type Millivolts int

// GetBatteryLevel reads the battery voltage.
type GetBatteryLevel struct {
	telegram
}

func (c *GetBatteryLevel) Encode(_ uint16) ([]byte, error) {
	return c.encode(telegramDirect, opGetBatteryLevel), nil
}

func (c *GetBatteryLevel) Decode(payload []byte) (any, error) {
	data, err := c.dataFrom(payload)
	if err != nil {
		return nil, err
	}
	if len(data) < 2 {
		return nil, fmt.Errorf("%w: battery level needs 2 bytes", ErrBadReply)
	}
	return Millivolts(binary.LittleEndian.Uint16(data[:2])), nil
}

// SleepLimit is the reply for KeepAlive: the brick's sleep timeout in
// milliseconds.
type SleepLimit int

// KeepAlive resets the brick's sleep timer.
type KeepAlive struct {
	telegram
}

func (c *KeepAlive) Encode(_ uint16) ([]byte, error) {
	return c.encode(telegramDirect, opKeepAlive), nil
}

func (c *KeepAlive) Decode(payload []byte) (any, error) {
	data, err := c.dataFrom(payload)
	if err != nil {
		return nil, err
	}
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: keepalive needs 4 bytes", ErrBadReply)
	}
	return SleepLimit(binary.LittleEndian.Uint32(data[:4])), nil
}

// FirmwareInfo is the reply for GetFirmwareVersion.
type FirmwareInfo struct {
	ProtocolVersion string // "major.minor"
	FirmwareVersion string // "major.minor"
}

// GetFirmwareVersion reads the protocol and firmware versions.
type GetFirmwareVersion struct {
	telegram
}

func (c *GetFirmwareVersion) Encode(_ uint16) ([]byte, error) {
	return c.encode(telegramSystem, opGetFirmwareVersion), nil
}

func (c *GetFirmwareVersion) Decode(payload []byte) (any, error) {
	data, err := c.dataFrom(payload)
	if err != nil {
		return nil, err
	}
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: firmware version needs 4 bytes", ErrBadReply)
	}
	return FirmwareInfo{
		ProtocolVersion: fmt.Sprintf("%d.%d", data[1], data[0]),
		FirmwareVersion: fmt.Sprintf("%d.%d", data[3], data[2]),
	}, nil
}
