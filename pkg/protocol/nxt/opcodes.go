package nxt

// Telegram type bytes.
const (
	telegramDirect = 0x00 // direct command, reply required
	telegramSystem = 0x01 // system command, reply required
	telegramReply  = 0x02
)

// Direct command opcodes.
const (
	opPlaySoundFile        = 0x02
	opPlayTone             = 0x03
	opSetOutputState       = 0x04
	opSetInputMode         = 0x05
	opGetOutputState       = 0x06
	opGetInputValues       = 0x07
	opResetInputScaled     = 0x08
	opResetMotorPosition   = 0x0A
	opGetBatteryLevel      = 0x0B
	opStopSoundPlayback    = 0x0C
	opKeepAlive            = 0x0D
	opLSGetStatus          = 0x0E
	opLSWrite              = 0x0F
	opLSRead               = 0x10
)

// System command opcodes.
const (
	opGetFirmwareVersion = 0x88
)

// OutPort is an output port number.
type OutPort byte

// Output ports A through C.
const (
	OutA OutPort = 0
	OutB OutPort = 1
	OutC OutPort = 2
)

// SensorPort is an input port number (0-3 for ports 1-4).
type SensorPort byte

// Input ports 1 through 4.
const (
	Sensor1 SensorPort = 0
	Sensor2 SensorPort = 1
	Sensor3 SensorPort = 2
	Sensor4 SensorPort = 3
)

// Output mode bits for SETOUTPUTSTATE.
const (
	ModeMotorOn   byte = 0x01
	ModeBrake     byte = 0x02
	ModeRegulated byte = 0x04
)

// Regulation modes.
const (
	RegulationIdle  byte = 0x00
	RegulationSpeed byte = 0x01
	RegulationSync  byte = 0x02
)

// Run states.
const (
	RunStateIdle     byte = 0x00
	RunStateRampUp   byte = 0x10
	RunStateRunning  byte = 0x20
	RunStateRampDown byte = 0x40
)

// Sensor types for SETINPUTMODE.
const (
	TypeNone          byte = 0x00
	TypeSwitch        byte = 0x01
	TypeLightActive   byte = 0x05
	TypeLightInactive byte = 0x06
	TypeSoundDB       byte = 0x07
	TypeSoundDBA      byte = 0x08
	TypeLowSpeed9V    byte = 0x0B
)

// Sensor modes for SETINPUTMODE.
const (
	ModeRaw          byte = 0x00
	ModeBoolean      byte = 0x20
	ModePctFullScale byte = 0x80
)

// Ultrasonic sensor I2C constants. The NXT ultrasonic sensor sits on the
// low-speed (I2C) bus and is read with an LSWRITE/LSGETSTATUS/LSREAD
// sequence per measurement.
const (
	UltrasonicAddress     byte = 0x02
	UltrasonicReadCommand byte = 0x42
)
