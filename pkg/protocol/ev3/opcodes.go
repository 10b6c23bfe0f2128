package ev3

// Direct command and reply type bytes.
const (
	directCommandReply = 0x00 // command expecting a reply
	directReplyOK      = 0x02 // DIRECT_REPLY
	directReplyError   = 0x04 // DIRECT_REPLY_ERROR
)

// Bytecode opcodes used by this package.
const (
	opKeepAlive = 0x90

	opSound      = 0x94
	opSoundTest  = 0x95
	opInputDev   = 0x99
	opOutSetType = 0xA1
	opOutReset   = 0xA2
	opOutStop    = 0xA3
	opOutPower   = 0xA4
	opOutSpeed   = 0xA5
	opOutStart   = 0xA6
	opOutStepSpd = 0xAE
	opOutStepSyn = 0xB0
	opOutClrCnt  = 0xB2
	opOutGetCnt  = 0xB3

	opUIRead   = 0x81
	opUIWrite  = 0x82
	opUIButton = 0x83
	opUIDraw   = 0x84
)

// opSound subcodes.
const (
	soundBreak = 0x00
	soundTone  = 0x01
	soundPlay  = 0x02
	soundRpt   = 0x03
)

// opInputDev subcodes.
const (
	inputGetTypeMode = 0x05
	inputReadySI     = 0x1D
)

// opUIRead subcodes.
const (
	uiReadFWVers = 0x0A
)

// opUIWrite subcodes.
const (
	uiWriteLED = 0x1B
)

// opUIButton subcodes.
const (
	uiButtonPressed = 0x09
)

// opUIDraw subcodes.
const (
	drawUpdate     = 0x00
	drawClean      = 0x01
	drawPixel      = 0x02
	drawLine       = 0x03
	drawCircle     = 0x04
	drawText       = 0x05
	drawFillRect   = 0x09
	drawRect       = 0x0A
	drawTopline    = 0x12
	drawFillCircle = 0x18
	drawBmpFile    = 0x1C
)

// OutPort is an output port bit. Combine with bitwise OR for commands that
// address several motors at once.
type OutPort byte

// Output ports A through D.
const (
	OutA OutPort = 0x01
	OutB OutPort = 0x02
	OutC OutPort = 0x04
	OutD OutPort = 0x08
)

// Index returns the port number (0-3) for single-port commands, or -1 when
// the value is not exactly one port bit.
func (p OutPort) Index() int {
	switch p {
	case OutA:
		return 0
	case OutB:
		return 1
	case OutC:
		return 2
	case OutD:
		return 3
	default:
		return -1
	}
}

// InPort is an input port number (0-3 for sensor ports 1-4).
type InPort byte

// Input ports 1 through 4.
const (
	In1 InPort = 0
	In2 InPort = 1
	In3 InPort = 2
	In4 InPort = 3
)

// Sensor device types reported by GET_TYPEMODE.
const (
	TypeTouch      byte = 16
	TypeColor      byte = 29
	TypeUltrasonic byte = 30
	TypeGyro       byte = 32
	TypeInfrared   byte = 33
)

// Sensor modes for READY_SI.
const (
	ModeTouchPressed   byte = 0
	ModeColorReflected byte = 0
	ModeColorAmbient   byte = 1
	ModeColorColor     byte = 2
	ModeUltrasonicCM   byte = 0
	ModeGyroAngle      byte = 0
	ModeGyroRate       byte = 1
	ModeIRProximity    byte = 0
)

// Button identifies a brick face button.
type Button byte

// Brick buttons as numbered by opUI_BUTTON.
const (
	ButtonUp    Button = 1
	ButtonEnter Button = 2
	ButtonDown  Button = 3
	ButtonRight Button = 4
	ButtonLeft  Button = 5
	ButtonBack  Button = 6
)

// Buttons lists every face button, in opUI_BUTTON order.
func Buttons() []Button {
	return []Button{ButtonUp, ButtonEnter, ButtonDown, ButtonRight, ButtonLeft, ButtonBack}
}

// LEDPattern selects the brick button backlight pattern.
type LEDPattern byte

// LED patterns accepted by opUI_WRITE LED.
const (
	LEDOff         LEDPattern = 0
	LEDGreen       LEDPattern = 1
	LEDRed         LEDPattern = 2
	LEDOrange      LEDPattern = 3
	LEDGreenFlash  LEDPattern = 4
	LEDRedFlash    LEDPattern = 5
	LEDOrangeFlash LEDPattern = 6
	LEDGreenPulse  LEDPattern = 7
	LEDRedPulse    LEDPattern = 8
	LEDOrangePulse LEDPattern = 9
)
