package nxt

import (
	"errors"
	"fmt"
)

// Domain errors for the NXT codec.
var (
	// ErrBadReply is returned when a reply telegram is too short, has the
	// wrong type byte, or echoes a different opcode.
	ErrBadReply = errors.New("nxt: malformed reply")

	// ErrCommandFailed is the sentinel wrapped by StatusError.
	ErrCommandFailed = errors.New("nxt: command failed")

	// ErrBadParameter is returned by Encode for out-of-range fields.
	ErrBadParameter = errors.New("nxt: bad command parameter")
)

// statusText maps NXT status bytes to their firmware documentation names.
var statusText = map[byte]string{
	0x20: "pending communication transaction in progress",
	0x40: "specified mailbox queue is empty",
	0xBD: "request failed (i.e. specified file not found)",
	0xBE: "unknown command opcode",
	0xBF: "insane packet",
	0xC0: "data contains out-of-range values",
	0xDD: "communication bus error",
	0xDE: "no free memory in communication buffer",
	0xDF: "specified channel/connection is not valid",
	0xE0: "specified channel/connection not configured or busy",
	0xEC: "no active program",
	0xED: "illegal size specified",
	0xEE: "illegal mailbox queue ID specified",
	0xEF: "attempted to access invalid field of a structure",
	0xF0: "bad input or output specified",
	0xFB: "insufficient memory available",
	0xFF: "bad arguments",
}

// StatusError reports a non-zero status byte in a reply: the brick
// received the command and refused it.
type StatusError struct {
	// Opcode is the echoed command opcode.
	Opcode byte

	// Code is the raw status byte.
	Code byte
}

func (e *StatusError) Error() string {
	text, ok := statusText[e.Code]
	if !ok {
		text = "unknown status"
	}
	return fmt.Sprintf("nxt: command 0x%02X failed: %s (0x%02X)", e.Opcode, text, e.Code)
}

// Unwrap lets errors.Is(err, ErrCommandFailed) match.
func (e *StatusError) Unwrap() error { return ErrCommandFailed }
