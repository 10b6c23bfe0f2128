package ev3

import (
	"errors"
	"fmt"
)

// Domain errors for the EV3 codec.
var (
	// ErrBadReply is returned when a reply payload is too short or has an
	// unknown reply type byte.
	ErrBadReply = errors.New("ev3: malformed reply")

	// ErrSequenceMismatch is returned when a reply echoes a different
	// message counter than the command it was matched to. The stream is
	// desynchronised; there is no recovery protocol.
	ErrSequenceMismatch = errors.New("ev3: reply sequence mismatch")

	// ErrCommandFailed is the sentinel wrapped by CommandError.
	ErrCommandFailed = errors.New("ev3: direct command failed")

	// ErrBadParameter is returned by Encode for out-of-range fields.
	ErrBadParameter = errors.New("ev3: bad command parameter")
)

// CommandError reports a DIRECT_REPLY_ERROR status from the brick: the
// command was delivered and the brick refused it. Distinct from transport
// errors, which mean the brick was never reached.
type CommandError struct {
	// Seq is the message counter of the rejected command.
	Seq uint16
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("ev3: brick rejected command %d", e.Seq)
}

// Unwrap lets errors.Is(err, ErrCommandFailed) match.
func (e *CommandError) Unwrap() error { return ErrCommandFailed }
