package ev3

import "encoding/binary"

// bytecode accumulates opcode bytes and parameters in the EV3 PRIMPAR
// encoding: constants are prefixed with 0x81/0x82/0x83 for 1/2/4 byte
// little-endian values, strings with 0x84 and a NUL terminator, and global
// variable handles use the short form 0x60|index.
type bytecode struct {
	buf []byte
}

func (b *bytecode) op(code byte) {
	b.buf = append(b.buf, code)
}

func (b *bytecode) sub(code byte) {
	b.buf = append(b.buf, code)
}

// lc1 appends a one-byte constant.
func (b *bytecode) lc1(v int) {
	b.buf = append(b.buf, 0x81, byte(v))
}

// lc2 appends a two-byte constant.
func (b *bytecode) lc2(v int) {
	b.buf = append(b.buf, 0x82, byte(v), byte(v>>8))
}

// lc4 appends a four-byte constant.
func (b *bytecode) lc4(v uint32) {
	b.buf = append(b.buf, 0x83)
	b.buf = binary.LittleEndian.AppendUint32(b.buf, v)
}

// lcs appends a NUL-terminated string constant.
func (b *bytecode) lcs(s string) {
	b.buf = append(b.buf, 0x84)
	b.buf = append(b.buf, s...)
	b.buf = append(b.buf, 0x00)
}

// gv appends a short-form global variable handle (index < 32).
func (b *bytecode) gv(index int) {
	b.buf = append(b.buf, 0x60|byte(index&0x1F))
}

// bool1 appends a boolean as a one-byte constant.
func (b *bytecode) bool1(v bool) {
	if v {
		b.lc1(1)
	} else {
		b.lc1(0)
	}
}

// directCommand is embedded by every command type. It remembers the
// sequence number assigned at Encode so the reply echo can be verified.
type directCommand struct {
	seq uint16
}

// encode assembles the direct-command payload: message counter, command
// type, global variable allocation and the bytecodes.
func (c *directCommand) encode(seq uint16, globals int, bc *bytecode) []byte {
	c.seq = seq

	payload := make([]byte, 0, 5+len(bc.buf))
	payload = binary.LittleEndian.AppendUint16(payload, seq)
	payload = append(payload, directCommandReply)
	// Lower 10 bits globals, upper 6 bits locals (always zero here).
	payload = append(payload, byte(globals&0xFF), byte(globals>>8))
	payload = append(payload, bc.buf...)
	return payload
}

// globalsFrom validates a reply payload and returns its global variable
// bytes. A DIRECT_REPLY_ERROR status becomes a *CommandError.
func (c *directCommand) globalsFrom(payload []byte) ([]byte, error) {
	if len(payload) < 3 {
		return nil, ErrBadReply
	}

	seq := binary.LittleEndian.Uint16(payload[:2])
	if seq != c.seq {
		return nil, ErrSequenceMismatch
	}

	switch payload[2] {
	case directReplyOK:
		return payload[3:], nil
	case directReplyError:
		return nil, &CommandError{Seq: seq}
	default:
		return nil, ErrBadReply
	}
}
