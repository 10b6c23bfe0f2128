// Package ev3 implements the EV3 direct-command codec.
//
// Every command is a fixed struct from a closed set. Encode produces the
// application payload of one direct command (message counter, command type,
// variable allocation, bytecodes); the command pipeline adds the two-byte
// little-endian length prefix that frames messages on the wire. Decode
// parses the matching reply payload, verifies the echoed message counter,
// and maps the DIRECT_REPLY_ERROR status to a typed *CommandError so
// callers can tell "the brick said no" apart from transport failures.
//
// Commands are single-use: Encode records the sequence number the pipeline
// assigned, and Decode checks the reply against it.
package ev3
