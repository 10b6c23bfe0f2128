// Package nxt implements the NXT direct-command codec.
//
// Commands form a closed set of fixed structs. Encode produces one
// telegram (command type byte, opcode, arguments); the command pipeline
// adds the two-byte little-endian length prefix used on Bluetooth. Decode
// parses the reply telegram, checks the echoed opcode, and maps a non-zero
// status byte to a typed *StatusError so callers can tell a brick-reported
// failure apart from a transport failure.
//
// The protocol matches replies to commands purely by order: the NXT
// answers every telegram that requests a reply, in the order received.
package nxt
