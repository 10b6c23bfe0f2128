package pipeline

import "errors"

var (
	// ErrClosed is returned when the pipeline has been shut down.
	ErrClosed = errors.New("pipeline: closed")

	// ErrDisconnected is returned when the transport has failed. Every
	// command in flight at the moment of failure completes with this
	// error, and later Enqueue calls fail fast with it.
	ErrDisconnected = errors.New("pipeline: transport lost")

	// ErrEncode wraps a command's encoding error. The command never
	// entered the in-flight queue.
	ErrEncode = errors.New("pipeline: command encoding failed")

	// ErrWrite wraps a transport write failure. The failed command
	// never entered the in-flight queue; commands already in flight
	// are unaffected and still complete if their replies arrive.
	ErrWrite = errors.New("pipeline: transport write failed")

	// ErrPollFailed is returned when a poll hit its consecutive
	// failure ceiling.
	ErrPollFailed = errors.New("pipeline: poll gave up")
)
