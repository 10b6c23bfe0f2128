// Package pipeline serializes command/reply traffic to a single brick.
//
// Every command is framed with a two byte little-endian length prefix,
// written to the transport, and appended to an in-flight queue. The
// brick answers strictly in order, so the queue is the only correlation
// mechanism: each incoming frame completes the oldest in-flight
// command. All completion callbacks, and all tasks scheduled with
// After, run on one dispatch goroutine; callers never need their own
// locking inside a completion, but must not call Drain from one.
//
// A transport failure fails every in-flight command with
// ErrDisconnected and latches the pipeline: later Enqueue calls fail
// fast. Scheduled tasks keep running until Close so self-rescheduling
// pollers can observe the failure.
package pipeline
