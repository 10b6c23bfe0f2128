package transport

// Transport is an ordered byte-stream connection to a brick.
//
// Read may return (0, nil) when the underlying port has a read timeout and
// no bytes arrived; callers should treat that as "idle", not end of stream.
// A permanent failure (disconnect, closed port) is reported as a non-nil
// error, after which the connection is unusable.
type Transport interface {
	// Read fills p with the next available bytes.
	Read(p []byte) (n int, err error)

	// Write sends p in order. Partial writes are completed internally;
	// a non-nil error means the stream is no longer trustworthy.
	Write(p []byte) (n int, err error)

	// Close releases the connection. Safe to call more than once.
	Close() error
}
