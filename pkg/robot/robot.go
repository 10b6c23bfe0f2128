package robot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/semver"

	"github.com/brickgate/brickgate/pkg/pipeline"
	"github.com/brickgate/brickgate/pkg/transport"
)

// DefaultRegistry tracks every handle built without WithRegistry.
// Shutdown code flushes it once for all connected bricks.
var DefaultRegistry = pipeline.NewRegistry()

// closeTimeout bounds the critical drain performed by Close.
const closeTimeout = 2 * time.Second

// Logger is re-exported so callers wiring a handle do not need to
// import the pipeline package for it.
type Logger = pipeline.Logger

type options struct {
	tr          transport.Transport
	log         Logger
	reg         *pipeline.Registry
	minFirmware string
}

// Option adjusts handle construction.
type Option func(*options)

// WithTransport skips environment discovery and uses tr directly.
// Class validation is skipped too: the caller vouches for the device.
func WithTransport(tr transport.Transport) Option {
	return func(o *options) { o.tr = tr }
}

// WithLogger sets the handle and pipeline logger.
func WithLogger(log Logger) Option {
	return func(o *options) { o.log = log }
}

// WithRegistry registers the handle somewhere other than
// DefaultRegistry.
func WithRegistry(reg *pipeline.Registry) Option {
	return func(o *options) { o.reg = reg }
}

// WithMinFirmware overrides the firmware constraint checked at
// construction, e.g. ">= 1.28".
func WithMinFirmware(constraint string) Option {
	return func(o *options) { o.minFirmware = constraint }
}

func buildOptions(minFirmware string, opts []Option) options {
	o := options{reg: DefaultRegistry, minFirmware: minFirmware}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// openTransport resolves the transport: injected, or discovered from
// the environment and validated against the wanted class.
func (o options) openTransport(want transport.DeviceClass) (transport.Transport, error) {
	if o.tr != nil {
		return o.tr, nil
	}
	dev, err := transport.Discover()
	if err != nil {
		return nil, err
	}
	if err := dev.Validate(want); err != nil {
		return nil, err
	}
	return dev.Open()
}

// roundTrip enqueues cmd and blocks until its completion fires or ctx
// ends. It must not be called from a completion callback.
func roundTrip(ctx context.Context, pl *pipeline.Pipeline, cmd pipeline.Command) (any, error) {
	type outcome struct {
		value any
		err   error
	}
	ch := make(chan outcome, 1)
	if err := pl.Enqueue(cmd, func(value any, err error) {
		ch <- outcome{value, err}
	}); err != nil {
		return nil, err
	}
	select {
	case out := <-ch:
		return out.value, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// checkFirmware parses a brick-reported version against a semver
// constraint. EV3 bricks report strings like "V1.09H"; the prefix and
// revision letters are stripped before parsing.
func checkFirmware(reported, constraint string) error {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return fmt.Errorf("%w: bad constraint %q: %v", ErrFirmwareUnsupported, constraint, err)
	}
	v, err := semver.NewVersion(normalizeFirmware(reported))
	if err != nil {
		return fmt.Errorf("%w: cannot parse %q: %v", ErrFirmwareUnsupported, reported, err)
	}
	if !c.Check(v) {
		return fmt.Errorf("%w: brick reports %q, need %q", ErrFirmwareUnsupported, reported, constraint)
	}
	return nil
}

// normalizeFirmware reduces a reported version to its numeric core.
func normalizeFirmware(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "V")
	s = strings.TrimPrefix(s, "v")
	end := 0
	for end < len(s) && (s[end] == '.' || (s[end] >= '0' && s[end] <= '9')) {
		end++
	}
	return s[:end]
}
