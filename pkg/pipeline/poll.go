package pipeline

import (
	"context"
	"fmt"
	"time"
)

// Polling defaults. The NXT ultrasonic sensor runs its own I2C
// transaction per sample, which is slower to settle and flakier, so it
// gets a shorter interval and a higher failure ceiling.
const (
	DefaultPollInterval      = 100 * time.Millisecond
	DefaultFailureCeiling    = 3
	UltrasonicPollInterval   = 50 * time.Millisecond
	UltrasonicFailureCeiling = 10
)

// PollConfig bounds a repeated sample. Zero fields take the defaults.
type PollConfig struct {
	// Interval is the pause between the completion of one sample and
	// the start of the next.
	Interval time.Duration

	// FailureCeiling is the number of consecutive sample errors that
	// aborts the poll. Any successful sample resets the count.
	FailureCeiling int
}

func (c PollConfig) withDefaults() PollConfig {
	if c.Interval <= 0 {
		c.Interval = DefaultPollInterval
	}
	if c.FailureCeiling <= 0 {
		c.FailureCeiling = DefaultFailureCeiling
	}
	return c
}

// SampleFunc takes one sample. It must arrange for done to be called
// exactly once, typically by enqueueing a command whose completion
// forwards to done. An error returned directly means the sample never
// started.
type SampleFunc func(done CompletionFunc) error

// Predicate reports whether a sampled value satisfies the poll.
type Predicate func(value any) bool

// WaitUntil samples repeatedly until pred accepts a value, the
// consecutive failure ceiling is hit, or ctx ends. It blocks the
// calling goroutine and must not be used inside a completion callback;
// NotifyWhen is the non-blocking equivalent.
func (p *Pipeline) WaitUntil(ctx context.Context, cfg PollConfig, sample SampleFunc, pred Predicate) (any, error) {
	cfg = cfg.withDefaults()

	type outcome struct {
		value any
		err   error
	}
	failures := 0
	for {
		ch := make(chan outcome, 1)
		if err := sample(func(value any, err error) {
			ch <- outcome{value, err}
		}); err != nil {
			return nil, err
		}

		select {
		case out := <-ch:
			if out.err != nil {
				failures++
				if failures >= cfg.FailureCeiling {
					return nil, fmt.Errorf("%w after %d consecutive failures: %v",
						ErrPollFailed, failures, out.err)
				}
			} else {
				failures = 0
				if pred(out.value) {
					return out.value, nil
				}
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		select {
		case <-time.After(cfg.Interval):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// NotifyWhen is WaitUntil without blocking: it samples on the dispatch
// goroutine, rescheduling itself through After, and calls notify once
// with the accepted value or the terminal error. Safe to start from a
// completion callback. The returned error covers the first sample
// only; everything after that reaches notify.
func (p *Pipeline) NotifyWhen(cfg PollConfig, sample SampleFunc, pred Predicate, notify CompletionFunc) error {
	cfg = cfg.withDefaults()

	var step func(failures int) error
	step = func(failures int) error {
		return sample(func(value any, err error) {
			if err != nil {
				failures++
				if failures >= cfg.FailureCeiling {
					notify(nil, fmt.Errorf("%w after %d consecutive failures: %v",
						ErrPollFailed, failures, err))
					return
				}
			} else {
				if pred(value) {
					notify(value, nil)
					return
				}
				failures = 0
			}
			p.After(cfg.Interval, func() {
				if err := step(failures); err != nil {
					notify(nil, err)
				}
			})
		})
	}
	return step(0)
}
