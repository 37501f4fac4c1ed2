// Package poll waits for an external state transition by re-running a task
// until it succeeds, reports a fatal error, or runs out of attempts or time.
package poll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// ErrProvisioningTimeout is matched by every *TimeoutError.
var ErrProvisioningTimeout = errors.New("provisioning timeout")

// Task is one attempt. retry reports whether a failed attempt may be retried;
// it is ignored when err is nil.
type Task func(ctx context.Context) (retry bool, err error)

// TimeoutError is returned when a task is still failing with retryable errors
// after the attempt or time budget is spent.
type TimeoutError struct {
	Name     string
	Attempts uint64
	Elapsed  time.Duration
	Last     error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%v: gave up after %v attempts in %v: %v", e.Name, e.Attempts, e.Elapsed.Round(time.Millisecond), e.Last)
}

func (e *TimeoutError) Unwrap() []error {
	return []error{ErrProvisioningTimeout, e.Last}
}

// Policy bounds a polling loop.
type Policy struct {
	// MaxAttempts caps the number of attempts; 0 leaves attempts unbounded, in
	// which case Timeout should be set.
	MaxAttempts uint64

	// Interval between attempts. Defaults to one second.
	Interval time.Duration

	// Exponential doubles the interval after every failed attempt, up to
	// MaxInterval.
	Exponential bool

	// MaxInterval caps exponential growth. Defaults to 30s.
	MaxInterval time.Duration

	// Timeout bounds the total time spent, including the attempts themselves.
	Timeout time.Duration

	// OnRetry is called after every retryable failure, before waiting.
	OnRetry func(ctx context.Context, attempt uint64, err error)

	// Sleep waits between attempts; tests replace it to avoid real delays.
	Sleep func(ctx context.Context, d time.Duration) error

	now func() time.Time
}

// Fixed returns a policy retrying every interval, at most maxAttempts times
// and for at most timeout.
func Fixed(interval time.Duration, maxAttempts uint64, timeout time.Duration) Policy {
	return Policy{
		MaxAttempts: maxAttempts,
		Interval:    interval,
		Timeout:     timeout,
	}
}

// Start runs task until it succeeds. A non-retryable error is returned as is;
// running out of budget returns a *TimeoutError wrapping the last error; a
// canceled parent context returns its error.
func (p Policy) Start(ctx context.Context, name string, task Task) error {
	now := p.now
	if now == nil {
		now = time.Now
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	begin := now()
	var deadline time.Time
	if p.Timeout > 0 {
		deadline = begin.Add(p.Timeout)
	}

	logger := zerolog.Ctx(ctx)
	for attempt := uint64(1); ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		retry, err := task(ctx)
		if err == nil {
			logger.Debug().Str("poll", name).Uint64("attempt", attempt).Msg("poll complete")
			return nil
		}
		if !retry {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		timeout := func() error {
			return &TimeoutError{
				Name:     name,
				Attempts: attempt,
				Elapsed:  now().Sub(begin),
				Last:     err,
			}
		}
		if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
			return timeout()
		}

		interval := p.interval(attempt)
		if !deadline.IsZero() {
			remaining := deadline.Sub(now())
			if remaining <= 0 {
				return timeout()
			}
			interval = min(interval, remaining)
		}

		if p.OnRetry != nil {
			p.OnRetry(ctx, attempt, err)
		}
		// a wait clipped to the deadline is followed by one last attempt
		if err := sleep(ctx, interval); err != nil {
			return err
		}
	}
}

func (p Policy) interval(attempt uint64) time.Duration {
	interval := p.Interval
	if interval <= 0 {
		interval = time.Second
	}
	if !p.Exponential {
		return interval
	}

	maxInterval := p.MaxInterval
	if maxInterval <= 0 {
		maxInterval = 30 * time.Second
	}
	for i := uint64(1); i < attempt && interval < maxInterval; i++ {
		interval *= 2
	}
	return min(interval, maxInterval)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
