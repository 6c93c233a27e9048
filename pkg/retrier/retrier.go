package retrier

import (
	"context"
	"errors"
	"time"
)

const (
	defaultDelay      = 500 * time.Millisecond
	defaultMaxRetries = 3
)

// Retrier retries an operation a bounded number of times with a fixed delay
// between attempts.
type Retrier struct {
	delay      time.Duration
	maxRetries int
}

// Option defines a function to configure the Retrier.
type Option func(*Retrier)

// WithDelay sets the fixed delay between attempts.
func WithDelay(d time.Duration) Option {
	return func(r *Retrier) {
		if d > 0 {
			r.delay = d
		}
	}
}

// WithMaxRetries sets the maximum number of retries after the first attempt.
func WithMaxRetries(n int) Option {
	return func(r *Retrier) {
		if n >= 0 {
			r.maxRetries = n
		}
	}
}

// New creates a new Retrier with default values and optional overrides.
func New(opts ...Option) *Retrier {
	r := &Retrier{
		delay:      defaultDelay,
		maxRetries: defaultMaxRetries,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }

func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks an error as non-retryable: Do returns the wrapped error
// immediately instead of attempting again.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Do executes the given function, retrying transient failures until the
// retry budget is spent.
func (r *Retrier) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.delay):
			}
		}

		err = fn(ctx)
		if err == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
	}

	return err
}

// DoWithData executes the given function with retries and returns a value.
func DoWithData[T any](r *Retrier, ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := r.Do(ctx, func(ctx context.Context) error {
		var e error
		result, e = fn(ctx)
		return e
	})
	return result, err
}
