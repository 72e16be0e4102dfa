package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// PermanentError marks failures that must not be retried (a malformed
// request stays malformed no matter how often it is resubmitted).
type PermanentError interface {
	error
	IsPermanent() bool
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string {
	return e.err.Error()
}

func (e *permanentError) IsPermanent() bool {
	return true
}

func (e *permanentError) Unwrap() error {
	return e.err
}

func NewPermanentError(err error) PermanentError {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

type Policy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	MaxElapsedTime  time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:     3,
		InitialInterval: 1 * time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2.0,
		MaxElapsedTime:  5 * time.Minute,
	}
}

// SupervisePolicy is the shape used for the resubscribe loop: retry without
// an attempt or elapsed-time cap, backing off to MaxInterval.
func SupervisePolicy() Policy {
	return Policy{
		InitialInterval: 1 * time.Second,
		MaxInterval:     2 * time.Minute,
		Multiplier:      2.0,
	}
}

func (p Policy) backOff(ctx context.Context) backoff.BackOff {
	var b backoff.BackOff = ExponentialBackoff(p.InitialInterval, p.MaxInterval, p.Multiplier, p.MaxElapsedTime)
	b = backoff.WithContext(b, ctx)
	if p.MaxAttempts > 0 {
		b = backoff.WithMaxRetries(b, uint64(p.MaxAttempts-1))
	}
	return b
}

func Retry(ctx context.Context, policy Policy, fn func() error) error {
	return RetryWithCallback(ctx, policy, fn, nil)
}

func RetryWithCallback(ctx context.Context, policy Policy, fn func() error, onRetry func(err error, nextDelay time.Duration)) error {
	operation := func() error {
		err := fn()
		if err == nil {
			return nil
		}

		var permErr PermanentError
		if errors.As(err, &permErr) {
			return backoff.Permanent(err)
		}

		return err
	}

	notify := func(err error, delay time.Duration) {
		if onRetry != nil {
			onRetry(err, delay)
		}
	}

	return backoff.RetryNotify(operation, policy.backOff(ctx), notify)
}
