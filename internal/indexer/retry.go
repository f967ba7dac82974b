package indexer

import (
	"context"
	"errors"
	"time"
)

const (
	defaultRetryDelay = 100 * time.Millisecond
	maxRetryDelay     = 30 * time.Second
)

// permanentError stops retries.
type permanentError struct {
	err error
}

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

// permanent marks err as not worth retrying.
func permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

// retryPolicy retries with exponential backoff capped at maxRetryDelay.
type retryPolicy struct {
	maxRetries int
	baseDelay  time.Duration
	onRetry    func(attempt int, delay time.Duration, err error)
}

func (p retryPolicy) do(ctx context.Context, fn func(context.Context) error) error {
	maxRetries := p.maxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	delay := p.baseDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}

	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		var perm permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if attempt >= maxRetries || ctx.Err() != nil {
			return err
		}
		if p.onRetry != nil {
			p.onRetry(attempt+1, delay, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
		if delay > maxRetryDelay {
			delay = maxRetryDelay
		}
	}
}
