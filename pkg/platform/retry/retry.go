// Package retry provides a bounded retry combinator for polling eventually
// consistent resources. It is a thin policy layer over cenkalti/backoff so
// call sites state attempts and interval instead of rebuilding sleep loops.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// errNotYet drives another attempt without surfacing an error to the caller.
var errNotYet = errors.New("retry: condition not met")

// Poll runs check up to maxAttempts times, waiting interval between attempts,
// and short-circuits on the first success. A nil error with done=false means
// the condition was checked cleanly but not met yet.
//
// Transient errors from check are swallowed and retried; only context
// cancellation or Permanent-wrapped errors abort early. The return value
// reports whether the condition was ever met.
func Poll(ctx context.Context, maxAttempts int, interval time.Duration, check func(ctx context.Context) (done bool, err error)) (bool, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(interval), uint64(maxAttempts-1)),
		ctx,
	)

	op := func() error {
		done, err := check(ctx)
		if err != nil {
			// Transient failures count as attempts; Permanent aborts.
			return err
		}
		if !done {
			return errNotYet
		}
		return nil
	}

	err := backoff.Retry(op, policy)
	switch {
	case err == nil:
		return true, nil
	case ctx.Err() != nil:
		return false, ctx.Err()
	case errors.Is(err, errNotYet):
		return false, nil
	default:
		return false, err
	}
}

// Permanent marks an error as non-retryable so Poll aborts immediately.
func Permanent(err error) error { return backoff.Permanent(err) }
