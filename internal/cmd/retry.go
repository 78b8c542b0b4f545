package cmd

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/viber/viber-cli/internal/viber"
)

// retryInitialInterval is the first backoff delay; tests shrink it.
var retryInitialInterval = 500 * time.Millisecond

// withRetry runs op, retrying transport failures up to retries times.
// API rejections are final: the server already saw the request.
func withRetry[T any](ctx context.Context, retries int, op func() (T, error)) (T, error) {
	if retries <= 0 {
		return op()
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryInitialInterval
	b.MaxElapsedTime = 0

	var result T
	err := backoff.Retry(func() error {
		v, err := op()
		if err == nil {
			result = v
			return nil
		}
		if viber.IsTransportError(err) && ctx.Err() == nil {
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx))
	return result, err
}
