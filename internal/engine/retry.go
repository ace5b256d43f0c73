package engine

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/time/rate"

	"github.com/yungbote/breakdown-backend/internal/platform/httpx"
	"github.com/yungbote/breakdown-backend/internal/platform/logger"
)

// Retrier bounds upstream calls: per-attempt rate limiting, exponential
// backoff between retryable failures and a fixed attempt budget.
type Retrier struct {
	MaxRetries int
	Initial    time.Duration
	Max        time.Duration
	Limiter    *rate.Limiter
	Log        *logger.Logger
}

func NewRetrier(maxRetries int, rps float64, burst int, log *logger.Logger) Retrier {
	r := Retrier{
		MaxRetries: maxRetries,
		Initial:    1 * time.Second,
		Max:        10 * time.Second,
		Log:        log,
	}
	if rps > 0 {
		if burst <= 0 {
			burst = 1
		}
		r.Limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return r
}

// Call runs op until it succeeds, fails with a non-retryable error, or the
// attempt budget is spent. The last upstream error is returned.
func Call[T any](ctx context.Context, r Retrier, name string, op func(ctx context.Context) (T, error)) (T, error) {
	if r.MaxRetries < 0 {
		r.MaxRetries = 0
	}
	b := backoff.NewExponentialBackOff()
	if r.Initial > 0 {
		b.InitialInterval = r.Initial
	}
	if r.Max > 0 {
		b.MaxInterval = r.Max
	}

	var (
		attempt int
		lastErr error
	)
	res, err := backoff.Retry(ctx, func() (T, error) {
		attempt++
		var zero T
		if r.Limiter != nil {
			if err := r.Limiter.Wait(ctx); err != nil {
				lastErr = err
				return zero, backoff.Permanent(err)
			}
		}
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err
		if !httpx.IsRetryableError(err) {
			return zero, backoff.Permanent(err)
		}
		var he *HTTPError
		if attempt <= r.MaxRetries && errors.As(err, &he) && he.RetryAfter > 0 {
			return zero, &backoff.RetryAfterError{Duration: he.RetryAfter}
		}
		return zero, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(r.MaxRetries+1)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			if r.Log != nil {
				r.Log.Warn("upstream request retrying",
					"call", name,
					"attempt", attempt,
					"max_retries", r.MaxRetries,
					"sleep", next.String(),
					"error", lastErr,
				)
			}
		}),
	)
	if err != nil {
		var ra *backoff.RetryAfterError
		var perm *backoff.PermanentError
		switch {
		case errors.As(err, &ra) && lastErr != nil:
			err = lastErr
		case errors.As(err, &perm):
			err = perm.Unwrap()
		}
		return res, err
	}
	return res, nil
}
