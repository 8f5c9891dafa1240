package middleware

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/leofalp/daggo/internal/utils"
	"github.com/leofalp/daggo/providers/endpoint"
	"github.com/leofalp/daggo/providers/observability"
)

// RetryConfig holds the tuning parameters for the retry middleware. Zero values
// are replaced with the defaults documented below when NewRetryMiddleware is called.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts after the first failure.
	// Default: 3.
	MaxRetries int

	// InitialBackoff is the wait duration before the first retry attempt.
	// Default: 1s.
	InitialBackoff time.Duration

	// MaxBackoff caps the computed backoff.
	// Default: 30s.
	MaxBackoff time.Duration

	// BackoffFactor is the exponential growth multiplier
	// (backoff = min(InitialBackoff * BackoffFactor^attempt, MaxBackoff)).
	// Default: 2.0.
	BackoffFactor float64

	// JitterFraction adds random noise in [0, JitterFraction * backoff].
	// Default: 0.1.
	JitterFraction float64

	// RetryableFunc returns true when an error should trigger a retry.
	// The default retries on HTTP 429, 500, 502, 503 and 504.
	RetryableFunc func(error) bool
}

var retryableStatusCodes = []int{
	http.StatusTooManyRequests,
	http.StatusInternalServerError,
	http.StatusBadGateway,
	http.StatusServiceUnavailable,
	http.StatusGatewayTimeout,
}

// defaultRetryableFunc matches *utils.StatusError first and falls back to a
// string match for collaborators that only report codes as text.
func defaultRetryableFunc(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var statusErr *utils.StatusError
	if errors.As(err, &statusErr) {
		for _, code := range retryableStatusCodes {
			if statusErr.StatusCode == code {
				return true
			}
		}
		return false
	}

	msg := err.Error()
	for _, code := range retryableStatusCodes {
		if strings.Contains(msg, fmt.Sprintf("%d", code)) {
			return true
		}
	}

	return false
}

func applyRetryDefaults(config *RetryConfig) {
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}

	if config.InitialBackoff == 0 {
		config.InitialBackoff = time.Second
	}

	if config.MaxBackoff == 0 {
		config.MaxBackoff = 30 * time.Second
	}

	if config.BackoffFactor == 0 {
		config.BackoffFactor = 2.0
	}

	if config.JitterFraction == 0 {
		config.JitterFraction = 0.1
	}

	if config.RetryableFunc == nil {
		config.RetryableFunc = defaultRetryableFunc
	}
}

// computeBackoff returns the backoff duration for the given attempt (0-indexed).
func computeBackoff(config RetryConfig, attempt int) time.Duration {
	base := float64(config.InitialBackoff) * math.Pow(config.BackoffFactor, float64(attempt))
	if base > float64(config.MaxBackoff) {
		base = float64(config.MaxBackoff)
	}

	jitter := base * config.JitterFraction * rand.Float64() //nolint:gosec // non-cryptographic jitter is intentional
	return time.Duration(base + jitter)
}

// NewRetryMiddleware returns a middleware that retries failed Predict calls
// according to config. Non-retryable errors propagate immediately. On
// exhaustion the returned error wraps both [ErrRetryExhausted] and the last
// error.
func NewRetryMiddleware(config RetryConfig) endpoint.Middleware {
	applyRetryDefaults(&config)

	return func(next endpoint.PredictFunc) endpoint.PredictFunc {
		return func(ctx context.Context, request endpoint.PredictRequest) (any, error) {
			var lastErr error

			for attempt := 0; attempt <= config.MaxRetries; attempt++ {
				if attempt > 0 {
					backoff := computeBackoff(config, attempt-1)
					if span := observability.SpanFromContext(ctx); span != nil {
						span.AddEvent("endpoint.retry",
							observability.Int(observability.AttrEndpointAttempt, attempt),
							observability.Duration("endpoint.retry.backoff", backoff),
							observability.Error(lastErr),
						)
					}

					select {
					case <-ctx.Done():
						return nil, ctx.Err()
					case <-time.After(backoff):
					}
				}

				result, err := next(ctx, request)
				if err == nil {
					return result, nil
				}

				lastErr = err

				if !config.RetryableFunc(err) {
					return nil, err
				}
			}

			return nil, fmt.Errorf("%w after %d retries: %w", ErrRetryExhausted, config.MaxRetries, lastErr)
		}
	}
}
