package middleware

import (
	"context"
	"time"

	"github.com/leofalp/daggo/providers/endpoint"
)

// NewTimeoutMiddleware returns a middleware that bounds every Predict call by
// timeout. A shorter deadline already present on the caller's context wins.
func NewTimeoutMiddleware(timeout time.Duration) endpoint.Middleware {
	return func(next endpoint.PredictFunc) endpoint.PredictFunc {
		return func(ctx context.Context, request endpoint.PredictRequest) (any, error) {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			return next(ctx, request)
		}
	}
}
