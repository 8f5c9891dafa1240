// Package middleware provides built-in [endpoint.Middleware] implementations
// for remote endpoint calls. Each middleware is constructed via a New*
// function and passed to a connector, for example gradio.WithMiddleware.
//
// # Available Middleware
//
//   - [NewRetryMiddleware]: retries failed Predict calls with exponential
//     backoff and jitter. Useful for transient 429 / 5xx responses and cold
//     starting Spaces.
//
//   - [NewTimeoutMiddleware]: adds a per-call deadline via context.WithTimeout.
//
//   - [NewLoggingMiddleware]: emits structured slog entries before and after
//     every call, with three verbosity levels (Minimal, Standard, Verbose).
//
// Middlewares execute outermost-first. With
//
//	gradio.WithMiddleware(
//	    middleware.NewTimeoutMiddleware(2*time.Minute),
//	    middleware.NewRetryMiddleware(middleware.RetryConfig{MaxRetries: 3}),
//	    middleware.NewLoggingMiddleware(slog.Default(), middleware.LogLevelStandard),
//	)
//
// a request travels Timeout → Retry → Logging → Client, so the timeout bounds
// every retry together.
package middleware
