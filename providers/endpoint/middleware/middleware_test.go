package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/leofalp/daggo/internal/utils"
	"github.com/leofalp/daggo/providers/endpoint"
)

// predictSequence returns the configured errors in order, then "ok".
type predictSequence struct {
	errors    []error
	callCount int
}

func (sequence *predictSequence) next(_ context.Context, _ endpoint.PredictRequest) (any, error) {
	index := sequence.callCount
	sequence.callCount++

	if index < len(sequence.errors) && sequence.errors[index] != nil {
		return nil, sequence.errors[index]
	}
	return "ok", nil
}

func fastRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	}
}

func TestRetry_SucceedsAfterTransientErrors(testCase *testing.T) {
	sequence := &predictSequence{errors: []error{
		&utils.StatusError{StatusCode: http.StatusServiceUnavailable},
		&utils.StatusError{StatusCode: http.StatusTooManyRequests},
	}}

	predict := NewRetryMiddleware(fastRetryConfig())(sequence.next)

	result, err := predict(context.Background(), endpoint.PredictRequest{APIName: "/predict"})
	if err != nil {
		testCase.Fatalf("expected success, got %v", err)
	}
	if result != "ok" || sequence.callCount != 3 {
		testCase.Errorf("expected ok after 3 calls, got %v after %d", result, sequence.callCount)
	}
}

func TestRetry_NonRetryableStopsImmediately(testCase *testing.T) {
	sequence := &predictSequence{errors: []error{&utils.StatusError{StatusCode: http.StatusBadRequest}}}

	predict := NewRetryMiddleware(fastRetryConfig())(sequence.next)

	_, err := predict(context.Background(), endpoint.PredictRequest{})
	if err == nil || sequence.callCount != 1 {
		testCase.Errorf("expected one failing call, got %d calls (err %v)", sequence.callCount, err)
	}
}

func TestRetry_Exhausted(testCase *testing.T) {
	lastErr := errors.New("upstream said 502")
	sequence := &predictSequence{errors: []error{lastErr, lastErr, lastErr}}

	predict := NewRetryMiddleware(fastRetryConfig())(sequence.next)

	_, err := predict(context.Background(), endpoint.PredictRequest{})
	if !errors.Is(err, ErrRetryExhausted) {
		testCase.Fatalf("expected ErrRetryExhausted, got %v", err)
	}
	if !errors.Is(err, lastErr) {
		testCase.Errorf("expected the last error to be wrapped, got %v", err)
	}
	if sequence.callCount != 3 {
		testCase.Errorf("expected 3 calls, got %d", sequence.callCount)
	}
}

func TestRetry_ContextErrorsAreNotRetried(testCase *testing.T) {
	if defaultRetryableFunc(context.DeadlineExceeded) {
		testCase.Error("deadline exceeded must not be retried")
	}
	if defaultRetryableFunc(nil) {
		testCase.Error("nil error must not be retried")
	}
}

func TestComputeBackoff_Capped(testCase *testing.T) {
	config := RetryConfig{InitialBackoff: time.Second, MaxBackoff: 2 * time.Second, BackoffFactor: 10, JitterFraction: 0.1}

	backoff := computeBackoff(config, 5)
	if backoff < 2*time.Second || backoff > 2200*time.Millisecond {
		testCase.Errorf("expected capped backoff around 2s, got %v", backoff)
	}
}

func TestTimeout_SetsDeadline(testCase *testing.T) {
	predict := NewTimeoutMiddleware(time.Minute)(func(ctx context.Context, _ endpoint.PredictRequest) (any, error) {
		if _, hasDeadline := ctx.Deadline(); !hasDeadline {
			testCase.Error("expected a deadline on the context")
		}
		return nil, nil
	})

	if _, err := predict(context.Background(), endpoint.PredictRequest{}); err != nil {
		testCase.Errorf("unexpected error: %v", err)
	}
}

func TestTimeout_ExpiresSlowCall(testCase *testing.T) {
	predict := NewTimeoutMiddleware(5 * time.Millisecond)(func(ctx context.Context, _ endpoint.PredictRequest) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	_, err := predict(context.Background(), endpoint.PredictRequest{})
	if !errors.Is(err, context.DeadlineExceeded) {
		testCase.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestLogging_WritesRequestAndResult(testCase *testing.T) {
	var buffer bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buffer, nil))

	predict := NewLoggingMiddleware(logger, LogLevelVerbose)(func(_ context.Context, _ endpoint.PredictRequest) (any, error) {
		return []any{"a", "b"}, nil
	})

	_, err := predict(context.Background(), endpoint.PredictRequest{
		Source:  "owner/space",
		APIName: "/predict",
		Inputs:  map[string]any{"text": "hi"},
	})
	if err != nil {
		testCase.Fatalf("unexpected error: %v", err)
	}

	output := buffer.String()
	for _, fragment := range []string{"endpoint predict", "src=owner/space", "result_shape=sequence", "inputs=[text]"} {
		if !strings.Contains(output, fragment) {
			testCase.Errorf("expected log output to contain %q, got:\n%s", fragment, output)
		}
	}
}

func TestLogging_Failure(testCase *testing.T) {
	var buffer bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buffer, nil))

	predict := NewLoggingMiddleware(logger, LogLevelMinimal)(func(_ context.Context, _ endpoint.PredictRequest) (any, error) {
		return nil, errors.New("boom")
	})

	if _, err := predict(context.Background(), endpoint.PredictRequest{}); err == nil {
		testCase.Fatal("expected error")
	}
	if !strings.Contains(buffer.String(), "endpoint predict failed") {
		testCase.Errorf("expected failure entry, got:\n%s", buffer.String())
	}
}
