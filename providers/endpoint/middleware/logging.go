package middleware

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/leofalp/daggo/internal/utils"
	"github.com/leofalp/daggo/providers/endpoint"
)

// LogLevel controls how much detail the logging middleware emits per call.
type LogLevel int

const (
	// LogLevelMinimal logs only the source, API name and duration.
	LogLevelMinimal LogLevel = iota

	// LogLevelStandard adds the input names and the result shape.
	LogLevelStandard

	// LogLevelVerbose adds truncated previews of inputs and results.
	//
	// WARNING: do not use in production. Inputs and results are logged raw.
	LogLevelVerbose
)

// truncateLen is the maximum preview length included in verbose log output.
const truncateLen = 500

// NewLoggingMiddleware returns a middleware that emits structured slog
// entries before and after every Predict call. logger must not be nil.
func NewLoggingMiddleware(logger *slog.Logger, level LogLevel) endpoint.Middleware {
	return func(next endpoint.PredictFunc) endpoint.PredictFunc {
		return func(ctx context.Context, request endpoint.PredictRequest) (any, error) {
			logger.InfoContext(ctx, "endpoint predict", buildRequestAttrs(request, level)...)

			start := time.Now()
			result, err := next(ctx, request)
			elapsed := time.Since(start)

			if err != nil {
				logger.ErrorContext(ctx, "endpoint predict failed",
					slog.String("src", request.Source),
					slog.String("api_name", request.APIName),
					slog.Duration("duration", elapsed),
					slog.String("error", err.Error()),
				)
				return nil, err
			}

			logger.InfoContext(ctx, "endpoint predict completed", buildResultAttrs(request, result, elapsed, level)...)

			return result, nil
		}
	}
}

func buildRequestAttrs(request endpoint.PredictRequest, level LogLevel) []any {
	attrs := []any{
		slog.String("src", request.Source),
		slog.String("api_name", request.APIName),
	}

	if level >= LogLevelStandard {
		names := make([]string, 0, len(request.Inputs))
		for name := range request.Inputs {
			names = append(names, name)
		}
		sort.Strings(names)
		attrs = append(attrs, slog.Any("inputs", names))
	}

	if level >= LogLevelVerbose {
		attrs = append(attrs, slog.String("inputs_preview", utils.Preview(request.Inputs, truncateLen)))
	}

	return attrs
}

func buildResultAttrs(request endpoint.PredictRequest, result any, elapsed time.Duration, level LogLevel) []any {
	attrs := []any{
		slog.String("src", request.Source),
		slog.String("api_name", request.APIName),
		slog.Duration("duration", elapsed),
	}

	if level >= LogLevelStandard {
		attrs = append(attrs, slog.String("result_shape", resultShape(result)))
	}

	if level >= LogLevelVerbose {
		attrs = append(attrs, slog.String("result_preview", utils.Preview(result, truncateLen)))
	}

	return attrs
}

func resultShape(result any) string {
	switch result.(type) {
	case nil:
		return "none"
	case map[string]any:
		return "mapping"
	case []any:
		return "sequence"
	default:
		return "scalar"
	}
}
