package gradio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/leofalp/daggo/internal/utils"
	"github.com/leofalp/daggo/providers/endpoint"
	"github.com/leofalp/daggo/providers/observability"
)

var (
	// ErrUnknownAPI is returned when Predict names an API the app does not expose.
	ErrUnknownAPI = errors.New("gradio: unknown api")

	// ErrPredictionFailed is returned when the app reports an error event.
	ErrPredictionFailed = errors.New("gradio: prediction failed")

	// ErrIncompleteStream is returned when the event stream ends without a result.
	ErrIncompleteStream = errors.New("gradio: event stream ended without a result")
)

// Client calls a single discovered Gradio app.
type Client struct {
	connector *Connector
	app       *app
	source    string
}

var _ endpoint.Client = (*Client)(nil)

type callRequest struct {
	Data []any `json:"data"`
}

type callResponse struct {
	EventID string `json:"event_id"`
}

// Predict calls apiName with inputs mapped positionally onto the declared
// parameters. Parameters without a supplied value use their declared default,
// else null. A single returned value is unwrapped; several are returned as a
// []any.
func (client *Client) Predict(ctx context.Context, apiName string, inputs map[string]any) (any, error) {
	signature, found := client.app.description.Select(apiName)
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAPI, apiName)
	}

	observer := client.connector.provider(ctx)
	var span observability.Span
	if observer != nil {
		ctx, span = observer.StartSpan(ctx, observability.SpanEndpointPredict,
			observability.String(observability.AttrEndpointSource, client.source),
			observability.String(observability.AttrEndpointAPIName, signature.APIName),
		)
		defer span.End()
	}

	result, err := client.call(ctx, signature, inputs)
	if err != nil {
		if span != nil {
			span.RecordError(err)
			span.SetStatus(observability.StatusError, "predict failed")
		}
		return nil, err
	}

	if span != nil {
		span.SetStatus(observability.StatusOK, "")
	}

	return result, nil
}

func (client *Client) call(ctx context.Context, signature endpoint.Signature, inputs map[string]any) (any, error) {
	arguments := positionalArguments(signature, inputs)
	callURL := client.app.root + client.app.prefix + "/call/" + strings.TrimLeft(signature.APIName, "/")

	_, started, err := utils.DoJSON[callResponse](ctx, client.connector.httpClient, http.MethodPost, callURL, client.connector.token, callRequest{Data: arguments})
	if err != nil {
		return nil, fmt.Errorf("gradio: starting %s: %w", signature.APIName, err)
	}
	if started.EventID == "" {
		return nil, fmt.Errorf("gradio: starting %s: empty event id", signature.APIName)
	}

	res, err := utils.OpenEventStream(ctx, client.connector.httpClient, callURL+"/"+started.EventID, client.connector.token)
	if err != nil {
		return nil, fmt.Errorf("gradio: streaming %s: %w", signature.APIName, err)
	}
	defer utils.CloseWithLog(res.Body)

	return readResult(utils.NewSSEScanner(res.Body))
}

// positionalArguments orders the named inputs by the signature's parameters.
func positionalArguments(signature endpoint.Signature, inputs map[string]any) []any {
	names := signature.InputNames()
	arguments := make([]any, len(names))

	for index, name := range names {
		if value, supplied := inputs[name]; supplied {
			arguments[index] = value
			continue
		}
		if signature.Parameters[index].HasDefault {
			arguments[index] = signature.Parameters[index].Default
		}
	}

	return arguments
}

// readResult consumes events until the call completes or fails.
func readResult(scanner *utils.SSEScanner) (any, error) {
	for {
		event, err := scanner.Next()
		if errors.Is(err, io.EOF) {
			return nil, ErrIncompleteStream
		}
		if err != nil {
			return nil, err
		}

		switch event.Event {
		case "complete":
			var values []any
			if err := json.Unmarshal([]byte(event.Data), &values); err != nil {
				return nil, fmt.Errorf("gradio: decoding result: %w", err)
			}
			if len(values) == 1 {
				return values[0], nil
			}
			return values, nil
		case "error":
			message := strings.TrimSpace(event.Data)
			if message == "" || message == "null" {
				return nil, ErrPredictionFailed
			}
			return nil, fmt.Errorf("%w: %s", ErrPredictionFailed, utils.TruncateString(message, utils.DefaultMaxStringLength))
		}
	}
}
