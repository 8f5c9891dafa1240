package gradio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync/atomic"
	"testing"

	"github.com/leofalp/daggo/providers/endpoint"
)

const infoDocument = `{
  "named_endpoints": {
    "/lambda": {"parameters": [], "returns": []},
    "/predict": {
      "parameters": [
        {"parameter_name": "text", "label": "Text"},
        {"label": "Seed", "parameter_has_default": true, "parameter_default": 7}
      ],
      "returns": [{"label": "Image"}, {"label": ""}]
    }
  },
  "unnamed_endpoints": {}
}`

// newGradioServer serves the Gradio 5 layout. The predict handler receives the
// decoded positional data and returns the SSE body to stream.
func newGradioServer(testCase *testing.T, predict func(data []any) string) (*httptest.Server, *atomic.Int32) {
	infoCalls := &atomic.Int32{}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /gradio_api/info", func(writer http.ResponseWriter, _ *http.Request) {
		infoCalls.Add(1)
		writer.Header().Set("Content-Type", "application/json")
		fmt.Fprint(writer, infoDocument)
	})

	var lastData []any
	mux.HandleFunc("POST /gradio_api/call/predict", func(writer http.ResponseWriter, request *http.Request) {
		var body struct {
			Data []any `json:"data"`
		}
		if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
			testCase.Errorf("invalid call body: %v", err)
		}
		lastData = body.Data
		fmt.Fprint(writer, `{"event_id":"abc123"}`)
	})
	mux.HandleFunc("GET /gradio_api/call/predict/abc123", func(writer http.ResponseWriter, _ *http.Request) {
		writer.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(writer, predict(lastData))
	})

	return httptest.NewServer(mux), infoCalls
}

func TestResolveSource(testCase *testing.T) {
	tests := []struct {
		name    string
		src     string
		want    string
		wantErr bool
	}{
		{name: "url", src: "https://example.com/app/", want: "https://example.com/app"},
		{name: "space id", src: "Owner/My_Space.v2", want: "https://owner-my-space-v2.hf.space"},
		{name: "missing space", src: "owner/", wantErr: true},
		{name: "bare word", src: "predict", wantErr: true},
		{name: "too many segments", src: "a/b/c", wantErr: true},
	}

	for _, tt := range tests {
		testCase.Run(tt.name, func(t *testing.T) {
			got, err := ResolveSource(tt.src)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidSource) {
					t.Fatalf("expected ErrInvalidSource, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("expected %s, got %s (err %v)", tt.want, got, err)
			}
		})
	}
}

func TestDescribe_PreservesOrderAndCaches(testCase *testing.T) {
	server, infoCalls := newGradioServer(testCase, func([]any) string { return "" })
	defer server.Close()

	connector := New(WithHTTPClient(server.Client()), WithToken(""))

	description, err := connector.Describe(context.Background(), server.URL)
	if err != nil {
		testCase.Fatalf("unexpected error: %v", err)
	}

	names := make([]string, 0, len(description.Endpoints))
	for _, signature := range description.Endpoints {
		names = append(names, signature.APIName)
	}
	if !reflect.DeepEqual(names, []string{"/lambda", "/predict"}) {
		testCase.Errorf("expected declaration order, got %v", names)
	}

	signature, _ := description.Select("")
	if !reflect.DeepEqual(signature.InputNames(), []string{"text", "Seed"}) {
		testCase.Errorf("unexpected inputs %v", signature.InputNames())
	}
	if !reflect.DeepEqual(signature.OutputNames(), []string{"Image", "output_1"}) {
		testCase.Errorf("unexpected outputs %v", signature.OutputNames())
	}

	if _, err := connector.Describe(context.Background(), server.URL); err != nil {
		testCase.Fatalf("unexpected error on second describe: %v", err)
	}
	if infoCalls.Load() != 1 {
		testCase.Errorf("expected one info request, got %d", infoCalls.Load())
	}
}

func TestDescribe_LegacyLayout(testCase *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /info", func(writer http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(writer, `{"named_endpoints":{"/run":{"parameters":[{"label":"x"}],"returns":[{"label":"y"}]}}}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	description, err := New(WithHTTPClient(server.Client())).Describe(context.Background(), server.URL)
	if err != nil {
		testCase.Fatalf("unexpected error: %v", err)
	}
	if len(description.Endpoints) != 1 || description.Endpoints[0].APIName != "/run" {
		testCase.Errorf("unexpected endpoints %+v", description.Endpoints)
	}
}

func TestDescribe_Unreachable(testCase *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	if _, err := New(WithHTTPClient(server.Client())).Describe(context.Background(), server.URL); err == nil {
		testCase.Error("expected an error for a failing app")
	}
}

func TestPredict_MultipleOutputs(testCase *testing.T) {
	server, _ := newGradioServer(testCase, func(data []any) string {
		if !reflect.DeepEqual(data, []any{"hello", float64(7)}) {
			testCase.Errorf("expected supplied text and default seed, got %v", data)
		}
		return "event: generating\ndata: null\n\nevent: complete\ndata: [\"img.png\", 3]\n\n"
	})
	defer server.Close()

	client, err := New(WithHTTPClient(server.Client())).Connect(context.Background(), server.URL)
	if err != nil {
		testCase.Fatalf("unexpected connect error: %v", err)
	}

	result, err := client.Predict(context.Background(), "/predict", map[string]any{"text": "hello", "ignored": true})
	if err != nil {
		testCase.Fatalf("unexpected predict error: %v", err)
	}

	want := []any{"img.png", float64(3)}
	if !reflect.DeepEqual(result, want) {
		testCase.Errorf("expected %v, got %v", want, result)
	}
}

func TestPredict_SingleOutputUnwrapped(testCase *testing.T) {
	server, _ := newGradioServer(testCase, func([]any) string {
		return "event: complete\ndata: [{\"label\": \"cat\"}]\n\n"
	})
	defer server.Close()

	client, err := New(WithHTTPClient(server.Client())).Connect(context.Background(), server.URL)
	if err != nil {
		testCase.Fatalf("unexpected connect error: %v", err)
	}

	result, err := client.Predict(context.Background(), "", nil)
	if err != nil {
		testCase.Fatalf("unexpected predict error: %v", err)
	}
	if !reflect.DeepEqual(result, map[string]any{"label": "cat"}) {
		testCase.Errorf("unexpected result %v", result)
	}
}

func TestPredict_ErrorEvent(testCase *testing.T) {
	server, _ := newGradioServer(testCase, func([]any) string {
		return "event: error\ndata: \"GPU quota exceeded\"\n\n"
	})
	defer server.Close()

	client, _ := New(WithHTTPClient(server.Client())).Connect(context.Background(), server.URL)

	_, err := client.Predict(context.Background(), "/predict", nil)
	if !errors.Is(err, ErrPredictionFailed) {
		testCase.Errorf("expected ErrPredictionFailed, got %v", err)
	}
}

func TestPredict_StreamWithoutResult(testCase *testing.T) {
	server, _ := newGradioServer(testCase, func([]any) string {
		return "event: heartbeat\ndata: null\n\n"
	})
	defer server.Close()

	client, _ := New(WithHTTPClient(server.Client())).Connect(context.Background(), server.URL)

	_, err := client.Predict(context.Background(), "/predict", nil)
	if !errors.Is(err, ErrIncompleteStream) {
		testCase.Errorf("expected ErrIncompleteStream, got %v", err)
	}
}

func TestPredict_UnknownAPI(testCase *testing.T) {
	server, _ := newGradioServer(testCase, func([]any) string { return "" })
	defer server.Close()

	client, _ := New(WithHTTPClient(server.Client())).Connect(context.Background(), server.URL)

	_, err := client.Predict(context.Background(), "/missing", nil)
	if !errors.Is(err, ErrUnknownAPI) {
		testCase.Errorf("expected ErrUnknownAPI, got %v", err)
	}
}

func TestConnect_AppliesMiddleware(testCase *testing.T) {
	server, _ := newGradioServer(testCase, func([]any) string {
		return "event: complete\ndata: [1]\n\n"
	})
	defer server.Close()

	var seen endpoint.PredictRequest
	spy := func(next endpoint.PredictFunc) endpoint.PredictFunc {
		return func(ctx context.Context, request endpoint.PredictRequest) (any, error) {
			seen = request
			return next(ctx, request)
		}
	}

	client, err := New(WithHTTPClient(server.Client()), WithMiddleware(spy)).Connect(context.Background(), server.URL)
	if err != nil {
		testCase.Fatalf("unexpected connect error: %v", err)
	}

	if _, err := client.Predict(context.Background(), "/predict", map[string]any{"text": "x"}); err != nil {
		testCase.Fatalf("unexpected predict error: %v", err)
	}
	if seen.Source != server.URL || seen.APIName != "/predict" || seen.Inputs["text"] != "x" {
		testCase.Errorf("middleware saw unexpected request %+v", seen)
	}
}
