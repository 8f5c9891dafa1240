package gradio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/leofalp/daggo/internal/utils"
	"github.com/leofalp/daggo/providers/endpoint"
	"github.com/leofalp/daggo/providers/observability"
)

const (
	envToken = "HF_TOKEN"

	// apiPrefix is where Gradio 5 mounts its API. Older apps serve it at the root.
	apiPrefix = "/gradio_api"
)

// Connector discovers and calls Gradio apps. It caches one app description
// per resolved root URL and is safe for concurrent use.
type Connector struct {
	httpClient  *http.Client
	token       string
	middlewares []endpoint.Middleware
	observer    observability.Provider

	mu   sync.Mutex
	apps map[string]*app
}

var _ endpoint.Connector = (*Connector)(nil)

// app is a discovered Gradio application.
type app struct {
	root        string
	prefix      string
	description *endpoint.Description
}

// Option configures a Connector.
type Option func(*Connector)

// WithHTTPClient sets the HTTP client used for every request.
func WithHTTPClient(client *http.Client) Option {
	return func(connector *Connector) {
		connector.httpClient = client
	}
}

// WithToken sets the bearer token. Defaults to the HF_TOKEN environment variable.
func WithToken(token string) Option {
	return func(connector *Connector) {
		connector.token = token
	}
}

// WithMiddleware appends middlewares applied to every client returned by Connect.
func WithMiddleware(middlewares ...endpoint.Middleware) Option {
	return func(connector *Connector) {
		connector.middlewares = append(connector.middlewares, middlewares...)
	}
}

// WithObserver enables spans and logs for discovery and prediction. When unset,
// the observer carried by the request context is used, if any.
func WithObserver(observer observability.Provider) Option {
	return func(connector *Connector) {
		connector.observer = observer
	}
}

// New creates a Connector.
func New(opts ...Option) *Connector {
	connector := &Connector{
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		token:      os.Getenv(envToken),
		apps:       make(map[string]*app),
	}

	for _, opt := range opts {
		opt(connector)
	}

	return connector
}

type infoResponse struct {
	NamedEndpoints json.RawMessage `json:"named_endpoints"`
}

// Describe returns the named endpoints of the app at src, in declaration
// order. Results are cached per root URL.
func (connector *Connector) Describe(ctx context.Context, src string) (*endpoint.Description, error) {
	discovered, err := connector.discover(ctx, src)
	if err != nil {
		return nil, err
	}
	return discovered.description, nil
}

// Connect returns a client for src, discovering the app first if needed.
func (connector *Connector) Connect(ctx context.Context, src string) (endpoint.Client, error) {
	discovered, err := connector.discover(ctx, src)
	if err != nil {
		return nil, err
	}

	client := &Client{
		connector: connector,
		app:       discovered,
		source:    src,
	}

	return endpoint.Chain(client, src, connector.middlewares...), nil
}

func (connector *Connector) provider(ctx context.Context) observability.Provider {
	if connector.observer != nil {
		return connector.observer
	}
	return observability.ObserverFromContext(ctx)
}

func (connector *Connector) discover(ctx context.Context, src string) (*app, error) {
	root, err := ResolveSource(src)
	if err != nil {
		return nil, err
	}

	connector.mu.Lock()
	cached, found := connector.apps[root]
	connector.mu.Unlock()
	if found {
		return cached, nil
	}

	observer := connector.provider(ctx)
	var span observability.Span
	if observer != nil {
		ctx, span = observer.StartSpan(ctx, observability.SpanEndpointDiscover,
			observability.String(observability.AttrEndpointSource, src),
		)
		defer span.End()
	}

	discovered, err := connector.fetchInfo(ctx, root)
	if err != nil {
		if span != nil {
			span.RecordError(err)
			span.SetStatus(observability.StatusError, "discovery failed")
		}
		return nil, fmt.Errorf("gradio: describe %s: %w", src, err)
	}
	discovered.description.Source = src

	if span != nil {
		span.SetAttributes(observability.Int("endpoint.count", len(discovered.description.Endpoints)))
		span.SetStatus(observability.StatusOK, "")
	}

	connector.mu.Lock()
	connector.apps[root] = discovered
	connector.mu.Unlock()

	return discovered, nil
}

// fetchInfo tries the prefixed layout first and falls back to the root
// layout on 404.
func (connector *Connector) fetchInfo(ctx context.Context, root string) (*app, error) {
	var lastErr error

	for _, prefix := range []string{apiPrefix, ""} {
		_, info, err := utils.DoJSON[infoResponse](ctx, connector.httpClient, http.MethodGet, root+prefix+"/info", connector.token, nil)
		if err != nil {
			var statusErr *utils.StatusError
			if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
				lastErr = err
				continue
			}
			return nil, err
		}

		endpoints, err := decodeNamedEndpoints(info.NamedEndpoints)
		if err != nil {
			return nil, err
		}

		return &app{
			root:        root,
			prefix:      prefix,
			description: &endpoint.Description{Endpoints: endpoints},
		}, nil
	}

	return nil, lastErr
}

// decodeNamedEndpoints walks the JSON object token by token so the
// declaration order of the endpoints survives.
func decodeNamedEndpoints(raw json.RawMessage) ([]endpoint.Signature, error) {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, nil
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))

	token, err := decoder.Token()
	if err != nil {
		return nil, fmt.Errorf("decoding named_endpoints: %w", err)
	}
	if delim, isDelim := token.(json.Delim); !isDelim || delim != '{' {
		return nil, fmt.Errorf("decoding named_endpoints: expected object, got %v", token)
	}

	signatures := make([]endpoint.Signature, 0)
	for decoder.More() {
		keyToken, err := decoder.Token()
		if err != nil {
			return nil, fmt.Errorf("decoding named_endpoints: %w", err)
		}

		apiName, isString := keyToken.(string)
		if !isString {
			return nil, fmt.Errorf("decoding named_endpoints: unexpected key %v", keyToken)
		}

		var signature endpoint.Signature
		if err := decoder.Decode(&signature); err != nil {
			return nil, fmt.Errorf("decoding endpoint %s: %w", apiName, err)
		}
		signature.APIName = apiName

		signatures = append(signatures, signature)
	}

	return signatures, nil
}
