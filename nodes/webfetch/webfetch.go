package webfetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/leofalp/daggo/core/graph"
	"github.com/leofalp/daggo/internal/utils"
)

const (
	// DefaultTimeout bounds a whole fetch.
	DefaultTimeout = 30 * time.Second
	// DefaultUserAgent is sent unless WithUserAgent overrides it.
	DefaultUserAgent = "daggo-webfetch/1.0"
	// MaxBodySize caps the downloaded HTML (10MB).
	MaxBodySize = 10 * 1024 * 1024
	// MaxRedirects is the number of redirects followed.
	MaxRedirects = 10

	dialTimeout           = 10 * time.Second
	tlsHandshakeTimeout   = 10 * time.Second
	responseHeaderTimeout = 10 * time.Second
	idleConnTimeout       = 90 * time.Second
)

// Output ports of the node built by NewNode.
const (
	PortMarkdown = "markdown"
	PortURL      = "url"
)

// ErrEmptyURL is returned when the url input is blank.
var ErrEmptyURL = errors.New("webfetch: url cannot be empty")

// Page is a fetched document.
type Page struct {
	// URL is the final address after redirects.
	URL      string `json:"url"`
	Markdown string `json:"markdown"`
}

// Fetcher downloads pages and converts them to Markdown.
type Fetcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(timeout time.Duration) Option {
	return func(fetcher *Fetcher) {
		fetcher.timeout = timeout
	}
}

// WithUserAgent overrides DefaultUserAgent.
func WithUserAgent(userAgent string) Option {
	return func(fetcher *Fetcher) {
		fetcher.userAgent = userAgent
	}
}

// WithHTTPClient replaces the HTTP client. The redirect policy of the given
// client is kept.
func WithHTTPClient(client *http.Client) Option {
	return func(fetcher *Fetcher) {
		fetcher.client = client
	}
}

// New creates a Fetcher with a transport that bounds dialing, the TLS
// handshake and the wait for response headers.
func New(opts ...Option) *Fetcher {
	fetcher := &Fetcher{
		timeout:   DefaultTimeout,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(fetcher)
	}

	if fetcher.client == nil {
		fetcher.client = &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   dialTimeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   tlsHandshakeTimeout,
				ResponseHeaderTimeout: responseHeaderTimeout,
				IdleConnTimeout:       idleConnTimeout,
				MaxIdleConns:          100,
				MaxIdleConnsPerHost:   10,
				ForceAttemptHTTP2:     true,
			},
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= MaxRedirects {
					return fmt.Errorf("too many redirects (>%d)", MaxRedirects)
				}
				return nil
			},
		}
	}

	return fetcher
}

// Fetch downloads rawURL and converts the page to Markdown. Addresses without
// a scheme get "https://".
func (fetcher *Fetcher) Fetch(ctx context.Context, rawURL string) (Page, error) {
	url := strings.TrimSpace(rawURL)
	if url == "" {
		return Page{}, ErrEmptyURL
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}

	if fetcher.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, fetcher.timeout)
		defer cancel()
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Page{}, fmt.Errorf("webfetch: create request: %w", err)
	}
	request.Header.Set("User-Agent", fetcher.userAgent)

	response, err := fetcher.client.Do(request)
	if err != nil {
		if ctx.Err() != nil {
			return Page{}, fmt.Errorf("webfetch: request timeout or canceled: %w", err)
		}
		return Page{}, fmt.Errorf("webfetch: fetch %s: %w", url, err)
	}
	defer utils.CloseWithLog(response.Body)

	if response.StatusCode != http.StatusOK {
		return Page{}, &utils.StatusError{StatusCode: response.StatusCode, Body: response.Status}
	}

	body, err := io.ReadAll(io.LimitReader(response.Body, MaxBodySize+1))
	if err != nil {
		return Page{}, fmt.Errorf("webfetch: read body: %w", err)
	}
	if len(body) > MaxBodySize {
		return Page{}, fmt.Errorf("webfetch: response body exceeds maximum size of %d bytes", MaxBodySize)
	}

	markdown, err := htmltomarkdown.ConvertString(string(body))
	if err != nil {
		return Page{}, fmt.Errorf("webfetch: convert HTML to Markdown: %w", err)
	}

	return Page{URL: response.Request.URL.String(), Markdown: markdown}, nil
}

// NewNode wraps fetcher in a function node with input "url" and outputs
// "markdown" and "url". The default name is "webfetch".
//
// Example:
//
//	page := webfetch.NewNode(webfetch.New(), graph.WithInputFrom("url", form))
//	summary := graph.NewInferenceNode(model, graph.WithInputFrom("input", graph.MustOutput(page, webfetch.PortMarkdown)))
func NewNode(fetcher *Fetcher, opts ...graph.NodeOption) *graph.FnNode {
	if fetcher == nil {
		fetcher = New()
	}

	fetch := func(ctx context.Context, url string) (string, string, error) {
		page, err := fetcher.Fetch(ctx, url)
		if err != nil {
			return "", "", err
		}
		return page.Markdown, page.URL, nil
	}

	nodeOpts := append([]graph.NodeOption{graph.WithName("webfetch"), graph.WithOutputs(PortMarkdown, PortURL)}, opts...)
	return graph.MustFnNode(fetch, []string{"url"}, nodeOpts...)
}
