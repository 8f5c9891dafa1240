package webfetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/leofalp/daggo/core/graph"
	"github.com/leofalp/daggo/internal/utils"
)

const testPage = `<!DOCTYPE html>
<html>
<head><title>Test Page</title></head>
<body>
	<h1>Welcome</h1>
	<p>This is a <strong>test</strong> paragraph.</p>
	<ul>
		<li>Item 1</li>
		<li>Item 2</li>
	</ul>
</body>
</html>`

func newPageServer(testCase *testing.T) *httptest.Server {
	testCase.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, testPage)
	}))
	testCase.Cleanup(server.Close)
	return server
}

func TestFetch_ConvertsHTML(testCase *testing.T) {
	server := newPageServer(testCase)

	page, err := New().Fetch(context.Background(), server.URL)
	if err != nil {
		testCase.Fatalf("Fetch failed: %v", err)
	}

	if page.URL != server.URL {
		testCase.Errorf("expected URL %s, got %s", server.URL, page.URL)
	}
	for _, want := range []string{"# Welcome", "**test**", "Item 1"} {
		if !strings.Contains(page.Markdown, want) {
			testCase.Errorf("markdown missing %q:\n%s", want, page.Markdown)
		}
	}
}

func TestFetch_FollowsRedirects(testCase *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<p>moved here</p>")
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	page, err := New().Fetch(context.Background(), server.URL+"/old")
	if err != nil {
		testCase.Fatalf("Fetch failed: %v", err)
	}

	if page.URL != server.URL+"/new" {
		testCase.Errorf("expected final URL %s/new, got %s", server.URL, page.URL)
	}
	if !strings.Contains(page.Markdown, "moved here") {
		testCase.Errorf("unexpected markdown %q", page.Markdown)
	}
}

func TestFetch_TooManyRedirects(testCase *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/loop", http.StatusFound)
	}))
	defer server.Close()

	_, err := New().Fetch(context.Background(), server.URL)
	if err == nil || !strings.Contains(err.Error(), "too many redirects") {
		testCase.Fatalf("expected redirect limit error, got %v", err)
	}
}

func TestFetch_NonOKStatus(testCase *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	_, err := New().Fetch(context.Background(), server.URL)

	var statusErr *utils.StatusError
	if !errors.As(err, &statusErr) {
		testCase.Fatalf("expected *utils.StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusNotFound {
		testCase.Errorf("expected 404, got %d", statusErr.StatusCode)
	}
}

func TestFetch_EmptyURL(testCase *testing.T) {
	for _, url := range []string{"", "   "} {
		if _, err := New().Fetch(context.Background(), url); !errors.Is(err, ErrEmptyURL) {
			testCase.Errorf("Fetch(%q): expected ErrEmptyURL, got %v", url, err)
		}
	}
}

func TestFetch_BodyTooLarge(testCase *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chunk := strings.Repeat("a", 1024*1024)
		for range MaxBodySize/len(chunk) + 1 {
			fmt.Fprint(w, chunk)
		}
	}))
	defer server.Close()

	_, err := New().Fetch(context.Background(), server.URL)
	if err == nil || !strings.Contains(err.Error(), "exceeds maximum size") {
		testCase.Fatalf("expected size error, got %v", err)
	}
}

func TestFetch_Timeout(testCase *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	start := time.Now()
	_, err := New(WithTimeout(50*time.Millisecond)).Fetch(context.Background(), server.URL)
	if err == nil || !strings.Contains(err.Error(), "timeout or canceled") {
		testCase.Fatalf("expected timeout error, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		testCase.Errorf("timeout not honored, took %v", elapsed)
	}
}

func TestFetch_SendsUserAgent(testCase *testing.T) {
	agents := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agents <- r.UserAgent()
		fmt.Fprint(w, "<p>ok</p>")
	}))
	defer server.Close()

	if _, err := New(WithUserAgent("tester/2.0")).Fetch(context.Background(), server.URL); err != nil {
		testCase.Fatalf("Fetch failed: %v", err)
	}
	if agent := <-agents; agent != "tester/2.0" {
		testCase.Errorf("expected user agent tester/2.0, got %q", agent)
	}
}

func TestNewNode_Ports(testCase *testing.T) {
	node := NewNode(nil)

	if node.Name() != "webfetch" {
		testCase.Errorf("expected default name webfetch, got %q", node.Name())
	}
	if got := node.InputPorts(); len(got) != 1 || got[0] != "url" {
		testCase.Errorf("unexpected inputs %v", got)
	}
	if got := node.OutputPorts(); len(got) != 2 || got[0] != PortMarkdown || got[1] != PortURL {
		testCase.Errorf("unexpected outputs %v", got)
	}

	renamed := NewNode(nil, graph.WithName("page"))
	if renamed.Name() != "page" {
		testCase.Errorf("expected name override, got %q", renamed.Name())
	}
}

func TestNewNode_FeedsDownstream(testCase *testing.T) {
	server := newPageServer(testCase)

	fetch := NewNode(New())
	wordCount := graph.MustFnNode(func(text string) int {
		return len(strings.Fields(text))
	}, []string{"text"}, graph.WithName("words"), graph.WithInputFrom("text", graph.MustOutput(fetch, PortMarkdown)))

	g, err := graph.New("pages")
	if err != nil {
		testCase.Fatalf("New: %v", err)
	}
	if err := g.Add(fetch, wordCount); err != nil {
		testCase.Fatalf("Add: %v", err)
	}

	executor := graph.NewExecutor(g)
	results, err := executor.ExecuteAll(context.Background(), map[string]any{
		"webfetch": map[string]any{"url": server.URL},
	})
	if err != nil {
		testCase.Fatalf("ExecuteAll: %v", err)
	}

	count, isInt := results["words"].(int)
	if !isInt || count == 0 {
		testCase.Errorf("expected a positive word count, got %#v", results["words"])
	}

	inputs, err := executor.PrepareInputs("words")
	if err != nil {
		testCase.Fatalf("PrepareInputs: %v", err)
	}
	if text, _ := inputs["text"].(string); !strings.Contains(text, "Welcome") {
		testCase.Errorf("expected markdown routed to words, got %q", text)
	}
}

func TestNewNode_FetchErrorFailsNode(testCase *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	fetch := NewNode(New())
	g, err := graph.New("pages")
	if err != nil {
		testCase.Fatalf("New: %v", err)
	}
	if err := g.Add(fetch); err != nil {
		testCase.Fatalf("Add: %v", err)
	}

	_, err = graph.NewExecutor(g).ExecuteNode(context.Background(), "webfetch", map[string]any{"url": server.URL})

	var executionErr *graph.ExecutionError
	if !errors.As(err, &executionErr) {
		testCase.Fatalf("expected *graph.ExecutionError, got %v", err)
	}
	var statusErr *utils.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusInternalServerError {
		testCase.Errorf("expected wrapped 500 status error, got %v", err)
	}
}
