// Package openaicompat implements [inference.TextGenerator] against any
// OpenAI-compatible chat completions API, including the Hugging Face router.
//
// Configuration falls back to the environment: DAGGO_INFERENCE_BASE_URL for
// the base URL and HF_TOKEN (then OPENAI_API_KEY) for the token.
package openaicompat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"github.com/leofalp/daggo/providers/inference"
	"github.com/leofalp/daggo/providers/observability"
)

const (
	// DefaultBaseURL is the Hugging Face OpenAI-compatible router.
	DefaultBaseURL = "https://router.huggingface.co/v1"

	envBaseURL     = "DAGGO_INFERENCE_BASE_URL"
	envToken       = "HF_TOKEN"
	envOpenAIToken = "OPENAI_API_KEY"
)

// ErrEmptyCompletion is returned when the API answers without any choice.
var ErrEmptyCompletion = errors.New("openaicompat: completion has no choices")

// ChatClient is the subset of the go-openai client used here. Tests replace it
// with a fake.
type ChatClient interface {
	CreateChatCompletion(context.Context, openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Generator sends each prompt as a single user message.
type Generator struct {
	client       ChatClient
	systemPrompt string
	maxTokens    int
	temperature  float32
}

var _ inference.TextGenerator = (*Generator)(nil)

type config struct {
	baseURL      string
	token        string
	httpClient   *http.Client
	client       ChatClient
	systemPrompt string
	maxTokens    int
	temperature  float32
}

// Option configures a Generator.
type Option func(*config)

// WithBaseURL overrides the API base URL.
func WithBaseURL(baseURL string) Option {
	return func(cfg *config) {
		cfg.baseURL = baseURL
	}
}

// WithToken overrides the bearer token.
func WithToken(token string) Option {
	return func(cfg *config) {
		cfg.token = token
	}
}

// WithHTTPClient sets the HTTP client used by the underlying go-openai client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(cfg *config) {
		cfg.httpClient = httpClient
	}
}

// WithChatClient replaces the go-openai client entirely.
func WithChatClient(client ChatClient) Option {
	return func(cfg *config) {
		cfg.client = client
	}
}

// WithSystemPrompt prepends a system message to every request.
func WithSystemPrompt(prompt string) Option {
	return func(cfg *config) {
		cfg.systemPrompt = prompt
	}
}

// WithMaxTokens caps the completion length. Zero leaves it to the server.
func WithMaxTokens(maxTokens int) Option {
	return func(cfg *config) {
		cfg.maxTokens = maxTokens
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(temperature float32) Option {
	return func(cfg *config) {
		cfg.temperature = temperature
	}
}

// New creates a Generator.
func New(opts ...Option) *Generator {
	cfg := &config{
		baseURL: os.Getenv(envBaseURL),
		token:   os.Getenv(envToken),
	}
	if cfg.baseURL == "" {
		cfg.baseURL = DefaultBaseURL
	}
	if cfg.token == "" {
		cfg.token = os.Getenv(envOpenAIToken)
	}

	for _, opt := range opts {
		opt(cfg)
	}

	client := cfg.client
	if client == nil {
		clientConfig := openai.DefaultConfig(cfg.token)
		clientConfig.BaseURL = cfg.baseURL
		if cfg.httpClient != nil {
			clientConfig.HTTPClient = cfg.httpClient
		}
		client = openai.NewClientWithConfig(clientConfig)
	}

	return &Generator{
		client:       client,
		systemPrompt: cfg.systemPrompt,
		maxTokens:    cfg.maxTokens,
		temperature:  cfg.temperature,
	}
}

// Generate returns the content of the first choice.
func (generator *Generator) Generate(ctx context.Context, model string, prompt string) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if generator.systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: generator.systemPrompt})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})

	if span := observability.SpanFromContext(ctx); span != nil {
		span.AddEvent("inference.request",
			observability.String(observability.AttrInferenceModel, model),
			observability.Int(observability.AttrInferencePromptLength, len(prompt)),
		)
	}

	response, err := generator.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   generator.maxTokens,
		Temperature: generator.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("openaicompat: chat completion for %s: %w", model, err)
	}

	if len(response.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	return response.Choices[0].Message.Content, nil
}
