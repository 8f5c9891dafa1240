package openaicompat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

type fakeChatClient struct {
	request  openai.ChatCompletionRequest
	response openai.ChatCompletionResponse
	err      error
}

func (fake *fakeChatClient) CreateChatCompletion(_ context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	fake.request = request
	return fake.response, fake.err
}

func TestGenerate_BuildsRequest(testCase *testing.T) {
	fake := &fakeChatClient{response: openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: "bonjour"}}},
	}}

	generator := New(WithChatClient(fake), WithSystemPrompt("translate"), WithMaxTokens(64))

	text, err := generator.Generate(context.Background(), "meta-llama/Llama-3.1-8B-Instruct", "hello")
	if err != nil {
		testCase.Fatalf("unexpected error: %v", err)
	}
	if text != "bonjour" {
		testCase.Errorf("expected bonjour, got %q", text)
	}

	if fake.request.Model != "meta-llama/Llama-3.1-8B-Instruct" || fake.request.MaxTokens != 64 {
		testCase.Errorf("unexpected request %+v", fake.request)
	}
	if len(fake.request.Messages) != 2 || fake.request.Messages[0].Role != openai.ChatMessageRoleSystem || fake.request.Messages[1].Content != "hello" {
		testCase.Errorf("unexpected messages %+v", fake.request.Messages)
	}
}

func TestGenerate_NoChoices(testCase *testing.T) {
	generator := New(WithChatClient(&fakeChatClient{}))

	if _, err := generator.Generate(context.Background(), "m", "p"); !errors.Is(err, ErrEmptyCompletion) {
		testCase.Errorf("expected ErrEmptyCompletion, got %v", err)
	}
}

func TestGenerate_ClientError(testCase *testing.T) {
	cause := errors.New("rate limited")
	generator := New(WithChatClient(&fakeChatClient{err: cause}))

	if _, err := generator.Generate(context.Background(), "m", "p"); !errors.Is(err, cause) {
		testCase.Errorf("expected wrapped cause, got %v", err)
	}
}

func TestGenerate_AgainstHTTPServer(testCase *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/v1/chat/completions" {
			testCase.Errorf("unexpected path %s", request.URL.Path)
		}
		if request.Header.Get("Authorization") != "Bearer test-token" {
			testCase.Errorf("unexpected authorization %q", request.Header.Get("Authorization"))
		}

		var body openai.ChatCompletionRequest
		if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
			testCase.Errorf("invalid request body: %v", err)
		}

		writer.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(writer, `{"id":"1","object":"chat.completion","model":%q,"choices":[{"index":0,"message":{"role":"assistant","content":"echo: %s"},"finish_reason":"stop"}]}`,
			body.Model, body.Messages[len(body.Messages)-1].Content)
	}))
	defer server.Close()

	generator := New(WithBaseURL(server.URL+"/v1"), WithToken("test-token"), WithHTTPClient(server.Client()))

	text, err := generator.Generate(context.Background(), "gpt2", "ping")
	if err != nil {
		testCase.Fatalf("unexpected error: %v", err)
	}
	if text != "echo: ping" {
		testCase.Errorf("expected echo, got %q", text)
	}
}
