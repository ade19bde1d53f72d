package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexschlessinger/saintsal/messages"
)

func testRequest(model string) *CompletionRequest {
	return &CompletionRequest{
		Model:       model,
		Temperature: 0.7,
		MaxTokens:   1500,
		Timeout:     5 * time.Second,
		Messages: []messages.ChatMessage{
			messages.System("you are helpful"),
			messages.User("hello", time.Now()),
		},
	}
}

func TestOpenAIChatCompletion(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("Authorization = %q", auth)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "gpt-4o-2024",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "Hi there"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 3, "total_tokens": 15}
		}`))
	}))
	defer srv.Close()

	client := NewOpenAIClient("sk-test", srv.URL)
	msg, err := client.ChatCompletion(context.Background(), testRequest("gpt-4o"))
	if err != nil {
		t.Fatalf("ChatCompletion() error = %v", err)
	}

	if msg.Content != "Hi there" {
		t.Errorf("Content = %q", msg.Content)
	}
	if msg.Role != messages.MessageRoleAssistant {
		t.Errorf("Role = %q", msg.Role)
	}
	if msg.GetInputTokens() != 12 || msg.GetOutputTokens() != 3 {
		t.Errorf("tokens = %d/%d", msg.GetInputTokens(), msg.GetOutputTokens())
	}
	if msg.GetModel() != "gpt-4o-2024" {
		t.Errorf("model = %q", msg.GetModel())
	}
	if msg.StopReason != messages.StopReasonEndTurn {
		t.Errorf("StopReason = %q", msg.StopReason)
	}

	if got["model"] != "gpt-4o" {
		t.Errorf("request model = %v", got["model"])
	}
	if got["max_tokens"] != float64(1500) {
		t.Errorf("request max_tokens = %v", got["max_tokens"])
	}
	msgs, _ := got["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("request messages = %v", got["messages"])
	}
	if first, _ := msgs[0].(map[string]any); first["role"] != "system" {
		t.Errorf("first message should be the system prompt, got %v", first)
	}
}

func TestOpenAIStatusErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		retryable bool
	}{
		{"rate limited", http.StatusTooManyRequests, true},
		{"server error", http.StatusBadGateway, true},
		{"bad request", http.StatusBadRequest, false},
		{"unauthorized", http.StatusUnauthorized, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"error": {"message": "nope", "type": "test"}}`))
			}))
			defer srv.Close()

			_, err := NewOpenAIClient("sk-test", srv.URL).ChatCompletion(context.Background(), testRequest("gpt-4o"))
			if err == nil {
				t.Fatalf("expected error")
			}
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error %v is not an APIError", err)
			}
			if apiErr.StatusCode != tt.status || apiErr.Provider != "openai" {
				t.Errorf("APIError = %+v", apiErr)
			}
			if IsRetryable(err) != tt.retryable {
				t.Errorf("IsRetryable() = %v, want %v", IsRetryable(err), tt.retryable)
			}
		})
	}
}

func TestOllamaChatCompletion(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"model":"llama3","message":{"role":"assistant","content":"<think>hmm</think>Hello"},"done":true,"done_reason":"stop","prompt_eval_count":7,"eval_count":2}` + "\n"))
	}))
	defer srv.Close()

	msg, err := NewOllamaClient(srv.URL, "").ChatCompletion(context.Background(), testRequest("llama3"))
	if err != nil {
		t.Fatalf("ChatCompletion() error = %v", err)
	}
	if msg.Content != "<think>hmm</think>Hello" {
		t.Errorf("Content = %q", msg.Content)
	}
	if StripThinkBlocks(msg.Content) != "Hello" {
		t.Errorf("StripThinkBlocks() = %q", StripThinkBlocks(msg.Content))
	}
	if msg.GetInputTokens() != 7 || msg.GetOutputTokens() != 2 {
		t.Errorf("tokens = %d/%d", msg.GetInputTokens(), msg.GetOutputTokens())
	}
	if got["stream"] != false {
		t.Errorf("request stream = %v, want false", got["stream"])
	}
}

func TestOllamaStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("{}\n"))
	}))
	defer srv.Close()

	_, err := NewOllamaClient(srv.URL, "").ChatCompletion(context.Background(), testRequest("llama3"))
	if !IsRetryable(err) {
		t.Errorf("503 from ollama should be retryable, got %v", err)
	}
}

func TestMultiPassRouting(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": "routed"}, "finish_reason": "stop"}]}`))
	}))
	defer srv.Close()

	mp := NewMultiPass(map[string]string{"openai": "sk-test"}, map[string]string{"openai": srv.URL})
	req := testRequest("openai/gpt-4o")

	msg, err := mp.ChatCompletion(context.Background(), req)
	if err != nil {
		t.Fatalf("ChatCompletion() error = %v", err)
	}
	if msg.Content != "routed" {
		t.Errorf("Content = %q", msg.Content)
	}
	if req.Model != "openai/gpt-4o" || req.APIKey != "" {
		t.Errorf("caller request was modified: %+v", req)
	}
}

func TestMultiPassErrors(t *testing.T) {
	mp := NewMultiPass(nil, nil)

	tests := []struct {
		model string
		want  error
	}{
		{"gpt-4o", ErrInvalidModel},
		{"openai/", ErrInvalidModel},
		{"/gpt-4o", ErrInvalidModel},
		{"openai/gpt-4o", ErrMissingAPIKey},
		{"azure/gpt-4o", ErrMissingAPIKey},
		{"anthropic/claude-sonnet-4-20250514", ErrMissingAPIKey},
		{"mistral/large", ErrUnknownProvider},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			_, err := mp.ChatCompletion(context.Background(), testRequest(tt.model))
			if !errors.Is(err, tt.want) {
				t.Errorf("ChatCompletion(%q) error = %v, want %v", tt.model, err, tt.want)
			}
		})
	}

	keyed := NewMultiPass(map[string]string{"azure": "k"}, nil)
	if _, err := keyed.ChatCompletion(context.Background(), testRequest("azure/gpt-4o")); !errors.Is(err, ErrMissingBaseURL) {
		t.Errorf("azure without endpoint error = %v", err)
	}
}

func TestSplitModel(t *testing.T) {
	provider, model, err := SplitModel("OpenAI/gpt-4o/latest")
	if err != nil {
		t.Fatalf("SplitModel() error = %v", err)
	}
	if provider != "openai" || model != "gpt-4o/latest" {
		t.Errorf("SplitModel() = %q, %q", provider, model)
	}
}

func TestAPIErrorRetryable(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{429, true},
		{500, true},
		{503, true},
		{400, false},
		{404, false},
	}
	for _, tt := range tests {
		err := &APIError{Provider: "x", StatusCode: tt.status, Err: errors.New("boom")}
		if err.Retryable() != tt.want {
			t.Errorf("Retryable(%d) = %v, want %v", tt.status, err.Retryable(), tt.want)
		}
	}
	if IsRetryable(errors.New("plain")) {
		t.Errorf("plain errors are not retryable")
	}
	if IsRetryable(nil) {
		t.Errorf("nil is not retryable")
	}
}

func TestStripThinkBlocks(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no block", "plain answer", "plain answer"},
		{"leading block", "<think>reasoning</think>\n\nAnswer", "Answer"},
		{"middle block", "Before <think>x</think> after", "Before  after"},
		{"nested", "<think>a<think>b</think>c</think>Done", "Done"},
		{"unclosed", "Start<think>never ends", "Start"},
		{"only thinking", "<think>all</think>", ""},
		{"two blocks", "<think>a</think>one <think>b</think>two", "one two"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripThinkBlocks(tt.in); got != tt.want {
				t.Errorf("StripThinkBlocks(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMockClient(t *testing.T) {
	boom := errors.New("boom")
	mock := NewMockClient(
		MockResponse{Content: "first", InputTokens: 1, OutputTokens: 2},
		MockResponse{Error: boom},
		MockResponse{Content: "last"},
	)
	ctx := context.Background()

	msg, err := mock.ChatCompletion(ctx, testRequest("m"))
	if err != nil || msg.Content != "first" || msg.GetOutputTokens() != 2 {
		t.Errorf("first call = %+v, %v", msg, err)
	}
	if _, err := mock.ChatCompletion(ctx, testRequest("m")); !errors.Is(err, boom) {
		t.Errorf("second call error = %v", err)
	}
	for range 2 {
		if msg, _ := mock.ChatCompletion(ctx, testRequest("m")); msg.Content != "last" {
			t.Errorf("exhausted script should repeat the last response, got %q", msg.Content)
		}
	}
	if n := len(mock.Calls()); n != 4 {
		t.Errorf("Calls() = %d", n)
	}

	mock.Reset()
	if len(mock.Calls()) != 0 {
		t.Errorf("Reset() kept calls")
	}
	if msg, _ := mock.ChatCompletion(ctx, testRequest("m")); msg.Content != "first" {
		t.Errorf("Reset() should rewind the script")
	}
}
