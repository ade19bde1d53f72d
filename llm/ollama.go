package llm

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/alexschlessinger/saintsal/messages"
	ollamaapi "github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

// DefaultOllamaURL is where a local ollama listens
const DefaultOllamaURL = "http://localhost:11434"

var _ LLM = (*OllamaClient)(nil)

type OllamaClient struct {
	client *ollamaapi.Client
}

// authTransport adds Bearer token authentication to HTTP requests
type authTransport struct {
	Token string
	Base  http.RoundTripper
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+t.Token)
	return t.Base.RoundTrip(req)
}

func NewOllamaClient(baseURL string, apiKey string) *OllamaClient {
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		zap.S().Debugw("ollama_invalid_url", "url", baseURL, "error", err)
		u, _ = url.Parse(DefaultOllamaURL)
	}

	httpClient := http.DefaultClient
	if apiKey != "" {
		httpClient = &http.Client{
			Transport: &authTransport{
				Token: apiKey,
				Base:  http.DefaultTransport,
			},
		}
	}

	return &OllamaClient{
		client: ollamaapi.NewClient(u, httpClient),
	}
}

// ChatCompletion implements LLM
func (o *OllamaClient) ChatCompletion(ctx context.Context, req *CompletionRequest) (*messages.ChatMessage, error) {
	timeout, cancel := withTimeout(ctx, req)
	defer cancel()

	stream := false
	chatReq := &ollamaapi.ChatRequest{
		Model:    req.Model,
		Messages: MessagesToOllama(req.Messages),
		Stream:   &stream,
		Options: map[string]any{
			"temperature": req.Temperature,
			"num_predict": req.MaxTokens,
		},
	}

	zap.S().Debugw("ollama_completion_started", "model", req.Model)

	var final ollamaapi.ChatResponse
	var content string
	err := o.client.Chat(timeout, chatReq, func(resp ollamaapi.ChatResponse) error {
		content += resp.Message.Content
		if resp.Done {
			final = resp
		}
		return nil
	})
	if err != nil {
		zap.S().Debugw("ollama_completion_failed", "error", err)
		return nil, wrapStatus("ollama", ollamaStatus(err), err)
	}

	msg := messages.ChatMessage{
		Role:       messages.MessageRoleAssistant,
		Content:    content,
		StopReason: messages.StopReasonEndTurn,
	}
	if final.DoneReason == "length" {
		msg.StopReason = messages.StopReasonMaxTokens
	}
	msg.SetTokenUsage(final.PromptEvalCount, final.EvalCount)
	if final.Model != "" {
		msg.SetModel(final.Model)
	}

	zap.S().Debugw("ollama_completion_finished", "content_length", len(content))
	return &msg, nil
}

func ollamaStatus(err error) int {
	var statusErr ollamaapi.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	var statusErrPtr *ollamaapi.StatusError
	if errors.As(err, &statusErrPtr) {
		return statusErrPtr.StatusCode
	}
	return 0
}

// MessagesToOllama converts agnostic messages to Ollama format
func MessagesToOllama(msgs []messages.ChatMessage) []ollamaapi.Message {
	out := make([]ollamaapi.Message, len(msgs))
	for i, msg := range msgs {
		out[i] = ollamaapi.Message{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}
	return out
}
