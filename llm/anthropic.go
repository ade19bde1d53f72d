package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/alexschlessinger/saintsal/messages"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"
)

var _ LLM = (*AnthropicClient)(nil)

type AnthropicClient struct {
	client anthropic.Client
}

func NewAnthropicClient(apiKey string, baseURL string) *AnthropicClient {
	if apiKey == "" {
		zap.S().Debugw("anthropic_missing_api_key")
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &AnthropicClient{
		client: anthropic.NewClient(opts...),
	}
}

// buildRequestParams creates the Anthropic API request parameters
func (a *AnthropicClient) buildRequestParams(req *CompletionRequest) anthropic.MessageNewParams {
	anthropicMessages, systemPrompt := MessagesToAnthropicParams(req.Messages)

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(req.Model),
		MaxTokens:   int64(req.MaxTokens),
		Temperature: anthropic.Float(float64(req.Temperature)),
		Messages:    anthropicMessages,
	}

	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{
				Type: "text",
				Text: systemPrompt,
			},
		}
	}

	return params
}

// ChatCompletion implements LLM
func (a *AnthropicClient) ChatCompletion(ctx context.Context, req *CompletionRequest) (*messages.ChatMessage, error) {
	timeout, cancel := withTimeout(ctx, req)
	defer cancel()
	zap.S().Debugw("anthropic_completion_started", "model", req.Model)

	resp, err := a.client.Messages.New(timeout, a.buildRequestParams(req))
	if err != nil {
		zap.S().Debugw("anthropic_completion_failed", "error", err)
		status := 0
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			status = apiErr.StatusCode
		}
		return nil, wrapStatus("anthropic", status, err)
	}

	var content strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}

	msg := messages.ChatMessage{
		Role:       messages.MessageRoleAssistant,
		Content:    content.String(),
		StopReason: mapAnthropicStopReason(resp.StopReason),
	}
	msg.SetTokenUsage(int(resp.Usage.InputTokens), int(resp.Usage.OutputTokens))
	msg.SetModel(string(resp.Model))

	zap.S().Debugw("anthropic_completion_finished",
		"content_length", content.Len(),
		"stop_reason", resp.StopReason,
	)
	return &msg, nil
}

// mapAnthropicStopReason converts Anthropic's stop reason to our normalized type
func mapAnthropicStopReason(sr anthropic.StopReason) messages.StopReason {
	switch sr {
	case "max_tokens":
		return messages.StopReasonMaxTokens
	case "refusal":
		return messages.StopReasonContentFilter
	default:
		return messages.StopReasonEndTurn
	}
}

// MessagesToAnthropicParams converts messages to Anthropic format, returning
// the system prompt separately.
func MessagesToAnthropicParams(msgs []messages.ChatMessage) ([]anthropic.MessageParam, string) {
	systemPrompt, rest := splitSystem(msgs)

	anthropicMessages := make([]anthropic.MessageParam, 0, len(rest))
	for _, msg := range rest {
		switch msg.Role {
		case messages.MessageRoleAssistant:
			anthropicMessages = append(anthropicMessages, anthropic.NewAssistantMessage(
				anthropic.NewTextBlock(msg.Content),
			))
		default:
			anthropicMessages = append(anthropicMessages, anthropic.NewUserMessage(
				anthropic.NewTextBlock(msg.Content),
			))
		}
	}
	return anthropicMessages, systemPrompt
}
