package llm

import (
	"context"
	"errors"

	"github.com/alexschlessinger/saintsal/messages"
	ai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// DefaultAzureAPIVersion is the Azure OpenAI REST API version used when none is configured
const DefaultAzureAPIVersion = "2024-02-15-preview"

var _ LLM = (*OpenAIClient)(nil)

type OpenAIClient struct {
	ClientConfig ai.ClientConfig
	Client       *ai.Client
	provider     string
}

func NewOpenAIClient(apiKey string, baseURL string) *OpenAIClient {
	cfg := ai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIClient{
		ClientConfig: cfg,
		Client:       ai.NewClientWithConfig(cfg),
		provider:     "openai",
	}
}

// NewAzureOpenAIClient creates a client for an Azure OpenAI resource. The
// model name of each request is used as the deployment name.
func NewAzureOpenAIClient(apiKey, endpoint, apiVersion string) *OpenAIClient {
	cfg := ai.DefaultAzureConfig(apiKey, endpoint)
	if apiVersion == "" {
		apiVersion = DefaultAzureAPIVersion
	}
	cfg.APIVersion = apiVersion
	return &OpenAIClient{
		ClientConfig: cfg,
		Client:       ai.NewClientWithConfig(cfg),
		provider:     "azure",
	}
}

// ChatCompletion implements LLM
func (o *OpenAIClient) ChatCompletion(ctx context.Context, req *CompletionRequest) (*messages.ChatMessage, error) {
	timeout, cancel := withTimeout(ctx, req)
	defer cancel()
	zap.S().Debugw("openai_completion_started", "provider", o.provider, "model", req.Model)

	ccr := ai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    MessagesToOpenAI(req.Messages),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}

	resp, err := o.Client.CreateChatCompletion(timeout, ccr)
	if err != nil {
		zap.S().Debugw("openai_completion_failed", "provider", o.provider, "error", err)
		return nil, wrapStatus(o.provider, openAIStatus(err), err)
	}

	msg := messages.ChatMessage{Role: messages.MessageRoleAssistant}
	if len(resp.Choices) > 0 {
		choice := resp.Choices[0]
		msg.Content = choice.Message.Content
		msg.StopReason = mapOpenAIFinishReason(choice.FinishReason)
	}
	msg.SetTokenUsage(resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	if resp.Model != "" {
		msg.SetModel(resp.Model)
	}

	zap.S().Debugw("openai_completion_finished",
		"provider", o.provider,
		"content_length", len(msg.Content),
		"input_tokens", resp.Usage.PromptTokens,
		"output_tokens", resp.Usage.CompletionTokens,
	)
	return &msg, nil
}

// openAIStatus extracts the HTTP status from a go-openai error, or 0
func openAIStatus(err error) int {
	var apiErr *ai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *ai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

// mapOpenAIFinishReason converts OpenAI's finish reason to our normalized type
func mapOpenAIFinishReason(fr ai.FinishReason) messages.StopReason {
	switch fr {
	case ai.FinishReasonLength:
		return messages.StopReasonMaxTokens
	case ai.FinishReasonContentFilter:
		return messages.StopReasonContentFilter
	default:
		return messages.StopReasonEndTurn
	}
}

// MessagesToOpenAI converts a slice of agnostic messages to OpenAI format
func MessagesToOpenAI(msgs []messages.ChatMessage) []ai.ChatCompletionMessage {
	result := make([]ai.ChatCompletionMessage, len(msgs))
	for i, msg := range msgs {
		result[i] = ai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}
	return result
}
