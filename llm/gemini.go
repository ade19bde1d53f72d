package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexschlessinger/saintsal/messages"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

var _ LLM = (*GeminiClient)(nil)

type GeminiClient struct {
	apiKey  string
	baseURL string
}

func NewGeminiClient(apiKey string, baseURL string) *GeminiClient {
	if apiKey == "" {
		zap.S().Debugw("gemini_missing_api_key")
	}
	return &GeminiClient{
		apiKey:  apiKey,
		baseURL: baseURL,
	}
}

// ChatCompletion implements LLM
func (g *GeminiClient) ChatCompletion(ctx context.Context, req *CompletionRequest) (*messages.ChatMessage, error) {
	timeout, cancel := withTimeout(ctx, req)
	defer cancel()

	cfg := &genai.ClientConfig{
		APIKey:  g.apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if g.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: g.baseURL}
	}
	client, err := genai.NewClient(timeout, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to create client: %w", err)
	}

	systemPrompt, contents := MessagesToGeminiContent(req.Messages)
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(req.Temperature),
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if systemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	zap.S().Debugw("gemini_completion_started", "model", req.Model, "contents", len(contents))

	resp, err := client.Models.GenerateContent(timeout, req.Model, contents, config)
	if err != nil {
		zap.S().Debugw("gemini_completion_failed", "error", err)
		return nil, wrapStatus("gemini", geminiStatus(err), err)
	}

	msg := messages.ChatMessage{
		Role:       messages.MessageRoleAssistant,
		Content:    resp.Text(),
		StopReason: messages.StopReasonEndTurn,
	}
	if len(resp.Candidates) > 0 {
		msg.StopReason = mapGeminiFinishReason(resp.Candidates[0].FinishReason)
	}
	if resp.UsageMetadata != nil {
		msg.SetTokenUsage(int(resp.UsageMetadata.PromptTokenCount), int(resp.UsageMetadata.CandidatesTokenCount))
	}
	if resp.ModelVersion != "" {
		msg.SetModel(resp.ModelVersion)
	}

	zap.S().Debugw("gemini_completion_finished", "content_length", len(msg.Content))
	return &msg, nil
}

func geminiStatus(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return apiErrPtr.Code
	}
	return 0
}

// mapGeminiFinishReason converts Gemini's finish reason to our normalized type
func mapGeminiFinishReason(fr genai.FinishReason) messages.StopReason {
	switch fr {
	case genai.FinishReasonMaxTokens:
		return messages.StopReasonMaxTokens
	case genai.FinishReasonSafety, genai.FinishReasonRecitation,
		genai.FinishReasonBlocklist, genai.FinishReasonProhibitedContent,
		genai.FinishReasonSPII:
		return messages.StopReasonContentFilter
	case genai.FinishReasonMalformedFunctionCall:
		return messages.StopReasonError
	default:
		return messages.StopReasonEndTurn
	}
}

// MessagesToGeminiContent converts messages to Gemini contents, returning
// the system prompt separately. Assistant turns use the "model" role.
func MessagesToGeminiContent(msgs []messages.ChatMessage) (string, []*genai.Content) {
	systemPrompt, rest := splitSystem(msgs)

	contents := make([]*genai.Content, 0, len(rest))
	for _, msg := range rest {
		role := genai.Role(genai.RoleUser)
		if msg.Role == messages.MessageRoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, role))
	}
	return systemPrompt, contents
}
