package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexschlessinger/saintsal/messages"
)

// Providers lists the provider prefixes MultiPass can route to
var Providers = []string{"openai", "azure", "anthropic", "gemini", "ollama"}

// MultiPass routes requests to different LLM providers based on model prefix
type MultiPass struct {
	apiKeys  map[string]string
	baseURLs map[string]string

	// AzureAPIVersion overrides DefaultAzureAPIVersion
	AzureAPIVersion string
}

var _ LLM = (*MultiPass)(nil)

// EnvVarForProvider returns the environment variable name that carries the
// API key of the given provider
func EnvVarForProvider(provider string) string {
	switch provider {
	case "openai":
		return "OPENAI_API_KEY"
	case "azure":
		return "AZURE_OPENAI_API_KEY"
	default:
		return fmt.Sprintf("SAINTSAL_%sKEY", strings.ToUpper(provider))
	}
}

// NewMultiPass creates a new multi-provider router. baseURLs may be nil.
func NewMultiPass(apiKeys map[string]string, baseURLs map[string]string) *MultiPass {
	return &MultiPass{
		apiKeys:  apiKeys,
		baseURLs: baseURLs,
	}
}

// SplitModel parses "provider/model" into its parts
func SplitModel(model string) (provider, name string, err error) {
	parts := strings.SplitN(model, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: got %q", ErrInvalidModel, model)
	}
	return strings.ToLower(parts[0]), parts[1], nil
}

// ChatCompletion routes the request to the appropriate provider. The caller's
// request is not modified.
func (m *MultiPass) ChatCompletion(ctx context.Context, req *CompletionRequest) (*messages.ChatMessage, error) {
	llm, routed, err := m.route(req)
	if err != nil {
		return nil, err
	}
	return llm.ChatCompletion(ctx, routed)
}

func (m *MultiPass) route(req *CompletionRequest) (LLM, *CompletionRequest, error) {
	provider, model, err := SplitModel(req.Model)
	if err != nil {
		return nil, nil, err
	}

	routed := *req
	routed.Model = model

	// Populate or validate API key (ollama can be keyless)
	if routed.APIKey == "" {
		if key := m.apiKeys[provider]; key != "" {
			routed.APIKey = key
		} else if provider != "ollama" && isKnownProvider(provider) {
			return nil, nil, fmt.Errorf("%w for provider '%s': set the %s environment variable",
				ErrMissingAPIKey, provider, EnvVarForProvider(provider))
		}
	}
	if routed.BaseURL == "" {
		routed.BaseURL = m.baseURLs[provider]
	}

	switch provider {
	case "openai":
		return NewOpenAIClient(routed.APIKey, routed.BaseURL), &routed, nil
	case "azure":
		if routed.BaseURL == "" {
			return nil, nil, fmt.Errorf("%w for provider 'azure': configure the resource endpoint", ErrMissingBaseURL)
		}
		return NewAzureOpenAIClient(routed.APIKey, routed.BaseURL, m.AzureAPIVersion), &routed, nil
	case "anthropic":
		return NewAnthropicClient(routed.APIKey, routed.BaseURL), &routed, nil
	case "gemini":
		return NewGeminiClient(routed.APIKey, routed.BaseURL), &routed, nil
	case "ollama":
		return NewOllamaClient(routed.BaseURL, routed.APIKey), &routed, nil
	default:
		return nil, nil, fmt.Errorf("%w '%s': valid providers: %s",
			ErrUnknownProvider, provider, strings.Join(Providers, ", "))
	}
}

func isKnownProvider(provider string) bool {
	for _, p := range Providers {
		if p == provider {
			return true
		}
	}
	return false
}
