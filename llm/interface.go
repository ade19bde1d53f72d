package llm

import (
	"context"
	"time"

	"github.com/alexschlessinger/saintsal/messages"
)

// LLM interface defines the contract for language model implementations
type LLM interface {
	// ChatCompletion sends the request and returns the assistant reply. A
	// provider that answers with no text returns a message with empty Content,
	// not an error.
	ChatCompletion(context.Context, *CompletionRequest) (*messages.ChatMessage, error)
}

// CompletionRequest contains all parameters for a completion request
type CompletionRequest struct {
	APIKey      string
	BaseURL     string
	Timeout     time.Duration
	Temperature float32
	Model       string
	MaxTokens   int
	Messages    []messages.ChatMessage // System prompt first, then history
}

// withTimeout bounds ctx by the request timeout when one is set
func withTimeout(ctx context.Context, req *CompletionRequest) (context.Context, context.CancelFunc) {
	if req.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, req.Timeout)
}

// splitSystem separates the system prompt from the conversation. Providers
// that take the system prompt as a separate field use this; multiple system
// messages are joined with a blank line.
func splitSystem(msgs []messages.ChatMessage) (string, []messages.ChatMessage) {
	var system string
	rest := make([]messages.ChatMessage, 0, len(msgs))
	for _, msg := range msgs {
		if msg.Role == messages.MessageRoleSystem {
			if system != "" {
				system += "\n\n"
			}
			system += msg.Content
			continue
		}
		rest = append(rest, msg)
	}
	return system, rest
}
