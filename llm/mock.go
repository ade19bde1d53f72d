package llm

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/alexschlessinger/saintsal/messages"
)

// MockResponse configures a single response from the mock client.
type MockResponse struct {
	Content      string
	StopReason   messages.StopReason
	InputTokens  int
	OutputTokens int
	Error        error
}

// MockClient is a scripted LLM for tests. Responses are returned in order;
// when exhausted, the last response repeats. Handler, when set, replaces the
// script entirely.
type MockClient struct {
	Handler func(ctx context.Context, req *CompletionRequest) (*messages.ChatMessage, error)

	mu        sync.Mutex
	responses []MockResponse
	callIndex int
	calls     []CompletionRequest
}

var _ LLM = (*MockClient)(nil)

// NewMockClient creates a mock client with a sequence of responses.
func NewMockClient(responses ...MockResponse) *MockClient {
	return &MockClient{responses: responses}
}

// ChatCompletion records the request and returns the next configured response.
func (m *MockClient) ChatCompletion(ctx context.Context, req *CompletionRequest) (*messages.ChatMessage, error) {
	m.mu.Lock()
	recorded := *req
	recorded.Messages = slices.Clone(req.Messages)
	m.calls = append(m.calls, recorded)
	handler := m.Handler
	m.mu.Unlock()

	if handler != nil {
		return handler(ctx, req)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.responses) == 0 {
		return nil, errors.New("mock: no responses configured")
	}

	idx := m.callIndex
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	} else {
		m.callIndex++
	}

	resp := m.responses[idx]
	if resp.Error != nil {
		return nil, resp.Error
	}

	stop := resp.StopReason
	if stop == "" {
		stop = messages.StopReasonEndTurn
	}
	msg := messages.ChatMessage{
		Role:       messages.MessageRoleAssistant,
		Content:    resp.Content,
		StopReason: stop,
	}
	msg.SetTokenUsage(resp.InputTokens, resp.OutputTokens)
	return &msg, nil
}

// Calls returns all requests made to the mock client.
func (m *MockClient) Calls() []CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}

// Reset clears call history and resets the response index.
func (m *MockClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callIndex = 0
	m.calls = nil
}
