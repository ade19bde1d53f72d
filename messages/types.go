package messages

import "time"

// StopReason indicates why the model stopped generating
type StopReason string

const (
	// StopReasonEndTurn indicates normal completion
	StopReasonEndTurn StopReason = "end_turn"
	// StopReasonMaxTokens indicates the response was truncated due to token limit
	StopReasonMaxTokens StopReason = "max_tokens"
	// StopReasonContentFilter indicates the response was blocked by safety/policy
	StopReasonContentFilter StopReason = "content_filter"
	// StopReasonError indicates malformed output or other error
	StopReasonError StopReason = "error"
)

// ChatMessage is a provider-agnostic chat message. The same type is used for
// requests sent to a model and for entries of a session's history; the
// history fields (Timestamp, CapabilitiesUsed) are ignored by providers.
type ChatMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp,omitzero"`

	// CapabilitiesUsed is set only on assistant history entries.
	CapabilitiesUsed []string `json:"capabilities_used,omitempty"`

	Metadata   map[string]any `json:"metadata,omitempty"`
	StopReason StopReason     `json:"stop_reason,omitempty"`
}

// Standard role constants
const (
	MessageRoleSystem    = "system"
	MessageRoleUser      = "user"
	MessageRoleAssistant = "assistant"
)

// Metadata keys
const (
	MetadataKeyInputTokens  = "input_tokens"
	MetadataKeyOutputTokens = "output_tokens"
	MetadataKeyModel        = "model"
)

// System builds a system message.
func System(content string) ChatMessage {
	return ChatMessage{Role: MessageRoleSystem, Content: content}
}

// User builds a user message stamped with ts.
func User(content string, ts time.Time) ChatMessage {
	return ChatMessage{Role: MessageRoleUser, Content: content, Timestamp: ts}
}

// Assistant builds an assistant message stamped with ts.
func Assistant(content string, ts time.Time, capabilitiesUsed []string) ChatMessage {
	return ChatMessage{
		Role:             MessageRoleAssistant,
		Content:          content,
		Timestamp:        ts,
		CapabilitiesUsed: capabilitiesUsed,
	}
}

// GetInputTokens returns the input token count from metadata, or 0 if not set
func (m *ChatMessage) GetInputTokens() int {
	return metadataInt(m.Metadata, MetadataKeyInputTokens)
}

// GetOutputTokens returns the output token count from metadata, or 0 if not set
func (m *ChatMessage) GetOutputTokens() int {
	return metadataInt(m.Metadata, MetadataKeyOutputTokens)
}

// SetTokenUsage sets the input and output token counts in metadata
func (m *ChatMessage) SetTokenUsage(input, output int) {
	if m.Metadata == nil {
		m.Metadata = make(map[string]any)
	}
	m.Metadata[MetadataKeyInputTokens] = input
	m.Metadata[MetadataKeyOutputTokens] = output
}

// GetModel returns the model that produced the message, if a provider recorded one
func (m *ChatMessage) GetModel() string {
	if m.Metadata == nil {
		return ""
	}
	s, _ := m.Metadata[MetadataKeyModel].(string)
	return s
}

// SetModel records the model that produced the message
func (m *ChatMessage) SetModel(model string) {
	if m.Metadata == nil {
		m.Metadata = make(map[string]any)
	}
	m.Metadata[MetadataKeyModel] = model
}

func metadataInt(md map[string]any, key string) int {
	if md == nil {
		return 0
	}
	switch v := md[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
