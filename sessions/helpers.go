package sessions

import (
	"github.com/alexschlessinger/saintsal/messages"
)

// TrimHistory keeps the most recent maxHistory messages, evicting the oldest
// first. A maxHistory of 0 means no limit.
func TrimHistory(history []messages.ChatMessage, maxHistory int) []messages.ChatMessage {
	if maxHistory <= 0 || len(history) <= maxHistory {
		return history
	}
	// Shift in place so the backing array does not grow without bound
	n := copy(history, history[len(history)-maxHistory:])
	clear(history[n:])
	return history[:n]
}

// RecentHistory returns a copy of the last n messages of history
func RecentHistory(history []messages.ChatMessage, n int) []messages.ChatMessage {
	if n <= 0 {
		return []messages.ChatMessage{}
	}
	if len(history) > n {
		history = history[len(history)-n:]
	}
	return CopyHistory(history)
}

// CopyHistory returns a copy of the history slice
func CopyHistory(history []messages.ChatMessage) []messages.ChatMessage {
	result := make([]messages.ChatMessage, len(history))
	copy(result, history)
	return result
}
