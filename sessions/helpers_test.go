package sessions

import (
	"fmt"
	"testing"
	"time"

	"github.com/alexschlessinger/saintsal/messages"
)

func numbered(n int) []messages.ChatMessage {
	history := make([]messages.ChatMessage, n)
	for i := range history {
		history[i] = messages.User(fmt.Sprintf("m%d", i), time.Time{})
	}
	return history
}

func contents(history []messages.ChatMessage) []string {
	out := make([]string, len(history))
	for i, m := range history {
		out[i] = m.Content
	}
	return out
}

func TestTrimHistory(t *testing.T) {
	tests := []struct {
		name  string
		size  int
		max   int
		first string
		want  int
	}{
		{"under limit", 3, 10, "m0", 3},
		{"at limit", 10, 10, "m0", 10},
		{"over limit", 15, 10, "m5", 10},
		{"unlimited", 15, 0, "m0", 15},
		{"window of one", 4, 1, "m3", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TrimHistory(numbered(tt.size), tt.max)
			if len(got) != tt.want {
				t.Fatalf("len = %d, want %d", len(got), tt.want)
			}
			if got[0].Content != tt.first {
				t.Errorf("first = %q, want %q", got[0].Content, tt.first)
			}
			if got[len(got)-1].Content != fmt.Sprintf("m%d", tt.size-1) {
				t.Errorf("newest message was evicted: %v", contents(got))
			}
		})
	}
}

func TestTrimHistoryClearsTail(t *testing.T) {
	history := numbered(12)
	backing := history[:cap(history)]

	trimmed := TrimHistory(history, 10)
	if len(trimmed) != 10 {
		t.Fatalf("len = %d", len(trimmed))
	}
	for i := 10; i < 12; i++ {
		if backing[i].Content != "" {
			t.Errorf("stale entry left in backing array at %d: %q", i, backing[i].Content)
		}
	}
}

func TestRecentHistory(t *testing.T) {
	history := numbered(8)

	recent := RecentHistory(history, 6)
	if len(recent) != 6 || recent[0].Content != "m2" || recent[5].Content != "m7" {
		t.Errorf("RecentHistory(8, 6) = %v", contents(recent))
	}

	if got := RecentHistory(history[:3], 6); len(got) != 3 {
		t.Errorf("short history should be returned whole, got %d", len(got))
	}
	if got := RecentHistory(history, 0); got == nil || len(got) != 0 {
		t.Errorf("RecentHistory(n=0) = %v, want empty", got)
	}

	recent[0].Content = "changed"
	if history[2].Content != "m2" {
		t.Errorf("RecentHistory returned an aliased slice")
	}
}

func TestCopyHistory(t *testing.T) {
	orig := numbered(2)
	c := CopyHistory(orig)
	c[0].Content = "changed"
	if orig[0].Content != "m0" {
		t.Errorf("CopyHistory returned an aliased slice")
	}
	if got := CopyHistory(nil); got == nil || len(got) != 0 {
		t.Errorf("CopyHistory(nil) = %v", got)
	}
}
