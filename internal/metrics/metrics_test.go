package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alexschlessinger/saintsal/agent"
	"github.com/alexschlessinger/saintsal/sessions"
)

// scrape returns the exposition text served by m
func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	return string(body)
}

func assertContains(t *testing.T, body string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(body, w) {
			t.Errorf("metrics output missing %q", w)
		}
	}
}

func TestObserveTurn(t *testing.T) {
	m := New(nil)

	m.ObserveTurn(agent.TurnEvent{
		Outcome:      agent.OutcomeSuccess,
		Resolution:   sessions.Created,
		Latency:      200 * time.Millisecond,
		Attempts:     1,
		InputTokens:  12,
		OutputTokens: 30,
	})
	m.ObserveTurn(agent.TurnEvent{Outcome: agent.OutcomeError, Resolution: sessions.Found, Attempts: 3})

	assertContains(t, scrape(t, m),
		`saintsal_turns_total{outcome="success",resolution="created"} 1`,
		`saintsal_turns_total{outcome="error",resolution="found"} 1`,
		`saintsal_tokens_total{type="input"} 12`,
		`saintsal_tokens_total{type="output"} 30`,
		`saintsal_turn_attempts_count 2`,
		`saintsal_turn_duration_seconds_count{outcome="success"} 1`,
	)
}

func TestObserveSweep(t *testing.T) {
	m := New(nil)
	m.ObserveSweep(3)
	m.ObserveSweep(0)

	assertContains(t, scrape(t, m), "saintsal_sessions_swept_total 3")
}

func TestActiveSessionsGauge(t *testing.T) {
	active := 4
	m := New(func() int { return active })

	assertContains(t, scrape(t, m), "saintsal_active_sessions 4")

	active = 1
	assertContains(t, scrape(t, m), "saintsal_active_sessions 1")
}

func TestActiveSessionsGaugeOptional(t *testing.T) {
	if strings.Contains(scrape(t, New(nil)), "saintsal_active_sessions") {
		t.Errorf("gauge registered without a source")
	}
}
