package agent

import (
	"strings"
	"testing"

	"github.com/alexschlessinger/saintsal/bag"
	"github.com/alexschlessinger/saintsal/capabilities"
	"github.com/alexschlessinger/saintsal/sessions"
)

func TestBuildSystemPromptOrder(t *testing.T) {
	prompt := BuildSystemPrompt("session_abc", capabilities.Defaults(), sessions.DefaultContextBag())

	markers := []string{
		"CORE IDENTITY & MISSION:",
		capabilitiesHeader,
		"HACP™ PROTOCOL GUIDELINES:",
		"RESPONSE CHARACTERISTICS:",
		contextHeader,
		"Remember:",
	}
	last := -1
	for _, m := range markers {
		idx := strings.Index(prompt, m)
		if idx < 0 {
			t.Fatalf("prompt missing %q", m)
		}
		if idx <= last {
			t.Errorf("%q is out of order", m)
		}
		last = idx
	}

	if strings.Index(prompt, "- hacp_protocol:") > strings.Index(prompt, contextHeader) {
		t.Errorf("capabilities must come before context")
	}
}

func TestBuildSystemPromptContent(t *testing.T) {
	active := []capabilities.Capability{
		{Name: "alpha", Description: "first thing"},
		{Name: "beta", Description: "second thing"},
	}
	ctx := bag.New(
		bag.KV(sessions.ContextKeyUserPreferences, map[string]any{"tone": "formal"}),
		bag.KV(sessions.ContextKeyBusinessContext, "logistics"),
		bag.KV(sessions.ContextKeyExpertiseDomains, []any{"ops", "supply"}),
	)

	prompt := BuildSystemPrompt("session_xyz", active, ctx)

	wants := []string{
		capabilitiesHeader + "\n- alpha: first thing\n- beta: second thing\n",
		"- Session ID: session_xyz\n",
		"- Business Context: logistics\n",
		"- Expertise Domains: ops, supply\n",
		`- User Preferences: {"tone":"formal"}`,
	}
	for _, w := range wants {
		if !strings.Contains(prompt, w) {
			t.Errorf("prompt missing %q", w)
		}
	}
}

func TestBuildSystemPromptDefaults(t *testing.T) {
	prompt := BuildSystemPrompt("s", nil, sessions.DefaultContextBag())

	if !strings.Contains(prompt, "- Expertise Domains: ai, business, technology, strategy") {
		t.Errorf("default domains not rendered")
	}
	if !strings.Contains(prompt, "- User Preferences: {}") {
		t.Errorf("empty preferences should render as {}")
	}

	bare := BuildSystemPrompt("s", nil, nil)
	if !strings.Contains(bare, "- User Preferences: {}") || !strings.Contains(bare, "- Business Context: \n") {
		t.Errorf("nil context should render empty fields")
	}
}

func TestBuildSystemPromptFixedText(t *testing.T) {
	prompt := BuildSystemPrompt("session_abc", capabilities.Defaults(), sessions.DefaultContextBag())

	wants := []string{
		"- hacp_protocol: Human-AI Connection Protocol™ (USPTO #10,290,222) for enhanced emotional intelligence\n",
		"Remember: You are not just providing information—you are delivering transformative intelligence",
	}
	for _, want := range wants {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if !strings.HasSuffix(prompt, "innovative spirit of SaintVisionAI.") {
		t.Errorf("prompt should end with the closing line")
	}
}
