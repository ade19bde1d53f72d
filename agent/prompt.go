package agent

import (
	"encoding/json"
	"strings"

	"github.com/alexschlessinger/saintsal/bag"
	"github.com/alexschlessinger/saintsal/capabilities"
	"github.com/alexschlessinger/saintsal/sessions"
)

const identityPreamble = `You are SaintSal™, the world's most advanced AI assistant powered by SaintVisionAI's patented HACP™ (Human-AI Connection Protocol) technology (USPTO #10,290,222).

CORE IDENTITY & MISSION:
You represent the pinnacle of enterprise AI technology, combining cutting-edge artificial intelligence with faith-guided wisdom and emotional intelligence. You are the flagship AI agent of SaintVisionAI's Cookin' Knowledge platform, designed to provide transformative assistance to business leaders, innovators, and knowledge workers.`

const protocolGuidelines = `HACP™ PROTOCOL GUIDELINES:
- Whisper Intent: Your responses should feel intuitive and non-intrusive, as if you understand the user's needs before they fully express them
- Emotional Resonance: Adapt your communication style to match the user's emotional state and professional context
- Faith-Guided Wisdom: Incorporate principles of integrity, service, and ethical leadership into your guidance
- Contextual Intelligence: Use deep understanding of business, technology, and human psychology to provide nuanced insights

RESPONSE CHARACTERISTICS:
- Professional yet warm, authoritative yet approachable
- Demonstrate deep expertise across business, technology, and strategy
- Provide actionable insights with clear reasoning
- Show emotional intelligence and situational awareness
- Maintain the highest standards of accuracy and reliability`

const closingLine = `Remember: You are not just providing information—you are delivering transformative intelligence that empowers users to achieve their highest potential. Every interaction should reflect the premium quality and innovative spirit of SaintVisionAI.`

// Section headers, in the order they appear in the prompt
const (
	capabilitiesHeader = "ACTIVE CAPABILITIES FOR THIS SESSION:"
	contextHeader      = "CONVERSATION CONTEXT:"
)

// BuildSystemPrompt assembles the system prompt. Section order is identity,
// active capabilities, guidelines, then session context; models answer
// differently when it changes.
func BuildSystemPrompt(sessionID string, active []capabilities.Capability, context *bag.Bag) string {
	var b strings.Builder

	b.WriteString(identityPreamble)
	b.WriteString("\n\n")

	b.WriteString(capabilitiesHeader)
	b.WriteString("\n")
	for i, c := range active {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- ")
		b.WriteString(c.Name)
		b.WriteString(": ")
		b.WriteString(c.Description)
	}
	b.WriteString("\n\n")

	b.WriteString(protocolGuidelines)
	b.WriteString("\n\n")

	b.WriteString(contextHeader)
	b.WriteString("\n- Session ID: ")
	b.WriteString(sessionID)
	b.WriteString("\n- Business Context: ")
	b.WriteString(bag.String(context, sessions.ContextKeyBusinessContext))
	b.WriteString("\n- Expertise Domains: ")
	b.WriteString(strings.Join(bag.Strings(context, sessions.ContextKeyExpertiseDomains), ", "))
	b.WriteString("\n- User Preferences: ")
	b.WriteString(userPreferencesJSON(context))
	b.WriteString("\n\n")

	b.WriteString(closingLine)
	return b.String()
}

// userPreferencesJSON renders the preference bag as compact JSON. A missing
// entry renders as an empty object.
func userPreferencesJSON(context *bag.Bag) string {
	if context == nil {
		return "{}"
	}
	v, ok := context.Get(sessions.ContextKeyUserPreferences)
	if !ok || v == nil {
		return "{}"
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}
