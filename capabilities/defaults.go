package capabilities

import "github.com/alexschlessinger/saintsal/bag"

// Default capability names
const (
	HACPProtocol          = "hacp_protocol"
	ContextualAwareness   = "contextual_awareness"
	BusinessIntelligence  = "business_intelligence"
	EmotionalResonance    = "emotional_resonance"
	TechnicalExpertise    = "technical_expertise"
	CreativeCollaboration = "creative_collaboration"
)

// ErrorHandling is the sentinel reported as used when a turn fell back
// after a completion failure. It is never a registered capability.
const ErrorHandling = "error_handling"

// Defaults returns the capability set every new session is seeded with.
// Each call returns fresh values.
func Defaults() []Capability {
	return []Capability{
		{
			Name:        HACPProtocol,
			Description: "Human-AI Connection Protocol™ (USPTO #10,290,222) for enhanced emotional intelligence",
			Enabled:     true,
			Parameters:  bag.New(bag.KV("whisper_intent", true), bag.KV("non_intrusive", true)),
		},
		{
			Name:        ContextualAwareness,
			Description: "Deep understanding of conversation context and user intent",
			Enabled:     true,
			Parameters:  bag.New(bag.KV("memory_depth", 10), bag.KV("context_weight", 0.8)),
		},
		{
			Name:        BusinessIntelligence,
			Description: "Advanced business analysis and strategic recommendations",
			Enabled:     true,
			Parameters:  bag.New(bag.KV("analysis_depth", "comprehensive"), bag.KV("industry_focus", "technology")),
		},
		{
			Name:        EmotionalResonance,
			Description: "Faith-guided responses with emotional awareness",
			Enabled:     true,
			Parameters:  bag.New(bag.KV("tone_adaptation", true), bag.KV("empathy_level", "high")),
		},
		{
			Name:        TechnicalExpertise,
			Description: "Deep technical knowledge across multiple domains",
			Enabled:     true,
			Parameters:  bag.New(bag.KV("domains", []string{"ai", "software", "cloud", "data"})),
		},
		{
			Name:        CreativeCollaboration,
			Description: "Creative problem-solving and ideation support",
			Enabled:     true,
			Parameters:  bag.New(bag.KV("creativity_level", "high"), bag.KV("brainstorming", true)),
		},
	}
}
