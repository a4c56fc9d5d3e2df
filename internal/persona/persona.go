// Package persona loads and serves the AI persona descriptors that shape
// every LLM interaction. Descriptors are immutable once loaded; the registry
// tracks a current persona and builds persona-conditioned prompts.
package persona

// Personality captures a persona's character traits.
type Personality struct {
	Tone       string `json:"tone"`
	Approach   string `json:"approach"`
	Philosophy string `json:"philosophy"`
	Motto      string `json:"motto"`
}

// Persona is an immutable LLM-conditioning profile.
type Persona struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Description  string      `json:"description"`
	Greeting     string      `json:"greeting"`
	Capabilities []string    `json:"capabilities,omitempty"`
	Examples     []string    `json:"examples,omitempty"`
	Personality  Personality `json:"personality"`
	SystemPrompt string      `json:"systemPrompt"`

	// Channels lists channel ids this persona is eligible on.
	// Empty = eligible everywhere.
	Channels []string `json:"channels,omitempty"`

	// Custom marks runtime-created personas; otherwise indistinguishable
	// from loaded ones.
	Custom bool `json:"custom,omitempty"`

	// Extra retains unknown descriptor fields for round-trip export.
	// Never consulted at runtime.
	Extra map[string]any `json:"-"`
}

// EligibleOn reports whether the persona may be used on the given channel.
func (p *Persona) EligibleOn(channelID string) bool {
	if len(p.Channels) == 0 {
		return true
	}
	for _, c := range p.Channels {
		if c == channelID {
			return true
		}
	}
	return false
}

// Fallback is the persona synthesized when loading fails or yields nothing,
// so the registry always has a current persona.
func Fallback() *Persona {
	return &Persona{
		ID:          "fallback",
		Name:        "BK25 Assistant",
		Description: "Default assistant persona",
		Greeting:    "Hello! I'm BK25, your helpful AI assistant.",
		Capabilities: []string{
			"General conversation",
			"Automation scripting",
		},
		Personality: Personality{
			Tone:       "friendly",
			Approach:   "helpful",
			Philosophy: "assistance",
			Motto:      "here to help",
		},
		SystemPrompt: "You are BK25, a helpful AI assistant that can generate automation scripts and provide conversational assistance.",
		Examples: []string{
			"Create a PowerShell script",
			"Help with automation",
		},
	}
}
