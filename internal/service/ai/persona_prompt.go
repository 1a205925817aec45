package ai

import (
	"fmt"
	"strings"

	"github.com/taxmonster/backend/internal/model/persona"
)

// PromptBuilder renders the fixed system instruction for a persona.
type PromptBuilder struct{}

// NewPromptBuilder creates a prompt builder.
func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildSystemPrompt creates the persona/style instruction prepended to every transcript.
func (pb *PromptBuilder) BuildSystemPrompt(p persona.Persona) string {
	var builder strings.Builder

	fmt.Fprintf(&builder, "You are the %s, a %s. ", p.Name, p.Title)
	builder.WriteString("Your goal is to help users understand tax concepts and answer their tax-related questions in a clear, accurate, and approachable way. ")
	if p.Tone != "" {
		fmt.Fprintf(&builder, "Your tone is %s. ", p.Tone)
	}
	builder.WriteString("If you're not sure about something, be honest and suggest consulting a tax professional.")

	if len(p.Guidelines) > 0 {
		builder.WriteString(" Remember to:\n")
		for i, rule := range p.Guidelines {
			fmt.Fprintf(&builder, "\n%d. %s", i+1, rule)
		}
	}

	if p.MaxSentences > 0 {
		fmt.Fprintf(&builder, "\n\nKeep every response under %d sentences.", p.MaxSentences)
	}
	if p.ClosingOffer != "" {
		fmt.Fprintf(&builder, " Always end your response with: %q", p.ClosingOffer)
	}

	return builder.String()
}
