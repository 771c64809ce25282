package agent

import (
	"fmt"
	"strings"

	"github.com/hausly/voicedesk/internal/model/call"
	"github.com/hausly/voicedesk/internal/service/knowledge"
)

// Variant selects which support persona the session agent speaks as.
type Variant string

const (
	// VariantReceptionist answers anonymous callers with no prior context.
	VariantReceptionist Variant = "receptionist"
	// VariantContextAware answers callers with earlier video-support sessions
	// on file.
	VariantContextAware Variant = "context_aware"
)

const receptionistSystemPrompt = `You are Riley, the phone receptionist for Hausly home-maintenance support.
You help homeowners troubleshoot maintenance problems over the phone.

Conversation rules:
- Keep every reply short and speakable: one to three sentences, no lists, no markdown.
- Use the knowledge-base search tool before answering technical questions.
- If the caller describes a life-threatening situation (fire, gas smell, electrical sparking), use the emergency transfer tool immediately.
- If the caller describes active property damage (burst pipe, flooding, no heat in winter), use the urgent maintenance transfer tool.
- If the caller asks for a person, use the human agent transfer tool.
- Never invent repair instructions that are not backed by the knowledge base.`

const contextAwareSystemPrompt = receptionistSystemPrompt + `

This caller has contacted us before. Prior session notes:
%s

Refer back to their earlier issue naturally when it helps, and do not ask them to repeat details already on file.`

const visualEvidenceNote = `
The caller previously uploaded video of the problem area, so visual evidence is on file for the issues above.`

// SystemPrompt renders the session system prompt for the chosen variant.
func SystemPrompt(variant Variant, records []knowledge.ContextRecord, video *call.VideoContext) string {
	if variant != VariantContextAware {
		return receptionistSystemPrompt
	}

	var notes strings.Builder
	for i, record := range records {
		fmt.Fprintf(&notes, "- session %d: %s\n", i+1, strings.TrimSpace(record.Transcript))
	}
	if notes.Len() == 0 {
		notes.WriteString("- no transcript available\n")
	}

	prompt := fmt.Sprintf(contextAwareSystemPrompt, strings.TrimRight(notes.String(), "\n"))
	if video != nil && video.HasFrames {
		prompt += visualEvidenceNote
	}
	return prompt
}

// Greeting returns the opening line spoken before the caller's first turn.
func Greeting(variant Variant) string {
	if variant == VariantContextAware {
		return "Hi, thanks for calling Hausly support again. I have your earlier case in front of me. How can I help today?"
	}
	return "Thank you for calling Hausly home-maintenance support. This is Riley. How can I help you today?"
}
