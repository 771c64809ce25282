package knowledge

import "context"

// Snippet is one knowledge-base passage returned to the agent.
type Snippet struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Source  string `json:"source"`
}

// ContextRecord is a prior video-support session keyed to a caller's number.
type ContextRecord struct {
	ContentID  string `json:"contentId"`
	Transcript string `json:"transcript"`
}

// Store exposes the knowledge base and prior-context lookups used during
// initialization and by the agent's search tool.
type Store interface {
	Search(ctx context.Context, query string) ([]Snippet, error)
	PriorContext(ctx context.Context, phone string) ([]ContextRecord, error)
	HasVisualEvidence(ctx context.Context, contentID string) (bool, error)
}
