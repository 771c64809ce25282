package call

import "time"

// Roles tag transcript turns with who produced them.
const (
	RoleHuman = "human"
	RoleAI    = "ai"
)

// Turn is a single utterance in the call transcript.
type Turn struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}
