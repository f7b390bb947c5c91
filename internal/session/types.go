// Package session provides two-tier persistence for conversation history.
//
// A session is an ordered, append-only sequence of turns keyed by an opaque
// UUID. Turns are written to the primary PostgreSQL store; when a primary
// write fails the session is demoted to an in-process local store for the
// remainder of the process lifetime (sticky fallback, see Memory).
package session

import (
	"time"

	"github.com/google/uuid"
)

// Turn roles. Every turn is either a user question or an assistant answer.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Origin identifies which storage tier currently owns a session's writes.
type Origin string

const (
	// OriginPrimary means turns are written to the PostgreSQL store.
	OriginPrimary Origin = "primary"

	// OriginLocal means the session has been demoted to the in-process
	// fallback store. Demotion is sticky for the process lifetime.
	OriginLocal Origin = "local"
)

// SourceChunk is the display metadata for a passage an answer was grounded
// on. Sources are attached to assistant turns only. The primary store keeps
// them best-effort (role and content are the only durable guarantee); the
// local tier keeps full fidelity for the session's lifetime.
type SourceChunk struct {
	Text       string `json:"text"`
	Page       int    `json:"page,omitempty"` // 0 = unknown
	DocumentID string `json:"document_id"`
}

// Turn is one role-tagged message within a session. Immutable once appended.
type Turn struct {
	Role      string        `json:"role"`
	Content   string        `json:"content"`
	Sources   []SourceChunk `json:"sources,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// NewUserTurn creates a user turn with the current timestamp.
func NewUserTurn(content string) Turn {
	return Turn{Role: RoleUser, Content: content, CreatedAt: time.Now()}
}

// NewAssistantTurn creates an assistant turn with the current timestamp.
func NewAssistantTurn(content string, sources []SourceChunk) Turn {
	return Turn{Role: RoleAssistant, Content: content, Sources: sources, CreatedAt: time.Now()}
}

// Summary describes one known session for listing purposes.
type Summary struct {
	ID           uuid.UUID `json:"id"`
	Preview      string    `json:"preview"` // first user turn, truncated by Memory
	LastActivity time.Time `json:"last_activity"`
	Origin       Origin    `json:"origin"`
}
