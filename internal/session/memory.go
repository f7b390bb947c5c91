package session

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/policyq/policyq/internal/log"
)

// TurnStore is what Memory needs from a session tier. PostgresStore and
// LocalStore both satisfy it.
type TurnStore interface {
	AppendTurn(ctx context.Context, sessionID uuid.UUID, turn Turn) error
	ListTurns(ctx context.Context, sessionID uuid.UUID) ([]Turn, error)
	DeleteSession(ctx context.Context, sessionID uuid.UUID) error
	ListSummaries(ctx context.Context) ([]Summary, error)
}

// Memory is the two-tier session facade. Writes go to the primary store;
// the first failed primary write demotes the session to the local store
// for the remainder of the process lifetime, so a degraded session never
// splits its later turns across tiers. Reads prefer the session's current
// tier and fall back to the local store without demoting, since a read
// failure says nothing about whether the next write would succeed.
type Memory struct {
	primary    TurnStore
	local      TurnStore
	previewLen int
	logger     log.Logger

	mu      sync.Mutex
	demoted map[uuid.UUID]struct{}
}

// NewMemory creates a session memory over the given tiers. previewLen is
// the maximum number of runes kept in session list previews; values below
// one fall back to the default.
func NewMemory(primary, local TurnStore, previewLen int, logger log.Logger) *Memory {
	if previewLen < 1 {
		previewLen = 30
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Memory{
		primary:    primary,
		local:      local,
		previewLen: previewLen,
		logger:     logger,
		demoted:    make(map[uuid.UUID]struct{}),
	}
}

// Append stores a turn for the session. Storage failures never surface:
// a failed primary write demotes the session and lands the turn in the
// local store instead, which cannot fail. The only returned error is an
// invalid role, which is a caller bug rather than a storage condition.
func (m *Memory) Append(ctx context.Context, sessionID uuid.UUID, turn Turn) error {
	if !validRole(turn.Role) {
		return fmt.Errorf("%w: %q", ErrInvalidRole, turn.Role)
	}

	if !m.isDemoted(sessionID) {
		err := m.primary.AppendTurn(ctx, sessionID, turn)
		if err == nil {
			return nil
		}
		m.demote(sessionID)
		m.logger.Warn("session demoted to local store",
			"session_id", sessionID,
			"error", fmt.Errorf("%w: %w", ErrStorageDegraded, err))
	}

	// Valid role was checked above, so the local write cannot fail.
	if err := m.local.AppendTurn(ctx, sessionID, turn); err != nil {
		return fmt.Errorf("local store append: %w", err)
	}
	return nil
}

// History returns the session's turns in append order. A session with no
// stored turns yields an empty slice. Primary read failures fall back to
// the local tier without demoting the session.
func (m *Memory) History(ctx context.Context, sessionID uuid.UUID) []Turn {
	if m.isDemoted(sessionID) {
		turns, _ := m.local.ListTurns(ctx, sessionID)
		return turns
	}

	turns, err := m.primary.ListTurns(ctx, sessionID)
	if err != nil {
		m.logger.Warn("primary history read failed, serving local tier",
			"session_id", sessionID,
			"error", fmt.Errorf("%w: %w", ErrStorageDegraded, err))
		turns, _ = m.local.ListTurns(ctx, sessionID)
	}
	return turns
}

// Delete removes the session from both tiers and clears any demotion, so
// a reused session ID starts fresh on the primary store. Deleting an
// unknown session succeeds.
func (m *Memory) Delete(ctx context.Context, sessionID uuid.UUID) error {
	var primaryErr error
	if err := m.primary.DeleteSession(ctx, sessionID); err != nil {
		primaryErr = fmt.Errorf("primary store delete: %w", err)
	}
	if err := m.local.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("local store delete: %w", err)
	}

	m.mu.Lock()
	delete(m.demoted, sessionID)
	m.mu.Unlock()

	return primaryErr
}

// Sessions lists all known sessions across both tiers, most recently
// active first. A session present in both tiers appears once: the
// primary entry's preview wins, joined with the newest activity and the
// local origin. Previews are truncated to the configured rune length.
func (m *Memory) Sessions(ctx context.Context) []Summary {
	byID := make(map[uuid.UUID]Summary)

	primary, err := m.primary.ListSummaries(ctx)
	if err != nil {
		m.logger.Warn("primary session list failed, serving local tier only",
			"error", fmt.Errorf("%w: %w", ErrStorageDegraded, err))
	}
	for _, sum := range primary {
		byID[sum.ID] = sum
	}

	local, _ := m.local.ListSummaries(ctx)
	for _, sum := range local {
		if existing, ok := byID[sum.ID]; ok {
			// A session in both tiers was demoted mid-conversation: the
			// primary entry holds the opening question, the local entry
			// holds the newest activity and the current write tier.
			if existing.Preview != "" {
				sum.Preview = existing.Preview
			}
			if existing.LastActivity.After(sum.LastActivity) {
				sum.LastActivity = existing.LastActivity
			}
		}
		byID[sum.ID] = sum
	}

	summaries := make([]Summary, 0, len(byID))
	for _, sum := range byID {
		sum.Preview = truncatePreview(sum.Preview, m.previewLen)
		summaries = append(summaries, sum)
	}
	slices.SortFunc(summaries, func(a, b Summary) int {
		return b.LastActivity.Compare(a.LastActivity)
	})
	return summaries
}

// Origin reports which tier currently receives the session's writes.
func (m *Memory) Origin(sessionID uuid.UUID) Origin {
	if m.isDemoted(sessionID) {
		return OriginLocal
	}
	return OriginPrimary
}

func (m *Memory) isDemoted(sessionID uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.demoted[sessionID]
	return ok
}

func (m *Memory) demote(sessionID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.demoted[sessionID] = struct{}{}
}

// truncatePreview shortens s to at most limit runes, appending an
// ellipsis when anything was cut.
func truncatePreview(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
