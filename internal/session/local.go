package session

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// localSession is one session held in process memory.
type localSession struct {
	turns        []Turn
	lastActivity time.Time
}

// LocalStore keeps sessions in process memory. It is the fallback tier
// behind Memory: its write path cannot fail, which is what makes the
// degraded mode total. Contents are lost when the process exits.
type LocalStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*localSession
}

// NewLocalStore creates an empty in-process store.
func NewLocalStore() *LocalStore {
	return &LocalStore{sessions: make(map[uuid.UUID]*localSession)}
}

// AppendTurn appends a turn, creating the session on first write. The
// only possible failure is an invalid role, which Memory validates before
// it reaches either tier.
func (s *LocalStore) AppendTurn(_ context.Context, sessionID uuid.UUID, turn Turn) error {
	if !validRole(turn.Role) {
		return fmt.Errorf("%w: %q", ErrInvalidRole, turn.Role)
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &localSession{}
		s.sessions[sessionID] = sess
	}
	sess.turns = append(sess.turns, turn)
	sess.lastActivity = time.Now()
	return nil
}

// ListTurns returns a copy of the session's turns in append order.
// An unknown session yields an empty slice.
func (s *LocalStore) ListTurns(_ context.Context, sessionID uuid.UUID) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	return slices.Clone(sess.turns), nil
}

// DeleteSession removes the session. Deleting an unknown session succeeds.
func (s *LocalStore) DeleteSession(_ context.Context, sessionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}

// ListSummaries returns one summary per locally held session, most
// recently active first.
func (s *LocalStore) ListSummaries(_ context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]Summary, 0, len(s.sessions))
	for id, sess := range s.sessions {
		sum := Summary{
			ID:           id,
			LastActivity: sess.lastActivity,
			Origin:       OriginLocal,
		}
		for _, turn := range sess.turns {
			if turn.Role == RoleUser {
				sum.Preview = turn.Content
				break
			}
		}
		summaries = append(summaries, sum)
	}
	slices.SortFunc(summaries, func(a, b Summary) int {
		return b.LastActivity.Compare(a.LastActivity)
	})
	return summaries, nil
}
