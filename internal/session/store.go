package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/policyq/policyq/internal/log"
)

// statementTimeout bounds every primary-store round trip. The store is one
// of the external boundaries that must not block indefinitely.
const statementTimeout = 5 * time.Second

// PostgresStore persists session turns in PostgreSQL.
// It is the primary tier behind Memory and is safe for concurrent use.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger log.Logger
}

// NewPostgresStore creates a store backed by the given connection pool.
// A nil logger falls back to a no-op logger.
func NewPostgresStore(pool *pgxpool.Pool, logger log.Logger) *PostgresStore {
	if logger == nil {
		logger = log.NewNop()
	}
	return &PostgresStore{pool: pool, logger: logger}
}

// AppendTurn appends a turn to the session, creating the session row on
// first write. The whole operation runs in a transaction so sequence
// numbers stay gap-free under concurrent sessions.
func (s *PostgresStore) AppendTurn(ctx context.Context, sessionID uuid.UUID, turn Turn) error {
	if !validRole(turn.Role) {
		return fmt.Errorf("%w: %q", ErrInvalidRole, turn.Role)
	}

	ctx, cancel := context.WithTimeout(ctx, statementTimeout)
	defer cancel()

	var sourcesJSON []byte
	if len(turn.Sources) > 0 {
		var err error
		sourcesJSON, err = json.Marshal(turn.Sources)
		if err != nil {
			return fmt.Errorf("marshaling sources: %w", err)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			s.logger.Debug("transaction rollback", "error", err)
		}
	}()

	// The upsert takes a row lock on the session for the rest of the
	// transaction, serializing sequence number assignment per session.
	if _, err := tx.Exec(ctx,
		`INSERT INTO sessions (id, created_at, updated_at)
		 VALUES ($1, now(), now())
		 ON CONFLICT (id) DO UPDATE SET updated_at = now()`,
		uuidToPg(sessionID)); err != nil {
		return fmt.Errorf("upserting session: %w", err)
	}

	var maxSeq int32
	if err := tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(sequence_number), 0)
		 FROM session_turns WHERE session_id = $1`,
		uuidToPg(sessionID)).Scan(&maxSeq); err != nil {
		return fmt.Errorf("reading max sequence number: %w", err)
	}

	createdAt := turn.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO session_turns (session_id, role, content, sources, sequence_number, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		uuidToPg(sessionID), turn.Role, turn.Content, sourcesJSON, maxSeq+1,
		pgtype.Timestamptz{Time: createdAt, Valid: true}); err != nil {
		return fmt.Errorf("inserting turn: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	s.logger.Debug("appended turn", "session_id", sessionID, "role", turn.Role, "sequence", maxSeq+1)
	return nil
}

// ListTurns returns the session's turns in append order.
// An unknown session yields an empty slice, not an error.
func (s *PostgresStore) ListTurns(ctx context.Context, sessionID uuid.UUID) ([]Turn, error) {
	ctx, cancel := context.WithTimeout(ctx, statementTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT role, content, sources, created_at
		 FROM session_turns
		 WHERE session_id = $1
		 ORDER BY sequence_number`,
		uuidToPg(sessionID))
	if err != nil {
		return nil, fmt.Errorf("querying turns: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var (
			turn        Turn
			sourcesJSON []byte
			createdAt   pgtype.Timestamptz
		)
		if err := rows.Scan(&turn.Role, &turn.Content, &sourcesJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		if createdAt.Valid {
			turn.CreatedAt = createdAt.Time
		}
		// Sources survive the primary store best-effort only: a null or
		// malformed payload degrades to a source-less turn.
		if len(sourcesJSON) > 0 {
			if err := json.Unmarshal(sourcesJSON, &turn.Sources); err != nil {
				s.logger.Warn("discarding malformed turn sources",
					"session_id", sessionID, "error", err)
				turn.Sources = nil
			}
		}
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating turns: %w", err)
	}

	return turns, nil
}

// DeleteSession removes the session and all its turns (CASCADE).
// Deleting a session that does not exist succeeds.
func (s *PostgresStore) DeleteSession(ctx context.Context, sessionID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, statementTimeout)
	defer cancel()

	if _, err := s.pool.Exec(ctx,
		`DELETE FROM sessions WHERE id = $1`, uuidToPg(sessionID)); err != nil {
		return fmt.Errorf("deleting session %s: %w", sessionID, err)
	}

	s.logger.Debug("deleted session", "session_id", sessionID)
	return nil
}

// ListSummaries returns one summary per stored session, most recently
// active first. Preview holds the full first user question; truncation is
// the Memory tier's concern.
func (s *PostgresStore) ListSummaries(ctx context.Context) ([]Summary, error) {
	ctx, cancel := context.WithTimeout(ctx, statementTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT s.id, s.updated_at,
		        COALESCE((SELECT t.content FROM session_turns t
		                  WHERE t.session_id = s.id AND t.role = 'user'
		                  ORDER BY t.sequence_number LIMIT 1), '')
		 FROM sessions s
		 ORDER BY s.updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying session summaries: %w", err)
	}
	defer rows.Close()

	var summaries []Summary
	for rows.Next() {
		var (
			id        pgtype.UUID
			updatedAt pgtype.Timestamptz
			sum       Summary
		)
		if err := rows.Scan(&id, &updatedAt, &sum.Preview); err != nil {
			return nil, fmt.Errorf("scanning summary: %w", err)
		}
		sum.ID = pgToUUID(id)
		if updatedAt.Valid {
			sum.LastActivity = updatedAt.Time
		}
		sum.Origin = OriginPrimary
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating summaries: %w", err)
	}

	return summaries, nil
}

// uuidToPg converts uuid.UUID to pgtype.UUID.
func uuidToPg(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

// pgToUUID converts pgtype.UUID to uuid.UUID.
func pgToUUID(id pgtype.UUID) uuid.UUID {
	if !id.Valid {
		return uuid.Nil
	}
	return id.Bytes
}
