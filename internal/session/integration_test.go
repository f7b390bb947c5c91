//go:build integration
// +build integration

package session_test

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/policyq/policyq/internal/session"
	"github.com/policyq/policyq/internal/testutil"
)

// Run with: go test -tags=integration ./internal/session/...

func TestPostgresStore_RoundTrip(t *testing.T) {
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	store := session.NewPostgresStore(db.Pool, nil)
	ctx := context.Background()
	id := uuid.New()

	if err := store.AppendTurn(ctx, id, session.NewUserTurn("How many vacation days do I get?")); err != nil {
		t.Fatalf("AppendTurn() error = %v", err)
	}
	answer := session.NewAssistantTurn("You accrue 15 days per year.", []session.SourceChunk{
		{Text: "Employees accrue 15 vacation days per calendar year.", Page: 4, DocumentID: "handbook"},
	})
	if err := store.AppendTurn(ctx, id, answer); err != nil {
		t.Fatalf("AppendTurn() error = %v", err)
	}

	turns, err := store.ListTurns(ctx, id)
	if err != nil {
		t.Fatalf("ListTurns() error = %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("ListTurns() = %d turns, want 2", len(turns))
	}
	if turns[0].Role != session.RoleUser || turns[1].Role != session.RoleAssistant {
		t.Errorf("roles = %q, %q, want user then assistant", turns[0].Role, turns[1].Role)
	}
	if len(turns[1].Sources) != 1 {
		t.Fatalf("assistant turn has %d sources, want 1", len(turns[1].Sources))
	}
	if turns[1].Sources[0].DocumentID != "handbook" || turns[1].Sources[0].Page != 4 {
		t.Errorf("source = %+v, want handbook page 4", turns[1].Sources[0])
	}
}

func TestPostgresStore_ListTurnsUnknownSession(t *testing.T) {
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	store := session.NewPostgresStore(db.Pool, nil)

	turns, err := store.ListTurns(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("ListTurns() error = %v", err)
	}
	if len(turns) != 0 {
		t.Errorf("ListTurns() on unknown session = %d turns, want 0", len(turns))
	}
}

func TestPostgresStore_DeleteCascades(t *testing.T) {
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	store := session.NewPostgresStore(db.Pool, nil)
	ctx := context.Background()
	id := uuid.New()

	if err := store.AppendTurn(ctx, id, session.NewUserTurn("q")); err != nil {
		t.Fatalf("AppendTurn() error = %v", err)
	}
	if err := store.DeleteSession(ctx, id); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}

	var count int
	if err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM session_turns`).Scan(&count); err != nil {
		t.Fatalf("counting turns: %v", err)
	}
	if count != 0 {
		t.Errorf("session_turns rows after delete = %d, want 0", count)
	}

	// Idempotent delete.
	if err := store.DeleteSession(ctx, id); err != nil {
		t.Errorf("DeleteSession() on unknown session error = %v", err)
	}
}

func TestPostgresStore_ListSummaries(t *testing.T) {
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	store := session.NewPostgresStore(db.Pool, nil)
	ctx := context.Background()

	first := uuid.New()
	second := uuid.New()

	if err := store.AppendTurn(ctx, first, session.NewUserTurn("first question")); err != nil {
		t.Fatalf("AppendTurn() error = %v", err)
	}
	if err := store.AppendTurn(ctx, second, session.NewUserTurn("second question")); err != nil {
		t.Fatalf("AppendTurn() error = %v", err)
	}

	summaries, err := store.ListSummaries(ctx)
	if err != nil {
		t.Fatalf("ListSummaries() error = %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("ListSummaries() = %d entries, want 2", len(summaries))
	}
	if summaries[0].ID != second {
		t.Errorf("summaries[0].ID = %s, want most recent %s", summaries[0].ID, second)
	}
	if summaries[0].Preview != "second question" {
		t.Errorf("summaries[0].Preview = %q, want first user turn content", summaries[0].Preview)
	}
	if summaries[0].Origin != session.OriginPrimary {
		t.Errorf("Origin = %q, want %q", summaries[0].Origin, session.OriginPrimary)
	}
}
