package session

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestLocalStore_AppendAndList(t *testing.T) {
	t.Parallel()

	store := NewLocalStore()
	ctx := context.Background()
	id := uuid.New()

	turns, err := store.ListTurns(ctx, id)
	if err != nil {
		t.Fatalf("ListTurns() error = %v", err)
	}
	if len(turns) != 0 {
		t.Fatalf("ListTurns() on unknown session = %d turns, want 0", len(turns))
	}

	if err := store.AppendTurn(ctx, id, NewUserTurn("What is the vacation policy?")); err != nil {
		t.Fatalf("AppendTurn() error = %v", err)
	}
	if err := store.AppendTurn(ctx, id, NewAssistantTurn("Employees accrue 15 days per year.", nil)); err != nil {
		t.Fatalf("AppendTurn() error = %v", err)
	}

	turns, err = store.ListTurns(ctx, id)
	if err != nil {
		t.Fatalf("ListTurns() error = %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("ListTurns() = %d turns, want 2", len(turns))
	}
	if turns[0].Role != RoleUser || turns[1].Role != RoleAssistant {
		t.Errorf("roles = %q, %q, want %q, %q", turns[0].Role, turns[1].Role, RoleUser, RoleAssistant)
	}
	if turns[0].CreatedAt.IsZero() {
		t.Error("AppendTurn() did not stamp CreatedAt")
	}
}

func TestLocalStore_AppendRejectsInvalidRole(t *testing.T) {
	t.Parallel()

	store := NewLocalStore()
	err := store.AppendTurn(context.Background(), uuid.New(), Turn{Role: "system", Content: "x"})
	if err == nil {
		t.Fatal("AppendTurn() with invalid role succeeded, want error")
	}
}

func TestLocalStore_ListIsolatedFromMutation(t *testing.T) {
	t.Parallel()

	store := NewLocalStore()
	ctx := context.Background()
	id := uuid.New()

	if err := store.AppendTurn(ctx, id, NewUserTurn("original")); err != nil {
		t.Fatalf("AppendTurn() error = %v", err)
	}

	turns, _ := store.ListTurns(ctx, id)
	turns[0].Content = "mutated"

	again, _ := store.ListTurns(ctx, id)
	if again[0].Content != "original" {
		t.Errorf("stored turn content = %q, want %q", again[0].Content, "original")
	}
}

func TestLocalStore_DeleteSession(t *testing.T) {
	t.Parallel()

	store := NewLocalStore()
	ctx := context.Background()
	id := uuid.New()

	if err := store.AppendTurn(ctx, id, NewUserTurn("hello")); err != nil {
		t.Fatalf("AppendTurn() error = %v", err)
	}
	if err := store.DeleteSession(ctx, id); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}

	turns, _ := store.ListTurns(ctx, id)
	if len(turns) != 0 {
		t.Errorf("ListTurns() after delete = %d turns, want 0", len(turns))
	}

	// Deleting again must still succeed.
	if err := store.DeleteSession(ctx, id); err != nil {
		t.Errorf("DeleteSession() on unknown session error = %v", err)
	}
}

func TestLocalStore_ListSummaries(t *testing.T) {
	t.Parallel()

	store := NewLocalStore()
	ctx := context.Background()

	older := uuid.New()
	newer := uuid.New()

	if err := store.AppendTurn(ctx, older, NewUserTurn("first session question")); err != nil {
		t.Fatalf("AppendTurn() error = %v", err)
	}
	if err := store.AppendTurn(ctx, newer, NewUserTurn("second session question")); err != nil {
		t.Fatalf("AppendTurn() error = %v", err)
	}

	summaries, err := store.ListSummaries(ctx)
	if err != nil {
		t.Fatalf("ListSummaries() error = %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("ListSummaries() = %d entries, want 2", len(summaries))
	}
	if summaries[0].ID != newer {
		t.Errorf("summaries[0].ID = %s, want most recent session %s", summaries[0].ID, newer)
	}
	if summaries[0].Preview != "second session question" {
		t.Errorf("summaries[0].Preview = %q, want first user turn", summaries[0].Preview)
	}
	if summaries[0].Origin != OriginLocal {
		t.Errorf("summaries[0].Origin = %q, want %q", summaries[0].Origin, OriginLocal)
	}
}
