package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/policyq/policyq/internal/config"
	"github.com/policyq/policyq/internal/session"
)

// runSessions dispatches the sessions subcommands. Session management only
// needs the database, so it skips model provider setup entirely.
func runSessions() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: policyq sessions <list|delete>")
	}

	switch os.Args[2] {
	case "list":
		return runSessionsList()
	case "delete":
		return runSessionsDelete()
	default:
		return fmt.Errorf("unknown sessions subcommand: %s", os.Args[2])
	}
}

// openSessionMemory connects to PostgreSQL and builds the two-tier session
// memory used by the CLI session commands.
func openSessionMemory(ctx context.Context) (*session.Memory, *pgxpool.Pool, error) {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	pool, err := pgxpool.New(ctx, cfg.PostgresConnectionString())
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to PostgreSQL: %w", err)
	}

	primary := session.NewPostgresStore(pool, logger)
	memory := session.NewMemory(primary, session.NewLocalStore(), cfg.PreviewLength, logger)
	return memory, pool, nil
}

func runSessionsList() error {
	ctx := context.Background()
	memory, pool, err := openSessionMemory(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	summaries := memory.Sessions(ctx)
	if len(summaries) == 0 {
		fmt.Println("No sessions found.")
		return nil
	}

	fmt.Printf("%d session(s):\n", len(summaries))
	for _, s := range summaries {
		fmt.Printf("  %s  %-33s  %s\n", s.ID, s.Preview, formatTime(s.LastActivity))
	}
	return nil
}

func runSessionsDelete() error {
	if len(os.Args) < 4 {
		return fmt.Errorf("usage: policyq sessions delete <session-id>")
	}

	sessionID, err := uuid.Parse(os.Args[3])
	if err != nil {
		return fmt.Errorf("invalid session ID %q: %w", os.Args[3], err)
	}

	ctx := context.Background()
	memory, pool, err := openSessionMemory(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := memory.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}

	fmt.Printf("Deleted session %s\n", sessionID)
	return nil
}

// formatTime formats time in a human-readable format.
func formatTime(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%d minutes ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%d days ago", int(diff.Hours()/24))
	default:
		return t.Format("2006-01-02 15:04")
	}
}
