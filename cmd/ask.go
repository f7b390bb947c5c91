package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/policyq/policyq/internal/app"
	"github.com/policyq/policyq/internal/config"
)

// runAsk answers a single question from the terminal. Passing --session
// continues an existing conversation so follow-up questions resolve
// against its history.
func runAsk() error {
	logger := newLogger()

	askFlags := flag.NewFlagSet("ask", flag.ContinueOnError)
	askFlags.SetOutput(os.Stderr)
	sessionFlag := askFlags.String("session", "", "Session ID to continue (default: new session)")
	showSources := askFlags.Bool("sources", false, "Print the source chunks behind the answer")

	args := []string{}
	if len(os.Args) > 2 {
		args = os.Args[2:]
	}
	if err := askFlags.Parse(args); err != nil {
		return fmt.Errorf("parsing ask flags: %w", err)
	}

	question := strings.TrimSpace(strings.Join(askFlags.Args(), " "))
	if question == "" {
		return fmt.Errorf("usage: policyq ask [--session <id>] <question>")
	}

	sessionID := uuid.New()
	if *sessionFlag != "" {
		parsed, err := uuid.Parse(*sessionFlag)
		if err != nil {
			return fmt.Errorf("invalid session ID %q: %w", *sessionFlag, err)
		}
		sessionID = parsed
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx := context.Background()
	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer a.Close()

	answer, err := a.Engine.Ask(ctx, sessionID, question)
	if err != nil {
		return fmt.Errorf("answering question: %w", err)
	}

	fmt.Println(answer.Text)

	if *showSources && len(answer.Sources) > 0 {
		fmt.Println()
		fmt.Println("Sources:")
		for _, src := range answer.Sources {
			fmt.Printf("  %s (page %d)\n", src.DocumentID, src.Page)
		}
	}

	fmt.Fprintf(os.Stderr, "\nSession: %s\n", answer.SessionID)
	return nil
}
