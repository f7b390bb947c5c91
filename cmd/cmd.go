// Package cmd provides the policyq command line interface.
//
// Commands:
//   - serve: HTTP API server for querying the policy corpus
//   - ask: one-shot question answering from the terminal
//   - sessions: list and delete stored conversation sessions
//
// Signal handling and graceful shutdown are implemented for the serve
// command via context cancellation.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/policyq/policyq/internal/log"
)

// Execute is the main entry point for the policyq CLI application.
func Execute() error {
	if len(os.Args) < 2 {
		runHelp()
		return nil
	}

	switch os.Args[1] {
	case "serve":
		return runServe()
	case "ask":
		return runAsk()
	case "sessions":
		return runSessions()
	case "version", "--version", "-v":
		runVersion()
		return nil
	case "help", "--help", "-h":
		runHelp()
		return nil
	default:
		return fmt.Errorf("unknown command: %s", os.Args[1])
	}
}

// newLogger builds the process logger. Log level is controlled by the
// DEBUG environment variable.
func newLogger() log.Logger {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	return log.New(log.Config{Level: level})
}

// runHelp displays the help message.
func runHelp() {
	fmt.Println("policyq - Question answering over your policy documents")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  policyq serve [addr]             Start HTTP API server (default: 127.0.0.1:3400)")
	fmt.Println("  policyq ask <question>           Ask a question from the terminal")
	fmt.Println("  policyq sessions list            List stored sessions")
	fmt.Println("  policyq sessions delete <id>     Delete a session and its turns")
	fmt.Println("  policyq --version                Show version information")
	fmt.Println("  policyq --help                   Show this help")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  GEMINI_API_KEY     Required for the gemini provider")
	fmt.Println("  POLICYQ_PROVIDER   Optional: gemini (default) or ollama")
	fmt.Println("  DEBUG              Optional: Enable debug logging")
}
