// Package app wires configuration, storage, and AI services into the
// query engine and owns their lifecycles.
package app

import (
	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/policyq/policyq/internal/config"
	"github.com/policyq/policyq/internal/engine"
	"github.com/policyq/policyq/internal/log"
	"github.com/policyq/policyq/internal/retrieval"
	"github.com/policyq/policyq/internal/session"
)

// generateRequestsPerMinute caps generation calls across all sessions.
const generateRequestsPerMinute = 30

// App holds the assembled application components.
type App struct {
	Config   *config.Config
	Logger   log.Logger
	DBPool   *pgxpool.Pool
	Genkit   *genkit.Genkit
	Embedder ai.Embedder

	Memory    *session.Memory
	Retriever *retrieval.Retriever
	Engine    *engine.Engine
}

// Close releases everything the app owns. Safe to call on a partially
// initialized app.
func (a *App) Close() {
	if a.DBPool != nil {
		a.DBPool.Close()
	}
}
