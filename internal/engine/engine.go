// Package engine orchestrates one question through the query pipeline:
// bound the conversational context, retrieve relevant policy chunks,
// synthesize an answer, and persist the exchange to session memory.
//
// Each question runs to a terminal state. Retrieval failures degrade to
// an ungrounded answer rather than aborting; a generation failure
// persists a fixed apology turn so session history stays consistent.
// Either way the session gains exactly one user turn and one assistant
// turn per question.
package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/policyq/policyq/internal/log"
	"github.com/policyq/policyq/internal/retrieval"
	"github.com/policyq/policyq/internal/session"
)

// ApologyMessage is persisted and returned when answer generation fails.
const ApologyMessage = "Unable to process your request at this time. Please try again or contact HR support for assistance."

// Memory is what the engine needs from session storage.
type Memory interface {
	Append(ctx context.Context, sessionID uuid.UUID, turn session.Turn) error
	History(ctx context.Context, sessionID uuid.UUID) []session.Turn
}

// Retriever finds policy chunks relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string) (retrieval.Result, error)
}

// Synthesizer produces an answer from the question, the bounded context
// turns, and the retrieved chunks.
type Synthesizer interface {
	Synthesize(ctx context.Context, question string, contextTurns []session.Turn, result retrieval.Result) (string, error)
}

// Answer is the outcome of one question.
type Answer struct {
	SessionID uuid.UUID             `json:"session_id"`
	Text      string                `json:"text"`
	Sources   []session.SourceChunk `json:"sources,omitempty"`

	// Degraded is set when Text is the apology message rather than a
	// generated answer.
	Degraded bool `json:"degraded,omitempty"`
}

// Engine drives the question pipeline. It holds no per-question state
// and is safe for concurrent use across sessions.
type Engine struct {
	memory       Memory
	retriever    Retriever
	synthesizer  Synthesizer
	historyPairs int
	logger       log.Logger
}

// New creates an engine. historyPairs is the number of prior Q/A pairs
// forwarded as conversational context.
func New(memory Memory, retriever Retriever, synthesizer Synthesizer, historyPairs int, logger log.Logger) *Engine {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Engine{
		memory:       memory,
		retriever:    retriever,
		synthesizer:  synthesizer,
		historyPairs: historyPairs,
		logger:       logger,
	}
}

// Ask answers one question within the given session. The returned Answer
// is always usable: pipeline failures surface as the apology text with
// Degraded set, not as an error. The only error is an empty question,
// which never enters the pipeline.
func (e *Engine) Ask(ctx context.Context, sessionID uuid.UUID, question string) (Answer, error) {
	if strings.TrimSpace(question) == "" {
		return Answer{}, fmt.Errorf("empty question")
	}

	history := e.memory.History(ctx, sessionID)
	contextTurns := contextWindow(history, e.historyPairs)

	result, err := e.retriever.Retrieve(ctx, question)
	if err != nil {
		// A source-less answer beats no answer: proceed with an empty
		// result instead of aborting.
		e.logger.Warn("retrieval failed, answering without sources",
			"session_id", sessionID, "error", err)
		result = retrieval.Result{}
	}

	answer := Answer{SessionID: sessionID}
	text, err := e.synthesizer.Synthesize(ctx, question, contextTurns, result)
	if err != nil {
		e.logger.Error("generation failed, persisting apology turn",
			"session_id", sessionID, "error", err)
		answer.Text = ApologyMessage
		answer.Degraded = true
	} else {
		answer.Text = text
		answer.Sources = toSourceChunks(result)
	}

	// Persist the pair last so the session always advances by exactly
	// two turns, real answer or not. Memory absorbs storage failures.
	if err := e.memory.Append(ctx, sessionID, session.NewUserTurn(question)); err != nil {
		return Answer{}, fmt.Errorf("appending user turn: %w", err)
	}
	if err := e.memory.Append(ctx, sessionID, session.NewAssistantTurn(answer.Text, answer.Sources)); err != nil {
		return Answer{}, fmt.Errorf("appending assistant turn: %w", err)
	}

	return answer, nil
}

func toSourceChunks(result retrieval.Result) []session.SourceChunk {
	if result.Empty() {
		return nil
	}
	sources := make([]session.SourceChunk, 0, len(result.Chunks))
	for _, c := range result.Chunks {
		sources = append(sources, session.SourceChunk{
			Text:       c.Text,
			Page:       c.Page,
			DocumentID: c.DocumentID,
		})
	}
	return sources
}
