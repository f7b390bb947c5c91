package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"golang.org/x/time/rate"

	"github.com/policyq/policyq/internal/log"
	"github.com/policyq/policyq/internal/retrieval"
	"github.com/policyq/policyq/internal/session"
)

// generateTimeout bounds one generation call.
const generateTimeout = 60 * time.Second

// GenkitSynthesizer produces answers through a Genkit model. It makes
// exactly one generation call per question: failures are surfaced, never
// retried, since repeated calls burn quota without a correctness gain.
type GenkitSynthesizer struct {
	g           *genkit.Genkit
	modelName   string
	temperature float64
	maxTokens   int
	limiter     *rate.Limiter
	logger      log.Logger
}

// NewGenkitSynthesizer creates a synthesizer for the named model.
// requestsPerMinute caps the generation call rate across sessions; values
// below one disable limiting.
func NewGenkitSynthesizer(g *genkit.Genkit, modelName string, temperature float64, maxTokens int, requestsPerMinute int, logger log.Logger) *GenkitSynthesizer {
	if logger == nil {
		logger = log.NewNop()
	}
	limit := rate.Inf
	if requestsPerMinute >= 1 {
		limit = rate.Limit(float64(requestsPerMinute) / 60)
	}
	return &GenkitSynthesizer{
		g:           g,
		modelName:   modelName,
		temperature: temperature,
		maxTokens:   maxTokens,
		limiter:     rate.NewLimiter(limit, 1),
		logger:      logger,
	}
}

// Synthesize builds the message sequence (system instructions plus
// retrieved chunks, the bounded context turns in original order, then the
// unmodified question as the final user message) and invokes the model
// once. The completion text is returned verbatim.
func (s *GenkitSynthesizer) Synthesize(ctx context.Context, question string, contextTurns []session.Turn, result retrieval.Result) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %w", ErrGenerationUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	messages := make([]*ai.Message, 0, len(contextTurns)+1)
	for _, turn := range contextTurns {
		switch turn.Role {
		case session.RoleAssistant:
			messages = append(messages, ai.NewModelMessage(ai.NewTextPart(turn.Content)))
		default:
			messages = append(messages, ai.NewUserMessage(ai.NewTextPart(turn.Content)))
		}
	}
	messages = append(messages, ai.NewUserMessage(ai.NewTextPart(question)))

	resp, err := genkit.Generate(ctx, s.g,
		ai.WithModelName(s.modelName),
		ai.WithSystem(buildSystemMessage(result)),
		ai.WithMessages(messages...),
		ai.WithConfig(&ai.GenerationCommonConfig{
			Temperature:     s.temperature,
			MaxOutputTokens: s.maxTokens,
		}),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGenerationUnavailable, err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty completion", ErrGenerationUnavailable)
	}

	s.logger.Debug("answer synthesized",
		"model", s.modelName,
		"context_turns", len(contextTurns),
		"chunks", len(result.Chunks))

	return text, nil
}
