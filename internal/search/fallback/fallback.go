// Package fallback produces plausible substitute results when a live
// provider cannot serve a request. Two tiers: a generative text model, and a
// purely algorithmic synthetic generator that cannot fail. Every record is
// tagged as generated so the UI can disclose that the data is illustrative.
package fallback

import (
	"context"

	"tripsearch_backend/internal/search/domain"
	"tripsearch_backend/platform/logger"
)

// Request carries the same resolved query parameters the failing adapter
// would have used.
type Request struct {
	Category    domain.Category
	Origin      string
	Destination string
	City        string
	Date        string
	Checkout    string
	Travelers   int
	BudgetMin   float64
	BudgetMax   float64
}

// Generator is the two-tier fallback. A nil LLM client skips straight to the
// synthetic tier.
type Generator struct {
	llm *LLMClient
	log *logger.Logger
}

func NewGenerator(llm *LLMClient, log *logger.Logger) *Generator {
	return &Generator{llm: llm, log: log}
}

// Options produces a non-empty substitute result set. The model tier is
// tried first; output that fails to parse as valid structured data degrades
// to the synthetic tier, which always succeeds.
func (g *Generator) Options(ctx context.Context, req Request) []domain.Option {
	if g.llm != nil {
		options, err := g.llm.GenerateOptions(ctx, req)
		if err == nil {
			g.log.FallbackUsed(string(req.Category), "model", len(options))
			return options
		}
		g.log.Warn("fallback model tier failed", "category", req.Category, "error", err)
	}

	options := synthesize(req)
	g.log.FallbackUsed(string(req.Category), "synthetic", len(options))
	return options
}
