package analysis

import (
	"context"

	"github.com/chronoswap/skillflux/internal/models"
)

// Synthesis is the narrative portion of a market analysis: everything a
// generative model is allowed to supply. Per-skill records and price
// projections are always computed deterministically and never delegated.
type Synthesis struct {
	MarketSummary   models.MarketSummary   `json:"market_summary"`
	Recommendations models.Recommendations `json:"recommendations"`
	Insights        models.Insights        `json:"insights"`
	MarketHealth    models.MarketHealth    `json:"market_health"`
}

// Synthesizer produces a Synthesis from acquired skill pricing. A failing or
// malformed synthesis is never retried; the engine falls back to the
// deterministic strategy instead.
type Synthesizer interface {
	Synthesize(ctx context.Context, records map[string]models.SkillPriceRecord) (*Synthesis, error)
}
