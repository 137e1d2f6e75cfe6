package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/chronoswap/skillflux/internal/cache"
	"github.com/chronoswap/skillflux/internal/chain"
	"github.com/chronoswap/skillflux/internal/metrics"
	"github.com/chronoswap/skillflux/internal/models"
	"github.com/chronoswap/skillflux/internal/oracle"
	"github.com/chronoswap/skillflux/internal/skills"
)

// ResultTTL is how long a cached analysis stays valid.
const ResultTTL = 5 * time.Minute

// oracleService names the rate-limited external service.
const oracleService = "skill-oracle"

// oracleMarker must appear in a cached result's data source for the cache hit
// to be trusted.
const oracleMarker = "oracle"

// Engine runs one market analysis per request through four stages:
// Validate -> Acquire -> Synthesize -> Finalize.
type Engine struct {
	contractAddress string
	reader          chain.OracleReader
	parser          *oracle.Parser
	synthesizer     Synthesizer // nil disables the generative strategy
	results         cache.Cache[*models.MarketAnalysisResult]
	limiter         *cache.Limiter
	metrics         *metrics.Metrics
	log             *slog.Logger
}

func NewEngine(
	contractAddress string,
	reader chain.OracleReader,
	parser *oracle.Parser,
	synthesizer Synthesizer,
	results cache.Cache[*models.MarketAnalysisResult],
	limiter *cache.Limiter,
	m *metrics.Metrics,
	log *slog.Logger,
) *Engine {
	return &Engine{
		contractAddress: contractAddress,
		reader:          reader,
		parser:          parser,
		synthesizer:     synthesizer,
		results:         results,
		limiter:         limiter,
		metrics:         m,
		log:             log,
	}
}

// AnalyzeMarket produces a market analysis for the requested skills. It fails
// with models.ErrUnsupportedSkill, models.ErrNoOracleData, models.ErrRateLimited
// or models.ErrOracleRead; generative failures are absorbed by the
// deterministic fallback and never surfaced.
func (e *Engine) AnalyzeMarket(ctx context.Context, requested []string) (*models.MarketAnalysisResult, error) {
	// Validate
	valid := skills.Filter(requested)
	if len(valid) == 0 {
		e.metrics.AnalysisFailed("unsupported_skill")
		return nil, fmt.Errorf("validate %v: %w", requested, models.ErrUnsupportedSkill)
	}

	// Acquire
	key := e.cacheKey(valid)
	if cached, ok := e.results.Get(ctx, key); ok && strings.Contains(cached.DataSource, oracleMarker) {
		e.metrics.CacheHit()
		return cached, nil
	}
	e.metrics.CacheMiss()

	if e.limiter.IsLimited(oracleService) {
		e.metrics.RateLimited()
		return nil, fmt.Errorf("acquire pricing for %v: %w", valid, models.ErrRateLimited)
	}

	// Marked at issue time, not on completion, to bound duplicate in-flight reads.
	e.limiter.MarkCalled(oracleService)
	payload, err := e.reader.ReadSkillData(ctx, e.contractAddress)
	if err != nil {
		e.metrics.OracleReadFailed()
		e.metrics.AnalysisFailed("oracle_read")
		return nil, fmt.Errorf("%w: %v", models.ErrOracleRead, err)
	}

	records, err := e.parser.Parse(payload, valid)
	if err != nil {
		e.metrics.AnalysisFailed("no_oracle_data")
		return nil, err
	}

	// Synthesize
	synthesis, dataSource := e.synthesize(ctx, records)

	// Finalize
	result := finalize(records, synthesis, dataSource)
	e.results.Set(ctx, key, result)
	e.metrics.AnalysisCompleted()

	e.log.Info("market analysis complete",
		"skills", valid, "source", dataSource, "health", result.MarketHealth)
	return result, nil
}

// SupportedSkills returns the fixed catalog exposed to callers.
func (e *Engine) SupportedSkills() []string {
	out := make([]string, len(skills.Catalog))
	copy(out, skills.Catalog)
	return out
}

func (e *Engine) cacheKey(valid []string) string {
	sorted := make([]string, len(valid))
	copy(sorted, valid)
	sort.Strings(sorted)
	return fmt.Sprintf("market:%s:%s", e.contractAddress, strings.Join(sorted, ","))
}

// synthesize runs the generative strategy when configured and falls back to
// the deterministic one on any failure. The fallback is silent by design:
// callers get an answer either way.
func (e *Engine) synthesize(ctx context.Context, records map[string]models.SkillPriceRecord) (*Synthesis, string) {
	dataSource := recordSource(records)

	if e.synthesizer != nil {
		syn, err := e.synthesizer.Synthesize(ctx, records)
		if err == nil {
			return syn, dataSource + "+ai"
		}
		e.metrics.GenerativeFallback()
		e.log.Warn("generative synthesis failed, using deterministic strategy", "err", err)
	}

	return deterministicSynthesis(records), dataSource
}

func recordSource(records map[string]models.SkillPriceRecord) string {
	for _, rec := range records {
		return rec.Source
	}
	return oracleMarker
}

// finalize assembles the result and computes projections for every analyzed
// skill across all three horizons.
func finalize(records map[string]models.SkillPriceRecord, synthesis *Synthesis, dataSource string) *models.MarketAnalysisResult {
	analysis := make([]models.SkillPriceRecord, 0, len(records))
	var confidence float64
	for _, rec := range records {
		analysis = append(analysis, rec)
		confidence += rec.Confidence
	}
	sort.Slice(analysis, func(i, j int) bool { return analysis[i].Skill < analysis[j].Skill })
	confidence /= float64(len(records))

	return &models.MarketAnalysisResult{
		SkillAnalysis:    analysis,
		MarketSummary:    synthesis.MarketSummary,
		Recommendations:  synthesis.Recommendations,
		Insights:         synthesis.Insights,
		PriceProjections: projections(records),
		DataSource:       dataSource,
		LastUpdated:      time.Now(),
		Confidence:       confidence,
		MarketHealth:     synthesis.MarketHealth,
	}
}
