package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronoswap/skillflux/internal/cache"
	"github.com/chronoswap/skillflux/internal/models"
	"github.com/chronoswap/skillflux/internal/oracle"
	"github.com/chronoswap/skillflux/internal/skills"
)

const testContract = "0x000000000000000000000000000000000000beef"

type fakeReader struct {
	payload string
	err     error
	calls   int
}

func (r *fakeReader) ReadSkillData(_ context.Context, _ string) (string, error) {
	r.calls++
	if r.err != nil {
		return "", r.err
	}
	return r.payload, nil
}

type fakeSynthesizer struct {
	synthesis *Synthesis
	err       error
	calls     int
}

func (s *fakeSynthesizer) Synthesize(_ context.Context, _ map[string]models.SkillPriceRecord) (*Synthesis, error) {
	s.calls++
	return s.synthesis, s.err
}

func newTestEngine(reader *fakeReader, synth Synthesizer) *Engine {
	return NewEngine(
		testContract,
		reader,
		oracle.NewParser(skills.NewEnricher()),
		synth,
		cache.NewStore[*models.MarketAnalysisResult](30*time.Second),
		cache.NewLimiter(10*time.Second),
		nil,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func TestAnalyzeMarket_UnsupportedSkill(t *testing.T) {
	e := newTestEngine(&fakeReader{payload: "defi|120"}, nil)

	_, err := e.AnalyzeMarket(context.Background(), []string{"unicorn"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrUnsupportedSkill))
}

func TestAnalyzeMarket_Deterministic(t *testing.T) {
	reader := &fakeReader{payload: "defi|120,ai|135,frontend|65"}
	e := newTestEngine(reader, nil)

	result, err := e.AnalyzeMarket(context.Background(), []string{"defi", "ai", "frontend"})
	require.NoError(t, err)

	assert.Len(t, result.SkillAnalysis, 3)
	assert.Equal(t, oracle.SourceCompressed, result.DataSource)
	assert.Equal(t, []string{"ai", "defi", "frontend"}, result.MarketSummary.TopPayingSkills)

	// Every analyzed skill must be keyed in every projection horizon.
	for _, rec := range result.SkillAnalysis {
		assert.Contains(t, result.PriceProjections.ThreeMonths, rec.Skill)
		assert.Contains(t, result.PriceProjections.SixMonths, rec.Skill)
		assert.Contains(t, result.PriceProjections.TwelveMonths, rec.Skill)
	}

	assert.InDelta(t, 0.85, result.Confidence, 1e-9)
	assert.False(t, result.LastUpdated.IsZero())
}

func TestAnalyzeMarket_CacheHit(t *testing.T) {
	reader := &fakeReader{payload: "defi|120,ai|135"}
	e := newTestEngine(reader, nil)
	ctx := context.Background()

	first, err := e.AnalyzeMarket(ctx, []string{"defi", "ai"})
	require.NoError(t, err)

	// Skill order must not defeat the cache key.
	second, err := e.AnalyzeMarket(ctx, []string{"AI", "defi"})
	require.NoError(t, err)

	assert.Equal(t, 1, reader.calls, "second analysis must be served from cache")
	assert.Equal(t, first, second)
}

func TestAnalyzeMarket_RateLimited(t *testing.T) {
	reader := &fakeReader{payload: "defi|120,ai|135"}
	e := newTestEngine(reader, nil)
	ctx := context.Background()

	_, err := e.AnalyzeMarket(ctx, []string{"defi"})
	require.NoError(t, err)

	// Different skill set misses the cache, and the oracle was called <10s ago.
	_, err = e.AnalyzeMarket(ctx, []string{"ai"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrRateLimited))
	assert.Equal(t, 1, reader.calls)
}

func TestAnalyzeMarket_OracleReadFailure(t *testing.T) {
	reader := &fakeReader{err: fmt.Errorf("rpc timeout")}
	e := newTestEngine(reader, nil)

	_, err := e.AnalyzeMarket(context.Background(), []string{"defi"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrOracleRead))
}

func TestAnalyzeMarket_NoOracleData(t *testing.T) {
	reader := &fakeReader{payload: "pure nonsense"}
	e := newTestEngine(reader, nil)

	_, err := e.AnalyzeMarket(context.Background(), []string{"defi"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNoOracleData))
}

func TestAnalyzeMarket_GenerativeSynthesis(t *testing.T) {
	reader := &fakeReader{payload: "defi|120,ai|135"}
	synth := &fakeSynthesizer{synthesis: &Synthesis{
		MarketSummary: models.MarketSummary{TopPayingSkills: []string{"ai"}},
		MarketHealth:  models.HealthGood,
	}}
	e := newTestEngine(reader, synth)

	result, err := e.AnalyzeMarket(context.Background(), []string{"defi", "ai"})
	require.NoError(t, err)

	assert.Equal(t, 1, synth.calls)
	assert.Equal(t, oracle.SourceCompressed+"+ai", result.DataSource)
	assert.Equal(t, models.HealthGood, result.MarketHealth)
	assert.Equal(t, []string{"ai"}, result.MarketSummary.TopPayingSkills)

	// Projections stay deterministic even on the generative path.
	assert.Contains(t, result.PriceProjections.ThreeMonths, "defi")
	assert.Contains(t, result.PriceProjections.TwelveMonths, "ai")
}

func TestAnalyzeMarket_GenerativeFallback(t *testing.T) {
	reader := &fakeReader{payload: "defi|120,ai|135"}
	synth := &fakeSynthesizer{err: fmt.Errorf("model unreachable")}
	e := newTestEngine(reader, synth)

	result, err := e.AnalyzeMarket(context.Background(), []string{"defi", "ai"})
	require.NoError(t, err, "generative failure must never surface")

	assert.Equal(t, oracle.SourceCompressed, result.DataSource)
	assert.Equal(t, models.HealthExcellent, result.MarketHealth, "deterministic health applies")
}

func TestSupportedSkills(t *testing.T) {
	e := newTestEngine(&fakeReader{}, nil)
	got := e.SupportedSkills()
	assert.Equal(t, skills.Catalog, got)

	// Mutating the returned slice must not corrupt the catalog.
	got[0] = "mutated"
	assert.NotEqual(t, "mutated", skills.Catalog[0])
}
