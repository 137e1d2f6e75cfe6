package skills

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronoswap/skillflux/internal/models"
)

func TestFilter(t *testing.T) {
	got := Filter([]string{" DeFi ", "unicorn", "ai", "defi", "AI"})
	assert.Equal(t, []string{"defi", "ai"}, got)

	assert.Empty(t, Filter([]string{"unicorn", "dragon"}))
}

func TestDemandLevel(t *testing.T) {
	assert.Equal(t, models.DemandVeryHigh, DemandLevel(92))
	assert.Equal(t, models.DemandVeryHigh, DemandLevel(85))
	assert.Equal(t, models.DemandHigh, DemandLevel(70))
	assert.Equal(t, models.DemandMedium, DemandLevel(50))
	assert.Equal(t, models.DemandLow, DemandLevel(49))
}

func TestEnricher_Baseline(t *testing.T) {
	e := NewEnricher()

	attrs := e.Enrich("defi", decimal.NewFromInt(120))
	assert.Equal(t, 92, attrs.Demand)
	assert.Equal(t, 4, attrs.Competition)
	assert.Equal(t, models.TrendSurging, attrs.Trend)
	assert.True(t, attrs.RegionMultiplier.Equal(decimal.NewFromFloat(1.5)))
}

func TestEnricher_RateDerivedDefaults(t *testing.T) {
	e := NewEnricher()

	tests := []struct {
		name        string
		rate        int64
		demand      int
		volume      int
		competition int
		trend       models.Trend
		multiplier  string
	}{
		{"above 100", 120, 90, 1200, 3, models.TrendSurging, "1.5"},
		{"above 80", 90, 80, 1050, 5, models.TrendGrowing, "1.125"},
		{"baseline", 60, 70, 900, 7, models.TrendStable, "0.8"},
		{"clamped high", 200, 90, 1600, 3, models.TrendSurging, "2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs := e.Enrich("cobol", decimal.NewFromInt(tt.rate))
			assert.Equal(t, tt.demand, attrs.Demand)
			assert.Equal(t, tt.volume, attrs.Volume)
			assert.Equal(t, tt.competition, attrs.Competition)
			assert.Equal(t, tt.trend, attrs.Trend)
			assert.True(t, attrs.RegionMultiplier.Equal(decimal.RequireFromString(tt.multiplier)),
				"multiplier %s != %s", attrs.RegionMultiplier, tt.multiplier)
		})
	}
}

func TestLoadEnricher_FileOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "baselines.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
defi:
  demand: 50
  volume: 100
  competition: 9
  trend: declining
  region_multiplier: 0.7
`), 0o600))

	e, err := LoadEnricher(path)
	require.NoError(t, err)

	attrs := e.Enrich("defi", decimal.NewFromInt(120))
	assert.Equal(t, 50, attrs.Demand)
	assert.Equal(t, models.TrendDeclining, attrs.Trend)

	// Untouched skills keep compiled-in values.
	ai := e.Enrich("ai", decimal.NewFromInt(120))
	assert.Equal(t, 95, ai.Demand)
}
