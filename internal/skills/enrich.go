package skills

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/shopspring/decimal"

	"github.com/chronoswap/skillflux/internal/models"
)

// Baseline holds hand-tuned market attributes for one catalog skill.
type Baseline struct {
	Demand           int          `koanf:"demand" json:"demand"`
	Volume           int          `koanf:"volume" json:"volume"`
	Competition      int          `koanf:"competition" json:"competition"`
	Trend            models.Trend `koanf:"trend" json:"trend"`
	RegionMultiplier float64      `koanf:"region_multiplier" json:"region_multiplier"`
}

// Attributes is what enrichment contributes to a SkillPriceRecord.
type Attributes struct {
	Demand           int
	Volume           int
	Competition      int
	Trend            models.Trend
	RegionMultiplier decimal.Decimal
}

// defaultBaselines reflect relative market position of each skill. They are a
// documented heuristic, not a statistical model; downstream parity tests
// depend on the exact values.
var defaultBaselines = map[string]Baseline{
	"blockchain": {Demand: 88, Volume: 1800, Competition: 5, Trend: models.TrendGrowing, RegionMultiplier: 1.4},
	"defi":       {Demand: 92, Volume: 1400, Competition: 4, Trend: models.TrendSurging, RegionMultiplier: 1.5},
	"nft":        {Demand: 60, Volume: 800, Competition: 6, Trend: models.TrendDeclining, RegionMultiplier: 0.85},
	"solidity":   {Demand: 93, Volume: 950, Competition: 3, Trend: models.TrendSurging, RegionMultiplier: 1.55},
	"rust":       {Demand: 89, Volume: 700, Competition: 3, Trend: models.TrendGrowing, RegionMultiplier: 1.45},
	"ai":         {Demand: 95, Volume: 2100, Competition: 5, Trend: models.TrendSurging, RegionMultiplier: 1.6},
	"frontend":   {Demand: 75, Volume: 3200, Competition: 8, Trend: models.TrendStable, RegionMultiplier: 1.0},
	"backend":    {Demand: 80, Volume: 2800, Competition: 7, Trend: models.TrendStable, RegionMultiplier: 1.1},
	"mobile":     {Demand: 72, Volume: 1600, Competition: 7, Trend: models.TrendStable, RegionMultiplier: 1.0},
	"security":   {Demand: 90, Volume: 900, Competition: 3, Trend: models.TrendSurging, RegionMultiplier: 1.5},
	"design":     {Demand: 68, Volume: 2200, Competition: 8, Trend: models.TrendStable, RegionMultiplier: 0.95},
	"marketing":  {Demand: 65, Volume: 2500, Competition: 9, Trend: models.TrendStable, RegionMultiplier: 0.9},
}

// Enricher supplies demand/volume/competition/trend estimates for a skill
// whose oracle entry carries only a raw rate.
type Enricher struct {
	baselines map[string]Baseline
}

// NewEnricher builds an enricher from the compiled-in baseline table.
func NewEnricher() *Enricher {
	baselines := make(map[string]Baseline, len(defaultBaselines))
	for k, v := range defaultBaselines {
		baselines[k] = v
	}
	return &Enricher{baselines: baselines}
}

// LoadEnricher layers an optional YAML file and SKILLFLUX_-prefixed env vars
// over the compiled-in baselines. Env keys use a double underscore as the
// nesting separator: SKILLFLUX_DEFI__DEMAND=95 overrides defi.demand.
func LoadEnricher(path string) (*Enricher, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load baseline file: %w", err)
		}
	}

	envProvider := env.Provider("SKILLFLUX_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "SKILLFLUX_"))
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load baseline env: %w", err)
	}

	e := NewEnricher()
	overrides := make(map[string]Baseline)
	if err := k.UnmarshalWithConf("", &overrides, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("unmarshal baselines: %w", err)
	}
	for name, b := range overrides {
		e.baselines[Canonical(name)] = b
	}
	return e, nil
}

// Enrich returns market attributes for a skill given its raw hourly rate.
// Skills absent from the baseline table get rate-derived defaults.
func (e *Enricher) Enrich(skill string, rate decimal.Decimal) Attributes {
	if b, ok := e.baselines[Canonical(skill)]; ok {
		return Attributes{
			Demand:           b.Demand,
			Volume:           b.Volume,
			Competition:      b.Competition,
			Trend:            b.Trend,
			RegionMultiplier: decimal.NewFromFloat(b.RegionMultiplier),
		}
	}
	return rateDerived(rate)
}

func rateDerived(rate decimal.Decimal) Attributes {
	r := rate.InexactFloat64()

	demand := 70
	competition := 7
	trend := models.TrendStable
	switch {
	case r > 100:
		demand, competition, trend = 90, 3, models.TrendSurging
	case r > 80:
		demand, competition, trend = 80, 5, models.TrendGrowing
	}

	multiplier := rate.Div(decimal.NewFromInt(80))
	lo, hi := decimal.NewFromFloat(0.8), decimal.NewFromInt(2)
	if multiplier.LessThan(lo) {
		multiplier = lo
	}
	if multiplier.GreaterThan(hi) {
		multiplier = hi
	}

	return Attributes{
		Demand:           demand,
		Volume:           600 + int(r*5),
		Competition:      competition,
		Trend:            trend,
		RegionMultiplier: multiplier,
	}
}
