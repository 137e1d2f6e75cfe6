package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/chronoswap/skillflux/internal/models"
	"github.com/chronoswap/skillflux/internal/skills"
)

// Multipliers of the price-projection model. Projected rate is
// base × trend × demand × competition × horizon.
var (
	trendMultipliers = map[models.Trend]decimal.Decimal{
		models.TrendDeclining: decimal.NewFromFloat(0.95),
		models.TrendStable:    decimal.NewFromInt(1),
		models.TrendGrowing:   decimal.NewFromFloat(1.05),
		models.TrendSurging:   decimal.NewFromFloat(1.15),
	}

	demandMultipliers = map[models.DemandLevel]decimal.Decimal{
		models.DemandLow:      decimal.NewFromFloat(0.95),
		models.DemandMedium:   decimal.NewFromInt(1),
		models.DemandHigh:     decimal.NewFromFloat(1.03),
		models.DemandVeryHigh: decimal.NewFromFloat(1.08),
	}

	horizonGrowth3m  = decimal.NewFromFloat(1.02)
	horizonGrowth6m  = decimal.NewFromFloat(1.05)
	horizonGrowth12m = decimal.NewFromFloat(1.12)

	competitionBase  = decimal.NewFromFloat(1.05)
	competitionStep  = decimal.NewFromFloat(0.005)
	competitionFloor = decimal.NewFromFloat(0.98)
)

func competitionFactor(competition int) decimal.Decimal {
	f := competitionBase.Sub(decimal.NewFromInt(int64(competition)).Mul(competitionStep))
	if f.LessThan(competitionFloor) {
		return competitionFloor
	}
	return f
}

// projectRate applies the multiplicative projection model for one horizon.
func projectRate(rec models.SkillPriceRecord, horizon decimal.Decimal) decimal.Decimal {
	return rec.Price.
		Mul(trendMultipliers[rec.Trend]).
		Mul(demandMultipliers[skills.DemandLevel(rec.Demand)]).
		Mul(competitionFactor(rec.Competition)).
		Mul(horizon)
}

func projections(records map[string]models.SkillPriceRecord) models.PriceProjections {
	p := models.PriceProjections{
		ThreeMonths:  make(map[string]decimal.Decimal, len(records)),
		SixMonths:    make(map[string]decimal.Decimal, len(records)),
		TwelveMonths: make(map[string]decimal.Decimal, len(records)),
	}
	for skill, rec := range records {
		p.ThreeMonths[skill] = projectRate(rec, horizonGrowth3m)
		p.SixMonths[skill] = projectRate(rec, horizonGrowth6m)
		p.TwelveMonths[skill] = projectRate(rec, horizonGrowth12m)
	}
	return p
}

func summarize(records map[string]models.SkillPriceRecord) models.MarketSummary {
	byPrice := make([]models.SkillPriceRecord, 0, len(records))
	for _, rec := range records {
		byPrice = append(byPrice, rec)
	}
	sort.Slice(byPrice, func(i, j int) bool {
		if !byPrice[i].Price.Equal(byPrice[j].Price) {
			return byPrice[i].Price.GreaterThan(byPrice[j].Price)
		}
		return byPrice[i].Skill < byPrice[j].Skill
	})

	summary := models.MarketSummary{}
	for i := 0; i < len(byPrice) && i < 3; i++ {
		summary.TopPayingSkills = append(summary.TopPayingSkills, byPrice[i].Skill)
	}

	for _, rec := range byPrice {
		level := skills.DemandLevel(rec.Demand)
		if rec.Trend == models.TrendSurging ||
			(rec.Trend == models.TrendGrowing && level == models.DemandVeryHigh) {
			summary.EmergingSkills = append(summary.EmergingSkills, rec.Skill)
		}
		if rec.Competition > 7 && level != models.DemandVeryHigh {
			summary.OversaturatedSkills = append(summary.OversaturatedSkills, rec.Skill)
		}
	}

	summary.DemandHotspots = hotspots(byPrice)
	return summary
}

// hotspots names the regions where current conditions concentrate demand. The
// marketplace is remote-first, so "Remote" is always listed.
func hotspots(records []models.SkillPriceRecord) []string {
	spots := []string{"Remote"}

	var veryHigh, surging bool
	for _, rec := range records {
		if skills.DemandLevel(rec.Demand) == models.DemandVeryHigh {
			veryHigh = true
		}
		if rec.Trend == models.TrendSurging {
			surging = true
		}
	}
	if veryHigh {
		spots = append(spots, "North America", "Western Europe")
	}
	if surging {
		spots = append(spots, "Asia-Pacific")
	}
	return spots
}

func computeHealth(records map[string]models.SkillPriceRecord) models.MarketHealth {
	if len(records) == 0 {
		return models.HealthPoor
	}

	total := decimal.Zero
	var highDemand, growing int
	for _, rec := range records {
		total = total.Add(rec.Price)
		switch skills.DemandLevel(rec.Demand) {
		case models.DemandHigh, models.DemandVeryHigh:
			highDemand++
		}
		if rec.Trend == models.TrendGrowing || rec.Trend == models.TrendSurging {
			growing++
		}
	}

	n := int64(len(records))
	mean := total.Div(decimal.NewFromInt(n)).InexactFloat64()
	demandRatio := float64(highDemand) / float64(n)
	growthRatio := float64(growing) / float64(n)

	switch {
	case mean >= 100 && demandRatio >= 0.7 && growthRatio >= 0.5:
		return models.HealthExcellent
	case mean >= 80 && demandRatio >= 0.5 && growthRatio >= 0.3:
		return models.HealthGood
	case mean >= 60 && demandRatio >= 0.3:
		return models.HealthFair
	default:
		return models.HealthPoor
	}
}

func buildRecommendations(summary models.MarketSummary, records map[string]models.SkillPriceRecord) models.Recommendations {
	rec := models.Recommendations{}

	for _, skill := range summary.TopPayingSkills {
		rec.Immediate = append(rec.Immediate,
			fmt.Sprintf("List %s availability now; current oracle rate is %s/hr", skill, records[skill].Price.Round(2)))
	}
	if len(summary.EmergingSkills) > 0 {
		rec.ShortTerm = append(rec.ShortTerm,
			fmt.Sprintf("Build a track record in %s before rates peak", strings.Join(summary.EmergingSkills, ", ")))
	}
	rec.ShortTerm = append(rec.ShortTerm, "Review listed rates against the coming 3-month projections")
	rec.MediumTerm = append(rec.MediumTerm,
		"Invest in certifications for high-demand skills to justify premium rates")
	if len(summary.OversaturatedSkills) > 0 {
		rec.LongTerm = append(rec.LongTerm,
			fmt.Sprintf("Reduce dependence on %s; competition is eroding margins", strings.Join(summary.OversaturatedSkills, ", ")))
	}
	rec.LongTerm = append(rec.LongTerm, "Diversify across at least two surging skill tracks")

	return rec
}

func buildInsights(summary models.MarketSummary, health models.MarketHealth) models.Insights {
	ins := models.Insights{}

	for _, skill := range summary.EmergingSkills {
		ins.Opportunities = append(ins.Opportunities,
			fmt.Sprintf("%s demand is outpacing available sellers", skill))
	}
	if len(ins.Opportunities) == 0 {
		ins.Opportunities = append(ins.Opportunities, "Stable pricing favors long-horizon engagements")
	}

	for _, skill := range summary.OversaturatedSkills {
		ins.Threats = append(ins.Threats,
			fmt.Sprintf("%s is oversaturated; expect downward rate pressure", skill))
	}
	if health == models.HealthPoor {
		ins.Threats = append(ins.Threats, "Overall market conditions currently favor buyers")
	}

	ins.Advantages = append(ins.Advantages,
		"On-chain settlement removes payment risk for cross-border engagements",
		"Oracle-published rates give sellers transparent price discovery")

	return ins
}

// deterministicSynthesis is the strategy of record: a pure function of the
// acquired pricing data, used directly when no generative client is configured
// and as the fallback whenever generative output fails validation.
func deterministicSynthesis(records map[string]models.SkillPriceRecord) *Synthesis {
	summary := summarize(records)
	health := computeHealth(records)
	return &Synthesis{
		MarketSummary:   summary,
		Recommendations: buildRecommendations(summary, records),
		Insights:        buildInsights(summary, health),
		MarketHealth:    health,
	}
}
