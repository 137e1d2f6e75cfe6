package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trend describes the direction of demand for a skill.
type Trend string

const (
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
	TrendGrowing   Trend = "growing"
	TrendSurging   Trend = "surging"
)

// DemandLevel buckets the numeric demand score for strategy decisions.
type DemandLevel string

const (
	DemandLow      DemandLevel = "low"
	DemandMedium   DemandLevel = "medium"
	DemandHigh     DemandLevel = "high"
	DemandVeryHigh DemandLevel = "very_high"
)

// MarketHealth is a categorical score of current seller conditions.
type MarketHealth string

const (
	HealthExcellent MarketHealth = "excellent"
	HealthGood      MarketHealth = "good"
	HealthFair      MarketHealth = "fair"
	HealthPoor      MarketHealth = "poor"
)

// SkillPriceRecord 单个技能的定价记录
// Immutable once returned from a parse cycle; lives only for the cache TTL.
type SkillPriceRecord struct {
	Skill            string          `json:"skill"`
	Price            decimal.Decimal `json:"price"`
	Demand           int             `json:"demand"`      // 0-100
	Volume           int             `json:"volume"`      // open listings
	Competition      int             `json:"competition"` // 1-10
	Trend            Trend           `json:"trend"`
	RegionMultiplier decimal.Decimal `json:"region_multiplier"`
	Source           string          `json:"source"`
	Confidence       float64         `json:"confidence"` // 0-1
	LastUpdated      time.Time       `json:"last_updated"`
}

// MarketSummary 市场概览
type MarketSummary struct {
	TopPayingSkills     []string `json:"top_paying_skills"`
	EmergingSkills      []string `json:"emerging_skills"`
	OversaturatedSkills []string `json:"oversaturated_skills"`
	DemandHotspots      []string `json:"demand_hotspots"`
}

// Recommendations 分时间范围的行动建议
type Recommendations struct {
	Immediate  []string `json:"immediate"`
	ShortTerm  []string `json:"short_term"`  // ~3 months
	MediumTerm []string `json:"medium_term"` // ~6 months
	LongTerm   []string `json:"long_term"`   // ~12 months
}

// Insights 机会与风险洞察
type Insights struct {
	Opportunities []string `json:"opportunities"`
	Threats       []string `json:"threats"`
	Advantages    []string `json:"advantages"`
}

// PriceProjections maps skill -> projected hourly rate per horizon.
// Every skill present in the analysis must be keyed in all three maps.
type PriceProjections struct {
	ThreeMonths  map[string]decimal.Decimal `json:"three_months"`
	SixMonths    map[string]decimal.Decimal `json:"six_months"`
	TwelveMonths map[string]decimal.Decimal `json:"twelve_months"`
}

// MarketAnalysisResult 市场分析结果
type MarketAnalysisResult struct {
	SkillAnalysis    []SkillPriceRecord `json:"skill_analysis"`
	MarketSummary    MarketSummary      `json:"market_summary"`
	Recommendations  Recommendations    `json:"recommendations"`
	Insights         Insights           `json:"insights"`
	PriceProjections PriceProjections   `json:"price_projections"`
	DataSource       string             `json:"data_source"`
	LastUpdated      time.Time          `json:"last_updated"`
	Confidence       float64            `json:"confidence"`
	MarketHealth     MarketHealth       `json:"market_health"`
}

// PriceQuote is one resolved round of the native/USD price feed.
type PriceQuote struct {
	Price     decimal.Decimal `json:"price"` // USD per native unit
	Decimals  uint8           `json:"decimals"`
	UpdatedAt time.Time       `json:"updated_at"`
	RoundID   string          `json:"round_id"` // "fallback" when the feed read failed
}

// FormattedPrice is a display-ready rendering of an on-chain amount.
type FormattedPrice struct {
	CryptoLabel  string          `json:"crypto_label"`
	USDLabel     string          `json:"usd_label"`
	CryptoAmount decimal.Decimal `json:"crypto_amount"`
	USDAmount    decimal.Decimal `json:"usd_amount"`
}
