package genai

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronoswap/skillflux/internal/models"
)

func sampleRecords() map[string]models.SkillPriceRecord {
	return map[string]models.SkillPriceRecord{
		"defi": {Skill: "defi", Price: decimal.NewFromInt(120), Demand: 92, Volume: 1400, Competition: 4, Trend: models.TrendSurging},
		"ai":   {Skill: "ai", Price: decimal.NewFromInt(135), Demand: 95, Volume: 2100, Competition: 5, Trend: models.TrendSurging},
	}
}

const validSynthesis = `{
	"market_summary": {
		"top_paying_skills": ["ai", "defi"],
		"emerging_skills": ["defi"],
		"oversaturated_skills": [],
		"demand_hotspots": ["Remote"]
	},
	"recommendations": {
		"immediate": ["List ai availability"],
		"short_term": [],
		"medium_term": [],
		"long_term": []
	},
	"insights": {
		"opportunities": ["ai demand is rising"],
		"threats": [],
		"advantages": []
	},
	"market_health": "excellent"
}`

func TestExtractJSON(t *testing.T) {
	wrapped := "Here is the analysis you asked for:\n```json\n" + validSynthesis + "\n```\nLet me know if you need more."
	raw, err := extractJSON(wrapped)
	require.NoError(t, err)
	assert.Equal(t, validSynthesis, raw)
}

func TestExtractJSON_BracesInsideStrings(t *testing.T) {
	resp := `{"market_health": "good", "note": "a } inside a string"}`
	raw, err := extractJSON(resp)
	require.NoError(t, err)
	assert.Equal(t, resp, raw)
}

func TestExtractJSON_Failures(t *testing.T) {
	_, err := extractJSON("no json here at all")
	assert.Error(t, err)

	_, err = extractJSON(`{"truncated": {`)
	assert.Error(t, err)
}

func TestDecodeSynthesis_Valid(t *testing.T) {
	syn, err := decodeSynthesis(validSynthesis, sampleRecords())
	require.NoError(t, err)
	assert.Equal(t, models.HealthExcellent, syn.MarketHealth)
	assert.Equal(t, []string{"ai", "defi"}, syn.MarketSummary.TopPayingSkills)
}

func TestDecodeSynthesis_FailsClosed(t *testing.T) {
	records := sampleRecords()

	tests := []struct {
		name string
		raw  string
	}{
		{"unknown field", `{"market_summary":{"top_paying_skills":["ai"],"emerging_skills":[],"oversaturated_skills":[],"demand_hotspots":[]},"recommendations":{"immediate":[],"short_term":[],"medium_term":[],"long_term":[]},"insights":{"opportunities":[],"threats":[],"advantages":[]},"market_health":"good","extra":true}`},
		{"bad health grade", `{"market_summary":{"top_paying_skills":["ai"],"emerging_skills":[],"oversaturated_skills":[],"demand_hotspots":[]},"recommendations":{"immediate":[],"short_term":[],"medium_term":[],"long_term":[]},"insights":{"opportunities":[],"threats":[],"advantages":[]},"market_health":"amazing"}`},
		{"hallucinated skill", `{"market_summary":{"top_paying_skills":["quantum"],"emerging_skills":[],"oversaturated_skills":[],"demand_hotspots":[]},"recommendations":{"immediate":[],"short_term":[],"medium_term":[],"long_term":[]},"insights":{"opportunities":[],"threats":[],"advantages":[]},"market_health":"good"}`},
		{"empty top paying", `{"market_summary":{"top_paying_skills":[],"emerging_skills":[],"oversaturated_skills":[],"demand_hotspots":[]},"recommendations":{"immediate":[],"short_term":[],"medium_term":[],"long_term":[]},"insights":{"opportunities":[],"threats":[],"advantages":[]},"market_health":"good"}`},
		{"not an object", `["ai", "defi"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeSynthesis(tt.raw, records)
			assert.Error(t, err)
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := buildPrompt(sampleRecords())

	assert.Contains(t, prompt, "skill: ai, rate: 135/hr")
	assert.Contains(t, prompt, "skill: defi, rate: 120/hr")
	assert.Contains(t, prompt, `"market_health"`)
	// Data lines are emitted in deterministic order.
	assert.Less(t, 0, len(prompt))
}
