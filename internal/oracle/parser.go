package oracle

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/chronoswap/skillflux/internal/models"
	"github.com/chronoswap/skillflux/internal/skills"
)

// Payload sources and the parser's confidence in each wire format.
const (
	SourceStructured = "oracle-structured"
	SourceCompressed = "oracle-compressed"

	confidenceStructured = 0.95
	confidenceCompressed = 0.85
)

// rawEntry is a skill/rate pair before enrichment.
type rawEntry struct {
	skill string
	rate  decimal.Decimal
}

// format is one wire-format strategy. Strategies are attempted in a fixed
// order and the first one yielding any accepted entry wins.
type format struct {
	source     string
	confidence float64
	decode     func(payload string, requested map[string]struct{}) []rawEntry
}

// Parser decodes the oracle's inline payload string into per-skill pricing
// records. The off-chain publisher writes either a legacy verbose JSON array
// or a byte-optimized compressed list; callers never know which was used.
type Parser struct {
	enricher *skills.Enricher
	formats  []format
}

func NewParser(enricher *skills.Enricher) *Parser {
	return &Parser{
		enricher: enricher,
		formats: []format{
			{source: SourceStructured, confidence: confidenceStructured, decode: decodeStructured},
			{source: SourceCompressed, confidence: confidenceCompressed, decode: decodeCompressed},
		},
	}
}

// Parse returns records for skills that are both requested and present in the
// payload. A requested skill absent from the payload is simply omitted, never
// fabricated. If no strategy yields any entry the whole parse fails with
// models.ErrNoOracleData.
func (p *Parser) Parse(payload string, requested []string) (map[string]models.SkillPriceRecord, error) {
	want := make(map[string]struct{}, len(requested))
	for _, s := range requested {
		want[skills.Canonical(s)] = struct{}{}
	}

	for _, f := range p.formats {
		entries := f.decode(payload, want)
		if len(entries) == 0 {
			continue
		}

		now := time.Now()
		records := make(map[string]models.SkillPriceRecord, len(entries))
		for _, e := range entries {
			attrs := p.enricher.Enrich(e.skill, e.rate)
			records[e.skill] = models.SkillPriceRecord{
				Skill:            e.skill,
				Price:            e.rate,
				Demand:           attrs.Demand,
				Volume:           attrs.Volume,
				Competition:      attrs.Competition,
				Trend:            attrs.Trend,
				RegionMultiplier: attrs.RegionMultiplier,
				Source:           f.source,
				Confidence:       f.confidence,
				LastUpdated:      now,
			}
		}
		return records, nil
	}

	return nil, fmt.Errorf("parse oracle payload: %w", models.ErrNoOracleData)
}

type structuredEntry struct {
	Name  string           `json:"name"`
	Skill string           `json:"skill"`
	Rate  *decimal.Decimal `json:"rate"`
	Price *decimal.Decimal `json:"price"`
}

// decodeStructured handles the legacy verbose format: a JSON array of objects
// with name|skill and rate|price fields.
func decodeStructured(payload string, requested map[string]struct{}) []rawEntry {
	var items []structuredEntry
	if err := json.Unmarshal([]byte(payload), &items); err != nil {
		return nil
	}

	var out []rawEntry
	for _, item := range items {
		name := item.Name
		if name == "" {
			name = item.Skill
		}
		rate := item.Rate
		if rate == nil {
			rate = item.Price
		}

		skill := skills.Canonical(name)
		if skill == "" || rate == nil || rate.IsNegative() {
			continue
		}
		if _, ok := requested[skill]; !ok {
			continue
		}
		out = append(out, rawEntry{skill: skill, rate: *rate})
	}
	return out
}

// decodeCompressed handles the byte-optimized format: comma-separated
// "skill|rate" pairs. Malformed segments are skipped, not fatal.
func decodeCompressed(payload string, requested map[string]struct{}) []rawEntry {
	var out []rawEntry
	for _, segment := range strings.Split(payload, ",") {
		parts := strings.SplitN(segment, "|", 2)
		if len(parts) != 2 {
			continue
		}

		skill := skills.Canonical(parts[0])
		if skill == "" {
			continue
		}
		if _, ok := requested[skill]; !ok {
			continue
		}

		rate, err := decimal.NewFromString(strings.TrimSpace(parts[1]))
		if err != nil || rate.IsNegative() {
			continue
		}
		out = append(out, rawEntry{skill: skill, rate: rate})
	}
	return out
}
