package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/chronoswap/skillflux/internal/analysis"
	"github.com/chronoswap/skillflux/internal/models"
	"github.com/chronoswap/skillflux/internal/skills"
)

// Synthesizer implements analysis.Synthesizer with a chat-completion model.
type Synthesizer struct {
	client *openai.Client
	model  string
}

func NewSynthesizer(apiKey string, model string) *Synthesizer {
	if model == "" {
		model = openai.GPT4
	}
	return &Synthesizer{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// Synthesize implements the analysis.Synthesizer interface. The model output
// is strictly validated and any structural mismatch fails the whole synthesis;
// the engine handles the deterministic fallback.
func (s *Synthesizer) Synthesize(ctx context.Context, records map[string]models.SkillPriceRecord) (*analysis.Synthesis, error) {
	resp, err := s.createChatCompletion(ctx, buildPrompt(records))
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize analysis: %w", err)
	}

	raw, err := extractJSON(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to locate analysis JSON: %w", err)
	}

	syn, err := decodeSynthesis(raw, records)
	if err != nil {
		return nil, fmt.Errorf("failed to validate analysis results: %w", err)
	}
	return syn, nil
}

func buildPrompt(records map[string]models.SkillPriceRecord) string {
	names := make([]string, 0, len(records))
	for name := range records {
		names = append(names, name)
	}
	sort.Strings(names)

	var data strings.Builder
	for _, name := range names {
		rec := records[name]
		data.WriteString(fmt.Sprintf("skill: %s, rate: %s/hr, demand: %d/100, open listings: %d, competition: %d/10, trend: %s\n",
			rec.Skill, rec.Price.Round(2), rec.Demand, rec.Volume, rec.Competition, rec.Trend))
	}

	return fmt.Sprintf(`Analyze the following skill-pricing data from a tokenized-time marketplace:

%s
The marketplace catalog is: %s.

Provide:
1. The top paying, emerging and oversaturated skills (use only skill names from the data above)
2. Demand hotspot regions
3. Actionable recommendations for sellers over immediate/3-month/6-month/12-month horizons
4. Opportunities, threats and structural advantages
5. An overall market health grade: excellent, good, fair or poor

Output format (JSON only):
{
    "market_summary": {
        "top_paying_skills": ["..."],
        "emerging_skills": ["..."],
        "oversaturated_skills": ["..."],
        "demand_hotspots": ["..."]
    },
    "recommendations": {
        "immediate": ["..."],
        "short_term": ["..."],
        "medium_term": ["..."],
        "long_term": ["..."]
    },
    "insights": {
        "opportunities": ["..."],
        "threats": ["..."],
        "advantages": ["..."]
    },
    "market_health": "excellent|good|fair|poor"
}`, data.String(), strings.Join(skills.Catalog, ", "))
}

// extractJSON returns the first balanced top-level {...} substring of a model
// response, tolerating prose or code fences around it.
func extractJSON(resp string) (string, error) {
	start := strings.IndexByte(resp, '{')
	if start < 0 {
		return "", fmt.Errorf("no JSON object in response")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(resp); i++ {
		c := resp[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return resp[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("unbalanced JSON object in response")
}

// decodeSynthesis deserializes and validates a synthesis. It fails closed:
// unknown fields, a bad health grade, or summary skills not present in the
// acquired data all reject the whole output.
func decodeSynthesis(raw string, records map[string]models.SkillPriceRecord) (*analysis.Synthesis, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()

	var syn analysis.Synthesis
	if err := dec.Decode(&syn); err != nil {
		return nil, fmt.Errorf("decode synthesis: %w", err)
	}

	switch syn.MarketHealth {
	case models.HealthExcellent, models.HealthGood, models.HealthFair, models.HealthPoor:
	default:
		return nil, fmt.Errorf("invalid market health %q", syn.MarketHealth)
	}

	if len(syn.MarketSummary.TopPayingSkills) == 0 {
		return nil, fmt.Errorf("empty top paying skills")
	}

	for _, group := range [][]string{
		syn.MarketSummary.TopPayingSkills,
		syn.MarketSummary.EmergingSkills,
		syn.MarketSummary.OversaturatedSkills,
	} {
		for _, name := range group {
			if _, ok := records[skills.Canonical(name)]; !ok {
				return nil, fmt.Errorf("synthesis references unknown skill %q", name)
			}
		}
	}

	return &syn, nil
}

func (s *Synthesizer) createChatCompletion(ctx context.Context, prompt string) (string, error) {
	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: s.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: "You are a labor-market analyst for a tokenized-time marketplace. Always answer with a single JSON object in the requested schema.",
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3,
		},
	)
	if err != nil {
		return "", fmt.Errorf("openai api error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from openai")
	}

	return resp.Choices[0].Message.Content, nil
}
