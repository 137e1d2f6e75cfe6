package skills

import (
	"strings"

	"github.com/chronoswap/skillflux/internal/models"
)

// Catalog is the fixed set of skills the marketplace tokenizes. Requests for
// anything outside it are rejected rather than priced.
var Catalog = []string{
	"blockchain",
	"defi",
	"nft",
	"solidity",
	"rust",
	"ai",
	"frontend",
	"backend",
	"mobile",
	"devops",
	"security",
	"design",
	"marketing",
	"data",
}

var catalogSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Catalog))
	for _, s := range Catalog {
		m[s] = struct{}{}
	}
	return m
}()

// Canonical lower-cases and trims a skill name.
func Canonical(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// IsSupported reports whether the skill is in the catalog.
func IsSupported(name string) bool {
	_, ok := catalogSet[Canonical(name)]
	return ok
}

// Filter canonicalizes the requested names and drops unsupported ones,
// preserving request order and deduplicating.
func Filter(requested []string) []string {
	seen := make(map[string]struct{}, len(requested))
	out := make([]string, 0, len(requested))
	for _, name := range requested {
		c := Canonical(name)
		if _, ok := catalogSet[c]; !ok {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// DemandLevel buckets a 0-100 demand score.
func DemandLevel(demand int) models.DemandLevel {
	switch {
	case demand >= 85:
		return models.DemandVeryHigh
	case demand >= 70:
		return models.DemandHigh
	case demand >= 50:
		return models.DemandMedium
	default:
		return models.DemandLow
	}
}
