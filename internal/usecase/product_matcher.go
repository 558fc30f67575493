package usecase

import (
	"regexp"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/cartscout/backend/internal/domain"
)

var punctuationRegex = regexp.MustCompile(`[^\p{L}\p{N}\s]`)

// Scoring weights
const (
	productCoverageWeight = 0.60
	stubCoverageWeight    = 0.20
	jaccardWeight         = 0.20
	fuzzyWeightFactor     = 0.8  // fuzzy token matches count 80% of an exact one
	orderedMatchBonus     = 10.0 // every character of the shorter name appears in order in the longer
	defaultMinMatchScore  = 60.0
)

// stopWords are connectors and unit words that carry no identity in a product name
var stopWords = map[string]bool{
	// Connectors
	"de": true, "del": true, "la": true, "las": true, "el": true, "los": true,
	"en": true, "con": true, "sin": true, "y": true, "x": true, "por": true,
	// Units
	"g": true, "gr": true, "grs": true, "kg": true, "ml": true, "cc": true,
	"l": true, "lt": true, "lts": true, "un": true, "u": true, "unid": true,
	// Packaging
	"pack": true, "caja": true, "botella": true, "sachet": true, "bolsa": true,
	"lata": true, "paquete": true, "frasco": true, "pote": true,
}

// MatchConfig holds configuration for the product matcher
type MatchConfig struct {
	MinScore          float64
	FuzzyEditDistance int
}

// ProductMatcher scores how well a selected product name matches catalog
// names. It backs the lenient enrichment fallback, used only after an exact
// name and store match failed.
type ProductMatcher struct {
	minScore          float64
	fuzzyEditDistance int
}

// NewProductMatcher creates a matcher with the given configuration
func NewProductMatcher(config MatchConfig) *ProductMatcher {
	minScore := config.MinScore
	if minScore <= 0 {
		minScore = defaultMinMatchScore
	}

	fuzzyDist := config.FuzzyEditDistance
	if fuzzyDist <= 0 {
		fuzzyDist = 1
	}

	return &ProductMatcher{
		minScore:          minScore,
		fuzzyEditDistance: fuzzyDist,
	}
}

// BestMatch returns the index of the candidate whose name best matches name,
// or -1 when no candidate reaches the minimum score.
func (m *ProductMatcher) BestMatch(name string, candidates []domain.Product) (int, float64) {
	best, bestScore := -1, -1.0
	for i, c := range candidates {
		if c.Name == nil {
			continue
		}
		if score := m.Score(name, *c.Name); score > bestScore {
			best, bestScore = i, score
		}
	}

	if best < 0 || bestScore < m.minScore {
		return -1, bestScore
	}
	return best, bestScore
}

// Score computes a 0-100 similarity between a selected name and a catalog name.
// Weighted combination of:
//   - coverage of the selected name's tokens in the catalog name (most important)
//   - coverage of the catalog name's tokens in the selected name
//   - Jaccard overlap
//
// plus a bonus when one name is an in-order subsequence of the other.
func (m *ProductMatcher) Score(selected, catalog string) float64 {
	selectedTokens := tokenize(selected)
	catalogTokens := tokenize(catalog)
	if len(selectedTokens) == 0 || len(catalogTokens) == 0 {
		return 0
	}

	selectedMatched := m.weightedMatches(selectedTokens, catalogTokens)
	catalogMatched := m.weightedMatches(catalogTokens, selectedTokens)

	selectedCoverage := selectedMatched / float64(len(selectedTokens))
	catalogCoverage := catalogMatched / float64(len(catalogTokens))
	union := float64(len(selectedTokens)+len(catalogTokens)) - selectedMatched
	jaccard := selectedMatched / union

	score := (selectedCoverage*productCoverageWeight +
		catalogCoverage*stubCoverageWeight +
		jaccard*jaccardWeight) * 100

	shorter, longer := foldText(selected), foldText(catalog)
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if len(shorter) > 3 && fuzzy.MatchNormalizedFold(shorter, longer) {
		score += orderedMatchBonus
	}

	if score > 100 {
		score = 100
	}
	return score
}

// weightedMatches counts tokens of from found in to; fuzzy hits count partially
func (m *ProductMatcher) weightedMatches(from, to []string) float64 {
	set := make(map[string]bool, len(to))
	for _, t := range to {
		set[t] = true
	}

	total := 0.0
	for _, t := range from {
		if set[t] {
			total++
			continue
		}
		for _, other := range to {
			if m.fuzzyTokenMatch(t, other) {
				total += fuzzyWeightFactor
				break
			}
		}
	}
	return total
}

// fuzzyTokenMatch checks if two tokens are within the edit distance threshold.
// Short tokens never match fuzzily; "500" and "900" are different products.
func (m *ProductMatcher) fuzzyTokenMatch(a, b string) bool {
	if len(a) < 4 || len(b) < 4 {
		return false
	}
	diff := len(a) - len(b)
	if diff < 0 {
		diff = -diff
	}
	if diff > m.fuzzyEditDistance {
		return false
	}
	return fuzzy.LevenshteinDistance(a, b) <= m.fuzzyEditDistance
}

// tokenize splits a product name into folded tokens, dropping punctuation
// and stop words. Numbers are kept since sizes tell products apart.
func tokenize(s string) []string {
	cleaned := punctuationRegex.ReplaceAllString(foldText(s), " ")

	var tokens []string
	seen := make(map[string]bool)
	for _, word := range strings.Fields(cleaned) {
		if stopWords[word] || seen[word] {
			continue
		}
		if len(word) <= 1 && !isNumeric(word) {
			continue
		}
		seen[word] = true
		tokens = append(tokens, word)
	}
	return tokens
}

// isNumeric checks if a string contains only digits
func isNumeric(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}
