package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/lightpattern/skillet/pkg/skills"
)

// Scoring weights, in descending order of signal strength. The exact
// numbers are arbitrary; what matters is that a name match always
// outranks keyword overlap, which always outranks title/description
// overlap.
const (
	weightExactName     = 100.0
	weightKeywordMatch  = 10.0
	weightNameSubstring = 5.0
	weightTitleWord     = 3.0
	weightDescription   = 1.0
)

// KeywordStrategy scores skills by literal token overlap against name,
// keywords, title, and description. It needs no warm-up and no external
// resources, so it is the strategy of record immediately after startup.
type KeywordStrategy struct{}

// NewKeywordStrategy creates the keyword strategy.
func NewKeywordStrategy() *KeywordStrategy {
	return &KeywordStrategy{}
}

// Method returns MethodKeyword.
func (s *KeywordStrategy) Method() Method {
	return MethodKeyword
}

// Rank scores every candidate and returns the non-zero scorers, highest
// first. Ties break by ascending name so rankings are deterministic.
func (s *KeywordStrategy) Rank(_ context.Context, query string, candidates []skills.Metadata, limit int) ([]Result, error) {
	tokens := tokenize(query)
	if len(tokens) == 0 {
		return []Result{}, nil
	}
	wholeQuery := strings.ToLower(strings.TrimSpace(query))

	var out []Result
	for _, md := range candidates {
		score, reasons := scoreCandidate(md, wholeQuery, tokens)
		if score <= 0 {
			continue
		}
		out = append(out, Result{
			Name:        md.Name,
			Score:       score,
			MatchReason: strings.Join(reasons, ", "),
			Method:      MethodKeyword,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score == out[j].Score {
			return out[i].Name < out[j].Name
		}
		return out[i].Score > out[j].Score
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	if out == nil {
		out = []Result{}
	}
	return out, nil
}

func scoreCandidate(md skills.Metadata, wholeQuery string, tokens []string) (float64, []string) {
	name := strings.ToLower(md.Name)
	title := strings.ToLower(md.Title)
	desc := strings.ToLower(md.Description)

	keywords := make(map[string]struct{}, len(md.Keywords))
	for _, kw := range md.Keywords {
		keywords[strings.ToLower(kw)] = struct{}{}
	}

	var score float64
	var reasons []string

	if wholeQuery == name {
		score += weightExactName
		reasons = append(reasons, "exact name match")
	}

	for _, tok := range tokens {
		if _, ok := keywords[tok]; ok {
			score += weightKeywordMatch
			reasons = append(reasons, fmt.Sprintf("keyword %q", tok))
		}
		if tok == name || strings.Contains(name, tok) {
			score += weightNameSubstring
			reasons = append(reasons, fmt.Sprintf("name contains %q", tok))
		}
		if containsWord(title, tok) {
			score += weightTitleWord
			reasons = append(reasons, fmt.Sprintf("title mentions %q", tok))
		}
		if strings.Contains(desc, tok) {
			score += weightDescription
			reasons = append(reasons, fmt.Sprintf("description mentions %q", tok))
		}
	}

	return score, reasons
}

func containsWord(text, word string) bool {
	for _, w := range strings.Fields(text) {
		if strings.Trim(w, ".,;:!?()[]") == word {
			return true
		}
	}
	return false
}

func tokenize(query string) []string {
	parts := strings.Fields(query)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
