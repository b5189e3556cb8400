// Package search ranks skills against free-text queries. Two strategies
// share one contract: a keyword scorer that is always available, and an
// embedding scorer that becomes available once its backend has warmed up.
// The engine picks whichever strategy is authoritative and degrades
// transparently when the embedding backend is unavailable.
package search

import (
	"context"

	"github.com/lightpattern/skillet/pkg/skills"
)

// Method identifies which strategy produced a ranking.
type Method string

const (
	// MethodKeyword is the deterministic, dependency-free strategy.
	MethodKeyword Method = "keyword"
	// MethodEmbedding is the vector-similarity strategy.
	MethodEmbedding Method = "embedding"
)

// Result is one ranked candidate. Scores are comparable only within a
// single ranking call.
type Result struct {
	Name        string  `json:"name"`
	Score       float64 `json:"score"`
	MatchReason string  `json:"match_reason"`
	Method      Method  `json:"search_method"`
}

// Strategy ranks candidates against a query, most relevant first,
// returning at most limit results.
type Strategy interface {
	Method() Method
	Rank(ctx context.Context, query string, candidates []skills.Metadata, limit int) ([]Result, error)
}
