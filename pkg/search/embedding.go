package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/lightpattern/skillet/pkg/skills"
	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"
)

// Embedder computes vector representations for a batch of texts. The
// returned slice is index-aligned with the input.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}

// OpenAIEmbedder implements Embedder against an OpenAI-compatible
// embeddings endpoint.
type OpenAIEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

// NewOpenAIEmbedder creates an embedder. baseURL is optional and allows
// pointing at any OpenAI-compatible server.
func NewOpenAIEmbedder(apiKey, baseURL, model string) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, errors.New("embedding API key is not configured")
	}
	if model == "" {
		return nil, errors.New("embedding model is not configured")
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(cfg),
		model:  openai.EmbeddingModel(model),
	}, nil
}

// Embed requests embeddings for texts in a single batch call.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: e.model,
	})
	if err != nil {
		return nil, errors.Wrap(err, "embedding request failed")
	}
	if len(resp.Data) != len(texts) {
		return nil, errors.Errorf("embedding response has %d vectors for %d inputs", len(resp.Data), len(texts))
	}

	out := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		out[i] = d.Embedding
	}
	return out, nil
}

// Model returns the embedding model identifier.
func (e *OpenAIEmbedder) Model() string {
	return string(e.model)
}

// EmbeddingStrategy scores candidates by cosine similarity between the
// query vector and each candidate's descriptive-text vector. Candidate
// vectors are cached by content hash so repeated queries over a stable
// registry embed only the query.
type EmbeddingStrategy struct {
	embedder Embedder

	mu    sync.Mutex
	cache map[string][]float32
}

// NewEmbeddingStrategy wraps an embedder.
func NewEmbeddingStrategy(embedder Embedder) *EmbeddingStrategy {
	return &EmbeddingStrategy{
		embedder: embedder,
		cache:    make(map[string][]float32),
	}
}

// Method returns MethodEmbedding.
func (s *EmbeddingStrategy) Method() Method {
	return MethodEmbedding
}

// Rank embeds the query plus any candidates missing from the vector
// cache, then scores by cosine similarity.
func (s *EmbeddingStrategy) Rank(ctx context.Context, query string, candidates []skills.Metadata, limit int) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" || len(candidates) == 0 {
		return []Result{}, nil
	}

	texts := make([]string, len(candidates))
	hashes := make([]string, len(candidates))
	for i, md := range candidates {
		texts[i] = canonicalText(md)
		hashes[i] = textHash(texts[i])
	}

	// Batch the query together with every uncached candidate text.
	batch := []string{query}
	var missing []int
	s.mu.Lock()
	for i, h := range hashes {
		if _, ok := s.cache[h]; !ok {
			missing = append(missing, i)
			batch = append(batch, texts[i])
		}
	}
	s.mu.Unlock()

	vectors, err := s.embedder.Embed(ctx, batch)
	if err != nil {
		return nil, err
	}
	queryVec := vectors[0]

	s.mu.Lock()
	for j, i := range missing {
		s.cache[hashes[i]] = vectors[j+1]
	}
	candVecs := make([][]float32, len(candidates))
	for i, h := range hashes {
		candVecs[i] = s.cache[h]
	}
	s.mu.Unlock()

	out := make([]Result, 0, len(candidates))
	for i, md := range candidates {
		score := cosine(queryVec, candVecs[i])
		out = append(out, Result{
			Name:        md.Name,
			Score:       score,
			MatchReason: fmt.Sprintf("cosine similarity %.3f (model %s)", score, s.embedder.Model()),
			Method:      MethodEmbedding,
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
	return out, nil
}

// canonicalText is the text embedded for a skill. Stable formatting keeps
// the cache keys stable across scans that do not change metadata.
func canonicalText(md skills.Metadata) string {
	parts := []string{
		"name: " + strings.TrimSpace(md.Name),
		"title: " + strings.TrimSpace(md.Title),
		"description: " + strings.TrimSpace(md.Description),
	}
	if len(md.Keywords) > 0 {
		parts = append(parts, "keywords: "+strings.Join(md.Keywords, ", "))
	}
	return strings.Join(parts, "\n")
}

func textHash(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x := float64(a[i])
		y := float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	den := math.Sqrt(na) * math.Sqrt(nb)
	if den == 0 {
		return 0
	}
	return dot / den
}
