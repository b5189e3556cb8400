package search

import (
	"context"
	"sync"

	"github.com/lightpattern/skillet/pkg/logger"
	"github.com/lightpattern/skillet/pkg/skills"
)

// engineState is the embedding strategy's lifecycle. The transition is
// monotonic: pending -> ready or pending -> failed, never backwards and
// never retried within the process lifetime.
type engineState int

const (
	statePending engineState = iota
	stateReady
	stateFailed
)

// EmbedderFactory builds (and warms up) an embedder. It runs on a
// background goroutine; a returned error permanently disables the
// embedding strategy.
type EmbedderFactory func(ctx context.Context) (Embedder, error)

// Engine serves ranking requests with the best available strategy. The
// keyword strategy is always ready; the embedding strategy is promoted
// once its background initialization succeeds.
type Engine struct {
	keyword *KeywordStrategy

	mu         sync.RWMutex
	state      engineState
	embedding  *EmbeddingStrategy
	failReason string
}

// NewEngine creates an engine in the keyword-only state.
func NewEngine() *Engine {
	return &Engine{
		keyword: NewKeywordStrategy(),
		state:   statePending,
	}
}

// StartEmbeddingInit launches background initialization of the embedding
// strategy. Callers are never blocked: queries keep using the keyword
// strategy until the embedder is ready. Calling it with a nil factory
// marks the strategy failed immediately.
func (e *Engine) StartEmbeddingInit(ctx context.Context, factory EmbedderFactory) {
	if factory == nil {
		e.fail("embedding strategy is not configured")
		return
	}

	go func() {
		embedder, err := factory(ctx)
		if err != nil {
			logger.G(ctx).WithError(err).Warn("embedding initialization failed; search stays on keyword strategy")
			e.fail(err.Error())
			return
		}

		// Probe once so credential or endpoint problems surface at
		// startup rather than on the first user query.
		if _, err := embedder.Embed(ctx, []string{"warmup probe"}); err != nil {
			logger.G(ctx).WithError(err).Warn("embedding warm-up probe failed; search stays on keyword strategy")
			e.fail(err.Error())
			return
		}

		e.mu.Lock()
		if e.state == statePending {
			e.state = stateReady
			e.embedding = NewEmbeddingStrategy(embedder)
		}
		e.mu.Unlock()
		logger.G(ctx).WithField("model", embedder.Model()).Info("embedding strategy ready")
	}()
}

func (e *Engine) fail(reason string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == statePending {
		e.state = stateFailed
		e.failReason = reason
	}
}

// Rank delegates to the authoritative strategy and reports which method
// produced the results. If a ready embedding strategy fails at query
// time, that single call degrades to the keyword strategy; the engine's
// state does not change.
func (e *Engine) Rank(ctx context.Context, query string, candidates []skills.Metadata, limit int) ([]Result, Method) {
	e.mu.RLock()
	embedding := e.embedding
	ready := e.state == stateReady
	e.mu.RUnlock()

	if ready {
		results, err := embedding.Rank(ctx, query, candidates, limit)
		if err == nil {
			return results, MethodEmbedding
		}
		logger.G(ctx).WithError(err).Warn("embedding ranking failed; serving this query with keyword strategy")
	}

	results, _ := e.keyword.Rank(ctx, query, candidates, limit)
	return results, MethodKeyword
}

// Status reports the currently authoritative method.
func (e *Engine) Status() Method {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.state == stateReady {
		return MethodEmbedding
	}
	return MethodKeyword
}

// EmbeddingError returns the recorded failure reason when the embedding
// strategy is permanently disabled, and "" otherwise.
func (e *Engine) EmbeddingError() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.state == stateFailed {
		return e.failReason
	}
	return ""
}
