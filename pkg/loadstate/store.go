// Package loadstate tracks which skills currently have their full content
// materialized in the caller's context. Loads are idempotent: a skill that
// is already loaded is not re-read or re-transmitted unless the caller
// forces a reload.
package loadstate

import (
	"context"
	"sync"
	"time"

	"github.com/lightpattern/skillet/pkg/skills"
)

// Status tags the outcome of a load call.
type Status string

const (
	// StatusLoaded means content was fetched and materialized.
	StatusLoaded Status = "loaded"
	// StatusAlreadyLoaded means the skill was already materialized and no
	// fetch happened.
	StatusAlreadyLoaded Status = "already_loaded"
	// StatusError means the fetch failed and state is unchanged.
	StatusError Status = "error"
)

// Record is one materialized skill.
type Record struct {
	Content    string
	TokenCount int
	LoadedAt   time.Time
}

// FetchFunc reads a skill's full content from its source. It is invoked
// only when content must actually be (re)read.
type FetchFunc func(ctx context.Context) (string, error)

// Result is the outcome of a Load call. Content is populated only when
// Status is StatusLoaded.
type Result struct {
	Status     Status
	Content    string
	TokenCount int
	LoadedAt   time.Time
	Err        error
}

// Store is the load-state bookkeeper. Loads for different names proceed
// independently; loads for the same name are serialized so at most one
// fetch is in flight per name.
type Store struct {
	mu       sync.RWMutex
	records  map[string]Record
	inflight map[string]*sync.Mutex
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		records:  make(map[string]Record),
		inflight: make(map[string]*sync.Mutex),
	}
}

// nameLock returns the per-name mutex, creating it on first use.
func (s *Store) nameLock(name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.inflight[name]
	if !ok {
		l = &sync.Mutex{}
		s.inflight[name] = l
	}
	return l
}

// Load materializes the named skill. When the skill already has a record
// and force is false, the existing record is reported without invoking
// fetch. A failed fetch leaves existing state untouched.
func (s *Store) Load(ctx context.Context, name string, fetch FetchFunc, force bool) Result {
	lock := s.nameLock(name)
	lock.Lock()
	defer lock.Unlock()

	s.mu.RLock()
	existing, loaded := s.records[name]
	s.mu.RUnlock()

	if loaded && !force {
		return Result{
			Status:     StatusAlreadyLoaded,
			TokenCount: existing.TokenCount,
			LoadedAt:   existing.LoadedAt,
		}
	}

	content, err := fetch(ctx)
	if err != nil {
		return Result{Status: StatusError, Err: err}
	}

	rec := Record{
		Content:    content,
		TokenCount: skills.EstimateTokens(content),
		LoadedAt:   time.Now(),
	}

	s.mu.Lock()
	s.records[name] = rec
	s.mu.Unlock()

	return Result{
		Status:     StatusLoaded,
		Content:    rec.Content,
		TokenCount: rec.TokenCount,
		LoadedAt:   rec.LoadedAt,
	}
}

// Unload removes the record for name. Unloading a name that is not loaded
// is a no-op; the returned bool reports whether a record was removed, and
// freed reports its token count.
func (s *Store) Unload(name string) (removed bool, freed int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[name]
	if !ok {
		return false, 0
	}
	delete(s.records, name)
	return true, rec.TokenCount
}

// IsLoaded reports whether name currently has a record.
func (s *Store) IsLoaded(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[name]
	return ok
}

// Snapshot returns a copy of the current records keyed by name.
func (s *Store) Snapshot() map[string]Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]Record, len(s.records))
	for name, rec := range s.records {
		out[name] = rec
	}
	return out
}

// LoadedNames returns the names of currently loaded skills.
func (s *Store) LoadedNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.records))
	for name := range s.records {
		out = append(out, name)
	}
	return out
}

// TotalTokens sums the token counts of all loaded skills.
func (s *Store) TotalTokens() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, rec := range s.records {
		total += rec.TokenCount
	}
	return total
}

// Prune removes every record whose name is not in valid. A rescan that
// drops a skill from the registry must also drop its loaded content.
// Returns the names that were removed.
func (s *Store) Prune(valid map[string]struct{}) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []string
	for name := range s.records {
		if _, ok := valid[name]; !ok {
			delete(s.records, name)
			removed = append(removed, name)
		}
	}
	return removed
}
