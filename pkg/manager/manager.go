// Package manager composes the skill index, load-state store, and search
// engine behind a single facade. It is the only component the tool
// surface talks to, and every public operation returns a tagged result
// struct: internal failures are converted at this boundary, never
// propagated as errors to the caller.
package manager

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/lightpattern/skillet/pkg/loadstate"
	"github.com/lightpattern/skillet/pkg/logger"
	"github.com/lightpattern/skillet/pkg/search"
	"github.com/lightpattern/skillet/pkg/skills"
	"github.com/pkg/errors"
)

// DefaultSearchLimit caps search results when the caller does not ask
// for a specific limit.
const DefaultSearchLimit = 5

// Manager is the facade over the skills registry, the load-state store,
// and the search engine.
type Manager struct {
	index  *skills.Index
	store  *loadstate.Store
	engine *search.Engine
}

// New wires a manager from its three collaborators.
func New(index *skills.Index, store *loadstate.Store, engine *search.Engine) *Manager {
	return &Manager{
		index:  index,
		store:  store,
		engine: engine,
	}
}

// ListResult is the response of ListSkills.
type ListResult struct {
	Skills            []skills.Metadata `json:"skills"`
	TotalAvailable    int               `json:"total_available"`
	CurrentlyLoaded   []string          `json:"currently_loaded"`
	TotalTokensLoaded int               `json:"total_tokens_loaded"`
}

// SearchResult is the response of SearchSkills.
type SearchResult struct {
	Results      []search.Result `json:"results"`
	TotalFound   int             `json:"total_found"`
	Query        string          `json:"query"`
	SearchMethod search.Method   `json:"search_method"`
}

// LoadResult is the response of LoadSkill. Content is present only when
// the status is "loaded"; an already-loaded skill's content is not
// re-transmitted.
type LoadResult struct {
	Status       loadstate.Status `json:"status"`
	SkillName    string           `json:"skill_name"`
	Content      string           `json:"content,omitempty"`
	Message      string           `json:"message"`
	TokensLoaded int              `json:"tokens_loaded,omitempty"`
	LoadedAt     string           `json:"loaded_at,omitempty"`
}

// UnloadResult is the response of UnloadSkill. Unloading is idempotent:
// a skill that was not loaded still yields a success acknowledgement.
type UnloadResult struct {
	Status          string   `json:"status"`
	SkillName       string   `json:"skill_name"`
	Message         string   `json:"message"`
	TokensFreed     int      `json:"tokens_freed"`
	RemainingLoaded []string `json:"remaining_loaded"`
}

// ReloadResult is the response of ReloadSkillsDirectory and
// AddSkillsDirectory.
type ReloadResult struct {
	Status         string              `json:"status"`
	Message        string              `json:"message,omitempty"`
	PreviousCount  int                 `json:"previous_count"`
	CurrentCount   int                 `json:"current_count"`
	UnloadedSkills []string            `json:"unloaded_skills,omitempty"`
	Diagnostics    []skills.Diagnostic `json:"diagnostics,omitempty"`
}

// StatusResult is the response of SearchStatus.
type StatusResult struct {
	ActiveMethod search.Method `json:"active_method"`
}

// EmbeddingErrorResult is the response of EmbeddingError.
type EmbeddingErrorResult struct {
	Error string `json:"error"`
}

// ListSkills merges the registry snapshot with the load-state snapshot.
// It causes no mutation.
func (m *Manager) ListSkills() ListResult {
	all := m.index.ListAll()
	loaded := m.store.LoadedNames()
	sort.Strings(loaded)

	return ListResult{
		Skills:            all,
		TotalAvailable:    len(all),
		CurrentlyLoaded:   loaded,
		TotalTokensLoaded: m.store.TotalTokens(),
	}
}

// SearchSkills ranks registered skills against query using the engine's
// authoritative strategy.
func (m *Manager) SearchSkills(ctx context.Context, query string, limit int) SearchResult {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	results, method := m.engine.Rank(ctx, query, m.index.ListAll(), limit)
	return SearchResult{
		Results:      results,
		TotalFound:   len(results),
		Query:        query,
		SearchMethod: method,
	}
}

// LoadSkill materializes the named skill's full content. The name is
// validated against the registry first, so an unknown name never reaches
// the load-state store.
func (m *Manager) LoadSkill(ctx context.Context, name string, force bool) LoadResult {
	md, err := m.index.GetMetadata(name)
	if err != nil {
		return LoadResult{
			Status:    loadstate.StatusError,
			SkillName: name,
			Message:   fmt.Sprintf("Skill %q not found in available skills", name),
		}
	}

	fetch := func(context.Context) (string, error) {
		content, err := os.ReadFile(md.Path)
		if err != nil {
			return "", errors.Wrapf(err, "failed to read skill source %s", md.Path)
		}
		return skills.StripFrontmatter(string(content)), nil
	}

	res := m.store.Load(ctx, name, fetch, force)
	switch res.Status {
	case loadstate.StatusLoaded:
		return LoadResult{
			Status:       res.Status,
			SkillName:    name,
			Content:      res.Content,
			Message:      fmt.Sprintf("Skill %q loaded successfully", name),
			TokensLoaded: res.TokenCount,
			LoadedAt:     res.LoadedAt.Format(time.RFC3339),
		}
	case loadstate.StatusAlreadyLoaded:
		return LoadResult{
			Status:       res.Status,
			SkillName:    name,
			Message:      fmt.Sprintf("Skill %q is already loaded. Use force_reload=true to reload.", name),
			TokensLoaded: res.TokenCount,
			LoadedAt:     res.LoadedAt.Format(time.RFC3339),
		}
	default:
		logger.G(ctx).WithError(res.Err).WithField("skill", name).Error("skill load failed")
		return LoadResult{
			Status:    loadstate.StatusError,
			SkillName: name,
			Message:   fmt.Sprintf("Failed to load skill: %v", res.Err),
		}
	}
}

// UnloadSkill removes the named skill's materialized content. Absent
// records are a no-op success.
func (m *Manager) UnloadSkill(name string) UnloadResult {
	removed, freed := m.store.Unload(name)
	remaining := m.store.LoadedNames()
	sort.Strings(remaining)

	msg := fmt.Sprintf("Skill %q unloaded", name)
	if !removed {
		msg = fmt.Sprintf("Skill %q was not loaded; nothing to do", name)
	}

	return UnloadResult{
		Status:          "success",
		SkillName:       name,
		Message:         msg,
		TokensFreed:     freed,
		RemainingLoaded: remaining,
	}
}

// ReloadSkillsDirectory rescans every configured root, then prunes
// load-state records whose skills no longer exist. Records for skills
// that survive the rescan are preserved unchanged.
func (m *Manager) ReloadSkillsDirectory(ctx context.Context) ReloadResult {
	previous := m.index.Len()
	diags, err := m.index.Scan(ctx)
	if err != nil {
		return ReloadResult{
			Status:        "error",
			Message:       fmt.Sprintf("Rescan failed, previous registry retained: %v", err),
			PreviousCount: previous,
			CurrentCount:  m.index.Len(),
			Diagnostics:   diags,
		}
	}

	unloaded := m.store.Prune(m.index.Names())
	sort.Strings(unloaded)

	return ReloadResult{
		Status:         "success",
		PreviousCount:  previous,
		CurrentCount:   m.index.Len(),
		UnloadedSkills: unloaded,
		Diagnostics:    diags,
	}
}

// AddSkillsDirectory appends a root to the scanned set and performs a
// full rescan, pruning load state like ReloadSkillsDirectory.
func (m *Manager) AddSkillsDirectory(ctx context.Context, path string) ReloadResult {
	previous := m.index.Len()
	diags, err := m.index.AddRoot(ctx, path)
	if err != nil {
		return ReloadResult{
			Status:        "error",
			Message:       fmt.Sprintf("Failed to add skills directory %s: %v", path, err),
			PreviousCount: previous,
			CurrentCount:  m.index.Len(),
			Diagnostics:   diags,
		}
	}

	unloaded := m.store.Prune(m.index.Names())
	sort.Strings(unloaded)

	return ReloadResult{
		Status:         "success",
		Message:        fmt.Sprintf("Added skills directory %s", path),
		PreviousCount:  previous,
		CurrentCount:   m.index.Len(),
		UnloadedSkills: unloaded,
		Diagnostics:    diags,
	}
}

// SearchStatus reports which search strategy is authoritative.
func (m *Manager) SearchStatus() StatusResult {
	return StatusResult{ActiveMethod: m.engine.Status()}
}

// EmbeddingError reports why the embedding strategy is disabled, or an
// empty string when it is pending or ready.
func (m *Manager) EmbeddingError() EmbeddingErrorResult {
	return EmbeddingErrorResult{Error: m.engine.EmbeddingError()}
}
