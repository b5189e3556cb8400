package manager

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/lightpattern/skillet/pkg/loadstate"
	"github.com/lightpattern/skillet/pkg/search"
	"github.com/lightpattern/skillet/pkg/skills"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSkill(t *testing.T, root, dir, content string) {
	t.Helper()
	skillDir := filepath.Join(root, dir)
	require.NoError(t, os.MkdirAll(skillDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(skillDir, "SKILL.md"), []byte(content), 0o644))
}

func newTestManager(t *testing.T, root string) *Manager {
	t.Helper()
	index := skills.NewIndex(root)
	_, err := index.Scan(context.Background())
	require.NoError(t, err)
	return New(index, loadstate.NewStore(), search.NewEngine())
}

func seedSkills(t *testing.T) string {
	root := t.TempDir()
	writeSkill(t, root, "code-review", `---
name: code-review
title: Code Review Helper
description: Review pull requests for style and correctness
keywords:
  - review
  - git
---

# Code Review Helper

Check the diff for unhandled errors and missing tests.
`)
	writeSkill(t, root, "deploy-runbook", `---
name: deploy-runbook
description: Step by step production deploy guide
keywords:
  - deploy
---

# Deploy Runbook

1. Tag the release.
2. Run the pipeline.
`)
	return root
}

func TestManagerListSkills(t *testing.T) {
	ctx := context.Background()
	mgr := newTestManager(t, seedSkills(t))

	list := mgr.ListSkills()
	assert.Equal(t, 2, list.TotalAvailable)
	assert.Len(t, list.Skills, 2)
	assert.Empty(t, list.CurrentlyLoaded)
	assert.Zero(t, list.TotalTokensLoaded)

	mgr.LoadSkill(ctx, "code-review", false)
	mgr.LoadSkill(ctx, "deploy-runbook", false)

	list = mgr.ListSkills()
	assert.Equal(t, []string{"code-review", "deploy-runbook"}, list.CurrentlyLoaded)
	assert.Positive(t, list.TotalTokensLoaded)
}

func TestManagerSearchSkills(t *testing.T) {
	ctx := context.Background()
	mgr := newTestManager(t, seedSkills(t))

	result := mgr.SearchSkills(ctx, "review pull requests", 0)
	assert.Equal(t, "review pull requests", result.Query)
	assert.Equal(t, search.MethodKeyword, result.SearchMethod)
	require.NotZero(t, result.TotalFound)
	assert.Equal(t, "code-review", result.Results[0].Name)

	limited := mgr.SearchSkills(ctx, "guide", 1)
	assert.LessOrEqual(t, len(limited.Results), 1)
}

func TestManagerLoadSkill(t *testing.T) {
	ctx := context.Background()
	mgr := newTestManager(t, seedSkills(t))

	t.Run("unknown skill is an error result, not a panic", func(t *testing.T) {
		res := mgr.LoadSkill(ctx, "no-such-skill", false)
		assert.Equal(t, loadstate.StatusError, res.Status)
		assert.Contains(t, res.Message, "not found")
	})

	t.Run("load then already_loaded then force", func(t *testing.T) {
		res := mgr.LoadSkill(ctx, "code-review", false)
		require.Equal(t, loadstate.StatusLoaded, res.Status)
		assert.Contains(t, res.Content, "# Code Review Helper")
		assert.NotContains(t, res.Content, "---")
		assert.Positive(t, res.TokensLoaded)
		assert.NotEmpty(t, res.LoadedAt)

		res = mgr.LoadSkill(ctx, "code-review", false)
		assert.Equal(t, loadstate.StatusAlreadyLoaded, res.Status)
		assert.Empty(t, res.Content)
		assert.Contains(t, res.Message, "force_reload")
		assert.Positive(t, res.TokensLoaded)

		res = mgr.LoadSkill(ctx, "code-review", true)
		assert.Equal(t, loadstate.StatusLoaded, res.Status)
		assert.NotEmpty(t, res.Content)
	})
}

func TestManagerUnloadSkill(t *testing.T) {
	ctx := context.Background()
	mgr := newTestManager(t, seedSkills(t))

	mgr.LoadSkill(ctx, "code-review", false)
	mgr.LoadSkill(ctx, "deploy-runbook", false)

	res := mgr.UnloadSkill("code-review")
	assert.Equal(t, "success", res.Status)
	assert.Positive(t, res.TokensFreed)
	assert.Equal(t, []string{"deploy-runbook"}, res.RemainingLoaded)

	// Unloading again is still a success
	res = mgr.UnloadSkill("code-review")
	assert.Equal(t, "success", res.Status)
	assert.Zero(t, res.TokensFreed)
	assert.Contains(t, res.Message, "not loaded")
}

func TestManagerReloadSkillsDirectory(t *testing.T) {
	ctx := context.Background()
	root := seedSkills(t)
	mgr := newTestManager(t, root)

	mgr.LoadSkill(ctx, "code-review", false)
	mgr.LoadSkill(ctx, "deploy-runbook", false)

	// Remove one skill from disk and add a fresh one
	require.NoError(t, os.RemoveAll(filepath.Join(root, "deploy-runbook")))
	writeSkill(t, root, "incident-triage", `---
name: incident-triage
description: Triage production incidents
---
body
`)

	res := mgr.ReloadSkillsDirectory(ctx)
	assert.Equal(t, "success", res.Status)
	assert.Equal(t, 2, res.PreviousCount)
	assert.Equal(t, 2, res.CurrentCount)
	assert.Equal(t, []string{"deploy-runbook"}, res.UnloadedSkills)

	// The surviving load is untouched, the removed one is gone
	list := mgr.ListSkills()
	assert.Equal(t, []string{"code-review"}, list.CurrentlyLoaded)
}

func TestManagerAddSkillsDirectory(t *testing.T) {
	ctx := context.Background()
	mgr := newTestManager(t, seedSkills(t))

	extra := t.TempDir()
	writeSkill(t, extra, "extra-skill", `---
name: extra-skill
description: Lives in a second root
---
body
`)

	res := mgr.AddSkillsDirectory(ctx, extra)
	assert.Equal(t, "success", res.Status)
	assert.Equal(t, 2, res.PreviousCount)
	assert.Equal(t, 3, res.CurrentCount)

	load := mgr.LoadSkill(ctx, "extra-skill", false)
	assert.Equal(t, loadstate.StatusLoaded, load.Status)
}

func TestManagerSearchStatusAndEmbeddingError(t *testing.T) {
	mgr := newTestManager(t, seedSkills(t))

	assert.Equal(t, search.MethodKeyword, mgr.SearchStatus().ActiveMethod)
	assert.Empty(t, mgr.EmbeddingError().Error)
}
