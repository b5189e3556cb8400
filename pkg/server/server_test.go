package server

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/lightpattern/skillet/pkg/loadstate"
	"github.com/lightpattern/skillet/pkg/manager"
	"github.com/lightpattern/skillet/pkg/search"
	"github.com/lightpattern/skillet/pkg/skills"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandlers(t *testing.T) *handlers {
	t.Helper()
	root := t.TempDir()
	skillDir := filepath.Join(root, "code-review")
	require.NoError(t, os.MkdirAll(skillDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(skillDir, "SKILL.md"), []byte(`---
name: code-review
description: Review pull requests
keywords:
  - review
---

# Code Review

Check the diff.
`), 0o644))

	index := skills.NewIndex(root)
	_, err := index.Scan(context.Background())
	require.NoError(t, err)

	mgr := manager.New(index, loadstate.NewStore(), search.NewEngine())
	return &handlers{mgr: mgr}
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func textPayload(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	require.False(t, result.IsError)
	require.NotEmpty(t, result.Content)
	tc, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(tc.Text), &payload))
	return payload
}

func TestGenerateSchema(t *testing.T) {
	schema := GenerateSchema[loadInput]()

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(schema, &decoded))
	assert.Equal(t, "object", decoded["type"])

	props, ok := decoded["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "skill_name")
	assert.Contains(t, props, "force_reload")

	required, ok := decoded["required"].([]any)
	require.True(t, ok)
	assert.Contains(t, required, "skill_name")
}

func TestListSkillsHandler(t *testing.T) {
	ctx := context.Background()
	h := newTestHandlers(t)

	result, err := h.listSkills(ctx, callRequest("list_skills", nil))
	require.NoError(t, err)

	payload := textPayload(t, result)
	assert.Equal(t, float64(1), payload["total_available"])
}

func TestSearchSkillsHandler(t *testing.T) {
	ctx := context.Background()
	h := newTestHandlers(t)

	t.Run("valid query", func(t *testing.T) {
		result, err := h.searchSkills(ctx, callRequest("search_skills", map[string]any{
			"query": "review",
		}))
		require.NoError(t, err)

		payload := textPayload(t, result)
		assert.Equal(t, "keyword", payload["search_method"])
		assert.Equal(t, float64(1), payload["total_found"])
	})

	t.Run("empty query is a tool error", func(t *testing.T) {
		result, err := h.searchSkills(ctx, callRequest("search_skills", map[string]any{}))
		require.NoError(t, err)
		assert.True(t, result.IsError)
	})
}

func TestLoadAndUnloadHandlers(t *testing.T) {
	ctx := context.Background()
	h := newTestHandlers(t)

	result, err := h.loadSkill(ctx, callRequest("load_skill", map[string]any{
		"skill_name": "code-review",
	}))
	require.NoError(t, err)
	payload := textPayload(t, result)
	assert.Equal(t, "loaded", payload["status"])
	assert.Contains(t, payload["content"], "# Code Review")

	result, err = h.loadSkill(ctx, callRequest("load_skill", map[string]any{
		"skill_name": "code-review",
	}))
	require.NoError(t, err)
	payload = textPayload(t, result)
	assert.Equal(t, "already_loaded", payload["status"])
	assert.NotContains(t, payload, "content")

	result, err = h.unloadSkill(ctx, callRequest("unload_skill", map[string]any{
		"skill_name": "code-review",
	}))
	require.NoError(t, err)
	payload = textPayload(t, result)
	assert.Equal(t, "success", payload["status"])

	// Unknown skill stays inside the protocol as a structured error
	result, err = h.loadSkill(ctx, callRequest("load_skill", map[string]any{
		"skill_name": "ghost",
	}))
	require.NoError(t, err)
	payload = textPayload(t, result)
	assert.Equal(t, "error", payload["status"])
}

func TestDirectoryHandlers(t *testing.T) {
	ctx := context.Background()
	h := newTestHandlers(t)

	extra := t.TempDir()
	skillDir := filepath.Join(extra, "extra-skill")
	require.NoError(t, os.MkdirAll(skillDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(skillDir, "SKILL.md"), []byte(`---
name: extra-skill
---
body
`), 0o644))

	result, err := h.addSkillsDirectory(ctx, callRequest("add_skills_directory", map[string]any{
		"path": extra,
	}))
	require.NoError(t, err)
	payload := textPayload(t, result)
	assert.Equal(t, "success", payload["status"])
	assert.Equal(t, float64(2), payload["current_count"])

	result, err = h.reloadSkillsDirectory(ctx, callRequest("reload_skills_directory", nil))
	require.NoError(t, err)
	payload = textPayload(t, result)
	assert.Equal(t, "success", payload["status"])
	assert.Equal(t, float64(2), payload["current_count"])
}

func TestStatusHandlers(t *testing.T) {
	ctx := context.Background()
	h := newTestHandlers(t)

	result, err := h.getSearchStatus(ctx, callRequest("get_search_status", nil))
	require.NoError(t, err)
	payload := textPayload(t, result)
	assert.Equal(t, "keyword", payload["active_method"])

	result, err = h.getEmbeddingError(ctx, callRequest("get_embedding_error", nil))
	require.NoError(t, err)
	payload = textPayload(t, result)
	assert.Equal(t, "", payload["error"])
}

func TestNewServerConstructs(t *testing.T) {
	h := newTestHandlers(t)
	srv := New(h.mgr, "test")
	assert.NotNil(t, srv)
}
