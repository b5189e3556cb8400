package server

import (
	"context"
	"encoding/json"

	"github.com/lightpattern/skillet/pkg/manager"
	"github.com/lightpattern/skillet/pkg/telemetry"
	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel/attribute"
)

type emptyInput struct{}

type searchInput struct {
	Query string `json:"query" jsonschema:"required,description=Free-text description of the task or capability to find skills for"`
	Limit int    `json:"limit,omitempty" jsonschema:"description=Maximum number of results to return (default 5)"`
}

type loadInput struct {
	SkillName   string `json:"skill_name" jsonschema:"required,description=Exact name of the skill to load"`
	ForceReload bool   `json:"force_reload,omitempty" jsonschema:"description=Re-read the skill source even if it is already loaded"`
}

type unloadInput struct {
	SkillName string `json:"skill_name" jsonschema:"required,description=Exact name of the skill to unload"`
}

type addDirectoryInput struct {
	Path string `json:"path" jsonschema:"required,description=Filesystem path of the skills directory to add"`
}

type handlers struct {
	mgr *manager.Manager
}

// jsonResult marshals a tagged result struct into a text tool result.
// Marshalling our own response types cannot fail at runtime, but the
// degenerate branch still answers inside the protocol rather than
// erroring out of it.
func jsonResult(v any) *mcp.CallToolResult {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(data))
}

func (h *handlers) listSkills(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var out *mcp.CallToolResult
	telemetry.WithSpanFunc(ctx, "tool.list_skills", func(ctx context.Context) {
		out = jsonResult(h.mgr.ListSkills())
	})
	return out, nil
}

func (h *handlers) searchSkills(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var in searchInput
	if err := req.BindArguments(&in); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if in.Query == "" {
		return mcp.NewToolResultError("query must not be empty"), nil
	}

	var out *mcp.CallToolResult
	telemetry.WithSpanFunc(ctx, "tool.search_skills", func(ctx context.Context) {
		out = jsonResult(h.mgr.SearchSkills(ctx, in.Query, in.Limit))
	}, attribute.String("query", in.Query))
	return out, nil
}

func (h *handlers) loadSkill(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var in loadInput
	if err := req.BindArguments(&in); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if in.SkillName == "" {
		return mcp.NewToolResultError("skill_name must not be empty"), nil
	}

	var out *mcp.CallToolResult
	telemetry.WithSpanFunc(ctx, "tool.load_skill", func(ctx context.Context) {
		out = jsonResult(h.mgr.LoadSkill(ctx, in.SkillName, in.ForceReload))
	}, attribute.String("skill", in.SkillName))
	return out, nil
}

func (h *handlers) unloadSkill(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var in unloadInput
	if err := req.BindArguments(&in); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if in.SkillName == "" {
		return mcp.NewToolResultError("skill_name must not be empty"), nil
	}

	var out *mcp.CallToolResult
	telemetry.WithSpanFunc(ctx, "tool.unload_skill", func(ctx context.Context) {
		out = jsonResult(h.mgr.UnloadSkill(in.SkillName))
	}, attribute.String("skill", in.SkillName))
	return out, nil
}

func (h *handlers) addSkillsDirectory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var in addDirectoryInput
	if err := req.BindArguments(&in); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if in.Path == "" {
		return mcp.NewToolResultError("path must not be empty"), nil
	}

	var out *mcp.CallToolResult
	telemetry.WithSpanFunc(ctx, "tool.add_skills_directory", func(ctx context.Context) {
		out = jsonResult(h.mgr.AddSkillsDirectory(ctx, in.Path))
	}, attribute.String("path", in.Path))
	return out, nil
}

func (h *handlers) reloadSkillsDirectory(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var out *mcp.CallToolResult
	telemetry.WithSpanFunc(ctx, "tool.reload_skills_directory", func(ctx context.Context) {
		out = jsonResult(h.mgr.ReloadSkillsDirectory(ctx))
	})
	return out, nil
}

func (h *handlers) getSearchStatus(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(h.mgr.SearchStatus()), nil
}

func (h *handlers) getEmbeddingError(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(h.mgr.EmbeddingError()), nil
}
