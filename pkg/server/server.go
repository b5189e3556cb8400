// Package server wires the skill manager into a Model Context Protocol
// server. This is the composition root: tool definitions and handlers
// live here, business logic lives in pkg/manager. No error ever crosses
// the tool boundary as a protocol failure; every operation answers with
// a structured JSON payload.
package server

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
	"github.com/lightpattern/skillet/pkg/manager"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// GenerateSchema reflects a JSON schema from a tool input struct.
func GenerateSchema[T any]() json.RawMessage {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T

	schema, err := json.Marshal(reflector.Reflect(v))
	if err != nil {
		// Reflection over our own static types cannot produce
		// unmarshalable output.
		panic(err)
	}
	return schema
}

// New creates the MCP server with all skill tools registered.
func New(mgr *manager.Manager, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"skillet",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	h := &handlers{mgr: mgr}

	s.AddTool(mcp.NewToolWithRawSchema(
		"list_skills",
		"List all available skills with their metadata. Lightweight: returns metadata only, no skill content. Call this first to discover what is available, then use search_skills or load_skill.",
		GenerateSchema[emptyInput](),
	), h.listSkills)

	s.AddTool(mcp.NewToolWithRawSchema(
		"search_skills",
		"Rank available skills against a free-text query. Uses semantic embedding similarity when the embedding backend is ready, otherwise deterministic keyword matching; the search_method field reports which one answered.",
		GenerateSchema[searchInput](),
	), h.searchSkills)

	s.AddTool(mcp.NewToolWithRawSchema(
		"load_skill",
		"Load the full content of a skill into context. Idempotent: an already-loaded skill returns status already_loaded without re-transmitting content. Set force_reload to re-read the source.",
		GenerateSchema[loadInput](),
	), h.loadSkill)

	s.AddTool(mcp.NewToolWithRawSchema(
		"unload_skill",
		"Remove a skill's content from the loaded set to free context tokens. Unloading a skill that is not loaded is a no-op success.",
		GenerateSchema[unloadInput](),
	), h.unloadSkill)

	s.AddTool(mcp.NewToolWithRawSchema(
		"add_skills_directory",
		"Add a directory of skills to the registry and rescan all configured directories.",
		GenerateSchema[addDirectoryInput](),
	), h.addSkillsDirectory)

	s.AddTool(mcp.NewToolWithRawSchema(
		"reload_skills_directory",
		"Rescan all skills directories for new, changed, or removed skills. Loaded skills whose sources disappeared are unloaded.",
		GenerateSchema[emptyInput](),
	), h.reloadSkillsDirectory)

	s.AddTool(mcp.NewToolWithRawSchema(
		"get_search_status",
		"Report which search strategy (embedding or keyword) is currently answering search_skills calls.",
		GenerateSchema[emptyInput](),
	), h.getSearchStatus)

	s.AddTool(mcp.NewToolWithRawSchema(
		"get_embedding_error",
		"Return the failure reason if the embedding search strategy is permanently disabled, or an empty string otherwise.",
		GenerateSchema[emptyInput](),
	), h.getEmbeddingError)

	return s
}

func serverInstructions() string {
	return `You have access to skillet, a skills server that lets you load reference
material into context on demand instead of preloading everything.

Usage pattern:

1. Discovery: call list_skills to see what is available, or search_skills
   with a description of the task to get a relevance-ranked shortlist.
2. Loading: call load_skill for the specific skills you need. Check the
   status field: "loaded" comes with content, "already_loaded" means the
   content is already in your context and is intentionally not repeated.
3. Context management: when switching domains, unload_skill frees the
   tokens of skills you no longer need before loading new ones.

Avoid loading all skills at once, and avoid re-loading a skill that
reports already_loaded unless you pass force_reload because the source
changed on disk.`
}
