package mcp

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/rsdocs/docseek/internal/daemon"
	"github.com/rsdocs/docseek/internal/rpc"
)

//go:embed instructions.md
var instructions string

type Server struct {
	mcpServer *server.MCPServer
	client    *daemon.Client
}

func NewServer(socketPath string) (*Server, error) {
	client, err := daemon.ConnectOrSpawn(socketPath)
	if err != nil {
		return nil, fmt.Errorf("connecting to daemon: %w", err)
	}

	s := &Server{client: client}

	mcpServer := server.NewMCPServer(
		"docseek",
		"0.1.0",
		server.WithInstructions(instructions),
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)

	s.registerTools(mcpServer)
	s.registerResources(mcpServer)

	s.mcpServer = mcpServer
	return s, nil
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(
		mcp.NewTool("index_crates",
			mcp.WithDescription("Fetch and decode the rustdoc search index of Rust crates from docs.rs. Synchronous, returns when complete. Version defaults to \"latest\". Stdlib crates (std, core, alloc) are supported."),
			indexCratesSchema,
		),
		s.handleIndexCrates,
	)

	mcpServer.AddTool(
		mcp.NewTool("lookup_item",
			mcp.WithDescription("Resolve a Rust item path (e.g. \"serde::de::Visitor\") to its documentation URL. Indexes the crate automatically if needed. Returns close matches when the exact path is not found."),
			mcp.WithString("path",
				mcp.Description("Full item path, crate name first (e.g. \"tokio::sync::Mutex\")"),
				mcp.Required(),
			),
			mcp.WithString("version",
				mcp.Description("Crate version (default: \"latest\")"),
			),
		),
		s.handleLookupItem,
	)

	mcpServer.AddTool(
		mcp.NewTool("search_crates",
			mcp.WithDescription("Search crates.io for Rust crates by name or keyword. Results indicate which crates are already indexed locally."),
			mcp.WithString("query",
				mcp.Description("Search query (crate name or keyword)"),
				mcp.Required(),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of results (default 20)"),
			),
		),
		s.handleSearchCrates,
	)
}

func indexCratesSchema(t *mcp.Tool) {
	t.InputSchema.Required = append(t.InputSchema.Required, "crates")
	t.InputSchema.Properties["crates"] = map[string]any{
		"type":        "array",
		"description": "List of crates to index",
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name": map[string]any{
					"type":        "string",
					"description": "Crate name (e.g., \"serde\")",
				},
				"version": map[string]any{
					"type":        "string",
					"description": "Version (default: \"latest\")",
				},
			},
			"required": []string{"name"},
		},
	}
}

func (s *Server) registerResources(mcpServer *server.MCPServer) {
	mcpServer.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"rsdoc://{crate}/{version}/{path}",
			"Rust documentation item",
			mcp.WithTemplateDescription("Resolve a specific Rust documentation item to its URL. Lookup results return these URIs."),
			mcp.WithTemplateMIMEType("application/json"),
		),
		s.handleReadResource,
	)
}

func (s *Server) handleIndexCrates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	cratesRaw, ok := args["crates"]
	if !ok {
		return mcp.NewToolResultError("missing required parameter: crates"), nil
	}

	cratesJSON, err := json.Marshal(cratesRaw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid crates parameter: %v", err)), nil
	}

	var specs []rpc.CrateSpec
	if err := json.Unmarshal(cratesJSON, &specs); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid crates format: %v", err)), nil
	}

	resp, err := s.client.AddCrates(ctx, specs, nil)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to index crates: %v", err)), nil
	}

	resultJSON, _ := json.MarshalIndent(resp.Results, "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) handleLookupItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, _ := args["path"].(string)
	if path == "" {
		return mcp.NewToolResultError("missing required parameter: path"), nil
	}

	resolveReq := rpc.ResolveRequest{Path: path}
	if version, ok := args["version"].(string); ok {
		resolveReq.Version = version
	}

	resp, err := s.client.Resolve(ctx, resolveReq)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("lookup failed: %v", err)), nil
	}

	resultJSON, _ := json.MarshalIndent(resp, "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) handleSearchCrates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	query, _ := args["query"].(string)
	if query == "" {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	var searchReq rpc.SearchCratesRequest
	searchReq.Query = query
	if limit, ok := args["limit"].(float64); ok {
		searchReq.Limit = int(limit)
	}

	resp, err := s.client.SearchCrates(ctx, searchReq)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	resultJSON, _ := json.MarshalIndent(resp.Results, "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) handleReadResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	trimmed := strings.TrimPrefix(uri, "rsdoc://")
	parts := strings.SplitN(trimmed, "/", 3)
	if len(parts) < 3 {
		return nil, fmt.Errorf("invalid resource URI: %s", uri)
	}

	resp, err := s.client.Resolve(ctx, rpc.ResolveRequest{
		Path:    parts[2],
		Version: parts[1],
	})
	if err != nil {
		return nil, fmt.Errorf("resolving item: %w", err)
	}

	resultJSON, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(resultJSON),
		},
	}, nil
}

func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) Shutdown(_ context.Context) error {
	return nil
}
