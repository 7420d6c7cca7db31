// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/codeaudit/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the codeaudit MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.HistoryManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Codeaudit Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: run_audit ---
	s.AddTool(mcp.NewTool("run_audit",
		mcp.WithDescription("Audit a project tree and return the full report with scores and recommendations."),
		mcp.WithString("repo_path", mcp.Description("Path to the project root (defaults to the configured root).")),
		mcp.WithString("passes", mcp.Description("Comma-separated passes to run (structure, quality, dependencies, database, features, security). Defaults to all.")),
	), h.handleRunAudit)

	// --- 2. Tool: get_scorecard ---
	s.AddTool(mcp.NewTool("get_scorecard",
		mcp.WithDescription("Audit a project tree and return only its scorecard."),
		mcp.WithString("repo_path", mcp.Description("Path to the project root.")),
	), h.handleGetScorecard)

	// --- 3. Tool: scan_security ---
	s.AddTool(mcp.NewTool("scan_security",
		mcp.WithDescription("Scan a project tree for security findings."),
		mcp.WithString("repo_path", mcp.Description("Path to the project root.")),
		mcp.WithString("min_severity", mcp.Description("Lowest severity to return. Defaults to 'low'."), mcp.Enum("critical", "high", "medium", "low")),
	), h.handleScanSecurity)

	// --- 4. Tool: list_rules ---
	s.AddTool(mcp.NewTool("list_rules",
		mcp.WithDescription("List the rules of the active pattern catalog."),
		mcp.WithString("category", mcp.Description("Only list rules of this category."),
			mcp.Enum("security", "debug", "type-safety", "marker", "comment", "feature-content")),
	), h.handleListRules)

	return s
}

// StartMCPServer starts the codeaudit MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.HistoryManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
