package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/huangsam/codeaudit/core"
	"github.com/huangsam/codeaudit/internal/contract"
	"github.com/huangsam/codeaudit/internal/rules"
	"github.com/huangsam/codeaudit/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.HistoryManager
}

// securityResult is the payload of scan_security.
type securityResult struct {
	MinSeverity  schema.Severity  `json:"min_severity"`
	ScannedFiles int              `json:"scanned_files"`
	Total        int              `json:"total"`
	Findings     []schema.Finding `json:"findings"`
}

// rulesResult is the payload of list_rules.
type rulesResult struct {
	Version string       `json:"version"`
	Rules   []rules.Info `json:"rules"`
}

// configFor clones the base config and applies the common repo_path argument.
func (h *toolHandler) configFor(request mcp.CallToolRequest) *contract.Config {
	cfg := h.baseCfg.Clone()
	if p := request.GetString("repo_path", ""); p != "" {
		cfg.RootPath = p
	}
	return cfg
}

func (h *toolHandler) handleRunAudit(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.configFor(request)
	if raw := request.GetString("passes", ""); raw != "" {
		passes, err := parsePasses(raw)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid passes: %v", err)), nil
		}
		cfg.Passes = passes
	}

	report, err := core.RunAudit(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("audit failed: %v", err)), nil
	}
	return jsonResult(report)
}

func (h *toolHandler) handleGetScorecard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.configFor(request)

	report, err := core.RunAudit(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("audit failed: %v", err)), nil
	}
	return jsonResult(report.Scores)
}

func (h *toolHandler) handleScanSecurity(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	minSev := schema.Severity(strings.ToLower(request.GetString("min_severity", string(schema.LowSeverity))))
	if _, ok := schema.ValidSeverities[minSev]; !ok {
		return mcp.NewToolResultError(fmt.Sprintf("invalid min_severity %q: must be one of critical, high, medium, low", minSev)), nil
	}

	cfg := h.configFor(request)
	cfg.Passes = []schema.PassName{schema.SecurityPass}

	// History is skipped: a security-only run would record a misleading scorecard.
	report, err := core.RunAudit(core.WithSuppressHeader(ctx), cfg, nil)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("security scan failed: %v", err)), nil
	}

	findings := report.Security.AtOrAbove(minSev)
	if findings == nil {
		findings = []schema.Finding{}
	}
	return jsonResult(securityResult{
		MinSeverity:  minSev,
		ScannedFiles: report.Security.ScannedFiles,
		Total:        len(findings),
		Findings:     findings,
	})
}

func (h *toolHandler) handleListRules(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	catalog := h.baseCfg.Catalog
	if catalog == nil {
		catalog = rules.Default()
	}

	var selected []rules.Rule
	if cat := request.GetString("category", ""); cat != "" {
		category := rules.Category(strings.ToLower(cat))
		if _, ok := rules.ValidCategories[category]; !ok {
			return mcp.NewToolResultError(fmt.Sprintf("invalid category %q", cat)), nil
		}
		selected = catalog.ForCategory(category)
	} else {
		selected = catalog.Rules()
	}

	result := rulesResult{Version: catalog.Version(), Rules: make([]rules.Info, 0, len(selected))}
	for _, r := range selected {
		result.Rules = append(result.Rules, r.Info())
	}
	return jsonResult(result)
}

// parsePasses validates a comma-separated pass list. Unlike the CLI, unknown
// names are rejected so the caller learns about the typo.
func parsePasses(raw string) ([]schema.PassName, error) {
	selected := map[schema.PassName]bool{}
	for _, name := range schema.ParseList(raw) {
		pass := schema.PassName(strings.ToLower(name))
		if _, ok := schema.ValidPasses[pass]; !ok {
			return nil, fmt.Errorf("unknown pass %q", name)
		}
		selected[pass] = true
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("no passes given")
	}
	var passes []schema.PassName
	for _, pass := range schema.AllPasses {
		if selected[pass] {
			passes = append(passes, pass)
		}
	}
	return passes, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}
