package outwriter

import (
	"io"

	"github.com/huangsam/codeaudit/schema"
)

const (
	sarifVersion = "2.1.0"
	sarifSchema  = "https://json.schemastore.org/sarif-2.1.0.json"
)

type sarifLog struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version,omitempty"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string            `json:"id"`
	ShortDescription sarifText         `json:"shortDescription"`
	Properties       map[string]string `json:"properties,omitempty"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifText       `json:"message"`
	Locations []sarifLocation `json:"locations"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int        `json:"startLine,omitempty"`
	Snippet   *sarifText `json:"snippet,omitempty"`
}

type sarifText struct {
	Text string `json:"text"`
}

// buildSARIF converts the security findings into a SARIF log.
// Rules are listed in order of first appearance so the output is stable.
func buildSARIF(report *schema.Report) sarifLog {
	findings := report.Security.All()
	rules := make([]sarifRule, 0)
	seen := make(map[string]bool)
	results := make([]sarifResult, 0, len(findings))

	for _, f := range findings {
		if !seen[f.RuleID] {
			seen[f.RuleID] = true
			rules = append(rules, sarifRule{
				ID:               f.RuleID,
				ShortDescription: sarifText{Text: f.Description},
				Properties: map[string]string{
					"category": f.Category,
					"severity": string(f.Severity),
				},
			})
		}

		loc := sarifLocation{
			PhysicalLocation: sarifPhysicalLocation{
				ArtifactLocation: sarifArtifactLocation{URI: f.File},
			},
		}
		if f.Line > 0 {
			loc.PhysicalLocation.Region = &sarifRegion{StartLine: f.Line}
			if f.Snippet != "" {
				loc.PhysicalLocation.Region.Snippet = &sarifText{Text: f.Snippet}
			}
		}
		results = append(results, sarifResult{
			RuleID:    f.RuleID,
			Level:     sarifLevel(f.Severity),
			Message:   sarifText{Text: f.Description},
			Locations: []sarifLocation{loc},
		})
	}

	return sarifLog{
		Version: sarifVersion,
		Schema:  sarifSchema,
		Runs: []sarifRun{{
			Tool: sarifTool{Driver: sarifDriver{
				Name:    "codeaudit",
				Version: report.CatalogVersion,
				Rules:   rules,
			}},
			Results: results,
		}},
	}
}

// writeSARIF writes the security findings of a report as SARIF.
func writeSARIF(w io.Writer, report *schema.Report) error {
	return writeJSON(w, buildSARIF(report))
}

// sarifLevel maps a severity tier onto a SARIF result level.
func sarifLevel(sev schema.Severity) string {
	switch sev {
	case schema.CriticalSeverity, schema.HighSeverity:
		return "error"
	case schema.MediumSeverity:
		return "warning"
	default:
		return "note"
	}
}
