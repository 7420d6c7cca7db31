package core

import (
	"context"
	"slices"
	"sort"
	"strings"

	"github.com/huangsam/codeaudit/core/agg"
	"github.com/huangsam/codeaudit/internal/collector"
	"github.com/huangsam/codeaudit/internal/contract"
	"github.com/huangsam/codeaudit/internal/rules"
	"github.com/huangsam/codeaudit/schema"
)

// maxSnippetRunes bounds the source excerpt stored with a finding.
const maxSnippetRunes = 80

// fileScan is the outcome of scanning one file.
type fileScan struct {
	read     bool
	findings []schema.Finding
}

// scanSecurity applies every security tier to the scan set and buckets the findings.
func scanSecurity(ctx context.Context, cfg *contract.Config, fc *collector.FileCollector, catalog *rules.Catalog) schema.SecurityReport {
	keep := func(rel string) bool {
		return !slices.ContainsFunc(cfg.SkipFragments, func(fragment string) bool {
			return strings.Contains(rel, fragment)
		})
	}

	scans := agg.FanOut(ctx, fc.FilesMatching(ctx, cfg.ScanExtensions, keep), cfg.Workers, func(rec schema.FileRecord) fileScan {
		return scanFile(catalog, rules.DefaultSuppressions, rec)
	})

	report := schema.SecurityReport{}
	buckets := map[schema.Severity][]schema.Finding{}
	for _, s := range scans {
		if s.read {
			report.ScannedFiles++
		}
		for _, f := range s.findings {
			buckets[f.Severity] = append(buckets[f.Severity], f)
		}
	}

	compare := schema.CompareFindings(catalog.Order())
	for _, sev := range schema.AllSeverities {
		findings := buckets[sev]
		if findings == nil {
			findings = []schema.Finding{}
		}
		slices.SortFunc(findings, compare)
		report.SetBucket(sev, findings)
	}
	report.TotalIssues = report.Count()
	return report
}

// scanFile matches the security rules of every tier against one file.
func scanFile(catalog *rules.Catalog, suppressions []rules.Suppression, rec schema.FileRecord) fileScan {
	if rec.Err != nil {
		return fileScan{}
	}

	scan := fileScan{read: true}
	var starts []int // byte offset of each line, built on first match
	for _, sev := range schema.AllSeverities {
		for _, r := range catalog.SecurityTier(sev) {
			if !r.AppliesTo(rec.Extension) {
				continue
			}
			for _, loc := range r.Pattern.FindAllStringIndex(rec.Content, -1) {
				match := rec.Content[loc[0]:loc[1]]
				if r.Suppressed(match) || suppressed(suppressions, rec.RelativePath, match) {
					continue
				}
				if starts == nil {
					starts = lineStarts(rec.Content)
				}
				line := sort.SearchInts(starts, loc[0]+1)
				scan.findings = append(scan.findings, schema.Finding{
					Severity:    sev,
					Category:    string(r.Category),
					RuleID:      r.ID,
					Description: r.Description,
					File:        rec.RelativePath,
					Line:        line,
					Snippet:     snippet(rec.Content, starts[line-1]),
				})
			}
		}
	}
	return scan
}

// suppressed reports whether any suppression covers the match.
func suppressed(suppressions []rules.Suppression, path, match string) bool {
	for _, s := range suppressions {
		if s.Applies(path, match) {
			return true
		}
	}
	return false
}

// lineStarts returns the byte offset at which each line begins.
func lineStarts(content string) []int {
	starts := []int{0}
	for i := range len(content) {
		if content[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// snippet returns up to maxSnippetRunes of the line beginning at start.
func snippet(content string, start int) string {
	line := content[start:]
	if end := strings.IndexByte(line, '\n'); end >= 0 {
		line = line[:end]
	}
	runes := []rune(line)
	if len(runes) > maxSnippetRunes {
		return string(runes[:maxSnippetRunes])
	}
	return line
}
