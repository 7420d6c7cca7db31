package outwriter

import (
	"cmp"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/huangsam/codeaudit/schema"
)

// Display caps for the rendered report.
const (
	topIssuesShown       = 10
	mediumIssuesShown    = 5
	topExtensionsShown   = 10
	productionDepsShown  = 15
	versionWarningsShown = 5
	tablesShown          = 20
	functionsShown       = 10
	policiesShown        = 10
	worstFilesShown      = 10
	issuesPerFileShown   = 2
	lowQualityCutoff     = 5.0
)

// Strength cutoffs.
const (
	strongQualityScore   = 7.0
	manyPatterns         = 5
	manyPolicies         = 5
	strongCoveragePct    = 70.0
	typeScriptFramework  = "TypeScript"
	i18nFrameworkKeyword = "i18next"
)

// extensionCount is one row of the file-type table.
type extensionCount struct {
	Extension string
	Count     int
}

// dependency is one manifest entry.
type dependency struct {
	Name    string
	Version string
}

// reportView is the presentation model of a report. It is derived from the
// report without recomputing any score.
type reportView struct {
	Title           string
	Strengths       []string
	Critical        []schema.Finding
	High            []schema.Finding
	Medium          []schema.Finding
	LowQualityFiles int
	LowFindings     int
	MissingFeatures int
	TopExtensions   []extensionCount
	Production      []dependency
	VersionWarnings []string
	Tables          []string
	Functions       []string
	Policies        []string
	WorstFiles      []schema.RankedFileQuality
}

// buildReportView derives the presentation model.
func buildReportView(r *schema.Report) reportView {
	v := reportView{
		Title:           projectName(r.RootPath),
		Strengths:       strengths(r),
		Critical:        firstN(r.Security.Critical, topIssuesShown),
		High:            firstN(r.Security.High, topIssuesShown),
		Medium:          firstN(r.Security.Medium, mediumIssuesShown),
		LowFindings:     len(r.Security.Low),
		MissingFeatures: len(r.Features.Missing),
		TopExtensions:   topExtensions(r.Structure.FilesByExtension, topExtensionsShown),
		VersionWarnings: firstN(r.Dependencies.VersionWarnings, versionWarningsShown),
		Tables:          firstN(r.Database.Tables, tablesShown),
		Functions:       firstN(r.Database.Functions, functionsShown),
		Policies:        firstN(r.Database.Policies, policiesShown),
		WorstFiles:      schema.WorstFiles(r.Quality.Files, worstFilesShown),
	}
	for _, f := range r.Quality.Files {
		if f.Score < lowQualityCutoff {
			v.LowQualityFiles++
		}
	}
	v.LowQualityFiles = min(v.LowQualityFiles, mediumIssuesShown)
	for _, name := range firstN(schema.SortedKeys(r.Dependencies.Production), productionDepsShown) {
		v.Production = append(v.Production, dependency{Name: name, Version: r.Dependencies.Production[name]})
	}
	for i := range v.WorstFiles {
		v.WorstFiles[i].Issues = firstN(v.WorstFiles[i].Issues, issuesPerFileShown)
	}
	return v
}

// strengths lists the positive observations of a report.
func strengths(r *schema.Report) []string {
	var out []string
	if r.Scores.CodeQuality >= strongQualityScore {
		out = append(out, "High code quality standards maintained")
	}
	if len(r.Structure.ArchitecturePatterns) >= manyPatterns {
		out = append(out, "Well-organized project architecture with clear patterns")
	}
	if slices.Contains(r.Structure.Frameworks, typeScriptFramework) {
		out = append(out, "TypeScript for type safety")
	}
	if strings.Contains(strings.Join(r.Structure.Frameworks, " "), i18nFrameworkKeyword) {
		out = append(out, "Internationalization support implemented")
	}
	if len(r.Database.Policies) > manyPolicies {
		out = append(out, "Row-Level Security policies in place")
	}
	if r.Features.CoveragePercentage >= strongCoveragePct {
		out = append(out, "Good feature coverage ("+formatPercent(r.Features.CoveragePercentage)+"%)")
	}
	if len(r.Security.Critical) == 0 {
		out = append(out, "No critical security vulnerabilities found")
	}
	if len(out) == 0 {
		out = append(out, "Project is functional and running")
	}
	return out
}

// topExtensions orders extensions by count descending, then by name.
func topExtensions(byExt map[string]int, limit int) []extensionCount {
	out := make([]extensionCount, 0, len(byExt))
	for ext, n := range byExt {
		out = append(out, extensionCount{Extension: ext, Count: n})
	}
	slices.SortFunc(out, func(a, b extensionCount) int {
		return cmp.Or(cmp.Compare(b.Count, a.Count), cmp.Compare(a.Extension, b.Extension))
	})
	return firstN(out, limit)
}

// projectName is the display name of an audit root.
func projectName(root string) string {
	name := filepath.Base(root)
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "current"
	}
	return name
}

// formatPercent prints a percentage without trailing zeros.
func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// firstN returns at most n leading elements.
func firstN[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
