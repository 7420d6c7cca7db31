package outwriter

import (
	"fmt"
	"io"
	"strings"

	"github.com/huangsam/codeaudit/internal/contract"
	"github.com/huangsam/codeaudit/schema"
)

const markdownTimeFormat = "2006-01-02 15:04:05"

const noneFound = "- None found ✅\n"

// actionPlan is the fixed effort table at the end of every report.
var actionPlan = [][3]string{
	{"🔴 Critical", "Fix security vulnerabilities", "1-2 days"},
	{"🟠 High", "Update outdated dependencies", "0.5-1 day"},
	{"🟡 Medium", "Improve low-scoring files", "2-3 days"},
	{"🔵 Low", "Add missing features", "1-2 weeks"},
	{"🟢 Enhancement", "Add test coverage", "1-2 weeks"},
}

// writeMarkdown renders the full Markdown report.
func writeMarkdown(w io.Writer, r *schema.Report, cfg *contract.Config) error {
	fmtFloat, _ := createFormatters(cfg.Precision)
	v := buildReportView(r)

	var b strings.Builder
	markdownSummary(&b, r, v, fmtFloat)
	markdownStructure(&b, r, v)
	markdownStrengths(&b, v)
	markdownIssues(&b, v)
	markdownDependencies(&b, r, v)
	markdownDatabase(&b, r, v)
	markdownFeatures(&b, r)
	markdownSecurity(&b, r)
	markdownRecommendations(&b, r)
	markdownActionPlan(&b)
	markdownQuality(&b, r, v, fmtFloat)
	markdownWarnings(&b, r)
	fmt.Fprintf(&b, "\n---\n\n*This report was automatically generated by codeaudit (rule catalog %s)*\n", r.CatalogVersion)

	_, err := io.WriteString(w, b.String())
	return err
}

func markdownSummary(b *strings.Builder, r *schema.Report, v reportView, fmtFloat func(float64) string) {
	fmt.Fprintf(b, "# 🔍 Audit Report - %s\n\n", v.Title)
	fmt.Fprintf(b, "**Generated:** %s  \n", r.GeneratedAt.Format(markdownTimeFormat))
	fmt.Fprintf(b, "**Project:** %s\n\n---\n\n", r.RootPath)

	b.WriteString("## 📊 Executive Summary\n\n")
	b.WriteString("| Category | Score |\n|----------|-------|\n")
	fmt.Fprintf(b, "| **Overall** | **%s/10** |\n", fmtFloat(r.Scores.Overall))
	fmt.Fprintf(b, "| Code Quality | %s/10 |\n", fmtFloat(r.Scores.CodeQuality))
	fmt.Fprintf(b, "| Security | %s/10 |\n", fmtFloat(r.Scores.Security))
	fmt.Fprintf(b, "| Feature Completeness | %s/10 |\n", fmtFloat(r.Scores.FeatureCompleteness))
	fmt.Fprintf(b, "| Database | %s/10 |\n", fmtFloat(r.Scores.Database))
}

func markdownStructure(b *strings.Builder, r *schema.Report, v reportView) {
	b.WriteString("\n---\n\n## 📁 Project Structure\n\n### Overview\n")
	fmt.Fprintf(b, "- **Total Files:** %d\n", r.Structure.TotalFiles)
	fmt.Fprintf(b, "- **Total Directories:** %d\n", r.Structure.TotalDirectories)

	b.WriteString("\n### Files by Extension\n| Extension | Count |\n|-----------|-------|\n")
	for _, ec := range v.TopExtensions {
		ext := ec.Extension
		if ext == "" {
			ext = "(none)"
		}
		fmt.Fprintf(b, "| %s | %d |\n", ext, ec.Count)
	}

	b.WriteString("\n### Detected Frameworks\n")
	for _, fw := range r.Structure.Frameworks {
		fmt.Fprintf(b, "- ✅ %s\n", fw)
	}
	b.WriteString("\n### Architecture Patterns\n")
	for _, p := range r.Structure.ArchitecturePatterns {
		fmt.Fprintf(b, "- 📐 %s\n", p)
	}
}

func markdownStrengths(b *strings.Builder, v reportView) {
	b.WriteString("\n---\n\n## ✨ Strengths\n\n")
	for _, s := range v.Strengths {
		fmt.Fprintf(b, "- ✅ %s\n", s)
	}
}

func markdownIssues(b *strings.Builder, v reportView) {
	b.WriteString("\n---\n\n## ⚠️ Issues by Priority\n\n### 🔴 Critical Issues\n")
	writeFindingList(b, v.Critical)

	b.WriteString("\n### 🟠 High Priority\n")
	writeFindingList(b, v.High)

	b.WriteString("\n### 🟡 Medium Priority\n")
	for _, f := range v.Medium {
		fmt.Fprintf(b, "- %s in `%s`\n", f.Description, f.File)
	}
	if v.LowQualityFiles > 0 {
		fmt.Fprintf(b, "- Low quality files detected: %d files scored < 5/10\n", v.LowQualityFiles)
	}
	if len(v.Medium) == 0 && v.LowQualityFiles == 0 {
		b.WriteString(noneFound)
	}

	b.WriteString("\n### 🔵 Low Priority\n")
	if v.LowFindings > 0 {
		fmt.Fprintf(b, "- %d console/debug statements found\n", v.LowFindings)
	}
	if v.MissingFeatures > 0 {
		fmt.Fprintf(b, "- %d potential features not yet implemented\n", v.MissingFeatures)
	}
	if v.LowFindings == 0 && v.MissingFeatures == 0 {
		b.WriteString(noneFound)
	}
}

func writeFindingList(b *strings.Builder, findings []schema.Finding) {
	if len(findings) == 0 {
		b.WriteString(noneFound)
		return
	}
	for _, f := range findings {
		fmt.Fprintf(b, "- **%s** in `%s` (line %d)\n", f.Description, f.File, f.Line)
	}
}

func markdownDependencies(b *strings.Builder, r *schema.Report, v reportView) {
	b.WriteString("\n---\n\n## 📦 Dependencies Analysis\n\n")
	fmt.Fprintf(b, "**Total Dependencies:** %d\n", r.Dependencies.TotalCount)
	if r.Dependencies.Error != "" {
		fmt.Fprintf(b, "\n**Error:** %s\n", r.Dependencies.Error)
	}

	fmt.Fprintf(b, "\n### Production Dependencies (%d)\n", len(r.Dependencies.Production))
	for _, d := range v.Production {
		fmt.Fprintf(b, "- `%s`: %s\n", d.Name, d.Version)
	}

	if len(v.VersionWarnings) > 0 {
		b.WriteString("\n### ⚠️ Version Warnings\n")
		for _, w := range v.VersionWarnings {
			fmt.Fprintf(b, "- %s\n", w)
		}
	}
}

func markdownDatabase(b *strings.Builder, r *schema.Report, v reportView) {
	b.WriteString("\n---\n\n## 🗄️ Database Analysis\n\n")
	fmt.Fprintf(b, "### Tables (%d)\n", len(r.Database.Tables))
	for _, t := range v.Tables {
		fmt.Fprintf(b, "- `%s`\n", t)
	}
	fmt.Fprintf(b, "\n### Functions (%d)\n", len(r.Database.Functions))
	for _, f := range v.Functions {
		fmt.Fprintf(b, "- `%s()`\n", f)
	}
	fmt.Fprintf(b, "\n### RLS Policies (%d)\n", len(r.Database.Policies))
	for _, p := range v.Policies {
		fmt.Fprintf(b, "- `%s`\n", p)
	}

	if len(r.Database.Issues) > 0 {
		b.WriteString("\n### ⚠️ Database Issues\n")
		for _, issue := range r.Database.Issues {
			fmt.Fprintf(b, "- %s\n", issue)
		}
	}
}

func markdownFeatures(b *strings.Builder, r *schema.Report) {
	b.WriteString("\n---\n\n## 🎯 Feature Coverage\n\n")
	fmt.Fprintf(b, "**Coverage:** %s%%\n\n### ✅ Existing Features\n", formatPercent(r.Features.CoveragePercentage))
	writeFeatureList(b, r.Features.Existing)

	if len(r.Features.Partial) > 0 {
		b.WriteString("\n### 🔶 Partial Implementation\n")
		writeFeatureList(b, r.Features.Partial)
	}
	if len(r.Features.Missing) > 0 {
		b.WriteString("\n### ❌ Missing Features\n")
		writeFeatureList(b, r.Features.Missing)
	}
}

func writeFeatureList(b *strings.Builder, features []schema.FeatureFinding) {
	for _, f := range features {
		fmt.Fprintf(b, "- **%s**: %s\n", f.Name, f.Description)
	}
}

func markdownSecurity(b *strings.Builder, r *schema.Report) {
	b.WriteString("\n---\n\n## 🛡️ Security Audit\n\n")
	fmt.Fprintf(b, "**Files Scanned:** %d  \n", r.Security.ScannedFiles)
	fmt.Fprintf(b, "**Total Issues:** %d\n\n", r.Security.TotalIssues)
	b.WriteString("| Severity | Count |\n|----------|-------|\n")
	for _, sev := range schema.AllSeverities {
		label := strings.ToUpper(string(sev[:1])) + string(sev[1:])
		fmt.Fprintf(b, "| %s | %d |\n", label, len(r.Security.Bucket(sev)))
	}
}

func markdownRecommendations(b *strings.Builder, r *schema.Report) {
	b.WriteString("\n---\n\n## 📋 Recommendations\n\n### Immediate Actions (This Week)\n")
	writeNumbered(b, r.Recommendations.Immediate)
	b.WriteString("\n### Short-term (This Month)\n")
	writeNumbered(b, r.Recommendations.ShortTerm)
	b.WriteString("\n### Long-term (This Quarter)\n")
	writeNumbered(b, r.Recommendations.LongTerm)
}

func writeNumbered(b *strings.Builder, items []string) {
	for i, item := range items {
		fmt.Fprintf(b, "%d. %s\n", i+1, item)
	}
}

func markdownActionPlan(b *strings.Builder) {
	b.WriteString("\n---\n\n## 📅 Suggested Action Plan\n\n")
	b.WriteString("| Priority | Task | Estimated Effort |\n|----------|------|------------------|\n")
	for _, row := range actionPlan {
		fmt.Fprintf(b, "| %s | %s | %s |\n", row[0], row[1], row[2])
	}
}

func markdownQuality(b *strings.Builder, r *schema.Report, v reportView, fmtFloat func(float64) string) {
	h := r.Quality.Histogram
	b.WriteString("\n---\n\n## 📊 Code Quality Details\n\n### File Scores Distribution\n")
	fmt.Fprintf(b, "- **Excellent (8-10):** %d files\n", h.Excellent)
	fmt.Fprintf(b, "- **Good (6-7.9):** %d files\n", h.Good)
	fmt.Fprintf(b, "- **Needs Improvement (4-5.9):** %d files\n", h.NeedsImprovement)
	fmt.Fprintf(b, "- **Poor (<4):** %d files\n", h.Poor)
	fmt.Fprintf(b, "\n**Average Score:** %s/10\n", fmtFloat(r.Quality.AverageScore))

	b.WriteString("\n### Files Needing Attention\n")
	for _, f := range v.WorstFiles {
		fmt.Fprintf(b, "- `%s`: %s/10\n", f.Path, fmtFloat(f.Score))
		for _, issue := range f.Issues {
			fmt.Fprintf(b, "  - %s\n", issue)
		}
	}
}

// markdownWarnings lists pass failures and input warnings, if any.
func markdownWarnings(b *strings.Builder, r *schema.Report) {
	if len(r.PassErrors) == 0 && len(r.Warnings) == 0 {
		return
	}
	b.WriteString("\n---\n\n## 🚧 Audit Warnings\n\n")
	for _, pass := range schema.AllPasses {
		if msg, ok := r.PassErrors[pass]; ok {
			fmt.Fprintf(b, "- Pass `%s` failed: %s\n", pass, msg)
		}
	}
	for _, w := range r.Warnings {
		fmt.Fprintf(b, "- %s\n", w)
	}
}
