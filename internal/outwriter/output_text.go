package outwriter

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/codeaudit/internal/contract"
	"github.com/huangsam/codeaudit/schema"
	"github.com/mattn/go-runewidth"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// categoryNames are the display names of scorecard fields.
var categoryNames = map[schema.ScoreCategory]string{
	schema.CodeQualityScore:         "Code Quality",
	schema.SecurityScore:            "Security",
	schema.FeatureCompletenessScore: "Feature Completeness",
	schema.DatabaseScore:            "Database",
	schema.OverallScore:             "Overall",
}

// CategoryName returns the display name of a scorecard field.
func CategoryName(cat schema.ScoreCategory) string {
	if name, ok := categoryNames[cat]; ok {
		return name
	}
	return string(cat)
}

// scoreLabel picks the colored or plain band label.
func scoreLabel(score float64, useColors bool) string {
	if useColors {
		return contract.GetColorLabel(score)
	}
	return contract.GetPlainLabel(score)
}

// writeReportText renders the terminal view of a report.
func writeReportText(w io.Writer, r *schema.Report, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	if _, err := fmt.Fprintf(w, "🔍 Audit: %s (rules %s)\n", projectName(r.RootPath), r.CatalogVersion); err != nil {
		return err
	}
	if err := writeScoreTable(w, r.Scores, cfg, fmtFloat); err != nil {
		return err
	}
	if findings := r.Security.All(); len(findings) > 0 {
		if err := writeFindingsTable(w, findings, cfg, intFmt); err != nil {
			return err
		}
	}
	if len(r.Quality.Files) > 0 {
		if err := writeWorstFilesTable(w, schema.WorstFiles(r.Quality.Files, worstFilesShown), cfg, fmtFloat, intFmt); err != nil {
			return err
		}
	}
	for _, pass := range schema.AllPasses {
		if msg, ok := r.PassErrors[pass]; ok {
			if _, err := fmt.Fprintf(w, "⚠️  Pass %s failed: %s\n", pass, msg); err != nil {
				return err
			}
		}
	}
	if _, err := fmt.Fprintf(w, "Showing %d files (%d lines, %d findings)\n", r.Quality.FilesAnalyzed, r.Quality.TotalLines, r.Security.TotalIssues); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Audit completed in %v with %d workers. History backend: %s\n", duration, cfg.Workers, cfg.HistoryBackend)
	return err
}

// writeScoreTable renders the scorecard.
func writeScoreTable(w io.Writer, scores schema.ScoreCard, cfg *contract.Config, fmtFloat func(float64) string) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Category", "Score", "Label"})
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, cat := range schema.AllScoreCategories {
		score := scores.Get(cat)
		data = append(data, []string{CategoryName(cat), fmtFloat(score), scoreLabel(score, cfg.UseColors)})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// writeFindingsTable renders security findings in tier order.
func writeFindingsTable(w io.Writer, findings []schema.Finding, cfg *contract.Config, intFmt string) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Severity", "Rule", "Location", "Code"})

	pathWidth := GetMaxTablePathWidth(cfg)
	snippetWidth := getMaxSnippetWidth(cfg)
	var data [][]string
	for _, f := range findings {
		data = append(data, []string{
			contract.GetSeverityLabel(f.Severity, cfg.UseColors),
			f.RuleID,
			contract.TruncatePath(f.File, pathWidth) + ":" + fmt.Sprintf(intFmt, f.Line),
			runewidth.Truncate(f.Snippet, snippetWidth, "..."),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// writeWorstFilesTable renders the lowest scoring files.
func writeWorstFilesTable(w io.Writer, files []schema.RankedFileQuality, cfg *contract.Config, fmtFloat func(float64) string, intFmt string) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Rank", "Path", "Score", "Label", "Lines", "Issues"})
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignRight
	})

	pathWidth := GetMaxTablePathWidth(cfg)
	var data [][]string
	for _, f := range files {
		data = append(data, []string{
			strconv.Itoa(f.Rank),
			contract.TruncatePath(f.Path, pathWidth),
			fmtFloat(f.Score),
			scoreLabel(f.Score, cfg.UseColors),
			fmt.Sprintf(intFmt, f.LineCount),
			fmt.Sprintf(intFmt, len(f.Issues)),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// PrintSummary writes a short scorecard digest, typically to stderr.
func PrintSummary(w io.Writer, r *schema.Report, cfg *contract.Config, duration time.Duration) {
	fmtFloat, _ := createFormatters(cfg.Precision)
	_, _ = fmt.Fprintf(w, "📊 Overall: %s/10 (%s)\n", fmtFloat(r.Scores.Overall), scoreLabel(r.Scores.Overall, cfg.UseColors))
	_, _ = fmt.Fprintf(w, "   Code Quality %s · Security %s · Features %s · Database %s\n",
		fmtFloat(r.Scores.CodeQuality),
		fmtFloat(r.Scores.Security),
		fmtFloat(r.Scores.FeatureCompleteness),
		fmtFloat(r.Scores.Database))
	_, _ = fmt.Fprintf(w, "🛡️  Findings: %d critical, %d high, %d medium, %d low\n",
		len(r.Security.Critical), len(r.Security.High), len(r.Security.Medium), len(r.Security.Low))
	_, _ = fmt.Fprintf(w, "⏱️  Completed in %v\n", duration.Round(time.Millisecond))
}
