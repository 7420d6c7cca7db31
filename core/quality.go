package core

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/huangsam/codeaudit/core/agg"
	"github.com/huangsam/codeaudit/internal/collector"
	"github.com/huangsam/codeaudit/internal/contract"
	"github.com/huangsam/codeaudit/internal/rules"
	"github.com/huangsam/codeaudit/schema"
)

// Quality heuristics. Each deduction applies at most once per file.
const (
	longFileLines       = 500
	somewhatLongLines   = 300
	maxLineWidth        = 120
	maxLongLines        = 10
	minCommentRatio     = 0.05
	commentCheckMinimum = 50
	maxMarkers          = 3
	maxDebugStatements  = 5
	maxIndentWidth      = 24
	maxAnyAnnotations   = 5

	unreadableFileScore = 5.0
)

// analyzeQuality scores every quality-scored source file concurrently.
func analyzeQuality(ctx context.Context, cfg *contract.Config, fc *collector.FileCollector, catalog *rules.Catalog) schema.QualityReport {
	records := agg.FanOut(ctx, fc.Files(ctx, cfg.QualityExtensions), cfg.Workers, func(rec schema.FileRecord) schema.FileQualityRecord {
		return scoreFile(catalog, rec)
	})
	return summarizeQuality(records)
}

// scoreFile starts each file at the maximum score and deducts per heuristic.
func scoreFile(catalog *rules.Catalog, rec schema.FileRecord) schema.FileQualityRecord {
	if rec.Err != nil {
		return schema.FileQualityRecord{
			Path:   rec.RelativePath,
			Score:  unreadableFileScore,
			Issues: []string{"could not read file"},
		}
	}

	score := agg.MaxScore
	issues := []string{}
	lines := strings.Split(rec.Content, "\n")
	lineCount := len(lines)

	switch {
	case lineCount > longFileLines:
		score -= 2
		issues = append(issues, fmt.Sprintf("File too long (%d lines)", lineCount))
	case lineCount > somewhatLongLines:
		score--
		issues = append(issues, fmt.Sprintf("File somewhat long (%d lines)", lineCount))
	}

	longLines := 0
	maxIndent := 0
	for _, line := range lines {
		width := utf8.RuneCountInString(line)
		if width > maxLineWidth {
			longLines++
		}
		stripped := strings.TrimLeftFunc(line, unicode.IsSpace)
		if stripped == "" {
			continue
		}
		maxIndent = max(maxIndent, width-utf8.RuneCountInString(stripped))
	}
	if longLines > maxLongLines {
		score--
		issues = append(issues, fmt.Sprintf("%d lines exceed %d characters", longLines, maxLineWidth))
	}

	comments := countMatches(catalog.ForExtension(rules.CommentCategory, rec.Extension), rec.Content)
	ratio := float64(comments) / float64(max(lineCount, 1))
	if ratio < minCommentRatio && lineCount > commentCheckMinimum {
		score--
		issues = append(issues, "Insufficient comments")
	}

	if markers := countMatches(catalog.ForExtension(rules.MarkerCategory, rec.Extension), rec.Content); markers > maxMarkers {
		score -= 0.5
		issues = append(issues, fmt.Sprintf("%d TODO/FIXME markers found", markers))
	}

	if debug := countMatches(catalog.ForExtension(rules.DebugCategory, rec.Extension), rec.Content); debug > maxDebugStatements {
		score--
		issues = append(issues, fmt.Sprintf("%d debug statements found", debug))
	}

	if maxIndent > maxIndentWidth {
		score--
		issues = append(issues, "Deeply nested code detected")
	}

	if anys := countMatches(catalog.ForExtension(rules.TypeSafetyCategory, rec.Extension), rec.Content); anys > maxAnyAnnotations {
		score--
		issues = append(issues, fmt.Sprintf("%d 'any' type usages found", anys))
	}

	return schema.FileQualityRecord{
		Path:      rec.RelativePath,
		Score:     agg.ClampScore(score),
		LineCount: lineCount,
		Issues:    issues,
	}
}

// countMatches sums the non-overlapping matches of every rule, minus suppressed ones.
func countMatches(rs []rules.Rule, content string) int {
	total := 0
	for _, r := range rs {
		for _, m := range r.Pattern.FindAllString(content, -1) {
			if !r.Suppressed(m) {
				total++
			}
		}
	}
	return total
}

// summarizeQuality orders records by path and derives the aggregate fields.
func summarizeQuality(records []schema.FileQualityRecord) schema.QualityReport {
	slices.SortFunc(records, func(a, b schema.FileQualityRecord) int {
		return strings.Compare(a.Path, b.Path)
	})

	report := schema.QualityReport{Files: records}
	if report.Files == nil {
		report.Files = []schema.FileQualityRecord{}
	}

	var sum float64
	for _, r := range records {
		report.FilesAnalyzed++
		report.TotalLines += r.LineCount
		sum += r.Score
		switch schema.QualityLabel(r.Score) {
		case schema.ExcellentLabel:
			report.Histogram.Excellent++
		case schema.GoodLabel:
			report.Histogram.Good++
		case schema.NeedsImprovementLabel:
			report.Histogram.NeedsImprovement++
		default:
			report.Histogram.Poor++
		}
	}
	if report.FilesAnalyzed > 0 {
		report.AverageScore = agg.Round1(sum / float64(report.FilesAnalyzed))
	}
	return report
}
