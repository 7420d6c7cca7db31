package core

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/huangsam/codeaudit/internal/contract"
	"github.com/huangsam/codeaudit/schema"
)

// ExecuteCheck runs an audit as a CI/CD gate.
// It exits with status 1 when a scorecard field is below its threshold or
// critical findings exceed the configured maximum.
func ExecuteCheck(ctx context.Context, cfg *contract.Config, mgr contract.HistoryManager) error {
	start := time.Now()

	report, err := RunAudit(ctx, cfg, mgr)
	if err != nil {
		return err
	}

	result := evaluateCheck(report, cfg)
	printCheckResult(result, time.Since(start))

	if !result.Passed {
		fmt.Printf("%d violation(s) found\n", countViolations(result))
		os.Exit(1)
	}
	return nil
}

// evaluateCheck compares a scored report against the configured gates.
// A zero threshold disables its gate.
func evaluateCheck(report *schema.Report, cfg *contract.Config) *schema.CheckResult {
	result := &schema.CheckResult{
		RootPath:         report.RootPath,
		Scores:           report.Scores,
		Thresholds:       cfg.Thresholds,
		CriticalFindings: len(report.Security.Critical),
		MaxCritical:      cfg.MaxCritical,
		FilesAnalyzed:    report.Quality.FilesAnalyzed,
		ScannedFiles:     report.Security.ScannedFiles,
	}

	for _, cat := range schema.AllScoreCategories {
		threshold := cfg.Thresholds[cat]
		if threshold <= 0 {
			continue
		}
		if score := report.Scores.Get(cat); score < threshold {
			result.Violations = append(result.Violations, schema.CheckViolation{
				Category:  cat,
				Score:     score,
				Threshold: threshold,
			})
		}
	}

	result.Passed = len(result.Violations) == 0 && !criticalGateFailed(result)
	return result
}

// criticalGateFailed reports whether critical findings exceed the allowed maximum.
func criticalGateFailed(result *schema.CheckResult) bool {
	return result.MaxCritical >= 0 && result.CriticalFindings > result.MaxCritical
}

// countViolations counts failed score gates plus the critical gate.
func countViolations(result *schema.CheckResult) int {
	n := len(result.Violations)
	if criticalGateFailed(result) {
		n++
	}
	return n
}

// printCheckResult prints the check result in a concise format suitable for CI/CD.
func printCheckResult(result *schema.CheckResult, duration time.Duration) {
	printCheckHeader(result, duration)

	if result.Passed {
		printCheckSuccess(result)
	} else {
		printCheckFailure(result)
	}
}

// printCheckHeader prints the common header information for check results.
func printCheckHeader(result *schema.CheckResult, duration time.Duration) {
	fmt.Println("Quality Gate Results:")

	thresholds := make([]string, 0, len(schema.AllScoreCategories))
	for _, cat := range schema.AllScoreCategories {
		thresholds = append(thresholds, fmt.Sprintf("%s=%.1f", cat, result.Thresholds[cat]))
	}
	maxCritical := "disabled"
	if result.MaxCritical >= 0 {
		maxCritical = fmt.Sprintf("%d", result.MaxCritical)
	}

	// Define labels and values for dynamic padding
	labels := []string{"Root:", "Thresholds:", "Max critical:"}
	values := []any{result.RootPath, strings.Join(thresholds, ", "), maxCritical}

	// Find the longest label for consistent padding
	maxLabelLen := 0
	for _, label := range labels {
		maxLabelLen = max(maxLabelLen, len(label))
	}

	for i, label := range labels {
		fmt.Printf("  %-*s %v\n", maxLabelLen+1, label, values[i])
	}
	fmt.Println()

	fmt.Printf("Scored %d files and scanned %d files in %v\n\n", result.FilesAnalyzed, result.ScannedFiles, duration)
}

// printCheckSuccess prints the success case output.
func printCheckSuccess(result *schema.CheckResult) {
	fmt.Printf("✅ All quality gates passed\n\n")
	fmt.Println("Scores observed:")
	for _, cat := range schema.AllScoreCategories {
		fmt.Printf("  %s: %.1f\n", cat, result.Scores.Get(cat))
	}
}

// printCheckFailure prints the failure case output.
func printCheckFailure(result *schema.CheckResult) {
	fmt.Printf("❌ Quality gate failed: %d violation(s) found\n\n", countViolations(result))

	for _, v := range result.Violations {
		fmt.Printf("  %s: %.1f (threshold: %.1f)\n", v.Category, v.Score, v.Threshold)
	}
	if criticalGateFailed(result) {
		fmt.Printf("  critical findings: %d (max: %d)\n", result.CriticalFindings, result.MaxCritical)
	}
	fmt.Println()
}
