// Package outwriter has output and writer logic.
package outwriter

import (
	"os"
	"time"

	"github.com/huangsam/codeaudit/internal/contract"
	"github.com/huangsam/codeaudit/internal/rules"
	"github.com/huangsam/codeaudit/schema"
	"golang.org/x/term"
)

// OutWriter renders audit results. It holds no state so one value can
// serve any number of reports.
type OutWriter struct{}

// NewOutWriter creates a new OutWriter.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteReport renders the report in the configured format to the configured destination.
func (w *OutWriter) WriteReport(report *schema.Report, cfg *contract.Config, duration time.Duration) error {
	return PrintReport(report, cfg, duration)
}

// WriteSummary prints a short scorecard summary to stderr.
func (w *OutWriter) WriteSummary(report *schema.Report, cfg *contract.Config, duration time.Duration) {
	PrintSummary(os.Stderr, report, cfg, duration)
}

// WriteRules renders the rule catalog.
func (w *OutWriter) WriteRules(catalog *rules.Catalog, cfg *contract.Config) error {
	return PrintRules(catalog, cfg)
}

// GetMaxTablePathWidth calculates the maximum width for file paths in table output
// based on terminal width and table configuration.
func GetMaxTablePathWidth(cfg *contract.Config) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 {
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Rank + Score + Label + Lines + Issues with borders/padding
	baseWidth := 45

	// Reserve generous space for table borders, separators, and padding
	baseWidth += 20

	available := termWidth - baseWidth
	if available < 15 {
		return 15
	}
	if available > 70 {
		return 70
	}
	return available
}

// getMaxSnippetWidth sizes the code column of the findings table.
// The findings table has more fixed columns than the file table.
func getMaxSnippetWidth(cfg *contract.Config) int {
	return max(GetMaxTablePathWidth(cfg)-10, 15)
}
