package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/codeaudit/internal/contract"
	"github.com/huangsam/codeaudit/schema"
)

// PrintReport outputs the audit report, dispatching based on the output format configured.
func PrintReport(report *schema.Report, cfg *contract.Config, duration time.Duration) error {
	dest := cfg.ReportPath()

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(dest, func(w io.Writer) error {
			return writeJSON(w, report)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.YAMLOut:
		if err := writeWithFile(dest, func(w io.Writer) error {
			return writeYAML(w, report)
		}, "Wrote YAML"); err != nil {
			return fmt.Errorf("error writing YAML output: %w", err)
		}
	case schema.CSVOut:
		fmtFloat, intFmt := createFormatters(cfg.Precision)
		if err := writeWithFile(dest, func(w io.Writer) error {
			return writeQualityCSV(w, report.Quality.Files, fmtFloat, intFmt)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.SARIFOut:
		if err := writeWithFile(dest, func(w io.Writer) error {
			return writeSARIF(w, report)
		}, "Wrote SARIF"); err != nil {
			return fmt.Errorf("error writing SARIF output: %w", err)
		}
	case schema.TextOut:
		return writeWithFile(dest, func(w io.Writer) error {
			return writeReportText(w, report, cfg, duration)
		}, "Wrote text")
	default:
		return writeWithFile(dest, func(w io.Writer) error {
			return writeMarkdown(w, report, cfg)
		}, "Wrote report")
	}
	return nil
}

// writeQualityCSV writes one row per scored file.
func writeQualityCSV(w io.Writer, files []schema.FileQualityRecord, fmtFloat func(float64) string, intFmt string) error {
	header := []string{"file", "score", "label", "lines", "issue_count", "issues"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, f := range files {
			rec := []string{
				f.Path,
				fmtFloat(f.Score),
				contract.GetPlainLabel(f.Score),
				fmt.Sprintf(intFmt, f.LineCount),
				strconv.Itoa(len(f.Issues)),
				strings.Join(f.Issues, "|"),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}
