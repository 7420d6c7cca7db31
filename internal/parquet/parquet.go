// Package parquet provides data structures and functions for exporting codeaudit
// run history to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/codeaudit/schema"
	"github.com/parquet-go/parquet-go"
)

// AuditRun is a single audit run with its scorecard.
// This struct maps to the codeaudit_runs database table.
type AuditRun struct {
	RunID          int64  `parquet:"run_id,snappy"`
	RootPath       string `parquet:"root_path,snappy,dict"`
	CatalogVersion string `parquet:"catalog_version,snappy,dict"`

	// StartTime is when the run began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime stays nil for runs that never completed
	EndTime       *time.Time `parquet:"end_time,optional,snappy"`
	RunDurationMs *int32     `parquet:"run_duration_ms,optional,snappy"`
	FilesAnalyzed *int32     `parquet:"files_analyzed,optional,snappy"`
	TotalFindings *int32     `parquet:"total_findings,optional,snappy"`

	ScoreCodeQuality         *float64 `parquet:"score_code_quality,optional,snappy"`
	ScoreSecurity            *float64 `parquet:"score_security,optional,snappy"`
	ScoreFeatureCompleteness *float64 `parquet:"score_feature_completeness,optional,snappy"`
	ScoreDatabase            *float64 `parquet:"score_database,optional,snappy"`
	ScoreOverall             *float64 `parquet:"score_overall,optional,snappy"`

	// ConfigParams contains the JSON-encoded configuration parameters
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// FileScore is the quality score of one file in a run.
// This struct maps to the codeaudit_file_scores database table.
type FileScore struct {
	RunID        int64     `parquet:"run_id,snappy"`
	FilePath     string    `parquet:"file_path,snappy"`
	AnalysisTime time.Time `parquet:"analysis_time,snappy"`
	Score        float64   `parquet:"score,snappy"`
	LineCount    int32     `parquet:"line_count,snappy"`
	IssueCount   int32     `parquet:"issue_count,snappy"`

	// Issues holds the pipe-separated quality issues of the file
	Issues string `parquet:"issues,snappy"`
}

// Finding is one security finding of a run.
// This struct maps to the codeaudit_findings database table.
type Finding struct {
	RunID    int64  `parquet:"run_id,snappy"`
	FilePath string `parquet:"file_path,snappy"`
	Line     int32  `parquet:"line_number,snappy"`
	RuleID   string `parquet:"rule_id,snappy,dict"`
	Severity string `parquet:"severity,snappy,dict"`
	Issue    string `parquet:"issue,snappy"`
}

// writeParquet writes rows to a new Parquet file whose schema is inferred from T.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	// Close flushes the footer; a failure here leaves an unreadable file.
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return file.Close()
}

// WriteAuditRunsParquet writes audit runs to a Parquet file.
func WriteAuditRunsParquet(data []AuditRun, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteFileScoresParquet writes file scores to a Parquet file.
func WriteFileScoresParquet(data []FileScore, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteFindingsParquet writes findings to a Parquet file.
func WriteFindingsParquet(data []Finding, outputPath string) error {
	return writeParquet(data, outputPath)
}

// ConvertAuditRunRecords converts schema.AuditRunRecord to AuditRun for Parquet export.
func ConvertAuditRunRecords(records []schema.AuditRunRecord) []AuditRun {
	result := make([]AuditRun, len(records))
	for i, record := range records {
		result[i] = AuditRun{
			RunID:                    record.RunID,
			RootPath:                 record.RootPath,
			CatalogVersion:           record.CatalogVersion,
			StartTime:                record.StartTime,
			EndTime:                  record.EndTime,
			RunDurationMs:            record.RunDurationMs,
			FilesAnalyzed:            record.FilesAnalyzed,
			TotalFindings:            record.TotalFindings,
			ScoreCodeQuality:         record.CodeQuality,
			ScoreSecurity:            record.Security,
			ScoreFeatureCompleteness: record.FeatureCompleteness,
			ScoreDatabase:            record.Database,
			ScoreOverall:             record.Overall,
			ConfigParams:             record.ConfigParams,
		}
	}
	return result
}

// ConvertFileScoreRecords converts schema.FileScoreRecord to FileScore for Parquet export.
func ConvertFileScoreRecords(records []schema.FileScoreRecord) []FileScore {
	result := make([]FileScore, len(records))
	for i, record := range records {
		result[i] = FileScore(record)
	}
	return result
}

// ConvertFindingRecords converts schema.FindingRecord to Finding for Parquet export.
func ConvertFindingRecords(records []schema.FindingRecord) []Finding {
	result := make([]Finding, len(records))
	for i, record := range records {
		result[i] = Finding(record)
	}
	return result
}
