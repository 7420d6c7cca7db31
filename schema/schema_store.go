package schema

import "time"

// AuditRunRecord represents a row from the codeaudit_runs table.
// Score fields stay nil until the run has been finalized.
type AuditRunRecord struct {
	RunID               int64
	RootPath            string
	CatalogVersion      string
	StartTime           time.Time
	EndTime             *time.Time
	RunDurationMs       *int32
	FilesAnalyzed       *int32
	TotalFindings       *int32
	CodeQuality         *float64
	Security            *float64
	FeatureCompleteness *float64
	Database            *float64
	Overall             *float64
	ConfigParams        *string
}

// FileScoreRecord represents a row from the codeaudit_file_scores table.
type FileScoreRecord struct {
	RunID        int64
	FilePath     string
	AnalysisTime time.Time
	Score        float64
	LineCount    int32
	IssueCount   int32
	Issues       string
}

// FindingRecord represents a row from the codeaudit_findings table.
type FindingRecord struct {
	RunID    int64
	FilePath string
	Line     int32
	RuleID   string
	Severity string
	Issue    string
}
