// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"time"

	"github.com/huangsam/codeaudit/schema"
)

// HistoryManager defines the interface for managing the run-history store.
// This allows the history layer to be mocked for testing.
type HistoryManager interface {
	GetHistoryStore() HistoryStore
}

// HistoryStore defines the interface for recording audit runs and their results.
type HistoryStore interface {
	// BeginRun creates a new audit run and returns its unique ID
	BeginRun(rootPath, catalogVersion string, startTime time.Time, configParams map[string]any) (int64, error)

	// EndRun updates the audit run with completion data
	EndRun(runID int64, endTime time.Time, summary RunSummary) error

	// RecordFileScores stores the quality record of every scored file
	RecordFileScores(runID int64, analysisTime time.Time, records []schema.FileQualityRecord) error

	// RecordFindings stores every security finding
	RecordFindings(runID int64, findings []schema.Finding) error

	// GetStatus returns status information about the history store
	GetStatus() (schema.HistoryStatus, error)

	// GetAllRuns returns every audit run, oldest first
	GetAllRuns() ([]schema.AuditRunRecord, error)

	// GetAllFileScores returns every stored file score
	GetAllFileScores() ([]schema.FileScoreRecord, error)

	// GetAllFindings returns every stored finding
	GetAllFindings() ([]schema.FindingRecord, error)

	// Close closes the underlying connection
	Close() error
}

// RunSummary is the completion data of an audit run.
type RunSummary struct {
	FilesAnalyzed int
	TotalFindings int
	Scores        schema.ScoreCard
}
