package iocache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/codeaudit/internal/contract"
	"github.com/huangsam/codeaudit/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportHistoryValidation(t *testing.T) {
	t.Run("missing output file", func(t *testing.T) {
		err := exportHistory(&MockHistoryStore{}, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--output-file is required")
	})

	t.Run("nil store", func(t *testing.T) {
		err := exportHistory(nil, "out")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not initialized")
	})

	t.Run("status error", func(t *testing.T) {
		store := &MockHistoryStore{}
		store.On("GetStatus").Return(schema.HistoryStatus{}, errors.New("offline"))
		err := exportHistory(store, "out")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "offline")
	})

	t.Run("no runs", func(t *testing.T) {
		store := &MockHistoryStore{}
		store.On("GetStatus").Return(schema.HistoryStatus{Backend: "sqlite", Connected: true}, nil)
		err := exportHistory(store, "out")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no run history found")
	})

	t.Run("runs query error", func(t *testing.T) {
		store := &MockHistoryStore{}
		store.On("GetStatus").Return(schema.HistoryStatus{Backend: "sqlite", TotalRuns: 1}, nil)
		store.On("GetAllRuns").Return(nil, errors.New("bad query"))
		err := exportHistory(store, filepath.Join(t.TempDir(), "out"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to retrieve audit runs")
	})
}

func TestExportHistoryFromSQLite(t *testing.T) {
	store := newSQLiteStore(t)
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	runID, err := store.BeginRun("/srv/app", "2024.1", start, nil)
	require.NoError(t, err)
	require.NoError(t, store.RecordFileScores(runID, start, []schema.FileQualityRecord{{Path: "a.ts", Score: 9, LineCount: 12}}))
	require.NoError(t, store.RecordFindings(runID, []schema.Finding{{Severity: schema.HighSeverity, RuleID: "eval-usage", File: "a.ts", Line: 4}}))
	require.NoError(t, store.EndRun(runID, start.Add(time.Second), contract.RunSummary{FilesAnalyzed: 1, TotalFindings: 1}))

	out := filepath.Join(t.TempDir(), "history")
	require.NoError(t, exportHistory(store, out))

	for _, suffix := range []string{".runs.parquet", ".file_scores.parquet", ".findings.parquet"} {
		info, err := os.Stat(out + suffix)
		require.NoError(t, err, suffix)
		assert.Positive(t, info.Size(), suffix)
	}
}
