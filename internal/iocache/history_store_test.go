package iocache

import (
	"errors"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/huangsam/codeaudit/internal/contract"
	"github.com/huangsam/codeaudit/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteStore(t *testing.T) contract.HistoryStore {
	t.Helper()
	store, err := NewHistoryStore(schema.SQLiteBackend, filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestHistoryStore_NoneBackend(t *testing.T) {
	store, err := NewHistoryStore(schema.NoneBackend, "")
	require.NoError(t, err)

	runID, err := store.BeginRun("/repo", "2024.1", time.Now(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), runID)

	assert.NoError(t, store.EndRun(runID, time.Now(), contract.RunSummary{}))
	assert.NoError(t, store.RecordFileScores(runID, time.Now(), []schema.FileQualityRecord{{Path: "a.ts"}}))
	assert.NoError(t, store.RecordFindings(runID, []schema.Finding{{RuleID: "x"}}))

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "none", status.Backend)
	assert.False(t, status.Connected)

	runs, err := store.GetAllRuns()
	require.NoError(t, err)
	assert.Empty(t, runs)
	assert.NoError(t, store.Close())
}

func TestNewHistoryStoreUnsupportedBackend(t *testing.T) {
	_, err := NewHistoryStore(schema.DatabaseBackend("oracle"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported history backend")
}

func TestHistoryStore_SQLiteLifecycle(t *testing.T) {
	store := newSQLiteStore(t)
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	runID, err := store.BeginRun("/srv/app", "2024.1", start, map[string]any{"workers": 4})
	require.NoError(t, err)
	assert.Positive(t, runID)

	records := []schema.FileQualityRecord{
		{Path: "src/app.ts", Score: 5.5, LineCount: 620, Issues: []string{"Large file (620 lines)", "Uses any type (4)"}},
		{Path: "src/util.ts", Score: 10, LineCount: 40},
	}
	require.NoError(t, store.RecordFileScores(runID, start, records))

	findings := []schema.Finding{
		{Severity: schema.CriticalSeverity, RuleID: "hardcoded-secret", Description: "Hardcoded secret", File: "src/config.ts", Line: 3},
		{Severity: schema.LowSeverity, RuleID: "console-log", Description: "console.log", File: "src/app.ts", Line: 10},
	}
	require.NoError(t, store.RecordFindings(runID, findings))

	summary := contract.RunSummary{
		FilesAnalyzed: 2,
		TotalFindings: 2,
		Scores:        schema.ScoreCard{CodeQuality: 7.8, Security: 6, FeatureCompleteness: 57.1, Database: 0, Overall: 4.9},
	}
	require.NoError(t, store.EndRun(runID, start.Add(1500*time.Millisecond), summary))

	runs, err := store.GetAllRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	run := runs[0]
	assert.Equal(t, runID, run.RunID)
	assert.Equal(t, "/srv/app", run.RootPath)
	assert.Equal(t, "2024.1", run.CatalogVersion)
	assert.True(t, start.Equal(run.StartTime))
	require.NotNil(t, run.EndTime)
	require.NotNil(t, run.RunDurationMs)
	assert.Equal(t, int32(1500), *run.RunDurationMs)
	require.NotNil(t, run.FilesAnalyzed)
	assert.Equal(t, int32(2), *run.FilesAnalyzed)
	require.NotNil(t, run.Overall)
	assert.InDelta(t, 4.9, *run.Overall, 0.001)
	require.NotNil(t, run.ConfigParams)
	assert.JSONEq(t, `{"workers":4}`, *run.ConfigParams)

	scores, err := store.GetAllFileScores()
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, "src/app.ts", scores[0].FilePath)
	assert.Equal(t, int32(2), scores[0].IssueCount)
	assert.Equal(t, "Large file (620 lines)|Uses any type (4)", scores[0].Issues)
	assert.True(t, start.Equal(scores[0].AnalysisTime))

	stored, err := store.GetAllFindings()
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "src/app.ts", stored[0].FilePath)
	assert.Equal(t, "low", stored[0].Severity)
	assert.Equal(t, "hardcoded-secret", stored[1].RuleID)
	assert.Equal(t, int32(3), stored[1].Line)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Equal(t, 1, status.TotalRuns)
	assert.Equal(t, runID, status.LastRunID)
	assert.Equal(t, 2, status.TotalFilesAnalyzed)
	assert.Equal(t, int64(1), status.TableSizes[runsTable])
	assert.Equal(t, int64(2), status.TableSizes[fileScoresTable])
	assert.Equal(t, int64(2), status.TableSizes[findingsTable])
}

func TestHistoryStore_MultipleRuns(t *testing.T) {
	store := newSQLiteStore(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	var ids []int64
	for i := range 3 {
		id, err := store.BeginRun("/repo", "2024.1", base.Add(time.Duration(i)*time.Hour), nil)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	assert.Less(t, ids[0], ids[1])
	assert.Less(t, ids[1], ids[2])

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 3, status.TotalRuns)
	assert.Equal(t, ids[2], status.LastRunID)
	assert.True(t, base.Equal(status.OldestRunTime))
	assert.True(t, base.Add(2*time.Hour).Equal(status.LastRunTime))
	assert.Equal(t, 0, status.TotalFilesAnalyzed)

	runs, err := store.GetAllRuns()
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Nil(t, runs[0].EndTime)
	assert.Nil(t, runs[0].Overall)
}

func TestHistoryStore_EndRunUnknownRun(t *testing.T) {
	store := newSQLiteStore(t)
	err := store.EndRun(999, time.Now(), contract.RunSummary{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get start_time for run 999")
}

func TestHistoryStore_EmptyBatches(t *testing.T) {
	store := newSQLiteStore(t)
	assert.NoError(t, store.RecordFileScores(1, time.Now(), nil))
	assert.NoError(t, store.RecordFindings(1, nil))

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 0, status.TotalRuns)
	assert.Equal(t, int64(0), status.TableSizes[findingsTable])
}

func TestHistoryStore_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := NewHistoryStore(schema.SQLiteBackend, path)
	require.NoError(t, err)
	_, err = store.BeginRun("/repo", "2024.1", time.Now(), nil)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := NewHistoryStore(schema.SQLiteBackend, path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()
	runs, err := reopened.GetAllRuns()
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestHistoryStore_BeginRunError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `codeaudit_runs`")).WillReturnError(errors.New("boom"))

	store := &HistoryStoreImpl{db: db, backend: schema.MySQLBackend}
	_, err = store.BeginRun("/repo", "2024.1", time.Now(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert audit run")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryStore_PostgresBeginRunUsesReturning(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "codeaudit_runs"`) + ".*RETURNING run_id").
		WillReturnRows(sqlmock.NewRows([]string{"run_id"}).AddRow(int64(17)))

	store := &HistoryStoreImpl{db: db, backend: schema.PostgreSQLBackend}
	runID, err := store.BeginRun("/repo", "2024.1", time.Now(), map[string]any{"workers": 2})
	require.NoError(t, err)
	assert.Equal(t, int64(17), runID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryStore_RecordFindingsRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO `codeaudit_findings`"))
	prep.ExpectExec().WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	store := &HistoryStoreImpl{db: db, backend: schema.MySQLBackend}
	err = store.RecordFindings(1, []schema.Finding{{RuleID: "eval-usage", File: "a.js", Line: 2, Severity: schema.HighSeverity}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert finding eval-usage at a.js:2")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryStore_GetStatusError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT COUNT").WillReturnError(errors.New("gone"))

	store := &HistoryStoreImpl{db: db, backend: schema.PostgreSQLBackend}
	status, err := store.GetStatus()
	require.Error(t, err)
	assert.True(t, status.Connected)
	assert.Contains(t, err.Error(), "failed to get total runs")
}

func TestBind(t *testing.T) {
	query := "UPDATE t SET a = ?, b = ? WHERE id = ?"
	tests := []struct {
		backend  schema.DatabaseBackend
		expected string
	}{
		{schema.PostgreSQLBackend, "UPDATE t SET a = $1, b = $2 WHERE id = $3"},
		{schema.MySQLBackend, query},
		{schema.SQLiteBackend, query},
	}
	for _, tt := range tests {
		t.Run(string(tt.backend), func(t *testing.T) {
			hs := &HistoryStoreImpl{backend: tt.backend}
			assert.Equal(t, tt.expected, hs.bind(query))
		})
	}
}

func TestDriverName(t *testing.T) {
	tests := []struct {
		backend  schema.DatabaseBackend
		expected string
		wantErr  bool
	}{
		{schema.SQLiteBackend, "sqlite", false},
		{schema.MySQLBackend, "mysql", false},
		{schema.PostgreSQLBackend, "pgx", false},
		{schema.NoneBackend, "", true},
	}
	for _, tt := range tests {
		t.Run(string(tt.backend), func(t *testing.T) {
			got, err := driverName(tt.backend)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
