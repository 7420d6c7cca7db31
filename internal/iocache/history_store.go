package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	"github.com/huangsam/codeaudit/internal/contract"
	"github.com/huangsam/codeaudit/schema"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver
)

// Table names for run history.
const (
	runsTable       = "codeaudit_runs"
	fileScoresTable = "codeaudit_file_scores"
	findingsTable   = "codeaudit_findings"
)

// historyTables lists every history table, parents first.
var historyTables = []string{runsTable, fileScoresTable, findingsTable}

// issueSeparator joins the issues of a file into one column.
const issueSeparator = "|"

// HistoryStoreImpl implements the HistoryStore interface on database/sql.
type HistoryStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.HistoryStore = &HistoryStoreImpl{} // Compile-time check

// driverName maps a backend onto its registered database/sql driver.
func driverName(backend schema.DatabaseBackend) (string, error) {
	switch backend {
	case schema.SQLiteBackend:
		return "sqlite", nil
	case schema.MySQLBackend:
		return "mysql", nil
	case schema.PostgreSQLBackend:
		return "pgx", nil
	default:
		return "", fmt.Errorf("unsupported history backend: %s", backend)
	}
}

// openDB opens and pings a database for the backend.
func openDB(backend schema.DatabaseBackend, connStr string) (*sql.DB, error) {
	driver, err := driverName(backend)
	if err != nil {
		return nil, err
	}
	if backend == schema.SQLiteBackend && connStr == "" {
		connStr = contract.GetHistoryDBFilePath()
	}

	db, err := sql.Open(driver, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", backend, err)
	}
	if backend == schema.SQLiteBackend {
		// Limit SQLite to a single open connection to avoid "database is locked" errors
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w. Check that the server is running and the connection string is correct", backend, err)
	}
	return db, nil
}

// NewHistoryStore creates a new HistoryStore with the specified backend.
// The none backend yields a store that records nothing.
func NewHistoryStore(backend schema.DatabaseBackend, connStr string) (contract.HistoryStore, error) {
	if backend == schema.NoneBackend {
		return &HistoryStoreImpl{backend: backend}, nil
	}

	db, err := openDB(backend, connStr)
	if err != nil {
		return nil, err
	}
	if err := createHistoryTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history tables: %w", err)
	}
	return &HistoryStoreImpl{db: db, backend: backend}, nil
}

// createHistoryTables applies the initial schema migration idempotently.
func createHistoryTables(db *sql.DB, backend schema.DatabaseBackend) error {
	statements, err := schemaStatements(backend)
	if err != nil {
		return err
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}

// disabled reports whether the store records nothing.
func (hs *HistoryStoreImpl) disabled() bool {
	return hs.backend == schema.NoneBackend || hs.db == nil
}

// bind rewrites ? placeholders into the backend's parameter syntax.
func (hs *HistoryStoreImpl) bind(query string) string {
	if hs.backend != schema.PostgreSQLBackend {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// BeginRun creates a new audit run and returns its unique ID.
func (hs *HistoryStoreImpl) BeginRun(rootPath, catalogVersion string, startTime time.Time, configParams map[string]any) (int64, error) {
	if hs.disabled() {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	quoted := quoteTableName(runsTable, hs.backend)
	args := []any{rootPath, catalogVersion, formatTime(startTime, hs.backend), string(configJSON)}

	var runID int64
	switch hs.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (root_path, catalog_version, start_time, config_params) VALUES ($1, $2, $3, $4) RETURNING run_id`, quoted)
		err = hs.db.QueryRow(query, args...).Scan(&runID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (root_path, catalog_version, start_time, config_params) VALUES (?, ?, ?, ?)`, quoted)
		var result sql.Result
		result, err = hs.db.Exec(query, args...)
		if err == nil {
			runID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert audit run: %w", err)
	}
	return runID, nil
}

// EndRun updates the audit run with completion data.
func (hs *HistoryStoreImpl) EndRun(runID int64, endTime time.Time, summary contract.RunSummary) error {
	if hs.disabled() {
		return nil
	}

	quoted := quoteTableName(runsTable, hs.backend)
	row := hs.db.QueryRow(hs.bind(fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = ?`, quoted)), runID)
	startTime, err := scanTime(row, hs.backend)
	if err != nil {
		return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
	}

	query := hs.bind(fmt.Sprintf(`UPDATE %s SET end_time = ?, run_duration_ms = ?, files_analyzed = ?, total_findings = ?,
		score_code_quality = ?, score_security = ?, score_feature_completeness = ?, score_database = ?, score_overall = ?
		WHERE run_id = ?`, quoted))
	s := summary.Scores
	_, err = hs.db.Exec(query,
		formatTime(endTime, hs.backend),
		endTime.Sub(startTime).Milliseconds(),
		summary.FilesAnalyzed,
		summary.TotalFindings,
		s.CodeQuality, s.Security, s.FeatureCompleteness, s.Database, s.Overall,
		runID,
	)
	if err != nil {
		return fmt.Errorf("failed to update audit run: %w", err)
	}
	return nil
}

// RecordFileScores stores the quality record of every scored file in one transaction.
func (hs *HistoryStoreImpl) RecordFileScores(runID int64, analysisTime time.Time, records []schema.FileQualityRecord) error {
	if hs.disabled() || len(records) == 0 {
		return nil
	}

	query := hs.bind(fmt.Sprintf(`INSERT INTO %s (run_id, file_path, analysis_time, score, line_count, issue_count, issues)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, quoteTableName(fileScoresTable, hs.backend)))
	at := formatTime(analysisTime, hs.backend)
	return hs.inTx(query, func(stmt *sql.Stmt) error {
		for _, r := range records {
			if _, err := stmt.Exec(runID, r.Path, at, r.Score, r.LineCount, len(r.Issues), strings.Join(r.Issues, issueSeparator)); err != nil {
				return fmt.Errorf("failed to insert file score for %s: %w", r.Path, err)
			}
		}
		return nil
	})
}

// RecordFindings stores every security finding in one transaction.
func (hs *HistoryStoreImpl) RecordFindings(runID int64, findings []schema.Finding) error {
	if hs.disabled() || len(findings) == 0 {
		return nil
	}

	query := hs.bind(fmt.Sprintf(`INSERT INTO %s (run_id, file_path, line_number, rule_id, severity, issue)
		VALUES (?, ?, ?, ?, ?, ?)`, quoteTableName(findingsTable, hs.backend)))
	return hs.inTx(query, func(stmt *sql.Stmt) error {
		for _, f := range findings {
			if _, err := stmt.Exec(runID, f.File, f.Line, f.RuleID, string(f.Severity), f.Description); err != nil {
				return fmt.Errorf("failed to insert finding %s at %s:%d: %w", f.RuleID, f.File, f.Line, err)
			}
		}
		return nil
	})
}

// inTx prepares query inside a transaction and commits when fn succeeds.
func (hs *HistoryStoreImpl) inTx(query string, fn func(*sql.Stmt) error) error {
	tx, err := hs.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	stmt, err := tx.Prepare(query)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	if err := fn(stmt); err != nil {
		_ = stmt.Close()
		_ = tx.Rollback()
		return err
	}
	_ = stmt.Close()
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (hs *HistoryStoreImpl) Close() error {
	if hs.db != nil {
		return hs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the history store.
func (hs *HistoryStoreImpl) GetStatus() (schema.HistoryStatus, error) {
	status := schema.HistoryStatus{
		Backend:    string(hs.backend),
		Connected:  hs.db != nil,
		TableSizes: make(map[string]int64),
	}
	if hs.disabled() {
		return status, nil
	}

	quoted := quoteTableName(runsTable, hs.backend)
	if err := hs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoted)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		row := hs.db.QueryRow(fmt.Sprintf("SELECT run_id FROM %s ORDER BY run_id DESC LIMIT 1", quoted))
		if err := row.Scan(&status.LastRunID); err != nil {
			return status, fmt.Errorf("failed to get last run id: %w", err)
		}

		last, err := scanTime(hs.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id DESC LIMIT 1", quoted)), hs.backend)
		if err != nil {
			return status, fmt.Errorf("failed to get last run time: %w", err)
		}
		status.LastRunTime = last

		oldest, err := scanTime(hs.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id ASC LIMIT 1", quoted)), hs.backend)
		if err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		status.OldestRunTime = oldest

		row = hs.db.QueryRow(fmt.Sprintf("SELECT COALESCE(SUM(files_analyzed), 0) FROM %s", quoted))
		if err := row.Scan(&status.TotalFilesAnalyzed); err != nil {
			return status, fmt.Errorf("failed to get total files analyzed: %w", err)
		}
	}

	for _, table := range historyTables {
		var count int64
		row := hs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, hs.backend)))
		if err := row.Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	return status, nil
}

// GetAllRuns returns every audit run, oldest first.
func (hs *HistoryStoreImpl) GetAllRuns() ([]schema.AuditRunRecord, error) {
	if hs.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, root_path, catalog_version, start_time, end_time, run_duration_ms,
		files_analyzed, total_findings, score_code_quality, score_security, score_feature_completeness,
		score_database, score_overall, config_params FROM %s ORDER BY run_id`, quoteTableName(runsTable, hs.backend))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.AuditRunRecord
	for rows.Next() {
		var r schema.AuditRunRecord
		var start, end any
		if err := rows.Scan(&r.RunID, &r.RootPath, &r.CatalogVersion, &start, &end,
			&r.RunDurationMs, &r.FilesAnalyzed, &r.TotalFindings,
			&r.CodeQuality, &r.Security, &r.FeatureCompleteness, &r.Database, &r.Overall, &r.ConfigParams); err != nil {
			return nil, fmt.Errorf("failed to scan audit run: %w", err)
		}

		var err error
		if r.StartTime, _, err = timeValue(start); err != nil {
			return nil, fmt.Errorf("failed to parse start_time: %w", err)
		}
		endTime, ok, err := timeValue(end)
		if err != nil {
			return nil, fmt.Errorf("failed to parse end_time: %w", err)
		}
		if ok {
			r.EndTime = &endTime
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit runs: %w", err)
	}
	return results, nil
}

// GetAllFileScores returns every stored file score.
func (hs *HistoryStoreImpl) GetAllFileScores() ([]schema.FileScoreRecord, error) {
	if hs.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, file_path, analysis_time, score, line_count, issue_count, issues
		FROM %s ORDER BY run_id, file_path`, quoteTableName(fileScoresTable, hs.backend))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query file scores: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.FileScoreRecord
	for rows.Next() {
		var r schema.FileScoreRecord
		var at any
		if err := rows.Scan(&r.RunID, &r.FilePath, &at, &r.Score, &r.LineCount, &r.IssueCount, &r.Issues); err != nil {
			return nil, fmt.Errorf("failed to scan file score: %w", err)
		}
		if r.AnalysisTime, _, err = timeValue(at); err != nil {
			return nil, fmt.Errorf("failed to parse analysis_time: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating file scores: %w", err)
	}
	return results, nil
}

// GetAllFindings returns every stored finding.
func (hs *HistoryStoreImpl) GetAllFindings() ([]schema.FindingRecord, error) {
	if hs.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, file_path, line_number, rule_id, severity, issue
		FROM %s ORDER BY run_id, file_path, line_number, rule_id`, quoteTableName(findingsTable, hs.backend))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query findings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.FindingRecord
	for rows.Next() {
		var r schema.FindingRecord
		if err := rows.Scan(&r.RunID, &r.FilePath, &r.Line, &r.RuleID, &r.Severity, &r.Issue); err != nil {
			return nil, fmt.Errorf("failed to scan finding: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating findings: %w", err)
	}
	return results, nil
}
