package iocache

import (
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/huangsam/codeaudit/schema"
)

var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// validateTableName checks that a table name is safe to interpolate into SQL.
func validateTableName(name string) error {
	if name == "" {
		return fmt.Errorf("table name cannot be empty")
	}
	if !tableNamePattern.MatchString(name) {
		return fmt.Errorf("invalid table name: %s (must match pattern ^[a-zA-Z_][a-zA-Z0-9_]*$)", name)
	}
	return nil
}

// quoteTableName returns the properly quoted table name for the given backend.
func quoteTableName(name string, backend schema.DatabaseBackend) string {
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf("`%s`", name)
	default: // SQLite and PostgreSQL
		return fmt.Sprintf("\"%s\"", name)
	}
}

// formatTime converts a time.Time to the appropriate format for the backend.
func formatTime(t time.Time, backend schema.DatabaseBackend) any {
	switch backend {
	case schema.SQLiteBackend:
		return t.UTC().Format(time.RFC3339Nano)
	default:
		return t.UTC()
	}
}

// timeValue converts a scanned column into a time. MySQL returns raw bytes
// unless the DSN sets parseTime=true, so both shapes are accepted.
func timeValue(v any) (time.Time, bool, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, false, nil
	case time.Time:
		return t, true, nil
	case string:
		return parseAnyTime(t)
	case []byte:
		return parseAnyTime(string(t))
	default:
		return time.Time{}, false, fmt.Errorf("unexpected time value of type %T", v)
	}
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999", "2006-01-02 15:04:05"}

func parseAnyTime(s string) (time.Time, bool, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("unrecognized time format: %q", s)
}

// scanTime reads a single non-null time column.
func scanTime(row *sql.Row, _ schema.DatabaseBackend) (time.Time, error) {
	var raw any
	if err := row.Scan(&raw); err != nil {
		return time.Time{}, err
	}
	t, ok, err := timeValue(raw)
	if err != nil {
		return time.Time{}, err
	}
	if !ok {
		return time.Time{}, fmt.Errorf("time column is null")
	}
	return t, nil
}

// schemaStatements returns the statements of the initial history migration.
func schemaStatements(backend schema.DatabaseBackend) ([]string, error) {
	content, err := migrationsFS.ReadFile(fmt.Sprintf("migrations/%s/000001_create_history.up.sql", backend))
	if err != nil {
		return nil, fmt.Errorf("failed to read schema for %s: %w", backend, err)
	}
	var statements []string
	for stmt := range strings.SplitSeq(string(content), ";") {
		if s := strings.TrimSpace(stmt); s != "" {
			statements = append(statements, s)
		}
	}
	return statements, nil
}
