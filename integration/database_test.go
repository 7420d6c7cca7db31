//go:build database

package integration

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestCodeauditWithMySQL tests the codeaudit CLI with a MySQL history backend.
func TestCodeauditWithMySQL(t *testing.T) {
	ctx := context.Background()

	// Start MySQL container
	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "codeaudit",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = mysqlC.Terminate(ctx) }()

	// Get connection details
	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	// multiStatements lets golang-migrate apply the multi-statement migration files
	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/codeaudit?parseTime=true&multiStatements=true", host, port.Port())
	exerciseHistoryBackend(t, "mysql", connStr)
}

// TestCodeauditWithPostgres tests the codeaudit CLI with a PostgreSQL history backend.
func TestCodeauditWithPostgres(t *testing.T) {
	ctx := context.Background()

	// Start Postgres container
	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = pgC.Terminate(ctx) }()

	// Get connection details
	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres sslmode=disable", host, port.Port())
	exerciseHistoryBackend(t, "postgresql", connStr)
}

// exerciseHistoryBackend walks the history lifecycle: migrate, record two runs, inspect, export, clear.
func exerciseHistoryBackend(t *testing.T, backend, connStr string) {
	t.Helper()
	root := writeFixture(t)
	env := []string{
		"CODEAUDIT_HISTORY_BACKEND=" + backend,
		"CODEAUDIT_HISTORY_DB_CONNECT=" + connStr,
	}

	_, err := runCodeaudit(t, root, env, "history", "migrate")
	require.NoError(t, err)

	// A second migrate is a no-op
	_, err = runCodeaudit(t, root, env, "history", "migrate")
	require.NoError(t, err)

	for range 2 {
		_, err = runCodeaudit(t, root, env, "run", "--output-file", "-")
		require.NoError(t, err)
	}

	output, err := runCodeaudit(t, root, env, "history", "status")
	require.NoError(t, err)
	assert.Contains(t, output, "Connected: true")
	assert.Contains(t, output, "Total Runs: 2")

	exportBase := filepath.Join(t.TempDir(), "audits")
	_, err = runCodeaudit(t, root, env, "history", "export", "--output-file", exportBase)
	require.NoError(t, err)
	assert.FileExists(t, exportBase+".runs.parquet")
	assert.FileExists(t, exportBase+".findings.parquet")

	_, err = runCodeaudit(t, root, env, "history", "clear")
	require.NoError(t, err)
}
