package cmd

import (
	"fmt"

	"github.com/huangsam/codeaudit/internal/contract"
	"github.com/huangsam/codeaudit/internal/iocache"
	"github.com/huangsam/codeaudit/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// historySetup loads minimal configuration needed for history operations.
// It skips root path validation and the catalog since none of the history commands audit anything.
func historySetup() error {
	if err := historyMigrateSetup(); err != nil {
		return err
	}

	// Get output-related config values (used by export command)
	cfg.OutputFile = viper.GetString("output-file")

	if err := iocache.InitHistory(cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return fmt.Errorf("failed to initialize run history: %w", err)
	}
	return nil
}

// historySetupWrapper wraps historySetup to provide PreRunE for history commands.
func historySetupWrapper(_ *cobra.Command, _ []string) error {
	return historySetup()
}

// historyMigrateSetup resolves the backend settings without opening a store,
// so migrations can run against a fresh database.
func historyMigrateSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}
	setupLogger()

	backend := viper.GetString("history-backend")
	connStr := viper.GetString("history-db-connect")
	return contract.ValidateHistoryBackend(cfg, backend, connStr)
}

// historyMigrateSetupWrapper wraps historyMigrateSetup to provide PreRunE for the migrate command.
func historyMigrateSetupWrapper(_ *cobra.Command, _ []string) error {
	return historyMigrateSetup()
}

// historyCmd focused on run history management.
//
// Note: History subcommands use minimal initialization (historySetup) instead of
// the full sharedSetup used by the audit commands.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage recorded audit runs and exports",
	Long: `Manage the audit run history used for trend tracking and reporting.

When --history-backend is set, every audit run stores:
- Run metadata (root, catalog version, timestamps, configuration, duration)
- The five scorecard values
- Per-file quality scores
- Security findings

Supported backends: SQLite, MySQL, PostgreSQL, or None (disabled, the default)

Subcommands:
  status  - Show run history statistics
  export  - Export data to Parquet for analytics
  clear   - Remove all history data
  migrate - Run database schema migrations

Examples:
  # Check history status
  codeaudit history status --history-backend sqlite

  # Export for analysis in pandas/DuckDB
  codeaudit history export --history-backend sqlite --output-file audits`,
}

// historyClearCmd clears the run history.
var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all recorded audit runs",
	Long: `Delete all stored audit runs, file scores and findings.

For SQLite the database file is removed. For MySQL and PostgreSQL the history
tables are dropped.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  # Export before clearing
  codeaudit history export --history-backend sqlite --output-file backup
  codeaudit history clear --history-backend sqlite`,
	PreRunE: historyMigrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		dbFilePath := iocache.GetHistoryDBFilePath()
		if cfg.HistoryBackend == schema.SQLiteBackend && cfg.HistoryDBConnect != "" {
			dbFilePath = cfg.HistoryDBConnect
		}
		if err := iocache.ClearHistory(cfg.HistoryBackend, dbFilePath, cfg.HistoryDBConnect); err != nil {
			contract.LogFatal("Failed to clear run history", err)
		}
		fmt.Println("Run history cleared successfully.")
	},
}

// historyStatusCmd shows history status.
var historyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display run history statistics and connection details",
	Long: `Show detailed information about the audit run history.

Displays:
- Backend type and connection status
- Total number of runs stored
- Last and oldest run timestamps
- Total files analyzed across all runs
- Database table sizes

Examples:
  codeaudit history status --history-backend sqlite`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := iocache.Manager.GetHistoryStore()
		if store == nil {
			contract.LogFatal("Failed to get run history status", fmt.Errorf("history store is not initialized"))
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get run history status", err)
		}
		iocache.PrintHistoryStatus(status)
	},
}

// historyExportCmd exports run history to Parquet files.
var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export run history to Parquet for BI tools and analytics",
	Long: `Export all stored run history to Parquet format.

Writes three files next to --output-file:
- <output-file>.runs.parquet        - one row per audit run with its scorecard
- <output-file>.file_scores.parquet - per-file quality scores
- <output-file>.findings.parquet    - security findings

Requires: --output-file parameter

Examples:
  codeaudit history export --history-backend sqlite --output-file audits
  duckdb -c "SELECT root_path, score_overall FROM read_parquet('audits.runs.parquet')"`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ExecuteHistoryExport(cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export run history", err)
		}
	},
}

// historyMigrateCmd runs database migrations for the history store.
var historyMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the run history store.

By default, migrates to the latest version. Use --target-version for specific versions.
MySQL connection strings need multiStatements=true.

Examples:
  # Migrate to latest version (default)
  codeaudit history migrate --history-backend postgresql --history-db-connect "host=localhost dbname=audits"

  # Rollback to initial state
  codeaudit history migrate --history-backend sqlite --target-version 0`,
	PreRunE: historyMigrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := iocache.MigrateHistory(cfg.HistoryBackend, cfg.HistoryDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}
