// Package cmd defines the command-line interface for codeaudit.
package cmd

import (
	"github.com/huangsam/codeaudit/internal/contract"
	"github.com/huangsam/codeaudit/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(historyCmd)

	// Add the history subcommands to the parent history command
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyStatusCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	rootCmd.PersistentFlags().String("output", string(schema.MarkdownOut), "Output format: markdown or text or json or yaml or csv or sarif")
	rootCmd.PersistentFlags().String("output-file", "", "Report path (default: artifacts/audit/audit_report.<ext> under the root, '-' for stdout)")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent workers")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for scores")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("ignore", "", "Comma-separated directory names to skip (replaces node_modules,.git,dist,build,__pycache__,.cache,coverage)")
	rootCmd.PersistentFlags().String("exclude", "", "Comma-separated glob patterns of paths to skip")
	rootCmd.PersistentFlags().String("extensions", "", "Comma-separated extensions for the quality pass (e.g. .ts,.py)")
	rootCmd.PersistentFlags().String("scan-extensions", "", "Comma-separated extensions for the security and features passes")
	rootCmd.PersistentFlags().String("skip-paths", "", "Comma-separated path fragments the security pass skips")
	rootCmd.PersistentFlags().String("manifest", contract.DefaultManifest, "Dependency manifest path, relative to the root")
	rootCmd.PersistentFlags().String("migrations-dir", contract.DefaultMigrationsDir, "SQL migrations directory, relative to the root")
	rootCmd.PersistentFlags().String("passes", "", "Comma-separated passes to run (default: all)")
	rootCmd.PersistentFlags().String("features", "", "Comma-separated feature keys to check (default: all in the catalog)")
	rootCmd.PersistentFlags().String("rules-file", "", "YAML rule catalog replacing the built-in rules")
	rootCmd.PersistentFlags().String("read-timeout", "", "Per-file read timeout (e.g. 500ms, 2s)")
	rootCmd.PersistentFlags().String("history-backend", string(schema.NoneBackend), "Run history backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("history-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level: debug or info or warn or error")
	rootCmd.PersistentFlags().String("log-format", "console", "Log format: console or json")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of checkCmd to Viper
	checkCmd.Flags().String("thresholds-override", "", "Score minimums for CI/CD gating (format: 'overall:6,security:5,code_quality:5')")
	checkCmd.Flags().Int("max-critical", contract.DefaultMaxCritical, "Maximum critical findings allowed (-1 disables the gate)")
	if err := viper.BindPFlags(checkCmd.Flags()); err != nil {
		contract.LogFatal("Error binding check flags", err)
	}

	// Bind all flags of historyMigrateCmd to Viper
	historyMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(historyMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history migrate flags", err)
	}
}
