package contract

import (
	"cmp"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/codeaudit/internal/rules"
	"github.com/huangsam/codeaudit/schema"
)

// Default values for configuration.
const (
	DefaultPrecision     = 1
	DefaultManifest      = "package.json"
	DefaultMigrationsDir = "supabase/migrations"
	DefaultMaxCritical   = 0
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// DefaultReportDir is where reports go when no output file is given, relative to the root.
var DefaultReportDir = filepath.Join("artifacts", "audit")

// DefaultReportName is the base name of the default report file.
const DefaultReportName = "audit_report"

// Default extension sets for the file-level passes.
var (
	DefaultQualityExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".py"}
	DefaultScanExtensions    = []string{".ts", ".tsx", ".js", ".jsx", ".py", ".sql", ".css", ".html", ".json", ".md"}
	DefaultSkipFragments     = []string{".env.example"}
)

// DefaultThresholds are the check gate minimums per scorecard field. Zero disables a gate.
var DefaultThresholds = map[schema.ScoreCategory]float64{
	schema.CodeQualityScore:         5.0,
	schema.SecurityScore:            5.0,
	schema.FeatureCompletenessScore: 0.0,
	schema.DatabaseScore:            0.0,
	schema.OverallScore:             6.0,
}

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// ThresholdsRawInput holds check gate minimums from the YAML config file.
type ThresholdsRawInput struct {
	CodeQuality         *float64 `mapstructure:"code_quality"`
	Security            *float64 `mapstructure:"security"`
	FeatureCompleteness *float64 `mapstructure:"feature_completeness"`
	Database            *float64 `mapstructure:"database"`
	Overall             *float64 `mapstructure:"overall"`
}

// Config holds the runtime configuration for an audit.
// This struct is the "final, validated" config.
type Config struct {
	RootPath   string
	Workers    int
	Precision  int
	Output     schema.OutputMode
	OutputFile string // "" selects the default report path, "-" selects stdout
	Width      int    // Terminal width override (0 = auto-detect)
	UseColors  bool

	IgnoreDirs        []string
	Excludes          []string
	QualityExtensions []string
	ScanExtensions    []string
	SkipFragments     []string
	Manifest          string
	MigrationsDir     string
	ReadTimeout       time.Duration

	Passes         []schema.PassName
	FeatureKeys    []string
	FeatureCatalog []schema.FeatureExpectation // nil selects the built-in catalog
	RulesFile      string
	Catalog        *rules.Catalog

	HistoryBackend   schema.DatabaseBackend
	HistoryDBConnect string // Please use env var as this is plaintext

	Thresholds  map[schema.ScoreCategory]float64
	MaxCritical int // -1 disables the critical findings gate

	// Warnings collects non-fatal input problems, such as unknown pass names.
	Warnings []string
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	RootPathStr string

	// --- Fields from rootCmd.PersistentFlags() ---
	Output           string `mapstructure:"output"`
	OutputFile       string `mapstructure:"output-file"`
	Workers          int    `mapstructure:"workers"`
	Precision        int    `mapstructure:"precision"`
	Color            string `mapstructure:"color"`
	Width            int    `mapstructure:"width"`
	Ignore           string `mapstructure:"ignore"`
	Exclude          string `mapstructure:"exclude"`
	Extensions       string `mapstructure:"extensions"`
	ScanExtensions   string `mapstructure:"scan-extensions"`
	SkipPaths        string `mapstructure:"skip-paths"`
	Manifest         string `mapstructure:"manifest"`
	MigrationsDir    string `mapstructure:"migrations-dir"`
	Passes           string `mapstructure:"passes"`
	Features         string `mapstructure:"features"`
	RulesFile        string `mapstructure:"rules-file"`
	ReadTimeout      string `mapstructure:"read-timeout"`
	HistoryBackend   string `mapstructure:"history-backend"`
	HistoryDBConnect string `mapstructure:"history-db-connect"`

	// --- Fields from checkCmd.Flags() ---
	ThresholdsStr string `mapstructure:"thresholds-override"`
	MaxCritical   int    `mapstructure:"max-critical"`

	// --- Check thresholds from config file ---
	Thresholds ThresholdsRawInput `mapstructure:"thresholds"`

	// --- Custom feature catalog from config file ---
	FeatureCatalog []schema.FeatureExpectation `mapstructure:"feature-catalog"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	clone.IgnoreDirs = slices.Clone(c.IgnoreDirs)
	clone.Excludes = slices.Clone(c.Excludes)
	clone.QualityExtensions = slices.Clone(c.QualityExtensions)
	clone.ScanExtensions = slices.Clone(c.ScanExtensions)
	clone.SkipFragments = slices.Clone(c.SkipFragments)
	clone.Passes = slices.Clone(c.Passes)
	clone.FeatureKeys = slices.Clone(c.FeatureKeys)
	clone.FeatureCatalog = slices.Clone(c.FeatureCatalog)
	clone.Warnings = slices.Clone(c.Warnings)
	if c.Thresholds != nil {
		clone.Thresholds = make(map[schema.ScoreCategory]float64, len(c.Thresholds))
		maps.Copy(clone.Thresholds, c.Thresholds)
	}
	return &clone
}

// CloneWithRoot creates a copy of the Config pointed at another root.
func (c *Config) CloneWithRoot(root string) *Config {
	clone := c.Clone()
	clone.RootPath = root
	return clone
}

// RunsPass reports whether a pass is enabled.
func (c *Config) RunsPass(pass schema.PassName) bool {
	return slices.Contains(c.Passes, pass)
}

// ReportPath resolves where the rendered report goes. Empty means stdout.
func (c *Config) ReportPath() string {
	switch {
	case c.OutputFile == "-":
		return ""
	case c.OutputFile != "":
		return c.OutputFile
	case c.Output == schema.TextOut:
		return ""
	default:
		return filepath.Join(c.RootPath, DefaultReportDir, DefaultReportName+c.Output.FileExtension())
	}
}

// ProcessAndValidate performs all complex parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processFileSelection(cfg, input); err != nil {
		return err
	}
	if err := processPasses(cfg, input); err != nil {
		return err
	}
	if err := processCatalog(cfg, input); err != nil {
		return err
	}
	if err := processCheckThresholds(cfg, input); err != nil {
		return err
	}
	return resolveRootPath(cfg, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("history-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("history-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// ValidateHistoryBackend normalizes and validates the history backend settings.
func ValidateHistoryBackend(cfg *Config, backend, connStr string) error {
	cfg.HistoryBackend = schema.DatabaseBackend(strings.ToLower(backend))
	if cfg.HistoryBackend == "" {
		cfg.HistoryBackend = schema.NoneBackend
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.HistoryBackend]; !ok {
		return fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", backend)
	}
	cfg.HistoryDBConnect = connStr
	return ValidateDatabaseConnectionString(cfg.HistoryBackend, cfg.HistoryDBConnect)
}

// validateSimpleInputs processes and validates all scalar fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.Warnings = nil
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.Manifest = cmp.Or(input.Manifest, DefaultManifest)
	cfg.MigrationsDir = cmp.Or(input.MigrationsDir, DefaultMigrationsDir)
	cfg.RulesFile = input.RulesFile

	colors, err := ParseBoolString(cmp.Or(input.Color, "yes"))
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	if input.Precision < 1 || input.Precision > 2 {
		return fmt.Errorf("precision must be 1 or 2 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(cmp.Or(input.Output, string(schema.MarkdownOut))))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be markdown, text, json, yaml, csv, sarif", input.Output)
	}

	if input.ReadTimeout != "" {
		d, err := time.ParseDuration(input.ReadTimeout)
		if err != nil {
			return fmt.Errorf("invalid --read-timeout value '%s': %w", input.ReadTimeout, err)
		}
		if d < 0 {
			return fmt.Errorf("read-timeout cannot be negative (received %s)", input.ReadTimeout)
		}
		cfg.ReadTimeout = d
	}

	return ValidateHistoryBackend(cfg, input.HistoryBackend, input.HistoryDBConnect)
}

// processFileSelection fills the ignore, exclude and extension sets.
func processFileSelection(cfg *Config, input *ConfigRawInput) error {
	cfg.IgnoreDirs = schema.ParseList(input.Ignore)
	cfg.Excludes = schema.ParseList(input.Exclude)

	var err error
	if cfg.QualityExtensions, err = parseExtensions(input.Extensions, DefaultQualityExtensions); err != nil {
		return fmt.Errorf("invalid --extensions value: %w", err)
	}
	if cfg.ScanExtensions, err = parseExtensions(input.ScanExtensions, DefaultScanExtensions); err != nil {
		return fmt.Errorf("invalid --scan-extensions value: %w", err)
	}

	cfg.SkipFragments = slices.Clone(DefaultSkipFragments)
	cfg.SkipFragments = append(cfg.SkipFragments, schema.ParseList(input.SkipPaths)...)
	return nil
}

// processPasses selects the passes to run. Unknown names are warned about and skipped.
func processPasses(cfg *Config, input *ConfigRawInput) error {
	names := schema.ParseList(input.Passes)
	if len(names) == 0 {
		cfg.Passes = slices.Clone(schema.AllPasses)
	} else {
		selected := make(map[schema.PassName]bool, len(names))
		for _, name := range names {
			pass := schema.PassName(strings.ToLower(name))
			if _, ok := schema.ValidPasses[pass]; !ok {
				cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("unknown pass %q skipped", name))
				continue
			}
			selected[pass] = true
		}
		cfg.Passes = nil
		for _, pass := range schema.AllPasses {
			if selected[pass] {
				cfg.Passes = append(cfg.Passes, pass)
			}
		}
	}

	cfg.FeatureKeys = schema.ParseList(input.Features)
	return nil
}

// processCatalog loads the rule catalog and the optional custom feature catalog.
func processCatalog(cfg *Config, input *ConfigRawInput) error {
	catalog, err := rules.LoadCatalog(cfg.RulesFile)
	if err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}
	cfg.Catalog = catalog

	if len(input.FeatureCatalog) == 0 {
		cfg.FeatureCatalog = nil
		return nil
	}
	seen := make(map[string]bool, len(input.FeatureCatalog))
	for i, fe := range input.FeatureCatalog {
		if fe.Key == "" {
			return fmt.Errorf("feature-catalog entry %d has no key", i)
		}
		if seen[fe.Key] {
			return fmt.Errorf("feature-catalog has duplicate key %q", fe.Key)
		}
		if len(fe.Patterns) == 0 {
			return fmt.Errorf("feature-catalog entry %q has no patterns", fe.Key)
		}
		seen[fe.Key] = true
	}
	cfg.FeatureCatalog = slices.Clone(input.FeatureCatalog)
	return nil
}

// processCheckThresholds converts the raw threshold input into the final cfg.Thresholds map.
// Command-line --thresholds-override flag takes precedence over config file settings.
func processCheckThresholds(cfg *Config, input *ConfigRawInput) error {
	thresholds := make(map[schema.ScoreCategory]float64, len(DefaultThresholds))
	maps.Copy(thresholds, DefaultThresholds)

	fromFile := map[schema.ScoreCategory]*float64{
		schema.CodeQualityScore:         input.Thresholds.CodeQuality,
		schema.SecurityScore:            input.Thresholds.Security,
		schema.FeatureCompletenessScore: input.Thresholds.FeatureCompleteness,
		schema.DatabaseScore:            input.Thresholds.Database,
		schema.OverallScore:             input.Thresholds.Overall,
	}
	for cat, v := range fromFile {
		if v != nil {
			thresholds[cat] = *v
		}
	}

	if input.ThresholdsStr != "" {
		parsed, err := parseThresholdsString(input.ThresholdsStr)
		if err != nil {
			return fmt.Errorf("invalid --thresholds-override format: %w", err)
		}
		maps.Copy(thresholds, parsed)
	}

	for cat, threshold := range thresholds {
		if threshold < 0.0 || threshold > 10.0 {
			return fmt.Errorf("threshold for %s must be between 0.0 and 10.0 (received %.2f)", cat, threshold)
		}
	}
	cfg.Thresholds = thresholds

	if input.MaxCritical < -1 {
		return fmt.Errorf("max-critical must be -1 or greater (received %d)", input.MaxCritical)
	}
	cfg.MaxCritical = input.MaxCritical
	return nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}

// resolveRootPath makes the audit root absolute and checks that it is a directory.
func resolveRootPath(cfg *Config, input *ConfigRawInput) error {
	abs, err := filepath.Abs(cmp.Or(input.RootPathStr, "."))
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("cannot access audit root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("audit root %s is not a directory", abs)
	}
	cfg.RootPath = filepath.Clean(abs)
	return nil
}

// parseExtensions parses "ts,.py" into [".ts", ".py"], falling back to defaults when empty.
func parseExtensions(s string, defaults []string) ([]string, error) {
	parts := schema.ParseList(s)
	if len(parts) == 0 {
		return slices.Clone(defaults), nil
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		ext := strings.ToLower(p)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if ext == "." || strings.ContainsAny(ext, `/\`) {
			return nil, fmt.Errorf("bad extension %q", p)
		}
		if !slices.Contains(out, ext) {
			out = append(out, ext)
		}
	}
	return out, nil
}

// parseThresholdsString parses a string like "overall:6,security:5"
// into a map of ScoreCategory to float64.
func parseThresholdsString(s string) (map[schema.ScoreCategory]float64, error) {
	thresholds := make(map[schema.ScoreCategory]float64)

	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		keyValue := strings.Split(part, ":")
		if len(keyValue) != 2 {
			return nil, fmt.Errorf("invalid threshold format '%s', expected 'category:value'", part)
		}

		catStr := strings.ToLower(strings.TrimSpace(keyValue[0]))
		valueStr := strings.TrimSpace(keyValue[1])

		cat := schema.ScoreCategory(catStr)
		if _, ok := schema.ValidScoreCategories[cat]; !ok {
			return nil, fmt.Errorf("invalid category '%s', must be code_quality, security, feature_completeness, database, or overall", catStr)
		}

		value, err := strconv.ParseFloat(valueStr, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid threshold value '%s' for %s: %w", valueStr, cat, err)
		}

		thresholds[cat] = value
	}

	return thresholds, nil
}
