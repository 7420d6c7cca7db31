package contract

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/codeaudit/internal/rules"
	"github.com/huangsam/codeaudit/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput(root string) *ConfigRawInput {
	return &ConfigRawInput{
		RootPathStr:    root,
		Output:         "markdown",
		Workers:        4,
		Precision:      1,
		Color:          "yes",
		HistoryBackend: "none",
	}
}

func TestProcessAndValidate(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	tests := []struct {
		name        string
		mutate      func(*ConfigRawInput)
		expectError bool
	}{
		{name: "valid minimal config", mutate: func(*ConfigRawInput) {}},
		{name: "zero workers", mutate: func(in *ConfigRawInput) { in.Workers = 0 }, expectError: true},
		{name: "precision too high", mutate: func(in *ConfigRawInput) { in.Precision = 3 }, expectError: true},
		{name: "unknown output", mutate: func(in *ConfigRawInput) { in.Output = "html" }, expectError: true},
		{name: "sarif output", mutate: func(in *ConfigRawInput) { in.Output = "SARIF" }},
		{name: "bad color", mutate: func(in *ConfigRawInput) { in.Color = "maybe" }, expectError: true},
		{name: "bad read timeout", mutate: func(in *ConfigRawInput) { in.ReadTimeout = "soon" }, expectError: true},
		{name: "negative read timeout", mutate: func(in *ConfigRawInput) { in.ReadTimeout = "-1s" }, expectError: true},
		{name: "unknown backend", mutate: func(in *ConfigRawInput) { in.HistoryBackend = "redis" }, expectError: true},
		{name: "mysql without conn", mutate: func(in *ConfigRawInput) { in.HistoryBackend = "mysql" }, expectError: true},
		{name: "bad extension", mutate: func(in *ConfigRawInput) { in.Extensions = "src/ts" }, expectError: true},
		{name: "missing root", mutate: func(in *ConfigRawInput) { in.RootPathStr = filepath.Join(root, "nope") }, expectError: true},
		{name: "root is a file", mutate: func(in *ConfigRawInput) { in.RootPathStr = file }, expectError: true},
		{name: "bad thresholds", mutate: func(in *ConfigRawInput) { in.ThresholdsStr = "overall=6" }, expectError: true},
		{name: "bad max critical", mutate: func(in *ConfigRawInput) { in.MaxCritical = -2 }, expectError: true},
		{name: "missing rules file", mutate: func(in *ConfigRawInput) { in.RulesFile = filepath.Join(root, "none.yaml") }, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput(root)
			tt.mutate(input)
			cfg := &Config{}
			err := ProcessAndValidate(cfg, input)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestProcessAndValidateDefaults(t *testing.T) {
	root := t.TempDir()
	input := validInput(root)
	input.Output = ""
	input.Color = ""
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))

	assert.Equal(t, schema.MarkdownOut, cfg.Output)
	assert.True(t, cfg.UseColors)
	assert.Equal(t, DefaultManifest, cfg.Manifest)
	assert.Equal(t, DefaultMigrationsDir, cfg.MigrationsDir)
	assert.Equal(t, DefaultQualityExtensions, cfg.QualityExtensions)
	assert.Equal(t, DefaultScanExtensions, cfg.ScanExtensions)
	assert.Equal(t, []string{".env.example"}, cfg.SkipFragments)
	assert.Equal(t, schema.AllPasses, cfg.Passes)
	assert.Equal(t, schema.NoneBackend, cfg.HistoryBackend)
	assert.Equal(t, DefaultThresholds, cfg.Thresholds)
	assert.Nil(t, cfg.FeatureCatalog)
	require.NotNil(t, cfg.Catalog)
	assert.Equal(t, rules.Version, cfg.Catalog.Version())
	assert.Equal(t, filepath.Clean(root), cfg.RootPath)
	assert.Empty(t, cfg.Warnings)
}

func TestProcessFileSelection(t *testing.T) {
	input := validInput(t.TempDir())
	input.Extensions = "ts, .PY,ts"
	input.Ignore = "vendor, tmp"
	input.Exclude = "*.gen.ts"
	input.SkipPaths = "fixtures/"
	input.ReadTimeout = "250ms"
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))

	assert.Equal(t, []string{".ts", ".py"}, cfg.QualityExtensions)
	assert.Equal(t, []string{"vendor", "tmp"}, cfg.IgnoreDirs)
	assert.Equal(t, []string{"*.gen.ts"}, cfg.Excludes)
	assert.Equal(t, []string{".env.example", "fixtures/"}, cfg.SkipFragments)
	assert.Equal(t, 250*time.Millisecond, cfg.ReadTimeout)
}

func TestProcessPasses(t *testing.T) {
	input := validInput(t.TempDir())
	input.Passes = "security, Quality,lint"
	input.Features = "auth, pos"
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))

	assert.Equal(t, []schema.PassName{schema.QualityPass, schema.SecurityPass}, cfg.Passes)
	assert.True(t, cfg.RunsPass(schema.SecurityPass))
	assert.False(t, cfg.RunsPass(schema.DatabasePass))
	assert.Equal(t, []string{`unknown pass "lint" skipped`}, cfg.Warnings)
	assert.Equal(t, []string{"auth", "pos"}, cfg.FeatureKeys)
}

func TestProcessFeatureCatalog(t *testing.T) {
	entry := schema.FeatureExpectation{Key: "billing", Name: "Billing", Patterns: []string{"invoice"}}
	tests := []struct {
		name        string
		catalog     []schema.FeatureExpectation
		expectError bool
	}{
		{"valid", []schema.FeatureExpectation{entry}, false},
		{"missing key", []schema.FeatureExpectation{{Name: "x", Patterns: []string{"x"}}}, true},
		{"duplicate key", []schema.FeatureExpectation{entry, entry}, true},
		{"no patterns", []schema.FeatureExpectation{{Key: "x"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput(t.TempDir())
			input.FeatureCatalog = tt.catalog
			cfg := &Config{}
			err := ProcessAndValidate(cfg, input)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.catalog, cfg.FeatureCatalog)
		})
	}
}

func TestProcessCheckThresholds(t *testing.T) {
	fileOverall := 7.0
	input := validInput(t.TempDir())
	input.Thresholds = ThresholdsRawInput{Overall: &fileOverall}
	input.ThresholdsStr = "security:8.5, database:3"
	input.MaxCritical = -1
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))

	assert.Equal(t, 7.0, cfg.Thresholds[schema.OverallScore])
	assert.Equal(t, 8.5, cfg.Thresholds[schema.SecurityScore])
	assert.Equal(t, 3.0, cfg.Thresholds[schema.DatabaseScore])
	assert.Equal(t, DefaultThresholds[schema.CodeQualityScore], cfg.Thresholds[schema.CodeQualityScore])
	assert.Equal(t, -1, cfg.MaxCritical)

	outOfRange := 11.0
	input.Thresholds = ThresholdsRawInput{Security: &outOfRange}
	input.ThresholdsStr = ""
	assert.Error(t, ProcessAndValidate(&Config{}, input))
}

func TestParseThresholdsString(t *testing.T) {
	tests := []struct {
		name        string
		in          string
		want        map[schema.ScoreCategory]float64
		expectError bool
	}{
		{"empty", "", map[schema.ScoreCategory]float64{}, false},
		{"two entries", "overall:6,security:5", map[schema.ScoreCategory]float64{schema.OverallScore: 6, schema.SecurityScore: 5}, false},
		{"case and spaces", " CODE_QUALITY : 4.5 ,", map[schema.ScoreCategory]float64{schema.CodeQualityScore: 4.5}, false},
		{"unknown category", "speed:3", nil, true},
		{"bad value", "overall:high", nil, true},
		{"missing colon", "overall", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseThresholdsString(tt.in)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	tests := []struct {
		name        string
		backend     schema.DatabaseBackend
		conn        string
		expectError bool
	}{
		{"sqlite empty", schema.SQLiteBackend, "", false},
		{"none", schema.NoneBackend, "", false},
		{"mysql valid", schema.MySQLBackend, "root:pw@tcp(localhost:3306)/audit", false},
		{"mysql no tcp", schema.MySQLBackend, "root:pw@localhost/audit", true},
		{"mysql no db", schema.MySQLBackend, "root:pw@tcp(localhost:3306)", true},
		{"postgres valid", schema.PostgreSQLBackend, "host=localhost dbname=audit", false},
		{"postgres no host", schema.PostgreSQLBackend, "dbname=audit", true},
		{"postgres no db", schema.PostgreSQLBackend, "host=localhost", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDatabaseConnectionString(tt.backend, tt.conn)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestReportPath(t *testing.T) {
	root := filepath.Join("/", "work", "app")
	tests := []struct {
		name   string
		output schema.OutputMode
		file   string
		want   string
	}{
		{"markdown default", schema.MarkdownOut, "", filepath.Join(root, "artifacts", "audit", "audit_report.md")},
		{"json default", schema.JSONOut, "", filepath.Join(root, "artifacts", "audit", "audit_report.json")},
		{"text defaults to stdout", schema.TextOut, "", ""},
		{"dash is stdout", schema.JSONOut, "-", ""},
		{"explicit file", schema.SARIFOut, "out.sarif", "out.sarif"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{RootPath: root, Output: tt.output, OutputFile: tt.file}
			assert.Equal(t, tt.want, cfg.ReportPath())
		})
	}
}

func TestClone(t *testing.T) {
	cfg := &Config{
		RootPath:   "/a",
		Passes:     []schema.PassName{schema.QualityPass},
		Thresholds: map[schema.ScoreCategory]float64{schema.OverallScore: 6},
		Excludes:   []string{"x"},
	}
	clone := cfg.CloneWithRoot("/b")
	clone.Passes[0] = schema.SecurityPass
	clone.Thresholds[schema.OverallScore] = 1
	clone.Excludes[0] = "y"

	assert.Equal(t, "/a", cfg.RootPath)
	assert.Equal(t, "/b", clone.RootPath)
	assert.Equal(t, schema.QualityPass, cfg.Passes[0])
	assert.Equal(t, 6.0, cfg.Thresholds[schema.OverallScore])
	assert.Equal(t, "x", cfg.Excludes[0])
}

func TestProcessProfilingConfig(t *testing.T) {
	var profile ProfileConfig
	require.NoError(t, ProcessProfilingConfig(&profile, ""))
	assert.False(t, profile.Enabled)
	require.NoError(t, ProcessProfilingConfig(&profile, "audit"))
	assert.True(t, profile.Enabled)
	assert.Equal(t, "audit", profile.Prefix)
}
