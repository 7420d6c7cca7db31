package core

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/huangsam/codeaudit/internal/collector"
	"github.com/huangsam/codeaudit/internal/contract"
	"github.com/huangsam/codeaudit/internal/rules"
	"github.com/huangsam/codeaudit/schema"
	"github.com/stretchr/testify/require"
)

// writeTree creates files under a fresh temp dir and returns its path.
// Keys are slash-separated relative paths.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

// testConfig returns a validated-looking config rooted at root.
func testConfig(root string) *contract.Config {
	return &contract.Config{
		RootPath:          root,
		Workers:           2,
		Precision:         contract.DefaultPrecision,
		Output:            schema.MarkdownOut,
		QualityExtensions: slices.Clone(contract.DefaultQualityExtensions),
		ScanExtensions:    slices.Clone(contract.DefaultScanExtensions),
		SkipFragments:     slices.Clone(contract.DefaultSkipFragments),
		Manifest:          contract.DefaultManifest,
		MigrationsDir:     contract.DefaultMigrationsDir,
		Passes:            slices.Clone(schema.AllPasses),
		Catalog:           rules.Default(),
		Thresholds:        map[schema.ScoreCategory]float64{},
		MaxCritical:       -1,
	}
}

// newCollector builds a collector for cfg or fails the test.
func newCollector(t *testing.T, cfg *contract.Config) *collector.FileCollector {
	t.Helper()
	fc, err := collector.New(cfg.RootPath, collector.Options{IgnoreDirs: cfg.IgnoreDirs, Excludes: cfg.Excludes})
	require.NoError(t, err)
	return fc
}
