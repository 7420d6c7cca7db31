package core

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/huangsam/codeaudit/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddWatchRecursive(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/app/main.ts":     "",
		"node_modules/x/a.js": "",
		"docs/readme.md":      "",
	})
	cfg := testConfig(root)

	w, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	require.NoError(t, addWatchRecursive(context.Background(), w, newCollector(t, cfg)))

	assert.ElementsMatch(t, []string{
		root,
		filepath.Join(root, "docs"),
		filepath.Join(root, "src"),
		filepath.Join(root, "src", "app"),
	}, w.WatchList())
}

func TestIsReportPath(t *testing.T) {
	reportDir := filepath.Join("/repo", "artifacts", "audit")
	tests := []struct {
		path     string
		expected bool
	}{
		{filepath.Join("/repo", "artifacts", "audit"), true},
		{filepath.Join("/repo", "artifacts", "audit", "audit_report.md"), true},
		{filepath.Join("/repo", "artifacts"), true},
		{filepath.Join("/repo", "src", "app.ts"), false},
		{filepath.Join("/repo", "artifacts-old"), false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, isReportPath(tt.path, reportDir))
		})
	}
}

func TestExecuteWatchRerunsOnChange(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/app.ts": "export const a = 1\n",
	})
	cfg := testConfig(root)
	cfg.Output = schema.JSONOut
	cfg.OutputFile = filepath.Join(t.TempDir(), "report.json")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ExecuteWatch(ctx, cfg, nil) }()

	// Initial audit
	require.Eventually(t, func() bool {
		_, err := os.Stat(cfg.OutputFile)
		return err == nil
	}, 10*time.Second, 20*time.Millisecond)

	require.NoError(t, os.Remove(cfg.OutputFile))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "new.ts"), []byte("eval(x)\n"), 0o644))

	// Re-run after the debounce
	require.Eventually(t, func() bool {
		content, err := os.ReadFile(cfg.OutputFile)
		return err == nil && strings.Contains(string(content), "eval-usage")
	}, 10*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}
