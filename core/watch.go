package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/huangsam/codeaudit/internal/collector"
	"github.com/huangsam/codeaudit/internal/contract"
	"github.com/huangsam/codeaudit/internal/logger"
)

// watchDebounce coalesces bursts of filesystem events into one audit.
const watchDebounce = 300 * time.Millisecond

// ExecuteWatch audits once, then re-audits whenever the tree changes until ctx is done.
// Changes under the report directory are ignored so writing a report never retriggers.
func ExecuteWatch(ctx context.Context, cfg *contract.Config, mgr contract.HistoryManager) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch init failed: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	fc, err := collector.New(cfg.RootPath, collectorOptions(cfg))
	if err != nil {
		return err
	}
	if err := addWatchRecursive(ctx, watcher, fc); err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}

	reportDir := filepath.Join(cfg.RootPath, contract.DefaultReportDir)
	if p := cfg.ReportPath(); p != "" {
		reportDir = filepath.Dir(p)
	}

	trigger := func() {
		if err := ExecuteAudit(ctx, cfg, mgr); err != nil {
			contract.LogWarn("Audit run failed", err)
		}
	}
	trigger()
	fmt.Fprintf(os.Stderr, "👀 Watching %s for changes (Ctrl+C to stop)\n", cfg.RootPath)

	timer := time.NewTimer(watchDebounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if isReportPath(ev.Name, reportDir) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() && !fc.IsIgnoredDir(info.Name()) {
					_ = watcher.Add(ev.Name)
				}
			}
			logger.L().Debugw("change detected", "path", ev.Name, "op", ev.Op.String())
			timer.Reset(watchDebounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			contract.LogWarn("Watch error", err)
		case <-timer.C:
			trigger()
		}
	}
}

// addWatchRecursive registers every non-ignored directory with the watcher.
func addWatchRecursive(ctx context.Context, w *fsnotify.Watcher, fc *collector.FileCollector) error {
	return fc.Walk(ctx, func(e collector.Entry) error {
		if !e.IsDir {
			return nil
		}
		return w.Add(filepath.Join(fc.Root(), filepath.FromSlash(e.RelativePath)))
	})
}

// isReportPath reports whether path is the report directory, lies inside it,
// or is one of its parents being created on the first write.
func isReportPath(path, reportDir string) bool {
	sep := string(filepath.Separator)
	return path == reportDir ||
		strings.HasPrefix(path, reportDir+sep) ||
		strings.HasPrefix(reportDir, path+sep)
}
