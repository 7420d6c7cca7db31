// Package core runs audits and turns their reports into output.
package core

import (
	"context"
	"time"

	"github.com/huangsam/codeaudit/internal/contract"
	"github.com/huangsam/codeaudit/internal/outwriter"
)

// ExecutorFunc defines the function signature for executing different commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.HistoryManager) error

// ExecuteAudit runs a full audit, writes the report and prints a short summary.
// It serves as the main entry point for the 'run' command.
func ExecuteAudit(ctx context.Context, cfg *contract.Config, mgr contract.HistoryManager) error {
	start := time.Now()

	stop := outwriter.StartSpinner("Auditing " + cfg.RootPath)
	report, err := RunAudit(ctx, cfg, mgr)
	stop()
	if err != nil {
		return err
	}

	w := outwriter.NewOutWriter()
	duration := time.Since(start)
	if err := w.WriteReport(report, cfg, duration); err != nil {
		return err
	}
	w.WriteSummary(report, cfg, duration)
	return nil
}

// ExecuteRules prints the active rule catalog.
func ExecuteRules(_ context.Context, cfg *contract.Config, _ contract.HistoryManager) error {
	return outwriter.NewOutWriter().WriteRules(cfg.Catalog, cfg)
}
