package core

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/huangsam/codeaudit/core/agg"
	"github.com/huangsam/codeaudit/internal/collector"
	"github.com/huangsam/codeaudit/internal/contract"
	"github.com/huangsam/codeaudit/internal/logger"
	"github.com/huangsam/codeaudit/internal/outwriter"
	"github.com/huangsam/codeaudit/internal/rules"
	"github.com/huangsam/codeaudit/schema"
)

// passOutcome is what one pass hands back to the orchestrator.
// apply is nil when the pass failed before producing anything.
type passOutcome struct {
	pass     schema.PassName
	apply    func(*schema.Report)
	warnings []string
	err      error
}

// collectorOptions builds the walk options for cfg. The default report
// directory and the resolved report file are never audited.
func collectorOptions(cfg *contract.Config) collector.Options {
	owned := []string{filepath.ToSlash(contract.DefaultReportDir)}
	if p := cfg.ReportPath(); p != "" {
		if rel, ok := relativeTo(cfg.RootPath, p); ok {
			owned = append(owned, rel)
		}
	}
	return collector.Options{
		IgnoreDirs:  cfg.IgnoreDirs,
		Excludes:    cfg.Excludes,
		ReadTimeout: cfg.ReadTimeout,
		Owned:       owned,
	}
}

// relativeTo returns target as a slash path relative to root when it lies beneath it.
func relativeTo(root, target string) (string, bool) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", false
	}
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return "", false
	}
	rel, err := filepath.Rel(absRoot, absTarget)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// RunAudit runs every enabled pass concurrently and assembles the scored report.
// A failing pass is recorded in PassErrors and never aborts the others.
func RunAudit(ctx context.Context, cfg *contract.Config, mgr contract.HistoryManager) (*schema.Report, error) {
	if !shouldSuppressHeader(ctx) {
		outwriter.LogAuditHeader(cfg)
	}

	fc, err := collector.New(cfg.RootPath, collectorOptions(cfg))
	if err != nil {
		return nil, err
	}
	catalog := cfg.Catalog
	if catalog == nil {
		catalog = rules.Default()
	}

	// --- 0. Begin run tracking (if configured) ---
	startTime := time.Now()
	var runID int64
	var store contract.HistoryStore
	if mgr != nil {
		store = mgr.GetHistoryStore()
	}
	if store != nil {
		configParams := map[string]any{
			"passes":     cfg.Passes,
			"workers":    cfg.Workers,
			"manifest":   cfg.Manifest,
			"migrations": cfg.MigrationsDir,
			"features":   cfg.FeatureKeys,
		}
		runID, err = store.BeginRun(cfg.RootPath, catalog.Version(), startTime, configParams)
		if err != nil {
			contract.LogWarn("Run tracking initialization failed", err)
		}
	}

	// --- 1. Passes ---
	outcomes := make([]passOutcome, len(cfg.Passes))
	var wg sync.WaitGroup
	for i, pass := range cfg.Passes {
		wg.Go(func() {
			outcomes[i] = runPass(ctx, pass, cfg, fc, catalog)
		})
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// --- 2. Assembly ---
	report := &schema.Report{
		RootPath:       cfg.RootPath,
		GeneratedAt:    startTime,
		CatalogVersion: catalog.Version(),
		Passes:         cfg.Passes,
		Warnings:       append([]string(nil), cfg.Warnings...),
	}
	for _, pass := range schema.AllPasses {
		for _, o := range outcomes {
			if o.pass != pass {
				continue
			}
			if o.apply != nil {
				o.apply(report)
			}
			report.Warnings = append(report.Warnings, o.warnings...)
			if o.err != nil {
				if report.PassErrors == nil {
					report.PassErrors = map[schema.PassName]string{}
				}
				report.PassErrors[o.pass] = o.err.Error()
				logger.L().WithPass(string(o.pass)).Warnw("pass failed", "error", o.err)
			}
		}
	}

	// --- 3. Scoring ---
	report.Scores = agg.ScoreCard(report)
	report.Recommendations = Recommend(report)

	// --- 4. Finalize run tracking ---
	if store != nil && runID > 0 {
		if err := store.RecordFileScores(runID, startTime, report.Quality.Files); err != nil {
			contract.LogWarn("Failed to record file scores", err)
		}
		if err := store.RecordFindings(runID, report.Security.All()); err != nil {
			contract.LogWarn("Failed to record findings", err)
		}
		summary := contract.RunSummary{
			FilesAnalyzed: report.Quality.FilesAnalyzed,
			TotalFindings: report.Security.TotalIssues,
			Scores:        report.Scores,
		}
		if err := store.EndRun(runID, time.Now(), summary); err != nil {
			contract.LogWarn("Failed to finalize run tracking", err)
		}
	}

	return report, nil
}

// passPanicError turns a recovered value into a pass error; nil means no panic.
func passPanicError(pass schema.PassName, r any) error {
	switch v := r.(type) {
	case nil:
		return nil
	case error:
		return fmt.Errorf("pass %s panicked: %w", pass, v)
	default:
		return fmt.Errorf("pass %s panicked: %v", pass, v)
	}
}

// runPass executes one pass and converts a panic into a pass error.
// Panics inside the pass's file workers reach here through agg.FanOut.
func runPass(ctx context.Context, pass schema.PassName, cfg *contract.Config, fc *collector.FileCollector, catalog *rules.Catalog) (out passOutcome) {
	out.pass = pass
	log := logger.L().WithPass(string(pass))
	start := time.Now()
	defer func() {
		if err := passPanicError(pass, recover()); err != nil {
			out.apply = nil
			out.err = err
		}
		log.Debugw("pass finished", "duration", time.Since(start))
	}()

	switch pass {
	case schema.StructurePass:
		structure, warnings, err := analyzeStructure(ctx, cfg, fc)
		out.warnings, out.err = warnings, err
		out.apply = func(r *schema.Report) { r.Structure = structure }
	case schema.QualityPass:
		quality := analyzeQuality(ctx, cfg, fc, catalog)
		out.apply = func(r *schema.Report) { r.Quality = quality }
	case schema.DependenciesPass:
		deps, err := inspectDependencies(cfg)
		out.err = err
		out.apply = func(r *schema.Report) { r.Dependencies = deps }
	case schema.DatabasePass:
		db := analyzeDatabase(cfg)
		out.apply = func(r *schema.Report) { r.Database = db }
	case schema.FeaturesPass:
		features, err := analyzeFeatures(ctx, cfg, fc, catalog)
		if err != nil {
			out.err = err
			return out
		}
		out.warnings = features.Warnings
		out.apply = func(r *schema.Report) { r.Features = features }
	case schema.SecurityPass:
		security := scanSecurity(ctx, cfg, fc, catalog)
		out.apply = func(r *schema.Report) { r.Security = security }
	default:
		out.warnings = []string{fmt.Sprintf("unknown pass %q skipped", pass)}
	}
	return out
}
