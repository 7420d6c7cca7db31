package core

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/huangsam/codeaudit/internal/collector"
	"github.com/huangsam/codeaudit/internal/contract"
	"github.com/huangsam/codeaudit/schema"
)

// architecturePatterns maps conventional directories to the layout they signal.
var architecturePatterns = []struct {
	path  string
	label string
}{
	{"src/components", "Component-Based Architecture"},
	{"src/pages", "Page-Based Routing"},
	{"src/hooks", "Custom Hooks Pattern"},
	{"src/stores", "State Management (Stores)"},
	{"src/services", "Service Layer Pattern"},
	{"src/types", "TypeScript Type Definitions"},
	{"src/layouts", "Layout Components"},
	{"src/locales", "Internationalization (i18n)"},
	{"supabase", "Supabase Backend Integration"},
}

// frameworkMarkers maps manifest dependency names to framework labels.
var frameworkMarkers = []struct {
	dependency string
	label      string
}{
	{"react", "React"},
	{"vite", "Vite"},
	{"@supabase/supabase-js", "Supabase"},
	{"typescript", "TypeScript"},
	{"@tanstack/react-query", "TanStack Query"},
	{"zustand", "Zustand (State Management)"},
	{"i18next", "i18next (i18n)"},
	{"recharts", "Recharts (Charts)"},
	{"react-router-dom", "React Router"},
}

// analyzeStructure counts every non-ignored entry and detects layout and frameworks.
// The root itself is not counted as a directory.
func analyzeStructure(ctx context.Context, cfg *contract.Config, fc *collector.FileCollector) (schema.StructureReport, []string, error) {
	report := schema.StructureReport{
		FilesByExtension:     map[string]int{},
		Directories:          []string{},
		ArchitecturePatterns: []string{},
		Frameworks:           []string{},
	}

	err := fc.Walk(ctx, func(e collector.Entry) error {
		if e.IsDir {
			if e.RelativePath != "." {
				report.TotalDirectories++
				report.Directories = append(report.Directories, e.RelativePath)
			}
			return nil
		}
		report.TotalFiles++
		report.FilesByExtension[e.Extension]++
		return nil
	})
	if err != nil {
		return report, nil, err
	}

	for _, p := range architecturePatterns {
		if fc.Exists(p.path) {
			report.ArchitecturePatterns = append(report.ArchitecturePatterns, p.label)
		}
	}

	var warnings []string
	m, err := readManifest(resolvePath(cfg.RootPath, cfg.Manifest))
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		warnings = append(warnings, fmt.Sprintf("framework detection skipped: %v", err))
	default:
		report.Frameworks = detectFrameworks(m.merged())
	}

	return report, warnings, nil
}

// detectFrameworks returns the labels of known frameworks present in deps.
func detectFrameworks(deps map[string]string) []string {
	frameworks := []string{}
	for _, marker := range frameworkMarkers {
		if _, ok := deps[marker.dependency]; ok {
			frameworks = append(frameworks, marker.label)
		}
	}
	return frameworks
}
