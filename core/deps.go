package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/huangsam/codeaudit/internal/contract"
	"github.com/huangsam/codeaudit/schema"
)

// packageManifest is the subset of package.json the audit reads.
type packageManifest struct {
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// merged returns production and development dependencies in one map.
// Development entries win on conflict.
func (m *packageManifest) merged() map[string]string {
	out := make(map[string]string, len(m.Dependencies)+len(m.DevDependencies))
	maps.Copy(out, m.Dependencies)
	maps.Copy(out, m.DevDependencies)
	return out
}

// upgradeHints are suggestions for packages whose major versions move quickly.
var upgradeHints = []struct {
	name       string
	suggestion string
}{
	{"react", "Check for React 19 features"},
	{"typescript", "Ensure using latest TypeScript 5.x"},
	{"vite", "Consider Vite 6.x if available"},
}

// resolvePath joins a configured path onto the root unless it is absolute.
func resolvePath(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, filepath.FromSlash(p))
}

// readManifest loads and decodes a package manifest.
// A missing file yields an error wrapping fs.ErrNotExist.
func readManifest(path string) (*packageManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m packageManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("malformed manifest %s: %w", filepath.Base(path), err)
	}
	return &m, nil
}

// inspectDependencies lists manifest dependencies and flags risky version specs.
// A malformed manifest aborts this pass only: the error is returned alongside
// a report that carries the same message.
func inspectDependencies(cfg *contract.Config) (schema.DependencyReport, error) {
	path := resolvePath(cfg.RootPath, cfg.Manifest)
	report := schema.DependencyReport{
		ManifestPath:    cfg.Manifest,
		Production:      map[string]string{},
		Development:     map[string]string{},
		PotentialIssues: []string{},
		VersionWarnings: []string{},
		Recommendations: []string{},
	}

	m, err := readManifest(path)
	if errors.Is(err, fs.ErrNotExist) {
		report.PotentialIssues = append(report.PotentialIssues, fmt.Sprintf("No %s found", filepath.Base(cfg.Manifest)))
		return report, nil
	}
	if err != nil {
		report.Error = err.Error()
		return report, err
	}

	if m.Dependencies != nil {
		report.Production = m.Dependencies
	}
	if m.DevDependencies != nil {
		report.Development = m.DevDependencies
	}
	report.TotalCount = len(report.Production) + len(report.Development)

	merged := m.merged()
	for _, name := range schema.SortedKeys(merged) {
		version := merged[name]
		if strings.HasPrefix(version, "^0.") || strings.HasPrefix(version, "~0.") {
			report.VersionWarnings = append(report.VersionWarnings, fmt.Sprintf("%s@%s - Pre-1.0 version, may be unstable", name, version))
		}
		if !hasRangePrefix(version) {
			report.PotentialIssues = append(report.PotentialIssues, fmt.Sprintf("%s@%s - Pinned to exact version", name, version))
		}
	}

	var overlap []string
	for name := range report.Production {
		if _, ok := report.Development[name]; ok {
			overlap = append(overlap, name)
		}
	}
	if len(overlap) > 0 {
		slices.Sort(overlap)
		report.PotentialIssues = append(report.PotentialIssues, "Packages in both production and dev: "+strings.Join(overlap, ", "))
	}

	for _, hint := range upgradeHints {
		if merged[hint.name] != "" {
			report.Recommendations = append(report.Recommendations, hint.suggestion)
		}
	}

	return report, nil
}

// hasRangePrefix reports whether a version spec starts with a range operator.
func hasRangePrefix(version string) bool {
	return strings.HasPrefix(version, "^") ||
		strings.HasPrefix(version, "~") ||
		strings.HasPrefix(version, ">") ||
		strings.HasPrefix(version, "<") ||
		strings.HasPrefix(version, "*")
}
