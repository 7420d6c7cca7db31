package core

import (
	"strings"

	"github.com/huangsam/codeaudit/schema"
)

// Thresholds and limits used when synthesizing recommendations.
const (
	lowQualityScore      = 6.0
	missingFeaturesShown = 3
)

// Recommend derives prioritized follow-ups from a scored report.
// It reads only aggregated state, so it must run after scoring.
func Recommend(r *schema.Report) schema.Recommendations {
	var recs schema.Recommendations

	if len(r.Security.Critical) > 0 {
		recs.Immediate = append(recs.Immediate, "🔴 **URGENT**: Fix all critical security issues immediately")
	}
	if len(r.Security.High) > 0 {
		recs.Immediate = append(recs.Immediate, "🟠 Address high-priority security vulnerabilities")
	}
	if r.Scores.CodeQuality < lowQualityScore {
		recs.Immediate = append(recs.Immediate, "📝 Improve code quality - focus on files with lowest scores")
	}
	if len(r.Dependencies.VersionWarnings) > 0 {
		recs.Immediate = append(recs.Immediate, "📦 Review and update dependencies with version warnings")
	}
	if len(recs.Immediate) == 0 {
		recs.Immediate = []string{"✅ Continue maintaining current quality standards"}
	}

	if len(r.Features.Partial) > 0 {
		recs.ShortTerm = append(recs.ShortTerm, "Complete partially implemented features")
	}
	if len(r.Database.Recommendations) > 0 {
		recs.ShortTerm = append(recs.ShortTerm, "Implement database recommendations (indexes, RLS)")
	}
	if len(r.Security.Medium) > 0 {
		recs.ShortTerm = append(recs.ShortTerm, "Address medium-priority security concerns")
	}
	if len(recs.ShortTerm) == 0 {
		recs.ShortTerm = []string{"Continue current development roadmap"}
	}

	if missing := r.Features.Missing; len(missing) > 0 {
		names := make([]string, 0, missingFeaturesShown)
		for _, f := range missing[:min(len(missing), missingFeaturesShown)] {
			names = append(names, f.Name)
		}
		recs.LongTerm = append(recs.LongTerm, "Implement missing features: "+strings.Join(names, ", "))
	}
	recs.LongTerm = append(recs.LongTerm,
		"Set up automated code quality checks in CI/CD",
		"Implement comprehensive test coverage",
	)

	return recs
}
