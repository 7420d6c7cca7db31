package core

import (
	"testing"

	"github.com/huangsam/codeaudit/schema"
	"github.com/stretchr/testify/assert"
)

func TestRecommend(t *testing.T) {
	t.Run("healthy report uses fallbacks", func(t *testing.T) {
		r := &schema.Report{Scores: schema.ScoreCard{CodeQuality: 8.5}}
		recs := Recommend(r)
		assert.Equal(t, []string{"✅ Continue maintaining current quality standards"}, recs.Immediate)
		assert.Equal(t, []string{"Continue current development roadmap"}, recs.ShortTerm)
		assert.Equal(t, []string{
			"Set up automated code quality checks in CI/CD",
			"Implement comprehensive test coverage",
		}, recs.LongTerm)
	})

	t.Run("every trigger", func(t *testing.T) {
		r := &schema.Report{
			Scores: schema.ScoreCard{CodeQuality: 4.0},
			Security: schema.SecurityReport{
				Critical: []schema.Finding{{}},
				High:     []schema.Finding{{}},
				Medium:   []schema.Finding{{}},
			},
			Dependencies: schema.DependencyReport{VersionWarnings: []string{"x@^0.1 - Pre-1.0 version, may be unstable"}},
			Database:     schema.DatabaseReport{Recommendations: []string{"more indexes"}},
			Features: schema.FeatureReport{
				Partial: []schema.FeatureFinding{{Name: "POS/Sales"}},
				Missing: []schema.FeatureFinding{{Name: "B2B/Wholesale"}, {Name: "Printing"}, {Name: "Purchasing"}, {Name: "Customer Display"}},
			},
		}
		recs := Recommend(r)
		assert.Equal(t, []string{
			"🔴 **URGENT**: Fix all critical security issues immediately",
			"🟠 Address high-priority security vulnerabilities",
			"📝 Improve code quality - focus on files with lowest scores",
			"📦 Review and update dependencies with version warnings",
		}, recs.Immediate)
		assert.Equal(t, []string{
			"Complete partially implemented features",
			"Implement database recommendations (indexes, RLS)",
			"Address medium-priority security concerns",
		}, recs.ShortTerm)
		assert.Equal(t, "Implement missing features: B2B/Wholesale, Printing, Purchasing", recs.LongTerm[0])
		assert.Len(t, recs.LongTerm, 3)
	})
}
