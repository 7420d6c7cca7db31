package core

import (
	"testing"

	"github.com/huangsam/codeaudit/schema"
	"github.com/stretchr/testify/assert"
)

func TestEvaluateCheck(t *testing.T) {
	scores := schema.ScoreCard{CodeQuality: 7.0, Security: 4.0, FeatureCompleteness: 2.0, Database: 9.0, Overall: 5.5}

	tests := []struct {
		name           string
		thresholds     map[schema.ScoreCategory]float64
		critical       int
		maxCritical    int
		wantPassed     bool
		wantViolations []schema.ScoreCategory
		wantCount      int
	}{
		{
			name:        "all gates disabled",
			thresholds:  map[schema.ScoreCategory]float64{},
			maxCritical: -1,
			critical:    3,
			wantPassed:  true,
		},
		{
			name: "defaults",
			thresholds: map[schema.ScoreCategory]float64{
				schema.CodeQualityScore: 5.0,
				schema.SecurityScore:    5.0,
				schema.OverallScore:     6.0,
			},
			maxCritical:    -1,
			wantPassed:     false,
			wantViolations: []schema.ScoreCategory{schema.SecurityScore, schema.OverallScore},
			wantCount:      2,
		},
		{
			name:        "critical gate",
			thresholds:  map[schema.ScoreCategory]float64{schema.DatabaseScore: 9.0},
			critical:    1,
			maxCritical: 0,
			wantPassed:  false,
			wantCount:   1,
		},
		{
			name:        "critical within limit",
			thresholds:  map[schema.ScoreCategory]float64{},
			critical:    2,
			maxCritical: 2,
			wantPassed:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := &schema.Report{
				RootPath: "/repo",
				Scores:   scores,
				Security: schema.SecurityReport{Critical: make([]schema.Finding, tt.critical)},
			}
			cfg := testConfig("/repo")
			cfg.Thresholds = tt.thresholds
			cfg.MaxCritical = tt.maxCritical

			result := evaluateCheck(report, cfg)
			assert.Equal(t, tt.wantPassed, result.Passed)
			var got []schema.ScoreCategory
			for _, v := range result.Violations {
				got = append(got, v.Category)
			}
			assert.Equal(t, tt.wantViolations, got)
			assert.Equal(t, tt.wantCount, countViolations(result))
			assert.Equal(t, tt.critical, result.CriticalFindings)
		})
	}
}
