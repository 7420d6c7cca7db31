package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspectDependencies(t *testing.T) {
	t.Run("missing manifest", func(t *testing.T) {
		cfg := testConfig(writeTree(t, map[string]string{"a.ts": ""}))
		report, err := inspectDependencies(cfg)
		require.NoError(t, err)
		assert.Equal(t, []string{"No package.json found"}, report.PotentialIssues)
		assert.NotNil(t, report.Production)
		assert.NotNil(t, report.Development)
		assert.Zero(t, report.TotalCount)
		assert.Empty(t, report.Error)
	})

	t.Run("malformed manifest", func(t *testing.T) {
		cfg := testConfig(writeTree(t, map[string]string{"package.json": `{"dependencies": `}))
		report, err := inspectDependencies(cfg)
		require.Error(t, err)
		assert.NotEmpty(t, report.Error)
		assert.Equal(t, err.Error(), report.Error)
	})

	t.Run("version checks", func(t *testing.T) {
		cfg := testConfig(writeTree(t, map[string]string{"package.json": `{
			"dependencies": {"react": "^18.2.0", "zustand": "4.5.0", "lodash": "~0.9.1"},
			"devDependencies": {"typescript": "^5.3.0", "vite": "^5.0.0", "react": "^18.2.0"}
		}`}))
		report, err := inspectDependencies(cfg)
		require.NoError(t, err)

		assert.Equal(t, 6, report.TotalCount)
		assert.Len(t, report.Production, 3)
		assert.Len(t, report.Development, 3)
		assert.Equal(t, []string{"lodash@~0.9.1 - Pre-1.0 version, may be unstable"}, report.VersionWarnings)
		assert.Equal(t, []string{
			"zustand@4.5.0 - Pinned to exact version",
			"Packages in both production and dev: react",
		}, report.PotentialIssues)
		assert.Equal(t, []string{
			"Check for React 19 features",
			"Ensure using latest TypeScript 5.x",
			"Consider Vite 6.x if available",
		}, report.Recommendations)
	})

	t.Run("custom manifest name", func(t *testing.T) {
		cfg := testConfig(writeTree(t, map[string]string{}))
		cfg.Manifest = "web/deps.json"
		report, err := inspectDependencies(cfg)
		require.NoError(t, err)
		assert.Equal(t, []string{"No deps.json found"}, report.PotentialIssues)
	})
}

func TestHasRangePrefix(t *testing.T) {
	tests := []struct {
		version string
		want    bool
	}{
		{"^1.0.0", true},
		{"~1.0.0", true},
		{">=2", true},
		{"<3", true},
		{"*", true},
		{"1.0.0", false},
		{"latest", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			assert.Equal(t, tt.want, hasRangePrefix(tt.version))
		})
	}
}
