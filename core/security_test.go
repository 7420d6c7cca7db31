package core

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/huangsam/codeaudit/internal/rules"
	"github.com/huangsam/codeaudit/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanFileHardcodedPassword(t *testing.T) {
	scan := scanFile(rules.Default(), rules.DefaultSuppressions, record("src/config.ts", `const password = "abc123xyz"`))
	require.True(t, scan.read)
	require.Len(t, scan.findings, 1)

	f := scan.findings[0]
	assert.Equal(t, schema.CriticalSeverity, f.Severity)
	assert.Equal(t, "hardcoded-password", f.RuleID)
	assert.Equal(t, "Hardcoded password", f.Description)
	assert.Equal(t, 1, f.Line)
	assert.Equal(t, `const password = "abc123xyz"`, f.Snippet)
}

func TestScanFileSuppressions(t *testing.T) {
	tests := []struct {
		name    string
		rec     schema.FileRecord
		wantIDs []string
	}{
		{"localhost url", record("a.ts", `fetch("http://localhost:3000/api")`), nil},
		{"loopback url", record("a.ts", `fetch("http://127.0.0.1/api")`), nil},
		{"remote url", record("a.ts", `fetch("http://example.com/api")`), []string{"insecure-http-url"}},
		{"localhost as subdomain", record("a.ts", `fetch("http://localhost.attacker.com/api")`), []string{"insecure-http-url"}},
		{"localhost in query", record("a.ts", `fetch("http://api.example.com/login?next=localhost")`), []string{"insecure-http-url"}},
		{"loopback as subdomain", record("a.ts", `fetch("http://127.0.0.1.nip.io/x")`), []string{"insecure-http-url"}},
		{"public build variable in env file", record("app.env.ts", `password = "VITE_PASSWORD"`), nil},
		{"same variable elsewhere", record("app.ts", `password = "VITE_PASSWORD"`), []string{"hardcoded-password"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scan := scanFile(rules.Default(), rules.DefaultSuppressions, tt.rec)
			var ids []string
			for _, f := range scan.findings {
				ids = append(ids, f.RuleID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestScanFileLinesAndSnippets(t *testing.T) {
	long := "eval(" + strings.Repeat("x", 100) + ")"
	content := "// header\nconst a = 1\n" + long + "\ndebugger;"
	scan := scanFile(rules.Default(), nil, record("src/x.js", content))
	require.Len(t, scan.findings, 2)

	evalFinding := scan.findings[0]
	assert.Equal(t, "eval-usage", evalFinding.RuleID)
	assert.Equal(t, 3, evalFinding.Line)
	assert.Equal(t, []rune(long)[:80], []rune(evalFinding.Snippet))

	debugFinding := scan.findings[1]
	assert.Equal(t, "debugger-statement", debugFinding.RuleID)
	assert.Equal(t, 4, debugFinding.Line)
	assert.Equal(t, "debugger;", debugFinding.Snippet)
}

func TestScanFileUnreadable(t *testing.T) {
	scan := scanFile(rules.Default(), nil, schema.FileRecord{RelativePath: "a.ts", Err: errors.New("denied")})
	assert.False(t, scan.read)
	assert.Empty(t, scan.findings)
}

func TestScanSecurity(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/b.ts":                "console.log(1)\nconst password = 'hunter22'\n",
		"src/a.ts":                "el.innerHTML = html\nconsole.log(2)\n",
		"docs/setup.md":           "Visit http://example.com\n",
		"query.sql":               "SELECT * FROM users;\n",
		"config.env.example.json": `{"password": "changeme"}`,
		"image.png":               "password = 'binary'",
	})
	cfg := testConfig(root)

	report := scanSecurity(context.Background(), cfg, newCollector(t, cfg), rules.Default())

	assert.Equal(t, 4, report.ScannedFiles)
	assert.Equal(t, report.Count(), report.TotalIssues)
	assert.Equal(t, 6, report.TotalIssues)

	require.Len(t, report.Critical, 1)
	assert.Equal(t, "src/b.ts", report.Critical[0].File)
	require.Len(t, report.High, 1)
	assert.Equal(t, "inner-html-assignment", report.High[0].RuleID)
	require.Len(t, report.Medium, 2)
	assert.Equal(t, "docs/setup.md", report.Medium[0].File)
	assert.Equal(t, "query.sql", report.Medium[1].File)
	require.Len(t, report.Low, 2)
	assert.Equal(t, "src/a.ts", report.Low[0].File)
	assert.Equal(t, "src/b.ts", report.Low[1].File)

	// Every finding sits in the bucket of its own severity
	for _, sev := range schema.AllSeverities {
		for _, f := range report.Bucket(sev) {
			assert.Equal(t, sev, f.Severity)
		}
	}
}

func TestScanSecurityDeterministicAcrossWorkers(t *testing.T) {
	files := map[string]string{}
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		files["src/"+name+".ts"] = "console.log(1)\neval(x)\nconst apiKey = '0123456789abc'\n"
	}
	root := writeTree(t, files)

	var reports []schema.SecurityReport
	for _, workers := range []int{1, 7} {
		cfg := testConfig(root)
		cfg.Workers = workers
		reports = append(reports, scanSecurity(context.Background(), cfg, newCollector(t, cfg), rules.Default()))
	}
	assert.Equal(t, reports[0], reports[1])
}

func TestLineStarts(t *testing.T) {
	assert.Equal(t, []int{0}, lineStarts("abc"))
	assert.Equal(t, []int{0, 2, 3}, lineStarts("a\n\nb"))
}
