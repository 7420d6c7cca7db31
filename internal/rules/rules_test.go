package rules

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/huangsam/codeaudit/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// matches reports whether the rule fires on text, honoring its exclude pattern.
func matches(r Rule, text string) bool {
	for _, m := range r.Pattern.FindAllString(text, -1) {
		if !r.Suppressed(m) {
			return true
		}
	}
	return false
}

func TestDefaultCatalogRules(t *testing.T) {
	tests := []struct {
		id   string
		hit  string
		miss string
	}{
		{"hardcoded-password", `const password = "hunter2"`, `const password = getPassword()`},
		{"hardcoded-api-key", `API_KEY: "abcdef123456"`, `apiKey: "short"`},
		{"hardcoded-secret", `secret_key = 'x1'`, `secret = "x1"`},
		{"hardcoded-private-key", `privateKey = "-----BEGIN RSA`, `privateKey = loadKey()`},
		{"eval-usage", `eval (userInput)`, `evaluate(x)`},
		{"inner-html-assignment", `el.innerHTML = html`, `el.innerText = text`},
		{"dangerously-set-inner-html", `<div dangerouslySetInnerHTML={x} />`, `<div className="x" />`},
		{"document-write", `document.write("x")`, `document.writeln`},
		{"dynamic-exec", `exec("rm " + path)`, `exec("ls")`},
		{"insecure-http-url", `fetch("http://api.example.com/v1")`, `fetch("http://localhost:3000/api")`},
		{"local-storage-password", `localStorage.setItem("k", user.password)`, `localStorage.setItem("theme", dark)`},
		{"session-storage-password", `sessionStorage.setItem("k", password)`, `sessionStorage.getItem("password")`},
		{"sql-interpolation", "db.query(`SELECT id FROM t WHERE id = ${id}`)", `db.query("SELECT id FROM t WHERE id = $1", id)`},
		{"select-star", `select * from users`, `SELECT id FROM users`},
		{"console-statement", `console.warn("x")`, `console.table(rows)`},
		{"debugger-statement", `debugger;`, `const debugger_enabled = true`},
		{"security-todo", `// todo: review SECURITY of this`, `// TODO: refactor`},
		{"auth-fixme", `# FIXME broken oauth flow`, `# FIXME: typo`},
		{"line-comment", `x := 1 // note`, `x := 1`},
		{"block-comment", "/* a\n b */", "/ * not a comment"},
		{"hash-comment", `# heading`, `value = 1`},
		{"double-docstring", `"""doc"""`, `"quoted"`},
		{"single-docstring", `'''doc'''`, `'quoted'`},
		{"todo-marker", `// hack around it`, `// all good`},
		{"debug-statement", `print("x")`, `println("x")`},
		{"any-type", `let x: any = 1`, `let x: anything = 1`},
		{"route-path", `{ path: "/orders", element }`, `{ name: "orders" }`},
		{"component-ref", `component={kitchenview}`, `component="x"`},
	}

	c := Default()
	require.Len(t, c.Rules(), len(tests), "every catalog rule needs a hit and a miss")

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			r, ok := c.Get(tt.id)
			require.True(t, ok)
			assert.True(t, matches(r, tt.hit), "expected hit on %q", tt.hit)
			assert.False(t, matches(r, tt.miss), "expected miss on %q", tt.miss)
		})
	}
}

func TestInsecureHTTPLocalhostExclude(t *testing.T) {
	r, ok := Default().Get("insecure-http-url")
	require.True(t, ok)

	tests := []struct {
		text string
		hit  bool
	}{
		{`fetch("http://localhost")`, false},
		{`fetch("http://localhost:3000/api")`, false},
		{`fetch("HTTP://127.0.0.1:8080?x=1")`, false},
		{`fetch("http://127.0.0.1#top")`, false},
		{`fetch("http://localhost.attacker.com/api")`, true},
		{`fetch("http://api.example.com/login?next=localhost")`, true},
		{`fetch("http://127.0.0.1.nip.io/x")`, true},
		{`fetch("http://localhost:3000evil.com")`, true},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.hit, matches(r, tt.text))
		})
	}
}

func TestDefaultCatalogShape(t *testing.T) {
	c := Default()
	assert.Equal(t, Version, c.Version())

	assert.Len(t, c.SecurityTier(schema.CriticalSeverity), 4)
	assert.Len(t, c.SecurityTier(schema.HighSeverity), 5)
	assert.Len(t, c.SecurityTier(schema.MediumSeverity), 5)
	assert.Len(t, c.SecurityTier(schema.LowSeverity), 4)
	assert.Len(t, c.ForCategory(CommentCategory), 5)

	assert.Len(t, c.ForExtension(TypeSafetyCategory, ".ts"), 1)
	assert.Empty(t, c.ForExtension(TypeSafetyCategory, ".py"))
	assert.Len(t, c.ForExtension(DebugCategory, ".PY"), 1)
	assert.Empty(t, c.ForExtension(DebugCategory, ".go"))

	order := c.Order()
	assert.Less(t, order["hardcoded-password"], order["eval-usage"])
	assert.Less(t, order["eval-usage"], order["console-statement"])
}

func TestCatalogValidation(t *testing.T) {
	pat := regexp.MustCompile(`x`)
	tests := []struct {
		name  string
		rules []Rule
	}{
		{"empty id", []Rule{{Category: MarkerCategory, Pattern: pat}}},
		{"duplicate id", []Rule{{ID: "a", Category: MarkerCategory, Pattern: pat}, {ID: "a", Category: MarkerCategory, Pattern: pat}}},
		{"unknown category", []Rule{{ID: "a", Category: "style", Pattern: pat}}},
		{"security without severity", []Rule{{ID: "a", Category: SecurityCategory, Pattern: pat}}},
		{"missing pattern", []Rule{{ID: "a", Category: MarkerCategory}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New("v", tt.rules)
			assert.ErrorIs(t, err, ErrInvalidRule)
		})
	}
}

func TestParseAndExtend(t *testing.T) {
	data := []byte(`
version: team-1
rules:
  - id: py-logging-debug
    category: debug
    description: logging.debug call
    pattern: 'logging\.debug\('
    extensions: [py, .PYW]
  - id: go-unsafe
    category: security
    severity: HIGH
    description: unsafe package
    pattern: 'import\s+"unsafe"'
`)
	version, extra, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, "team-1", version)
	require.Len(t, extra, 2)
	assert.Equal(t, []string{".py", ".pyw"}, extra[0].Extensions)
	assert.Equal(t, schema.HighSeverity, extra[1].Severity)
	assert.True(t, extra[1].Pattern.MatchString(`IMPORT "unsafe"`), "security rules are case-insensitive")

	c, err := Default().Extend(version, extra...)
	require.NoError(t, err)
	assert.Len(t, c.Rules(), len(Default().Rules())+2)
	assert.Len(t, c.ForExtension(DebugCategory, ".py"), 2)
	assert.Len(t, c.SecurityTier(schema.HighSeverity), 6)

	_, err = Default().Extend("v", Rule{ID: "eval-usage", Category: MarkerCategory, Pattern: regexp.MustCompile(`x`)})
	assert.ErrorIs(t, err, ErrInvalidRule)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad yaml", "rules: [::"},
		{"empty pattern", "rules:\n  - id: a\n    category: marker\n"},
		{"bad regex", "rules:\n  - id: a\n    category: marker\n    pattern: '('\n"},
		{"bad exclude", "rules:\n  - id: a\n    category: marker\n    pattern: 'x'\n    exclude: '['\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLoadCatalog(t *testing.T) {
	c, err := LoadCatalog("")
	require.NoError(t, err)
	assert.Equal(t, Version, c.Version())

	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rules:\n  - id: fixme-only\n    category: marker\n    pattern: FIXME\n"), 0o644))
	c, err = LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, Version+"+custom", c.Version())
	_, ok := c.Get("fixme-only")
	assert.True(t, ok)

	_, err = LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSuppression(t *testing.T) {
	s := DefaultSuppressions[0]
	assert.True(t, s.Applies("app/.env.local", `VITE_API_KEY="abcdefghijk"`))
	assert.False(t, s.Applies("src/config.ts", `VITE_API_KEY="abcdefghijk"`))
	assert.False(t, s.Applies(".env", `API_KEY="abcdefghijk"`))
}

func TestRuleInfo(t *testing.T) {
	c := Default()

	http, ok := c.Get("insecure-http-url")
	require.True(t, ok)
	info := http.Info()
	assert.Equal(t, "insecure-http-url", info.ID)
	assert.Equal(t, SecurityCategory, info.Category)
	assert.Equal(t, "medium", info.Severity)
	assert.NotEmpty(t, info.Exclude)

	anyType, ok := c.Get("any-type")
	require.True(t, ok)
	info = anyType.Info()
	assert.Empty(t, info.Severity)
	assert.Empty(t, info.Exclude)
	assert.Equal(t, []string{".ts", ".tsx"}, info.Extensions)
}
