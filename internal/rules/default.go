package rules

import (
	"regexp"

	"github.com/huangsam/codeaudit/schema"
)

var (
	scriptExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".py"}
	typedExtensions  = []string{".ts", ".tsx"}
	routeExtensions  = []string{".ts", ".tsx", ".js"}
)

func security(id string, sev schema.Severity, pattern, desc string) Rule {
	return Rule{
		ID:          id,
		Category:    SecurityCategory,
		Severity:    sev,
		Description: desc,
		Pattern:     regexp.MustCompile(`(?i)` + pattern),
	}
}

func detector(id string, cat Category, pattern, desc string, exts []string) Rule {
	return Rule{
		ID:          id,
		Category:    cat,
		Description: desc,
		Pattern:     regexp.MustCompile(pattern),
		Extensions:  exts,
	}
}

// defaultRules is the built-in rule table in evaluation order.
func defaultRules() []Rule {
	httpRule := security("insecure-http-url", schema.MediumSeverity, `http://[^\s"'<>)]*`, "Non-HTTPS URL (except localhost)")
	httpRule.Exclude = regexp.MustCompile(`(?i)^http://(localhost|127\.0\.0\.1)(:\d+)?([/?#]|$)`)

	return []Rule{
		security("hardcoded-password", schema.CriticalSeverity, `(password|passwd|pwd)\s*[=:]\s*["'][^"']+["']`, "Hardcoded password"),
		security("hardcoded-api-key", schema.CriticalSeverity, `(api[_-]?key|apikey)\s*[=:]\s*["'][^"']{10,}["']`, "Hardcoded API key"),
		security("hardcoded-secret", schema.CriticalSeverity, `(secret[_-]?key|secretkey)\s*[=:]\s*["'][^"']+["']`, "Hardcoded secret"),
		security("hardcoded-private-key", schema.CriticalSeverity, `(private[_-]?key|privatekey)\s*[=:]\s*["']-----BEGIN`, "Hardcoded private key"),

		security("eval-usage", schema.HighSeverity, `eval\s*\(`, "Use of eval() - potential code injection"),
		security("inner-html-assignment", schema.HighSeverity, `innerHTML\s*=`, "Direct innerHTML assignment - XSS risk"),
		security("dangerously-set-inner-html", schema.HighSeverity, `dangerouslySetInnerHTML`, "dangerouslySetInnerHTML usage - XSS risk"),
		security("document-write", schema.HighSeverity, `document\.write\s*\(`, "document.write usage - XSS risk"),
		security("dynamic-exec", schema.HighSeverity, `exec\s*\(.*\+`, "Dynamic command execution"),

		httpRule,
		security("local-storage-password", schema.MediumSeverity, `localStorage\.setItem\s*\([^,]+,\s*[^)]*password`, "Storing sensitive data in localStorage"),
		security("session-storage-password", schema.MediumSeverity, `sessionStorage\.setItem\s*\([^,]+,\s*[^)]*password`, "Storing sensitive data in sessionStorage"),
		security("sql-interpolation", schema.MediumSeverity, "\\.query\\s*\\(\\s*[`\"'].*\\$\\{", "Potential SQL injection (string interpolation in query)"),
		security("select-star", schema.MediumSeverity, `SELECT\s+\*\s+FROM`, "SELECT * usage - may expose sensitive columns"),

		security("console-statement", schema.LowSeverity, `console\.(log|warn|error)`, "Console statements in production code"),
		security("debugger-statement", schema.LowSeverity, `debugger;`, "Debugger statement found"),
		security("security-todo", schema.LowSeverity, `TODO.*security`, "Security-related TODO found"),
		security("auth-fixme", schema.LowSeverity, `FIXME.*auth`, "Authentication-related FIXME found"),

		detector("line-comment", CommentCategory, `//.*`, "Line comment", nil),
		detector("block-comment", CommentCategory, `/\*[\s\S]*?\*/`, "Block comment", nil),
		detector("hash-comment", CommentCategory, `#.*`, "Hash comment", nil),
		detector("double-docstring", CommentCategory, `"""[\s\S]*?"""`, "Triple double-quoted docstring", nil),
		detector("single-docstring", CommentCategory, `'''[\s\S]*?'''`, "Triple single-quoted docstring", nil),
		detector("todo-marker", MarkerCategory, `(?i)(TODO|FIXME|XXX|HACK)`, "TODO/FIXME marker", nil),
		detector("debug-statement", DebugCategory, `console\.(log|warn|error)|print\(`, "Debug output statement", scriptExtensions),
		detector("any-type", TypeSafetyCategory, `:\s*any\b`, "Untyped 'any' annotation", typedExtensions),
		detector("route-path", FeatureContentCategory, `path:\s*["']/?(\w+)`, "Route path literal", routeExtensions),
		detector("component-ref", FeatureContentCategory, `component\s*=\s*{(\w+)`, "Component reference", routeExtensions),
	}
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := New(Version, defaultRules())
	if err != nil {
		panic(err) // built-in table is static
	}
	return c
}
