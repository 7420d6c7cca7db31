package core

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/huangsam/codeaudit/internal/contract"
	"github.com/huangsam/codeaudit/schema"
)

// Migration statement patterns. All are case-insensitive.
var (
	tablePattern     = regexp.MustCompile(`(?i)CREATE\s+TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?(?:public\.)?(\w+)`)
	alterPattern     = regexp.MustCompile(`(?i)ALTER\s+TABLE\s+(?:ONLY\s+)?(?:IF\s+EXISTS\s+)?(?:public\.)?(\w+)`)
	foreignKeyRegex  = regexp.MustCompile(`(?i)REFERENCES\s+(?:public\.)?(\w+)\s*\((\w+)\)`)
	indexPattern     = regexp.MustCompile(`(?i)CREATE\s+(?:UNIQUE\s+)?INDEX\s+(?:IF\s+NOT\s+EXISTS\s+)?(\w+)`)
	policyPattern    = regexp.MustCompile(`(?i)CREATE\s+POLICY\s+"?(\w+)"?`)
	functionPattern  = regexp.MustCompile(`(?i)CREATE\s+(?:OR\s+REPLACE\s+)?FUNCTION\s+(?:public\.)?(\w+)`)
	triggerPattern   = regexp.MustCompile(`(?i)CREATE\s+(?:OR\s+REPLACE\s+)?TRIGGER\s+(\w+)`)
	rlsEnablePattern = regexp.MustCompile(`(?i)ALTER\s+TABLE\s+(?:public\.)?(\w+)\s+ENABLE\s+ROW\s+LEVEL\s+SECURITY`)
)

// constraintKeywords start table-level clauses that do not declare a column.
var constraintKeywords = []string{"CONSTRAINT", "PRIMARY", "FOREIGN", "UNIQUE", "CHECK", "EXCLUDE", "LIKE"}

// Limits for issue text.
const maxUnprotectedTablesListed = 5

// analyzeDatabase extracts the schema declared by the migration scripts.
func analyzeDatabase(cfg *contract.Config) schema.DatabaseReport {
	dir := resolvePath(cfg.RootPath, cfg.MigrationsDir)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		report := ExtractSchema("")
		report.Issues = []string{fmt.Sprintf("No migrations directory found at %s", cfg.MigrationsDir)}
		report.Recommendations = []string{}
		return report
	}

	files, _ := filepath.Glob(filepath.Join(dir, "*.sql"))
	slices.Sort(files)

	var sb strings.Builder
	var readIssues []string
	migrationFiles := make([]string, 0, len(files))
	for _, path := range files {
		name := filepath.Base(path)
		migrationFiles = append(migrationFiles, name)
		data, err := os.ReadFile(path)
		if err != nil {
			readIssues = append(readIssues, fmt.Sprintf("Could not read %s: %v", name, err))
			continue
		}
		sb.WriteString("\n-- File: ")
		sb.WriteString(name)
		sb.WriteString("\n")
		sb.WriteString(strings.ToValidUTF8(string(data), ""))
	}

	report := ExtractSchema(sb.String())
	report.MigrationFiles = migrationFiles
	report.Issues = append(readIssues, report.Issues...)
	return report
}

// ExtractSchema derives tables, relationships and access-control facts from SQL text.
// The returned issues and recommendations depend only on the text.
func ExtractSchema(sql string) schema.DatabaseReport {
	report := schema.DatabaseReport{
		MigrationFiles:       []string{},
		Tables:               captureSet(tablePattern, sql),
		Columns:              extractColumns(sql),
		Indexes:              captureSet(indexPattern, sql),
		Policies:             captureSet(policyPattern, sql),
		Functions:            captureSet(functionPattern, sql),
		Triggers:             captureSet(triggerPattern, sql),
		AccessControlEnabled: captureSet(rlsEnablePattern, sql),
		Issues:               []string{},
		Recommendations:      []string{},
	}
	report.Relationships = extractRelationships(sql)

	declared := make(map[string]struct{}, len(report.Tables))
	for _, t := range report.Tables {
		declared[t] = struct{}{}
	}
	enabled := make(map[string]struct{}, len(report.AccessControlEnabled))
	for _, t := range report.AccessControlEnabled {
		enabled[t] = struct{}{}
	}

	report.TablesWithoutAccessControl = []string{}
	for _, t := range report.Tables {
		if _, ok := enabled[t]; !ok {
			report.TablesWithoutAccessControl = append(report.TablesWithoutAccessControl, t)
		}
	}

	dangling := map[string]struct{}{}
	report.ReferencedBy = map[string][]string{}
	for _, rel := range report.Relationships {
		if _, ok := declared[rel.TargetTable]; !ok {
			dangling[rel.TargetTable] = struct{}{}
		}
		if rel.SourceTable != "" && !slices.Contains(report.ReferencedBy[rel.TargetTable], rel.SourceTable) {
			report.ReferencedBy[rel.TargetTable] = append(report.ReferencedBy[rel.TargetTable], rel.SourceTable)
		}
	}
	for _, children := range report.ReferencedBy {
		slices.Sort(children)
	}
	report.DanglingReferences = schema.SortedKeys(dangling)

	if len(report.Indexes) < len(report.Tables) {
		report.Recommendations = append(report.Recommendations, "Consider adding more indexes for frequently queried columns")
	}
	if len(report.Policies) < 2*len(report.Tables) {
		report.Recommendations = append(report.Recommendations, "Some tables may need additional RLS policies for security")
	}
	if n := len(report.TablesWithoutAccessControl); n > 0 {
		listed := report.TablesWithoutAccessControl[:min(n, maxUnprotectedTablesListed)]
		report.Issues = append(report.Issues, "Tables without RLS: "+strings.Join(listed, ", "))
	}

	return report
}

// captureSet returns the sorted distinct first capture group of every match.
func captureSet(re *regexp.Regexp, text string) []string {
	seen := map[string]struct{}{}
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		seen[m[1]] = struct{}{}
	}
	return schema.SortedKeys(seen)
}

// tableAnchor is the position of a statement that names a table.
type tableAnchor struct {
	offset int
	table  string
}

// extractRelationships attributes each foreign key to the closest preceding
// CREATE TABLE or ALTER TABLE statement.
func extractRelationships(sql string) []schema.Relationship {
	var anchors []tableAnchor
	for _, re := range []*regexp.Regexp{tablePattern, alterPattern} {
		for _, loc := range re.FindAllStringSubmatchIndex(sql, -1) {
			anchors = append(anchors, tableAnchor{offset: loc[0], table: sql[loc[2]:loc[3]]})
		}
	}
	slices.SortFunc(anchors, func(a, b tableAnchor) int { return cmp.Compare(a.offset, b.offset) })

	seen := map[schema.Relationship]struct{}{}
	relationships := []schema.Relationship{}
	for _, loc := range foreignKeyRegex.FindAllStringSubmatchIndex(sql, -1) {
		rel := schema.Relationship{
			TargetTable:  sql[loc[2]:loc[3]],
			TargetColumn: sql[loc[4]:loc[5]],
		}
		idx, found := slices.BinarySearchFunc(anchors, loc[0], func(a tableAnchor, off int) int {
			return cmp.Compare(a.offset, off)
		})
		if !found {
			idx--
		}
		if idx >= 0 && idx < len(anchors) {
			rel.SourceTable = anchors[idx].table
		}
		if _, dup := seen[rel]; dup {
			continue
		}
		seen[rel] = struct{}{}
		relationships = append(relationships, rel)
	}

	slices.SortFunc(relationships, func(a, b schema.Relationship) int {
		return cmp.Or(
			cmp.Compare(a.SourceTable, b.SourceTable),
			cmp.Compare(a.TargetTable, b.TargetTable),
			cmp.Compare(a.TargetColumn, b.TargetColumn),
		)
	})
	return relationships
}

// extractColumns reads column names from every CREATE TABLE body.
// Later declarations of the same table add columns not yet seen.
func extractColumns(sql string) map[string][]string {
	columns := map[string][]string{}
	for _, loc := range tablePattern.FindAllStringSubmatchIndex(sql, -1) {
		table := sql[loc[2]:loc[3]]
		body, ok := parenBody(sql, loc[1])
		if !ok {
			continue
		}
		for _, def := range splitTopLevel(body) {
			name := columnName(def)
			if name != "" && !slices.Contains(columns[table], name) {
				columns[table] = append(columns[table], name)
			}
		}
	}
	return columns
}

// parenBody returns the text between the first '(' at or after start and its match.
// Quoted strings and line comments are skipped while balancing.
func parenBody(sql string, start int) (string, bool) {
	open := strings.IndexByte(sql[start:], '(')
	if open < 0 {
		return "", false
	}
	// Only whitespace may separate the table name from its body
	if strings.TrimSpace(sql[start:start+open]) != "" {
		return "", false
	}
	begin := start + open + 1
	depth := 1
	for i := begin; i < len(sql); i++ {
		switch sql[i] {
		case '\'':
			end := strings.IndexByte(sql[i+1:], '\'')
			if end < 0 {
				return "", false
			}
			i += end + 1
		case '-':
			if i+1 < len(sql) && sql[i+1] == '-' {
				nl := strings.IndexByte(sql[i:], '\n')
				if nl < 0 {
					return "", false
				}
				i += nl
			}
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return sql[begin:i], true
			}
		}
	}
	return "", false
}

// splitTopLevel splits a table body on commas outside parentheses and strings.
// Line comments are dropped.
func splitTopLevel(body string) []string {
	var parts []string
	var sb strings.Builder
	depth := 0
	inString := false
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case inString:
			if c == '\'' {
				inString = false
			}
		case c == '\'':
			inString = true
		case c == '-' && i+1 < len(body) && body[i+1] == '-':
			nl := strings.IndexByte(body[i:], '\n')
			if nl < 0 {
				i = len(body)
				continue
			}
			i += nl - 1
			continue
		case c == '(':
			depth++
		case c == ')':
			depth--
		case c == ',' && depth == 0:
			parts = append(parts, sb.String())
			sb.Reset()
			continue
		}
		sb.WriteByte(c)
	}
	if strings.TrimSpace(sb.String()) != "" {
		parts = append(parts, sb.String())
	}
	return parts
}

// columnName returns the declared column of a definition, or "" for constraints.
func columnName(def string) string {
	fields := strings.Fields(def)
	if len(fields) == 0 {
		return ""
	}
	first := strings.ToUpper(fields[0])
	if slices.Contains(constraintKeywords, first) {
		return ""
	}
	return strings.Trim(fields[0], `"`)
}
