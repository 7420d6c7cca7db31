// Package schema has the models shared by every part of codeaudit.
package schema

import "time"

// FileRecord is one source file produced by the collector.
// Records are consumed once per pass and never retained by the report.
type FileRecord struct {
	RelativePath string // Slash-separated path relative to the audit root
	Extension    string // Lowercased extension including the dot, may be empty
	LineCount    int    // Number of newline-separated lines, 0 when Err is set
	Content      string // Decoded content with invalid UTF-8 dropped
	Err          error  // Read failure, if any
}

// Finding is one security rule match.
type Finding struct {
	Severity    Severity `json:"severity" yaml:"severity"`
	Category    string   `json:"category" yaml:"category"`
	RuleID      string   `json:"rule_id" yaml:"rule_id"`
	Description string   `json:"issue" yaml:"issue"`
	File        string   `json:"file" yaml:"file"`
	Line        int      `json:"line" yaml:"line"`
	Snippet     string   `json:"code" yaml:"code"`
}

// FileQualityRecord holds the heuristic quality score of a single file.
type FileQualityRecord struct {
	Path      string   `json:"file" yaml:"file"`
	Score     float64  `json:"score" yaml:"score"`
	LineCount int      `json:"lines" yaml:"lines"`
	Issues    []string `json:"issues" yaml:"issues"`
}

// QualityHistogram buckets file scores into four bands.
type QualityHistogram struct {
	Excellent        int `json:"excellent" yaml:"excellent"`                 // score >= 8
	Good             int `json:"good" yaml:"good"`                           // 6 <= score < 8
	NeedsImprovement int `json:"needs_improvement" yaml:"needs_improvement"` // 4 <= score < 6
	Poor             int `json:"poor" yaml:"poor"`                           // score < 4
}

// QualityReport is the result of the quality pass.
type QualityReport struct {
	FilesAnalyzed int                 `json:"files_analyzed" yaml:"files_analyzed"`
	TotalLines    int                 `json:"total_lines" yaml:"total_lines"`
	AverageScore  float64             `json:"average_score" yaml:"average_score"`
	Histogram     QualityHistogram    `json:"quality_distribution" yaml:"quality_distribution"`
	Files         []FileQualityRecord `json:"file_scores" yaml:"file_scores"`
}

// StructureReport is the result of the structure pass.
type StructureReport struct {
	TotalFiles           int            `json:"total_files" yaml:"total_files"`
	TotalDirectories     int            `json:"total_directories" yaml:"total_directories"`
	FilesByExtension     map[string]int `json:"file_types" yaml:"file_types"`
	Directories          []string       `json:"directories" yaml:"directories"`
	ArchitecturePatterns []string       `json:"architecture_patterns" yaml:"architecture_patterns"`
	Frameworks           []string       `json:"frameworks_detected" yaml:"frameworks_detected"`
}

// DependencyReport is the result of the dependency pass.
type DependencyReport struct {
	ManifestPath    string            `json:"manifest_path" yaml:"manifest_path"`
	Production      map[string]string `json:"production" yaml:"production"`
	Development     map[string]string `json:"development" yaml:"development"`
	TotalCount      int               `json:"total_count" yaml:"total_count"`
	PotentialIssues []string          `json:"potential_issues" yaml:"potential_issues"`
	VersionWarnings []string          `json:"version_warnings" yaml:"version_warnings"`
	Recommendations []string          `json:"recommendations" yaml:"recommendations"`
	Error           string            `json:"error,omitempty" yaml:"error,omitempty"`
}

// Relationship is one foreign-key edge found in migration scripts.
// SourceTable is empty when no enclosing table statement precedes the reference.
type Relationship struct {
	SourceTable  string `json:"from_table,omitempty" yaml:"from_table,omitempty"`
	TargetTable  string `json:"references_table" yaml:"references_table"`
	TargetColumn string `json:"references_column" yaml:"references_column"`
}

// DatabaseReport is the result of the schema pass.
type DatabaseReport struct {
	MigrationFiles             []string            `json:"migration_files" yaml:"migration_files"`
	Tables                     []string            `json:"tables" yaml:"tables"`
	Columns                    map[string][]string `json:"columns" yaml:"columns"`
	Relationships              []Relationship      `json:"relationships" yaml:"relationships"`
	Indexes                    []string            `json:"indexes" yaml:"indexes"`
	Policies                   []string            `json:"rls_policies" yaml:"rls_policies"`
	Functions                  []string            `json:"functions" yaml:"functions"`
	Triggers                   []string            `json:"triggers" yaml:"triggers"`
	AccessControlEnabled       []string            `json:"rls_enabled_tables" yaml:"rls_enabled_tables"`
	TablesWithoutAccessControl []string            `json:"tables_without_rls" yaml:"tables_without_rls"`
	DanglingReferences         []string            `json:"dangling_references" yaml:"dangling_references"`
	ReferencedBy               map[string][]string `json:"referenced_by" yaml:"referenced_by"` // parent table -> child tables
	Issues                     []string            `json:"issues" yaml:"issues"`
	Recommendations            []string            `json:"recommendations" yaml:"recommendations"`
}

// FeatureExpectation is an immutable catalog entry describing a feature.
type FeatureExpectation struct {
	Key         string   `json:"key" yaml:"key" mapstructure:"key"`
	Name        string   `json:"name" yaml:"name" mapstructure:"name"`
	Patterns    []string `json:"patterns" yaml:"patterns" mapstructure:"patterns"`
	Description string   `json:"description" yaml:"description" mapstructure:"description"`
}

// FeatureFinding is the classification of one catalog entry.
type FeatureFinding struct {
	Key         string        `json:"key" yaml:"key"`
	Name        string        `json:"name" yaml:"name"`
	Description string        `json:"description" yaml:"description"`
	Status      FeatureStatus `json:"status" yaml:"status"`
	Matched     []string      `json:"evidence,omitempty" yaml:"evidence,omitempty"`
	Missing     []string      `json:"missing,omitempty" yaml:"missing,omitempty"`
}

// FeatureReport is the result of the feature coverage pass.
type FeatureReport struct {
	Existing           []FeatureFinding `json:"existing" yaml:"existing"`
	Partial            []FeatureFinding `json:"partial" yaml:"partial"`
	Missing            []FeatureFinding `json:"missing" yaml:"missing"`
	CoveragePercentage float64          `json:"coverage_percentage" yaml:"coverage_percentage"`
	Warnings           []string         `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// SecurityReport is the result of the security pass. Buckets are disjoint.
type SecurityReport struct {
	Critical     []Finding `json:"critical" yaml:"critical"`
	High         []Finding `json:"high" yaml:"high"`
	Medium       []Finding `json:"medium" yaml:"medium"`
	Low          []Finding `json:"low" yaml:"low"`
	TotalIssues  int       `json:"total_issues" yaml:"total_issues"`
	ScannedFiles int       `json:"scanned_files" yaml:"scanned_files"`
}

// ScoreCard holds the category scores, each in [1, 10].
type ScoreCard struct {
	CodeQuality         float64 `json:"code_quality" yaml:"code_quality"`
	Security            float64 `json:"security" yaml:"security"`
	FeatureCompleteness float64 `json:"feature_completeness" yaml:"feature_completeness"`
	Database            float64 `json:"database" yaml:"database"`
	Overall             float64 `json:"overall" yaml:"overall"`
}

// Recommendations are prioritized follow-ups derived from the findings.
type Recommendations struct {
	Immediate []string `json:"immediate" yaml:"immediate"`
	ShortTerm []string `json:"short_term" yaml:"short_term"`
	LongTerm  []string `json:"long_term" yaml:"long_term"`
}

// Report is the root aggregate of one audit run.
// It is assembled once from the pass results and treated as read-only afterwards.
type Report struct {
	RootPath        string              `json:"project_path" yaml:"project_path"`
	GeneratedAt     time.Time           `json:"audit_date" yaml:"audit_date"`
	CatalogVersion  string              `json:"catalog_version" yaml:"catalog_version"`
	Passes          []PassName          `json:"passes" yaml:"passes"`
	Structure       StructureReport     `json:"structure" yaml:"structure"`
	Quality         QualityReport       `json:"code_quality" yaml:"code_quality"`
	Dependencies    DependencyReport    `json:"dependencies" yaml:"dependencies"`
	Database        DatabaseReport      `json:"database" yaml:"database"`
	Features        FeatureReport       `json:"features" yaml:"features"`
	Security        SecurityReport      `json:"security" yaml:"security"`
	Scores          ScoreCard           `json:"scores" yaml:"scores"`
	Recommendations Recommendations     `json:"recommendations" yaml:"recommendations"`
	PassErrors      map[PassName]string `json:"pass_errors,omitempty" yaml:"pass_errors,omitempty"`
	Warnings        []string            `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}
