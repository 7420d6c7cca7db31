package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the rendered report.
	OutputMode string

	// DatabaseBackend represents the database backend for run history.
	DatabaseBackend string

	// Severity represents the tier of a security finding.
	Severity string

	// PassName identifies one analysis pass of an audit.
	PassName string

	// FeatureStatus represents how much evidence a feature has in the tree.
	FeatureStatus string

	// ScoreCategory names one field of the scorecard.
	ScoreCategory string
)

// All output modes supported.
const (
	MarkdownOut OutputMode = "markdown" // default
	TextOut     OutputMode = "text"
	JSONOut     OutputMode = "json"
	YAMLOut     OutputMode = "yaml"
	CSVOut      OutputMode = "csv"
	SARIFOut    OutputMode = "sarif"
)

// All history backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite"
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none" // default
)

// All severities, most severe first.
const (
	CriticalSeverity Severity = "critical"
	HighSeverity     Severity = "high"
	MediumSeverity   Severity = "medium"
	LowSeverity      Severity = "low"
)

// All analysis passes.
const (
	StructurePass    PassName = "structure"
	QualityPass      PassName = "quality"
	DependenciesPass PassName = "dependencies"
	DatabasePass     PassName = "database"
	FeaturesPass     PassName = "features"
	SecurityPass     PassName = "security"
)

// All feature statuses.
const (
	ExistingStatus FeatureStatus = "existing"
	PartialStatus  FeatureStatus = "partial"
	MissingStatus  FeatureStatus = "missing"
)

// All scorecard categories.
const (
	CodeQualityScore         ScoreCategory = "code_quality"
	SecurityScore            ScoreCategory = "security"
	FeatureCompletenessScore ScoreCategory = "feature_completeness"
	DatabaseScore            ScoreCategory = "database"
	OverallScore             ScoreCategory = "overall"
)

// AllSeverities lists severities in tier order.
var AllSeverities = []Severity{CriticalSeverity, HighSeverity, MediumSeverity, LowSeverity}

// AllPasses lists passes in the order they appear in a report.
var AllPasses = []PassName{StructurePass, QualityPass, DependenciesPass, DatabasePass, FeaturesPass, SecurityPass}

// AllScoreCategories lists scorecard fields in display order.
var AllScoreCategories = []ScoreCategory{CodeQualityScore, SecurityScore, FeatureCompletenessScore, DatabaseScore, OverallScore}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	MarkdownOut: {},
	TextOut:     {},
	JSONOut:     {},
	YAMLOut:     {},
	CSVOut:      {},
	SARIFOut:    {},
}

// ValidDatabaseBackends lists all valid history backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidSeverities lists all valid severities.
var ValidSeverities = map[Severity]struct{}{
	CriticalSeverity: {},
	HighSeverity:     {},
	MediumSeverity:   {},
	LowSeverity:      {},
}

// ValidPasses lists all valid pass names.
var ValidPasses = map[PassName]struct{}{
	StructurePass:    {},
	QualityPass:      {},
	DependenciesPass: {},
	DatabasePass:     {},
	FeaturesPass:     {},
	SecurityPass:     {},
}

// ValidScoreCategories lists all valid scorecard categories.
var ValidScoreCategories = map[ScoreCategory]struct{}{
	CodeQualityScore:         {},
	SecurityScore:            {},
	FeatureCompletenessScore: {},
	DatabaseScore:            {},
	OverallScore:             {},
}

// FileExtension returns the conventional file extension for the output mode.
func (m OutputMode) FileExtension() string {
	switch m {
	case MarkdownOut:
		return ".md"
	case TextOut:
		return ".txt"
	case YAMLOut:
		return ".yaml"
	case SARIFOut:
		return ".sarif"
	default:
		return "." + string(m)
	}
}

// Rank returns the position of the severity in tier order (0 = critical).
// Unknown severities sort last.
func (s Severity) Rank() int {
	for i, sev := range AllSeverities {
		if sev == s {
			return i
		}
	}
	return len(AllSeverities)
}
