package schema

// CheckResult holds the results of a quality gate check.
type CheckResult struct {
	Passed           bool
	RootPath         string
	Scores           ScoreCard
	Thresholds       map[ScoreCategory]float64
	Violations       []CheckViolation
	CriticalFindings int
	MaxCritical      int // -1 disables the critical findings gate
	FilesAnalyzed    int
	ScannedFiles     int
}

// CheckViolation represents a scorecard field below its threshold.
type CheckViolation struct {
	Category  ScoreCategory
	Score     float64
	Threshold float64
}
