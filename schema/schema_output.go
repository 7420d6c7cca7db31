package schema

import (
	"cmp"
	"slices"
)

// Quality band labels.
const (
	ExcellentLabel        = "Excellent"
	GoodLabel             = "Good"
	NeedsImprovementLabel = "Needs Improvement"
	PoorLabel             = "Poor"
)

// RankedFileQuality adds presentation data to a FileQualityRecord.
type RankedFileQuality struct {
	Rank  int    `json:"rank" yaml:"rank"`
	Label string `json:"label" yaml:"label"`
	FileQualityRecord
}

// QualityLabel returns the histogram band of a file score.
func QualityLabel(score float64) string {
	switch {
	case score >= 8:
		return ExcellentLabel
	case score >= 6:
		return GoodLabel
	case score >= 4:
		return NeedsImprovementLabel
	default:
		return PoorLabel
	}
}

// WorstFiles returns up to limit files ordered by ascending score, ties broken by path.
// A non-positive limit returns every file.
func WorstFiles(files []FileQualityRecord, limit int) []RankedFileQuality {
	sorted := slices.Clone(files)
	slices.SortStableFunc(sorted, func(a, b FileQualityRecord) int {
		return cmp.Or(cmp.Compare(a.Score, b.Score), cmp.Compare(a.Path, b.Path))
	})
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	output := make([]RankedFileQuality, len(sorted))
	for i, f := range sorted {
		output[i] = RankedFileQuality{
			Rank:              i + 1,
			Label:             QualityLabel(f.Score),
			FileQualityRecord: f,
		}
	}
	return output
}
