package schema

import (
	"cmp"
	"slices"
	"strings"
)

// Bucket returns the findings of one severity tier.
func (r *SecurityReport) Bucket(sev Severity) []Finding {
	switch sev {
	case CriticalSeverity:
		return r.Critical
	case HighSeverity:
		return r.High
	case MediumSeverity:
		return r.Medium
	case LowSeverity:
		return r.Low
	default:
		return nil
	}
}

// SetBucket replaces the findings of one severity tier.
func (r *SecurityReport) SetBucket(sev Severity, findings []Finding) {
	switch sev {
	case CriticalSeverity:
		r.Critical = findings
	case HighSeverity:
		r.High = findings
	case MediumSeverity:
		r.Medium = findings
	case LowSeverity:
		r.Low = findings
	}
}

// All returns every finding in tier order.
func (r *SecurityReport) All() []Finding {
	out := make([]Finding, 0, r.Count())
	for _, sev := range AllSeverities {
		out = append(out, r.Bucket(sev)...)
	}
	return out
}

// Count returns the number of findings across all tiers.
func (r *SecurityReport) Count() int {
	return len(r.Critical) + len(r.High) + len(r.Medium) + len(r.Low)
}

// AtOrAbove returns findings whose severity is at least min, in tier order.
func (r *SecurityReport) AtOrAbove(minSev Severity) []Finding {
	var out []Finding
	for _, sev := range AllSeverities {
		if sev.Rank() > minSev.Rank() {
			break
		}
		out = append(out, r.Bucket(sev)...)
	}
	return out
}

// Get returns the score for a category.
func (s ScoreCard) Get(cat ScoreCategory) float64 {
	switch cat {
	case CodeQualityScore:
		return s.CodeQuality
	case SecurityScore:
		return s.Security
	case FeatureCompletenessScore:
		return s.FeatureCompleteness
	case DatabaseScore:
		return s.Database
	default:
		return s.Overall
	}
}

// ParseList splits a comma-separated string into trimmed, non-empty parts.
func ParseList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// SortedKeys returns the keys of a string-keyed map in ascending order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// CompareFindings orders findings by file, then line, then rule order.
// ruleOrder maps a rule ID to its position in the catalog.
func CompareFindings(ruleOrder map[string]int) func(a, b Finding) int {
	return func(a, b Finding) int {
		return cmp.Or(
			cmp.Compare(a.File, b.File),
			cmp.Compare(a.Line, b.Line),
			cmp.Compare(ruleOrder[a.RuleID], ruleOrder[b.RuleID]),
		)
	}
}
