// Package rules holds the declarative pattern catalog shared by the scanners.
package rules

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/huangsam/codeaudit/schema"
)

// Version identifies the default catalog. It is recorded in every report.
const Version = "2024.1"

// Category groups rules by the pass that consumes them.
type Category string

// All rule categories.
const (
	SecurityCategory       Category = "security"
	DebugCategory          Category = "debug"
	TypeSafetyCategory     Category = "type-safety"
	MarkerCategory         Category = "marker"
	CommentCategory        Category = "comment"
	FeatureContentCategory Category = "feature-content"
)

// ValidCategories lists all valid rule categories.
var ValidCategories = map[Category]struct{}{
	SecurityCategory:       {},
	DebugCategory:          {},
	TypeSafetyCategory:     {},
	MarkerCategory:         {},
	CommentCategory:        {},
	FeatureContentCategory: {},
}

// ErrInvalidRule is returned when a rule fails validation.
var ErrInvalidRule = errors.New("invalid rule")

// Rule is one declarative pattern.
type Rule struct {
	ID          string
	Category    Category
	Severity    schema.Severity // only meaningful for security rules
	Description string
	Pattern     *regexp.Regexp
	Exclude     *regexp.Regexp // matches whose text also matches Exclude are dropped
	Extensions  []string       // lowercased with leading dot; empty means every extension
}

// AppliesTo reports whether the rule runs on files with the given extension.
func (r Rule) AppliesTo(ext string) bool {
	return len(r.Extensions) == 0 || slices.Contains(r.Extensions, strings.ToLower(ext))
}

// Suppressed reports whether a matched text is excluded by the rule.
func (r Rule) Suppressed(match string) bool {
	return r.Exclude != nil && r.Exclude.MatchString(match)
}

// Info is the serializable description of a rule.
type Info struct {
	ID          string   `json:"id" yaml:"id"`
	Category    Category `json:"category" yaml:"category"`
	Severity    string   `json:"severity,omitempty" yaml:"severity,omitempty"`
	Description string   `json:"description" yaml:"description"`
	Pattern     string   `json:"pattern" yaml:"pattern"`
	Exclude     string   `json:"exclude,omitempty" yaml:"exclude,omitempty"`
	Extensions  []string `json:"extensions,omitempty" yaml:"extensions,omitempty"`
}

// Info describes the rule. Severity is only set for security rules.
func (r Rule) Info() Info {
	info := Info{
		ID:          r.ID,
		Category:    r.Category,
		Description: r.Description,
		Pattern:     r.Pattern.String(),
		Extensions:  slices.Clone(r.Extensions),
	}
	if r.Category == SecurityCategory {
		info.Severity = string(r.Severity)
	}
	if r.Exclude != nil {
		info.Exclude = r.Exclude.String()
	}
	return info
}

// Suppression drops findings in matching files whose match contains a fragment.
type Suppression struct {
	PathFragment  string
	MatchFragment string
}

// Applies reports whether the suppression covers a match in the given file.
func (s Suppression) Applies(path, match string) bool {
	return strings.Contains(path, s.PathFragment) && strings.Contains(match, s.MatchFragment)
}

// DefaultSuppressions skips public build-time variables in environment files.
var DefaultSuppressions = []Suppression{
	{PathFragment: ".env", MatchFragment: "VITE_"},
}

// Catalog is an ordered, immutable set of rules.
type Catalog struct {
	version string
	rules   []Rule
	order   map[string]int
}

// New validates the rules and builds a catalog.
func New(version string, rules []Rule) (*Catalog, error) {
	c := &Catalog{
		version: version,
		rules:   make([]Rule, 0, len(rules)),
		order:   make(map[string]int, len(rules)),
	}
	for _, r := range rules {
		if err := c.add(r); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// add validates and appends a single rule.
func (c *Catalog) add(r Rule) error {
	if r.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidRule)
	}
	if _, dup := c.order[r.ID]; dup {
		return fmt.Errorf("%w: duplicate id %q", ErrInvalidRule, r.ID)
	}
	if _, ok := ValidCategories[r.Category]; !ok {
		return fmt.Errorf("%w: rule %q has unknown category %q", ErrInvalidRule, r.ID, r.Category)
	}
	if r.Category == SecurityCategory {
		if _, ok := schema.ValidSeverities[r.Severity]; !ok {
			return fmt.Errorf("%w: rule %q has unknown severity %q", ErrInvalidRule, r.ID, r.Severity)
		}
	}
	if r.Pattern == nil {
		return fmt.Errorf("%w: rule %q has no pattern", ErrInvalidRule, r.ID)
	}
	c.order[r.ID] = len(c.rules)
	c.rules = append(c.rules, r)
	return nil
}

// Extend returns a new catalog with extra rules appended after the existing ones.
func (c *Catalog) Extend(version string, extra ...Rule) (*Catalog, error) {
	return New(version, append(slices.Clone(c.rules), extra...))
}

// Version returns the catalog version.
func (c *Catalog) Version() string {
	return c.version
}

// Rules returns a copy of every rule in catalog order.
func (c *Catalog) Rules() []Rule {
	return slices.Clone(c.rules)
}

// Get looks up a rule by ID.
func (c *Catalog) Get(id string) (Rule, bool) {
	idx, ok := c.order[id]
	if !ok {
		return Rule{}, false
	}
	return c.rules[idx], true
}

// Order maps each rule ID to its catalog position.
func (c *Catalog) Order() map[string]int {
	return c.order
}

// ForCategory returns the rules of one category in catalog order.
func (c *Catalog) ForCategory(cat Category) []Rule {
	var out []Rule
	for _, r := range c.rules {
		if r.Category == cat {
			out = append(out, r)
		}
	}
	return out
}

// ForExtension returns the rules of one category that apply to the extension.
func (c *Catalog) ForExtension(cat Category, ext string) []Rule {
	var out []Rule
	for _, r := range c.rules {
		if r.Category == cat && r.AppliesTo(ext) {
			out = append(out, r)
		}
	}
	return out
}

// SecurityTier returns the security rules of one severity in catalog order.
func (c *Catalog) SecurityTier(sev schema.Severity) []Rule {
	var out []Rule
	for _, r := range c.rules {
		if r.Category == SecurityCategory && r.Severity == sev {
			out = append(out, r)
		}
	}
	return out
}
