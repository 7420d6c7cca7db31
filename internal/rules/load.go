package rules

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/huangsam/codeaudit/schema"
	"gopkg.in/yaml.v3"
)

// ruleFile is the on-disk layout of a custom rules file.
type ruleFile struct {
	Version string     `yaml:"version"`
	Rules   []ruleSpec `yaml:"rules"`
}

// ruleSpec is one rule as written in YAML.
type ruleSpec struct {
	ID              string   `yaml:"id"`
	Category        string   `yaml:"category"`
	Severity        string   `yaml:"severity"`
	Description     string   `yaml:"description"`
	Pattern         string   `yaml:"pattern"`
	Exclude         string   `yaml:"exclude"`
	Extensions      []string `yaml:"extensions"`
	CaseInsensitive bool     `yaml:"case_insensitive"`
}

// LoadFile reads custom rules from a YAML file.
// The returned version is empty when the file does not declare one.
func LoadFile(path string) (string, []Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read rules file %q: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes custom rules from YAML bytes.
func Parse(data []byte) (string, []Rule, error) {
	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return "", nil, fmt.Errorf("failed to parse rules: %w", err)
	}

	out := make([]Rule, 0, len(file.Rules))
	for i, spec := range file.Rules {
		r, err := spec.compile()
		if err != nil {
			return "", nil, fmt.Errorf("rule #%d: %w", i+1, err)
		}
		out = append(out, r)
	}
	return file.Version, out, nil
}

// compile converts a YAML spec into a Rule.
func (s ruleSpec) compile() (Rule, error) {
	if s.Pattern == "" {
		return Rule{}, fmt.Errorf("%w: rule %q has no pattern", ErrInvalidRule, s.ID)
	}
	flags := ""
	if s.CaseInsensitive || Category(strings.ToLower(s.Category)) == SecurityCategory {
		flags = "(?i)"
	}
	pattern, err := regexp.Compile(flags + s.Pattern)
	if err != nil {
		return Rule{}, fmt.Errorf("%w: rule %q has a bad pattern: %v", ErrInvalidRule, s.ID, err)
	}

	r := Rule{
		ID:          s.ID,
		Category:    Category(strings.ToLower(s.Category)),
		Severity:    schema.Severity(strings.ToLower(s.Severity)),
		Description: s.Description,
		Pattern:     pattern,
	}
	if s.Exclude != "" {
		if r.Exclude, err = regexp.Compile(s.Exclude); err != nil {
			return Rule{}, fmt.Errorf("%w: rule %q has a bad exclude: %v", ErrInvalidRule, s.ID, err)
		}
	}
	for _, ext := range s.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if ext != "" {
			r.Extensions = append(r.Extensions, ext)
		}
	}
	return r, nil
}

// LoadCatalog returns the default catalog, extended with the rules file when path is set.
func LoadCatalog(path string) (*Catalog, error) {
	base := Default()
	if path == "" {
		return base, nil
	}
	version, extra, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	if version == "" {
		version = base.Version() + "+custom"
	}
	return base.Extend(version, extra...)
}
