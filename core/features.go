package core

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/huangsam/codeaudit/core/agg"
	"github.com/huangsam/codeaudit/internal/collector"
	"github.com/huangsam/codeaudit/internal/contract"
	"github.com/huangsam/codeaudit/internal/rules"
	"github.com/huangsam/codeaudit/schema"
)

// featureSourceExtensions are the files whose content contributes route and component keywords.
var featureSourceExtensions = []string{".ts", ".tsx", ".js"}

// existingThreshold is the fraction of patterns that must match for a feature to exist.
const existingThreshold = 0.5

// DefaultFeatureCatalog returns the built-in feature expectations keyed by feature key.
// Iteration order is the display order.
func DefaultFeatureCatalog() *orderedmap.OrderedMap[string, schema.FeatureExpectation] {
	m := orderedmap.NewOrderedMap[string, schema.FeatureExpectation]()
	for _, fe := range []schema.FeatureExpectation{
		{Key: "authentication", Name: "Authentication", Patterns: []string{"login", "auth", "signin", "signup", "logout"}, Description: "User authentication and authorization"},
		{Key: "pos", Name: "POS/Sales", Patterns: []string{"pos", "cart", "checkout", "payment", "sale"}, Description: "Point of sale functionality"},
		{Key: "inventory", Name: "Inventory Management", Patterns: []string{"inventory", "stock", "product", "warehouse"}, Description: "Product and stock management"},
		{Key: "orders", Name: "Order Management", Patterns: []string{"order", "orders"}, Description: "Order processing and tracking"},
		{Key: "kds", Name: "Kitchen Display System", Patterns: []string{"kds", "kitchen", "display"}, Description: "Kitchen order display"},
		{Key: "reporting", Name: "Reporting/Analytics", Patterns: []string{"report", "analytics", "dashboard", "chart"}, Description: "Business intelligence and reporting"},
		{Key: "users", Name: "User Management", Patterns: []string{"user", "staff", "employee", "role"}, Description: "User and role management"},
		{Key: "settings", Name: "Settings/Configuration", Patterns: []string{"setting", "config", "preference"}, Description: "System configuration"},
		{Key: "production", Name: "Production/Manufacturing", Patterns: []string{"production", "recipe", "manufacture"}, Description: "Production management"},
		{Key: "purchasing", Name: "Purchasing", Patterns: []string{"purchase", "supplier", "vendor"}, Description: "Purchase order management"},
		{Key: "customer-display", Name: "Customer Display", Patterns: []string{"customer", "display", "screen"}, Description: "Customer-facing display"},
		{Key: "b2b", Name: "B2B/Wholesale", Patterns: []string{"b2b", "wholesale", "bulk"}, Description: "Business-to-business sales"},
		{Key: "i18n", Name: "Internationalization", Patterns: []string{"i18n", "locale", "translation", "language"}, Description: "Multi-language support"},
		{Key: "printing", Name: "Printing", Patterns: []string{"print", "receipt", "ticket"}, Description: "Receipt and ticket printing"},
	} {
		m.Set(fe.Key, fe)
	}
	return m
}

// featureCatalog returns the configured catalog, or the built-in one.
func featureCatalog(cfg *contract.Config) *orderedmap.OrderedMap[string, schema.FeatureExpectation] {
	if len(cfg.FeatureCatalog) == 0 {
		return DefaultFeatureCatalog()
	}
	m := orderedmap.NewOrderedMap[string, schema.FeatureExpectation]()
	for _, fe := range cfg.FeatureCatalog {
		m.Set(fe.Key, fe)
	}
	return m
}

// selectFeatures narrows the catalog to the requested keys, in catalog order.
// Unknown keys are reported as warnings and otherwise ignored.
func selectFeatures(catalog *orderedmap.OrderedMap[string, schema.FeatureExpectation], keys []string) ([]schema.FeatureExpectation, []string) {
	var warnings []string
	wanted := map[string]struct{}{}
	for _, k := range keys {
		if _, ok := catalog.Get(k); !ok {
			warnings = append(warnings, fmt.Sprintf("unknown feature key %q skipped", k))
			continue
		}
		wanted[k] = struct{}{}
	}

	var selected []schema.FeatureExpectation
	for el := catalog.Front(); el != nil; el = el.Next() {
		if _, ok := wanted[el.Key]; len(keys) == 0 || ok {
			selected = append(selected, el.Value)
		}
	}
	return selected, warnings
}

// analyzeFeatures classifies each selected feature against the tree's keyword corpus.
func analyzeFeatures(ctx context.Context, cfg *contract.Config, fc *collector.FileCollector, catalog *rules.Catalog) (schema.FeatureReport, error) {
	selected, warnings := selectFeatures(featureCatalog(cfg), cfg.FeatureKeys)

	corpus, err := buildCorpus(ctx, cfg, fc, catalog)
	if err != nil {
		return schema.FeatureReport{}, err
	}

	report := classifyFeatures(selected, corpus)
	report.Warnings = warnings
	return report, nil
}

// buildCorpus collects lowercased path keywords and content-extracted identifiers.
func buildCorpus(ctx context.Context, cfg *contract.Config, fc *collector.FileCollector, catalog *rules.Catalog) ([]string, error) {
	entries := map[string]struct{}{}
	err := fc.Walk(ctx, func(e collector.Entry) error {
		name := strings.ToLower(e.Name)
		if e.IsDir {
			entries[strings.ToLower(e.RelativePath)] = struct{}{}
			if e.RelativePath != "." {
				entries[name] = struct{}{}
			}
			return nil
		}
		entries[name] = struct{}{}
		entries[strings.TrimSuffix(name, collector.ExtensionOf(name))] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, err
	}

	keywordSets := agg.FanOut(ctx, fc.Files(ctx, featureSourceExtensions), cfg.Workers, func(rec schema.FileRecord) []string {
		if rec.Err != nil {
			return nil
		}
		return contentKeywords(catalog.ForExtension(rules.FeatureContentCategory, rec.Extension), strings.ToLower(rec.Content))
	})
	for _, set := range keywordSets {
		for _, kw := range set {
			entries[kw] = struct{}{}
		}
	}

	return schema.SortedKeys(entries), nil
}

// contentKeywords returns the first capture group of every rule match.
func contentKeywords(rs []rules.Rule, content string) []string {
	var out []string
	for _, r := range rs {
		for _, m := range r.Pattern.FindAllStringSubmatch(content, -1) {
			if len(m) > 1 && m[1] != "" {
				out = append(out, m[1])
			}
		}
	}
	return out
}

// classifyFeatures buckets features by how many of their patterns occur in the corpus.
func classifyFeatures(features []schema.FeatureExpectation, corpus []string) schema.FeatureReport {
	report := schema.FeatureReport{
		Existing: []schema.FeatureFinding{},
		Partial:  []schema.FeatureFinding{},
		Missing:  []schema.FeatureFinding{},
	}

	var weight float64
	for _, fe := range features {
		finding := schema.FeatureFinding{Key: fe.Key, Name: fe.Name, Description: fe.Description}
		for _, p := range fe.Patterns {
			if slices.ContainsFunc(corpus, func(entry string) bool { return strings.Contains(entry, p) }) {
				finding.Matched = append(finding.Matched, p)
			}
		}

		switch matched := float64(len(finding.Matched)); {
		case len(finding.Matched) > 0 && matched >= existingThreshold*float64(len(fe.Patterns)):
			finding.Status = schema.ExistingStatus
			report.Existing = append(report.Existing, finding)
			weight++
		case len(finding.Matched) > 0:
			finding.Status = schema.PartialStatus
			for _, p := range fe.Patterns {
				if !slices.Contains(finding.Matched, p) {
					finding.Missing = append(finding.Missing, p)
				}
			}
			report.Partial = append(report.Partial, finding)
			weight += 0.5
		default:
			finding.Status = schema.MissingStatus
			report.Missing = append(report.Missing, finding)
		}
	}

	if len(features) > 0 {
		report.CoveragePercentage = agg.Round1(weight / float64(len(features)) * 100)
	}
	return report
}
