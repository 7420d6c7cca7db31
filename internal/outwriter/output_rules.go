package outwriter

import (
	"fmt"
	"io"
	"strings"

	"github.com/huangsam/codeaudit/internal/contract"
	"github.com/huangsam/codeaudit/internal/rules"
	"github.com/huangsam/codeaudit/schema"
	"github.com/olekukonko/tablewriter"
)

// rulesDocument is the structured form of a catalog listing.
type rulesDocument struct {
	Version string       `json:"version" yaml:"version"`
	Rules   []rules.Info `json:"rules" yaml:"rules"`
}

// PrintRules lists every rule of the catalog. Structured formats emit the
// catalog document; everything else renders a table.
func PrintRules(catalog *rules.Catalog, cfg *contract.Config) error {
	if catalog == nil {
		catalog = rules.Default()
	}
	doc := rulesDocument{Version: catalog.Version()}
	for _, r := range catalog.Rules() {
		doc.Rules = append(doc.Rules, r.Info())
	}

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, doc)
		}, "Wrote JSON")
	case schema.YAMLOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeYAML(w, doc)
		}, "Wrote YAML")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRulesTable(w, doc, cfg)
		}, "Wrote rules")
	}
}

// writeRulesTable renders the catalog as a table.
func writeRulesTable(w io.Writer, doc rulesDocument, cfg *contract.Config) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"ID", "Category", "Severity", "Extensions", "Description"})

	var data [][]string
	for _, info := range doc.Rules {
		severity := "-"
		if info.Severity != "" {
			severity = contract.GetSeverityLabel(schema.Severity(info.Severity), cfg.UseColors)
		}
		exts := "*"
		if len(info.Extensions) > 0 {
			exts = strings.Join(info.Extensions, " ")
		}
		data = append(data, []string{info.ID, string(info.Category), severity, exts, info.Description})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Rule catalog %s: %d rules\n", doc.Version, len(doc.Rules))
	return err
}
