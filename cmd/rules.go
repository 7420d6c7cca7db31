package cmd

import (
	"github.com/huangsam/codeaudit/core"
	"github.com/huangsam/codeaudit/internal/contract"
	"github.com/spf13/cobra"
)

// rulesCmd prints the active rule catalog.
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the active detection rules",
	Long: `Print the rule catalog used by the quality, security and features passes.

The built-in catalog is used unless --rules-file points at a YAML catalog.

Examples:
  # Built-in rules as a table
  codeaudit rules --output text

  # Custom catalog as JSON
  codeaudit rules --rules-file ./audit-rules.yaml --output json --output-file -`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteRules(rootCtx, cfg, historyManager); err != nil {
			contract.LogFatal("Failed to list rules", err)
		}
	},
}
