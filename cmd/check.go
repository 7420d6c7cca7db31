package cmd

import (
	"github.com/huangsam/codeaudit/core"
	"github.com/huangsam/codeaudit/internal/contract"
	"github.com/spf13/cobra"
)

// checkCmd focused on CI/CD policy enforcement.
var checkCmd = &cobra.Command{
	Use:   "check [repo-path]",
	Short: "Enforce score thresholds for CI/CD pipelines (fails build on violations)",
	Long: `Run the audit and enforce minimum scores plus a critical findings limit.

Designed for CI/CD integration - exits non-zero when any scorecard field falls
below its threshold or when critical security findings exceed --max-critical.

Default thresholds: code_quality 5, security 5, overall 6 (others disabled)
Default max critical findings: 0

Thresholds may also be set in .codeaudit.yaml:

  thresholds:
    overall: 7
    security: 6

Examples:
  # Gate a pull request with defaults
  codeaudit check

  # Custom thresholds
  codeaudit check --thresholds-override "overall:7,security:6,database:4"

  # Allow up to two critical findings
  codeaudit check --max-critical 2`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		// Validation is done in ExecuteCheck
		if err := core.ExecuteCheck(rootCtx, cfg, historyManager); err != nil {
			contract.LogFatal("Policy check failed", err)
		}
	},
}
