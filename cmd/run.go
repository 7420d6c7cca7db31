package cmd

import (
	"github.com/huangsam/codeaudit/core"
	"github.com/huangsam/codeaudit/internal/contract"
	"github.com/spf13/cobra"
)

// runCmd runs the full audit and writes the report.
var runCmd = &cobra.Command{
	Use:   "run [repo-path]",
	Short: "Audit a project tree and write a scored report",
	Long: `Run the audit passes over a project tree and write the report.

Passes (in order):
- structure     - file counts, line counts, frameworks
- quality       - per-file quality scores from rule matches
- dependencies  - manifest dependencies and pinning
- database      - tables, relationships and RLS from SQL migrations
- features      - expected features found in the source
- security      - secret, injection and unsafe-API findings

Each pass is isolated: a failing pass is recorded and the others still run.
The report is written to artifacts/audit/audit_report.<ext> under the root
unless --output-file says otherwise.

Examples:
  # Audit the current directory
  codeaudit run

  # Only security and quality, as JSON on stdout
  codeaudit run ./webapp --passes security,quality --output json --output-file -

  # Record the run in a local history database
  codeaudit run --history-backend sqlite`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteAudit(rootCtx, cfg, historyManager); err != nil {
			contract.LogFatal("Audit failed", err)
		}
	},
}
