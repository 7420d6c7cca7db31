package cmd

import (
	"os/signal"
	"syscall"

	"github.com/huangsam/codeaudit/core"
	"github.com/huangsam/codeaudit/internal/contract"
	"github.com/spf13/cobra"
)

// watchCmd re-runs the audit whenever a watched file changes.
var watchCmd = &cobra.Command{
	Use:   "watch [repo-path]",
	Short: "Re-run the audit on file changes",
	Long: `Watch the project tree and re-run the audit after each burst of changes.

Ignored directories are not watched. Stop with Ctrl+C.

Examples:
  # Watch the current directory, printing markdown to stdout
  codeaudit watch --output-file -

  # Only the security pass while editing
  codeaudit watch ./webapp --passes security`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		ctx, stop := signal.NotifyContext(rootCtx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		if err := core.ExecuteWatch(ctx, cfg, historyManager); err != nil {
			contract.LogFatal("Watch failed", err)
		}
	},
}
