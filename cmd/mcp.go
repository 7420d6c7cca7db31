package cmd

import (
	"github.com/huangsam/codeaudit/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the Codeaudit MCP server",
	Long:  `Launch an MCP server that allows AI agents to run audits via standard tools.`,
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		// Tools take repo_path per call; the shared config only supplies defaults.
		return sharedSetup(rootCtx, cmd, nil)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, historyManager)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
