package main

import (
	"os"

	"github.com/aretw0/furrow/internal/cli"
	"github.com/aretw0/furrow/internal/logging"
	"github.com/aretw0/furrow/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve exploration and reports over the Model Context Protocol (stdio)",
	Long: `Starts an MCP server on stdin/stdout exposing the explore, validate_graph,
list_reports and get_report tools. Reports go to the store selected by --config.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		backend, err := cli.OpenBackend(cmd.Context(), c.Store)
		if err != nil {
			return err
		}
		defer backend.Close()

		// Stdout carries the protocol, so logs go to stderr as JSON.
		logger := logging.NewJSON(os.Stderr, logging.ParseLevel(c.Log.Level))
		return mcp.NewServer(backend.Store, mcp.WithLogger(logger)).ServeStdio()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
