package main

import (
	"github.com/aretw0/furrow/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <graph.yaml>...",
	Short: "Check graph descriptions for consistency",
	Long:  `Parses each graph and reports dangling edges, duplicate blocks and malformed call or return blocks.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, path := range args {
			if err := cli.Validate(cmd.OutOrStdout(), path); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
