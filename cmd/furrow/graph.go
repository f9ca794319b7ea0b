package main

import (
	"github.com/aretw0/furrow/internal/cli"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph <graph.yaml>",
	Short: "Print a graph as a Mermaid flowchart",
	Long: `Renders the control-flow graph as Mermaid. With --explore the graph is first
explored in memory using --config and the covered blocks are highlighted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("strategy") {
			c.Strategy, _ = cmd.Flags().GetString("strategy")
		}
		explore, _ := cmd.Flags().GetBool("explore")
		return cli.Graph(cmd.Context(), cmd.OutOrStdout(), c, args[0], explore)
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().Bool("explore", false, "Explore the graph and highlight covered blocks")
	graphCmd.Flags().StringP("strategy", "s", "tree", "Search strategy used with --explore")
}
