package main

import (
	"fmt"

	"github.com/aretw0/furrow/internal/cli"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Manage persisted session reports",
	Long:  `List, show, and remove session reports kept by the configured store.`,
}

var reportLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List stored sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := openBackend(cmd)
		if err != nil {
			return err
		}
		defer backend.Close()

		ids, err := backend.Store.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("error listing reports: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(ids) == 0 {
			fmt.Fprintln(out, "No reports found.")
			return nil
		}
		for _, id := range ids {
			fmt.Fprintln(out, "- "+id)
		}
		return nil
	},
}

var reportShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Print a session report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := openBackend(cmd)
		if err != nil {
			return err
		}
		defer backend.Close()

		report, err := backend.Store.Load(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("error loading report '%s': %w", args[0], err)
		}
		format, _ := cmd.Flags().GetString("format")
		return cli.PrintReport(cmd.OutOrStdout(), report, format)
	},
}

var reportRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more reports",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := openBackend(cmd)
		if err != nil {
			return err
		}
		defer backend.Close()

		var failed int
		for _, id := range args {
			if err := backend.Store.Delete(cmd.Context(), id); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error removing '%s': %v\n", id, err)
				failed++
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed report '%s'\n", id)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d reports could not be removed", failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(reportLsCmd)
	reportCmd.AddCommand(reportShowCmd)
	reportCmd.AddCommand(reportRmCmd)

	reportCmd.PersistentFlags().String("store", "file", "Report store: file or redis")
	reportCmd.PersistentFlags().String("store-path", "", "Directory of the file store (default .furrow/reports)")
	reportCmd.PersistentFlags().String("redis", "", "Redis address for the redis store")
	reportShowCmd.Flags().String("format", "text", "Report format: text or json")
}

// openBackend resolves the store from --config, then the report flags.
func openBackend(cmd *cobra.Command) (*cli.Backend, error) {
	c, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("store") || c.Store.Driver == "memory" {
		// A memory store never outlives its run, so listing it is pointless.
		c.Store.Driver, _ = flags.GetString("store")
	}
	if flags.Changed("store-path") {
		c.Store.Path, _ = flags.GetString("store-path")
	}
	if flags.Changed("redis") {
		c.Store.RedisAddr, _ = flags.GetString("redis")
	}
	return cli.OpenBackend(cmd.Context(), c.Store)
}
