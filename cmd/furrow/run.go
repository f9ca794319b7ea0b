package main

import (
	"github.com/aretw0/furrow/internal/cli"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <graph.yaml>",
	Short: "Explore a control-flow graph",
	Long: `Loads a graph description (YAML or JSON) and explores it with the selected
strategy until no live states remain, the guard trips, the step cap is hit or
the process is interrupted. Flags override values from --config.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		if flags.Changed("strategy") {
			c.Strategy, _ = flags.GetString("strategy")
		}
		if flags.Changed("seed") {
			c.Seed, _ = flags.GetInt64("seed")
		}
		if flags.Changed("max-steps") {
			c.MaxSteps, _ = flags.GetInt("max-steps")
		}
		if flags.Changed("timeout") {
			c.Timeout, _ = flags.GetDuration("timeout")
		}
		if flags.Changed("threshold") {
			c.Guard.Threshold, _ = flags.GetInt("threshold")
		}
		if flags.Changed("store") {
			c.Store.Driver, _ = flags.GetString("store")
		}
		if flags.Changed("store-path") {
			c.Store.Path, _ = flags.GetString("store-path")
		}
		if flags.Changed("redis") {
			c.Store.RedisAddr, _ = flags.GetString("redis")
		}
		if flags.Changed("metrics-addr") {
			c.Metrics.Addr, _ = flags.GetString("metrics-addr")
		}

		opts := cli.RunOptions{GraphPath: args[0], Out: cmd.OutOrStdout()}
		opts.SessionID, _ = flags.GetString("session")
		opts.Debug, _ = flags.GetBool("debug")
		opts.Quiet, _ = flags.GetBool("quiet")
		opts.Format, _ = flags.GetString("format")

		_, err = cli.Run(cmd.Context(), c, opts)
		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	f := runCmd.Flags()
	f.StringP("strategy", "s", "tree", "Search strategy: tree, coverage, loops or stochastic")
	f.Int64("seed", 42, "Seed of the strategy's random generator")
	f.Int("max-steps", 0, "Stop after this many epochs (0 = unlimited)")
	f.Duration("timeout", 0, "Raise the guard's timeout after this long (0 = never)")
	f.Int("threshold", 100, "Explosion guard threshold")
	f.String("store", "memory", "Report store: memory, file or redis")
	f.String("store-path", "", "Directory of the file store (default .furrow/reports)")
	f.String("redis", "", "Redis address for the redis store")
	f.String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :2112)")
	f.String("session", "", "Session ID (default: random)")
	f.String("format", "text", "Report format: text or json")
	f.Bool("debug", false, "Log every epoch")
	f.BoolP("quiet", "q", false, "Do not print the report")
}
