// Command agentsim runs an agent-based simulation described by a TOML
// world config against the reference token ledger.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hupe1980/agentsim"
	"github.com/hupe1980/agentsim/ledger"
	"github.com/hupe1980/agentsim/logging"
	"github.com/hupe1980/agentsim/world"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "agentsim",
		Short: "Agent-based simulation kernel",
		Long: `agentsim runs many independently-scripted agents against one
serialized deterministic execution engine and reports how the run ended.`,
	}

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format (text, json)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("agentsim version %s\n", version)
		},
	}
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <config.toml>",
		Short: "Run a world described by a TOML config",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("token-name")
			symbol, _ := cmd.Flags().GetString("token-symbol")

			logger, err := newLogger(cmd)
			if err != nil {
				return err
			}

			sim := agentsim.New(ledger.NewTokenLedger(name, symbol), func(o *agentsim.Options) {
				o.Logger = logger
			})

			if err := sim.BuildFromConfig(args[0]); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			report, err := sim.Run(ctx)
			if err != nil {
				return err
			}

			printReport(report)
			if report.Degraded {
				return fmt.Errorf("run %s degraded", report.RunID)
			}
			return nil
		},
	}

	cmd.Flags().String("token-name", "ArbiterToken", "Name of the reference token")
	cmd.Flags().String("token-symbol", "ARBT", "Symbol of the reference token")

	return cmd
}

func newLogger(cmd *cobra.Command) (logging.Logger, error) {
	levelName, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")

	var level logging.LogLevel
	switch levelName {
	case "debug":
		level = logging.LogLevelDebug
	case "info":
		level = logging.LogLevelInfo
	case "warn":
		level = logging.LogLevelWarn
	case "error":
		level = logging.LogLevelError
	default:
		return nil, fmt.Errorf("unknown log level %q", levelName)
	}

	return logging.NewSlogLogger(level, format, false).WithContext("version", version), nil
}

func printReport(report *world.RunReport) {
	fmt.Printf("run %s in world %s finished in %s\n", report.RunID, report.WorldID, report.Duration)

	halted := append([]string(nil), report.Halted...)
	sort.Strings(halted)
	for _, id := range halted {
		fmt.Printf("  halted   %s\n", id)
	}

	failed := make([]string, 0, len(report.Failed))
	for id := range report.Failed {
		failed = append(failed, id)
	}
	sort.Strings(failed)
	for _, id := range failed {
		fmt.Printf("  failed   %s: %v\n", id, report.Failed[id])
	}
}
