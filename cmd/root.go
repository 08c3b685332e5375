// Package cmd implements the snowwise CLI using cobra.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"
const logo = "❄️"

var verbose bool

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "snowwise",
	Short: logo + " snowwise: Snowflake query optimization assistant",
	Long: logo + " snowwise helps you find and fix slow Snowflake queries.\n" +
		"It reads query history from ACCOUNT_USAGE, runs read-only probes and explains what to change.",
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		setupLogging(verbose)
	},
}

// Execute runs the root command and exits on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = version
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show runtime logs")

	rootCmd.AddCommand(onboardCmd)
	rootCmd.AddCommand(agentCmd)
	rootCmd.AddCommand(gatewayCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(cronCmd)
	rootCmd.AddCommand(channelsCmd)
	rootCmd.AddCommand(toolsCmd)
}

// setupLogging sends slog output to stderr. Without --verbose only
// warnings and errors are shown so they do not interleave with the REPL.
func setupLogging(verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
