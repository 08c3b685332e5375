package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/snowwise/snowwise/internal/channels"
	"github.com/snowwise/snowwise/internal/config"
)

var channelsCmd = &cobra.Command{
	Use:   "channels",
	Short: "Manage chat channels",
}

func init() {
	channelsCmd.AddCommand(channelsStatusCmd)
}

var channelsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show channel status",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := config.Load(config.ConfigPath())
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		fmt.Printf("%-12s %-8s %s\n", "Channel", "Enabled", "Configuration")
		fmt.Println(strings.Repeat("-", 60))
		for _, s := range channels.Statuses(cfg) {
			fmt.Printf("%-12s %-8s %s\n", s.Name, yesNo(s.Enabled), s.Detail)
		}
		return nil
	},
}

func yesNo(b bool) string {
	if b {
		return "✓"
	}
	return "✗"
}
