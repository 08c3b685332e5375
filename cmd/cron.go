package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/snowwise/snowwise/internal/config"
	"github.com/snowwise/snowwise/internal/dependency"
	"github.com/snowwise/snowwise/internal/shared/cmdutils"
)

var cronCmd = &cobra.Command{
	Use:   "cron",
	Short: "Inspect and run scheduled analyses",
}

func init() {
	cronCmd.AddCommand(cronListCmd)
	cronCmd.AddCommand(cronRunCmd)
}

// ---- list ------------------------------------------------------------------

var cronListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured schedules",
	RunE: func(_ *cobra.Command, _ []string) error {
		container, err := loadContainer()
		if err != nil {
			return err
		}
		jobs := container.Scheduler().List()
		if len(jobs) == 0 {
			fmt.Println("No schedules configured.")
			return nil
		}
		fmt.Printf("%-20s %-25s %-20s %-20s\n", "Name", "Schedule", "Deliver to", "Next Run")
		fmt.Println(strings.Repeat("-", 88))
		for _, j := range jobs {
			target := "(none)"
			if j.Channel != "" {
				target = j.Channel + ":" + j.ChatID
			}
			fmt.Printf("%-20s %-25s %-20s %-20s\n",
				truncStr(j.Name, 19), truncStr(j.Expr, 24), truncStr(target, 19), j.Next.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

// ---- run -------------------------------------------------------------------

var cronRunCmd = &cobra.Command{
	Use:   "run <name>",
	Short: "Run a schedule now and print the answer",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		container, err := loadContainer()
		if err != nil {
			return err
		}
		defer container.Warehouse().Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		reply, err := container.CronService().RunNow(ctx, args[0])
		if err != nil {
			return err
		}
		cmdutils.PrintResponse(reply)
		fmt.Println("✓ Schedule executed")
		return nil
	},
}

// ---- helpers ---------------------------------------------------------------

func loadContainer() (*dependency.ServiceContainer, error) {
	cfg, err := config.Load(config.ConfigPath())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return dependency.New(cfg)
}

func truncStr(s string, max int) string {
	if len([]rune(s)) <= max {
		return s
	}
	return string([]rune(s)[:max-1]) + "…"
}
