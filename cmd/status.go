package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/snowwise/snowwise/internal/config"
	"github.com/snowwise/snowwise/internal/warehouse"
)

var statusPing bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show snowwise status",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusPing, "ping", true, "Open a warehouse session to verify the credentials")
}

func runStatus(_ *cobra.Command, _ []string) error {
	cfgPath := config.ConfigPath()

	fmt.Printf("%s snowwise Status\n\n", logo)

	_, statErr := os.Stat(cfgPath)
	fmt.Printf("Config:    %s %s\n", cfgPath, yesNo(statErr == nil))

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("  (could not load config: %v)\n", err)
		return nil
	}

	d := cfg.Agents.Defaults
	fmt.Printf("Warehouse: %s\n", cfg.Target())
	fmt.Printf("Model:     %s (max %d steps)\n", d.Model, d.MaxSteps)
	fmt.Printf("Read-only: %s\n", yesNo(cfg.Tools.ReadOnly))
	fmt.Printf("Schedules: %d\n\n", len(cfg.Schedules))

	creds := cfg.Credentials()
	if !creds.Complete() {
		fmt.Println("Credentials: incomplete (snowwise agent will ask for the rest)")
		return nil
	}
	if !statusPing {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	start := time.Now()
	conn, err := warehouse.Open(ctx, creds)
	if err != nil {
		fmt.Printf("Connection:  ✗ %v\n", err)
		return nil
	}
	defer conn.Close()
	fmt.Printf("Connection:  ✓ (%s)\n", time.Since(start).Round(time.Millisecond))
	return nil
}
