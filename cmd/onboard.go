package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/snowwise/snowwise/internal/config"
)

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Initialize configuration",
	RunE:  runOnboard,
}

func runOnboard(_ *cobra.Command, _ []string) error {
	cfgPath := config.ConfigPath()

	if _, err := os.Stat(cfgPath); err == nil {
		fmt.Printf("Config already exists at %s\n", cfgPath)
		fmt.Printf("Press Enter to refresh (keep existing values) or Ctrl+C to cancel: ")
		fmt.Scanln()
		existing, loadErr := config.Load(cfgPath)
		if loadErr != nil {
			def := config.DefaultConfig()
			existing = &def
		}
		if err := config.Save(existing, cfgPath); err != nil {
			return err
		}
		fmt.Printf("✓ Config refreshed at %s\n", cfgPath)
	} else {
		cfg := config.DefaultConfig()
		if err := config.Save(&cfg, cfgPath); err != nil {
			return err
		}
		fmt.Printf("✓ Created config at %s\n", cfgPath)
	}

	fmt.Printf("\n%s snowwise is ready!\n\n", logo)
	fmt.Println("Next steps:")
	fmt.Printf("  1. Set warehouse.account, user, warehouse and role in %s\n", cfgPath)
	fmt.Printf("     or export %s, %s, %s, %s and %s\n",
		config.EnvAccount, config.EnvUser, config.EnvPassword, config.EnvWarehouse, config.EnvRole)
	fmt.Println("  2. Chat: snowwise agent -m \"Which of my queries were slowest yesterday?\"")
	return nil
}
