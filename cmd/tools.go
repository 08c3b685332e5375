package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var toolsJSON bool

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tools the agent can use",
	RunE: func(_ *cobra.Command, _ []string) error {
		container, err := loadContainer()
		if err != nil {
			return err
		}
		reg := container.Tools()

		if toolsJSON {
			all := reg.AllTools()
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(all.Definitions())
		}
		for _, d := range reg.Descriptors() {
			fmt.Printf("%s\n  %s\n\n", d.Name, d.Description)
		}
		return nil
	},
}

func init() {
	toolsCmd.Flags().BoolVar(&toolsJSON, "json", false, "Print function-calling definitions as JSON")
}
