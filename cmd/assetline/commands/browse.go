package commands

import (
	"fmt"
	"os"

	"github.com/DrSkyle/assetline/internal/app"
	"github.com/spf13/cobra"
)

var BrowseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse recorded lineage in an interactive TUI",
	Run: func(cmd *cobra.Command, args []string) {
		if err := app.Browse(cmd.Context(), baseConfig(cmd)); err != nil {
			fmt.Printf("❌  Error: %v\n", err)
			os.Exit(1)
		}
	},
}
