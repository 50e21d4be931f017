package commands

import (
	"fmt"
	"os"

	"github.com/DrSkyle/assetline/internal/app"
	"github.com/spf13/cobra"
)

var (
	exportOut     string
	exportPublish string
)

var ExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export lineage reports (JSON, CSV, HTML)",
	Run: func(cmd *cobra.Command, args []string) {
		out := exportOut
		if out == "" {
			out = settings.OutputDir
		}

		fmt.Println("🚀 Generating Lineage Reports...")
		res, err := app.Export(cmd.Context(), app.ExportConfig{
			Config:    baseConfig(cmd),
			OutputDir: out,
			Publish:   exportPublish,
		})
		if err != nil {
			fmt.Printf("❌  Export failed: %v\n", err)
			os.Exit(1)
		}

		fmt.Println("\n✅ Export Complete.")
		fmt.Printf("   📊 %d events across %d assets\n", res.Events, res.Assets)
		for _, f := range res.Files {
			fmt.Printf("   📂 %s\n", f)
		}
		if res.Published > 0 {
			fmt.Printf("   ✅ Published %d files to %s\n", res.Published, exportPublish)
		}
	},
}

func init() {
	ExportCmd.Flags().StringVar(&exportOut, "out", "", "Output directory")
	ExportCmd.Flags().StringVar(&exportPublish, "publish", "", "Publish outputs to a storage URL (s3:// or file://)")
}
