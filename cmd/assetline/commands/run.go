package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/DrSkyle/assetline/internal/app"
	"github.com/DrSkyle/assetline/pkg/manifest"
	"github.com/spf13/cobra"
)

var (
	runPipeline string
	runWorkers  int
	runPick     bool
)

var RunCmd = &cobra.Command{
	Use:   "run [manifest]",
	Short: "Replay a manifest and record asset lineage",
	Long: `Run executes every run block in an HCL manifest against the lineage
engine and appends one event per successful run to the journal.

Scripted failures and policy-blocked runs emit nothing.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := "assetline.hcl"
		if len(args) > 0 {
			path = args[0]
		}

		pipeline := runPipeline
		if runPick && pipeline == "" {
			picked, err := pickPipeline(path)
			if err != nil {
				fmt.Printf("❌  Error: %v\n", err)
				os.Exit(1)
			}
			pipeline = picked
		}

		cfg := app.RunConfig{
			Config:       baseConfig(cmd),
			ManifestPath: path,
			Pipeline:     pipeline,
			Workers:      settings.Replay.Workers,
		}
		if cmd.Flags().Changed("workers") {
			cfg.Workers = runWorkers
		}

		fmt.Printf("🚀 Replaying %s...\n", path)
		res, err := app.Run(cmd.Context(), cfg)
		if err != nil {
			fmt.Printf("❌  Replay failed: %v\n", err)
			os.Exit(1)
		}

		printRunResult(cfg, res)
		if res.Summary.Failures > 0 {
			os.Exit(1)
		}
	},
}

func init() {
	RunCmd.Flags().StringVar(&runPipeline, "pipeline", "", "Replay a single pipeline by name")
	RunCmd.Flags().IntVar(&runWorkers, "workers", 0, "Concurrent work units")
	RunCmd.Flags().BoolVar(&runPick, "pick", false, "Pick the pipeline interactively")
}

func pickPipeline(path string) (string, error) {
	file, err := manifest.Load(path)
	if err != nil {
		return "", err
	}
	names := make([]string, 0, len(file.Pipelines))
	for _, p := range file.Pipelines {
		names = append(names, p.Name)
	}
	return PromptForPipeline(names)
}

func printRunResult(cfg app.RunConfig, res *app.RunResult) {
	s := res.Summary
	icon := "✅"
	if s.Failures > 0 {
		icon = "❌"
	}
	fmt.Printf("\n%s Replay complete in %s\n", icon, s.Duration.Round(time.Millisecond))
	fmt.Printf("   📊 Pipelines: %d | Units: %d | Runs: %d | Failures: %d\n", s.Pipelines, s.Units, s.Runs, s.Failures)
	fmt.Printf("   📡 Events: %d emitted, %d dropped, %d failed\n", res.Stats.Emitted, res.Stats.Dropped, res.Stats.Failed)
	if res.Blocked > 0 || res.Warned > 0 {
		fmt.Printf("   🚦 Policy: %d blocked, %d warned\n", res.Blocked, res.Warned)
	}
	if cfg.JournalURL != "" {
		fmt.Printf("   📂 Journal: %s\n", cfg.JournalURL)
	}

	for _, r := range s.Results {
		switch {
		case r.Err != nil:
			fmt.Printf("   ❌ %s/%s: %v\n", r.Pipeline, r.Unit, r.Err)
		case r.Failures > 0:
			fmt.Printf("   ⚠️  %s/%s: %d of %d runs failed\n", r.Pipeline, r.Unit, r.Failures, r.Runs)
		}
	}
}
