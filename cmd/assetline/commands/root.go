// Package commands wires the assetline CLI. Commands parse flags and
// print results; internal/app does the actual work.
package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/DrSkyle/assetline/internal/app"
	"github.com/DrSkyle/assetline/pkg/config"
	"github.com/DrSkyle/assetline/pkg/version"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	cfgFile  string
	settings = config.DefaultSettings()

	flagJournal  string
	flagSink     string
	flagRules    string
	flagIgnore   string
	flagOtel     string
	flagJSONLogs bool
	flagVerbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "assetline",
	Short: "Local-First Lineage Tracker",
	Long: `Assetline - Lineage For Data Pipelines

Declare. Materialize. Trace.`,
	Version: version.Current,
	// Run: nil (Forces help output).
	Run: nil,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	defaults := config.DefaultSettings()

	// Persistent Flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ~/.assetline.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagJournal, "journal", defaults.Journal, "Journal location (path or s3:// URL)")
	rootCmd.PersistentFlags().StringVar(&flagSink, "sink", defaults.Sink, "Extra delivery sink (log://, file://, s3://, https://)")
	rootCmd.PersistentFlags().StringVar(&flagRules, "rules", defaults.Rules, "Policy rules file (YAML)")
	rootCmd.PersistentFlags().StringVar(&flagIgnore, "ignore-file", defaults.IgnoreFile, "Ignored-assets file")
	rootCmd.PersistentFlags().BoolVar(&flagJSONLogs, "json-logs", defaults.JsonLogs, "Log as JSON instead of text")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")

	// Hidden Flags
	rootCmd.PersistentFlags().StringVar(&flagOtel, "otel-endpoint", "", "OTLP trace endpoint")
	rootCmd.PersistentFlags().MarkHidden("otel-endpoint")

	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		renderFutureGlassHelp(cmd)
	})

	rootCmd.AddCommand(RunCmd)
	rootCmd.AddCommand(BrowseCmd)
	rootCmd.AddCommand(ExportCmd)
	rootCmd.AddCommand(PolicyCmd)
	rootCmd.AddCommand(ConfigCmd)
	rootCmd.AddCommand(completionCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.SetConfigFile(filepath.Join(home, ".assetline.yaml"))
			viper.SetConfigType("yaml")
		}
	}

	// Registering defaults makes env-only keys visible to Unmarshal and
	// gives `config --init` a complete file to write.
	defaults := config.DefaultSettings()
	viper.SetDefault("journal", defaults.Journal)
	viper.SetDefault("sink", defaults.Sink)
	viper.SetDefault("rules", defaults.Rules)
	viper.SetDefault("ignore_file", defaults.IgnoreFile)
	viper.SetDefault("output_dir", defaults.OutputDir)
	viper.SetDefault("json_logs", defaults.JsonLogs)
	viper.SetDefault("emitter.queue_size", defaults.Emitter.QueueSize)
	viper.SetDefault("emitter.workers", defaults.Emitter.Workers)
	viper.SetDefault("emitter.delivery_timeout", defaults.Emitter.DeliveryTimeout)
	viper.SetDefault("replay.workers", defaults.Replay.Workers)
	viper.SetDefault("telemetry.endpoint", defaults.Telemetry.Endpoint)

	viper.SetEnvPrefix("ASSETLINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	viper.ReadInConfig()

	if err := viper.Unmarshal(&settings); err != nil {
		fmt.Printf("Error reading config: %v\n", err)
	}
}

// baseConfig merges file settings with whatever flags were set on this
// invocation. Flags win over the file, the file wins over defaults.
func baseConfig(cmd *cobra.Command) app.Config {
	cfg := app.Config{
		JournalURL:      settings.Journal,
		SinkURL:         settings.Sink,
		RulesFile:       settings.Rules,
		IgnoreFile:      settings.IgnoreFile,
		JsonLogs:        settings.JsonLogs,
		Verbose:         flagVerbose,
		EmitQueue:       settings.Emitter.QueueSize,
		EmitWorkers:     settings.Emitter.Workers,
		DeliveryTimeout: settings.Emitter.DeliveryTimeout,
		OtelEndpoint:    settings.Telemetry.Endpoint,
	}

	f := cmd.Flags()
	if f.Changed("journal") {
		cfg.JournalURL = flagJournal
	}
	if f.Changed("sink") {
		cfg.SinkURL = flagSink
	}
	if f.Changed("rules") {
		cfg.RulesFile = flagRules
	}
	if f.Changed("ignore-file") {
		cfg.IgnoreFile = flagIgnore
	}
	if f.Changed("json-logs") {
		cfg.JsonLogs = flagJSONLogs
	}
	if f.Changed("otel-endpoint") {
		cfg.OtelEndpoint = flagOtel
	}
	return cfg
}

func renderFutureGlassHelp(cmd *cobra.Command) {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00FF99")).
		MarginBottom(1)

	flagStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA"))

	fmt.Println(titleStyle.Render(fmt.Sprintf("ASSETLINE %s", version.Current)))
	fmt.Println("Local-First Lineage Tracker for Data Pipelines.")

	fmt.Println(titleStyle.Render("USAGE"))
	fmt.Printf("  %s\n\n", cmd.UseLine())

	fmt.Println(titleStyle.Render("COMMANDS"))
	for _, c := range cmd.Commands() {
		if c.IsAvailableCommand() {
			fmt.Printf("  %-12s %s\n", c.Name(), c.Short)
		}
	}
	fmt.Println("")

	fmt.Println(titleStyle.Render("EXAMPLES"))
	fmt.Println("  assetline run pipeline.hcl              # Replay a manifest, record lineage")
	fmt.Println("  assetline browse                        # Interactive journal browser (TUI)")
	fmt.Println("  assetline export --publish s3://bucket  # Reports as CI artifacts")
	fmt.Println("")

	fmt.Println(titleStyle.Render("FLAGS"))
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		output := fmt.Sprintf("  --%-15s %s", f.Name, f.Usage)
		if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "0" {
			output += fmt.Sprintf(" (default %s)", f.DefValue)
		}
		fmt.Println(flagStyle.Render(output))
	})
	fmt.Println("")
}

func safeWriteConfig() {
	// 1. Try SafeWrite (creates if missing, fails if exists)
	if err := viper.SafeWriteConfig(); err != nil {
		// 2. If already exists, try Overwrite
		if err2 := viper.WriteConfig(); err2 != nil {
			// 3. Fallback: Force create file at explicit path
			path := viper.ConfigFileUsed()
			if path != "" {
				f, createErr := os.Create(path)
				if createErr == nil {
					f.Close()
					viper.WriteConfig()
				} else {
					fmt.Printf("Error creating config file: %v\n", createErr)
				}
			} else {
				// If path is empty, try manual home construction
				home, _ := os.UserHomeDir()
				path = filepath.Join(home, ".assetline.yaml")
				f, _ := os.Create(path)
				f.Close()
				viper.SetConfigFile(path)
				viper.WriteConfig()
			}
		}
	}
}
