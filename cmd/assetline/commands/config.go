package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// settingKeys mirrors config.Settings. Keep in sync with initConfig.
var settingKeys = []string{
	"journal",
	"sink",
	"rules",
	"ignore_file",
	"output_dir",
	"json_logs",
	"emitter.queue_size",
	"emitter.workers",
	"emitter.delivery_timeout",
	"replay.workers",
	"telemetry.endpoint",
}

var configInit bool

var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or write the effective configuration",
	Run: func(cmd *cobra.Command, args []string) {
		if configInit {
			applyFlagsToViper(cmd)
			safeWriteConfig()
			fmt.Printf("✅ Config written to %s\n", viper.ConfigFileUsed())
			return
		}

		source := viper.ConfigFileUsed()
		if _, err := os.Stat(source); err != nil {
			source += " (not found, using defaults)"
		}
		fmt.Printf("📂 Config: %s\n\n", source)
		for _, key := range settingKeys {
			fmt.Printf("  %-26s %v\n", key, viper.Get(key))
		}
	},
}

func init() {
	ConfigCmd.Flags().BoolVar(&configInit, "init", false, "Write the effective config to disk")
}

// applyFlagsToViper folds flag overrides into viper so `config --init`
// persists what the user asked for, not just the file state.
func applyFlagsToViper(cmd *cobra.Command) {
	f := cmd.Flags()
	if f.Changed("journal") {
		viper.Set("journal", flagJournal)
	}
	if f.Changed("sink") {
		viper.Set("sink", flagSink)
	}
	if f.Changed("rules") {
		viper.Set("rules", flagRules)
	}
	if f.Changed("ignore-file") {
		viper.Set("ignore_file", flagIgnore)
	}
	if f.Changed("json-logs") {
		viper.Set("json_logs", flagJSONLogs)
	}
	if f.Changed("otel-endpoint") {
		viper.Set("telemetry.endpoint", flagOtel)
	}
}
