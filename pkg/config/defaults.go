// Package config defines the settings file schema and its defaults.
// Settings load from ~/.assetline.yaml (or --config) through viper;
// flags override file values per command.
package config

import (
	"time"

	"github.com/DrSkyle/assetline/pkg/journal"
	"github.com/DrSkyle/assetline/pkg/report"
)

// Settings is the full configuration surface.
type Settings struct {
	// Journal is where lineage events persist: a local path, file://
	// or s3:// URL.
	Journal string `mapstructure:"journal"`
	// Sink is an extra delivery target next to the journal, usually a
	// webhook URL. Empty means journal-only.
	Sink string `mapstructure:"sink"`
	// Rules points at a CEL policy rules file. Empty disables the gate.
	Rules string `mapstructure:"rules"`
	// IgnoreFile lists asset keys reports and the browser skip.
	IgnoreFile string `mapstructure:"ignore_file"`
	// OutputDir receives report exports.
	OutputDir string `mapstructure:"output_dir"`
	JsonLogs  bool   `mapstructure:"json_logs"`

	Emitter   EmitterSettings   `mapstructure:"emitter"`
	Replay    ReplaySettings    `mapstructure:"replay"`
	Telemetry TelemetrySettings `mapstructure:"telemetry"`
}

// EmitterSettings tunes the delivery pipeline.
type EmitterSettings struct {
	// QueueSize bounds the in-flight event buffer.
	QueueSize int `mapstructure:"queue_size"`
	// Workers is the delivery concurrency. Order across assets is only
	// deterministic at 1.
	Workers int `mapstructure:"workers"`
	// DeliveryTimeout bounds one sink delivery.
	DeliveryTimeout time.Duration `mapstructure:"delivery_timeout"`
}

// ReplaySettings tunes manifest replay.
type ReplaySettings struct {
	// Workers is how many work units replay in parallel.
	Workers int `mapstructure:"workers"`
}

// TelemetrySettings selects the trace export target.
type TelemetrySettings struct {
	// Endpoint is an OTLP HTTP endpoint; empty discards spans.
	Endpoint string `mapstructure:"endpoint"`
}

// DefaultSettings returns the values used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		Journal:    journal.DefaultPath(),
		IgnoreFile: report.IgnoreFileName,
		OutputDir:  "assetline-out",
		Emitter: EmitterSettings{
			QueueSize:       256,
			Workers:         1,
			DeliveryTimeout: 10 * time.Second,
		},
		Replay: ReplaySettings{
			Workers: 4,
		},
	}
}
