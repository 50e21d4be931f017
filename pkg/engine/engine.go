package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/DrSkyle/assetline/pkg/engine/emit"
	"github.com/DrSkyle/assetline/pkg/engine/policy"
	"github.com/DrSkyle/assetline/pkg/engine/sink"
	"github.com/DrSkyle/assetline/pkg/registry"
	"github.com/DrSkyle/assetline/pkg/telemetry"
	"github.com/DrSkyle/assetline/pkg/version"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// ErrUnknownAsset flags metadata recorded against an asset the work unit
// never declared as a target.
var ErrUnknownAsset = errors.New("asset not declared by this work unit")

// ErrScopeClosed flags use of a scope after it was finalized or discarded.
var ErrScopeClosed = errors.New("scope already closed")

// Config holds engine settings.
type Config struct {
	SinkURL   string // "s3://bucket/prefix", "file:///path", "https://..." or empty for log-only
	RulesFile string // CEL policy rules, empty disables the gate
	JsonLogs  bool

	// Emitter tuning.
	QueueSize       int
	Workers         int
	DeliveryTimeout time.Duration

	// Telemetry config.
	OtelEndpoint  string // "http://localhost:4318" or via env
	SkipTelemetry bool   // Set true if embedding in an app that already has OTEL

	// Dependencies.
	Logger *slog.Logger
}

// Engine is the runtime core.
type Engine struct {
	// Core components.
	Registry *registry.Registry
	Emitter  *emit.Emitter
	Logger   *slog.Logger
	Tracer   trace.Tracer

	// Immutable config.
	config Config

	// External dependencies.
	sinks []sink.Sink
	gate  *policy.Gate

	// Runtime state.
	shutdownTelemetry func(context.Context) error
}

// Option defines a functional configuration override.
type Option func(*Engine)

// New initializes the Engine.
func New(ctx context.Context, opts ...Option) (*Engine, error) {
	e := &Engine{
		Registry: registry.New(),
		Tracer:   otel.Tracer("assetline/engine"),
	}

	// Apply options.
	for _, opt := range opts {
		opt(e)
	}

	if e.Logger == nil {
		e.Logger = NewLogger(os.Stdout, e.config.JsonLogs, false)
	}

	slog.SetDefault(e.Logger)

	// Initialize telemetry.
	if !e.config.SkipTelemetry {
		shutdown, err := telemetry.Init(ctx, version.AppName, version.Current, e.config.OtelEndpoint)
		if err != nil {
			e.Logger.Warn("Telemetry failed", "error", err)
		} else {
			e.shutdownTelemetry = shutdown
		}
	}

	// Initialize the policy gate.
	if e.gate == nil && e.config.RulesFile != "" {
		rules, err := policy.LoadRules(e.config.RulesFile)
		if err != nil {
			return nil, err
		}
		gate, err := policy.NewGate(rules, e.Logger)
		if err != nil {
			return nil, err
		}
		e.gate = gate
	}

	// Initialize sinks.
	if e.config.SinkURL != "" {
		s, err := sink.Open(ctx, e.config.SinkURL, e.Logger)
		if err != nil {
			return nil, err
		}
		e.sinks = append(e.sinks, s)
	}
	if len(e.sinks) == 0 {
		e.sinks = append(e.sinks, sink.NewLog(e.Logger))
	}

	emitOpts := []emit.Option{emit.WithLogger(e.Logger)}
	if e.config.QueueSize > 0 {
		emitOpts = append(emitOpts, emit.WithQueueSize(e.config.QueueSize))
	}
	if e.config.Workers > 0 {
		emitOpts = append(emitOpts, emit.WithWorkers(e.config.Workers))
	}
	if e.config.DeliveryTimeout > 0 {
		emitOpts = append(emitOpts, emit.WithDeliveryTimeout(e.config.DeliveryTimeout))
	}
	if e.gate != nil {
		emitOpts = append(emitOpts, emit.WithGate(e.gate))
	}
	e.Emitter = emit.New(e.sinks, emitOpts...)

	return e, nil
}

// NewLogger builds the redacting logger the engine and CLI share. JSON
// output suits log pipelines; the text form reads better on a terminal.
func NewLogger(w io.Writer, jsonLogs, verbose bool) *slog.Logger {
	opts := &slog.HandlerOptions{ReplaceAttr: redactSensitiveData}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	if jsonLogs {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.Logger = l
	}
}

// WithSink adds a delivery sink ahead of the configured one.
func WithSink(s sink.Sink) Option {
	return func(e *Engine) {
		e.sinks = append(e.sinks, s)
	}
}

// WithGate sets a pre-built policy gate, overriding Config.RulesFile.
func WithGate(g *policy.Gate) Option {
	return func(e *Engine) {
		e.gate = g
	}
}

// WithConfig sets raw config.
func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		e.config = cfg
		if cfg.Logger != nil {
			e.Logger = cfg.Logger
		}
	}
}

// Gate returns the active policy gate, nil when none is configured.
func (e *Engine) Gate() *policy.Gate {
	return e.gate
}

// Shutdown drains the emitter and releases telemetry. Call once, after the
// last scope is closed.
func (e *Engine) Shutdown(ctx context.Context) error {
	var errs []error
	if e.Emitter != nil {
		errs = append(errs, e.Emitter.Close(ctx))
	}
	if e.shutdownTelemetry != nil {
		errs = append(errs, e.shutdownTelemetry(ctx))
	}
	return errors.Join(errs...)
}

// redactSensitiveData scrubs sensitive keys from logs.
func redactSensitiveData(groups []string, a slog.Attr) slog.Attr {
	// List of keys to redact
	sensitiveKeys := map[string]bool{
		"account": true, "password": true, "access_key": true, "token": true,
		"secret": true, "api_key": true, "private_key": true, "auth_token": true,
		"refresh_token": true, "certificate": true, "signature": true,
		"credential": true, "ssh_key": true, "connection_string": true,
	}

	if sensitiveKeys[a.Key] {
		return slog.Attr{
			Key:   a.Key,
			Value: slog.StringValue("[REDACTED]"),
		}
	}

	// Strip userinfo from URL-shaped values so credentials embedded in asset
	// keys or sink addresses never reach the log stream.
	if a.Value.Kind() == slog.KindString {
		if s := a.Value.String(); strings.Contains(s, "://") {
			if u, err := url.Parse(s); err == nil && u.User != nil {
				u.User = nil
				return slog.Attr{
					Key:   a.Key,
					Value: slog.StringValue(u.String()),
				}
			}
		}
	}
	return a
}
