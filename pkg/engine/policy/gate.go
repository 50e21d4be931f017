package policy

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/DrSkyle/assetline/pkg/lineage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Gate screens outgoing events before sink delivery. It satisfies the
// emitter's admission interface.
type Gate struct {
	engine  *CELEngine
	logger  *slog.Logger
	blocked atomic.Int64
	warned  atomic.Int64

	ctrViolations metric.Int64Counter
}

// NewGate compiles rules into a delivery gate.
func NewGate(rules []Rule, logger *slog.Logger) (*Gate, error) {
	engine, err := NewCELEngine()
	if err != nil {
		return nil, err
	}
	if err := engine.Compile(rules); err != nil {
		return nil, err
	}

	g := &Gate{engine: engine, logger: logger}
	if g.logger == nil {
		g.logger = slog.Default()
	}

	meter := otel.Meter("assetline/policy")
	if c, err := meter.Int64Counter("assetline.policy.violations"); err == nil {
		g.ctrViolations = c
	}
	return g, nil
}

// Admit evaluates the event against the compiled rules. A block match stops
// sink delivery; warn matches only log. Evaluation failures admit the event.
func (g *Gate) Admit(ev *lineage.Event) bool {
	matches, err := g.engine.Evaluate(context.Background(), ContextForEvent(ev))
	if err != nil {
		return true
	}

	admit := true
	for _, r := range matches {
		if g.ctrViolations != nil {
			g.ctrViolations.Add(context.Background(), 1)
		}
		switch r.Action {
		case ActionBlock:
			g.blocked.Add(1)
			g.logger.Warn("policy blocked lineage event",
				"rule_id", r.ID, "key", ev.Key.Redacted(), "work_unit", ev.WorkUnit)
			admit = false
		default:
			g.warned.Add(1)
			g.logger.Warn("policy warning",
				"rule_id", r.ID, "key", ev.Key.Redacted(), "work_unit", ev.WorkUnit)
		}
	}
	return admit
}

// Blocked reports how many events the gate has stopped.
func (g *Gate) Blocked() int64 { return g.blocked.Load() }

// Warned reports how many warn matches have fired.
func (g *Gate) Warned() int64 { return g.warned.Load() }

// ContextForEvent flattens an event into CEL evaluation variables.
func ContextForEvent(ev *lineage.Event) EvaluationContext {
	ec := EvaluationContext{
		Key:             ev.Key.String(),
		WorkUnit:        ev.WorkUnit,
		HasProperties:   ev.Properties != nil,
		DependencyCount: len(ev.Dependencies),
		Metadata:        map[string]any(ev.Metadata),
	}
	if ev.Properties != nil && ev.Properties.Owners != nil {
		ec.Owners = *ev.Properties.Owners
	}
	return ec
}
