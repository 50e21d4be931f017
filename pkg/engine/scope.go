package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/DrSkyle/assetline/pkg/asset"
	"github.com/DrSkyle/assetline/pkg/lineage"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Scope is the per-execution binding between one work unit run and the
// assets it declared. Metadata accumulates here and is released as events
// only when the run closes successfully.
type Scope struct {
	WorkUnit string
	RunID    string

	eng      *Engine
	decl     Declaration
	inferred []asset.Key
	targets  asset.KeySet

	mu      sync.Mutex
	buffers map[asset.Key]lineage.Metadata
	closed  bool

	span trace.Span
}

// Open binds a work-unit execution to its declaration. Inferred keys come
// from observed data flow; the scope buffers metadata until Close.
func (e *Engine) Open(ctx context.Context, decl Declaration, inferred []asset.Key) (*Scope, error) {
	if err := decl.Validate(); err != nil {
		return nil, err
	}
	for _, k := range inferred {
		if err := k.Validate(); err != nil {
			return nil, fmt.Errorf("inferred dependency of %s: %w", decl.WorkUnit, err)
		}
	}

	runID := uuid.NewString()
	_, span := e.Tracer.Start(ctx, "Engine.WorkUnit",
		trace.WithAttributes(
			attribute.String("work_unit.name", decl.WorkUnit),
			attribute.String("work_unit.run_id", runID),
			attribute.Int("work_unit.targets", len(decl.Targets)),
		))

	s := &Scope{
		WorkUnit: decl.WorkUnit,
		RunID:    runID,
		eng:      e,
		decl:     decl,
		inferred: append([]asset.Key(nil), inferred...),
		targets:  decl.TargetKeys(),
		buffers:  make(map[asset.Key]lineage.Metadata),
		span:     span,
	}

	e.Logger.Info("work unit opened",
		"work_unit", decl.WorkUnit, "run_id", runID, "targets", len(decl.Targets))
	return s, nil
}

// Record merges metadata fields for one declared target. Later values win
// per field; buffers live only until the scope closes.
func (s *Scope) Record(key asset.Key, fields lineage.Metadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrScopeClosed
	}
	if !s.targets.Has(key) {
		return fmt.Errorf("%q: %w", key.Redacted(), ErrUnknownAsset)
	}

	buf, ok := s.buffers[key]
	if !ok {
		buf = lineage.Metadata{}
		s.buffers[key] = buf
	}
	buf.Merge(fields)
	return nil
}

// RecordAsset is Record for callers holding a full reference.
func (s *Scope) RecordAsset(a asset.Asset, fields lineage.Metadata) error {
	return s.Record(a.Key, fields)
}

// Close finalizes the execution. On success every declared target flushes to
// one event carrying the run's dependency set; on failure or context
// cancellation all buffered metadata is discarded and nothing is emitted.
// A second Close is a no-op.
func (s *Scope) Close(ctx context.Context, success bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	defer s.span.End()

	if !success || ctx.Err() != nil {
		s.buffers = nil
		s.span.SetAttributes(attribute.Bool("work_unit.discarded", true))
		s.eng.Logger.Info("work unit discarded",
			"work_unit", s.WorkUnit, "run_id", s.RunID, "success", success)
		return nil
	}

	// Inputs resolve before outputs. Explicit references register their
	// descriptors here; a target never depends on itself.
	deps := lineage.ResolveDependencies(s.eng.Registry, s.decl.Deps, s.inferred, s.targets)

	// Target descriptors register at materialization time, as one batch.
	s.eng.Registry.ResolveMany(s.decl.Targets)

	withProps := make(map[asset.Key]*asset.Properties, len(s.decl.Targets))
	for _, t := range s.decl.Targets {
		if t.Properties != nil {
			withProps[t.Key] = t.Properties
		}
	}

	var errs []error
	emitted := 0
	for _, key := range s.targets.Sorted() {
		ev := lineage.NewEvent(s.WorkUnit, s.RunID, key, withProps[key].Clone(), s.buffers[key], deps)
		if err := ev.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("event for %q: %w", key.Redacted(), err))
			continue
		}
		s.eng.Emitter.Emit(ev)
		emitted++
	}

	s.buffers = nil
	s.span.SetAttributes(
		attribute.Int("work_unit.events", emitted),
		attribute.Int("work_unit.dependencies", len(deps)),
	)
	s.eng.Logger.Info("work unit finalized",
		"work_unit", s.WorkUnit, "run_id", s.RunID,
		"events", emitted, "dependencies", len(deps))
	return errors.Join(errs...)
}
