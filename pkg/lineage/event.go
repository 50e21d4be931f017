// Package lineage defines the outbound event contract and the
// reconciliation helpers that produce it: dependency resolution and the
// event graph built back from emitted records.
package lineage

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/DrSkyle/assetline/pkg/asset"
)

// SchemaVersion is stamped on every outgoing event. Consumers reject
// versions they do not know.
const SchemaVersion = "1"

var (
	ErrUnknownSchemaVersion = errors.New("unknown lineage schema version")
	ErrMissingEventID       = errors.New("event id is required")
	ErrMissingWorkUnit      = errors.New("work unit name is required")
	ErrMissingRunID         = errors.New("run id is required")
	ErrSelfDependency       = errors.New("event lists its own key as a dependency")
)

// Metadata is the accumulated runtime metadata for one
// (asset, work-unit-execution) pair. Values are opaque but must be
// JSON-serializable.
type Metadata map[string]any

// Merge overlays fields onto m. Later calls win per field; fields not
// named in the overlay are left alone.
func (m Metadata) Merge(fields Metadata) {
	for k, v := range fields {
		m[k] = v
	}
}

// Clone returns a shallow copy. Values are opaque and treated as
// immutable once recorded; only the map itself needs isolating.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Event is the record emitted once per materialized asset per
// work-unit execution. The wire shape is stable: properties is omitted
// entirely when the execution did not change the descriptor, metadata is
// always present (possibly empty), and dependencies serialize sorted.
type Event struct {
	SchemaVersion string            `json:"schemaVersion"`
	EventID       string            `json:"eventID"`
	EventTime     time.Time         `json:"eventTime"`
	WorkUnit      string            `json:"workUnit"`
	RunID         string            `json:"runID"`
	Key           asset.Key         `json:"key"`
	Properties    *asset.Properties `json:"properties,omitempty"`
	Metadata      Metadata          `json:"metadata"`
	Dependencies  []asset.Key       `json:"dependencies"`
}

// NewEvent assembles an event, normalizing nil metadata to an empty map
// and the dependency set to a sorted slice.
func NewEvent(workUnit, runID string, key asset.Key, props *asset.Properties, md Metadata, deps asset.KeySet) *Event {
	if md == nil {
		md = Metadata{}
	}
	sorted := deps.Sorted()
	if sorted == nil {
		sorted = []asset.Key{}
	}
	return &Event{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.NewString(),
		EventTime:     time.Now().UTC(),
		WorkUnit:      workUnit,
		RunID:         runID,
		Key:           key,
		Properties:    props,
		Metadata:      md,
		Dependencies:  sorted,
	}
}

// Validate checks the invariants a consumer may rely on.
func (e *Event) Validate() error {
	if e.SchemaVersion != SchemaVersion {
		return fmt.Errorf("%w: %q", ErrUnknownSchemaVersion, e.SchemaVersion)
	}
	if e.EventID == "" {
		return ErrMissingEventID
	}
	if e.WorkUnit == "" {
		return ErrMissingWorkUnit
	}
	if e.RunID == "" {
		return ErrMissingRunID
	}
	if err := e.Key.Validate(); err != nil {
		return err
	}
	for _, d := range e.Dependencies {
		if d == e.Key {
			return fmt.Errorf("%w: %s", ErrSelfDependency, e.Key.Redacted())
		}
		if err := d.Validate(); err != nil {
			return fmt.Errorf("dependency %q: %w", d.Redacted(), err)
		}
	}
	return nil
}
