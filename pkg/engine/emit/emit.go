// Package emit moves completed lineage events from work-unit scopes to
// their sinks. Enqueueing never blocks the caller: when the queue is
// full the event is dropped with a warning, because lineage is
// best-effort telemetry and must not slow down or fail the pipeline.
package emit

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/DrSkyle/assetline/pkg/engine/sink"
	"github.com/DrSkyle/assetline/pkg/lineage"
)

var (
	// ErrQueueFull is logged when an event is dropped because the
	// queue had no room at enqueue time.
	ErrQueueFull = errors.New("emitter queue is full")
	// ErrTimeout is logged when the configured enqueue wait elapsed
	// before the dispatcher made room.
	ErrTimeout = errors.New("emitter enqueue timed out")
	// ErrClosed is logged when an event arrives after Close.
	ErrClosed = errors.New("emitter is closed")
)

// Gate decides whether an event reaches the sinks. Policy engines plug
// in here; a nil gate admits everything.
type Gate interface {
	Admit(ev *lineage.Event) bool
}

// Stats is a point-in-time counter snapshot.
type Stats struct {
	Emitted int64
	Dropped int64
	Failed  int64
}

// Emitter fans events out to sinks from a bounded queue.
type Emitter struct {
	queue chan *lineage.Event
	stop  chan struct{}
	sinks []sink.Sink
	gate  Gate

	logger          *slog.Logger
	queueSize       int
	workers         int
	deliveryTimeout time.Duration
	enqueueWait     time.Duration

	emitted atomic.Int64
	dropped atomic.Int64
	failed  atomic.Int64

	closed    atomic.Bool
	closeOnce sync.Once
	wg        sync.WaitGroup

	ctrEmitted metric.Int64Counter
	ctrDropped metric.Int64Counter
}

// Option overrides one emitter setting.
type Option func(*Emitter)

func WithLogger(l *slog.Logger) Option {
	return func(e *Emitter) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithQueueSize bounds the in-flight event buffer.
func WithQueueSize(n int) Option {
	return func(e *Emitter) {
		if n > 0 {
			e.queueSize = n
		}
	}
}

// WithWorkers sets the number of dispatcher goroutines.
func WithWorkers(n int) Option {
	return func(e *Emitter) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithDeliveryTimeout bounds each sink delivery.
func WithDeliveryTimeout(d time.Duration) Option {
	return func(e *Emitter) {
		if d > 0 {
			e.deliveryTimeout = d
		}
	}
}

// WithEnqueueWait lets Emit wait up to d for queue room before dropping.
// Zero keeps the default drop-immediately behavior.
func WithEnqueueWait(d time.Duration) Option {
	return func(e *Emitter) { e.enqueueWait = d }
}

// WithGate installs a delivery gate.
func WithGate(g Gate) Option {
	return func(e *Emitter) { e.gate = g }
}

// New starts an emitter delivering to sinks. Without sinks every event
// is counted and discarded, which keeps the core usable in tests.
func New(sinks []sink.Sink, opts ...Option) *Emitter {
	e := &Emitter{
		sinks:           sinks,
		logger:          slog.Default(),
		queueSize:       256,
		workers:         2,
		deliveryTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.queue = make(chan *lineage.Event, e.queueSize)
	e.stop = make(chan struct{})

	meter := otel.Meter("assetline/emit")
	if c, err := meter.Int64Counter("assetline.events.emitted"); err == nil {
		e.ctrEmitted = c
	}
	if c, err := meter.Int64Counter("assetline.events.dropped"); err == nil {
		e.ctrDropped = c
	}

	for i := 0; i < e.workers; i++ {
		e.wg.Add(1)
		go e.dispatch()
	}
	return e
}

// Emit hands an event to the dispatcher. It never blocks beyond the
// configured enqueue wait and never returns an error to the work unit;
// overflow is logged and counted.
func (e *Emitter) Emit(ev *lineage.Event) {
	if e.closed.Load() {
		e.drop(ev, ErrClosed)
		return
	}

	select {
	case e.queue <- ev:
		return
	default:
	}

	if e.enqueueWait <= 0 {
		e.drop(ev, ErrQueueFull)
		return
	}
	t := time.NewTimer(e.enqueueWait)
	defer t.Stop()
	select {
	case e.queue <- ev:
	case <-t.C:
		e.drop(ev, ErrTimeout)
	}
}

// Close drains queued events and shuts the sinks, bounded by ctx.
func (e *Emitter) Close(ctx context.Context) error {
	e.closed.Store(true)
	e.closeOnce.Do(func() { close(e.stop) })

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	var errs []error
	for _, s := range e.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Stats reports the counter values so far.
func (e *Emitter) Stats() Stats {
	return Stats{
		Emitted: e.emitted.Load(),
		Dropped: e.dropped.Load(),
		Failed:  e.failed.Load(),
	}
}

func (e *Emitter) dispatch() {
	defer e.wg.Done()
	for {
		select {
		case ev := <-e.queue:
			e.deliver(ev)
		case <-e.stop:
			// Drain what was queued before the stop signal.
			for {
				select {
				case ev := <-e.queue:
					e.deliver(ev)
				default:
					return
				}
			}
		}
	}
}

func (e *Emitter) deliver(ev *lineage.Event) {
	if e.gate != nil && !e.gate.Admit(ev) {
		return
	}
	for _, s := range e.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), e.deliveryTimeout)
		err := s.Deliver(ctx, ev)
		cancel()
		if err != nil {
			e.failed.Add(1)
			e.logger.Warn("lineage event delivery failed",
				"sink", s.Name(), "key", ev.Key.Redacted(), "error", err)
		}
	}
	e.emitted.Add(1)
	if e.ctrEmitted != nil {
		e.ctrEmitted.Add(context.Background(), 1)
	}
}

func (e *Emitter) drop(ev *lineage.Event, cause error) {
	e.dropped.Add(1)
	if e.ctrDropped != nil {
		e.ctrDropped.Add(context.Background(), 1)
	}
	e.logger.Warn("lineage event dropped",
		"key", ev.Key.Redacted(), "work_unit", ev.WorkUnit, "error", cause)
}
