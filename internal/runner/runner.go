// Package runner replays manifest pipelines through the lineage engine.
package runner

import (
	"context"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/DrSkyle/assetline/pkg/asset"
	"github.com/DrSkyle/assetline/pkg/engine"
	"github.com/DrSkyle/assetline/pkg/lineage"
	"github.com/DrSkyle/assetline/pkg/manifest"
)

const DefaultWorkers = 4

// Options tunes a replay.
type Options struct {
	// Pipeline restricts the replay to one pipeline by name.
	Pipeline string
	// Workers is the number of work units executing concurrently. Runs
	// of the same unit always execute sequentially, in manifest order.
	Workers int
}

// UnitResult is the outcome of one work unit's runs.
type UnitResult struct {
	Pipeline string
	Unit     string
	Runs     int
	Failures int
	Err      error
}

// Summary aggregates a whole replay.
type Summary struct {
	Pipelines int
	Units     int
	Runs      int
	Failures  int
	Duration  time.Duration
	Results   []UnitResult
}

type job struct {
	pipeline string
	unit     *manifest.WorkUnit
	runs     []*manifest.Run
}

// Replay executes every run block in file against eng. Work units fan
// out across a fixed worker pool; a failed or scripted-fail run counts
// as a failure without stopping its siblings. The caller owns the
// engine lifecycle and should drain the emitter before reading sinks.
func Replay(ctx context.Context, eng *engine.Engine, file *manifest.File, opts Options) (*Summary, error) {
	ctx, span := otel.Tracer("assetline/runner").Start(ctx, "Runner.Replay")
	defer span.End()

	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	summary := &Summary{}
	var jobs []job
	matched := false
	for _, p := range file.Pipelines {
		if opts.Pipeline != "" && p.Name != opts.Pipeline {
			continue
		}
		matched = true
		summary.Pipelines++

		byUnit := make(map[string][]*manifest.Run)
		for _, r := range p.Runs {
			byUnit[r.WorkUnit] = append(byUnit[r.WorkUnit], r)
		}
		for _, w := range p.WorkUnits {
			if runs := byUnit[w.Name]; len(runs) > 0 {
				jobs = append(jobs, job{pipeline: p.Name, unit: w, runs: runs})
			}
		}
	}
	if opts.Pipeline != "" && !matched {
		return nil, fmt.Errorf("pipeline %q not found in manifest", opts.Pipeline)
	}

	start := time.Now()
	queue := make(chan job)
	results := make(chan UnitResult, len(jobs))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for jb := range queue {
				results <- runUnit(ctx, eng, jb)
			}
		}()
	}

	for _, jb := range jobs {
		queue <- jb
	}
	close(queue)
	wg.Wait()
	close(results)

	for res := range results {
		summary.Units++
		summary.Runs += res.Runs
		summary.Failures += res.Failures
		summary.Results = append(summary.Results, res)
	}
	sort.Slice(summary.Results, func(i, j int) bool {
		a, b := summary.Results[i], summary.Results[j]
		if a.Pipeline != b.Pipeline {
			return a.Pipeline < b.Pipeline
		}
		return a.Unit < b.Unit
	})

	summary.Duration = time.Since(start)
	return summary, nil
}

func runUnit(ctx context.Context, eng *engine.Engine, jb job) UnitResult {
	res := UnitResult{Pipeline: jb.pipeline, Unit: jb.unit.Name, Runs: len(jb.runs)}

	if err := ctx.Err(); err != nil {
		res.Failures = len(jb.runs)
		res.Err = err
		return res
	}

	decl, err := declarationFor(jb.unit)
	if err != nil {
		res.Failures = len(jb.runs)
		res.Err = err
		return res
	}

	for _, r := range jb.runs {
		failed, err := executeRun(ctx, eng, decl, r)
		if failed {
			res.Failures++
		}
		if err != nil && res.Err == nil {
			res.Err = fmt.Errorf("%s: %w", jb.unit.Name, err)
		}
	}
	return res
}

func declarationFor(w *manifest.WorkUnit) (engine.Declaration, error) {
	targets, err := w.Targets()
	if err != nil {
		return engine.Declaration{}, err
	}
	deps, err := w.Dependencies()
	if err != nil {
		return engine.Declaration{}, err
	}
	return engine.Declaration{WorkUnit: w.Name, Targets: targets, Deps: deps}, nil
}

// executeRun drives one run block through an engine scope. A scripted
// failure (fail = true) closes the scope unsuccessfully, replaying the
// discard path; failed is true for those runs even though err is nil.
func executeRun(ctx context.Context, eng *engine.Engine, decl engine.Declaration, run *manifest.Run) (failed bool, err error) {
	inferred, err := run.InferredKeys()
	if err != nil {
		return true, err
	}

	scope, err := eng.Open(ctx, decl, inferred)
	if err != nil {
		return true, err
	}

	defer func() {
		if r := recover(); r != nil {
			tr := otel.Tracer("assetline/runner")
			_, span := tr.Start(ctx, "CriticalPanic")

			stack := debug.Stack()
			span.RecordError(fmt.Errorf("%v", r), trace.WithStackTrace(true))
			span.SetStatus(codes.Error, "CRITICAL FAILURE")
			span.SetAttributes(
				attribute.String("crash.stack", string(stack)),
				attribute.String("crash.reason", fmt.Sprintf("%v", r)),
			)
			span.End()

			scope.Close(ctx, false)
			failed = true
			err = fmt.Errorf("work unit %s panicked: %v", decl.WorkUnit, r)
		}
	}()

	for _, mb := range run.Metadata {
		key, kerr := asset.ParseKey(mb.Key)
		if kerr != nil {
			scope.Close(ctx, false)
			return true, kerr
		}
		fields, ferr := mb.FieldMap()
		if ferr != nil {
			scope.Close(ctx, false)
			return true, ferr
		}
		if rerr := scope.Record(key, lineage.Metadata(fields)); rerr != nil {
			scope.Close(ctx, false)
			return true, fmt.Errorf("run of %s: %w", decl.WorkUnit, rerr)
		}
	}

	if cerr := scope.Close(ctx, !run.Fail); cerr != nil {
		return true, cerr
	}
	return run.Fail, nil
}
