package policy

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/checker/decls"
)

// EvaluationContext is the flattened view of one outgoing event that rule
// conditions evaluate against.
type EvaluationContext struct {
	Key             string
	WorkUnit        string
	HasProperties   bool
	Owners          []string
	DependencyCount int
	Metadata        map[string]any
}

// CELEngine manages the compilation and execution of dynamic rules.
type CELEngine struct {
	env      *cel.Env
	programs map[string]cel.Program
	rules    map[string]Rule
	order    []string
}

// NewCELEngine initializes the CEL environment with the supported variable
// declarations.
func NewCELEngine() (*CELEngine, error) {
	env, err := cel.NewEnv(
		cel.Declarations(
			decls.NewVar("key", decls.String),
			decls.NewVar("work_unit", decls.String),
			decls.NewVar("has_properties", decls.Bool),
			decls.NewVar("owners", decls.NewListType(decls.String)),
			decls.NewVar("dependency_count", decls.Int),
			decls.NewVar("metadata", decls.NewMapType(decls.String, decls.Dyn)),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL env: %w", err)
	}

	return &CELEngine{
		env:      env,
		programs: make(map[string]cel.Program),
		rules:    make(map[string]Rule),
	}, nil
}

// Compile compiles a list of rules into executable programs.
func (e *CELEngine) Compile(rules []Rule) error {
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			return err
		}

		ast, issues := e.env.Compile(r.Condition)
		if issues != nil && issues.Err() != nil {
			return fmt.Errorf("rule %s compilation error: %w", r.ID, issues.Err())
		}

		prg, err := e.env.Program(ast)
		if err != nil {
			return fmt.Errorf("rule %s program creation error: %w", r.ID, err)
		}

		if _, dup := e.programs[r.ID]; !dup {
			e.order = append(e.order, r.ID)
		}
		e.programs[r.ID] = prg
		e.rules[r.ID] = r
	}
	return nil
}

// Evaluate checks if the event matches any rules.
// Returns the matched rules, highest priority first.
func (e *CELEngine) Evaluate(ctx context.Context, ec EvaluationContext) ([]Rule, error) {
	vars := map[string]any{
		"key":              ec.Key,
		"work_unit":        ec.WorkUnit,
		"has_properties":   ec.HasProperties,
		"owners":           ec.Owners,
		"dependency_count": ec.DependencyCount,
		"metadata":         ec.Metadata,
	}
	if ec.Owners == nil {
		vars["owners"] = []string{}
	}
	if ec.Metadata == nil {
		vars["metadata"] = map[string]any{}
	}

	var matches []Rule
	for _, id := range e.order {
		out, _, err := e.programs[id].ContextEval(ctx, vars)
		if err != nil {
			slog.Error("Rule evaluation failed", "rule_id", id, "error", err)
			continue
		}

		// We expect rules to return a boolean (true = match/violation)
		if match, ok := out.Value().(bool); ok && match {
			matches = append(matches, e.rules[id])
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Priority > matches[j].Priority
	})
	return matches, nil
}
