// Package policy screens outgoing lineage events against operator-defined
// conformance rules written in CEL.
package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Rule actions.
const (
	ActionWarn  = "warn"
	ActionBlock = "block"
)

// Rule represents a user-defined policy rule (e.g. from YAML).
type Rule struct {
	ID        string `yaml:"id" json:"id"`
	Condition string `yaml:"condition" json:"condition"` // CEL expression: "has_properties && size(owners) == 0"
	Action    string `yaml:"action" json:"action"`       // "warn", "block"
	Priority  int    `yaml:"priority,omitempty" json:"priority,omitempty"`
}

// Validate rejects rules the gate could not enforce.
func (r Rule) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("rule has no id")
	}
	if r.Condition == "" {
		return fmt.Errorf("rule %s has no condition", r.ID)
	}
	switch r.Action {
	case ActionWarn, ActionBlock:
		return nil
	default:
		return fmt.Errorf("rule %s: unknown action %q", r.ID, r.Action)
	}
}

// LoadRules reads a YAML rules file of the form:
//
//	rules:
//	  - id: unowned-asset
//	    condition: has_properties && size(owners) == 0
//	    action: warn
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var config struct {
		Rules []Rule `yaml:"rules"`
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse rules yaml: %w", err)
	}

	for _, r := range config.Rules {
		if err := r.Validate(); err != nil {
			return nil, err
		}
	}
	return config.Rules, nil
}

// DefaultRules returns a safe baseline.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:        "unowned-asset",
			Condition: "has_properties && size(owners) == 0",
			Action:    ActionWarn,
		},
	}
}
