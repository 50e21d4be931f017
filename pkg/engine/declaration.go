package engine

import (
	"fmt"

	"github.com/DrSkyle/assetline/pkg/asset"
)

// Declaration names what one work unit materializes and what it depends on.
type Declaration struct {
	WorkUnit string
	Targets  []asset.Asset // assets this unit materializes
	Deps     []asset.Asset // explicit upstream references
}

// Validate rejects declarations with malformed keys. Declaration problems
// are fatal; nothing downstream can repair a bad key.
func (d Declaration) Validate() error {
	if d.WorkUnit == "" {
		return fmt.Errorf("declaration has no work unit name")
	}
	for _, t := range d.Targets {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("target of %s: %w", d.WorkUnit, err)
		}
	}
	for _, dep := range d.Deps {
		if err := dep.Validate(); err != nil {
			return fmt.Errorf("dependency of %s: %w", d.WorkUnit, err)
		}
	}
	return nil
}

// TargetKeys returns the declared target set.
func (d Declaration) TargetKeys() asset.KeySet {
	s := asset.NewKeySet()
	for _, t := range d.Targets {
		s.Add(t.Key)
	}
	return s
}
