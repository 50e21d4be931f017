package lineage

import (
	"github.com/DrSkyle/assetline/pkg/asset"
	"github.com/DrSkyle/assetline/pkg/registry"
)

// ResolveDependencies merges the dependencies observed from data flow
// with the references declared on the work unit. Explicit references go
// through the registry first, so a declared dependency that nothing else
// ever registered still gets a canonical entry (with whatever properties
// the declaration carried, possibly none). The work unit's own outputs
// are removed so no event ever depends on itself. The result is a set:
// duplicates collapse and callers must not rely on ordering.
func ResolveDependencies(reg *registry.Registry, explicit []asset.Asset, inferred []asset.Key, outputs asset.KeySet) asset.KeySet {
	deps := asset.NewKeySet(inferred...)
	for _, ref := range explicit {
		c := reg.Resolve(ref)
		deps.Add(c.Key)
	}
	deps.Subtract(outputs)
	return deps
}
