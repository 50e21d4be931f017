// Package asset defines the identity model for lineage tracking: keys,
// descriptor properties, and references. Values here are plain data;
// the registry owns all mutation rules.
package asset

// Asset pairs a key with an optional descriptor. An Asset with nil
// Properties doubles as a bare-key reference: it resolves to the
// canonical entry without touching stored properties, while a non-nil
// Properties value replaces the stored descriptor wholesale.
type Asset struct {
	Key        Key         `json:"key"`
	Properties *Properties `json:"properties,omitempty"`
}

// New builds an asset reference carrying a descriptor.
func New(key Key, props *Properties) Asset {
	return Asset{Key: key, Properties: props}
}

// KeyRef builds a bare-key reference.
func KeyRef(key Key) Asset {
	return Asset{Key: key}
}

// Validate checks the key shape. Properties need no validation; every
// field combination is legal.
func (a Asset) Validate() error {
	return a.Key.Validate()
}
