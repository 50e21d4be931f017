package asset

// Properties is the optional descriptor bundle for an asset. Every field
// is independently optional and a nil pointer means "never set", which is
// distinct from a pointer to a zero value ("explicitly cleared"). The
// distinction survives JSON round-trips and downstream renderers depend
// on it.
type Properties struct {
	Name        *string   `json:"name,omitempty"`
	Description *string   `json:"description,omitempty"`
	Owners      *[]string `json:"owners,omitempty"`
	URL         *string   `json:"url,omitempty"`
}

// String returns a pointer to v. Shorthand for building sparse Properties.
func String(v string) *string { return &v }

// OwnerList builds an owners value, de-duplicating while preserving
// first-seen order.
func OwnerList(names ...string) *[]string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return &out
}

// Clone returns a deep copy, so callers can hold snapshots without
// racing the registry's canonical value. Clone of nil is nil.
func (p *Properties) Clone() *Properties {
	if p == nil {
		return nil
	}
	out := &Properties{}
	if p.Name != nil {
		v := *p.Name
		out.Name = &v
	}
	if p.Description != nil {
		v := *p.Description
		out.Description = &v
	}
	if p.Owners != nil {
		v := make([]string, len(*p.Owners))
		copy(v, *p.Owners)
		out.Owners = &v
	}
	if p.URL != nil {
		v := *p.URL
		out.URL = &v
	}
	return out
}

// Equal reports field-wise equality, treating nil and pointer-to-zero as
// different values.
func (p *Properties) Equal(o *Properties) bool {
	if p == nil || o == nil {
		return p == o
	}
	if !eqStrPtr(p.Name, o.Name) || !eqStrPtr(p.Description, o.Description) || !eqStrPtr(p.URL, o.URL) {
		return false
	}
	if (p.Owners == nil) != (o.Owners == nil) {
		return false
	}
	if p.Owners != nil {
		a, b := *p.Owners, *o.Owners
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if a[i] != b[i] {
				return false
			}
		}
	}
	return true
}

func eqStrPtr(a, b *string) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || *a == *b
}
