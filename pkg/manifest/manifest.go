// Package manifest loads HCL pipeline descriptions: which assets each work
// unit materializes and depends on, plus recorded runs to replay.
package manifest

import (
	"fmt"

	"github.com/DrSkyle/assetline/pkg/asset"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// File is the decoded root of one manifest.
type File struct {
	Pipelines []*Pipeline `hcl:"pipeline,block"`
}

// Pipeline groups work units and their recorded runs.
type Pipeline struct {
	Name      string      `hcl:"name,label"`
	WorkUnits []*WorkUnit `hcl:"work_unit,block"`
	Runs      []*Run      `hcl:"run,block"`
}

// WorkUnit declares the assets one unit materializes and depends on.
type WorkUnit struct {
	Name         string        `hcl:"name,label"`
	Materializes []*AssetBlock `hcl:"materializes,block"`
	DependsOn    []*AssetBlock `hcl:"depends_on,block"`
}

// AssetBlock is one asset reference. Absent attributes stay nil, so a block
// carrying only a key decodes to a bare reference; `name = ""` is an
// explicit clear, not an omission.
type AssetBlock struct {
	Key         string    `hcl:"key"`
	Name        *string   `hcl:"name,optional"`
	Description *string   `hcl:"description,optional"`
	Owners      *[]string `hcl:"owners,optional"`
	URL         *string   `hcl:"url,optional"`
}

// Run is one recorded execution of a work unit.
type Run struct {
	WorkUnit string           `hcl:"work_unit,label"`
	Inferred []string         `hcl:"inferred,optional"`
	Fail     bool             `hcl:"fail,optional"`
	Metadata []*MetadataBlock `hcl:"metadata,block"`
}

// MetadataBlock carries runtime metadata fields recorded for one asset.
type MetadataBlock struct {
	Key    string    `hcl:"key,label"`
	Fields cty.Value `hcl:"fields"`
}

// Load reads and validates one manifest file.
func Load(path string) (*File, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, diags)
	}
	return decode(hclFile.Body, path)
}

// LoadBytes parses manifest source held in memory.
func LoadBytes(src []byte, filename string) (*File, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", filename, diags)
	}
	return decode(hclFile.Body, filename)
}

func decode(body hcl.Body, name string) (*File, error) {
	var f File
	if diags := gohcl.DecodeBody(body, nil, &f); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode manifest %s: %w", name, diags)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", name, err)
	}
	return &f, nil
}

// Validate checks structural rules: unique labels, parseable keys, runs that
// reference declared work units. Whether a metadata key is a declared target
// stays a runtime concern.
func (f *File) Validate() error {
	seenPipelines := make(map[string]struct{}, len(f.Pipelines))
	for _, p := range f.Pipelines {
		if p.Name == "" {
			return fmt.Errorf("pipeline with empty name")
		}
		if _, dup := seenPipelines[p.Name]; dup {
			return fmt.Errorf("duplicate pipeline %q", p.Name)
		}
		seenPipelines[p.Name] = struct{}{}

		units := make(map[string]struct{}, len(p.WorkUnits))
		for _, w := range p.WorkUnits {
			if w.Name == "" {
				return fmt.Errorf("pipeline %q: work unit with empty name", p.Name)
			}
			if _, dup := units[w.Name]; dup {
				return fmt.Errorf("pipeline %q: duplicate work unit %q", p.Name, w.Name)
			}
			units[w.Name] = struct{}{}

			for _, b := range append(append([]*AssetBlock{}, w.Materializes...), w.DependsOn...) {
				if _, err := b.Asset(); err != nil {
					return fmt.Errorf("pipeline %q, work unit %q: %w", p.Name, w.Name, err)
				}
			}
		}

		for _, r := range p.Runs {
			if _, ok := units[r.WorkUnit]; !ok {
				return fmt.Errorf("pipeline %q: run references unknown work unit %q", p.Name, r.WorkUnit)
			}
			if _, err := r.InferredKeys(); err != nil {
				return fmt.Errorf("pipeline %q, run of %q: %w", p.Name, r.WorkUnit, err)
			}
			for _, m := range r.Metadata {
				if _, err := asset.ParseKey(m.Key); err != nil {
					return fmt.Errorf("pipeline %q, run of %q: %w", p.Name, r.WorkUnit, err)
				}
				if _, err := m.FieldMap(); err != nil {
					return fmt.Errorf("pipeline %q, run of %q, metadata %q: %w", p.Name, r.WorkUnit, m.Key, err)
				}
			}
		}
	}
	return nil
}

// Unit returns the named work unit, nil when absent.
func (p *Pipeline) Unit(name string) *WorkUnit {
	for _, w := range p.WorkUnits {
		if w.Name == name {
			return w
		}
	}
	return nil
}

// Asset converts the block into a reference: bare when no descriptor
// attribute was given, otherwise a full replacement descriptor.
func (b *AssetBlock) Asset() (asset.Asset, error) {
	key, err := asset.ParseKey(b.Key)
	if err != nil {
		return asset.Asset{}, err
	}
	if b.Name == nil && b.Description == nil && b.Owners == nil && b.URL == nil {
		return asset.KeyRef(key), nil
	}

	props := &asset.Properties{
		Name:        b.Name,
		Description: b.Description,
		URL:         b.URL,
	}
	if b.Owners != nil {
		props.Owners = asset.OwnerList(*b.Owners...)
	}
	return asset.New(key, props), nil
}

// Targets resolves the materializes blocks.
func (w *WorkUnit) Targets() ([]asset.Asset, error) {
	return blockAssets(w.Materializes)
}

// Dependencies resolves the depends_on blocks.
func (w *WorkUnit) Dependencies() ([]asset.Asset, error) {
	return blockAssets(w.DependsOn)
}

func blockAssets(blocks []*AssetBlock) ([]asset.Asset, error) {
	out := make([]asset.Asset, 0, len(blocks))
	for _, b := range blocks {
		a, err := b.Asset()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// InferredKeys parses the run's inferred dependency list.
func (r *Run) InferredKeys() ([]asset.Key, error) {
	out := make([]asset.Key, 0, len(r.Inferred))
	for _, raw := range r.Inferred {
		k, err := asset.ParseKey(raw)
		if err != nil {
			return nil, fmt.Errorf("inferred dependency: %w", err)
		}
		out = append(out, k)
	}
	return out, nil
}
