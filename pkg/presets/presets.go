// Package presets stores named parameter value sets in YAML so users can
// save a configuration and reapply it later, including against a newer
// revision of the model.
package presets

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-customizer/pkg/scad"
)

// Preset is one named value set. Values hold plain YAML/JSON shapes; Apply
// normalizes them against a schema.
type Preset struct {
	Name   string         `yaml:"name"`
	Values map[string]any `yaml:"values"`
}

// File is an ordered preset collection, as serialized to disk.
type File struct {
	Presets []Preset `yaml:"presets"`
}

// Load decodes a preset file.
func Load(r io.Reader) (*File, error) {
	var file File
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		if err == io.EOF {
			return &File{}, nil
		}
		return nil, fmt.Errorf("presets: decode: %w", err)
	}
	for i, preset := range file.Presets {
		if preset.Name == "" {
			return nil, fmt.Errorf("presets: preset %d has no name", i)
		}
	}
	return &file, nil
}

// LoadPath decodes the preset file at path. A missing file is an empty
// collection, not an error.
func LoadPath(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &File{}, nil
		}
		return nil, fmt.Errorf("presets: open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

// Save encodes the collection.
func (f *File) Save(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("presets: encode: %w", err)
	}
	return nil
}

// SavePath writes the collection to path, replacing any existing file.
func (f *File) SavePath(path string) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("presets: create %s: %w", path, err)
	}
	defer out.Close()
	return f.Save(out)
}

// Get looks up a preset by name.
func (f *File) Get(name string) (Preset, bool) {
	for _, preset := range f.Presets {
		if preset.Name == name {
			return preset, true
		}
	}
	return Preset{}, false
}

// Put replaces the preset with the same name, or appends when none exists.
func (f *File) Put(preset Preset) {
	for i, existing := range f.Presets {
		if existing.Name == preset.Name {
			f.Presets[i] = preset
			return
		}
	}
	f.Presets = append(f.Presets, preset)
}

// Remove drops the named preset and reports whether it was present.
func (f *File) Remove(name string) bool {
	for i, existing := range f.Presets {
		if existing.Name == name {
			f.Presets = append(f.Presets[:i], f.Presets[i+1:]...)
			return true
		}
	}
	return false
}

// Apply normalizes a preset's values against the schema. Names the schema
// no longer declares are skipped with a warning so an old preset survives a
// model revision; values that violate a constraint fail the whole apply.
func Apply(schema *scad.Schema, preset Preset) (map[string]any, []scad.Warning, error) {
	values := make(map[string]any, len(preset.Values))
	var warnings []scad.Warning

	for name, raw := range preset.Values {
		desc, ok := schema.Descriptor(name)
		if !ok {
			warnings = append(warnings, scad.Warning{
				Message: fmt.Sprintf("preset %q names unknown parameter %q", preset.Name, name),
			})
			continue
		}
		value, err := desc.Normalize(raw)
		if err != nil {
			return nil, warnings, fmt.Errorf("presets: %q value for %q: %w", preset.Name, name, err)
		}
		values[name] = value
	}
	return values, warnings, nil
}
