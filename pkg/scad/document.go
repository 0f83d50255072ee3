package scad

import (
	"errors"
	"sort"
)

// Document wraps a model's entry file plus every file reached through
// include/use chains. Holding the whole bundle lets the compile layer
// materialize an isolated workspace for the worker without touching the
// original tree.
type Document struct {
	mainPath string
	files    map[string][]byte
}

// NewDocument constructs a Document from an entry path and a path-to-bytes
// bundle. The bundle must contain the entry file.
func NewDocument(mainPath string, files map[string][]byte) (Document, error) {
	if mainPath == "" {
		return Document{}, errors.New("scad: main path is required")
	}
	if _, ok := files[mainPath]; !ok {
		return Document{}, errors.New("scad: bundle does not contain the main file")
	}
	clone := make(map[string][]byte, len(files))
	for path, data := range files {
		clone[path] = append([]byte(nil), data...)
	}
	return Document{mainPath: mainPath, files: clone}, nil
}

// MustNewDocument panics when construction fails. Useful for tests.
func MustNewDocument(mainPath string, files map[string][]byte) Document {
	doc, err := NewDocument(mainPath, files)
	if err != nil {
		panic(err)
	}
	return doc
}

// DocumentFromSource wraps a single in-memory source text with no includes.
func DocumentFromSource(name string, source []byte) Document {
	if name == "" {
		name = "model.scad"
	}
	return MustNewDocument(name, map[string][]byte{name: source})
}

// MainPath returns the entry file path within the bundle.
func (d Document) MainPath() string {
	return d.mainPath
}

// Source returns a defensive copy of the entry file's contents.
func (d Document) Source() []byte {
	return append([]byte(nil), d.files[d.mainPath]...)
}

// File returns the contents of a bundled file.
func (d Document) File(path string) ([]byte, bool) {
	data, ok := d.files[path]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), data...), true
}

// Paths lists every bundled file path in stable order.
func (d Document) Paths() []string {
	paths := make([]string, 0, len(d.files))
	for path := range d.files {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Len reports the number of bundled files.
func (d Document) Len() int {
	return len(d.files)
}
