package loader

import (
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
)

func TestLoadFollowsIncludes(t *testing.T) {
	fsys := fstest.MapFS{
		"model.scad": &fstest.MapFile{Data: []byte("include <lib/shapes.scad>\nwidth = 10;\n")},
		"lib/shapes.scad": &fstest.MapFile{Data: []byte("use <helpers.scad>\n")},
		"lib/helpers.scad": &fstest.MapFile{Data: []byte("function helper() = 1;\n")},
	}

	doc, warnings, err := New(fsys).Load("model.scad")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}

	want := []string{"lib/helpers.scad", "lib/shapes.scad", "model.scad"}
	if diff := cmp.Diff(want, doc.Paths()); diff != "" {
		t.Fatalf("bundle mismatch (-want +got):\n%s", diff)
	}
	if doc.MainPath() != "model.scad" {
		t.Fatalf("unexpected main path %q", doc.MainPath())
	}
}

func TestLoadToleratesIncludeCycles(t *testing.T) {
	fsys := fstest.MapFS{
		"a.scad": &fstest.MapFile{Data: []byte("include <b.scad>\n")},
		"b.scad": &fstest.MapFile{Data: []byte("include <a.scad>\n")},
	}

	doc, _, err := New(fsys).Load("a.scad")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if doc.Len() != 2 {
		t.Fatalf("expected two files, got %d", doc.Len())
	}
}

func TestLoadMissingIncludeWarns(t *testing.T) {
	fsys := fstest.MapFS{
		"model.scad": &fstest.MapFile{Data: []byte("include <missing.scad>\nwidth = 1;\n")},
	}

	doc, warnings, err := New(fsys).Load("model.scad")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if doc.Len() != 1 {
		t.Fatalf("expected only the entry file, got %d", doc.Len())
	}
	if len(warnings) != 1 {
		t.Fatalf("expected a warning for the missing include, got %v", warnings)
	}
}

func TestLoadMissingEntryFails(t *testing.T) {
	if _, _, err := New(fstest.MapFS{}).Load("absent.scad"); err == nil {
		t.Fatalf("expected error for missing entry file")
	}
}
