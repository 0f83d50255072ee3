package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	customizer "github.com/goliatone/go-customizer"
	"github.com/goliatone/go-customizer/pkg/compile"
	"github.com/goliatone/go-customizer/pkg/params"
	"github.com/goliatone/go-customizer/pkg/presets"
	"github.com/goliatone/go-customizer/pkg/render"
	tuirenderer "github.com/goliatone/go-customizer/pkg/renderers/tui"
	"github.com/goliatone/go-customizer/pkg/scad"
	"github.com/goliatone/go-customizer/pkg/schemaexport"
)

type setFlags []string

func (s *setFlags) String() string { return strings.Join(*s, ",") }

func (s *setFlags) Set(value string) error {
	*s = append(*s, value)
	return nil
}

func main() {
	model := flag.String("model", "model.scad", "annotated model path")
	rendererName := flag.String("renderer", "html", "renderer to use: html, page or tui")
	output := flag.String("output", "", "output file (stdout if empty)")
	schemaOut := flag.Bool("schema", false, "print the parameter schema as JSON and exit")
	exportFormat := flag.String("export", "", "compile to the given mesh format (stl, off, 3mf, glb) instead of rendering a form")
	compilerBin := flag.String("compiler", "openscad", "compiler binary used for -export")
	presetsPath := flag.String("presets", "", "preset file to read -preset from")
	presetName := flag.String("preset", "", "preset to apply before rendering or exporting")
	var sets setFlags
	flag.Var(&sets, "set", "override a parameter, name=value (repeatable)")
	flag.Parse()

	ctx := context.Background()

	dir, entry := filepath.Split(*model)
	if dir == "" {
		dir = "."
	}
	doc, schema, warnings, err := customizer.ParseDir(dir, entry)
	if err != nil {
		log.Fatalf("failed to load model: %v", err)
	}
	for _, warning := range warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", warning)
	}

	store, err := params.NewStore(schema)
	if err != nil {
		log.Fatalf("failed to build parameter store: %v", err)
	}

	if *presetName != "" {
		if err := applyPreset(store, *presetsPath, *presetName); err != nil {
			log.Fatalf("failed to apply preset: %v", err)
		}
	}
	for _, pair := range sets {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			log.Fatalf("invalid -set %q, want name=value", pair)
		}
		if _, err := store.Set(name, value); err != nil {
			log.Fatalf("failed to set %s: %v", name, err)
		}
	}

	var out []byte
	switch {
	case *schemaOut:
		out, err = schemaexport.JSON(schema)
	case *exportFormat != "":
		out, err = exportMesh(ctx, doc, schema, store, *compilerBin, *exportFormat)
	default:
		out, err = renderForm(ctx, *rendererName, schema, store)
	}
	if err != nil {
		log.Fatalf("failed to generate output: %v", err)
	}

	if *output != "" {
		if err := os.WriteFile(*output, out, 0o644); err != nil {
			log.Fatalf("failed to write output: %v", err)
		}
		fmt.Fprintf(os.Stderr, "written to %s\n", *output)
	} else {
		_, _ = os.Stdout.Write(out)
	}
}

func applyPreset(store *params.Store, path, name string) error {
	if path == "" {
		return fmt.Errorf("-preset requires -presets")
	}
	file, err := presets.LoadPath(path)
	if err != nil {
		return err
	}
	preset, ok := file.Get(name)
	if !ok {
		return fmt.Errorf("preset %q not found in %s", name, path)
	}
	values, warnings, err := presets.Apply(store.Schema(), preset)
	if err != nil {
		return err
	}
	for _, warning := range warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", warning)
	}
	_, _, err = store.Apply(values)
	return err
}

func renderForm(ctx context.Context, name string, schema *scad.Schema, store *params.Store) ([]byte, error) {
	opts := render.RenderOptions{Values: store.Snapshot().Values()}

	if name == "tui" {
		renderer, err := tuirenderer.New()
		if err != nil {
			return nil, err
		}
		return renderer.Render(ctx, schema, opts)
	}

	registry, err := customizer.DefaultRegistry()
	if err != nil {
		return nil, err
	}
	renderer, err := registry.Get(name)
	if err != nil {
		return nil, err
	}
	return renderer.Render(ctx, schema, opts)
}

func exportMesh(ctx context.Context, doc scad.Document, schema *scad.Schema, store *params.Store, compilerBin, format string) ([]byte, error) {
	var meshFormat compile.MeshFormat
	switch f := compile.MeshFormat(strings.ToLower(format)); f {
	case compile.FormatSTL, compile.FormatOFF, compile.Format3MF, compile.FormatGLB:
		meshFormat = f
	default:
		return nil, fmt.Errorf("unsupported mesh format %q", format)
	}

	_, controller, err := customizer.NewPipeline(doc, schema, compilerBin)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		_ = controller.Run(runCtx)
	}()

	return controller.Export(ctx, store.Snapshot(), meshFormat)
}
