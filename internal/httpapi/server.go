// Package httpapi exposes the customizer over HTTP: schema and form
// delivery, parameter updates, preview meshes, exports, presets and a live
// event stream.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-customizer/pkg/compile"
	"github.com/goliatone/go-customizer/pkg/params"
	"github.com/goliatone/go-customizer/pkg/pipeline"
	"github.com/goliatone/go-customizer/pkg/presets"
	"github.com/goliatone/go-customizer/pkg/render"
	"github.com/goliatone/go-customizer/pkg/schemaexport"
)

// Pipeline is the slice of the render controller the API depends on.
type Pipeline interface {
	Events() <-chan pipeline.Event
	Update(snapshot params.Snapshot)
	Export(ctx context.Context, snapshot params.Snapshot, format compile.MeshFormat) ([]byte, error)
}

// Option customizes a Server.
type Option func(*Server)

// WithTheme attaches theme tokens passed through to HTML rendering.
func WithTheme(cfg *theme.RendererConfig) Option {
	return func(s *Server) { s.theme = cfg }
}

// WithInfo sets the metadata stamped onto schema exports.
func WithInfo(info schemaexport.Info) Option {
	return func(s *Server) { s.info = info }
}

// WithPresets attaches a preset collection; path, when non-empty, is
// rewritten after every mutation.
func WithPresets(file *presets.File, path string) Option {
	return func(s *Server) {
		s.presets = file
		s.presetsPath = path
	}
}

// WithAssets serves the given filesystem under /assets/.
func WithAssets(fsys http.FileSystem) Option {
	return func(s *Server) { s.assets = fsys }
}

// Server glues the parameter store, render controller and renderers behind
// an HTTP surface.
type Server struct {
	store    *params.Store
	pipe     Pipeline
	registry *render.Registry
	broker   *broker
	theme    *theme.RendererConfig
	info     schemaexport.Info
	assets   http.FileSystem

	presetMu    sync.Mutex
	presets     *presets.File
	presetsPath string
}

// New builds a Server. Run must be started for /events and /mesh to carry
// data.
func New(store *params.Store, pipe Pipeline, registry *render.Registry, opts ...Option) *Server {
	s := &Server{
		store:    store,
		pipe:     pipe,
		registry: registry,
		broker:   newBroker(),
		presets:  &presets.File{},
	}
	for _, apply := range opts {
		apply(s)
	}
	return s
}

// Run pumps pipeline events into the broker until ctx ends or the pipeline
// closes its event channel.
func (s *Server) Run(ctx context.Context) {
	s.broker.run(ctx, s.pipe.Events())
}

// Router assembles the chi route tree.
func (s *Server) Router() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	router.Get("/healthz", s.handleHealthz)
	router.Get("/", s.handlePage)
	router.Get("/form", s.handleForm)
	router.Post("/form", s.handleFormSubmit)
	router.Get("/schema", s.handleSchema)
	router.Get("/schema/openapi", s.handleOpenAPI)
	router.Get("/parameters", s.handleParameters)
	router.Put("/parameters/{name}", s.handleSetParameter)
	router.Get("/mesh", s.handleMesh)
	router.Get("/export", s.handleExport)
	router.Get("/events", s.handleEvents)

	router.Route("/presets", func(r chi.Router) {
		r.Get("/", s.handleListPresets)
		r.Put("/{name}", s.handleSavePreset)
		r.Post("/{name}/apply", s.handleApplyPreset)
		r.Delete("/{name}", s.handleDeletePreset)
	})

	if s.assets != nil {
		router.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServer(s.assets)))
	}
	return router
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	s.renderForm(w, r, "page", nil)
}

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	s.renderForm(w, r, "html", nil)
}

func (s *Server) renderForm(w http.ResponseWriter, r *http.Request, name string, fieldErrors map[string][]string) {
	renderer, err := s.registry.Get(name)
	if err != nil {
		http.Error(w, fmt.Sprintf("renderer lookup failed: %v", err), http.StatusInternalServerError)
		return
	}

	opts := render.RenderOptions{
		Title:  s.info.Title,
		Values: s.store.Snapshot().Values(),
		Errors: fieldErrors,
		Theme:  s.theme,
	}
	out, err := renderer.Render(r.Context(), s.store.Schema(), opts)
	if err != nil {
		http.Error(w, fmt.Sprintf("render failed: %v", err), http.StatusInternalServerError)
		return
	}

	status := http.StatusOK
	if len(fieldErrors) > 0 {
		status = http.StatusUnprocessableEntity
	}
	w.Header().Set("Content-Type", renderer.ContentType())
	w.WriteHeader(status)
	_, _ = w.Write(out)
}

func (s *Server) handleFormSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "failed to parse form", http.StatusBadRequest)
		return
	}

	values, fieldErrors := render.ParseSubmission(s.store.Schema(), r.PostForm)
	if len(fieldErrors) > 0 {
		s.renderForm(w, r, "html", fieldErrors)
		return
	}

	snapshot, _, err := s.store.Apply(values)
	if err != nil {
		http.Error(w, fmt.Sprintf("apply failed: %v", err), http.StatusUnprocessableEntity)
		return
	}
	s.pipe.Update(snapshot)
	s.renderForm(w, r, "html", nil)
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	out, err := schemaexport.JSON(s.store.Schema())
	if err != nil {
		http.Error(w, fmt.Sprintf("schema export failed: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(out)
}

func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	doc, err := schemaexport.OpenAPI(s.store.Schema(), s.info)
	if err != nil {
		http.Error(w, fmt.Sprintf("openapi export failed: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleParameters(w http.ResponseWriter, r *http.Request) {
	snapshot := s.store.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"generation": snapshot.Generation(),
		"values":     snapshot.Values(),
	})
}

type setParameterRequest struct {
	Value any `json:"value"`
}

func (s *Server) handleSetParameter(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, ok := s.store.Schema().Descriptor(name); !ok {
		http.NotFound(w, r)
		return
	}

	var body setParameterRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	snapshot, err := s.store.Set(name, body.Value)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	s.pipe.Update(snapshot)
	writeJSON(w, http.StatusOK, map[string]any{"generation": snapshot.Generation()})
}

func (s *Server) handleMesh(w http.ResponseWriter, r *http.Request) {
	mesh, format, generation, ok := s.broker.latestMesh()
	if !ok {
		http.Error(w, "no mesh rendered yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", meshContentType(format))
	w.Header().Set("X-Customizer-Generation", fmt.Sprintf("%d", generation))
	_, _ = w.Write(mesh)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := parseMeshFormat(r.URL.Query().Get("format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	mesh, err := s.pipe.Export(r.Context(), s.store.Snapshot(), format)
	if err != nil {
		switch {
		case errors.Is(err, pipeline.ErrSuperseded):
			http.Error(w, "export superseded by a newer edit", http.StatusConflict)
		case errors.Is(err, pipeline.ErrClosed):
			http.Error(w, "render pipeline stopped", http.StatusServiceUnavailable)
		default:
			http.Error(w, fmt.Sprintf("export failed: %v", err), http.StatusBadGateway)
		}
		return
	}

	w.Header().Set("Content-Type", meshContentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "model."+string(format)))
	_, _ = w.Write(mesh)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	events, cancel := s.broker.subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(25 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case ev, open := <-events:
			if !open {
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	s.presetMu.Lock()
	names := make([]string, 0, len(s.presets.Presets))
	for _, preset := range s.presets.Presets {
		names = append(names, preset.Name)
	}
	s.presetMu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"presets": names})
}

func (s *Server) handleSavePreset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		http.Error(w, "preset name required", http.StatusBadRequest)
		return
	}

	preset := presets.Preset{Name: name, Values: s.store.Snapshot().Values()}

	s.presetMu.Lock()
	s.presets.Put(preset)
	err := s.persistPresetsLocked()
	s.presetMu.Unlock()
	if err != nil {
		http.Error(w, fmt.Sprintf("save preset failed: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"name": name})
}

func (s *Server) handleApplyPreset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	s.presetMu.Lock()
	preset, ok := s.presets.Get(name)
	s.presetMu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}

	values, warnings, err := presets.Apply(s.store.Schema(), preset)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}

	snapshot, applyWarnings, err := s.store.Apply(values)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	s.pipe.Update(snapshot)

	messages := make([]string, 0, len(warnings)+len(applyWarnings))
	for _, warning := range warnings {
		messages = append(messages, warning.String())
	}
	for _, warning := range applyWarnings {
		messages = append(messages, warning.String())
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"generation": snapshot.Generation(),
		"warnings":   messages,
	})
}

func (s *Server) handleDeletePreset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	s.presetMu.Lock()
	removed := s.presets.Remove(name)
	var err error
	if removed {
		err = s.persistPresetsLocked()
	}
	s.presetMu.Unlock()

	if !removed {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("persist presets failed: %v", err), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) persistPresetsLocked() error {
	if s.presetsPath == "" {
		return nil
	}
	return s.presets.SavePath(s.presetsPath)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func parseMeshFormat(raw string) (compile.MeshFormat, error) {
	if raw == "" {
		return compile.FormatSTL, nil
	}
	switch format := compile.MeshFormat(raw); format {
	case compile.FormatSTL, compile.FormatOFF, compile.Format3MF, compile.FormatGLB:
		return format, nil
	default:
		return "", fmt.Errorf("unsupported mesh format %q", raw)
	}
}

func meshContentType(format compile.MeshFormat) string {
	switch format {
	case compile.FormatSTL:
		return "model/stl"
	case compile.FormatOFF:
		return "text/plain; charset=utf-8"
	case compile.Format3MF:
		return "model/3mf"
	case compile.FormatGLB:
		return "model/gltf-binary"
	default:
		return "application/octet-stream"
	}
}
