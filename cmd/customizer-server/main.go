package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	theme "github.com/goliatone/go-theme"

	customizer "github.com/goliatone/go-customizer"
	"github.com/goliatone/go-customizer/internal/httpapi"
	"github.com/goliatone/go-customizer/pkg/cache"
	"github.com/goliatone/go-customizer/pkg/compile"
	"github.com/goliatone/go-customizer/pkg/config"
	"github.com/goliatone/go-customizer/pkg/pipeline"
	"github.com/goliatone/go-customizer/pkg/presets"
	htmlrenderer "github.com/goliatone/go-customizer/pkg/renderers/html"
	"github.com/goliatone/go-customizer/pkg/schemaexport"
	"github.com/goliatone/go-customizer/pkg/telemetry"
)

func main() {
	cfg, err := config.LoadServer()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Tracing {
		shutdown := telemetry.InitTracer(ctx, "customizer-server")
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(shutdownCtx)
		}()
	}

	dir, entry := filepath.Split(cfg.ModelPath)
	if dir == "" {
		dir = "."
	}
	doc, schema, warnings, err := customizer.ParseDir(dir, entry)
	if err != nil {
		log.Fatalf("failed to load model %s: %v", cfg.ModelPath, err)
	}
	for _, warning := range warnings {
		log.Printf("model warning: %s", warning)
	}

	pipelineOpts := []pipeline.Option{
		pipeline.WithDebounce(cfg.Debounce),
		pipeline.WithJobTimeout(cfg.JobTimeout),
		pipeline.WithPreviewFormat(compile.MeshFormat(cfg.PreviewFormat)),
	}
	if cfg.RedisURL != "" {
		redisCache, err := cache.NewRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect mesh cache: %v", err)
		}
		defer redisCache.Close()
		pipelineOpts = append(pipelineOpts, pipeline.WithCache(redisCache))
	} else if cfg.CacheBytes > 0 {
		pipelineOpts = append(pipelineOpts, pipeline.WithCache(cache.NewMemory(cfg.CacheBytes)))
	}

	store, controller, err := customizer.NewPipeline(doc, schema, cfg.CompilerBin, pipelineOpts...)
	if err != nil {
		log.Fatalf("failed to build pipeline: %v", err)
	}
	go func() {
		if err := controller.Run(ctx); err != nil && err != context.Canceled {
			log.Printf("pipeline stopped: %v", err)
		}
	}()

	registry, err := customizer.DefaultRegistry()
	if err != nil {
		log.Fatalf("failed to build renderers: %v", err)
	}

	presetFile, err := presets.LoadPath(cfg.PresetsPath)
	if err != nil {
		log.Fatalf("failed to load presets: %v", err)
	}

	server := httpapi.New(store, controller, registry,
		httpapi.WithInfo(schemaexport.Info{Title: entry, Version: "1.0.0"}),
		httpapi.WithTheme(&theme.RendererConfig{
			AssetURL: func(name string) string { return cfg.AssetURL + name },
		}),
		httpapi.WithPresets(presetFile, cfg.PresetsPath),
		httpapi.WithAssets(http.FS(htmlrenderer.AssetsFS())),
	)
	go server.Run(ctx)

	httpSrv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: server.Router(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Printf("server shutdown error: %v", err)
		}
	}()

	log.Printf("customizer listening on %s", cfg.ListenAddr)
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("customizer listen failed: %v", err)
	}

	<-ctx.Done()
	log.Println("customizer stopped")
}
