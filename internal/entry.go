// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/mdview/internal/api"
	"github.com/starford/mdview/internal/clipboard"
	"github.com/starford/mdview/internal/codeblock"
	"github.com/starford/mdview/internal/docservice"
	"github.com/starford/mdview/internal/render"
	"github.com/starford/mdview/internal/sse"
	"github.com/starford/mdview/internal/storage"
	"github.com/starford/mdview/internal/viewer"
	"github.com/starford/mdview/internal/watch"
	"github.com/starford/mdview/internal/web"
)

// NewLogger returns the structured JSON logger used across the application.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewDocService builds the storage, renderer and document service from cfg.
func NewDocService(cfg *Config, logger *slog.Logger) (*docservice.Service, error) {
	store, err := storage.NewFS(cfg.Docs.Path,
		storage.WithSorted(cfg.Docs.Sorted),
		storage.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	renderer := render.New(
		render.WithHighlightStyle(cfg.Render.HighlightStyle),
		render.WithRawHTML(cfg.Render.AllowRawHTML))
	return docservice.NewService(store, renderer, logger), nil
}

// NewClipboard returns the clipboard selected by cfg.
func NewClipboard(cfg *Config) codeblock.Clipboard {
	if cfg.Clipboard.Mode == ClipboardModeHost {
		return clipboard.Host{}
	}
	return clipboard.Discard{}
}

// NewHandler assembles the HTTP handler: health checks, the API under /api
// and the pages.
func NewHandler(docs *docservice.Service, sessions *viewer.Registry, broker *sse.Broker, docsRoot string, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints.
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", api.NewRouter(docs, sessions, broker))

	web.NewHandler(docs, sessions, docsRoot, logger).Mount(r)

	return r
}

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	logger := NewLogger(os.Stdout, cfg.App.LogLevel)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("docs_path", cfg.Docs.Path),
		slog.String("clipboard_mode", cfg.Clipboard.Mode),
		slog.String("log_level", cfg.App.LogLevel.String()))

	docs, err := NewDocService(cfg, logger)
	if err != nil {
		return err
	}

	clip := app.clip
	if clip == nil {
		clip = NewClipboard(cfg)
	}

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	sessions := viewer.NewRegistry(docs.Renderer(), clip,
		func(id string, snap codeblock.Snapshot) {
			broker.Publish(sse.Event{Topic: viewer.Topic(id), Type: "copy.state", Data: snap})
		},
		viewer.WithResetDelay(cfg.Viewer.CopyReset),
		viewer.WithIdleTTL(cfg.Viewer.SessionTTL),
		viewer.WithPendingTTL(cfg.Viewer.PendingTTL),
		viewer.WithLogger(logger))

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: NewHandler(docs, sessions, broker, cfg.Docs.Path, logger),
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start docs watcher with SSE callback.
	if cfg.Docs.Watch {
		g.Go(func() error {
			return watch.Watch(gCtx, cfg.Docs.Path, watch.DefaultDebounce, logger, func(kind, name string) {
				broker.PublishDocEvent(kind, name)
				if kind == "deleted" {
					return
				}
				data, readErr := docs.ReadFile(gCtx, name)
				if readErr != nil {
					return
				}
				for _, s := range sessions.Reload(name, data) {
					broker.Publish(sse.Event{Topic: viewer.Topic(s.ID), Type: "doc.changed", Data: map[string]string{"name": name}})
				}
			})
		})
	}

	// Evict idle viewer sessions.
	g.Go(func() error {
		return sessions.Run(gCtx)
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		// Event streams never finish on their own.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher and sweeper stop with the server.
var errShutdown = errors.New("shutdown")
