package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/starford/mdview/internal/docservice"
	"github.com/starford/mdview/internal/sse"
	"github.com/starford/mdview/internal/viewer"
)

// NewRouter creates a chi router with all API routes mounted.
// broker, if non-nil, serves GET /events and the per-session streams.
func NewRouter(docs *docservice.Service, sessions *viewer.Registry, broker *sse.Broker) chi.Router {
	h := NewHandler(docs, sessions)

	r := chi.NewRouter()
	r.Use(LimitBody(MaxBodyBytes))

	// Docs directory.
	r.Get("/files", h.ListFiles)
	r.Get("/files/{name}", h.GetFile)

	// Stateless render.
	r.Post("/render", h.Render)

	// Viewer and editor sessions.
	r.Post("/sessions", h.CreateSession)
	r.Get("/sessions/{id}", h.GetSession)
	r.Put("/sessions/{id}/content", h.UpdateContent)
	r.Delete("/sessions/{id}", h.DeleteSession)
	r.Post("/sessions/{id}/blocks/{block}/copy", h.CopyBlock)

	if broker != nil {
		r.Get("/sessions/{id}/events", broker.Handler(h.sessionTopic, h.attach))
		r.Get("/events", broker.ServeHTTP)
	}

	return r
}
