package api

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/mdview/internal/checksum"
	"github.com/starford/mdview/internal/docservice"
	"github.com/starford/mdview/internal/models"
	"github.com/starford/mdview/internal/viewer"
)

// Handler holds API route handlers.
type Handler struct {
	docs     *docservice.Service
	sessions *viewer.Registry
}

// NewHandler creates a new Handler.
func NewHandler(docs *docservice.Service, sessions *viewer.Registry) *Handler {
	return &Handler{docs: docs, sessions: sessions}
}

// docName extracts the file name from the URL.
// Supports encoded names from clients (e.g. my%20notes.md).
func docName(r *http.Request) string {
	raw := chi.URLParam(r, "name")
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListFiles handles GET /api/files.
//
//	@Summary		List the Markdown files of the docs directory
//	@Tags			files
//	@Produce		json
//	@Success		200	{object}	FileListResponse
//	@Router			/files [get]
func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	files := h.docs.ListFiles(r.Context())
	if files == nil {
		files = []models.FileRef{}
	}
	writeJSON(w, http.StatusOK, FileListResponse{Files: files, Total: len(files)})
}

// GetFile handles GET /api/files/{name}.
//
//	@Summary		Get a rendered docs file
//	@Tags			files
//	@Produce		json
//	@Param			name	path		string	true	"File name"
//	@Success		200		{object}	DocumentResponse
//	@Success		304		"Not modified"
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Router			/files/{name} [get]
func (h *Handler) GetFile(w http.ResponseWriter, r *http.Request) {
	name := docName(r)
	doc, err := h.docs.GetDocument(r.Context(), name)
	if err != nil {
		writeError(w, "get file", err)
		return
	}
	etag := checksum.ETag([]byte(doc.Content))
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// Render handles POST /api/render.
//
//	@Summary		Render Markdown without keeping state
//	@Tags			render
//	@Accept			json
//	@Produce		json
//	@Param			body	body		RenderRequest	true	"Markdown source"
//	@Success		200		{object}	DocumentResponse
//	@Failure		400		{object}	errResponse
//	@Router			/render [post]
func (h *Handler) Render(w http.ResponseWriter, r *http.Request) {
	var req RenderRequest
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.docs.Render(r.Context(), []byte(req.Content), nil))
}

// CreateSession handles POST /api/sessions.
//
//	@Summary		Open a viewer or editor session
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateSessionRequest	true	"Docs file or editor content"
//	@Success		201		{object}	SessionResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Router			/sessions [post]
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if !decode(w, r, &req) {
		return
	}
	s, err := openSession(r.Context(), h.docs, h.sessions, req.Name, []byte(req.Content))
	if err != nil {
		writeError(w, "create session", err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse(s))
}

// openSession opens a session on the docs file name, or on content when
// name is empty.
func openSession(ctx context.Context, docs *docservice.Service, sessions *viewer.Registry, name string, content []byte) (*viewer.Session, error) {
	if name == "" {
		return sessions.Open("", content), nil
	}
	data, err := docs.ReadFile(ctx, name)
	if err != nil {
		return nil, err
	}
	return sessions.Open(name, data), nil
}

// GetSession handles GET /api/sessions/{id}.
//
//	@Summary		Get a session with its current render
//	@Tags			sessions
//	@Produce		json
//	@Param			id	path		string	true	"Session id"
//	@Success		200	{object}	SessionResponse
//	@Failure		404	{object}	errResponse
//	@Router			/sessions/{id} [get]
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get session", err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(s))
}

// UpdateContent handles PUT /api/sessions/{id}/content.
//
//	@Summary		Replace the source of a session and re-render it
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Session id"
//	@Param			body	body		UpdateContentRequest	true	"New content"
//	@Success		200		{object}	SessionResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Router			/sessions/{id}/content [put]
func (h *Handler) UpdateContent(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "update content", err)
		return
	}
	var req UpdateContentRequest
	if !decode(w, r, &req) {
		return
	}
	s.Update([]byte(*req.Content))
	writeJSON(w, http.StatusOK, sessionResponse(s))
}

// DeleteSession handles DELETE /api/sessions/{id}.
//
//	@Summary		Close a session
//	@Tags			sessions
//	@Param			id	path	string	true	"Session id"
//	@Success		204	"Session closed"
//	@Failure		404	{object}	errResponse
//	@Router			/sessions/{id} [delete]
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Close(chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CopyBlock handles POST /api/sessions/{id}/blocks/{block}/copy.
//
//	@Summary		Copy a code block and show its acknowledgment
//	@Tags			sessions
//	@Produce		json
//	@Param			id		path		string	true	"Session id"
//	@Param			block	path		int		true	"Block id"
//	@Success		200		{object}	CopyResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		410		{object}	errResponse
//	@Router			/sessions/{id}/blocks/{block}/copy [post]
func (h *Handler) CopyBlock(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "copy block", err)
		return
	}
	id, err := strconv.Atoi(chi.URLParam(r, "block"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("block must be an integer"))
		return
	}
	res, err := s.Copy(r.Context(), id)
	if err != nil {
		writeError(w, "copy block", err)
		return
	}
	resp := CopyResponse{
		Block:    res.Block.ID,
		Ordinal:  res.Block.Ordinal,
		Language: res.Block.Language,
		Code:     res.Block.Code,
		State:    res.State.String(),
		Label:    res.State.Label(),
	}
	if res.ClipboardErr != nil {
		resp.ClipboardError = res.ClipboardErr.Error()
		slog.Debug("copy acknowledged without clipboard",
			slog.String("session", s.ID),
			slog.Int("block", id))
	}
	writeJSON(w, http.StatusOK, resp)
}

// sessionTopic resolves the event topic of the session in the URL.
func (h *Handler) sessionTopic(r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if _, err := h.sessions.Get(id); err != nil {
		return "", false
	}
	return viewer.Topic(id), true
}

// attach keeps a session alive while its event stream is open.
func (h *Handler) attach(topic string) func() {
	s, err := h.sessions.Get(strings.TrimPrefix(topic, viewer.Topic("")))
	if err != nil {
		return nil
	}
	s.Attach()
	return s.Detach
}
