// Package web serves the listing, viewer and editor pages.
package web

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/mdview/internal/apperr"
	"github.com/starford/mdview/internal/docservice"
	"github.com/starford/mdview/internal/models"
	"github.com/starford/mdview/internal/storage"
	"github.com/starford/mdview/internal/viewer"
)

// EditorTemplate is the initial content of the note editor.
const EditorTemplate = "# Hello Markdown"

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var pages = map[string]*template.Template{
	"index":  parsePage("index.html"),
	"readme": parsePage("readme.html"),
	"editor": parsePage("editor.html"),
}

func parsePage(name string) *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/"+name))
}

type indexData struct {
	Title string
	Files []models.FileRef
}

type documentData struct {
	Title     string
	Name      string
	SessionID string
	Source    string
	Content   template.HTML
}

// Handler serves the HTML pages.
type Handler struct {
	docs     *docservice.Service
	sessions *viewer.Registry
	assets   *AssetHandler
	logger   *slog.Logger
}

// NewHandler creates a page handler. docsRoot is served for non-Markdown
// files referenced by documents, such as images.
func NewHandler(docs *docservice.Service, sessions *viewer.Registry, docsRoot string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		docs:     docs,
		sessions: sessions,
		assets:   NewAssetHandler(docsRoot),
		logger:   logger,
	}
}

// Mount registers the page routes on r.
func (h *Handler) Mount(r chi.Router) {
	static, _ := fs.Sub(staticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	r.Get("/", h.Index)
	r.Get("/readme/{file}", h.Readme)
	r.Get("/note-editor", h.Editor)
}

// Index handles GET /, the listing page.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	h.render(w, "index", indexData{Files: h.docs.ListFiles(r.Context())})
}

// Readme handles GET /readme/{file}. Markdown files open a viewer session;
// other files are served as document assets.
func (h *Handler) Readme(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "file")
	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}
	if !strings.HasSuffix(name, storage.Ext) {
		h.assets.Serve(w, r, name)
		return
	}

	data, err := h.docs.ReadFile(r.Context(), name)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			http.NotFound(w, r)
		case errors.Is(err, apperr.ErrInvalid):
			http.Error(w, "invalid file name", http.StatusBadRequest)
		default:
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	s := h.sessions.Open(name, data)
	h.render(w, "readme", documentData{
		Title:     name,
		Name:      name,
		SessionID: s.ID,
		Content:   template.HTML(s.Document().HTML()),
	})
}

// Editor handles GET /note-editor, the two-pane editor with live preview.
func (h *Handler) Editor(w http.ResponseWriter, _ *http.Request) {
	s := h.sessions.Open("", []byte(EditorTemplate))
	h.render(w, "editor", documentData{
		Title:     "Note",
		SessionID: s.ID,
		Source:    EditorTemplate,
		Content:   template.HTML(s.Document().HTML()),
	})
}

func (h *Handler) render(w http.ResponseWriter, page string, data any) {
	var buf bytes.Buffer
	if err := pages[page].ExecuteTemplate(&buf, "layout", data); err != nil {
		h.logger.Error("render page failed", slog.String("page", page), slog.String("error", err.Error()))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
