package web

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/starford/mdview/internal/clipboard"
	"github.com/starford/mdview/internal/docservice"
	"github.com/starford/mdview/internal/render"
	"github.com/starford/mdview/internal/testutil"
	"github.com/starford/mdview/internal/viewer"
)

func testRouter(t *testing.T, files map[string]string) (http.Handler, *viewer.Registry, string) {
	t.Helper()
	dir, store := testutil.DocsDir(t, files)
	renderer := render.New()
	sessions := viewer.NewRegistry(renderer, clipboard.Discard{}, nil)
	t.Cleanup(sessions.CloseAll)
	h := NewHandler(docservice.NewService(store, renderer, nil), sessions, dir, nil)
	r := chi.NewRouter()
	h.Mount(r)
	return r, sessions, dir
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestIndex_ListsFiles(t *testing.T) {
	h, _, _ := testRouter(t, map[string]string{"README.md": "# Read me", "notes.txt": "x"})
	w := get(t, h, "/")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{
		"<title>Markdown Viewer</title>",
		"Markdown Files",
		`href="/note-editor"`,
		`href="/readme/README.md"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("index missing %q", want)
		}
	}
	if strings.Contains(body, "notes.txt") {
		t.Error("non-markdown file listed")
	}
}

func TestIndex_Empty(t *testing.T) {
	h, _, _ := testRouter(t, nil)
	if body := get(t, h, "/").Body.String(); !strings.Contains(body, "No markdown files found.") {
		t.Errorf("empty index = %s", body)
	}
}

func TestReadme_OpensSession(t *testing.T) {
	h, sessions, _ := testRouter(t, map[string]string{
		"guide.md": "# Guide\n\n```go\nfmt.Println(1)\n```\n",
	})
	w := get(t, h, "/readme/guide.md")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{"← Back to Home", "<h1>Guide</h1>", "data-copy-block", ">Copy</button>", "data-session="} {
		if !strings.Contains(body, want) {
			t.Errorf("readme missing %q", want)
		}
	}
	if sessions.Len() != 1 || len(sessions.ByName("guide.md")) != 1 {
		t.Errorf("sessions = %d", sessions.Len())
	}
}

func TestReadme_Errors(t *testing.T) {
	h, _, _ := testRouter(t, nil)
	if w := get(t, h, "/readme/missing.md"); w.Code != http.StatusNotFound {
		t.Errorf("missing = %d", w.Code)
	}
	if w := get(t, h, "/readme/..%2Fsecret.md"); w.Code != http.StatusBadRequest {
		t.Errorf("traversal = %d", w.Code)
	}
}

func TestReadme_ServesAssets(t *testing.T) {
	h, _, dir := testRouter(t, nil)
	if err := os.WriteFile(filepath.Join(dir, "diagram.svg"), []byte("<svg/>"), 0o644); err != nil {
		t.Fatal(err)
	}
	w := get(t, h, "/readme/diagram.svg")
	if w.Code != http.StatusOK || w.Body.String() != "<svg/>" {
		t.Errorf("asset = %d %q", w.Code, w.Body.String())
	}
	if w := get(t, h, "/readme/.env"); w.Code != http.StatusBadRequest {
		t.Errorf("dotfile = %d", w.Code)
	}
	if w := get(t, h, "/readme/absent.png"); w.Code != http.StatusNotFound {
		t.Errorf("absent asset = %d", w.Code)
	}
}

func TestEditor(t *testing.T) {
	h, sessions, _ := testRouter(t, nil)
	body := get(t, h, "/note-editor").Body.String()
	if !strings.Contains(body, "<textarea") || !strings.Contains(body, EditorTemplate) {
		t.Errorf("editor missing textarea or template: %s", body)
	}
	if !strings.Contains(body, "<h1>Hello Markdown</h1>") {
		t.Error("editor preview not rendered")
	}
	if sessions.Len() != 1 {
		t.Errorf("sessions = %d", sessions.Len())
	}
}

func TestStatic(t *testing.T) {
	h, _, _ := testRouter(t, nil)
	w := get(t, h, "/static/app.js")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "window.mdview") {
		t.Errorf("static = %d", w.Code)
	}
}
