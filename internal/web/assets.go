package web

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// AssetHandler serves the non-Markdown files of the docs directory, such as
// images referenced by relative links.
type AssetHandler struct {
	root string
}

// NewAssetHandler creates a handler rooted at the docs directory.
func NewAssetHandler(root string) *AssetHandler {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}
	return &AssetHandler{root: abs}
}

// safeName validates that the filename is a plain name (no path separators,
// no traversal) and returns the absolute path under the docs dir.
func (h *AssetHandler) safeName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("filename is required")
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") || strings.HasPrefix(cleaned, ".") {
		return "", fmt.Errorf("invalid filename: %s", name)
	}
	abs := filepath.Join(h.root, cleaned)
	if !strings.HasPrefix(abs, h.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("path escapes docs directory")
	}
	return abs, nil
}

// Serve writes the asset name.
func (h *AssetHandler) Serve(w http.ResponseWriter, r *http.Request, name string) {
	abs, err := h.safeName(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	info, statErr := os.Stat(abs)
	if statErr != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, abs)
}
