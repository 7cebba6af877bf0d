// Package testutil provides shared test helpers for docs directories.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/mdview/internal/storage"
)

// DocsDir creates a temporary docs directory holding files and returns it
// with a sorted storage.Provider.
func DocsDir(t *testing.T, files map[string]string) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	store, err := storage.NewFS(dir, storage.WithSorted(true))
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}
