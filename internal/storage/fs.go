package storage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/starford/mdview/internal/apperr"
	"github.com/starford/mdview/internal/models"
)

// Ext is the suffix a file needs to be listed.
const Ext = ".md"

// FS implements Provider backed by the local file system.
type FS struct {
	root   string // absolute path to docs directory
	sorted bool
	logger *slog.Logger
}

// FSOption configures an FS.
type FSOption func(*FS)

// WithSorted makes List return names in lexical order instead of directory
// order.
func WithSorted(sorted bool) FSOption {
	return func(f *FS) { f.sorted = sorted }
}

// WithLogger sets the logger used for listing diagnostics.
func WithLogger(l *slog.Logger) FSOption {
	return func(f *FS) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewFS creates a provider rooted at the given directory. The directory
// does not need to exist yet.
func NewFS(root string, opts ...FSOption) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	f := &FS{root: abs, logger: slog.Default()}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Root returns the absolute docs directory.
func (f *FS) Root() string {
	return f.root
}

// List returns every entry directly under the root whose name ends in .md.
// Order is whatever the directory enumeration yields unless sorting was
// requested.
func (f *FS) List() []models.FileRef {
	names, err := readNames(f.root)
	if err != nil {
		f.logger.Warn("storage: list docs directory",
			slog.String("path", f.root),
			slog.String("error", err.Error()))
		return []models.FileRef{}
	}
	if f.sorted {
		slices.Sort(names)
	}
	out := make([]models.FileRef, 0, len(names))
	for _, n := range names {
		if strings.HasSuffix(n, Ext) {
			out = append(out, models.FileRef{Name: n})
		}
	}
	return out
}

func readNames(dir string) ([]string, error) {
	d, err := os.Open(dir)
	if err != nil {
		return nil, err
	}
	defer d.Close()
	return d.Readdirnames(-1)
}

// ListMarkdownFiles lists the Markdown files of dir in directory order.
// A missing or unreadable directory yields an empty slice.
func ListMarkdownFiles(dir string) []string {
	f, err := NewFS(dir)
	if err != nil {
		slog.Warn("storage: list docs directory", slog.String("path", dir), slog.String("error", err.Error()))
		return []string{}
	}
	return models.Names(f.List())
}

// safeName validates that name is a plain Markdown file name (no separators,
// no traversal) and returns its absolute path under the root.
func (f *FS) safeName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("storage: file name is required: %w", apperr.ErrInvalid)
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || cleaned == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("storage: invalid file name %q: %w", name, apperr.ErrInvalid)
	}
	if !strings.HasSuffix(cleaned, Ext) {
		return "", fmt.Errorf("storage: not a markdown file %q: %w", name, apperr.ErrInvalid)
	}
	abs := filepath.Join(f.root, cleaned)
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("storage: path escapes docs root %q: %w", name, apperr.ErrInvalid)
	}
	return abs, nil
}

// Read returns the raw bytes of a docs file.
func (f *FS) Read(name string) ([]byte, error) {
	abs, err := f.safeName(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", name, err)
	}
	return data, nil
}
