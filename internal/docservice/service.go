// Package docservice coordinates the docs directory and the renderer.
package docservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/mdview/internal/apperr"
	"github.com/starford/mdview/internal/checksum"
	"github.com/starford/mdview/internal/codeblock"
	"github.com/starford/mdview/internal/models"
	"github.com/starford/mdview/internal/parser"
	"github.com/starford/mdview/internal/render"
	"github.com/starford/mdview/internal/storage"
)

// Document is a rendered Markdown file.
type Document struct {
	Name     string            `json:"name,omitempty"`
	Title    string            `json:"title"`
	Content  string            `json:"content"`
	Checksum string            `json:"checksum"`
	HTML     string            `json:"html"`
	Blocks   []codeblock.Block `json:"blocks"`
}

// Service serves documents from a storage provider.
type Service struct {
	store    storage.Provider
	renderer *render.Renderer
	logger   *slog.Logger
}

// NewService creates a new document service.
func NewService(store storage.Provider, renderer *render.Renderer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, renderer: renderer, logger: logger}
}

// Renderer returns the renderer used by the service.
func (s *Service) Renderer() *render.Renderer {
	return s.renderer
}

// ListFiles returns the Markdown files of the docs directory.
func (s *Service) ListFiles(_ context.Context) []models.FileRef {
	return s.store.List()
}

// ReadFile returns the raw content of a docs file.
func (s *Service) ReadFile(_ context.Context, name string) ([]byte, error) {
	data, err := s.store.Read(name)
	if err != nil {
		switch {
		case errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("%s: %w", name, apperr.ErrNotFound)
		case errors.Is(err, apperr.ErrInvalid):
			return nil, err
		}
		s.logger.Error("read doc failed", slog.String("name", name), slog.String("error", err.Error()))
		return nil, err
	}
	return data, nil
}

// GetDocument reads and renders a docs file.
func (s *Service) GetDocument(ctx context.Context, name string) (*Document, error) {
	data, err := s.ReadFile(ctx, name)
	if err != nil {
		return nil, err
	}
	doc := s.Render(ctx, data, nil)
	doc.Name = name
	return doc, nil
}

// Render renders content that is not backed by a file. labels may be nil.
func (s *Service) Render(_ context.Context, content []byte, labels codeblock.Labeler) *Document {
	out := s.renderer.Render(content, labels)
	return &Document{
		Title:    parser.Parse(content).Title,
		Content:  string(content),
		Checksum: checksum.Sum(content),
		HTML:     out.HTML(),
		Blocks:   nonNilSlice(out.Blocks),
	}
}

// Block returns the 1-based n-th code block of a docs file.
func (s *Service) Block(ctx context.Context, name string, n int) (codeblock.Block, error) {
	doc, err := s.GetDocument(ctx, name)
	if err != nil {
		return codeblock.Block{}, err
	}
	if n < 1 || n > len(doc.Blocks) {
		return codeblock.Block{}, fmt.Errorf("%s: code block %d of %d: %w", name, n, len(doc.Blocks), apperr.ErrNotFound)
	}
	return doc.Blocks[n-1], nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
