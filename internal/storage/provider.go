// Package storage reads Markdown files from the docs directory.
package storage

import "github.com/starford/mdview/internal/models"

// Provider is the interface for docs directory access.
type Provider interface {
	// List returns the Markdown files directly under the docs directory.
	// It never fails: an unreadable directory yields an empty list.
	List() []models.FileRef
	// Read returns the raw bytes of the named file.
	Read(name string) ([]byte, error)
	// Root returns the absolute docs directory.
	Root() string
}
