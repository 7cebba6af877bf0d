package api

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/mdview/internal/codeblock"
	"github.com/starford/mdview/internal/docservice"
	"github.com/starford/mdview/internal/models"
	"github.com/starford/mdview/internal/viewer"
)

var fileName = regexp.MustCompile(`^[^/\\]+\.md$`)

// RenderRequest is the request body for a stateless render.
type RenderRequest struct {
	Content string `json:"content" example:"# Hello Markdown"`
}

// CreateSessionRequest opens a viewer session on a docs file, or an editor
// session on Content when Name is empty.
type CreateSessionRequest struct {
	Name    string `json:"name,omitempty" example:"README.md"`
	Content string `json:"content,omitempty" example:"# Hello Markdown"`
}

// Validate validates the request.
func (r *CreateSessionRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.When(r.Name != "", validation.Match(fileName).Error("must be a .md file name"))),
	)
}

// UpdateContentRequest replaces the source of a session.
type UpdateContentRequest struct {
	Content *string `json:"content"`
}

// Validate validates the request.
func (r *UpdateContentRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Content, validation.NotNil),
	)
}

// FileListResponse wraps the docs listing.
type FileListResponse struct {
	Files []models.FileRef `json:"files" validate:"required"`
	Total int              `json:"total" example:"3" validate:"required"`
}

// DocumentResponse is a rendered document (aliased from the domain layer).
type DocumentResponse = docservice.Document

// SessionResponse describes a session and its current render.
type SessionResponse struct {
	ID     string             `json:"id" validate:"required"`
	Name   string             `json:"name,omitempty" example:"README.md"`
	HTML   string             `json:"html" validate:"required"`
	Blocks []codeblock.Block  `json:"blocks" validate:"required"`
	Copied codeblock.Snapshot `json:"copied"`
}

// CopyResponse is returned after a copy action.
type CopyResponse struct {
	Block          int    `json:"block" example:"42"`
	Ordinal        int    `json:"ordinal" example:"0"`
	Language       string `json:"language" example:"js"`
	Code           string `json:"code" example:"const x = 1;"`
	State          string `json:"state" example:"copied"`
	Label          string `json:"label" example:"Copied!"`
	ClipboardError string `json:"clipboard_error,omitempty"`
}

func sessionResponse(s *viewer.Session) SessionResponse {
	doc := s.Document()
	blocks := doc.Blocks
	if blocks == nil {
		blocks = []codeblock.Block{}
	}
	return SessionResponse{
		ID:     s.ID,
		Name:   s.Name,
		HTML:   doc.HTML(),
		Blocks: blocks,
		Copied: s.Snapshot(),
	}
}
