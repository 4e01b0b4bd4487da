package onenote

import (
	"context"
	"io"
)

//go:generate mockgen -source=onenote.go -destination=mock_onenote/mock_onenote.go -package=mock_onenote
type API interface {
	CreateNotebook(ctx context.Context, name string) (string, error)
	CreateSection(ctx context.Context, notebookID, name string) (string, error)
	CreatePage(ctx context.Context, sectionID string, body io.Reader, contentType string) (string, error)
}
