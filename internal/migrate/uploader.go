package migrate

import (
	"context"
	"fmt"

	"github.com/takak2166/wiz2onenote/internal/models"
	"github.com/takak2166/wiz2onenote/internal/onenote"
)

// Uploader submits normalized pages
type Uploader struct {
	api onenote.API
}

// NewUploader creates a new Uploader
func NewUploader(api onenote.API) *Uploader {
	return &Uploader{api: api}
}

// Upload creates a page in the section from the HTML and its resources
func (u *Uploader) Upload(ctx context.Context, sectionID string, page *models.NormalizedPage) (string, error) {
	body, contentType, err := onenote.EncodePage(page)
	if err != nil {
		return "", fmt.Errorf("failed to encode page %q: %w", page.Title, err)
	}
	return u.api.CreatePage(ctx, sectionID, body, contentType)
}
