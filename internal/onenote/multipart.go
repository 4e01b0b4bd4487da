package onenote

import (
	"bytes"
	"fmt"
	"mime"
	"mime/multipart"
	"net/textproto"

	"github.com/takak2166/wiz2onenote/internal/models"
)

// PresentationPart is the part name OneNote reads the page HTML from
const PresentationPart = "Presentation"

// EncodePage builds the multipart body for a page: the HTML followed by one
// part per resource named after the resource, matching the name: markers in
// the HTML.
func EncodePage(page *models.NormalizedPage) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := writePart(w, PresentationPart, page.HTMLContentType, page.HTML); err != nil {
		return nil, "", err
	}

	seen := make(map[string]bool, len(page.Resources))
	for _, r := range page.Resources {
		if r.Name == PresentationPart || seen[r.Name] {
			return nil, "", fmt.Errorf("duplicate multipart part %q", r.Name)
		}
		seen[r.Name] = true

		if err := writePart(w, r.Name, r.ContentType, r.Data); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish multipart body: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func writePart(w *multipart.Writer, name, contentType string, data []byte) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{"name": name}))
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}

	part, err := w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("failed to create part %q: %w", name, err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("failed to write part %q: %w", name, err)
	}
	return nil
}
