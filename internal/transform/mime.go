package transform

import (
	"mime"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

// contentType guesses from the file extension and falls back to sniffing data
func contentType(name string, data []byte) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return mimetype.Detect(data).String()
}
