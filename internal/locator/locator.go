// Package locator resolves where a document's bundle lives inside a WizNote
// data directory. The layout differs per host platform.
package locator

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/takak2166/wiz2onenote/internal/models"
)

// Locator maps a document record to its bundle path
type Locator interface {
	Locate(dataDir string, doc models.DocumentRecord) (string, error)
}

// GUIDLocator finds bundles stored as notes/{guid} (Linux and macOS clients)
type GUIDLocator struct{}

func (GUIDLocator) Locate(dataDir string, doc models.DocumentRecord) (string, error) {
	return checkBundle(filepath.Join(dataDir, "notes", "{"+doc.GUID+"}"))
}

// FolderLocator finds bundles stored under their folder path and storage name (Windows client)
type FolderLocator struct{}

func (FolderLocator) Locate(dataDir string, doc models.DocumentRecord) (string, error) {
	folder := filepath.FromSlash(strings.Trim(doc.Location, "/"))
	return checkBundle(filepath.Join(dataDir, folder, doc.Name))
}

// ForPlatform returns the locator for a GOOS value; empty means the host
func ForPlatform(goos string) (Locator, error) {
	if goos == "" {
		goos = runtime.GOOS
	}

	switch goos {
	case "linux", "darwin":
		return GUIDLocator{}, nil
	case "windows":
		return FolderLocator{}, nil
	default:
		return nil, fmt.Errorf("unsupported platform %q", goos)
	}
}

func checkBundle(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("bundle %s: %w", path, models.ErrDocumentNotFound)
	}
	if info.IsDir() {
		return "", fmt.Errorf("bundle %s is a directory: %w", path, models.ErrDocumentNotFound)
	}
	return path, nil
}
