package migrate

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/takak2166/wiz2onenote/internal/models"
)

// SavePage writes a normalized page under dir as <section>/<guid>.html with
// its resources in <section>/<guid>_files/.
func SavePage(dir string, doc models.DocumentRecord, page *models.NormalizedPage) error {
	sectionDir := filepath.Join(dir, SectionName(doc.Location))
	if err := os.MkdirAll(sectionDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	htmlPath := filepath.Join(sectionDir, doc.GUID+".html")
	if err := os.WriteFile(htmlPath, page.HTML, 0644); err != nil {
		return fmt.Errorf("failed to save page %s: %w", htmlPath, err)
	}

	if len(page.Resources) == 0 {
		return nil
	}

	filesDir := filepath.Join(sectionDir, doc.GUID+"_files")
	if err := os.MkdirAll(filesDir, 0755); err != nil {
		return fmt.Errorf("failed to create resource directory: %w", err)
	}
	for _, r := range page.Resources {
		// resource names come from the bundle, keep them inside filesDir
		name := filepath.Base(filepath.FromSlash(r.Name))
		if err := os.WriteFile(filepath.Join(filesDir, name), r.Data, 0644); err != nil {
			return fmt.Errorf("failed to save resource %s: %w", r.Name, err)
		}
	}
	return nil
}
