package onenote

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/takak2166/wiz2onenote/internal/logger"
)

// DryRun satisfies API without contacting OneNote. Every call is logged and
// answered with a generated id.
type DryRun struct {
	seq atomic.Int64
}

func (d *DryRun) next(kind string) string {
	return fmt.Sprintf("dry-run-%s-%d", kind, d.seq.Add(1))
}

func (d *DryRun) CreateNotebook(ctx context.Context, name string) (string, error) {
	logger.Info("Dry run: skip notebook creation", map[string]interface{}{
		"name": name,
	})
	return d.next("notebook"), nil
}

func (d *DryRun) CreateSection(ctx context.Context, notebookID, name string) (string, error) {
	logger.Info("Dry run: skip section creation", map[string]interface{}{
		"name": name,
	})
	return d.next("section"), nil
}

func (d *DryRun) CreatePage(ctx context.Context, sectionID string, body io.Reader, contentType string) (string, error) {
	n, err := io.Copy(io.Discard, body)
	if err != nil {
		return "", fmt.Errorf("failed to read page body: %w", err)
	}
	logger.Debug("Dry run: skip page creation", map[string]interface{}{
		"section_id": sectionID,
		"bytes":      n,
	})
	return d.next("page"), nil
}
