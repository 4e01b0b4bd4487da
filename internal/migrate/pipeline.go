package migrate

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/takak2166/wiz2onenote/internal/locator"
	"github.com/takak2166/wiz2onenote/internal/logger"
	"github.com/takak2166/wiz2onenote/internal/models"
	"github.com/takak2166/wiz2onenote/internal/transform"
)

// Options tunes a Pipeline
type Options struct {
	Workers   int    // Concurrent uploads, 1 keeps strict discovery order
	OutputDir string // When set, normalized pages are also written here
}

// Result is the outcome for one document
type Result struct {
	Document  models.DocumentRecord
	SectionID string
	PageID    string
	Err       error
}

// Report lists results in discovery order
type Report struct {
	Results []Result
}

// Succeeded counts uploaded documents
func (r *Report) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.Err == nil {
			n++
		}
	}
	return n
}

// Failures returns the failed documents in discovery order
func (r *Report) Failures() []Result {
	var failed []Result
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

// Pipeline moves every document of a catalog into its section
type Pipeline struct {
	locator     locator.Locator
	transformer *transform.Transformer
	uploader    *Uploader
	opts        Options
}

// NewPipeline creates a new Pipeline
func NewPipeline(loc locator.Locator, tr *transform.Transformer, up *Uploader, opts Options) *Pipeline {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Pipeline{
		locator:     loc,
		transformer: tr,
		uploader:    up,
		opts:        opts,
	}
}

// CheckHierarchy verifies uploads may start: the hierarchy is sealed and
// maps every folder of the catalog.
func CheckHierarchy(h *models.RemoteHierarchy, catalog *models.Catalog) error {
	if h == nil || !h.Sealed() {
		return fmt.Errorf("hierarchy not built: %w", models.ErrHierarchyIncomplete)
	}
	for _, g := range catalog.Groups {
		if _, ok := h.SectionID(g.Location); !ok {
			return fmt.Errorf("no section for folder %q: %w", g.Location, models.ErrHierarchyIncomplete)
		}
	}
	return nil
}

// Run processes every document. A failing document is recorded in the report
// and never stops its siblings; only a missing section aborts before any upload.
func (p *Pipeline) Run(ctx context.Context, h *models.RemoteHierarchy, catalog *models.Catalog) (*Report, error) {
	if err := CheckHierarchy(h, catalog); err != nil {
		return nil, err
	}

	docs := catalog.Documents()
	results := make([]Result, len(docs))

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(p.opts.Workers)

	for i, doc := range docs {
		sectionID, _ := h.SectionID(doc.Location)
		results[i] = Result{Document: doc, SectionID: sectionID}

		eg.Go(func() error {
			pageID, err := p.process(gctx, catalog.DataDir, sectionID, doc)
			results[i].PageID = pageID
			results[i].Err = err
			if err != nil {
				logger.Error("Failed to migrate document", err, map[string]interface{}{
					"location": doc.Location,
					"title":    doc.Title,
					"guid":     doc.GUID,
				})
			}
			return nil
		})
	}
	_ = eg.Wait()

	report := &Report{Results: results}
	logger.Info("Migration completed", map[string]interface{}{
		"total_documents": len(docs),
		"success_count":   report.Succeeded(),
		"failure_count":   len(docs) - report.Succeeded(),
	})
	return report, nil
}

func (p *Pipeline) process(ctx context.Context, dataDir, sectionID string, doc models.DocumentRecord) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	logger.Info("Processing document", map[string]interface{}{
		"location": doc.Location,
		"title":    doc.Title,
		"guid":     doc.GUID,
	})

	path, err := p.locator.Locate(dataDir, doc)
	if err != nil {
		return "", err
	}

	bundle, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read bundle: %w: %w", models.ErrDocumentNotFound, err)
	}

	page, err := p.transformer.Transform(bundle, doc)
	if err != nil {
		return "", err
	}

	if p.opts.OutputDir != "" {
		if err := SavePage(p.opts.OutputDir, doc, page); err != nil {
			return "", err
		}
	}

	return p.uploader.Upload(ctx, sectionID, page)
}
