// Package transform turns a WizNote document bundle into an upload-ready
// OneNote page.
package transform

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/takak2166/wiz2onenote/internal/logger"
	"github.com/takak2166/wiz2onenote/internal/models"
)

const (
	// IndexMember is the primary HTML entry of a bundle
	IndexMember = "index.html"
	// DefaultAssetsDir holds the images referenced from IndexMember
	DefaultAssetsDir = "index_files"
	// MarkerPrefix binds an <img> to the multipart part of the same name
	MarkerPrefix = "name:"
	// DefaultMaxResources is the image count above which OneNote tends to reject a page
	DefaultMaxResources = 5
	// CreatedFormat renders the creation time with its numeric offset
	CreatedFormat = "2006-01-02T15:04:05-07:00"
)

// DefaultLocation is the fixed UTC-8 zone DT_CREATED values have always been read in
var DefaultLocation = time.FixedZone("", -8*60*60)

// Transformer converts bundles. It holds no per-document state and is safe
// for concurrent use.
type Transformer struct {
	location     *time.Location
	assetsDir    string
	assetPattern *regexp.Regexp
	maxResources int
	reporter     models.Reporter
}

// Option configures a Transformer
type Option func(*Transformer)

// WithLocation sets the zone the creation timestamp is interpreted in
func WithLocation(loc *time.Location) Option {
	return func(t *Transformer) {
		t.location = loc
	}
}

// WithAssetsDir overrides the bundle directory images are read from
func WithAssetsDir(dir string) Option {
	return func(t *Transformer) {
		t.assetsDir = dir
	}
}

// WithMaxResources sets the image count that triggers a warning; 0 disables it
func WithMaxResources(n int) Option {
	return func(t *Transformer) {
		t.maxResources = n
	}
}

// WithReporter sets the diagnostic sink
func WithReporter(r models.Reporter) Option {
	return func(t *Transformer) {
		t.reporter = r
	}
}

// New creates a Transformer
func New(opts ...Option) *Transformer {
	t := &Transformer{
		location:     DefaultLocation,
		assetsDir:    DefaultAssetsDir,
		maxResources: DefaultMaxResources,
		reporter:     logger.Diagnostics{},
	}
	for _, opt := range opts {
		opt(t)
	}
	t.assetPattern = regexp.MustCompile(`^` + regexp.QuoteMeta(t.assetsDir) + `/(.+)$`)
	return t
}

// Transform reads the bundle of doc and returns the normalized page
func (t *Transformer) Transform(bundle []byte, doc models.DocumentRecord) (*models.NormalizedPage, error) {
	logger.Debug("Transforming document", map[string]interface{}{
		"guid":  doc.GUID,
		"title": doc.Title,
	})

	archive, err := zip.NewReader(bytes.NewReader(bundle), int64(len(bundle)))
	if err != nil {
		return nil, fmt.Errorf("failed to open bundle: %w: %w", models.ErrCorruptBundle, err)
	}

	index, err := readMember(archive, IndexMember)
	if err != nil {
		return nil, err
	}

	out, err := t.normalize(index, doc)
	if err != nil {
		return nil, err
	}

	page := &models.NormalizedPage{
		Title:           doc.Title,
		HTML:            out.html,
		HTMLContentType: contentType(IndexMember, out.html),
	}

	for _, name := range out.assets {
		data, err := readMember(archive, t.assetsDir+"/"+name)
		if err != nil {
			return nil, err
		}
		page.Resources = append(page.Resources, models.Resource{
			Name:        name,
			Data:        data,
			ContentType: contentType(name, data),
		})
	}

	if t.maxResources > 0 && len(page.Resources) > t.maxResources {
		t.reporter.Warn("Upload may fail with this many images", map[string]interface{}{
			"location": doc.Location,
			"title":    doc.Title,
			"guid":     doc.GUID,
			"images":   len(page.Resources),
			"limit":    t.maxResources,
		})
	}

	return page, nil
}

// created renders the wall-clock creation time in the configured zone
func (t *Transformer) created(c time.Time) string {
	return time.Date(c.Year(), c.Month(), c.Day(), c.Hour(), c.Minute(), c.Second(), 0, t.location).Format(CreatedFormat)
}

func readMember(archive *zip.Reader, name string) ([]byte, error) {
	f, err := archive.Open(name)
	if err != nil {
		return nil, fmt.Errorf("bundle member %s: %w: %w", name, models.ErrCorruptBundle, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read bundle member %s: %w: %w", name, models.ErrCorruptBundle, err)
	}
	return data, nil
}
