// Package index reads the WizNote document index (index.db).
package index

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/takak2166/wiz2onenote/internal/logger"
	"github.com/takak2166/wiz2onenote/internal/models"
)

// FileName is the index file inside a WizNote data directory
const FileName = "index.db"

const documentsQuery = `
	SELECT
		DOCUMENT_GUID,
		DOCUMENT_TITLE,
		DOCUMENT_LOCATION,
		DOCUMENT_NAME,
		DOCUMENT_URL,
		DT_CREATED,
		DOCUMENT_PROTECT,
		DOCUMENT_ATTACHEMENT_COUNT
	FROM WIZ_DOCUMENT
	ORDER BY DOCUMENT_LOCATION
`

// Reader lists the documents of a WizNote account
type Reader struct {
	dataDir  string
	db       *sql.DB
	reporter models.Reporter
}

// Option configures a Reader
type Option func(*Reader)

// WithReporter sets where skipped documents and ignored attachments are reported
func WithReporter(r models.Reporter) Option {
	return func(rd *Reader) {
		rd.reporter = r
	}
}

// Open opens <dataDir>/index.db read-only
func Open(dataDir string, opts ...Option) (*Reader, error) {
	indexPath := filepath.Join(dataDir, FileName)
	if _, err := os.Stat(indexPath); err != nil {
		return nil, fmt.Errorf("index %s: %w: %w", indexPath, models.ErrStorageUnavailable, err)
	}

	db, err := sql.Open("sqlite3", "file:"+indexPath+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w: %w", models.ErrStorageUnavailable, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open index: %w: %w", models.ErrStorageUnavailable, err)
	}

	r := &Reader{
		dataDir:  dataDir,
		db:       db,
		reporter: logger.Diagnostics{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Close releases the index handle
func (r *Reader) Close() error {
	return r.db.Close()
}

// Read returns the migratable documents grouped by folder in scan order.
// Protected documents are left out.
func (r *Reader) Read(ctx context.Context) (*models.Catalog, error) {
	logger.Debug("Reading WizNote index", map[string]interface{}{
		"data_dir": r.dataDir,
	})

	rows, err := r.db.QueryContext(ctx, documentsQuery)
	if err != nil {
		return nil, classifyQueryError(err)
	}
	defer rows.Close()

	catalog := &models.Catalog{DataDir: r.dataDir}
	groupIndex := make(map[string]int)
	skipped := 0

	for rows.Next() {
		var (
			doc                      models.DocumentRecord
			title, location, name    sql.NullString
			url, created             sql.NullString
			protect, attachmentCount sql.NullInt64
		)

		if err := rows.Scan(&doc.GUID, &title, &location, &name, &url, &created, &protect, &attachmentCount); err != nil {
			return nil, fmt.Errorf("failed to scan document row: %w: %w", models.ErrSchemaMismatch, err)
		}

		doc.Title = title.String
		doc.Location = location.String
		doc.Name = name.String
		doc.URL = url.String
		doc.Protected = protect.Int64 != 0
		doc.AttachmentCount = int(attachmentCount.Int64)

		fields := map[string]interface{}{
			"location": doc.Location,
			"title":    doc.Title,
			"guid":     doc.GUID,
		}

		if doc.Protected {
			r.reporter.Warn("Ignore protected document", fields)
			skipped++
			continue
		}

		doc.Created, err = time.Parse(models.CreatedLayout, strings.TrimSpace(created.String))
		if err != nil {
			fields["created"] = created.String
			r.reporter.Warn("Ignore document with invalid creation time", fields)
			skipped++
			continue
		}

		if doc.AttachmentCount > 0 {
			fields["attachments"] = doc.AttachmentCount
			r.reporter.Warn("Attachments will not be migrated", fields)
		}

		idx, ok := groupIndex[doc.Location]
		if !ok {
			idx = len(catalog.Groups)
			groupIndex[doc.Location] = idx
			catalog.Groups = append(catalog.Groups, models.FolderGroup{Location: doc.Location})
		}
		catalog.Groups[idx].Documents = append(catalog.Groups[idx].Documents, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating documents: %w: %w", models.ErrStorageUnavailable, err)
	}

	logger.Info("Read WizNote index", map[string]interface{}{
		"folders":   len(catalog.Groups),
		"documents": len(catalog.Documents()),
		"skipped":   skipped,
	})

	return catalog, nil
}

// classifyQueryError separates a missing table or column from an unreadable file
func classifyQueryError(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "no such table") || strings.Contains(msg, "no such column") {
		return fmt.Errorf("failed to query documents: %w: %w", models.ErrSchemaMismatch, err)
	}
	return fmt.Errorf("failed to query documents: %w: %w", models.ErrStorageUnavailable, err)
}
