// Package migrate creates the OneNote notebook and sections for a catalog
// and uploads every document into its section.
package migrate

import (
	"context"
	"fmt"
	"strings"

	"github.com/takak2166/wiz2onenote/internal/logger"
	"github.com/takak2166/wiz2onenote/internal/models"
	"github.com/takak2166/wiz2onenote/internal/onenote"
)

const (
	// SectionSeparator joins nested folder names into one flat section name
	SectionSeparator = "-"
	// RootSectionName is used for documents stored directly under "/"
	RootSectionName = "Notes"
)

// SectionName flattens a folder path: "/Work/2020/" becomes "Work-2020"
func SectionName(location string) string {
	var parts []string
	for _, p := range strings.Split(location, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return RootSectionName
	}
	return strings.Join(parts, SectionSeparator)
}

// SectionNames returns the section names for the catalog in creation order
func SectionNames(catalog *models.Catalog) []string {
	names := make([]string, 0, len(catalog.Groups))
	for _, g := range catalog.Groups {
		names = append(names, SectionName(g.Location))
	}
	return names
}

// HierarchyBuilder creates the destination notebook and its sections
type HierarchyBuilder struct {
	api onenote.API
}

// NewHierarchyBuilder creates a new HierarchyBuilder
func NewHierarchyBuilder(api onenote.API) *HierarchyBuilder {
	return &HierarchyBuilder{api: api}
}

// Build creates one notebook and one section per catalog folder, in catalog
// order. Any failure aborts: a partial hierarchy is never returned.
func (b *HierarchyBuilder) Build(ctx context.Context, notebookName string, catalog *models.Catalog) (*models.RemoteHierarchy, error) {
	if strings.TrimSpace(notebookName) == "" {
		return nil, fmt.Errorf("notebook name must not be empty")
	}

	notebookID, err := b.api.CreateNotebook(ctx, notebookName)
	if err != nil {
		return nil, err
	}

	h := models.NewRemoteHierarchy(notebookID)
	for _, g := range catalog.Groups {
		name := SectionName(g.Location)
		sectionID, err := b.api.CreateSection(ctx, notebookID, name)
		if err != nil {
			return nil, err
		}
		if err := h.AddSection(g.Location, sectionID); err != nil {
			return nil, fmt.Errorf("section %q: %w: %w", name, models.ErrRemoteRejected, err)
		}

		logger.Debug("Created section", map[string]interface{}{
			"location":   g.Location,
			"section":    name,
			"section_id": sectionID,
		})
	}
	h.Seal()

	logger.Info("Created notebook hierarchy", map[string]interface{}{
		"notebook": notebookName,
		"sections": h.Len(),
	})
	return h, nil
}
