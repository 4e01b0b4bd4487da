package models

import "time"

// CreatedLayout is the DT_CREATED format stored in the WizNote index
const CreatedLayout = "2006-01-02 15:04:05"

// DocumentRecord represents a row of the WizNote document index
type DocumentRecord struct {
	GUID            string
	Title           string
	Location        string // Folder path such as "/My Notes/Work/"
	Name            string // Storage name of the bundle on Windows layouts
	URL             string // Source URL, empty when not clipped from the web
	Created         time.Time
	Protected       bool
	AttachmentCount int
}

// FolderGroup holds the documents of one folder in index scan order
type FolderGroup struct {
	Location  string
	Documents []DocumentRecord
}

// Catalog is the result of reading the index: groups ordered by folder path
type Catalog struct {
	DataDir string
	Groups  []FolderGroup
}

// Documents flattens the catalog back into scan order
func (c *Catalog) Documents() []DocumentRecord {
	var docs []DocumentRecord
	for _, g := range c.Groups {
		docs = append(docs, g.Documents...)
	}
	return docs
}

// Locations returns the folder paths in discovery order
func (c *Catalog) Locations() []string {
	locations := make([]string, 0, len(c.Groups))
	for _, g := range c.Groups {
		locations = append(locations, g.Location)
	}
	return locations
}

// Resource is an embedded file uploaded alongside the page HTML
type Resource struct {
	Name        string
	Data        []byte
	ContentType string
}

// NormalizedPage is an upload-ready document
type NormalizedPage struct {
	Title           string
	HTML            []byte
	HTMLContentType string
	Resources       []Resource
}

// Reporter receives non-fatal diagnostics
type Reporter interface {
	Warn(msg string, fields map[string]interface{})
}
