package models

import "fmt"

// RemoteHierarchy maps source folders to the OneNote sections created for them
type RemoteHierarchy struct {
	NotebookID string

	sections map[string]string
	owners   map[string]string
	sealed   bool
}

// NewRemoteHierarchy creates an empty hierarchy for the given notebook
func NewRemoteHierarchy(notebookID string) *RemoteHierarchy {
	return &RemoteHierarchy{
		NotebookID: notebookID,
		sections:   make(map[string]string),
		owners:     make(map[string]string),
	}
}

// AddSection records the section created for a folder. Folders and section
// ids are each used at most once.
func (h *RemoteHierarchy) AddSection(location, sectionID string) error {
	if h.sealed {
		return fmt.Errorf("hierarchy is sealed, cannot add section for %q", location)
	}
	if existing, ok := h.sections[location]; ok {
		return fmt.Errorf("folder %q already mapped to section %s", location, existing)
	}
	if owner, ok := h.owners[sectionID]; ok {
		return fmt.Errorf("section %s already used by folder %q", sectionID, owner)
	}
	h.sections[location] = sectionID
	h.owners[sectionID] = location
	return nil
}

// SectionID returns the section created for a folder
func (h *RemoteHierarchy) SectionID(location string) (string, bool) {
	id, ok := h.sections[location]
	return id, ok
}

// Len returns the number of mapped folders
func (h *RemoteHierarchy) Len() int {
	return len(h.sections)
}

// Seal freezes the mapping; uploads only run against a sealed hierarchy
func (h *RemoteHierarchy) Seal() {
	h.sealed = true
}

// Sealed reports whether Seal has been called
func (h *RemoteHierarchy) Sealed() bool {
	return h.sealed
}
