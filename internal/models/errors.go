package models

import "errors"

// Index-level failures abort the run
var (
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrSchemaMismatch     = errors.New("schema mismatch")
)

// Per-document failures are reported and the run continues
var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrCorruptBundle    = errors.New("corrupt bundle")
	ErrMalformedHTML    = errors.New("malformed html")
)

// Remote failures: fatal while building the hierarchy, per-document for uploads
var (
	ErrRemoteRejected = errors.New("remote rejected")
	ErrNetwork        = errors.New("network error")
)

// ErrHierarchyIncomplete is returned when uploads start before every folder has a section
var ErrHierarchyIncomplete = errors.New("remote hierarchy incomplete")

// IsFatal reports whether err must abort the whole run
func IsFatal(err error) bool {
	return errors.Is(err, ErrStorageUnavailable) ||
		errors.Is(err, ErrSchemaMismatch) ||
		errors.Is(err, ErrHierarchyIncomplete)
}
