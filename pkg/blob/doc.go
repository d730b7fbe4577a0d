// Package blob stores generated artifacts such as audio summaries behind a
// small Storage interface with two backends: LocalStorage for development
// and S3Storage for production (AWS S3 or any S3-compatible service).
//
// Paths are normalized and traversal attempts rejected before they reach a
// backend. Backend failures surface as package sentinels (ErrNotFound,
// ErrAccessDenied) so callers never match on SDK error strings.
package blob
