package blob

import (
	"context"
	"path/filepath"
	"strings"
)

// Object holds metadata for a stored blob.
type Object struct {
	Path        string
	Size        int64
	ContentType string
	URL         string
}

// Storage abstracts where generated artifacts (audio summaries, QR images)
// end up. Implementations must be safe for concurrent use.
type Storage interface {
	// Put stores data under path and returns the stored object metadata.
	Put(ctx context.Context, path string, data []byte, contentType string) (*Object, error)
	// Get returns the raw content stored under path.
	Get(ctx context.Context, path string) ([]byte, error)
	// Delete removes the blob under path. Deleting a missing blob is not an error.
	Delete(ctx context.Context, path string) error
	// Exists reports whether a blob is stored under path.
	Exists(ctx context.Context, path string) bool
	// URL returns the public URL for a stored path.
	URL(path string) string
}

// CleanPath normalizes a storage path and rejects traversal attempts.
// Returns empty string for unusable paths.
func CleanPath(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	path = strings.TrimLeft(path, "/")
	path = filepath.ToSlash(filepath.Clean(path))

	if path == "." || path == "/" || path == "" {
		return ""
	}
	if path == ".." || strings.HasPrefix(path, "../") {
		return ""
	}
	return path
}
