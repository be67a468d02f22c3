package storage

import (
	"context"
)

// ObjectStat is the metadata an object store reports for a single object.
type ObjectStat struct {
	// ContentLength is the object's total size in bytes, or -1 when the
	// store did not report one.
	ContentLength int64
	// ETag is the store's content digest for the object. Empty for
	// segmented objects whose ETag is not a digest of the content.
	ETag string
	// Manifest references the segment prefix for a segmented object.
	// Empty for objects stored as a single blob.
	Manifest string
	// ContentType and LastModified are informational only.
	ContentType  string
	LastModified string
}

// Segmented reports whether the object is an assembly of segments.
func (s *ObjectStat) Segmented() bool {
	return s.Manifest != ""
}

// ObjectStore abstracts object metadata lookups and container listings.
type ObjectStore interface {
	// StatObject returns metadata for one object. A nil stat with a nil
	// error means the store answered but reported no metadata.
	StatObject(ctx context.Context, container, object string) (*ObjectStat, error)
	// ListObjects returns the names of objects under prefix in container,
	// in the order the store yields them.
	ListObjects(ctx context.Context, container, prefix string) ([]string, error)
}
