// Package blobstore abstracts the source of raw asset bytes. The
// streaming core only ever reads whole assets, so the interface is a
// deliberately small read-only surface.
//
// LocalStore is the only built-in implementation; asset paths resolve
// relative to its root directory. Implement Store to source assets from
// somewhere else (an archive file, an in-memory fixture set in tests).
package blobstore

import (
	"context"
	"os"
	"time"
)

// ErrNotFound is returned when an asset does not exist.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`. The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// Info describes a stored asset.
type Info struct {
	// Size is the on-disk size in bytes.
	Size int64
	// ModTime is the last modification time.
	ModTime time.Time
}

// Store is a read-only source of asset bytes.
// Implementations must be safe for concurrent use.
type Store interface {
	// ReadFile returns the full contents of the named asset.
	ReadFile(ctx context.Context, name string) ([]byte, error)

	// Stat describes the named asset without reading it.
	Stat(ctx context.Context, name string) (Info, error)

	// List returns the relative paths of all assets whose path contains
	// the given substring. An empty pattern matches everything.
	List(ctx context.Context, pattern string) ([]string, error)
}
