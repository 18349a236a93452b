// Package metadata resolves track tags for a media file via an external
// probe command, falling back to filename-derived values when tags are
// absent or unreadable.
package metadata

import (
	"context"
	"path/filepath"
	"time"
)

// Metadata holds the derived tag cache for a track. It is never persisted;
// it is recomputed from the file on demand.
type Metadata struct {
	Title    string
	Artist   string
	Album    string
	Duration time.Duration
}

// Provider loads metadata for a file path. Implementations never fail:
// unreadable tags yield the fallback values.
type Provider interface {
	Load(ctx context.Context, path string) Metadata
}

// Fallback returns the metadata used when tags cannot be read.
func Fallback(path string) Metadata {
	return Metadata{
		Title:  filepath.Base(path),
		Artist: "Unknown Artist",
		Album:  "Unknown Album",
	}
}
