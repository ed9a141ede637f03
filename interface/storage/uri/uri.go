// Package uri selects the storage strategy of a uri
package uri

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/airbusgeo/geomosaic/interface/storage"
	"github.com/airbusgeo/geomosaic/interface/storage/filesystem"
	"github.com/airbusgeo/geomosaic/interface/storage/gcs"
)

// Protocol returns the protocol of the uri ("" for a local path)
func Protocol(uri string) string {
	if i := strings.Index(uri, "://"); i > 0 {
		return strings.ToLower(uri[:i])
	}
	return ""
}

// NewStrategy returns the storage strategy handling uri
func NewStrategy(ctx context.Context, uri string) (storage.Strategy, error) {
	switch Protocol(uri) {
	case "gs":
		return gcs.NewGsStrategy(ctx)
	case "file", "":
		return filesystem.NewFileSystemStrategy(ctx)
	default:
		return nil, fmt.Errorf("failed to determine storage strategy of %s", uri)
	}
}

// Join appends elem to the uri
func Join(uri string, elem ...string) string {
	if Protocol(uri) == "" {
		return filepath.Join(append([]string{uri}, elem...)...)
	}
	return strings.Join(append([]string{strings.TrimSuffix(uri, "/")}, elem...), "/")
}

// Dir returns all but the last element of the uri
func Dir(uri string) string {
	if Protocol(uri) == "" {
		return filepath.Dir(uri)
	}
	if i := strings.LastIndex(uri, "/"); i > len(Protocol(uri))+3 {
		return uri[:i]
	}
	return uri
}
