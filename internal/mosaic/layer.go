package mosaic

import (
	"context"
	"strings"
	"time"
)

// Layer is one acquisition of a coverage at one point in time.
// Layers are provided by a connector and are read-only.
type Layer interface {
	// Time returns the acquisition date (see ParseDate for the supported formats)
	Time() string
	DatasetName() string
	CoverageName() string
	// IsValid returns false if the layer cannot be read (missing or corrupted source)
	IsValid(ctx context.Context) bool
	// PixelSize returns the size of a pixel in raster units (rasterUnitsPerPixelX/Y, both positive)
	PixelSize(ctx context.Context) (float64, float64, error)
	// SaveTiles materializes the layer on the tiles of the grid, as one GeoTIFF per tile
	// named <TileID>.tif, and returns the folder containing them.
	// Tiles not covered by the layer may be missing from the folder.
	SaveTiles(ctx context.Context, grid *TileGrid) (string, error)
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
}

// ParseDate parses an acquisition date or a date bound.
// A bare year ("2019") is accepted and returns January 1st of this year.
// The offset of the date, if any, is kept: its calendar day is the one written in s.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if t, err := time.Parse("2006", s); err == nil {
		return t, nil
	}
	return time.Time{}, NewInvalidInput("unable to parse date %q", s)
}

// isYear returns true if s is a bare year
func isYear(s string) bool {
	s = strings.TrimSpace(s)
	_, err := time.Parse("2006", s)
	return err == nil
}
