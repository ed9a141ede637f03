package image

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/airbusgeo/geomosaic/internal/log"
	"github.com/airbusgeo/geomosaic/internal/mosaic"
	"github.com/airbusgeo/geomosaic/internal/utils"
	"github.com/airbusgeo/godal"
	"go.uber.org/zap"
)

// ErrLogger turns GDAL errors into go errors and ignores warnings
var ErrLogger = godal.ErrLogger(func(ec godal.ErrorCategory, code int, msg string) error {
	if ec <= godal.CE_Warning {
		return nil
	}
	return fmt.Errorf("GDAL %d: %s", code, msg)
})

func toS(f float64) string {
	if math.IsNaN(f) {
		return "nan"
	}
	return utils.F64ToS(f)
}

func gtiffOptions(bigtiff bool) []string {
	options := []string{
		"-co", "TILED=YES",
		"-co", "COMPRESS=DEFLATE",
		"-co", "SPARSE_OK=TRUE",
	}
	if bigtiff {
		options = append(options, "-co", "BIGTIFF=YES")
	}
	return options
}

// warpTileOptions returns the gdalwarp switches to resample a source on the tile, using nearest neighbour
func warpTileOptions(tile mosaic.Tile, nodata float64) []string {
	options := []string{
		"-te", toS(tile.Extent.XMin), toS(tile.Extent.YMin), toS(tile.Extent.XMax), toS(tile.Extent.YMax),
		"-ts", fmt.Sprint(tile.Width), fmt.Sprint(tile.Height),
		"-r", "near",
		"-wm", "500",
		"-nomd",
		"-of", "GTiff",
	}
	options = append(options, "-dstnodata", toS(nodata), "-wo", "INIT_DEST="+toS(nodata))
	return append(options, gtiffOptions(false)...)
}

// WarpTile resamples src on the tile and writes it as a GeoTIFF in dst.
// The file is written in a temporary file then renamed, so that dst is either absent or complete.
// If the source has no no-data value, nodata is used outside of the footprint of the source.
func WarpTile(ctx context.Context, src *godal.Dataset, dst string, tile mosaic.Tile, nodata float64) error {
	nd, ok := src.Bands()[0].NoData()
	if !ok {
		nd = nodata
	}
	tmp := dst + ".tmp"
	options := warpTileOptions(tile, nd)
	ds, err := godal.Warp(tmp, []*godal.Dataset{src}, options, ErrLogger)
	if err != nil {
		return mosaic.NewIOFailure(err, "warp tile %s [%v]", tile.ID, options)
	}
	if err := ds.Close(); err != nil {
		os.Remove(tmp)
		return mosaic.NewIOFailure(err, "close tile %s", tile.ID)
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return mosaic.NewIOFailure(err, "rename tile %s", tile.ID)
	}
	log.Logger(ctx).Debug("tile warped", zap.String("tile", string(tile.ID)), zap.String("file", filepath.Base(dst)))
	return nil
}

// Footprint returns the extent covered by the dataset
func Footprint(ds *godal.Dataset) (mosaic.Extent, error) {
	b, err := ds.Bounds()
	if err != nil {
		return mosaic.Extent{}, fmt.Errorf("Footprint: %w", err)
	}
	return mosaic.Extent{XMin: b[0], YMin: b[1], XMax: b[2], YMax: b[3]}, nil
}
