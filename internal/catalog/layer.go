package catalog

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/airbusgeo/geomosaic/internal/image"
	"github.com/airbusgeo/geomosaic/internal/log"
	"github.com/airbusgeo/geomosaic/internal/mosaic"
	"github.com/airbusgeo/godal"
	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"
)

// completeMarker is written in a tile folder once all the tiles are materialized
const completeMarker = ".complete"

func isRemote(path string) bool {
	return strings.HasPrefix(path, "gs://") || strings.HasPrefix(path, "s3://") || strings.HasPrefix(path, "/vsi")
}

// FileLayer is a layer backed by a GDAL-readable raster (local file, gs://, s3://)
type FileLayer struct {
	config    LayerConfig
	bandCount int
	cacheDir  string

	mu      sync.Mutex
	checked bool
	valid   bool
}

func newFileLayer(config LayerConfig, bandCount int, cacheDir string) *FileLayer {
	return &FileLayer{config: config, bandCount: bandCount, cacheDir: cacheDir}
}

// Time implements mosaic.Layer
func (l *FileLayer) Time() string { return l.config.Time }

// DatasetName implements mosaic.Layer
func (l *FileLayer) DatasetName() string { return l.config.Dataset }

// CoverageName implements mosaic.Layer
func (l *FileLayer) CoverageName() string { return l.config.Coverage }

// Path returns the path of the source raster
func (l *FileLayer) Path() string { return l.config.Path }

func (l *FileLayer) open() (*godal.Dataset, error) {
	ds, err := godal.Open(l.config.Path, image.ErrLogger)
	if err != nil {
		return nil, mosaic.NewIOFailure(err, "open layer %s", l.config.Dataset)
	}
	return ds, nil
}

// IsValid implements mosaic.Layer.
// A layer is valid if its source can be opened and has one band per band of the coverage.
// The result is computed once.
func (l *FileLayer) IsValid(ctx context.Context) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.checked {
		return l.valid
	}
	l.checked = true
	ds, err := l.open()
	if err != nil {
		log.Logger(ctx).Warn("invalid layer", zap.String("dataset", l.config.Dataset), zap.Error(err))
		return false
	}
	defer ds.Close()
	if n := ds.Structure().NBands; n != l.bandCount {
		log.Logger(ctx).Warn("invalid layer", zap.String("dataset", l.config.Dataset),
			zap.String("reason", fmt.Sprintf("%d bands, expected %d", n, l.bandCount)))
		return false
	}
	l.valid = true
	return true
}

// PixelSize implements mosaic.Layer
func (l *FileLayer) PixelSize(ctx context.Context) (float64, float64, error) {
	ds, err := l.open()
	if err != nil {
		return 0, 0, err
	}
	defer ds.Close()
	gt, err := ds.GeoTransform()
	if err != nil {
		return 0, 0, mosaic.NewIOFailure(err, "geotransform of layer %s", l.config.Dataset)
	}
	if gt[2] != 0 || gt[4] != 0 {
		return 0, 0, mosaic.NewIOFailure(fmt.Errorf("rotated geotransform %v", gt), "layer %s", l.config.Dataset)
	}
	return math.Abs(gt[1]), math.Abs(gt[5]), nil
}

// tileFolder returns the folder of the tiles of the layer on the grid
func (l *FileLayer) tileFolder(grid *mosaic.TileGrid) string {
	return filepath.Join(l.cacheDir, fmt.Sprintf("%016x", xxhash.Sum64String(l.config.Path+"|"+grid.Key())))
}

// SaveTiles implements mosaic.Layer.
// The source is warped (nearest neighbour) on each tile of the grid it intersects.
// Tiles are cached: a second call with the same grid returns the same folder without any processing.
func (l *FileLayer) SaveTiles(ctx context.Context, grid *mosaic.TileGrid) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	folder := l.tileFolder(grid)
	if _, err := os.Stat(filepath.Join(folder, completeMarker)); err == nil {
		return folder, nil
	}
	ctx = log.With(ctx, "dataset", l.config.Dataset)
	start := time.Now()
	if err := os.MkdirAll(folder, 0755); err != nil {
		return "", mosaic.NewIOFailure(err, "create tile folder")
	}

	ds, err := l.open()
	if err != nil {
		return "", err
	}
	defer ds.Close()
	footprint, err := image.Footprint(ds)
	if err != nil {
		return "", mosaic.NewIOFailure(err, "layer %s", l.config.Dataset)
	}
	nodata := image.DTypeFromGDAL(ds.Structure().DataType).DefaultNoData()

	n := 0
	for _, tile := range grid.Tiles() {
		if err := ctx.Err(); err != nil {
			return "", mosaic.NewCancelled("materialization of %s interrupted", l.config.Dataset)
		}
		if !tile.Extent.Intersects(footprint) {
			continue
		}
		if err := image.WarpTile(ctx, ds, filepath.Join(folder, tile.ID.FileName()), tile, nodata); err != nil {
			return "", err
		}
		n++
	}
	if err := os.WriteFile(filepath.Join(folder, completeMarker), nil, 0644); err != nil {
		return "", mosaic.NewIOFailure(err, "write marker")
	}
	log.Logger(ctx).Debug("layer materialized", zap.Int("tiles", n), zap.Duration("duration", time.Since(start)))
	return folder, nil
}
