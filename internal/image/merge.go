package image

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/airbusgeo/geomosaic/internal/log"
	"github.com/airbusgeo/geomosaic/internal/mosaic"
	"github.com/airbusgeo/godal"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Merger merges the tiles of a mosaic into a single raster
type Merger interface {
	// Merge merges the tiles into dst. The format of dst depends on the implementation
	Merge(ctx context.Context, tiles []string, dst string, nodata float64) error
}

// NewMerger returns the Merger producing a raster of the given format
func NewMerger(format mosaic.Format) (Merger, error) {
	switch format {
	case mosaic.FormatVRT:
		return vrtMerger{}, nil
	case mosaic.FormatGTiff:
		return gtiffMerger{}, nil
	case mosaic.FormatCOG:
		return cogMerger{}, nil
	}
	return nil, mosaic.NewInvalidInput("unknown output format %q", format)
}

func buildVRT(dst string, tiles []string, nodata float64) (*godal.Dataset, error) {
	if len(tiles) == 0 {
		return nil, fmt.Errorf("no tile to merge")
	}
	switches := []string{"-srcnodata", toS(nodata), "-vrtnodata", toS(nodata)}
	return godal.BuildVRT(dst, tiles, switches, ErrLogger)
}

type vrtMerger struct{}

// Merge writes a VRT referencing the tiles
func (vrtMerger) Merge(ctx context.Context, tiles []string, dst string, nodata float64) error {
	tmp := dst + ".tmp"
	ds, err := buildVRT(tmp, tiles, nodata)
	if err != nil {
		return mosaic.NewIOFailure(err, "build vrt %s", dst)
	}
	if err := ds.Close(); err != nil {
		os.Remove(tmp)
		return mosaic.NewIOFailure(err, "close vrt %s", dst)
	}
	return rename(ctx, tmp, dst)
}

type gtiffMerger struct{}

// Merge writes a tiled GeoTIFF containing the tiles
func (gtiffMerger) Merge(ctx context.Context, tiles []string, dst string, nodata float64) error {
	vrt, vrtPath, err := memVRT(tiles, nodata)
	if err != nil {
		return err
	}
	defer closeMemVRT(vrt, vrtPath)

	st := vrt.Structure()
	tmp := dst + ".tmp"
	ds, err := vrt.Translate(tmp, append(gtiffOptions(st.SizeX*st.SizeY >= 10000*10000), "-of", "GTiff"), ErrLogger)
	if err != nil {
		return mosaic.NewIOFailure(err, "translate %s", dst)
	}
	if err := ds.Close(); err != nil {
		os.Remove(tmp)
		return mosaic.NewIOFailure(err, "close %s", dst)
	}
	return rename(ctx, tmp, dst)
}

type cogMerger struct{}

// Merge writes a Cloud Optimized GeoTIFF containing the tiles
func (cogMerger) Merge(ctx context.Context, tiles []string, dst string, nodata float64) error {
	vrt, vrtPath, err := memVRT(tiles, nodata)
	if err != nil {
		return err
	}
	defer closeMemVRT(vrt, vrtPath)

	tmp := dst + ".tmp"
	if err := writeCOG(ctx, vrt, tmp, nodata); err != nil {
		return mosaic.NewIOFailure(err, "cog %s", dst)
	}
	return rename(ctx, tmp, dst)
}

func memVRT(tiles []string, nodata float64) (*godal.Dataset, string, error) {
	vrtPath := fmt.Sprintf("/vsimem/mosaic_%s.vrt", uuid.New())
	ds, err := buildVRT(vrtPath, tiles, nodata)
	if err != nil {
		return nil, "", mosaic.NewIOFailure(err, "build vrt")
	}
	return ds, vrtPath, nil
}

func closeMemVRT(ds *godal.Dataset, path string) {
	ds.Close()
	godal.VSIUnlink(path)
}

func rename(ctx context.Context, tmp, dst string) error {
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return mosaic.NewIOFailure(err, "rename %s", filepath.Base(dst))
	}
	log.Logger(ctx).Debug("mosaic merged", zap.String("file", dst))
	return nil
}
