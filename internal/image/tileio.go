package image

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/airbusgeo/geomosaic/internal/mosaic"
	"github.com/airbusgeo/godal"
	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Metadata describes a raster file
type Metadata struct {
	Width, Height int
	BandCount     int
	DType         mosaic.DType
	GeoTransform  [6]float64
	Projection    string
	NoData        float64
	HasNoData     bool
}

// TileIO reads and writes the tiles of a mosaic.
// Every error is an IOFailure.
type TileIO interface {
	// ReadBand reads the band (1-based) of the raster
	ReadBand(ctx context.Context, path string, band int) (*mosaic.BandArray, error)
	ReadMetadata(ctx context.Context, path string) (Metadata, error)
	// WriteRaster writes the bands, in order, in a georeferenced GeoTIFF.
	// The no-data value of meta is set on every band.
	WriteRaster(ctx context.Context, path string, meta Metadata, bands []*mosaic.BandArray) error
}

// GdalTileIO implements TileIO with GDAL. Metadata are cached.
type GdalTileIO struct {
	metadata *lru.Cache[string, Metadata]
}

// NewGdalTileIO returns a TileIO caching the metadata of cacheSize files
func NewGdalTileIO(cacheSize int) (*GdalTileIO, error) {
	if cacheSize <= 0 {
		cacheSize = 1024
	}
	c, err := lru.New[string, Metadata](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("NewGdalTileIO: %w", err)
	}
	return &GdalTileIO{metadata: c}, nil
}

func openTile(path string) (*godal.Dataset, error) {
	ds, err := godal.Open(path, ErrLogger)
	if err != nil {
		return nil, mosaic.NewIOFailure(err, "open %s", path)
	}
	return ds, nil
}

func readMetadata(ds *godal.Dataset) (Metadata, error) {
	st := ds.Structure()
	meta := Metadata{
		Width:      st.SizeX,
		Height:     st.SizeY,
		BandCount:  st.NBands,
		DType:      DTypeFromGDAL(st.DataType),
		Projection: ds.Projection(),
	}
	var err error
	if meta.GeoTransform, err = ds.GeoTransform(); err != nil {
		return meta, err
	}
	if st.NBands > 0 {
		meta.NoData, meta.HasNoData = ds.Bands()[0].NoData()
	}
	return meta, nil
}

// ReadMetadata implements TileIO
func (g *GdalTileIO) ReadMetadata(ctx context.Context, path string) (Metadata, error) {
	if meta, ok := g.metadata.Get(path); ok {
		return meta, nil
	}
	ds, err := openTile(path)
	if err != nil {
		return Metadata{}, err
	}
	defer ds.Close()
	meta, err := readMetadata(ds)
	if err != nil {
		return Metadata{}, mosaic.NewIOFailure(err, "metadata of %s", path)
	}
	g.metadata.Add(path, meta)
	return meta, nil
}

// ReadBand implements TileIO
func (g *GdalTileIO) ReadBand(ctx context.Context, path string, band int) (*mosaic.BandArray, error) {
	ds, err := openTile(path)
	if err != nil {
		return nil, err
	}
	defer ds.Close()
	st := ds.Structure()
	if band < 1 || band > st.NBands {
		return nil, mosaic.NewIOFailure(fmt.Errorf("band %d out of range [1, %d]", band, st.NBands), "read %s", path)
	}
	b := ds.Bands()[band-1]
	arr := mosaic.BandArray{Width: st.SizeX, Height: st.SizeY, Pixels: make([]float64, st.SizeX*st.SizeY)}
	arr.NoData, arr.HasNoData = b.NoData()
	if err := b.Read(0, 0, arr.Pixels, st.SizeX, st.SizeY); err != nil {
		return nil, mosaic.NewIOFailure(err, "read band %d of %s", band, path)
	}
	return &arr, nil
}

// WriteRaster implements TileIO
func (g *GdalTileIO) WriteRaster(ctx context.Context, path string, meta Metadata, bands []*mosaic.BandArray) error {
	g.metadata.Remove(path)
	if len(bands) == 0 {
		return mosaic.NewIOFailure(fmt.Errorf("no band"), "write %s", path)
	}
	if err := mosaic.CheckShape(meta.Width, meta.Height, bands...); err != nil {
		return mosaic.NewIOFailure(err, "write %s", path)
	}
	dtype := ToGDAL(meta.DType)
	if dtype == godal.Unknown {
		return mosaic.NewIOFailure(fmt.Errorf("unsupported data type %s", meta.DType), "write %s", path)
	}
	ds, err := godal.Create(godal.GTiff, path, len(bands), dtype, meta.Width, meta.Height,
		godal.CreationOption("TILED=YES", "COMPRESS=DEFLATE"), ErrLogger)
	if err != nil {
		return mosaic.NewIOFailure(err, "create %s", path)
	}
	if err = writeDataset(ds, meta, bands); err != nil {
		ds.Close()
		return mosaic.NewIOFailure(err, "write %s", path)
	}
	if err = ds.Close(); err != nil {
		return mosaic.NewIOFailure(err, "close %s", path)
	}
	return nil
}

func writeDataset(ds *godal.Dataset, meta Metadata, bands []*mosaic.BandArray) error {
	if err := ds.SetGeoTransform(meta.GeoTransform); err != nil {
		return fmt.Errorf("set geotransform: %w", err)
	}
	if meta.Projection != "" {
		if err := ds.SetProjection(meta.Projection); err != nil {
			return fmt.Errorf("set projection: %w", err)
		}
	}
	for i, band := range ds.Bands() {
		if meta.HasNoData {
			if err := band.SetNoData(meta.NoData); err != nil {
				return fmt.Errorf("set nodata of band %d: %w", i+1, err)
			}
		}
		if err := band.Write(0, 0, bands[i].Pixels, meta.Width, meta.Height); err != nil {
			return fmt.Errorf("write band %d: %w", i+1, err)
		}
	}
	return nil
}

// Digest returns the xxhash of the content of the file
func Digest(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, mosaic.NewIOFailure(err, "digest %s", path)
	}
	defer f.Close()
	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return 0, mosaic.NewIOFailure(err, "digest %s", path)
	}
	return h.Sum64(), nil
}
