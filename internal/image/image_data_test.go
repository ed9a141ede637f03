package image_test

import (
	"context"
	"path/filepath"

	"github.com/airbusgeo/geomosaic/internal/image"
	"github.com/airbusgeo/geomosaic/internal/mosaic"
	"github.com/airbusgeo/godal"
	. "github.com/onsi/gomega"
)

const nd = -9999.

func utm31() string {
	sr, err := godal.NewSpatialRefFromEPSG(32631)
	Expect(err).NotTo(HaveOccurred())
	defer sr.Close()
	wkt, err := sr.WKT()
	Expect(err).NotTo(HaveOccurred())
	return wkt
}

// band returns a w x h band filled with v, except the first pixel which is no-data
func band(w, h int, v float64) *mosaic.BandArray {
	b := mosaic.NewBandArray(w, h, nd)
	for i := 1; i < len(b.Pixels); i++ {
		b.Pixels[i] = v
	}
	return b
}

func metadata(tile mosaic.Tile, nbands int) image.Metadata {
	return image.Metadata{
		Width:        tile.Width,
		Height:       tile.Height,
		BandCount:    nbands,
		DType:        mosaic.DTypeINT16,
		GeoTransform: tile.GeoTransform,
		Projection:   utm31(),
		NoData:       nd,
		HasNoData:    true,
	}
}

// writeTiles writes a two-band raster for each tile of the grid and returns their paths
func writeTiles(tileIO image.TileIO, dir string, grid *mosaic.TileGrid) []string {
	var files []string
	for i, tile := range grid.Tiles() {
		path := filepath.Join(dir, tile.ID.FileName())
		bands := []*mosaic.BandArray{band(tile.Width, tile.Height, float64(i+1)), band(tile.Width, tile.Height, float64(10*(i+1)))}
		Expect(tileIO.WriteRaster(context.Background(), path, metadata(tile, 2), bands)).To(Succeed())
		files = append(files, path)
	}
	return files
}

func testGrid() *mosaic.TileGrid {
	grid, err := mosaic.NewTileGrid(mosaic.Extent{XMin: 300000, YMin: 5000000, XMax: 303000, YMax: 5001500}, 30, 30, 50)
	Expect(err).NotTo(HaveOccurred())
	return grid
}
