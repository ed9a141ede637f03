package image

import (
	"fmt"
	"os"

	"github.com/airbusgeo/geomosaic/internal/mosaic"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// TileIndexFile is the name of the GeoJSON index of the tiles of a mosaic
const TileIndexFile = "tiles.geojson"

// TileIndex returns a GeoJSON FeatureCollection with the footprint of each tile
func TileIndex(tiles []mosaic.Tile, files []string) (*geojson.FeatureCollection, error) {
	if len(tiles) != len(files) {
		return nil, fmt.Errorf("TileIndex: %d tiles for %d files", len(tiles), len(files))
	}
	fc := geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(tiles))}
	for i, t := range tiles {
		e := t.Extent
		polygon, err := geom.NewPolygon(geom.XY).SetCoords([][]geom.Coord{{
			{e.XMin, e.YMin}, {e.XMax, e.YMin}, {e.XMax, e.YMax}, {e.XMin, e.YMax}, {e.XMin, e.YMin},
		}})
		if err != nil {
			return nil, fmt.Errorf("TileIndex.%s: %w", t.ID, err)
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       string(t.ID),
			Geometry: polygon,
			Properties: map[string]interface{}{
				"col":  t.Col,
				"row":  t.Row,
				"file": files[i],
			},
		})
	}
	return &fc, nil
}

// WriteTileIndex writes the GeoJSON index of the tiles in path
func WriteTileIndex(path string, tiles []mosaic.Tile, files []string) error {
	fc, err := TileIndex(tiles, files)
	if err != nil {
		return mosaic.NewIOFailure(err, "tile index")
	}
	b, err := fc.MarshalJSON()
	if err != nil {
		return mosaic.NewIOFailure(err, "marshal tile index")
	}
	if err := os.WriteFile(path, b, 0644); err != nil {
		return mosaic.NewIOFailure(err, "write tile index")
	}
	return nil
}
