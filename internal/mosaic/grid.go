package mosaic

import (
	"fmt"
	"math"

	"github.com/airbusgeo/geomosaic/internal/utils"
	"github.com/airbusgeo/geomosaic/internal/utils/affine"
)

// DefaultTileSize is the default size (in pixels) of the side of a tile
const DefaultTileSize = 1024

// MaxTiles is the maximum number of tiles of a grid
const MaxTiles = 1 << 20

// TileID identifies a tile of a grid: "<col>_<row>"
type TileID string

// NewTileID returns the id of the tile (col, row)
func NewTileID(col, row int) TileID {
	return TileID(fmt.Sprintf("%d_%d", col, row))
}

// ParseTileID returns the (col, row) of the tile
func ParseTileID(id TileID) (int, int, error) {
	var col, row int
	if n, err := fmt.Sscanf(string(id), "%d_%d", &col, &row); err != nil || n != 2 || NewTileID(col, row) != id {
		return 0, 0, fmt.Errorf("invalid tile id %q", id)
	}
	return col, row, nil
}

// FileName returns the name of the file of the tile
func (id TileID) FileName() string {
	return string(id) + ".tif"
}

// Tile is one cell of a TileGrid
type Tile struct {
	ID            TileID
	Col, Row      int
	Width, Height int
	Extent        Extent
	GeoTransform  [6]float64
}

// TileGrid is a regular north-up partition of an extent into tiles of TileSize x TileSize pixels.
// The last column and the last row are clipped to the extent (rounded up to a whole pixel).
type TileGrid struct {
	Extent                 Extent
	PixelSizeX, PixelSizeY float64
	TileSize               int
	// Width and Height of the whole grid, in pixels
	Width, Height int
	Cols, Rows    int
}

// NewTileGrid creates the grid covering the extent with the given pixel size
func NewTileGrid(extent Extent, pixelSizeX, pixelSizeY float64, tileSize int) (*TileGrid, error) {
	if extent.Degenerate() {
		return nil, NewInvalidExtent("extent %s has no area", extent)
	}
	if !(pixelSizeX > 0) || !(pixelSizeY > 0) || math.IsInf(pixelSizeX, 0) || math.IsInf(pixelSizeY, 0) {
		return nil, NewInvalidInput("invalid pixel size (%g, %g)", pixelSizeX, pixelSizeY)
	}
	if tileSize <= 0 {
		return nil, NewInvalidInput("invalid tile size %d", tileSize)
	}
	// checked on floats: the number of pixels may not fit in an int
	cols := math.Ceil(extent.Width() / pixelSizeX / float64(tileSize))
	rows := math.Ceil(extent.Height() / pixelSizeY / float64(tileSize))
	if !(cols*rows <= MaxTiles) {
		return nil, NewInvalidExtent("extent %s is too large: %g x %g tiles of %d pixels (max: %d tiles)", extent, cols, rows, tileSize, MaxTiles)
	}
	g := &TileGrid{
		Extent:     extent,
		PixelSizeX: pixelSizeX,
		PixelSizeY: pixelSizeY,
		TileSize:   tileSize,
		Width:      utils.CeilDiv(extent.Width(), pixelSizeX),
		Height:     utils.CeilDiv(extent.Height(), pixelSizeY),
	}
	// ceil(width/(tileSize*pixelSize)), computed on whole pixels
	g.Cols = (g.Width + tileSize - 1) / tileSize
	g.Rows = (g.Height + tileSize - 1) / tileSize
	return g, nil
}

// Transform returns the geotransform of the whole grid
func (g *TileGrid) Transform() *affine.Affine {
	return affine.NorthUp(g.Extent.XMin, g.Extent.YMax, g.PixelSizeX, g.PixelSizeY)
}

// Count returns the number of tiles
func (g *TileGrid) Count() int {
	return g.Cols * g.Rows
}

// Tile returns the tile (col, row)
func (g *TileGrid) Tile(col, row int) (Tile, error) {
	if col < 0 || row < 0 || col >= g.Cols || row >= g.Rows {
		return Tile{}, fmt.Errorf("tile (%d, %d) is out of the grid (%dx%d)", col, row, g.Cols, g.Rows)
	}
	i0, j0 := col*g.TileSize, row*g.TileSize
	t := Tile{
		ID:     NewTileID(col, row),
		Col:    col,
		Row:    row,
		Width:  min(g.TileSize, g.Width-i0),
		Height: min(g.TileSize, g.Height-j0),
	}
	tr := g.Transform().Multiply(affine.Translation(float64(i0), float64(j0)))
	t.GeoTransform = [6]float64(*tr)
	t.Extent.XMin, t.Extent.YMin, t.Extent.XMax, t.Extent.YMax = tr.Bounds(t.Width, t.Height)
	return t, nil
}

// TileByID returns the tile with the given id
func (g *TileGrid) TileByID(id TileID) (Tile, error) {
	col, row, err := ParseTileID(id)
	if err != nil {
		return Tile{}, err
	}
	return g.Tile(col, row)
}

// Tiles returns all the tiles of the grid in row-major order
func (g *TileGrid) Tiles() []Tile {
	tiles := make([]Tile, 0, g.Count())
	for row := 0; row < g.Rows; row++ {
		for col := 0; col < g.Cols; col++ {
			t, _ := g.Tile(col, row)
			tiles = append(tiles, t)
		}
	}
	return tiles
}

// TileIDs returns the ids of all the tiles of the grid in row-major order
func (g *TileGrid) TileIDs() []TileID {
	ids := make([]TileID, 0, g.Count())
	for _, t := range g.Tiles() {
		ids = append(ids, t.ID)
	}
	return ids
}

// Key returns a string that uniquely identifies the grid
func (g *TileGrid) Key() string {
	return fmt.Sprintf("%s/%s/%s/%s/%s/%s/%d",
		utils.F64ToS(g.Extent.XMin), utils.F64ToS(g.Extent.YMin), utils.F64ToS(g.Extent.XMax), utils.F64ToS(g.Extent.YMax),
		utils.F64ToS(g.PixelSizeX), utils.F64ToS(g.PixelSizeY), g.TileSize)
}
