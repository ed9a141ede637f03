// Package resolver selects the layers contributing to a mosaic and the tiles to process.
package resolver

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/airbusgeo/geomosaic/internal/log"
	"github.com/airbusgeo/geomosaic/internal/mosaic"
	"go.uber.org/zap"
)

// LayerSource provides the layers of a coverage
type LayerSource interface {
	Layers(ctx context.Context, coverage string) ([]mosaic.Layer, error)
}

// Resolution is the output of Resolve
type Resolution struct {
	// Layers contributing to the mosaic, ordered by acquisition time (the first one is the reference layer)
	Layers []mosaic.Layer
	Times  []time.Time
	Grid   *mosaic.TileGrid
	// TileIDs of the grid, in row-major order
	TileIDs []mosaic.TileID
}

// Resolver is the TileSetResolver
type Resolver struct {
	source   LayerSource
	tileSize int
}

// New returns a resolver building grids of tiles of tileSize pixels (mosaic.DefaultTileSize if tileSize <= 0)
func New(source LayerSource, tileSize int) *Resolver {
	if tileSize <= 0 {
		tileSize = mosaic.DefaultTileSize
	}
	return &Resolver{source: source, tileSize: tileSize}
}

type timedLayer struct {
	layer mosaic.Layer
	time  time.Time
}

// Resolve returns the valid layers of the coverage acquired during the window, and the tiling of the extent.
// Fails with InvalidExtent if the extent is degenerate, with EmptySelection if no layer remains.
func (r *Resolver) Resolve(ctx context.Context, coverage *mosaic.Coverage, extent mosaic.Extent, window mosaic.TimeWindow) (*Resolution, error) {
	if extent.Degenerate() {
		return nil, mosaic.NewInvalidExtent("extent %s has no area", extent)
	}

	layers, err := r.source.Layers(ctx, coverage.Name)
	if err != nil {
		return nil, fmt.Errorf("Resolve.Layers: %w", err)
	}

	var selected []timedLayer
	for _, l := range layers {
		if !l.IsValid(ctx) {
			log.Logger(ctx).Debug("skipping invalid layer", zap.String("dataset", l.DatasetName()))
			continue
		}
		t, err := mosaic.ParseDate(l.Time())
		if err != nil {
			log.Logger(ctx).Debug("skipping layer with invalid time", zap.String("dataset", l.DatasetName()), zap.Error(err))
			continue
		}
		selected = append(selected, timedLayer{layer: l, time: t})
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].time.Before(selected[j].time)
	})

	res := Resolution{}
	for _, tl := range selected {
		if window.Contains(tl.time) {
			res.Layers = append(res.Layers, tl.layer)
			res.Times = append(res.Times, tl.time)
		}
	}
	if len(res.Layers) == 0 {
		return nil, mosaic.NewEmptySelection("no valid layer of coverage %s in %s (%d layers, %d valid)", coverage.Name, window, len(layers), len(selected))
	}

	px, py, err := res.Layers[0].PixelSize(ctx)
	if err != nil {
		return nil, mosaic.NewIOFailure(err, "pixel size of %s", res.Layers[0].DatasetName())
	}
	if res.Grid, err = mosaic.NewTileGrid(extent, px, py, r.tileSize); err != nil {
		return nil, err
	}
	res.TileIDs = res.Grid.TileIDs()

	log.Logger(ctx).Sugar().Debugf("%d layers selected from %s to %s, %d tiles of %dx%d pixels",
		len(res.Layers), res.Times[0].Format("2006-01-02"), res.Times[len(res.Times)-1].Format("2006-01-02"),
		len(res.TileIDs), r.tileSize, r.tileSize)
	return &res, nil
}
