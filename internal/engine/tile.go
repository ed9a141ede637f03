package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/airbusgeo/geomosaic/internal/composite"
	"github.com/airbusgeo/geomosaic/internal/image"
	"github.com/airbusgeo/geomosaic/internal/log"
	"github.com/airbusgeo/geomosaic/internal/metrics"
	"github.com/airbusgeo/geomosaic/internal/mosaic"
	"golang.org/x/sync/errgroup"
)

// processTiles composites the tiles in order and reports the progress after each of them
func (e *Engine) processTiles(ctx context.Context, r *run) (*Result, error) {
	n := len(r.tiles)
	res := &Result{
		RunID:       r.job.id,
		Workspace:   r.workspace,
		DatasetName: fmt.Sprintf("Mosaic [%s]", r.function.Name()),
		Coverage:    r.coverage.Name,
		Function:    r.function.Name(),
		Bands:       append([]string{}, r.coverage.Bands...),
		TileIDs:     make([]mosaic.TileID, n),
		TilePaths:   make([]string, n),
		Tiles:       n,
		Digests:     make(map[mosaic.TileID]uint64, n),
	}
	digests := make([]uint64, n)
	nodatas := make([]float64, n)

	var mu sync.Mutex
	done := 0
	tileDone := func() {
		mu.Lock()
		defer mu.Unlock()
		done++
		r.progress.SetProgress(done)
	}
	cancelled := func() error {
		if r.job.Cancelled() {
			mu.Lock()
			defer mu.Unlock()
			return mosaic.NewCancelled("cancelled after %d of %d tiles", done, n)
		}
		return nil
	}
	process := func(ctx context.Context, i int) error {
		var err error
		tile := r.tiles[i]
		res.TileIDs[i] = tile.ID
		res.TilePaths[i] = filepath.Join(r.workspace, tile.ID.FileName())
		if nodatas[i], err = e.processTile(log.With(ctx, "tile", string(tile.ID)), r, tile, res.TilePaths[i]); err != nil {
			return err
		}
		if digests[i], err = image.Digest(res.TilePaths[i]); err != nil {
			return err
		}
		e.opts.Metrics.TileDone(r.function.Name())
		tileDone()
		return nil
	}

	if e.opts.Workers <= 1 {
		for i := range r.tiles {
			if err := cancelled(); err != nil {
				return nil, err
			}
			if err := process(ctx, i); err != nil {
				return nil, err
			}
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.opts.Workers)
		for i := range r.tiles {
			if err := cancelled(); err != nil {
				g.Wait()
				return nil, err
			}
			if gctx.Err() != nil {
				break
			}
			i := i
			g.Go(func() error {
				if err := cancelled(); err != nil {
					return err
				}
				return process(gctx, i)
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	for i, id := range res.TileIDs {
		res.Digests[id] = digests[i]
	}
	res.NoData = nodatas[0]
	return res, nil
}

// processTile composites one tile and writes it in path. It returns the no-data value of the tile.
func (e *Engine) processTile(ctx context.Context, r *run, tile mosaic.Tile, path string) (float64, error) {
	observations, meta, err := e.readTile(ctx, r, tile)
	if err != nil {
		return 0, err
	}
	nodata := e.outputNoData(meta)

	start := time.Now()
	bands, err := e.compute(r, observations, nodata)
	if err != nil {
		if _, ok := mosaic.KindOf(err); !ok {
			err = mosaic.NewIOFailure(err, "compute tile %s", tile.ID)
		}
		return 0, err
	}
	e.elapsed(ctx, metrics.StageCompute, start)

	start = time.Now()
	meta.BandCount = len(bands)
	meta.NoData, meta.HasNoData = nodata, true
	tmp := path + ".tmp"
	if err := e.tileIO.WriteRaster(ctx, tmp, meta, bands); err != nil {
		os.Remove(tmp)
		return 0, err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return 0, mosaic.NewIOFailure(err, "rename tile %s", tile.ID)
	}
	e.elapsed(ctx, metrics.StageWrite, start)
	return nodata, nil
}

// readTile reads the bands of every layer on the tile ([band][time]).
// A layer without file for the tile contributes nil observations.
func (e *Engine) readTile(ctx context.Context, r *run, tile mosaic.Tile) ([][]*mosaic.BandArray, image.Metadata, error) {
	defer e.elapsed(ctx, metrics.StageRead, time.Now())
	meta, err := e.tileIO.ReadMetadata(ctx, filepath.Join(r.folders[0], tile.ID.FileName()))
	if err != nil {
		return nil, meta, err
	}
	nbands := len(r.coverage.Bands)
	if meta.BandCount != nbands {
		return nil, meta, mosaic.NewIOFailure(fmt.Errorf("%d bands, expected %d", meta.BandCount, nbands), "tile %s", tile.ID)
	}
	observations := make([][]*mosaic.BandArray, nbands)
	for b := range observations {
		observations[b] = make([]*mosaic.BandArray, len(r.folders))
	}
	for t, folder := range r.folders {
		path := filepath.Join(folder, tile.ID.FileName())
		if _, err := os.Stat(path); err != nil {
			continue
		}
		for b := 0; b < nbands; b++ {
			if observations[b][t], err = e.tileIO.ReadBand(ctx, path, b+1); err != nil {
				return nil, meta, err
			}
		}
	}
	return observations, meta, nil
}

// compute applies the mosaic function on the observations and returns the bands in the order of the coverage
func (e *Engine) compute(r *run, observations [][]*mosaic.BandArray, nodata float64) ([]*mosaic.BandArray, error) {
	qaBand := r.coverage.QABandIndex()
	if !r.function.BandByBand() {
		bands, err := r.function.(composite.JointFunction).ComputeJoint(observations, qaBand, nodata)
		if err != nil || qaBand < 0 {
			return bands, err
		}
		if bands[qaBand], err = r.function.(composite.QAMasker).ComputeQAMask(composite.JointQA(observations, qaBand), nodata); err != nil {
			return nil, fmt.Errorf("band %s: %w", r.coverage.Bands[qaBand], err)
		}
		return bands, nil
	}

	var qa []*mosaic.BandArray
	if qaBand >= 0 {
		qa = observations[qaBand]
	}
	bands := make([]*mosaic.BandArray, len(observations))
	var err error
	for b := range observations {
		if b == qaBand {
			bands[b], err = r.function.(composite.QAMasker).ComputeQAMask(qa, nodata)
		} else {
			bands[b], err = r.function.(composite.BandFunction).Compute(observations[b], qa, nodata)
		}
		if err != nil {
			return nil, fmt.Errorf("band %s: %w", r.coverage.Bands[b], err)
		}
	}
	return bands, nil
}

// outputNoData returns the no-data value of the output: the one of the options, the one of the reference layer
// or the default one of the data type
func (e *Engine) outputNoData(meta image.Metadata) float64 {
	switch {
	case e.opts.NoData != nil:
		return *e.opts.NoData
	case meta.HasNoData:
		return meta.NoData
	}
	return meta.DType.DefaultNoData()
}
