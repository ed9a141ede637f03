// Package engine computes mosaics: it validates the request, resolves the layers and the tiles,
// composites each tile with a mosaic function, merges the tiles and registers the result.
package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/airbusgeo/geomosaic/internal/composite"
	"github.com/airbusgeo/geomosaic/internal/image"
	"github.com/airbusgeo/geomosaic/internal/log"
	"github.com/airbusgeo/geomosaic/internal/metrics"
	"github.com/airbusgeo/geomosaic/internal/mosaic"
	"github.com/airbusgeo/geomosaic/internal/resolver"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CoverageSource provides the coverages
type CoverageSource interface {
	Coverage(ctx context.Context, name string) (*mosaic.Coverage, error)
}

// Options of the engine
type Options struct {
	// WorkDir receives the workspace of the runs whose request has no output folder
	WorkDir string
	// TileSize in pixels (mosaic.DefaultTileSize if 0)
	TileSize int
	// Workers is the number of tiles processed in parallel (sequential if <= 1)
	Workers int
	// Materializers is the number of layers materialized in parallel (4 if 0)
	Materializers int
	// NoData overrides the no-data value of the output
	NoData *float64
	// KeepFailed keeps the workspace of the failed runs
	KeepFailed bool
	Metrics    *metrics.Pipeline
	// NewMerger returns the merger of a format (image.NewMerger if nil)
	NewMerger func(mosaic.Format) (image.Merger, error)
}

// Result of a successful run
type Result struct {
	RunID       string
	Workspace   string
	RasterPath  string
	DatasetName string
	Coverage    string
	Function    string
	Bands       []string
	NoData      float64
	TileIDs     []mosaic.TileID
	TilePaths   []string
	Tiles       int
	// Digests of the tile files
	Digests map[mosaic.TileID]uint64
}

// Engine is the MosaicEngine
type Engine struct {
	coverages CoverageSource
	resolver  *resolver.Resolver
	functions *composite.Registry
	tileIO    image.TileIO
	registrar Registrar
	opts      Options
	locks     *folderLocks
}

// New creates an engine
func New(coverages CoverageSource, layers resolver.LayerSource, functions *composite.Registry, tileIO image.TileIO, registrar Registrar, opts Options) *Engine {
	if opts.Materializers <= 0 {
		opts.Materializers = 4
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.NewMerger == nil {
		opts.NewMerger = image.NewMerger
	}
	return &Engine{
		coverages: coverages,
		resolver:  resolver.New(layers, opts.TileSize),
		functions: functions,
		tileIO:    tileIO,
		registrar: registrar,
		opts:      opts,
		locks:     newFolderLocks(),
	}
}

// Run computes the mosaic and waits for the end of the run
func (e *Engine) Run(ctx context.Context, raw mosaic.RawRequest, progress Progress) (*Result, error) {
	return e.Start(ctx, raw, progress).Wait()
}

// Start computes the mosaic in the background.
// progress may be nil.
func (e *Engine) Start(ctx context.Context, raw mosaic.RawRequest, progress Progress) *Job {
	if progress == nil {
		progress = nopProgress{}
	}
	job := newJob(ctx)
	go func() {
		defer close(job.done)
		defer job.cancel()
		job.result, job.err = e.run(job, raw, progress)
	}()
	return job
}

// run is a mosaic run
type run struct {
	job      *Job
	progress Progress
	started  bool

	request    *mosaic.Request
	coverage   *mosaic.Coverage
	function   composite.Function
	merger     image.Merger
	target     string
	workspace  string
	resolution *resolver.Resolution
	// folders of the materialized tiles of each layer
	folders []string
	tiles   []mosaic.Tile
}

func (e *Engine) run(job *Job, raw mosaic.RawRequest, progress Progress) (*Result, error) {
	ctx := log.With(job.ctx, "run", job.id)
	start := time.Now()
	r := &run{job: job, progress: progress}

	res, err := e.execute(ctx, r, raw)
	if err != nil {
		if _, ok := mosaic.KindOf(err); !ok {
			err = mosaic.NewIOFailure(err, "mosaic")
		}
		kind, _ := mosaic.KindOf(err)
		job.setState(ctx, mosaic.StateFailed)
		progress.Message(LevelError, err.Error())
		if r.started {
			progress.CloseProgress()
		}
		if r.workspace != "" && !e.opts.KeepFailed {
			os.RemoveAll(r.workspace)
		}
		e.opts.Metrics.RunDone(kind.String())
		log.Logger(ctx).Error("mosaic failed", zap.Stringer("kind", kind), zap.Error(err))
		return nil, err
	}

	job.setState(ctx, mosaic.StateDone)
	progress.Message(LevelSuccess, fmt.Sprintf("mosaic created (%d tiles)", res.Tiles))
	progress.CloseProgress()
	e.opts.Metrics.RunDone("done")
	log.Logger(ctx).Info("mosaic created", zap.String("raster", res.RasterPath), zap.Int("tiles", res.Tiles), zap.Duration("duration", time.Since(start)))
	return res, nil
}

func (e *Engine) execute(ctx context.Context, r *run, raw mosaic.RawRequest) (*Result, error) {
	r.job.setState(ctx, mosaic.StateValidating)
	if err := e.validate(ctx, r, raw); err != nil {
		return nil, err
	}
	ctx = log.With(ctx, "coverage", r.coverage.Name)
	ctx = log.With(ctx, "function", r.function.Name())

	if !e.locks.acquire(r.target) {
		return nil, mosaic.NewBusy("a mosaic is already being computed in %s", r.target)
	}
	defer e.locks.release(r.target)
	r.workspace = filepath.Join(r.target, r.job.id)
	if err := os.MkdirAll(r.workspace, 0755); err != nil {
		r.workspace = ""
		return nil, mosaic.NewIOFailure(err, "create workspace")
	}

	r.job.setState(ctx, mosaic.StateResolvingTiles)
	if err := e.resolve(ctx, r); err != nil {
		return nil, err
	}

	r.job.setState(ctx, mosaic.StateProcessingTiles)
	r.progress.StartProgress(len(r.tiles))
	r.started = true
	res, err := e.processTiles(ctx, r)
	if err != nil {
		return nil, err
	}

	if r.job.Cancelled() {
		return nil, mosaic.NewCancelled("cancelled before merging")
	}
	r.job.setState(ctx, mosaic.StateMerging)
	if err := e.merge(ctx, r, res); err != nil {
		return nil, err
	}
	return res, nil
}

// validate parses the request and checks that the function can be applied on the coverage
func (e *Engine) validate(ctx context.Context, r *run, raw mosaic.RawRequest) error {
	var err error
	if r.request, err = mosaic.ParseRequest(raw); err != nil {
		return err
	}
	if r.coverage, err = e.coverages.Coverage(ctx, r.request.Coverage); err != nil {
		return err
	}
	if r.function, err = e.functions.Get(r.request.Function); err != nil {
		return err
	}
	if r.coverage.HasQA() && !composite.SupportsQA(r.function) {
		return mosaic.NewInvalidInput("function %s cannot process the %s band of coverage %s", r.function.Name(), mosaic.QABandName, r.coverage.Name)
	}
	if r.merger, err = e.opts.NewMerger(r.request.Format); err != nil {
		return err
	}
	if r.target = r.request.OutputDir; r.target == "" {
		r.target = e.opts.WorkDir
	}
	if r.target == "" {
		return mosaic.NewInvalidInput("no output folder")
	}
	return nil
}

// resolve selects the layers, materializes them and lists the tiles to process
func (e *Engine) resolve(ctx context.Context, r *run) error {
	var err error
	if r.resolution, err = e.resolver.Resolve(ctx, r.coverage, r.request.Extent, r.request.Window); err != nil {
		return err
	}
	if err = e.materialize(ctx, r); err != nil {
		return err
	}
	if r.job.Cancelled() {
		return mosaic.NewCancelled("cancelled during materialization")
	}

	// Tiles of the reference layer
	for _, id := range r.resolution.TileIDs {
		if _, err := os.Stat(filepath.Join(r.folders[0], id.FileName())); err != nil {
			continue
		}
		tile, err := r.resolution.Grid.TileByID(id)
		if err != nil {
			return mosaic.NewIOFailure(err, "tile %s", id)
		}
		r.tiles = append(r.tiles, tile)
	}
	if len(r.tiles) == 0 {
		return mosaic.NewNoDataInExtent("no tile of %s in %s", r.resolution.Layers[0].DatasetName(), r.request.Extent)
	}
	log.Logger(ctx).Sugar().Infof("%d layers, %d tiles to process", len(r.resolution.Layers), len(r.tiles))
	return nil
}

// materialize saves the tiles of every layer
func (e *Engine) materialize(ctx context.Context, r *run) error {
	defer e.elapsed(ctx, metrics.StageMaterialize, time.Now())
	layers := r.resolution.Layers
	r.folders = make([]string, len(layers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Materializers)
	for i, layer := range layers {
		i, layer := i, layer
		g.Go(func() error {
			folder, err := layer.SaveTiles(gctx, r.resolution.Grid)
			if err != nil {
				if _, ok := mosaic.KindOf(err); ok {
					return err
				}
				return mosaic.NewIOFailure(err, "materialize %s", layer.DatasetName())
			}
			r.folders[i] = folder
			return nil
		})
	}
	return g.Wait()
}

// merge merges the tiles, writes the tile index and registers the mosaic
func (e *Engine) merge(ctx context.Context, r *run, res *Result) error {
	defer e.elapsed(ctx, metrics.StageMerge, time.Now())
	res.RasterPath = filepath.Join(r.workspace, "mosaic_"+r.function.Name()+r.request.Format.Extension())
	if err := r.merger.Merge(ctx, res.TilePaths, res.RasterPath, res.NoData); err != nil {
		return err
	}
	names := make([]string, len(res.TilePaths))
	for i, p := range res.TilePaths {
		names[i] = filepath.Base(p)
	}
	if err := image.WriteTileIndex(filepath.Join(r.workspace, image.TileIndexFile), r.tiles, names); err != nil {
		return err
	}
	if err := e.registrar.AddLayerIntoGroup(ctx, res.RasterPath, res.DatasetName, r.coverage.Name, r.coverage.Bands); err != nil {
		return mosaic.NewIOFailure(err, "register %s", res.DatasetName)
	}
	return nil
}

func (e *Engine) elapsed(ctx context.Context, stage string, start time.Time) {
	e.opts.Metrics.ObserveStage(stage, log.Elapsed(ctx, stage, start))
}
