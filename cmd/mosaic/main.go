package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/airbusgeo/geomosaic/cmd"
	"github.com/airbusgeo/geomosaic/internal/catalog"
	"github.com/airbusgeo/geomosaic/internal/composite"
	"github.com/airbusgeo/geomosaic/internal/engine"
	"github.com/airbusgeo/geomosaic/internal/image"
	"github.com/airbusgeo/geomosaic/internal/log"
	"github.com/airbusgeo/geomosaic/internal/mosaic"
	"go.uber.org/zap"
)

type mosaicConfig struct {
	Catalog    string
	CacheDir   string
	WorkDir    string
	Workers    int
	TileSize   int
	NoData     string
	KeepFailed bool
	QAClear    string
	QAScore    string
	Request    mosaic.RawRequest
	GDALConfig *cmd.GDALConfig
}

func main() {
	log.Console()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx); err != nil {
		log.Logger(ctx).Error("exit on error", zap.Error(err))
		os.Exit(1)
	}
}

func newMosaicConfig() (*mosaicConfig, error) {
	c := mosaicConfig{}
	flag.StringVar(&c.Catalog, "catalog", "", "yaml file describing the coverages and their layers")
	flag.StringVar(&c.CacheDir, "cachedir", "", "folder receiving the tiles of the layers (default: <workdir>/cache)")
	flag.StringVar(&c.WorkDir, "workdir", "", "scratch work directory, used when --output is not set")
	flag.IntVar(&c.Workers, "workers", 1, "number of tiles processed in parallel")
	flag.IntVar(&c.TileSize, "tileSize", mosaic.DefaultTileSize, "size of the tiles in pixels")
	flag.StringVar(&c.NoData, "nodata", "", "no-data value of the mosaic (default: the one of the layers)")
	flag.BoolVar(&c.KeepFailed, "keepFailed", false, "keep the workspace of a failed run")
	flag.StringVar(&c.QAClear, "qaClear", "", "expression on the qa code telling whether a pixel is clear")
	flag.StringVar(&c.QAScore, "qaScore", "", "expression on the qa code scoring a clear pixel")

	flag.StringVar(&c.Request.Coverage, "coverage", "", "name of the coverage")
	flag.StringVar(&c.Request.XMin, "xmin", "", "extent of the mosaic")
	flag.StringVar(&c.Request.YMin, "ymin", "", "extent of the mosaic")
	flag.StringVar(&c.Request.XMax, "xmax", "", "extent of the mosaic")
	flag.StringVar(&c.Request.YMax, "ymax", "", "extent of the mosaic")
	flag.StringVar(&c.Request.StartDate, "start", "", "first date (2006-01-02) or year of the time window")
	flag.StringVar(&c.Request.EndDate, "end", "", "last date (2006-01-02) or year of the time window")
	flag.StringVar(&c.Request.Function, "function", "", "mosaic function")
	flag.StringVar(&c.Request.OutputDir, "output", "", "folder receiving the mosaic")
	flag.StringVar(&c.Request.Format, "format", "", "format of the mosaic (vrt, gtiff, cog)")
	c.GDALConfig = cmd.GDALConfigFlags()

	flag.Parse()

	if c.Catalog == "" {
		return nil, fmt.Errorf("missing --catalog config flag")
	}
	if c.WorkDir == "" && c.Request.OutputDir == "" {
		return nil, fmt.Errorf("missing --workdir or --output config flag")
	}
	if c.CacheDir == "" {
		if c.WorkDir == "" {
			c.CacheDir = c.Request.OutputDir
		} else {
			c.CacheDir = c.WorkDir
		}
		c.CacheDir += string(os.PathSeparator) + "cache"
	}
	return &c, nil
}

func run(ctx context.Context) error {
	c, err := newMosaicConfig()
	if err != nil {
		return err
	}
	if err := cmd.InitGDAL(ctx, c.GDALConfig); err != nil {
		return fmt.Errorf("init gdal: %w", err)
	}

	opts := engine.Options{
		WorkDir:    c.WorkDir,
		TileSize:   c.TileSize,
		Workers:    c.Workers,
		KeepFailed: c.KeepFailed,
	}
	if c.NoData != "" {
		nodata, err := strconv.ParseFloat(c.NoData, 64)
		if err != nil {
			return fmt.Errorf("--nodata: %w", err)
		}
		opts.NoData = &nodata
	}

	filter := composite.DefaultQAFilter()
	if c.QAClear != "" || c.QAScore != "" {
		if filter, err = composite.NewQAFilter(c.QAClear, c.QAScore); err != nil {
			return fmt.Errorf("qa filter: %w", err)
		}
	}
	functions := composite.DefaultRegistry(filter)

	cat, err := catalog.Load(ctx, c.Catalog, c.CacheDir)
	if err != nil {
		return err
	}
	if c.Request.StartDate == "" || c.Request.EndDate == "" {
		// an unbounded time window is the range of the valid layers
		if start, end, err := cat.TimeRange(ctx, c.Request.Coverage); err == nil {
			if c.Request.StartDate == "" {
				c.Request.StartDate = start.Format("2006-01-02")
			}
			if c.Request.EndDate == "" {
				c.Request.EndDate = end.Format("2006-01-02")
			}
			log.Logger(ctx).Sugar().Infof("time window: %s to %s", c.Request.StartDate, c.Request.EndDate)
		}
	}
	tileIO, err := image.NewGdalTileIO(0)
	if err != nil {
		return err
	}

	e := engine.New(cat, cat, functions, tileIO, consoleRegistrar{}, opts)
	res, err := e.Run(ctx, c.Request, &consoleProgress{ctx: ctx})
	if err != nil {
		return err
	}
	fmt.Println(res.RasterPath)
	return nil
}

// consoleProgress logs the progress of the run
type consoleProgress struct {
	ctx   context.Context
	total int
}

func (p *consoleProgress) StartProgress(total int) {
	p.total = total
	log.Logger(p.ctx).Sugar().Infof("processing %d tiles", total)
}

func (p *consoleProgress) SetProgress(index int) {
	log.Logger(p.ctx).Sugar().Infof("tile %d/%d", index, p.total)
}

func (p *consoleProgress) CloseProgress() {}

func (p *consoleProgress) Message(level engine.Level, msg string) {
	switch level {
	case engine.LevelError:
		log.Logger(p.ctx).Error(msg)
	case engine.LevelWarning:
		log.Logger(p.ctx).Warn(msg)
	default:
		log.Logger(p.ctx).Info(msg)
	}
}

// consoleRegistrar only logs the mosaic
type consoleRegistrar struct{}

func (consoleRegistrar) AddLayerIntoGroup(ctx context.Context, rasterPath, datasetName, coverageName string, bandNames []string) error {
	log.Logger(ctx).Info("mosaic ready",
		zap.String("raster", rasterPath),
		zap.String("dataset", datasetName),
		zap.String("coverage", coverageName),
		zap.Strings("bands", bandNames))
	return nil
}
