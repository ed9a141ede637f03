// Package catalog is a file-based connector describing coverages and their layers.
package catalog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/airbusgeo/geomosaic/interface/storage/uri"
	"github.com/airbusgeo/geomosaic/internal/mosaic"
	"gopkg.in/yaml.v3"
)

// CoverageConfig is the description of a coverage in the catalog file
type CoverageConfig struct {
	Name  string   `yaml:"name"`
	Bands []string `yaml:"bands"`
}

// LayerConfig is the description of a layer in the catalog file
type LayerConfig struct {
	Coverage string `yaml:"coverage"`
	Dataset  string `yaml:"dataset"`
	Time     string `yaml:"time"`
	// Path of a GDAL-readable raster whose bands are in the order of the coverage.
	// Relative paths are relative to the catalog file.
	Path string `yaml:"path"`
}

// Config is the content of a catalog file
type Config struct {
	Coverages []CoverageConfig `yaml:"coverages"`
	Layers    []LayerConfig    `yaml:"layers"`
}

// Catalog references coverages and their layers
type Catalog struct {
	cacheDir string

	mu        sync.RWMutex
	coverages map[string]*mosaic.Coverage
	layers    map[string][]mosaic.Layer
}

// New returns an empty catalog. Layers are materialized in cacheDir.
func New(cacheDir string) *Catalog {
	return &Catalog{
		cacheDir:  cacheDir,
		coverages: map[string]*mosaic.Coverage{},
		layers:    map[string][]mosaic.Layer{},
	}
}

// Load reads the catalog file (local path, file:// or gs:// uri)
func Load(ctx context.Context, path, cacheDir string) (*Catalog, error) {
	strategy, err := uri.NewStrategy(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("Load: %w", err)
	}
	data, err := strategy.Download(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("Load(%s): %w", path, err)
	}
	if uri.Protocol(path) == "file" {
		path = strings.TrimPrefix(path, "file://")
	}
	c := New(cacheDir)
	if err := c.Parse(bytes.NewReader(data), uri.Dir(path)); err != nil {
		return nil, fmt.Errorf("Load(%s): %w", path, err)
	}
	return c, nil
}

// Parse adds the coverages and layers described by the YAML document read from r.
// Relative layer paths are resolved against baseDir.
func (c *Catalog) Parse(r io.Reader, baseDir string) error {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return mosaic.NewInvalidInput("invalid catalog: %v", err)
	}
	for _, cc := range cfg.Coverages {
		if _, err := c.AddCoverage(cc.Name, cc.Bands); err != nil {
			return err
		}
	}
	for _, lc := range cfg.Layers {
		if lc.Path != "" && !filepath.IsAbs(lc.Path) && !isRemote(lc.Path) {
			lc.Path = uri.Join(baseDir, lc.Path)
		}
		if _, err := c.AddLayer(lc); err != nil {
			return err
		}
	}
	return nil
}

// AddCoverage adds a new coverage
func (c *Catalog) AddCoverage(name string, bands []string) (*mosaic.Coverage, error) {
	coverage, err := mosaic.NewCoverage(name, bands)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.coverages[name]; ok {
		return nil, mosaic.NewInvalidInput("coverage %s already exists", name)
	}
	c.coverages[name] = coverage
	return coverage, nil
}

// AddLayer adds a layer to an existing coverage
func (c *Catalog) AddLayer(lc LayerConfig) (*FileLayer, error) {
	if lc.Path == "" {
		return nil, mosaic.NewInvalidInput("layer %s: missing path", lc.Dataset)
	}
	if _, err := mosaic.ParseDate(lc.Time); err != nil {
		return nil, mosaic.NewInvalidInput("layer %s: invalid time %q", lc.Dataset, lc.Time)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	coverage, ok := c.coverages[lc.Coverage]
	if !ok {
		return nil, mosaic.NewInvalidInput("layer %s: unknown coverage %q", lc.Dataset, lc.Coverage)
	}
	if lc.Dataset == "" {
		lc.Dataset = filepath.Base(lc.Path)
	}
	l := newFileLayer(lc, len(coverage.Bands), c.cacheDir)
	c.layers[lc.Coverage] = append(c.layers[lc.Coverage], l)
	return l, nil
}

// Coverage returns the coverage with the given name
func (c *Catalog) Coverage(ctx context.Context, name string) (*mosaic.Coverage, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	coverage, ok := c.coverages[name]
	if !ok {
		return nil, mosaic.NewInvalidInput("unknown coverage %q", name)
	}
	return coverage, nil
}

// Coverages returns the names of the coverages, sorted
func (c *Catalog) Coverages() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.coverages))
	for name := range c.coverages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Layers returns the layers of the coverage, in the order they were added
func (c *Catalog) Layers(ctx context.Context, coverage string) ([]mosaic.Layer, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.coverages[coverage]; !ok {
		return nil, mosaic.NewInvalidInput("unknown coverage %q", coverage)
	}
	return append([]mosaic.Layer{}, c.layers[coverage]...), nil
}

// TimeRange returns the dates of the oldest and the most recent valid layers of the coverage.
// It fails with EmptySelection if the coverage has no valid layer.
func (c *Catalog) TimeRange(ctx context.Context, coverage string) (start, end time.Time, err error) {
	layers, err := c.Layers(ctx, coverage)
	if err != nil {
		return start, end, err
	}
	found := false
	for _, l := range layers {
		if !l.IsValid(ctx) {
			continue
		}
		t, err := mosaic.ParseDate(l.Time())
		if err != nil {
			continue
		}
		if !found || t.Before(start) {
			start = t
		}
		if !found || t.After(end) {
			end = t
		}
		found = true
	}
	if !found {
		return start, end, mosaic.NewEmptySelection("no valid layer of coverage %s", coverage)
	}
	return start, end, nil
}
