// Package composite provides the compositing strategies reducing a time series of
// observations of a pixel to one value.
package composite

import (
	"fmt"
	"strings"
	"sync"

	"github.com/airbusgeo/geomosaic/internal/mosaic"
)

// Function is a named compositing strategy.
// A Function is also a BandFunction (BandByBand() is true) or a JointFunction.
type Function interface {
	Name() string
	// BandByBand returns true if bands are composited independently
	BandByBand() bool
}

// BandFunction composites one band at a time.
type BandFunction interface {
	Function
	// Compute reduces observations (one per layer, ordered by time, nil if absent) to one array.
	// qa holds the QA band of the same layers, or is nil if the coverage has no QA band.
	// Pixels without valid observation are set to nodata.
	Compute(observations []*mosaic.BandArray, qa []*mosaic.BandArray, nodata float64) (*mosaic.BandArray, error)
}

// QAMasker is implemented by the functions supporting coverages with a QA band.
type QAMasker interface {
	// ComputeQAMask returns the QA band of the composite, consistently with the selection of Compute
	ComputeQAMask(qa []*mosaic.BandArray, nodata float64) (*mosaic.BandArray, error)
}

// JointFunction composites all bands at once, so that the output pixel is the band vector of one
// observation.
type JointFunction interface {
	Function
	// ComputeJoint takes observations[band][time] (nil if absent) and returns one array per band.
	// qaBand is the index of the QA band in observations, or -1.
	ComputeJoint(observations [][]*mosaic.BandArray, qaBand int, nodata float64) ([]*mosaic.BandArray, error)
}

// SupportsQA returns true if the function can composite a coverage having a QA band
func SupportsQA(f Function) bool {
	_, ok := f.(QAMasker)
	return ok
}

// Registry is an ordered set of functions, looked up by name (case insensitive) or by index.
type Registry struct {
	mu        sync.RWMutex
	functions []Function
	byName    map[string]int
}

// NewRegistry returns an empty registry
func NewRegistry() *Registry {
	return &Registry{byName: map[string]int{}}
}

// DefaultRegistry returns a registry with all the functions of this package
func DefaultRegistry(filter *QAFilter) *Registry {
	r := NewRegistry()
	for _, f := range []Function{
		NewMax(filter),
		NewMin(filter),
		NewMedian(filter),
		NewMostRecent(filter),
		NewBestPixel(filter),
	} {
		if err := r.Register(f); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds a function to the registry
func (r *Registry) Register(f Function) error {
	if _, ok := f.(BandFunction); f.BandByBand() && !ok {
		return fmt.Errorf("function %s is band-by-band but does not implement BandFunction", f.Name())
	}
	if _, ok := f.(JointFunction); !f.BandByBand() && !ok {
		return fmt.Errorf("function %s is joint but does not implement JointFunction", f.Name())
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := strings.ToLower(f.Name())
	if _, ok := r.byName[key]; ok {
		return fmt.Errorf("function %s already registered", f.Name())
	}
	r.byName[key] = len(r.functions)
	r.functions = append(r.functions, f)
	return nil
}

// Get returns the function named name
func (r *Registry) Get(name string) (Function, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, mosaic.NewInvalidInput("unknown mosaic function %q (available: %s)", name, strings.Join(r.names(), ", "))
	}
	return r.functions[i], nil
}

// At returns the i-th registered function
func (r *Registry) At(i int) (Function, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i < 0 || i >= len(r.functions) {
		return nil, mosaic.NewInvalidInput("no mosaic function at index %d", i)
	}
	return r.functions[i], nil
}

// Names returns the names of the functions in registration order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.names()
}

func (r *Registry) names() []string {
	names := make([]string, len(r.functions))
	for i, f := range r.functions {
		names[i] = f.Name()
	}
	return names
}
