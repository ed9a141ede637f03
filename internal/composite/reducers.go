package composite

import (
	"sort"

	"github.com/airbusgeo/geomosaic/internal/mosaic"
)

// reducer is a band-by-band function reducing the candidate values of each pixel
// (ordered by acquisition time) to one value
type reducer struct {
	selector
	name   string
	reduce func(values []float64) float64
}

func (r *reducer) Name() string {
	return r.name
}

func (r *reducer) BandByBand() bool {
	return true
}

// Compute implements BandFunction
func (r *reducer) Compute(observations []*mosaic.BandArray, qa []*mosaic.BandArray, nodata float64) (*mosaic.BandArray, error) {
	if err := checkInputs(observations, qa); err != nil {
		return nil, err
	}
	out, err := newOutput(observations, nodata)
	if err != nil {
		return nil, err
	}
	idx := make([]int, 0, len(observations))
	values := make([]float64, 0, len(observations))
	for i := range out.Pixels {
		idx = r.candidates(observations, qa, i, idx)
		if len(idx) == 0 {
			continue
		}
		values = values[:0]
		for _, t := range idx {
			values = append(values, observations[t].Pixels[i])
		}
		out.Pixels[i] = r.reduce(values)
	}
	return out, nil
}

// NewMax returns the function keeping the highest clear observation
func NewMax(filter *QAFilter) BandFunction {
	return &reducer{selector: selector{filter}, name: "max", reduce: func(values []float64) float64 {
		v := values[0]
		for _, x := range values[1:] {
			if x > v {
				v = x
			}
		}
		return v
	}}
}

// NewMin returns the function keeping the lowest clear observation
func NewMin(filter *QAFilter) BandFunction {
	return &reducer{selector: selector{filter}, name: "min", reduce: func(values []float64) float64 {
		v := values[0]
		for _, x := range values[1:] {
			if x < v {
				v = x
			}
		}
		return v
	}}
}

// NewMedian returns the function computing the median of the clear observations
// (the mean of the two middle values for an even count)
func NewMedian(filter *QAFilter) BandFunction {
	return &reducer{selector: selector{filter}, name: "median", reduce: func(values []float64) float64 {
		sort.Float64s(values)
		n := len(values)
		if n%2 == 1 {
			return values[n/2]
		}
		return (values[n/2-1] + values[n/2]) / 2
	}}
}

// NewMostRecent returns the function keeping the most recent clear observation
func NewMostRecent(filter *QAFilter) BandFunction {
	return &reducer{selector: selector{filter}, name: "mostrecent", reduce: func(values []float64) float64 {
		return values[len(values)-1]
	}}
}
