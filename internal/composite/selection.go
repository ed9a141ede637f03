package composite

import (
	"fmt"

	"github.com/airbusgeo/geomosaic/internal/mosaic"
)

// selector holds the QA filter shared by the band-by-band functions
type selector struct {
	filter *QAFilter
}

func (s selector) clear(qa []*mosaic.BandArray, t, i int) bool {
	if qa == nil {
		return true
	}
	return qa[t].Valid(i) && s.filter.Clear(qa[t].Pixels[i])
}

// candidates appends to buf the time indexes of the valid observations of pixel i.
// If at least one of them is clear, only the clear ones are returned.
func (s selector) candidates(observations, qa []*mosaic.BandArray, i int, buf []int) []int {
	buf = buf[:0]
	for t, o := range observations {
		if o.Valid(i) && s.clear(qa, t, i) {
			buf = append(buf, t)
		}
	}
	if len(buf) > 0 || qa == nil {
		return buf
	}
	for t, o := range observations {
		if o.Valid(i) {
			buf = append(buf, t)
		}
	}
	return buf
}

// ComputeQAMask returns, for each pixel, the QA of the most recent clear observation,
// or of the most recent valid observation if none is clear.
func (s selector) ComputeQAMask(qa []*mosaic.BandArray, nodata float64) (*mosaic.BandArray, error) {
	out, err := newOutput(qa, nodata)
	if err != nil {
		return nil, err
	}
	for i := range out.Pixels {
		best := -1
		for t := len(qa) - 1; t >= 0; t-- {
			if !qa[t].Valid(i) {
				continue
			}
			if s.filter.Clear(qa[t].Pixels[i]) {
				best = t
				break
			}
			if best < 0 {
				best = t
			}
		}
		if best >= 0 {
			out.Pixels[i] = qa[best].Pixels[i]
		}
	}
	return out, nil
}

func newOutput(observations []*mosaic.BandArray, nodata float64) (*mosaic.BandArray, error) {
	w, h, ok := mosaic.Shape(observations)
	if !ok {
		return nil, fmt.Errorf("no observation")
	}
	if err := mosaic.CheckShape(w, h, observations...); err != nil {
		return nil, err
	}
	return mosaic.NewBandArray(w, h, nodata), nil
}

func checkInputs(observations, qa []*mosaic.BandArray) error {
	if qa != nil && len(qa) != len(observations) {
		return fmt.Errorf("got %d QA arrays for %d observations", len(qa), len(observations))
	}
	w, h, _ := mosaic.Shape(observations)
	return mosaic.CheckShape(w, h, qa...)
}
