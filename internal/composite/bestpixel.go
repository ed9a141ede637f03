package composite

import (
	"fmt"
	"math"

	"github.com/airbusgeo/geomosaic/internal/mosaic"
)

// BestPixel is the representative-pixel function: for each pixel, it selects one acquisition and
// copies its whole band vector (QA band included).
//
// With a QA band, the selected acquisition is the one having a valid QA and at least one valid band,
// ranked by: clear first, then lowest QA score, then most recent.
// Without QA band (or if no acquisition has a valid QA), it is the most recent acquisition
// having all its bands valid, or else the most recent one having at least one valid band.
//
// BestPixel is also a QAMasker: ComputeQAMask(JointQA(observations, qaBand)) is the QA band of ComputeJoint.
type BestPixel struct {
	filter *QAFilter
}

// NewBestPixel returns a BestPixel function
func NewBestPixel(filter *QAFilter) *BestPixel {
	return &BestPixel{filter: filter}
}

func (b *BestPixel) Name() string {
	return "bestpixel"
}

func (b *BestPixel) BandByBand() bool {
	return false
}

type bandVector [][]*mosaic.BandArray

// valid returns the number of valid bands of pixel i at time t, ignoring band skip
func (v bandVector) valid(t, i, skip int) int {
	n := 0
	for b := range v {
		if b != skip && v[b][t].Valid(i) {
			n++
		}
	}
	return n
}

// bestQA returns the time of the best valid QA of pixel i, or -1
func (b *BestPixel) bestQA(qa []*mosaic.BandArray, i int) int {
	best, bestClear, bestScore := -1, false, 0
	for t := len(qa) - 1; t >= 0; t-- {
		if !qa[t].Valid(i) {
			continue
		}
		clear, score := b.filter.Clear(qa[t].Pixels[i]), b.filter.Score(qa[t].Pixels[i])
		// strict comparisons: on ties, the most recent (first visited) wins
		if best < 0 || (clear && !bestClear) || (clear == bestClear && score < bestScore) {
			best, bestClear, bestScore = t, clear, score
		}
	}
	return best
}

// selectRecent ignores the QA band qaBand (-1 without QA)
func (b *BestPixel) selectRecent(v bandVector, qaBand, nTimes, i int) int {
	nbands := len(v)
	if qaBand >= 0 {
		nbands--
	}
	partial := -1
	for t := nTimes - 1; t >= 0; t-- {
		n := v.valid(t, i, qaBand)
		if n == nbands && n > 0 {
			return t
		}
		if n > 0 && partial < 0 {
			partial = t
		}
	}
	return partial
}

// ComputeJoint implements JointFunction
func (b *BestPixel) ComputeJoint(observations [][]*mosaic.BandArray, qaBand int, nodata float64) ([]*mosaic.BandArray, error) {
	if len(observations) == 0 {
		return nil, fmt.Errorf("no band")
	}
	if qaBand >= len(observations) {
		return nil, fmt.Errorf("QA band %d out of range", qaBand)
	}
	nTimes := len(observations[0])
	var w, h int
	found := false
	for _, band := range observations {
		if len(band) != nTimes {
			return nil, fmt.Errorf("inconsistent number of observations: %d and %d", len(band), nTimes)
		}
		if !found {
			w, h, found = mosaic.Shape(band)
		}
	}
	if !found {
		return nil, fmt.Errorf("no observation")
	}
	outs := make([]*mosaic.BandArray, len(observations))
	for i, band := range observations {
		if err := mosaic.CheckShape(w, h, band...); err != nil {
			return nil, fmt.Errorf("band %d: %w", i, err)
		}
		outs[i] = mosaic.NewBandArray(w, h, nodata)
	}

	v := bandVector(observations)
	var qa []*mosaic.BandArray
	if qaBand >= 0 {
		qa = JointQA(observations, qaBand)
	}
	for i := 0; i < w*h; i++ {
		t := -1
		if qa != nil {
			t = b.bestQA(qa, i)
		}
		if t < 0 {
			t = b.selectRecent(v, qaBand, nTimes, i)
		}
		if t < 0 {
			continue
		}
		for band := range v {
			if val, ok := v[band][t].Value(i); ok {
				outs[band].Pixels[i] = val
			}
		}
	}
	return outs, nil
}

// ComputeQAMask implements QAMasker: the QA of the step ComputeJoint selects when given JointQA(observations)
func (b *BestPixel) ComputeQAMask(qa []*mosaic.BandArray, nodata float64) (*mosaic.BandArray, error) {
	out, err := newOutput(qa, nodata)
	if err != nil {
		return nil, err
	}
	for i := range out.Pixels {
		if t := b.bestQA(qa, i); t >= 0 {
			out.Pixels[i] = qa[t].Pixels[i]
		}
	}
	return out, nil
}

// JointQA returns copies of the QA arrays observations[qaBand] where the pixels without any other
// valid band are set to no-data, so that a QA-only ranking never selects an empty observation.
func JointQA(observations [][]*mosaic.BandArray, qaBand int) []*mosaic.BandArray {
	v := bandVector(observations)
	qa := make([]*mosaic.BandArray, len(observations[qaBand]))
	for t, src := range observations[qaBand] {
		if src == nil {
			continue
		}
		dst := *src
		dst.Pixels = make([]float64, len(src.Pixels))
		copy(dst.Pixels, src.Pixels)
		for i := range dst.Pixels {
			if src.Valid(i) && v.valid(t, i, qaBand) == 0 {
				dst.Pixels[i] = math.NaN()
			}
		}
		qa[t] = &dst
	}
	return qa
}
