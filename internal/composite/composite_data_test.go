package composite_test

import (
	"github.com/airbusgeo/geomosaic/internal/mosaic"
)

const (
	nd = -9999.
	// Landsat pixel_qa codes
	qaClear  = 322  // clear, low confidence cloud
	qaCloud  = 480  // cloud, medium confidence
	qaShadow = 328  // cloud shadow
	qaFill   = 1    // fill
	qaSnow   = 336  // snow
	qaCirrus = 834  // clear with high cirrus confidence
	out      = -1.0 // output sentinel
)

// row builds a 1-row band array with the -9999 no-data
func row(values ...float64) *mosaic.BandArray {
	return &mosaic.BandArray{Width: len(values), Height: 1, Pixels: values, NoData: nd, HasNoData: true}
}
