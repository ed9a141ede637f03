package mosaic

import (
	"fmt"
	"math"
	"strings"
)

// DType is one of supported DataTypes for raster
type DType int

// Supported DataTypes
const (
	DTypeUNDEFINED DType = iota
	DTypeUINT8
	DTypeUINT16
	DTypeUINT32
	DTypeINT8
	DTypeINT16
	DTypeINT32
	DTypeFLOAT32
	DTypeFLOAT64
)

var dtypeNames = [...]string{"undefined", "uint8", "uint16", "uint32", "int8", "int16", "int32", "float32", "float64"}

func (dtype DType) String() string {
	if dtype < 0 || int(dtype) >= len(dtypeNames) {
		return fmt.Sprintf("DType(%d)", dtype)
	}
	return dtypeNames[dtype]
}

// DTypeFromString converts string dtype to DType
func DTypeFromString(s string) DType {
	s = strings.ToLower(s)
	if s == "byte" {
		return DTypeUINT8
	}
	for i, n := range dtypeNames {
		if n == s {
			return DType(i)
		}
	}
	return DTypeUNDEFINED
}

// DefaultNoData returns the no-data sentinel used for outputs of this type
// when none is configured: the maximum value for unsigned types, -9999 otherwise.
func (dtype DType) DefaultNoData() float64 {
	switch dtype {
	case DTypeUINT8:
		return math.MaxUint8
	case DTypeUINT16:
		return math.MaxUint16
	case DTypeUINT32:
		return math.MaxUint32
	case DTypeINT8:
		return math.MinInt8
	default:
		return -9999
	}
}

// BandArray is one band of one tile, with its no-data marker.
// Pixels are stored row-major as float64 whatever the type of the source.
type BandArray struct {
	Width, Height int
	Pixels        []float64
	NoData        float64
	HasNoData     bool
}

// NewBandArray returns a width x height array filled with nodata
func NewBandArray(width, height int, nodata float64) *BandArray {
	b := &BandArray{Width: width, Height: height, Pixels: make([]float64, width*height), NoData: nodata, HasNoData: true}
	if nodata != 0 {
		for i := range b.Pixels {
			b.Pixels[i] = nodata
		}
	}
	return b
}

// Len returns the number of pixels
func (b *BandArray) Len() int {
	return b.Width * b.Height
}

// SameShape returns true if the two arrays have the same dimensions
func (b *BandArray) SameShape(o *BandArray) bool {
	return b.Width == o.Width && b.Height == o.Height
}

// IsNoData returns true if v is the no-data value of the array (NaN-aware)
func (b *BandArray) IsNoData(v float64) bool {
	if math.IsNaN(v) {
		return true
	}
	if !b.HasNoData {
		return false
	}
	return v == b.NoData || (math.IsNaN(b.NoData) && math.IsNaN(v))
}

// Valid returns true if the pixel i holds an observation.
// A nil array is an absent observation.
func (b *BandArray) Valid(i int) bool {
	return b != nil && !b.IsNoData(b.Pixels[i])
}

// Value returns the value of the pixel i and whether it is valid
func (b *BandArray) Value(i int) (float64, bool) {
	if !b.Valid(i) {
		return 0, false
	}
	return b.Pixels[i], true
}

// CheckShape returns an error if one of the non-nil arrays does not have the expected dimensions
func CheckShape(width, height int, arrays ...*BandArray) error {
	for i, a := range arrays {
		if a != nil && (a.Width != width || a.Height != height) {
			return fmt.Errorf("array %d is %dx%d, expected %dx%d", i, a.Width, a.Height, width, height)
		}
	}
	return nil
}

// Shape returns the dimensions of the first non-nil array
func Shape(arrays []*BandArray) (int, int, bool) {
	for _, a := range arrays {
		if a != nil {
			return a.Width, a.Height, true
		}
	}
	return 0, 0, false
}
