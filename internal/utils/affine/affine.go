// Package affine handles 2D affine transformations, following GDAL geotransform convention
// (x = a0 + i*a1 + j*a2, y = a3 + i*a4 + j*a5)
package affine

import "math/big"

// Affine follows the GDAL transform convention
type Affine [6]float64

func NewAffine(a, b, c, d, e, f float64) *Affine {
	res := Affine([6]float64{a, b, c, d, e, f})
	return &res
}

// Translation creates a translation transform from (offx, offy)
func Translation(offx, offy float64) *Affine {
	return NewAffine(offx, 1.0, 0, offy, 0, 1.0)
}

// Scale creates a scale transform from (scalex, scaley)
func Scale(scalex, scaley float64) *Affine {
	return NewAffine(0, scalex, 0, 0, 0, scaley)
}

// NorthUp creates the transform of a north-up grid whose top-left corner is (x0, y0)
// and pixel size is (rx, ry) (ry > 0)
func NorthUp(x0, y0, rx, ry float64) *Affine {
	return Translation(x0, y0).Multiply(Scale(rx, -ry))
}

// Rx returns the X resolution
func (a *Affine) Rx() float64 {
	return a[1]
}

// Ry returns the Y resolution
func (a *Affine) Ry() float64 {
	return a[5]
}

const (
	prec = 128
)

// highPrecisionTransform, such as highPrecisionTransform(xs, x+1, sy, y+1, o) = highPrecisionTransform(xs, x, sy, y, o) + highPrecisionTransform(xs, 1, sy, 1, 0)
func highPrecisionTransform(sx, x, sy, y, o float64) float64 {
	sX := big.NewFloat(sx).SetPrec(prec)
	sY := big.NewFloat(sy).SetPrec(prec)
	X := big.NewFloat(x).SetPrec(prec)
	Y := big.NewFloat(y).SetPrec(prec)
	O := big.NewFloat(o).SetPrec(prec)
	r, _ := O.Add(O, sX.Mul(sX, X)).Add(O, sY.Mul(sY, Y)).Float64() // o + sx*x + sy*y
	return r
}

// Multiply merges the two affines transforms into one.
func (a *Affine) Multiply(b *Affine) *Affine {
	return NewAffine(
		highPrecisionTransform(a[1], b[0], a[2], b[3], a[0]),
		highPrecisionTransform(a[1], b[1], a[2], b[4], 0),
		highPrecisionTransform(a[1], b[2], a[2], b[5], 0),
		highPrecisionTransform(a[4], b[0], a[5], b[3], a[3]),
		highPrecisionTransform(a[4], b[1], a[5], b[4], 0),
		highPrecisionTransform(a[4], b[2], a[5], b[5], 0),
	)
}

// Transform applies the affine transform to the point (x, y)
func (a *Affine) Transform(x float64, y float64) (float64, float64) {
	return highPrecisionTransform(a[1], x, a[2], y, a[0]), highPrecisionTransform(a[4], x, a[5], y, a[3])
}

// Bounds returns the (xmin, ymin, xmax, ymax) envelope of a raster of width x height pixels
func (a *Affine) Bounds(width, height int) (float64, float64, float64, float64) {
	xs, ys := [4]float64{}, [4]float64{}
	xs[0], ys[0] = a.Transform(0, 0)
	xs[1], ys[1] = a.Transform(float64(width), 0)
	xs[2], ys[2] = a.Transform(0, float64(height))
	xs[3], ys[3] = a.Transform(float64(width), float64(height))
	xmin, ymin, xmax, ymax := xs[0], ys[0], xs[0], ys[0]
	for i := 1; i < 4; i++ {
		xmin, xmax = min(xmin, xs[i]), max(xmax, xs[i])
		ymin, ymax = min(ymin, ys[i]), max(ymax, ys[i])
	}
	return xmin, ymin, xmax, ymax
}
