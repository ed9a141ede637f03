package mosaic

import (
	"fmt"
	"time"
)

// Extent is an axis-aligned bounding box in the coverage CRS
type Extent struct {
	XMin, YMin, XMax, YMax float64
}

// Width of the extent
func (e Extent) Width() float64 {
	return e.XMax - e.XMin
}

// Height of the extent
func (e Extent) Height() float64 {
	return e.YMax - e.YMin
}

// Degenerate returns true if the extent has no area
func (e Extent) Degenerate() bool {
	return !(e.XMin < e.XMax) || !(e.YMin < e.YMax)
}

// Inverted returns true if a max bound is strictly lower than the corresponding min bound
func (e Extent) Inverted() bool {
	return e.XMin > e.XMax || e.YMin > e.YMax
}

// Intersects returns true if the two extents share a non-empty area
func (e Extent) Intersects(o Extent) bool {
	return e.XMin < o.XMax && o.XMin < e.XMax && e.YMin < o.YMax && o.YMin < e.YMax
}

func (e Extent) String() string {
	return fmt.Sprintf("[%g, %g, %g, %g]", e.XMin, e.YMin, e.XMax, e.YMax)
}

// TimeWindow is an inclusive range of calendar days
type TimeWindow struct {
	Start, End time.Time
}

// day returns the calendar day of t in its own location
func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Contains returns true if the day of t is in [Start, End]
func (w TimeWindow) Contains(t time.Time) bool {
	d := day(t)
	return !d.Before(day(w.Start)) && !d.After(day(w.End))
}

func (w TimeWindow) String() string {
	return fmt.Sprintf("[%s, %s]", w.Start.Format("2006-01-02"), w.End.Format("2006-01-02"))
}
