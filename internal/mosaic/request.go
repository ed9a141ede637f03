package mosaic

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Format is the format of the merged mosaic
type Format string

const (
	// FormatVRT is a virtual mosaic referencing the tiles
	FormatVRT Format = "vrt"
	// FormatGTiff is a physical tiled GeoTIFF
	FormatGTiff Format = "gtiff"
	// FormatCOG is a Cloud Optimized GeoTIFF
	FormatCOG Format = "cog"
)

// ParseFormat returns the format named s (VRT if empty)
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatVRT, nil
	case FormatVRT, FormatGTiff, FormatCOG:
		return f, nil
	case "tif", "tiff", "geotiff":
		return FormatGTiff, nil
	}
	return "", NewInvalidInput("unknown output format %q", s)
}

// Extension returns the file extension of the format
func (f Format) Extension() string {
	if f == FormatVRT {
		return ".vrt"
	}
	return ".tif"
}

// RawRequest is a mosaic request as entered by the user
type RawRequest struct {
	Coverage string `json:"coverage"`
	XMin     string `json:"xmin"`
	YMin     string `json:"ymin"`
	XMax     string `json:"xmax"`
	YMax     string `json:"ymax"`
	// StartDate and EndDate are dates (2006-01-02) or years (2006). Empty means unbounded.
	StartDate string `json:"start"`
	EndDate   string `json:"end"`
	Function  string `json:"function"`
	// OutputDir is the folder receiving the run workspace (optional)
	OutputDir string `json:"output_dir,omitempty"`
	Format    string `json:"format,omitempty"`
}

// Request is a validated mosaic request
type Request struct {
	Coverage  string
	Extent    Extent
	Window    TimeWindow
	Function  string
	OutputDir string
	Format    Format
}

func parseBound(name, s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, NewInvalidInput("%s: unable to parse %q", name, s)
	}
	return v, nil
}

// parseWindowBound parses a date bound. A bare year is the first day of the year
// for the start bound and the last day of the year for the end bound.
func parseWindowBound(name, s string, end bool) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		if end {
			return time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC), nil
		}
		return time.Time{}, nil
	}
	t, err := ParseDate(s)
	if err != nil {
		return time.Time{}, NewInvalidInput("%s: unable to parse date %q", name, s)
	}
	if end && isYear(s) {
		t = t.AddDate(1, 0, -1)
	}
	return t, nil
}

// ParseRequest parses and validates the raw request.
// It fails with InvalidInput on a parse error or when a max bound is lower than its min bound.
// A degenerate extent (xmin == xmax) is accepted here and rejected when resolving tiles.
func ParseRequest(raw RawRequest) (*Request, error) {
	var err error
	req := Request{
		Coverage:  strings.TrimSpace(raw.Coverage),
		Function:  strings.TrimSpace(raw.Function),
		OutputDir: raw.OutputDir,
	}
	if req.Coverage == "" {
		return nil, NewInvalidInput("no coverage selected")
	}
	if req.Function == "" {
		return nil, NewInvalidInput("no mosaic function selected")
	}
	if req.Extent.XMin, err = parseBound("xmin", raw.XMin); err != nil {
		return nil, err
	}
	if req.Extent.YMin, err = parseBound("ymin", raw.YMin); err != nil {
		return nil, err
	}
	if req.Extent.XMax, err = parseBound("xmax", raw.XMax); err != nil {
		return nil, err
	}
	if req.Extent.YMax, err = parseBound("ymax", raw.YMax); err != nil {
		return nil, err
	}
	if req.Extent.Inverted() {
		return nil, NewInvalidInput("inverted extent %s", req.Extent)
	}
	if req.Window.Start, err = parseWindowBound("start", raw.StartDate, false); err != nil {
		return nil, err
	}
	if req.Window.End, err = parseWindowBound("end", raw.EndDate, true); err != nil {
		return nil, err
	}
	if day(req.Window.End).Before(day(req.Window.Start)) {
		return nil, NewInvalidInput("end date %s is before start date %s", raw.EndDate, raw.StartDate)
	}
	if req.Format, err = ParseFormat(raw.Format); err != nil {
		return nil, err
	}
	return &req, nil
}
