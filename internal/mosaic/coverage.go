package mosaic

// QABandName is the name of the per-pixel quality assessment band
const QABandName = "pixel_qa"

// Coverage is a named time series of co-registered raster layers sharing the same band layout
type Coverage struct {
	Name  string
	Bands []string
}

// NewCoverage creates a validated coverage
func NewCoverage(name string, bands []string) (*Coverage, error) {
	c := &Coverage{Name: name, Bands: append([]string{}, bands...)}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks that the coverage is named and that its band names are unique
func (c *Coverage) Validate() error {
	if c.Name == "" {
		return NewInvalidInput("coverage name is empty")
	}
	if len(c.Bands) == 0 {
		return NewInvalidInput("coverage %s has no band", c.Name)
	}
	seen := map[string]struct{}{}
	for _, b := range c.Bands {
		if b == "" {
			return NewInvalidInput("coverage %s: empty band name", c.Name)
		}
		if _, ok := seen[b]; ok {
			return NewInvalidInput("coverage %s: duplicate band %s", c.Name, b)
		}
		seen[b] = struct{}{}
	}
	return nil
}

// QABandIndex returns the 0-based index of the QA band, or -1 if the coverage has no QA band
func (c *Coverage) QABandIndex() int {
	for i, b := range c.Bands {
		if b == QABandName {
			return i
		}
	}
	return -1
}

// HasQA returns true if the coverage carries a QA band
func (c *Coverage) HasQA() bool {
	return c.QABandIndex() >= 0
}
