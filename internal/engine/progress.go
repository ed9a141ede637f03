package engine

import "context"

//go:generate enumer -json -type Level -trimprefix Level

// Level of a user message
type Level int

const (
	LevelSuccess Level = iota
	LevelWarning
	LevelError
)

// Progress receives the progress of a mosaic run.
// Calls are made from the goroutine running the mosaic, never concurrently.
type Progress interface {
	// StartProgress is called once the number of tiles is known
	StartProgress(total int)
	// SetProgress is called after each tile with the number of tiles done
	SetProgress(index int)
	CloseProgress()
	Message(level Level, msg string)
}

// Registrar adds the mosaic to the coverage it was computed from
type Registrar interface {
	AddLayerIntoGroup(ctx context.Context, rasterPath, datasetName, coverageName string, bandNames []string) error
}

type nopProgress struct{}

func (nopProgress) StartProgress(int)     {}
func (nopProgress) SetProgress(int)       {}
func (nopProgress) CloseProgress()        {}
func (nopProgress) Message(Level, string) {}
