package mosaic

import (
	"errors"
	"fmt"
)

//go:generate enumer -json -type ErrorKind -trimprefix ErrorKind

// ErrorKind classifies the failures of a mosaic run
type ErrorKind int

const (
	// ErrorKindInvalidInput: unparseable or inverted extent/date bounds, unknown coverage or function
	ErrorKindInvalidInput ErrorKind = iota
	// ErrorKindEmptySelection: no valid layer in the time window
	ErrorKindEmptySelection
	// ErrorKindInvalidExtent: degenerate bounding box
	ErrorKindInvalidExtent
	// ErrorKindNoDataInExtent: the reference layer has no tile in the extent
	ErrorKindNoDataInExtent
	// ErrorKindIOFailure: read/write/materialization error
	ErrorKindIOFailure
	// ErrorKindCancelled: the run has been cancelled by the user
	ErrorKindCancelled
	// ErrorKindBusy: another run is already writing in the same output folder
	ErrorKindBusy
)

// MosaicError is the error returned by every failing stage of a mosaic run
type MosaicError struct {
	kind ErrorKind
	desc string
	err  error
}

func newError(kind ErrorKind, err error, desc string, a ...interface{}) error {
	return MosaicError{kind: kind, desc: fmt.Sprintf(desc, a...), err: err}
}

// NewInvalidInput creates a new error stating that the request cannot be parsed or is inconsistent
func NewInvalidInput(desc string, a ...interface{}) error {
	return newError(ErrorKindInvalidInput, nil, desc, a...)
}

// NewEmptySelection creates a new error stating that no layer has been selected
func NewEmptySelection(desc string, a ...interface{}) error {
	return newError(ErrorKindEmptySelection, nil, desc, a...)
}

// NewInvalidExtent creates a new error stating that the extent is degenerate
func NewInvalidExtent(desc string, a ...interface{}) error {
	return newError(ErrorKindInvalidExtent, nil, desc, a...)
}

// NewNoDataInExtent creates a new error stating that there is no data to mosaic
func NewNoDataInExtent(desc string, a ...interface{}) error {
	return newError(ErrorKindNoDataInExtent, nil, desc, a...)
}

// NewIOFailure wraps an I/O error
func NewIOFailure(err error, desc string, a ...interface{}) error {
	return newError(ErrorKindIOFailure, err, desc, a...)
}

// NewCancelled creates a new error stating that the run has been cancelled
func NewCancelled(desc string, a ...interface{}) error {
	return newError(ErrorKindCancelled, nil, desc, a...)
}

// NewBusy creates a new error stating that the output folder is already in use
func NewBusy(desc string, a ...interface{}) error {
	return newError(ErrorKindBusy, nil, desc, a...)
}

// Error implements error
func (e MosaicError) Error() string {
	s := e.kind.String() + ": " + e.desc
	if e.err != nil {
		s += ": " + e.err.Error()
	}
	return s
}

// Unwrap returns the underlying error, if any
func (e MosaicError) Unwrap() error {
	return e.err
}

// Desc returns a description of the error
func (e MosaicError) Desc() string {
	return e.desc
}

// Kind returns the kind of the error
func (e MosaicError) Kind() ErrorKind {
	return e.kind
}

// IsError tests whether error is a MosaicError of the given kind
func IsError(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// KindOf returns the kind of the first MosaicError in the chain of err
func KindOf(err error) (ErrorKind, bool) {
	var merr MosaicError
	if errors.As(err, &merr) {
		return merr.kind, true
	}
	return 0, false
}
