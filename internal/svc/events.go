package svc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/airbusgeo/geomosaic/internal/mosaic"
)

// EventKind is the kind of a ProgressEvent
type EventKind string

const (
	EventStarted  EventKind = "started"
	EventProgress EventKind = "progress"
	EventMessage  EventKind = "message"
	EventReady    EventKind = "ready"
	EventDone     EventKind = "done"
	EventFailed   EventKind = "failed"
)

// RequestEvent is a mosaic request received from the bus
type RequestEvent struct {
	ID string `json:"id"`
	mosaic.RawRequest
}

// ProgressEvent is published on the bus during a mosaic run
type ProgressEvent struct {
	RequestID string    `json:"request_id"`
	Kind      EventKind `json:"kind"`
	Index     int       `json:"index,omitempty"`
	Total     int       `json:"total,omitempty"`
	Level     string    `json:"level,omitempty"`
	Message   string    `json:"message,omitempty"`
	// ErrorKind is set on failed events
	ErrorKind string `json:"error_kind,omitempty"`
	// Set on ready and done events
	RasterPath   string   `json:"raster_path,omitempty"`
	DatasetName  string   `json:"dataset_name,omitempty"`
	CoverageName string   `json:"coverage_name,omitempty"`
	Bands        []string `json:"bands,omitempty"`
	Tiles        int      `json:"tiles,omitempty"`
}

// UnmarshalRequestEvent reads a RequestEvent
func UnmarshalRequestEvent(r io.Reader) (*RequestEvent, error) {
	evt := RequestEvent{}
	if err := json.NewDecoder(r).Decode(&evt); err != nil {
		return nil, fmt.Errorf("UnmarshalRequestEvent: %w", err)
	}
	if evt.ID == "" {
		return nil, fmt.Errorf("UnmarshalRequestEvent: missing id")
	}
	return &evt, nil
}

// MarshalRequestEvent writes a RequestEvent
func MarshalRequestEvent(evt RequestEvent) ([]byte, error) {
	return json.Marshal(evt)
}

// MarshalEvent writes a ProgressEvent
func MarshalEvent(evt ProgressEvent) ([]byte, error) {
	return json.Marshal(evt)
}

// UnmarshalEvent reads a ProgressEvent
func UnmarshalEvent(b []byte) (*ProgressEvent, error) {
	evt := ProgressEvent{}
	if err := json.NewDecoder(bytes.NewReader(b)).Decode(&evt); err != nil {
		return nil, fmt.Errorf("UnmarshalEvent: %w", err)
	}
	return &evt, nil
}
