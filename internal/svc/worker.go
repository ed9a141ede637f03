// Package svc runs the mosaic requests received from a message bus and publishes their progress.
package svc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/airbusgeo/geomosaic/interface/messaging"
	"github.com/airbusgeo/geomosaic/interface/storage"
	"github.com/airbusgeo/geomosaic/interface/storage/uri"
	"github.com/airbusgeo/geomosaic/internal/engine"
	"github.com/airbusgeo/geomosaic/internal/log"
	"github.com/airbusgeo/geomosaic/internal/mosaic"
	"github.com/airbusgeo/geomosaic/internal/utils"
	"go.uber.org/zap"
)

// Runner computes a mosaic
type Runner interface {
	Run(ctx context.Context, raw mosaic.RawRequest, progress engine.Progress) (*engine.Result, error)
}

type contextKey int

const contextKeyRequestID contextKey = iota

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID, id)
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(contextKeyRequestID).(string)
	return id
}

// CancelledRequests references the cancelled requests:
// a request is cancelled when a file named after its id exists in the folder.
type CancelledRequests struct {
	folder   string
	strategy storage.Strategy
}

// NewCancelledRequests returns the cancelled requests referenced in folder (local path or gs:// uri)
func NewCancelledRequests(ctx context.Context, folder string) (*CancelledRequests, error) {
	strategy, err := uri.NewStrategy(ctx, folder)
	if err != nil {
		return nil, fmt.Errorf("NewCancelledRequests: %w", err)
	}
	return &CancelledRequests{folder: folder, strategy: strategy}, nil
}

// Cancel references the request id as cancelled
func (c *CancelledRequests) Cancel(ctx context.Context, id string) error {
	return c.strategy.Upload(ctx, uri.Join(c.folder, id), nil)
}

// IsCancelled returns true if the request id is referenced as cancelled
func (c *CancelledRequests) IsCancelled(ctx context.Context, id string) bool {
	if c == nil {
		return false
	}
	ok, err := c.strategy.Exist(ctx, uri.Join(c.folder, id))
	if err != nil && !errors.Is(err, storage.ErrFileNotFound) {
		log.Logger(ctx).Warn("failed to check cancellation", zap.Error(err))
	}
	return ok
}

// Worker handles the mosaic requests
type Worker struct {
	runner     Runner
	publisher  messaging.Publisher
	cancelled  *CancelledRequests
	retryCount int
}

// NewWorker creates a worker. cancelled may be nil.
func NewWorker(runner Runner, publisher messaging.Publisher, cancelled *CancelledRequests, retryCount int) *Worker {
	return &Worker{
		runner:     runner,
		publisher:  publisher,
		cancelled:  cancelled,
		retryCount: retryCount,
	}
}

// Handle implements messaging.Callback
func (w *Worker) Handle(ctx context.Context, msg *messaging.Message) error {
	evt, err := UnmarshalRequestEvent(bytes.NewReader(msg.Data))
	if err != nil {
		return fmt.Errorf("got message id %s: unreadable (%d bytes): %w", msg.ID, len(msg.Data), err)
	}
	ctx = log.With(ctx, "request", evt.ID)
	ctx = withRequestID(ctx, evt.ID)

	if w.retryCount >= 0 && msg.TryCount > w.retryCount {
		log.Logger(ctx).Error("too many tries", zap.Int("tries", msg.TryCount))
		return w.publish(ctx, ProgressEvent{RequestID: evt.ID, Kind: EventFailed, Message: "too many tries"})
	}

	log.Logger(ctx).Sugar().Infof("got message id %s: mosaic %s of %s", msg.ID, evt.Function, evt.Coverage)
	cctx, cancel := context.WithCancel(ctx)
	defer cancel()
	progress := &busProgress{worker: w, ctx: ctx, requestID: evt.ID, cancel: cancel}

	res, err := w.runner.Run(cctx, evt.RawRequest, progress)
	if err != nil {
		kind, ok := mosaic.KindOf(err)
		if !ok {
			kind = mosaic.ErrorKindIOFailure
		}
		return w.publish(ctx, ProgressEvent{RequestID: evt.ID, Kind: EventFailed, ErrorKind: kind.String(), Message: err.Error()})
	}
	return w.publish(ctx, ProgressEvent{
		RequestID:    evt.ID,
		Kind:         EventDone,
		RasterPath:   res.RasterPath,
		DatasetName:  res.DatasetName,
		CoverageName: res.Coverage,
		Bands:        res.Bands,
		Tiles:        res.Tiles,
	})
}

func (w *Worker) publish(ctx context.Context, evt ProgressEvent) error {
	data, err := MarshalEvent(evt)
	if err != nil {
		return utils.MakeTemporary(fmt.Errorf("MarshalEvent: %w", err))
	}
	if err = w.publisher.Publish(ctx, data); err != nil {
		return utils.MakeTemporary(fmt.Errorf("PublishEvent: %w", err))
	}
	return nil
}

// busProgress publishes the progress of a run and cancels it when requested
type busProgress struct {
	worker    *Worker
	ctx       context.Context
	requestID string
	cancel    context.CancelFunc

	mu    sync.Mutex
	total int
}

func (p *busProgress) send(evt ProgressEvent) {
	evt.RequestID = p.requestID
	if err := p.worker.publish(p.ctx, evt); err != nil {
		log.Logger(p.ctx).Warn("failed to publish progress", zap.Error(err))
	}
}

func (p *busProgress) StartProgress(total int) {
	p.mu.Lock()
	p.total = total
	p.mu.Unlock()
	p.send(ProgressEvent{Kind: EventStarted, Total: total})
}

func (p *busProgress) SetProgress(index int) {
	p.mu.Lock()
	total := p.total
	p.mu.Unlock()
	p.send(ProgressEvent{Kind: EventProgress, Index: index, Total: total})
	if p.worker.cancelled.IsCancelled(p.ctx, p.requestID) {
		log.Logger(p.ctx).Info("cancellation requested")
		p.cancel()
	}
}

func (p *busProgress) CloseProgress() {}

func (p *busProgress) Message(level engine.Level, msg string) {
	p.send(ProgressEvent{Kind: EventMessage, Level: level.String(), Message: msg})
}

// Registrar publishes the mosaics as ready events
type Registrar struct {
	publisher messaging.Publisher
}

// NewRegistrar returns a registrar publishing on publisher
func NewRegistrar(publisher messaging.Publisher) *Registrar {
	return &Registrar{publisher: publisher}
}

// AddLayerIntoGroup implements engine.Registrar
func (r *Registrar) AddLayerIntoGroup(ctx context.Context, rasterPath, datasetName, coverageName string, bandNames []string) error {
	data, err := MarshalEvent(ProgressEvent{
		RequestID:    requestID(ctx),
		Kind:         EventReady,
		RasterPath:   rasterPath,
		DatasetName:  datasetName,
		CoverageName: coverageName,
		Bands:        bandNames,
	})
	if err != nil {
		return fmt.Errorf("AddLayerIntoGroup: %w", err)
	}
	if err := r.publisher.Publish(ctx, data); err != nil {
		return fmt.Errorf("AddLayerIntoGroup: %w", err)
	}
	return nil
}
