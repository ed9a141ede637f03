package engine

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/airbusgeo/geomosaic/internal/log"
	"github.com/airbusgeo/geomosaic/internal/mosaic"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Job is a mosaic run executed in the background
type Job struct {
	id        string
	parent    context.Context
	ctx       context.Context
	cancel    context.CancelFunc
	state     atomic.Int32
	cancelled atomic.Bool
	done      chan struct{}

	result *Result
	err    error
}

func newJob(ctx context.Context) *Job {
	j := &Job{id: uuid.New().String(), parent: ctx, done: make(chan struct{})}
	j.ctx, j.cancel = context.WithCancel(ctx)
	return j
}

// ID returns the id of the run
func (j *Job) ID() string {
	return j.id
}

// State returns the current state of the run
func (j *Job) State() mosaic.State {
	return mosaic.State(j.state.Load())
}

func (j *Job) setState(ctx context.Context, next mosaic.State) {
	current := j.State()
	if !current.CanTransitionTo(next) {
		log.Logger(ctx).Warn("invalid state transition", zap.Stringer("from", current), zap.Stringer("to", next))
		return
	}
	j.state.Store(int32(next))
	log.Logger(ctx).Debug("state", zap.Stringer("state", next))
}

// Cancel requests the cancellation of the run.
// The run stops before the next tile. Cancel can be called from any goroutine.
func (j *Job) Cancel() {
	j.cancelled.Store(true)
	j.cancel()
}

// Cancelled returns true if Cancel has been called or if the parent context is done
func (j *Job) Cancelled() bool {
	return j.cancelled.Load() || j.parent.Err() != nil
}

// Done returns a channel that is closed when the run is over
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait waits for the end of the run and returns its result
func (j *Job) Wait() (*Result, error) {
	<-j.done
	return j.result, j.err
}

// folderLocks prevents two runs from writing in the same folder
type folderLocks struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func newFolderLocks() *folderLocks {
	return &folderLocks{held: map[string]struct{}{}}
}

func lockKey(folder string) string {
	if abs, err := filepath.Abs(folder); err == nil {
		return abs
	}
	return filepath.Clean(folder)
}

// acquire returns false if the folder is already locked
func (l *folderLocks) acquire(folder string) bool {
	key := lockKey(folder)
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[key]; ok {
		return false
	}
	l.held[key] = struct{}{}
	return true
}

func (l *folderLocks) release(folder string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, lockKey(folder))
}
