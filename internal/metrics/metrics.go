// Package metrics exposes the Prometheus metrics of the mosaic pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Stages of the pipeline
const (
	StageMaterialize = "materialize"
	StageRead        = "read"
	StageCompute     = "compute"
	StageWrite       = "write"
	StageMerge       = "merge"
)

// Pipeline collects the metrics of the mosaic runs.
// A nil Pipeline is valid and records nothing.
type Pipeline struct {
	stages *prometheus.HistogramVec
	tiles  *prometheus.CounterVec
	runs   *prometheus.CounterVec
}

// NewPipeline creates the metrics and registers them in reg
func NewPipeline(reg prometheus.Registerer) *Pipeline {
	p := &Pipeline{
		stages: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "geomosaic_stage_duration_seconds",
			Help:    "Duration of each stage of the mosaic pipeline.",
			Buckets: prometheus.ExponentialBuckets(0.005, 4, 10),
		}, []string{"stage"}),
		tiles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "geomosaic_tiles_total",
			Help: "Number of tiles composited, by mosaic function.",
		}, []string{"function"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "geomosaic_runs_total",
			Help: "Number of mosaic runs, by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(p.stages, p.tiles, p.runs)
	return p
}

// ObserveStage records the duration of a stage
func (p *Pipeline) ObserveStage(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stages.WithLabelValues(stage).Observe(d.Seconds())
}

// TileDone counts a tile composited with function
func (p *Pipeline) TileDone(function string) {
	if p == nil {
		return
	}
	p.tiles.WithLabelValues(function).Inc()
}

// RunDone counts a run ending with outcome ("done" or the kind of the error)
func (p *Pipeline) RunDone(outcome string) {
	if p == nil {
		return
	}
	p.runs.WithLabelValues(outcome).Inc()
}

// NewRegistry returns a registry with the go and process collectors
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves the metrics of the registry
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
