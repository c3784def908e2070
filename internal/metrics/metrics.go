// Package metrics provides Prometheus metrics for unpack runs, written to a
// node-exporter textfile rather than served.
package metrics

import (
	"github.com/dendrascience/dataminer/util"
	"github.com/prometheus/client_golang/prometheus"
)

// Run results.
const (
	ResultHit   = "hit"
	ResultMiss  = "miss"
	ResultError = "error"
)

// Recorder owns a private registry so runs in one process never collide with
// the default one.
type Recorder struct {
	registry *prometheus.Registry

	runsTotal          *prometheus.CounterVec
	archivesExtracted  prometheus.Counter
	bytesExtracted     prometheus.Counter
	treeNodes          *prometheus.GaugeVec
	runDurationSeconds prometheus.Histogram
}

// New creates a Recorder with all collectors registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dataminer_unpack_runs_total",
				Help: "Total number of unpack runs by result",
			},
			[]string{"result"},
		),
		archivesExtracted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "dataminer_archives_extracted_total",
				Help: "Total number of archives extracted",
			},
		),
		bytesExtracted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "dataminer_bytes_extracted_total",
				Help: "Total uncompressed bytes written by extraction",
			},
		),
		treeNodes: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dataminer_tree_nodes",
				Help: "Nodes in the last tree by type",
			},
			[]string{"type"},
		),
		runDurationSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "dataminer_unpack_duration_seconds",
				Help:    "Unpack run duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
	r.registry.MustRegister(
		r.runsTotal,
		r.archivesExtracted,
		r.bytesExtracted,
		r.treeNodes,
		r.runDurationSeconds,
	)
	return r
}

// Run describes one finished unpack.
type Run struct {
	Cached   bool
	Archives int
	Bytes    int64
	Stats    util.TreeStats
	Seconds  float64
}

// ObserveRun records a successful run.
func (r *Recorder) ObserveRun(run Run) {
	result := ResultMiss
	if run.Cached {
		result = ResultHit
	}
	r.runsTotal.WithLabelValues(result).Inc()
	r.archivesExtracted.Add(float64(run.Archives))
	r.bytesExtracted.Add(float64(run.Bytes))
	r.treeNodes.WithLabelValues(string(util.TypeDirectory)).Set(float64(run.Stats.Directories))
	r.treeNodes.WithLabelValues(string(util.TypePNG)).Set(float64(run.Stats.Images))
	r.treeNodes.WithLabelValues(string(util.TypeUnknown)).Set(float64(run.Stats.Unknown))
	r.runDurationSeconds.Observe(run.Seconds)
}

// ObserveError records a failed run.
func (r *Recorder) ObserveError(seconds float64) {
	r.runsTotal.WithLabelValues(ResultError).Inc()
	r.runDurationSeconds.Observe(seconds)
}

// Registry exposes the collectors, mainly for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile writes the current values in the text exposition format.
// The write goes through a temp file so a collector never reads a partial one.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
