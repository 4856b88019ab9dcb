package metrics

import (
	"errors"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	exportRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "screentime",
			Subsystem: "export",
			Name:      "runs_total",
			Help:      "Number of export runs by mode and result.",
		}, []string{"mode", "result"},
	)
	exportRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "screentime",
			Subsystem: "export",
			Name:      "records_total",
			Help:      "Number of usage records written.",
		}, []string{"mode"},
	)
	exportDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "screentime",
			Subsystem: "export",
			Name:      "duration_seconds",
			Help:      "Wall time of an export run.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"mode"},
	)
	watermarkSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "screentime",
			Subsystem: "export",
			Name:      "watermark_seconds",
			Help:      "Creation time (Unix seconds) of the newest exported record.",
		},
	)
	sinkErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "screentime",
			Subsystem: "export",
			Name:      "sink_errors_total",
			Help:      "Number of records a sink failed to accept.",
		}, []string{"sink"},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{exportRuns, exportRecords, exportDuration, watermarkSeconds, sinkErrors}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			// If already registered, ignore (allows double Register with default registry)
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// WriteTextfile writes everything g gathers to path in the text exposition
// format, for the node_exporter textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}

// Below are lightweight helpers used by internal packages to record metrics.
// They no-op if Register hasn't been called.

func ObserveRun(mode, result string, seconds float64) {
	if regOK.Load() {
		exportRuns.WithLabelValues(mode, result).Inc()
		exportDuration.WithLabelValues(mode).Observe(seconds)
	}
}

func AddRecords(mode string, n int) {
	if regOK.Load() {
		exportRecords.WithLabelValues(mode).Add(float64(n))
	}
}

func SetWatermark(seconds float64) {
	if regOK.Load() {
		watermarkSeconds.Set(seconds)
	}
}

func IncSinkError(sink string) {
	if regOK.Load() {
		sinkErrors.WithLabelValues(sink).Inc()
	}
}
