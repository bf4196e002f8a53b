// Package metrics wraps prometheus/client_golang instrumentation for one
// batch solver run: a histogram per solver stage, counters for instance
// outcomes, and a gauge for the last batch's total cost.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the container of every gauge/counter/histogram this binary
// exposes.
type Metrics struct {
	APSPDuration         *prometheus.HistogramVec
	ConstructionDuration *prometheus.HistogramVec
	VNDDuration          *prometheus.HistogramVec

	InstancesProcessed *prometheus.CounterVec
	LastBatchTotalCost prometheus.Gauge
}

var defaultMetrics *Metrics

// Init creates the metric collectors under the given namespace/subsystem
// and registers them with the default registry.
func Init(namespace, subsystem string) *Metrics {
	m := &Metrics{
		APSPDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "apsp_duration_seconds",
				Help:      "Duration of the all-pairs shortest-path computation",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"instance"},
		),
		ConstructionDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "construction_duration_seconds",
				Help:      "Duration of the constructive initial-solution build",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"instance"},
		),
		VNDDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "vnd_duration_seconds",
				Help:      "Duration of the VND local-search improvement pass",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"instance"},
		),
		InstancesProcessed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "instances_processed_total",
				Help:      "Total number of instances processed, by outcome",
			},
			[]string{"outcome"},
		),
		LastBatchTotalCost: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "last_batch_total_cost",
				Help:      "Sum of total_cost across every instance in the most recent batch run",
			},
		),
	}

	defaultMetrics = m
	return m
}

// Get returns the process-wide metrics container, initializing it with
// defaults on first use.
func Get() *Metrics {
	if defaultMetrics == nil {
		return Init("mcarptif", "")
	}
	return defaultMetrics
}

// ObserveAPSP records the duration of one instance's APSP computation.
func (m *Metrics) ObserveAPSP(instance string, d time.Duration) {
	m.APSPDuration.WithLabelValues(instance).Observe(d.Seconds())
}

// ObserveConstruction records the duration of one instance's constructive build.
func (m *Metrics) ObserveConstruction(instance string, d time.Duration) {
	m.ConstructionDuration.WithLabelValues(instance).Observe(d.Seconds())
}

// ObserveVND records the duration of one instance's VND improvement pass.
func (m *Metrics) ObserveVND(instance string, d time.Duration) {
	m.VNDDuration.WithLabelValues(instance).Observe(d.Seconds())
}

// RecordOutcome increments the processed counter for the given outcome
// ("success" or "failure").
func (m *Metrics) RecordOutcome(outcome string) {
	m.InstancesProcessed.WithLabelValues(outcome).Inc()
}

// SetLastBatchTotalCost records the combined total_cost of a batch run.
func (m *Metrics) SetLastBatchTotalCost(cost int64) {
	m.LastBatchTotalCost.Set(float64(cost))
}

// Server wraps an HTTP server exposing /metrics for the lifetime of one
// batch run; the command-line entrypoint starts it before processing and
// shuts it down afterward.
type Server struct {
	httpServer *http.Server
}

// NewServer builds (but does not start) a metrics HTTP server on port.
func NewServer(port int) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &Server{
		httpServer: &http.Server{
			Addr:         ":" + strconv.Itoa(port),
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}
}

// Start runs the metrics server in a background goroutine. Bind errors
// other than a clean shutdown are sent to errc.
func (s *Server) Start(errc chan<- error) {
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()
}

// Shutdown gracefully stops the metrics server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
