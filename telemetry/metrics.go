// Package telemetry exports projector activity as Prometheus metrics.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"nodeboard/projector"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "nodeboard"
	kindLabel = "kind"
)

// Metrics holds the projector collectors.
type Metrics struct {
	// peersTotal is the number of peers in the current snapshot.
	peersTotal prometheus.Gauge
	// peersFiltered is the number of rows passing the active filter.
	peersFiltered prometheus.Gauge
	// capturedAt is the capture time of the current snapshot.
	capturedAt prometheus.Gauge
	// changes counts recomputes by what triggered them.
	changes *prometheus.CounterVec
	// filterErrors counts recomputes under a query that failed to compile.
	filterErrors prometheus.Counter
	// recompute observes how long a row rebuild took.
	recompute prometheus.Histogram
}

// Register creates the collectors and registers them with reg.
func Register(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		peersTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "peers_total",
			Help:      "Peers in the current snapshot.",
		}),
		peersFiltered: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "peers_filtered",
			Help:      "Peers passing the active filter.",
		}),
		capturedAt: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_captured_timestamp_seconds",
			Help:      "Capture time of the current snapshot.",
		}),
		changes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "projection_changes_total",
			Help:      "Row set recomputes by trigger.",
		}, []string{kindLabel}),
		filterErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "filter_pattern_errors_total",
			Help:      "Filter applications whose pattern did not compile.",
		}),
		recompute: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recompute_seconds",
			Help:      "Time spent rebuilding the node rows.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
	}
	reg.MustRegister(m.peersTotal, m.peersFiltered, m.capturedAt, m.changes, m.filterErrors, m.recompute)
	return m
}

// ObserveChange records a completed recompute.
func (m *Metrics) ObserveChange(c projector.Change) {
	if m == nil {
		return
	}
	m.changes.With(prometheus.Labels{kindLabel: c.Kind.String()}).Inc()
	m.peersTotal.Set(float64(c.Total))
	m.peersFiltered.Set(float64(c.Filtered))
	if c.Kind == projector.ChangeFilter && c.Err != nil {
		m.filterErrors.Inc()
	}
}

// ObserveRecompute records the duration of one row rebuild.
func (m *Metrics) ObserveRecompute(d time.Duration) {
	if m == nil {
		return
	}
	m.recompute.Observe(d.Seconds())
}

// SetCapturedAt records the current snapshot capture time (unix seconds).
func (m *Metrics) SetCapturedAt(unix int64) {
	if m == nil {
		return
	}
	m.capturedAt.Set(float64(unix))
}

// NewRegistry returns a registry carrying the Go runtime collector.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	return reg
}

// Purpose: Serve reg on listen+path until ctx is done.
// Key aspects: Shutdown is bounded; a listener failure is returned.
// Upstream: main run group when metrics.listen is set.
// Downstream: promhttp.HandlerFor, http.Server.
func Serve(ctx context.Context, listen, path string, reg *prometheus.Registry) error {
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("Metrics: serving http://%s%s", listen, path)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics listener %s: %w", listen, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Metrics: shutdown: %v", err)
		}
		return nil
	}
}
