// Package metrics exposes import pipeline counters to prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"endurance/internal/logger"
)

const namespace = "endurance"

// Recorder collects import and analytics metrics on its own registry
type Recorder struct {
	registry *prometheus.Registry

	imported   *prometheus.CounterVec
	duplicates *prometheus.CounterVec
	suspicious *prometheus.CounterVec
	purged     prometheus.Counter
	importErrs *prometheus.CounterVec
	load       *prometheus.HistogramVec
	lastImport *prometheus.GaugeVec
}

// NewRecorder creates a Recorder with all collectors registered
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		imported: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "activities_total",
			Help:      "Number of activities stored, by source and sport.",
		}, []string{"source", "sport"}),
		duplicates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "duplicates_total",
			Help:      "Number of imported activities merged into an existing one.",
		}, []string{"source"}),
		suspicious: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "suspicious_total",
			Help:      "Number of imported activities flagged as suspicious.",
		}, []string{"source"}),
		purged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "purged_total",
			Help:      "Number of suspicious activities deleted by a purge.",
		}),
		importErrs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "errors_total",
			Help:      "Number of activities that failed to import.",
		}, []string{"source"}),
		load: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "activity_load",
			Help:      "Training load of imported activities.",
			Buckets:   []float64{10, 25, 50, 100, 150, 250, 400, 600},
		}, []string{"sport"}),
		lastImport: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix timestamp of the most recent import run per source.",
		}, []string{"source"}),
	}

	r.registry.MustRegister(
		r.imported, r.duplicates, r.suspicious, r.purged, r.importErrs, r.load, r.lastImport,
		collectors.NewGoCollector(),
	)
	return r
}

// Imported counts a stored activity
func (r *Recorder) Imported(source, sport string) {
	if r == nil {
		return
	}
	r.imported.WithLabelValues(source, sport).Inc()
}

// Duplicate counts an activity merged into an existing record
func (r *Recorder) Duplicate(source string) {
	if r == nil {
		return
	}
	r.duplicates.WithLabelValues(source).Inc()
}

// Suspicious counts an activity flagged by the plausibility rules
func (r *Recorder) Suspicious(source string) {
	if r == nil {
		return
	}
	r.suspicious.WithLabelValues(source).Inc()
}

// ImportError counts an activity that could not be imported
func (r *Recorder) ImportError(source string) {
	if r == nil {
		return
	}
	r.importErrs.WithLabelValues(source).Inc()
}

// Purged counts deleted suspicious activities
func (r *Recorder) Purged(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.purged.Add(float64(n))
}

// ObserveLoad records the training load of an activity
func (r *Recorder) ObserveLoad(sport string, load float64) {
	if r == nil {
		return
	}
	r.load.WithLabelValues(sport).Observe(load)
}

// ImportRun records the completion time of an import run
func (r *Recorder) ImportRun(source string, at time.Time) {
	if r == nil || at.IsZero() {
		return
	}
	r.lastImport.WithLabelValues(source).Set(float64(at.Unix()))
}

// Handler serves the registry in the prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Serve exposes /metrics on addr until ctx is cancelled
func (r *Recorder) Serve(ctx context.Context, addr string) error {
	log := logger.Named("metrics")

	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info(ctx, "metrics server listening", logger.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error(ctx, "metrics server stopped", logger.Error(err))
		return err
	}
	return nil
}
