// Package metrics exposes clock state as Prometheus series.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tempo/timing"
)

var allStates = []timing.State{
	timing.StateStopped,
	timing.StateCoupled,
	timing.StateVirtual,
	timing.StateSourceDriven,
}

// FrameSample is what the app reports after each ProcessFrame.
type FrameSample struct {
	Current   float64
	Elapsed   float64
	Running   bool
	Decoupled bool
	State     timing.State
}

// Recorder owns a private registry so several recorders can coexist in tests.
type Recorder struct {
	reg *prometheus.Registry

	// Gauges
	currentTime prometheus.Gauge
	running     prometheus.Gauge
	decoupled   prometheus.Gauge
	state       *prometheus.GaugeVec

	// Counters
	transitions   *prometheus.CounterVec
	seeks         *prometheus.CounterVec
	sourceChanges *prometheus.CounterVec

	// Histograms
	frameElapsed prometheus.Histogram

	last    timing.State
	hasLast bool
}

// New creates and registers the clock series.
func New() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),

		currentTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tempo_clock_current_time_ms",
			Help: "Published clock time in milliseconds",
		}),
		running: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tempo_clock_running",
			Help: "1 while the clock is running",
		}),
		decoupled: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tempo_clock_decoupled",
			Help: "1 while decoupling is allowed",
		}),
		state: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tempo_clock_state",
				Help: "Current clock state, one-hot",
			},
			[]string{"state"},
		),

		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tempo_clock_transitions_total",
				Help: "State transitions observed at frame boundaries",
			},
			[]string{"from", "to"},
		),
		seeks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tempo_clock_seeks_total",
				Help: "Seek requests by outcome",
			},
			[]string{"outcome"}, // accepted, rejected
		),
		sourceChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tempo_clock_source_changes_total",
				Help: "Source changes by value transfer direction",
			},
			[]string{"transfer"}, // pushed, pulled
		),

		frameElapsed: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tempo_clock_frame_elapsed_ms",
			Help:    "Absolute clock time elapsed per frame in milliseconds",
			Buckets: []float64{1, 4, 8, 16, 17, 33, 50, 100, 250, 1000},
		}),
	}

	r.reg.MustRegister(
		r.currentTime, r.running, r.decoupled, r.state,
		r.transitions, r.seeks, r.sourceChanges,
		r.frameElapsed,
	)
	return r
}

// Registry returns the recorder's registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

// ObserveFrame records one frame. A state differing from the previous
// frame's counts as a transition.
func (r *Recorder) ObserveFrame(s FrameSample) {
	r.currentTime.Set(s.Current)
	r.running.Set(boolGauge(s.Running))
	r.decoupled.Set(boolGauge(s.Decoupled))
	for _, st := range allStates {
		r.state.WithLabelValues(st.String()).Set(boolGauge(st == s.State))
	}
	r.frameElapsed.Observe(math.Abs(s.Elapsed))

	if r.hasLast && r.last != s.State {
		r.transitions.WithLabelValues(r.last.String(), s.State.String()).Inc()
	}
	r.last = s.State
	r.hasLast = true
}

func (r *Recorder) ObserveSeek(accepted bool) {
	outcome := "rejected"
	if accepted {
		outcome = "accepted"
	}
	r.seeks.WithLabelValues(outcome).Inc()
}

func (r *Recorder) ObserveSourceChange(t timing.Transfer) {
	r.sourceChanges.WithLabelValues(t.String()).Inc()
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (r *Recorder) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics shutdown: %w", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	}
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
