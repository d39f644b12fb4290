// Package metrics exports round and seat counters to Prometheus.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector tracks board rounds and per-seat failures. A nil Collector is
// valid and records nothing, so callers never guard their call sites.
type Collector struct {
	rounds        *promclient.CounterVec
	roundDuration promclient.Histogram
	seatFailures  *promclient.CounterVec
	seatAttempts  promclient.Counter

	server *http.Server
}

// New registers the board collectors against reg, falling back to the default
// registerer when reg is nil.
func New(namespace string, reg promclient.Registerer) (*Collector, error) {
	if namespace == "" {
		namespace = "quorum"
	}
	if reg == nil {
		reg = promclient.DefaultRegisterer
	}

	c := &Collector{
		rounds: promclient.NewCounterVec(promclient.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_total",
			Help:      "Completed board rounds by mode and final verdict.",
		}, []string{"mode", "verdict"}),
		roundDuration: promclient.NewHistogram(promclient.HistogramOpts{
			Namespace: namespace,
			Name:      "round_duration_seconds",
			Help:      "Wall-clock duration of a full board round.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 180, 300},
		}),
		seatFailures: promclient.NewCounterVec(promclient.CounterOpts{
			Namespace: namespace,
			Name:      "seat_failures_total",
			Help:      "Seat failures by role and terminal reason.",
		}, []string{"role", "reason"}),
		seatAttempts: promclient.NewCounter(promclient.CounterOpts{
			Namespace: namespace,
			Name:      "seat_attempts_total",
			Help:      "Backend invocations across all seats, retries included.",
		}),
	}

	for _, col := range []promclient.Collector{c.rounds, c.roundDuration, c.seatFailures, c.seatAttempts} {
		if err := reg.Register(col); err != nil {
			return nil, fmt.Errorf("register board collector: %w", err)
		}
	}
	return c, nil
}

// RecordRound tracks one completed round.
func (c *Collector) RecordRound(mode, verdict string, duration time.Duration) {
	if c == nil {
		return
	}
	c.rounds.WithLabelValues(mode, verdict).Inc()
	c.roundDuration.Observe(duration.Seconds())
}

// RecordSeatFailure tracks one seat's terminal failure.
func (c *Collector) RecordSeatFailure(role, reason string) {
	if c == nil {
		return
	}
	c.seatFailures.WithLabelValues(role, reason).Inc()
}

// RecordSeatAttempts adds the backend invocations spent on one seat.
func (c *Collector) RecordSeatAttempts(attempts int) {
	if c == nil || attempts <= 0 {
		return
	}
	c.seatAttempts.Add(float64(attempts))
}

// Serve starts a /metrics endpoint on the given port in the background.
func (c *Collector) Serve(port int) error {
	if c == nil || port <= 0 {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	c.server = &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		if err := c.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("metrics server error: %v\n", err)
		}
	}()
	return nil
}

// Shutdown stops the metrics endpoint if one is running.
func (c *Collector) Shutdown(ctx context.Context) error {
	if c == nil || c.server == nil {
		return nil
	}
	return c.server.Shutdown(ctx)
}
