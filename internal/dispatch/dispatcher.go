// Package dispatch fans one request out to every panel seat concurrently and
// joins the outcomes under a bounded wait. Cancellation and timeouts are
// enforced here, centrally, not by each seat.
package dispatch

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"quorum/internal/logging"
	"quorum/internal/panel"
	"quorum/internal/schema"
	"quorum/internal/seat"
)

const (
	// DefaultSeatTimeout bounds one seat including its retry.
	DefaultSeatTimeout = 90 * time.Second
	// DefaultOverallTimeout bounds the whole round.
	DefaultOverallTimeout = 3 * time.Minute
)

// Result is the joined output of one panel run. Outcomes always has exactly
// one entry per configured seat. Resolved counts the seats that reached a
// terminal state on their own; Expired reports that the overall deadline
// forced the remainder.
type Result struct {
	Outcomes map[string]seat.Outcome
	Resolved int
	Expired  bool
}

// Dispatcher runs all seats of a panel concurrently.
type Dispatcher struct {
	runner         Runner
	seatTimeout    time.Duration
	overallTimeout time.Duration
	logger         logging.Logger
}

// Runner is the single-seat contract the dispatcher drives. *seat.Runner is
// the production implementation.
type Runner interface {
	Run(ctx context.Context, st panel.Seat, req schema.Request) seat.Outcome
}

// New builds a Dispatcher. Non-positive timeouts fall back to the defaults.
func New(runner Runner, seatTimeout, overallTimeout time.Duration, logger logging.Logger) *Dispatcher {
	if seatTimeout <= 0 {
		seatTimeout = DefaultSeatTimeout
	}
	if overallTimeout <= 0 {
		overallTimeout = DefaultOverallTimeout
	}
	return &Dispatcher{
		runner:         runner,
		seatTimeout:    seatTimeout,
		overallTimeout: overallTimeout,
		logger:         logging.OrNop(logger),
	}
}

// RunPanel starts every seat concurrently and independently; one seat's
// latency never delays another. Seats that have not resolved when the overall
// deadline elapses are forced to Failed(timeout) and their in-flight backend
// calls are abandoned via context cancellation. Already-resolved outcomes are
// never discarded.
func (d *Dispatcher) RunPanel(ctx context.Context, p *panel.Panel, req schema.Request) Result {
	overallCtx, cancel := context.WithTimeout(ctx, d.overallTimeout)
	defer cancel()

	g, gctx := errgroup.WithContext(overallCtx)
	results := make(chan seat.Outcome, len(p.Seats))

	start := time.Now()
	for _, st := range p.Seats {
		st := st
		g.Go(func() error {
			seatCtx, seatCancel := context.WithTimeout(gctx, d.seatTimeout)
			defer seatCancel()
			results <- d.runner.Run(seatCtx, st, req)
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()

	outcomes := make(map[string]seat.Outcome, len(p.Seats))
	expired := false

collect:
	for len(outcomes) < len(p.Seats) {
		select {
		case o := <-results:
			outcomes[o.Role] = o
		case <-done:
			d.drain(results, outcomes)
			break collect
		case <-overallCtx.Done():
			expired = true
			d.drain(results, outcomes)
			break collect
		}
	}

	resolved := len(outcomes)

	// Force every still-unresolved seat to a timeout failure so the map
	// always carries exactly one entry per configured seat.
	for _, st := range p.Seats {
		if _, ok := outcomes[st.Role]; ok {
			continue
		}
		d.logger.Warn("[%s] unresolved at overall deadline, forcing timeout", st.Role)
		outcomes[st.Role] = seat.Failed(st.Role, st.Codename, seat.FailTimeout, "overall round deadline elapsed", 0)
	}

	d.logger.Info("panel joined: %d/%d resolved in %v (expired=%t)",
		resolved, len(p.Seats), time.Since(start).Round(time.Millisecond), expired)

	return Result{Outcomes: outcomes, Resolved: resolved, Expired: expired}
}

func (d *Dispatcher) drain(results chan seat.Outcome, outcomes map[string]seat.Outcome) {
	for {
		select {
		case o := <-results:
			outcomes[o.Role] = o
		default:
			return
		}
	}
}
