// Package engine runs complete board rounds: fan the request out to every
// seat, arbitrate the verdicts, assemble the report, and archive the result.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quorum/internal/consensus"
	"quorum/internal/dispatch"
	"quorum/internal/history"
	"quorum/internal/logging"
	"quorum/internal/metrics"
	"quorum/internal/panel"
	"quorum/internal/report"
	"quorum/internal/schema"
	"quorum/internal/seat"
)

// ErrRoundUnusable marks a round where the overall deadline elapsed before a
// single seat resolved. A degraded round still produces a report; an unusable
// one cannot.
var ErrRoundUnusable = errors.New("round expired with no seat resolved")

// AlignmentFunc reports whether a request falls inside the board's mission
// scope. A nil func treats every request as aligned.
type AlignmentFunc func(ctx context.Context, req schema.Request) bool

// Options wires the engine's collaborators. Panel and Runner are required;
// everything else defaults to an inert implementation.
type Options struct {
	Panel     *panel.Panel
	Runner    dispatch.Runner
	Alignment AlignmentFunc

	SeatTimeout    time.Duration
	OverallTimeout time.Duration

	History *history.Store
	Metrics *metrics.Collector
	Logger  logging.Logger

	// ProjectID tags archived rounds for later listing.
	ProjectID string
}

// Engine executes board rounds against a fixed panel.
type Engine struct {
	panel      *panel.Panel
	dispatcher *dispatch.Dispatcher
	alignment  AlignmentFunc
	history    *history.Store
	metrics    *metrics.Collector
	logger     logging.Logger
	projectID  string
}

// New validates the panel and builds an engine. A malformed panel is the one
// configuration problem that must fail here rather than degrade at runtime.
func New(opts Options) (*Engine, error) {
	if opts.Panel == nil {
		return nil, &panel.ConfigError{Reason: "no panel supplied"}
	}
	if err := opts.Panel.Validate(); err != nil {
		return nil, err
	}
	if opts.Runner == nil {
		return nil, fmt.Errorf("no seat runner supplied")
	}

	logger := logging.OrNop(opts.Logger)
	return &Engine{
		panel:      opts.Panel,
		dispatcher: dispatch.New(opts.Runner, opts.SeatTimeout, opts.OverallTimeout, logger),
		alignment:  opts.Alignment,
		history:    opts.History,
		metrics:    opts.Metrics,
		logger:     logger,
		projectID:  opts.ProjectID,
	}, nil
}

// RunRound executes one full board round. The report is returned even when
// some seats failed; the only hard errors are an invalid request, an
// unusable round, or the context being cancelled outright.
func (e *Engine) RunRound(ctx context.Context, req schema.Request) (*report.FinalReport, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	start := time.Now()
	aligned := e.alignment == nil || e.alignment(ctx, req)
	if !aligned {
		e.logger.Info("Request flagged outside mission scope (mode=%s)", req.Mode)
	}

	result := e.dispatcher.RunPanel(ctx, e.panel, req)
	if result.Expired && result.Resolved == 0 {
		return nil, fmt.Errorf("%w after %s", ErrRoundUnusable, time.Since(start).Round(time.Millisecond))
	}

	decision := consensus.Evaluate(e.panel, result.Outcomes, req.Mode, aligned)
	rep := report.Assemble(req, e.panel, result.Outcomes, decision)

	e.record(req, result, decision, time.Since(start))
	e.archive(req, rep, result)

	e.logger.Info("Round complete: verdict=%s confidence=%.2f resolved=%d/%d",
		decision.FinalVerdict, decision.Confidence, result.Resolved, len(e.panel.Seats))
	return rep, nil
}

func (e *Engine) record(req schema.Request, result dispatch.Result, decision consensus.Result, elapsed time.Duration) {
	e.metrics.RecordRound(string(req.Mode), string(decision.FinalVerdict), elapsed)
	for _, st := range e.panel.Seats {
		o := result.Outcomes[st.Role]
		e.metrics.RecordSeatAttempts(o.Attempts)
		if !o.Success() {
			e.metrics.RecordSeatFailure(st.Role, string(o.FailReason))
		}
	}
}

func (e *Engine) archive(req schema.Request, rep *report.FinalReport, result dispatch.Result) {
	if e.history == nil {
		return
	}
	outcomes := make([]seat.Outcome, 0, len(e.panel.Seats))
	for _, st := range e.panel.Seats {
		outcomes = append(outcomes, result.Outcomes[st.Role])
	}
	projectID := e.projectID
	if req.ProjectID != "" {
		projectID = req.ProjectID
	}
	if id, err := e.history.Save(projectID, req.Text, rep, outcomes); err != nil {
		e.logger.Warn("Failed to archive round: %v", err)
	} else {
		e.logger.Debug("Round archived as %s", id)
	}
}
