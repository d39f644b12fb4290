// Package seat drives one panel seat through its invoke, validate and
// retry-once lifecycle. The control flow is an explicit two-attempt state
// machine (Pending, Attempt1, Attempt2, then Success or Failed) so the
// terminal state is always one of the two documented outcomes.
package seat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"quorum/internal/backend"
	qerrors "quorum/internal/errors"
	"quorum/internal/logging"
	"quorum/internal/panel"
	"quorum/internal/prompts"
	"quorum/internal/schema"
)

// Runner executes single seats against the evaluator backend.
type Runner struct {
	backend    backend.Backend
	loader     *prompts.Loader
	philosophy string
	logger     logging.Logger
}

// NewRunner builds a Runner. The shared philosophy text is captured once and
// threaded into every seat's instructions; it is configuration, not ambient
// state.
func NewRunner(b backend.Backend, loader *prompts.Loader, philosophy string, logger logging.Logger) *Runner {
	return &Runner{
		backend:    b,
		loader:     loader,
		philosophy: philosophy,
		logger:     logging.OrNop(logger),
	}
}

// decodeError marks a response that arrived but failed the structural
// contract, as opposed to a transport failure.
type decodeError struct {
	err error
}

func (e *decodeError) Error() string { return fmt.Sprintf("decode: %v", e.err) }
func (e *decodeError) Unwrap() error { return e.err }

// Run drives one seat to its terminal outcome. A first-attempt failure of any
// kind short of a dead context earns exactly one retry, with the schema
// contract restated in the second invocation. Run never returns an error:
// every failure mode degrades into a Failed outcome.
func (r *Runner) Run(ctx context.Context, st panel.Seat, req schema.Request) Outcome {
	instructions := r.loader.RoleInstructions(st.Role, st.Codename, st.Description, r.philosophy)
	prompt := req.Prompt()

	// Attempt 1: plain invocation.
	output, raw, err := r.attempt(ctx, st, instructions, prompt, "")
	if err == nil {
		return succeeded(st, output, raw, 1)
	}
	if timedOut(ctx, err) {
		r.logger.Warn("[%s] attempt 1 timed out: %v", st.Role, err)
		return Failed(st.Role, st.Codename, FailTimeout, err.Error(), 1)
	}
	r.logger.Debug("[%s] attempt 1 failed, retrying with schema restatement: %v", st.Role, err)

	// Attempt 2: schema requirement restated. Never more than one retry.
	output, raw, err = r.attempt(ctx, st, instructions, prompt, schema.Hint(st.OutputKind))
	if err == nil {
		r.logger.Info("[%s] retry succeeded", st.Role)
		return succeeded(st, output, raw, 2)
	}

	reason := classify(ctx, err)
	r.logger.Warn("[%s] seat failed after retry (%s): %v", st.Role, reason, err)
	return Failed(st.Role, st.Codename, reason, err.Error(), 2)
}

func (r *Runner) attempt(ctx context.Context, st panel.Seat, instructions, prompt, hint string) (schema.SeatOutput, json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	raw, err := r.backend.Invoke(ctx, backend.InvokeRequest{
		Role:         st.Role,
		Instructions: instructions,
		Prompt:       prompt,
		SchemaHint:   hint,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("invoke: %w", err)
	}

	output, err := schema.Decode(st.OutputKind, raw)
	if err != nil {
		return nil, raw, &decodeError{err: err}
	}
	return output, raw, nil
}

func succeeded(st panel.Seat, output schema.SeatOutput, raw json.RawMessage, attempts int) Outcome {
	return Outcome{
		Role:     st.Role,
		Codename: st.Codename,
		Output:   output,
		Raw:      raw,
		Attempts: attempts,
	}
}

func timedOut(ctx context.Context, err error) bool {
	return ctx.Err() != nil || qerrors.IsTimeout(err)
}

// classify maps a terminal attempt error onto the failure taxonomy. Timeouts
// win over everything; a decode failure is a schema violation; the rest is
// the backend's fault.
func classify(ctx context.Context, err error) FailReason {
	if timedOut(ctx, err) {
		return FailTimeout
	}
	var dErr *decodeError
	if errors.As(err, &dErr) {
		return FailSchemaInvalid
	}
	return FailBackendError
}
