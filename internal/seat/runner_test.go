package seat

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"quorum/internal/backend"
	"quorum/internal/logging"
	"quorum/internal/panel"
	"quorum/internal/prompts"
	"quorum/internal/schema"
)

const goodMemberJSON = `{
	"agent_name": "Lynx",
	"role": "product_operator",
	"verdict": "go",
	"top_3_reasons": ["a", "b", "c"],
	"top_3_risks": ["a", "b", "c"],
	"next_3_actions": ["a", "b", "c"],
	"one_experiment": {"hypothesis": "h", "test": "t", "success_metric": "m", "timebox": "3 days"},
	"confidence": 0.8
}`

func testRunner(t *testing.T, b backend.Backend) *Runner {
	t.Helper()
	loader, err := prompts.NewLoader()
	if err != nil {
		t.Fatalf("NewLoader failed: %v", err)
	}
	return NewRunner(b, loader, "keep it small", logging.Nop())
}

func memberSeat() panel.Seat {
	return panel.Seat{Role: "product_operator", Codename: "Lynx", OutputKind: schema.KindMember}
}

func reviewRequest() schema.Request {
	return schema.Request{Mode: schema.ModeReview, Text: "should we build this feature?"}
}

func TestRunSucceedsFirstAttempt(t *testing.T) {
	b := backend.NewScriptedBackend().Script("product_operator",
		backend.ScriptStep{Response: goodMemberJSON})

	outcome := testRunner(t, b).Run(context.Background(), memberSeat(), reviewRequest())

	if !outcome.Success() {
		t.Fatalf("outcome failed: %s %s", outcome.FailReason, outcome.Detail)
	}
	if outcome.Attempts != 1 {
		t.Fatalf("attempts = %d, want 1", outcome.Attempts)
	}
	if calls := b.Calls("product_operator"); len(calls) != 1 {
		t.Fatalf("backend called %d times, want 1", len(calls))
	}
}

func TestRunRetriesOnceOnSchemaViolation(t *testing.T) {
	b := backend.NewScriptedBackend().Script("product_operator",
		backend.ScriptStep{Response: `{"verdict": "go"}`}, // missing required fields
		backend.ScriptStep{Response: goodMemberJSON})

	outcome := testRunner(t, b).Run(context.Background(), memberSeat(), reviewRequest())

	if !outcome.Success() {
		t.Fatalf("outcome failed: %s %s", outcome.FailReason, outcome.Detail)
	}
	if outcome.Attempts != 2 {
		t.Fatalf("attempts = %d, want 2", outcome.Attempts)
	}

	calls := b.Calls("product_operator")
	if len(calls) != 2 {
		t.Fatalf("backend called %d times, want 2", len(calls))
	}
	if calls[0].SchemaHint != "" {
		t.Fatal("first attempt should carry no schema hint")
	}
	if !strings.Contains(calls[1].SchemaHint, "exactly these fields") {
		t.Fatalf("retry missing schema restatement: %q", calls[1].SchemaHint)
	}
}

func TestRunFailsSchemaInvalidAfterTwoBadResponses(t *testing.T) {
	b := backend.NewScriptedBackend().Script("product_operator",
		backend.ScriptStep{Response: `{"verdict": "maybe"}`},
		backend.ScriptStep{Response: `not json either`})

	outcome := testRunner(t, b).Run(context.Background(), memberSeat(), reviewRequest())

	if outcome.Success() {
		t.Fatal("expected failure")
	}
	if outcome.FailReason != FailSchemaInvalid {
		t.Fatalf("reason = %s, want schema_invalid", outcome.FailReason)
	}
	if outcome.Attempts != 2 {
		t.Fatalf("attempts = %d, want 2", outcome.Attempts)
	}
	if calls := b.Calls("product_operator"); len(calls) != 2 {
		t.Fatalf("backend called %d times, want exactly 2 (never more than one retry)", len(calls))
	}
}

func TestRunFailsBackendErrorAfterRetry(t *testing.T) {
	b := backend.NewScriptedBackend().Script("product_operator",
		backend.ScriptStep{Err: fmt.Errorf("connection refused")},
		backend.ScriptStep{Err: fmt.Errorf("connection refused")})

	outcome := testRunner(t, b).Run(context.Background(), memberSeat(), reviewRequest())

	if outcome.FailReason != FailBackendError {
		t.Fatalf("reason = %s, want backend_error", outcome.FailReason)
	}
}

func TestRunBackendErrorThenSuccess(t *testing.T) {
	b := backend.NewScriptedBackend().Script("product_operator",
		backend.ScriptStep{Err: fmt.Errorf("http 503")},
		backend.ScriptStep{Response: goodMemberJSON})

	outcome := testRunner(t, b).Run(context.Background(), memberSeat(), reviewRequest())

	if !outcome.Success() {
		t.Fatalf("outcome failed: %s %s", outcome.FailReason, outcome.Detail)
	}
	if outcome.Attempts != 2 {
		t.Fatalf("attempts = %d, want 2", outcome.Attempts)
	}
}

func TestRunTimeoutSkipsRetry(t *testing.T) {
	b := backend.NewScriptedBackend().Script("product_operator",
		backend.ScriptStep{Delay: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	outcome := testRunner(t, b).Run(ctx, memberSeat(), reviewRequest())

	if outcome.FailReason != FailTimeout {
		t.Fatalf("reason = %s, want timeout", outcome.FailReason)
	}
	if calls := b.Calls("product_operator"); len(calls) != 1 {
		t.Fatalf("backend called %d times after timeout, want 1", len(calls))
	}
}

func TestRunExpiredContextBeforeStart(t *testing.T) {
	b := backend.NewScriptedBackend()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome := testRunner(t, b).Run(ctx, memberSeat(), reviewRequest())

	if outcome.FailReason != FailTimeout {
		t.Fatalf("reason = %s, want timeout", outcome.FailReason)
	}
	if calls := b.Calls("product_operator"); len(calls) != 0 {
		t.Fatalf("backend called %d times with dead context, want 0", len(calls))
	}
}
