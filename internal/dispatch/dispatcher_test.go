package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"quorum/internal/logging"
	"quorum/internal/panel"
	"quorum/internal/schema"
	"quorum/internal/seat"
)

// stubRunner resolves seats according to a per-role plan.
type stubRunner struct {
	mu    sync.Mutex
	plans map[string]stubPlan
	runs  []string
}

type stubPlan struct {
	delay        time.Duration
	block        bool // resolves as timeout once its context dies
	unresponsive bool // ignores its context entirely, never resolves in test time
	failure      seat.FailReason
}

func (r *stubRunner) Run(ctx context.Context, st panel.Seat, req schema.Request) seat.Outcome {
	r.mu.Lock()
	r.runs = append(r.runs, st.Role)
	plan := r.plans[st.Role]
	r.mu.Unlock()

	if plan.unresponsive {
		time.Sleep(10 * time.Second)
		return seat.Failed(st.Role, st.Codename, seat.FailTimeout, "unresponsive", 1)
	}
	if plan.block {
		<-ctx.Done()
		return seat.Failed(st.Role, st.Codename, seat.FailTimeout, ctx.Err().Error(), 1)
	}
	if plan.delay > 0 {
		select {
		case <-time.After(plan.delay):
		case <-ctx.Done():
			return seat.Failed(st.Role, st.Codename, seat.FailTimeout, ctx.Err().Error(), 1)
		}
	}
	if plan.failure != "" {
		return seat.Failed(st.Role, st.Codename, plan.failure, "planned failure", 2)
	}
	return seat.Outcome{
		Role:     st.Role,
		Codename: st.Codename,
		Output:   &schema.MemberOutput{Agent: st.Codename, Verdict: schema.VerdictGo, Confidence: 0.7},
		Attempts: 1,
	}
}

func threeSeatPanel() *panel.Panel {
	return &panel.Panel{
		Seats: []panel.Seat{
			{Role: "alpha", Codename: "A", OutputKind: schema.KindMember},
			{Role: "beta", Codename: "B", OutputKind: schema.KindMember},
			{Role: "gamma", Codename: "C", OutputKind: schema.KindMember},
		},
	}
}

func TestRunPanelAllSucceed(t *testing.T) {
	runner := &stubRunner{plans: map[string]stubPlan{}}
	d := New(runner, time.Second, 2*time.Second, logging.Nop())

	result := d.RunPanel(context.Background(), threeSeatPanel(), schema.Request{Mode: schema.ModeReview, Text: "evaluate this please"})

	if len(result.Outcomes) != 3 {
		t.Fatalf("got %d outcomes, want 3", len(result.Outcomes))
	}
	if result.Expired {
		t.Fatal("round should not have expired")
	}
	if result.Resolved != 3 {
		t.Fatalf("resolved = %d, want 3", result.Resolved)
	}
	for role, o := range result.Outcomes {
		if !o.Success() {
			t.Fatalf("seat %s failed: %s", role, o.FailReason)
		}
	}
}

func TestRunPanelOneSlowSeatDoesNotBlockOthers(t *testing.T) {
	runner := &stubRunner{plans: map[string]stubPlan{
		"beta": {block: true},
	}}
	d := New(runner, 50*time.Millisecond, 5*time.Second, logging.Nop())

	start := time.Now()
	result := d.RunPanel(context.Background(), threeSeatPanel(), schema.Request{Mode: schema.ModeReview, Text: "evaluate this please"})
	elapsed := time.Since(start)

	if elapsed > time.Second {
		t.Fatalf("join took %v, slow seat blocked the round", elapsed)
	}
	if !result.Outcomes["alpha"].Success() || !result.Outcomes["gamma"].Success() {
		t.Fatal("fast seats should have succeeded")
	}
	if result.Outcomes["beta"].FailReason != seat.FailTimeout {
		t.Fatalf("slow seat reason = %s, want timeout", result.Outcomes["beta"].FailReason)
	}
}

func TestRunPanelOverallTimeoutForcesUnresolved(t *testing.T) {
	runner := &stubRunner{plans: map[string]stubPlan{
		"alpha": {unresponsive: true},
		"beta":  {unresponsive: true},
	}}
	d := New(runner, 10*time.Second, 60*time.Millisecond, logging.Nop())

	result := d.RunPanel(context.Background(), threeSeatPanel(), schema.Request{Mode: schema.ModeReview, Text: "evaluate this please"})

	if len(result.Outcomes) != 3 {
		t.Fatalf("got %d outcomes, want exactly one per seat", len(result.Outcomes))
	}
	if result.Resolved != 1 {
		t.Fatalf("resolved = %d, want 1", result.Resolved)
	}
	if !result.Outcomes["gamma"].Success() {
		t.Fatal("resolved seat outcome was discarded")
	}
	for _, role := range []string{"alpha", "beta"} {
		if result.Outcomes[role].FailReason != seat.FailTimeout {
			t.Fatalf("seat %s reason = %s, want timeout", role, result.Outcomes[role].FailReason)
		}
	}
}

func TestRunPanelZeroResolvedReportsExpired(t *testing.T) {
	runner := &stubRunner{plans: map[string]stubPlan{
		"alpha": {unresponsive: true},
		"beta":  {unresponsive: true},
		"gamma": {unresponsive: true},
	}}
	d := New(runner, 10*time.Second, 50*time.Millisecond, logging.Nop())

	result := d.RunPanel(context.Background(), threeSeatPanel(), schema.Request{Mode: schema.ModeReview, Text: "evaluate this please"})

	if !result.Expired {
		t.Fatal("round should report expiry")
	}
	if result.Resolved != 0 {
		t.Fatalf("resolved = %d, want 0", result.Resolved)
	}
	if len(result.Outcomes) != 3 {
		t.Fatalf("got %d outcomes, want 3 forced entries", len(result.Outcomes))
	}
}

func TestRunPanelStartsAllSeats(t *testing.T) {
	runner := &stubRunner{plans: map[string]stubPlan{}}
	d := New(runner, time.Second, time.Second, logging.Nop())

	_ = d.RunPanel(context.Background(), threeSeatPanel(), schema.Request{Mode: schema.ModeReview, Text: "evaluate this please"})

	runner.mu.Lock()
	defer runner.mu.Unlock()
	if len(runner.runs) != 3 {
		t.Fatalf("runner invoked %d times, want 3", len(runner.runs))
	}
}

func TestRunPanelFailedSeatsStillCounted(t *testing.T) {
	runner := &stubRunner{plans: map[string]stubPlan{
		"beta": {failure: seat.FailSchemaInvalid},
	}}
	d := New(runner, time.Second, time.Second, logging.Nop())

	result := d.RunPanel(context.Background(), threeSeatPanel(), schema.Request{Mode: schema.ModeReview, Text: "evaluate this please"})

	// A seat that fails on its own terms still counts as resolved.
	if result.Resolved != 3 {
		t.Fatalf("resolved = %d, want 3", result.Resolved)
	}
	if result.Outcomes["beta"].FailReason != seat.FailSchemaInvalid {
		t.Fatalf("reason = %s, want schema_invalid", result.Outcomes["beta"].FailReason)
	}
}
