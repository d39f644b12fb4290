// Package consensus folds a complete set of seat outcomes into one arbitrated
// verdict. Evaluation is a pure function over the outcome set: rules apply in
// fixed precedence, later rules only ever tighten an earlier decision, and
// two runs over the same outcomes produce identical results regardless of the
// wall-clock order in which seats finished.
package consensus

import (
	"fmt"
	"sort"

	"quorum/internal/panel"
	"quorum/internal/schema"
	"quorum/internal/seat"
)

// Rule names, in precedence order.
const (
	RuleAlignmentGate      = "strategic_alignment_gate"
	RuleNoGoThreshold      = "no_go_threshold"
	RuleDesignatedVeto     = "designated_veto"
	RuleComplexityPivot    = "complexity_pivot"
	RuleCreativeCrossCheck = "creative_cross_check"
	RuleBasePlurality      = "base_plurality"
)

const (
	// noGoBlockThreshold is the number of no_go votes that forbids a go.
	noGoBlockThreshold = 2
	// vetoOverrideConfidence is the floor both override seats must clear.
	vetoOverrideConfidence = 0.75
	// failedSeatPenalty reduces confidence per failed seat.
	failedSeatPenalty = 0.1
	// complexityPenalty applies when the architecture lens pivots without a
	// minimal path.
	complexityPenalty = 0.1
	// allFailedConfidence is the fixed confidence of a round where no seat
	// produced a usable output.
	allFailedConfidence = 0.3
)

// Trace records one rule evaluation: whether it fired and what it did.
type Trace struct {
	Rule   string `json:"rule"`
	Fired  bool   `json:"fired"`
	Effect string `json:"effect"`
}

// Result is the arbitrated decision over one outcome set.
type Result struct {
	FinalVerdict schema.Verdict `json:"final_verdict"`
	Confidence   float64        `json:"confidence"`
	RuleTrace    []Trace        `json:"rule_trace"`
	MissingSeats []string       `json:"missing_seats"`
}

// Evaluate applies the consensus rules to a fully resolved outcome set.
// aligned is the caller-supplied strategic-alignment signal; the evaluator
// never computes it. Seats are always walked in panel order so the result is
// independent of map iteration and completion order.
func Evaluate(p *panel.Panel, outcomes map[string]seat.Outcome, mode schema.Mode, aligned bool) Result {
	successes := make([]seat.Outcome, 0, len(p.Seats))
	missing := make([]string, 0)
	for _, st := range p.Seats {
		o, ok := outcomes[st.Role]
		if !ok {
			// A dispatcher always supplies one entry per seat; a missing
			// entry in a hand-built set counts as a failed seat.
			missing = append(missing, st.Role)
			continue
		}
		if o.Success() {
			successes = append(successes, o)
		} else {
			missing = append(missing, st.Role)
		}
	}
	sort.Strings(missing)

	trace := make([]Trace, 0, 6)

	if len(successes) == 0 {
		// Nothing to arbitrate: degraded floor result.
		trace = append(trace,
			Trace{Rule: RuleAlignmentGate, Fired: !aligned, Effect: alignmentEffect(aligned)},
			skipped(RuleNoGoThreshold, "no successful seats"),
			skipped(RuleDesignatedVeto, "no successful seats"),
			skipped(RuleComplexityPivot, "no successful seats"),
			skipped(RuleCreativeCrossCheck, "no successful seats"),
			Trace{Rule: RuleBasePlurality, Fired: true, Effect: "all seats failed: verdict unclear at floor confidence"},
		)
		verdict := schema.VerdictUnclear
		if !aligned {
			verdict = schema.VerdictNoGo
		}
		return Result{
			FinalVerdict: verdict,
			Confidence:   allFailedConfidence,
			RuleTrace:    trace,
			MissingSeats: missing,
		}
	}

	votes := countVotes(successes)
	verdict := plurality(votes)
	baseEffect := fmt.Sprintf("plurality verdict %s (go=%d no_go=%d pivot=%d unclear=%d)",
		verdict, votes[schema.VerdictGo], votes[schema.VerdictNoGo],
		votes[schema.VerdictPivot], votes[schema.VerdictUnclear])

	complexityFired := false

	// Rule 1: strategic-alignment gate.
	if !aligned {
		verdict = schema.VerdictNoGo
		trace = append(trace,
			Trace{Rule: RuleAlignmentGate, Fired: true, Effect: alignmentEffect(false)},
			skipped(RuleNoGoThreshold, "short-circuited by alignment gate"),
			skipped(RuleDesignatedVeto, "short-circuited by alignment gate"),
			skipped(RuleComplexityPivot, "short-circuited by alignment gate"),
			skipped(RuleCreativeCrossCheck, "short-circuited by alignment gate"),
		)
	} else {
		trace = append(trace, Trace{Rule: RuleAlignmentGate, Fired: false, Effect: alignmentEffect(true)})

		// Rule 2: no-go threshold.
		verdict, trace = applyNoGoThreshold(verdict, votes, trace)

		// Rule 3: designated veto.
		verdict, trace = applyVeto(p, outcomes, verdict, trace)

		// Rule 4: complexity pivot.
		complexityFired, trace = applyComplexityPivot(p, outcomes, trace)

		// Rule 5: creative cross-check.
		verdict, trace = applyCreativeCrossCheck(p, outcomes, mode, verdict, trace)
	}

	confidence := meanConfidence(successes)
	confidence -= failedSeatPenalty * float64(len(missing))
	if complexityFired {
		confidence -= complexityPenalty
	}
	confidence = clamp(confidence)

	trace = append(trace, Trace{Rule: RuleBasePlurality, Fired: true, Effect: baseEffect})

	return Result{
		FinalVerdict: verdict,
		Confidence:   confidence,
		RuleTrace:    trace,
		MissingSeats: missing,
	}
}

func alignmentEffect(aligned bool) string {
	if aligned {
		return "request inside mission scope"
	}
	return "request outside mission scope: verdict forced to no_go"
}

func skipped(rule, why string) Trace {
	return Trace{Rule: rule, Fired: false, Effect: "skipped: " + why}
}

func countVotes(successes []seat.Outcome) map[schema.Verdict]int {
	votes := make(map[schema.Verdict]int, 4)
	for _, o := range successes {
		votes[o.Output.NormalizedVerdict()]++
	}
	return votes
}

// plurality picks the winning verdict. Equal counts resolve by precedence:
// go always wins ties, no_go beats the softer verdicts, and pivot beats
// unclear (the tie-break the rest of the rule set also uses).
func plurality(votes map[schema.Verdict]int) schema.Verdict {
	order := []schema.Verdict{schema.VerdictGo, schema.VerdictNoGo, schema.VerdictPivot, schema.VerdictUnclear}
	best := schema.VerdictUnclear
	bestCount := -1
	for _, v := range order {
		if votes[v] > bestCount {
			best = v
			bestCount = votes[v]
		}
	}
	return best
}

func applyNoGoThreshold(verdict schema.Verdict, votes map[schema.Verdict]int, trace []Trace) (schema.Verdict, []Trace) {
	noGo := votes[schema.VerdictNoGo]
	if noGo < noGoBlockThreshold {
		return verdict, append(trace, Trace{
			Rule:   RuleNoGoThreshold,
			Fired:  false,
			Effect: fmt.Sprintf("%d no_go votes, below threshold of %d", noGo, noGoBlockThreshold),
		})
	}

	if verdict != schema.VerdictGo {
		return verdict, append(trace, Trace{
			Rule:   RuleNoGoThreshold,
			Fired:  true,
			Effect: fmt.Sprintf("%d no_go votes block go (verdict already %s)", noGo, verdict),
		})
	}

	// Downgrade a tentative go by the plurality of the remaining soft
	// votes; pivot wins the tie and the empty case.
	downgraded := schema.VerdictPivot
	if votes[schema.VerdictUnclear] > votes[schema.VerdictPivot] {
		downgraded = schema.VerdictUnclear
	}
	return downgraded, append(trace, Trace{
		Rule:   RuleNoGoThreshold,
		Fired:  true,
		Effect: fmt.Sprintf("%d no_go votes block go: downgraded to %s", noGo, downgraded),
	})
}

func applyVeto(p *panel.Panel, outcomes map[string]seat.Outcome, verdict schema.Verdict, trace []Trace) (schema.Verdict, []Trace) {
	vetoSeat := p.VetoSeat()
	if vetoSeat == nil {
		return verdict, append(trace, skipped(RuleDesignatedVeto, "no veto seat configured"))
	}

	o, ok := outcomes[vetoSeat.Role]
	if !ok || !o.Success() {
		return verdict, append(trace, skipped(RuleDesignatedVeto, "veto seat did not report"))
	}

	raw := o.Output.RawVerdict()
	triggered := false
	for _, trigger := range vetoSeat.VetoTriggers {
		if raw == trigger {
			triggered = true
			break
		}
	}
	if !triggered {
		return verdict, append(trace, Trace{
			Rule:   RuleDesignatedVeto,
			Fired:  false,
			Effect: fmt.Sprintf("veto seat voted %s, not in trigger set", raw),
		})
	}

	// Override: both named seats voted go with high confidence.
	override := true
	for _, role := range p.VetoOverrideRoles {
		oo, ok := outcomes[role]
		if !ok || !oo.Success() ||
			oo.Output.NormalizedVerdict() != schema.VerdictGo ||
			oo.Output.SeatConfidence() < vetoOverrideConfidence {
			override = false
			break
		}
	}
	if override {
		return verdict, append(trace, Trace{
			Rule:   RuleDesignatedVeto,
			Fired:  false,
			Effect: fmt.Sprintf("veto (%s) bypassed: override seats voted go with confidence >= %.2f", raw, vetoOverrideConfidence),
		})
	}

	if verdict == schema.VerdictGo {
		return schema.VerdictPivot, append(trace, Trace{
			Rule:   RuleDesignatedVeto,
			Fired:  true,
			Effect: fmt.Sprintf("veto seat voted %s: go downgraded to pivot", raw),
		})
	}
	return verdict, append(trace, Trace{
		Rule:   RuleDesignatedVeto,
		Fired:  true,
		Effect: fmt.Sprintf("veto seat voted %s: go blocked (verdict already %s)", raw, verdict),
	})
}

func applyComplexityPivot(p *panel.Panel, outcomes map[string]seat.Outcome, trace []Trace) (bool, []Trace) {
	archSeat := p.ArchitectureSeat()
	if archSeat == nil {
		return false, append(trace, skipped(RuleComplexityPivot, "no architecture lens configured"))
	}

	o, ok := outcomes[archSeat.Role]
	if !ok || !o.Success() {
		return false, append(trace, skipped(RuleComplexityPivot, "architecture seat did not report"))
	}
	if o.Output.NormalizedVerdict() != schema.VerdictPivot {
		return false, append(trace, Trace{
			Rule:   RuleComplexityPivot,
			Fired:  false,
			Effect: fmt.Sprintf("architecture seat voted %s, no complexity concern", o.Output.NormalizedVerdict()),
		})
	}

	if member, ok := o.Output.(*schema.MemberOutput); ok && member.MinimalPath != "" {
		return false, append(trace, Trace{
			Rule:   RuleComplexityPivot,
			Fired:  false,
			Effect: "architecture pivot names a minimal path, penalty waived",
		})
	}

	return true, append(trace, Trace{
		Rule:   RuleComplexityPivot,
		Fired:  true,
		Effect: fmt.Sprintf("architecture pivot without minimal path: confidence reduced by %.1f", complexityPenalty),
	})
}

func applyCreativeCrossCheck(p *panel.Panel, outcomes map[string]seat.Outcome, mode schema.Mode, verdict schema.Verdict, trace []Trace) (schema.Verdict, []Trace) {
	if mode != schema.ModeCreative {
		return verdict, append(trace, skipped(RuleCreativeCrossCheck, "not a creative round"))
	}

	creativeSeat := p.CreativeSeat()
	if creativeSeat == nil {
		return verdict, append(trace, skipped(RuleCreativeCrossCheck, "no creative seat configured"))
	}

	corroborated := false
	if o, ok := outcomes[creativeSeat.Role]; ok && o.Success() {
		corroborated = true
		for _, role := range p.CorroboratorRoles {
			co, ok := outcomes[role]
			if !ok || !co.Success() || co.Output.NormalizedVerdict() != schema.VerdictGo {
				corroborated = false
				break
			}
		}
	}

	if corroborated {
		return verdict, append(trace, Trace{
			Rule:   RuleCreativeCrossCheck,
			Fired:  false,
			Effect: "creative proposal corroborated by both designated seats",
		})
	}

	if verdict == schema.VerdictGo {
		return schema.VerdictPivot, append(trace, Trace{
			Rule:   RuleCreativeCrossCheck,
			Fired:  true,
			Effect: "uncorroborated creative proposal: verdict capped at pivot",
		})
	}
	return verdict, append(trace, Trace{
		Rule:   RuleCreativeCrossCheck,
		Fired:  true,
		Effect: fmt.Sprintf("uncorroborated creative proposal: cap at pivot (verdict already %s)", verdict),
	})
}

func meanConfidence(successes []seat.Outcome) float64 {
	var sum float64
	for _, o := range successes {
		sum += o.Output.SeatConfidence()
	}
	return sum / float64(len(successes))
}

func clamp(c float64) float64 {
	if c < 0.0 {
		return 0.0
	}
	if c > 1.0 {
		return 1.0
	}
	return c
}
