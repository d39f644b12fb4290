// Package report assembles the arbitrated verdict and the surviving seat
// outputs into the final board report. Assembly is deterministic: seats are
// ranked by confidence with panel order breaking ties, so the same outcome
// set always yields the same report.
package report

import (
	"fmt"
	"strings"

	"quorum/internal/consensus"
	"quorum/internal/panel"
	"quorum/internal/schema"
	"quorum/internal/seat"
)

// listLength is the fixed size of the reason, tradeoff, risk and action lists.
const listLength = 3

// minPlanDays is the minimum number of entries in the one-week plan.
const minPlanDays = 3

// DayTask is one slot of the one-week plan.
type DayTask struct {
	Day  string `json:"day"`
	Task string `json:"task"`
}

// BoardVote is one seat's public position in the report. Failed seats appear
// with their failure reason instead of a verdict.
type BoardVote struct {
	Role       string  `json:"role"`
	Codename   string  `json:"codename"`
	Verdict    string  `json:"verdict,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	Failed     string  `json:"failed,omitempty"`
}

// FinalReport is the complete assembled output of one board round.
type FinalReport struct {
	RequestType    schema.Mode       `json:"request_type"`
	FinalVerdict   schema.Verdict    `json:"final_verdict"`
	FinalSummary   string            `json:"final_summary"`
	WhyThisVerdict []string          `json:"why_this_verdict"`
	KeyTradeoffs   []string          `json:"key_tradeoffs"`
	TopRisks       []string          `json:"top_risks"`
	Next3Actions   []string          `json:"next_3_actions"`
	OneWeekPlan    []DayTask         `json:"one_week_plan"`
	BestExperiment schema.Experiment `json:"single_best_experiment"`
	BoardVotes     []BoardVote       `json:"board_votes"`
	Confidence     float64           `json:"confidence"`
	Assumptions    []string          `json:"assumptions,omitempty"`
	MissingInfo    []string          `json:"missing_info,omitempty"`
	RuleTrace      []consensus.Trace `json:"rule_trace"`
}

// ranked pairs a successful outcome with its panel position for tie-breaks.
type ranked struct {
	outcome seat.Outcome
	index   int
}

// Assemble builds the final report from the arbitrated result and the full
// outcome set.
func Assemble(req schema.Request, p *panel.Panel, outcomes map[string]seat.Outcome, decision consensus.Result) *FinalReport {
	successes := rankSuccesses(p, outcomes)

	rep := &FinalReport{
		RequestType:  req.Mode,
		FinalVerdict: decision.FinalVerdict,
		Confidence:   decision.Confidence,
		RuleTrace:    decision.RuleTrace,
	}

	rep.BoardVotes = boardVotes(p, outcomes)
	rep.MissingInfo = failedSeatNotes(p, outcomes)
	for _, entry := range collectUnique(successes, schema.SeatOutput.MissingInfo, 0) {
		rep.MissingInfo = appendUnique(rep.MissingInfo, entry)
	}
	rep.Assumptions = collectUnique(successes, schema.SeatOutput.Assumptions, 0)

	rep.WhyThisVerdict = padded(
		collectAligned(successes, decision.FinalVerdict, schema.SeatOutput.Reasons),
		"the board did not articulate a further reason",
		&rep.MissingInfo, "fewer than 3 distinct reasons were offered for the verdict",
	)
	rep.TopRisks = padded(
		collectUnique(successes, schema.SeatOutput.Risks, 0),
		"no additional risk was identified",
		&rep.MissingInfo, "fewer than 3 distinct risks were raised",
	)
	rep.Next3Actions = padded(
		collectUnique(successes, schema.SeatOutput.Actions, 0),
		"revisit with the board once more information is available",
		&rep.MissingInfo, "fewer than 3 distinct next actions were proposed",
	)
	rep.KeyTradeoffs = padded(
		tradeoffs(successes),
		"no further tradeoff surfaced in this round",
		&rep.MissingInfo, "fewer than 3 tradeoffs could be synthesized",
	)

	rep.OneWeekPlan = weeklyPlan(rep.Next3Actions)
	rep.BestExperiment = bestExperiment(successes)
	rep.FinalSummary = summary(req, decision, len(successes), len(p.Seats))

	return rep
}

func rankSuccesses(p *panel.Panel, outcomes map[string]seat.Outcome) []ranked {
	successes := make([]ranked, 0, len(p.Seats))
	for i, st := range p.Seats {
		if o, ok := outcomes[st.Role]; ok && o.Success() {
			successes = append(successes, ranked{outcome: o, index: i})
		}
	}
	// Insertion sort by confidence descending; the panel index preserves a
	// stable order between equal confidences.
	for i := 1; i < len(successes); i++ {
		for j := i; j > 0 && higherRank(successes[j], successes[j-1]); j-- {
			successes[j], successes[j-1] = successes[j-1], successes[j]
		}
	}
	return successes
}

func higherRank(a, b ranked) bool {
	ca, cb := a.outcome.Output.SeatConfidence(), b.outcome.Output.SeatConfidence()
	if ca != cb {
		return ca > cb
	}
	return a.index < b.index
}

// failedSeatNotes lists every seat that did not report, with its terminal
// reason, in panel order.
func failedSeatNotes(p *panel.Panel, outcomes map[string]seat.Outcome) []string {
	var notes []string
	for _, st := range p.Seats {
		o, ok := outcomes[st.Role]
		if ok && o.Success() {
			continue
		}
		reason := string(seat.FailBackendError)
		if ok {
			reason = string(o.FailReason)
		}
		notes = append(notes, fmt.Sprintf("seat %s (%s) did not report: %s", st.Role, st.Codename, reason))
	}
	return notes
}

func boardVotes(p *panel.Panel, outcomes map[string]seat.Outcome) []BoardVote {
	votes := make([]BoardVote, 0, len(p.Seats))
	for _, st := range p.Seats {
		o, ok := outcomes[st.Role]
		if !ok || !o.Success() {
			reason := string(seat.FailBackendError)
			if ok {
				reason = string(o.FailReason)
			}
			votes = append(votes, BoardVote{Role: st.Role, Codename: st.Codename, Failed: reason})
			continue
		}
		votes = append(votes, BoardVote{
			Role:       st.Role,
			Codename:   st.Codename,
			Verdict:    o.Output.RawVerdict(),
			Confidence: o.Output.SeatConfidence(),
		})
	}
	return votes
}

// collectUnique walks the ranked seats and gathers deduplicated entries from
// the given accessor. limit of 0 means unbounded.
func collectUnique(successes []ranked, get func(schema.SeatOutput) []string, limit int) []string {
	var out []string
	seen := make(map[string]bool)
	for _, r := range successes {
		for _, entry := range get(r.outcome.Output) {
			entry = strings.TrimSpace(entry)
			if entry == "" {
				continue
			}
			key := normalize(entry)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, entry)
			if limit > 0 && len(out) == limit {
				return out
			}
		}
	}
	return out
}

// collectAligned prefers entries from seats whose vote matches the final
// verdict, then falls back to the remaining seats so the list can still fill.
func collectAligned(successes []ranked, verdict schema.Verdict, get func(schema.SeatOutput) []string) []string {
	aligned := make([]ranked, 0, len(successes))
	rest := make([]ranked, 0, len(successes))
	for _, r := range successes {
		if r.outcome.Output.NormalizedVerdict() == verdict {
			aligned = append(aligned, r)
		} else {
			rest = append(rest, r)
		}
	}
	out := collectUnique(aligned, get, listLength)
	if len(out) < listLength {
		seen := make(map[string]bool, len(out))
		for _, e := range out {
			seen[normalize(e)] = true
		}
		for _, e := range collectUnique(rest, get, 0) {
			if seen[normalize(e)] {
				continue
			}
			out = append(out, e)
			if len(out) == listLength {
				break
			}
		}
	}
	return out
}

// tradeoffs synthesizes tension statements from each seat's strongest reason
// and risk pair.
func tradeoffs(successes []ranked) []string {
	var out []string
	seen := make(map[string]bool)
	for _, r := range successes {
		reasons := r.outcome.Output.Reasons()
		risks := r.outcome.Output.Risks()
		if len(reasons) == 0 || len(risks) == 0 {
			continue
		}
		entry := fmt.Sprintf("%s, but %s", trimSentence(reasons[0]), lowerFirst(trimSentence(risks[0])))
		key := normalize(entry)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, entry)
		if len(out) == listLength {
			break
		}
	}
	return out
}

// padded truncates or pads a list to exactly listLength entries, noting the
// shortfall in missingInfo.
func padded(entries []string, filler string, missingInfo *[]string, note string) []string {
	if len(entries) >= listLength {
		return entries[:listLength]
	}
	*missingInfo = appendUnique(*missingInfo, note)
	for i := len(entries); i < listLength; i++ {
		entries = append(entries, fmt.Sprintf("%s (%d)", filler, i+1))
	}
	return entries
}

// weeklyPlan spreads the next actions over the week. Three actions map onto
// the standard day-1-2 / day-3-4 / day-5-7 split.
func weeklyPlan(actions []string) []DayTask {
	days := []string{"Day 1-2", "Day 3-4", "Day 5-7"}
	plan := make([]DayTask, 0, minPlanDays)
	for i, day := range days {
		task := "review progress and decide whether to continue"
		if i < len(actions) {
			task = actions[i]
		}
		plan = append(plan, DayTask{Day: day, Task: task})
	}
	return plan
}

// bestExperiment picks the single experiment worth running: complete ones
// beat incomplete, quantitative success metrics beat vague ones, shorter
// timeboxes beat longer, and seat confidence breaks what remains. Seats are
// already ranked, so walking in order makes the final tie-break deterministic.
func bestExperiment(successes []ranked) schema.Experiment {
	var best *schema.Experiment
	var bestRank int
	for rank, r := range successes {
		exp := r.outcome.Output.BestExperiment()
		if exp == nil || strings.TrimSpace(exp.Hypothesis) == "" {
			continue
		}
		if best == nil || betterExperiment(*exp, rank, *best, bestRank) {
			e := *exp
			best = &e
			bestRank = rank
		}
	}
	if best == nil {
		return schema.Experiment{
			Hypothesis:    "The core assumption behind this request holds for real users",
			Test:          "Put the smallest testable version in front of 5 target users",
			SuccessMetric: "At least 3 of 5 users complete the core action unprompted",
			Timebox:       "3 days",
		}
	}
	return *best
}

func betterExperiment(a schema.Experiment, aRank int, b schema.Experiment, bRank int) bool {
	if a.Complete() != b.Complete() {
		return a.Complete()
	}
	if quantitative(a.SuccessMetric) != quantitative(b.SuccessMetric) {
		return quantitative(a.SuccessMetric)
	}
	ad, aKnown := timeboxDays(a.Timebox)
	bd, bKnown := timeboxDays(b.Timebox)
	if aKnown && bKnown && ad != bd {
		return ad < bd
	}
	if aKnown != bKnown {
		return aKnown
	}
	return aRank < bRank
}

// quantitative reports whether a success metric contains a digit.
func quantitative(metric string) bool {
	for _, r := range metric {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}

// timeboxDays parses a rough day count out of a timebox string such as
// "3 days", "1 week" or "48 hours".
func timeboxDays(timebox string) (float64, bool) {
	fields := strings.Fields(strings.ToLower(timebox))
	for i, f := range fields {
		var n float64
		if _, err := fmt.Sscanf(f, "%g", &n); err != nil || n <= 0 {
			continue
		}
		unit := ""
		if i+1 < len(fields) {
			unit = fields[i+1]
		}
		switch {
		case strings.HasPrefix(unit, "hour"):
			return n / 24, true
		case strings.HasPrefix(unit, "week"):
			return n * 7, true
		default:
			return n, true
		}
	}
	return 0, false
}

func summary(req schema.Request, decision consensus.Result, resolved, total int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The board reviewed this %s request and arrived at %s with %.2f confidence.",
		req.Mode, decision.FinalVerdict, decision.Confidence)
	if resolved < total {
		fmt.Fprintf(&b, " %d of %d seats reported; the verdict reflects the seats that resolved.", resolved, total)
	}
	for _, tr := range decision.RuleTrace {
		if tr.Fired && tr.Rule != consensus.RuleBasePlurality {
			fmt.Fprintf(&b, " Decisive rule: %s.", tr.Effect)
			break
		}
	}
	return b.String()
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimRight(strings.TrimSpace(s), ".!"))), " ")
}

func appendUnique(list []string, entry string) []string {
	for _, e := range list {
		if normalize(e) == normalize(entry) {
			return list
		}
	}
	return append(list, entry)
}

func trimSentence(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), ".!")
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	if r[0] >= 'A' && r[0] <= 'Z' {
		r[0] += 'a' - 'A'
	}
	return string(r)
}
