package schema

import (
	"fmt"
	"strings"
)

// Validation is structural only: required fields present, list lengths exact,
// verdict in the allowed vocabulary, confidence in range. A syntactically
// valid but vapid response (three empty-looking strings that still parse) is
// the backend's quality problem, not a schema violation, so only the presence
// of each element is checked, not its substance.

func (o *MemberOutput) Validate() error {
	switch o.Verdict {
	case VerdictGo, VerdictNoGo, VerdictPivot, VerdictUnclear:
	default:
		return fmt.Errorf("verdict %q not in {go, no_go, pivot, unclear}", o.Verdict)
	}
	if err := exactLength("top_3_reasons", o.Top3Reasons, 3); err != nil {
		return err
	}
	if err := exactLength("top_3_risks", o.Top3Risks, 3); err != nil {
		return err
	}
	if err := exactLength("next_3_actions", o.Next3Actions, 3); err != nil {
		return err
	}
	if err := confidenceInRange(o.Confidence); err != nil {
		return err
	}
	return nil
}

func (o *PuristOutput) Validate() error {
	switch o.Verdict {
	case PuristGo, PuristNo, PuristCut, PuristReframe:
	default:
		return fmt.Errorf("verdict %q not in {GO, NO, CUT, REFRAME}", o.Verdict)
	}
	if strings.TrimSpace(o.CorePromise) == "" {
		return fmt.Errorf("core_promise_12_words is required")
	}
	if words := len(strings.Fields(o.CorePromise)); words > 12 {
		return fmt.Errorf("core_promise_12_words has %d words, maximum is 12", words)
	}
	if err := exactLength("cut_list_3", o.CutList3, 3); err != nil {
		return err
	}
	if err := exactLength("hard_questions_if_vague_3", o.HardQuestions3, 3); err != nil {
		return err
	}
	if err := exactLength("next_2_actions", o.Next2Actions, 2); err != nil {
		return err
	}
	if err := confidenceInRange(o.Confidence); err != nil {
		return err
	}
	return nil
}

func exactLength(field string, items []string, want int) error {
	if len(items) != want {
		return fmt.Errorf("%s has %d items, exactly %d required", field, len(items), want)
	}
	return nil
}

func confidenceInRange(c float64) error {
	if c < 0.0 || c > 1.0 {
		return fmt.Errorf("confidence %.3f outside [0.0, 1.0]", c)
	}
	return nil
}

// Hint returns the schema restatement appended to a retry invocation after a
// first attempt produced an invalid response.
func Hint(kind OutputKind) string {
	switch kind {
	case KindPurist:
		return "Respond with a single JSON object containing exactly these fields: " +
			`"agent_name" (string), "role" (string), "verdict" (one of "GO", "NO", "CUT", "REFRAME"), ` +
			`"core_promise_12_words" (string, 12 words maximum), "flagship_experience" (string), ` +
			`"cut_list_3" (array of exactly 3 strings), "whats_missing_or_broken" (string), ` +
			`"hard_questions_if_vague_3" (array of exactly 3 strings), ` +
			`"next_2_actions" (array of exactly 2 strings), "confidence" (number between 0.0 and 1.0). ` +
			"Do not wrap the JSON in markdown fences or add commentary."
	default:
		return "Respond with a single JSON object containing exactly these fields: " +
			`"agent_name" (string), "role" (string), "verdict" (one of "go", "no_go", "pivot", "unclear"), ` +
			`"top_3_reasons" (array of exactly 3 strings), "top_3_risks" (array of exactly 3 strings), ` +
			`"next_3_actions" (array of exactly 3 strings), ` +
			`"one_experiment" (object with "hypothesis", "test", "success_metric", "timebox" strings), ` +
			`"confidence" (number between 0.0 and 1.0). ` +
			"Do not wrap the JSON in markdown fences or add commentary."
	}
}
