package schema

import (
	"fmt"
	"strings"
)

// Mode is the type of board request.
type Mode string

const (
	ModeReview   Mode = "review"
	ModeDecide   Mode = "decide"
	ModeAudit    Mode = "audit"
	ModeCreative Mode = "creative"
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeReview:
		return ModeReview, nil
	case ModeDecide:
		return ModeDecide, nil
	case ModeAudit:
		return ModeAudit, nil
	case ModeCreative:
		return ModeCreative, nil
	}
	return "", fmt.Errorf("unknown mode %q (want review, decide, audit or creative)", s)
}

// Request is the immutable input to one consensus round. It is created once
// per invocation and never mutated; every piece of shared context (philosophy
// text, previous decisions) is threaded through here explicitly so a round is
// reproducible from its inputs alone.
type Request struct {
	Mode      Mode   `json:"mode"`
	Text      string `json:"text"`
	Context   string `json:"context,omitempty"`
	OptionA   string `json:"option_a,omitempty"`
	OptionB   string `json:"option_b,omitempty"`
	ProjectID string `json:"project_id,omitempty"`
}

// Validate checks the request shape before a round starts.
func (r Request) Validate() error {
	if _, err := ParseMode(string(r.Mode)); err != nil {
		return err
	}
	if len(strings.TrimSpace(r.Text)) < 10 {
		return fmt.Errorf("request text too short (need at least 10 characters)")
	}
	if r.Mode == ModeDecide && (r.OptionA == "" || r.OptionB == "") {
		return fmt.Errorf("decide mode requires both option_a and option_b")
	}
	return nil
}

// Prompt formats the request for seat consumption.
func (r Request) Prompt() string {
	parts := []string{
		fmt.Sprintf("Mode: %s", r.Mode),
		fmt.Sprintf("Request: %s", r.Text),
	}

	if r.Mode == ModeDecide {
		if r.OptionA != "" {
			parts = append(parts, fmt.Sprintf("Option A: %s", r.OptionA))
		}
		if r.OptionB != "" {
			parts = append(parts, fmt.Sprintf("Option B: %s", r.OptionB))
		}
	}

	if r.Context != "" {
		parts = append(parts, fmt.Sprintf("Context: %s", r.Context))
	}

	return strings.Join(parts, "\n")
}
