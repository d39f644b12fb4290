package schema

import (
	"strings"
	"testing"
)

func TestParseMode(t *testing.T) {
	for _, s := range []string{"review", "Decide", " AUDIT ", "creative"} {
		if _, err := ParseMode(s); err != nil {
			t.Fatalf("ParseMode(%q) error = %v", s, err)
		}
	}
	if _, err := ParseMode("judge"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestRequestValidate(t *testing.T) {
	ok := Request{Mode: ModeReview, Text: "should we build this thing?"}
	if err := ok.Validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	short := Request{Mode: ModeReview, Text: "short"}
	if err := short.Validate(); err == nil {
		t.Fatal("expected error for too-short text")
	}

	decide := Request{Mode: ModeDecide, Text: "pick one of these options", OptionA: "a"}
	if err := decide.Validate(); err == nil {
		t.Fatal("expected error for decide mode missing option_b")
	}
}

func TestRequestPromptIncludesOptions(t *testing.T) {
	req := Request{
		Mode:    ModeDecide,
		Text:    "which direction should we take?",
		OptionA: "rebuild",
		OptionB: "refactor",
		Context: "six weeks of runway",
	}
	prompt := req.Prompt()
	for _, want := range []string{"Mode: decide", "Option A: rebuild", "Option B: refactor", "Context: six weeks"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestPuristNormalize(t *testing.T) {
	cases := map[PuristVerdict]Verdict{
		PuristGo:           VerdictGo,
		PuristNo:           VerdictNoGo,
		PuristCut:          VerdictPivot,
		PuristReframe:      VerdictPivot,
		PuristVerdict("?"): VerdictUnclear,
	}
	for in, want := range cases {
		if got := in.Normalize(); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}
