package schema

import "strings"

// Verdict is the standard vote cast by most board seats.
type Verdict string

const (
	VerdictGo      Verdict = "go"
	VerdictNoGo    Verdict = "no_go"
	VerdictPivot   Verdict = "pivot"
	VerdictUnclear Verdict = "unclear"
)

// PuristVerdict is the special vocabulary used by the purist seat.
type PuristVerdict string

const (
	PuristGo      PuristVerdict = "GO"
	PuristNo      PuristVerdict = "NO"
	PuristCut     PuristVerdict = "CUT"
	PuristReframe PuristVerdict = "REFRAME"
)

// Normalize maps a purist verdict onto the standard vocabulary so it can
// participate in plurality counting. CUT and REFRAME both argue for reshaping
// the work, which is a pivot in board terms.
func (v PuristVerdict) Normalize() Verdict {
	switch v {
	case PuristGo:
		return VerdictGo
	case PuristNo:
		return VerdictNoGo
	case PuristCut, PuristReframe:
		return VerdictPivot
	}
	return VerdictUnclear
}

// OutputKind selects which structured schema a seat must satisfy. The kind is
// resolved once at panel-configuration time, never by runtime type sniffing.
type OutputKind string

const (
	KindMember OutputKind = "member"
	KindPurist OutputKind = "purist"
)

// KnownKind reports whether kind names a supported output schema.
func KnownKind(kind OutputKind) bool {
	return kind == KindMember || kind == KindPurist
}

// Experiment is a single experiment recommendation. All four fields are
// required for the experiment to count as complete.
type Experiment struct {
	Hypothesis    string `json:"hypothesis"`
	Test          string `json:"test"`
	SuccessMetric string `json:"success_metric"`
	Timebox       string `json:"timebox"`
}

// Complete reports whether every experiment field is filled in.
func (e Experiment) Complete() bool {
	return strings.TrimSpace(e.Hypothesis) != "" &&
		strings.TrimSpace(e.Test) != "" &&
		strings.TrimSpace(e.SuccessMetric) != "" &&
		strings.TrimSpace(e.Timebox) != ""
}

// SeatOutput is the tagged-union view over the per-role output schemas.
// Consensus and assembly only ever read through this interface; the concrete
// type is fixed by the seat's configured output kind.
type SeatOutput interface {
	Kind() OutputKind
	AgentName() string
	NormalizedVerdict() Verdict
	RawVerdict() string
	SeatConfidence() float64
	Reasons() []string
	Risks() []string
	Actions() []string
	BestExperiment() *Experiment
	Assumptions() []string
	MissingInfo() []string
	Validate() error
}

// MemberOutput is the standard structured response from most board seats.
type MemberOutput struct {
	Agent        string     `json:"agent_name"`
	Role         string     `json:"role"`
	Verdict      Verdict    `json:"verdict"`
	Top3Reasons  []string   `json:"top_3_reasons"`
	Top3Risks    []string   `json:"top_3_risks"`
	Assumption   []string   `json:"assumptions,omitempty"`
	Missing      []string   `json:"missing_info,omitempty"`
	Next3Actions []string   `json:"next_3_actions"`
	Experiment   Experiment `json:"one_experiment"`
	Confidence   float64    `json:"confidence"`

	// MinimalPath is only meaningful for the architecture seat: a non-empty
	// value names the simplest viable build and waives the complexity penalty.
	MinimalPath string `json:"minimal_path,omitempty"`
}

func (o *MemberOutput) Kind() OutputKind           { return KindMember }
func (o *MemberOutput) AgentName() string          { return o.Agent }
func (o *MemberOutput) NormalizedVerdict() Verdict { return o.Verdict }
func (o *MemberOutput) RawVerdict() string         { return string(o.Verdict) }
func (o *MemberOutput) SeatConfidence() float64    { return o.Confidence }
func (o *MemberOutput) Reasons() []string          { return o.Top3Reasons }
func (o *MemberOutput) Risks() []string            { return o.Top3Risks }
func (o *MemberOutput) Actions() []string          { return o.Next3Actions }
func (o *MemberOutput) BestExperiment() *Experiment {
	exp := o.Experiment
	return &exp
}
func (o *MemberOutput) Assumptions() []string { return o.Assumption }
func (o *MemberOutput) MissingInfo() []string { return o.Missing }

// PuristOutput is the special schema for the purist seat: it trades the
// standard risk/experiment fields for cut lists and hard questions.
type PuristOutput struct {
	Agent          string        `json:"agent_name"`
	Role           string        `json:"role"`
	Verdict        PuristVerdict `json:"verdict"`
	CorePromise    string        `json:"core_promise_12_words"`
	Flagship       string        `json:"flagship_experience"`
	CutList3       []string      `json:"cut_list_3"`
	MissingBroken  string        `json:"whats_missing_or_broken"`
	HardQuestions3 []string      `json:"hard_questions_if_vague_3"`
	Next2Actions   []string      `json:"next_2_actions"`
	Confidence     float64       `json:"confidence"`
}

func (o *PuristOutput) Kind() OutputKind           { return KindPurist }
func (o *PuristOutput) AgentName() string          { return o.Agent }
func (o *PuristOutput) NormalizedVerdict() Verdict { return o.Verdict.Normalize() }
func (o *PuristOutput) RawVerdict() string         { return string(o.Verdict) }
func (o *PuristOutput) SeatConfidence() float64    { return o.Confidence }

// Reasons exposes the purist's cut list: each cut is an argument about what
// the work should be.
func (o *PuristOutput) Reasons() []string { return o.CutList3 }

func (o *PuristOutput) Risks() []string   { return nil }
func (o *PuristOutput) Actions() []string { return o.Next2Actions }

// BestExperiment is nil: the purist schema carries no experiment.
func (o *PuristOutput) BestExperiment() *Experiment { return nil }

func (o *PuristOutput) Assumptions() []string { return nil }
func (o *PuristOutput) MissingInfo() []string {
	if strings.TrimSpace(o.MissingBroken) == "" {
		return nil
	}
	return []string{o.MissingBroken}
}
