package seat

import (
	"encoding/json"

	"quorum/internal/schema"
)

// FailReason tags the terminal failure of a seat after retries are exhausted.
type FailReason string

const (
	FailSchemaInvalid FailReason = "schema_invalid"
	FailBackendError  FailReason = "backend_error"
	FailTimeout       FailReason = "timeout"
)

// Outcome is the write-once result of running one seat for one round. Exactly
// one Outcome exists per seat per round: either Output is set (success) or
// FailReason is set (failure), never both.
type Outcome struct {
	Role     string            `json:"role"`
	Codename string            `json:"codename"`
	Output   schema.SeatOutput `json:"-"`
	Raw      json.RawMessage   `json:"raw,omitempty"`

	FailReason FailReason `json:"fail_reason,omitempty"`
	Detail     string     `json:"detail,omitempty"`

	Attempts int `json:"attempts"`
}

// Success reports whether the seat produced a validated output.
func (o Outcome) Success() bool {
	return o.Output != nil
}

// Failed builds a terminal failure outcome.
func Failed(role, codename string, reason FailReason, detail string, attempts int) Outcome {
	return Outcome{
		Role:       role,
		Codename:   codename,
		FailReason: reason,
		Detail:     detail,
		Attempts:   attempts,
	}
}
