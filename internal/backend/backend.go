// Package backend defines the evaluator backend port: the external capability
// that turns a role prompt plus schema contract into a candidate structured
// response. The engine re-validates everything a backend returns; schema
// satisfaction here is best effort.
package backend

import (
	"context"
	"encoding/json"
)

// InvokeRequest carries one seat invocation.
type InvokeRequest struct {
	Role         string // stable role id, used for logging and routing
	Instructions string // full role instruction text (system prompt)
	Prompt       string // formatted request payload
	SchemaHint   string // non-empty only on the retry attempt
}

// Backend produces a candidate structured response for one seat. The returned
// bytes are the raw model output; decoding and validation belong to the
// caller. Implementations must honor ctx cancellation and deadlines.
type Backend interface {
	Invoke(ctx context.Context, req InvokeRequest) (json.RawMessage, error)
}
