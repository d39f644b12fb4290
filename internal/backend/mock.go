package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// ScriptStep is one canned reply for a role.
type ScriptStep struct {
	Response string
	Err      error
	Delay    func(ctx context.Context) error // optional hook to simulate latency
}

// ScriptedBackend replays canned responses per role, in order, and records
// every invocation. It exists for deterministic tests; consecutive calls for
// the same role consume consecutive script steps, which is how retry behavior
// is exercised.
type ScriptedBackend struct {
	mu      sync.Mutex
	scripts map[string][]ScriptStep
	cursor  map[string]int
	calls   map[string][]InvokeRequest
}

// NewScriptedBackend builds an empty scripted backend.
func NewScriptedBackend() *ScriptedBackend {
	return &ScriptedBackend{
		scripts: make(map[string][]ScriptStep),
		cursor:  make(map[string]int),
		calls:   make(map[string][]InvokeRequest),
	}
}

// Script appends steps for a role.
func (b *ScriptedBackend) Script(role string, steps ...ScriptStep) *ScriptedBackend {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.scripts[role] = append(b.scripts[role], steps...)
	return b
}

// Calls returns the recorded invocations for a role.
func (b *ScriptedBackend) Calls(role string) []InvokeRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]InvokeRequest, len(b.calls[role]))
	copy(out, b.calls[role])
	return out
}

func (b *ScriptedBackend) Invoke(ctx context.Context, req InvokeRequest) (json.RawMessage, error) {
	b.mu.Lock()
	b.calls[req.Role] = append(b.calls[req.Role], req)
	steps := b.scripts[req.Role]
	idx := b.cursor[req.Role]
	if idx < len(steps) {
		b.cursor[req.Role]++
	}
	b.mu.Unlock()

	if idx >= len(steps) {
		return nil, fmt.Errorf("no scripted response for role %q (call %d)", req.Role, idx+1)
	}

	step := steps[idx]
	if step.Delay != nil {
		if err := step.Delay(ctx); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if step.Err != nil {
		return nil, step.Err
	}
	return json.RawMessage(step.Response), nil
}
