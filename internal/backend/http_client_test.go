package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	qerrors "quorum/internal/errors"
)

func chatEnvelope(content string) string {
	env := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
	data, _ := json.Marshal(env)
	return string(data)
}

func TestHTTPBackendInvoke(t *testing.T) {
	var captured chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(chatEnvelope(`{"verdict":"go"}`)))
	}))
	defer server.Close()

	b, err := NewHTTPBackend(Config{BaseURL: server.URL, APIKey: "test-key", Model: "test-model"})
	if err != nil {
		t.Fatalf("NewHTTPBackend failed: %v", err)
	}

	raw, err := b.Invoke(context.Background(), InvokeRequest{
		Role:         "product_operator",
		Instructions: "you are the product seat",
		Prompt:       "Mode: review\nRequest: evaluate this",
	})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if string(raw) != `{"verdict":"go"}` {
		t.Fatalf("raw = %s", raw)
	}

	if captured.Model != "test-model" {
		t.Fatalf("model = %q", captured.Model)
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" {
		t.Fatalf("unexpected messages: %+v", captured.Messages)
	}
}

func TestHTTPBackendAppendsSchemaHint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if !strings.Contains(req.Messages[1].Content, "SCHEMA REQUIREMENT") {
			t.Error("schema hint not appended to user message")
		}
		_, _ = w.Write([]byte(chatEnvelope("{}")))
	}))
	defer server.Close()

	b, _ := NewHTTPBackend(Config{BaseURL: server.URL, Model: "m"})
	if _, err := b.Invoke(context.Background(), InvokeRequest{
		Role:       "r",
		Prompt:     "p",
		SchemaHint: "respond with exactly these fields",
	}); err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
}

func TestHTTPBackendStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer server.Close()

	b, _ := NewHTTPBackend(Config{BaseURL: server.URL, Model: "m"})
	_, err := b.Invoke(context.Background(), InvokeRequest{Role: "r", Prompt: "p"})
	if err == nil {
		t.Fatal("expected error for HTTP 429")
	}
	if got := qerrors.HTTPStatusCode(err); got != http.StatusTooManyRequests {
		t.Fatalf("status code = %d, want 429", got)
	}
	if !qerrors.IsTransient(err) {
		t.Fatal("429 should classify as transient")
	}
}

func TestHTTPBackendEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	b, _ := NewHTTPBackend(Config{BaseURL: server.URL, Model: "m"})
	if _, err := b.Invoke(context.Background(), InvokeRequest{Role: "r", Prompt: "p"}); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestHTTPBackendHonorsContextDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
		_, _ = w.Write([]byte(chatEnvelope("{}")))
	}))
	defer server.Close()

	b, _ := NewHTTPBackend(Config{BaseURL: server.URL, Model: "m"})
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := b.Invoke(ctx, InvokeRequest{Role: "r", Prompt: "p"})
	if err == nil {
		t.Fatal("expected deadline error")
	}
	if !qerrors.IsTimeout(err) {
		t.Fatalf("error %v not classified as timeout", err)
	}
}

func TestNewHTTPBackendRequiresModel(t *testing.T) {
	if _, err := NewHTTPBackend(Config{}); err == nil {
		t.Fatal("expected error for missing model")
	}
}
