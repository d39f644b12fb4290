package errors

import (
	"context"
	"fmt"
	"testing"
)

func TestIsTransientExplicitMarkers(t *testing.T) {
	base := fmt.Errorf("boom")

	if !IsTransient(NewTransientError(base, "retry me")) {
		t.Fatal("explicit TransientError not detected")
	}
	if IsTransient(NewPermanentError(base, "give up")) {
		t.Fatal("PermanentError classified as transient")
	}
	if IsTransient(nil) {
		t.Fatal("nil error classified as transient")
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	transient := []int{429, 500, 502, 503, 504}
	for _, code := range transient {
		err := NewHTTPStatusError(code, "status", "")
		if !IsTransient(err) {
			t.Fatalf("HTTP %d should be transient", code)
		}
	}

	permanent := []int{400, 401, 403, 404, 422}
	for _, code := range permanent {
		err := NewHTTPStatusError(code, "status", "")
		if IsTransient(err) {
			t.Fatalf("HTTP %d should not be transient", code)
		}
		if !IsPermanent(err) {
			t.Fatalf("HTTP %d should be permanent", code)
		}
	}
}

func TestIsTransientWrappedHTTPStatus(t *testing.T) {
	err := fmt.Errorf("invoke seat: %w", NewHTTPStatusError(503, "service unavailable", ""))
	if !IsTransient(err) {
		t.Fatal("wrapped transient HTTP status not detected")
	}
	if got := HTTPStatusCode(err); got != 503 {
		t.Fatalf("HTTPStatusCode = %d, want 503", got)
	}
}

func TestIsTimeout(t *testing.T) {
	if !IsTimeout(context.DeadlineExceeded) {
		t.Fatal("context.DeadlineExceeded not detected as timeout")
	}
	if !IsTimeout(fmt.Errorf("seat: %w", context.DeadlineExceeded)) {
		t.Fatal("wrapped deadline not detected as timeout")
	}
	if IsTimeout(fmt.Errorf("other")) {
		t.Fatal("plain error detected as timeout")
	}
	if IsTimeout(nil) {
		t.Fatal("nil detected as timeout")
	}
}
