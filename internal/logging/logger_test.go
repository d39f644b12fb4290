package logging

import "testing"

func TestOrNopReturnsNopForNil(t *testing.T) {
	logger := OrNop(nil)
	if logger == nil {
		t.Fatal("OrNop(nil) returned nil")
	}
	// Must not panic.
	logger.Debug("debug %d", 1)
	logger.Info("info")
	logger.Warn("warn")
	logger.Error("error")
}

func TestOrNopPassesThrough(t *testing.T) {
	logger := Nop()
	if got := OrNop(logger); got != logger {
		t.Fatalf("OrNop returned %v, want the original logger", got)
	}
}

func TestLevelString(t *testing.T) {
	cases := map[Level]string{
		DEBUG:     "DEBUG",
		INFO:      "INFO",
		WARN:      "WARN",
		ERROR:     "ERROR",
		Level(42): "UNKNOWN",
	}
	for level, want := range cases {
		if got := levelString(level); got != want {
			t.Fatalf("levelString(%d) = %q, want %q", level, got, want)
		}
	}
}
