package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestCharmLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	lgr := NewCharm(&buf, "debug").With(F("component", "dispatcher"))
	lgr.Warn("delivery failed", F("topic", "author.activity/1"))

	out := buf.String()
	for _, want := range []string{"delivery failed", "component", "dispatcher", "topic", "author.activity/1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output %q", want, out)
		}
	}
}

func TestCharmLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	lgr := NewCharm(&buf, "warn")
	lgr.Debug("hidden")
	lgr.Info("hidden too")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below warn, got %q", buf.String())
	}
	lgr.Error("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Fatalf("expected error line, got %q", buf.String())
	}
}
