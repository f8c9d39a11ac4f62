package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelWarn, FormatText)

	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown", "file", "cell.json")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("messages below the level were written: %q", out)
	}
	if !strings.Contains(out, "msg=shown") || !strings.Contains(out, "file=cell.json") {
		t.Errorf("warning missing from output: %q", out)
	}

	buf.Reset()
	l.SetLevel(LevelDebug)
	l.Debug("now shown")
	if !strings.Contains(buf.String(), "now shown") {
		t.Errorf("SetLevel(LevelDebug) did not enable debug output: %q", buf.String())
	}

	buf.Reset()
	l.SetLevel(LevelNone)
	l.Error("dropped")
	if buf.Len() != 0 {
		t.Errorf("LevelNone wrote %q", buf.String())
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, LevelInfo, FormatJSON).Info("validated", "valid", true)
	if !strings.Contains(buf.String(), `"valid":true`) {
		t.Errorf("unexpected JSON output: %q", buf.String())
	}
}

func TestWithSharesLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelError, FormatText)
	child := l.With("document", "a.json")

	l.SetLevel(LevelInfo)
	child.Info("checked")
	if !strings.Contains(buf.String(), "document=a.json") {
		t.Errorf("child logger did not follow parent level: %q", buf.String())
	}
}

func TestEnabled(t *testing.T) {
	l := New(&bytes.Buffer{}, LevelInfo, FormatText)
	if l.Enabled(LevelDebug) {
		t.Error("debug should be disabled at info level")
	}
	if !l.Enabled(LevelError) {
		t.Error("error should be enabled at info level")
	}
	if Discard().Enabled(LevelError) {
		t.Error("Discard should drop errors")
	}
}

func TestContext(t *testing.T) {
	if FromContext(context.Background()) != Default() {
		t.Error("empty context should yield the default logger")
	}

	l := Discard()
	ctx := WithContext(context.Background(), l)
	if FromContext(ctx) != l {
		t.Error("FromContext did not return the stored logger")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"off", LevelNone},
		{"verbose", LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLevelString(t *testing.T) {
	if LevelWarn.String() != "WARN" || LevelNone.String() != "" {
		t.Errorf("unexpected level names %q %q", LevelWarn, LevelNone)
	}
}
