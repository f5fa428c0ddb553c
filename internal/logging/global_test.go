package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestGlobalLogger(t *testing.T) {
	orig := Global()
	defer SetGlobal(orig)

	var buf bytes.Buffer
	SetGlobal(New(Config{Level: LevelInfo, Format: FormatText, Output: &buf}))

	Info("global info")
	Warnf("global warn", map[string]any{"k": "v"})

	out := buf.String()
	if !strings.Contains(out, "global info") {
		t.Errorf("missing info entry: %q", out)
	}
	if !strings.Contains(out, "global warn") || !strings.Contains(out, "k=v") {
		t.Errorf("missing warn entry: %q", out)
	}
}

func TestConfigure(t *testing.T) {
	orig := Global()
	defer SetGlobal(orig)

	l := Configure("debug", "text")
	if l.GetLevel() != LevelDebug {
		t.Errorf("Configure level = %v, want debug", l.GetLevel())
	}
	if Global() != l {
		t.Error("Configure should install the logger as the global")
	}
}
