package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"info", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
		{"chatty", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewWithWriter_VerboseEnablesDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "error", true)
	logger.Debug().Msg("frame written")
	if !strings.Contains(buf.String(), "frame written") {
		t.Errorf("debug message missing from verbose output: %q", buf.String())
	}
}

func TestWithItem(t *testing.T) {
	var buf bytes.Buffer
	logger := WithItem(NewWithWriter(&buf, "info", false), "baseball", "homerun")
	logger.Info().Msg("built")
	out := buf.String()
	if !strings.Contains(out, "baseball") || !strings.Contains(out, "homerun") {
		t.Errorf("item fields missing: %q", out)
	}
}
