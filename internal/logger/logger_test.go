package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	log := New(LevelNormal, &buf)

	log.Debug("hidden %d", 1)
	log.Info("shown %d", 2)
	if strings.Contains(buf.String(), "hidden") {
		t.Fatal("debug output leaked at normal level")
	}
	if !strings.Contains(buf.String(), "[INF]") || !strings.Contains(buf.String(), "shown 2") {
		t.Fatalf("missing info line: %q", buf.String())
	}

	buf.Reset()
	log.SetLevel(LevelOff)
	log.Error("nope")
	if buf.Len() != 0 {
		t.Fatalf("expected no output when off, got %q", buf.String())
	}
}

func TestNamedSharesLevel(t *testing.T) {
	var buf bytes.Buffer
	root := New(LevelNormal, &buf)
	child := root.Named("cache")

	child.Warn("expired %d entries", 3)
	if !strings.Contains(buf.String(), "cache: expired 3 entries") {
		t.Fatalf("missing prefix: %q", buf.String())
	}

	buf.Reset()
	root.SetLevel(LevelVerbose)
	child.Debug("sweep")
	if !strings.Contains(buf.String(), "[DBG]") {
		t.Fatalf("child did not follow parent level: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
		ok   bool
	}{
		{"off", LevelOff, true},
		{"QUIET", LevelOff, true},
		{"", LevelNormal, true},
		{"debug", LevelVerbose, true},
		{"verbose", LevelVerbose, true},
		{"loud", LevelNormal, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseLevel(tt.in)
			if got != tt.want || ok != tt.ok {
				t.Fatalf("ParseLevel(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}
