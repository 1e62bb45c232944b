package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevelGating(t *testing.T) {
	var buf bytes.Buffer
	l := New(WarnLevel, NewWriterAppender(&buf))

	l.Info().Msg("should not appear")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be gated out, got %q", buf.String())
	}

	l.Warn().Str("tg", "100").Msg("talker changed")
	out := buf.String()
	if !strings.Contains(out, "tg=100") || !strings.Contains(out, "talker changed") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   DebugLevel,
		"WARN":    WarnLevel,
		"Warning": WarnLevel,
		"bogus":   InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFatalInvokesHook(t *testing.T) {
	var buf bytes.Buffer
	l := New(TraceLevel, NewWriterAppender(&buf))
	called := false
	l.SetOnFatal(func() { called = true })
	l.Fatal().Msg("boom")
	if !called {
		t.Fatal("expected fatal hook to be invoked")
	}
}
