package log

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"INFO":    zerolog.InfoLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"bogus":   zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewFileWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "error.log")

	logger, closer, err := NewFile(path, "error")
	if err != nil {
		t.Fatalf("new file logger: %v", err)
	}
	logger.Info().Msg("filtered")
	logger.Error().Str("op", "dial").Msg("boom")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if strings.Contains(out, "filtered") {
		t.Fatalf("info line should be filtered: %s", out)
	}
	if !strings.Contains(out, `"op":"dial"`) || !strings.Contains(out, `"message":"boom"`) {
		t.Fatalf("unexpected log output: %s", out)
	}
}

func TestModuleTagsChild(t *testing.T) {
	var buf strings.Builder
	base := zerolog.New(&buf)

	Module(&base, "core").Info().Msg("hi")

	if !strings.Contains(buf.String(), `"module":"core"`) {
		t.Fatalf("module field missing: %s", buf.String())
	}
}
