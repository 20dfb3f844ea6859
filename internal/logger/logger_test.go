package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug": zerolog.DebugLevel,
		"warn":  zerolog.WarnLevel,
		"error": zerolog.ErrorLevel,
		"":      zerolog.InfoLevel,
		"loud":  zerolog.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestNew_Level(t *testing.T) {
	log := New("warn", false)
	if log.GetLevel() != zerolog.WarnLevel {
		t.Fatalf("expected warn level, got %s", log.GetLevel())
	}
}

func TestNewWithWriter_JSON(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter(buf)
	log.Info().Str("idempotency_key", "k1").Msg("transfer completed")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected a JSON line, got %q: %v", buf.String(), err)
	}
	if line["message"] != "transfer completed" || line["idempotency_key"] != "k1" || line["service"] != "globalpay" {
		t.Errorf("unexpected fields: %v", line)
	}
}

func TestFromContext(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := WithContext(context.Background(), NewWithWriter(buf))

	FromContext(ctx).Info().Msg("hello")
	if !strings.Contains(buf.String(), "hello") {
		t.Fatalf("expected output from context logger, got %q", buf.String())
	}
}

func TestFromContext_Missing(t *testing.T) {
	if FromContext(context.Background()).GetLevel() != zerolog.Disabled {
		t.Fatal("expected a disabled logger when none is stored")
	}
}

func TestFromContextOr(t *testing.T) {
	buf := &bytes.Buffer{}
	fallback := NewWithWriter(buf)

	log := FromContextOr(context.Background(), fallback)
	log.Info().Msg("from fallback")
	if !strings.Contains(buf.String(), "from fallback") {
		t.Fatalf("expected the fallback logger to be used, got %q", buf.String())
	}

	stored := &bytes.Buffer{}
	log = FromContextOr(WithContext(context.Background(), NewWithWriter(stored)), fallback)
	log.Info().Msg("from context")
	if !strings.Contains(stored.String(), "from context") || strings.Contains(buf.String(), "from context") {
		t.Fatalf("expected the context logger to win, got %q / %q", stored.String(), buf.String())
	}
}

func TestWithFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := WithFields(NewWithWriter(buf), map[string]any{"account_id": "a1", "attempt": 2})
	log.Info().Msg("x")

	out := buf.String()
	if !strings.Contains(out, `"account_id":"a1"`) || !strings.Contains(out, `"attempt":2`) {
		t.Errorf("missing fields in %q", out)
	}
}
