package shared

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

func TestLogger(t *testing.T) {
	t.Run("NewLogger writes to the given writer", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		logger.Info("hello", "key", "value")

		if !strings.Contains(buf.String(), "hello") || !strings.Contains(buf.String(), "key=value") {
			t.Errorf("unexpected log output: %q", buf.String())
		}
	})

	t.Run("RedirectToFile creates parent directories", func(t *testing.T) {
		var buf bytes.Buffer
		path := filepath.Join(t.TempDir(), "nested", "raff.log")
		logger := NewLogger(&buf)
		f, err := RedirectToFile(logger, path)
		if err != nil {
			t.Fatalf("failed to redirect logger: %v", err)
		}
		defer f.Close()
		WithLogger(logger, "component", "tui").Info("written")

		if buf.Len() != 0 {
			t.Errorf("expected nothing on the original writer, got %q", buf.String())
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read log file: %v", err)
		}
		if !strings.Contains(string(data), "written") {
			t.Errorf("expected log file to contain entry, got %q", string(data))
		}
	})

	t.Run("ApplyLogLevel", func(t *testing.T) {
		tc := []struct {
			name    string
			level   string
			want    log.Level
			wantErr bool
		}{
			{name: "debug", level: "debug", want: log.DebugLevel},
			{name: "warn", level: "warn", want: log.WarnLevel},
			{name: "empty keeps current", level: "", want: log.InfoLevel},
			{name: "unknown", level: "loud", want: log.InfoLevel, wantErr: true},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				logger := NewLogger(&bytes.Buffer{})
				err := ApplyLogLevel(logger, tt.level)
				if tt.wantErr {
					if !errors.Is(err, ErrInvalidConfig) {
						t.Errorf("expected ErrInvalidConfig, got %v", err)
					}
				} else if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				if logger.GetLevel() != tt.want {
					t.Errorf("expected level %v, got %v", tt.want, logger.GetLevel())
				}
			})
		}
	})
}

func TestGenerateID(t *testing.T) {
	id := GenerateID()
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("GenerateID() returned invalid UUID %q: %v", id, err)
	}
	if GenerateID() == id {
		t.Error("expected distinct IDs")
	}
}

func TestMarshalJSON(t *testing.T) {
	v := map[string]int{"count": 2}

	compact, err := MarshalJSON(v, false)
	if err != nil {
		t.Fatalf("MarshalJSON failed: %v", err)
	}
	if string(compact) != `{"count":2}` {
		t.Errorf("unexpected compact output %s", compact)
	}

	pretty, err := MarshalJSON(v, true)
	if err != nil {
		t.Fatalf("MarshalJSON failed: %v", err)
	}
	if string(pretty) != "{\n  \"count\": 2\n}" {
		t.Errorf("unexpected pretty output %s", pretty)
	}
}
