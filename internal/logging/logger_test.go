package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, log.WarnLevel)

	l.Info("hidden")
	l.Warn("shown", "scope", "Apps")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line written at warn level: %s", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "scope=Apps") {
		t.Errorf("warn line missing: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("debug") != log.DebugLevel {
		t.Error("debug not parsed")
	}
	if ParseLevel("nonsense") != log.InfoLevel {
		t.Error("unknown level should fall back to info")
	}
}

func TestInitWritesDatedFile(t *testing.T) {
	dir := t.TempDir()
	if err := Init(dir, log.DebugLevel); err != nil {
		t.Fatalf("Init: %v", err)
	}
	Info("hello", "k", "v")
	WithPrefix("coord").Warn("prefixed")
	Close()
	Logger = nil

	matches, err := filepath.Glob(filepath.Join(dir, "storesearch-*.log"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected one log file, got %v (%v)", matches, err)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	for _, want := range []string{"storesearch started", "hello", "coord", "prefixed", "shutting down"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}
}

func TestHelpersBeforeInit(t *testing.T) {
	Logger = nil
	Info("dropped")
	Error("dropped")
	if WithPrefix("x") == nil {
		t.Error("WithPrefix should never return nil")
	}
}
