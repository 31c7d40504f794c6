package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewDefaults(t *testing.T) {
	log, err := New(Config{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if !log.Core().Enabled(0) {
		t.Error("info should be enabled by default")
	}
	if log.Core().Enabled(-1) {
		t.Error("debug should be disabled by default")
	}
}

func TestNewRejectsBadInput(t *testing.T) {
	if _, err := New(Config{Level: "loud"}); err == nil {
		t.Error("expected error for unknown level")
	}
	if _, err := New(Config{Format: "xml"}); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestJSONOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.json")
	log, err := New(Config{Level: "DEBUG", Format: "json", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	log.Debug("frame window")
	log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	if !strings.Contains(out, `"msg":"frame window"`) || !strings.Contains(out, `"logger":"herofield"`) {
		t.Errorf("unexpected log output %s", out)
	}
}
