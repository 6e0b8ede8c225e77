package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestSetup_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := Setup(Config{Level: "info", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	logger.Info("hello", "component", "test")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "hello" {
		t.Errorf("expected msg hello, got %v", entry["msg"])
	}
	if entry["component"] != "test" {
		t.Errorf("expected component attr, got %v", entry["component"])
	}
}

func TestSetup_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := Setup(Config{Level: "warn", Format: "text", Writer: &buf})
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	logger.Debug("quiet")
	logger.Info("also quiet")
	logger.Warn("loud")

	out := buf.String()
	if strings.Contains(out, "quiet") {
		t.Errorf("expected debug/info suppressed, got %q", out)
	}
	if !strings.Contains(out, "loud") {
		t.Errorf("expected warning emitted, got %q", out)
	}
}

func TestSetup_InstallsDefault(t *testing.T) {
	var buf bytes.Buffer
	if _, err := Setup(Config{Level: "info", Format: "text", Writer: &buf}); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	slog.Default().Info("via default")
	if !strings.Contains(buf.String(), "via default") {
		t.Error("expected Setup to install the default logger")
	}
}

func TestSetup_InvalidInputs(t *testing.T) {
	if _, err := Setup(Config{Level: "loud"}); err == nil {
		t.Error("expected error for unknown level")
	}
	if _, err := Setup(Config{Level: "info", Format: "xml"}); err == nil {
		t.Error("expected error for unknown format")
	}
}
