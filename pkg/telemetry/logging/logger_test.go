package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"mercator-hq/minerva/pkg/config"
)

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.LoggingConfig{Level: "info", Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("validation completed", "layer", "team", "violations", 2)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if entry["msg"] != "validation completed" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["layer"] != "team" {
		t.Errorf("layer = %v", entry["layer"])
	}
}

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.LoggingConfig{Level: "debug", Format: "text"}, &buf)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Debug("drift check", "score", 0.5)
	if !strings.Contains(buf.String(), "drift check") {
		t.Errorf("output missing message: %s", buf.String())
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.LoggingConfig{Level: "error", Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("suppressed")
	if buf.Len() != 0 {
		t.Errorf("info logged at error level: %s", buf.String())
	}

	logger.Error("kept")
	if buf.Len() == 0 {
		t.Error("error log was suppressed")
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	if _, err := New(config.LoggingConfig{Level: "verbose"}, nil); err == nil {
		t.Error("expected error for unknown level")
	}
	if _, err := New(config.LoggingConfig{Format: "xml"}, nil); err == nil {
		t.Error("expected error for unknown format")
	}
}
