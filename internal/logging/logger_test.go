package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("debug", "json", &buf)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Debug().Str("provider", "groq").Msg("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected JSON output, got %q: %v", buf.String(), err)
	}
	if entry["service"] != "itemtranslate" || entry["provider"] != "groq" || entry["message"] != "hello" {
		t.Errorf("Unexpected entry %v", entry)
	}
}

func TestNewLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("WARN", "", &buf)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info().Msg("hidden")
	if buf.Len() != 0 {
		t.Errorf("Info should be filtered at warn level, got %q", buf.String())
	}

	logger.Warn().Msg("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("Expected warning in output, got %q", buf.String())
	}
}

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("", "console", &buf)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info().Msg("readable")
	if strings.HasPrefix(buf.String(), "{") {
		t.Errorf("Console format should not be JSON, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "readable") {
		t.Errorf("Expected message in output, got %q", buf.String())
	}
}

func TestNewInvalidLevel(t *testing.T) {
	if _, err := New("loud", "json", nil); err == nil {
		t.Error("Expected error for invalid level")
	}
}
