package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		config    *Config
		expectErr bool
	}{
		{
			name:   "default config",
			config: DefaultConfig(),
		},
		{
			name:   "json debug",
			config: &Config{Level: DebugLevel, Format: JSONFormat},
		},
		{
			name:      "bad level",
			config:    &Config{Level: "loud", Format: TextFormat},
			expectErr: true,
		},
		{
			name:      "bad format",
			config:    &Config{Level: InfoLevel, Format: "yaml"},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.expectErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.expectErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewLogger(&Config{Level: InfoLevel, Format: JSONFormat, Output: &buf})
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	log.WithFields(Fields{"file": "statement.csv", "valid": 3}).Info("Parsed bank statement")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["msg"] != "Parsed bank statement" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["file"] != "statement.csv" {
		t.Errorf("file field = %v", entry["file"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewLogger(&Config{Level: InfoLevel, Format: TextFormat, Output: &buf})
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	log.Debug("should be filtered")
	if buf.Len() != 0 {
		t.Errorf("debug output leaked at info level: %q", buf.String())
	}

	log.Info("should appear")
	if buf.Len() == 0 {
		t.Error("info output missing at info level")
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewLogger(&Config{Level: InfoLevel, Format: TextFormat, Output: &buf})
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	log.WithComponent("matching_engine").Info("pass complete")

	if !strings.Contains(buf.String(), "component=matching_engine") {
		t.Errorf("component field missing from output: %q", buf.String())
	}
}

func TestGlobalLogger(t *testing.T) {
	if GetGlobalLogger() == nil {
		t.Fatal("global logger should be initialized")
	}
	if WithComponent("test") == nil {
		t.Fatal("WithComponent on the global logger returned nil")
	}
}
