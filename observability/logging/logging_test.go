package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetupRenamesKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("nftmarketd", "test", Options{Output: &buf, Level: slog.LevelDebug})
	logger.Debug("call committed", slog.String("module", "marketplace"))

	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	for _, key := range []string{"timestamp", "severity", "message", "service", "env", "module"} {
		if _, ok := line[key]; !ok {
			t.Fatalf("missing %q in %v", key, line)
		}
	}
	if line["severity"] != "DEBUG" || line["service"] != "nftmarketd" {
		t.Fatalf("unexpected line %v", line)
	}
}

func TestSetupFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("nftmarketd", "", Options{Output: &buf, Level: slog.LevelWarn})
	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info line should be filtered: %q", buf.String())
	}
}

func TestSetupWritesRotatedFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "node.log")
	logger := Setup("nftmarketd", "", Options{Output: &buf, File: path, MaxSizeMB: 1})
	logger.Info("to file")

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(raw), "to file") {
		t.Fatalf("log file missing line: %q", raw)
	}
}

func TestMaskField(t *testing.T) {
	if attr := MaskField("jwt", "secret-token"); attr.Value.String() != RedactedValue {
		t.Fatalf("expected redaction, got %v", attr)
	}
	if attr := MaskField("caller", "0xabc"); attr.Value.String() != "0xabc" {
		t.Fatalf("allowlisted key was redacted")
	}
	if MaskValue("  ") != "  " {
		t.Fatalf("blank values must pass through")
	}
}
