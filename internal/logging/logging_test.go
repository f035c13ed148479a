package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"
)

func TestNewWritesJSONEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "journey.log")
	logger, closer, err := New(path, "debug")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.WithFields(log.Fields{"op": "items.move", "item_id": "i1"}).Warn("move failed")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(b))), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v\n%s", err, b)
	}
	if entry["op"] != "items.move" || entry["msg"] != "move failed" || entry["level"] != "warning" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestParseLevelFallsBackToInfo(t *testing.T) {
	if got := ParseLevel("loud"); got != log.InfoLevel {
		t.Fatalf("ParseLevel(loud) = %v, want info", got)
	}
	if got := ParseLevel(" warn "); got != log.WarnLevel {
		t.Fatalf("ParseLevel(warn) = %v, want warn", got)
	}
}
