package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestInitializeSplitsErrorFile(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "app.log")
	errorFile := filepath.Join(dir, "error.log")

	previous := log
	t.Cleanup(func() { log = previous })

	if err := Initialize(Configuration{LogFile: logFile, ErrorFile: errorFile, Level: "info"}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	Debug("hidden")
	Info("visible", zap.String("raffle", "abc"))
	Error("broken")
	Sync()

	all, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(all)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines in log file, got %d: %q", len(lines), all)
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["message"] != "visible" || entry["raffle"] != "abc" {
		t.Errorf("unexpected entry: %v", entry)
	}

	errorsOnly, err := os.ReadFile(errorFile)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(errorsOnly), "broken") || strings.Contains(string(errorsOnly), "visible") {
		t.Errorf("error file should hold only errors, got %q", errorsOnly)
	}
}

func TestInitializeBadPath(t *testing.T) {
	previous := log
	t.Cleanup(func() { log = previous })

	err := Initialize(Configuration{LogFile: filepath.Join(t.TempDir(), "missing", "app.log")})
	if err == nil {
		t.Fatal("expected error for unwritable log file")
	}
}
