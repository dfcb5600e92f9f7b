package logging_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"sagelink/internal/config"
	"sagelink/internal/logging"
	"sagelink/internal/services"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Logging.Verbosity = 1

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello from test")
	logger.Debug("hidden at informational verbosity")

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, logging.LogFileName))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "hello from test") {
		t.Fatalf("expected info line in log file, got %q", content)
	}
	if strings.Contains(string(content), "hidden at informational verbosity") {
		t.Fatalf("expected debug line to be filtered, got %q", content)
	}
	if strings.Contains(string(content), "\033[") {
		t.Fatalf("expected no colour codes in log file, got %q", content)
	}
}

func TestLevelForVerbosity(t *testing.T) {
	cases := map[int]slog.Level{
		-1: logging.LevelCritical,
		0:  logging.LevelCritical,
		1:  slog.LevelInfo,
		2:  slog.LevelDebug,
		5:  slog.LevelDebug,
	}
	for verbosity, want := range cases {
		if got := logging.LevelForVerbosity(verbosity); got != want {
			t.Fatalf("LevelForVerbosity(%d) = %v, want %v", verbosity, got, want)
		}
	}
}

func TestCriticalVerbosityDropsWarnings(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "critical.log")
	logger, err := logging.New(logging.Options{
		Level:       logging.LevelForVerbosity(0),
		Format:      "console",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Warn("a warning")
	logger.Error("a record error")
	logging.CriticalWithContext(logger, "state flush failed", "state_flush_failed")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(content), "a warning") || strings.Contains(string(content), "a record error") {
		t.Fatalf("expected warning and per-record error to be dropped, got %q", content)
	}
	if !strings.Contains(string(content), "CRITICAL state flush failed") {
		t.Fatalf("expected critical line, got %q", content)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-debug.log")
	logger, err := logging.New(logging.Options{
		Level:       slog.LevelDebug,
		Format:      "console",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("message with caller")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "logger_test.go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
}

func TestConsoleLoggerRendersComponentAndContext(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	base, err := logging.New(logging.Options{
		Level:       slog.LevelInfo,
		Format:      "console",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithRunID(context.Background(), "run-1")
	ctx = services.WithRecordID(ctx, "42")
	logger := logging.WithContext(ctx, logging.NewComponentLogger(base, "reconcile"))
	logger.Info("record projected", logging.String("filename", "Show - S01E01"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(content)
	for _, fragment := range []string{"reconcile: record projected", "run_id=run-1", "record_id=42", `filename="Show - S01E01"`} {
		if !strings.Contains(line, fragment) {
			t.Fatalf("expected %q in %q", fragment, line)
		}
	}
}

func TestJSONLoggerFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{
		Level:       slog.LevelInfo,
		Format:      "json",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("structured", logging.Int("count", 3))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(content, &payload); err != nil {
		t.Fatalf("decode json log: %v (%q)", err, content)
	}
	if payload["level"] != "info" || payload["msg"] != "structured" {
		t.Fatalf("unexpected payload: %v", payload)
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("expected ts field, got %v", payload)
	}
	if payload["count"] != float64(3) {
		t.Fatalf("unexpected count: %v", payload["count"])
	}
}

func TestJSONLoggerNamesCriticalLevel(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "critical.json")
	logger, err := logging.New(logging.Options{
		Level:       logging.LevelForVerbosity(0),
		Format:      "json",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.CriticalWithContext(logger, "catalog fetch failed", "catalog_fetch_failed")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(content, &payload); err != nil {
		t.Fatalf("decode json log: %v (%q)", err, content)
	}
	if payload["level"] != "critical" || payload["event_type"] != "catalog_fetch_failed" {
		t.Fatalf("unexpected payload: %v", payload)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestCleanupOldLogs(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "old.log")
	fresh := filepath.Join(dir, "fresh.log")
	keep := filepath.Join(dir, "sagelink.log")
	for _, path := range []string{old, fresh, keep} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	stale := time.Now().AddDate(0, 0, -10)
	for _, path := range []string{old, keep} {
		if err := os.Chtimes(path, stale, stale); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	removed := logging.CleanupOldLogs(logging.NewNop(), 5, logging.RetentionTarget{Dir: dir, Pattern: "*.log", Exclude: []string{keep}})
	if removed != 1 {
		t.Fatalf("expected one file pruned, got %d", removed)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatalf("expected old log removed, err=%v", err)
	}
	for _, path := range []string{fresh, keep} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s to remain: %v", path, err)
		}
	}
}
