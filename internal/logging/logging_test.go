package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestDefaultLogDir(t *testing.T) {
	dir := DefaultLogDir()
	if dir == "" {
		t.Fatal("DefaultLogDir returned empty string")
	}
	if !strings.Contains(dir, ".tangerine-watch") || filepath.Base(dir) != "logs" {
		t.Errorf("DefaultLogDir should end with .tangerine-watch/logs, got: %s", dir)
	}
}

func TestDefaultLogPath(t *testing.T) {
	if got := filepath.Base(DefaultLogPath()); got != LogFileName {
		t.Errorf("DefaultLogPath should end with %s, got: %s", LogFileName, got)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != "info" {
		t.Errorf("expected level 'info', got: %s", cfg.Level)
	}
	if cfg.MaxSizeMB != 10 {
		t.Errorf("expected MaxSizeMB 10, got: %d", cfg.MaxSizeMB)
	}
	if cfg.MaxFiles != 5 {
		t.Errorf("expected MaxFiles 5, got: %d", cfg.MaxFiles)
	}
	if !cfg.WriteToStderr {
		t.Error("expected WriteToStderr to be true")
	}
	if cfg.StderrLevel != "warn" {
		t.Errorf("expected stderr level 'warn', got: %s", cfg.StderrLevel)
	}
}

func TestDebugConfig(t *testing.T) {
	cfg := DebugConfig()

	if cfg.Level != "debug" || cfg.StderrLevel != "debug" {
		t.Errorf("expected debug levels, got: %s/%s", cfg.Level, cfg.StderrLevel)
	}
	if cfg.FilePath != DefaultLogPath() {
		t.Errorf("expected default log path, got: %s", cfg.FilePath)
	}
}

func TestSetup_WritesJSONToFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "nested", "test.log")
	cfg := Config{
		Level:    "debug",
		FilePath: logPath,
	}

	logger, cleanup, err := Setup(cfg)
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	logger.Debug("watch registered", slog.String("root", "/srv"))
	cleanup()

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}

	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(content), &record); err != nil {
		t.Fatalf("log line is not JSON: %v\n%s", err, content)
	}
	if record["msg"] != "watch registered" || record["root"] != "/srv" {
		t.Errorf("unexpected record: %v", record)
	}
}

func TestSetup_StderrLevelIsSeparate(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "test.log")
	var stderr bytes.Buffer

	logger, cleanup, err := setup(Config{
		Level:         "debug",
		FilePath:      logPath,
		WriteToStderr: true,
		StderrLevel:   "warn",
	}, &stderr)
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	logger.Info("quiet")
	logger.Warn("loud")
	cleanup()

	if strings.Contains(stderr.String(), "quiet") {
		t.Errorf("info record should not reach stderr: %s", stderr.String())
	}
	if !strings.Contains(stderr.String(), "loud") {
		t.Errorf("warn record should reach stderr: %s", stderr.String())
	}

	content, _ := os.ReadFile(logPath)
	if !strings.Contains(string(content), "quiet") || !strings.Contains(string(content), "loud") {
		t.Errorf("file should have both records: %s", content)
	}
}

func TestSetup_StderrOnly(t *testing.T) {
	var stderr bytes.Buffer

	logger, cleanup, err := setup(StderrConfig("info"), &stderr)
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	defer cleanup()
	logger.With(slog.String("root", "/srv")).Info("hello")

	if !strings.Contains(stderr.String(), "root=/srv") {
		t.Errorf("expected text record with attrs, got: %s", stderr.String())
	}
}

func TestSetup_NoOutputs(t *testing.T) {
	logger, cleanup, err := Setup(Config{Level: "info"})
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	defer cleanup()

	if logger.Enabled(t.Context(), slog.LevelError) {
		t.Error("logger without outputs should discard everything")
	}
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := LevelFromString(tt.input); got != tt.want {
				t.Errorf("LevelFromString(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFindLogFile_ExplicitPath(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "explicit.log")
	if err := os.WriteFile(logPath, []byte("{}\n"), 0o644); err != nil {
		t.Fatalf("failed to write log: %v", err)
	}

	got, err := FindLogFile(logPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != logPath {
		t.Errorf("expected %s, got %s", logPath, got)
	}
}

func TestFindLogFile_ExplicitMissing(t *testing.T) {
	if _, err := FindLogFile(filepath.Join(t.TempDir(), "missing.log")); err == nil {
		t.Error("expected error for missing explicit log file")
	}
}

func TestEnsureLogDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "watch.log")

	if err := EnsureLogDir(path); err != nil {
		t.Fatalf("EnsureLogDir failed: %v", err)
	}
	if info, err := os.Stat(filepath.Dir(path)); err != nil || !info.IsDir() {
		t.Errorf("log directory was not created: %v", err)
	}
}

func TestRotatingWriter_Rotation(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "rotate.log")
	w, err := NewRotatingWriter(logPath, 1, 3)
	if err != nil {
		t.Fatalf("failed to create writer: %v", err)
	}
	defer w.Close()
	w.maxSize = 1024

	data := bytes.Repeat([]byte("x"), 800)
	for i := 0; i < 2; i++ {
		if _, err := w.Write(data); err != nil {
			t.Fatalf("write %d failed: %v", i, err)
		}
	}

	if _, err := os.Stat(logPath); err != nil {
		t.Errorf("main log file should exist: %v", err)
	}
	if _, err := os.Stat(logPath + ".1"); err != nil {
		t.Errorf("rotated file .1 should exist: %v", err)
	}
}

func TestRotatingWriter_MaxFilesLimit(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "maxfiles.log")
	w, err := NewRotatingWriter(logPath, 1, 2)
	if err != nil {
		t.Fatalf("failed to create writer: %v", err)
	}
	defer w.Close()
	w.maxSize = 512

	data := bytes.Repeat([]byte("y"), 400)
	for i := 0; i < 6; i++ {
		if _, err := w.Write(data); err != nil {
			t.Fatalf("write %d failed: %v", i, err)
		}
	}

	for _, suffix := range []string{".1", ".2"} {
		if _, err := os.Stat(logPath + suffix); err != nil {
			t.Errorf("rotated file %s should exist: %v", suffix, err)
		}
	}
	if _, err := os.Stat(logPath + ".3"); !os.IsNotExist(err) {
		t.Error("rotated file .3 should not exist (beyond maxFiles)")
	}
}

func TestRotatingWriter_AppendsToExisting(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "append.log")
	if err := os.WriteFile(logPath, []byte("first\n"), 0o644); err != nil {
		t.Fatalf("failed to seed log: %v", err)
	}

	w, err := NewRotatingWriter(logPath, 1, 3)
	if err != nil {
		t.Fatalf("failed to create writer: %v", err)
	}
	if _, err := w.Write([]byte("second\n")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	content, _ := os.ReadFile(logPath)
	if string(content) != "first\nsecond\n" {
		t.Errorf("unexpected content: %q", content)
	}
}

func TestRotatingWriter_WriteAfterClose(t *testing.T) {
	w, err := NewRotatingWriter(filepath.Join(t.TempDir(), "closed.log"), 1, 3)
	if err != nil {
		t.Fatalf("failed to create writer: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second close should be a no-op: %v", err)
	}

	if _, err := w.Write([]byte("late\n")); err == nil {
		t.Error("expected write after close to fail")
	}
	if err := w.Sync(); err != nil {
		t.Errorf("sync after close should be a no-op: %v", err)
	}
}

func TestRotatingWriter_ConcurrentWrites(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "concurrent.log")
	w, err := NewRotatingWriter(logPath, 10, 3)
	if err != nil {
		t.Fatalf("failed to create writer: %v", err)
	}
	defer w.Close()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, _ = fmt.Fprintf(w, `{"id":%d,"iter":%d,"msg":"test"}`+"\n", id, j)
			}
		}(i)
	}
	wg.Wait()

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("log file should exist: %v", err)
	}
	if lines := strings.Count(string(content), "\n"); lines != 1000 {
		t.Errorf("expected 1000 lines, got %d", lines)
	}
}
