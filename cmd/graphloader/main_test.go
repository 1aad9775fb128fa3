package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func setTestEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GRAPHLOADER_CONFIG", "")
	t.Setenv("LOG_MODE", "development")
	t.Setenv("RUNLOG_DSN", "")
	t.Setenv("RUNLOG_SQLITE_PATH", "")
	t.Setenv("RUNLOG_TEXT_PATH", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("METRICS_ADDR", "")
	t.Setenv("OTEL_ENABLED", "false")
	t.Setenv("NEO4J_TIMEOUT_SECONDS", "2")
}

func TestRun_DryRunImportsDirectory(t *testing.T) {
	setTestEnv(t)
	dir := t.TempDir()
	body := `[{"start_node":"低温","relationship":"抑制","end_node":"完全氧化"}]`
	if err := os.WriteFile(filepath.Join(dir, "doc1.json"), []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	statusLog := filepath.Join(dir, defaultStatusLog)

	if code := run(dir, false, true, statusLog); code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	raw, err := os.ReadFile(statusLog)
	if err != nil {
		t.Fatalf("read status log: %v", err)
	}
	if strings.TrimSpace(string(raw)) != "doc1.json: all imported (1 records)" {
		t.Fatalf("unexpected status log %q", raw)
	}
}

func TestRun_MissingDirectoryExitsOne(t *testing.T) {
	setTestEnv(t)
	dir := filepath.Join(t.TempDir(), "missing")
	if code := run(dir, false, true, filepath.Join(t.TempDir(), defaultStatusLog)); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
}

func TestRun_UnreachableStoreExitsTwo(t *testing.T) {
	setTestEnv(t)
	t.Setenv("NEO4J_URI", "bolt://127.0.0.1:1")
	dir := t.TempDir()
	if code := run(dir, false, false, filepath.Join(dir, defaultStatusLog)); code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
}
