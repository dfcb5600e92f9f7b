package main

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sagelink/internal/state"
)

func TestRunProjectsCatalogAndQualifiesCollisions(t *testing.T) {
	env := setupCLITestEnv(t)
	env.setCatalog(
		episodeFile(t, env, "1", "Show", 1, 1, ""),
		episodeFile(t, env, "2", "Show", 1, 1, ""),
		episodeFile(t, env, "3", "Other Show", 2, 5, "Finale"),
	)

	out, _, err := runCLI(t, []string{"run"}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out, "Created")

	season := filepath.Join(env.cfg.TVRoot(), "Show", "Season 01")
	for _, name := range []string{"Show - S01E01 - 1.mpg", "Show - S01E01 - 2.mpg", "Show - S01E01 - 1.nfo", "Show - S01E01 - 2.nfo"} {
		if _, err := os.Lstat(filepath.Join(season, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}
	if _, err := os.Lstat(filepath.Join(season, "Show - S01E01.mpg")); !os.IsNotExist(err) {
		t.Fatalf("bare name must not survive a collision, err=%v", err)
	}
	finale := filepath.Join(env.cfg.TVRoot(), "Other Show", "Season 02", "Other Show - S02E05 - Finale.mpg")
	if _, err := os.Lstat(finale); err != nil {
		t.Fatalf("expected %s: %v", finale, err)
	}

	out, _, err = runCLI(t, []string{"status", "--no-health", "--entries"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Processed entries")
	requireContains(t, out, "Contested names")
	requireContains(t, out, "Show - S01E01 - 2")
}

func TestRunRemovesEntriesDroppedFromCatalog(t *testing.T) {
	env := setupCLITestEnv(t)
	keep := episodeFile(t, env, "10", "Show", 1, 2, "Kept")
	env.setCatalog(keep, episodeFile(t, env, "11", "Show", 1, 3, "Deleted"))

	if _, _, err := runCLI(t, []string{"run"}, env.configPath); err != nil {
		t.Fatalf("first run: %v", err)
	}
	env.setCatalog(keep)
	if _, _, err := runCLI(t, []string{"run"}, env.configPath); err != nil {
		t.Fatalf("second run: %v", err)
	}

	season := filepath.Join(env.cfg.TVRoot(), "Show", "Season 01")
	if _, err := os.Lstat(filepath.Join(season, "Show - S01E03 - Deleted.mpg")); !os.IsNotExist(err) {
		t.Fatalf("expected orphan removed, err=%v", err)
	}
	if _, err := os.Lstat(filepath.Join(season, "Show - S01E02 - Kept.mpg")); err != nil {
		t.Fatalf("expected kept link: %v", err)
	}
}

func TestRunLimitFlag(t *testing.T) {
	env := setupCLITestEnv(t)
	env.setCatalog(
		episodeFile(t, env, "20", "Show", 1, 1, "One"),
		episodeFile(t, env, "21", "Show", 1, 2, "Two"),
	)

	if _, _, err := runCLI(t, []string{"run", "--limit", "1"}, env.configPath); err != nil {
		t.Fatalf("run: %v", err)
	}
	season := filepath.Join(env.cfg.TVRoot(), "Show", "Season 01")
	if _, err := os.Lstat(filepath.Join(season, "Show - S01E01 - One.mpg")); err != nil {
		t.Fatalf("expected first record projected: %v", err)
	}
	if _, err := os.Lstat(filepath.Join(season, "Show - S01E02 - Two.mpg")); !os.IsNotExist(err) {
		t.Fatalf("expected second record skipped by limit, err=%v", err)
	}
}

func TestRunFailsWhenCatalogUnavailable(t *testing.T) {
	env := setupCLITestEnv(t)
	env.failCatalog(http.StatusInternalServerError)

	if _, _, err := runCLI(t, []string{"run"}, env.configPath); err == nil {
		t.Fatal("expected error when SageX fails")
	}
	if _, err := os.Stat(env.cfg.StatePath()); err == nil {
		store, err := state.Open(context.Background(), env.cfg.StatePath())
		if err != nil {
			t.Fatalf("open state: %v", err)
		}
		defer store.Close()
		if n := len(store.Entries()); n != 0 {
			t.Fatalf("expected no entries, got %d", n)
		}
	}
}

func TestRunFailsWhileAnotherRunHoldsTheLock(t *testing.T) {
	env := setupCLITestEnv(t)
	env.setCatalog()
	if err := os.MkdirAll(env.cfg.Paths.StateDir, 0o755); err != nil {
		t.Fatal(err)
	}
	store, err := state.Open(context.Background(), env.cfg.StatePath())
	if err != nil {
		t.Fatalf("open state: %v", err)
	}
	defer store.Close()

	_, _, err = runCLI(t, []string{"run"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "another sagelink run") {
		t.Fatalf("expected lock error, got %v", err)
	}

	out, _, err := runCLI(t, []string{"status", "--no-health"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "locked by an active run")
}

func TestStatusHealthChecks(t *testing.T) {
	env := setupCLITestEnv(t)
	env.setCatalog()

	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Target root:")
	requireContains(t, out, "SageX:")
	requireContains(t, out, "[OK] Reachable")
}

func TestTestNotifyDisabled(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"test-notify"}, env.configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "Notifications disabled")
}

func TestLogsFiltersByRun(t *testing.T) {
	env := setupCLITestEnv(t)
	logPath := filepath.Join(env.cfg.Paths.LogDir, "sagelink.log")
	if err := os.MkdirAll(env.cfg.Paths.LogDir, 0o755); err != nil {
		t.Fatal(err)
	}
	content := "2026-01-01T00:00:00Z INFO reconcile: started run_id=abc\n" +
		"2026-01-01T00:00:01Z INFO reconcile: started run_id=def\n"
	if err := os.WriteFile(logPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	out, _, err := runCLI(t, []string{"logs", "--run", "def"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "run_id=def")
	if strings.Contains(out, "run_id=abc") {
		t.Fatalf("unexpected line from other run:\n%s", out)
	}
}
