package main

import (
	"bytes"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"sagelink/internal/config"
	"sagelink/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	recordings string

	mu      sync.Mutex
	catalog []string
	status  int
}

// setCatalog replaces the media files the fake SageX server returns.
func (e *cliTestEnv) setCatalog(mediaFiles ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.catalog = mediaFiles
}

func (e *cliTestEnv) failCatalog(status int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status = status
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	homeDir := filepath.Join(testsupport.BaseDir(cfg), "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("SAGEX_PASSWORD", "")
	t.Setenv("JELLYFIN_API_KEY", "")

	env := &cliTestEnv{cfg: cfg, recordings: testsupport.RecordingsDir(cfg)}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.mu.Lock()
		defer env.mu.Unlock()
		if env.status != 0 {
			w.WriteHeader(env.status)
			return
		}
		start, _ := strconv.Atoi(r.URL.Query().Get("start"))
		size, _ := strconv.Atoi(r.URL.Query().Get("size"))
		end := min(start+size, len(env.catalog))
		var b strings.Builder
		b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><Result>`)
		if start < end {
			for _, mf := range env.catalog[start:end] {
				b.WriteString(mf)
			}
		}
		b.WriteString(`</Result>`)
		fmt.Fprint(w, b.String())
	}))
	t.Cleanup(server.Close)

	u, err := url.Parse(server.URL)
	if err != nil {
		t.Fatalf("parse server url: %v", err)
	}
	host, portText, err := net.SplitHostPort(u.Host)
	if err != nil {
		t.Fatalf("split host: %v", err)
	}
	port, _ := strconv.Atoi(portText)

	env.configPath = filepath.Join(homeDir, ".config", "sagelink", "config.toml")
	if err := os.MkdirAll(filepath.Dir(env.configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, env.configPath, cfg, host, port)
	return env
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config, host string, port int) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
target_root = %q
state_dir = %q
log_dir = %q

[sagex]
host = %q
port = %d
user = "sage"
password = "frey"
page_size = 2

[logging]
verbosity = 0
`, cfg.Paths.TargetRoot, cfg.Paths.StateDir, cfg.Paths.LogDir, host, port)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// episodeFile returns a GetMediaFiles entry for an episode whose recording
// exists on disk.
func episodeFile(t *testing.T, env *cliTestEnv, id, show string, season, episode int, title string) string {
	t.Helper()
	source := filepath.Join(env.recordings, fmt.Sprintf("%s-%s.mpg", strings.ReplaceAll(show, " ", ""), id))
	testsupport.WriteMedia(t, source, time.Time{})
	return fmt.Sprintf(`<MediaFile><MediaFileID>%s</MediaFileID><SegmentFiles><File>%s</File></SegmentFiles>`+
		`<Airing><Show><IsMovie>false</IsMovie><ShowTitle>%s</ShowTitle><ShowEpisode>%s</ShowEpisode>`+
		`<ShowSeasonNumber>%d</ShowSeasonNumber><ShowEpisodeNumber>%d</ShowEpisodeNumber></Show></Airing></MediaFile>`,
		id, source, show, title, season, episode)
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
