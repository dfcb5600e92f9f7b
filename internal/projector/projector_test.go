package projector

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"sagelink/internal/catalog"
	"sagelink/internal/fileutil"
	"sagelink/internal/layout"
	"sagelink/internal/services"
	"sagelink/internal/state"
	"sagelink/internal/testsupport"
)

type fixture struct {
	root      string
	resolver  layout.Resolver
	projector *Projector
	source    string
	modTime   time.Time
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	base := t.TempDir()
	root := filepath.Join(base, "library")
	resolver := layout.Resolver{Root: root, MoviesDir: "Movies", TVDir: "TV Shows"}
	source := filepath.Join(base, "recordings", "Show-1.mkv")
	modTime := testsupport.WriteMedia(t, source, time.Time{})
	p := New([]string{filepath.Join(root, "Movies"), filepath.Join(root, "TV Shows")}, nil)
	return fixture{root: root, resolver: resolver, projector: p, source: source, modTime: modTime}
}

func (f fixture) episodeRequest(t *testing.T, filename string) Request {
	t.Helper()
	rec := catalog.Record{ID: "1", Kind: catalog.KindEpisode, Title: "Show", Season: 1, Episode: 1, SourcePath: f.source}
	target, err := f.resolver.Resolve(rec)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if filename == "" {
		filename = target.BareName
	}
	return Request{Record: rec, Target: target, Filename: filename, Source: f.source}
}

func TestProjectCreatesPair(t *testing.T) {
	f := newFixture(t)
	req := f.episodeRequest(t, "")

	artifact, err := f.projector.Project(context.Background(), req)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	wantLink := filepath.Join(f.root, "TV Shows", "Show", "Season 01", "Show - S01E01.mkv")
	if artifact.LinkPath != wantLink {
		t.Fatalf("link = %q, want %q", artifact.LinkPath, wantLink)
	}
	target, err := os.Readlink(artifact.LinkPath)
	if err != nil {
		t.Fatalf("Readlink: %v", err)
	}
	if target != f.source {
		t.Fatalf("link target = %q, want %q", target, f.source)
	}
	data, err := os.ReadFile(artifact.DescriptorPath)
	if err != nil {
		t.Fatalf("read descriptor: %v", err)
	}
	if len(data) == 0 || filepath.Ext(artifact.DescriptorPath) != ".nfo" {
		t.Fatalf("unexpected descriptor %q", artifact.DescriptorPath)
	}
}

func TestProjectIsIdempotentForSameTarget(t *testing.T) {
	f := newFixture(t)
	req := f.episodeRequest(t, "")
	ctx := context.Background()

	first, err := f.projector.Project(ctx, req)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	second, err := f.projector.Project(ctx, req)
	if err != nil {
		t.Fatalf("second Project: %v", err)
	}
	if first != second {
		t.Fatalf("artifact changed: %#v vs %#v", first, second)
	}
}

func TestProjectReplacesRetargetedLink(t *testing.T) {
	f := newFixture(t)
	req := f.episodeRequest(t, "")
	ctx := context.Background()
	artifact, err := f.projector.Project(ctx, req)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}

	other := filepath.Join(filepath.Dir(f.source), "Show-1-copy.mkv")
	testsupport.WriteMedia(t, other, time.Time{})
	req.Source = other
	if _, err := f.projector.Project(ctx, req); err != nil {
		t.Fatalf("Project retarget: %v", err)
	}
	target, _ := os.Readlink(artifact.LinkPath)
	if target != other {
		t.Fatalf("expected link retargeted to %q, got %q", other, target)
	}
	entries, _ := os.ReadDir(filepath.Dir(artifact.LinkPath))
	if len(entries) != 2 {
		t.Fatalf("expected exactly the pair in the season dir, got %d entries", len(entries))
	}
}

func TestProjectRemovesSupersededPaths(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	old, err := f.projector.Project(ctx, f.episodeRequest(t, ""))
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	prev := state.Entry{RecordID: "1", Filename: "Show - S01E01", LinkPath: old.LinkPath, DescriptorPath: old.DescriptorPath}

	req := f.episodeRequest(t, "Show - S01E01 - 1")
	req.Previous = &prev
	current, err := f.projector.Project(ctx, req)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if fileutil.Exists(old.LinkPath) || fileutil.Exists(old.DescriptorPath) {
		t.Fatal("expected superseded pair removed")
	}
	if !fileutil.IsSymlink(current.LinkPath) || !fileutil.Exists(current.DescriptorPath) {
		t.Fatal("expected new pair present")
	}
}

func TestProjectRefusesToClobberRegularFile(t *testing.T) {
	f := newFixture(t)
	req := f.episodeRequest(t, "")
	linkPath, _ := Paths(req.Target.Dir, req.Filename, req.Source)
	testsupport.WriteFile(t, linkPath, 10)

	_, err := f.projector.Project(context.Background(), req)
	if !errors.Is(err, services.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if fileutil.IsSymlink(linkPath) {
		t.Fatal("regular file must not be replaced")
	}
}

func TestProjectRollsBackOnDescriptorFailure(t *testing.T) {
	f := newFixture(t)
	f.projector.writeFile = func(string, []byte, os.FileMode) error {
		return errors.New("disk full")
	}
	req := f.episodeRequest(t, "")

	if _, err := f.projector.Project(context.Background(), req); err == nil {
		t.Fatal("expected descriptor error")
	}
	linkPath, descPath := Paths(req.Target.Dir, req.Filename, req.Source)
	if fileutil.Exists(linkPath) || fileutil.Exists(descPath) {
		t.Fatal("expected no half-written pair")
	}
}

func TestProjectMapsPermissionErrors(t *testing.T) {
	f := newFixture(t)
	f.projector.symlink = func(string, string) error {
		return &os.LinkError{Op: "symlink", Err: fs.ErrPermission}
	}

	_, err := f.projector.Project(context.Background(), f.episodeRequest(t, ""))
	if !errors.Is(err, services.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestUnchanged(t *testing.T) {
	f := newFixture(t)
	artifact, err := f.projector.Project(context.Background(), f.episodeRequest(t, ""))
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	entry := state.Entry{
		RecordID:       "1",
		SourcePath:     f.source,
		ModTime:        f.modTime,
		LinkPath:       artifact.LinkPath,
		DescriptorPath: artifact.DescriptorPath,
	}
	if !f.projector.Unchanged(entry, f.source, f.modTime) {
		t.Fatal("expected unchanged")
	}
	if f.projector.Unchanged(entry, f.source, f.modTime.Add(time.Second)) {
		t.Fatal("mod time change must be detected")
	}
	if f.projector.Unchanged(entry, f.source+".other", f.modTime) {
		t.Fatal("path change must be detected")
	}
	if err := os.Remove(artifact.LinkPath); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if f.projector.Unchanged(entry, f.source, f.modTime) {
		t.Fatal("missing link must be detected")
	}
}

func TestRemovePrunesEmptyDirectories(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.episodeRequest(t, "")
	artifact, err := f.projector.Project(ctx, req)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if _, err := f.projector.EnsureSeriesDescriptor(ctx, req.Target.ShowDir, req.Record); err != nil {
		t.Fatalf("EnsureSeriesDescriptor: %v", err)
	}

	if err := f.projector.Remove(ctx, artifact); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if fileutil.Exists(req.Target.ShowDir) {
		t.Fatal("expected show directory pruned")
	}
	if !fileutil.Exists(filepath.Join(f.root, "TV Shows")) {
		t.Fatal("media root must be kept")
	}
	if !fileutil.Exists(f.source) {
		t.Fatal("source media must never be touched")
	}

	// Removing again is not an error.
	if err := f.projector.Remove(ctx, artifact); err != nil {
		t.Fatalf("second Remove: %v", err)
	}
}

func TestRemoveRefusesRegularFileAtLinkPath(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(f.root, "Movies", "Movie", "Movie.mkv")
	testsupport.WriteFile(t, path, 10)

	err := f.projector.Remove(context.Background(), Artifact{LinkPath: path})
	if !errors.Is(err, services.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if !fileutil.Exists(path) {
		t.Fatal("regular file must not be deleted")
	}
}

func TestEnsureSeriesDescriptorWritesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	showDir := filepath.Join(f.root, "TV Shows", "Show")
	rec := catalog.Record{ID: "1", Kind: catalog.KindEpisode, Title: "Show", Year: 2020}

	wrote, err := f.projector.EnsureSeriesDescriptor(ctx, showDir, rec)
	if err != nil || !wrote {
		t.Fatalf("expected first write, got %v, %v", wrote, err)
	}
	wrote, err = f.projector.EnsureSeriesDescriptor(ctx, showDir, rec)
	if err != nil || wrote {
		t.Fatalf("expected no second write, got %v, %v", wrote, err)
	}
}
