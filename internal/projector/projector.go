package projector

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sagelink/internal/catalog"
	"sagelink/internal/fileutil"
	"sagelink/internal/layout"
	"sagelink/internal/logging"
	"sagelink/internal/nfo"
	"sagelink/internal/services"
	"sagelink/internal/state"
)

const (
	descriptorExt  = ".nfo"
	descriptorPerm = 0o644
)

// Artifact is the symlink plus descriptor pair representing one record.
type Artifact struct {
	LinkPath       string
	DescriptorPath string
	Target         string
}

// ArtifactFor returns the artifact an entry points at.
func ArtifactFor(entry state.Entry) Artifact {
	return Artifact{LinkPath: entry.LinkPath, DescriptorPath: entry.DescriptorPath, Target: entry.SourcePath}
}

// Request describes one projection.
type Request struct {
	Record   catalog.Record
	Target   layout.Target
	Filename string
	// Source is the located absolute media path the link points at.
	Source string
	// Previous is the entry from an earlier run, if any. Its files are
	// removed when the new pair lives at different paths.
	Previous *state.Entry
}

// Projector materializes and removes artifact pairs.
type Projector struct {
	roots  []string
	logger *slog.Logger

	symlink   func(oldname, newname string) error
	writeFile func(path string, data []byte, perm os.FileMode) error
}

// New returns a projector. Empty directories are pruned up to, but never
// including, the given media roots.
func New(roots []string, logger *slog.Logger) *Projector {
	cleaned := make([]string, 0, len(roots))
	for _, root := range roots {
		if root = strings.TrimSpace(root); root != "" {
			cleaned = append(cleaned, filepath.Clean(root))
		}
	}
	return &Projector{
		roots:     cleaned,
		logger:    logging.NewComponentLogger(logger, "projector"),
		symlink:   os.Symlink,
		writeFile: fileutil.WriteFileAtomic,
	}
}

// Paths returns the link and descriptor paths for a filename in dir. The link
// keeps the source's extension.
func Paths(dir, filename, source string) (string, string) {
	return filepath.Join(dir, filename+filepath.Ext(source)), filepath.Join(dir, filename+descriptorExt)
}

// Project creates or refreshes the artifact pair for req. Either both files
// are in place afterwards or neither is.
func (p *Projector) Project(ctx context.Context, req Request) (Artifact, error) {
	if err := ctx.Err(); err != nil {
		return Artifact{}, err
	}
	if !filepath.IsAbs(req.Source) {
		return Artifact{}, services.Wrap(services.ErrValidation, "project", "check source", "link target must be absolute: "+req.Source, nil)
	}
	linkPath, descPath := Paths(req.Target.Dir, req.Filename, req.Source)
	artifact := Artifact{LinkPath: linkPath, DescriptorPath: descPath, Target: req.Source}

	data, err := nfo.Encode(req.Record, req.Target.Season, req.Target.Episode)
	if err != nil {
		return Artifact{}, services.Wrap(services.ErrValidation, "project", "encode descriptor", req.Record.ID, err)
	}

	if err := os.MkdirAll(req.Target.Dir, 0o755); err != nil {
		return Artifact{}, classify("create directory", req.Target.Dir, err)
	}
	if err := p.placeLink(linkPath, req.Source); err != nil {
		return Artifact{}, err
	}
	if err := p.writeFile(descPath, data, descriptorPerm); err != nil {
		p.rollback(artifact)
		return Artifact{}, classify("write descriptor", descPath, err)
	}

	if prev := req.Previous; prev != nil {
		p.removeSuperseded(ctx, *prev, artifact)
	}

	logging.WithContext(ctx, p.logger).Debug("artifact projected",
		logging.String("link", linkPath),
		logging.String("target", req.Source),
	)
	return artifact, nil
}

// placeLink points linkPath at target, replacing an existing symlink through a
// temporary link and rename. A non-symlink already at linkPath is a conflict.
func (p *Projector) placeLink(linkPath, target string) error {
	info, err := os.Lstat(linkPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := p.symlink(target, linkPath); err != nil {
			return classify("create symlink", linkPath, err)
		}
		return nil
	case err != nil:
		return classify("inspect link path", linkPath, err)
	case info.Mode()&fs.ModeSymlink == 0:
		return services.Wrap(services.ErrConflict, "project", "create symlink", "refusing to replace non-symlink "+linkPath, nil)
	}

	if current, err := os.Readlink(linkPath); err == nil && current == target {
		return nil
	}
	tmp := filepath.Join(filepath.Dir(linkPath), fmt.Sprintf(".%s.tmp-%d", filepath.Base(linkPath), time.Now().UnixNano()))
	if err := p.symlink(target, tmp); err != nil {
		return classify("create symlink", tmp, err)
	}
	if err := os.Rename(tmp, linkPath); err != nil {
		_ = os.Remove(tmp)
		return classify("replace symlink", linkPath, err)
	}
	return nil
}

func (p *Projector) rollback(a Artifact) {
	if err := fileutil.RemoveIfExists(a.DescriptorPath); err != nil {
		p.logger.Warn("rollback: descriptor removal failed", logging.String("path", a.DescriptorPath), logging.Error(err))
	}
	if fileutil.IsSymlink(a.LinkPath) {
		if err := fileutil.RemoveIfExists(a.LinkPath); err != nil {
			p.logger.Warn("rollback: link removal failed", logging.String("path", a.LinkPath), logging.Error(err))
		}
	}
}

func (p *Projector) removeSuperseded(ctx context.Context, prev state.Entry, current Artifact) {
	stale := Artifact{}
	if prev.LinkPath != "" && prev.LinkPath != current.LinkPath {
		stale.LinkPath = prev.LinkPath
	}
	if prev.DescriptorPath != "" && prev.DescriptorPath != current.DescriptorPath {
		stale.DescriptorPath = prev.DescriptorPath
	}
	if stale.LinkPath == "" && stale.DescriptorPath == "" {
		return
	}
	if err := p.Remove(ctx, stale); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, p.logger), "superseded artifact not removed", "artifact_cleanup_failed",
			logging.String("link", stale.LinkPath),
			logging.Error(err),
			logging.String(logging.FieldImpact, "an outdated link may remain in the library"),
		)
	}
}

// Unchanged reports whether entry is current for the located source: same
// path, same modification time, and both files still on disk.
func (p *Projector) Unchanged(entry state.Entry, located string, modTime time.Time) bool {
	if entry.SourcePath != located || !entry.ModTime.Equal(modTime) {
		return false
	}
	target, err := os.Readlink(entry.LinkPath)
	if err != nil || target != located {
		return false
	}
	return fileutil.Exists(entry.DescriptorPath)
}

// Remove deletes both files of a pair. Files that are already gone are not an
// error. Emptied directories are pruned up to the media roots.
func (p *Projector) Remove(ctx context.Context, a Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if a.LinkPath != "" {
		info, err := os.Lstat(a.LinkPath)
		switch {
		case err == nil && info.Mode()&fs.ModeSymlink == 0:
			return services.Wrap(services.ErrConflict, "project", "remove link", "refusing to delete non-symlink "+a.LinkPath, nil)
		case err == nil:
			if err := fileutil.RemoveIfExists(a.LinkPath); err != nil {
				return classify("remove link", a.LinkPath, err)
			}
		case !errors.Is(err, fs.ErrNotExist):
			return classify("inspect link", a.LinkPath, err)
		}
	}
	if err := fileutil.RemoveIfExists(a.DescriptorPath); err != nil {
		return classify("remove descriptor", a.DescriptorPath, err)
	}

	dirs := map[string]struct{}{}
	for _, path := range []string{a.LinkPath, a.DescriptorPath} {
		if path != "" {
			dirs[filepath.Dir(path)] = struct{}{}
		}
	}
	for dir := range dirs {
		root := p.rootFor(dir)
		if root == "" {
			continue
		}
		if err := fileutil.PruneEmptyDirs(dir, root, layout.SeriesDescriptorName); err != nil {
			p.logger.Debug("prune skipped", logging.String("dir", dir), logging.Error(err))
		}
	}
	return nil
}

// RemoveEntry removes the pair recorded by entry.
func (p *Projector) RemoveEntry(ctx context.Context, entry state.Entry) error {
	return p.Remove(ctx, ArtifactFor(entry))
}

// EnsureSeriesDescriptor writes tvshow.nfo into showDir unless one exists. It
// reports whether a file was written.
func (p *Projector) EnsureSeriesDescriptor(ctx context.Context, showDir string, rec catalog.Record) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	path := filepath.Join(showDir, layout.SeriesDescriptorName)
	if fileutil.Exists(path) {
		return false, nil
	}
	data, err := nfo.Series(rec)
	if err != nil {
		return false, services.Wrap(services.ErrValidation, "project", "encode series descriptor", rec.Title, err)
	}
	if err := p.writeFile(path, data, descriptorPerm); err != nil {
		return false, classify("write series descriptor", path, err)
	}
	return true, nil
}

func (p *Projector) rootFor(dir string) string {
	for _, root := range p.roots {
		rel, err := filepath.Rel(root, dir)
		if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		return root
	}
	return ""
}

func classify(op, path string, err error) error {
	if errors.Is(err, fs.ErrPermission) {
		return services.Wrap(services.ErrPermissionDenied, "project", op, path, err)
	}
	return fmt.Errorf("%s %s: %w", op, path, err)
}
