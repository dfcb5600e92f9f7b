package fileutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
)

// renameFunc is swapped in tests to simulate rename failures.
var renameFunc = os.Rename

// WriteFileAtomic writes data to path through a temporary sibling file that is
// synced and renamed into place, replacing any existing file. Readers observe
// either the old content or the new content, never a partial write.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	// Leading dot keeps half-written temp files out of media scanners.
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := renameFunc(tmpName, path); err != nil {
		return err
	}
	committed = true

	_ = syncDir(dir)
	return nil
}

// RemoveIfExists deletes path, treating an already absent file as success.
// It never follows symlinks.
func RemoveIfExists(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Exists reports whether path exists without following a final symlink.
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// IsSymlink reports whether path is a symbolic link.
func IsSymlink(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.Mode()&fs.ModeSymlink != 0
}

// PruneEmptyDirs removes dir and its empty parents, stopping at (and never
// removing) stop. Names listed in ignorable do not count as content; they are
// deleted together with the directory.
func PruneEmptyDirs(dir, stop string, ignorable ...string) error {
	dir = filepath.Clean(dir)
	stop = filepath.Clean(stop)
	for dir != stop && isWithin(dir, stop) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				dir = filepath.Dir(dir)
				continue
			}
			return err
		}
		var leftovers []string
		for _, entry := range entries {
			if !contains(ignorable, entry.Name()) || entry.IsDir() {
				return nil
			}
			leftovers = append(leftovers, filepath.Join(dir, entry.Name()))
		}
		for _, path := range leftovers {
			if err := RemoveIfExists(path); err != nil {
				return err
			}
		}
		if err := os.Remove(dir); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		dir = filepath.Dir(dir)
	}
	return nil
}

func isWithin(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !filepath.IsAbs(rel) && (len(rel) < 3 || rel[:3] != ".."+string(filepath.Separator))
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func syncDir(dir string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
