package sourcefile

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"sagelink/internal/services"
)

// Extensions lists the alternate media extensions tried, in priority order,
// when the reported path is gone (transcoding after recording usually changes
// the container).
var Extensions = []string{".mkv", ".mp4", ".avi", ".ts", ".mpg"}

// Locate returns the media file backing reported. If reported is not a regular
// file, same-directory siblings sharing its stem are tried in Extensions order.
// When nothing matches the error wraps services.ErrSourceUnavailable.
func Locate(reported string) (string, error) {
	if reported == "" || !filepath.IsAbs(reported) {
		return "", services.Wrap(services.ErrSourceUnavailable, "locate", "validate path", "source path must be absolute: "+reported, nil)
	}
	reported = filepath.Clean(reported)

	ok, err := isRegular(reported)
	if err != nil {
		return "", err
	}
	if ok {
		return reported, nil
	}

	dir := filepath.Dir(reported)
	base := filepath.Base(reported)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		return "", services.Wrap(services.ErrSourceUnavailable, "locate", "derive stem", reported, nil)
	}
	current := strings.ToLower(filepath.Ext(base))
	for _, ext := range Extensions {
		if ext == current {
			continue
		}
		candidate := filepath.Join(dir, stem+ext)
		ok, err := isRegular(candidate)
		if err != nil {
			return "", err
		}
		if ok {
			return candidate, nil
		}
	}
	return "", services.Wrap(services.ErrSourceUnavailable, "locate", "find alternate", reported, fs.ErrNotExist)
}

// ConfirmedAbsent reports whether path is definitively absent: stat fails with
// fs.ErrNotExist. Transient errors (permissions, unmounted shares returning
// other errors) do not count as absence.
func ConfirmedAbsent(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return errors.Is(err, fs.ErrNotExist)
}

func isRegular(path string) (bool, error) {
	info, err := os.Stat(path)
	switch {
	case err == nil:
		return info.Mode().IsRegular(), nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case errors.Is(err, fs.ErrPermission):
		return false, services.Wrap(services.ErrPermissionDenied, "locate", "stat source", path, err)
	default:
		// ENOTDIR and friends mean the path cannot name a file.
		return false, nil
	}
}
