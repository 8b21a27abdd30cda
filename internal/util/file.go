// Package util holds small filesystem helpers shared by the stores.
package util

import (
	"os"
	"path/filepath"

	"doit/internal/errors"
)

// EnsureDirectory creates path and its parents, then syncs it and its parent
// so the new entries survive a crash.
func EnsureDirectory(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return errors.WithStackTrace(err)
	}
	syncDir(path)
	if parent := filepath.Dir(path); parent != path {
		syncDir(parent)
	}
	return nil
}

// WriteFileAtomic replaces path with data. The content goes to a temp file in
// the same directory that is synced and renamed over path, so readers see
// either the old or the new file, never a torn one.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.WithStackTrace(err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return errors.WithStackTrace(err)
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
		return errors.WithStackTrace(err)
	}
	if err := tmp.Chmod(perm); err != nil {
		return errors.WithStackTrace(err)
	}
	if err := tmp.Sync(); err != nil {
		return errors.WithStackTrace(err)
	}
	if err := tmp.Close(); err != nil {
		return errors.WithStackTrace(err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return errors.WithStackTrace(err)
	}
	committed = true
	syncDir(dir)
	return nil
}

// syncDir flushes directory entries. Some filesystems refuse fsync on a
// directory; the rename has already happened, so that is not an error.
func syncDir(dir string) {
	f, err := os.Open(dir)
	if err != nil {
		return
	}
	defer f.Close()
	_ = f.Sync()
}
