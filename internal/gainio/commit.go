package gainio

import (
	"fmt"
	"os"
	"path/filepath"
)

// Commit produces path atomically. write receives the name of a temporary
// file in the same directory and must leave the complete content there;
// on success the temporary file is synced and renamed over path, and the
// directory entry is synced. On any failure the temporary file is removed
// and path is left untouched.
func Commit(path string, write func(tmpPath string) error) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &IoError{Op: "create temporary file for", Path: path, Err: err}
	}
	tmpPath := tmp.Name()
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return &IoError{Op: "create temporary file for", Path: path, Err: err}
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return &IoError{Op: "chmod temporary file for", Path: path, Err: err}
	}
	defer func() {
		if err != nil {
			os.Remove(tmpPath)
		}
	}()

	if err := write(tmpPath); err != nil {
		return &IoError{Op: "write", Path: path, Err: err}
	}
	if err := syncPath(tmpPath); err != nil {
		return &IoError{Op: "sync", Path: path, Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return &IoError{Op: "rename", Path: path, Err: fmt.Errorf("from %s: %w", tmpPath, err)}
	}
	if err := syncPath(dir); err != nil {
		return &IoError{Op: "sync directory of", Path: path, Err: err}
	}
	return nil
}

func syncPath(name string) error {
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// CommitFile is Commit for writers that only need an *os.File.
func CommitFile(path string, write func(f *os.File) error) error {
	return Commit(path, func(tmpPath string) error {
		f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return err
		}
		if err := write(f); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	})
}

// EnsureDir creates dir and any missing parents.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &IoError{Op: "create output directory", Path: dir, Err: err}
	}
	return nil
}
