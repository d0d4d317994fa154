package config

import (
	"os"
	"path/filepath"
)

// AtomicWrite replaces path with data through a synced temp file in the same
// directory. The permissions of an existing file are kept.
func AtomicWrite(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}

	perm := os.FileMode(0o600)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}
	return replaceFile(path, data, perm)
}
