package util

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureDir creates path and any missing parents.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", path, err)
	}
	return nil
}

// SafeJoin anchors name under root, discarding any directory components a
// caller-supplied name may carry.
func SafeJoin(root, name string) string {
	return filepath.Join(root, filepath.Base(name))
}
