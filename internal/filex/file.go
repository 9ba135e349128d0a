// Package filex contains small filesystem helpers shared by the storage and
// download paths.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureParentDir creates the directory that will contain path, if it does
// not exist yet. It returns the cleaned directory name.
func EnsureParentDir(path string) (string, error) {
	dir := filepath.Dir(filepath.Clean(path))
	if dir == "." {
		return dir, nil
	}
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return dir, nil
}
