// Package filex holds small filesystem helpers for the data directory.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DirPerm keeps user data private to the service account.
const DirPerm = 0o700

// EnsureDir creates dir (and parents) if missing and returns its absolute
// path. A relative dir is resolved against the working directory.
func EnsureDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("abs %s: %w", dir, err)
	}

	if err := os.MkdirAll(abs, DirPerm); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", abs, err)
	}

	return abs, nil
}

// EnsureParent creates the parent directory of path.
func EnsureParent(path string) error {
	_, err := EnsureDir(filepath.Dir(path))
	return err
}

// SafeName maps s onto a single path element: anything outside
// [A-Za-z0-9._-] becomes '_', and names made only of dots are prefixed.
func SafeName(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	name := b.String()
	if strings.Trim(name, ".") == "" {
		name = "_" + name
	}
	return name
}
