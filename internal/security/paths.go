// Package security guards the file paths the command line tools write to.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// canonical resolves symlinks in path. When path does not exist yet, the
// nearest existing ancestor is resolved and the rest is joined back on, so a
// link in a parent directory cannot redirect a new file elsewhere.
func canonical(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	for dir := path; ; {
		parent := filepath.Dir(dir)
		if parent == dir {
			return path
		}
		if resolved, err := filepath.EvalSymlinks(parent); err == nil {
			rest, _ := filepath.Rel(parent, path)
			return filepath.Join(resolved, rest)
		}
		dir = parent
	}
}

// WithinDirectory returns an error unless path resolves to a location inside
// dir, following symlinks on both sides.
func WithinDirectory(path, dir string) error {
	absPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve directory path: %w", err)
	}
	canonicalDir, err := filepath.EvalSymlinks(absDir)
	if err != nil {
		return fmt.Errorf("failed to resolve directory symlinks: %w", err)
	}

	rel, err := filepath.Rel(canonicalDir, canonical(absPath))
	if err != nil {
		return fmt.Errorf("path is outside %s: %w", dir, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return fmt.Errorf("path traversal detected: %s escapes %s", path, dir)
	}
	return nil
}

// WithinAnyDirectory accepts path when it lies inside at least one of dirs.
func WithinAnyDirectory(path string, dirs []string) error {
	if len(dirs) == 0 {
		return fmt.Errorf("no allowed directories specified")
	}
	for _, dir := range dirs {
		if WithinDirectory(path, dir) == nil {
			return nil
		}
	}
	return fmt.Errorf("path %s must be within one of %v", path, dirs)
}

// ValidateOutputPath checks that a report, plot or database path stays inside
// the working directory or the system temp directory. Empty paths mean the
// output is disabled and are accepted.
func ValidateOutputPath(path string) error {
	if path == "" {
		return nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}
	if err := WithinAnyDirectory(path, []string{cwd, os.TempDir()}); err != nil {
		return fmt.Errorf("invalid output path: %w", err)
	}
	return nil
}

// ValidateOutputPaths runs ValidateOutputPath over every path and returns
// the first failure.
func ValidateOutputPaths(paths ...string) error {
	for _, p := range paths {
		if err := ValidateOutputPath(p); err != nil {
			return err
		}
	}
	return nil
}
