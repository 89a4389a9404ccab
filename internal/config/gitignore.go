package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ignoredPatterns are the project-local files that hold activity data or
// machine-specific state. config.yaml is deliberately absent.
func ignoredPatterns() []string {
	return []string{
		jsonStoreFileName,
		jsonStoreFileName + ".lock",
		jsonStoreFileName + ".tmp",
		sqliteStoreName,
		sqliteStoreName + "-*",
		cacheDirName + "/",
		"logs/",
		"*.log",
	}
}

// GitignoreContent returns the .gitignore written into project .footprint
// directories.
func GitignoreContent() string {
	var b strings.Builder
	b.WriteString("# footprint project data (generated)\n")
	b.WriteString("# config.yaml is shared; activity logs stay local.\n")
	for _, p := range ignoredPatterns() {
		b.WriteString(p)
		b.WriteByte('\n')
	}
	return b.String()
}

// EnsureGitignore writes GitignoreContent to dir/.gitignore unless the file
// already exists, creating dir if needed. It reports whether it wrote the file.
func EnsureGitignore(dir string) (bool, error) {
	path := filepath.Join(dir, ".gitignore")

	switch _, err := os.Stat(path); {
	case err == nil:
		return false, nil
	case !errors.Is(err, fs.ErrNotExist):
		return false, fmt.Errorf("checking %s: %w", path, err)
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return false, fmt.Errorf("creating directory %s: %w", dir, err)
	}
	//nolint:gosec // .gitignore is meant to be world-readable
	if err := os.WriteFile(path, []byte(GitignoreContent()), 0o644); err != nil {
		return false, fmt.Errorf("writing %s: %w", path, err)
	}
	return true, nil
}
