package supervisor

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// BuildDir returns the packaging tool's intermediate work directory for a
// script: <dir(script)>/build/<script name without extension>.
func BuildDir(scriptPath string) string {
	name := filepath.Base(scriptPath)
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	return filepath.Join(filepath.Dir(scriptPath), "build", stem)
}

// cleanupBuildDir removes the build directory left behind by a cancelled
// run. A missing directory, or a job without a script, is not an error.
func cleanupBuildDir(scriptPath string, removeAll func(string) error) (string, error) {
	if scriptPath == "" {
		return "", nil
	}
	dir := BuildDir(scriptPath)
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return dir, nil
	}
	return dir, removeAll(dir)
}
