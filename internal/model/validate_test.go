package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFile creates a file with placeholder content and returns its path.
func writeFile(t *testing.T, path string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("print('hi')\n"), 0o644))
	return path
}

// TestValidate covers every validation failure and the success path.
func TestValidate(t *testing.T) {
	dir := t.TempDir()
	script := writeFile(t, filepath.Join(dir, "app.py"))
	python := writeFile(t, filepath.Join(dir, "bin", "Python3.EXE"))
	notPython := writeFile(t, filepath.Join(dir, "bin", "ruby"))

	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{"empty script", Config{}, ErrMissingScript},
		{"blank script", Config{ScriptPath: "   "}, ErrMissingScript},
		{"missing script", Config{ScriptPath: filepath.Join(dir, "nope.py")}, ErrScriptNotFound},
		{"script is a directory", Config{ScriptPath: dir}, ErrScriptNotFound},
		{"interpreter with wrong name", Config{ScriptPath: script, InterpreterPath: notPython}, ErrInvalidInterpreter},
		{"interpreter missing", Config{ScriptPath: script, InterpreterPath: filepath.Join(dir, "python")}, ErrInvalidInterpreter},
		{"interpreter is a directory", Config{ScriptPath: script, InterpreterPath: filepath.Join(dir, "bin")}, ErrInvalidInterpreter},
		{"no interpreter", Config{ScriptPath: script}, nil},
		{"case-insensitive interpreter", Config{ScriptPath: script, InterpreterPath: python}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validated, err := tt.cfg.Validate()
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, script, validated.Config().ScriptPath)
		})
	}
}

// TestValidate_NoSideEffects verifies that validation never creates the
// output directory; that is the command builder's job.
func TestValidate_NoSideEffects(t *testing.T) {
	dir := t.TempDir()
	script := writeFile(t, filepath.Join(dir, "app.py"))
	out := filepath.Join(dir, "out", "nested")

	_, err := Config{ScriptPath: script, OutputDir: out}.Validate()
	require.NoError(t, err)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

// TestValidatedConfig_IsACopy verifies the validated config cannot be used
// to mutate the original slices.
func TestValidatedConfig_IsACopy(t *testing.T) {
	dir := t.TempDir()
	script := writeFile(t, filepath.Join(dir, "app.py"))
	cfg := Config{ScriptPath: script, HiddenImports: []string{"numpy"}}

	validated, err := cfg.Validate()
	require.NoError(t, err)

	got := validated.Config()
	got.HiddenImports[0] = "changed"
	assert.Equal(t, "numpy", cfg.HiddenImports[0])
	assert.Equal(t, "numpy", validated.Config().HiddenImports[0])
}

// TestNormalizeDataInput checks target derivation and idempotence.
func TestNormalizeDataInput(t *testing.T) {
	base := filepath.Join(t.TempDir(), "docs")
	require.NoError(t, os.MkdirAll(filepath.Join(base, "images"), 0o755))
	writeFile(t, filepath.Join(base, "readme.txt"))
	writeFile(t, filepath.Join(base, "sub", "data.csv"))

	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{"directory uses its basename", "images", "images;images"},
		{"directory with trailing slash", "images/", "images/;images"},
		{"bare file uses base directory name", "readme.txt", "readme.txt;docs"},
		{"nested file uses its parent", "sub/data.csv", "sub/data.csv;sub"},
		{"missing path treated as file", "sub/ghost.bin", "sub/ghost.bin;sub"},
		{"explicit target kept", "images;icons", "images;icons"},
		{"explicit target trimmed", " images ; icons ", "images;icons"},
		{"empty target derived", "images;", "images;images"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, err := NormalizeDataInput(tt.raw, base)
			require.NoError(t, err)
			assert.Equal(t, filepath.FromSlash(tt.expected), filepath.FromSlash(entry.String()))

			again, err := NormalizeDataInput(entry.String(), base)
			require.NoError(t, err)
			assert.Equal(t, entry, again, "normalization must be idempotent")
		})
	}
}

// TestNormalizeDataInput_Empty rejects inputs with nothing to add.
func TestNormalizeDataInput_Empty(t *testing.T) {
	for _, raw := range []string{"", "   ", ";target"} {
		_, err := NormalizeDataInput(raw, t.TempDir())
		assert.ErrorIs(t, err, ErrEmptyInput, "raw=%q", raw)
	}
}

// TestParseHiddenImports verifies comma splitting, trimming and order.
func TestParseHiddenImports(t *testing.T) {
	assert.Equal(t, []string{"numpy", "PyQt5.QtWebEngine", "numpy"},
		ParseHiddenImports(" numpy, PyQt5.QtWebEngine ,, numpy ,"))
	assert.Empty(t, ParseHiddenImports(" , ,"))
	assert.Empty(t, ParseHiddenImports(""))
}

// TestNormalizeDataInput_ExtraSeparator rejects a target containing the
// separator itself.
func TestNormalizeDataInput_ExtraSeparator(t *testing.T) {
	for _, raw := range []string{"images;images;icons", "images;;icons", "a;b;"} {
		_, err := NormalizeDataInput(raw, t.TempDir())
		assert.ErrorIs(t, err, ErrInvalidDataEntry, "raw=%q", raw)
	}
}
