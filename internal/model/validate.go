// validate.go checks a Config for completeness right before a command is
// built from it.
//
// Validation is lazy on purpose: a Config may be incomplete while it is being
// edited (one field at a time through `config set`), so nothing here runs at
// construction time. Validate is a pure check; creating the output directory
// is left to the command builder.
package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Validation errors. They are detected before any process is launched and
// are always returned wrapped with the offending path, so callers should
// compare with errors.Is.
var (
	// ErrMissingScript is returned when ScriptPath is empty.
	ErrMissingScript = errors.New("script path is required")

	// ErrScriptNotFound is returned when ScriptPath does not name an
	// existing file.
	ErrScriptNotFound = errors.New("script not found")

	// ErrInvalidInterpreter is returned when InterpreterPath is set but does
	// not point at a file with an accepted interpreter name.
	ErrInvalidInterpreter = errors.New("invalid python interpreter")

	// ErrOutputDirCreateFailed is returned by the command builder when the
	// output directory cannot be created.
	ErrOutputDirCreateFailed = errors.New("output directory could not be created")
)

// interpreterNames is the allow-list of interpreter executable basenames.
// Comparison is case-insensitive, so "Python.EXE" is accepted as well.
var interpreterNames = map[string]bool{
	"python":      true,
	"python.exe":  true,
	"python3":     true,
	"python3.exe": true,
	"pythonw":     true,
	"pythonw.exe": true,
}

// ValidatedConfig is a Config that passed Validate. It can only be obtained
// through Validate, which lets the command builder require a checked config
// at the type level.
type ValidatedConfig struct {
	cfg Config
}

// Config returns a copy of the validated configuration.
func (v ValidatedConfig) Config() Config {
	return v.cfg.Clone()
}

// Validate checks the fields that must hold before a command can be built:
//   - ScriptPath is non-empty (ErrMissingScript)
//   - ScriptPath names an existing file (ErrScriptNotFound)
//   - InterpreterPath, when set, is an existing file whose basename is an
//     accepted interpreter name (ErrInvalidInterpreter)
//
// Validate works on c.Normalize() and has no side effects.
func (c Config) Validate() (ValidatedConfig, error) {
	out := c.Normalize()
	script := out.ScriptPath
	if script == "" {
		return ValidatedConfig{}, ErrMissingScript
	}

	info, err := os.Stat(script)
	if err != nil || info.IsDir() {
		return ValidatedConfig{}, fmt.Errorf("%w: %s", ErrScriptNotFound, script)
	}

	if interp := out.InterpreterPath; interp != "" {
		if !IsInterpreterPath(interp) {
			return ValidatedConfig{}, fmt.Errorf("%w: %s", ErrInvalidInterpreter, interp)
		}
	}

	return ValidatedConfig{cfg: out}, nil
}

// IsInterpreterPath reports whether path is an existing regular file whose
// basename is one of the accepted interpreter executable names.
func IsInterpreterPath(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return interpreterNames[strings.ToLower(filepath.Base(path))]
}
