package model

import (
	"fmt"
	"path/filepath"
	"strings"
)

// WindowMode controls whether a console window is attached to the artifact
// produced by the packaging tool.
//
// Only Windowed and Console emit a flag on the command line. Default leaves
// the decision to the packaging tool.
type WindowMode string

const (
	// WindowWindowed builds an artifact without a console window (--windowed).
	WindowWindowed WindowMode = "windowed"

	// WindowConsole builds an artifact with a console window (--console).
	WindowConsole WindowMode = "console"

	// WindowDefault emits no window-mode flag at all.
	WindowDefault WindowMode = "default"
)

// String returns the string representation of WindowMode.
// This method satisfies the fmt.Stringer interface.
func (m WindowMode) String() string {
	return string(m)
}

// IsValid checks whether the WindowMode value is one of the
// predefined valid modes.
func (m WindowMode) IsValid() bool {
	switch m {
	case WindowWindowed, WindowConsole, WindowDefault:
		return true
	default:
		return false
	}
}

// Flag returns the packaging-tool flag for this mode, or an empty string
// when no flag should be emitted (WindowDefault and unknown values).
func (m WindowMode) Flag() string {
	switch m {
	case WindowWindowed:
		return "--windowed"
	case WindowConsole:
		return "--console"
	default:
		return ""
	}
}

// ParseWindowMode converts a string to a WindowMode.
// Returns an error if the string does not match any valid mode.
func ParseWindowMode(s string) (WindowMode, error) {
	mode := WindowMode(strings.ToLower(strings.TrimSpace(s)))
	if !mode.IsValid() {
		return "", fmt.Errorf("invalid window mode: %q (valid: windowed, console, default)", s)
	}
	return mode, nil
}

// DataEntry is one auxiliary file or directory bundled into the artifact.
//
// Source is the path on disk, Target is the destination folder inside the
// bundle. An empty Target means the bundle root.
type DataEntry struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// String returns the stored form of the entry: "source;target".
// This is the format persisted in the data_files list of the config file.
func (d DataEntry) String() string {
	return d.Source + DataSeparator + d.Target
}

// ParseDataEntry splits a stored "source;target" string into a DataEntry.
// A string without a separator yields an entry with an empty Target.
func ParseDataEntry(s string) DataEntry {
	source, target, _ := strings.Cut(s, DataSeparator)
	return DataEntry{
		Source: strings.TrimSpace(source),
		Target: strings.TrimSpace(target),
	}
}

// Config is the full set of parameters of a packaging job.
//
// Config is a value object: the mutating helpers (WithDataEntries,
// WithHiddenImports) return a modified copy and never touch the receiver's
// slices. A Config may be incomplete while a user is still editing it;
// completeness is only checked by Validate, right before a command is built.
type Config struct {
	// InterpreterPath is the Python interpreter used to run the packaging
	// module. Empty means the packaging tool is looked up on PATH.
	InterpreterPath string

	// ScriptPath is the entry-point source file to package. Required.
	ScriptPath string

	// OutputDir is the destination directory for build artifacts.
	// Empty means <dirname(ScriptPath)>/dist.
	OutputDir string

	// IconPath is an optional icon resource. Ignored when it does not exist.
	IconPath string

	// OneFile selects single-artifact output instead of a directory tree.
	OneFile bool

	// WindowMode controls whether a console is attached to the artifact.
	WindowMode WindowMode

	// DataEntries are bundled in insertion order. Duplicates are allowed.
	DataEntries []DataEntry

	// HiddenImports are force-included modules in insertion order.
	// Duplicates are allowed.
	HiddenImports []string

	// Clean and NoConfirm are passed through as --clean and --noconfirm.
	Clean     bool
	NoConfirm bool

	// ExtraArgs holds raw additional arguments, split on whitespace.
	ExtraArgs string

	// AutoSaveOnExit saves the config when the owning session ends.
	AutoSaveOnExit bool
}

// DefaultConfig returns a Config populated with the documented defaults.
// These are the same values a config file falls back to for missing keys.
func DefaultConfig() Config {
	return Config{
		OneFile:        true,
		WindowMode:     WindowDefault,
		Clean:          true,
		NoConfirm:      true,
		AutoSaveOnExit: true,
	}
}

// Clone returns a deep copy of the config, so that the copy's slices can be
// appended to without aliasing the original.
func (c Config) Clone() Config {
	out := c
	if c.DataEntries != nil {
		out.DataEntries = append([]DataEntry(nil), c.DataEntries...)
	}
	if c.HiddenImports != nil {
		out.HiddenImports = append([]string(nil), c.HiddenImports...)
	}
	return out
}

// Normalize returns the canonical form of the config: paths and list
// entries trimmed, data entries without a source and blank hidden imports
// dropped, empty lists set to nil, and an unrecognised window mode replaced
// by WindowDefault. ExtraArgs is kept verbatim. The config store saves and
// loads this form, and Validate works on it.
func (c Config) Normalize() Config {
	out := c
	out.InterpreterPath = strings.TrimSpace(c.InterpreterPath)
	out.ScriptPath = strings.TrimSpace(c.ScriptPath)
	out.OutputDir = strings.TrimSpace(c.OutputDir)
	out.IconPath = strings.TrimSpace(c.IconPath)
	if !out.WindowMode.IsValid() {
		out.WindowMode = WindowDefault
	}

	out.DataEntries = nil
	for _, entry := range c.DataEntries {
		entry.Source = strings.TrimSpace(entry.Source)
		entry.Target = strings.TrimSpace(entry.Target)
		if entry.Source != "" {
			out.DataEntries = append(out.DataEntries, entry)
		}
	}

	out.HiddenImports = nil
	for _, name := range c.HiddenImports {
		if name = strings.TrimSpace(name); name != "" {
			out.HiddenImports = append(out.HiddenImports, name)
		}
	}
	return out
}

// WithDataEntries returns a copy of the config with entries appended after
// the existing ones.
func (c Config) WithDataEntries(entries ...DataEntry) Config {
	out := c.Clone()
	out.DataEntries = append(out.DataEntries, entries...)
	return out
}

// WithHiddenImports returns a copy of the config with names appended after
// the existing hidden imports. Existing entries are never replaced.
func (c Config) WithHiddenImports(names ...string) Config {
	out := c.Clone()
	out.HiddenImports = append(out.HiddenImports, names...)
	return out
}

// ResolvedOutputDir returns OutputDir, or <dirname(ScriptPath)>/dist when
// OutputDir is empty.
func (c Config) ResolvedOutputDir() string {
	if dir := strings.TrimSpace(c.OutputDir); dir != "" {
		return dir
	}
	return filepath.Join(filepath.Dir(c.ScriptPath), "dist")
}

// ExitCode defines standard CLI exit codes.
// These codes allow scripts and CI systems to programmatically determine
// the outcome of a command.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitValidationError indicates the job config was rejected before
	// any process was started (missing script, bad interpreter, ...).
	ExitValidationError ExitCode = 2

	// ExitLaunchError indicates the packaging tool could not be started.
	ExitLaunchError ExitCode = 3

	// ExitJobFailed indicates the packaging tool exited with a non-zero code.
	ExitJobFailed ExitCode = 4

	// ExitCancelled indicates the user cancelled a running job.
	ExitCancelled ExitCode = 5

	// ExitConfigError indicates the config file could not be read or written.
	ExitConfigError ExitCode = 6
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
