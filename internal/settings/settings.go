// Package settings loads the application settings file.
//
// Settings tune the tool itself (logging, timeouts, output decoding) and
// are separate from the packaging config the user edits per project. The
// file is TOML; every key is optional and a missing file means defaults.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/pelletier/go-toml/v2"

	"github.com/shinji-kodama/pyinstaller-packager/internal/supervisor"
)

// FileName is the settings file name under the per-user config directory.
const FileName = "settings.toml"

// Settings holds the application-wide tunables.
type Settings struct {
	LogLevel                string `toml:"log_level" json:"log_level"`
	LogFormat               string `toml:"log_format" json:"log_format"`
	LaunchTimeoutSeconds    int    `toml:"launch_timeout_seconds" json:"launch_timeout_seconds"`
	TerminateTimeoutSeconds int    `toml:"terminate_timeout_seconds" json:"terminate_timeout_seconds"`
	ProgressTickMillis      int    `toml:"progress_tick_ms" json:"progress_tick_ms"`
	OutputEncoding          string `toml:"output_encoding" json:"output_encoding"`
	EventBuffer             int    `toml:"event_buffer" json:"event_buffer"`
}

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		LogLevel:                "info",
		LogFormat:               "text",
		LaunchTimeoutSeconds:    5,
		TerminateTimeoutSeconds: 5,
		ProgressTickMillis:      100,
		OutputEncoding:          "utf-8",
		EventBuffer:             256,
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/pyinstaller-packager/settings.toml.
// The directory is not created.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "pyinstaller-packager", FileName)
}

// Load reads settings from path, or from DefaultPath when path is empty.
// It returns the settings, the resolved path and whether the file existed.
func Load(path string) (Settings, string, bool, error) {
	s := Default()
	if path == "" {
		path = DefaultPath()
	}

	file, err := os.Open(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return s, path, false, nil
	case err != nil:
		return Settings{}, path, false, fmt.Errorf("open settings: %w", err)
	}
	defer file.Close()

	decoder := toml.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&s); err != nil {
		return Settings{}, path, true, fmt.Errorf("parse settings %s: %w", path, err)
	}

	s.normalize()
	if err := s.Validate(); err != nil {
		return Settings{}, path, true, fmt.Errorf("settings %s: %w", path, err)
	}
	return s, path, true, nil
}

// Write saves s to path as TOML, creating the directory if needed.
func Write(path string, s Settings) error {
	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

func (s *Settings) normalize() {
	s.LogLevel = strings.ToLower(strings.TrimSpace(s.LogLevel))
	s.LogFormat = strings.ToLower(strings.TrimSpace(s.LogFormat))
	s.OutputEncoding = strings.TrimSpace(s.OutputEncoding)

	d := Default()
	if s.LogLevel == "" {
		s.LogLevel = d.LogLevel
	}
	if s.LogFormat == "" {
		s.LogFormat = d.LogFormat
	}
	if s.OutputEncoding == "" {
		s.OutputEncoding = d.OutputEncoding
	}
}

// Validate ensures the settings are usable.
func (s Settings) Validate() error {
	switch s.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log_level %q must be one of debug, info, warn, error", s.LogLevel)
	}
	switch s.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log_format %q must be text or json", s.LogFormat)
	}
	if s.LaunchTimeoutSeconds <= 0 {
		return errors.New("launch_timeout_seconds must be positive")
	}
	if s.TerminateTimeoutSeconds <= 0 {
		return errors.New("terminate_timeout_seconds must be positive")
	}
	if s.ProgressTickMillis <= 0 {
		return errors.New("progress_tick_ms must be positive")
	}
	if s.EventBuffer <= 0 {
		return errors.New("event_buffer must be positive")
	}
	if _, err := supervisor.LookupEncoding(s.OutputEncoding); err != nil {
		return fmt.Errorf("output_encoding: %w", err)
	}
	return nil
}

// Supervisor converts the settings into the process supervisor's config.
func (s Settings) Supervisor() supervisor.Config {
	return supervisor.Config{
		LaunchTimeout:    time.Duration(s.LaunchTimeoutSeconds) * time.Second,
		TerminateTimeout: time.Duration(s.TerminateTimeoutSeconds) * time.Second,
		TickInterval:     time.Duration(s.ProgressTickMillis) * time.Millisecond,
		EventBuffer:      s.EventBuffer,
		Encoding:         s.OutputEncoding,
	}
}
