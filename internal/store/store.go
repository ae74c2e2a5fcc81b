package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/gofrs/flock"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/shinji-kodama/pyinstaller-packager/internal/model"
)

const (
	// AppDir is the per-user directory name under the data home.
	AppDir = "pyinstaller-packager"

	// FileName is the stored config's file name.
	FileName = "pyinstaller_packager_config.json"
)

var (
	// ErrConfigNotFound is returned when the config file does not exist.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrConfigParse is returned when the config file cannot be decoded.
	ErrConfigParse = errors.New("config file is malformed")
)

// DefaultPath returns the per-user config location,
// $XDG_DATA_HOME/pyinstaller-packager/pyinstaller_packager_config.json,
// creating the parent directory if needed.
func DefaultPath() (string, error) {
	path, err := xdg.DataFile(filepath.Join(AppDir, FileName))
	if err != nil {
		return "", fmt.Errorf("resolve config location: %w", err)
	}
	return path, nil
}

// Store is the config file at one fixed location. Reads and writes take a
// lock on a sibling ".lock" file so concurrent invocations never observe a
// half-written config.
type Store struct {
	path string
	lock *flock.Flock
}

// New returns a Store for path.
func New(path string) *Store {
	return &Store{path: path, lock: flock.New(path + ".lock")}
}

// Path returns the file the store reads and writes.
func (s *Store) Path() string {
	return s.path
}

// Save replaces the stored config.
func (s *Store) Save(cfg model.Config) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock config: %w", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	return writeConfig(s.path, cfg)
}

// Load reads the stored config. It returns an error wrapping
// ErrConfigNotFound when nothing has been saved yet.
func (s *Store) Load() (model.Config, error) {
	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		return model.Config{}, fmt.Errorf("%w: %s", ErrConfigNotFound, s.path)
	}
	if err := s.lock.RLock(); err != nil {
		return model.Config{}, fmt.Errorf("lock config: %w", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	return readConfig(s.path)
}

// LoadOrDefault is Load with a missing file treated as model.DefaultConfig.
func (s *Store) LoadOrDefault() (model.Config, error) {
	cfg, err := s.Load()
	if errors.Is(err, ErrConfigNotFound) {
		return model.DefaultConfig(), nil
	}
	return cfg, err
}

// Clear resets the stored config to the defaults.
func (s *Store) Clear() error {
	return s.Save(model.DefaultConfig())
}

// Export writes cfg to a user-chosen path and returns the path actually
// written. A path without a .json, .yaml or .yml extension gets ".json"
// appended.
func Export(path string, cfg model.Config) (string, error) {
	if _, ok := formatFor(path); !ok {
		path += ".json"
	}
	if err := writeConfig(path, cfg); err != nil {
		return "", err
	}
	return path, nil
}

// Import reads a config from a user-chosen path. The format follows the
// extension; anything other than .yaml/.yml is read as JSON.
func Import(path string) (model.Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return model.Config{}, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
	}
	return readConfig(path)
}

type format int

const (
	formatJSON format = iota
	formatYAML
)

// formatFor maps a file extension to a format. ok is false for unknown
// extensions.
func formatFor(path string) (format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return formatJSON, true
	case ".yaml", ".yml":
		return formatYAML, true
	default:
		return formatJSON, false
	}
}

func readConfig(path string) (model.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.Config{}, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return model.Config{}, fmt.Errorf("read config: %w", err)
	}

	doc := fromConfig(model.DefaultConfig())
	f, _ := formatFor(path)
	switch f {
	case formatYAML:
		err = yaml.Unmarshal(data, &doc)
	default:
		err = json.Unmarshal(jsonc.ToJSON(data), &doc)
	}
	if err != nil {
		return model.Config{}, fmt.Errorf("%w: %s: %v", ErrConfigParse, path, err)
	}

	cfg, err := doc.toConfig()
	if err != nil {
		return model.Config{}, fmt.Errorf("%w: %s: %v", ErrConfigParse, path, err)
	}
	return cfg, nil
}

func writeConfig(path string, cfg model.Config) error {
	doc := fromConfig(cfg)

	var data []byte
	f, _ := formatFor(path)
	switch f {
	case formatYAML:
		out, err := yaml.Marshal(&doc)
		if err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
		data = out
	default:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "    ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
		data = buf.Bytes()
	}

	return writeFileAtomic(path, data)
}

// writeFileAtomic writes data to a temporary file in the target directory
// and renames it over path, so readers see either the old or the new file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// No-op after a successful rename.
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write config: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close config: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod config: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}
