// document.go defines the on-disk shape of a configuration and the
// conversion between it and model.Config.
package store

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/shinji-kodama/pyinstaller-packager/internal/model"
)

// windowModeIndex is how window_mode is persisted: the position of the
// option in the original tool's selector.
type windowModeIndex int

const (
	indexWindowed windowModeIndex = 0
	indexConsole  windowModeIndex = 1
	indexDefault  windowModeIndex = 2
)

func indexFor(mode model.WindowMode) windowModeIndex {
	switch mode {
	case model.WindowWindowed:
		return indexWindowed
	case model.WindowConsole:
		return indexConsole
	default:
		return indexDefault
	}
}

func (i windowModeIndex) mode() (model.WindowMode, error) {
	switch i {
	case indexWindowed:
		return model.WindowWindowed, nil
	case indexConsole:
		return model.WindowConsole, nil
	case indexDefault:
		return model.WindowDefault, nil
	default:
		return "", fmt.Errorf("window_mode index %d out of range", int(i))
	}
}

// UnmarshalJSON accepts the numeric index or a mode name such as "console".
func (i *windowModeIndex) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*i = windowModeIndex(n)
		return nil
	}
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("window_mode must be a number or a name: %w", err)
	}
	return i.setName(name)
}

// UnmarshalYAML accepts the numeric index or a mode name.
func (i *windowModeIndex) UnmarshalYAML(node *yaml.Node) error {
	var n int
	if err := node.Decode(&n); err == nil {
		*i = windowModeIndex(n)
		return nil
	}
	var name string
	if err := node.Decode(&name); err != nil {
		return fmt.Errorf("window_mode must be a number or a name: %w", err)
	}
	return i.setName(name)
}

func (i *windowModeIndex) setName(name string) error {
	mode, err := model.ParseWindowMode(name)
	if err != nil {
		return err
	}
	*i = indexFor(mode)
	return nil
}

// document mirrors the config file. Decoding into a document pre-filled
// from defaults leaves absent keys at their defaults.
type document struct {
	PythonPath    string          `json:"python_path" yaml:"python_path"`
	ScriptPath    string          `json:"script_path" yaml:"script_path"`
	OutputPath    string          `json:"output_path" yaml:"output_path"`
	IconPath      string          `json:"icon_path" yaml:"icon_path"`
	OneFile       bool            `json:"onefile" yaml:"onefile"`
	WindowMode    windowModeIndex `json:"window_mode" yaml:"window_mode"`
	Clean         bool            `json:"clean" yaml:"clean"`
	NoConfirm     bool            `json:"no_confirm" yaml:"no_confirm"`
	AutoSave      bool            `json:"auto_save" yaml:"auto_save"`
	ExtraArgs     string          `json:"extra_args" yaml:"extra_args"`
	DataFiles     []string        `json:"data_files" yaml:"data_files"`
	HiddenImports []string        `json:"hidden_imports" yaml:"hidden_imports"`
}

// fromConfig returns the document for cfg in its normalized form.
func fromConfig(cfg model.Config) document {
	cfg = cfg.Normalize()
	doc := document{
		PythonPath:    cfg.InterpreterPath,
		ScriptPath:    cfg.ScriptPath,
		OutputPath:    cfg.OutputDir,
		IconPath:      cfg.IconPath,
		OneFile:       cfg.OneFile,
		WindowMode:    indexFor(cfg.WindowMode),
		Clean:         cfg.Clean,
		NoConfirm:     cfg.NoConfirm,
		AutoSave:      cfg.AutoSaveOnExit,
		ExtraArgs:     cfg.ExtraArgs,
		DataFiles:     make([]string, 0, len(cfg.DataEntries)),
		HiddenImports: make([]string, 0, len(cfg.HiddenImports)),
	}
	for _, entry := range cfg.DataEntries {
		doc.DataFiles = append(doc.DataFiles, entry.String())
	}
	doc.HiddenImports = append(doc.HiddenImports, cfg.HiddenImports...)
	return doc
}

// toConfig converts a decoded document back into a normalized config, so
// that saving a config and loading it again yields cfg.Normalize().
func (d document) toConfig() (model.Config, error) {
	mode, err := d.WindowMode.mode()
	if err != nil {
		return model.Config{}, err
	}

	cfg := model.Config{
		InterpreterPath: d.PythonPath,
		ScriptPath:      d.ScriptPath,
		OutputDir:       d.OutputPath,
		IconPath:        d.IconPath,
		OneFile:         d.OneFile,
		WindowMode:      mode,
		Clean:           d.Clean,
		NoConfirm:       d.NoConfirm,
		AutoSaveOnExit:  d.AutoSave,
		ExtraArgs:       d.ExtraArgs,
		HiddenImports:   d.HiddenImports,
	}
	for _, raw := range d.DataFiles {
		cfg.DataEntries = append(cfg.DataEntries, model.ParseDataEntry(raw))
	}
	return cfg.Normalize(), nil
}
