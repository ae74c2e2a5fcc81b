// Package cli — flags.go defines the packaging-config flags shared by the
// "config set" and "build" commands.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/shinji-kodama/pyinstaller-packager/internal/model"
)

// configFlags holds the flag values that edit a packaging config.
// Only flags the user actually set are applied, so an unset flag never
// overwrites a stored value with its zero value.
type configFlags struct {
	script     string // --script: entry-point script
	output     string // --output: artifact directory
	icon       string // --icon: icon resource
	python     string // --python: interpreter used to run PyInstaller
	oneFile    bool   // --onefile: single-file output
	windowMode string // --window-mode: windowed, console or default
	clean      bool   // --clean: clear PyInstaller's cache first
	noConfirm  bool   // --no-confirm: overwrite output without asking
	extraArgs  string // --extra-args: raw extra arguments
	autoSave   bool   // --auto-save: save the config when a build session ends
}

// register binds the flags to cmd.
func (f *configFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.script, "script", "", "Python entry-point script")
	fs.StringVar(&f.output, "output", "", "Output directory (default: <script dir>/dist)")
	fs.StringVar(&f.icon, "icon", "", "Icon file for the executable")
	fs.StringVar(&f.python, "python", "", "Python interpreter (default: pyinstaller on PATH)")
	fs.BoolVar(&f.oneFile, "onefile", true, "Produce a single executable")
	fs.StringVar(&f.windowMode, "window-mode", "default", "Window mode: windowed, console or default")
	fs.BoolVar(&f.clean, "clean", true, "Clean the PyInstaller cache before building")
	fs.BoolVar(&f.noConfirm, "no-confirm", true, "Replace the output directory without asking")
	fs.StringVar(&f.extraArgs, "extra-args", "", "Additional PyInstaller arguments")
	fs.BoolVar(&f.autoSave, "auto-save", true, "Save the config at the end of a build session")
}

// apply returns cfg with every explicitly set flag applied.
func (f *configFlags) apply(cmd *cobra.Command, cfg model.Config) (model.Config, bool, error) {
	out := cfg.Clone()
	fs := cmd.Flags()
	changed := false

	setString := func(name string, dst *string, value string) {
		if fs.Changed(name) {
			*dst = value
			changed = true
		}
	}
	setBool := func(name string, dst *bool, value bool) {
		if fs.Changed(name) {
			*dst = value
			changed = true
		}
	}

	setString("script", &out.ScriptPath, f.script)
	setString("output", &out.OutputDir, f.output)
	setString("icon", &out.IconPath, f.icon)
	setString("python", &out.InterpreterPath, f.python)
	setBool("onefile", &out.OneFile, f.oneFile)
	setBool("clean", &out.Clean, f.clean)
	setBool("no-confirm", &out.NoConfirm, f.noConfirm)
	setString("extra-args", &out.ExtraArgs, f.extraArgs)
	setBool("auto-save", &out.AutoSaveOnExit, f.autoSave)

	if fs.Changed("window-mode") {
		mode, err := model.ParseWindowMode(f.windowMode)
		if err != nil {
			return cfg, false, model.WrapCLIError(model.ExitValidationError, "invalid --window-mode", err)
		}
		out.WindowMode = mode
		changed = true
	}

	return out, changed, nil
}
