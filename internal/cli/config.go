// Package cli — config.go implements the "pyinstaller-packager config"
// command group that views and edits the stored packaging config.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/shinji-kodama/pyinstaller-packager/internal/model"
	"github.com/shinji-kodama/pyinstaller-packager/internal/store"
)

// NewConfigCommand creates the "config" command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and edit the packaging configuration",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigAddDataCommand())
	cmd.AddCommand(newConfigAddHiddenCommand())
	cmd.AddCommand(newConfigClearCommand())
	cmd.AddCommand(newConfigExportCommand())
	cmd.AddCommand(newConfigImportCommand())
	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the stored configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, cfg, err := loadStoredConfig()
			if err != nil {
				return err
			}
			return printConfig(cmd.OutOrStdout(), st.Path(), cfg)
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	flags := &configFlags{}
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change configuration fields",
		Long: `Change one or more fields of the stored configuration. Only the flags
given on the command line are changed.

Examples:
  pyinstaller-packager config set --script ./main.py --window-mode windowed
  pyinstaller-packager config set --onefile=false --extra-args "--log-level DEBUG"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, cfg, err := loadStoredConfig()
			if err != nil {
				return err
			}
			updated, changed, err := flags.apply(cmd, cfg)
			if err != nil {
				return err
			}
			if !changed {
				return model.NewCLIError(model.ExitValidationError, "no fields to set; see --help for the available flags")
			}
			if err := st.Save(updated); err != nil {
				return storeError("failed to save config", err)
			}
			return printConfig(cmd.OutOrStdout(), st.Path(), updated)
		},
	}
	flags.register(cmd)
	return cmd
}

func newConfigAddDataCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add-data <source[;target]>",
		Short: "Bundle an extra file or directory",
		Long: `Append a data entry. Without an explicit target, a directory is placed
under its own name and a file under its parent directory's name.
Relative sources are resolved against the script's directory.

Examples:
  pyinstaller-packager config add-data images
  pyinstaller-packager config add-data "assets/logo.png;img"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, cfg, err := loadStoredConfig()
			if err != nil {
				return err
			}
			entry, err := model.NormalizeDataInput(args[0], dataBaseDir(cfg))
			if err != nil {
				return model.WrapCLIError(model.ExitValidationError, "invalid data entry", err)
			}
			updated := cfg.WithDataEntries(entry)
			if err := st.Save(updated); err != nil {
				return storeError("failed to save config", err)
			}
			return printAdded(cmd.OutOrStdout(), "data", []string{entry.String()})
		},
	}
}

func newConfigAddHiddenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add-hidden <module[,module...]>",
		Short: "Force-include modules PyInstaller cannot detect",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names := model.ParseHiddenImports(args[0])
			if len(names) == 0 {
				return model.WrapCLIError(model.ExitValidationError, "no module names given", model.ErrEmptyInput)
			}
			st, cfg, err := loadStoredConfig()
			if err != nil {
				return err
			}
			if err := st.Save(cfg.WithHiddenImports(names...)); err != nil {
				return storeError("failed to save config", err)
			}
			return printAdded(cmd.OutOrStdout(), "hidden_imports", names)
		},
	}
}

func newConfigClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Reset the configuration to defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			if err := st.Clear(); err != nil {
				return storeError("failed to clear config", err)
			}
			return printConfig(cmd.OutOrStdout(), st.Path(), model.DefaultConfig())
		},
	}
}

func newConfigExportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export <path>",
		Short: "Write the configuration to a file (.json, .yaml or .yml)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cfg, err := loadStoredConfig()
			if err != nil {
				return err
			}
			written, err := store.Export(args[0], cfg)
			if err != nil {
				return storeError("failed to export config", err)
			}
			return printPathResult(cmd.OutOrStdout(), "Config", "exported", written)
		},
	}
}

func newConfigImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <path>",
		Short: "Replace the configuration with one read from a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := store.Import(args[0])
			if err != nil {
				return storeError("failed to import config", err)
			}
			st, err := openStore()
			if err != nil {
				return err
			}
			if err := st.Save(cfg); err != nil {
				return storeError("failed to save config", err)
			}
			return printPathResult(cmd.OutOrStdout(), "Config", "imported", args[0])
		},
	}
}

// dataBaseDir is the directory relative data sources are resolved against:
// the script's directory, or the working directory when no script is set.
func dataBaseDir(cfg model.Config) string {
	if cfg.ScriptPath != "" {
		return filepath.Dir(cfg.ScriptPath)
	}
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return wd
}

// configView is the JSON output structure for a config. Keys match the
// stored file, with the window mode spelled out.
type configView struct {
	Path          string   `json:"path"`
	PythonPath    string   `json:"python_path"`
	ScriptPath    string   `json:"script_path"`
	OutputPath    string   `json:"output_path"`
	ResolvedOut   string   `json:"resolved_output_path,omitempty"`
	IconPath      string   `json:"icon_path"`
	OneFile       bool     `json:"onefile"`
	WindowMode    string   `json:"window_mode"`
	Clean         bool     `json:"clean"`
	NoConfirm     bool     `json:"no_confirm"`
	AutoSave      bool     `json:"auto_save"`
	ExtraArgs     string   `json:"extra_args"`
	DataFiles     []string `json:"data_files"`
	HiddenImports []string `json:"hidden_imports"`
}

func newConfigView(path string, cfg model.Config) configView {
	view := configView{
		Path:          path,
		PythonPath:    cfg.InterpreterPath,
		ScriptPath:    cfg.ScriptPath,
		OutputPath:    cfg.OutputDir,
		IconPath:      cfg.IconPath,
		OneFile:       cfg.OneFile,
		WindowMode:    cfg.WindowMode.String(),
		Clean:         cfg.Clean,
		NoConfirm:     cfg.NoConfirm,
		AutoSave:      cfg.AutoSaveOnExit,
		ExtraArgs:     cfg.ExtraArgs,
		DataFiles:     make([]string, 0, len(cfg.DataEntries)),
		HiddenImports: make([]string, 0, len(cfg.HiddenImports)),
	}
	if cfg.ScriptPath != "" {
		view.ResolvedOut = cfg.ResolvedOutputDir()
	}
	for _, entry := range cfg.DataEntries {
		view.DataFiles = append(view.DataFiles, entry.String())
	}
	view.HiddenImports = append(view.HiddenImports, cfg.HiddenImports...)
	return view
}

// printConfig outputs a config as JSON or as a two-column table.
func printConfig(w io.Writer, path string, cfg model.Config) error {
	view := newConfigView(path, cfg)
	if IsJSONOutput() {
		return printJSON(w, view)
	}
	_, err := fmt.Fprintln(w, renderConfigTable(view))
	return err
}

// renderConfigTable renders a config view as a rounded key/value table.
//
//	╭────────────────┬──────────────────────╮
//	│ FIELD          │ VALUE                │
//	├────────────────┼──────────────────────┤
//	│ script_path    │ /work/app/main.py    │
//	│ ...            │ ...                  │
//	╰────────────────┴──────────────────────╯
func renderConfigTable(view configView) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Field", "Value"})

	output := displayValue(view.OutputPath)
	if view.OutputPath == "" && view.ResolvedOut != "" {
		output = view.ResolvedOut + " (default)"
	}

	tw.AppendRows([]table.Row{
		{"config", view.Path},
		{"python_path", displayValue(view.PythonPath)},
		{"script_path", displayValue(view.ScriptPath)},
		{"output_path", output},
		{"icon_path", displayValue(view.IconPath)},
		{"onefile", view.OneFile},
		{"window_mode", view.WindowMode},
		{"clean", view.Clean},
		{"no_confirm", view.NoConfirm},
		{"auto_save", view.AutoSave},
		{"extra_args", displayValue(view.ExtraArgs)},
		{"data_files", displayList(view.DataFiles)},
		{"hidden_imports", displayList(view.HiddenImports)},
	})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

// displayValue returns "-" for empty strings.
func displayValue(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// displayList renders a list one item per line, or "-" when empty.
func displayList(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, "\n")
}

// printAdded reports the entries appended by add-data or add-hidden.
func printAdded(w io.Writer, field string, values []string) error {
	if IsJSONOutput() {
		return printJSON(w, map[string]interface{}{"added": map[string][]string{field: values}})
	}
	for _, v := range values {
		if _, err := fmt.Fprintf(w, "Added %s: %s\n", field, v); err != nil {
			return err
		}
	}
	return nil
}

// printPathResult reports the file a command wrote or read.
func printPathResult(w io.Writer, subject, action, path string) error {
	if IsJSONOutput() {
		return printJSON(w, map[string]string{action: path})
	}
	_, err := fmt.Fprintf(w, "%s %s: %s\n", subject, action, path)
	return err
}

