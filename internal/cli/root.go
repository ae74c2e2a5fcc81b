// Package cli implements the cobra-based CLI commands for pyinstaller-packager.
//
// Each subcommand (build, command, config, settings) is defined in its own
// file within this package. This file defines the root command that serves
// as the parent for all subcommands, handles global flags and prepares the
// logger and settings every subcommand runs with.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/pyinstaller-packager/internal/logging"
	"github.com/shinji-kodama/pyinstaller-packager/internal/model"
	"github.com/shinji-kodama/pyinstaller-packager/internal/settings"
	"github.com/shinji-kodama/pyinstaller-packager/internal/store"
)

// Global flag variables shared across all subcommands.
// These are bound to cobra persistent flags on the root command,
// which makes them available to every subcommand automatically.
var (
	// jsonOutput controls whether command output is formatted as JSON.
	// In JSON mode the build command streams one JSON object per event.
	jsonOutput bool

	// verbose enables debug logging and [verbose] trace lines on stderr.
	verbose bool

	// configPath overrides the stored packaging config location.
	configPath string

	// settingsPath overrides the application settings file location.
	settingsPath string
)

// Version, Commit, and Date are set at build time via ldflags.
// They are injected from the main package to display version information.
var (
	// Version is the semantic version of the binary (e.g., "1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// appSettings holds the settings loaded by the root command's
// PersistentPreRunE. Subcommands read it through currentSettings.
var appSettings = settings.Default()

// NewRootCommand creates and configures the root cobra command.
// This is the entry point for the entire CLI application.
//
// The root command itself does not perform any action; it provides help
// text and global flags. Actual functionality is provided by subcommands.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pyinstaller-packager",
		Short: "Package Python scripts into executables with PyInstaller",
		Long: `pyinstaller-packager keeps a packaging configuration for a Python script,
turns it into a PyInstaller command line and runs it under supervision,
streaming the tool's output and an estimated progress.

The configuration is stored per user and can be edited with the config
subcommands, exported and imported.`,

		// SilenceUsage prevents cobra from printing usage on every error.
		SilenceUsage: true,

		// SilenceErrors prevents cobra from printing errors automatically.
		// We format errors ourselves (text or JSON based on --json flag).
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),

		// PersistentPreRunE runs before every subcommand. It loads the
		// settings file and installs the logger into the command context.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initRuntime(cmd)
		},
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Packaging config file (default: per-user data directory)")
	rootCmd.PersistentFlags().StringVar(&settingsPath, "settings", "", "Application settings file (default: per-user config directory)")

	rootCmd.AddCommand(NewBuildCommand())
	rootCmd.AddCommand(NewCommandCommand())
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewSettingsCommand())

	return rootCmd
}

// initRuntime loads settings and builds the logger for the invoked command.
func initRuntime(cmd *cobra.Command) error {
	s, path, exists, err := settings.Load(settingsPath)
	if err != nil {
		return model.WrapCLIError(model.ExitConfigError, "failed to load settings", err)
	}
	appSettings = s

	logger, err := logging.New(logging.Options{
		Level:   s.LogLevel,
		Format:  s.LogFormat,
		Verbose: verbose,
		Output:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return model.WrapCLIError(model.ExitConfigError, "failed to configure logging", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = logging.ContextAttrs(ctx, slog.String("command", cmd.Name()))
	cmd.SetContext(logging.WithLogger(ctx, logger))

	VerboseLog("Settings: %s (exists: %t)", path, exists)
	return nil
}

// currentSettings returns the settings loaded for this invocation.
func currentSettings() settings.Settings {
	return appSettings
}

// openStore returns the store for --config, or for the per-user default
// location when the flag is not set.
func openStore() (*store.Store, error) {
	path := configPath
	if path == "" {
		var err error
		path, err = store.DefaultPath()
		if err != nil {
			return nil, model.WrapCLIError(model.ExitConfigError, "failed to resolve config location", err)
		}
	}
	VerboseLog("Config: %s", path)
	return store.New(path), nil
}

// loadStoredConfig opens the store and loads its config, falling back to
// defaults when nothing has been saved.
func loadStoredConfig() (*store.Store, model.Config, error) {
	st, err := openStore()
	if err != nil {
		return nil, model.Config{}, err
	}
	cfg, err := st.LoadOrDefault()
	if err != nil {
		return nil, model.Config{}, storeError("failed to load config", err)
	}
	return st, cfg, nil
}

// storeError wraps a config store failure with its exit code.
func storeError(message string, err error) error {
	return model.WrapCLIError(model.ExitConfigError, message, err)
}

// Execute runs the root command and handles exit codes.
// This is the main entry point called from main.go.
//
// It inspects errors returned by cobra commands and translates them
// into appropriate OS exit codes. CLIError types carry their own
// exit codes; other errors default to exit code 1.
func Execute(rootCmd *cobra.Command) {
	if err := rootCmd.Execute(); err != nil {
		var cliErr *model.CLIError
		if errors.As(err, &cliErr) {
			printError(os.Stderr, cliErr.Message, cliErr.Err)
			os.Exit(int(cliErr.Code))
		}

		printError(os.Stderr, err.Error(), nil)
		os.Exit(int(model.ExitGeneralError))
	}
}

// printError outputs an error message in the appropriate format
// (JSON or text) based on the --json global flag.
func printError(w io.Writer, message string, underlying error) {
	if jsonOutput {
		errObj := map[string]interface{}{
			"error": map[string]interface{}{
				"message": message,
			},
		}
		if underlying != nil {
			if errMap, ok := errObj["error"].(map[string]interface{}); ok {
				errMap["detail"] = underlying.Error()
			}
		}
		// Errors go to stderr even in JSON mode; stdout is reserved for
		// successful command output.
		data, _ := json.MarshalIndent(errObj, "", "  ")
		fmt.Fprintln(w, string(data))
		return
	}

	if underlying != nil {
		fmt.Fprintf(w, "Error: %s: %v\n", message, underlying)
	} else {
		fmt.Fprintf(w, "Error: %s\n", message)
	}
}

// VerboseLog prints a message to stderr only when verbose mode is enabled.
func VerboseLog(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[verbose] "+format+"\n", args...)
	}
}

// IsJSONOutput returns whether the --json flag is set.
// Subcommands use this to decide their output format.
func IsJSONOutput() bool {
	return jsonOutput
}

// printJSON writes v as indented JSON followed by a newline.
func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
