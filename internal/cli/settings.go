// Package cli — settings.go implements the "pyinstaller-packager settings"
// command group for the application settings file.
package cli

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/shinji-kodama/pyinstaller-packager/internal/model"
	"github.com/shinji-kodama/pyinstaller-packager/internal/settings"
)

// NewSettingsCommand creates the "settings" command group.
func NewSettingsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect or create the application settings file",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := currentSettings()
			if IsJSONOutput() {
				return printJSON(cmd.OutOrStdout(), s)
			}
			data, err := toml.Marshal(s)
			if err != nil {
				return fmt.Errorf("encode settings: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a settings file with the default values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := settingsPath
			if path == "" {
				path = settings.DefaultPath()
			}
			if _, err := os.Stat(path); err == nil && !force {
				return model.NewCLIError(model.ExitConfigError,
					fmt.Sprintf("settings file already exists: %s (use --force to overwrite)", path))
			}
			if err := settings.Write(path, settings.Default()); err != nil {
				return model.WrapCLIError(model.ExitConfigError, "failed to write settings", err)
			}
			return printPathResult(cmd.OutOrStdout(), "Settings", "written", path)
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing settings file")
	cmd.AddCommand(initCmd)

	return cmd
}
