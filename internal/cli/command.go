// Package cli — command.go implements the "pyinstaller-packager command"
// command, which prints the PyInstaller invocation build would run.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// commandJSON is the JSON output structure for the command subcommand.
type commandJSON struct {
	Program   string   `json:"program"`
	Args      []string `json:"args"`
	Dir       string   `json:"dir"`
	OutputDir string   `json:"output_dir"`
	Display   string   `json:"display"`
}

// NewCommandCommand creates the "command" cobra command.
func NewCommandCommand() *cobra.Command {
	flags := &configFlags{}

	cmd := &cobra.Command{
		Use:   "command",
		Short: "Print the PyInstaller command without running it",
		Long: `Validate the stored configuration and print the PyInstaller command line
that build would run. Like build, it creates the output directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, stored, err := loadStoredConfig()
			if err != nil {
				return err
			}
			cfg, _, err := flags.apply(cmd, stored)
			if err != nil {
				return err
			}
			pkgCmd, err := prepareCommand(cfg)
			if err != nil {
				return err
			}

			if IsJSONOutput() {
				return printJSON(cmd.OutOrStdout(), commandJSON{
					Program:   pkgCmd.Program,
					Args:      pkgCmd.Args,
					Dir:       pkgCmd.Dir,
					OutputDir: pkgCmd.OutputDir,
					Display:   pkgCmd.String(),
				})
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), pkgCmd.String())
			return err
		},
	}
	flags.register(cmd)
	return cmd
}
