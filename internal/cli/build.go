// Package cli — build.go implements the "pyinstaller-packager build" command.
//
// The build command is the primary user-facing operation. It orchestrates a
// full packaging session:
//  1. Load the stored config and apply any flags given on the command line
//  2. Validate it and build the PyInstaller command (creating the output dir)
//  3. Start the job under the process supervisor
//  4. Render events until the job finishes, cancelling on Ctrl-C
//  5. Save the config back when auto_save is enabled
//  6. Report the output directory, or map the outcome to an exit code
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/shinji-kodama/pyinstaller-packager/internal/command"
	"github.com/shinji-kodama/pyinstaller-packager/internal/logging"
	"github.com/shinji-kodama/pyinstaller-packager/internal/model"
	"github.com/shinji-kodama/pyinstaller-packager/internal/store"
	"github.com/shinji-kodama/pyinstaller-packager/internal/supervisor"
)

// installHint is appended to launch failures; the usual cause is that
// PyInstaller is not installed for the chosen interpreter.
const installHint = "is PyInstaller installed? try: pip install pyinstaller"

// NewBuildCommand creates the "build" cobra command.
func NewBuildCommand() *cobra.Command {
	flags := &configFlags{}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Run PyInstaller with the stored configuration",
		Long: `Validate the stored configuration, build the PyInstaller command line and
run it, streaming its output and an estimated progress. Press Ctrl-C to
cancel: PyInstaller is asked to stop, killed if it does not, and its
intermediate build directory is removed.

Flags override the stored configuration for this run. When auto_save is
enabled, the configuration used is saved back when the session ends.

Examples:
  pyinstaller-packager build
  pyinstaller-packager build --script ./main.py --window-mode windowed
  pyinstaller-packager --json build`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, flags)
		},
	}
	flags.register(cmd)
	return cmd
}

// buildResult is the JSON summary printed when a build succeeds.
type buildResult struct {
	JobID     string `json:"job_id"`
	Command   string `json:"command"`
	OutputDir string `json:"output_dir"`
	Duration  string `json:"duration"`
}

func runBuild(cmd *cobra.Command, flags *configFlags) error {
	ctx := cmd.Context()
	logger := logging.FromContext(ctx)
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

	st, stored, err := loadStoredConfig()
	if err != nil {
		return err
	}
	cfg, _, err := flags.apply(cmd, stored)
	if err != nil {
		return err
	}

	// Auto-save runs on every outcome, including validation and launch
	// failures.
	defer autoSave(logger, st, cfg)

	pkgCmd, err := prepareCommand(cfg)
	if err != nil {
		return err
	}
	logger.Info("packaging command", "command", pkgCmd.String())
	VerboseLog("Working directory: %s", pkgCmd.Dir)

	sup, err := supervisor.New(currentSettings().Supervisor(), supervisor.WithLogger(logger))
	if err != nil {
		return model.WrapCLIError(model.ExitConfigError, "invalid supervisor settings", err)
	}

	// From here on an interrupt cancels: during the launch wait it aborts
	// the launch, afterwards it cancels the job.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	handle, err := sup.Start(ctx, pkgCmd)
	if err != nil {
		if ctx.Err() != nil {
			return model.WrapCLIError(model.ExitCancelled, "packaging cancelled", err)
		}
		return model.WrapCLIError(model.ExitLaunchError, "failed to launch PyInstaller ("+installHint+")", err)
	}
	ctx = logging.ContextAttrs(ctx, slog.String("job_id", handle.ID))
	logger.DebugContext(ctx, "job started", "pid", handle.PID)

	var renderer eventRenderer
	if IsJSONOutput() {
		renderer = newJSONRenderer(out)
	} else {
		renderer = newTextRenderer(out, errOut)
	}

	finished, err := superviseJob(ctx, sup, handle, renderer, logger)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "build session failed", err)
	}
	return reportOutcome(out, pkgCmd, handle, finished)
}

// prepareCommand validates cfg and builds the PyInstaller command.
func prepareCommand(cfg model.Config) (command.Command, error) {
	validated, err := cfg.Validate()
	if err != nil {
		return command.Command{}, model.WrapCLIError(model.ExitValidationError, "invalid configuration", err)
	}
	pkgCmd, err := command.Build(validated)
	if err != nil {
		return command.Command{}, model.WrapCLIError(model.ExitValidationError, "cannot prepare output directory", err)
	}
	return pkgCmd, nil
}

// superviseJob renders events until the job finishes while a second
// goroutine turns the end of ctx (an interrupt) into a cancellation.
func superviseJob(ctx context.Context, sup *supervisor.Supervisor, handle supervisor.JobHandle, renderer eventRenderer, logger *slog.Logger) (supervisor.JobFinished, error) {
	var finished supervisor.JobFinished
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for ev := range sup.Events() {
			if ev.Job() != handle.ID {
				continue
			}
			if err := renderer.Render(ev); err != nil {
				logger.Debug("render event failed", "error", err)
			}
			if f, ok := ev.(supervisor.JobFinished); ok {
				finished = f
				return nil
			}
		}
		return errors.New("event stream closed")
	})

	g.Go(func() error {
		select {
		case <-handle.Done():
			return nil
		case <-gctx.Done():
		}
		logger.Info("cancellation requested")
		// Bounded by the kill escalation; the extra margin covers cleanup.
		cancelCtx, cancel := context.WithTimeout(context.Background(), cancelTimeout())
		defer cancel()
		return sup.Cancel(cancelCtx)
	})

	err := g.Wait()
	if closeErr := renderer.Close(); closeErr != nil {
		logger.Debug("close renderer failed", "error", closeErr)
	}
	return finished, err
}

// cancelTimeout bounds how long a cancellation may take end to end.
func cancelTimeout() time.Duration {
	return currentSettings().Supervisor().TerminateTimeout*2 + 5*time.Second
}

// reportOutcome prints the result of a finished job and maps failures and
// cancellations to exit codes.
func reportOutcome(w io.Writer, pkgCmd command.Command, handle supervisor.JobHandle, finished supervisor.JobFinished) error {
	switch {
	case finished.Cancelled:
		return model.NewCLIError(model.ExitCancelled, "packaging cancelled")
	case !finished.Success:
		return model.WrapCLIError(model.ExitJobFailed,
			fmt.Sprintf("packaging failed (exit code %d)", finished.ExitCode), finished.Err)
	}

	duration := finished.Time.Sub(handle.StartedAt).Round(time.Millisecond)
	if IsJSONOutput() {
		return printJSON(w, map[string]buildResult{"result": {
			JobID:     handle.ID,
			Command:   pkgCmd.String(),
			OutputDir: pkgCmd.OutputDir,
			Duration:  duration.String(),
		}})
	}

	if info, err := os.Stat(pkgCmd.OutputDir); err == nil && info.IsDir() {
		_, err := fmt.Fprintf(w, "Packaging finished in %s. Output: %s\n", duration, pkgCmd.OutputDir)
		return err
	}
	_, err := fmt.Fprintf(w, "Packaging finished in %s.\n", duration)
	return err
}

// autoSave stores cfg when the session's config asks for it. Failures are
// logged; they never change the build's outcome.
func autoSave(logger *slog.Logger, st *store.Store, cfg model.Config) {
	if !cfg.AutoSaveOnExit {
		return
	}
	if err := st.Save(cfg); err != nil {
		logger.Warn("auto-save failed", "path", st.Path(), "error", err)
		return
	}
	VerboseLog("Config saved to %s", st.Path())
}
