package command

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shinji-kodama/pyinstaller-packager/internal/model"
)

const (
	// ToolName is the packaging tool's executable, resolved via PATH when no
	// interpreter is configured.
	ToolName = "pyinstaller"

	// ToolModule is the module name passed to "-m" when the tool is run
	// through an explicit interpreter.
	ToolModule = "PyInstaller"
)

// dataSeparator joins source and target in --add-data values. The packaging
// tool uses the platform's path-list separator (";" on Windows, ":" elsewhere).
var dataSeparator = string(os.PathListSeparator)

// Command is a fully resolved invocation of the packaging tool.
type Command struct {
	// Program is the executable to run: the interpreter, or ToolName.
	Program string

	// Args is the ordered argument vector, not including Program.
	Args []string

	// Dir is the working directory for the process: the script's directory.
	Dir string

	// ScriptPath is the entry-point script, kept for post-cancel cleanup.
	ScriptPath string

	// OutputDir is the resolved artifact directory passed via --distpath.
	OutputDir string
}

// Argv returns Program followed by Args.
func (c Command) Argv() []string {
	return append([]string{c.Program}, c.Args...)
}

// String renders the command as a single display line. Tokens containing
// whitespace are quoted so the line can be copied into a shell.
func (c Command) String() string {
	argv := c.Argv()
	parts := make([]string, len(argv))
	for i, token := range argv {
		parts[i] = quoteToken(token)
	}
	return strings.Join(parts, " ")
}

// quoteToken wraps a token in double quotes when it contains whitespace.
func quoteToken(token string) string {
	if token == "" || strings.ContainsAny(token, " \t\n") {
		return `"` + strings.ReplaceAll(token, `"`, `\"`) + `"`
	}
	return token
}

// Build produces the packaging command for a validated config and ensures
// the output directory exists.
//
// Argument order is fixed:
//
//	[-m PyInstaller] --onefile --windowed|--console --icon <path>
//	(--add-data <src><sep><dst>)* (--hidden-import <name>)*
//	--clean --noconfirm <extra args...> --distpath <outputDir> <script>
//
// Each optional flag is present only when its option is set; the icon is
// skipped when the file does not exist. Script, icon, interpreter and
// output paths are made absolute. Returns an error wrapping
// model.ErrOutputDirCreateFailed if the output directory cannot be created.
func Build(validated model.ValidatedConfig) (Command, error) {
	cfg := validated.Config()

	// The child runs in the script's directory. Data sources stay relative
	// to it; every other path is resolved against the caller's directory.
	cfg.ScriptPath = absPath(cfg.ScriptPath)
	if icon := strings.TrimSpace(cfg.IconPath); icon != "" {
		cfg.IconPath = absPath(icon)
	}
	if cfg.InterpreterPath != "" {
		cfg.InterpreterPath = absPath(cfg.InterpreterPath)
	}
	outputDir := absPath(cfg.ResolvedOutputDir())

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return Command{}, fmt.Errorf("%w: %s: %v", model.ErrOutputDirCreateFailed, outputDir, err)
	}

	cmd := Command{
		Program:    ToolName,
		Dir:        filepath.Dir(cfg.ScriptPath),
		ScriptPath: cfg.ScriptPath,
		OutputDir:  outputDir,
	}
	if cfg.InterpreterPath != "" {
		cmd.Program = cfg.InterpreterPath
		cmd.Args = append(cmd.Args, "-m", ToolModule)
	}
	cmd.Args = append(cmd.Args, toolArgs(cfg, outputDir)...)
	return cmd, nil
}

// toolArgs builds the packaging-tool arguments in their fixed order.
func toolArgs(cfg model.Config, outputDir string) []string {
	var args []string

	if cfg.OneFile {
		args = append(args, "--onefile")
	}

	if flag := cfg.WindowMode.Flag(); flag != "" {
		args = append(args, flag)
	}

	if icon := strings.TrimSpace(cfg.IconPath); icon != "" && fileExists(icon) {
		// The path travels as one argv element, so whitespace needs no
		// quoting here; String() quotes it for display.
		args = append(args, "--icon", icon)
	}

	for _, entry := range cfg.DataEntries {
		target := entry.Target
		if target == "" {
			target = "."
		}
		args = append(args, "--add-data", entry.Source+dataSeparator+target)
	}

	for _, name := range cfg.HiddenImports {
		args = append(args, "--hidden-import", name)
	}

	if cfg.Clean {
		args = append(args, "--clean")
	}
	if cfg.NoConfirm {
		args = append(args, "--noconfirm")
	}

	args = append(args, strings.Fields(cfg.ExtraArgs)...)

	args = append(args, "--distpath", outputDir)
	args = append(args, cfg.ScriptPath)
	return args
}

// absPath returns path made absolute against the working directory, or
// path unchanged if the working directory is unknown.
func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
