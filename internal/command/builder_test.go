package command

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/pyinstaller-packager/internal/model"
)

// setupProject creates a temporary project containing app.py and returns
// the project directory and script path.
func setupProject(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	script := filepath.Join(dir, "app.py")
	require.NoError(t, os.WriteFile(script, []byte("print('hi')\n"), 0o644))
	return dir, script
}

// mustValidate validates cfg and fails the test on error.
func mustValidate(t *testing.T, cfg model.Config) model.ValidatedConfig {
	t.Helper()
	v, err := cfg.Validate()
	require.NoError(t, err)
	return v
}

// indexOf returns the position of token in args, or -1.
func indexOf(args []string, token string) int {
	for i, a := range args {
		if a == token {
			return i
		}
	}
	return -1
}

// TestBuild_FullArgumentOrder pins the complete argument order with every
// option enabled.
func TestBuild_FullArgumentOrder(t *testing.T) {
	dir, script := setupProject(t)
	icon := filepath.Join(dir, "my icon.ico")
	require.NoError(t, os.WriteFile(icon, []byte{0}, 0o644))
	out := filepath.Join(dir, "out")

	cfg := model.Config{
		ScriptPath:    script,
		OutputDir:     out,
		IconPath:      icon,
		OneFile:       true,
		WindowMode:    model.WindowWindowed,
		DataEntries:   []model.DataEntry{{Source: "images", Target: "images"}, {Source: "readme.txt", Target: "docs"}},
		HiddenImports: []string{"numpy", "scipy", "numpy"},
		Clean:         true,
		NoConfirm:     true,
		ExtraArgs:     "  --log-level  DEBUG --strip ",
	}

	cmd, err := Build(mustValidate(t, cfg))
	require.NoError(t, err)

	sep := string(os.PathListSeparator)
	assert.Equal(t, ToolName, cmd.Program)
	assert.Equal(t, []string{
		"--onefile",
		"--windowed",
		"--icon", icon,
		"--add-data", "images" + sep + "images",
		"--add-data", "readme.txt" + sep + "docs",
		"--hidden-import", "numpy",
		"--hidden-import", "scipy",
		"--hidden-import", "numpy",
		"--clean",
		"--noconfirm",
		"--log-level", "DEBUG", "--strip",
		"--distpath", out,
		script,
	}, cmd.Args)
	assert.Equal(t, dir, cmd.Dir)
	assert.Equal(t, script, cmd.ScriptPath)
	assert.Equal(t, out, cmd.OutputDir)
}

// TestBuild_MinimalConfig verifies that disabled options emit nothing and
// the output directory falls back to dist/ next to the script.
func TestBuild_MinimalConfig(t *testing.T) {
	dir, script := setupProject(t)

	cmd, err := Build(mustValidate(t, model.Config{ScriptPath: script, WindowMode: model.WindowDefault}))
	require.NoError(t, err)

	dist := filepath.Join(dir, "dist")
	assert.Equal(t, []string{"--distpath", dist, script}, cmd.Args)

	info, statErr := os.Stat(dist)
	require.NoError(t, statErr, "output directory must be created")
	assert.True(t, info.IsDir())
}

// TestBuild_WindowModeFlag checks flag presence and position for each mode.
func TestBuild_WindowModeFlag(t *testing.T) {
	dir, script := setupProject(t)
	icon := filepath.Join(dir, "app.ico")
	require.NoError(t, os.WriteFile(icon, []byte{0}, 0o644))

	t.Run("default emits nothing", func(t *testing.T) {
		cmd, err := Build(mustValidate(t, model.Config{ScriptPath: script, OneFile: true, WindowMode: model.WindowDefault, IconPath: icon}))
		require.NoError(t, err)
		assert.Equal(t, -1, indexOf(cmd.Args, "--windowed"))
		assert.Equal(t, -1, indexOf(cmd.Args, "--console"))
	})

	t.Run("windowed sits between onefile and icon", func(t *testing.T) {
		cmd, err := Build(mustValidate(t, model.Config{ScriptPath: script, OneFile: true, WindowMode: model.WindowWindowed, IconPath: icon}))
		require.NoError(t, err)

		count := 0
		for _, a := range cmd.Args {
			if a == "--windowed" || a == "--console" {
				count++
			}
		}
		assert.Equal(t, 1, count)
		assert.Less(t, indexOf(cmd.Args, "--onefile"), indexOf(cmd.Args, "--windowed"))
		assert.Less(t, indexOf(cmd.Args, "--windowed"), indexOf(cmd.Args, "--icon"))
	})

	t.Run("console", func(t *testing.T) {
		cmd, err := Build(mustValidate(t, model.Config{ScriptPath: script, WindowMode: model.WindowConsole}))
		require.NoError(t, err)
		assert.Equal(t, "--console", cmd.Args[0])
	})
}

// TestBuild_MissingIconSkipped verifies that a non-existent icon is ignored.
func TestBuild_MissingIconSkipped(t *testing.T) {
	dir, script := setupProject(t)
	cmd, err := Build(mustValidate(t, model.Config{ScriptPath: script, IconPath: filepath.Join(dir, "missing.ico")}))
	require.NoError(t, err)
	assert.Equal(t, -1, indexOf(cmd.Args, "--icon"))
}

// TestBuild_EmptyDataTarget uses the bundle root for entries without target.
func TestBuild_EmptyDataTarget(t *testing.T) {
	_, script := setupProject(t)
	cmd, err := Build(mustValidate(t, model.Config{ScriptPath: script, DataEntries: []model.DataEntry{{Source: "assets"}}}))
	require.NoError(t, err)
	assert.Equal(t, "assets"+string(os.PathListSeparator)+".", cmd.Args[indexOf(cmd.Args, "--add-data")+1])
}

// TestBuild_Interpreter verifies the "-m PyInstaller" preamble.
func TestBuild_Interpreter(t *testing.T) {
	dir, script := setupProject(t)
	python := filepath.Join(dir, "python3")
	require.NoError(t, os.WriteFile(python, []byte{0}, 0o755))

	cmd, err := Build(mustValidate(t, model.Config{ScriptPath: script, InterpreterPath: python, OneFile: true}))
	require.NoError(t, err)
	assert.Equal(t, python, cmd.Program)
	assert.Equal(t, []string{"-m", ToolModule, "--onefile"}, cmd.Args[:3])
	assert.Equal(t, script, cmd.Args[len(cmd.Args)-1])
}

// TestBuild_Deterministic verifies identical input yields identical output.
func TestBuild_Deterministic(t *testing.T) {
	_, script := setupProject(t)
	cfg := model.Config{
		ScriptPath:    script,
		OneFile:       true,
		WindowMode:    model.WindowConsole,
		DataEntries:   []model.DataEntry{{Source: "a", Target: "b"}},
		HiddenImports: []string{"x"},
		ExtraArgs:     "--strip",
	}
	v := mustValidate(t, cfg)

	first, err := Build(v)
	require.NoError(t, err)
	second, err := Build(v)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

// TestBuild_OutputDirCreateFailed verifies the error when the output path
// runs through an existing regular file.
func TestBuild_OutputDirCreateFailed(t *testing.T) {
	dir, script := setupProject(t)
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte{0}, 0o644))

	_, err := Build(mustValidate(t, model.Config{ScriptPath: script, OutputDir: filepath.Join(blocker, "dist")}))
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrOutputDirCreateFailed)
}

// TestCommand_String quotes whitespace-bearing tokens for display.
func TestCommand_String(t *testing.T) {
	cmd := Command{Program: "pyinstaller", Args: []string{"--icon", "/my dir/app.ico", "main.py"}}
	assert.Equal(t, `pyinstaller --icon "/my dir/app.ico" main.py`, cmd.String())
	assert.Equal(t, []string{"pyinstaller", "--icon", "/my dir/app.ico", "main.py"}, cmd.Argv())
}

// TestBuild_RelativePaths resolves script, icon and output paths against
// the caller's working directory, since the child runs in the script's
// directory. Data sources keep their script-relative form.
func TestBuild_RelativePaths(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	require.NoError(t, os.MkdirAll("app", 0o755))
	require.NoError(t, os.WriteFile(filepath.Join("app", "main.py"), []byte("print('hi')\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join("app", "app.ico"), []byte{0}, 0o644))

	appDir, err := filepath.Abs("app")
	require.NoError(t, err)

	cfg := model.Config{
		ScriptPath:  filepath.Join("app", "main.py"),
		IconPath:    filepath.Join("app", "app.ico"),
		DataEntries: []model.DataEntry{{Source: "images", Target: "images"}},
	}
	cmd, err := Build(mustValidate(t, cfg))
	require.NoError(t, err)

	script := filepath.Join(appDir, "main.py")
	dist := filepath.Join(appDir, "dist")
	assert.Equal(t, appDir, cmd.Dir)
	assert.Equal(t, script, cmd.ScriptPath)
	assert.Equal(t, dist, cmd.OutputDir)
	assert.Equal(t, script, cmd.Args[len(cmd.Args)-1])
	assert.Equal(t, dist, cmd.Args[indexOf(cmd.Args, "--distpath")+1])
	assert.Equal(t, filepath.Join(appDir, "app.ico"), cmd.Args[indexOf(cmd.Args, "--icon")+1])
	assert.Equal(t, "images"+string(os.PathListSeparator)+"images", cmd.Args[indexOf(cmd.Args, "--add-data")+1])

	assert.FileExists(t, cmd.Args[len(cmd.Args)-1])
	assert.DirExists(t, dist)
}
