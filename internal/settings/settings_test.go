package settings

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// TestLoad_MissingFile returns defaults and reports the file as absent.
func TestLoad_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)

	s, resolved, exists, err := Load(path)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, path, resolved)
	assert.Equal(t, Default(), s)
}

// TestLoad_PartialFile overrides only the keys present and normalizes case.
func TestLoad_PartialFile(t *testing.T) {
	path := writeSettings(t, "log_level = \" DEBUG \"\noutput_encoding = \"gbk\"\nprogress_tick_ms = 250\n")

	s, _, exists, err := Load(path)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, "debug", s.LogLevel)
	assert.Equal(t, "gbk", s.OutputEncoding)
	assert.Equal(t, 250, s.ProgressTickMillis)
	assert.Equal(t, 5, s.LaunchTimeoutSeconds)
	assert.Equal(t, "text", s.LogFormat)
}

// TestLoad_Invalid covers parse and validation failures.
func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"syntax error", "log_level = \n"},
		{"unknown key", "log_levle = \"info\"\n"},
		{"bad level", "log_level = \"loud\"\n"},
		{"bad format", "log_format = \"xml\"\n"},
		{"zero launch timeout", "launch_timeout_seconds = 0\n"},
		{"negative terminate timeout", "terminate_timeout_seconds = -1\n"},
		{"zero tick", "progress_tick_ms = 0\n"},
		{"zero buffer", "event_buffer = 0\n"},
		{"unknown encoding", "output_encoding = \"klingon-8\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := Load(writeSettings(t, tt.content))
			assert.Error(t, err)
		})
	}
}

// TestWrite_RoundTrip verifies written settings load back unchanged.
func TestWrite_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)
	want := Default()
	want.LogFormat = "json"
	want.TerminateTimeoutSeconds = 9

	require.NoError(t, Write(path, want))
	got, _, exists, err := Load(path)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, want, got)
}

// TestSettings_Supervisor converts units for the supervisor.
func TestSettings_Supervisor(t *testing.T) {
	cfg := Default().Supervisor()
	assert.Equal(t, 5*time.Second, cfg.LaunchTimeout)
	assert.Equal(t, 5*time.Second, cfg.TerminateTimeout)
	assert.Equal(t, 100*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, 256, cfg.EventBuffer)
	assert.Equal(t, "utf-8", cfg.Encoding)
}
