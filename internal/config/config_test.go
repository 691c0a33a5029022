package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/keagan/reelcut/internal/export"
	"github.com/keagan/reelcut/pkg/mediatime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reelcut.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefaultsAreValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, export.PresetTikTok, cfg.Export.Preset)
	assert.Equal(t, export.DefaultProgressInterval, cfg.Export.ProgressInterval)
	assert.True(t, cfg.Editor.SnapThreshold.Equal(mediatime.Milliseconds(100)))
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
concurrency: 8
ffmpeg:
  binary_path: /opt/ffmpeg/bin/ffmpeg
  threads: 2
export:
  preset: youtube-shorts
  quality: high
  progress_interval: 150ms
editor:
  snap_threshold: "1/30"
log:
  file: /tmp/reelcut.log
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.Equal(t, "/opt/ffmpeg/bin/ffmpeg", cfg.FFmpeg.BinaryPath)
	assert.Equal(t, "ffprobe", cfg.FFmpeg.ProbePath)
	assert.Equal(t, 2, cfg.FFmpeg.Threads)
	assert.Equal(t, export.PresetYouTubeShorts, cfg.Export.Preset)
	assert.Equal(t, "high", cfg.Export.Quality)
	assert.Equal(t, 150*time.Millisecond, cfg.Export.ProgressInterval)
	assert.True(t, cfg.Editor.SnapThreshold.Equal(mediatime.New(1, 30)))
	assert.Equal(t, "/tmp/reelcut.log", cfg.Log.File)
	assert.Equal(t, 20, cfg.Log.MaxSizeMB)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"interval too long", "export:\n  progress_interval: 500ms\n"},
		{"interval zero", "export:\n  progress_interval: 0s\n"},
		{"unknown preset", "export:\n  preset: vine\n"},
		{"unknown quality", "export:\n  quality: ultra\n"},
		{"negative snap", "editor:\n  snap_threshold: \"-0.5\"\n"},
		{"bad custom preset", "export:\n  preset: custom\n  custom:\n    width: 1081\n"},
		{"malformed", "export: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvFFmpeg, "/usr/local/bin/ffmpeg")
	t.Setenv(EnvFFprobe, "/usr/local/bin/ffprobe")
	t.Setenv(EnvThreads, "6")
	t.Setenv(EnvLogFile, "/var/log/reelcut.log")

	cfg, err := Load(writeConfig(t, "ffmpeg:\n  binary_path: ffmpeg\n"))
	require.NoError(t, err)
	assert.Equal(t, "/usr/local/bin/ffmpeg", cfg.FFmpeg.BinaryPath)
	assert.Equal(t, "/usr/local/bin/ffprobe", cfg.FFmpeg.ProbePath)
	assert.Equal(t, 6, cfg.FFmpeg.Threads)
	assert.Equal(t, "/var/log/reelcut.log", cfg.Log.File)

	t.Setenv(EnvThreads, "many")
	_, err = Load(writeConfig(t, ""))
	assert.Error(t, err)
}

func TestCustomPreset(t *testing.T) {
	cfg := Default()
	p, err := cfg.Preset(export.PresetCustom)
	require.NoError(t, err)
	assert.Equal(t, export.PresetCustom, p.Name)
	assert.Equal(t, 1350, p.Height)
	assert.False(t, p.HasMaxDuration())

	builtin, err := cfg.Preset(export.PresetYouTube)
	require.NoError(t, err)
	assert.Equal(t, 1920, builtin.Width)

	_, err = cfg.Preset("vine")
	assert.ErrorIs(t, err, export.ErrUnknownPreset)
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Export.Preset = export.PresetInstagramFeed
	cfg.Export.ProgressInterval = 50 * time.Millisecond
	cfg.Editor.SnapThreshold = mediatime.New(1, 3)

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Export.Preset, loaded.Export.Preset)
	assert.Equal(t, cfg.Export.ProgressInterval, loaded.Export.ProgressInterval)
	assert.True(t, loaded.Editor.SnapThreshold.Equal(mediatime.New(1, 3)))
	assert.Equal(t, cfg.Export.Custom.Width, loaded.Export.Custom.Width)
}

func TestContext(t *testing.T) {
	cfg := Default()
	cfg.Concurrency = 11

	ctx := WithConfig(context.Background(), cfg)
	assert.Same(t, cfg, FromContext(ctx))
	assert.Equal(t, 4, FromContext(context.Background()).Concurrency)
}
