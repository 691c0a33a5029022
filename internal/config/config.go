package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/keagan/reelcut/internal/export"
	"github.com/keagan/reelcut/internal/session"
	"github.com/keagan/reelcut/pkg/mediatime"
	"gopkg.in/yaml.v3"
)

type contextKey string

const configKey contextKey = "config"

// Environment overrides
const (
	EnvFFmpeg  = "REELCUT_FFMPEG"
	EnvFFprobe = "REELCUT_FFPROBE"
	EnvThreads = "REELCUT_THREADS"
	EnvLogFile = "REELCUT_LOG_FILE"
)

// Config holds all application configuration
type Config struct {
	// Core settings
	WorkDir     string `yaml:"work_dir"`
	TempDir     string `yaml:"temp_dir"`
	Concurrency int    `yaml:"concurrency"`

	// FFmpeg settings
	FFmpeg FFmpegConfig `yaml:"ffmpeg"`

	// Export defaults
	Export ExportConfig `yaml:"export"`

	// Editor settings
	Editor EditorConfig `yaml:"editor"`

	// Log sink
	Log LogConfig `yaml:"log"`
}

type FFmpegConfig struct {
	BinaryPath string `yaml:"binary_path"`
	ProbePath  string `yaml:"probe_path"`
	Threads    int    `yaml:"threads"`
}

type ExportConfig struct {
	Preset           string        `yaml:"preset"`
	Quality          string        `yaml:"quality"`
	ProgressInterval time.Duration `yaml:"progress_interval"`
	OutputDir        string        `yaml:"output_dir"`
	Custom           export.Preset `yaml:"custom"`
}

type EditorConfig struct {
	SnapThreshold mediatime.Time `yaml:"snap_threshold"`
	HistoryLimit  int            `yaml:"history_limit"`
}

type LogConfig struct {
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Load reads configuration from file or returns defaults
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = findConfigFile()
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaultConfig()
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

// Validate rejects settings the export and editor layers cannot honour.
func (c *Config) Validate() error {
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative")
	}
	if c.FFmpeg.Threads < 0 {
		return fmt.Errorf("ffmpeg.threads must not be negative")
	}
	if c.Export.ProgressInterval <= 0 || c.Export.ProgressInterval > export.MaxProgressInterval {
		return fmt.Errorf("export.progress_interval %v must be in (0, %v]", c.Export.ProgressInterval, export.MaxProgressInterval)
	}
	if _, err := c.Preset(c.Export.Preset); err != nil {
		return err
	}
	if _, err := export.ParseQuality(c.Export.Quality); err != nil {
		return err
	}
	if c.Editor.SnapThreshold.Sign() < 0 {
		return fmt.Errorf("editor.snap_threshold must not be negative")
	}
	if c.Editor.HistoryLimit < 0 {
		return fmt.Errorf("editor.history_limit must not be negative")
	}
	return nil
}

// Preset resolves a preset name, including the configured custom preset.
func (c *Config) Preset(name string) (export.Preset, error) {
	if name == export.PresetCustom {
		p := c.Export.Custom
		p.Name = export.PresetCustom
		if p.Label == "" {
			p.Label = "Custom"
		}
		if err := p.Validate(); err != nil {
			return export.Preset{}, err
		}
		return p, nil
	}
	return export.LookupPreset(name)
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvFFmpeg); v != "" {
		c.FFmpeg.BinaryPath = v
	}
	if v := os.Getenv(EnvFFprobe); v != "" {
		c.FFmpeg.ProbePath = v
	}
	if v := os.Getenv(EnvThreads); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvThreads, err)
		}
		c.FFmpeg.Threads = n
	}
	if v := os.Getenv(EnvLogFile); v != "" {
		c.Log.File = v
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		WorkDir:     "./work",
		TempDir:     "./temp",
		Concurrency: 4,
		FFmpeg: FFmpegConfig{
			BinaryPath: "ffmpeg",
			ProbePath:  "ffprobe",
			Threads:    0,
		},
		Export: ExportConfig{
			Preset:           export.PresetTikTok,
			Quality:          string(export.QualityMedium),
			ProgressInterval: export.DefaultProgressInterval,
			OutputDir:        "./exports",
			Custom: export.Preset{
				Width:      1080,
				Height:     1350,
				FrameRate:  30,
				Codec:      export.CodecH264,
				Bitrate:    6_000_000,
				SampleRate: 48000,
				Channels:   2,
			},
		},
		Editor: EditorConfig{
			SnapThreshold: mediatime.Milliseconds(100),
			HistoryLimit:  session.DefaultHistoryLimit,
		},
		Log: LogConfig{
			MaxSizeMB:  20,
			MaxBackups: 3,
			MaxAgeDays: 14,
		},
	}
}

func findConfigFile() string {
	candidates := []string{
		"./reelcut.yaml",
		"./reelcut.yml",
		filepath.Join(os.Getenv("HOME"), ".reelcut", "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return defaultConfig()
}
