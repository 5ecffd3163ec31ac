package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Storage backends
const (
	BackendFS  = "fs"
	BackendS3  = "s3"
	BackendGCS = "gcs"
)

type Config struct {
	Audio   AudioConfig   `yaml:"audio"`
	Storage StorageConfig `yaml:"storage"`
	Profile ProfileConfig `yaml:"profile"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Library LibraryConfig `yaml:"library"`
}

type AudioConfig struct {
	DeviceID         string `yaml:"device_id"`
	SampleRate       int    `yaml:"sample_rate"`
	BlockSize        int    `yaml:"block_size"`        // samples
	SilenceThreshold int    `yaml:"silence_threshold"` // peak amplitude, int16 scale
	QueueSize        int    `yaml:"queue_size"`        // blocks
}

type StorageConfig struct {
	Backend   string `yaml:"backend"` // "fs", "s3" or "gcs"
	Dir       string `yaml:"dir"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// ProfileConfig fills the NAME and SURN tags of new recordings.
type ProfileConfig struct {
	Name    string `yaml:"name"`
	Surname string `yaml:"surname"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

type MetricsConfig struct {
	Address string `yaml:"address"` // empty disables the endpoint
}

type LibraryConfig struct {
	CacheSize int `yaml:"cache_size"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Audio: AudioConfig{
			DeviceID:         "",
			SampleRate:       44100,
			BlockSize:        4096,
			SilenceThreshold: 200,
			QueueSize:        64,
		},
		Storage: StorageConfig{
			Backend: BackendFS,
			Dir:     RecordingsPath(),
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       LogPath(),
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Library: LibraryConfig{
			CacheSize: 128,
		},
	}
}

// Load reads the config from disk or returns defaults
func Load() (*Config, error) {
	return LoadFile(configPath())
}

// LoadFile reads path over the defaults. A missing file is not an error.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	return c.SaveFile(configPath())
}

func (c *Config) SaveFile(path string) error {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks every section
func (c *Config) Validate() error {
	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio config: %w", err)
	}
	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage config: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}
	if c.Library.CacheSize < 1 {
		return fmt.Errorf("library config: cache_size must be at least 1, got %d", c.Library.CacheSize)
	}
	return nil
}

func (a *AudioConfig) Validate() error {
	if a.SampleRate < 1 {
		return fmt.Errorf("sample_rate must be positive, got %d", a.SampleRate)
	}
	if a.BlockSize < 1 {
		return fmt.Errorf("block_size must be positive, got %d", a.BlockSize)
	}
	if a.SilenceThreshold < 0 || a.SilenceThreshold > 32768 {
		return fmt.Errorf("silence_threshold must be between 0 and 32768, got %d", a.SilenceThreshold)
	}
	if a.QueueSize < 1 {
		return fmt.Errorf("queue_size must be at least 1, got %d", a.QueueSize)
	}
	return nil
}

func (s *StorageConfig) Validate() error {
	switch s.Backend {
	case BackendFS:
		if s.Dir == "" {
			return fmt.Errorf("dir cannot be empty for the fs backend")
		}
	case BackendS3, BackendGCS:
		if s.Bucket == "" {
			return fmt.Errorf("bucket cannot be empty for the %s backend", s.Backend)
		}
	default:
		return fmt.Errorf("unknown backend %q (valid: fs, s3, gcs)", s.Backend)
	}
	if (s.AccessKey == "") != (s.SecretKey == "") {
		return fmt.Errorf("access_key and secret_key must be set together")
	}
	return nil
}

func (l *LoggingConfig) Validate() error {
	switch l.Level {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid level %q (valid: trace, debug, info, warn, error)", l.Level)
	}
	if l.MaxSizeMB < 1 {
		return fmt.Errorf("max_size_mb must be at least 1, got %d", l.MaxSizeMB)
	}
	if l.MaxBackups < 0 {
		return fmt.Errorf("max_backups cannot be negative, got %d", l.MaxBackups)
	}
	return nil
}

// configPath returns the platform-specific config file path
func configPath() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Application Support"
	case "windows":
		base = os.Getenv("APPDATA")
	default: // linux
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.config"
		}
	}

	return filepath.Join(base, "memo-tray", "config.yaml")
}

// RecordingsPath returns the platform-specific default recordings directory
func RecordingsPath() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Application Support"
	case "windows":
		base = os.Getenv("LOCALAPPDATA")
	default:
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.local/share"
		}
	}

	return filepath.Join(base, "memo-tray", "recordings")
}

// LogPath returns the platform-specific log file path
func LogPath() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Logs"
	case "windows":
		base = os.Getenv("LOCALAPPDATA")
	default:
		if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.local/state"
		}
	}

	return filepath.Join(base, "memo-tray", "memo-tray.log")
}
