package shared

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// LogConfig describes the file-logging sink (see NewFileLogger).
type LogConfig struct {
	Filename   string `yaml:"filename"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// DeviceConfig holds host-backend device names. An empty name means "use the
// backend's default device". The engines and the example CLI do not read
// these fields: streams always open on the backend's default device.
type DeviceConfig struct {
	CaptureDevice  string `yaml:"capture_device"`
	PlaybackDevice string `yaml:"playback_device"`
}

// Config is the process-level configuration for a voicecore deployment: which
// profile to negotiate by default, which devices to open, and how to log.
// spec.md is silent on configuration (§1 scopes "packaging, logging
// configuration, and build toolchain" out), but a deployable engine still
// needs one; this mirrors the teacher's YAML-described session config.
type Config struct {
	DefaultProfileID byte         `yaml:"default_profile_id"`
	Devices          DeviceConfig `yaml:"devices"`
	Log              LogConfig    `yaml:"log"`
}

// DefaultConfig returns the configuration used when no file is supplied:
// profile 0x40 (MQ, spec.md §6's default on unprompted call), default
// devices, and a modest rotating log file.
func DefaultConfig() Config {
	return Config{
		DefaultProfileID: 0x40,
		Log: LogConfig{
			Filename:   "voicecore.log",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 7,
			Compress:   false,
		},
	}
}

// LoadConfig reads a YAML configuration file, falling back to DefaultConfig
// for any field the file does not set.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}
