package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// FilePermissions is the default permission mode for regular files (read/write for owner, read for others)
	FilePermissions = 0644
	// DirPermissions is the default permission mode for directories (rwxr-xr-x)
	DirPermissions = 0755

	// AppName names the data directory and the default User-Agent
	AppName = "setu"
	// Version is reported in the default User-Agent
	Version = "0.1.0"

	// DefaultHistoryMaxEntries caps the history log when settings don't say otherwise
	DefaultHistoryMaxEntries = 500
)

var (
	// DataDir is the per-user data directory (~/.local/share/setu on Linux)
	DataDir string

	// HistoryFile is the history log document
	HistoryFile string

	// CollectionsFile is the collections document
	CollectionsFile string

	// DatabasePath is the SQLite database used for analytics
	DatabasePath string

	// SettingsFile is the optional YAML settings file
	SettingsFile string

	// LogFile receives log output while the TUI owns the terminal
	LogFile string

	// KeybindsFile optionally overrides the TUI key bindings
	KeybindsFile string
)

// Settings holds user-tunable behaviour loaded from settings.yaml.
type Settings struct {
	HistoryMaxEntries int           `yaml:"history_max_entries"`
	UserAgent         string        `yaml:"user_agent"`
	AnalyticsEnabled  bool          `yaml:"analytics_enabled"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
}

// DefaultSettings returns the settings used when no file exists.
func DefaultSettings() Settings {
	return Settings{
		HistoryMaxEntries: DefaultHistoryMaxEntries,
		UserAgent:         DefaultUserAgent(),
		AnalyticsEnabled:  true,
	}
}

// DefaultUserAgent is sent when a request carries no User-Agent header.
func DefaultUserAgent() string {
	return "Setu/" + Version
}

// DefaultDataDir resolves the platform data directory.
// $XDG_DATA_HOME wins everywhere; Linux falls back to ~/.local/share,
// other platforms to os.UserConfigDir.
func DefaultDataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}

	if runtime.GOOS == "linux" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(homeDir, ".local", "share", AppName), nil
	}

	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return filepath.Join(base, AppName), nil
}

// Initialize sets the global paths under dataDir (DefaultDataDir when empty)
// and creates the directory if it doesn't exist
func Initialize(dataDir string) error {
	if dataDir == "" {
		dir, err := DefaultDataDir()
		if err != nil {
			return err
		}
		dataDir = dir
	}

	DataDir = dataDir
	HistoryFile = filepath.Join(DataDir, "history.json")
	CollectionsFile = filepath.Join(DataDir, "collections.json")
	DatabasePath = filepath.Join(DataDir, "analytics.db")
	SettingsFile = filepath.Join(DataDir, "settings.yaml")
	LogFile = filepath.Join(DataDir, "setu.log")
	KeybindsFile = filepath.Join(DataDir, "keybinds.json")

	if err := os.MkdirAll(DataDir, DirPermissions); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", DataDir, err)
	}

	return nil
}

// LoadSettings reads the settings file at path. A missing file yields the
// defaults; fields absent from the file keep their default values.
func LoadSettings(path string) (Settings, error) {
	settings := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return settings, fmt.Errorf("failed to read settings: %w", err)
	}

	if err := yaml.Unmarshal(data, &settings); err != nil {
		return DefaultSettings(), fmt.Errorf("failed to parse settings: %w", err)
	}

	if settings.HistoryMaxEntries <= 0 {
		settings.HistoryMaxEntries = DefaultHistoryMaxEntries
	}
	if settings.UserAgent == "" {
		settings.UserAgent = DefaultUserAgent()
	}
	if settings.RequestTimeout < 0 {
		settings.RequestTimeout = 0
	}

	return settings, nil
}

// SaveSettings writes settings as YAML.
func SaveSettings(path string, settings Settings) error {
	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), DirPermissions); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, data, FilePermissions); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}

	return nil
}
