package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSize    string `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Daily      bool   `mapstructure:"daily"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level"`
	Path       string            `mapstructure:"path"`
	Rotation   RotationConfig    `mapstructure:"rotation"`
	Components map[string]string `mapstructure:"components"`
}

// NamespaceConfig declares the path prefixes and file names owned by the
// managed bundle. Everything outside them is never touched.
type NamespaceConfig struct {
	Prefixes []string `mapstructure:"prefixes"`
	Files    []string `mapstructure:"files"`
}

// UpdateConfig configures version resolution for the update command.
type UpdateConfig struct {
	Registry string `mapstructure:"registry"`
	Package  string `mapstructure:"package"`
}

// Config represents the application configuration.
type Config struct {
	Namespace NamespaceConfig `mapstructure:"namespace"`
	Update    UpdateConfig    `mapstructure:"update"`
	Backup    struct {
		Dir  string `mapstructure:"dir"`
		Keep int    `mapstructure:"keep"`
	} `mapstructure:"backup"`
	Journal struct {
		Enabled       bool   `mapstructure:"enabled"`
		Path          string `mapstructure:"path"`
		RetentionDays int    `mapstructure:"retention_days"`
	} `mapstructure:"journal"`
	Cache struct {
		Enabled bool   `mapstructure:"enabled"`
		Path    string `mapstructure:"path"`
	} `mapstructure:"cache"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// Load loads configuration from file and environment variables.
// Config file locations (in order of precedence):
//   - $XDG_CONFIG_HOME/loadout/config.yaml
//   - $HOME/.config/loadout/config.yaml
//
// Environment variables are prefixed with LOADOUT_ (e.g., LOADOUT_UPDATE_REGISTRY).
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		v.AddConfigPath(filepath.Join(xdgConfigHome, "loadout"))
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}
	v.AddConfigPath(filepath.Join(homeDir, ".config", "loadout"))

	v.SetEnvPrefix("LOADOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is acceptable; we use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Expand ~ in persisted paths if present
	for _, p := range []*string{&cfg.Backup.Dir, &cfg.Journal.Path, &cfg.Cache.Path} {
		if strings.HasPrefix(*p, "~") {
			*p = filepath.Join(homeDir, (*p)[1:])
		}
	}

	return &cfg, nil
}

// SetDefaults registers default values on the given viper instance.
// The CLI shares this with Load so flag-bound and file-bound lookups agree.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("namespace.prefixes", DefaultNamespacePrefixes)
	v.SetDefault("namespace.files", DefaultNamespaceFiles)

	v.SetDefault("update.registry", DefaultRegistry)
	v.SetDefault("update.package", DefaultPackageName)

	v.SetDefault("backup.dir", DefaultBackupDir())
	v.SetDefault("backup.keep", DefaultBackupKeep)

	v.SetDefault("journal.enabled", true)
	v.SetDefault("journal.path", DefaultJournalDir())
	v.SetDefault("journal.retention_days", DefaultRetentionDays)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.path", DefaultCacheDir())

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "") // Empty means use logging.DefaultLogPath
	v.SetDefault("logging.rotation.max_size", "10MB")
	v.SetDefault("logging.rotation.max_age", 30)
	v.SetDefault("logging.rotation.max_backups", 5)
	v.SetDefault("logging.rotation.daily", true)
	v.SetDefault("logging.components", map[string]string{
		"installer": "info",
		"health":    "info",
		"uninstall": "info",
		"repair":    "info",
		"update":    "info",
	})
}

// ConfigDir returns the configuration directory path for the loadout CLI
// itself (not the managed installation root).
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "loadout"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", "loadout"), nil
}

// DefaultBackupDir returns the default root for uninstall backup snapshots.
func DefaultBackupDir() string {
	return filepath.Join(xdg.StateHome, "loadout", "backups")
}

// DefaultJournalDir returns the default directory for operation journal entries.
func DefaultJournalDir() string {
	return filepath.Join(xdg.StateHome, "loadout", "journal")
}

// DefaultCacheDir returns the default directory for the hash cache.
func DefaultCacheDir() string {
	return filepath.Join(xdg.CacheHome, "loadout", "hashes")
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return nil
}

// WriteDefault writes a default config file if none exists.
// Returns nil if a config file already exists.
func WriteDefault() error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}

	configDir, err := ConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.yaml")

	if _, err := os.Stat(configPath); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to check config file: %w", err)
	}

	defaultConfig := fmt.Sprintf(`# Loadout Configuration

# Path prefixes and file names owned by the managed bundle.
# Anything outside the namespace is never modified.
namespace:
  prefixes:
    - workflows/
    - commands/
    - agents/
  files:
    - loadout-manifest.json
    - .loadout-version

# Registry used by the update command for version lookups
update:
  registry: %s
  package: "%s"

# Backup snapshots written by uninstall --backup
backup:
  dir: %s
  keep: %d

# Operation journal (install/uninstall/repair/update history)
journal:
  enabled: true
  path: %s
  retention_days: %d

# Content-hash cache used to speed up repeated health checks
cache:
  enabled: true
  path: %s

# Logging configuration
logging:
  # Log level: debug, info, warn, error
  level: info
  # Log file path (empty means use default: $XDG_STATE_HOME/loadout/loadout.log)
  path: ""
  rotation:
    max_size: 10MB
    max_age: 30       # days
    max_backups: 5
    daily: true
  # Per-component log levels
  components:
    installer: info
    health: info
    uninstall: info
    repair: info
    update: info
`, DefaultRegistry, DefaultPackageName, DefaultBackupDir(), DefaultBackupKeep,
		DefaultJournalDir(), DefaultRetentionDays, DefaultCacheDir())

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("failed to write default config: %w", err)
	}

	return nil
}

// ExpandPath expands ~ in a path to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, path[1:]), nil
}
