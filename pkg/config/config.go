// Package config loads and validates the backup configuration: logging,
// metrics, and the per-bucket backup policies that drive the planner.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (ZFSGLACIER_*)
//  2. Configuration file (YAML)
//  3. Default values (lowest priority)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/andaag/zfs-to-glacier/internal/bytesize"
	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration document.
type Config struct {
	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Metrics controls the optional Prometheus metrics HTTP server.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// Upload controls Upload Engine tuning knobs that are safe to expose
	// without violating the part-size invariants in spec.md §3/§4.4.1.
	Upload UploadConfig `mapstructure:"upload" yaml:"upload"`

	// Backups is the list of per-bucket backup policies (spec.md §3
	// BackupPolicy). Each entry names a pool-path pattern, a destination
	// bucket, and full/incremental tier policies.
	Backups []BackupPolicy `mapstructure:"configs" yaml:"configs" validate:"required,min=1,dive"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output.
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive).
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format is the log output format: text or json.
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output is stdout, stderr, or a file path.
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// MetricsConfig configures the Prometheus metrics HTTP server.
// When Enabled is false, no HTTP listener is started (zero overhead).
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr    string `mapstructure:"addr" yaml:"addr"`
}

// UploadConfig tunes the Upload Engine without touching its invariants.
type UploadConfig struct {
	// MinPartSize is the starting point for the part-size doubling search
	// in spec.md §4.4.1. The spec fixes this at 8 MiB; this field lets an
	// operator raise the floor (never lower it) for stores with a smaller
	// effective part-count ceiling than S3's 10000.
	MinPartSize bytesize.ByteSize `mapstructure:"min_part_size" yaml:"min_part_size,omitempty"`
}

// TierPolicy controls how one snapshot tier (full or incremental) is matched
// and tagged. Mirrors spec.md §3 BackupPolicy.TierPolicy.
type TierPolicy struct {
	SnapshotPattern string `mapstructure:"snapshot_regex" yaml:"snapshot_regex" validate:"required"`
	StorageClass    string `mapstructure:"storage_class" yaml:"storage_class" validate:"required,oneof=STANDARD Glacier DeepArchive StandardInfrequentAccess"`
	ExpireDays      int64  `mapstructure:"expire_in_days" yaml:"expire_in_days" validate:"gte=0"`

	re *regexSnapshot
}

// BackupPolicy is a per-bucket backup configuration. Mirrors spec.md §3.
type BackupPolicy struct {
	PoolPattern string     `mapstructure:"pool_regex" yaml:"pool_regex" validate:"required"`
	Bucket      string     `mapstructure:"bucket" yaml:"bucket" validate:"required"`
	Incremental TierPolicy `mapstructure:"incremental" yaml:"incremental" validate:"required"`
	Full        TierPolicy `mapstructure:"full" yaml:"full" validate:"required"`

	pool *regexSnapshot
}

// Load loads configuration from file, environment, and defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("no configuration file found; run 'zfs-to-glacier init' first")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	if err := compilePatterns(&cfg); err != nil {
		return nil, fmt.Errorf("invalid pattern in configuration: %w", err)
	}

	return &cfg, nil
}

// Watch invokes onChange every time the loaded config file is modified on
// disk, re-loading and re-validating it first. It never calls onChange with
// an invalid config. A change that fails to decode, validate or compile is
// dropped without being reported: onChange is not called and nothing is
// logged. The returned error covers only the initial read of the file.
func Watch(configPath string, onChange func(*Config)) error {
	v := viper.New()
	setupViper(v, configPath)
	if _, err := readConfigFile(v); err != nil {
		return err
	}

	v.OnConfigChange(func(_ fsnotify.Event) {
		var cfg Config
		if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
			return
		}
		ApplyDefaults(&cfg)
		if err := Validate(&cfg); err != nil {
			return
		}
		if err := compilePatterns(&cfg); err != nil {
			return
		}
		onChange(&cfg)
	})
	v.WatchConfig()
	return nil
}

// Validate runs struct-tag validation over the configuration.
func Validate(cfg *Config) error {
	return validator.New().Struct(cfg)
}

// InitConfig writes a default configuration file to the default location.
// Returns the path written to. Refuses to overwrite an existing file unless
// force is true.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	return path, InitConfigToPath(path, force)
}

// InitConfigToPath writes a default configuration file to the given path.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("refusing to overwrite existing config file: %s (use --force)", path)
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(defaultSampleConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// setupViper configures viper with environment variables and config file
// search settings.
func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("ZFSGLACIER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.AddConfigPath(getConfigDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

// readConfigFile reads the configuration file if it exists. Returns
// (fileFound, error).
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

// configDecodeHooks returns the combined decode hook for custom types.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		durationDecodeHook(),
	)
}

func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return bytesize.ParseByteSize(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns $XDG_CONFIG_HOME/zfs-to-glacier, or
// ~/.config/zfs-to-glacier, or "." if the home directory can't be resolved.
func getConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "zfs-to-glacier")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "zfs-to-glacier")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists reports whether a config file exists at the default
// location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}
