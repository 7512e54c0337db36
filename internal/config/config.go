// Package config loads synctidy settings from defaults, an optional YAML
// file and SYNCTIDY_* environment variables.
//
// Precedence, highest first:
//  1. CLI flags (applied by cmd)
//  2. Environment variables (SYNCTIDY_*, plus PD_API_KEY)
//  3. Configuration file
//  4. Default values
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DateLayout is the layout of incidents.since.
const DateLayout = "2006-01-02"

// ErrConfigExists is returned by Init when the file exists and force is off.
var ErrConfigExists = errors.New("config file already exists")

// Config is the full synctidy configuration.
type Config struct {
	Clean     CleanConfig     `mapstructure:"clean" yaml:"clean"`
	Incidents IncidentsConfig `mapstructure:"incidents" yaml:"incidents"`
}

// CleanConfig holds settings for the clean command.
type CleanConfig struct {
	// LogDir holds the rename logs and lock files. "~" expands to home.
	LogDir string `mapstructure:"log_dir" validate:"required" yaml:"log_dir"`

	// MaxSuffix bounds the collision suffixes tried per entry.
	MaxSuffix int `mapstructure:"max_suffix" validate:"gt=0" yaml:"max_suffix"`
}

// IncidentsConfig holds settings for the incidents command.
type IncidentsConfig struct {
	// APIKey is usually supplied through PD_API_KEY rather than the file.
	APIKey    string        `mapstructure:"api_key" yaml:"api_key,omitempty"`
	Email     string        `mapstructure:"email" validate:"omitempty,email" yaml:"email"`
	BaseURL   string        `mapstructure:"base_url" validate:"required,url" yaml:"base_url"`
	Since     string        `mapstructure:"since" validate:"required,datetime=2006-01-02" yaml:"since"`
	OutputDir string        `mapstructure:"output_dir" validate:"required" yaml:"output_dir"`
	Timeout   time.Duration `mapstructure:"timeout" validate:"required,gt=0" yaml:"timeout"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Clean: CleanConfig{
			LogDir:    "~/logs",
			MaxSuffix: 10000,
		},
		Incidents: IncidentsConfig{
			BaseURL:   "https://api.pagerduty.com",
			Since:     "2022-08-22",
			OutputDir: ".",
			Timeout:   30 * time.Second,
		},
	}
}

// Load reads the configuration. An empty configPath searches the default
// location; a missing file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func setupViper(v *viper.Viper, configPath string) {
	// Defaults double as the key list AutomaticEnv needs for Unmarshal.
	def := Default()
	v.SetDefault("clean.log_dir", def.Clean.LogDir)
	v.SetDefault("clean.max_suffix", def.Clean.MaxSuffix)
	v.SetDefault("incidents.api_key", "")
	v.SetDefault("incidents.email", "")
	v.SetDefault("incidents.base_url", def.Incidents.BaseURL)
	v.SetDefault("incidents.since", def.Incidents.Since)
	v.SetDefault("incidents.output_dir", def.Incidents.OutputDir)
	v.SetDefault("incidents.timeout", def.Incidents.Timeout)

	v.SetEnvPrefix("SYNCTIDY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("incidents.api_key", "SYNCTIDY_INCIDENTS_API_KEY", "PD_API_KEY")

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}

	v.AddConfigPath(ConfigDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

func readConfigFile(v *viper.Viper) error {
	err := v.ReadInConfig()
	if err == nil {
		return nil
	}

	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
		return nil
	}

	return fmt.Errorf("failed to read config file: %w", err)
}

// Validate checks the struct tags. Field names in errors use the config
// keys, e.g. "Config.clean.max_suffix".
func Validate(cfg *Config) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("mapstructure"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	return validate.Struct(cfg)
}

// ConfigDir returns $XDG_CONFIG_HOME/synctidy, falling back to
// ~/.config/synctidy, or "." when no home directory is known.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "synctidy")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "synctidy")
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// Save writes cfg as YAML, creating the parent directory. The file is
// owner-only since it may hold an API key.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Init writes the default configuration to path, or to DefaultPath when
// path is empty, and returns the path written.
func Init(path string, force bool) (string, error) {
	if path == "" {
		path = DefaultPath()
	}

	if !force {
		if _, err := os.Stat(path); err == nil {
			return path, fmt.Errorf("%w: %s (use --force to overwrite)", ErrConfigExists, path)
		}
	}

	return path, Save(Default(), path)
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}

	return filepath.Join(home, path[1:]), nil
}
