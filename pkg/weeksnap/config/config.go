package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/dustin/go-humanize"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSize    string `mapstructure:"max_size" yaml:"max_size"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	Daily      bool   `mapstructure:"daily" yaml:"daily"`
}

// Validate validates the rotation configuration.
func (c *RotationConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxSize, validation.Required, validation.By(byteSize)),
		validation.Field(&c.MaxAge, validation.Min(0)),
		validation.Field(&c.MaxBackups, validation.Min(0)),
	)
}

// LoggingConfig configures the log file and console mirror.
type LoggingConfig struct {
	Level        string            `mapstructure:"level" yaml:"level"`
	Path         string            `mapstructure:"path" yaml:"path"`
	ConsoleLevel string            `mapstructure:"console_level" yaml:"console_level"`
	Rotation     RotationConfig    `mapstructure:"rotation" yaml:"rotation"`
	Components   map[string]string `mapstructure:"components" yaml:"components,omitempty"`
}

// Validate validates the logging configuration.
func (c *LoggingConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Level, validation.In(toAny(LogLevels)...)),
		validation.Field(&c.ConsoleLevel, validation.In(toAny(LogLevels)...)),
	); err != nil {
		return err
	}
	if err := c.Rotation.Validate(); err != nil {
		return fmt.Errorf("rotation: %w", err)
	}
	for comp, lvl := range c.Components {
		if err := validation.Validate(strings.ToLower(lvl), validation.In(toAny(LogLevels)...)); err != nil {
			return fmt.Errorf("components.%s: %w", comp, err)
		}
	}
	return nil
}

// JournalConfig configures the rotation journal.
type JournalConfig struct {
	Enabled       bool   `mapstructure:"enabled" yaml:"enabled"`
	Path          string `mapstructure:"path" yaml:"path"`
	RetentionDays int    `mapstructure:"retention_days" yaml:"retention_days"`
}

// Validate validates the journal configuration.
func (c *JournalConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.RetentionDays, validation.Min(0)),
	)
}

// Config is the effective weeksnap configuration.
type Config struct {
	// Backend is "ioctl" or "cli".
	Backend string `mapstructure:"backend" yaml:"backend"`

	// BtrfsBinary is the btrfs executable used by the cli backend.
	BtrfsBinary string `mapstructure:"btrfs_binary" yaml:"btrfs_binary"`

	// Lock holds <volume>/.snapshots/.lock while rotating.
	Lock bool `mapstructure:"lock" yaml:"lock"`

	// Output is the status and history format.
	Output string `mapstructure:"output" yaml:"output"`

	Journal JournalConfig `mapstructure:"journal" yaml:"journal"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.Required, validation.In("ioctl", "cli")),
		validation.Field(&c.BtrfsBinary, validation.When(c.Backend == "cli", validation.Required)),
		validation.Field(&c.Output, validation.In(toAny(Outputs)...)),
	); err != nil {
		return err
	}
	if err := c.Journal.Validate(); err != nil {
		return fmt.Errorf("journal: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

// YAML renders the configuration as YAML.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// New returns a viper instance with defaults, config search paths and the
// environment prefix set, and the config file read if present. file
// overrides the search paths when non-empty.
func New(file string) (*viper.Viper, error) {
	v := viper.New()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(ConfigDir())
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend", DefaultBackend)
	v.SetDefault("btrfs_binary", DefaultBinary)
	v.SetDefault("lock", false)
	v.SetDefault("output", DefaultOutput)

	v.SetDefault("journal.enabled", true)
	v.SetDefault("journal.path", "") // empty means JournalDir()
	v.SetDefault("journal.retention_days", DefaultRetentionDays)

	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.path", "") // empty means $XDG_STATE_HOME/weeksnap/weeksnap.log
	v.SetDefault("logging.console_level", "")
	v.SetDefault("logging.rotation.max_size", DefaultMaxLogSize)
	v.SetDefault("logging.rotation.max_age", 60)
	v.SetDefault("logging.rotation.max_backups", 8)
	v.SetDefault("logging.rotation.daily", false)
}

// Decode unmarshals, normalizes and validates the configuration held by v.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	cfg.Output = strings.ToLower(strings.TrimSpace(cfg.Output))
	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)
	cfg.Logging.ConsoleLevel = strings.ToLower(cfg.Logging.ConsoleLevel)

	var err error
	if cfg.Journal.Path, err = ExpandPath(cfg.Journal.Path); err != nil {
		return nil, err
	}
	if cfg.Journal.Path == "" {
		cfg.Journal.Path = JournalDir()
	}
	if cfg.Logging.Path, err = ExpandPath(cfg.Logging.Path); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Load reads configuration from file (or the default location) and the
// environment.
func Load(file string) (*Config, error) {
	v, err := New(file)
	if err != nil {
		return nil, err
	}
	return Decode(v)
}

// ConfigDir returns $XDG_CONFIG_HOME/weeksnap.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, appName)
}

// ConfigFile returns the default config file path.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), fileName)
}

// StateDir returns $XDG_STATE_HOME/weeksnap for the log and the journal.
func StateDir() string {
	return filepath.Join(xdg.StateHome, appName)
}

// JournalDir returns the default journal directory.
func JournalDir() string {
	return filepath.Join(StateDir(), "journal")
}

// ExpandPath expands a leading ~ to the user's home directory.
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

// WriteDefault writes a commented default config file to path, or to
// ConfigFile() when path is empty. It reports false if the file already
// exists and was left alone.
func WriteDefault(path string) (bool, error) {
	if path == "" {
		path = ConfigFile()
	}

	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to check config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}

	defaultConfig := fmt.Sprintf(`# weeksnap configuration

# Snapshot backend: ioctl (talk to the kernel directly) or cli (run btrfs-progs)
backend: %s

# btrfs executable used by the cli backend
btrfs_binary: %s

# Hold <volume>/.snapshots/.lock while rotating
lock: false

# Format for status and history: pretty, plain or json
output: %s

# Journal of rotation runs, kept outside the volume
journal:
  enabled: true
  # Empty means $XDG_STATE_HOME/weeksnap/journal
  path: ""
  retention_days: %d

logging:
  # Log level: debug, info, warn, error
  level: %s
  # Empty means $XDG_STATE_HOME/weeksnap/weeksnap.log
  path: ""
  # Mirror log lines at this level to stderr (empty disables)
  console_level: ""
  rotation:
    max_size: %s
    max_age: 60       # days
    max_backups: 8
    daily: false
`, DefaultBackend, DefaultBinary, DefaultOutput, DefaultRetentionDays, DefaultLogLevel, DefaultMaxLogSize)

	if err := os.WriteFile(path, []byte(defaultConfig), 0o644); err != nil {
		return false, fmt.Errorf("failed to write default config: %w", err)
	}

	return true, nil
}

func byteSize(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := humanize.ParseBytes(s); err != nil {
		return errors.New("must be a size such as 10MB")
	}
	return nil
}

func toAny(ss []string) []interface{} {
	out := make([]interface{}, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
