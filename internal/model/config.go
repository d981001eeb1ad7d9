package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/nhle/dupmail/internal/dedup"
	"github.com/nhle/dupmail/internal/fingerprint"
)

// EnvPrefix prefixes environment overrides, e.g. DUPMAIL_SCAN_SKIP_THRESHOLD.
const EnvPrefix = "DUPMAIL"

// ScanConfig controls fingerprinting and grouping.
type ScanConfig struct {
	// Fields are the header and body fields that make up a fingerprint.
	Fields []string `mapstructure:"fields" yaml:"fields"`

	// SkipThreshold is the failure count at which a message is left out
	// of grouping.
	SkipThreshold int `mapstructure:"skip_threshold" yaml:"skip_threshold"`

	// Format is the output format: plain, json or yaml.
	Format Format `mapstructure:"format" yaml:"format"`

	// Workers is the number of fingerprinting goroutines; 0 means one
	// per CPU.
	Workers int `mapstructure:"workers" yaml:"workers"`
}

// IMAPConfig holds the IMAP server settings used when the source type
// is imap.
type IMAPConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     string `mapstructure:"port" yaml:"port"`
	Username string `mapstructure:"username" yaml:"username"`

	// Password is optional; the keyring is consulted when empty.
	Password  string `mapstructure:"password" yaml:"password,omitempty"`
	TLS       bool   `mapstructure:"tls" yaml:"tls"`
	Mailbox   string `mapstructure:"mailbox" yaml:"mailbox"`
	BatchSize int    `mapstructure:"batch_size" yaml:"batch_size"`
}

// SourceConfig selects the mail folder to scan.
type SourceConfig struct {
	// Type is auto, maildir, mbox or imap.
	Type string     `mapstructure:"type" yaml:"type"`
	Path string     `mapstructure:"path" yaml:"path"`
	IMAP IMAPConfig `mapstructure:"imap" yaml:"imap"`
}

// StoreConfig controls the run history database.
type StoreConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// LogConfig controls diagnostic output on stderr.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Scan   ScanConfig   `mapstructure:"scan" yaml:"scan"`
	Source SourceConfig `mapstructure:"source" yaml:"source"`
	Store  StoreConfig  `mapstructure:"store" yaml:"store"`
	Log    LogConfig    `mapstructure:"log" yaml:"log"`
}

// ConfigError reports an invalid configuration value.
type ConfigError struct {
	Key     string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Key, e.Message)
}

// IsConfigError reports whether err (or any error in its chain) is a
// ConfigError.
func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr)
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/dupmail/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "dupmail", "config.yaml")
}

// DefaultStorePath returns the default run history database path,
// ~/.local/share/dupmail/runs.db.
func DefaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "dupmail.db")
	}
	return filepath.Join(home, ".local", "share", "dupmail", "runs.db")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("scan.fields", fingerprint.Names(fingerprint.DefaultFields))
	v.SetDefault("scan.skip_threshold", dedup.DefaultSkipThreshold)
	v.SetDefault("scan.format", string(FormatPlain))
	v.SetDefault("scan.workers", 0)
	v.SetDefault("source.type", "auto")
	v.SetDefault("source.path", "")
	v.SetDefault("source.imap.host", "")
	v.SetDefault("source.imap.port", "")
	v.SetDefault("source.imap.username", "")
	v.SetDefault("source.imap.password", "")
	v.SetDefault("source.imap.tls", true)
	v.SetDefault("source.imap.mailbox", "INBOX")
	v.SetDefault("source.imap.batch_size", 100)
	v.SetDefault("store.enabled", false)
	v.SetDefault("store.path", DefaultStorePath())
	v.SetDefault("log.level", "warn")
}

// DefaultConfig returns the configuration used when no file or
// environment override is present.
func DefaultConfig() *AppConfig {
	v := viper.New()
	setDefaults(v)

	cfg := &AppConfig{}
	_ = v.Unmarshal(cfg)
	return cfg
}

// LoadConfig reads configuration from the given YAML file path using Viper,
// then applies DUPMAIL_* environment overrides. A missing file (or an
// empty path) yields the defaults.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed. The IMAP password is never
// written; it belongs in the keyring.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	clean := *cfg
	clean.Source.IMAP.Password = ""

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("scan", map[string]any{
		"fields":         clean.Scan.Fields,
		"skip_threshold": clean.Scan.SkipThreshold,
		"format":         string(clean.Scan.Format),
		"workers":        clean.Scan.Workers,
	})
	v.Set("source", map[string]any{
		"type": clean.Source.Type,
		"path": clean.Source.Path,
		"imap": map[string]any{
			"host":       clean.Source.IMAP.Host,
			"port":       clean.Source.IMAP.Port,
			"username":   clean.Source.IMAP.Username,
			"tls":        clean.Source.IMAP.TLS,
			"mailbox":    clean.Source.IMAP.Mailbox,
			"batch_size": clean.Source.IMAP.BatchSize,
		},
	})
	v.Set("store", map[string]any{
		"enabled": clean.Store.Enabled,
		"path":    clean.Store.Path,
	})
	v.Set("log", map[string]any{
		"level": clean.Log.Level,
	})

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}

var sourceTypes = map[string]bool{
	"auto":    true,
	"maildir": true,
	"mbox":    true,
	"imap":    true,
}

var logLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks every setting and returns the first problem found as a
// *ConfigError.
func (c *AppConfig) Validate() error {
	if _, err := fingerprint.ParseFields(c.Scan.Fields); err != nil {
		return &ConfigError{Key: "scan.fields", Message: err.Error()}
	}
	if c.Scan.SkipThreshold < 0 {
		return &ConfigError{
			Key:     "scan.skip_threshold",
			Message: fmt.Sprintf("must not be negative, got %d", c.Scan.SkipThreshold),
		}
	}
	if _, err := ParseFormat(string(c.Scan.Format)); err != nil {
		return &ConfigError{Key: "scan.format", Message: err.Error()}
	}
	if c.Scan.Workers < 0 {
		return &ConfigError{
			Key:     "scan.workers",
			Message: fmt.Sprintf("must not be negative, got %d", c.Scan.Workers),
		}
	}
	if !sourceTypes[c.Source.Type] {
		return &ConfigError{
			Key:     "source.type",
			Message: fmt.Sprintf("unknown source type %q (want auto, maildir, mbox or imap)", c.Source.Type),
		}
	}
	if c.Source.Type == "imap" {
		if c.Source.IMAP.Host == "" {
			return &ConfigError{Key: "source.imap.host", Message: "required for imap sources"}
		}
		if c.Source.IMAP.Username == "" {
			return &ConfigError{Key: "source.imap.username", Message: "required for imap sources"}
		}
	} else if c.Source.Path == "" {
		return &ConfigError{Key: "source.path", Message: "no mail folder given"}
	}
	if c.Store.Enabled && c.Store.Path == "" {
		return &ConfigError{Key: "store.path", Message: "required when store.enabled is set"}
	}
	if !logLevels[strings.ToLower(c.Log.Level)] {
		return &ConfigError{
			Key:     "log.level",
			Message: fmt.Sprintf("unknown level %q (want debug, info, warn or error)", c.Log.Level),
		}
	}
	return nil
}
