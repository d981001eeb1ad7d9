package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileGivesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, []string{"from", "to", "date", "subject", "body_lines"}, cfg.Scan.Fields)
	assert.Equal(t, 2, cfg.Scan.SkipThreshold)
	assert.Equal(t, FormatPlain, cfg.Scan.Format)
	assert.Equal(t, "auto", cfg.Source.Type)
	assert.Equal(t, "INBOX", cfg.Source.IMAP.Mailbox)
	assert.True(t, cfg.Source.IMAP.TLS)
	assert.False(t, cfg.Store.Enabled)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
scan:
  fields: [from, subject]
  skip_threshold: 1
source:
  type: maildir
  path: /var/mail/me
`), 0o600))

	t.Setenv("DUPMAIL_SCAN_FORMAT", "json")
	t.Setenv("DUPMAIL_SOURCE_PATH", "/tmp/other")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"from", "subject"}, cfg.Scan.Fields)
	assert.Equal(t, 1, cfg.Scan.SkipThreshold)
	assert.Equal(t, FormatJSON, cfg.Scan.Format)
	assert.Equal(t, "maildir", cfg.Source.Type)
	assert.Equal(t, "/tmp/other", cfg.Source.Path)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scan: [unclosed"), 0o600))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestSaveConfigOmitsPassword(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg := DefaultConfig()
	cfg.Source.Type = "imap"
	cfg.Source.IMAP.Host = "imap.example.com"
	cfg.Source.IMAP.Username = "alice"
	cfg.Source.IMAP.Password = "s3cret"

	require.NoError(t, SaveConfig(path, cfg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "s3cret")

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "imap.example.com", loaded.Source.IMAP.Host)
	assert.Equal(t, "alice", loaded.Source.IMAP.Username)
	assert.Empty(t, loaded.Source.IMAP.Password)
	assert.Equal(t, "s3cret", cfg.Source.IMAP.Password)
}

func TestValidate(t *testing.T) {
	valid := func() *AppConfig {
		cfg := DefaultConfig()
		cfg.Source.Path = "/mail"
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*AppConfig)
		key    string
	}{
		{"unknown field", func(c *AppConfig) { c.Scan.Fields = []string{"from", "cc"} }, "scan.fields"},
		{"no fields", func(c *AppConfig) { c.Scan.Fields = nil }, "scan.fields"},
		{"negative threshold", func(c *AppConfig) { c.Scan.SkipThreshold = -1 }, "scan.skip_threshold"},
		{"bad format", func(c *AppConfig) { c.Scan.Format = "xml" }, "scan.format"},
		{"negative workers", func(c *AppConfig) { c.Scan.Workers = -2 }, "scan.workers"},
		{"bad source type", func(c *AppConfig) { c.Source.Type = "pop3" }, "source.type"},
		{"no path", func(c *AppConfig) { c.Source.Path = "" }, "source.path"},
		{"imap without host", func(c *AppConfig) { c.Source.Type = "imap" }, "source.imap.host"},
		{"imap without user", func(c *AppConfig) {
			c.Source.Type = "imap"
			c.Source.IMAP.Host = "h"
		}, "source.imap.username"},
		{"store without path", func(c *AppConfig) {
			c.Store.Enabled = true
			c.Store.Path = ""
		}, "store.path"},
		{"bad log level", func(c *AppConfig) { c.Log.Level = "loud" }, "log.level"},
	}

	require.NoError(t, valid().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, IsConfigError(err))

			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.key, cfgErr.Key)
		})
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatPlain, f)

	f, err = ParseFormat(" YAML ")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)
	assert.True(t, f.Structured())
	assert.False(t, FormatPlain.Structured())

	_, err = ParseFormat("csv")
	assert.Error(t, err)
}
