package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/nhle/dupmail/internal/credential"
	"github.com/nhle/dupmail/internal/model"
	"github.com/nhle/dupmail/internal/source"
	"github.com/nhle/dupmail/internal/source/email"
	"github.com/nhle/dupmail/internal/source/maildir"
	"github.com/nhle/dupmail/internal/source/mbox"
)

// openSource builds the configured source. Type auto picks maildir for
// directories and mbox for regular files.
func (a *App) openSource() (source.Source, error) {
	cfg := a.Config.Source

	switch source.SourceType(cfg.Type) {
	case source.SourceTypeMaildir:
		return maildir.Open(cfg.Path)
	case source.SourceTypeMbox:
		return mbox.Open(cfg.Path)
	case source.SourceTypeIMAP:
		return a.createIMAPAdapter(cfg.IMAP)
	case source.SourceTypeAuto, "":
		return detectSource(cfg.Path)
	default:
		return nil, &model.ConfigError{
			Key:     "source.type",
			Message: fmt.Sprintf("unknown source type %q", cfg.Type),
		}
	}
}

func detectSource(path string) (source.Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &source.OpenError{
			SourceType: source.SourceTypeAuto,
			Path:       filepath.Clean(path),
			Err:        err,
		}
	}
	if info.IsDir() {
		return maildir.Open(path)
	}
	return mbox.Open(path)
}

// createIMAPAdapter builds an IMAP adapter, loading the password from the
// keyring when the config does not carry one.
func (a *App) createIMAPAdapter(cfg model.IMAPConfig) (*email.Adapter, error) {
	password := cfg.Password
	if password == "" {
		key := credential.IMAPKey(cfg.Username, cfg.Host)
		pw, ok, err := a.Keyring.Lookup(key)
		if err != nil {
			return nil, fmt.Errorf("loading IMAP password: %w", err)
		}
		if !ok {
			return nil, &source.AuthError{
				SourceType: source.SourceTypeIMAP,
				Message: fmt.Sprintf(
					"no password for %s@%s; run 'dupmail login' or set DUPMAIL_SOURCE_IMAP_PASSWORD",
					cfg.Username, cfg.Host,
				),
			}
		}
		password = pw
	}

	return email.NewAdapter(email.Config{
		Host:      cfg.Host,
		Port:      cfg.Port,
		Username:  cfg.Username,
		Password:  password,
		TLS:       cfg.TLS,
		Mailbox:   cfg.Mailbox,
		BatchSize: cfg.BatchSize,
	}), nil
}
