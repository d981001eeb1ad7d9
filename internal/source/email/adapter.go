// Package email reads messages from an IMAP mailbox.
package email

import (
	"context"
	"fmt"

	"github.com/nhle/dupmail/internal/source"
)

// Adapter implements source.Source for an IMAP mailbox.
type Adapter struct {
	imapClient *IMAPClient
	cfg        Config
}

// NewAdapter creates a new IMAP source adapter.
func NewAdapter(cfg Config) *Adapter {
	if cfg.Mailbox == "" {
		cfg.Mailbox = "INBOX"
	}
	if cfg.Port == "" {
		cfg.Port = "993"
		if !cfg.TLS {
			cfg.Port = "143"
		}
	}
	return &Adapter{
		imapClient: NewIMAPClient(
			cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.TLS,
		),
		cfg: cfg,
	}
}

// Type returns the source type identifier for IMAP.
func (a *Adapter) Type() source.SourceType {
	return source.SourceTypeIMAP
}

// Name returns an imap:// URL for the mailbox, without the password.
func (a *Adapter) Name() string {
	return fmt.Sprintf(
		"imap://%s@%s:%s/%s",
		a.cfg.Username, a.cfg.Host, a.cfg.Port, a.cfg.Mailbox,
	)
}

// Count returns the number of messages in the mailbox.
func (a *Adapter) Count(ctx context.Context) (int, error) {
	n, err := a.imapClient.MailboxSize(ctx, a.cfg.Mailbox)
	if err != nil {
		return 0, fmt.Errorf("counting %s: %w", a.Name(), err)
	}
	return n, nil
}

// Walk fetches every message of the mailbox.
func (a *Adapter) Walk(ctx context.Context, fn source.WalkFunc) error {
	if err := a.imapClient.FetchAll(
		ctx, a.cfg.Mailbox, a.cfg.BatchSize, fn,
	); err != nil {
		return fmt.Errorf("reading %s: %w", a.Name(), err)
	}
	return nil
}

// Close is a no-op; every call opens and logs out its own session.
func (a *Adapter) Close() error {
	return nil
}
