package email

import (
	"context"
	"fmt"
	"strconv"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/nhle/dupmail/internal/source"
)

// IMAPClient wraps go-imap v2 for reading whole messages from a mailbox.
type IMAPClient struct {
	host     string
	port     string
	username string
	password string
	tls      bool
}

// NewIMAPClient creates a new IMAP client configuration.
func NewIMAPClient(
	host, port, username, password string, tls bool,
) *IMAPClient {
	return &IMAPClient{
		host:     host,
		port:     port,
		username: username,
		password: password,
		tls:      tls,
	}
}

// Connect establishes a connection to the IMAP server, authenticates,
// and returns the connected client. The caller is responsible for
// calling Logout/Close on the returned client.
func (c *IMAPClient) Connect(
	_ context.Context,
) (*imapclient.Client, error) {
	addr := c.host + ":" + c.port

	var client *imapclient.Client
	var err error

	if c.tls {
		client, err = imapclient.DialTLS(addr, nil)
	} else {
		client, err = imapclient.DialStartTLS(addr, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}

	if err := client.Login(c.username, c.password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, &source.AuthError{
			SourceType: source.SourceTypeIMAP,
			Message: fmt.Sprintf(
				"authentication failed for %s: %v",
				c.username, err,
			),
		}
	}

	return client, nil
}

// selectReadOnly opens mailbox with EXAMINE so no flags change.
func selectReadOnly(
	client *imapclient.Client, mailbox string,
) (*imap.SelectData, error) {
	data, err := client.Select(mailbox, &imap.SelectOptions{
		ReadOnly: true,
	}).Wait()
	if err != nil {
		return nil, fmt.Errorf("selecting %s: %w", mailbox, err)
	}
	return data, nil
}

// MailboxSize returns the number of messages in mailbox.
func (c *IMAPClient) MailboxSize(
	ctx context.Context, mailbox string,
) (int, error) {
	client, err := c.Connect(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = client.Logout().Wait() }()

	data, err := selectReadOnly(client, mailbox)
	if err != nil {
		return 0, err
	}
	return int(data.NumMessages), nil
}

// FetchAll UID-searches every message in mailbox and streams the full
// raw message of each, batchSize at a time, in ascending UID order.
// BODY.PEEK is used so the \Seen flag is left alone.
func (c *IMAPClient) FetchAll(
	ctx context.Context,
	mailbox string,
	batchSize int,
	fn source.WalkFunc,
) error {
	client, err := c.Connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = client.Logout().Wait() }()

	if _, err := selectReadOnly(client, mailbox); err != nil {
		return err
	}

	searchData, err := client.UIDSearch(&imap.SearchCriteria{}, nil).Wait()
	if err != nil {
		return fmt.Errorf("searching messages: %w", err)
	}

	uids := searchData.AllUIDs()
	if batchSize < 1 {
		batchSize = defaultBatchSize
	}

	for start := 0; start < len(uids); start += batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := start + batchSize
		if end > len(uids) {
			end = len(uids)
		}
		if err := fetchBatch(client, uids[start:end], fn); err != nil {
			return err
		}
	}

	return nil
}

func fetchBatch(
	client *imapclient.Client, uids []imap.UID, fn source.WalkFunc,
) error {
	bodySection := &imap.FetchItemBodySection{
		Peek: true,
	}

	fetchOpts := &imap.FetchOptions{
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}

	fetchCmd := client.Fetch(imap.UIDSetNum(uids...), fetchOpts)
	defer fetchCmd.Close()

	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}

		buf, err := msg.Collect()
		if err != nil {
			return fmt.Errorf("collecting message data: %w", err)
		}

		item := source.Item{
			ID:  strconv.FormatUint(uint64(buf.UID), 10),
			Raw: buf.FindBodySection(bodySection),
		}
		if err := fn(item); err != nil {
			return err
		}
	}

	if err := fetchCmd.Close(); err != nil {
		return fmt.Errorf("fetching messages: %w", err)
	}

	return nil
}
