package source

import (
	"context"
	"errors"
	"fmt"
)

// AuthError indicates that a mail server rejected the configured
// credentials.
type AuthError struct {
	SourceType SourceType
	Message    string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%s): %s", e.SourceType, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// OpenError indicates that a mail folder is missing or is not in the
// expected format. Scanning cannot start without it.
type OpenError struct {
	SourceType SourceType
	Path       string
	Err        error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("opening %s %s: %v", e.SourceType, e.Path, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// IsOpenError reports whether err (or any error in its chain) is an OpenError.
func IsOpenError(err error) bool {
	var openErr *OpenError
	return errors.As(err, &openErr)
}

// SourceType identifies the kind of mail folder.
type SourceType string

const (
	SourceTypeAuto    SourceType = "auto"
	SourceTypeMaildir SourceType = "maildir"
	SourceTypeMbox    SourceType = "mbox"
	SourceTypeIMAP    SourceType = "imap"
)

// Item is one message as stored in a folder.
type Item struct {
	// ID identifies the message within its folder: a maildir key, an
	// mbox index or an IMAP UID.
	ID string

	// Raw is the full RFC 5322 message.
	Raw []byte
}

// WalkFunc is called for each message. Returning an error stops the walk
// and the error is returned from Walk.
type WalkFunc func(item Item) error

// Source defines the contract every mail folder backend implements.
// Sources are read-only: nothing is ever modified or deleted.
type Source interface {
	// Type returns the source type identifier.
	Type() SourceType

	// Name is a human-readable location, such as a path or mailbox URL.
	Name() string

	// Count returns the number of messages Walk will visit. It is used
	// for progress reporting only.
	Count(ctx context.Context) (int, error)

	// Walk visits every message once, in an order the source defines.
	Walk(ctx context.Context, fn WalkFunc) error

	// Close releases any resources held by the source.
	Close() error
}
