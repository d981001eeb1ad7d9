package email

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/dupmail/internal/source"
)

func TestNewAdapterDefaults(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"tls", Config{Host: "imap.example.com", Username: "me", TLS: true}, "imap://me@imap.example.com:993/INBOX"},
		{"starttls", Config{Host: "imap.example.com", Username: "me"}, "imap://me@imap.example.com:143/INBOX"},
		{"explicit", Config{Host: "h", Port: "1993", Username: "u", Mailbox: "Archive"}, "imap://u@h:1993/Archive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAdapter(tt.cfg)
			assert.Equal(t, tt.want, a.Name())
			assert.Equal(t, source.SourceTypeIMAP, a.Type())
			assert.NoError(t, a.Close())
		})
	}
}

func TestNameOmitsPassword(t *testing.T) {
	a := NewAdapter(Config{Host: "h", Username: "u", Password: "s3cret", TLS: true})
	assert.NotContains(t, a.Name(), "s3cret")
}

func TestConnectFailureIsWrapped(t *testing.T) {
	// Nothing listens on port 1 of the loopback address.
	a := NewAdapter(Config{Host: "127.0.0.1", Port: "1", Username: "u", Password: "p", TLS: true})

	_, err := a.Count(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "counting imap://u@127.0.0.1:1/INBOX")
	assert.False(t, source.IsAuthError(err))
}
