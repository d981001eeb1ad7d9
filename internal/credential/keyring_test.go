package credential

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileKeyringRoundTrip(t *testing.T) {
	k := NewFile(t.TempDir(), "test-passphrase")
	key := IMAPKey("alice", "imap.example.com")
	assert.Equal(t, "imap-alice@imap.example.com", key)

	_, ok, err := k.Lookup(key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, k.Set(key, "s3cret"))

	got, err := k.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", got)

	got, ok, err = k.Lookup(key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "s3cret", got)

	require.NoError(t, k.Delete(key))
	_, err = k.Get(key)
	assert.Error(t, err)
}
