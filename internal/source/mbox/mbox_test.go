package mbox

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/dupmail/internal/source"
	"github.com/nhle/dupmail/tests/testutil"
)

func TestWalk(t *testing.T) {
	path := testutil.NewMbox(t,
		testutil.Message("a@example.com", "b@example.com", "one", "", "first\n"),
		testutil.Message("c@example.com", "d@example.com", "two", "", "From here on\nsecond\n"),
	)

	f, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, source.SourceTypeMbox, f.Type())

	var items []source.Item
	err = f.Walk(context.Background(), func(item source.Item) error {
		items = append(items, item)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "0", items[0].ID)
	assert.Equal(t, "1", items[1].ID)
	assert.Contains(t, string(items[0].Raw), "Subject: one")
	assert.Contains(t, string(items[1].Raw), "Subject: two")
	assert.False(t, strings.Contains(string(items[0].Raw), "Subject: two"))

	n, err := f.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestWalkEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.mbox")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	f, err := Open(path)
	require.NoError(t, err)

	n, err := f.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOpenErrors(t *testing.T) {
	_, err := Open(t.TempDir())
	assert.True(t, source.IsOpenError(err))

	_, err = Open(filepath.Join(t.TempDir(), "missing"))
	assert.True(t, source.IsOpenError(err))
}

func TestWalkCancelled(t *testing.T) {
	path := testutil.NewMbox(t, testutil.Message("a@example.com", "", "", "", "x\n"))
	f, err := Open(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = f.Walk(ctx, func(source.Item) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
