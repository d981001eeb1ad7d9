package maildir

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/dupmail/internal/source"
	"github.com/nhle/dupmail/tests/testutil"
)

func collect(t *testing.T, f *Folder) []source.Item {
	t.Helper()
	var items []source.Item
	err := f.Walk(context.Background(), func(item source.Item) error {
		items = append(items, item)
		return nil
	})
	require.NoError(t, err)
	return items
}

func TestOpen(t *testing.T) {
	root := testutil.NewMaildir(t, nil)

	f, err := Open(root)
	require.NoError(t, err)
	assert.Equal(t, source.SourceTypeMaildir, f.Type())
	assert.Equal(t, root, f.Name())
	assert.NoError(t, checkFolder(root))
}

func TestOpenRejectsNonMaildir(t *testing.T) {
	plain := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(plain, "cur"), 0o700))

	tests := map[string]string{
		"missing": filepath.Join(plain, "nope"),
		"partial": plain,
		"not dir": testutil.NewMbox(t),
	}
	for name, path := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Open(path)
			require.Error(t, err)
			assert.True(t, source.IsOpenError(err))
			assert.Error(t, checkFolder(path))
		})
	}
}

func TestWalkOrderAndKeys(t *testing.T) {
	root := testutil.NewMaildir(t, map[string]string{
		"cur/200.M2.host:2,S": "b",
		"cur/100.M1.host:2,":  "a",
		"new/300.M3.host":     "c",
		"cur/.hidden":         "x",
	})
	require.NoError(t, os.Mkdir(filepath.Join(root, "cur", "sub"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(root, "tmp", "400"), []byte("t"), 0o600))

	f, err := Open(root)
	require.NoError(t, err)

	items := collect(t, f)
	require.Len(t, items, 3)
	assert.Equal(t, "300.M3.host", items[0].ID)
	assert.Equal(t, "100.M1.host", items[1].ID)
	assert.Equal(t, "200.M2.host", items[2].ID)
	assert.Equal(t, "a", string(items[1].Raw))

	n, err := f.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestWalkEmpty(t *testing.T) {
	f, err := Open(testutil.NewMaildir(t, nil))
	require.NoError(t, err)
	assert.Empty(t, collect(t, f))
}

func TestWalkStopsOnCallbackError(t *testing.T) {
	root := testutil.NewMaildir(t, map[string]string{
		"cur/1": "a",
		"cur/2": "b",
	})
	f, err := Open(root)
	require.NoError(t, err)

	stop := errors.New("stop")
	calls := 0
	err = f.Walk(context.Background(), func(source.Item) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestWalkCancelled(t *testing.T) {
	root := testutil.NewMaildir(t, map[string]string{"cur/1": "a"})
	f, err := Open(root)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = f.Walk(ctx, func(source.Item) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestKeyOf(t *testing.T) {
	assert.Equal(t, "123.abc", keyOf("123.abc:2,RS"))
	assert.Equal(t, "123.abc", keyOf("123.abc"))
	assert.Equal(t, ":odd", keyOf(":odd"))
}
