// Package maildir reads messages from a Maildir folder.
package maildir

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nhle/dupmail/internal/source"
)

// infoSeparator starts the flag suffix of a maildir file name
// ("1234.M1P2.host:2,S").
const infoSeparator = ":"

// subdirs are read in this order; tmp/ holds deliveries in progress.
var subdirs = []string{"new", "cur"}

// Folder implements source.Source for a single Maildir folder.
type Folder struct {
	path string
}

type entry struct {
	key  string
	path string
}

// Open validates that path is a maildir (cur/, new/ and tmp/ present).
func Open(path string) (*Folder, error) {
	clean := filepath.Clean(path)
	if err := checkFolder(clean); err != nil {
		return nil, &source.OpenError{
			SourceType: source.SourceTypeMaildir,
			Path:       clean,
			Err:        err,
		}
	}
	return &Folder{path: clean}, nil
}

func checkFolder(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory")
	}
	for _, sub := range []string{"cur", "new", "tmp"} {
		info, err := os.Stat(filepath.Join(path, sub))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("missing %s/ (a maildir needs cur/, new/ and tmp/)", sub)
			}
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("%s is not a directory", sub)
		}
	}
	return nil
}

// Type returns the source type identifier for maildir.
func (f *Folder) Type() source.SourceType {
	return source.SourceTypeMaildir
}

func (f *Folder) Name() string {
	return f.path
}

// Count returns the number of message files in new/ and cur/.
func (f *Folder) Count(_ context.Context) (int, error) {
	entries, err := f.entries()
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// Walk reads every message file, new/ first, each directory sorted by key.
func (f *Folder) Walk(ctx context.Context, fn source.WalkFunc) error {
	entries, err := f.entries()
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		raw, err := os.ReadFile(e.path)
		if err != nil {
			return fmt.Errorf("reading maildir message %s: %w", e.key, err)
		}
		if err := fn(source.Item{ID: e.key, Raw: raw}); err != nil {
			return err
		}
	}
	return nil
}

func (f *Folder) Close() error {
	return nil
}

func (f *Folder) entries() ([]entry, error) {
	var all []entry
	for _, sub := range subdirs {
		dir := filepath.Join(f.path, sub)
		files, err := os.ReadDir(dir)
		if err != nil {
			return nil, &source.OpenError{
				SourceType: source.SourceTypeMaildir,
				Path:       dir,
				Err:        err,
			}
		}

		var batch []entry
		for _, file := range files {
			name := file.Name()
			if file.IsDir() || strings.HasPrefix(name, ".") {
				continue
			}
			batch = append(batch, entry{
				key:  keyOf(name),
				path: filepath.Join(dir, name),
			})
		}
		sort.Slice(batch, func(i, j int) bool { return batch[i].key < batch[j].key })
		all = append(all, batch...)
	}
	return all, nil
}

// keyOf strips the info suffix so a message keeps its key when its
// flags change.
func keyOf(name string) string {
	if i := strings.Index(name, infoSeparator); i > 0 {
		return name[:i]
	}
	return name
}
