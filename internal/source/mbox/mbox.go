// Package mbox reads messages from an mbox file.
package mbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	gombox "github.com/emersion/go-mbox"

	"github.com/nhle/dupmail/internal/source"
)

// File implements source.Source for an mbox file. Message ids are the
// zero-based position of the message in the file.
type File struct {
	path string
}

// Open checks that path is a readable regular file.
func Open(path string) (*File, error) {
	clean := filepath.Clean(path)
	info, err := os.Stat(clean)
	if err == nil && info.IsDir() {
		err = fmt.Errorf("is a directory")
	}
	if err != nil {
		return nil, &source.OpenError{
			SourceType: source.SourceTypeMbox,
			Path:       clean,
			Err:        err,
		}
	}
	return &File{path: clean}, nil
}

// Type returns the source type identifier for mbox.
func (f *File) Type() source.SourceType {
	return source.SourceTypeMbox
}

func (f *File) Name() string {
	return f.path
}

// Count reads through the file once to count messages.
func (f *File) Count(ctx context.Context) (int, error) {
	n := 0
	err := f.each(ctx, func(_ int, msg io.Reader) error {
		n++
		_, err := io.Copy(io.Discard, msg)
		return err
	})
	return n, err
}

// Walk visits messages in file order.
func (f *File) Walk(ctx context.Context, fn source.WalkFunc) error {
	return f.each(ctx, func(i int, msg io.Reader) error {
		raw, err := io.ReadAll(msg)
		if err != nil {
			return fmt.Errorf("reading mbox message %d: %w", i, err)
		}
		return fn(source.Item{ID: strconv.Itoa(i), Raw: raw})
	})
}

func (f *File) Close() error {
	return nil
}

func (f *File) each(ctx context.Context, fn func(i int, msg io.Reader) error) error {
	file, err := os.Open(f.path)
	if err != nil {
		return &source.OpenError{SourceType: source.SourceTypeMbox, Path: f.path, Err: err}
	}
	defer file.Close()

	r := gombox.NewReader(file)
	for i := 0; ; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg, err := r.NextMessage()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading %s: %w", f.path, err)
		}
		if err := fn(i, msg); err != nil {
			return err
		}
	}
}
