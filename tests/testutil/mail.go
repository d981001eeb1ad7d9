package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Message builds a minimal RFC 5322 message with CRLF line endings.
func Message(from, to, subject, date, body string) string {
	var b strings.Builder
	if from != "" {
		b.WriteString("From: " + from + "\r\n")
	}
	if to != "" {
		b.WriteString("To: " + to + "\r\n")
	}
	if subject != "" {
		b.WriteString("Subject: " + subject + "\r\n")
	}
	if date != "" {
		b.WriteString("Date: " + date + "\r\n")
	}
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return b.String()
}

// NewMaildir creates a maildir under t.TempDir() and returns its path.
// files maps "new/<name>" or "cur/<name>" to message contents.
func NewMaildir(t *testing.T, files map[string]string) string {
	t.Helper()

	root := filepath.Join(t.TempDir(), "Maildir")
	for _, sub := range []string{"cur", "new", "tmp"} {
		if err := os.MkdirAll(filepath.Join(root, sub), 0o700); err != nil {
			t.Fatalf("creating maildir: %v", err)
		}
	}
	for name, body := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
	return root
}

// NewMbox writes messages into an mbox file under t.TempDir() and
// returns its path. Body lines starting with "From " are escaped.
func NewMbox(t *testing.T, messages ...string) string {
	t.Helper()

	var b strings.Builder
	for _, msg := range messages {
		b.WriteString("From sender@example.com Thu Jan  1 00:00:00 2015\n")
		msg = strings.ReplaceAll(msg, "\r\n", "\n")
		for _, line := range strings.SplitAfter(msg, "\n") {
			if strings.HasPrefix(line, "From ") {
				b.WriteString(">")
			}
			b.WriteString(line)
		}
		if !strings.HasSuffix(msg, "\n") {
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	path := filepath.Join(t.TempDir(), "mail.mbox")
	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		t.Fatalf("writing mbox: %v", err)
	}
	return path
}
