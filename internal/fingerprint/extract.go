package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"net/mail"
	"regexp"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Layouts tried after net/mail gives up. Mail clients in the wild omit
// seconds, use two-digit years or write asctime dates.
var lenientDateLayouts = []string{
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"Mon, 2 Jan 2006 15:04 -0700",
	"Mon, 2 Jan 06 15:04:05 -0700",
	"2 Jan 2006 15:04:05 -0700",
	"2 Jan 06 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05",
	"Mon Jan _2 15:04:05 2006",
	"Mon Jan _2 15:04:05 MST 2006",
	"Mon Jan _2 15:04:05 -0700 2006",
	time.RFC3339,
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05",
	dateLayout,
}

var dateComment = regexp.MustCompile(`\s*\([^)]*\)\s*$`)

func extractFrom(m *Message) (Value, bool) {
	s, ok := normalizeAddresses(m.Values("From"), m.charset())
	return StringValue(s), ok
}

func extractTo(m *Message) (Value, bool) {
	var values []string
	for _, key := range []string{"To", "Cc", "Bcc"} {
		values = append(values, m.Values(key)...)
	}
	s, ok := normalizeAddresses(values, m.charset())
	return StringValue(s), ok
}

func extractSubject(m *Message) (Value, bool) {
	s, ok := decodeHeader(m.Get("Subject"), m.charset())
	s = normalizeText(s)
	return StringValue(s), ok && s != ""
}

func extractDate(m *Message) (Value, bool) {
	t, ok := parseDate(m.Get("Date"))
	if !ok {
		return StringValue(""), false
	}
	return StringValue(t.Format(dateLayout)), true
}

func extractBodySize(m *Message) (Value, bool) {
	var size int64
	for _, line := range m.BodyLines() {
		size += int64(len(line))
	}
	return IntValue(size), size > 0
}

func extractBodyLines(m *Message) (Value, bool) {
	n := len(m.BodyLines())
	return IntValue(int64(n)), n > 0
}

// extractBodyHash digests the concatenated lines. An empty body still
// hashes to the digest of nothing, so it never counts as a failure.
func extractBodyHash(m *Message) (Value, bool) {
	lines := m.BodyLines()
	h := sha256.New()
	for _, line := range lines {
		h.Write([]byte(line))
	}
	return StringValue(hex.EncodeToString(h.Sum(nil))), len(lines) > 0
}

// parseDate keeps the offset written in the header, so the calendar day
// is the sender's.
func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := mail.ParseDate(raw); err == nil {
		return t, true
	}

	raw = strings.Join(strings.Fields(dateComment.ReplaceAllString(raw, "")), " ")
	for _, layout := range lenientDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
