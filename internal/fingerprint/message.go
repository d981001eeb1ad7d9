package fingerprint

import (
	"bufio"
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/textproto"
)

// maxPartDepth bounds MIME recursion on hostile input.
const maxPartDepth = 16

// Message is a parsed mail message: its top-level header and the raw
// body bytes. It is read-only once parsed.
type Message struct {
	Header message.Header

	body  []byte
	lines []string
	split bool
}

// ParseMessage reads a raw RFC 5322 message. It never fails: when the
// header block is malformed, the fields before the first line that is not
// a header are kept and the rest of the input becomes the body.
func ParseMessage(raw []byte) *Message {
	h, body := readHeader(raw)
	return &Message{Header: message.Header{Header: h}, body: body}
}

// readHeader splits raw into its header and body, falling back to
// readHeaderLenient when textproto rejects the header block.
func readHeader(raw []byte) (textproto.Header, []byte) {
	br := bufio.NewReader(bytes.NewReader(raw))
	h, err := textproto.ReadHeader(br)
	if err != nil {
		return readHeaderLenient(raw)
	}
	body, err := io.ReadAll(br)
	if err != nil {
		return readHeaderLenient(raw)
	}
	return h, body
}

type headerLine struct {
	key, value string
}

// readHeaderLenient keeps every well-formed "Key: value" line, with its
// continuation lines, up to the blank separator or the first line that is
// not a header. Everything from that line on is the body.
func readHeaderLenient(raw []byte) (textproto.Header, []byte) {
	var fields []headerLine
	rest := raw
	for len(rest) > 0 {
		line, next := rest, []byte(nil)
		if i := bytes.IndexByte(rest, '\n'); i >= 0 {
			line, next = rest[:i], rest[i+1:]
		}
		text := strings.TrimRight(string(line), "\r")
		if text == "" {
			rest = next
			break
		}
		if text[0] == ' ' || text[0] == '\t' {
			if len(fields) == 0 {
				break
			}
			last := &fields[len(fields)-1]
			last.value = strings.TrimSpace(last.value + " " + strings.TrimSpace(text))
			rest = next
			continue
		}
		key, value, ok := strings.Cut(text, ":")
		key = strings.TrimRight(key, " \t")
		if !ok || !validHeaderKey(key) {
			break
		}
		fields = append(fields, headerLine{key: key, value: strings.TrimSpace(value)})
		rest = next
	}

	// Add prepends, so fields go in last to first to keep message order.
	var h textproto.Header
	for i := len(fields) - 1; i >= 0; i-- {
		h.Add(fields[i].key, fields[i].value)
	}
	return h, rest
}

// validHeaderKey reports whether key is a non-empty run of printable
// ASCII other than space and colon.
func validHeaderKey(key string) bool {
	if key == "" {
		return false
	}
	for i := 0; i < len(key); i++ {
		if c := key[i]; c <= ' ' || c > '~' {
			return false
		}
	}
	return true
}

// Values returns every value of the header key, in message order.
func (m *Message) Values(key string) []string {
	var values []string
	fields := m.Header.FieldsByKey(key)
	for fields.Next() {
		values = append(values, fields.Value())
	}
	return values
}

// Get returns the first value of the header key, or "".
func (m *Message) Get(key string) string {
	return m.Header.Get(key)
}

// charset returns the charset declared on the top-level Content-Type,
// or "" if there is none.
func (m *Message) charset() string {
	_, params, err := m.Header.ContentType()
	if err != nil {
		return ""
	}
	return params["charset"]
}

// BodyLines returns the non-blank body lines with all whitespace removed,
// in message order. Every leaf MIME part contributes its raw payload,
// including transfer-encoded attachments; part headers and boundary
// lines do not count.
func (m *Message) BodyLines() []string {
	if !m.split {
		var lines []string
		walkPart(m.Get("Content-Type"), m.body, &lines, 0)
		m.lines = lines
		m.split = true
	}
	return m.lines
}

func walkPart(contentType string, body []byte, lines *[]string, depth int) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || depth >= maxPartDepth {
		appendLines(lines, body)
		return
	}

	switch {
	case strings.HasPrefix(mediaType, "multipart/") && params["boundary"] != "":
		if !walkMultipart(params["boundary"], body, lines, depth) {
			appendLines(lines, body)
		}
	case mediaType == "message/rfc822":
		h, nested := readHeader(body)
		walkPart(h.Get("Content-Type"), nested, lines, depth+1)
	default:
		appendLines(lines, body)
	}
}

// walkMultipart reports whether at least one part was found. Parts read
// before a framing error are kept.
func walkMultipart(boundary string, body []byte, lines *[]string, depth int) bool {
	mr := multipart.NewReader(bytes.NewReader(body), boundary)
	found := false
	for {
		part, err := mr.NextRawPart()
		if err != nil {
			return found
		}
		data, err := io.ReadAll(part)
		if err != nil {
			return found
		}
		found = true
		walkPart(part.Header.Get("Content-Type"), data, lines, depth+1)
	}
}

func appendLines(lines *[]string, body []byte) {
	for _, line := range strings.Split(string(body), "\n") {
		if s := stripSpace(line); s != "" {
			*lines = append(*lines, s)
		}
	}
}

// stripSpace removes every whitespace rune. Invalid UTF-8 bytes are kept
// as they are.
func stripSpace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !(r != utf8.RuneError && unicode.IsSpace(r)) {
			b.WriteString(s[i : i+size])
		}
		i += size
	}
	return b.String()
}
