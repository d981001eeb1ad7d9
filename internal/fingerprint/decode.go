package fingerprint

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"strings"
	"unicode/utf8"

	"github.com/emersion/go-message/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Aliases seen in real archives that the charset index does not resolve.
var extraCharsets = map[string]encoding.Encoding{
	"ascii":   charmap.ISO8859_1,
	"cp437":   charmap.CodePage437,
	"ibm437":  charmap.CodePage437,
	"cp850":   charmap.CodePage850,
	"ibm850":  charmap.CodePage850,
	"cp858":   charmap.CodePage858,
	"cp1252":  charmap.Windows1252,
	"latin1":  charmap.ISO8859_1,
	"latin-1": charmap.ISO8859_1,
	"latin9":  charmap.ISO8859_15,
	"koi8-u":  charmap.KOI8U,
}

func init() {
	for name, enc := range extraCharsets {
		charset.RegisterEncoding(name, enc)
	}
}

var wordDecoder = &mime.WordDecoder{CharsetReader: charsetReader}

// charsetReader converts encoded-word payloads to UTF-8, falling back
// from the declared charset to UTF-8.
func charsetReader(cs string, input io.Reader) (io.Reader, error) {
	data, err := io.ReadAll(input)
	if err != nil {
		return nil, err
	}
	s, ok := decodeBytes(data, cs)
	if !ok {
		return nil, fmt.Errorf("cannot decode %q text", cs)
	}
	return strings.NewReader(s), nil
}

// decodeBytes decodes data with the declared charset, then with UTF-8.
// ok is false when neither works.
func decodeBytes(data []byte, cs string) (string, bool) {
	cs = strings.ToLower(strings.TrimSpace(cs))
	if cs != "" && cs != "utf-8" && cs != "utf8" {
		if r, err := charset.Reader(cs, bytes.NewReader(data)); err == nil {
			if out, err := io.ReadAll(r); err == nil && utf8.Valid(out) {
				return string(out), true
			}
		}
	}
	if utf8.Valid(data) {
		return string(data), true
	}
	return "", false
}

// decodeHeader turns a raw header value into UTF-8 text. Plain text
// passes through, 8-bit bytes are decoded with the message charset and
// encoded words are expanded. Anything unrecoverable yields "", false.
func decodeHeader(raw, messageCharset string) (string, bool) {
	if raw == "" {
		return "", false
	}
	if !utf8.ValidString(raw) {
		s, ok := decodeBytes([]byte(raw), messageCharset)
		if !ok {
			return "", false
		}
		raw = s
	}
	if !strings.Contains(raw, "=?") {
		return raw, true
	}
	s, err := wordDecoder.DecodeHeader(raw)
	if err != nil || !utf8.ValidString(s) {
		return "", false
	}
	return s, true
}

// normalizeText collapses whitespace runs to one space, trims and lowercases.
func normalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
