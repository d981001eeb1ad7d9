package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Fingerprint is the SHA-256 digest of a record's canonical form.
type Fingerprint [sha256.Size]byte

func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// ParseFingerprint decodes the hex form produced by String.
func ParseFingerprint(s string) (Fingerprint, error) {
	var f Fingerprint
	b, err := hex.DecodeString(s)
	if err != nil {
		return f, fmt.Errorf("decoding fingerprint %q: %w", s, err)
	}
	if len(b) != len(f) {
		return f, fmt.Errorf("fingerprint %q has %d bytes, want %d", s, len(b), len(f))
	}
	copy(f[:], b)
	return f, nil
}

// Record maps each requested field to its normalized value. Fields are
// kept sorted by name so equal mappings always serialize the same way.
type Record struct {
	fields []Field
	values map[Field]Value
}

func newRecord(values map[Field]Value) Record {
	fields := make([]Field, 0, len(values))
	for f := range values {
		fields = append(fields, f)
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i] < fields[j] })
	return Record{fields: fields, values: values}
}

// Fields returns the record's field names in canonical order.
func (r Record) Fields() []Field {
	out := make([]Field, len(r.fields))
	copy(out, r.fields)
	return out
}

// Value returns the value stored for f.
func (r Record) Value(f Field) (Value, bool) {
	v, ok := r.values[f]
	return v, ok
}

// Failures counts the empty values in the record.
func (r Record) Failures() int {
	n := 0
	for _, v := range r.values {
		if v.IsEmpty() {
			n++
		}
	}
	return n
}

// Canonical returns "|v1|v2|...|" with values in field-name order. Field
// names are not part of the string.
func (r Record) Canonical() string {
	parts := make([]string, len(r.fields))
	for i, f := range r.fields {
		parts[i] = r.values[f].String()
	}
	return "|" + strings.Join(parts, "|") + "|"
}

// Fingerprint hashes the canonical form.
func (r Record) Fingerprint() Fingerprint {
	return sha256.Sum256([]byte(r.Canonical()))
}

func (r Record) MarshalJSON() ([]byte, error) {
	m := make(map[string]Value, len(r.values))
	for f, v := range r.values {
		m[string(f)] = v
	}
	return json.Marshal(m)
}
