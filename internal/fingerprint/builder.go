// Package fingerprint normalizes mail messages into comparable field
// values and hashes them into fingerprints.
//
// Extraction never fails. Missing or undecodable data becomes an empty
// string or zero, which shows up in Result.Failures instead of aborting
// the message.
package fingerprint

import (
	"fmt"
)

// Result is the outcome of fingerprinting one message.
type Result struct {
	Record      Record
	Failures    int
	Fingerprint Fingerprint

	// Unreadable lists, in canonical order, the fields whose extraction
	// fell back to an empty or default value.
	Unreadable []Field
}

// Builder fingerprints messages over a fixed field set.
type Builder struct {
	fields []Field
}

// NewBuilder validates fields and returns a Builder for them.
func NewBuilder(fields []Field) (*Builder, error) {
	valid, err := ParseFields(Names(fields))
	if err != nil {
		return nil, fmt.Errorf("building fingerprinter: %w", err)
	}
	return &Builder{fields: valid}, nil
}

// Fields returns the configured fields in request order.
func (b *Builder) Fields() []Field {
	out := make([]Field, len(b.fields))
	copy(out, b.fields)
	return out
}

// Build extracts every configured field from m.
func (b *Builder) Build(m *Message) Result {
	values := make(map[Field]Value, len(b.fields))
	failed := make(map[Field]bool)
	for _, f := range b.fields {
		v, ok := extractors[f](m)
		values[f] = v
		if !ok {
			failed[f] = true
		}
	}
	rec := newRecord(values)

	var unreadable []Field
	for _, f := range rec.Fields() {
		if failed[f] {
			unreadable = append(unreadable, f)
		}
	}
	return Result{
		Record:      rec,
		Failures:    rec.Failures(),
		Fingerprint: rec.Fingerprint(),
		Unreadable:  unreadable,
	}
}

// BuildRaw parses raw and fingerprints it.
func (b *Builder) BuildRaw(raw []byte) Result {
	return b.Build(ParseMessage(raw))
}

// Extract returns a single normalized field value of m.
func Extract(m *Message, f Field) (Value, error) {
	ex, ok := extractors[f]
	if !ok {
		return Value{}, &UnknownFieldError{Name: string(f)}
	}
	v, _ := ex(m)
	return v, nil
}
