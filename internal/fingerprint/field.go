package fingerprint

import (
	"fmt"
	"sort"
	"strings"
)

// Field names one normalized property of a message.
type Field string

const (
	FieldFrom      Field = "from"
	FieldTo        Field = "to"
	FieldSubject   Field = "subject"
	FieldDate      Field = "date"
	FieldBodySize  Field = "body_size"
	FieldBodyLines Field = "body_lines"
	FieldBodyHash  Field = "body_hash"
)

// DefaultFields is the field set used when none is configured.
var DefaultFields = []Field{
	FieldFrom, FieldTo, FieldDate, FieldSubject, FieldBodyLines,
}

// extractor computes a field value. ok reports whether the source data
// was present and parseable; callers outside this package only ever see
// the value.
type extractor func(m *Message) (v Value, ok bool)

// extractors is the closed registry of recognized fields.
var extractors = map[Field]extractor{
	FieldFrom:      extractFrom,
	FieldTo:        extractTo,
	FieldSubject:   extractSubject,
	FieldDate:      extractDate,
	FieldBodySize:  extractBodySize,
	FieldBodyLines: extractBodyLines,
	FieldBodyHash:  extractBodyHash,
}

// UnknownFieldError is returned when a field name is not in the registry.
type UnknownFieldError struct {
	Name string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf(
		"unknown field %q (valid: %s)", e.Name, strings.Join(FieldNames(), ", "),
	)
}

// Fields returns every recognized field, sorted by name.
func Fields() []Field {
	fields := make([]Field, 0, len(extractors))
	for f := range extractors {
		fields = append(fields, f)
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i] < fields[j] })
	return fields
}

// FieldNames returns the recognized field names, sorted.
func FieldNames() []string {
	return Names(Fields())
}

// ParseField validates a single field name.
func ParseField(name string) (Field, error) {
	f := Field(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := extractors[f]; !ok {
		return "", &UnknownFieldError{Name: name}
	}
	return f, nil
}

// ParseFields validates a list of field names. Repeated names are
// dropped, keeping the first occurrence. An empty list is an error.
func ParseFields(names []string) ([]Field, error) {
	seen := make(map[Field]bool, len(names))
	fields := make([]Field, 0, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		f, err := ParseField(name)
		if err != nil {
			return nil, err
		}
		if seen[f] {
			continue
		}
		seen[f] = true
		fields = append(fields, f)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("no fields given")
	}
	return fields, nil
}

// ParseFieldList splits a comma separated list and validates it.
func ParseFieldList(list string) ([]Field, error) {
	return ParseFields(strings.Split(list, ","))
}

// Names converts fields back to their names.
func Names(fields []Field) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = string(f)
	}
	return names
}
