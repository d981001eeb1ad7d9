package fingerprint

import (
	"encoding/json"
	"strconv"
)

// Kind distinguishes the two shapes a field value can take.
type Kind int

const (
	KindString Kind = iota
	KindInt
)

// Value is a normalized field value: either a string or a non-negative
// integer. The zero Value is the empty string.
type Value struct {
	kind Kind
	str  string
	num  int64
}

// StringValue wraps s.
func StringValue(s string) Value {
	return Value{kind: KindString, str: s}
}

// IntValue wraps n. Negative inputs are clamped to zero.
func IntValue(n int64) Value {
	if n < 0 {
		n = 0
	}
	return Value{kind: KindInt, num: n}
}

func (v Value) Kind() Kind { return v.kind }

// Int returns the integer payload, or 0 for string values.
func (v Value) Int() int64 {
	if v.kind != KindInt {
		return 0
	}
	return v.num
}

// String returns the canonical text form used in fingerprints.
func (v Value) String() string {
	if v.kind == KindInt {
		return strconv.FormatInt(v.num, 10)
	}
	return v.str
}

// IsEmpty reports whether the value counts as a failure: an empty
// string or the integer zero.
func (v Value) IsEmpty() bool {
	if v.kind == KindInt {
		return v.num == 0
	}
	return v.str == ""
}

// MarshalJSON writes integers as numbers and strings as strings.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == KindInt {
		return json.Marshal(v.num)
	}
	return json.Marshal(v.str)
}
