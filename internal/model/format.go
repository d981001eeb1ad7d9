package model

import (
	"fmt"
	"strings"
)

// Format selects how duplicate groups are written.
type Format string

const (
	// FormatPlain writes one line of space separated ids per group,
	// followed by a summary line.
	FormatPlain Format = "plain"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// Formats lists every supported output format.
var Formats = []Format{FormatPlain, FormatJSON, FormatYAML}

// ParseFormat validates a format name. An empty name means plain.
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	if f == "" {
		return FormatPlain, nil
	}
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q (want plain, json or yaml)", name)
}

// Structured reports whether the format is machine readable, in which
// case the summary line goes to stderr instead of the output.
func (f Format) Structured() bool {
	return f == FormatJSON || f == FormatYAML
}
