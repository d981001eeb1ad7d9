// Package report writes duplicate groups and saved runs in the
// supported output formats.
package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nhle/dupmail/internal/model"
)

// summaryLine matches the trailer of plain output.
var summaryLine = regexp.MustCompile(`^\d+ dupmails found$`)

// Summary is the line reporting how many redundant copies were found.
func Summary(duplicates int) string {
	return fmt.Sprintf("%d dupmails found", duplicates)
}

// Writer renders duplicate groups. Structured formats keep out
// machine readable and send the summary to status.
type Writer struct {
	out    io.Writer
	status io.Writer
	format model.Format
}

// NewWriter creates a Writer. status may be nil to drop the summary of
// structured formats.
func NewWriter(out, status io.Writer, format model.Format) *Writer {
	if status == nil {
		status = io.Discard
	}
	if format == "" {
		format = model.FormatPlain
	}
	return &Writer{out: out, status: status, format: format}
}

// WriteGroups writes every group followed by the summary.
func (w *Writer) WriteGroups(groups [][]string, duplicates int) error {
	if groups == nil {
		groups = [][]string{}
	}

	switch w.format {
	case model.FormatJSON:
		enc := json.NewEncoder(w.out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(groups); err != nil {
			return fmt.Errorf("encoding json: %w", err)
		}
	case model.FormatYAML:
		enc := yaml.NewEncoder(w.out)
		enc.SetIndent(2)
		if err := enc.Encode(groups); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
	case model.FormatPlain:
		bw := bufio.NewWriter(w.out)
		for _, g := range groups {
			bw.WriteString(strings.Join(g, " "))
			bw.WriteByte('\n')
		}
		bw.WriteString(Summary(duplicates))
		bw.WriteByte('\n')
		if err := bw.Flush(); err != nil {
			return fmt.Errorf("writing groups: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q", w.format)
	}

	if _, err := fmt.Fprintln(w.status, Summary(duplicates)); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}
	return nil
}

// ReadGroups parses output produced by WriteGroups back into groups.
// For plain output the summary line is skipped.
func ReadGroups(r io.Reader, format model.Format) ([][]string, error) {
	var groups [][]string

	switch format {
	case model.FormatJSON:
		if err := json.NewDecoder(r).Decode(&groups); err != nil {
			return nil, fmt.Errorf("decoding json groups: %w", err)
		}
	case model.FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&groups); err != nil {
			return nil, fmt.Errorf("decoding yaml groups: %w", err)
		}
	case model.FormatPlain, "":
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" || summaryLine.MatchString(line) {
				continue
			}
			groups = append(groups, strings.Fields(line))
		}
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("reading plain groups: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}

	if groups == nil {
		groups = [][]string{}
	}
	return groups, nil
}
