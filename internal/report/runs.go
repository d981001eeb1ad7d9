package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"

	"github.com/nhle/dupmail/internal/model"
)

const timeLayout = "2006-01-02 15:04:05"

// shortID is enough of a run id to select it with "runs show".
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// WriteRuns lists saved runs. Plain output is a table; structured
// formats encode the run records.
func WriteRuns(w io.Writer, runs []model.Run, format model.Format) error {
	if runs == nil {
		runs = []model.Run{}
	}

	switch format {
	case model.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	case model.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(runs); err != nil {
			return err
		}
		return enc.Close()
	}

	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "no saved runs")
		return err
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ColorBorder)).
		Headers("ID", "STARTED", "SOURCE", "SCANNED", "SKIPPED", "DUPLICATES")

	for _, r := range runs {
		t.Row(
			shortID(r.ID),
			r.StartedAt.Local().Format(timeLayout),
			r.SourceType+":"+r.SourceName,
			strconv.Itoa(r.Scanned),
			strconv.Itoa(r.Skipped),
			strconv.Itoa(r.Duplicates),
		)
	}

	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return HeaderStyle
		}
		if col == 5 && row >= 0 && row < len(runs) {
			return DuplicatesStyle(runs[row].Duplicates)
		}
		return CellStyle
	})

	_, err := fmt.Fprintln(w, t.Render())
	return err
}
