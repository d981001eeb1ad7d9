package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/dupmail/internal/model"
)

var sampleGroups = [][]string{
	{"m1", "m3"},
	{"m2", "m4", "m5"},
}

func TestWritePlain(t *testing.T) {
	var out, status bytes.Buffer
	w := NewWriter(&out, &status, model.FormatPlain)

	require.NoError(t, w.WriteGroups(sampleGroups, 3))
	assert.Equal(t, "m1 m3\nm2 m4 m5\n3 dupmails found\n", out.String())
	assert.Empty(t, status.String())
}

func TestWritePlainNoGroups(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, NewWriter(&out, nil, "").WriteGroups(nil, 0))
	assert.Equal(t, "0 dupmails found\n", out.String())
}

func TestStructuredRoundTrip(t *testing.T) {
	for _, format := range []model.Format{model.FormatJSON, model.FormatYAML, model.FormatPlain} {
		t.Run(string(format), func(t *testing.T) {
			var out, status bytes.Buffer
			w := NewWriter(&out, &status, format)
			require.NoError(t, w.WriteGroups(sampleGroups, 3))

			if format.Structured() {
				assert.Equal(t, "3 dupmails found\n", status.String())
				assert.NotContains(t, out.String(), "dupmails found")
			}

			got, err := ReadGroups(&out, format)
			require.NoError(t, err)
			assert.Equal(t, sampleGroups, got)
		})
	}
}

func TestStructuredEmpty(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, NewWriter(&out, nil, model.FormatJSON).WriteGroups(nil, 0))
	assert.Equal(t, "[]\n", out.String())

	got, err := ReadGroups(&out, model.FormatJSON)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReadGroupsErrors(t *testing.T) {
	_, err := ReadGroups(strings.NewReader("{"), model.FormatJSON)
	assert.Error(t, err)

	_, err = ReadGroups(strings.NewReader(""), "xml")
	assert.Error(t, err)
}

func TestWriteRuns(t *testing.T) {
	runs := []model.Run{{
		ID:         "0123456789abcdef",
		SourceType: "mbox",
		SourceName: "/tmp/a.mbox",
		Scanned:    10,
		Skipped:    1,
		Duplicates: 2,
		StartedAt:  time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
	}}

	var plain bytes.Buffer
	require.NoError(t, WriteRuns(&plain, runs, model.FormatPlain))
	assert.Contains(t, plain.String(), "01234567")
	assert.Contains(t, plain.String(), "mbox:/tmp/a.mbox")
	assert.NotContains(t, plain.String(), "89abcdef")

	var js bytes.Buffer
	require.NoError(t, WriteRuns(&js, runs, model.FormatJSON))
	assert.Contains(t, js.String(), `"id": "0123456789abcdef"`)

	var empty bytes.Buffer
	require.NoError(t, WriteRuns(&empty, nil, model.FormatPlain))
	assert.Equal(t, "no saved runs\n", empty.String())
}

func TestBarModel(t *testing.T) {
	m := newBarModel("scanning")
	assert.Zero(t, m.percent())

	next, _ := m.Update(progressMsg{done: 5, total: 10})
	m = next.(barModel)
	assert.InDelta(t, 0.5, m.percent(), 1e-9)
	assert.Contains(t, m.View(), "5/10")
	assert.Contains(t, m.View(), "scanning")

	next, _ = m.Update(progressMsg{done: 12, total: 10})
	assert.InDelta(t, 1.0, next.(barModel).percent(), 1e-9)

	next, _ = m.Update(tea.WindowSizeMsg{Width: 20})
	assert.Equal(t, 10, next.(barModel).bar.Width)

	next, cmd := m.Update(stopMsg{})
	assert.NotNil(t, cmd)
	assert.Empty(t, next.(barModel).View())
}

func TestBarRunsAndStops(t *testing.T) {
	var buf bytes.Buffer
	b := NewBar(&buf, "scanning")
	b.Start()
	b.Update(1, 2)
	b.Stop()
	b.Stop()
}

func TestNopProgress(t *testing.T) {
	var p Progress = Nop{}
	p.Start()
	p.Update(1, 1)
	p.Stop()
}
