package model

import "time"

// Run is one saved scan of a mail folder.
type Run struct {
	// ID is the internal unique identifier for this run.
	ID string `db:"id" json:"id" yaml:"id"`

	// SourceType is maildir, mbox or imap.
	SourceType string `db:"source_type" json:"source_type" yaml:"source_type"`

	// SourceName is the folder path or mailbox URL.
	SourceName string `db:"source_name" json:"source_name" yaml:"source_name"`

	// Fields is the comma separated field list used for fingerprints.
	Fields string `db:"fields" json:"fields" yaml:"fields"`

	SkipThreshold int `db:"skip_threshold" json:"skip_threshold" yaml:"skip_threshold"`

	// Scanned counts every message seen, skipped ones included.
	Scanned int `db:"scanned" json:"scanned" yaml:"scanned"`
	Skipped int `db:"skipped" json:"skipped" yaml:"skipped"`

	// Duplicates is the number of redundant copies found.
	Duplicates int `db:"duplicates" json:"duplicates" yaml:"duplicates"`

	StartedAt  time.Time `db:"started_at" json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `db:"finished_at" json:"finished_at" yaml:"finished_at"`

	// Groups and Skips are loaded separately from the run row.
	Groups []RunGroup `db:"-" json:"groups,omitempty" yaml:"groups,omitempty"`
	Skips  []RunSkip  `db:"-" json:"skips,omitempty" yaml:"skips,omitempty"`
}

// RunGroup is a duplicate group recorded for a run.
type RunGroup struct {
	Position    int      `db:"position" json:"position" yaml:"position"`
	Fingerprint string   `db:"fingerprint" json:"fingerprint" yaml:"fingerprint"`
	MessageIDs  []string `db:"-" json:"message_ids" yaml:"message_ids"`
}

// RunSkip is a message a run left out of grouping.
type RunSkip struct {
	MessageID string `db:"message_id" json:"message_id" yaml:"message_id"`
	Failures  int    `db:"failures" json:"failures" yaml:"failures"`
}

// GroupIDs returns the member ids of every group, in group order.
func (r *Run) GroupIDs() [][]string {
	out := make([][]string, len(r.Groups))
	for i, g := range r.Groups {
		out[i] = g.MessageIDs
	}
	return out
}
