package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
	id             TEXT PRIMARY KEY,
	source_type    TEXT NOT NULL,
	source_name    TEXT NOT NULL,
	fields         TEXT NOT NULL,
	skip_threshold INTEGER NOT NULL,
	scanned        INTEGER NOT NULL DEFAULT 0,
	skipped        INTEGER NOT NULL DEFAULT 0,
	duplicates     INTEGER NOT NULL DEFAULT 0,
	started_at     DATETIME NOT NULL,
	finished_at    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS run_groups (
	run_id      TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	position    INTEGER NOT NULL,
	fingerprint TEXT NOT NULL,
	PRIMARY KEY (run_id, position)
);

CREATE TABLE IF NOT EXISTS run_group_members (
	run_id          TEXT NOT NULL,
	group_position  INTEGER NOT NULL,
	member_position INTEGER NOT NULL,
	message_id      TEXT NOT NULL,
	PRIMARY KEY (run_id, group_position, member_position),
	FOREIGN KEY (run_id, group_position)
		REFERENCES run_groups(run_id, position) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS run_skips (
	run_id     TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	position   INTEGER NOT NULL,
	message_id TEXT NOT NULL,
	failures   INTEGER NOT NULL,
	PRIMARY KEY (run_id, position)
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE INDEX IF NOT EXISTS idx_run_groups_fingerprint
	ON run_groups(fingerprint);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
