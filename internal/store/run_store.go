package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/dupmail/internal/model"
)

// SaveRun inserts a run, its groups with their members, and its skips in
// one transaction.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *model.Run) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now().UTC()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = run.FinishedAt
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (
			id, source_type, source_name, fields, skip_threshold,
			scanned, skipped, duplicates, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.SourceType, run.SourceName, run.Fields, run.SkipThreshold,
		run.Scanned, run.Skipped, run.Duplicates,
		run.StartedAt.UTC(), run.FinishedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", run.ID, err)
	}

	groupStmt, err := tx.PreparexContext(ctx,
		"INSERT INTO run_groups (run_id, position, fingerprint) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing group statement: %w", err)
	}
	defer groupStmt.Close()

	memberStmt, err := tx.PreparexContext(ctx, `
		INSERT INTO run_group_members (run_id, group_position, member_position, message_id)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing member statement: %w", err)
	}
	defer memberStmt.Close()

	for i := range run.Groups {
		g := &run.Groups[i]
		g.Position = i
		if _, err := groupStmt.ExecContext(ctx, run.ID, i, g.Fingerprint); err != nil {
			return fmt.Errorf("inserting group %d of run %s: %w", i, run.ID, err)
		}
		for j, id := range g.MessageIDs {
			if _, err := memberStmt.ExecContext(ctx, run.ID, i, j, id); err != nil {
				return fmt.Errorf("inserting member %s of run %s: %w", id, run.ID, err)
			}
		}
	}

	skipStmt, err := tx.PreparexContext(ctx,
		"INSERT INTO run_skips (run_id, position, message_id, failures) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing skip statement: %w", err)
	}
	defer skipStmt.Close()

	for i, sk := range run.Skips {
		if _, err := skipStmt.ExecContext(ctx, run.ID, i, sk.MessageID, sk.Failures); err != nil {
			return fmt.Errorf("inserting skip %s of run %s: %w", sk.MessageID, run.ID, err)
		}
	}

	return tx.Commit()
}

const runColumns = `id, source_type, source_name, fields, skip_threshold,
	scanned, skipped, duplicates, started_at, finished_at`

// GetRuns retrieves runs matching the filter, newest first.
func (s *SQLiteStore) GetRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := "SELECT " + runColumns + " FROM runs"
	var args []interface{}

	if filter.SourceName != nil {
		query += " WHERE source_name = ?"
		args = append(args, *filter.SourceName)
	}
	query += " ORDER BY started_at DESC, id"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	}

	var runs []model.Run
	if err := s.db.SelectContext(ctx, &runs, query, args...); err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	return runs, nil
}

// GetRun retrieves a single run by id or unique id prefix.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*model.Run, error) {
	fullID, err := s.resolveID(ctx, id)
	if err != nil {
		return nil, err
	}

	var run model.Run
	err = s.db.GetContext(ctx, &run,
		"SELECT "+runColumns+" FROM runs WHERE id = ?", fullID)
	if err != nil {
		return nil, fmt.Errorf("getting run %s: %w", fullID, err)
	}

	if err := s.db.SelectContext(ctx, &run.Groups,
		"SELECT position, fingerprint FROM run_groups WHERE run_id = ? ORDER BY position",
		fullID,
	); err != nil {
		return nil, fmt.Errorf("getting groups of run %s: %w", fullID, err)
	}

	rows, err := s.db.QueryxContext(ctx, `
		SELECT group_position, message_id FROM run_group_members
		WHERE run_id = ? ORDER BY group_position, member_position`, fullID)
	if err != nil {
		return nil, fmt.Errorf("getting members of run %s: %w", fullID, err)
	}
	defer rows.Close()

	byPosition := make(map[int]int, len(run.Groups))
	for i, g := range run.Groups {
		byPosition[g.Position] = i
	}
	for rows.Next() {
		var pos int
		var msgID string
		if err := rows.Scan(&pos, &msgID); err != nil {
			return nil, fmt.Errorf("scanning member row: %w", err)
		}
		if i, ok := byPosition[pos]; ok {
			run.Groups[i].MessageIDs = append(run.Groups[i].MessageIDs, msgID)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.db.SelectContext(ctx, &run.Skips,
		"SELECT message_id, failures FROM run_skips WHERE run_id = ? ORDER BY position",
		fullID,
	); err != nil {
		return nil, fmt.Errorf("getting skips of run %s: %w", fullID, err)
	}

	return &run, nil
}

// resolveID expands a unique prefix to a full run id.
func (s *SQLiteStore) resolveID(ctx context.Context, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" || strings.ContainsAny(id, "%_") {
		return "", fmt.Errorf("run %q: %w", id, ErrNotFound)
	}

	var ids []string
	err := s.db.SelectContext(ctx, &ids,
		"SELECT id FROM runs WHERE id = ? OR id LIKE ? ORDER BY id = ? DESC, id LIMIT 2",
		id, id+"%", id)
	if err != nil {
		return "", fmt.Errorf("looking up run %s: %w", id, err)
	}

	switch {
	case len(ids) == 0:
		return "", fmt.Errorf("run %q: %w", id, ErrNotFound)
	case ids[0] == id || len(ids) == 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("run id prefix %q is ambiguous", id)
	}
}

// DeleteRun removes a run. Groups, members and skips go with it.
func (s *SQLiteStore) DeleteRun(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting run %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("run %q: %w", id, ErrNotFound)
	}
	return nil
}
