package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hrygo/orbita/store"
)

func (d *DB) UpsertCheckpoint(ctx context.Context, upsert *store.Checkpoint) (*store.Checkpoint, error) {
	now := time.Now().Unix()
	stmt := `INSERT INTO checkpoint (thread_id, user_id, transcript, created_ts, updated_ts)
		VALUES (` + placeholders(5) + `)
		ON CONFLICT (thread_id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			transcript = EXCLUDED.transcript,
			updated_ts = EXCLUDED.updated_ts
		RETURNING thread_id, user_id, transcript, created_ts, updated_ts`

	cp := &store.Checkpoint{}
	if err := d.db.QueryRowContext(ctx, stmt, upsert.ThreadID, upsert.UserID, upsert.Transcript, now, now).Scan(
		&cp.ThreadID,
		&cp.UserID,
		&cp.Transcript,
		&cp.CreatedTs,
		&cp.UpdatedTs,
	); err != nil {
		return nil, fmt.Errorf("failed to upsert checkpoint: %w", err)
	}
	return cp, nil
}

func (d *DB) ListCheckpoints(ctx context.Context, find *store.FindCheckpoint) ([]*store.Checkpoint, error) {
	where, args := []string{"1 = 1"}, []any{}
	if v := find.ThreadID; v != nil {
		where, args = append(where, "thread_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UserID; v != nil {
		where, args = append(where, "user_id = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `SELECT thread_id, user_id, transcript, created_ts, updated_ts FROM checkpoint WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY updated_ts DESC`
	if find.Limit != nil {
		query += fmt.Sprintf(" LIMIT %d", *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoint: %w", err)
	}
	defer rows.Close()

	list := []*store.Checkpoint{}
	for rows.Next() {
		cp := &store.Checkpoint{}
		if err := rows.Scan(&cp.ThreadID, &cp.UserID, &cp.Transcript, &cp.CreatedTs, &cp.UpdatedTs); err != nil {
			return nil, err
		}
		list = append(list, cp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func (d *DB) DeleteCheckpoint(ctx context.Context, delete *store.DeleteCheckpoint) error {
	result, err := d.db.ExecContext(ctx, `DELETE FROM checkpoint WHERE thread_id = `+placeholder(1), delete.ThreadID)
	if err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}
