package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hrygo/orbita/store"
)

func (d *DB) UpsertMemoryEntry(ctx context.Context, upsert *store.MemoryEntry) (*store.MemoryEntry, error) {
	now := time.Now().Unix()
	stmt := `INSERT INTO memory_entry (namespace, key, value, created_ts, updated_ts)
		VALUES (` + placeholders(5) + `)
		ON CONFLICT (namespace, key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_ts = EXCLUDED.updated_ts
		RETURNING id, namespace, key, value, created_ts, updated_ts`

	entry := &store.MemoryEntry{}
	if err := d.db.QueryRowContext(ctx, stmt, upsert.Namespace, upsert.Key, upsert.Value, now, now).Scan(
		&entry.ID,
		&entry.Namespace,
		&entry.Key,
		&entry.Value,
		&entry.CreatedTs,
		&entry.UpdatedTs,
	); err != nil {
		return nil, fmt.Errorf("failed to upsert memory_entry: %w", err)
	}
	return entry, nil
}

func (d *DB) ListMemoryEntries(ctx context.Context, find *store.FindMemoryEntry) ([]*store.MemoryEntry, error) {
	where, args := []string{"1 = 1"}, []any{}
	if v := find.Namespace; v != nil {
		where, args = append(where, "namespace = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Key; v != nil {
		where, args = append(where, "key = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `SELECT id, namespace, key, value, created_ts, updated_ts FROM memory_entry WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY id ASC`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list memory_entry: %w", err)
	}
	defer rows.Close()

	list := []*store.MemoryEntry{}
	for rows.Next() {
		entry := &store.MemoryEntry{}
		if err := rows.Scan(&entry.ID, &entry.Namespace, &entry.Key, &entry.Value, &entry.CreatedTs, &entry.UpdatedTs); err != nil {
			return nil, err
		}
		list = append(list, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}
