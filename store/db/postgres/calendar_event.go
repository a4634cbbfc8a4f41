package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hrygo/orbita/store"
)

func (d *DB) CreateCalendarEvent(ctx context.Context, create *store.CalendarEvent) (*store.CalendarEvent, error) {
	now := time.Now().Unix()
	if create.CalendarID == "" {
		create.CalendarID = "primary"
	}
	if create.Status == "" {
		create.Status = "confirmed"
	}
	if create.Attendees == "" {
		create.Attendees = "[]"
	}

	stmt := `INSERT INTO calendar_event (id, calendar_id, title, description, location, status, attendees, start_ts, end_ts, created_ts, updated_ts)
		VALUES (` + placeholders(11) + `)`
	if _, err := d.db.ExecContext(ctx, stmt,
		create.ID, create.CalendarID, create.Title, create.Description, create.Location,
		create.Status, create.Attendees, create.StartTs, create.EndTs, now, now,
	); err != nil {
		return nil, fmt.Errorf("failed to create calendar_event: %w", err)
	}
	create.CreatedTs, create.UpdatedTs = now, now
	return create, nil
}

func (d *DB) ListCalendarEvents(ctx context.Context, find *store.FindCalendarEvent) ([]*store.CalendarEvent, error) {
	where, args := []string{"1 = 1"}, []any{}
	if v := find.ID; v != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.CalendarID; v != nil {
		where, args = append(where, "calendar_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.RangeEnd; v != nil {
		where, args = append(where, "start_ts < "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.RangeStart; v != nil {
		where, args = append(where, "end_ts > "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `SELECT id, calendar_id, title, description, location, status, attendees, start_ts, end_ts, created_ts, updated_ts
		FROM calendar_event WHERE ` + strings.Join(where, " AND ") + ` ORDER BY start_ts ASC`
	if find.Limit != nil {
		query += fmt.Sprintf(" LIMIT %d", *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list calendar_event: %w", err)
	}
	defer rows.Close()

	list := []*store.CalendarEvent{}
	for rows.Next() {
		e := &store.CalendarEvent{}
		if err := rows.Scan(&e.ID, &e.CalendarID, &e.Title, &e.Description, &e.Location, &e.Status,
			&e.Attendees, &e.StartTs, &e.EndTs, &e.CreatedTs, &e.UpdatedTs); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func (d *DB) DeleteCalendarEvent(ctx context.Context, delete *store.DeleteCalendarEvent) error {
	result, err := d.db.ExecContext(ctx, `DELETE FROM calendar_event WHERE id = `+placeholder(1), delete.ID)
	if err != nil {
		return fmt.Errorf("failed to delete calendar_event: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}
