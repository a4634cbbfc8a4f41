package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// SystemSetting model related methods.
	UpsertSystemSetting(ctx context.Context, upsert *SystemSetting) (*SystemSetting, error)
	GetSystemSetting(ctx context.Context, name string) (*SystemSetting, error)

	// MemoryEntry model related methods.
	UpsertMemoryEntry(ctx context.Context, upsert *MemoryEntry) (*MemoryEntry, error)
	ListMemoryEntries(ctx context.Context, find *FindMemoryEntry) ([]*MemoryEntry, error)

	// Checkpoint model related methods.
	UpsertCheckpoint(ctx context.Context, upsert *Checkpoint) (*Checkpoint, error)
	ListCheckpoints(ctx context.Context, find *FindCheckpoint) ([]*Checkpoint, error)
	DeleteCheckpoint(ctx context.Context, delete *DeleteCheckpoint) error

	// CalendarEvent model related methods.
	CreateCalendarEvent(ctx context.Context, create *CalendarEvent) (*CalendarEvent, error)
	ListCalendarEvents(ctx context.Context, find *FindCalendarEvent) ([]*CalendarEvent, error)
	DeleteCalendarEvent(ctx context.Context, delete *DeleteCalendarEvent) error
}
