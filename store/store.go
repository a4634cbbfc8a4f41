package store

import (
	"context"
	"errors"

	"github.com/hrygo/orbita/internal/profile"
)

// ErrNotFound is returned when a row addressed by id does not exist.
var ErrNotFound = errors.New("not found")

// Store provides database access to memory entries, checkpoints and
// calendar events.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	return s.driver.Close()
}

func (s *Store) UpsertMemoryEntry(ctx context.Context, upsert *MemoryEntry) (*MemoryEntry, error) {
	return s.driver.UpsertMemoryEntry(ctx, upsert)
}

func (s *Store) ListMemoryEntries(ctx context.Context, find *FindMemoryEntry) ([]*MemoryEntry, error) {
	return s.driver.ListMemoryEntries(ctx, find)
}

func (s *Store) UpsertCheckpoint(ctx context.Context, upsert *Checkpoint) (*Checkpoint, error) {
	return s.driver.UpsertCheckpoint(ctx, upsert)
}

func (s *Store) ListCheckpoints(ctx context.Context, find *FindCheckpoint) ([]*Checkpoint, error) {
	return s.driver.ListCheckpoints(ctx, find)
}

// GetCheckpoint returns the checkpoint of a thread, or nil when none exists.
func (s *Store) GetCheckpoint(ctx context.Context, threadID string) (*Checkpoint, error) {
	list, err := s.driver.ListCheckpoints(ctx, &FindCheckpoint{ThreadID: &threadID})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) DeleteCheckpoint(ctx context.Context, delete *DeleteCheckpoint) error {
	return s.driver.DeleteCheckpoint(ctx, delete)
}

func (s *Store) CreateCalendarEvent(ctx context.Context, create *CalendarEvent) (*CalendarEvent, error) {
	return s.driver.CreateCalendarEvent(ctx, create)
}

func (s *Store) ListCalendarEvents(ctx context.Context, find *FindCalendarEvent) ([]*CalendarEvent, error) {
	return s.driver.ListCalendarEvents(ctx, find)
}

func (s *Store) DeleteCalendarEvent(ctx context.Context, delete *DeleteCalendarEvent) error {
	return s.driver.DeleteCalendarEvent(ctx, delete)
}
