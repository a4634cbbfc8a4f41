package calendar

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryService is an in-process calendar for tests and demos.
type MemoryService struct {
	// ListErr, when set, is returned by ListEvents.
	ListErr error

	mu     sync.Mutex
	events []*Event
	nextID int
}

var _ Service = (*MemoryService)(nil)

// NewMemoryService creates a calendar seeded with events.
func NewMemoryService(events ...*Event) *MemoryService {
	m := &MemoryService{}
	for _, e := range events {
		m.add(e)
	}
	return m
}

func (m *MemoryService) add(e *Event) *Event {
	cp := *e
	if cp.ID == "" {
		m.nextID++
		cp.ID = fmt.Sprintf("evt-%d", m.nextID)
	}
	if cp.Status == "" {
		cp.Status = "confirmed"
	}
	m.events = append(m.events, &cp)
	sort.SliceStable(m.events, func(i, j int) bool { return m.events[i].Start.Before(m.events[j].Start) })
	return &cp
}

func (m *MemoryService) ListEvents(_ context.Context, start, end time.Time, maxResults int) ([]*Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}

	var out []*Event
	for _, e := range m.events {
		if e.Start.Before(end) && e.End.After(start) {
			cp := *e
			out = append(out, &cp)
			if maxResults > 0 && len(out) == maxResults {
				break
			}
		}
	}
	return out, nil
}

func (m *MemoryService) CreateEvent(_ context.Context, event *Event) (*Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	created := m.add(event)
	cp := *created
	return &cp, nil
}

// Events returns every stored event.
func (m *MemoryService) Events() []*Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Event, len(m.events))
	for i, e := range m.events {
		cp := *e
		out[i] = &cp
	}
	return out
}
