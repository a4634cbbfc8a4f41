package calendar

import (
	"context"
	"encoding/json"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"

	"github.com/hrygo/orbita/store"
)

// EventStore is the storage the local backend needs.
type EventStore interface {
	CreateCalendarEvent(ctx context.Context, create *store.CalendarEvent) (*store.CalendarEvent, error)
	ListCalendarEvents(ctx context.Context, find *store.FindCalendarEvent) ([]*store.CalendarEvent, error)
}

// LocalService keeps events in the orbita database.
type LocalService struct {
	store      EventStore
	calendarID string
	loc        *time.Location
}

var _ Service = (*LocalService)(nil)

// NewLocalService creates a database-backed calendar. Returned events are
// expressed in loc.
func NewLocalService(s EventStore, loc *time.Location) *LocalService {
	if loc == nil {
		loc = LoadLocation("")
	}
	return &LocalService{store: s, calendarID: DefaultCalendarID, loc: loc}
}

func (s *LocalService) ListEvents(ctx context.Context, start, end time.Time, maxResults int) ([]*Event, error) {
	rangeStart, rangeEnd := start.Unix(), end.Unix()
	find := &store.FindCalendarEvent{
		CalendarID: &s.calendarID,
		RangeStart: &rangeStart,
		RangeEnd:   &rangeEnd,
	}
	if maxResults > 0 {
		find.Limit = &maxResults
	}

	list, err := s.store.ListCalendarEvents(ctx, find)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list calendar events")
	}

	events := make([]*Event, 0, len(list))
	for _, raw := range list {
		events = append(events, s.convert(raw))
	}
	return events, nil
}

func (s *LocalService) CreateEvent(ctx context.Context, event *Event) (*Event, error) {
	if !event.End.After(event.Start) {
		return nil, errors.New("event end must be after its start")
	}
	attendees := event.Attendees
	if attendees == nil {
		attendees = []string{}
	}
	attendeesJSON, err := json.Marshal(attendees)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal attendees")
	}

	created, err := s.store.CreateCalendarEvent(ctx, &store.CalendarEvent{
		ID:          shortuuid.New(),
		CalendarID:  s.calendarID,
		Title:       event.Title,
		Description: event.Description,
		Location:    event.Location,
		Status:      "confirmed",
		Attendees:   string(attendeesJSON),
		StartTs:     event.Start.Unix(),
		EndTs:       event.End.Unix(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create calendar event")
	}
	return s.convert(created), nil
}

func (s *LocalService) convert(raw *store.CalendarEvent) *Event {
	e := &Event{
		ID:          raw.ID,
		Title:       raw.Title,
		Description: raw.Description,
		Location:    raw.Location,
		Start:       time.Unix(raw.StartTs, 0).In(s.loc),
		End:         time.Unix(raw.EndTs, 0).In(s.loc),
		Status:      raw.Status,
	}
	if e.Title == "" {
		e.Title = "No title"
	}
	if raw.Attendees != "" {
		// Malformed attendee lists are dropped rather than failing the read.
		_ = json.Unmarshal([]byte(raw.Attendees), &e.Attendees)
	}
	return e
}
