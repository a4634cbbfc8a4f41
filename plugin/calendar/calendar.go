// Package calendar provides the event backends used by the calendar handler.
package calendar

import (
	"context"
	"errors"
	"strings"
	"time"
	_ "time/tzdata"
)

// DefaultTimezone is used when no timezone is configured.
const DefaultTimezone = "Asia/Ho_Chi_Minh"

// DefaultCalendarID names the calendar events are read from and written to.
const DefaultCalendarID = "primary"

// ErrInvalidPeriod is returned for a period other than today, week or month.
var ErrInvalidPeriod = errors.New("invalid period: use 'today', 'week' or 'month'")

// Event is a calendar entry.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Status      string    `json:"status"`
	Attendees   []string  `json:"attendees,omitempty"`
}

// Duration returns the event length.
func (e *Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// Service reads and writes calendar events.
type Service interface {
	// ListEvents returns events overlapping [start, end) ordered by start time.
	ListEvents(ctx context.Context, start, end time.Time, maxResults int) ([]*Event, error)
	// CreateEvent stores a new event and returns it with its assigned ID.
	CreateEvent(ctx context.Context, event *Event) (*Event, error)
}

// Period is a named range relative to now.
type Period string

const (
	PeriodToday Period = "today"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// ParsePeriod normalizes a period name.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case PeriodToday, PeriodWeek, PeriodMonth:
		return p, nil
	case "":
		return PeriodToday, nil
	default:
		return "", ErrInvalidPeriod
	}
}

// Range returns the [start, end) bounds of the period containing now.
// Weeks run Monday through Sunday.
func (p Period) Range(now time.Time) (time.Time, time.Time) {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch p {
	case PeriodWeek:
		offset := (int(day.Weekday()) + 6) % 7
		start := day.AddDate(0, 0, -offset)
		return start, start.AddDate(0, 0, 7)
	case PeriodMonth:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return start, start.AddDate(0, 1, 0)
	default:
		return day, day.AddDate(0, 0, 1)
	}
}

// LoadLocation resolves a timezone name, falling back to DefaultTimezone
// and finally UTC.
func LoadLocation(name string) *time.Location {
	if name == "" {
		name = DefaultTimezone
	}
	if loc, err := time.LoadLocation(name); err == nil {
		return loc
	}
	if loc, err := time.LoadLocation(DefaultTimezone); err == nil {
		return loc
	}
	return time.UTC
}
