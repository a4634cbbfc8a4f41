package store

// CalendarEvent is an event in the local calendar backend.
type CalendarEvent struct {
	ID          string
	CalendarID  string
	Title       string
	Description string
	Location    string
	Status      string
	// Attendees holds a JSON array of email addresses.
	Attendees string
	StartTs   int64
	EndTs     int64
	CreatedTs int64
	UpdatedTs int64
}

// FindCalendarEvent selects events. When both range bounds are set, events
// overlapping [RangeStart, RangeEnd) are returned.
type FindCalendarEvent struct {
	ID         *string
	CalendarID *string
	RangeStart *int64
	RangeEnd   *int64
	Limit      *int
}

type DeleteCalendarEvent struct {
	ID string
}
