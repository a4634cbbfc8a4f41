package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hrygo/orbita/plugin/calendar"
)

const (
	defaultEventMinutes = 60
	defaultMaxEvents    = 20
	summaryMaxEvents    = 100
)

// CalendarTools groups the calendar tools over one backend and timezone.
type CalendarTools struct {
	svc calendar.Service
	loc *time.Location
	now func() time.Time
}

// NewCalendarTools creates the calendar tool set.
func NewCalendarTools(svc calendar.Service, loc *time.Location) *CalendarTools {
	if loc == nil {
		loc = calendar.LoadLocation("")
	}
	return &CalendarTools{svc: svc, loc: loc, now: time.Now}
}

// WithClock overrides time.Now.
func (c *CalendarTools) WithClock(now func() time.Time) *CalendarTools {
	c.now = now
	return c
}

// Tools returns every calendar tool.
func (c *CalendarTools) Tools() []Tool {
	return []Tool{
		&GetCalendarEventsTool{c},
		&ScheduleEventTool{c},
		&FindFreeSlotsTool{c},
		&SummarizeCalendarTool{c},
	}
}

func (c *CalendarTools) localNow() time.Time {
	return c.now().In(c.loc)
}

// GetCalendarEventsTool lists events for today, this week or this month.
type GetCalendarEventsTool struct{ *CalendarTools }

func (t *GetCalendarEventsTool) Name() string { return "get_calendar_events" }

func (t *GetCalendarEventsTool) Description() string {
	return "Get calendar events for a period: 'today', 'week' or 'month'."
}

func (t *GetCalendarEventsTool) Parameters() string {
	return `{
  "type": "object",
  "properties": {
    "period": {"type": "string", "enum": ["today", "week", "month"], "description": "Period to list."},
    "max_results": {"type": "integer", "description": "Maximum number of events to return.", "minimum": 1}
  }
}`
}

type getEventsInput struct {
	Period     string `json:"period"`
	MaxResults int    `json:"max_results"`
}

func (t *GetCalendarEventsTool) Run(ctx context.Context, input string) (string, error) {
	var in getEventsInput
	if err := decodeArgs(input, &in); err != nil {
		return "", err
	}
	period, err := calendar.ParsePeriod(in.Period)
	if err != nil {
		// Unknown periods fall back to today.
		period = calendar.PeriodToday
	}
	if in.MaxResults <= 0 {
		in.MaxResults = defaultMaxEvents
	}

	start, end := period.Range(t.localNow())
	events, err := t.svc.ListEvents(ctx, start, end, in.MaxResults)
	if err != nil {
		return "", fmt.Errorf("failed to get events: %w", err)
	}
	if len(events) == 0 {
		return fmt.Sprintf("No events found for %s.", period), nil
	}
	return toJSON(events)
}

// ScheduleEventTool creates an event unless something is booked nearby.
type ScheduleEventTool struct{ *CalendarTools }

func (t *ScheduleEventTool) Name() string { return "schedule_event" }

func (t *ScheduleEventTool) SideEffects() bool { return true }

func (t *ScheduleEventTool) Description() string {
	return "Schedule a new calendar event. Reports a conflict instead of booking when another event is within 30 minutes."
}

func (t *ScheduleEventTool) Parameters() string {
	return `{
  "type": "object",
  "properties": {
    "title": {"type": "string", "description": "Event title."},
    "start_datetime": {"type": "string", "description": "Start time formatted as YYYY-MM-DD HH:MM."},
    "duration_minutes": {"type": "integer", "description": "Event duration in minutes. Defaults to 60.", "minimum": 1},
    "description": {"type": "string", "description": "Optional event description."},
    "location": {"type": "string", "description": "Optional location."}
  },
  "required": ["title", "start_datetime"]
}`
}

type scheduleInput struct {
	Title           string `json:"title"`
	StartDatetime   string `json:"start_datetime"`
	DurationMinutes int    `json:"duration_minutes"`
	Description     string `json:"description"`
	Location        string `json:"location"`
}

type conflictResult struct {
	Warning        string            `json:"warning"`
	ExistingEvents []*calendar.Event `json:"existing_events"`
	Suggestion     string            `json:"suggestion"`
}

type scheduledResult struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	ID              string `json:"id"`
	Start           string `json:"start"`
	End             string `json:"end"`
	DurationMinutes int    `json:"duration_minutes"`
}

// startLayouts are accepted for start_datetime.
var startLayouts = []string{"2006-01-02 15:04", "2006-01-02 15:04:05", "2006-01-02T15:04", "2006-01-02T15:04:05"}

func (t *ScheduleEventTool) parseStart(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range startLayouts {
		if ts, err := time.ParseInLocation(layout, s, t.loc); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, invalidArgs("start_datetime %q must look like YYYY-MM-DD HH:MM", s)
}

func (t *ScheduleEventTool) Run(ctx context.Context, input string) (string, error) {
	var in scheduleInput
	if err := decodeArgs(input, &in); err != nil {
		return "", err
	}
	if strings.TrimSpace(in.Title) == "" {
		return "", invalidArgs("title is required")
	}
	start, err := t.parseStart(in.StartDatetime)
	if err != nil {
		return "", err
	}
	if in.DurationMinutes <= 0 {
		in.DurationMinutes = defaultEventMinutes
	}
	end := start.Add(time.Duration(in.DurationMinutes) * time.Minute)

	nearby, err := t.svc.ListEvents(ctx, start.Add(-calendar.ConflictMargin), end.Add(calendar.ConflictMargin), 0)
	if err != nil {
		return "", fmt.Errorf("failed to check conflicts: %w", err)
	}
	if len(nearby) > 0 {
		return toJSON(conflictResult{
			Warning:        fmt.Sprintf("Time conflict detected! You have %d event(s) near this time.", len(nearby)),
			ExistingEvents: nearby,
			Suggestion:     "Please choose a different time or confirm you want to reschedule.",
		})
	}

	created, err := t.svc.CreateEvent(ctx, &calendar.Event{
		Title:       in.Title,
		Description: in.Description,
		Location:    in.Location,
		Start:       start,
		End:         end,
	})
	if err != nil {
		return "", fmt.Errorf("failed to schedule event: %w", err)
	}
	return toJSON(scheduledResult{
		Success:         true,
		Message:         fmt.Sprintf("Event scheduled: '%s'", in.Title),
		ID:              created.ID,
		Start:           start.Format(time.RFC3339),
		End:             end.Format(time.RFC3339),
		DurationMinutes: in.DurationMinutes,
	})
}

// FindFreeSlotsTool lists free windows during working hours of one day.
type FindFreeSlotsTool struct{ *CalendarTools }

func (t *FindFreeSlotsTool) Name() string { return "find_free_slots" }

func (t *FindFreeSlotsTool) Description() string {
	return "Find free time slots between 08:00 and 18:00 on a specific date."
}

func (t *FindFreeSlotsTool) Parameters() string {
	return `{
  "type": "object",
  "properties": {
    "date": {"type": "string", "description": "Date formatted as YYYY-MM-DD."},
    "duration_minutes": {"type": "integer", "description": "Minimum slot length in minutes. Defaults to 60.", "minimum": 1}
  },
  "required": ["date"]
}`
}

type freeSlotsInput struct {
	Date            string `json:"date"`
	DurationMinutes int    `json:"duration_minutes"`
}

func (t *FindFreeSlotsTool) Run(ctx context.Context, input string) (string, error) {
	var in freeSlotsInput
	if err := decodeArgs(input, &in); err != nil {
		return "", err
	}
	day, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(in.Date), t.loc)
	if err != nil {
		return "", invalidArgs("date %q must look like YYYY-MM-DD", in.Date)
	}
	if in.DurationMinutes <= 0 {
		in.DurationMinutes = defaultEventMinutes
	}

	events, err := t.svc.ListEvents(ctx, day, day.AddDate(0, 0, 1), 50)
	if err != nil {
		return "", fmt.Errorf("could not retrieve events: %w", err)
	}
	slots := calendar.FreeSlots(day, events, time.Duration(in.DurationMinutes)*time.Minute)
	if len(slots) == 0 {
		return fmt.Sprintf("No free slots found on %s.", in.Date), nil
	}
	return toJSON(slots)
}

// SummarizeCalendarTool reports how busy a period is.
type SummarizeCalendarTool struct{ *CalendarTools }

func (t *SummarizeCalendarTool) Name() string { return "summarize_calendar" }

func (t *SummarizeCalendarTool) Description() string {
	return "Summarize calendar usage for 'today', 'week' or 'month': event count, busy hours, busy percentage and free hours."
}

func (t *SummarizeCalendarTool) Parameters() string {
	return `{
  "type": "object",
  "properties": {
    "period": {"type": "string", "enum": ["today", "week", "month"], "description": "Period to summarize. Defaults to week."}
  }
}`
}

type summarizeInput struct {
	Period string `json:"period"`
}

type summaryResult struct {
	Success bool             `json:"success"`
	Period  string           `json:"period"`
	Summary calendar.Summary `json:"summary"`
}

func (t *SummarizeCalendarTool) Run(ctx context.Context, input string) (string, error) {
	var in summarizeInput
	if err := decodeArgs(input, &in); err != nil {
		return "", err
	}
	if strings.TrimSpace(in.Period) == "" {
		in.Period = string(calendar.PeriodWeek)
	}
	period, err := calendar.ParsePeriod(in.Period)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}

	start, end := period.Range(t.localNow())
	events, err := t.svc.ListEvents(ctx, start, end, summaryMaxEvents)
	if err != nil {
		return "", fmt.Errorf("could not summarize calendar: %w", err)
	}
	return toJSON(summaryResult{
		Success: true,
		Period:  string(period),
		Summary: calendar.Summarize(events, start, end),
	})
}
