package calendar

import (
	"math"
	"sort"
	"time"
)

const (
	// WorkdayStartHour and WorkdayEndHour bound the free slot search.
	WorkdayStartHour = 8
	WorkdayEndHour   = 18
	// SlotStep is the granularity of the free slot search.
	SlotStep = 30 * time.Minute
	// ConflictMargin is the buffer around a new event checked for conflicts.
	ConflictMargin = 30 * time.Minute
)

// Slot is a free time window.
type Slot struct {
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	DurationMinutes int       `json:"duration_minutes"`
}

// FreeSlots scans the working hours of day in SlotStep increments and
// returns every window of the given duration that does not overlap an event.
func FreeSlots(day time.Time, events []*Event, duration time.Duration) []Slot {
	if duration <= 0 {
		return nil
	}
	workStart := time.Date(day.Year(), day.Month(), day.Day(), WorkdayStartHour, 0, 0, 0, day.Location())
	workEnd := time.Date(day.Year(), day.Month(), day.Day(), WorkdayEndHour, 0, 0, 0, day.Location())

	busy := make([]*Event, 0, len(events))
	for _, e := range events {
		if e.End.After(e.Start) {
			busy = append(busy, e)
		}
	}
	sort.Slice(busy, func(i, j int) bool { return busy[i].Start.Before(busy[j].Start) })

	var slots []Slot
	for cur := workStart; !cur.Add(duration).After(workEnd); cur = cur.Add(SlotStep) {
		end := cur.Add(duration)
		if overlapsAny(cur, end, busy) {
			continue
		}
		slots = append(slots, Slot{Start: cur, End: end, DurationMinutes: int(duration / time.Minute)})
	}
	return slots
}

func overlapsAny(start, end time.Time, events []*Event) bool {
	for _, e := range events {
		if e.Start.Before(end) && e.End.After(start) {
			return true
		}
	}
	return false
}

// Summary describes how busy a period is.
type Summary struct {
	TotalEvents    int     `json:"total_events"`
	BusyHours      float64 `json:"busy_hours"`
	BusyPercentage float64 `json:"busy_percentage"`
	FreeHours      float64 `json:"free_hours"`
}

// Summarize totals event time inside [start, end). Events are clipped to
// the range so long events do not push busy time past the period length.
func Summarize(events []*Event, start, end time.Time) Summary {
	total := end.Sub(start)
	var busy time.Duration
	for _, e := range events {
		s, f := e.Start, e.End
		if s.Before(start) {
			s = start
		}
		if f.After(end) {
			f = end
		}
		if f.After(s) {
			busy += f.Sub(s)
		}
	}

	summary := Summary{
		TotalEvents: len(events),
		BusyHours:   round1(busy.Hours()),
		FreeHours:   round1((total - busy).Hours()),
	}
	if total > 0 {
		summary.BusyPercentage = round1(float64(busy) / float64(total) * 100)
	}
	return summary
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
