package calendar

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	storetest "github.com/hrygo/orbita/store/test"
)

var hcm = LoadLocation(DefaultTimezone)

func at(day, hour, minute int) time.Time {
	return time.Date(2026, time.March, day, hour, minute, 0, 0, hcm)
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		in      string
		want    Period
		wantErr bool
	}{
		{"today", PeriodToday, false},
		{" Week ", PeriodWeek, false},
		{"MONTH", PeriodMonth, false},
		{"", PeriodToday, false},
		{"year", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			p, err := ParsePeriod(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPeriod)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, p)
		})
	}
}

func TestPeriodRange(t *testing.T) {
	// Wednesday 2026-03-11 14:30
	now := at(11, 14, 30)

	start, end := PeriodToday.Range(now)
	assert.Equal(t, at(11, 0, 0), start)
	assert.Equal(t, at(12, 0, 0), end)

	start, end = PeriodWeek.Range(now)
	assert.Equal(t, time.Monday, start.Weekday())
	assert.Equal(t, at(9, 0, 0), start)
	assert.Equal(t, at(16, 0, 0), end)

	start, end = PeriodMonth.Range(now)
	assert.Equal(t, at(1, 0, 0), start)
	assert.Equal(t, time.Date(2026, time.April, 1, 0, 0, 0, 0, hcm), end)

	// Sunday belongs to the week that started six days earlier.
	start, _ = PeriodWeek.Range(at(15, 9, 0))
	assert.Equal(t, at(9, 0, 0), start)
}

func TestFreeSlots(t *testing.T) {
	day := at(11, 0, 0)

	t.Run("empty day", func(t *testing.T) {
		slots := FreeSlots(day, nil, time.Hour)
		// 08:00 through 17:00 in 30 minute steps.
		require.Len(t, slots, 19)
		assert.Equal(t, at(11, 8, 0), slots[0].Start)
		assert.Equal(t, at(11, 18, 0), slots[len(slots)-1].End)
		assert.Equal(t, 60, slots[0].DurationMinutes)
	})

	t.Run("busy blocks are skipped", func(t *testing.T) {
		events := []*Event{
			{Title: "standup", Start: at(11, 9, 0), End: at(11, 10, 0)},
			{Title: "lunch", Start: at(11, 12, 0), End: at(11, 13, 30)},
		}
		slots := FreeSlots(day, events, time.Hour)
		for _, s := range slots {
			for _, e := range events {
				overlap := e.Start.Before(s.End) && e.End.After(s.Start)
				assert.False(t, overlap, "slot %s overlaps %s", s.Start, e.Title)
			}
		}
		assert.Equal(t, at(11, 8, 0), slots[0].Start)
		assert.Equal(t, at(11, 10, 0), slots[1].Start)
	})

	t.Run("fully booked", func(t *testing.T) {
		events := []*Event{{Start: at(11, 7, 0), End: at(11, 19, 0)}}
		assert.Empty(t, FreeSlots(day, events, 30*time.Minute))
	})

	t.Run("zero duration", func(t *testing.T) {
		assert.Nil(t, FreeSlots(day, nil, 0))
	})
}

func TestSummarize(t *testing.T) {
	start, end := PeriodToday.Range(at(11, 12, 0))
	events := []*Event{
		{Start: at(11, 9, 0), End: at(11, 11, 0)},
		{Start: at(11, 14, 0), End: at(11, 15, 0)},
		// Starts the previous evening; only the part inside today counts.
		{Start: at(10, 23, 0), End: at(11, 1, 0)},
	}

	s := Summarize(events, start, end)
	assert.Equal(t, 3, s.TotalEvents)
	assert.InDelta(t, 4.0, s.BusyHours, 0.001)
	assert.InDelta(t, 20.0, s.FreeHours, 0.001)
	assert.InDelta(t, 16.7, s.BusyPercentage, 0.001)
}

func TestLocalService(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	svc := NewLocalService(ts, hcm)

	created, err := svc.CreateEvent(ctx, &Event{
		Title:     "Dentist",
		Location:  "District 1",
		Start:     at(11, 9, 0),
		End:       at(11, 10, 0),
		Attendees: []string{"quang@example.com"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "confirmed", created.Status)

	_, err = svc.CreateEvent(ctx, &Event{Title: "Gym", Start: at(12, 18, 0), End: at(12, 19, 0)})
	require.NoError(t, err)

	events, err := svc.ListEvents(ctx, at(11, 0, 0), at(12, 0, 0), 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Dentist", events[0].Title)
	assert.Equal(t, []string{"quang@example.com"}, events[0].Attendees)
	assert.True(t, events[0].Start.Equal(at(11, 9, 0)))

	_, err = svc.CreateEvent(ctx, &Event{Title: "broken", Start: at(11, 9, 0), End: at(11, 9, 0)})
	assert.Error(t, err)
}

func TestGoogleService(t *testing.T) {
	var created googleEvent
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/calendars/primary/events", r.URL.Path)
		switch r.Method {
		case http.MethodGet:
			assert.Equal(t, "startTime", r.URL.Query().Get("orderBy"))
			assert.Equal(t, "5", r.URL.Query().Get("maxResults"))
			_ = json.NewEncoder(w).Encode(googleEventList{Items: []googleEvent{
				{ID: "a", Summary: "Sync", Start: googleTime{DateTime: "2026-03-11T09:00:00+07:00"}, End: googleTime{DateTime: "2026-03-11T09:30:00+07:00"}},
				{ID: "b", Start: googleTime{Date: "2026-03-11"}, End: googleTime{Date: "2026-03-12"}, Attendees: []googleAttendee{{Email: "x@example.com"}}},
			}})
		case http.MethodPost:
			body, _ := io.ReadAll(r.Body)
			assert.NoError(t, json.Unmarshal(body, &created))
			created.ID = "new"
			_ = json.NewEncoder(w).Encode(created)
		}
	}))
	defer srv.Close()

	svc := NewGoogleService(srv.Client(), hcm, WithBaseURL(srv.URL))
	ctx := context.Background()

	events, err := svc.ListEvents(ctx, at(11, 0, 0), at(12, 0, 0), 5)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "Sync", events[0].Title)
	assert.Equal(t, 30*time.Minute, events[0].Duration())
	assert.Equal(t, "No title", events[1].Title)
	assert.Equal(t, 24*time.Hour, events[1].Duration())
	assert.Equal(t, []string{"x@example.com"}, events[1].Attendees)

	e, err := svc.CreateEvent(ctx, &Event{Title: "Review", Start: at(11, 15, 0), End: at(11, 16, 0)})
	require.NoError(t, err)
	assert.Equal(t, "new", e.ID)
	assert.Equal(t, DefaultTimezone, created.Start.TimeZone)
}

func TestGoogleService_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
	}))
	defer srv.Close()

	svc := NewGoogleService(srv.Client(), hcm, WithBaseURL(srv.URL))
	_, err := svc.ListEvents(context.Background(), at(11, 0, 0), at(12, 0, 0), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestOAuthFiles(t *testing.T) {
	dir := t.TempDir()
	secretPath := filepath.Join(dir, "client_secret.json")
	require.NoError(t, os.WriteFile(secretPath, []byte(`{"installed":{
		"client_id":"id","client_secret":"secret",
		"auth_uri":"https://accounts.google.com/o/oauth2/auth",
		"token_uri":"https://oauth2.googleapis.com/token",
		"redirect_uris":["http://localhost"]}}`), 0o600))

	cfg, err := LoadOAuthConfig(secretPath)
	require.NoError(t, err)
	assert.Equal(t, "id", cfg.ClientID)
	assert.Equal(t, "http://localhost", cfg.RedirectURL)
	assert.Equal(t, []string{CalendarScope}, cfg.Scopes)

	tokenPath := filepath.Join(dir, "token.json")
	require.NoError(t, SaveToken(tokenPath, &oauth2.Token{AccessToken: "at", RefreshToken: "rt"}))
	tok, err := LoadToken(tokenPath)
	require.NoError(t, err)
	assert.Equal(t, "rt", tok.RefreshToken)

	_, err = NewGoogleServiceFromFiles(context.Background(), secretPath, filepath.Join(dir, "missing.json"), hcm)
	assert.Error(t, err)
}
