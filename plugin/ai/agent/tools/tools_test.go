package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/orbita/plugin/calendar"
	"github.com/hrygo/orbita/plugin/mail"
	"github.com/hrygo/orbita/plugin/sepay"
)

var hcm = calendar.LoadLocation(calendar.DefaultTimezone)

func at(day, hour, minute int) time.Time {
	return time.Date(2026, time.March, day, hour, minute, 0, 0, hcm)
}

func TestToolSchemasAreValidJSON(t *testing.T) {
	all := []Tool{
		NewFetchEmailsTool(&mail.MockClient{}),
		NewSendEmailTool(&mail.MockClient{}),
		NewGetBudgetTool(sepay.BudgetFunc(nil)),
	}
	all = append(all, NewCalendarTools(calendar.NewMemoryService(), hcm).Tools()...)

	names := map[string]bool{}
	for _, tool := range all {
		var schema map[string]any
		require.NoError(t, json.Unmarshal([]byte(tool.Parameters()), &schema), tool.Name())
		assert.Equal(t, "object", schema["type"], tool.Name())
		assert.NotEmpty(t, tool.Description())
		assert.False(t, names[tool.Name()], "duplicate tool %s", tool.Name())
		names[tool.Name()] = true
	}
	assert.Len(t, names, 7)
}

func TestFetchEmailsTool(t *testing.T) {
	client := &mail.MockClient{Inbox: []*mail.Message{
		{ID: "1", From: "boss@example.com", Subject: "Report", Content: "Send it by Friday"},
		{ID: "2", From: "friend@example.com", Subject: "Lunch?", Content: "Noon?"},
	}}
	tool := NewFetchEmailsTool(client)
	ctx := context.Background()

	out, err := tool.Run(ctx, `{"k": 1}`)
	require.NoError(t, err)
	var msgs []mail.Message
	require.NoError(t, json.Unmarshal([]byte(out), &msgs))
	require.Len(t, msgs, 1)
	assert.Equal(t, "Lunch?", msgs[0].Subject)

	out, err = tool.Run(ctx, `{"k": 5, "target_email": "nobody@example.com"}`)
	require.NoError(t, err)
	assert.Contains(t, out, "No emails found from nobody@example.com")

	_, err = tool.Run(ctx, `{"k": "five"}`)
	assert.ErrorIs(t, err, ErrInvalidArguments)

	client.FetchErr = errors.New("connection reset")
	_, err = tool.Run(ctx, `{"k": 1}`)
	assert.ErrorContains(t, err, "connection reset")
}

func TestSendEmailTool(t *testing.T) {
	client := &mail.MockClient{}
	tool := NewSendEmailTool(client)

	out, err := tool.Run(context.Background(), `{"to_email": "a@example.com", "subject": "Hi", "body": "Hello"}`)
	require.NoError(t, err)
	assert.Equal(t, "Successfully sent to a@example.com", out)
	require.Len(t, client.Sent(), 1)
	assert.Equal(t, "Hello", client.Sent()[0].Body)

	_, err = tool.Run(context.Background(), `{"subject": "Hi"}`)
	assert.ErrorIs(t, err, ErrInvalidArguments)
}

// flakySender delivers the message and then reports a transport error,
// like an SMTP session that fails on QUIT.
type flakySender struct {
	sends int
}

func (f *flakySender) Send(context.Context, string, string, string) error {
	f.sends++
	return errors.New("smtp: connection reset by peer")
}

func TestSendEmailTool_NotRetriedOnTransportError(t *testing.T) {
	sender := &flakySender{}
	executor := NewResilientToolExecutor(nil, WithRetryDelay(time.Millisecond))

	_, err := executor.Execute(context.Background(), NewSendEmailTool(sender), `{"to_email": "a@example.com", "subject": "Hi", "body": "Hello"}`)
	assert.ErrorContains(t, err, "connection reset")
	assert.Equal(t, 1, sender.sends)
}

func TestSideEffectingTools(t *testing.T) {
	_, cal := newCalendarTools()
	for _, tool := range []Tool{NewSendEmailTool(&mail.MockClient{}), cal["schedule_event"]} {
		assert.True(t, hasSideEffects(tool), tool.Name())
	}
	for _, tool := range []Tool{NewFetchEmailsTool(&mail.MockClient{}), NewGetBudgetTool(sepay.BudgetFunc(nil)), cal["get_calendar_events"], cal["find_free_slots"]} {
		assert.False(t, hasSideEffects(tool), tool.Name())
	}
}

func TestGetBudgetTool(t *testing.T) {
	tool := NewGetBudgetTool(sepay.BudgetFunc(func(ctx context.Context, account string) (*sepay.Budget, error) {
		return &sepay.Budget{AccountNumber: account, Accumulated: 19077000, Currency: "VND"}, nil
	}))

	out, err := tool.Run(context.Background(), `{"account_number": "3211555699"}`)
	require.NoError(t, err)
	var b sepay.Budget
	require.NoError(t, json.Unmarshal([]byte(out), &b))
	assert.Equal(t, "3211555699", b.AccountNumber)
	assert.InDelta(t, 19077000.0, b.Accumulated, 0.001)

	_, err = tool.Run(context.Background(), `{}`)
	assert.ErrorIs(t, err, ErrInvalidArguments)
}

func newCalendarTools(events ...*calendar.Event) (*calendar.MemoryService, map[string]Tool) {
	svc := calendar.NewMemoryService(events...)
	ct := NewCalendarTools(svc, hcm).WithClock(func() time.Time { return at(11, 7, 0) })
	byName := map[string]Tool{}
	for _, tool := range ct.Tools() {
		byName[tool.Name()] = tool
	}
	return svc, byName
}

func TestGetCalendarEventsTool(t *testing.T) {
	_, tools := newCalendarTools(
		&calendar.Event{Title: "Standup", Start: at(11, 9, 0), End: at(11, 9, 15)},
		&calendar.Event{Title: "Retro", Start: at(13, 15, 0), End: at(13, 16, 0)},
	)
	tool := tools["get_calendar_events"]

	out, err := tool.Run(context.Background(), `{"period": "today"}`)
	require.NoError(t, err)
	assert.Contains(t, out, "Standup")
	assert.NotContains(t, out, "Retro")

	out, err = tool.Run(context.Background(), `{"period": "week"}`)
	require.NoError(t, err)
	assert.Contains(t, out, "Retro")

	// Unknown periods read today.
	out, err = tool.Run(context.Background(), `{"period": "decade"}`)
	require.NoError(t, err)
	assert.Contains(t, out, "Standup")

	_, empty := newCalendarTools()
	out, err = empty["get_calendar_events"].Run(context.Background(), `{}`)
	require.NoError(t, err)
	assert.Equal(t, "No events found for today.", out)
}

func TestScheduleEventTool(t *testing.T) {
	svc, tools := newCalendarTools(&calendar.Event{Title: "Dentist", Start: at(11, 10, 0), End: at(11, 11, 0)})
	tool := tools["schedule_event"]
	ctx := context.Background()

	t.Run("conflict within margin", func(t *testing.T) {
		// 11:15 starts 15 minutes after the dentist ends.
		out, err := tool.Run(ctx, `{"title": "Call", "start_datetime": "2026-03-11 11:15", "duration_minutes": 30}`)
		require.NoError(t, err)
		var res conflictResult
		require.NoError(t, json.Unmarshal([]byte(out), &res))
		assert.Contains(t, res.Warning, "1 event(s)")
		require.Len(t, res.ExistingEvents, 1)
		assert.Equal(t, "Dentist", res.ExistingEvents[0].Title)
		assert.Len(t, svc.Events(), 1)
	})

	t.Run("books a clear slot", func(t *testing.T) {
		out, err := tool.Run(ctx, `{"title": "Gym", "start_datetime": "2026-03-11 17:00"}`)
		require.NoError(t, err)
		var res scheduledResult
		require.NoError(t, json.Unmarshal([]byte(out), &res))
		assert.True(t, res.Success)
		assert.Equal(t, 60, res.DurationMinutes)
		assert.Equal(t, "2026-03-11T17:00:00+07:00", res.Start)
		assert.Len(t, svc.Events(), 2)
	})

	t.Run("bad start", func(t *testing.T) {
		_, err := tool.Run(ctx, `{"title": "Gym", "start_datetime": "tomorrow at five"}`)
		assert.ErrorIs(t, err, ErrInvalidArguments)
	})

	t.Run("missing title", func(t *testing.T) {
		_, err := tool.Run(ctx, `{"start_datetime": "2026-03-11 17:00"}`)
		assert.ErrorIs(t, err, ErrInvalidArguments)
	})
}

func TestFindFreeSlotsTool(t *testing.T) {
	_, tools := newCalendarTools(&calendar.Event{Title: "Workshop", Start: at(11, 8, 0), End: at(11, 17, 0)})
	tool := tools["find_free_slots"]

	out, err := tool.Run(context.Background(), `{"date": "2026-03-11", "duration_minutes": 60}`)
	require.NoError(t, err)
	var slots []calendar.Slot
	require.NoError(t, json.Unmarshal([]byte(out), &slots))
	require.Len(t, slots, 1)
	assert.True(t, slots[0].Start.Equal(at(11, 17, 0)))

	out, err = tool.Run(context.Background(), `{"date": "2026-03-11", "duration_minutes": 120}`)
	require.NoError(t, err)
	assert.Equal(t, "No free slots found on 2026-03-11.", out)

	_, err = tool.Run(context.Background(), `{"date": "11/03/2026"}`)
	assert.ErrorIs(t, err, ErrInvalidArguments)
}

func TestSummarizeCalendarTool(t *testing.T) {
	_, tools := newCalendarTools(
		&calendar.Event{Start: at(11, 9, 0), End: at(11, 12, 0)},
		&calendar.Event{Start: at(11, 14, 0), End: at(11, 15, 0)},
	)
	tool := tools["summarize_calendar"]

	out, err := tool.Run(context.Background(), `{"period": "today"}`)
	require.NoError(t, err)
	var res summaryResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "today", res.Period)
	assert.Equal(t, 2, res.Summary.TotalEvents)
	assert.InDelta(t, 4.0, res.Summary.BusyHours, 0.001)
	assert.InDelta(t, 20.0, res.Summary.FreeHours, 0.001)

	out, err = tool.Run(context.Background(), `{}`)
	require.NoError(t, err)
	assert.Contains(t, out, `"period":"week"`)

	_, err = tool.Run(context.Background(), `{"period": "year"}`)
	assert.ErrorIs(t, err, ErrInvalidArguments)
}
