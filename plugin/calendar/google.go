package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// GoogleAPIBaseURL is the Calendar v3 REST endpoint.
const GoogleAPIBaseURL = "https://www.googleapis.com/calendar/v3"

// GoogleService talks to Google Calendar over REST. The HTTP client is
// expected to carry OAuth2 credentials (see NewGoogleServiceFromFiles).
type GoogleService struct {
	client     *http.Client
	baseURL    string
	calendarID string
	loc        *time.Location
}

var _ Service = (*GoogleService)(nil)

// GoogleOption configures a GoogleService.
type GoogleOption func(*GoogleService)

// WithBaseURL points the service at another endpoint.
func WithBaseURL(baseURL string) GoogleOption {
	return func(s *GoogleService) {
		s.baseURL = baseURL
	}
}

// WithCalendarID selects a calendar other than "primary".
func WithCalendarID(id string) GoogleOption {
	return func(s *GoogleService) {
		s.calendarID = id
	}
}

// NewGoogleService creates a Google Calendar backend.
func NewGoogleService(client *http.Client, loc *time.Location, opts ...GoogleOption) *GoogleService {
	if loc == nil {
		loc = LoadLocation("")
	}
	s := &GoogleService{
		client:     client,
		baseURL:    GoogleAPIBaseURL,
		calendarID: DefaultCalendarID,
		loc:        loc,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type googleTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

type googleAttendee struct {
	Email string `json:"email"`
}

type googleEvent struct {
	ID          string           `json:"id,omitempty"`
	Summary     string           `json:"summary"`
	Description string           `json:"description,omitempty"`
	Location    string           `json:"location,omitempty"`
	Status      string           `json:"status,omitempty"`
	Start       googleTime       `json:"start"`
	End         googleTime       `json:"end"`
	Attendees   []googleAttendee `json:"attendees,omitempty"`
}

type googleEventList struct {
	Items []googleEvent `json:"items"`
}

func (s *GoogleService) eventsURL() string {
	return fmt.Sprintf("%s/calendars/%s/events", s.baseURL, url.PathEscape(s.calendarID))
}

func (s *GoogleService) ListEvents(ctx context.Context, start, end time.Time, maxResults int) ([]*Event, error) {
	if maxResults <= 0 {
		maxResults = 100
	}
	params := url.Values{}
	params.Set("timeMin", start.Format(time.RFC3339))
	params.Set("timeMax", end.Format(time.RFC3339))
	params.Set("maxResults", strconv.Itoa(maxResults))
	params.Set("singleEvents", "true")
	params.Set("orderBy", "startTime")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.eventsURL()+"?"+params.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build request")
	}

	var list googleEventList
	if err := s.do(req, &list); err != nil {
		return nil, errors.Wrap(err, "failed to list google calendar events")
	}

	events := make([]*Event, 0, len(list.Items))
	for _, item := range list.Items {
		e, err := s.convert(item)
		if err != nil {
			continue
		}
		events = append(events, e)
	}
	return events, nil
}

func (s *GoogleService) CreateEvent(ctx context.Context, event *Event) (*Event, error) {
	body := googleEvent{
		Summary:     event.Title,
		Description: event.Description,
		Location:    event.Location,
		Start:       googleTime{DateTime: event.Start.Format(time.RFC3339), TimeZone: s.loc.String()},
		End:         googleTime{DateTime: event.End.Format(time.RFC3339), TimeZone: s.loc.String()},
	}
	for _, email := range event.Attendees {
		body.Attendees = append(body.Attendees, googleAttendee{Email: email})
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal event")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.eventsURL(), bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")

	var created googleEvent
	if err := s.do(req, &created); err != nil {
		return nil, errors.Wrap(err, "failed to create google calendar event")
	}
	return s.convert(created)
}

func (s *GoogleService) do(req *http.Request, out any) error {
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return errors.Errorf("API error: %d - %s", resp.StatusCode, bytes.TrimSpace(detail))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (s *GoogleService) convert(item googleEvent) (*Event, error) {
	start, err := s.parseTime(item.Start)
	if err != nil {
		return nil, err
	}
	end, err := s.parseTime(item.End)
	if err != nil {
		return nil, err
	}
	e := &Event{
		ID:          item.ID,
		Title:       item.Summary,
		Description: item.Description,
		Location:    item.Location,
		Start:       start,
		End:         end,
		Status:      item.Status,
	}
	if e.Title == "" {
		e.Title = "No title"
	}
	if e.Status == "" {
		e.Status = "confirmed"
	}
	for _, a := range item.Attendees {
		e.Attendees = append(e.Attendees, a.Email)
	}
	return e, nil
}

// parseTime handles timed events (dateTime) and all-day events (date).
func (s *GoogleService) parseTime(t googleTime) (time.Time, error) {
	if t.DateTime != "" {
		parsed, err := time.Parse(time.RFC3339, t.DateTime)
		if err != nil {
			return time.Time{}, err
		}
		return parsed.In(s.loc), nil
	}
	return time.ParseInLocation(time.DateOnly, t.Date, s.loc)
}
