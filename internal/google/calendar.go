package google

import (
	"calinsight/internal/models"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	sourceName        = "google calendar"
	defaultCalendarID = "primary"
	maxResultsPerPage = 1000
)

// AcceptedScopes lists the OAuth scopes an access token may carry. Any one of them
// is enough to list events.
var AcceptedScopes = []string{
	calendar.CalendarEventsReadonlyScope,
	calendar.CalendarEventsScope,
	calendar.CalendarReadonlyScope,
	calendar.CalendarScope,
}

// CalendarClient provides a client for reading events from the Google Calendar API.
type CalendarClient struct {
	service    *calendar.Service
	logger     *slog.Logger
	calendarID string
}

// Option customizes a CalendarClient.
type Option func(*clientOptions)

type clientOptions struct {
	calendarID string
	endpoint   string
	httpClient *http.Client
}

// WithCalendarID selects the calendar to read. Defaults to "primary".
func WithCalendarID(id string) Option {
	return func(o *clientOptions) {
		if id != "" {
			o.calendarID = id
		}
	}
}

// WithEndpoint points the client at a different API base URL.
func WithEndpoint(endpoint string) Option {
	return func(o *clientOptions) { o.endpoint = endpoint }
}

// WithHTTPClient replaces the bearer-token HTTP client. The caller is then
// responsible for authentication.
func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = c }
}

// NewClient creates a Google Calendar client authenticated with an access token
// obtained elsewhere. The token is used as-is and never refreshed.
func NewClient(ctx context.Context, logger *slog.Logger, accessToken string, opts ...Option) (*CalendarClient, error) {
	o := clientOptions{calendarID: defaultCalendarID}
	for _, opt := range opts {
		opt(&o)
	}

	var svcOpts []option.ClientOption
	if o.httpClient != nil {
		svcOpts = append(svcOpts, option.WithHTTPClient(o.httpClient))
	} else {
		if accessToken == "" {
			return nil, fmt.Errorf("an access token is required")
		}
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
		svcOpts = append(svcOpts, option.WithHTTPClient(oauth2.NewClient(ctx, ts)))
	}
	if o.endpoint != "" {
		svcOpts = append(svcOpts, option.WithEndpoint(o.endpoint))
	}

	service, err := calendar.NewService(ctx, svcOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	return &CalendarClient{service: service, logger: logger, calendarID: o.calendarID}, nil
}

// Name identifies the source in logs and errors.
func (c *CalendarClient) Name() string {
	return fmt.Sprintf("google-%s", c.calendarID)
}

// ListEvents fetches all events overlapping [from, to), expanded into single
// instances and ordered by start time. Every page is followed.
func (c *CalendarClient) ListEvents(ctx context.Context, from, to time.Time) ([]*models.Event, error) {
	c.logger.Debug("Fetching events", "calendarID", c.calendarID, "from", from, "to", to)

	var items []*calendar.Event
	pages := 0
	err := c.service.Events.List(c.calendarID).
		ShowDeleted(false).
		SingleEvents(true).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		MaxResults(maxResultsPerPage).
		OrderBy("startTime").
		Pages(ctx, func(page *calendar.Events) error {
			pages++
			items = append(items, page.Items...)
			return nil
		})
	if err != nil {
		return nil, classifyError(err)
	}

	c.logger.Info("Successfully fetched events from Google Calendar", "count", len(items), "pages", pages, "calendarID", c.calendarID)
	return c.toInternalEvents(items), nil
}

// classifyError maps API failures onto the error kinds callers act on.
func classifyError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return &models.AuthError{Source: sourceName, StatusCode: apiErr.Code, Err: err}
		}
	}
	return &models.NetworkError{Source: sourceName, Err: err}
}

// toInternalEvents converts Google Calendar events to the internal Event model.
func (c *CalendarClient) toInternalEvents(googleEvents []*calendar.Event) []*models.Event {
	internalEvents := make([]*models.Event, 0, len(googleEvents))
	for _, item := range googleEvents {
		if item == nil {
			continue
		}
		event := &models.Event{
			ID:                      item.Id,
			UID:                     item.ICalUID,
			Title:                   item.Summary,
			EventType:               item.EventType,
			Status:                  item.Status,
			Transparency:            item.Transparency,
			AttendeesOmitted:        item.AttendeesOmitted,
			GuestsCanSeeOtherGuests: item.GuestsCanSeeOtherGuests == nil || *item.GuestsCanSeeOtherGuests,
			RecurringEventID:        item.RecurringEventId,
			Source:                  c.Name(),
		}
		if event.EventType == "" {
			event.EventType = models.EventTypeDefault
		}

		start, startAllDay, err := parseEventTime(item.Start)
		if err != nil {
			c.logger.Warn("Skipping event with unparsable start", "id", item.Id, "error", err)
			continue
		}
		end, _, err := parseEventTime(item.End)
		if err != nil {
			c.logger.Warn("Skipping event with unparsable end", "id", item.Id, "error", err)
			continue
		}
		event.StartTime, event.EndTime, event.AllDay = start, end, startAllDay

		if item.Organizer != nil {
			event.Organizer = models.Attendee{Email: item.Organizer.Email, Self: item.Organizer.Self}
		}
		for _, a := range item.Attendees {
			if a == nil {
				continue
			}
			event.Attendees = append(event.Attendees, models.Attendee{
				Email:            a.Email,
				Self:             a.Self,
				Resource:         a.Resource,
				ResponseStatus:   a.ResponseStatus,
				AdditionalGuests: int(a.AdditionalGuests),
			})
		}
		internalEvents = append(internalEvents, event)
	}
	return internalEvents
}

// parseEventTime reads either a timed or an all-day boundary.
func parseEventTime(dt *calendar.EventDateTime) (t time.Time, allDay bool, err error) {
	if dt == nil {
		return time.Time{}, false, fmt.Errorf("missing event time")
	}
	if dt.DateTime != "" {
		t, err = time.Parse(time.RFC3339, dt.DateTime)
		return t, false, err
	}
	if dt.Date != "" {
		loc := time.UTC
		if dt.TimeZone != "" {
			if l, lerr := time.LoadLocation(dt.TimeZone); lerr == nil {
				loc = l
			}
		}
		t, err = time.ParseInLocation("2006-01-02", dt.Date, loc)
		return t, true, err
	}
	return time.Time{}, false, fmt.Errorf("event time has neither date nor dateTime")
}
