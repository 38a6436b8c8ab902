package icloud

import (
	"calinsight/internal/models"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav/caldav"
)

const (
	// DefaultEndpoint is the iCloud CalDAV server.
	DefaultEndpoint = "https://caldav.icloud.com/"
	sourceName      = "caldav"
)

// customTransport handles adding Basic Auth and custom headers to requests, and
// turns rejected credentials into an AuthError.
type customTransport struct {
	Username  string
	Password  string
	Transport http.RoundTripper
}

// RoundTrip adds required headers and authentication to each request.
// The caller's request is left untouched.
func (t *customTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.SetBasicAuth(t.Username, t.Password)
	req.Header.Set("User-Agent", "calinsight/1.0")
	resp, err := t.Transport.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, &models.AuthError{
			Source:     sourceName,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s %s", req.Method, req.URL.Path),
		}
	}
	return resp, nil
}

// CalDAVClient reads events from a CalDAV calendar (iCloud by default).
type CalDAVClient struct {
	caldavClient *caldav.Client
	logger       *slog.Logger
	calendarPath string
	calendarName string
	username     string
	location     *time.Location
}

// Config holds the CalDAV connection settings.
type Config struct {
	Endpoint     string
	Username     string
	Password     string
	CalendarName string
	// Location resolves floating times. Defaults to UTC.
	Location *time.Location
}

// NewClient creates a CalDAVClient and finds the configured calendar.
func NewClient(ctx context.Context, logger *slog.Logger, cfg Config) (*CalDAVClient, error) {
	if cfg.Username == "" || cfg.Password == "" {
		return nil, fmt.Errorf("caldav username and password are required")
	}
	if cfg.CalendarName == "" {
		return nil, fmt.Errorf("caldav calendar name is required")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	transport := &customTransport{
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: http.DefaultTransport,
	}
	httpClient := &http.Client{Transport: transport}

	caldavClient, err := caldav.NewClient(httpClient, cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav client: %w", err)
	}

	c := &CalDAVClient{
		caldavClient: caldavClient,
		logger:       logger,
		calendarName: cfg.CalendarName,
		username:     cfg.Username,
		location:     cfg.Location,
	}

	logger.Info("Finding CalDAV calendar", "calendarName", cfg.CalendarName)
	calendarPath, err := c.findCalendar(ctx, cfg.CalendarName)
	if err != nil {
		return nil, classifyError(fmt.Errorf("could not find calendar '%s': %w", cfg.CalendarName, err))
	}
	c.calendarPath = calendarPath
	logger.Info("Successfully found CalDAV calendar", "path", calendarPath)

	return c, nil
}

// Name identifies the source in logs and errors.
func (c *CalDAVClient) Name() string {
	return fmt.Sprintf("caldav-%s", c.calendarName)
}

// ListEvents fetches events overlapping [from, to). Recurring events are expanded
// into one event per occurrence inside the range.
func (c *CalDAVClient) ListEvents(ctx context.Context, from, to time.Time) ([]*models.Event, error) {
	c.logger.Debug("Querying CalDAV calendar", "path", c.calendarPath, "from", from, "to", to)

	query := &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name:     ical.CompCalendar,
			AllProps: true,
			AllComps: true,
		},
		CompFilter: caldav.CompFilter{
			Name: ical.CompCalendar,
			Comps: []caldav.CompFilter{{
				Name:  ical.CompEvent,
				Start: from,
				End:   to,
			}},
		},
	}

	objects, err := c.caldavClient.QueryCalendar(ctx, c.calendarPath, query)
	if err != nil {
		return nil, classifyError(fmt.Errorf("calendar query failed: %w", err))
	}

	var events []*models.Event
	for _, obj := range objects {
		if obj.Data == nil {
			continue
		}
		converted, err := toInternalEvents(obj.Data, from, to, c.username, c.Name(), c.location)
		if err != nil {
			c.logger.Warn("Skipping unreadable calendar object", "path", obj.Path, "error", err)
			continue
		}
		events = append(events, converted...)
	}

	c.logger.Info("Successfully fetched events from CalDAV", "objects", len(objects), "count", len(events))
	return events, nil
}

// findCalendar discovers the user's calendars and returns the path of the one with the matching name.
func (c *CalDAVClient) findCalendar(ctx context.Context, name string) (string, error) {
	principalPath, err := c.caldavClient.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to find principal path: %w", err)
	}

	homeSetPath, err := c.caldavClient.FindCalendarHomeSet(ctx, principalPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendar home set: %w", err)
	}

	calendars, err := c.caldavClient.FindCalendars(ctx, homeSetPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendars: %w", err)
	}

	for _, cal := range calendars {
		if cal.Name == name {
			return cal.Path, nil
		}
	}

	return "", fmt.Errorf("no calendar found with name '%s'", name)
}

func classifyError(err error) error {
	var authErr *models.AuthError
	if errors.As(err, &authErr) {
		return authErr
	}
	return &models.NetworkError{Source: sourceName, Err: err}
}

// toInternalEvents converts the VEVENTs of one calendar object to internal Events.
// Overridden occurrences (RECURRENCE-ID) replace the matching generated occurrence.
func toInternalEvents(cal *ical.Calendar, from, to time.Time, self, source string, loc *time.Location) ([]*models.Event, error) {
	var masters, overrides []*models.Event
	var rules []ical.Event
	overridden := make(map[int64]bool)

	for _, ev := range cal.Events() {
		event, err := fromICal(&ev, self, source, loc)
		if err != nil {
			return nil, err
		}
		if prop := ev.Props.Get(ical.PropRecurrenceID); prop != nil {
			rid, err := prop.DateTime(loc)
			if err != nil {
				return nil, fmt.Errorf("invalid RECURRENCE-ID: %w", err)
			}
			overridden[rid.Unix()] = true
			event.RecurringEventID = event.UID
			overrides = append(overrides, event)
			continue
		}
		masters = append(masters, event)
		rules = append(rules, ev)
	}

	var out []*models.Event
	for i, master := range masters {
		set, err := rules[i].RecurrenceSet(loc)
		if err != nil {
			return nil, fmt.Errorf("invalid recurrence for %s: %w", master.UID, err)
		}
		if set == nil {
			out = append(out, master)
			continue
		}
		duration := master.Duration()
		for _, start := range set.Between(from.Add(-duration), to, true) {
			if overridden[start.Unix()] {
				continue
			}
			occurrence := *master
			occurrence.ID = fmt.Sprintf("%s_%s", master.UID, start.UTC().Format("20060102T150405Z"))
			occurrence.RecurringEventID = master.UID
			occurrence.StartTime = start
			occurrence.EndTime = start.Add(duration)
			out = append(out, &occurrence)
		}
	}
	return append(out, overrides...), nil
}

// fromICal converts a single VEVENT.
func fromICal(ev *ical.Event, self, source string, loc *time.Location) (*models.Event, error) {
	uid, _ := ev.Props.Text(ical.PropUID)
	title, _ := ev.Props.Text(ical.PropSummary)

	startProp := ev.Props.Get(ical.PropDateTimeStart)
	if startProp == nil {
		return nil, fmt.Errorf("event %q has no DTSTART", uid)
	}
	start, err := ev.DateTimeStart(loc)
	if err != nil {
		return nil, fmt.Errorf("invalid DTSTART for %q: %w", uid, err)
	}
	end, err := ev.DateTimeEnd(loc)
	if err != nil {
		return nil, fmt.Errorf("invalid DTEND for %q: %w", uid, err)
	}

	event := &models.Event{
		ID:                      uid,
		UID:                     uid,
		Title:                   title,
		StartTime:               start,
		EndTime:                 end,
		AllDay:                  startProp.ValueType() == ical.ValueDate,
		EventType:               models.EventTypeDefault,
		Status:                  models.StatusConfirmed,
		Transparency:            models.TransparencyOpaque,
		GuestsCanSeeOtherGuests: true,
		Source:                  source,
	}

	if status, _ := ev.Props.Text(ical.PropStatus); status != "" {
		event.Status = strings.ToLower(status)
	}
	if transp, _ := ev.Props.Text(ical.PropTransparency); strings.EqualFold(transp, "TRANSPARENT") {
		event.Transparency = models.TransparencyTransparent
	}

	if prop := ev.Props.Get(ical.PropOrganizer); prop != nil {
		email := mailto(prop.Value)
		event.Organizer = models.Attendee{Email: email, Self: isSelf(email, self)}
	}
	for _, prop := range ev.Props.Values(ical.PropAttendee) {
		email := mailto(prop.Value)
		cuType := strings.ToUpper(prop.Params.Get("CUTYPE"))
		event.Attendees = append(event.Attendees, models.Attendee{
			Email:          email,
			Self:           isSelf(email, self),
			Resource:       cuType == "RESOURCE" || cuType == "ROOM",
			ResponseStatus: responseStatus(prop.Params.Get("PARTSTAT")),
		})
	}
	return event, nil
}

func mailto(value string) string {
	if len(value) >= 7 && strings.EqualFold(value[:7], "mailto:") {
		return value[7:]
	}
	return value
}

func isSelf(email, self string) bool {
	return self != "" && strings.EqualFold(email, self)
}

// responseStatus maps PARTSTAT values onto Google Calendar response statuses.
func responseStatus(partStat string) string {
	switch strings.ToUpper(partStat) {
	case "ACCEPTED":
		return models.ResponseAccepted
	case "DECLINED":
		return models.ResponseDeclined
	case "TENTATIVE":
		return models.ResponseTentative
	default:
		return models.ResponseNeedsAction
	}
}
