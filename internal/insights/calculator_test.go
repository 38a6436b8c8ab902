package insights

import (
	"calinsight/internal/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Monday 2024-05-06.
var monday = time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)

func at(day, hour, minute int) time.Time {
	return monday.AddDate(0, 0, day).Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func nineToSix(t *testing.T, loc *time.Location) WorkingHours {
	t.Helper()
	wh, err := NewWorkingHours(Clock{Hour: 9}, Clock{Hour: 18}, loc, nil)
	require.NoError(t, err)
	return wh
}

func oneDay() Interval {
	return Interval{Start: monday, End: monday.AddDate(0, 0, 1)}
}

func event(id string, start, end time.Time) *models.Event {
	return &models.Event{
		ID:                      id,
		Title:                   id,
		StartTime:               start,
		EndTime:                 end,
		Status:                  models.StatusConfirmed,
		Organizer:               models.Attendee{Email: "me@example.com", Self: true},
		GuestsCanSeeOtherGuests: true,
	}
}

func run(t *testing.T, rng Interval, events ...*models.Event) *Report {
	t.Helper()
	c := NewCalculator(nineToSix(t, time.UTC), rng)
	for _, e := range events {
		c.Process(e)
	}
	return c.Report()
}

func TestCalculator_EmptyEventList(t *testing.T) {
	r := run(t, oneDay())

	assert.Equal(t, time.Duration(0), r.Summary.Busy)
	assert.Equal(t, 9*time.Hour, r.Summary.Free)
	assert.Equal(t, 9*time.Hour, r.Summary.Window)
	assert.Equal(t, 0, r.Summary.EventCount)
	assert.Empty(t, r.BusyBlocks)
}

func TestCalculator_EventInsideWindow(t *testing.T) {
	r := run(t, oneDay(), event("standup", at(0, 10, 0), at(0, 10, 45)))

	assert.Equal(t, 45*time.Minute, r.Summary.Busy)
	assert.Equal(t, 9*time.Hour-45*time.Minute, r.Summary.Free)
	assert.Equal(t, 1, r.Summary.EventCount)
}

func TestCalculator_EventOutsideWindow(t *testing.T) {
	r := run(t, oneDay(),
		event("breakfast", at(0, 7, 0), at(0, 8, 30)),
		event("dinner", at(0, 19, 0), at(0, 21, 0)),
	)

	assert.Equal(t, time.Duration(0), r.Summary.Busy)
	assert.Equal(t, 9*time.Hour, r.Summary.Free)
	assert.Equal(t, 0, r.Summary.EventCount)
	assert.Equal(t, 2, r.Summary.Fetched)
}

func TestCalculator_EventSpanningBoundary(t *testing.T) {
	tests := []struct {
		name  string
		event *models.Event
		want  time.Duration
	}{
		{
			name:  "crosses end of day",
			event: event("late", at(0, 17, 0), at(0, 19, 0)),
			want:  at(0, 18, 0).Sub(at(0, 17, 0)),
		},
		{
			name:  "crosses start of day",
			event: event("early", at(0, 8, 0), at(0, 9, 30)),
			want:  at(0, 9, 30).Sub(at(0, 9, 0)),
		},
		{
			name:  "covers whole day",
			event: event("offsite", at(0, 6, 0), at(0, 22, 0)),
			want:  9 * time.Hour,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := run(t, oneDay(), tt.event)
			assert.Equal(t, tt.want, r.Summary.Busy)
		})
	}
}

func TestCalculator_OverlappingEvents(t *testing.T) {
	r := run(t, oneDay(),
		event("a", at(0, 10, 0), at(0, 11, 0)),
		event("b", at(0, 10, 30), at(0, 12, 0)),
		event("c", at(0, 8, 0), at(0, 19, 0)),
	)

	assert.Equal(t, 9*time.Hour, r.Summary.Busy)
	assert.LessOrEqual(t, r.Summary.Busy, r.Summary.Window)
	assert.Equal(t, time.Duration(0), r.Summary.Free)
	assert.Len(t, r.BusyBlocks, 1)

	r = run(t, oneDay(),
		event("a", at(0, 10, 0), at(0, 11, 0)),
		event("b", at(0, 10, 30), at(0, 12, 0)),
	)
	assert.Equal(t, 2*time.Hour, r.Summary.Busy)
	assert.Equal(t, 2, r.Summary.EventCount)
}

func TestCalculator_MultiDayEventClippedPerDay(t *testing.T) {
	week := Interval{Start: monday, End: monday.AddDate(0, 0, 7)}
	r := run(t, week, event("conference", at(0, 12, 0), at(2, 10, 0)))

	// Mon 12-18, Tue 9-18, Wed 9-10.
	assert.Equal(t, 6*time.Hour+9*time.Hour+time.Hour, r.Summary.Busy)
	assert.Equal(t, 5*9*time.Hour, r.Summary.Window)
	require.Len(t, r.Meetings, 3)
	assert.Equal(t, at(1, 0, 0), r.Meetings[1].Day)
	assert.Equal(t, 9*time.Hour, r.Meetings[1].Duration)
}

func TestCalculator_WeekendsHaveNoWindow(t *testing.T) {
	week := Interval{Start: monday, End: monday.AddDate(0, 0, 7)}
	r := run(t, week, event("saturday brunch", at(5, 10, 0), at(5, 12, 0)))

	assert.Equal(t, time.Duration(0), r.Summary.Busy)
	assert.Equal(t, 45*time.Hour, r.Summary.Free)
}

func TestCalculator_IgnoredEvents(t *testing.T) {
	declined := event("declined", at(0, 10, 0), at(0, 11, 0))
	declined.Attendees = []models.Attendee{{Email: "me@example.com", Self: true, ResponseStatus: models.ResponseDeclined}}

	free := event("transparent", at(0, 11, 0), at(0, 12, 0))
	free.Transparency = models.TransparencyTransparent

	focus := event("focus", at(0, 13, 0), at(0, 14, 0))
	focus.EventType = models.EventTypeFocusTime

	allDay := event("holiday", monday, monday.AddDate(0, 0, 1))
	allDay.AllDay = true

	cancelled := event("cancelled", at(0, 15, 0), at(0, 16, 0))
	cancelled.Status = models.StatusCancelled

	r := run(t, oneDay(), declined, free, focus, allDay, cancelled)
	assert.Equal(t, time.Duration(0), r.Summary.Busy)
	assert.Equal(t, 0, r.Summary.EventCount)
	assert.Equal(t, 5, r.Summary.Fetched)
}

func TestCalculator_MeetingBreakdown(t *testing.T) {
	self := models.Attendee{Email: "me@example.com", Self: true, ResponseStatus: models.ResponseAccepted}
	bob := models.Attendee{Email: "bob@example.com", ResponseStatus: models.ResponseAccepted}
	carol := models.Attendee{Email: "carol@example.com", ResponseStatus: models.ResponseAccepted}
	dave := models.Attendee{Email: "dave@example.com", ResponseStatus: models.ResponseDeclined}

	oneOnOne := event("1:1", at(0, 9, 0), at(0, 9, 30))
	oneOnOne.Attendees = []models.Attendee{self, bob}

	group := event("planning", at(0, 10, 0), at(0, 11, 0))
	group.Attendees = []models.Attendee{self, bob, carol, dave}

	pending := event("maybe", at(0, 14, 0), at(0, 15, 0))
	pending.Attendees = []models.Attendee{{Email: "me@example.com", Self: true, ResponseStatus: models.ResponseNeedsAction}, carol}

	r := run(t, oneDay(), oneOnOne, group, pending)

	require.Len(t, r.Meetings, 1)
	assert.Equal(t, 90*time.Minute, r.Meetings[0].Duration)
	require.Len(t, r.OneOnOne, 1)
	assert.Equal(t, 30*time.Minute, r.OneOnOne[0].Duration)
	require.Len(t, r.Group, 1)
	assert.Equal(t, time.Hour, r.Group[0].Duration)
	require.Len(t, r.Unconfirmed, 1)
	assert.Equal(t, time.Hour, r.Unconfirmed[0].Duration)

	require.Len(t, r.People, 2)
	assert.Equal(t, PersonTotal{Email: "bob@example.com", Duration: 90 * time.Minute}, r.People[0])
	assert.Equal(t, PersonTotal{Email: "carol@example.com", Duration: time.Hour}, r.People[1])

	// The pending meeting still blocks time in the summary.
	assert.Equal(t, 150*time.Minute, r.Summary.Busy)
}

func TestCalculator_PeopleWithEqualTime(t *testing.T) {
	self := models.Attendee{Email: "me@example.com", Self: true, ResponseStatus: models.ResponseAccepted}
	attendee := func(email string) models.Attendee {
		return models.Attendee{Email: email, ResponseStatus: models.ResponseAccepted}
	}

	first := event("sync", at(0, 9, 0), at(0, 10, 0))
	first.Attendees = []models.Attendee{self, attendee("zoe@example.com"), attendee("adam@example.com")}
	second := event("review", at(0, 11, 0), at(0, 11, 30))
	second.Attendees = []models.Attendee{self, attendee("mia@example.com")}

	r := run(t, oneDay(), first, second)

	require.Len(t, r.People, 3)
	assert.Equal(t, "adam@example.com", r.People[0].Email)
	assert.Equal(t, "zoe@example.com", r.People[1].Email)
	assert.Equal(t, time.Hour, r.People[1].Duration)
	assert.Equal(t, "mia@example.com", r.People[2].Email)
}

func TestCalculator_TimeWasted(t *testing.T) {
	r := run(t, oneDay(),
		event("a", at(0, 9, 20), at(0, 10, 0)),  // 20m after start of day
		event("b", at(0, 10, 45), at(0, 11, 0)), // 45m gap
		event("c", at(0, 13, 0), at(0, 17, 30)), // 2h gap is not a short break
		// 30m before end of day
	)

	require.Len(t, r.Wasted, 1)
	assert.Equal(t, 20*time.Minute+45*time.Minute+30*time.Minute, r.Wasted[0].Duration)
}

func TestCalculator_TimeZone(t *testing.T) {
	denver, err := time.LoadLocation("America/Denver")
	require.NoError(t, err)

	wh := nineToSix(t, denver)
	rng := Today(time.Date(2024, 5, 6, 20, 0, 0, 0, time.UTC), denver)
	c := NewCalculator(wh, rng)

	// 15:00-17:00 UTC is 09:00-11:00 MDT.
	c.Process(event("morning", time.Date(2024, 5, 6, 15, 0, 0, 0, time.UTC), time.Date(2024, 5, 6, 17, 0, 0, 0, time.UTC)))
	// 13:00-15:00 UTC is 07:00-09:00 MDT.
	c.Process(event("early", time.Date(2024, 5, 6, 13, 0, 0, 0, time.UTC), time.Date(2024, 5, 6, 15, 0, 0, 0, time.UTC)))

	r := c.Report()
	assert.Equal(t, 2*time.Hour, r.Summary.Busy)
	assert.Equal(t, 7*time.Hour, r.Summary.Free)
	require.Len(t, r.Meetings, 1)
	assert.Equal(t, "2024-05-06", r.Meetings[0].Day.Format("2006-01-02"))
}
