package insights

import (
	"calinsight/internal/models"
	"time"
)

// Summary is the busy/free breakdown of the working-hours windows in a range.
type Summary struct {
	Busy       time.Duration
	Free       time.Duration
	Window     time.Duration
	EventCount int
	Fetched    int
}

// Report holds every insight computed in one run.
type Report struct {
	Range        Interval
	WorkingHours WorkingHours
	Summary      Summary
	Meetings     []DailyTotal
	OneOnOne     []DailyTotal
	Group        []DailyTotal
	Unconfirmed  []DailyTotal
	Wasted       []DailyTotal
	People       []PersonTotal
	BusyBlocks   []Interval
}

// Calculator clips events to working hours and accumulates insights.
// Events are expected to be processed in chronological order.
type Calculator struct {
	hours   WorkingHours
	rng     Interval
	windows []Interval

	busy       []Interval
	eventCount int
	fetched    int

	meetings    *dailyTime
	oneOnOne    *dailyTime
	group       *dailyTime
	unconfirmed *dailyTime
	wasted      *timeWasted
	people      *timePerPerson
}

// NewCalculator creates a Calculator for the given working hours and query range.
func NewCalculator(hours WorkingHours, rng Interval) *Calculator {
	loc := hours.Location
	return &Calculator{
		hours:    hours,
		rng:      rng,
		windows:  hours.Windows(rng),
		meetings: newDailyTime(loc, isCountedMeeting),
		oneOnOne: newDailyTime(loc, func(e *models.Event) bool {
			return e.IsOneOnOne() && isCountedMeeting(e)
		}),
		group: newDailyTime(loc, func(e *models.Event) bool {
			return e.IsGroupMeeting() && isCountedMeeting(e)
		}),
		unconfirmed: newDailyTime(loc, func(e *models.Event) bool {
			return e.IsMeeting() && e.IsPending()
		}),
		wasted: &timeWasted{meetings: newDailyTime(loc, isCountedMeeting), hours: hours},
		people: &timePerPerson{people: make(map[string]time.Duration)},
	}
}

// IsBusyTime reports whether an event occupies time in the busy/free summary.
func IsBusyTime(e *models.Event) bool {
	if !e.IsMeeting() {
		return false
	}
	if e.Status == models.StatusCancelled || e.Transparency == models.TransparencyTransparent {
		return false
	}
	return !e.IsDeclined()
}

// Process clips a single event and feeds it to every insight.
func (c *Calculator) Process(e *models.Event) {
	c.fetched++
	if !e.IsTimed() {
		return
	}
	clipped := Clip(Interval{Start: e.StartTime, End: e.EndTime}, c.windows)

	if IsBusyTime(e) && len(clipped) > 0 {
		c.busy = append(c.busy, clipped...)
		c.eventCount++
	}

	for _, in := range []insight{c.meetings, c.oneOnOne, c.group, c.unconfirmed, c.wasted, c.people} {
		in.process(e, clipped)
	}
}

// Report generates the insight data.
func (c *Calculator) Report() *Report {
	var window time.Duration
	for _, w := range c.windows {
		window += w.Duration()
	}
	blocks := MergeIntervals(c.busy)
	var busy time.Duration
	for _, b := range blocks {
		busy += b.Duration()
	}
	free := window - busy
	if free < 0 {
		free = 0
	}

	return &Report{
		Range:        c.rng,
		WorkingHours: c.hours,
		Summary: Summary{
			Busy:       busy,
			Free:       free,
			Window:     window,
			EventCount: c.eventCount,
			Fetched:    c.fetched,
		},
		Meetings:    c.meetings.totals(),
		OneOnOne:    c.oneOnOne.totals(),
		Group:       c.group.totals(),
		Unconfirmed: c.unconfirmed.totals(),
		Wasted:      c.wasted.totals(),
		People:      c.people.totals(),
		BusyBlocks:  blocks,
	}
}
