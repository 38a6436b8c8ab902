package insights

import (
	"calinsight/internal/models"
	"sort"
	"time"
)

// Insight names, also used as keys in machine-readable output.
const (
	NameTimeInMeetings  = "dailyTimeInMeetings"
	NameTimeInOneOnOne  = "dailyTimeInOneOnOne"
	NameTimeInGroup     = "dailyTimeInGroupMeetings"
	NameTimeUnconfirmed = "dailyTimeUnconfirmed"
	NameTimeWasted      = "dailyTimeWasted"
	NameTimePerPerson   = "totalTimePerPerson"
)

const (
	shortBreakLimit = time.Hour
	dayKeyLayout    = "2006-01-02"
)

// DailyTotal is the time attributed to one local day.
type DailyTotal struct {
	Day      time.Time
	Duration time.Duration
}

// PersonTotal is the time spent in meetings with one attendee.
type PersonTotal struct {
	Email    string
	Duration time.Duration
}

// insight consumes events after they were clipped to working hours.
type insight interface {
	process(e *models.Event, clipped []Interval)
}

// isCountedMeeting restricts to accepted/confirmed busy meetings with defined start/ends.
func isCountedMeeting(e *models.Event) bool {
	return e.IsMeeting() && e.IsAccepted() && e.IsConfirmed() && e.IsBusy()
}

// dailyTime accumulates clipped time per local day, merging overlaps.
type dailyTime struct {
	filter func(*models.Event) bool
	loc    *time.Location
	days   map[string][]Interval
}

func newDailyTime(loc *time.Location, filter func(*models.Event) bool) *dailyTime {
	return &dailyTime{filter: filter, loc: loc, days: make(map[string][]Interval)}
}

func (d *dailyTime) process(e *models.Event, clipped []Interval) {
	if !d.filter(e) {
		return
	}
	for _, iv := range clipped {
		key := iv.Start.In(d.loc).Format(dayKeyLayout)
		d.days[key] = append(d.days[key], iv)
	}
}

// merged returns the merged intervals for each day, ordered by day.
func (d *dailyTime) merged() (keys []string, byDay map[string][]Interval) {
	byDay = make(map[string][]Interval, len(d.days))
	for k, ivs := range d.days {
		keys = append(keys, k)
		byDay[k] = MergeIntervals(ivs)
	}
	sort.Strings(keys)
	return keys, byDay
}

func (d *dailyTime) totals() []DailyTotal {
	keys, byDay := d.merged()
	out := make([]DailyTotal, 0, len(keys))
	for _, k := range keys {
		out = append(out, DailyTotal{Day: d.dayStart(k), Duration: TotalDuration(byDay[k])})
	}
	return out
}

func (d *dailyTime) dayStart(key string) time.Time {
	t, _ := time.ParseInLocation(dayKeyLayout, key, d.loc)
	return t
}

// timeWasted computes the time lost to short breaks between meetings for each day.
// A short break is anything strictly between zero and one hour, including the gaps
// after the start and before the end of working hours.
type timeWasted struct {
	meetings *dailyTime
	hours    WorkingHours
}

func (w *timeWasted) process(e *models.Event, clipped []Interval) {
	w.meetings.process(e, clipped)
}

func (w *timeWasted) totals() []DailyTotal {
	keys, byDay := w.meetings.merged()
	out := make([]DailyTotal, 0, len(keys))
	for _, k := range keys {
		day := w.meetings.dayStart(k)
		window, ok := w.hours.Window(day)
		if !ok {
			continue
		}
		var wasted time.Duration
		previousEnd := window.Start
		for _, iv := range byDay[k] {
			wasted += shortGap(previousEnd, iv.Start)
			previousEnd = iv.End
		}
		wasted += shortGap(previousEnd, window.End)
		out = append(out, DailyTotal{Day: day, Duration: wasted})
	}
	return out
}

func shortGap(from, to time.Time) time.Duration {
	gap := to.Sub(from)
	if gap > 0 && gap < shortBreakLimit {
		return gap
	}
	return 0
}

// timePerPerson sums the meeting time spent with each accepted attendee.
type timePerPerson struct {
	people map[string]time.Duration
}

func (p *timePerPerson) process(e *models.Event, clipped []Interval) {
	if !isCountedMeeting(e) || len(clipped) == 0 {
		return
	}
	duration := TotalDuration(clipped)
	for _, a := range e.HumanAttendees() {
		if !a.Accepted() || a.Self || a.Email == "" {
			continue
		}
		p.people[a.Email] += duration
	}
}

func (p *timePerPerson) totals() []PersonTotal {
	out := make([]PersonTotal, 0, len(p.people))
	for email, d := range p.people {
		out = append(out, PersonTotal{Email: email, Duration: d})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Duration != out[j].Duration {
			return out[i].Duration > out[j].Duration
		}
		return out[i].Email < out[j].Email
	})
	return out
}
