package insights

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-module/carbon"
)

// Clock is a local time of day.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses "9", "09:00" or "17:30".
func ParseClock(s string) (Clock, error) {
	s = strings.TrimSpace(s)
	layout := "15:04"
	if !strings.Contains(s, ":") {
		layout = "15"
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return Clock{}, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

func (c Clock) minutes() int {
	return c.Hour*60 + c.Minute
}

// WorkingHours is the daily window events are clipped against.
type WorkingHours struct {
	Start    Clock
	End      Clock
	Location *time.Location
	Days     []time.Weekday
}

// DefaultWorkdays is Monday through Friday.
var DefaultWorkdays = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}

// NewWorkingHours validates and builds a working-hours window.
func NewWorkingHours(start, end Clock, loc *time.Location, days []time.Weekday) (WorkingHours, error) {
	if loc == nil {
		return WorkingHours{}, fmt.Errorf("working hours need a time zone")
	}
	if end.minutes() <= start.minutes() {
		return WorkingHours{}, fmt.Errorf("end of day %s must be after start of day %s", end, start)
	}
	if len(days) == 0 {
		days = DefaultWorkdays
	}
	return WorkingHours{Start: start, End: end, Location: loc, Days: days}, nil
}

// IsWorkday reports whether windows exist on the given weekday.
func (w WorkingHours) IsWorkday(d time.Weekday) bool {
	for _, day := range w.Days {
		if day == d {
			return true
		}
	}
	return false
}

// Window returns the working-hours window on the local date of t.
func (w WorkingHours) Window(t time.Time) (Interval, bool) {
	local := t.In(w.Location)
	if !w.IsWorkday(local.Weekday()) {
		return Interval{}, false
	}
	y, m, d := local.Date()
	return Interval{
		Start: time.Date(y, m, d, w.Start.Hour, w.Start.Minute, 0, 0, w.Location),
		End:   time.Date(y, m, d, w.End.Hour, w.End.Minute, 0, 0, w.Location),
	}, true
}

// Windows returns every working-hours window inside r, trimmed to r.
func (w WorkingHours) Windows(r Interval) []Interval {
	var out []Interval
	if r.Empty() {
		return out
	}
	local := r.Start.In(w.Location)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, w.Location)
	for day.Before(r.End) {
		if win, ok := w.Window(day); ok {
			if clipped, ok := win.Intersect(r); ok {
				out = append(out, clipped)
			}
		}
		day = day.AddDate(0, 0, 1)
	}
	return out
}

// Clip truncates iv to each of the windows it overlaps.
func Clip(iv Interval, windows []Interval) []Interval {
	var out []Interval
	for _, win := range windows {
		if c, ok := iv.Intersect(win); ok {
			out = append(out, c)
		}
	}
	return out
}

// Week returns Monday 00:00 to the following Monday 00:00 around now, in loc.
func Week(now time.Time, loc *time.Location) Interval {
	start := localCarbon(now, loc).StartOfWeek()
	return Interval{Start: start.Carbon2Time().In(loc), End: start.AddDays(7).Carbon2Time().In(loc)}
}

// Today returns local midnight to the next midnight around now, in loc.
func Today(now time.Time, loc *time.Location) Interval {
	start := localCarbon(now, loc).StartOfDay()
	return Interval{Start: start.Carbon2Time().In(loc), End: start.AddDay().Carbon2Time().In(loc)}
}

// localCarbon places now in loc with weeks starting on Monday. Zones that cannot
// be loaded by name, such as fixed offsets, fall back to UTC.
func localCarbon(now time.Time, loc *time.Location) carbon.Carbon {
	c := carbon.Time2Carbon(now).SetTimezone(loc.String())
	if c.Error != nil {
		c = carbon.Time2Carbon(now).SetTimezone(carbon.UTC)
	}
	return c.SetWeekStartsAt(carbon.Monday)
}
