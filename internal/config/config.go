package config

import (
	"calinsight/internal/insights"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env"
)

// Adjust as necessary. Environment variables override these at runtime.
const (
	DefaultTimeZone   = "America/Denver"
	DefaultStartOfDay = "09:00" // 24 hour clock
	DefaultEndOfDay   = "18:00" // 24 hour clock
)

// Range names accepted on the command line.
const (
	RangeWeek  = "week"
	RangeToday = "today"
)

// Config is read from the environment (and a .env file loaded by main).
type Config struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	TimeZone   string   `env:"WORK_TIMEZONE" envDefault:"America/Denver"`
	StartOfDay string   `env:"WORK_DAY_START" envDefault:"09:00"`
	EndOfDay   string   `env:"WORK_DAY_END" envDefault:"18:00"`
	WorkDays   []string `env:"WORK_DAYS" envDefault:"mon,tue,wed,thu,fri" envSeparator:","`

	GoogleCalendarID string `env:"GOOGLE_CALENDAR_ID" envDefault:"primary"`
	GoogleEndpoint   string `env:"GOOGLE_CALENDAR_ENDPOINT"`

	CalDAVEndpoint     string `env:"CALDAV_ENDPOINT" envDefault:"https://caldav.icloud.com/"`
	ICloudUsername     string `env:"ICLOUD_USERNAME"`
	ICloudPassword     string `env:"ICLOUD_APP_SPECIFIC_PASSWORD"`
	ICloudCalendarName string `env:"ICLOUD_CALENDAR_NAME"`
}

// Load parses the environment into a Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("error parsing environment variables: %w", err)
	}
	return cfg, nil
}

// Location loads the working-hours time zone.
func (c *Config) Location() (*time.Location, error) {
	tz := c.TimeZone
	if tz == "" {
		tz = DefaultTimeZone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone '%s': %w", tz, err)
	}
	return loc, nil
}

// WorkingHours builds the working-hours window from the configuration.
func (c *Config) WorkingHours() (insights.WorkingHours, error) {
	loc, err := c.Location()
	if err != nil {
		return insights.WorkingHours{}, err
	}
	start, err := insights.ParseClock(orDefault(c.StartOfDay, DefaultStartOfDay))
	if err != nil {
		return insights.WorkingHours{}, fmt.Errorf("WORK_DAY_START: %w", err)
	}
	end, err := insights.ParseClock(orDefault(c.EndOfDay, DefaultEndOfDay))
	if err != nil {
		return insights.WorkingHours{}, fmt.Errorf("WORK_DAY_END: %w", err)
	}
	days, err := parseWeekdays(c.WorkDays)
	if err != nil {
		return insights.WorkingHours{}, fmt.Errorf("WORK_DAYS: %w", err)
	}
	return insights.NewWorkingHours(start, end, loc, days)
}

// Range resolves a named query range around now.
func Range(name string, now time.Time, loc *time.Location) (insights.Interval, error) {
	switch strings.ToLower(name) {
	case "", RangeWeek:
		return insights.Week(now, loc), nil
	case RangeToday:
		return insights.Today(now, loc), nil
	default:
		return insights.Interval{}, fmt.Errorf("unknown range %q, expected %q or %q", name, RangeWeek, RangeToday)
	}
}

var weekdays = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

func parseWeekdays(names []string) ([]time.Weekday, error) {
	var out []time.Weekday
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if len(name) > 3 {
			name = name[:3]
		}
		d, ok := weekdays[name]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", name)
		}
		out = append(out, d)
	}
	return out, nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
