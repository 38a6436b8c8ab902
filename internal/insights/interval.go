package insights

import (
	"fmt"
	"sort"
	"time"
)

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Duration returns the length of the interval, zero for empty or inverted ranges.
func (i Interval) Duration() time.Duration {
	if !i.End.After(i.Start) {
		return 0
	}
	return i.End.Sub(i.Start)
}

// Empty reports whether the interval contains no time.
func (i Interval) Empty() bool {
	return !i.End.After(i.Start)
}

// Overlaps checks if this interval shares any time with another.
func (i Interval) Overlaps(o Interval) bool {
	return maxTime(i.Start, o.Start).Before(minTime(i.End, o.End))
}

// Intersect returns the portion of i inside o.
func (i Interval) Intersect(o Interval) (Interval, bool) {
	if !i.Overlaps(o) {
		return Interval{}, false
	}
	return Interval{Start: maxTime(i.Start, o.Start), End: minTime(i.End, o.End)}, true
}

func (i Interval) String() string {
	return fmt.Sprintf("[%s, %s)", i.Start.Format(time.RFC3339), i.End.Format(time.RFC3339))
}

// MergeIntervals returns the union of the given intervals as a sorted list of
// disjoint intervals. Touching intervals are joined. The input is not modified.
func MergeIntervals(in []Interval) []Interval {
	if len(in) == 0 {
		return nil
	}
	sorted := make([]Interval, 0, len(in))
	for _, iv := range in {
		if !iv.Empty() {
			sorted = append(sorted, iv)
		}
	}
	sort.Slice(sorted, func(a, b int) bool {
		return sorted[a].Start.Before(sorted[b].Start)
	})

	var merged []Interval
	for _, iv := range sorted {
		n := len(merged)
		if n > 0 && !iv.Start.After(merged[n-1].End) {
			if iv.End.After(merged[n-1].End) {
				merged[n-1].End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// TotalDuration sums the union of the intervals, so overlapping time counts once.
func TotalDuration(in []Interval) time.Duration {
	var total time.Duration
	for _, iv := range MergeIntervals(in) {
		total += iv.Duration()
	}
	return total
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
