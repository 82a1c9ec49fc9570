package analytics

import (
	"strconv"
	"time"
)

// Allowed values for the range and activeWindow query parameters. The first
// element of each set doubles as the default for invalid or absent input.
var (
	AllowedRanges        = []int{7, 14, 30, 90, 180}
	AllowedActiveWindows = []int{7, 6, 5, 4, 3, 2, 1}
)

const secondsPerDay = 24 * 60 * 60

// Day is a UTC calendar day expressed as days since the Unix epoch. Keeping
// bucket arithmetic on integers removes timezone and DST ambiguity entirely.
type Day int64

// DayOf returns the UTC day containing t.
func DayOf(t time.Time) Day {
	secs := t.Unix()
	if secs < 0 {
		// Floor division for pre-epoch instants.
		return Day((secs - (secondsPerDay - 1)) / secondsPerDay)
	}
	return Day(secs / secondsPerDay)
}

// Start returns the UTC midnight opening the day.
func (d Day) Start() time.Time {
	return time.Unix(int64(d)*secondsPerDay, 0).UTC()
}

// Key returns the date key used in chart series, e.g. "2026-01-31".
func (d Day) Key() string {
	return d.Start().Format("2006-01-02")
}

// Period is a contiguous, inclusive run of UTC days.
type Period struct {
	Start Day
	End   Day
}

// Days returns the number of day buckets the period spans.
func (p Period) Days() int {
	return int(p.End-p.Start) + 1
}

// Buckets expands the period into its ordered day sequence, one entry per
// day, inclusive of both bounds.
func (p Period) Buckets() []Day {
	buckets := make([]Day, 0, p.Days())
	for d := p.Start; d <= p.End; d++ {
		buckets = append(buckets, d)
	}
	return buckets
}

// Offset returns the position of d within the period, and whether d is a
// member at all. Series slices are indexed by this offset.
func (p Period) Offset(d Day) (int, bool) {
	if d < p.Start || d > p.End {
		return 0, false
	}
	return int(d - p.Start), true
}

// TimeRange converts the period to the half-open instant range
// [Start 00:00 UTC, End+1 00:00 UTC) for store queries.
func (p Period) TimeRange() TimeRange {
	return TimeRange{Start: p.Start.Start(), End: (p.End + 1).Start()}
}

// ResolveRange derives the current and previous analysis periods from a range
// length and the current instant. The current period ends on today's UTC day;
// the previous period has the same length and ends exactly one day before the
// current period starts.
func ResolveRange(rangeDays int, now time.Time) (current, previous Period) {
	end := DayOf(now)
	current = Period{Start: end - Day(rangeDays-1), End: end}
	previous = Period{Start: current.Start - Day(rangeDays), End: current.Start - 1}
	return current, previous
}

// RangeDays validates a raw range parameter against AllowedRanges, falling
// back to the default on absent, unparseable or unlisted values.
func RangeDays(raw string) int {
	return pickAllowed(raw, AllowedRanges)
}

// ActiveWindowDays validates a raw activeWindow parameter against
// AllowedActiveWindows with the same silent fallback.
func ActiveWindowDays(raw string) int {
	return pickAllowed(raw, AllowedActiveWindows)
}

func pickAllowed(raw string, allowed []int) int {
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return allowed[0]
	}
	for _, v := range allowed {
		if parsed == v {
			return parsed
		}
	}
	return allowed[0]
}
