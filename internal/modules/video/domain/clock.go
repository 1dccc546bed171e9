package domain

import (
	"fmt"
	"regexp"
	"time"

	"github.com/samber/oops"
)

const (
	secondsPerMinute = 60
	secondsPerHour   = 60 * secondsPerMinute
	secondsPerDay    = 24 * secondsPerHour

	// ClockLayout is the H:MM:SS layout used for durations on disk and in
	// the downloader's output.
	ClockLayout = "15:04:05"
)

// ClockTime is a time of day without a date. Video durations are stored as
// clock times, so anything longer than 23:59:59 cannot be represented.
type ClockTime struct {
	Hour   int
	Minute int
	Second int
}

// Midnight is the zero duration.
var Midnight = ClockTime{}

// clockPattern rejects what time.Parse tolerates after the seconds field,
// such as a fractional part.
var clockPattern = regexp.MustCompile(`^\d{1,2}:\d{2}:\d{2}$`)

// ParseClockTime parses H:MM:SS or HH:MM:SS.
func ParseClockTime(s string) (ClockTime, error) {
	if !clockPattern.MatchString(s) {
		return ClockTime{}, oops.With("duration", s).Errorf("invalid duration: want H:MM:SS")
	}
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return ClockTime{}, oops.With("duration", s).Wrapf(err, "invalid duration")
	}
	return ClockTime{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
}

// MustParseClockTime is ParseClockTime for literals. It panics on error.
func MustParseClockTime(s string) ClockTime {
	c, err := ParseClockTime(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Seconds returns the number of seconds since midnight.
func (c ClockTime) Seconds() int {
	return c.Hour*secondsPerHour + c.Minute*secondsPerMinute + c.Second
}

// String formats c as HH:MM:SS.
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", c.Hour, c.Minute, c.Second)
}

// AddTimes sums two clock times. Overflow past 24h is returned as whole days
// instead of wrapping.
func AddTimes(t1, t2 ClockTime) (int, ClockTime) {
	total := t1.Seconds() + t2.Seconds()

	days, rem := total/secondsPerDay, total%secondsPerDay
	hours, rem := rem/secondsPerHour, rem%secondsPerHour
	minutes, seconds := rem/secondsPerMinute, rem%secondsPerMinute

	return days, ClockTime{Hour: hours, Minute: minutes, Second: seconds}
}

// Span is a cumulative duration: whole days plus a residual clock time.
type Span struct {
	Days  int
	Clock ClockTime
}

// Add returns s extended by d.
func (s Span) Add(d ClockTime) Span {
	carry, clock := AddTimes(s.Clock, d)
	return Span{Days: s.Days + carry, Clock: clock}
}

// Merge returns the sum of two spans.
func (s Span) Merge(other Span) Span {
	carry, clock := AddTimes(s.Clock, other.Clock)
	return Span{Days: s.Days + other.Days + carry, Clock: clock}
}

// IsZero reports whether s is 0 days and 00:00:00.
func (s Span) IsZero() bool {
	return s.Days == 0 && s.Clock == Midnight
}

// String renders "HH:MM:SS", or "N day(s) and HH:MM:SS" when Days > 0.
func (s Span) String() string {
	switch s.Days {
	case 0:
		return s.Clock.String()
	case 1:
		return fmt.Sprintf("1 day and %s", s.Clock)
	default:
		return fmt.Sprintf("%d days and %s", s.Days, s.Clock)
	}
}

// SumDurations accumulates durations in order, carrying overflow into days.
func SumDurations(durations []ClockTime) Span {
	var total Span
	for _, d := range durations {
		total = total.Add(d)
	}
	return total
}
