package timeslot

import (
	"errors"
	"fmt"
	"iter"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidTime = errors.New("invalid time of day")

const DefaultInterval = 15 * time.Minute

const day = 24 * time.Hour

// Option is an end time choice together with its distance from the start time.
type Option struct {
	TimeSlot string `json:"timeSlot"`
	Duration string `json:"duration"`
}

// Generator produces the times of day offered by the event form, one every Interval.
type Generator struct {
	Interval time.Duration
}

func NewGenerator(interval time.Duration) Generator {
	return Generator{Interval: interval}
}

func (g Generator) interval() time.Duration {
	if g.Interval <= 0 || g.Interval >= day {
		return DefaultInterval
	}
	return g.Interval
}

// LastSlot is the latest slot of the day ("23:45" for the default interval).
func (g Generator) LastSlot() string {
	interval := g.interval()
	return FormatTime((day - 1) / interval * interval)
}

// GenerateTimeSlots yields every slot of the day from "00:00" on.
func (g Generator) GenerateTimeSlots() iter.Seq[string] {
	interval := g.interval()
	return func(yield func(string) bool) {
		for t := time.Duration(0); t < day; t += interval {
			if !yield(FormatTime(t)) {
				return
			}
		}
	}
}

// GenerateTimeSlotsFrom yields the slots strictly after start until the end of
// the day, labelled with the time elapsed since start.
func (g Generator) GenerateTimeSlotsFrom(start string) (iter.Seq[Option], error) {
	from, err := ParseTimeString(start)
	if err != nil {
		return nil, err
	}
	interval := g.interval()
	first := (from/interval + 1) * interval
	return func(yield func(Option) bool) {
		for t := first; t < day; t += interval {
			if !yield(Option{TimeSlot: FormatTime(t), Duration: FormatDuration(t - from)}) {
				return
			}
		}
	}, nil
}

// DefaultEndTime returns start plus one hour. Starts from 23:00 on would roll
// into the next day, so they get the last slot of the day instead.
func (g Generator) DefaultEndTime(start string) (string, error) {
	from, err := ParseTimeString(start)
	if err != nil {
		return "", err
	}
	if from >= 23*time.Hour {
		return g.LastSlot(), nil
	}
	return FormatTime(from + time.Hour), nil
}

// ParseTimeString parses an "HH:MM" time of day into the offset from midnight.
func ParseTimeString(value string) (time.Duration, error) {
	hours, minutes, found := strings.Cut(value, ":")
	if !found || !isTwoDigits(hours) || !isTwoDigits(minutes) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, value)
	}
	h, err := strconv.Atoi(hours)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, value)
	}
	m, err := strconv.Atoi(minutes)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, value)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute, nil
}

func isTwoDigits(value string) bool {
	return len(value) == 2 && value[0] >= '0' && value[0] <= '9' && value[1] >= '0' && value[1] <= '9'
}

// FormatTime formats an offset from midnight as "HH:MM".
func FormatTime(offset time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(offset/time.Hour), int(offset%time.Hour/time.Minute))
}

// FormatDuration renders d as "45 min", "1 h" or "1 h 30 min".
func FormatDuration(d time.Duration) string {
	hours := int(d / time.Hour)
	minutes := int(d % time.Hour / time.Minute)
	switch {
	case hours == 0:
		return fmt.Sprintf("%d min", minutes)
	case minutes == 0:
		return fmt.Sprintf("%d h", hours)
	default:
		return fmt.Sprintf("%d h %d min", hours, minutes)
	}
}
