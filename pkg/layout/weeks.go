package layout

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/klokku/kalendar/pkg/event"
)

const DaysInWeek = 7

type WeekNumber struct {
	Week int `json:"week"`
	Year int `json:"year"`
}

// WeekNumberFromDate returns the ISO week number that corresponds to the week containing
// the provided date, taking the desired week start day into account. The week start day
// can shift the ISO week into the previous calendar week when it is earlier than Monday.
func WeekNumberFromDate(date time.Time, weekFirstDay time.Weekday) WeekNumber {
	year, week := WeekStart(date, weekFirstDay).ISOWeek()
	return WeekNumber{Year: year, Week: week}
}

// WeekNumberFromString converts ISO week format ISO 8601 e.g. "2025-W03" to WeekNumber
func WeekNumberFromString(isoWeekString string) (WeekNumber, error) {
	parts := strings.Split(isoWeekString, "-")
	if len(parts) != 2 || !strings.HasPrefix(parts[1], "W") {
		return WeekNumber{}, fmt.Errorf("invalid ISO week format: %s", isoWeekString)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return WeekNumber{}, fmt.Errorf("invalid year: %w", err)
	}
	week, err := strconv.Atoi(parts[1][1:])
	if err != nil {
		return WeekNumber{}, fmt.Errorf("invalid week: %w", err)
	}
	if week < 1 || week > 53 {
		return WeekNumber{}, fmt.Errorf("invalid week: %d", week)
	}
	return WeekNumber{Year: year, Week: week}, nil
}

// FirstDay is the inverse of WeekNumberFromDate: the weekFirstDay falling inside
// the ISO week.
func (w WeekNumber) FirstDay(weekFirstDay time.Weekday, loc *time.Location) time.Time {
	if weekFirstDay < time.Sunday || weekFirstDay > time.Saturday {
		weekFirstDay = time.Monday
	}
	// January 4th is always in ISO week 1.
	jan4 := time.Date(w.Year, time.January, 4, 0, 0, 0, 0, loc)
	monday := WeekStart(jan4, time.Monday).AddDate(0, 0, (w.Week-1)*DaysInWeek)
	offset := (int(weekFirstDay) - int(time.Monday) + DaysInWeek) % DaysInWeek
	return monday.AddDate(0, 0, offset)
}

func (w WeekNumber) String() string {
	return fmt.Sprintf("%d-W%02d", w.Year, w.Week)
}

// WeekStart returns midnight of the first day of the week containing date.
// Weekdays outside Sunday..Saturday fall back to Monday.
func WeekStart(date time.Time, weekFirstDay time.Weekday) time.Time {
	if weekFirstDay < time.Sunday || weekFirstDay > time.Saturday {
		weekFirstDay = time.Monday
	}
	delta := (int(date.Weekday()) - int(weekFirstDay) + DaysInWeek) % DaysInWeek
	return event.StartOfDay(date).AddDate(0, 0, -delta)
}

// DaysOfWeek returns the seven consecutive dates starting at start.
func DaysOfWeek(start time.Time) []time.Time {
	start = event.StartOfDay(start)
	days := make([]time.Time, 0, DaysInWeek)
	for i := range DaysInWeek {
		days = append(days, start.AddDate(0, 0, i))
	}
	return days
}

// CalendarWeeks returns the first day of every week that has at least one day
// in the month of selectedMonth.
func CalendarWeeks(selectedMonth time.Time, weekFirstDay time.Weekday) []time.Time {
	year, month, _ := selectedMonth.Date()
	firstOfMonth := time.Date(year, month, 1, 0, 0, 0, 0, selectedMonth.Location())
	lastOfMonth := firstOfMonth.AddDate(0, 1, -1)

	var weeks []time.Time
	last := WeekStart(lastOfMonth, weekFirstDay)
	for week := WeekStart(firstOfMonth, weekFirstDay); !week.After(last); week = week.AddDate(0, 0, DaysInWeek) {
		weeks = append(weeks, week)
	}
	return weeks
}
