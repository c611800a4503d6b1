package layout

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/klokku/kalendar/pkg/event"
	"github.com/rdleal/intervalst/interval"
	log "github.com/sirupsen/logrus"
)

// Cell places an event in a week strip. Columns are 1-indexed and inclusive.
type Cell struct {
	Event    event.Event `json:"event"`
	ColStart int         `json:"colStart"`
	ColEnd   int         `json:"colEnd"`
	Row      int         `json:"row"`
	Draft    bool        `json:"draft,omitempty"`
}

func (c Cell) Covers(day int) bool {
	return c.ColStart <= day && day <= c.ColEnd
}

func (c Cell) Span() int {
	return c.ColEnd - c.ColStart + 1
}

// Overflow summarizes a day with more events than fit. Events holds every cell
// covering the day, not only the hidden ones.
type Overflow struct {
	Amount int    `json:"amount"`
	Events []Cell `json:"events"`
}

// Day is one column of a week. Cells holds the visible cells with their columns
// clipped to the run of days they are visible on, so a cell hidden on an
// earlier day starts at the first day it is shown again. Overflow.Events keeps
// the unclipped cells.
type Day struct {
	Date     time.Time `json:"date"`
	Column   int       `json:"column"`
	Cells    []Cell    `json:"cells"`
	Overflow Overflow  `json:"overflow"`
}

type WeekLayout struct {
	WeekNumber  WeekNumber `json:"weekNumber"`
	FullDayRows int        `json:"fullDayRows"`
	Cells       []Cell     `json:"cells"`
	Days        []Day      `json:"days"`
}

// Week lays out events over the consecutive dates in daysOfWeek. The draft, when
// given, is placed like any other event and marked as such. At most capacity
// cells are rendered per day; the rest is reported through the day's Overflow.
func Week(daysOfWeek []time.Time, events []event.Event, draft *event.Event, capacity int) WeekLayout {
	if len(daysOfWeek) == 0 {
		return WeekLayout{Cells: []Cell{}, Days: []Day{}}
	}
	capacity = max(capacity, 0)

	var fullDay, timed []Cell
	place := func(e event.Event, isDraft bool) {
		colStart, colEnd, visible := span(daysOfWeek, e)
		if !visible {
			return
		}
		c := Cell{Event: e, ColStart: colStart, ColEnd: colEnd, Draft: isDraft}
		if event.IsFullDayEvent(e) {
			fullDay = append(fullDay, c)
		} else {
			timed = append(timed, c)
		}
	}
	for _, e := range events {
		place(e, false)
	}
	if draft != nil {
		place(*draft, true)
	}

	slices.SortFunc(fullDay, compareFullDay)
	fullDayRows := packRows(fullDay)

	slices.SortFunc(timed, func(a, b Cell) int { return event.Compare(a.Event, b.Event) })
	nextRow := make(map[int]int)
	for i := range timed {
		timed[i].Row = fullDayRows + nextRow[timed[i].ColStart]
		nextRow[timed[i].ColStart]++
	}

	cells := append(fullDay, timed...)
	slices.SortStableFunc(cells, func(a, b Cell) int {
		if c := cmp.Compare(a.Row, b.Row); c != 0 {
			return c
		}
		return cmp.Compare(a.ColStart, b.ColStart)
	})
	if cells == nil {
		cells = []Cell{}
	}

	// shown[i][column] is set when cells[i] is among the first capacity cells of that day.
	shown := make([][]bool, len(cells))
	for i := range cells {
		shown[i] = make([]bool, len(daysOfWeek)+2)
	}
	for column := 1; column <= len(daysOfWeek); column++ {
		visible := 0
		for i, c := range cells {
			if visible == capacity {
				break
			}
			if c.Covers(column) {
				shown[i][column] = true
				visible++
			}
		}
	}

	days := make([]Day, 0, len(daysOfWeek))
	for i, date := range daysOfWeek {
		column := i + 1
		visible := make([]Cell, 0, min(capacity, len(cells)))
		for j, c := range cells {
			if shown[j][column] {
				visible = append(visible, clipToShownRun(c, shown[j], column))
			}
		}
		covering := EventsOnDay(cells, column)
		days = append(days, Day{
			Date:     date,
			Column:   column,
			Cells:    visible,
			Overflow: Overflow{Amount: max(0, len(covering)-capacity), Events: covering},
		})
	}

	return WeekLayout{
		WeekNumber:  WeekNumberFromDate(daysOfWeek[0], daysOfWeek[0].Weekday()),
		FullDayRows: fullDayRows,
		Cells:       cells,
		Days:        days,
	}
}

// Month lays out every week returned by CalendarWeeks for the month.
func Month(selectedMonth time.Time, weekFirstDay time.Weekday, events []event.Event, draft *event.Event, capacity int) []WeekLayout {
	weeks := CalendarWeeks(selectedMonth, weekFirstDay)
	layouts := make([]WeekLayout, 0, len(weeks))
	for _, start := range weeks {
		layouts = append(layouts, Week(DaysOfWeek(start), events, draft, capacity))
	}
	return layouts
}

// EventsOnDay returns the cells whose column span contains day, in their original order.
func EventsOnDay(cells []Cell, day int) []Cell {
	result := make([]Cell, 0)
	for _, c := range cells {
		if c.Covers(day) {
			result = append(result, c)
		}
	}
	return result
}

// span returns the columns of e clipped to the window, or false when e does
// not touch it. Full day events are placed by their calendar dates, timed
// events by their start time in the window's location.
func span(days []time.Time, e event.Event) (int, int, bool) {
	if e.Kind() == "" {
		return 0, 0, false
	}
	first, last := e.FirstDay(), e.LastDay()
	if event.IsDayEvent(e) {
		first = e.Day.StartTime.In(days[0].Location())
		last = first
	}
	colStart := event.DaysBetween(days[0], first) + 1
	colEnd := event.DaysBetween(days[0], last) + 1
	if colEnd < colStart || colEnd < 1 || colStart > len(days) {
		return 0, 0, false
	}
	return max(colStart, 1), min(colEnd, len(days)), true
}

// clipToShownRun narrows c to the consecutive days around column on which it is visible.
func clipToShownRun(c Cell, shown []bool, column int) Cell {
	start, end := column, column
	for start > c.ColStart && shown[start-1] {
		start--
	}
	for end < c.ColEnd && shown[end+1] {
		end++
	}
	c.ColStart, c.ColEnd = start, end
	return c
}

func compareFullDay(a, b Cell) int {
	if c := cmp.Compare(a.ColStart, b.ColStart); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Span(), a.Span()); c != 0 {
		return c
	}
	if c := event.CompareColors(a.Event.Color, b.Event.Color); c != 0 {
		return c
	}
	return strings.Compare(a.Event.Id.String(), b.Event.Id.String())
}

// packRows assigns each full day cell the first row it doesn't overlap in and
// returns the number of rows used. Cells must be sorted.
func packRows(cells []Cell) int {
	var rows []*interval.SearchTree[int, int]
	for i := range cells {
		// Columns map to [2*start, 2*end+1] so that adjacent single-day cells
		// never share an endpoint in the closed intervals the tree works with.
		start, end := 2*cells[i].ColStart, 2*cells[i].ColEnd+1

		row := slices.IndexFunc(rows, func(tree *interval.SearchTree[int, int]) bool {
			_, overlaps := tree.AnyIntersection(start, end)
			return !overlaps
		})
		if row < 0 {
			rows = append(rows, interval.NewSearchTree[int](func(x, y int) int { return x - y }))
			row = len(rows) - 1
		}
		if err := rows[row].Insert(start, end, i); err != nil {
			log.Warnf("failed to reserve columns %d-%d in row %d: %v", cells[i].ColStart, cells[i].ColEnd, row, err)
		}
		cells[i].Row = row
	}
	return len(rows)
}
