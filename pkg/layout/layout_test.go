package layout

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
	"github.com/klokku/kalendar/pkg/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Monday 4 November 2024 .. Sunday 10 November 2024
var week = DaysOfWeek(time.Date(2024, time.November, 4, 0, 0, 0, 0, time.UTC))

func date(month time.Month, d int) time.Time {
	return time.Date(2024, month, d, 0, 0, 0, 0, time.UTC)
}

func at(d, hour, minute int) time.Time {
	return time.Date(2024, time.November, d, hour, minute, 0, 0, time.UTC)
}

func fullDay(title string, color event.Color, from, to time.Time) event.Event {
	e := event.NewFullDayEvent(title, "", color, from, to)
	e.Id = uuid.New()
	return e
}

func timed(title string, color event.Color, start, end time.Time) event.Event {
	e := event.NewDayEvent(title, "", color, start, end)
	e.Id = uuid.New()
	return e
}

func titles(cells []Cell) []string {
	result := make([]string, 0, len(cells))
	for _, c := range cells {
		result = append(result, c.Event.Title)
	}
	return result
}

func TestWeek_Spans(t *testing.T) {
	t.Run("should drop events outside the week", func(t *testing.T) {
		// given
		events := []event.Event{
			fullDay("Before", event.Pink, date(time.October, 28), date(time.November, 3)),
			fullDay("After", event.Pink, date(time.November, 11), date(time.November, 12)),
			timed("Next week", event.Blue, at(11, 10, 0), at(11, 11, 0)),
		}

		// when
		layout := Week(week, events, nil, 3)

		// then
		assert.Empty(t, layout.Cells)
		for _, d := range layout.Days {
			assert.Empty(t, d.Cells)
			assert.Equal(t, 0, d.Overflow.Amount)
			assert.Empty(t, d.Overflow.Events)
		}
	})

	t.Run("should span the whole week from monday to sunday", func(t *testing.T) {
		// given
		events := []event.Event{fullDay("Holiday", event.Green, date(time.November, 4), date(time.November, 10))}

		// when
		layout := Week(week, events, nil, 3)

		// then
		require.Len(t, layout.Cells, 1)
		assert.Equal(t, 1, layout.Cells[0].ColStart)
		assert.Equal(t, 7, layout.Cells[0].ColEnd)
		for _, d := range layout.Days {
			assert.Equal(t, []string{"Holiday"}, titles(d.Cells))
		}
	})

	t.Run("should clip events overlapping the week partially", func(t *testing.T) {
		// given
		events := []event.Event{
			fullDay("Started earlier", event.Pink, date(time.October, 30), date(time.November, 5)),
			fullDay("Ends later", event.Indigo, date(time.November, 9), date(time.November, 20)),
		}

		// when
		layout := Week(week, events, nil, 3)

		// then
		require.Len(t, layout.Cells, 2)
		assert.Equal(t, 1, layout.Cells[0].ColStart)
		assert.Equal(t, 2, layout.Cells[0].ColEnd)
		assert.Equal(t, 6, layout.Cells[1].ColStart)
		assert.Equal(t, 7, layout.Cells[1].ColEnd)
	})

	t.Run("should place a timed event in the column of its date", func(t *testing.T) {
		// given
		events := []event.Event{timed("Dentist", event.Red, at(7, 9, 0), at(7, 10, 0))}

		// when
		layout := Week(week, events, nil, 3)

		// then
		require.Len(t, layout.Cells, 1)
		assert.Equal(t, 4, layout.Cells[0].ColStart)
		assert.Equal(t, 4, layout.Cells[0].ColEnd)
		assert.Equal(t, []string{"Dentist"}, titles(layout.Days[3].Cells))
	})

	t.Run("should ignore events without a shape", func(t *testing.T) {
		layout := Week(week, []event.Event{{Id: uuid.New(), Title: "Broken"}}, nil, 3)

		assert.Empty(t, layout.Cells)
	})
}

func TestWeek_Rows(t *testing.T) {
	t.Run("should put full day events in rows above timed events", func(t *testing.T) {
		// given
		events := []event.Event{
			timed("Standup", event.Pink, at(5, 9, 0), at(5, 9, 15)),
			fullDay("Conference", event.Zinc, date(time.November, 5), date(time.November, 6)),
		}

		// when
		layout := Week(week, events, nil, 3)

		// then
		assert.Equal(t, 1, layout.FullDayRows)
		assert.Equal(t, []string{"Conference", "Standup"}, titles(layout.Days[1].Cells))
		assert.Equal(t, 0, layout.Days[1].Cells[0].Row)
		assert.Equal(t, 1, layout.Days[1].Cells[1].Row)
	})

	t.Run("should share a row between full day events that do not overlap", func(t *testing.T) {
		// given
		events := []event.Event{
			fullDay("Mon-Tue", event.Pink, date(time.November, 4), date(time.November, 5)),
			fullDay("Wed", event.Pink, date(time.November, 6), date(time.November, 6)),
			fullDay("Tue-Thu", event.Pink, date(time.November, 5), date(time.November, 7)),
			fullDay("Tue", event.Pink, date(time.November, 5), date(time.November, 5)),
		}

		// when
		layout := Week(week, events, nil, 5)

		// then
		rows := map[string]int{}
		for _, c := range layout.Cells {
			rows[c.Event.Title] = c.Row
		}
		assert.Equal(t, map[string]int{"Mon-Tue": 0, "Tue-Thu": 1, "Tue": 2, "Wed": 0}, rows)
		assert.Equal(t, 3, layout.FullDayRows)
	})

	t.Run("should share a row between adjacent single day events", func(t *testing.T) {
		// given
		events := []event.Event{
			fullDay("Mon", event.Pink, date(time.November, 4), date(time.November, 4)),
			fullDay("Tue", event.Pink, date(time.November, 5), date(time.November, 5)),
		}

		// when
		layout := Week(week, events, nil, 3)

		// then
		assert.Equal(t, 1, layout.FullDayRows)
	})

	t.Run("should order timed events by start time then color then id", func(t *testing.T) {
		// given
		first := timed("First", event.Zinc, at(6, 8, 0), at(6, 9, 0))
		pink := timed("Pink", event.Pink, at(6, 10, 0), at(6, 11, 0))
		blue := timed("Blue", event.Blue, at(6, 10, 0), at(6, 11, 0))
		lowId := timed("Blue low id", event.Blue, at(6, 10, 0), at(6, 10, 30))
		lowId.Id = uuid.MustParse("00000000-0000-4000-8000-000000000000")
		events := []event.Event{blue, pink, lowId, first}

		// when
		layout := Week(week, events, nil, 10)

		// then
		assert.Equal(t, []string{"First", "Pink", "Blue low id", "Blue"}, titles(layout.Days[2].Cells))
	})

	t.Run("should order full day events by start then width then color", func(t *testing.T) {
		// given
		events := []event.Event{
			fullDay("Short red", event.Red, date(time.November, 4), date(time.November, 4)),
			fullDay("Short pink", event.Pink, date(time.November, 4), date(time.November, 4)),
			fullDay("Long", event.Zinc, date(time.November, 4), date(time.November, 6)),
		}

		// when
		layout := Week(week, events, nil, 10)

		// then
		assert.Equal(t, []string{"Long", "Short pink", "Short red"}, titles(layout.Days[0].Cells))
	})
}

func TestWeek_Overflow(t *testing.T) {
	t.Run("should render up to capacity and keep every event in the overflow", func(t *testing.T) {
		// given
		events := []event.Event{
			timed("A", event.Pink, at(8, 8, 0), at(8, 9, 0)),
			timed("B", event.Pink, at(8, 9, 0), at(8, 10, 0)),
			timed("C", event.Pink, at(8, 10, 0), at(8, 11, 0)),
			timed("D", event.Pink, at(8, 11, 0), at(8, 12, 0)),
		}

		// when
		layout := Week(week, events, nil, 2)

		// then
		friday := layout.Days[4]
		assert.Equal(t, []string{"A", "B"}, titles(friday.Cells))
		assert.Equal(t, 2, friday.Overflow.Amount)
		assert.Equal(t, []string{"A", "B", "C", "D"}, titles(friday.Overflow.Events))
		assert.Equal(t, friday.Overflow.Events, EventsOnDay(layout.Cells, 5))

		thursday := layout.Days[3]
		assert.Empty(t, thursday.Cells)
		assert.Equal(t, 0, thursday.Overflow.Amount)
	})

	t.Run("should count spanning events in every day they cover", func(t *testing.T) {
		// given
		events := []event.Event{
			fullDay("Trip", event.Green, date(time.November, 4), date(time.November, 5)),
			timed("Call", event.Blue, at(5, 9, 0), at(5, 10, 0)),
			timed("Lunch", event.Red, at(5, 12, 0), at(5, 13, 0)),
		}

		// when
		layout := Week(week, events, nil, 2)

		// then
		assert.Equal(t, 0, layout.Days[0].Overflow.Amount)
		assert.Equal(t, 1, layout.Days[1].Overflow.Amount)
		assert.Equal(t, []string{"Trip", "Call"}, titles(layout.Days[1].Cells))
		assert.Len(t, layout.Days[1].Overflow.Events, 3)
	})

	t.Run("should report everything as overflow without capacity", func(t *testing.T) {
		// given
		events := []event.Event{timed("A", event.Pink, at(4, 8, 0), at(4, 9, 0))}

		// when
		layout := Week(week, events, nil, -1)

		// then
		assert.Empty(t, layout.Days[0].Cells)
		assert.Equal(t, 1, layout.Days[0].Overflow.Amount)
	})
}

func TestWeek_Draft(t *testing.T) {
	// given
	events := []event.Event{timed("Stored", event.Blue, at(4, 10, 0), at(4, 11, 0))}
	draft := timed("Draft", event.Pink, at(4, 9, 0), at(4, 10, 0))

	// when
	layout := Week(week, events, &draft, 3)

	// then
	require.Equal(t, []string{"Draft", "Stored"}, titles(layout.Days[0].Cells))
	assert.True(t, layout.Days[0].Cells[0].Draft)
	assert.False(t, layout.Days[0].Cells[1].Draft)
}

func TestWeek_Degenerate(t *testing.T) {
	t.Run("should return an empty layout for an empty week", func(t *testing.T) {
		layout := Week(nil, []event.Event{timed("A", event.Pink, at(4, 8, 0), at(4, 9, 0))}, nil, 3)

		assert.Empty(t, layout.Cells)
		assert.Empty(t, layout.Days)
	})

	t.Run("should return empty days without events", func(t *testing.T) {
		layout := Week(week, nil, nil, 3)

		require.Len(t, layout.Days, 7)
		assert.NotNil(t, layout.Cells)
		for i, d := range layout.Days {
			assert.Equal(t, i+1, d.Column)
			assert.Equal(t, week[i], d.Date)
			assert.NotNil(t, d.Cells)
			assert.Equal(t, 0, d.Overflow.Amount)
		}
		assert.Equal(t, WeekNumber{Year: 2024, Week: 45}, layout.WeekNumber)
	})
}

func TestMonth(t *testing.T) {
	// given
	events := []event.Event{fullDay("Month end", event.Indigo, date(time.November, 29), date(time.December, 2))}

	// when
	layouts := Month(date(time.November, 15), time.Monday, events, nil, 3)

	// then
	require.Len(t, layouts, 5)
	assert.Equal(t, date(time.October, 28), layouts[0].Days[0].Date)
	assert.Equal(t, date(time.December, 1), layouts[4].Days[6].Date)
	last := layouts[4]
	require.Len(t, last.Cells, 1)
	assert.Equal(t, 5, last.Cells[0].ColStart)
	assert.Equal(t, 7, last.Cells[0].ColEnd)
}

func TestWeek_Location(t *testing.T) {
	prague, err := time.LoadLocation("Europe/Prague")
	require.NoError(t, err)
	event.SetLocation(prague)
	t.Cleanup(func() { event.SetLocation(nil) })

	stored := `[
		{"id":"0b6f3f0e-8f5a-4d7e-9a43-7d0f3c1b2a01","kind":"FULL_DAY_EVENT","title":"Trip","description":"","color":"green",
		 "from":"2024-11-03T23:00:00.000Z","to":"2024-11-04T23:00:00.000Z"},
		{"id":"0b6f3f0e-8f5a-4d7e-9a43-7d0f3c1b2a02","kind":"DAY_EVENT","title":"Standup","description":"","color":"blue",
		 "date":"2024-11-03T23:00:00.000Z","startTime":"2024-11-04T09:00:00.000Z","endTime":"2024-11-04T09:15:00.000Z"},
		{"id":"0b6f3f0e-8f5a-4d7e-9a43-7d0f3c1b2a03","kind":"DAY_EVENT","title":"Late call","description":"","color":"red",
		 "date":"2024-11-09T23:00:00.000Z","startTime":"2024-11-10T22:00:00.000Z","endTime":"2024-11-10T22:30:00.000Z"},
		{"id":"0b6f3f0e-8f5a-4d7e-9a43-7d0f3c1b2a04","kind":"FULL_DAY_EVENT","title":"Switch weekend","description":"","color":"pink",
		 "from":"2024-10-25T22:00:00.000Z","to":"2024-10-26T22:00:00.000Z"},
		{"id":"0b6f3f0e-8f5a-4d7e-9a43-7d0f3c1b2a05","kind":"DAY_EVENT","title":"After the switch","description":"","color":"indigo",
		 "date":"2024-10-27T23:00:00.000Z","startTime":"2024-10-28T08:00:00.000Z","endTime":"2024-10-28T08:30:00.000Z"}
	]`
	events, err := event.DecodeEvents(stored)
	require.NoError(t, err)

	tests := []struct {
		name    string
		start   time.Time
		columns map[string][2]int
	}{
		{
			name:  "browser timestamps of the visible week",
			start: time.Date(2024, time.November, 4, 0, 0, 0, 0, prague),
			columns: map[string][2]int{
				"Trip":      {1, 2},
				"Standup":   {1, 1},
				"Late call": {7, 7},
			},
		},
		{
			name:  "week ending with the end of summer time",
			start: time.Date(2024, time.October, 21, 0, 0, 0, 0, prague),
			columns: map[string][2]int{
				"Switch weekend": {6, 7},
			},
		},
		{
			name:  "week after the end of summer time",
			start: time.Date(2024, time.October, 28, 0, 0, 0, 0, prague),
			columns: map[string][2]int{
				"After the switch": {1, 1},
			},
		},
		{
			name:    "week before every event",
			start:   time.Date(2024, time.October, 14, 0, 0, 0, 0, prague),
			columns: map[string][2]int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// when
			layout := Week(DaysOfWeek(tt.start), events, nil, 3)

			// then
			columns := map[string][2]int{}
			for _, c := range layout.Cells {
				columns[c.Event.Title] = [2]int{c.ColStart, c.ColEnd}
			}
			assert.Equal(t, tt.columns, columns)
		})
	}

	t.Run("should place utc events in a local week", func(t *testing.T) {
		// given
		start := time.Date(2024, time.November, 4, 0, 0, 0, 0, prague)
		utcMorning := timed("Early", event.Pink, time.Date(2024, time.November, 4, 23, 30, 0, 0, time.UTC), time.Date(2024, time.November, 4, 23, 45, 0, 0, time.UTC))

		// when
		layout := Week(DaysOfWeek(start), []event.Event{utcMorning}, nil, 3)

		// then
		require.Len(t, layout.Cells, 1)
		assert.Equal(t, 2, layout.Cells[0].ColStart)
	})
}

func TestWeek_ClippedDayCells(t *testing.T) {
	// given
	events := []event.Event{
		fullDay("Mon-Tue", event.Pink, date(time.November, 4), date(time.November, 5)),
		fullDay("Tue-Thu", event.Blue, date(time.November, 5), date(time.November, 7)),
	}

	// when
	layout := Week(week, events, nil, 1)

	// then
	tuesday := layout.Days[1]
	assert.Equal(t, []string{"Mon-Tue"}, titles(tuesday.Cells))
	assert.Equal(t, 1, tuesday.Overflow.Amount)

	for _, d := range layout.Days[2:4] {
		require.Equal(t, []string{"Tue-Thu"}, titles(d.Cells))
		assert.Equal(t, 3, d.Cells[0].ColStart)
		assert.Equal(t, 4, d.Cells[0].ColEnd)
	}
	assert.Equal(t, 2, tuesday.Overflow.Events[1].ColStart)
	assert.Equal(t, 2, layout.Cells[1].ColStart)
	assert.Equal(t, 4, layout.Cells[1].ColEnd)
}
