package display

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/trevyn/lumabot/internal/domain"
)

var displayNow = time.Date(2024, 6, 5, 12, 0, 0, 0, time.UTC) // a Wednesday

func testPrinter(buf *bytes.Buffer) *Printer {
	color.NoColor = true
	return NewPrinter(buf).
		WithLocation(time.UTC).
		WithClock(func() time.Time { return displayNow })
}

func makeEvent(summary string, start time.Time) *domain.Event {
	return domain.NewEvent(summary, "a talk", "Room 1", start, start.Add(time.Hour), "https://lu.ma/e/abc")
}

func TestEvents_LimitAndNotice(t *testing.T) {
	var buf bytes.Buffer
	p := testPrinter(&buf)

	events := []*domain.Event{
		makeEvent("First", displayNow.Add(time.Hour)),
		makeEvent("Second", displayNow.Add(2*time.Hour)),
		makeEvent("Third", displayNow.Add(3*time.Hour)),
	}
	p.Events(events, 2, false)

	out := buf.String()
	assert.Contains(t, out, "First")
	assert.Contains(t, out, "Second")
	assert.NotContains(t, out, "Third")
	assert.Contains(t, out, "Showing 2/3 events")
}

func TestEvents_VerboseShowsDetails(t *testing.T) {
	var buf bytes.Buffer
	p := testPrinter(&buf)

	p.Events([]*domain.Event{makeEvent("Talk", displayNow.Add(time.Hour))}, 0, true)

	out := buf.String()
	assert.Contains(t, out, "Location: Room 1")
	assert.Contains(t, out, "URL: https://lu.ma/e/abc")
	assert.Contains(t, out, "Description: a talk")
	assert.Contains(t, out, "Duration: 60 minutes")
}

func TestToday_FiltersByLocalDate(t *testing.T) {
	var buf bytes.Buffer
	p := testPrinter(&buf)

	events := []*domain.Event{
		makeEvent("Today Event", displayNow.Add(3*time.Hour)),
		makeEvent("Tomorrow Event", displayNow.Add(24*time.Hour)),
	}
	p.Today(events, false)

	out := buf.String()
	assert.Contains(t, out, "Today Event")
	assert.NotContains(t, out, "Tomorrow Event")
}

func TestToday_Empty(t *testing.T) {
	var buf bytes.Buffer
	p := testPrinter(&buf)

	p.Today(nil, false)
	assert.Contains(t, buf.String(), "No events scheduled for today.")
}

func TestWeek_GroupsByDayMondayToSunday(t *testing.T) {
	var buf bytes.Buffer
	p := testPrinter(&buf)

	events := []*domain.Event{
		makeEvent("Monday Event", time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)),
		makeEvent("Sunday Event", time.Date(2024, 6, 9, 9, 0, 0, 0, time.UTC)),
		makeEvent("Next Week Event", time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)),
	}
	p.Week(events, false)

	out := buf.String()
	assert.Contains(t, out, "Monday Event")
	assert.Contains(t, out, "Sunday Event")
	assert.NotContains(t, out, "Next Week Event")
	assert.True(t, strings.Index(out, "Monday Event") < strings.Index(out, "Sunday Event"))
}

func TestUpcoming_WindowAndLimit(t *testing.T) {
	var buf bytes.Buffer
	p := testPrinter(&buf)

	events := []*domain.Event{
		makeEvent("Soon", displayNow.Add(24*time.Hour)),
		makeEvent("Later", displayNow.Add(3*24*time.Hour)),
		makeEvent("Too Far", displayNow.Add(20*24*time.Hour)),
	}
	p.Upcoming(events, 7, 1, false)

	out := buf.String()
	assert.Contains(t, out, "Soon")
	assert.NotContains(t, out, "Later")
	assert.NotContains(t, out, "Too Far")
	assert.Contains(t, out, "Showing 1/2 events in the next 7 days")
}
