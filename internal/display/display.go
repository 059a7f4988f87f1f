// Package display renders event listings to the terminal.
package display

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/trevyn/lumabot/internal/domain"
)

const rulerWidth = 80

var (
	heading  = color.New(color.FgHiBlue, color.Bold)
	ruler    = color.New(color.FgHiBlue)
	dayHead  = color.New(color.FgHiGreen, color.Bold)
	dayRuler = color.New(color.FgHiGreen)
	dateCol  = color.New(color.FgHiYellow)
	timeCol  = color.New(color.FgHiCyan)
	titleCol = color.New(color.FgWhite, color.Bold)
	label    = color.New(color.FgBlue)
	notice   = color.New(color.FgYellow)
)

// Printer writes formatted event listings. Times are rendered in the
// printer's location.
type Printer struct {
	out io.Writer
	loc *time.Location
	now func() time.Time
}

// NewPrinter creates a printer writing to out in the local time zone.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out, loc: time.Local, now: time.Now}
}

// WithLocation overrides the display time zone.
func (p *Printer) WithLocation(loc *time.Location) *Printer {
	p.loc = loc
	return p
}

// WithClock overrides the time source, for tests.
func (p *Printer) WithClock(now func() time.Time) *Printer {
	p.now = now
	return p
}

// Events prints up to limit events under a generic header. A limit of 0
// prints everything.
func (p *Printer) Events(events []*domain.Event, limit int, verbose bool) {
	heading.Fprintln(p.out, "Upcoming Events")
	ruler.Fprintln(p.out, strings.Repeat("═", rulerWidth))

	shown := events
	if limit > 0 && limit < len(events) {
		shown = events[:limit]
	}
	p.list(shown, verbose)

	if limit > 0 && limit < len(events) {
		notice.Fprintf(p.out, "\nShowing %d/%d events. Use --limit to see more.\n", limit, len(events))
	}
}

// Today prints the events starting on the current local day.
func (p *Printer) Today(events []*domain.Event, verbose bool) {
	today := p.localDate(p.now())

	var todays []*domain.Event
	for _, ev := range events {
		if p.localDate(ev.Start) == today {
			todays = append(todays, ev)
		}
	}

	heading.Fprintf(p.out, "Events for Today (%s)\n", today.Format("Monday, January 02, 2006"))
	ruler.Fprintln(p.out, strings.Repeat("═", rulerWidth))

	if len(todays) == 0 {
		notice.Fprintln(p.out, "No events scheduled for today.")
		return
	}
	p.list(todays, verbose)
}

// Week prints the current Monday-to-Sunday week, grouped by day.
func (p *Printer) Week(events []*domain.Event, verbose bool) {
	today := p.localDate(p.now())
	monday := today.AddDate(0, 0, -daysSinceMonday(today))
	sunday := monday.AddDate(0, 0, 6)

	byDay := map[time.Time][]*domain.Event{}
	for _, ev := range events {
		d := p.localDate(ev.Start)
		if d.Before(monday) || d.After(sunday) {
			continue
		}
		byDay[d] = append(byDay[d], ev)
	}

	heading.Fprintf(p.out, "Events for This Week (%s - %s)\n",
		monday.Format("Jan 02"), sunday.Format("Jan 02, 2006"))
	ruler.Fprintln(p.out, strings.Repeat("═", rulerWidth))

	if len(byDay) == 0 {
		notice.Fprintln(p.out, "No events scheduled for this week.")
		return
	}

	days := make([]time.Time, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	for _, d := range days {
		header := d.Format("Monday, January 02")
		if d.Equal(today) {
			header += " (Today)"
		}
		fmt.Fprintln(p.out)
		dayHead.Fprintln(p.out, header)
		dayRuler.Fprintln(p.out, strings.Repeat("-", len(header)))
		p.list(byDay[d], verbose)
	}
}

// Upcoming prints events starting within the next N days, capped at limit.
func (p *Printer) Upcoming(events []*domain.Event, days, limit int, verbose bool) {
	now := p.now()
	end := now.AddDate(0, 0, days)

	var inRange []*domain.Event
	for _, ev := range events {
		if !ev.Start.Before(now) && !ev.Start.After(end) {
			inRange = append(inRange, ev)
		}
	}

	shown := inRange
	if limit > 0 && limit < len(inRange) {
		shown = inRange[:limit]
	}

	heading.Fprintf(p.out, "Upcoming Events (Next %d Days)\n", days)
	ruler.Fprintln(p.out, strings.Repeat("═", rulerWidth))

	if len(shown) == 0 {
		notice.Fprintln(p.out, "No upcoming events found in the specified time period.")
		return
	}

	p.list(shown, verbose)

	if limit > 0 && limit < len(inRange) {
		notice.Fprintf(p.out, "\nShowing %d/%d events in the next %d days. Use --limit to see more.\n",
			len(shown), len(inRange), days)
	}
}

func (p *Printer) list(events []*domain.Event, verbose bool) {
	if len(events) == 0 {
		notice.Fprintln(p.out, "No events to display.")
		return
	}

	for _, ev := range events {
		start := ev.Start.In(p.loc)
		end := ev.End.In(p.loc)

		fmt.Fprintf(p.out, "%s | %s | %s\n",
			dateCol.Sprint(start.Format("Mon, Jan 02")),
			timeCol.Sprintf("%s - %s", start.Format("03:04 PM"), end.Format("03:04 PM")),
			titleCol.Sprint(ev.Summary))

		if !verbose {
			continue
		}

		if ev.Location != "" {
			fmt.Fprintf(p.out, "  %s: %s\n", label.Sprint("Location"), ev.Location)
		}
		if ev.URL != "" {
			fmt.Fprintf(p.out, "  %s: %s\n", label.Sprint("URL"), domain.CleanString(ev.URL))
		}
		if desc := strings.TrimSpace(ev.Description); desc != "" {
			fmt.Fprintf(p.out, "  %s: %s\n", label.Sprint("Description"), desc)
		}
		fmt.Fprintf(p.out, "  %s: %d minutes\n\n", label.Sprint("Duration"), int(ev.Duration().Minutes()))
	}
}

// localDate truncates t to midnight in the printer's location.
func (p *Printer) localDate(t time.Time) time.Time {
	lt := t.In(p.loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, p.loc)
}

func daysSinceMonday(d time.Time) int {
	// time.Weekday counts Sunday as 0.
	wd := int(d.Weekday())
	if wd == 0 {
		return 6
	}
	return wd - 1
}
