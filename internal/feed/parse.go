package feed

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"go.uber.org/zap"

	"github.com/trevyn/lumabot/internal/domain"
)

// UntitledSummary is stamped on events whose feed entry carries no SUMMARY.
const UntitledSummary = "Untitled Event"

const calendarBegin = "BEGIN:VCALENDAR"

// ConversionError reports a malformed date-time literal, naming the
// offending field.
type ConversionError struct {
	Field string
	Value string
	Cause string
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("failed to convert time for %s: %q: %s", e.Field, e.Value, e.Cause)
}

// Parser turns raw iCalendar feed text into canonical event records.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a feed parser.
func NewParser(log *zap.Logger) *Parser {
	return &Parser{log: log}
}

// Parse parses every VCALENDAR block embedded in the raw feed and returns
// the contained events sorted ascending by start. A structurally malformed
// block or a sub-event missing DTSTART/DTEND fails the whole ingestion;
// a partially parsed feed cannot be meaningfully synchronized.
func (p *Parser) Parse(raw []byte) ([]*domain.Event, error) {
	blocks := splitCalendarBlocks(string(raw))
	if len(blocks) == 0 {
		return nil, fmt.Errorf("failed to parse calendar: no VCALENDAR block found")
	}

	events := make([]*domain.Event, 0)
	for _, block := range blocks {
		cal, err := ical.ParseCalendar(strings.NewReader(block))
		if err != nil {
			return nil, fmt.Errorf("failed to parse calendar: %w", err)
		}

		for _, ve := range cal.Events() {
			ev, err := parseVEvent(ve)
			if err != nil {
				return nil, err
			}
			events = append(events, ev)
		}
	}

	sort.SliceStable(events, func(i, j int) bool { return events[i].Before(events[j]) })

	p.log.Debug("Parsed calendar feed",
		zap.Int("blocks", len(blocks)),
		zap.Int("events", len(events)))

	return events, nil
}

func parseVEvent(ve *ical.VEvent) (*domain.Event, error) {
	summary := propertyValue(ve, "SUMMARY")
	if summary == "" {
		summary = UntitledSummary
	}

	description := propertyValue(ve, "DESCRIPTION")
	location := propertyValue(ve, "LOCATION")

	startRaw := propertyValue(ve, "DTSTART")
	if startRaw == "" {
		return nil, fmt.Errorf("event %q missing DTSTART property", summary)
	}
	endRaw := propertyValue(ve, "DTEND")
	if endRaw == "" {
		return nil, fmt.Errorf("event %q missing DTEND property", summary)
	}

	start, err := parseDateTime("DTSTART", startRaw)
	if err != nil {
		return nil, err
	}
	end, err := parseDateTime("DTEND", endRaw)
	if err != nil {
		return nil, err
	}

	url := propertyValue(ve, "URL")
	if url == "" {
		url = urlFromDescription(description)
	}
	url = domain.CleanString(url)

	return domain.NewEvent(summary, description, location, start, end, url), nil
}

// propertyValue looks up a property by name, case-insensitively, so that
// feeds emitting "Url" or "url" still resolve.
func propertyValue(ve *ical.VEvent, name string) string {
	for _, prop := range ve.Properties {
		if strings.EqualFold(prop.IANAToken, name) {
			return prop.Value
		}
	}
	return ""
}

// urlFromDescription extracts the first http-prefixed run from the
// description, bounded by the next whitespace character.
func urlFromDescription(description string) string {
	idx := strings.Index(description, "http")
	if idx < 0 {
		return ""
	}

	rest := description[idx:]
	if end := strings.IndexFunc(rest, isLinkBoundary); end >= 0 {
		rest = rest[:end]
	}
	return rest
}

func isLinkBoundary(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\\':
		return true
	}
	return false
}

// parseDateTime parses the two accepted iCalendar time literal forms:
// the 14-character compact date-time (YYYYMMDDHHMMSS, any Z/T markers
// stripped first) and the 8-character date-only form (midnight UTC).
func parseDateTime(field, value string) (time.Time, error) {
	cleaned := strings.NewReplacer("Z", "", "T", "").Replace(value)

	if len(cleaned) != 14 && len(cleaned) != 8 {
		return time.Time{}, &ConversionError{Field: field, Value: value, Cause: "invalid datetime format"}
	}

	year, err := timeComponent(field, value, cleaned[0:4], "year")
	if err != nil {
		return time.Time{}, err
	}
	month, err := timeComponent(field, value, cleaned[4:6], "month")
	if err != nil {
		return time.Time{}, err
	}
	day, err := timeComponent(field, value, cleaned[6:8], "day")
	if err != nil {
		return time.Time{}, err
	}

	hour, minute, second := 0, 0, 0
	if len(cleaned) == 14 {
		if hour, err = timeComponent(field, value, cleaned[8:10], "hour"); err != nil {
			return time.Time{}, err
		}
		if minute, err = timeComponent(field, value, cleaned[10:12], "minute"); err != nil {
			return time.Time{}, err
		}
		if second, err = timeComponent(field, value, cleaned[12:14], "second"); err != nil {
			return time.Time{}, err
		}
	}

	ts := time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC)
	// time.Date normalizes out-of-range components; reject anything that moved.
	if ts.Year() != year || ts.Month() != time.Month(month) || ts.Day() != day ||
		ts.Hour() != hour || ts.Minute() != minute || ts.Second() != second {
		return time.Time{}, &ConversionError{Field: field, Value: value, Cause: "invalid date/time combination"}
	}

	return ts, nil
}

func timeComponent(field, value, digits, name string) (int, error) {
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, &ConversionError{Field: field, Value: value, Cause: "invalid " + name}
	}
	return n, nil
}

// splitCalendarBlocks splits a feed into its individual VCALENDAR blocks.
// Most feeds carry exactly one; some aggregators concatenate several.
func splitCalendarBlocks(raw string) []string {
	var blocks []string
	for {
		start := strings.Index(raw, calendarBegin)
		if start < 0 {
			break
		}
		next := strings.Index(raw[start+len(calendarBegin):], calendarBegin)
		if next < 0 {
			blocks = append(blocks, raw[start:])
			break
		}
		blocks = append(blocks, raw[start:start+len(calendarBegin)+next])
		raw = raw[start+len(calendarBegin)+next:]
	}
	return blocks
}
