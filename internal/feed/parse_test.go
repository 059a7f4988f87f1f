package feed

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func icsLines(lines ...string) []byte {
	return []byte(strings.Join(lines, "\r\n") + "\r\n")
}

func sampleFeed() []byte {
	return icsLines(
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//luma//EN",
		"BEGIN:VEVENT",
		"UID:1@lu.ma",
		"SUMMARY:Community Call",
		"DTSTART:20240116T090000Z",
		"DTEND:20240116T100000Z",
		"URL:https://lu.ma/e/bbb222",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:2@lu.ma",
		"DESCRIPTION:Join us at https://lu.ma/e/aaa111 Address: 42 Main St",
		"LOCATION:Berlin",
		"DTSTART:20240115",
		"DTEND:20240115",
		"END:VEVENT",
		"END:VCALENDAR",
	)
}

func TestParse_NormalizesAndSorts(t *testing.T) {
	p := NewParser(zap.NewNop())

	events, err := p.Parse(sampleFeed())
	require.NoError(t, err)
	require.Len(t, events, 2)

	// Sorted ascending by start: the date-only event comes first.
	first, second := events[0], events[1]

	assert.Equal(t, UntitledSummary, first.Summary, "missing SUMMARY falls back to the placeholder")
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), first.Start, "date-only literal defaults to midnight")
	assert.Equal(t, "Berlin", first.Location)
	assert.Equal(t, "https://lu.ma/e/aaa111", first.URL, "URL recovered from description, truncated at the address marker")

	assert.Equal(t, "Community Call", second.Summary)
	assert.Equal(t, time.Date(2024, 1, 16, 9, 0, 0, 0, time.UTC), second.Start)
	assert.Equal(t, "https://lu.ma/e/bbb222", second.URL)
}

func TestParse_Deterministic(t *testing.T) {
	p := NewParser(zap.NewNop())

	a, err := p.Parse(sampleFeed())
	require.NoError(t, err)
	b, err := p.Parse(sampleFeed())
	require.NoError(t, err)

	require.Len(t, b, len(a))
	for i := range a {
		assert.Equal(t, a[i].EventUID, b[i].EventUID, "re-parsing identical content must reproduce event UIDs")
	}
}

func TestParse_MultipleCalendarBlocks(t *testing.T) {
	block2 := icsLines(
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"BEGIN:VEVENT",
		"UID:3@lu.ma",
		"SUMMARY:Second Block",
		"DTSTART:20240117T090000Z",
		"DTEND:20240117T100000Z",
		"END:VEVENT",
		"END:VCALENDAR",
	)

	p := NewParser(zap.NewNop())
	events, err := p.Parse(append(sampleFeed(), block2...))
	require.NoError(t, err)

	assert.Len(t, events, 3)
	assert.Equal(t, "Second Block", events[2].Summary)
}

func TestParse_MissingDTENDFailsIngestion(t *testing.T) {
	body := icsLines(
		"BEGIN:VCALENDAR",
		"BEGIN:VEVENT",
		"UID:1@lu.ma",
		"SUMMARY:No End",
		"DTSTART:20240116T090000Z",
		"END:VEVENT",
		"END:VCALENDAR",
	)

	p := NewParser(zap.NewNop())
	_, err := p.Parse(body)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DTEND")
}

func TestParse_NoCalendarBlock(t *testing.T) {
	p := NewParser(zap.NewNop())
	_, err := p.Parse([]byte("hello world"))
	assert.Error(t, err)
}

func TestParseDateTime(t *testing.T) {
	t.Run("compact form", func(t *testing.T) {
		ts, err := parseDateTime("DTSTART", "20240115T120000Z")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC), ts)
	})

	t.Run("date-only form", func(t *testing.T) {
		ts, err := parseDateTime("DTSTART", "20240115")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), ts)
	})

	t.Run("rejects wrong length", func(t *testing.T) {
		_, err := parseDateTime("DTEND", "2024011512")
		var convErr *ConversionError
		require.ErrorAs(t, err, &convErr)
		assert.Equal(t, "DTEND", convErr.Field)
	})

	t.Run("rejects non-numeric components", func(t *testing.T) {
		_, err := parseDateTime("DTSTART", "20240115TAB0000Z")
		var convErr *ConversionError
		require.ErrorAs(t, err, &convErr)
		assert.Contains(t, convErr.Error(), "hour")
	})

	t.Run("rejects impossible dates", func(t *testing.T) {
		_, err := parseDateTime("DTSTART", "20241301T000000Z")
		var convErr *ConversionError
		require.ErrorAs(t, err, &convErr)
	})
}

func TestURLFromDescription(t *testing.T) {
	assert.Equal(t, "https://lu.ma/e/abc", urlFromDescription("details https://lu.ma/e/abc and more"))
	assert.Equal(t, "http://lu.ma/x", urlFromDescription("http://lu.ma/x"))
	assert.Equal(t, "", urlFromDescription("no link here"))
	assert.Equal(t, "https://lu.ma/e/abc", urlFromDescription(`see https://lu.ma/e/abc\nAddress: 42 Main St`))
}

func TestSplitCalendarBlocks(t *testing.T) {
	single := "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"
	assert.Len(t, splitCalendarBlocks(single), 1)
	assert.Len(t, splitCalendarBlocks(single+single), 2)
	assert.Empty(t, splitCalendarBlocks("not a calendar"))
}
