package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/uptrace/bun"
)

// LumaDomain is the host fragment identifying event URLs on the source platform.
const LumaDomain = "lu.ma"

// addressMarker is appended by the platform after the event link inside
// DESCRIPTION bodies; everything from the marker on is a physical address.
const addressMarker = "address:"

// Event is the canonical event record, both as produced by the feed parser
// and as stored in the events table.
type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID          int64     `bun:"id,pk,autoincrement"`
	Summary     string    `bun:"summary,notnull"`
	Description string    `bun:"description,nullzero"`
	Location    string    `bun:"location,nullzero"`
	Start       time.Time `bun:"start_time,notnull"`
	End         time.Time `bun:"end_time,notnull"`
	URL         string    `bun:"url,nullzero"`
	EventUID    string    `bun:"event_uid,notnull,unique"`
	APIID       string    `bun:"api_id,nullzero"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// NewEvent creates an event from freshly parsed feed content and assigns its
// canonical identity.
//
// The identity is a pure function of the content fields: the whitespace
// normalized summary, the epoch second of the start instant, and the
// description and location when present, digested in that order. Changing
// this field set changes every future identifier, so it is a deliberate,
// versioned contract.
func NewEvent(summary, description, location string, start, end time.Time, url string) *Event {
	start = start.UTC()
	end = end.UTC()

	d := xxhash.New()
	_, _ = d.WriteString(normalizeWhitespace(summary))
	_, _ = d.WriteString("\x1f")
	_, _ = d.WriteString(strconv.FormatInt(start.Unix(), 10))
	if description != "" {
		_, _ = d.WriteString("\x1f")
		_, _ = d.WriteString(description)
	}
	if location != "" {
		_, _ = d.WriteString("\x1f")
		_, _ = d.WriteString(location)
	}

	uid := fmt.Sprintf("%s-%d-%x", strings.ReplaceAll(summary, " ", "_"), start.Unix(), d.Sum64())

	return &Event{
		Summary:     summary,
		Description: description,
		Location:    location,
		Start:       start,
		End:         end,
		URL:         CleanString(url),
		EventUID:    uid,
	}
}

// Restore rebuilds an event from a storage row. The stored identity is kept
// as-is; rows are never re-hashed.
func Restore(summary, description, location string, start, end time.Time, url, eventUID, apiID string) *Event {
	return &Event{
		Summary:     summary,
		Description: description,
		Location:    location,
		Start:       start.UTC(),
		End:         end.UTC(),
		URL:         CleanString(url),
		EventUID:    eventUID,
		APIID:       apiID,
	}
}

// Equal reports whether two events describe the same occurrence. This is a
// narrower notion than identity: only summary, start and end participate.
func (e *Event) Equal(other *Event) bool {
	return e.Summary == other.Summary && e.Start.Equal(other.Start) && e.End.Equal(other.End)
}

// Before orders events by start instant only.
func (e *Event) Before(other *Event) bool {
	return e.Start.Before(other.Start)
}

// ExtractSlug derives the platform slug from the event URL. The URL must
// belong to the source domain; URLs with an /e/ path marker yield the segment
// following the marker, otherwise the final path segment is used. The second
// return value is false when no slug is available.
func (e *Event) ExtractSlug() (string, bool) {
	u := CleanString(e.URL)
	if u == "" || !strings.Contains(u, LumaDomain) {
		return "", false
	}

	if idx := strings.LastIndex(u, "/e/"); idx >= 0 {
		if slug := u[idx+len("/e/"):]; slug != "" {
			return slug, true
		}
		return "", false
	}

	parts := strings.Split(u, "/")
	if slug := parts[len(parts)-1]; slug != "" {
		return slug, true
	}
	return "", false
}

// DefaultURL is the canonical URL pattern used when the feed carried none.
func (e *Event) DefaultURL() string {
	return fmt.Sprintf("https://%s/e/%s", LumaDomain, e.EventUID)
}

// Duration returns the length of the event.
func (e *Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// CleanString is the single sanitizer applied wherever untrusted text enters
// the system: at parse time and defensively on storage reads.
//
// It truncates at a literal "address:" marker (the platform appends a
// physical address after the event link), removes escaped and literal
// newline, carriage return and tab characters, and trims surrounding
// whitespace. Applying it twice yields the same result as applying it once.
func CleanString(s string) string {
	if s == "" {
		return ""
	}

	if idx := strings.Index(strings.ToLower(s), addressMarker); idx >= 0 {
		s = s[:idx]
	}

	replacer := strings.NewReplacer(
		`\n`, "",
		`\r`, "",
		"\n", "",
		"\r", "",
		"\t", "",
	)
	return strings.TrimSpace(replacer.Replace(s))
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
