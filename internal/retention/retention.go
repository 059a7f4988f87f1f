package retention

import (
	"time"

	"github.com/trevyn/lumabot/internal/domain"
)

// DefaultWindow is how far past an event's end may lie before it drops out
// of every read path. Storage keeps older rows; they are just never surfaced.
const DefaultWindow = 48 * time.Hour

// Filter decides which events are still operationally relevant.
type Filter struct {
	window time.Duration
	now    func() time.Time
}

// NewFilter creates a filter with the given window. A zero window falls back
// to DefaultWindow.
func NewFilter(window time.Duration) *Filter {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Filter{window: window, now: time.Now}
}

// WithClock overrides the time source, for tests.
func (f *Filter) WithClock(now func() time.Time) *Filter {
	f.now = now
	return f
}

// Window returns the retention window.
func (f *Filter) Window() time.Duration {
	return f.window
}

// Cutoff returns the earliest end instant still considered live.
func (f *Filter) Cutoff() time.Time {
	return f.now().Add(-f.window).UTC()
}

// Retained reports whether the event is still inside the live window.
// The boundary is inclusive: an event ending exactly at the cutoff is kept.
func (f *Filter) Retained(ev *domain.Event) bool {
	return !ev.End.Before(f.Cutoff())
}

// Apply returns only the retained events, preserving input order.
func (f *Filter) Apply(events []*domain.Event) []*domain.Event {
	live := make([]*domain.Event, 0, len(events))
	for _, ev := range events {
		if f.Retained(ev) {
			live = append(live, ev)
		}
	}
	return live
}
