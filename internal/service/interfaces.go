package service

import (
	"context"

	"github.com/trevyn/lumabot/internal/domain"
)

// FeedFetcher retrieves the raw calendar document.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// FeedParser turns raw feed text into canonical events.
type FeedParser interface {
	Parse(raw []byte) ([]*domain.Event, error)
}

// LumaAPI is the remote lookup and submission surface.
type LumaAPI interface {
	HasAPIKey() bool
	LookupEventID(ctx context.Context, slug string) (string, error)
	AddEvent(ctx context.Context, apiID string) (string, error)
}

// Limiter paces remote calls. The reconciler and dispatcher wait on it after
// every call regardless of outcome, so the call cadence stays flat and the
// pacing scheme can be swapped without touching business logic.
type Limiter interface {
	Wait(ctx context.Context) error
}
