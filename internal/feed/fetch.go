package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/trevyn/lumabot/internal/httputil"
)

const userAgent = "lumabot/1.0"

// DefaultTimeout bounds a single feed request. No retries.
const DefaultTimeout = 10 * time.Second

// Fetcher retrieves the raw iCalendar document from the configured URL.
type Fetcher struct {
	client *http.Client
	log    *zap.Logger
}

// NewFetcher creates a feed fetcher. A nil client gets the default one.
func NewFetcher(client *http.Client, log *zap.Logger) *Fetcher {
	if client == nil {
		client = httputil.NewClient(DefaultTimeout)
	}
	return &Fetcher{client: client, log: log}
}

// Fetch downloads the feed body. Any transport failure or non-2xx status is
// a fetch error; feed ingestion cannot proceed without a body.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build feed request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch calendar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to fetch calendar: HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read calendar body: %w", err)
	}

	f.log.Debug("Fetched calendar feed",
		zap.String("url", url),
		zap.Int("bytes", len(body)))

	return body, nil
}
