package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/trevyn/lumabot/internal/domain"
	"github.com/trevyn/lumabot/internal/luma"
	"github.com/trevyn/lumabot/internal/repository"
	"github.com/trevyn/lumabot/internal/retention"
)

// DefaultSubmitHorizon bounds how far ahead the dispatcher looks when
// submitting enriched events.
const DefaultSubmitHorizon = 30 * 24 * time.Hour

// EnrichResult aggregates one enrichment pass.
type EnrichResult struct {
	Enriched int // lookups that succeeded and were persisted
	Failed   int // lookups or persists that failed
	NoSlug   int // events skipped because no slug could be derived
	Existing int // events skipped because they already carry an api_id
}

// SubmitResult aggregates one submission pass.
type SubmitResult struct {
	Submitted int
	Failed    int
}

// SyncResult aggregates a full sync run.
type SyncResult struct {
	Fetched   int
	Persisted int
	Enrich    EnrichResult
	Submit    SubmitResult
	Skipped   bool // submission stage skipped on request
}

// SyncService orchestrates the pipeline: fetch, normalize, filter, persist,
// enrich, submit. Every stage runs sequentially; remote calls are paced
// through the injected limiters.
type SyncService struct {
	fetcher       FeedFetcher
	parser        FeedParser
	repo          repository.EventRepository
	api           LumaAPI
	retention     *retention.Filter
	lookupLimiter Limiter
	submitLimiter Limiter
	now           func() time.Time
	log           *zap.Logger
}

// NewSyncService creates the pipeline service.
func NewSyncService(
	fetcher FeedFetcher,
	parser FeedParser,
	repo repository.EventRepository,
	api LumaAPI,
	filter *retention.Filter,
	lookupLimiter Limiter,
	submitLimiter Limiter,
	log *zap.Logger,
) *SyncService {
	return &SyncService{
		fetcher:       fetcher,
		parser:        parser,
		repo:          repo,
		api:           api,
		retention:     filter,
		lookupLimiter: lookupLimiter,
		submitLimiter: submitLimiter,
		now:           time.Now,
		log:           log,
	}
}

// WithClock overrides the time source, for tests.
func (s *SyncService) WithClock(now func() time.Time) *SyncService {
	s.now = now
	return s
}

// FetchEvents fetches and parses the feed, returning events sorted by start.
// Parse and time-conversion failures abort the run; a malformed feed cannot
// be meaningfully partially processed.
func (s *SyncService) FetchEvents(ctx context.Context, url string) ([]*domain.Event, error) {
	body, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return s.parser.Parse(body)
}

// StoreEvents drops stale events, cleans or defaults every URL, and upserts
// the rest. Returns the number of applied rows.
func (s *SyncService) StoreEvents(ctx context.Context, events []*domain.Event) (int, error) {
	live := s.retention.Apply(events)
	for _, ev := range live {
		if ev.URL == "" {
			ev.URL = ev.DefaultURL()
		} else {
			ev.URL = domain.CleanString(ev.URL)
		}
	}

	saved, err := s.repo.SaveEvents(ctx, live)
	if err != nil {
		return 0, fmt.Errorf("failed to store events: %w", err)
	}

	s.log.Info("Stored events",
		zap.Int("fetched", len(events)),
		zap.Int("live", len(live)),
		zap.Int("saved", saved))

	return saved, nil
}

// EnrichEvents fills api_id for every event that lacks one, strictly one
// lookup at a time. Each successful enrichment is persisted immediately so
// partial progress survives a mid-batch failure. Per-event failures are
// counted, never raised. A limit > 0 caps how many events are considered.
func (s *SyncService) EnrichEvents(ctx context.Context, events []*domain.Event, limit int) (EnrichResult, error) {
	var res EnrichResult

	if !s.api.HasAPIKey() {
		return res, fmt.Errorf("cannot enrich events: %w", luma.ErrNoAPIKey)
	}

	if limit > 0 && limit < len(events) {
		events = events[:limit]
	}

	for _, ev := range events {
		if ev.APIID != "" {
			res.Existing++
			continue
		}

		slug, ok := ev.ExtractSlug()
		if !ok {
			s.log.Info("No slug available for event", zap.String("summary", ev.Summary))
			res.NoSlug++
			continue
		}

		apiID, err := s.api.LookupEventID(ctx, slug)
		if waitErr := s.lookupLimiter.Wait(ctx); waitErr != nil {
			return res, waitErr
		}
		if err != nil {
			s.log.Warn("Lookup failed",
				zap.String("slug", slug),
				zap.Error(err))
			res.Failed++
			continue
		}

		ev.APIID = apiID
		if err := s.repo.SaveEvent(ctx, ev); err != nil {
			s.log.Warn("Failed to persist enriched event",
				zap.String("event_uid", ev.EventUID),
				zap.Error(err))
			res.Failed++
			continue
		}

		s.log.Info("Enriched event",
			zap.String("summary", ev.Summary),
			zap.String("api_id", apiID))
		res.Enriched++
	}

	return res, nil
}

// EnrichBySlug looks up one slug and attaches the result to the first stored
// event whose URL contains it. Returns false when no event matches.
//
// Substring containment is looser than exact slug comparison and could match
// the wrong event when one slug is a prefix of another; kept for parity with
// the platform's observed URL shapes.
func (s *SyncService) EnrichBySlug(ctx context.Context, events []*domain.Event, slug string) (bool, error) {
	if !s.api.HasAPIKey() {
		return false, fmt.Errorf("cannot enrich events: %w", luma.ErrNoAPIKey)
	}

	apiID, err := s.api.LookupEventID(ctx, slug)
	if err != nil {
		return false, err
	}

	for _, ev := range events {
		if ev.URL == "" || !strings.Contains(ev.URL, slug) {
			continue
		}
		ev.APIID = apiID
		if err := s.repo.SaveEvent(ctx, ev); err != nil {
			return false, fmt.Errorf("failed to persist enriched event: %w", err)
		}
		return true, nil
	}

	return false, nil
}

// SubmitEvents submits every enriched event whose start falls inside the
// forward horizon, one at a time with a fixed delay between calls. The
// remote call carries no idempotency guard; repeated submission of the same
// api_id may duplicate remote state.
func (s *SyncService) SubmitEvents(ctx context.Context, events []*domain.Event, horizon time.Duration) (SubmitResult, error) {
	var res SubmitResult

	if !s.api.HasAPIKey() {
		return res, fmt.Errorf("cannot submit events: %w", luma.ErrNoAPIKey)
	}
	if horizon <= 0 {
		horizon = DefaultSubmitHorizon
	}

	now := s.now()
	cutoff := now.Add(horizon)

	for _, ev := range events {
		if ev.APIID == "" {
			continue
		}
		if !ev.Start.After(now) || !ev.Start.Before(cutoff) {
			continue
		}

		calID, err := s.api.AddEvent(ctx, ev.APIID)
		if waitErr := s.submitLimiter.Wait(ctx); waitErr != nil {
			return res, waitErr
		}
		if err != nil {
			s.log.Warn("Submission failed",
				zap.String("summary", ev.Summary),
				zap.String("api_id", ev.APIID),
				zap.Error(err))
			res.Failed++
			continue
		}

		s.log.Info("Submitted event",
			zap.String("summary", ev.Summary),
			zap.String("api_id", ev.APIID),
			zap.String("calendar_event_id", calID))
		res.Submitted++
	}

	return res, nil
}

// FullSync runs the whole pipeline: fetch, normalize, persist, re-read the
// retained set, enrich rows still lacking api_id, then submit enriched
// events inside the horizon unless submission is skipped.
func (s *SyncService) FullSync(ctx context.Context, url string, horizon time.Duration, skipSubmit bool) (SyncResult, error) {
	var res SyncResult

	events, err := s.FetchEvents(ctx, url)
	if err != nil {
		return res, err
	}
	res.Fetched = len(events)

	res.Persisted, err = s.StoreEvents(ctx, events)
	if err != nil {
		return res, err
	}

	stored, err := s.repo.GetLiveEvents(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to read stored events: %w", err)
	}

	res.Enrich, err = s.EnrichEvents(ctx, stored, 0)
	if err != nil {
		return res, err
	}

	if skipSubmit {
		res.Skipped = true
		return res, nil
	}

	res.Submit, err = s.SubmitEvents(ctx, stored, horizon)
	return res, err
}
