// Package cli wires the command surface on top of the sync pipeline.
package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/trevyn/lumabot/internal/config"
	"github.com/trevyn/lumabot/internal/display"
	"github.com/trevyn/lumabot/internal/domain"
	"github.com/trevyn/lumabot/internal/feed"
	"github.com/trevyn/lumabot/internal/luma"
	"github.com/trevyn/lumabot/internal/repository/postgres"
	"github.com/trevyn/lumabot/internal/retention"
	"github.com/trevyn/lumabot/internal/service"
)

var (
	statusColor  = color.New(color.FgBlue)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
)

// RootOptions holds the flags shared by the default listing command.
type RootOptions struct {
	URL     string
	Limit   int
	Verbose bool
	Store   bool
	Enrich  bool
}

// App bundles the dependencies every command needs.
type App struct {
	cfg *config.Config
	log *zap.Logger
	out io.Writer
}

// NewRootCommand creates the lumabot root command and all subcommands.
func NewRootCommand(cfg *config.Config, log *zap.Logger, out io.Writer) *cobra.Command {
	app := &App{cfg: cfg, log: log, out: out}
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "lumabot",
		Short:         "Fetch, store, enrich and submit Luma calendar events",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runDefault(cmd.Context(), opts)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.URL, "url", "u", cfg.CalendarURL, "calendar feed URL")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "l", 10, "limit the number of events displayed")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "show detailed event information")
	cmd.Flags().BoolVarP(&opts.Store, "store", "s", false, "store fetched events in the database")
	cmd.Flags().BoolVarP(&opts.Enrich, "enrich", "e", false, "look up api_ids while storing")

	cmd.AddCommand(NewTodayCommand(app, opts))
	cmd.AddCommand(NewWeekCommand(app, opts))
	cmd.AddCommand(NewNextCommand(app, opts))
	cmd.AddCommand(NewDBCommand(app))
	cmd.AddCommand(NewClearCommand(app))
	cmd.AddCommand(NewAPICommand(app))
	cmd.AddCommand(NewLookupCommand(app))
	cmd.AddCommand(NewAddCommand(app))
	cmd.AddCommand(NewSyncCommand(app, opts))

	return cmd
}

func (a *App) runDefault(ctx context.Context, opts *RootOptions) error {
	events, err := a.fetchEvents(ctx, opts.URL)
	if err != nil {
		return err
	}

	if opts.Store {
		if err := a.storeAndMaybeEnrich(ctx, events, opts.Enrich); err != nil {
			return err
		}
	}

	a.printer().Events(events, opts.Limit, opts.Verbose)
	return nil
}

func (a *App) storeAndMaybeEnrich(ctx context.Context, events []*domain.Event, enrich bool) error {
	repo, closeRepo, err := a.openRepository(ctx)
	if err != nil {
		return err
	}
	defer closeRepo()

	svc := a.syncService(repo)

	statusColor.Fprintln(a.out, "Storing events in database...")
	saved, err := svc.StoreEvents(ctx, events)
	if err != nil {
		return err
	}
	successColor.Fprintf(a.out, "Stored %d new or updated events\n", saved)

	if !enrich {
		return nil
	}

	statusColor.Fprintln(a.out, "Auto-enriching events with API IDs...")
	stored, err := repo.GetLiveEvents(ctx)
	if err != nil {
		return err
	}
	res, err := svc.EnrichEvents(ctx, stored, 0)
	if err != nil {
		return err
	}
	statusColor.Fprintf(a.out, "API enrichment complete. Success: %d, Errors: %d\n",
		res.Enriched, res.Failed)
	return nil
}

func (a *App) printer() *display.Printer {
	return display.NewPrinter(a.out)
}

func (a *App) fetchEvents(ctx context.Context, url string) ([]*domain.Event, error) {
	fetcher := feed.NewFetcher(nil, a.log)
	body, err := fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return feed.NewParser(a.log).Parse(body)
}

func (a *App) openRepository(ctx context.Context) (*postgres.Repository, func(), error) {
	client, err := postgres.NewClient(ctx, &a.cfg.Postgres, a.log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	repo := postgres.NewRepository(client, retention.NewFilter(retention.DefaultWindow), a.log)
	if err := repo.InitSchema(ctx); err != nil {
		_ = client.Close()
		return nil, nil, err
	}

	return repo, func() { _ = client.Close() }, nil
}

func (a *App) lumaClient() *luma.Client {
	return luma.NewClient(&a.cfg.Luma, a.log)
}

func (a *App) syncService(repo *postgres.Repository) *service.SyncService {
	return service.NewSyncService(
		feed.NewFetcher(nil, a.log),
		feed.NewParser(a.log),
		repo,
		a.lumaClient(),
		retention.NewFilter(retention.DefaultWindow),
		service.NewIntervalLimiter(time.Duration(a.cfg.Luma.LookupDelayMs)*time.Millisecond),
		service.NewIntervalLimiter(time.Duration(a.cfg.Luma.SubmitDelayMs)*time.Millisecond),
		a.log,
	)
}
