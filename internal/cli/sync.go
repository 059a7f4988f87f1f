package cli

import (
	"time"

	"github.com/spf13/cobra"
)

// NewSyncCommand creates the sync command, the full pipeline run: fetch,
// store, enrich, and submit upcoming events to the calendar.
func NewSyncCommand(app *App, rootOpts *RootOptions) *cobra.Command {
	var (
		days    int
		skipAdd bool
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Full sync: fetch, store, enrich, and add upcoming events to your calendar",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			feedURL := rootOpts.URL

			repo, closeRepo, err := app.openRepository(ctx)
			if err != nil {
				return err
			}
			defer closeRepo()

			statusColor.Fprintln(app.out, "Starting full sync process...")
			statusColor.Fprintf(app.out, "Fetching events from calendar: %s\n", feedURL)

			svc := app.syncService(repo)
			res, err := svc.FullSync(ctx, feedURL, time.Duration(days)*24*time.Hour, skipAdd)
			if err != nil {
				return err
			}

			successColor.Fprintf(app.out, "Fetched %d events, stored %d\n", res.Fetched, res.Persisted)
			statusColor.Fprintf(app.out, "API enrichment complete. Success: %d, Errors: %d\n",
				res.Enrich.Enriched, res.Enrich.Failed)

			if res.Skipped {
				warnColor.Fprintln(app.out, "Skipping adding events to calendar as requested")
			} else {
				statusColor.Fprintf(app.out, "Calendar addition complete. Success: %d, Errors: %d\n",
					res.Submit.Submitted, res.Submit.Failed)
			}

			successColor.Fprintln(app.out, "Full sync process completed successfully")
			return nil
		},
	}

	cmd.Flags().IntVarP(&days, "days", "d", 30, "only add events happening within this many days")
	cmd.Flags().BoolVar(&skipAdd, "skip-add", false, "skip adding events to your calendar (store and enrich only)")
	return cmd
}
