package cli

import (
	"github.com/spf13/cobra"
)

// NewAPICommand creates the api command, which enriches stored events with
// api_ids, either across the board or for one specific slug.
func NewAPICommand(app *App) *cobra.Command {
	var (
		limit int
		slug  string
	)

	cmd := &cobra.Command{
		Use:   "api",
		Short: "Enrich database events with API data",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			repo, closeRepo, err := app.openRepository(ctx)
			if err != nil {
				return err
			}
			defer closeRepo()

			events, err := repo.GetLiveEvents(ctx)
			if err != nil {
				return err
			}
			statusColor.Fprintf(app.out, "Found %d events in database\n", len(events))

			svc := app.syncService(repo)

			if slug != "" {
				found, err := svc.EnrichBySlug(ctx, events, slug)
				if err != nil {
					return err
				}
				if !found {
					warnColor.Fprintf(app.out, "No event found with slug: %s\n", slug)
					return nil
				}
				successColor.Fprintln(app.out, "Event updated successfully")
				return nil
			}

			res, err := svc.EnrichEvents(ctx, events, limit)
			if err != nil {
				return err
			}
			statusColor.Fprintf(app.out, "API enrichment complete. Success: %d, Errors: %d\n",
				res.Enriched, res.Failed)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "limit to a specific number of events")
	cmd.Flags().StringVarP(&slug, "slug", "s", "", "enrich only the event matching this slug")
	return cmd
}

// NewLookupCommand creates the lookup command, a lookup probe that touches
// no database state.
func NewLookupCommand(app *App) *cobra.Command {
	var slug string

	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "Test API lookup without database operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			statusColor.Fprintf(app.out, "Looking up API ID for slug: %s\n", slug)

			apiID, err := app.lumaClient().LookupEventID(cmd.Context(), slug)
			if err != nil {
				return err
			}

			successColor.Fprintf(app.out, "Successfully found API ID: %s\n", apiID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&slug, "slug", "s", "", "the slug to look up (required)")
	_ = cmd.MarkFlagRequired("slug")
	return cmd
}

// NewAddCommand creates the add command, which submits one already-known
// api_id to the calendar.
func NewAddCommand(app *App) *cobra.Command {
	var eventID string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an event to your calendar using its API ID",
		RunE: func(cmd *cobra.Command, args []string) error {
			statusColor.Fprintf(app.out, "Adding event with API ID: %s to your calendar...\n", eventID)

			calID, err := app.lumaClient().AddEvent(cmd.Context(), eventID)
			if err != nil {
				return err
			}

			successColor.Fprintln(app.out, "Successfully added event to your calendar")
			if calID != "" {
				successColor.Fprintf(app.out, "Calendar Event ID: %s\n", calID)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&eventID, "event-id", "i", "", "the event API ID to add (required)")
	_ = cmd.MarkFlagRequired("event-id")
	return cmd
}
