package cli

import (
	"github.com/spf13/cobra"
)

// NewDBCommand creates the db command, which inspects the event store.
func NewDBCommand(app *App) *cobra.Command {
	var (
		all     bool
		limit   int
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "db",
		Short: "Show events from the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			repo, closeRepo, err := app.openRepository(ctx)
			if err != nil {
				return err
			}
			defer closeRepo()

			if !all {
				count, err := repo.CountLiveEvents(ctx)
				if err != nil {
					return err
				}
				statusColor.Fprintf(app.out, "Database contains %d events\n", count)
				return nil
			}

			events, err := repo.GetLiveEvents(ctx)
			if err != nil {
				return err
			}
			statusColor.Fprintf(app.out, "Displaying all %d events from database\n", len(events))
			app.printer().Events(events, limit, verbose)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "list the stored events instead of only counting them")
	cmd.Flags().IntVarP(&limit, "limit", "l", 10, "limit the number of events displayed")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show detailed event information")
	return cmd
}

// NewClearCommand creates the clear command.
func NewClearCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear all events from the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			repo, closeRepo, err := app.openRepository(ctx)
			if err != nil {
				return err
			}
			defer closeRepo()

			count, err := repo.ClearEvents(ctx)
			if err != nil {
				return err
			}
			successColor.Fprintf(app.out, "Successfully cleared %d events from database\n", count)
			return nil
		},
	}
}
