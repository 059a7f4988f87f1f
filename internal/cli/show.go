package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewTodayCommand creates the today command.
func NewTodayCommand(app *App, rootOpts *RootOptions) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "today",
		Short: "Show today's events",
		RunE: func(cmd *cobra.Command, args []string) error {
			events, err := app.fetchEvents(cmd.Context(), rootOpts.URL)
			if err != nil {
				return err
			}
			app.printer().Today(events, verbose)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show detailed event information")
	return cmd
}

// NewWeekCommand creates the week command.
func NewWeekCommand(app *App, rootOpts *RootOptions) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "week",
		Short: "Show events for the current week",
		RunE: func(cmd *cobra.Command, args []string) error {
			events, err := app.fetchEvents(cmd.Context(), rootOpts.URL)
			if err != nil {
				return err
			}
			app.printer().Week(events, verbose)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show detailed event information")
	return cmd
}

// NewNextCommand creates the next command. The optional positional argument
// is the number of days to look ahead, defaulting to 7.
func NewNextCommand(app *App, rootOpts *RootOptions) *cobra.Command {
	var (
		limit   int
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "next [days]",
		Short: "Show events coming up in the next N days",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			days := 7
			if len(args) == 1 {
				parsed, err := parsePositiveInt(args[0])
				if err != nil {
					return err
				}
				days = parsed
			}

			events, err := app.fetchEvents(cmd.Context(), rootOpts.URL)
			if err != nil {
				return err
			}
			app.printer().Upcoming(events, days, limit, verbose)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 10, "limit the number of events displayed")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show detailed event information")
	return cmd
}

func parsePositiveInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid day count %q: expected a positive number", s)
	}
	return n, nil
}
