package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/dealdesk/internal/availability"
	"github.com/teemow/dealdesk/internal/google"
	"github.com/teemow/dealdesk/internal/scheduling"
	"github.com/teemow/dealdesk/internal/server"
	"github.com/teemow/dealdesk/internal/store"
)

// availabilityOptions holds the raw flag values of the availability command.
type availabilityOptions struct {
	query             string
	timezone          string
	start             string
	end               string
	now               string
	duration          int
	workingHoursStart string
	workingHoursEnd   string
	excludeWeekends   *bool
	busyFile          string
	account           string
	calendarID        string
}

func newAvailabilityCmd() *cobra.Command {
	var (
		opts            availabilityOptions
		excludeWeekends bool
	)

	cmd := &cobra.Command{
		Use:   "availability",
		Short: "Resolve one availability request and print the report as JSON",
		Long: `Resolve a single availability request and print the report as JSON.

Busy intervals come from --busy, a JSON array of {"start","end","id","title"}
objects ("-" reads stdin). Without --busy they are read from the calendar store
when --database-url is set, or from the account's Google Calendar otherwise.

Examples:
  dealdesk availability --query "tomorrow evening" --timezone Europe/Berlin --busy busy.json
  dealdesk availability --start 2025-01-15T09:00:00Z --end 2025-01-15T17:00:00Z --busy - < busy.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("exclude-weekends") {
				opts.excludeWeekends = &excludeWeekends
			}

			settings, err := loadSettings(cmd.Flags(), configFile)
			if err != nil {
				return err
			}

			return runAvailability(cmd.Context(), settings, opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.query, "query", "q", "", "Natural-language request, e.g. \"next week early morning for 45 minutes\"")
	cmd.Flags().StringVar(&opts.timezone, "timezone", "", "IANA timezone of the request")
	cmd.Flags().StringVar(&opts.start, "start", "", "Explicit window start (RFC3339)")
	cmd.Flags().StringVar(&opts.end, "end", "", "Explicit window end (RFC3339)")
	cmd.Flags().StringVar(&opts.now, "now", "", "Reference instant (RFC3339, default: current time)")
	cmd.Flags().IntVar(&opts.duration, "duration", 0, "Meeting duration in minutes (default: from the query, else 60)")
	cmd.Flags().StringVar(&opts.workingHoursStart, "working-hours-start", "", "Working day start (HH:MM)")
	cmd.Flags().StringVar(&opts.workingHoursEnd, "working-hours-end", "", "Working day end (HH:MM)")
	cmd.Flags().BoolVar(&excludeWeekends, "exclude-weekends", true, "Skip Saturdays and Sundays")
	cmd.Flags().StringVar(&opts.busyFile, "busy", "", "JSON file of busy intervals (\"-\" for stdin)")
	cmd.Flags().StringVar(&opts.account, "account", google.DefaultAccount, "Account whose calendar is read when --busy is not given")
	cmd.Flags().StringVar(&opts.calendarID, "calendar", scheduling.DefaultCalendarID, "Calendar ID read when --busy is not given")
	cmd.Flags().String("database-url", "", "Postgres DSN of the synced calendar store")

	return cmd
}

// input converts the flag values into an engine input.
func (o availabilityOptions) input(stdin io.Reader) (availability.Input, error) {
	in := availability.Input{
		Query:             o.query,
		Timezone:          o.timezone,
		WorkingHoursStart: o.workingHoursStart,
		WorkingHoursEnd:   o.workingHoursEnd,
		ExcludeWeekends:   o.excludeWeekends,
	}

	var err error
	if in.Now, err = parseInstantFlag("now", o.now); err != nil {
		return in, err
	}
	if in.ExplicitStart, err = parseInstantFlag("start", o.start); err != nil {
		return in, err
	}
	if in.ExplicitEnd, err = parseInstantFlag("end", o.end); err != nil {
		return in, err
	}
	if o.duration > 0 {
		d := o.duration
		in.DurationMinutes = &d
	}

	if o.busyFile != "" {
		if in.BusyIntervals, err = readBusyIntervals(o.busyFile, stdin); err != nil {
			return in, err
		}
	}

	return in, nil
}

func parseInstantFlag(name, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s (expected RFC3339): %w", name, err)
	}
	return &t, nil
}

// readBusyIntervals decodes a JSON array of busy intervals. The result is never
// nil, so an empty file means "no busy time" rather than "read the calendar".
func readBusyIntervals(path string, stdin io.Reader) ([]availability.BusyInterval, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open busy intervals: %w", err)
		}
		defer f.Close()
		r = f
	}

	var busy []availability.BusyInterval
	if err := json.NewDecoder(r).Decode(&busy); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode busy intervals: %w", err)
	}
	if busy == nil {
		busy = []availability.BusyInterval{}
	}
	return busy, nil
}

func runAvailability(ctx context.Context, settings Settings, opts availabilityOptions, stdin io.Reader, stdout io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	logger, err := newLogger(settings, os.Stderr)
	if err != nil {
		return err
	}

	in, err := opts.input(stdin)
	if err != nil {
		return err
	}
	configureGoogle(settings)

	var st *store.Store
	if in.BusyIntervals == nil && settings.Database.DSN != "" {
		st, err = store.Open(ctx, settings.Database.DSN)
		if err != nil {
			return err
		}
		defer st.Close()
	}

	serverContext, err := server.NewServerContext(ctx, server.Config{
		Engine:        settings.Engine,
		Store:         st,
		StaleAfter:    settings.Database.StaleAfter,
		TokenProvider: newTokenProvider(settings),
		Logger:        logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = serverContext.Shutdown()
	}()

	report, err := serverContext.Scheduler().CheckAvailability(ctx, scheduling.Request{
		Account:    opts.account,
		CalendarID: opts.calendarID,
		Input:      in,
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
