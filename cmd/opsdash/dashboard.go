package main

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/opsdash/internal/controller"
	"github.com/nao1215/opsdash/internal/model"
	"github.com/nao1215/opsdash/internal/report"
)

// NewLogsCmd creates the logs command.
func NewLogsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the commander activity log",
		Long: `Logs lists soldier activity recorded by the dashboard, newest first.

Filters are sent to the backend. --last-week fills the date range with
the last seven days, like the dashboard's filter inputs.

Examples:
  # Everything the backend returns
  opsdash logs

  # One soldier's uploads in March
  opsdash logs --user alpha --action upload --from 2025-03-01 --to 2025-03-31

  # Save the filtered log as CSV
  opsdash logs --user alpha --export`,
		Args: cobra.NoArgs,
		RunE: runLogsCmd,
	}

	cmd.Flags().String("user", "", "Only entries of this soldier")
	cmd.Flags().String("action", "", "Only entries of this action type")
	cmd.Flags().String("from", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "End date (YYYY-MM-DD)")
	cmd.Flags().Bool("last-week", false, "Use the last seven days as the date range")
	cmd.Flags().Bool("export", false, "Save the filtered log as CSV in the output directory")

	return cmd
}

func runLogsCmd(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := a.signalContext()
	defer cancel()

	f, err := activityFilter(cmd, time.Now())
	if err != nil {
		return err
	}

	page := controller.NewActivity(a.client, a.controllerOptions()...)
	defer page.Close()

	if err := page.ApplyFilters(ctx, f); err != nil {
		return a.fail("Activity Logs", err)
	}
	results := []*report.Result{report.FromActivity(page.Logs())}

	if export, _ := cmd.Flags().GetBool("export"); export { //nolint:errcheck // flag is always defined
		dl, err := page.Export(ctx)
		if err != nil {
			return a.fail("Activity Export", err)
		}
		saved, err := a.save(dl)
		if err != nil {
			return err
		}
		results = append(results, saved)
	}
	return a.write(results...)
}

// activityFilter reads the filter flags. --last-week only fills dates the
// user did not give.
func activityFilter(cmd *cobra.Command, now time.Time) (model.ActivityFilter, error) {
	var f model.ActivityFilter
	flags := cmd.Flags()

	lastWeek, err := flags.GetBool("last-week")
	if err != nil {
		return f, err
	}
	if lastWeek {
		f = controller.DefaultActivityFilter(now)
	}

	for name, dst := range map[string]*string{
		"user":   &f.Username,
		"action": &f.ActionType,
		"from":   &f.DateFrom,
		"to":     &f.DateTo,
	} {
		if !flags.Changed(name) {
			continue
		}
		v, err := flags.GetString(name)
		if err != nil {
			return f, err
		}
		*dst = strings.TrimSpace(v)
	}
	return f, nil
}

// NewStatsCmd creates the stats command.
func NewStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show soldier statistics",
		Long: `Stats shows the dashboard totals and the per-soldier activity table.

Examples:
  opsdash stats
  opsdash stats --markdown -o stats.md`,
		Args: cobra.NoArgs,
		RunE: runStatsCmd,
	}
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := a.signalContext()
	defer cancel()

	stats, err := a.client.DashboardStats(ctx)
	if err != nil {
		return a.fail("Dashboard Stats", err)
	}
	return a.write(report.FromStats(stats))
}

// NewWeatherCmd creates the weather command.
func NewWeatherCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "weather [location]",
		Short: "Show current weather",
		Long: `Weather shows current conditions for a city, or for the backend's
default location when none is given.

Examples:
  opsdash weather
  opsdash weather "Oslo"`,
		Args: cobra.MaximumNArgs(1),
		RunE: runWeatherCmd,
	}
}

func runWeatherCmd(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := a.signalContext()
	defer cancel()

	var location string
	if len(args) > 0 {
		location = strings.TrimSpace(args[0])
	}

	w, err := a.client.Weather(ctx, location)
	if err != nil {
		return a.fail("Weather", err)
	}
	return a.write(report.FromWeather(w, time.Local))
}
