package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"everest/internal/platform/timefmt"
)

func newStatusCmd(dataDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the saved session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := openSession(*dataDir)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			s, err := app.SessionCLI.Status(context.Background())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintf(w, "state:\t%s\n", s.State)
			if s.UserName != "" {
				_, _ = fmt.Fprintf(w, "athlete:\t%s\n", s.UserName)
			}
			if s.TrackName != "" {
				_, _ = fmt.Fprintf(w, "track:\t%s\n", s.TrackName)
			}
			_, _ = fmt.Fprintf(w, "laps:\t%d / %d (%.1f%%)\n", s.LapCounter, s.GoalLaps, s.ProgressPercent)
			_, _ = fmt.Fprintf(w, "lap:\t%.2f km, %.0f m\n", s.LapDistanceKm, s.LapAscentM)
			_, _ = fmt.Fprintf(w, "elapsed:\t%s\n", timefmt.ClockHours(s.ElapsedMs))
			if s.AverageLapMs > 0 {
				_, _ = fmt.Fprintf(w, "average lap:\t%s\n", timefmt.Clock(s.AverageLapMs))
			}
			_, _ = fmt.Fprintf(w, "distance:\t%.1f km\n", s.TotalDistanceKm)
			_, _ = fmt.Fprintf(w, "ascent:\t%.0f m\n", s.TotalAscentM)
			if s.TotalPausedMs > 0 {
				_, _ = fmt.Fprintf(w, "paused:\t%s (%d)\n", timefmt.ClockHours(s.TotalPausedMs), len(s.Pauses))
			}
			return w.Flush()
		},
	}
}

func newSettingsCmd(dataDir *string) *cobra.Command {
	settings := &cobra.Command{Use: "settings", Short: "Change session settings before the start"}

	settings.AddCommand(&cobra.Command{
		Use:   "goal <laps>",
		Short: "Set the goal lap count",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			goal, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid goal %q", args[0])
			}
			app, err := openSession(*dataDir)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			s, err := app.SessionCLI.SetGoal(context.Background(), goal)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "goal: %d laps\n", s.GoalLaps)
			return nil
		},
	})

	settings.AddCommand(&cobra.Command{
		Use:   "geometry <km> <m>",
		Short: "Set lap distance and ascent",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			km, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid distance %q", args[0])
			}
			ascent, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid ascent %q", args[1])
			}
			app, err := openSession(*dataDir)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			s, err := app.SessionCLI.SetGeometry(context.Background(), km, ascent)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "lap: %.2f km, %.0f m\n", s.LapDistanceKm, s.LapAscentM)
			return nil
		},
	})

	var athlete, track string
	meta := &cobra.Command{
		Use:   "meta",
		Short: "Set athlete and track names used in reports",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := openSession(*dataDir)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			ctx := context.Background()
			current, err := app.SessionCLI.Status(ctx)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("athlete") {
				athlete = current.UserName
			}
			if !cmd.Flags().Changed("track") {
				track = current.TrackName
			}
			s, err := app.SessionCLI.SetMeta(ctx, strings.TrimSpace(athlete), strings.TrimSpace(track))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "athlete: %s\ntrack: %s\n", s.UserName, s.TrackName)
			return nil
		},
	}
	meta.Flags().StringVar(&athlete, "athlete", "", "athlete name")
	meta.Flags().StringVar(&track, "track", "", "track name")
	settings.AddCommand(meta)

	return settings
}

func newHistoryCmd(dataDir *string) *cobra.Command {
	history := &cobra.Command{Use: "history", Short: "Browse archived sessions"}

	history.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List archived sessions, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*dataDir, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			items, err := app.SessionCLI.History(context.Background())
			if err != nil {
				return err
			}
			if len(items) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no archived sessions")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, it := range items {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d laps\t%.1f km\t%.0f m\n",
					it.ID, it.ArchivedAt.Local().Format("2006-01-02 15:04"), it.TrackName, it.LapCount, it.TotalDistanceKm, it.TotalAscentM)
			}
			return w.Flush()
		},
	})

	history.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show one archived session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(*dataDir, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			d, err := app.SessionCLI.HistoryEntry(context.Background(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "id: %s\narchived: %s\nathlete: %s\ntrack: %s\nlaps: %d\ndistance: %.1f km\nascent: %.0f m\n",
				d.ID, d.ArchivedAt.Local().Format("2006-01-02 15:04:05"), d.UserName, d.TrackName, d.LapCount, d.TotalDistanceKm, d.TotalAscentM)
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
			for _, l := range d.Laps {
				mark := ""
				if l.Forced {
					mark = "*"
				}
				_, _ = fmt.Fprintf(w, "%d%s\t%s\t%s\t\n", l.Index, mark, timefmt.Clock(l.DurationMs), timefmt.ClockHours(l.CumulativeElapsedMs))
			}
			return w.Flush()
		},
	})

	return history
}

func newResetCmd(dataDir *string) *cobra.Command {
	var yes, noArchive bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Archive the saved session and start over",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				confirmed := false
				if err := huh.NewForm(huh.NewGroup(
					huh.NewConfirm().Title("Reset the saved session?").Value(&confirmed),
				)).Run(); err != nil {
					return err
				}
				if !confirmed {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "cancelled")
					return nil
				}
			}
			app, err := openSession(*dataDir)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			out, err := app.SessionCLI.Reset(context.Background(), !noArchive)
			if err != nil {
				return err
			}
			if out.ArchiveID != "" {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "archived as %s\n", out.ArchiveID)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "session reset")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "skip the confirmation prompt")
	cmd.Flags().BoolVar(&noArchive, "no-archive", false, "do not archive the session to history")
	return cmd
}
