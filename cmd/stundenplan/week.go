package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/stundenplan/internal/config"
	"github.com/verte-zerg/stundenplan/internal/schedule"
	"github.com/verte-zerg/stundenplan/internal/weekview"
)

var (
	statusSeconds bool
	statusOffline bool

	weekPNG     string
	weekLegend  bool
	weekOffline bool
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print the current lesson, countdown and progress",
		Args:  cobra.NoArgs,
		RunE:  runStatusCmd,
	}
	cmd.Flags().BoolVar(&statusSeconds, "seconds", false, "show seconds in the clock")
	cmd.Flags().BoolVar(&statusOffline, "offline", false, "ignore the week stored in the service")
	return cmd
}

func runStatusCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyBoolConfig(cmd, "seconds", &statusSeconds, fileCfg.Dashboard.ShowSeconds)
	tt, err := loadTimetable(fileCfg, statusOffline)
	if err != nil {
		return err
	}
	return weekview.RenderStatus(cmd.OutOrStdout(), tt.Snapshot(time.Now()), tt, statusSeconds)
}

func newWeekCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "week",
		Short: "Print the week timetable or export it as PNG",
		Args:  cobra.NoArgs,
		RunE:  runWeekCmd,
	}
	cmd.Flags().StringVar(&weekPNG, "png", "", "write the timetable as PNG to this file")
	cmd.Flags().BoolVar(&weekLegend, "legend", true, "list subject names below the table")
	cmd.Flags().BoolVar(&weekOffline, "offline", false, "ignore the week stored in the service")
	return cmd
}

func runWeekCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	tt, err := loadTimetable(fileCfg, weekOffline)
	if err != nil {
		return err
	}

	now := time.Now()
	today := schedule.DayIndex(now)
	if weekPNG == "" {
		width := 0
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			width = w
		}
		return weekview.RenderTable(cmd.OutOrStdout(), tt, weekview.TableOptions{Width: width, Today: today, Legend: weekLegend})
	}

	active := -1
	if st := schedule.Resolve(now, tt.Slots, tt.Week); st.Kind == schedule.Lesson {
		active = st.Slot
	}
	f, err := os.Create(weekPNG)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", weekPNG, err)
	}
	if err := weekview.RenderPNG(f, tt, weekview.ImageOptions{Today: today, ActiveSlot: active}); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", weekPNG, err)
	}
	logErrf("Wrote %s\n", weekPNG)
	return nil
}

// loadTimetable builds the local timetable and, when logged in, applies the
// week stored in the service.
func loadTimetable(fileCfg config.FileConfig, offline bool) (schedule.Timetable, error) {
	tt, err := fileCfg.Schedule.Timetable()
	if err != nil {
		return schedule.Timetable{}, err
	}
	if offline {
		return tt, nil
	}
	if _, settings, ok := loadRemoteSettings(); ok {
		tt = applyScheduleData(tt, settings.ScheduleData)
	}
	return tt, nil
}
