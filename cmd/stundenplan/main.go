// Package main provides the CLI entrypoint for stundenplan.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/stundenplan/internal/client"
	"github.com/verte-zerg/stundenplan/internal/config"
	"github.com/verte-zerg/stundenplan/internal/model"
	"github.com/verte-zerg/stundenplan/internal/schedule"
	"github.com/verte-zerg/stundenplan/internal/tui"
)

const (
	defaultServiceURL = "http://localhost:3000"
	requestTimeout    = 10 * time.Second
)

var (
	dashSeconds       bool
	dashDark          bool
	dashSound         bool
	dashNotifications bool
	dashOffline       bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "stundenplan",
		Short:         "School timetable dashboard",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runDashboardCmd,
	}

	rootCmd.Flags().BoolVar(&dashSeconds, "seconds", false, "show seconds in the clock")
	rootCmd.Flags().BoolVar(&dashDark, "dark", false, "use the dark theme")
	rootCmd.Flags().BoolVar(&dashSound, "sound", true, "ring the terminal bell when a lesson ends")
	rootCmd.Flags().BoolVar(&dashNotifications, "notifications", false, "show a notice when a lesson ends")
	rootCmd.Flags().BoolVar(&dashOffline, "offline", false, "do not load or save settings from the service")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newWeekCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newSignupCmd())
	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newWhoamiCmd())
	rootCmd.AddCommand(newPasswdCmd())
	rootCmd.AddCommand(newSyncCmd())

	return rootCmd
}

func runDashboardCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	tt, err := fileCfg.Schedule.Timetable()
	if err != nil {
		return err
	}

	applyBoolConfig(cmd, "seconds", &dashSeconds, fileCfg.Dashboard.ShowSeconds)
	applyBoolConfig(cmd, "dark", &dashDark, fileCfg.Dashboard.DarkMode)
	applyBoolConfig(cmd, "sound", &dashSound, fileCfg.Dashboard.Sound)
	applyBoolConfig(cmd, "notifications", &dashNotifications, fileCfg.Dashboard.Notifications)

	prefs := model.Preferences{
		SoundEnabled:         dashSound,
		DarkMode:             dashDark,
		ShowSeconds:          dashSeconds,
		NotificationsEnabled: dashNotifications,
	}

	var saver tui.SettingsSaver
	if !dashOffline {
		remote, settings, ok := loadRemoteSettings()
		if ok {
			saver = remote
			prefs = mergePreferences(cmd, prefs, settings.Preferences())
			tt = applyScheduleData(tt, settings.ScheduleData)
		}
	}

	m := tui.NewModel(tui.Options{
		Timetable:   tt,
		Preferences: prefs,
		Saver:       saver,
	})
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// remoteSettings saves dashboard preferences to the service, keeping the
// stored schedule data untouched.
type remoteSettings struct {
	client       *client.Client
	scheduleData json.RawMessage
}

func (r *remoteSettings) SavePreferences(ctx context.Context, prefs model.Preferences) error {
	return r.client.SaveSettings(ctx, model.Settings{
		SoundEnabled:         prefs.SoundEnabled,
		Theme:                prefs.Theme(),
		ShowSeconds:          prefs.ShowSeconds,
		NotificationsEnabled: prefs.NotificationsEnabled,
		ScheduleData:         r.scheduleData,
	})
}

func loadRemoteSettings() (*remoteSettings, model.Settings, bool) {
	sess, err := client.LoadSession(config.DefaultSessionPath())
	if err != nil {
		if !errors.Is(err, client.ErrNoSession) {
			logErrf("failed to load session: %v\n", err)
		}
		return nil, model.Settings{}, false
	}
	if sess.Expired(time.Now()) {
		logErrln("session expired; run `stundenplan login` to sync settings")
		return nil, model.Settings{}, false
	}

	c := client.New(sess.URL, client.WithToken(sess.Token))
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	settings, ok, err := c.Settings(ctx)
	if err != nil {
		logErrf("failed to load settings, running offline: %v\n", err)
		return nil, model.Settings{}, false
	}
	if !ok {
		settings = model.DefaultSettings(0)
	}
	return &remoteSettings{client: c, scheduleData: settings.ScheduleData}, settings, true
}

// mergePreferences takes stored preferences unless a flag was set explicitly.
func mergePreferences(cmd *cobra.Command, local, stored model.Preferences) model.Preferences {
	out := stored
	if cmd.Flags().Changed("seconds") {
		out.ShowSeconds = local.ShowSeconds
	}
	if cmd.Flags().Changed("dark") {
		out.DarkMode = local.DarkMode
	}
	if cmd.Flags().Changed("sound") {
		out.SoundEnabled = local.SoundEnabled
	}
	if cmd.Flags().Changed("notifications") {
		out.NotificationsEnabled = local.NotificationsEnabled
	}
	return out
}

func applyScheduleData(tt schedule.Timetable, data json.RawMessage) schedule.Timetable {
	if len(data) == 0 {
		return tt
	}
	var sd model.ScheduleData
	if err := json.Unmarshal(data, &sd); err != nil {
		logErrf("ignoring stored schedule data: %v\n", err)
		return tt
	}
	if len(sd.Week) == 0 {
		return tt
	}
	next, err := tt.WithWeek(schedule.Week(sd.Week))
	if err != nil {
		logErrf("ignoring stored week: %v\n", err)
		return tt
	}
	return next
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# stundenplan configuration
# Uncomment a value to enable it. CLI flags override config values.

[dashboard]
# show-seconds = false    # Show seconds in the clock
# dark-mode = false       # Use the dark theme
# sound = true            # Ring the terminal bell when a lesson ends
# notifications = false   # Show a notice when a lesson ends

[schedule]
# slots = [["07:30", "08:15"], ["08:20", "09:05"]]   # Daily lesson times
# week = [["MA", "D"], ["E", ""], ["", ""], ["F", ""], ["G", "BS"]]  # One row per weekday
# [schedule.subjects]
# MA = "Mathematik"

[server]
# addr = %q             # Listen address (PORT env wins)
# env = %q       # "production" requires JWT_SECRET
# db-driver = %q          # "sqlite" or "pgx"
# db-dsn = ""               # Database path or DSN (DB_DSN env wins)
# token-ttl = %q        # Token lifetime
# rate-limit = %d           # Requests per window and client
# rate-window = %q        # Rate limit window
# static-dir = ""           # Serve static files from this directory

[client]
# url = %q   # Account service URL
`,
		config.DefaultAddr,
		config.DefaultEnv,
		config.DefaultDBDriver,
		config.DefaultTokenTTL.String(),
		config.DefaultRateLimit,
		config.DefaultRateWindow.String(),
		defaultServiceURL,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
