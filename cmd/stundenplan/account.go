package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/stundenplan/internal/client"
	"github.com/verte-zerg/stundenplan/internal/config"
	"github.com/verte-zerg/stundenplan/internal/model"
	"github.com/verte-zerg/stundenplan/internal/weekview"
)

var (
	accountURL        string
	accountUsername   string
	signupEmail       string
	signupDisplayName string
	syncPush          bool
	whoamiHistory     int
	stdinReader       *bufio.Reader
)

func newSignupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account on the service",
		Args:  cobra.NoArgs,
		RunE:  runSignupCmd,
	}
	addAccountFlags(cmd)
	cmd.Flags().StringVar(&signupEmail, "email", "", "email address")
	cmd.Flags().StringVar(&signupDisplayName, "display-name", "", "display name (default: username)")
	return cmd
}

func newLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		Args:  cobra.NoArgs,
		RunE:  runLoginCmd,
	}
	addAccountFlags(cmd)
	return cmd
}

func addAccountFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&accountURL, "url", defaultServiceURL, "service URL")
	cmd.Flags().StringVarP(&accountUsername, "username", "u", "", "username (prompted when empty)")
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := client.ClearSession(config.DefaultSessionPath()); err != nil {
				return err
			}
			logErrln("Logged out")
			return nil
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in profile and recent logins",
		Args:  cobra.NoArgs,
		RunE:  runWhoamiCmd,
	}
	cmd.Flags().IntVar(&whoamiHistory, "history", 5, "number of recent logins to list (0 to skip)")
	return cmd
}

func newPasswdCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "passwd",
		Short: "Change the account password",
		Args:  cobra.NoArgs,
		RunE:  runPasswdCmd,
	}
}

func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Show the week stored in the service, or upload the local one with --push",
		Args:  cobra.NoArgs,
		RunE:  runSyncCmd,
	}
	cmd.Flags().BoolVar(&syncPush, "push", false, "upload the local [schedule] week")
	return cmd
}

func serviceURL(cmd *cobra.Command) (string, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "url", &accountURL, fileCfg.Client.URL)
	url := strings.TrimSpace(accountURL)
	if url == "" {
		return "", fmt.Errorf("--url must not be empty")
	}
	return url, nil
}

// checkService fails fast before prompting for credentials.
func checkService(url string) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	if err := client.New(url).Health(ctx); err != nil {
		return fmt.Errorf("service at %s is not available: %w", url, err)
	}
	return nil
}

func runSignupCmd(cmd *cobra.Command, _ []string) error {
	url, err := serviceURL(cmd)
	if err != nil {
		return err
	}
	if err := checkService(url); err != nil {
		return err
	}
	username, err := promptValue("Username: ", accountUsername)
	if err != nil {
		return err
	}
	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}
	confirm, err := promptPassword("Repeat password: ")
	if err != nil {
		return err
	}
	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	c := client.New(url)
	if _, err := c.Signup(ctx, client.SignupRequest{
		Username:    username,
		Email:       signupEmail,
		Password:    password,
		DisplayName: signupDisplayName,
	}); err != nil {
		return fmt.Errorf("signup failed: %w", err)
	}
	logErrf("Account %s created; logging in\n", username)
	return login(ctx, c, url, username, password)
}

func runLoginCmd(cmd *cobra.Command, _ []string) error {
	url, err := serviceURL(cmd)
	if err != nil {
		return err
	}
	if err := checkService(url); err != nil {
		return err
	}
	username, err := promptValue("Username: ", accountUsername)
	if err != nil {
		return err
	}
	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	return login(ctx, client.New(url), url, username, password)
}

func login(ctx context.Context, c *client.Client, url, username, password string) error {
	res, err := c.Login(ctx, username, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	sess := client.Session{
		URL:       url,
		Username:  res.User.Username,
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
	}
	if err := client.SaveSession(config.DefaultSessionPath(), sess); err != nil {
		return err
	}
	logErrf("Logged in as %s\n", res.User.DisplayName)
	return nil
}

func sessionClient() (*client.Client, client.Session, error) {
	sess, err := client.LoadSession(config.DefaultSessionPath())
	if err != nil {
		if errors.Is(err, client.ErrNoSession) {
			return nil, client.Session{}, fmt.Errorf("not logged in; run `stundenplan login`")
		}
		return nil, client.Session{}, err
	}
	return client.New(sess.URL, client.WithToken(sess.Token)), sess, nil
}

func runWhoamiCmd(cmd *cobra.Command, _ []string) error {
	c, sess, err := sessionClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	profile, err := c.Profile(ctx)
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}
	count, err := c.LoginCount(ctx)
	if err != nil {
		return fmt.Errorf("failed to load login count: %w", err)
	}

	lines := []string{
		fmt.Sprintf("Username:   %s", profile.Username),
		fmt.Sprintf("Name:       %s", profile.DisplayName),
	}
	if profile.Email != nil {
		lines = append(lines, fmt.Sprintf("Email:      %s", *profile.Email))
	}
	lines = append(lines,
		fmt.Sprintf("Service:    %s", sess.URL),
		fmt.Sprintf("Member since %s", profile.CreatedAt.Local().Format("2006-01-02")),
		fmt.Sprintf("Logins:     %d", count),
	)
	if profile.LastLogin != nil {
		lines = append(lines, fmt.Sprintf("Last login: %s", profile.LastLogin.Local().Format("2006-01-02 15:04")))
	}
	if whoamiHistory > 0 {
		history, err := c.LoginHistory(ctx, whoamiHistory)
		if err != nil {
			return fmt.Errorf("failed to load login history: %w", err)
		}
		if len(history) > 0 {
			lines = append(lines, "Recent logins:")
		}
		for _, ev := range history {
			lines = append(lines, formatLoginEvent(ev))
		}
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func formatLoginEvent(ev model.LoginEvent) string {
	line := "  " + ev.At.Local().Format("2006-01-02 15:04")
	if ev.IPAddress != "" {
		line += "  " + ev.IPAddress
	}
	if ev.UserAgent != "" {
		line += "  " + ev.UserAgent
	}
	return line
}

func runPasswdCmd(_ *cobra.Command, _ []string) error {
	c, sess, err := sessionClient()
	if err != nil {
		return err
	}
	current, err := promptPassword("Current password: ")
	if err != nil {
		return err
	}
	next, err := promptPassword("New password: ")
	if err != nil {
		return err
	}
	confirm, err := promptPassword("Repeat new password: ")
	if err != nil {
		return err
	}
	if next != confirm {
		return fmt.Errorf("passwords do not match")
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	if err := c.ChangePassword(ctx, current, next); err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}
	logErrf("Password changed for %s\n", sess.Username)
	return nil
}

func runSyncCmd(cmd *cobra.Command, _ []string) error {
	c, _, err := sessionClient()
	if err != nil {
		return err
	}
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	tt, err := fileCfg.Schedule.Timetable()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	settings, ok, err := c.Settings(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if !ok {
		settings = model.DefaultSettings(0)
	}

	if syncPush {
		data, err := json.Marshal(model.ScheduleData{Week: tt.Week})
		if err != nil {
			return fmt.Errorf("failed to encode week: %w", err)
		}
		settings.ScheduleData = data
		if err := c.SaveSettings(ctx, settings); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		logErrln("Uploaded local week")
		return nil
	}

	if len(settings.ScheduleData) == 0 {
		logErrln("No week stored in the service; showing the local one")
	}
	return weekview.RenderTable(cmd.OutOrStdout(), applyScheduleData(tt, settings.ScheduleData), weekview.TableOptions{Today: -1, Legend: true})
}

func promptValue(label, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value != "" {
		return value, nil
	}
	logErrf("%s", label)
	line, err := readLine()
	if err != nil {
		return "", err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", fmt.Errorf("%s must not be empty", strings.TrimSuffix(strings.ToLower(label), ": "))
	}
	return line, nil
}

func promptPassword(label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := readLine()
		if err != nil {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
	logErrf("%s", label)
	secret, err := term.ReadPassword(fd)
	logErrln()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(secret), nil
}

func readLine() (string, error) {
	if stdinReader == nil {
		stdinReader = bufio.NewReader(os.Stdin)
	}
	line, err := stdinReader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
