// Package config provides XDG paths, TOML parsing and service settings.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/stundenplan/internal/schedule"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Dashboard DashboardConfig `toml:"dashboard"`
	Schedule  ScheduleConfig  `toml:"schedule"`
	Server    ServerConfig    `toml:"server"`
	Client    ClientConfig    `toml:"client"`
}

// DashboardConfig maps local display preferences used when not logged in.
type DashboardConfig struct {
	ShowSeconds   *bool `toml:"show-seconds"`
	DarkMode      *bool `toml:"dark-mode"`
	Sound         *bool `toml:"sound"`
	Notifications *bool `toml:"notifications"`
}

// ScheduleConfig maps the local timetable definition.
type ScheduleConfig struct {
	Slots    [][]string        `toml:"slots"`
	Week     [][]string        `toml:"week"`
	Subjects map[string]string `toml:"subjects"`
}

// ServerConfig maps settings of the account service.
type ServerConfig struct {
	Addr       *string `toml:"addr"`
	Env        *string `toml:"env"`
	DBDriver   *string `toml:"db-driver"`
	DBDSN      *string `toml:"db-dsn"`
	TokenTTL   *string `toml:"token-ttl"`
	RateLimit  *int    `toml:"rate-limit"`
	RateWindow *string `toml:"rate-window"`
	StaticDir  *string `toml:"static-dir"`
}

// ClientConfig maps settings for talking to the account service.
type ClientConfig struct {
	URL *string `toml:"url"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Timetable builds the timetable from the config, using built-in defaults for
// anything left out. Invalid slots or week rows are rejected here, before any
// dashboard loop starts.
func (c ScheduleConfig) Timetable() (schedule.Timetable, error) {
	slots := schedule.DefaultSlots()
	if len(c.Slots) > 0 {
		parsed, err := schedule.ParseSlots(c.Slots)
		if err != nil {
			return schedule.Timetable{}, fmt.Errorf("invalid [schedule] slots: %w", err)
		}
		slots = parsed
	}
	week := schedule.DefaultWeek()
	if len(c.Week) > 0 {
		week = schedule.Week(c.Week)
	}
	names := schedule.DefaultNames().Merge(c.Subjects)
	tt, err := schedule.NewTimetable(slots, week, names)
	if err != nil {
		return schedule.Timetable{}, fmt.Errorf("invalid [schedule] section: %w", err)
	}
	return tt, nil
}
