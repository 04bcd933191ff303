package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"

	"github.com/jakechorley/caregiver-rota/pkg/clients/rosterclient"
	"github.com/jakechorley/caregiver-rota/pkg/core/calendar"
	"github.com/jakechorley/caregiver-rota/pkg/core/rooms"
	"github.com/jakechorley/caregiver-rota/pkg/core/workday"
)

// DatabaseURLEnv overrides database.url when set
const DatabaseURLEnv = "AUTOFIT_DATABASE_URL"

const configBaseName = "autofit_config"

const dateLayout = "2006-01-02"

// Workday is the default working window, in whole hours
type Workday struct {
	StartHour int `yaml:"startHour" validate:"min=0,max=23"`
	EndHour   int `yaml:"endHour" validate:"min=1,max=24,gtfield=StartHour"`
}

// DayOverride replaces the default working window on days matching an RRULE.
// Start (YYYY-MM-DD) anchors the first occurrence of INTERVAL>1 rules.
type DayOverride struct {
	RRule     string `yaml:"rrule" validate:"required"`
	Start     string `yaml:"start,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Closed    bool   `yaml:"closed,omitempty"`
	StartHour *int   `yaml:"startHour,omitempty" validate:"omitempty,min=0,max=23"`
	EndHour   *int   `yaml:"endHour,omitempty" validate:"omitempty,min=1,max=24"`
}

// Database holds the Postgres connection settings
type Database struct {
	URL string `yaml:"url,omitempty"`
}

// Roster holds the remote caregiver roster settings
type Roster struct {
	BaseURL        string `yaml:"baseURL" validate:"omitempty,url"`
	Seed           string `yaml:"seed"`
	ResultsPerPage int    `yaml:"resultsPerPage" validate:"min=1,max=5000"`
	Pages          int    `yaml:"pages" validate:"min=1"`
	TimeoutSeconds int    `yaml:"timeoutSeconds" validate:"min=1"`
	RetryCount     int    `yaml:"retryCount" validate:"min=0,max=10"`
}

// Server holds the HTTP server settings
type Server struct {
	Addr string `yaml:"addr" validate:"required"`
}

// Config represents the application configuration
type Config struct {
	RoomCount    int           `yaml:"roomCount" validate:"required,min=1"`
	Timezone     string        `yaml:"timezone" validate:"required"`
	WeekStart    string        `yaml:"weekStart" validate:"required,oneof=sunday monday tuesday wednesday thursday friday saturday"`
	Workday      Workday       `yaml:"workday"`
	DayOverrides []DayOverride `yaml:"dayOverrides,omitempty" validate:"dive"`
	Database     Database      `yaml:"database"`
	Roster       Roster        `yaml:"roster"`
	Server       Server        `yaml:"server"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Load loads and validates autofit_config.yaml
func Load() (*Config, error) {
	return LoadWithEnv("")
}

// LoadWithEnv loads autofit_config.<env>.yaml, falling back to autofit_config.yaml.
// A .env file next to the config, if present, is loaded first.
func LoadWithEnv(env string) (*Config, error) {
	configPath, err := findConfigFile(env)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	envFile := filepath.Join(filepath.Dir(configPath), ".env")
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if url := os.Getenv(DatabaseURLEnv); url != "" {
		cfg.Database.URL = url
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Defaults returns the values used for any key the config file leaves out
func Defaults() *Config {
	return &Config{
		Timezone:  "UTC",
		WeekStart: "sunday",
		Workday:   Workday{StartHour: 8, EndHour: 17},
		Roster: Roster{
			BaseURL:        "https://randomuser.me",
			Seed:           "autofit",
			ResultsPerPage: 10,
			Pages:          1,
			TimeoutSeconds: 10,
			RetryCount:     2,
		},
		Server: Server{Addr: ":8080"},
	}
}

// Validate validates the configuration struct, the timezone and the rrule syntax
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}

	for i, override := range cfg.DayOverrides {
		if _, err := rrule.StrToRRule(override.RRule); err != nil {
			return fmt.Errorf("invalid rrule in dayOverrides[%d]: %w", i, err)
		}
		if override.Closed {
			continue
		}
		if (override.StartHour == nil) != (override.EndHour == nil) {
			return fmt.Errorf("dayOverrides[%d]: startHour and endHour must be set together", i)
		}
		if override.StartHour == nil {
			return fmt.Errorf("dayOverrides[%d]: an open override needs startHour and endHour", i)
		}
		if *override.StartHour >= *override.EndHour {
			return fmt.Errorf("dayOverrides[%d]: startHour must be before endHour", i)
		}
	}

	return nil
}

// Calendar builds the calendar for the configured timezone and week start
func (c *Config) Calendar() (calendar.Calendar, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return calendar.Calendar{}, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return calendar.New(loc, weekdays[strings.ToLower(c.WeekStart)]), nil
}

// Policy builds the working-hour policy, overrides in file order
func (c *Config) Policy() (workday.Policy, error) {
	policy := workday.Policy{
		Default: workday.Hours{Start: c.Workday.StartHour, End: c.Workday.EndHour},
	}

	for i, o := range c.DayOverrides {
		var hours *workday.Hours
		if !o.Closed && o.StartHour != nil && o.EndHour != nil {
			hours = &workday.Hours{Start: *o.StartHour, End: *o.EndHour}
		}
		var anchor time.Time
		if o.Start != "" {
			parsed, err := time.Parse(dateLayout, o.Start)
			if err != nil {
				return workday.Policy{}, fmt.Errorf("dayOverrides[%d]: invalid start: %w", i, err)
			}
			anchor = parsed
		}
		override, err := workday.NewAnchoredOverride(o.RRule, anchor, o.Closed, hours)
		if err != nil {
			return workday.Policy{}, fmt.Errorf("dayOverrides[%d]: %w", i, err)
		}
		policy.Overrides = append(policy.Overrides, override)
	}

	if err := policy.Validate(); err != nil {
		return workday.Policy{}, err
	}
	return policy, nil
}

// Rooms builds the room catalog
func (c *Config) Rooms() (*rooms.Catalog, error) {
	return rooms.New(c.RoomCount)
}

// RosterClient returns the roster client settings
func (c *Config) RosterClient() rosterclient.Config {
	return rosterclient.Config{
		BaseURL:        c.Roster.BaseURL,
		Seed:           c.Roster.Seed,
		ResultsPerPage: c.Roster.ResultsPerPage,
		Timeout:        time.Duration(c.Roster.TimeoutSeconds) * time.Second,
		RetryCount:     c.Roster.RetryCount,
	}
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// findConfigFile searches the current directory, then the home directory, for
// autofit_config.<env>.yaml and then autofit_config.yaml
func findConfigFile(env string) (string, error) {
	names := []string{configBaseName + ".yaml"}
	if env != "" {
		names = append([]string{fmt.Sprintf("%s.%s.yaml", configBaseName, env)}, names...)
	}

	dirs := []string{"."}
	if homeDir, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, homeDir)
	}

	for _, name := range names {
		for _, dir := range dirs {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}
	}

	return "", fmt.Errorf("%s not found in current directory or home directory", strings.Join(names, " or "))
}
