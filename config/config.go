package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // the target zone must resolve in minimal containers

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Defaults for the ambient settings.
const (
	DefaultTimezone   = "Asia/Tokyo"
	DefaultLocale     = "ja"
	DefaultSchedule   = "0 7 * * *"
	DefaultListen     = ":8080"
	DefaultWindowDays = 15
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "text"
)

var (
	// ErrMissing marks a required setting that has no value.
	ErrMissing = errors.New("required setting is missing")
	// ErrMalformedCredentials marks a service account blob that is not JSON.
	ErrMalformedCredentials = errors.New("service account credential is not valid JSON")
)

// Config holds the application configuration.
type Config struct {
	ChannelAccessToken string `yaml:"line_channel_access_token"`
	ChannelSecret      string `yaml:"line_channel_secret"`
	RecipientID        string `yaml:"line_user_id"`
	// ServiceAccount is the JSON key itself, "@path", or a path to the key file.
	ServiceAccount string `yaml:"gcp_service_account"`
	CalendarID     string `yaml:"google_calendar_id"`

	Timezone   string `yaml:"timezone"`
	Locale     string `yaml:"locale"`
	Schedule   string `yaml:"schedule"`
	Listen     string `yaml:"listen"`
	WindowDays int    `yaml:"window_days"`
	LogLevel   string `yaml:"log_level"`
	LogFormat  string `yaml:"log_format"`
}

// Loader defines methods to load configuration and credentials.
type Loader interface {
	LoadConfig() (*Config, error)
	LoadCredentials() ([]byte, error)
}

// envBindings maps config keys to the environment names they are read from,
// in order of precedence.
var envBindings = map[string][]string{
	"line_channel_access_token": {"LINE_CHANNEL_ACCESS_TOKEN"},
	"line_channel_secret":       {"LINE_CHANNEL_SECRET"},
	"line_user_id":              {"LINE_USER_ID"},
	"gcp_service_account":       {"GCP_SERVICE_ACCOUNT"},
	"google_calendar_id":        {"GOOGLE_CALENDER_ID", "GOOGLE_CALENDAR_ID"},
	"timezone":                  {"CALBRIEF_TIMEZONE"},
	"locale":                    {"CALBRIEF_LOCALE"},
	"schedule":                  {"CALBRIEF_SCHEDULE"},
	"listen":                    {"CALBRIEF_LISTEN"},
	"window_days":               {"CALBRIEF_WINDOW_DAYS"},
	"log_level":                 {"CALBRIEF_LOG_LEVEL"},
	"log_format":                {"CALBRIEF_LOG_FORMAT"},
}

// ViperLoader implements Loader on top of environment variables and an
// optional YAML file. Environment values win over the file.
type ViperLoader struct {
	v *viper.Viper
}

// NewLoader prepares a ViperLoader. configPath may be empty.
func NewLoader(configPath string) (*ViperLoader, error) {
	v := viper.New()
	v.SetDefault("timezone", DefaultTimezone)
	v.SetDefault("locale", DefaultLocale)
	v.SetDefault("schedule", DefaultSchedule)
	v.SetDefault("listen", DefaultListen)
	v.SetDefault("window_days", DefaultWindowDays)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("log_format", DefaultLogFormat)

	for key, names := range envBindings {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("viper.BindEnv(%s): %w", key, err)
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("viper.ReadInConfig(%s): %w", configPath, err)
		}
	}
	return &ViperLoader{v: v}, nil
}

// LoadConfig reads and normalizes the configuration. Callers validate what
// their command needs.
func (l *ViperLoader) LoadConfig() (*Config, error) {
	cfg := &Config{
		ChannelAccessToken: l.v.GetString("line_channel_access_token"),
		ChannelSecret:      l.v.GetString("line_channel_secret"),
		RecipientID:        l.v.GetString("line_user_id"),
		ServiceAccount:     l.v.GetString("gcp_service_account"),
		CalendarID:         l.v.GetString("google_calendar_id"),
		Timezone:           l.v.GetString("timezone"),
		Locale:             l.v.GetString("locale"),
		Schedule:           l.v.GetString("schedule"),
		Listen:             l.v.GetString("listen"),
		WindowDays:         l.v.GetInt("window_days"),
		LogLevel:           l.v.GetString("log_level"),
		LogFormat:          l.v.GetString("log_format"),
	}
	cfg.Normalize()
	return cfg, nil
}

// LoadCredentials resolves the service account key to its JSON bytes.
func (l *ViperLoader) LoadCredentials() ([]byte, error) {
	return ReadCredentials(l.v.GetString("gcp_service_account"))
}

// ReadCredentials resolves an inline JSON key, "@path", or a plain path.
func ReadCredentials(value string) ([]byte, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, fmt.Errorf("GCP_SERVICE_ACCOUNT: %w", ErrMissing)
	}

	var b []byte
	switch {
	case strings.HasPrefix(value, "{"):
		b = []byte(value)
	default:
		path := strings.TrimPrefix(value, "@")
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("os.ReadFile(%s): %w", path, err)
		}
		b = data
	}

	if !json.Valid(b) {
		return nil, ErrMalformedCredentials
	}
	return b, nil
}

// Normalize fills in missing or out of range values with defaults.
func (c *Config) Normalize() {
	if c.Timezone == "" {
		c.Timezone = DefaultTimezone
	}
	if c.Locale == "" {
		c.Locale = DefaultLocale
	}
	if c.Schedule == "" {
		c.Schedule = DefaultSchedule
	}
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.WindowDays <= 0 {
		c.WindowDays = DefaultWindowDays
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
}

// Validate reports every missing required setting and an unknown timezone.
func (c *Config) Validate() error {
	return c.validate(
		requirement{"LINE_CHANNEL_ACCESS_TOKEN", c.ChannelAccessToken},
		requirement{"LINE_CHANNEL_SECRET", c.ChannelSecret},
		requirement{"LINE_USER_ID", c.RecipientID},
		requirement{"GCP_SERVICE_ACCOUNT", c.ServiceAccount},
		requirement{"GOOGLE_CALENDER_ID", c.CalendarID},
	)
}

// ValidateCalendar checks only what reading the calendar needs.
func (c *Config) ValidateCalendar() error {
	return c.validate(
		requirement{"GCP_SERVICE_ACCOUNT", c.ServiceAccount},
		requirement{"GOOGLE_CALENDER_ID", c.CalendarID},
	)
}

type requirement struct {
	name  string
	value string
}

func (c *Config) validate(required ...requirement) error {
	var errs []error
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs = append(errs, fmt.Errorf("%s: %w", r.name, ErrMissing))
		}
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone %q: %w", c.Timezone, err))
	}
	return errors.Join(errs...)
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("time.LoadLocation(%s): %w", c.Timezone, err)
	}
	return loc, nil
}

// Redacted returns a copy safe for printing.
func (c Config) Redacted() Config {
	c.ChannelAccessToken = mask(c.ChannelAccessToken)
	c.ChannelSecret = mask(c.ChannelSecret)
	if strings.HasPrefix(strings.TrimSpace(c.ServiceAccount), "{") {
		c.ServiceAccount = mask(c.ServiceAccount)
	}
	return c
}

// YAML renders the redacted configuration.
func (c Config) YAML() ([]byte, error) {
	b, err := yaml.Marshal(c.Redacted())
	if err != nil {
		return nil, fmt.Errorf("yaml.Marshal: %w", err)
	}
	return b, nil
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return fmt.Sprintf("[redacted:%d chars]", len(s))
}
