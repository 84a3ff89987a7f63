package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const keyJSON = `{"type":"service_account","client_email":"bot@example.iam.gserviceaccount.com"}`

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("LINE_CHANNEL_ACCESS_TOKEN", "access-token")
	t.Setenv("LINE_CHANNEL_SECRET", "channel-secret")
	t.Setenv("LINE_USER_ID", "U0123456789")
	t.Setenv("GCP_SERVICE_ACCOUNT", keyJSON)
	t.Setenv("GOOGLE_CALENDER_ID", "family@group.calendar.google.com")
}

func TestLoadConfigFromEnv(t *testing.T) {
	setRequiredEnv(t)

	loader, err := NewLoader("")
	require.NoError(t, err)
	cfg, err := loader.LoadConfig()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "access-token", cfg.ChannelAccessToken)
	assert.Equal(t, "channel-secret", cfg.ChannelSecret)
	assert.Equal(t, "U0123456789", cfg.RecipientID)
	assert.Equal(t, "family@group.calendar.google.com", cfg.CalendarID)
	assert.Equal(t, DefaultTimezone, cfg.Timezone)
	assert.Equal(t, DefaultLocale, cfg.Locale)
	assert.Equal(t, DefaultSchedule, cfg.Schedule)
	assert.Equal(t, DefaultWindowDays, cfg.WindowDays)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Tokyo", loc.String())
}

func TestLoadConfigCalendarIDSpelling(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("GOOGLE_CALENDER_ID", "")
	t.Setenv("GOOGLE_CALENDAR_ID", "correct@example.com")

	loader, err := NewLoader("")
	require.NoError(t, err)
	cfg, err := loader.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "correct@example.com", cfg.CalendarID)
}

func TestLoadConfigFileWithEnvOverride(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CALBRIEF_LOCALE", "en")

	path := filepath.Join(t.TempDir(), "calbrief.yaml")
	content := "timezone: Europe/Oslo\nlocale: ja\nwindow_days: 3\nschedule: \"30 6 * * 1-5\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	loader, err := NewLoader(path)
	require.NoError(t, err)
	cfg, err := loader.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "Europe/Oslo", cfg.Timezone)
	assert.Equal(t, "en", cfg.Locale)
	assert.Equal(t, 3, cfg.WindowDays)
	assert.Equal(t, "30 6 * * 1-5", cfg.Schedule)
}

func TestNewLoaderMissingFile(t *testing.T) {
	_, err := NewLoader(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &Config{Timezone: "Mars/Olympus"}
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissing)
	for _, name := range []string{"LINE_CHANNEL_ACCESS_TOKEN", "LINE_CHANNEL_SECRET", "LINE_USER_ID", "GCP_SERVICE_ACCOUNT", "GOOGLE_CALENDER_ID", "Mars/Olympus"} {
		assert.Contains(t, err.Error(), name)
	}
}

func TestValidateCalendar(t *testing.T) {
	cfg := &Config{ServiceAccount: keyJSON, CalendarID: "cal@example.com", Timezone: DefaultTimezone}
	assert.NoError(t, cfg.ValidateCalendar())
	assert.ErrorIs(t, cfg.Validate(), ErrMissing)

	cfg.CalendarID = ""
	err := cfg.ValidateCalendar()
	assert.ErrorIs(t, err, ErrMissing)
	assert.Contains(t, err.Error(), "GOOGLE_CALENDER_ID")
	assert.NotContains(t, err.Error(), "LINE_")
}

func TestLoadConfigDoesNotValidate(t *testing.T) {
	t.Setenv("LINE_CHANNEL_ACCESS_TOKEN", "")
	loader, err := NewLoader("")
	require.NoError(t, err)
	cfg, err := loader.LoadConfig()
	require.NoError(t, err)
	assert.ErrorIs(t, cfg.Validate(), ErrMissing)
}

func TestNormalize(t *testing.T) {
	cfg := &Config{WindowDays: -4}
	cfg.Normalize()
	assert.Equal(t, DefaultWindowDays, cfg.WindowDays)
	assert.Equal(t, DefaultListen, cfg.Listen)
	assert.Equal(t, DefaultLogFormat, cfg.LogFormat)
}

func TestReadCredentials(t *testing.T) {
	dir := t.TempDir()
	keyPath := filepath.Join(dir, "key.json")
	require.NoError(t, os.WriteFile(keyPath, []byte(keyJSON), 0o600))
	badPath := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(badPath, []byte("not json"), 0o600))

	tests := []struct {
		name    string
		value   string
		wantErr error
	}{
		{name: "inline", value: "  " + keyJSON + "\n"},
		{name: "at path", value: "@" + keyPath},
		{name: "plain path", value: keyPath},
		{name: "empty", value: "", wantErr: ErrMissing},
		{name: "inline malformed", value: `{"type":`, wantErr: ErrMalformedCredentials},
		{name: "file malformed", value: badPath, wantErr: ErrMalformedCredentials},
		{name: "missing file", value: "@" + filepath.Join(dir, "nope.json"), wantErr: os.ErrNotExist},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := ReadCredentials(tt.value)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, keyJSON, string(b))
		})
	}
}

func TestLoaderLoadCredentials(t *testing.T) {
	setRequiredEnv(t)
	loader, err := NewLoader("")
	require.NoError(t, err)
	b, err := loader.LoadCredentials()
	require.NoError(t, err)
	assert.JSONEq(t, keyJSON, string(b))
}

func TestYAMLRedactsSecrets(t *testing.T) {
	cfg := Config{
		ChannelAccessToken: "access-token",
		ChannelSecret:      "secret",
		RecipientID:        "U1",
		ServiceAccount:     keyJSON,
		CalendarID:         "cal@example.com",
	}
	b, err := cfg.YAML()
	require.NoError(t, err)
	out := string(b)

	assert.NotContains(t, out, "access-token")
	assert.NotContains(t, out, "client_email")
	assert.Contains(t, out, "redacted:12 chars")
	assert.Contains(t, out, "line_user_id: U1")
	assert.Contains(t, out, "google_calendar_id: cal@example.com")

	// Paths are not secret.
	cfg.ServiceAccount = "/etc/calbrief/key.json"
	assert.Equal(t, "/etc/calbrief/key.json", cfg.Redacted().ServiceAccount)
}
