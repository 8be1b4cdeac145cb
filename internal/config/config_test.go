package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j-veylop/billing-report/internal/models"
)

const testOrgID = "7f6d1c3e-8c1b-4f4a-9a57-2b1f0f3c2d10"

func TestGetEnvString(t *testing.T) {
	t.Setenv("TEST_ENV_STRING", "test_value")

	assert.Equal(t, "test_value", getEnvString("TEST_ENV_STRING", "default"))
	assert.Equal(t, "default", getEnvString("NON_EXISTENT_BILLING_REPORT", "default"))
}

func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		name   string
		envVal string
		want   int
	}{
		{"Valid", "8", 8},
		{"Invalid", "eight", 4},
		{"Empty", "", 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_ENV_INT", tt.envVal)
			assert.Equal(t, tt.want, getEnvInt("TEST_ENV_INT", 4))
		})
	}
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name       string
		envVal     string
		defaultVal time.Duration
		want       time.Duration
	}{
		{"ValidDuration", "1m", time.Second, time.Minute},
		{"ValidSeconds", "60", time.Second, 60 * time.Second},
		{"Invalid", "invalid", time.Second, time.Second},
		{"Empty", "", time.Second, time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_ENV_DURATION", tt.envVal)
			assert.Equal(t, tt.want, getEnvDuration("TEST_ENV_DURATION", tt.defaultVal))
		})
	}
}

func TestEnsureDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir")

	require.NoError(t, EnsureDir(path))
	_, err := os.Stat(path)
	assert.NoError(t, err)
	assert.NoError(t, EnsureDir(""))
}

func TestGetEnvPaths(t *testing.T) {
	paths := getEnvPaths()
	require.NotEmpty(t, paths)

	cwd, err := os.Getwd()
	require.NoError(t, err)
	assert.Contains(t, paths, filepath.Join(cwd, ".env"))
}

// isolate points the working and home directories at an empty temp dir so no
// stray .env is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	for _, key := range []string{
		"LANGSMITH_ENDPOINT", "LANGSMITH_API_KEY", "LANGSMITH_ORG_ID",
		"REPORT_WORKERS", "REPORT_HTTP_TIMEOUT", "REPORT_HISTORY_DB",
	} {
		t.Setenv(key, "")
	}
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.BaseURL)
	assert.Equal(t, defaultWorkers, cfg.Workers)
	assert.Equal(t, defaultHTTPTimeout, cfg.HTTPTimeout)
}

func TestLoad_Environment(t *testing.T) {
	dir := isolate(t)
	t.Setenv("LANGSMITH_ENDPOINT", "https://langsmith.example.com")
	t.Setenv("REPORT_WORKERS", "2")
	t.Setenv("REPORT_HTTP_TIMEOUT", "30s")
	t.Setenv("REPORT_HISTORY_DB", filepath.Join(dir, "state", "history.db"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://langsmith.example.com", cfg.BaseURL)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)

	_, err = os.Stat(filepath.Join(dir, "state"))
	assert.NoError(t, err, "history directory should be created")
}

func TestLoad_WithEnvFile(t *testing.T) {
	dir := isolate(t)
	content := "LANGSMITH_ENDPOINT=https://env.example.com\nLANGSMITH_API_KEY=lsv2_sk_fromdotenv0000\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600))
	// godotenv does not override variables that are already set, even to "".
	require.NoError(t, os.Unsetenv("LANGSMITH_ENDPOINT"))
	require.NoError(t, os.Unsetenv("LANGSMITH_API_KEY"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com", cfg.BaseURL)
	assert.Equal(t, "lsv2_sk_fromdotenv0000", cfg.APIKey)
}

func validOptions() Options {
	return Options{
		BaseURL: "https://api.example.com",
		Start:   "2026-01-01",
		End:     "2026-02-01",
		Mode:    "granular",
		Level:   "workspace",
		APIKey:  "lsv2_sk_0123456789abcdef",
		Workers: 4,
	}
}

func TestOptions_Validate(t *testing.T) {
	run, err := validOptions().Validate()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), run.Start)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), run.End)
	assert.Equal(t, models.Selection{Mode: models.ModeGranular, Level: models.LevelWorkspace}, run.Selection)
}

func TestOptions_ValidateOverviewNormalizesLevel(t *testing.T) {
	opts := validOptions()
	opts.Mode = "overview"
	opts.Level = "project"

	run, err := opts.Validate()
	require.NoError(t, err)
	assert.Equal(t, models.LevelWorkspace, run.Selection.Level)
}

func TestOptions_ValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
		flag   string
	}{
		{"MissingBaseURL", func(o *Options) { o.BaseURL = " " }, "--base-url"},
		{"MissingStart", func(o *Options) { o.Start = "" }, "--start"},
		{"BadEnd", func(o *Options) { o.End = "02/01/2026" }, "--end"},
		{"StartEqualsEnd", func(o *Options) { o.End = o.Start }, "--end"},
		{"StartAfterEnd", func(o *Options) { o.Start, o.End = o.End, o.Start }, "--end"},
		{"BadMode", func(o *Options) { o.Mode = "detailed" }, "--mode"},
		{"BadLevel", func(o *Options) { o.Level = "org" }, "--level"},
		{"NoCredentials", func(o *Options) { o.APIKey = "" }, ""},
		{"BothCredentials", func(o *Options) { o.OrgsPath = "orgs.json" }, ""},
		{"BadOrgID", func(o *Options) { o.OrgID = "acme" }, "--org-id"},
		{"ZeroWorkers", func(o *Options) { o.Workers = 0 }, "--workers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := validOptions()
			tt.mutate(&opts)

			_, err := opts.Validate()
			require.Error(t, err)

			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr), "want *ConfigError, got %T", err)
			assert.Equal(t, tt.flag, cfgErr.Flag)
		})
	}
}

func TestOptions_ValidateAcceptsOrgID(t *testing.T) {
	opts := validOptions()
	opts.OrgID = testOrgID
	_, err := opts.Validate()
	assert.NoError(t, err)
}

func TestOptions_Warnings(t *testing.T) {
	opts := validOptions()
	assert.Empty(t, opts.Warnings())

	// Silent without output still validates; the results are simply lost.
	opts.Silent = true
	_, err := opts.Validate()
	require.NoError(t, err)
	warnings := opts.Warnings()
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "--silent")

	opts.Output = "report.csv"
	assert.Empty(t, opts.Warnings())

	opts.Mode = "overview"
	opts.Level = "project"
	warnings = opts.Warnings()
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "--level")
}

func TestOptions_Credential(t *testing.T) {
	opts := validOptions()
	opts.APIKey = "  lsv2_sk_0123456789abcdef "
	opts.OrgID = testOrgID
	opts.OrgName = "Acme"

	assert.Equal(t, models.Credential{
		APIKey:  "lsv2_sk_0123456789abcdef",
		OrgID:   testOrgID,
		OrgName: "Acme",
	}, opts.Credential())
}

func TestConfigError_Error(t *testing.T) {
	assert.Equal(t, "--workers: must be at least 1, got 0",
		configErr("--workers", "must be at least 1, got %d", 0).Error())

	inner := errors.New("boom")
	err := &ConfigError{Flag: "orgs.json", Reason: "malformed", Err: inner}
	assert.Equal(t, "orgs.json: malformed: boom", err.Error())
	assert.ErrorIs(t, err, inner)

	assert.Equal(t, "boom", (&ConfigError{Err: inner}).Error())
}
