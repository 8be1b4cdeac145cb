package config

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/j-veylop/billing-report/internal/models"
)

// DateLayout is the format of --start and --end.
const DateLayout = "2006-01-02"

// Options are the raw command-line settings of one report run.
type Options struct {
	BaseURL     string
	Start       string
	End         string
	Mode        string
	Level       string
	APIKey      string
	OrgID       string
	OrgName     string
	OrgsPath    string
	Output      string
	HTTPTimeout time.Duration
	Workers     int
	Silent      bool
	Debug       bool
}

// Run is the validated form of Options.
type Run struct {
	Start     time.Time
	End       time.Time
	Selection models.Selection
}

// Validate checks the option combination and returns the parsed run
// settings. Every failure is a *ConfigError.
func (o Options) Validate() (Run, error) {
	var run Run

	if strings.TrimSpace(o.BaseURL) == "" {
		return run, configErr("--base-url", "required (or set LANGSMITH_ENDPOINT)")
	}

	start, err := parseDate("--start", o.Start)
	if err != nil {
		return run, err
	}
	end, err := parseDate("--end", o.End)
	if err != nil {
		return run, err
	}
	if !start.Before(end) {
		return run, configErr("--end", "must be after --start (%s >= %s)", o.Start, o.End)
	}

	mode := models.ModeGranular
	if o.Mode != "" {
		if mode, err = models.ParseMode(o.Mode); err != nil {
			return run, &ConfigError{Flag: "--mode", Err: err}
		}
	}
	level := models.LevelWorkspace
	if o.Level != "" {
		if level, err = models.ParseLevel(o.Level); err != nil {
			return run, &ConfigError{Flag: "--level", Err: err}
		}
	}

	switch {
	case o.APIKey == "" && o.OrgsPath == "":
		return run, configErr("", "provide either --api-key or --orgs")
	case o.APIKey != "" && o.OrgsPath != "":
		return run, configErr("", "--api-key and --orgs are mutually exclusive")
	}

	if o.OrgID != "" {
		if _, err := uuid.Parse(o.OrgID); err != nil {
			return run, &ConfigError{Flag: "--org-id", Reason: "not a UUID", Err: err}
		}
	}

	if o.Workers < 1 {
		return run, configErr("--workers", "must be at least 1, got %d", o.Workers)
	}

	run.Start = start
	run.End = end
	run.Selection = models.Selection{Mode: mode, Level: level}.Normalize()
	return run, nil
}

// Warnings lists option combinations that are legal but probably not what
// the caller meant. The run proceeds regardless.
func (o Options) Warnings() []string {
	var warnings []string
	if o.Silent && o.Output == "" {
		warnings = append(warnings,
			"--silent is set but --output is not; results will not be saved anywhere.")
	}
	if o.Mode == string(models.ModeOverview) && o.Level != "" && o.Level != string(models.LevelWorkspace) {
		warnings = append(warnings,
			"--level is ignored in overview mode (billing usage only provides workspace-level data).")
	}
	return warnings
}

// Credential builds the single-org credential from --api-key, --org-id and
// --org-name.
func (o Options) Credential() models.Credential {
	return models.Credential{
		APIKey:  strings.TrimSpace(o.APIKey),
		OrgID:   strings.TrimSpace(o.OrgID),
		OrgName: strings.TrimSpace(o.OrgName),
	}
}

func parseDate(flag, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, configErr(flag, "required (YYYY-MM-DD)")
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, &ConfigError{Flag: flag, Reason: "want YYYY-MM-DD", Err: err}
	}
	return t, nil
}
