package models

import "fmt"

// Mode selects the upstream data source.
type Mode string

// Level selects the granularity of granular-mode reports.
type Level string

const (
	// ModeGranular reads per-workspace/per-project trace counts.
	ModeGranular Mode = "granular"
	// ModeOverview reads per-metric values per workspace from the billing provider.
	ModeOverview Mode = "overview"

	// LevelWorkspace reports one row per workspace.
	LevelWorkspace Level = "workspace"
	// LevelProject reports one row per project within each workspace.
	LevelProject Level = "project"
)

// ParseMode validates a --mode value.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeGranular, ModeOverview:
		return Mode(s), nil
	}
	return "", fmt.Errorf("invalid mode %q (want granular or overview)", s)
}

// ParseLevel validates a --level value.
func ParseLevel(s string) (Level, error) {
	switch Level(s) {
	case LevelWorkspace, LevelProject:
		return Level(s), nil
	}
	return "", fmt.Errorf("invalid level %q (want workspace or project)", s)
}

// Selection is the effective mode/level pair of a run. Overview mode has no
// levels, so Normalize folds any level into LevelWorkspace.
type Selection struct {
	Mode  Mode
	Level Level
}

// Normalize returns the selection with level cleared under overview mode.
func (s Selection) Normalize() Selection {
	if s.Mode == ModeOverview {
		s.Level = LevelWorkspace
	}
	if s.Level == "" {
		s.Level = LevelWorkspace
	}
	return s
}

// Columns returns the report header for the selection.
func (s Selection) Columns() []string {
	s = s.Normalize()
	switch {
	case s.Mode == ModeOverview:
		return []string{"org", "workspace", "metric", "value"}
	case s.Level == LevelProject:
		return []string{"org", "workspace", "project", "traces"}
	default:
		return []string{"org", "workspace", "traces"}
	}
}

// KeepsZeroRows reports whether rows with a zero count survive finalization.
// Only workspace-level granular reports back-fill idle workspaces.
func (s Selection) KeepsZeroRows() bool {
	s = s.Normalize()
	return s.Mode == ModeGranular && s.Level == LevelWorkspace
}

func (s Selection) String() string {
	s = s.Normalize()
	if s.Mode == ModeOverview {
		return string(s.Mode)
	}
	return string(s.Mode) + "/" + string(s.Level)
}
