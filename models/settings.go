package models

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Settings represents the persisted application settings
type Settings struct {
	ScriptFolder       string `json:"script_folder"`
	LastSelectedScript string `json:"last_selected_script,omitempty"` // single-select mode only
}

// DefaultSettings returns the settings used on first run
func DefaultSettings() *Settings {
	return &Settings{}
}

// Mode selects how scripts are activated
type Mode int

const (
	// ModeMulti activates any number of scripts independently
	ModeMulti Mode = iota
	// ModeSingle keeps at most one script active
	ModeSingle
)

func (m Mode) String() string {
	if m == ModeSingle {
		return "single"
	}
	return "multi"
}

// ParseMode parses "multi" or "single"
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "multi":
		return ModeMulti, nil
	case "single":
		return ModeSingle, nil
	default:
		return ModeMulti, errors.Newf("invalid mode %q: expected multi or single", s)
	}
}
