package models

// ScriptState is the three-way classification shown to the user
type ScriptState int

const (
	// StateInactive means the script exists in the source folder only
	StateInactive ScriptState = iota
	// StateActive means the script exists in both folders
	StateActive
	// StateOrphaned means the script exists in the destination only
	StateOrphaned
)

func (s ScriptState) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateOrphaned:
		return "orphaned"
	default:
		return "inactive"
	}
}

// ScriptFile represents a tracked script derived from a scan
type ScriptFile struct {
	Name          string
	InSource      bool
	InDestination bool
}

// State classifies the script from its presence in both folders
func (s ScriptFile) State() ScriptState {
	switch {
	case s.InDestination && s.InSource:
		return StateActive
	case s.InDestination:
		return StateOrphaned
	default:
		return StateInactive
	}
}

// Checked reports whether the script should be shown as enabled
func (s ScriptFile) Checked() bool {
	return s.InDestination
}
