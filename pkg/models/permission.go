package models

// PermissionLevel is a user's standing autonomy grant. Levels are ordered:
// read_only < advisory < supervised < autonomous < full.
type PermissionLevel string

const (
	PermReadOnly   PermissionLevel = "read_only"
	PermAdvisory   PermissionLevel = "advisory"
	PermSupervised PermissionLevel = "supervised"
	PermAutonomous PermissionLevel = "autonomous"
	PermFull       PermissionLevel = "full"
)

// PermissionRank returns the ordinal position of a level, read_only lowest.
// Unknown levels rank below read_only so an unrecognized grant never widens
// autonomy.
func PermissionRank(p PermissionLevel) int {
	switch p {
	case PermReadOnly:
		return 1
	case PermAdvisory:
		return 2
	case PermSupervised:
		return 3
	case PermAutonomous:
		return 4
	case PermFull:
		return 5
	}
	return 0
}

// AtLeast reports whether p grants at least the autonomy of other.
func (p PermissionLevel) AtLeast(other PermissionLevel) bool {
	return PermissionRank(p) >= PermissionRank(other)
}

// Preferences holds a user's autonomy preferences, consumed by the Decision
// Maker and used to derive default approval policies.
type Preferences struct {
	Level                PermissionLevel `yaml:"level" json:"level"`
	RequireApprovalFor   []IntentionType `yaml:"require_approval_for,omitempty" json:"require_approval_for,omitempty"`
	AutoApproveRisk      []RiskLevel     `yaml:"auto_approve_risk,omitempty" json:"auto_approve_risk,omitempty"`
	NotifyBeforeAction   bool            `yaml:"notify_before_action" json:"notify_before_action"`
	MaxConcurrentActions int             `yaml:"max_concurrent_actions" json:"max_concurrent_actions"`
}

// DefaultPreferences returns the preferences assumed for a user with the
// given permission level.
func DefaultPreferences(level PermissionLevel) Preferences {
	prefs := Preferences{
		Level:                level,
		AutoApproveRisk:      []RiskLevel{RiskLow},
		NotifyBeforeAction:   true,
		MaxConcurrentActions: 3,
	}
	switch level {
	case PermAutonomous, PermFull:
		prefs.AutoApproveRisk = []RiskLevel{RiskLow, RiskMedium}
		prefs.NotifyBeforeAction = level != PermFull
	case PermReadOnly, PermAdvisory:
		prefs.AutoApproveRisk = nil
		prefs.MaxConcurrentActions = 1
	}
	return prefs
}
