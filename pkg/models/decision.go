package models

import "time"

// RiskLevel grades the severity of a single risk.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// riskSeverityOrder is the fixed scan order used to derive a maximum risk.
var riskSeverityOrder = []RiskLevel{RiskCritical, RiskHigh, RiskMedium, RiskLow}

// MaxRiskLevel returns the most severe level present in risks, scanning
// critical → high → medium → low. An empty list is treated as low.
func MaxRiskLevel(risks []Risk) RiskLevel {
	for _, level := range riskSeverityOrder {
		for _, r := range risks {
			if r.Level == level {
				return level
			}
		}
	}
	return RiskLow
}

// Risk is a named failure mode with severity and an independent probability.
// A decision carries a list of risks; there is no aggregate score beyond
// MaxRiskLevel.
type Risk struct {
	Level       RiskLevel `yaml:"level" json:"level"`
	Description string    `yaml:"description" json:"description"`
	Mitigation  string    `yaml:"mitigation" json:"mitigation"`
	Probability float64   `yaml:"probability" json:"probability"`
}

// DecisionContext is an externally supplied snapshot of project state.
// The core reads it during evaluation and never persists it.
type DecisionContext struct {
	ProjectHealth         int      `yaml:"project_health" json:"project_health"`
	TestsPassing          bool     `yaml:"tests_passing" json:"tests_passing"`
	BuildStable           bool     `yaml:"build_stable" json:"build_stable"`
	HasUncommittedChanges bool     `yaml:"has_uncommitted_changes" json:"has_uncommitted_changes"`
	IsQuietHours          bool     `yaml:"is_quiet_hours" json:"is_quiet_hours"`
	HistoricalSuccessRate float64  `yaml:"historical_success_rate" json:"historical_success_rate"`
	UserGoalAlignment     *float64 `yaml:"user_goal_alignment,omitempty" json:"user_goal_alignment,omitempty"`
	ActiveActions         int      `yaml:"active_actions" json:"active_actions"`
}

// ActionStep is one node of a decision's action plan. Dependencies reference
// sibling step IDs only.
type ActionStep struct {
	ID                string        `yaml:"id" json:"id"`
	Description       string        `yaml:"description" json:"description"`
	AgentType         AgentType     `yaml:"agent_type" json:"agent_type"`
	EstimatedDuration time.Duration `yaml:"estimated_duration" json:"estimated_duration"`
	Reversible        bool          `yaml:"reversible" json:"reversible"`
	Dependencies      []string      `yaml:"dependencies,omitempty" json:"dependencies,omitempty"`
}

// Decision is a risk-assessed, plannable verdict on an intention.
// Invariant: CanAutoExecute == ShouldAct && !RequiresApproval.
type Decision struct {
	ID               string       `yaml:"id" json:"id"`
	IntentionID      string       `yaml:"intention_id" json:"intention_id"`
	ShouldAct        bool         `yaml:"should_act" json:"should_act"`
	RequiresApproval bool         `yaml:"requires_approval" json:"requires_approval"`
	CanAutoExecute   bool         `yaml:"can_auto_execute" json:"can_auto_execute"`
	ActionPlan       []ActionStep `yaml:"action_plan,omitempty" json:"action_plan,omitempty"`
	Risks            []Risk       `yaml:"risks,omitempty" json:"risks,omitempty"`
	Confidence       float64      `yaml:"confidence" json:"confidence"`
	ExpectedOutcome  string       `yaml:"expected_outcome" json:"expected_outcome"`
	Reasoning        string       `yaml:"reasoning" json:"reasoning"`
	Timestamp        time.Time    `yaml:"timestamp" json:"timestamp"`
	ExpiresAt        time.Time    `yaml:"expires_at" json:"expires_at"`
}
