package models

import "time"

// ActionCategory buckets an approval request for policy matching and batching.
type ActionCategory string

const (
	CategoryDeployment     ActionCategory = "deployment"
	CategoryDependency     ActionCategory = "dependency"
	CategoryRefactoring    ActionCategory = "refactoring"
	CategoryTesting        ActionCategory = "testing"
	CategoryImplementation ActionCategory = "implementation"
	CategoryFix            ActionCategory = "fix"
	CategoryAnalysis       ActionCategory = "analysis"
)

// ApprovalStatus is the lifecycle state of an approval request. Every status
// other than pending is terminal.
type ApprovalStatus string

const (
	ApprovalPending   ApprovalStatus = "pending"
	ApprovalApproved  ApprovalStatus = "approved"
	ApprovalDenied    ApprovalStatus = "denied"
	ApprovalExpired   ApprovalStatus = "expired"
	ApprovalCancelled ApprovalStatus = "cancelled"
)

// Terminal reports whether the status permits no further transition.
func (s ApprovalStatus) Terminal() bool {
	return s != ApprovalPending
}

// SystemApprover is the actor recorded on auto-approved requests.
const SystemApprover = "system"

// ApprovalRequest is a human-gated unit of work awaiting sign-off.
// Status is write-once-terminal: once non-pending it never changes again.
type ApprovalRequest struct {
	ID             string         `yaml:"id" json:"id"`
	ChatID         int64          `yaml:"chat_id" json:"chat_id"`
	ProjectPath    string         `yaml:"project_path" json:"project_path"`
	ActionID       string         `yaml:"action_id" json:"action_id"`
	ActionCategory ActionCategory `yaml:"action_category" json:"action_category"`
	Description    string         `yaml:"description,omitempty" json:"description,omitempty"`
	RiskLevel      RiskLevel      `yaml:"risk_level" json:"risk_level"`
	CreatedAt      time.Time      `yaml:"created_at" json:"created_at"`
	ExpiresAt      time.Time      `yaml:"expires_at" json:"expires_at"`
	Status         ApprovalStatus `yaml:"status" json:"status"`
	ApprovedBy     string         `yaml:"approved_by,omitempty" json:"approved_by,omitempty"`
	ApprovedAt     *time.Time     `yaml:"approved_at,omitempty" json:"approved_at,omitempty"`
	DeniedReason   string         `yaml:"denied_reason,omitempty" json:"denied_reason,omitempty"`
	ReminderSentAt *time.Time     `yaml:"reminder_sent_at,omitempty" json:"reminder_sent_at,omitempty"`
}

// ApprovalPolicy controls auto-approval behavior for one (chat, project) pair.
// Policies are created lazily from the user's permission level when absent.
type ApprovalPolicy struct {
	ChatID                 int64         `yaml:"chat_id" json:"chat_id"`
	ProjectPath            string        `yaml:"project_path" json:"project_path"`
	AutoApproveLowRisk     bool          `yaml:"auto_approve_low_risk" json:"auto_approve_low_risk"`
	AutoApproveTests       bool          `yaml:"auto_approve_tests" json:"auto_approve_tests"`
	RequireForDeployment   bool          `yaml:"require_for_deployment" json:"require_for_deployment"`
	RequireForDependencies bool          `yaml:"require_for_dependencies" json:"require_for_dependencies"`
	RequireForRefactoring  bool          `yaml:"require_for_refactoring" json:"require_for_refactoring"`
	ApprovalTimeout        time.Duration `yaml:"approval_timeout" json:"approval_timeout"`
}

// DefaultApprovalPolicy derives a policy from a user's permission level.
// The fail-safe direction is always toward requiring approval.
func DefaultApprovalPolicy(chatID int64, projectPath string, level PermissionLevel) ApprovalPolicy {
	policy := ApprovalPolicy{
		ChatID:                 chatID,
		ProjectPath:            projectPath,
		RequireForDeployment:   true,
		RequireForDependencies: true,
		RequireForRefactoring:  true,
		ApprovalTimeout:        time.Hour,
	}
	if level.AtLeast(PermSupervised) {
		policy.AutoApproveLowRisk = true
		policy.AutoApproveTests = true
	}
	if level.AtLeast(PermAutonomous) {
		policy.RequireForRefactoring = false
	}
	if level == PermFull {
		policy.RequireForDependencies = false
	}
	return policy
}

// BatchStatus is the lifecycle state of an approval batch.
type BatchStatus string

const (
	BatchOpen     BatchStatus = "open"
	BatchApproved BatchStatus = "approved"
	BatchDenied   BatchStatus = "denied"
)

// ApprovalBatch is a snapshot view over pending requests taken at creation
// time. Resolving the batch resolves each member independently.
type ApprovalBatch struct {
	ID         string         `yaml:"id" json:"id"`
	ChatID     int64          `yaml:"chat_id" json:"chat_id"`
	RequestIDs []string       `yaml:"request_ids" json:"request_ids"`
	Category   ActionCategory `yaml:"category,omitempty" json:"category,omitempty"`
	Status     BatchStatus    `yaml:"status" json:"status"`
	CreatedAt  time.Time      `yaml:"created_at" json:"created_at"`
}

// ApprovalStats summarizes the state of the approval queue.
type ApprovalStats struct {
	Pending            int                    `yaml:"pending" json:"pending"`
	Approved           int                    `yaml:"approved" json:"approved"`
	Denied             int                    `yaml:"denied" json:"denied"`
	Expired            int                    `yaml:"expired" json:"expired"`
	Cancelled          int                    `yaml:"cancelled" json:"cancelled"`
	ByCategory         map[ActionCategory]int `yaml:"by_category" json:"by_category"`
	MeanApprovalTime   time.Duration          `yaml:"mean_approval_time" json:"mean_approval_time"`
	ApprovalRate       float64                `yaml:"approval_rate" json:"approval_rate"`
}
