package models

import "time"

// IntentionType represents the kind of work an intention proposes.
type IntentionType string

const (
	IntentFix       IntentionType = "fix"
	IntentTest      IntentionType = "test"
	IntentRefactor  IntentionType = "refactor"
	IntentUpdate    IntentionType = "update"
	IntentImplement IntentionType = "implement"
	IntentReview    IntentionType = "review"
	IntentAnalyze   IntentionType = "analyze"
)

// IntentionSource records where an intention originated.
type IntentionSource string

const (
	SourceMonitor  IntentionSource = "monitor"
	SourceUser     IntentionSource = "user"
	SourceSchedule IntentionSource = "schedule"
	SourceAnalysis IntentionSource = "analysis"
)

// Priority represents the urgency of an intention.
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// PriorityRank returns a sortable rank for a priority, urgent first.
// Unknown priorities sort last.
func PriorityRank(p Priority) int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	}
	return 4
}

// PriorityThreshold returns the minimum confidence an intention of the given
// priority must carry. Confidence is clamped upward to this value at creation.
func PriorityThreshold(p Priority) float64 {
	switch p {
	case PriorityUrgent:
		return 0.9
	case PriorityHigh:
		return 0.7
	case PriorityMedium:
		return 0.5
	case PriorityLow:
		return 0.3
	}
	return 0.3
}

// EvidenceType classifies a piece of supporting evidence.
type EvidenceType string

const (
	EvidenceBuildOutput EvidenceType = "build_output"
	EvidenceTestResult  EvidenceType = "test_result"
	EvidenceVulnReport  EvidenceType = "vulnerability_report"
	EvidenceMetric      EvidenceType = "metric"
	EvidenceUserMessage EvidenceType = "user_message"
)

// Evidence is an immutable observation attached to an intention at creation.
type Evidence struct {
	Type        EvidenceType `yaml:"type" json:"type"`
	Description string       `yaml:"description" json:"description"`
	Value       string       `yaml:"value" json:"value"`
	Location    string       `yaml:"location,omitempty" json:"location,omitempty"`
	Severity    string       `yaml:"severity,omitempty" json:"severity,omitempty"`
}

// Intention is a scored, evidenced candidate for autonomous action.
// Invariant: Confidence is in [0,1] and never below PriorityThreshold(Priority).
type Intention struct {
	ID              string            `yaml:"id" json:"id"`
	Type            IntentionType     `yaml:"type" json:"type"`
	Source          IntentionSource   `yaml:"source" json:"source"`
	Priority        Priority          `yaml:"priority" json:"priority"`
	Title           string            `yaml:"title" json:"title"`
	Description     string            `yaml:"description" json:"description"`
	Reasoning       string            `yaml:"reasoning" json:"reasoning"`
	Evidence        []Evidence        `yaml:"evidence,omitempty" json:"evidence,omitempty"`
	SuggestedAction string            `yaml:"suggested_action" json:"suggested_action"`
	Confidence      float64           `yaml:"confidence" json:"confidence"`
	ProjectPath     string            `yaml:"project_path" json:"project_path"`
	ChatID          int64             `yaml:"chat_id" json:"chat_id"`
	Timestamp       time.Time         `yaml:"timestamp" json:"timestamp"`
	ExpiresAt       time.Time         `yaml:"expires_at" json:"expires_at"`
	Metadata        map[string]string `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}

// Active reports whether the intention has not yet expired at the given time.
func (i Intention) Active(now time.Time) bool {
	return i.ExpiresAt.After(now)
}
