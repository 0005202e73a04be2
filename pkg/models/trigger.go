package models

import "time"

// TriggerType identifies which Intention Engine handler processes a trigger.
// The set is closed: adding a variant requires handling it in the engine's
// exhaustive switch.
type TriggerType string

const (
	TriggerBuildBroken     TriggerType = "build_broken"
	TriggerTestFailure     TriggerType = "test_failure"
	TriggerSecurityAlert   TriggerType = "security_alert"
	TriggerComplexityAlert TriggerType = "complexity_alert"
	TriggerUserRequest     TriggerType = "user_request"
	TriggerScheduled       TriggerType = "scheduled"
	TriggerIdleOpportunity TriggerType = "idle_opportunity"
)

// Trigger is an opaque external event fed into the Intention Engine.
// Data carries handler-specific payload fields; handlers that find required
// fields missing produce no intention rather than an error.
type Trigger struct {
	Type        TriggerType    `yaml:"type" json:"type"`
	ProjectPath string         `yaml:"project_path" json:"project_path"`
	ChatID      int64          `yaml:"chat_id" json:"chat_id"`
	Data        map[string]any `yaml:"data,omitempty" json:"data,omitempty"`
	Timestamp   time.Time      `yaml:"timestamp" json:"timestamp"`
}
