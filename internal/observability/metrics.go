package observability

import (
	"fmt"
	"time"
)

// Metrics holds calculated pipeline metrics derived from the event log.
type Metrics struct {
	IntentionsCreated  int            `json:"intentions_created"`
	IntentionsExpired  int            `json:"intentions_expired"`
	TriggersRejected   int            `json:"triggers_rejected"`
	DecisionsEvaluated int            `json:"decisions_evaluated"`
	ApprovalsRequested int            `json:"approvals_requested"`
	ApprovalsByStatus  map[string]int `json:"approvals_by_status"`
	RemindersSent      int            `json:"reminders_sent"`
	WorkflowsStarted   int            `json:"workflows_started"`
	WorkflowsCompleted int            `json:"workflows_completed"`
	WorkflowsFailed    int            `json:"workflows_failed"`
	EventCount         int            `json:"event_count"`
	OldestEvent        *time.Time     `json:"oldest_event,omitempty"`
	NewestEvent        *time.Time     `json:"newest_event,omitempty"`
}

// MetricsCalculator derives metrics from the event log.
type MetricsCalculator interface {
	Calculate(since time.Time) (*Metrics, error)
}

// metricsCalculator implements MetricsCalculator by reading from an EventLog.
type metricsCalculator struct {
	eventLog EventLog
}

// NewMetricsCalculator creates a new MetricsCalculator that reads from the given EventLog.
func NewMetricsCalculator(eventLog EventLog) MetricsCalculator {
	return &metricsCalculator{eventLog: eventLog}
}

// Calculate reads all events since the given time and aggregates them into metrics.
func (mc *metricsCalculator) Calculate(since time.Time) (*Metrics, error) {
	events, err := mc.eventLog.Read(EventFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("reading events for metrics: %w", err)
	}

	m := &Metrics{
		ApprovalsByStatus: make(map[string]int),
	}

	m.EventCount = len(events)

	for i, event := range events {
		if i == 0 {
			t := event.Time
			m.OldestEvent = &t
		}
		t := event.Time
		m.NewestEvent = &t

		switch event.Type {
		case EventIntentionCreated:
			m.IntentionsCreated++
		case EventIntentionExpired:
			m.IntentionsExpired++
		case EventTriggerRejected:
			m.TriggersRejected++
		case EventDecisionEvaluated:
			m.DecisionsEvaluated++
		case EventApprovalRequested:
			m.ApprovalsRequested++
			if status, ok := event.Data["status"].(string); ok {
				m.ApprovalsByStatus[status]++
			}
		case EventApprovalResolved:
			if status, ok := event.Data["status"].(string); ok {
				m.ApprovalsByStatus[status]++
			}
		case EventApprovalExpired:
			m.ApprovalsByStatus["expired"]++
		case EventApprovalReminder:
			m.RemindersSent++
		case EventWorkflowStarted:
			m.WorkflowsStarted++
		case EventWorkflowCompleted:
			m.WorkflowsCompleted++
		case EventWorkflowFailed:
			m.WorkflowsFailed++
		}
	}

	return m, nil
}
