package observability

import (
	"testing"
	"time"
)

func TestMetrics_Calculate(t *testing.T) {
	log, _ := newTempLog(t)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	_ = log.Write(Event{Time: base, Level: "INFO", Type: EventIntentionCreated})
	_ = log.Write(Event{Time: base.Add(time.Minute), Level: "INFO", Type: EventDecisionEvaluated})
	_ = log.Write(Event{Time: base.Add(2 * time.Minute), Level: "INFO", Type: EventApprovalRequested,
		Data: map[string]any{"status": "pending"}})
	_ = log.Write(Event{Time: base.Add(3 * time.Minute), Level: "INFO", Type: EventApprovalResolved,
		Data: map[string]any{"status": "approved"}})
	_ = log.Write(Event{Time: base.Add(4 * time.Minute), Level: "WARN", Type: EventApprovalExpired})
	_ = log.Write(Event{Time: base.Add(5 * time.Minute), Level: "INFO", Type: EventApprovalReminder})
	_ = log.Write(Event{Time: base.Add(6 * time.Minute), Level: "INFO", Type: EventWorkflowStarted})
	_ = log.Write(Event{Time: base.Add(7 * time.Minute), Level: "INFO", Type: EventWorkflowCompleted})

	m, err := NewMetricsCalculator(log).Calculate(time.Time{})
	if err != nil {
		t.Fatal(err)
	}

	if m.EventCount != 8 {
		t.Errorf("event count: got %d", m.EventCount)
	}
	if m.IntentionsCreated != 1 || m.DecisionsEvaluated != 1 || m.ApprovalsRequested != 1 {
		t.Errorf("unexpected counts: %+v", m)
	}
	if m.ApprovalsByStatus["pending"] != 1 || m.ApprovalsByStatus["approved"] != 1 || m.ApprovalsByStatus["expired"] != 1 {
		t.Errorf("approvals by status: %v", m.ApprovalsByStatus)
	}
	if m.RemindersSent != 1 {
		t.Errorf("reminders: got %d", m.RemindersSent)
	}
	if m.WorkflowsStarted != 1 || m.WorkflowsCompleted != 1 || m.WorkflowsFailed != 0 {
		t.Errorf("workflow counts: %+v", m)
	}
	if m.OldestEvent == nil || !m.OldestEvent.Equal(base) {
		t.Errorf("oldest event: %v", m.OldestEvent)
	}
	if m.NewestEvent == nil || !m.NewestEvent.Equal(base.Add(7*time.Minute)) {
		t.Errorf("newest event: %v", m.NewestEvent)
	}
}

func TestMetrics_SinceWindow(t *testing.T) {
	log, _ := newTempLog(t)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	_ = log.Write(Event{Time: base, Level: "INFO", Type: EventIntentionCreated})
	_ = log.Write(Event{Time: base.Add(time.Hour), Level: "INFO", Type: EventIntentionCreated})

	m, err := NewMetricsCalculator(log).Calculate(base.Add(30 * time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if m.IntentionsCreated != 1 || m.EventCount != 1 {
		t.Errorf("since window should keep one event: %+v", m)
	}
}

func TestMetrics_EmptyLog(t *testing.T) {
	log, _ := newTempLog(t)

	m, err := NewMetricsCalculator(log).Calculate(time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if m.EventCount != 0 || m.OldestEvent != nil || m.NewestEvent != nil {
		t.Errorf("empty log should yield zero metrics: %+v", m)
	}
}
