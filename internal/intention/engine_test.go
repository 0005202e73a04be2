package intention

import (
	"testing"
	"time"

	"github.com/valter-silva-au/autopilot/internal/idgen"
	"github.com/valter-silva-au/autopilot/pkg/models"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestProcessTrigger_BuildBroken(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	e := NewEngine(idgen.NewCounterGenerator(), nil, nil, WithClock(fixedClock(now)))

	intentions := e.ProcessTrigger(models.Trigger{
		Type:        models.TriggerBuildBroken,
		ProjectPath: "/work/api",
		ChatID:      7,
	})

	if len(intentions) != 1 {
		t.Fatalf("expected exactly one intention, got %d", len(intentions))
	}
	intent := intentions[0]
	if intent.Type != models.IntentFix {
		t.Errorf("expected fix intention, got %s", intent.Type)
	}
	if intent.Priority != models.PriorityUrgent {
		t.Errorf("expected urgent priority, got %s", intent.Priority)
	}
	if intent.Confidence < 0.9 {
		t.Errorf("urgent intention must carry confidence >= 0.9, got %.2f", intent.Confidence)
	}
	if intent.Source != models.SourceMonitor {
		t.Errorf("expected monitor source, got %s", intent.Source)
	}
	if intent.ID != "INT-00001" {
		t.Errorf("expected INT-00001, got %s", intent.ID)
	}
	if !intent.ExpiresAt.Equal(now.Add(DefaultIntentionTTL)) {
		t.Errorf("expected expiry %s, got %s", now.Add(DefaultIntentionTTL), intent.ExpiresAt)
	}
	if intent.ProjectPath != "/work/api" || intent.ChatID != 7 {
		t.Error("trigger provenance must be carried onto the intention")
	}
}

func TestProcessTrigger_MissingPayloadYieldsNothing(t *testing.T) {
	e := NewEngine(idgen.NewCounterGenerator(), nil, nil)

	tests := []struct {
		name    string
		trigger models.Trigger
	}{
		{"test_failure without failures", models.Trigger{Type: models.TriggerTestFailure}},
		{"security_alert without package", models.Trigger{Type: models.TriggerSecurityAlert}},
		{"complexity_alert without location", models.Trigger{Type: models.TriggerComplexityAlert}},
		{"user_request without request", models.Trigger{Type: models.TriggerUserRequest}},
		{"unknown trigger type", models.Trigger{Type: "meteor_strike"}},
		{"empty payload value", models.Trigger{Type: models.TriggerUserRequest, Data: map[string]any{"request": ""}}},
		{"non-string payload value", models.Trigger{Type: models.TriggerUserRequest, Data: map[string]any{"request": 42}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.ProcessTrigger(tt.trigger); len(got) != 0 {
				t.Errorf("expected no intentions, got %d", len(got))
			}
		})
	}
}

func TestProcessTrigger_SecurityAlertSeverity(t *testing.T) {
	e := NewEngine(idgen.NewCounterGenerator(), nil, nil)

	normal := e.ProcessTrigger(models.Trigger{
		Type: models.TriggerSecurityAlert,
		Data: map[string]any{"package": "left-pad"},
	})
	if len(normal) != 1 || normal[0].Priority != models.PriorityHigh {
		t.Fatalf("expected one high-priority intention, got %+v", normal)
	}
	if normal[0].Type != models.IntentUpdate {
		t.Errorf("expected update intention, got %s", normal[0].Type)
	}

	critical := e.ProcessTrigger(models.Trigger{
		Type: models.TriggerSecurityAlert,
		Data: map[string]any{"package": "left-pad", "severity": "critical"},
	})
	if len(critical) != 1 || critical[0].Priority != models.PriorityUrgent {
		t.Fatalf("critical severity must escalate to urgent, got %+v", critical)
	}
	if critical[0].Confidence < 0.9 {
		t.Errorf("urgent clamping must raise confidence to >= 0.9, got %.2f", critical[0].Confidence)
	}
}

func TestProcessTrigger_UserRequest(t *testing.T) {
	e := NewEngine(idgen.NewCounterGenerator(), nil, nil)

	intentions := e.ProcessTrigger(models.Trigger{
		Type: models.TriggerUserRequest,
		Data: map[string]any{"request": "add a retry flag"},
	})
	if len(intentions) != 1 {
		t.Fatalf("expected one intention, got %d", len(intentions))
	}
	intent := intentions[0]
	if intent.Type != models.IntentImplement || intent.Source != models.SourceUser {
		t.Errorf("expected implement/user, got %s/%s", intent.Type, intent.Source)
	}
	if len(intent.Evidence) != 1 || intent.Evidence[0].Type != models.EvidenceUserMessage {
		t.Errorf("expected the request captured as user_message evidence, got %+v", intent.Evidence)
	}
}

func TestIntentions_FilterAndSort(t *testing.T) {
	e := NewEngine(idgen.NewCounterGenerator(), nil, nil)

	e.ProcessTrigger(models.Trigger{Type: models.TriggerScheduled, ProjectPath: "/a"})
	e.ProcessTrigger(models.Trigger{Type: models.TriggerBuildBroken, ProjectPath: "/a"})
	e.ProcessTrigger(models.Trigger{Type: models.TriggerTestFailure, ProjectPath: "/b",
		Data: map[string]any{"failures": "TestX"}})

	all := e.Intentions(Filter{})
	if len(all) != 3 {
		t.Fatalf("expected 3 intentions, got %d", len(all))
	}
	// Urgent fix first, then high test, then low analyze.
	if all[0].Type != models.IntentFix || all[1].Type != models.IntentTest || all[2].Type != models.IntentAnalyze {
		t.Errorf("unexpected sort order: %s, %s, %s", all[0].Type, all[1].Type, all[2].Type)
	}

	byProject := e.Intentions(Filter{ProjectPath: "/b"})
	if len(byProject) != 1 || byProject[0].Type != models.IntentTest {
		t.Errorf("project filter failed: %+v", byProject)
	}

	byType := e.Intentions(Filter{Types: []models.IntentionType{models.IntentAnalyze}})
	if len(byType) != 1 || byType[0].Type != models.IntentAnalyze {
		t.Errorf("type filter failed: %+v", byType)
	}

	byConfidence := e.Intentions(Filter{MinConfidence: 0.9})
	if len(byConfidence) != 1 || byConfidence[0].Type != models.IntentFix {
		t.Errorf("confidence filter failed: %+v", byConfidence)
	}
}

func TestClearExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := now
	e := NewEngine(idgen.NewCounterGenerator(), nil, nil,
		WithTTL(time.Hour),
		WithClock(func() time.Time { return current }))

	e.ProcessTrigger(models.Trigger{Type: models.TriggerBuildBroken})

	if reaped := e.ClearExpired(); reaped != 0 {
		t.Errorf("nothing should expire immediately, reaped %d", reaped)
	}

	current = now.Add(2 * time.Hour)
	if reaped := e.ClearExpired(); reaped != 1 {
		t.Errorf("expected 1 expired intention, reaped %d", reaped)
	}
	if got := e.Intentions(Filter{}); len(got) != 0 {
		t.Errorf("expected empty table after expiry, got %d", len(got))
	}
}

func TestWithConfidenceFloor(t *testing.T) {
	e := NewEngine(idgen.NewCounterGenerator(), nil, nil, WithConfidenceFloor(0.7))

	// Scheduled analysis carries base confidence 0.5 at low priority, so the
	// configured floor is what raises it.
	created := e.ProcessTrigger(models.Trigger{Type: models.TriggerScheduled})
	if len(created) != 1 {
		t.Fatalf("expected 1 intention, got %d", len(created))
	}
	if created[0].Confidence != 0.7 {
		t.Errorf("expected the configured floor 0.7, got %.2f", created[0].Confidence)
	}

	// Out-of-range floors are ignored.
	e = NewEngine(idgen.NewCounterGenerator(), nil, nil, WithConfidenceFloor(1.5))
	created = e.ProcessTrigger(models.Trigger{Type: models.TriggerScheduled})
	if created[0].Confidence != 0.5 {
		t.Errorf("expected the default floor to stand, got %.2f", created[0].Confidence)
	}
}

func TestGet(t *testing.T) {
	e := NewEngine(idgen.NewCounterGenerator(), nil, nil)
	created := e.ProcessTrigger(models.Trigger{Type: models.TriggerBuildBroken})

	got, ok := e.Get(created[0].ID)
	if !ok {
		t.Fatal("expected intention to be retrievable")
	}
	if got.ID != created[0].ID {
		t.Errorf("expected %s, got %s", created[0].ID, got.ID)
	}
	if _, ok := e.Get("INT-99999"); ok {
		t.Error("expected unknown ID to report absent")
	}
}
