package observability

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTempLog(t *testing.T) (EventLog, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.jsonl")
	log, err := NewJSONLEventLog(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = log.Close() })
	return log, path
}

func event(at time.Time, level, eventType, msg string) Event {
	return Event{Time: at, Level: level, Type: eventType, Message: msg}
}

func TestEventLog_WriteAndReadBack(t *testing.T) {
	log, _ := newTempLog(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	want := Event{
		Time:    now,
		Level:   "INFO",
		Type:    EventIntentionCreated,
		Message: "intention INT-00001 created",
		Data:    map[string]any{"id": "INT-00001"},
	}
	if err := log.Write(want); err != nil {
		t.Fatal(err)
	}

	events, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	got := events[0]
	if !got.Time.Equal(now) || got.Level != "INFO" || got.Type != EventIntentionCreated || got.Message != want.Message {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.Data["id"] != "INT-00001" {
		t.Errorf("data lost: %v", got.Data)
	}
}

func TestEventLog_Filter(t *testing.T) {
	log, _ := newTempLog(t)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	_ = log.Write(event(base, "INFO", EventIntentionCreated, "a"))
	_ = log.Write(event(base.Add(time.Hour), "WARN", EventApprovalExpired, "b"))
	_ = log.Write(event(base.Add(2*time.Hour), "INFO", EventIntentionCreated, "c"))

	since := base.Add(30 * time.Minute)
	got, err := log.Read(EventFilter{Since: &since})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("since filter: expected 2, got %d", len(got))
	}

	until := base.Add(90 * time.Minute)
	got, _ = log.Read(EventFilter{Until: &until})
	if len(got) != 2 {
		t.Errorf("until filter: expected 2, got %d", len(got))
	}

	got, _ = log.Read(EventFilter{Type: EventApprovalExpired})
	if len(got) != 1 || got[0].Message != "b" {
		t.Errorf("type filter: got %v", got)
	}

	got, _ = log.Read(EventFilter{Level: "INFO"})
	if len(got) != 2 {
		t.Errorf("level filter: expected 2, got %d", len(got))
	}
}

func TestEventLog_SkipsMalformedLines(t *testing.T) {
	log, path := newTempLog(t)
	_ = log.Write(event(time.Now().UTC(), "INFO", EventIntentionCreated, "good"))

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("{not json\n\n"); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()
	_ = log.Write(event(time.Now().UTC(), "INFO", EventIntentionCreated, "after"))

	events, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Errorf("expected the 2 valid events, got %d", len(events))
	}
}

func TestEventLog_AppendsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")

	first, err := NewJSONLEventLog(path)
	if err != nil {
		t.Fatal(err)
	}
	_ = first.Write(event(time.Now().UTC(), "INFO", EventWorkflowStarted, "one"))
	if err := first.Close(); err != nil {
		t.Fatal(err)
	}

	second, err := NewJSONLEventLog(path)
	if err != nil {
		t.Fatal(err)
	}
	defer second.Close()
	_ = second.Write(event(time.Now().UTC(), "INFO", EventWorkflowCompleted, "two"))

	events, _ := second.Read(EventFilter{})
	if len(events) != 2 {
		t.Errorf("expected both events after reopen, got %d", len(events))
	}
}

func TestEmit_NilLogIsNoop(t *testing.T) {
	Emit(nil, "INFO", EventIntentionCreated, "ignored", nil)
}
