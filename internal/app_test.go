package internal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/valter-silva-au/autopilot/pkg/models"
)

func TestNewApp_WiresEverything(t *testing.T) {
	dir := t.TempDir()

	app, err := NewApp(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer app.Close()

	if app.Config == nil {
		t.Error("config not loaded")
	}
	if app.Facts == nil || app.Mirror == nil {
		t.Error("persistence boundary not wired")
	}
	if app.Engine == nil || app.Maker == nil || app.Approvals == nil || app.Orchestrator == nil {
		t.Error("core pipeline not wired")
	}
	if app.Pipeline == nil {
		t.Error("pipeline composition missing")
	}
	if app.EventLog == nil || app.MetricsCalc == nil {
		t.Error("observability not wired")
	}
	if app.Perms == nil {
		t.Error("permission provider missing")
	}

	// The event log file lives under the base path.
	if _, err := os.Stat(filepath.Join(dir, ".autopilot_events.jsonl")); err != nil {
		t.Errorf("event log file not created: %v", err)
	}
}

func TestNewApp_ConfigDrivesComponents(t *testing.T) {
	dir := t.TempDir()
	content := "ttl:\n  intention: 1h\napproval:\n  timeout: 2h\nconfidence:\n  floor: 0.6\npermission:\n  default: autonomous\n"
	if err := os.WriteFile(filepath.Join(dir, ".autopilotconfig"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	app, err := NewApp(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer app.Close()

	if app.Config.IntentionTTL != time.Hour {
		t.Errorf("intention ttl: got %s", app.Config.IntentionTTL)
	}
	if got := app.Perms.Level(0); got != "autonomous" {
		t.Errorf("default permission: got %s", got)
	}

	// The timeout reaches derived approval policies.
	if got := app.Approvals.Policy(0, "").ApprovalTimeout; got != 2*time.Hour {
		t.Errorf("approval timeout not threaded through: got %s", got)
	}

	// The floor reaches the engine: scheduled analysis has base confidence
	// 0.5 at low priority, so only the configured floor can raise it.
	created := app.Engine.ProcessTrigger(models.Trigger{Type: models.TriggerScheduled})
	if len(created) != 1 || created[0].Confidence != 0.6 {
		t.Errorf("confidence floor not threaded through: %+v", created)
	}
}

func TestResolveBasePath_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("AUTOPILOT_HOME", dir)

	if got := ResolveBasePath(); got != dir {
		t.Errorf("expected %s, got %s", dir, got)
	}
}

func TestClose_Flushes(t *testing.T) {
	app, err := NewApp(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := app.Close(); err != nil {
		t.Errorf("close: %v", err)
	}
}
