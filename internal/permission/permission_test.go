package permission

import (
	"testing"

	"github.com/valter-silva-au/autopilot/pkg/models"
)

func TestStaticProvider_DefaultLevel(t *testing.T) {
	p := NewStaticProvider(models.PermSupervised)

	if got := p.Level(42); got != models.PermSupervised {
		t.Errorf("expected supervised, got %s", got)
	}
	prefs := p.PreferencesFor(42)
	if prefs.Level != models.PermSupervised {
		t.Errorf("preferences carry the default level, got %s", prefs.Level)
	}
	if want := models.DefaultPreferences(models.PermSupervised); prefs.MaxConcurrentActions != want.MaxConcurrentActions {
		t.Errorf("expected derived defaults, got %+v", prefs)
	}
}

func TestStaticProvider_PerChatOverride(t *testing.T) {
	p := NewStaticProvider(models.PermSupervised)

	custom := models.DefaultPreferences(models.PermAutonomous)
	custom.MaxConcurrentActions = 10
	p.SetPreferences(7, custom)

	if got := p.Level(7); got != models.PermAutonomous {
		t.Errorf("override level: got %s", got)
	}
	if got := p.PreferencesFor(7).MaxConcurrentActions; got != 10 {
		t.Errorf("override preferences: got %d", got)
	}

	// Other chats keep the default.
	if got := p.Level(8); got != models.PermSupervised {
		t.Errorf("unrelated chat must keep the default, got %s", got)
	}
}
