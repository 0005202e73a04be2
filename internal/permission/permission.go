// Package permission provides the user permission/preferences boundary
// consumed by the Decision Maker and the Approval Workflow. Identity storage
// is an external collaborator; this package only defines the contract and a
// static in-process implementation.
package permission

import (
	"sync"

	"github.com/valter-silva-au/autopilot/pkg/models"
)

// Provider resolves a user's standing autonomy grant and preferences.
type Provider interface {
	Level(chatID int64) models.PermissionLevel
	PreferencesFor(chatID int64) models.Preferences
}

// StaticProvider serves a default level with optional per-chat overrides.
type StaticProvider struct {
	mu           sync.RWMutex
	defaultLevel models.PermissionLevel
	overrides    map[int64]models.Preferences
}

// NewStaticProvider creates a Provider whose users all hold defaultLevel
// until an override is set.
func NewStaticProvider(defaultLevel models.PermissionLevel) *StaticProvider {
	return &StaticProvider{
		defaultLevel: defaultLevel,
		overrides:    make(map[int64]models.Preferences),
	}
}

// Level returns the permission level for a chat.
func (p *StaticProvider) Level(chatID int64) models.PermissionLevel {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if prefs, ok := p.overrides[chatID]; ok {
		return prefs.Level
	}
	return p.defaultLevel
}

// PreferencesFor returns the preferences for a chat, deriving defaults from
// the permission level when no override exists.
func (p *StaticProvider) PreferencesFor(chatID int64) models.Preferences {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if prefs, ok := p.overrides[chatID]; ok {
		return prefs
	}
	return models.DefaultPreferences(p.defaultLevel)
}

// SetPreferences installs a per-chat preference override.
func (p *StaticProvider) SetPreferences(chatID int64, prefs models.Preferences) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.overrides[chatID] = prefs
}
