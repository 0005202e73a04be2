// Package intention translates observed triggers into scored intentions and
// maintains the intention table with TTL-based expiry.
package intention

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/valter-silva-au/autopilot/internal/idgen"
	"github.com/valter-silva-au/autopilot/internal/observability"
	"github.com/valter-silva-au/autopilot/internal/store"
	"github.com/valter-silva-au/autopilot/pkg/models"
)

// GlobalConfidenceFloor is the minimum confidence any intention may carry,
// before the per-priority threshold is applied on top.
const GlobalConfidenceFloor = 0.3

// DefaultIntentionTTL is how long an intention stays actionable.
const DefaultIntentionTTL = 24 * time.Hour

// Filter selects intentions from the table. All specified fields use AND
// logic: an intention must match every criterion.
type Filter struct {
	Types         []models.IntentionType
	Sources       []models.IntentionSource
	Priorities    []models.Priority
	MinConfidence float64
	ProjectPath   string
	ChatID        int64
	ActiveOnly    bool
}

// Engine is the Intention Engine. It is stateless per trigger call except
// for the intention table it maintains.
type Engine struct {
	mu         sync.RWMutex
	intentions map[string]models.Intention

	ids    idgen.Generator
	mirror *store.Mirror
	log    observability.EventLog
	ttl    time.Duration
	floor  float64
	now    func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithTTL overrides the default intention TTL.
func WithTTL(ttl time.Duration) Option {
	return func(e *Engine) { e.ttl = ttl }
}

// WithClock overrides the engine's time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithConfidenceFloor overrides the global confidence floor. Values outside
// (0,1] are ignored and the default stands.
func WithConfidenceFloor(floor float64) Option {
	return func(e *Engine) {
		if floor > 0 && floor <= 1 {
			e.floor = floor
		}
	}
}

// NewEngine creates an Intention Engine. mirror and log may be nil.
func NewEngine(ids idgen.Generator, mirror *store.Mirror, log observability.EventLog, opts ...Option) *Engine {
	e := &Engine{
		intentions: make(map[string]models.Intention),
		ids:        ids,
		mirror:     mirror,
		log:        log,
		ttl:        DefaultIntentionTTL,
		floor:      GlobalConfidenceFloor,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// draft is what a trigger handler produces before the engine assigns ID,
// timestamps, and clamps confidence.
type draft struct {
	Type            models.IntentionType
	Source          models.IntentionSource
	Priority        models.Priority
	Title           string
	Description     string
	Reasoning       string
	Evidence        []models.Evidence
	SuggestedAction string
	Confidence      float64
	Metadata        map[string]string
}

// ProcessTrigger maps a trigger to zero or more intentions. It never returns
// an error: unknown trigger types and handler misses are logged and yield an
// empty result.
func (e *Engine) ProcessTrigger(trigger models.Trigger) []models.Intention {
	drafts := e.handleTrigger(trigger)
	if len(drafts) == 0 {
		observability.Emit(e.log, "WARN", observability.EventTriggerRejected,
			fmt.Sprintf("trigger %s produced no intention", trigger.Type),
			map[string]any{"trigger_type": string(trigger.Type), "project": trigger.ProjectPath})
		return nil
	}

	now := e.now()
	intentions := make([]models.Intention, 0, len(drafts))
	for _, d := range drafts {
		intent := models.Intention{
			ID:              e.ids.NextID("INT"),
			Type:            d.Type,
			Source:          d.Source,
			Priority:        d.Priority,
			Title:           d.Title,
			Description:     d.Description,
			Reasoning:       d.Reasoning,
			Evidence:        d.Evidence,
			SuggestedAction: d.SuggestedAction,
			Confidence:      clampConfidence(d.Confidence, d.Priority, e.floor),
			ProjectPath:     trigger.ProjectPath,
			ChatID:          trigger.ChatID,
			Timestamp:       now,
			ExpiresAt:       now.Add(e.ttl),
			Metadata:        d.Metadata,
		}

		e.mu.Lock()
		e.intentions[intent.ID] = intent
		e.mu.Unlock()

		e.mirror.Put("intention:"+intent.ID, intent)
		observability.Emit(e.log, "INFO", observability.EventIntentionCreated,
			fmt.Sprintf("intention %s (%s) from %s trigger", intent.ID, intent.Type, trigger.Type),
			map[string]any{"id": intent.ID, "type": string(intent.Type), "priority": string(intent.Priority), "confidence": intent.Confidence})

		intentions = append(intentions, intent)
	}
	return intentions
}

// clampConfidence raises confidence to the floor and then to the priority
// threshold. Confidence is never decreased, and never exceeds 1.
func clampConfidence(confidence float64, priority models.Priority, floor float64) float64 {
	if confidence < floor {
		confidence = floor
	}
	if threshold := models.PriorityThreshold(priority); confidence < threshold {
		confidence = threshold
	}
	if confidence > 1 {
		confidence = 1
	}
	return confidence
}

// Get returns the intention with the given ID.
func (e *Engine) Get(id string) (models.Intention, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	intent, ok := e.intentions[id]
	return intent, ok
}

// Intentions returns intentions matching the filter, sorted by priority rank
// and then confidence descending.
func (e *Engine) Intentions(filter Filter) []models.Intention {
	now := e.now()

	e.mu.RLock()
	var out []models.Intention
	for _, intent := range e.intentions {
		if matchesFilter(intent, filter, now) {
			out = append(out, intent)
		}
	}
	e.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		ri, rj := models.PriorityRank(out[i].Priority), models.PriorityRank(out[j].Priority)
		if ri != rj {
			return ri < rj
		}
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ClearExpired removes intentions whose TTL has elapsed and returns how many
// were reaped. Expiry is pull-based: nothing is notified beyond the event log.
func (e *Engine) ClearExpired() int {
	now := e.now()

	e.mu.Lock()
	var expired []string
	for id, intent := range e.intentions {
		if !intent.Active(now) {
			expired = append(expired, id)
			delete(e.intentions, id)
		}
	}
	e.mu.Unlock()

	for _, id := range expired {
		e.mirror.Delete("intention:" + id)
		observability.Emit(e.log, "INFO", observability.EventIntentionExpired,
			fmt.Sprintf("intention %s expired", id), map[string]any{"id": id})
	}
	return len(expired)
}

func matchesFilter(intent models.Intention, filter Filter, now time.Time) bool {
	if filter.ActiveOnly && !intent.Active(now) {
		return false
	}
	if len(filter.Types) > 0 && !containsType(filter.Types, intent.Type) {
		return false
	}
	if len(filter.Sources) > 0 && !containsSource(filter.Sources, intent.Source) {
		return false
	}
	if len(filter.Priorities) > 0 && !containsPriority(filter.Priorities, intent.Priority) {
		return false
	}
	if filter.MinConfidence > 0 && intent.Confidence < filter.MinConfidence {
		return false
	}
	if filter.ProjectPath != "" && intent.ProjectPath != filter.ProjectPath {
		return false
	}
	if filter.ChatID != 0 && intent.ChatID != filter.ChatID {
		return false
	}
	return true
}

func containsType(list []models.IntentionType, t models.IntentionType) bool {
	for _, v := range list {
		if v == t {
			return true
		}
	}
	return false
}

func containsSource(list []models.IntentionSource, s models.IntentionSource) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsPriority(list []models.Priority, p models.Priority) bool {
	for _, v := range list {
		if v == p {
			return true
		}
	}
	return false
}
