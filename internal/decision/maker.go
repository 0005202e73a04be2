// Package decision turns intentions into risk-assessed, plannable decisions:
// whether to act, whether a human must approve, and the agent action plan
// realizing the work.
package decision

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/valter-silva-au/autopilot/internal/idgen"
	"github.com/valter-silva-au/autopilot/internal/observability"
	"github.com/valter-silva-au/autopilot/internal/permission"
	"github.com/valter-silva-au/autopilot/internal/store"
	"github.com/valter-silva-au/autopilot/pkg/models"
)

// DefaultDecisionTTL is how long a decision remains executable.
const DefaultDecisionTTL = time.Hour

// minActionableConfidence is the confidence below which the maker declines
// to act regardless of other inputs.
const minActionableConfidence = 0.5

// Maker is the Decision Maker. Evaluation is a pure function of the
// intention, context snapshot, and user preferences; the Maker itself only
// stores the resulting decisions.
type Maker struct {
	mu        sync.RWMutex
	decisions map[string]models.Decision

	ids    idgen.Generator
	mirror *store.Mirror
	log    observability.EventLog
	perms  permission.Provider
	ttl    time.Duration
	now    func() time.Time
}

// Option configures a Maker.
type Option func(*Maker)

// WithTTL overrides the default decision TTL.
func WithTTL(ttl time.Duration) Option {
	return func(m *Maker) { m.ttl = ttl }
}

// WithClock overrides the maker's time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Maker) { m.now = now }
}

// NewMaker creates a Decision Maker. mirror and log may be nil.
func NewMaker(ids idgen.Generator, perms permission.Provider, mirror *store.Mirror, log observability.EventLog, opts ...Option) *Maker {
	m := &Maker{
		decisions: make(map[string]models.Decision),
		ids:       ids,
		mirror:    mirror,
		log:       log,
		perms:     perms,
		ttl:       DefaultDecisionTTL,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Evaluate produces a decision for the intention against the given context
// snapshot. Policy denials are data (ShouldAct=false), never errors.
func (m *Maker) Evaluate(intent models.Intention, ctx models.DecisionContext) models.Decision {
	prefs := m.perms.PreferencesFor(intent.ChatID)

	risks := assessRisks(intent, ctx)
	maxRisk := models.MaxRiskLevel(risks)

	shouldAct, actReason := decideShouldAct(intent, ctx, prefs, risks)
	requiresApproval, approvalReason := decideRequiresApproval(intent, ctx, prefs, maxRisk)

	plan := buildActionPlan(intent)
	confidence := recomputeConfidence(intent, ctx, prefs, maxRisk)

	now := m.now()
	d := models.Decision{
		ID:               m.ids.NextID("DEC"),
		IntentionID:      intent.ID,
		ShouldAct:        shouldAct,
		RequiresApproval: requiresApproval,
		CanAutoExecute:   shouldAct && !requiresApproval,
		ActionPlan:       plan,
		Risks:            risks,
		Confidence:       confidence,
		ExpectedOutcome:  expectedOutcome(intent),
		Reasoning:        buildReasoning(intent, confidence, maxRisk, shouldAct, actReason, requiresApproval, approvalReason),
		Timestamp:        now,
		ExpiresAt:        now.Add(m.ttl),
	}

	m.mu.Lock()
	m.decisions[d.ID] = d
	m.mu.Unlock()

	m.mirror.Put("decision:"+d.ID, d)
	observability.Emit(m.log, "INFO", observability.EventDecisionEvaluated,
		fmt.Sprintf("decision %s for intention %s: act=%t approval=%t", d.ID, intent.ID, shouldAct, requiresApproval),
		map[string]any{"id": d.ID, "intention_id": intent.ID, "should_act": shouldAct, "requires_approval": requiresApproval, "max_risk": string(maxRisk)})

	return d
}

// Get returns the decision with the given ID.
func (m *Maker) Get(id string) (models.Decision, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.decisions[id]
	return d, ok
}

// Decisions returns all stored decisions, newest first.
func (m *Maker) Decisions() []models.Decision {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Decision, 0, len(m.decisions))
	for _, d := range m.decisions {
		out = append(out, d)
	}
	sortDecisions(out)
	return out
}

// OverrideDecision is the only mutation path after creation: a human forces
// ShouldAct and clears RequiresApproval. Returns false for unknown IDs.
func (m *Maker) OverrideDecision(id string, shouldAct bool) bool {
	m.mu.Lock()
	d, ok := m.decisions[id]
	if !ok {
		m.mu.Unlock()
		return false
	}
	d.ShouldAct = shouldAct
	d.RequiresApproval = false
	d.CanAutoExecute = shouldAct
	m.decisions[id] = d
	m.mu.Unlock()

	m.mirror.Put("decision:"+id, d)
	observability.Emit(m.log, "INFO", observability.EventDecisionOverride,
		fmt.Sprintf("decision %s overridden: act=%t", id, shouldAct),
		map[string]any{"id": id, "should_act": shouldAct})
	return true
}

// ClearExpired removes decisions past their TTL and returns the count reaped.
func (m *Maker) ClearExpired() int {
	now := m.now()

	m.mu.Lock()
	var expired []string
	for id, d := range m.decisions {
		if !d.ExpiresAt.After(now) {
			expired = append(expired, id)
			delete(m.decisions, id)
		}
	}
	m.mu.Unlock()

	for _, id := range expired {
		m.mirror.Delete("decision:" + id)
		observability.Emit(m.log, "INFO", observability.EventDecisionExpired,
			fmt.Sprintf("decision %s expired", id), map[string]any{"id": id})
	}
	return len(expired)
}

func sortDecisions(decisions []models.Decision) {
	sort.Slice(decisions, func(i, j int) bool {
		if !decisions[i].Timestamp.Equal(decisions[j].Timestamp) {
			return decisions[i].Timestamp.After(decisions[j].Timestamp)
		}
		return decisions[i].ID > decisions[j].ID
	})
}
