// Package approval implements the human-in-the-loop gate: approval requests
// with a write-once-terminal state machine, per-project policies, batch
// operations, and a self-rearming expiry/reminder sweep.
package approval

import (
	"fmt"
	"sync"
	"time"

	"github.com/valter-silva-au/autopilot/internal/idgen"
	"github.com/valter-silva-au/autopilot/internal/observability"
	"github.com/valter-silva-au/autopilot/internal/permission"
	"github.com/valter-silva-au/autopilot/internal/store"
	"github.com/valter-silva-au/autopilot/pkg/models"
)

// Defaults for the sweep machinery.
const (
	DefaultSweepInterval    = 5 * time.Minute
	DefaultReminderWindow   = 10 * time.Minute
	DefaultMaxBulkApprovals = 20
)

// Workflow is the Approval Workflow. All tables live in memory and are
// mirrored fire-and-forget to the fact store.
type Workflow struct {
	mu       sync.Mutex
	requests map[string]*models.ApprovalRequest
	policies map[string]models.ApprovalPolicy
	batches  map[string]*models.ApprovalBatch

	ids      idgen.Generator
	mirror   *store.Mirror
	log      observability.EventLog
	notifier observability.Notifier
	perms    permission.Provider

	sweepInterval   time.Duration
	reminderWindow  time.Duration
	approvalTimeout time.Duration
	maxBulk         int
	timer           *time.Timer
	stopped         bool
	now             func() time.Time
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithSweepInterval overrides the sweep timer period.
func WithSweepInterval(d time.Duration) Option {
	return func(w *Workflow) { w.sweepInterval = d }
}

// WithReminderWindow overrides how long before expiry a reminder fires.
func WithReminderWindow(d time.Duration) Option {
	return func(w *Workflow) { w.reminderWindow = d }
}

// WithMaxBulkApprovals overrides the batch size cap.
func WithMaxBulkApprovals(n int) Option {
	return func(w *Workflow) { w.maxBulk = n }
}

// WithApprovalTimeout overrides the request expiry window on lazily derived
// policies. Explicitly installed policies keep their own timeout.
func WithApprovalTimeout(d time.Duration) Option {
	return func(w *Workflow) { w.approvalTimeout = d }
}

// WithClock overrides the workflow's time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(w *Workflow) { w.now = now }
}

// NewWorkflow creates an Approval Workflow. mirror, log, and notifier may be
// nil. The sweep timer is not armed until Start is called.
func NewWorkflow(ids idgen.Generator, perms permission.Provider, mirror *store.Mirror, log observability.EventLog, notifier observability.Notifier, opts ...Option) *Workflow {
	w := &Workflow{
		requests:       make(map[string]*models.ApprovalRequest),
		policies:       make(map[string]models.ApprovalPolicy),
		batches:        make(map[string]*models.ApprovalBatch),
		ids:            ids,
		mirror:         mirror,
		log:            log,
		notifier:       notifier,
		perms:          perms,
		sweepInterval:  DefaultSweepInterval,
		reminderWindow: DefaultReminderWindow,
		maxBulk:        DefaultMaxBulkApprovals,
		now:            func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.notifier == nil {
		w.notifier = observability.NopNotifier{}
	}
	return w
}

// Start arms the self-rearming sweep timer. Each tick expires overdue
// requests and sends due reminders, then re-arms itself, so at most one
// sweep is ever in flight.
func (w *Workflow) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = false
	if w.timer == nil {
		w.timer = time.AfterFunc(w.sweepInterval, w.sweepAndRearm)
	}
}

// Stop clears the sweep timer. In-flight sweeps are not interrupted.
func (w *Workflow) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

func (w *Workflow) sweepAndRearm() {
	w.Sweep()

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.stopped {
		w.timer = time.AfterFunc(w.sweepInterval, w.sweepAndRearm)
	}
}

// policyKey builds the policy table key for one (chat, project) pair.
func policyKey(chatID int64, projectPath string) string {
	return fmt.Sprintf("%d:%s", chatID, projectPath)
}

// policyFor returns the policy for (chatID, projectPath), lazily deriving
// one from the user's permission level if absent. Caller holds w.mu.
func (w *Workflow) policyFor(chatID int64, projectPath string) models.ApprovalPolicy {
	key := policyKey(chatID, projectPath)
	if p, ok := w.policies[key]; ok {
		return p
	}
	p := models.DefaultApprovalPolicy(chatID, projectPath, w.perms.Level(chatID))
	if w.approvalTimeout > 0 {
		p.ApprovalTimeout = w.approvalTimeout
	}
	w.policies[key] = p
	w.mirror.Put("approval_policy:"+key, p)
	return p
}

// SetPolicy installs an explicit policy for one (chat, project) pair.
func (w *Workflow) SetPolicy(policy models.ApprovalPolicy) {
	w.mu.Lock()
	defer w.mu.Unlock()
	key := policyKey(policy.ChatID, policy.ProjectPath)
	w.policies[key] = policy
	w.mirror.Put("approval_policy:"+key, policy)
}

// Policy returns the effective policy for one (chat, project) pair,
// creating it lazily if needed.
func (w *Workflow) Policy(chatID int64, projectPath string) models.ApprovalPolicy {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.policyFor(chatID, projectPath)
}

// needsApproval evaluates the policy against a draft request. Any ambiguity
// resolves toward requiring approval.
func needsApproval(policy models.ApprovalPolicy, req models.ApprovalRequest) bool {
	switch req.ActionCategory {
	case models.CategoryDeployment:
		if policy.RequireForDeployment {
			return true
		}
	case models.CategoryDependency:
		if policy.RequireForDependencies {
			return true
		}
	case models.CategoryRefactoring:
		if policy.RequireForRefactoring {
			return true
		}
	}
	if req.RiskLevel == models.RiskLow && policy.AutoApproveLowRisk {
		return false
	}
	if req.ActionCategory == models.CategoryTesting && policy.AutoApproveTests {
		return false
	}
	return true
}

// RequestApproval files a draft request. If the policy auto-approves it, the
// returned request is already approved by "system" and never enters the
// pending queue; otherwise it is stored pending with a policy-driven expiry.
func (w *Workflow) RequestApproval(draft models.ApprovalRequest) models.ApprovalRequest {
	w.mu.Lock()
	policy := w.policyFor(draft.ChatID, draft.ProjectPath)

	now := w.now()
	req := draft
	req.ID = w.ids.NextID("APR")
	req.CreatedAt = now

	if !needsApproval(policy, req) {
		req.Status = models.ApprovalApproved
		req.ApprovedBy = models.SystemApprover
		approvedAt := now
		req.ApprovedAt = &approvedAt
	} else {
		req.Status = models.ApprovalPending
		req.ExpiresAt = now.Add(policy.ApprovalTimeout)
	}

	w.requests[req.ID] = &req
	w.mu.Unlock()

	w.mirror.Put("approval_request:"+req.ID, req)
	observability.Emit(w.log, "INFO", observability.EventApprovalRequested,
		fmt.Sprintf("approval request %s (%s) is %s", req.ID, req.ActionCategory, req.Status),
		map[string]any{"id": req.ID, "category": string(req.ActionCategory), "status": string(req.Status), "risk": string(req.RiskLevel)})

	return req
}

// Request returns a copy of the request with the given ID.
func (w *Workflow) Request(id string) (models.ApprovalRequest, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	req, ok := w.requests[id]
	if !ok {
		return models.ApprovalRequest{}, false
	}
	return *req, true
}

// PendingRequests returns pending requests, optionally scoped to a chat and
// project (zero values match everything), oldest first.
func (w *Workflow) PendingRequests(chatID int64, projectPath string) []models.ApprovalRequest {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotPendingLocked(chatID, projectPath)
}

// resolve transitions a pending request into a terminal state. Returns false
// without side effects when the request is unknown or already terminal.
func (w *Workflow) resolve(id string, status models.ApprovalStatus, actor, reason string) bool {
	w.mu.Lock()
	req, ok := w.requests[id]
	if !ok || req.Status.Terminal() {
		w.mu.Unlock()
		return false
	}

	req.Status = status
	switch status {
	case models.ApprovalApproved:
		req.ApprovedBy = actor
		approvedAt := w.now()
		req.ApprovedAt = &approvedAt
	case models.ApprovalDenied:
		req.ApprovedBy = actor
		req.DeniedReason = reason
	}
	snapshot := *req
	w.mu.Unlock()

	w.mirror.Put("approval_request:"+id, snapshot)
	observability.Emit(w.log, "INFO", observability.EventApprovalResolved,
		fmt.Sprintf("approval request %s resolved: %s by %s", id, status, actor),
		map[string]any{"id": id, "status": string(status), "actor": actor})
	return true
}

// Approve transitions a pending request to approved.
func (w *Workflow) Approve(id, actor string) bool {
	return w.resolve(id, models.ApprovalApproved, actor, "")
}

// Deny transitions a pending request to denied with a reason.
func (w *Workflow) Deny(id, actor, reason string) bool {
	return w.resolve(id, models.ApprovalDenied, actor, reason)
}

// Cancel transitions a pending request to cancelled.
func (w *Workflow) Cancel(id, actor string) bool {
	return w.resolve(id, models.ApprovalCancelled, actor, "")
}

// Sweep expires pending requests past their deadline and sends one reminder
// per request entering the reminder window. Safe to call manually; the Start
// timer calls it on every tick.
func (w *Workflow) Sweep() (expired, reminded int) {
	now := w.now()
	var notifications []observability.Notification

	w.mu.Lock()
	for _, req := range w.requests {
		if req.Status != models.ApprovalPending {
			continue
		}
		switch {
		case !req.ExpiresAt.After(now):
			req.Status = models.ApprovalExpired
			expired++
			snapshot := *req
			w.mirror.Put("approval_request:"+req.ID, snapshot)
			notifications = append(notifications, observability.Notification{
				Kind:      observability.NotifyExpired,
				ChatID:    req.ChatID,
				RequestID: req.ID,
				Message:   fmt.Sprintf("Approval request %s (%s) expired without a response.", req.ID, req.ActionCategory),
				Time:      now,
			})
			observability.Emit(w.log, "WARN", observability.EventApprovalExpired,
				fmt.Sprintf("approval request %s expired", req.ID), map[string]any{"id": req.ID})
		case req.ReminderSentAt == nil && !req.ExpiresAt.Add(-w.reminderWindow).After(now):
			sentAt := now
			req.ReminderSentAt = &sentAt
			reminded++
			snapshot := *req
			w.mirror.Put("approval_request:"+req.ID, snapshot)
			notifications = append(notifications, observability.Notification{
				Kind:      observability.NotifyReminder,
				ChatID:    req.ChatID,
				RequestID: req.ID,
				Message:   fmt.Sprintf("Approval request %s (%s) expires at %s.", req.ID, req.ActionCategory, req.ExpiresAt.Format(time.RFC3339)),
				Time:      now,
			})
			observability.Emit(w.log, "INFO", observability.EventApprovalReminder,
				fmt.Sprintf("reminder sent for approval request %s", req.ID), map[string]any{"id": req.ID})
		}
	}
	w.mu.Unlock()

	_ = w.notifier.Notify(notifications)
	return expired, reminded
}

// Stats summarizes the approval queue.
func (w *Workflow) Stats() models.ApprovalStats {
	w.mu.Lock()
	defer w.mu.Unlock()

	stats := models.ApprovalStats{ByCategory: make(map[models.ActionCategory]int)}
	var totalApprovalTime time.Duration
	var timedApprovals int

	for _, req := range w.requests {
		stats.ByCategory[req.ActionCategory]++
		switch req.Status {
		case models.ApprovalPending:
			stats.Pending++
		case models.ApprovalApproved:
			stats.Approved++
			if req.ApprovedAt != nil {
				totalApprovalTime += req.ApprovedAt.Sub(req.CreatedAt)
				timedApprovals++
			}
		case models.ApprovalDenied:
			stats.Denied++
		case models.ApprovalExpired:
			stats.Expired++
		case models.ApprovalCancelled:
			stats.Cancelled++
		}
	}

	if timedApprovals > 0 {
		stats.MeanApprovalTime = totalApprovalTime / time.Duration(timedApprovals)
	}
	if stats.Denied == 0 {
		stats.ApprovalRate = 1
	} else {
		stats.ApprovalRate = float64(stats.Approved) / float64(stats.Approved+stats.Denied)
	}
	return stats
}
