package approval

import (
	"sync"
	"testing"
	"time"

	"github.com/valter-silva-au/autopilot/internal/idgen"
	"github.com/valter-silva-au/autopilot/internal/observability"
	"github.com/valter-silva-au/autopilot/internal/permission"
	"github.com/valter-silva-au/autopilot/pkg/models"
)

// recordingNotifier captures every notification sent to it.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []observability.Notification
}

func (n *recordingNotifier) Notify(batch []observability.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, batch...)
	return nil
}

func (n *recordingNotifier) byKind(kind observability.NotificationKind) []observability.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []observability.Notification
	for _, note := range n.sent {
		if note.Kind == kind {
			out = append(out, note)
		}
	}
	return out
}

func newTestWorkflow(level models.PermissionLevel, opts ...Option) *Workflow {
	return NewWorkflow(idgen.NewCounterGenerator(), permission.NewStaticProvider(level), nil, nil, nil, opts...)
}

func draftRequest(category models.ActionCategory, risk models.RiskLevel) models.ApprovalRequest {
	return models.ApprovalRequest{
		ChatID:         42,
		ProjectPath:    "/work/demo",
		ActionID:       "DEC-00001",
		ActionCategory: category,
		Description:    "test request",
		RiskLevel:      risk,
	}
}

func TestRequestApproval_AutoApprovesLowRisk(t *testing.T) {
	w := newTestWorkflow(models.PermSupervised)

	req := w.RequestApproval(draftRequest(models.CategoryFix, models.RiskLow))

	if req.Status != models.ApprovalApproved {
		t.Fatalf("expected approved, got %s", req.Status)
	}
	if req.ApprovedBy != models.SystemApprover {
		t.Errorf("expected system approver, got %q", req.ApprovedBy)
	}
	if req.ApprovedAt == nil {
		t.Error("expected ApprovedAt to be set on auto-approval")
	}
	if pending := w.PendingRequests(0, ""); len(pending) != 0 {
		t.Errorf("auto-approved request must not enter the pending queue, got %d", len(pending))
	}
}

func TestRequestApproval_DependencyStaysPending(t *testing.T) {
	w := newTestWorkflow(models.PermSupervised)

	// Dependency changes require human sign-off even at low risk.
	req := w.RequestApproval(draftRequest(models.CategoryDependency, models.RiskLow))

	if req.Status != models.ApprovalPending {
		t.Fatalf("expected pending, got %s", req.Status)
	}
	if req.ExpiresAt.IsZero() {
		t.Error("pending requests must carry an expiry")
	}
	pending := w.PendingRequests(42, "/work/demo")
	if len(pending) != 1 || pending[0].ID != req.ID {
		t.Errorf("expected the request in the pending queue, got %v", pending)
	}
}

func TestResolve_TerminalIsWriteOnce(t *testing.T) {
	w := newTestWorkflow(models.PermSupervised)
	req := w.RequestApproval(draftRequest(models.CategoryImplementation, models.RiskMedium))

	if !w.Deny(req.ID, "alice", "not now") {
		t.Fatal("expected the first deny to succeed")
	}
	if w.Approve(req.ID, "bob") {
		t.Error("approve after deny must fail")
	}
	if w.Deny(req.ID, "bob", "again") {
		t.Error("second deny must fail")
	}

	got, _ := w.Request(req.ID)
	if got.Status != models.ApprovalDenied {
		t.Errorf("status changed after terminal, got %s", got.Status)
	}
	if got.ApprovedBy != "alice" || got.DeniedReason != "not now" {
		t.Errorf("terminal fields changed: by=%q reason=%q", got.ApprovedBy, got.DeniedReason)
	}
}

func TestApprove_RecordsActorAndTime(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := now
	w := newTestWorkflow(models.PermSupervised, WithClock(func() time.Time { return current }))

	req := w.RequestApproval(draftRequest(models.CategoryImplementation, models.RiskMedium))
	current = now.Add(10 * time.Minute)
	if !w.Approve(req.ID, "alice") {
		t.Fatal("expected approve to succeed")
	}

	got, _ := w.Request(req.ID)
	if got.ApprovedBy != "alice" {
		t.Errorf("expected alice, got %q", got.ApprovedBy)
	}
	if got.ApprovedAt == nil || !got.ApprovedAt.Equal(now.Add(10*time.Minute)) {
		t.Errorf("unexpected ApprovedAt: %v", got.ApprovedAt)
	}
}

func TestCancel(t *testing.T) {
	w := newTestWorkflow(models.PermSupervised)
	req := w.RequestApproval(draftRequest(models.CategoryRefactoring, models.RiskMedium))

	if !w.Cancel(req.ID, "alice") {
		t.Fatal("expected cancel to succeed")
	}
	got, _ := w.Request(req.ID)
	if got.Status != models.ApprovalCancelled {
		t.Errorf("expected cancelled, got %s", got.Status)
	}
	if w.Cancel("APR-99999", "alice") {
		t.Error("unknown request must not be cancellable")
	}
}

func TestSweep_ExpiryAndSingleReminder(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := now
	notifier := &recordingNotifier{}
	w := NewWorkflow(idgen.NewCounterGenerator(), permission.NewStaticProvider(models.PermSupervised),
		nil, nil, notifier,
		WithClock(func() time.Time { return current }),
		WithReminderWindow(10*time.Minute))

	req := w.RequestApproval(draftRequest(models.CategoryDeployment, models.RiskMedium))
	// Default policy timeout is one hour.

	if expired, reminded := w.Sweep(); expired != 0 || reminded != 0 {
		t.Fatalf("nothing is due yet: expired=%d reminded=%d", expired, reminded)
	}

	// Enter the reminder window.
	current = now.Add(55 * time.Minute)
	if _, reminded := w.Sweep(); reminded != 1 {
		t.Fatalf("expected one reminder, got %d", reminded)
	}
	if _, reminded := w.Sweep(); reminded != 0 {
		t.Errorf("reminder must fire once, got another %d", reminded)
	}
	if got := notifier.byKind(observability.NotifyReminder); len(got) != 1 || got[0].RequestID != req.ID {
		t.Errorf("unexpected reminder notifications: %v", got)
	}

	// Pass the deadline.
	current = now.Add(2 * time.Hour)
	if expired, _ := w.Sweep(); expired != 1 {
		t.Fatalf("expected one expiry, got %d", expired)
	}
	got, _ := w.Request(req.ID)
	if got.Status != models.ApprovalExpired {
		t.Errorf("expected expired, got %s", got.Status)
	}
	if w.Approve(req.ID, "alice") {
		t.Error("expired requests must not be approvable")
	}
	if notes := notifier.byKind(observability.NotifyExpired); len(notes) != 1 {
		t.Errorf("expected one expiry notification, got %d", len(notes))
	}
}

func TestStats(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := now
	w := newTestWorkflow(models.PermSupervised, WithClock(func() time.Time { return current }))

	first := w.RequestApproval(draftRequest(models.CategoryDeployment, models.RiskMedium))
	w.RequestApproval(draftRequest(models.CategoryDependency, models.RiskMedium))
	current = now.Add(20 * time.Minute)
	w.Approve(first.ID, "alice")

	stats := w.Stats()
	if stats.Pending != 1 || stats.Approved != 1 || stats.Denied != 0 {
		t.Fatalf("unexpected counts: %+v", stats)
	}
	if stats.ApprovalRate != 1 {
		t.Errorf("approval rate with no denials must be 1, got %f", stats.ApprovalRate)
	}
	if stats.MeanApprovalTime != 20*time.Minute {
		t.Errorf("expected 20m mean approval time, got %s", stats.MeanApprovalTime)
	}
	if stats.ByCategory[models.CategoryDeployment] != 1 || stats.ByCategory[models.CategoryDependency] != 1 {
		t.Errorf("unexpected category counts: %v", stats.ByCategory)
	}

	w.Deny(w.PendingRequests(0, "")[0].ID, "alice", "no")
	stats = w.Stats()
	if stats.ApprovalRate != 0.5 {
		t.Errorf("expected 0.5 approval rate, got %f", stats.ApprovalRate)
	}
}

func TestPolicy_LazyDerivationAndOverride(t *testing.T) {
	w := newTestWorkflow(models.PermFull)

	p := w.Policy(42, "/work/demo")
	if !p.AutoApproveLowRisk || !p.AutoApproveTests {
		t.Errorf("full permission should auto-approve low risk and tests: %+v", p)
	}
	if p.RequireForRefactoring || p.RequireForDependencies {
		t.Errorf("full permission relaxes refactoring and dependency gates: %+v", p)
	}
	if !p.RequireForDeployment {
		t.Error("deployment approval is never relaxed")
	}

	p.AutoApproveLowRisk = false
	w.SetPolicy(p)
	req := w.RequestApproval(draftRequest(models.CategoryFix, models.RiskLow))
	if req.Status != models.ApprovalPending {
		t.Errorf("explicit policy must win over the derived one, got %s", req.Status)
	}
}

func TestWithApprovalTimeout_DrivesRequestExpiry(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	w := newTestWorkflow(models.PermSupervised,
		WithClock(func() time.Time { return now }),
		WithApprovalTimeout(2*time.Hour))

	req := w.RequestApproval(draftRequest(models.CategoryDeployment, models.RiskMedium))
	if got := req.ExpiresAt.Sub(req.CreatedAt); got != 2*time.Hour {
		t.Errorf("expected a 2h expiry window, got %s", got)
	}

	// An explicitly installed policy keeps its own timeout.
	policy := models.DefaultApprovalPolicy(7, "/work/other", models.PermSupervised)
	policy.ApprovalTimeout = 30 * time.Minute
	w.SetPolicy(policy)
	draft := draftRequest(models.CategoryDeployment, models.RiskMedium)
	draft.ChatID = 7
	draft.ProjectPath = "/work/other"
	req = w.RequestApproval(draft)
	if got := req.ExpiresAt.Sub(req.CreatedAt); got != 30*time.Minute {
		t.Errorf("explicit policy timeout must win, got %s", got)
	}
}

func TestSweepTimer_StartStop(t *testing.T) {
	w := newTestWorkflow(models.PermSupervised, WithSweepInterval(time.Hour))
	w.Start()
	w.Start() // idempotent
	w.Stop()
	w.Stop()
}
