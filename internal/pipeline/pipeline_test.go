package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/valter-silva-au/autopilot/internal/approval"
	"github.com/valter-silva-au/autopilot/internal/decision"
	"github.com/valter-silva-au/autopilot/internal/idgen"
	"github.com/valter-silva-au/autopilot/internal/intention"
	"github.com/valter-silva-au/autopilot/internal/orchestrator"
	"github.com/valter-silva-au/autopilot/internal/permission"
	"github.com/valter-silva-au/autopilot/pkg/models"
)

func newTestPipeline(level models.PermissionLevel, clock func() time.Time) *Pipeline {
	ids := idgen.NewCounterGenerator()
	perms := permission.NewStaticProvider(level)

	var engineOpts []intention.Option
	var makerOpts []decision.Option
	var approvalOpts []approval.Option
	if clock != nil {
		engineOpts = append(engineOpts, intention.WithClock(clock))
		makerOpts = append(makerOpts, decision.WithClock(clock))
		approvalOpts = append(approvalOpts, approval.WithClock(clock))
	}

	return New(
		intention.NewEngine(ids, nil, nil, engineOpts...),
		decision.NewMaker(ids, perms, nil, nil, makerOpts...),
		approval.NewWorkflow(ids, perms, nil, nil, nil, approvalOpts...),
		orchestrator.NewOrchestrator(orchestrator.NewSimulatedRegistry(), ids, nil),
	)
}

func healthyContext() models.DecisionContext {
	return models.DecisionContext{
		ProjectHealth: 85,
		TestsPassing:  true,
		BuildStable:   true,
	}
}

func scheduledTrigger() models.Trigger {
	return models.Trigger{
		Type:        models.TriggerScheduled,
		ProjectPath: "/work/demo",
		ChatID:      42,
	}
}

func userRequestTrigger(text string) models.Trigger {
	return models.Trigger{
		Type:        models.TriggerUserRequest,
		ProjectPath: "/work/demo",
		ChatID:      42,
		Data:        map[string]any{"request": text},
	}
}

func TestRun_AutoApprovedWorkExecutes(t *testing.T) {
	p := newTestPipeline(models.PermSupervised, nil)

	// Scheduled analysis is low risk and auto-approves under supervised.
	outcomes := p.Run(context.Background(), scheduledTrigger(), healthyContext())

	if len(outcomes) != 1 {
		t.Fatalf("expected 1 outcome, got %d", len(outcomes))
	}
	out := outcomes[0]
	if out.Disposition != DispositionExecuted {
		t.Fatalf("expected executed, got %s (reasoning: %s)", out.Disposition, out.Decision.Reasoning)
	}
	if out.Request != nil {
		t.Error("auto-executable work must not file an approval request")
	}
	if out.Workflow == nil || out.Workflow.Status != models.WorkflowCompleted {
		t.Fatalf("expected a completed workflow, got %+v", out.Workflow)
	}
	for _, task := range out.Workflow.Tasks {
		if task.Status != models.TaskCompleted {
			t.Errorf("task %s not completed: %s", task.ID, task.Status)
		}
	}
}

func TestRun_ImplementationParksForApproval(t *testing.T) {
	p := newTestPipeline(models.PermSupervised, nil)

	outcomes := p.Run(context.Background(), userRequestTrigger("add a retry flag"), healthyContext())

	if len(outcomes) != 1 {
		t.Fatalf("expected 1 outcome, got %d", len(outcomes))
	}
	out := outcomes[0]
	if out.Disposition != DispositionAwaiting {
		t.Fatalf("expected awaiting_approval, got %s (reasoning: %s)", out.Disposition, out.Decision.Reasoning)
	}
	if out.Workflow != nil {
		t.Error("parked work must not execute")
	}
	if out.Request == nil {
		t.Fatal("expected an approval request")
	}
	if out.Request.Status != models.ApprovalPending {
		t.Errorf("expected pending, got %s", out.Request.Status)
	}
	if out.Request.ActionCategory != models.CategoryImplementation {
		t.Errorf("expected implementation category, got %s", out.Request.ActionCategory)
	}
	if out.Request.ActionID != out.Decision.ID {
		t.Errorf("request must reference the decision: %s vs %s", out.Request.ActionID, out.Decision.ID)
	}

	pending := p.Approvals.PendingRequests(42, "/work/demo")
	if len(pending) != 1 || pending[0].ID != out.Request.ID {
		t.Errorf("request not in the pending queue: %v", pending)
	}
}

func TestExecuteApproved(t *testing.T) {
	p := newTestPipeline(models.PermSupervised, nil)

	outcomes := p.Run(context.Background(), userRequestTrigger("add a retry flag"), healthyContext())
	req := outcomes[0].Request

	if !p.Approvals.Approve(req.ID, "alice") {
		t.Fatal("expected approve to succeed")
	}
	wf := p.ExecuteApproved(context.Background(), req.ID)
	if wf == nil {
		t.Fatal("expected a workflow")
	}
	if wf.Status != models.WorkflowCompleted {
		t.Errorf("expected completed, got %s", wf.Status)
	}
	if wf.DecisionID != outcomes[0].Decision.ID {
		t.Errorf("workflow realizes the wrong decision: %s", wf.DecisionID)
	}
}

func TestExecuteApproved_Guards(t *testing.T) {
	p := newTestPipeline(models.PermSupervised, nil)

	if wf := p.ExecuteApproved(context.Background(), "APR-99999"); wf != nil {
		t.Error("unknown request must yield nil")
	}

	outcomes := p.Run(context.Background(), userRequestTrigger("add a retry flag"), healthyContext())
	req := outcomes[0].Request
	if wf := p.ExecuteApproved(context.Background(), req.ID); wf != nil {
		t.Error("a still-pending request must yield nil")
	}
	p.Approvals.Deny(req.ID, "alice", "no")
	if wf := p.ExecuteApproved(context.Background(), req.ID); wf != nil {
		t.Error("a denied request must yield nil")
	}
}

func TestExecuteApproved_ExpiredDecision(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := now
	p := newTestPipeline(models.PermSupervised, func() time.Time { return current })

	outcomes := p.Run(context.Background(), userRequestTrigger("add a retry flag"), healthyContext())
	req := outcomes[0].Request
	p.Approvals.Approve(req.ID, "alice")

	// Reap the decision before execution.
	current = now.Add(48 * time.Hour)
	p.Maker.ClearExpired()

	if wf := p.ExecuteApproved(context.Background(), req.ID); wf != nil {
		t.Error("an approved request whose decision expired must yield nil")
	}
}

func TestRun_ReadOnlyDeclines(t *testing.T) {
	p := newTestPipeline(models.PermReadOnly, nil)

	outcomes := p.Run(context.Background(), scheduledTrigger(), healthyContext())

	if len(outcomes) != 1 {
		t.Fatalf("expected 1 outcome, got %d", len(outcomes))
	}
	out := outcomes[0]
	if out.Disposition != DispositionDeclined {
		t.Errorf("expected declined, got %s", out.Disposition)
	}
	if out.Request != nil || out.Workflow != nil {
		t.Error("declined work must neither file a request nor execute")
	}
}

func TestRun_PayloadlessTriggerYieldsNothing(t *testing.T) {
	p := newTestPipeline(models.PermSupervised, nil)

	outcomes := p.Run(context.Background(), models.Trigger{
		Type:        models.TriggerTestFailure,
		ProjectPath: "/work/demo",
		ChatID:      42,
	}, healthyContext())

	if len(outcomes) != 0 {
		t.Errorf("expected no outcomes without a payload, got %d", len(outcomes))
	}
}

func TestSweep(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := now
	p := newTestPipeline(models.PermSupervised, func() time.Time { return current })

	p.Run(context.Background(), userRequestTrigger("add a retry flag"), healthyContext())

	if i, d, a := p.Sweep(); i != 0 || d != 0 || a != 0 {
		t.Fatalf("nothing should expire immediately: %d %d %d", i, d, a)
	}

	current = now.Add(72 * time.Hour)
	intentions, decisions, approvals := p.Sweep()
	if intentions != 1 {
		t.Errorf("expected 1 expired intention, got %d", intentions)
	}
	if decisions != 1 {
		t.Errorf("expected 1 expired decision, got %d", decisions)
	}
	if approvals != 1 {
		t.Errorf("expected 1 expired approval, got %d", approvals)
	}
}
