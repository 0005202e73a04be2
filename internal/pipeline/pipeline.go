// Package pipeline composes the four core components into the end-to-end
// flow: trigger → intentions → decisions → approval gate → workflow
// execution.
package pipeline

import (
	"context"

	"github.com/valter-silva-au/autopilot/internal/approval"
	"github.com/valter-silva-au/autopilot/internal/decision"
	"github.com/valter-silva-au/autopilot/internal/intention"
	"github.com/valter-silva-au/autopilot/internal/orchestrator"
	"github.com/valter-silva-au/autopilot/pkg/models"
)

// Disposition says where an intention's journey through the pipeline ended.
type Disposition string

const (
	DispositionDeclined Disposition = "declined"          // decision said not to act
	DispositionAwaiting Disposition = "awaiting_approval" // parked until a human responds
	DispositionDenied   Disposition = "denied"            // approval denied before execution
	DispositionExecuted Disposition = "executed"          // workflow ran (inspect its status)
)

// Outcome is the result of pushing one intention through the pipeline.
type Outcome struct {
	Intention   models.Intention
	Decision    models.Decision
	Request     *models.ApprovalRequest
	Workflow    *models.AgentWorkflow
	Disposition Disposition
}

// Pipeline wires the Intention Engine, Decision Maker, Approval Workflow,
// and Workflow Orchestrator together.
type Pipeline struct {
	Engine       *intention.Engine
	Maker        *decision.Maker
	Approvals    *approval.Workflow
	Orchestrator *orchestrator.Orchestrator
}

// New creates a Pipeline over already-constructed components.
func New(engine *intention.Engine, maker *decision.Maker, approvals *approval.Workflow, orch *orchestrator.Orchestrator) *Pipeline {
	return &Pipeline{
		Engine:       engine,
		Maker:        maker,
		Approvals:    approvals,
		Orchestrator: orch,
	}
}

// categoryFor maps an intention type to its approval category.
func categoryFor(t models.IntentionType) models.ActionCategory {
	switch t {
	case models.IntentFix:
		return models.CategoryFix
	case models.IntentTest:
		return models.CategoryTesting
	case models.IntentRefactor:
		return models.CategoryRefactoring
	case models.IntentUpdate:
		return models.CategoryDependency
	case models.IntentImplement:
		return models.CategoryImplementation
	}
	return models.CategoryAnalysis
}

// Run pushes a trigger through the whole pipeline and returns one outcome
// per intention produced. Decisions that need approval are filed with the
// Approval Workflow; auto-approved ones execute immediately.
func (p *Pipeline) Run(ctx context.Context, trigger models.Trigger, dctx models.DecisionContext) []Outcome {
	intentions := p.Engine.ProcessTrigger(trigger)

	outcomes := make([]Outcome, 0, len(intentions))
	for _, intent := range intentions {
		outcomes = append(outcomes, p.advance(ctx, intent, dctx))
	}
	return outcomes
}

// advance runs one intention from decision to its resting state.
func (p *Pipeline) advance(ctx context.Context, intent models.Intention, dctx models.DecisionContext) Outcome {
	d := p.Maker.Evaluate(intent, dctx)
	out := Outcome{Intention: intent, Decision: d}

	if !d.ShouldAct {
		out.Disposition = DispositionDeclined
		return out
	}

	if d.RequiresApproval {
		req := p.Approvals.RequestApproval(models.ApprovalRequest{
			ChatID:         intent.ChatID,
			ProjectPath:    intent.ProjectPath,
			ActionID:       d.ID,
			ActionCategory: categoryFor(intent.Type),
			Description:    intent.Title,
			RiskLevel:      models.MaxRiskLevel(d.Risks),
		})
		out.Request = &req
		if req.Status != models.ApprovalApproved {
			out.Disposition = DispositionAwaiting
			return out
		}
	}

	out.Workflow = p.Orchestrator.Orchestrate(ctx, p.Orchestrator.RealizePlan(d))
	out.Disposition = DispositionExecuted
	return out
}

// ExecuteApproved runs the workflow for a request a human has approved.
// Returns nil when the request is unknown, not approved, or its decision
// has expired out of the table.
func (p *Pipeline) ExecuteApproved(ctx context.Context, requestID string) *models.AgentWorkflow {
	req, ok := p.Approvals.Request(requestID)
	if !ok || req.Status != models.ApprovalApproved {
		return nil
	}
	d, ok := p.Maker.Get(req.ActionID)
	if !ok {
		return nil
	}
	return p.Orchestrator.Orchestrate(ctx, p.Orchestrator.RealizePlan(d))
}

// Sweep reaps expired intentions and decisions and runs one approval sweep.
func (p *Pipeline) Sweep() (intentions, decisions, approvals int) {
	intentions = p.Engine.ClearExpired()
	decisions = p.Maker.ClearExpired()
	approvals, _ = p.Approvals.Sweep()
	return intentions, decisions, approvals
}
