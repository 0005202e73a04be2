package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/valter-silva-au/autopilot/internal/idgen"
	"github.com/valter-silva-au/autopilot/internal/observability"
	"github.com/valter-silva-au/autopilot/pkg/models"
)

// Orchestrator runs agent workflows to completion or first failure.
type Orchestrator struct {
	registry *Registry
	ids      idgen.Generator
	log      observability.EventLog
	now      func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithClock overrides the orchestrator's time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// NewOrchestrator creates an Orchestrator dispatching to the given registry.
// log may be nil.
func NewOrchestrator(registry *Registry, ids idgen.Generator, log observability.EventLog, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry: registry,
		ids:      ids,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RealizePlan converts a decision's action plan into an executable workflow.
func (o *Orchestrator) RealizePlan(d models.Decision) *models.AgentWorkflow {
	wf := &models.AgentWorkflow{
		ID:         o.ids.NextID("WFL"),
		DecisionID: d.ID,
		Status:     models.WorkflowPending,
	}
	for _, step := range d.ActionPlan {
		deps := make([]string, len(step.Dependencies))
		copy(deps, step.Dependencies)
		wf.Tasks = append(wf.Tasks, &models.AgentTask{
			ID:           step.ID,
			AgentType:    step.AgentType,
			Description:  step.Description,
			Dependencies: deps,
			Status:       models.TaskPending,
		})
	}
	return wf
}

// Orchestrate executes the workflow's tasks in dependency order. The graph
// is validated up front: unknown dependency IDs or cycles mark the affected
// tasks failed and the workflow failed before anything runs. Execution stops
// at the first task failure; completed tasks are not rolled back.
func (o *Orchestrator) Orchestrate(ctx context.Context, wf *models.AgentWorkflow) *models.AgentWorkflow {
	wf.Status = models.WorkflowRunning
	wf.StartedAt = o.now()
	observability.Emit(o.log, "INFO", observability.EventWorkflowStarted,
		fmt.Sprintf("workflow %s started with %d tasks", wf.ID, len(wf.Tasks)),
		map[string]any{"id": wf.ID, "tasks": len(wf.Tasks)})

	order, err := topoSort(wf)
	if err != nil {
		wf.Status = models.WorkflowFailed
		wf.FinishedAt = o.now()
		observability.Emit(o.log, "ERROR", observability.EventWorkflowFailed,
			fmt.Sprintf("workflow %s has an invalid task graph: %v", wf.ID, err),
			map[string]any{"id": wf.ID, "error": err.Error()})
		return wf
	}

	completed := make(map[string]bool, len(wf.Tasks))
	for _, task := range order {
		if ctx.Err() != nil {
			task.Status = models.TaskFailed
			task.Error = ctx.Err().Error()
			wf.Status = models.WorkflowFailed
			wf.FinishedAt = o.now()
			return wf
		}

		// Topological order guarantees dependencies ran already; a failed
		// one means we already stopped, so this is a consistency check.
		ready := true
		for _, dep := range task.Dependencies {
			if !completed[dep] {
				ready = false
				break
			}
		}
		if !ready {
			task.Status = models.TaskFailed
			task.Error = "dependency did not complete"
			wf.Status = models.WorkflowFailed
			wf.FinishedAt = o.now()
			return wf
		}

		if failed := o.runTask(ctx, task); failed {
			wf.Status = models.WorkflowFailed
			wf.FinishedAt = o.now()
			observability.Emit(o.log, "ERROR", observability.EventWorkflowFailed,
				fmt.Sprintf("workflow %s failed at task %s", wf.ID, task.ID),
				map[string]any{"id": wf.ID, "task": task.ID, "error": task.Error})
			return wf
		}
		completed[task.ID] = true
	}

	wf.Status = models.WorkflowCompleted
	wf.FinishedAt = o.now()
	observability.Emit(o.log, "INFO", observability.EventWorkflowCompleted,
		fmt.Sprintf("workflow %s completed", wf.ID), map[string]any{"id": wf.ID})
	return wf
}

// runTask dispatches one task and reports whether it failed.
func (o *Orchestrator) runTask(ctx context.Context, task *models.AgentTask) bool {
	exec, ok := o.registry.Executor(task.AgentType)
	if !ok {
		task.Status = models.TaskFailed
		task.Error = fmt.Sprintf("no executor registered for agent type %s", task.AgentType)
		return true
	}

	task.Status = models.TaskRunning
	o.registry.setBusy(task.AgentType, true)
	defer o.registry.setBusy(task.AgentType, false)

	result, err := exec.Execute(ctx, task)
	if err != nil {
		task.Status = models.TaskFailed
		task.Error = err.Error()
		return true
	}

	task.Result = &result
	if !result.Success {
		task.Status = models.TaskFailed
		task.Error = result.Error
		return true
	}

	task.Status = models.TaskCompleted
	return false
}

// topoSort orders tasks so every task follows its dependencies. Unknown
// dependency IDs and cycles are errors; the offending tasks are marked
// failed before the error returns.
func topoSort(wf *models.AgentWorkflow) ([]*models.AgentTask, error) {
	byID := make(map[string]*models.AgentTask, len(wf.Tasks))
	for _, t := range wf.Tasks {
		byID[t.ID] = t
	}

	// Unknown dependencies fail their task immediately.
	var badIDs []string
	for _, t := range wf.Tasks {
		for _, dep := range t.Dependencies {
			if _, ok := byID[dep]; !ok {
				t.Status = models.TaskFailed
				t.Error = fmt.Sprintf("unknown dependency %q", dep)
				badIDs = append(badIDs, t.ID)
				break
			}
		}
	}
	if len(badIDs) > 0 {
		return nil, fmt.Errorf("tasks with unknown dependencies: %v", badIDs)
	}

	indegree := make(map[string]int, len(wf.Tasks))
	dependents := make(map[string][]string)
	for _, t := range wf.Tasks {
		indegree[t.ID] = len(t.Dependencies)
		for _, dep := range t.Dependencies {
			dependents[dep] = append(dependents[dep], t.ID)
		}
	}

	var queue []string
	for _, t := range wf.Tasks {
		if indegree[t.ID] == 0 {
			queue = append(queue, t.ID)
		}
	}

	var order []*models.AgentTask
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, byID[id])
		for _, next := range dependents[id] {
			indegree[next]--
			if indegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if len(order) != len(wf.Tasks) {
		var cycleIDs []string
		for _, t := range wf.Tasks {
			if indegree[t.ID] > 0 {
				t.Status = models.TaskFailed
				t.Error = "dependency cycle"
				cycleIDs = append(cycleIDs, t.ID)
			}
		}
		return nil, fmt.Errorf("dependency cycle among tasks: %v", cycleIDs)
	}

	return order, nil
}
