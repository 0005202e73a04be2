// Package orchestrator executes agent workflows: dependency-ordered task
// graphs realized from decision action plans, dispatched to pluggable agent
// executors.
package orchestrator

import (
	"context"
	"sync"

	"github.com/valter-silva-au/autopilot/pkg/models"
)

// Executor is the agent capability boundary. Expected business failures go
// in the AgentResult; only infrastructure faults return a Go error.
type Executor interface {
	Execute(ctx context.Context, task *models.AgentTask) (models.AgentResult, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, task *models.AgentTask) (models.AgentResult, error)

// Execute implements Executor.
func (f ExecutorFunc) Execute(ctx context.Context, task *models.AgentTask) (models.AgentResult, error) {
	return f(ctx, task)
}

// Registry maps agent types to executors and tracks advisory busy state.
// Busy tracking is informational only: concurrent workflows may dispatch to
// the same agent type, since executors are stateless external calls.
type Registry struct {
	mu        sync.Mutex
	executors map[models.AgentType]Executor
	busy      map[models.AgentType]bool
}

// NewRegistry creates an empty executor registry.
func NewRegistry() *Registry {
	return &Registry{
		executors: make(map[models.AgentType]Executor),
		busy:      make(map[models.AgentType]bool),
	}
}

// Register installs an executor for the given agent type, replacing any
// previous registration.
func (r *Registry) Register(agentType models.AgentType, exec Executor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executors[agentType] = exec
}

// Executor returns the executor registered for the agent type.
func (r *Registry) Executor(agentType models.AgentType) (Executor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	exec, ok := r.executors[agentType]
	return exec, ok
}

// Busy reports the advisory busy flag for the agent type.
func (r *Registry) Busy(agentType models.AgentType) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.busy[agentType]
}

func (r *Registry) setBusy(agentType models.AgentType, busy bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.busy[agentType] = busy
}
