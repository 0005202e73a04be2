package orchestrator

import (
	"context"
	"fmt"

	"github.com/valter-silva-au/autopilot/pkg/models"
)

// NewSimulatedRegistry returns a registry with a stand-in executor for every
// agent type. Each executor succeeds and records what it would have done.
// Used by the CLI when no real agents are wired and by tests.
func NewSimulatedRegistry() *Registry {
	r := NewRegistry()
	for _, agentType := range []models.AgentType{
		models.AgentScout,
		models.AgentBuilder,
		models.AgentReviewer,
		models.AgentTester,
		models.AgentDeployer,
	} {
		at := agentType
		r.Register(at, ExecutorFunc(func(ctx context.Context, task *models.AgentTask) (models.AgentResult, error) {
			if err := ctx.Err(); err != nil {
				return models.AgentResult{}, err
			}
			return models.AgentResult{
				Success: true,
				Changes: []string{fmt.Sprintf("[simulated] %s: %s", at, task.Description)},
			}, nil
		}))
	}
	return r
}
