package models

import "time"

// AgentType identifies a capability class of agent executor.
type AgentType string

const (
	AgentScout    AgentType = "scout"
	AgentBuilder  AgentType = "builder"
	AgentReviewer AgentType = "reviewer"
	AgentTester   AgentType = "tester"
	AgentDeployer AgentType = "deployer"
)

// TaskStatus is the lifecycle state of a single workflow task.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
)

// WorkflowStatus is the lifecycle state of a whole workflow.
type WorkflowStatus string

const (
	WorkflowPending   WorkflowStatus = "pending"
	WorkflowRunning   WorkflowStatus = "running"
	WorkflowCompleted WorkflowStatus = "completed"
	WorkflowFailed    WorkflowStatus = "failed"
)

// AgentResult is the outcome an executor reports for a task. Business
// failures set Success=false with Error filled in; only infrastructure
// faults surface as Go errors.
type AgentResult struct {
	Success bool     `yaml:"success" json:"success"`
	Changes []string `yaml:"changes,omitempty" json:"changes,omitempty"`
	Error   string   `yaml:"error,omitempty" json:"error,omitempty"`
}

// AgentTask is one node of an executable workflow graph. Dependencies
// reference sibling task IDs; a task runs only once all of them completed.
type AgentTask struct {
	ID           string       `yaml:"id" json:"id"`
	AgentType    AgentType    `yaml:"agent_type" json:"agent_type"`
	Description  string       `yaml:"description" json:"description"`
	Dependencies []string     `yaml:"dependencies,omitempty" json:"dependencies,omitempty"`
	Status       TaskStatus   `yaml:"status" json:"status"`
	Result       *AgentResult `yaml:"result,omitempty" json:"result,omitempty"`
	Error        string       `yaml:"error,omitempty" json:"error,omitempty"`
}

// AgentWorkflow is the executable task graph realizing a decision's action
// plan. The workflow fails permanently on the first task failure.
type AgentWorkflow struct {
	ID         string         `yaml:"id" json:"id"`
	DecisionID string         `yaml:"decision_id,omitempty" json:"decision_id,omitempty"`
	Tasks      []*AgentTask   `yaml:"tasks" json:"tasks"`
	Status     WorkflowStatus `yaml:"status" json:"status"`
	StartedAt  time.Time      `yaml:"started_at,omitempty" json:"started_at,omitempty"`
	FinishedAt time.Time      `yaml:"finished_at,omitempty" json:"finished_at,omitempty"`
}

// Task returns the task with the given ID, or nil.
func (w *AgentWorkflow) Task(id string) *AgentTask {
	for _, t := range w.Tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}
