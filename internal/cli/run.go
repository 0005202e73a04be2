package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/valter-silva-au/autopilot/pkg/models"
)

// workflowFile is the on-disk shape accepted by `autopilot run`.
type workflowFile struct {
	Tasks []struct {
		ID           string   `yaml:"id"`
		Agent        string   `yaml:"agent"`
		Description  string   `yaml:"description"`
		Dependencies []string `yaml:"dependencies"`
	} `yaml:"tasks"`
}

var runCmd = &cobra.Command{
	Use:   "run <workflow.yaml>",
	Short: "Execute a workflow described in a YAML file",
	Long: `Execute a hand-written workflow of agent tasks. The file lists tasks
with an agent type (scout, builder, reviewer, tester, deployer) and optional
dependencies on other task IDs. Tasks run in dependency order; unknown
dependencies or cycles fail the workflow before anything runs.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Orchestrator == nil || IDGen == nil {
			return fmt.Errorf("orchestrator not initialized")
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading workflow file: %w", err)
		}
		var file workflowFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return fmt.Errorf("parsing workflow file: %w", err)
		}
		if len(file.Tasks) == 0 {
			return fmt.Errorf("workflow file %s defines no tasks", args[0])
		}

		wf := &models.AgentWorkflow{
			ID:     IDGen.NextID("WFL"),
			Status: models.WorkflowPending,
		}
		for _, t := range file.Tasks {
			wf.Tasks = append(wf.Tasks, &models.AgentTask{
				ID:           t.ID,
				AgentType:    models.AgentType(t.Agent),
				Description:  t.Description,
				Dependencies: t.Dependencies,
				Status:       models.TaskPending,
			})
		}

		wf = Orchestrator.Orchestrate(cmd.Context(), wf)

		fmt.Printf("Workflow %s: %s\n", wf.ID, wf.Status)
		for _, task := range wf.Tasks {
			fmt.Printf("  %-10s %-9s %-10s %s\n", task.ID, task.AgentType, task.Status, task.Description)
			if task.Result != nil && task.Result.Error != "" {
				fmt.Printf("    error: %s\n", task.Result.Error)
			}
		}
		if wf.Status == models.WorkflowFailed {
			return fmt.Errorf("workflow %s failed", wf.ID)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
