package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/autopilot/internal/pipeline"
	"github.com/valter-silva-au/autopilot/pkg/models"
)

var (
	triggerProject     string
	triggerChatID      int64
	triggerData        []string
	triggerHealth      int
	triggerTestsBroken bool
	triggerBuildBroken bool
	triggerUncommitted bool
	triggerQuietHours  bool
	triggerSuccessRate float64
)

var triggerCmd = &cobra.Command{
	Use:   "trigger <type>",
	Short: "Feed a trigger into the pipeline",
	Long: `Feed a trigger into the pipeline and run any resulting intentions through
decision, approval, and execution.

Trigger types: build_broken, test_failure, security_alert, complexity_alert,
user_request, scheduled, idle_opportunity. Payload fields are passed with
repeated --data key=value flags, e.g.:

  autopilot trigger security_alert --data package=left-pad --data severity=critical`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Pipeline == nil {
			return fmt.Errorf("pipeline not initialized")
		}

		data := make(map[string]any, len(triggerData))
		for _, kv := range triggerData {
			key, value, found := strings.Cut(kv, "=")
			if !found || key == "" {
				return fmt.Errorf("invalid --data entry %q, want key=value", kv)
			}
			data[key] = value
		}

		trigger := models.Trigger{
			Type:        models.TriggerType(args[0]),
			ProjectPath: triggerProject,
			ChatID:      triggerChatID,
			Data:        data,
			Timestamp:   time.Now().UTC(),
		}
		dctx := models.DecisionContext{
			ProjectHealth:         triggerHealth,
			TestsPassing:          !triggerTestsBroken,
			BuildStable:           !triggerBuildBroken,
			HasUncommittedChanges: triggerUncommitted,
			IsQuietHours:          triggerQuietHours,
			HistoricalSuccessRate: triggerSuccessRate,
		}

		outcomes := Pipeline.Run(cmd.Context(), trigger, dctx)
		if len(outcomes) == 0 {
			fmt.Println("Trigger produced no intentions.")
			return nil
		}

		for _, out := range outcomes {
			fmt.Printf("intention %s (%s, %s, confidence %.0f%%)\n",
				out.Intention.ID, out.Intention.Type, out.Intention.Priority, out.Intention.Confidence*100)
			fmt.Printf("  decision %s: act=%t approval=%t risk=%s\n",
				out.Decision.ID, out.Decision.ShouldAct, out.Decision.RequiresApproval, models.MaxRiskLevel(out.Decision.Risks))
			fmt.Printf("  %s\n", out.Decision.Reasoning)
			switch out.Disposition {
			case pipeline.DispositionAwaiting:
				fmt.Printf("  awaiting approval: request %s expires %s\n",
					out.Request.ID, out.Request.ExpiresAt.Format(time.RFC3339))
			case pipeline.DispositionExecuted:
				fmt.Printf("  workflow %s: %s\n", out.Workflow.ID, out.Workflow.Status)
				for _, task := range out.Workflow.Tasks {
					fmt.Printf("    %-8s %-10s %s\n", task.ID, task.Status, task.Description)
				}
			case pipeline.DispositionDeclined:
				fmt.Println("  declined: no action taken")
			}
		}
		return nil
	},
}

func init() {
	triggerCmd.Flags().StringVar(&triggerProject, "project", ".", "project path the trigger concerns")
	triggerCmd.Flags().Int64Var(&triggerChatID, "chat", 0, "chat ID of the user the trigger belongs to")
	triggerCmd.Flags().StringArrayVar(&triggerData, "data", nil, "payload field key=value (repeatable)")
	triggerCmd.Flags().IntVar(&triggerHealth, "health", 80, "project health score 0-100")
	triggerCmd.Flags().BoolVar(&triggerTestsBroken, "tests-failing", false, "mark the test suite as failing")
	triggerCmd.Flags().BoolVar(&triggerBuildBroken, "build-unstable", false, "mark the build as unstable")
	triggerCmd.Flags().BoolVar(&triggerUncommitted, "uncommitted", false, "mark the working tree as dirty")
	triggerCmd.Flags().BoolVar(&triggerQuietHours, "quiet-hours", false, "evaluate under quiet hours")
	triggerCmd.Flags().Float64Var(&triggerSuccessRate, "success-rate", 0.75, "historical success rate 0-1")
	rootCmd.AddCommand(triggerCmd)
}
