package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/autopilot/pkg/models"
)

var decisionsCmd = &cobra.Command{
	Use:   "decisions",
	Short: "List stored decisions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Maker == nil {
			return fmt.Errorf("decision maker not initialized")
		}

		decisions := Maker.Decisions()
		if len(decisions) == 0 {
			fmt.Println("No decisions stored.")
			return nil
		}

		fmt.Printf("%-12s %-12s %-5s %-8s %-8s %s\n", "ID", "INTENTION", "ACT", "APPROVAL", "RISK", "OUTCOME")
		for _, d := range decisions {
			fmt.Printf("%-12s %-12s %-5t %-8t %-8s %s\n",
				d.ID, d.IntentionID, d.ShouldAct, d.RequiresApproval, models.MaxRiskLevel(d.Risks), d.ExpectedOutcome)
		}
		return nil
	},
}

var decisionsShowCmd = &cobra.Command{
	Use:   "show <decision-id>",
	Short: "Show a decision's full reasoning and action plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Maker == nil {
			return fmt.Errorf("decision maker not initialized")
		}

		d, ok := Maker.Get(args[0])
		if !ok {
			return fmt.Errorf("decision %s not found", args[0])
		}

		fmt.Printf("Decision %s (intention %s)\n", d.ID, d.IntentionID)
		fmt.Printf("  act=%t approval=%t auto=%t confidence=%.0f%%\n",
			d.ShouldAct, d.RequiresApproval, d.CanAutoExecute, d.Confidence*100)
		fmt.Printf("  %s\n", d.Reasoning)
		fmt.Printf("  expected outcome: %s\n", d.ExpectedOutcome)
		if len(d.Risks) > 0 {
			fmt.Println("  risks:")
			for _, r := range d.Risks {
				fmt.Printf("    [%s p=%.2f] %s (mitigation: %s)\n", r.Level, r.Probability, r.Description, r.Mitigation)
			}
		}
		if len(d.ActionPlan) > 0 {
			fmt.Println("  plan:")
			for _, step := range d.ActionPlan {
				fmt.Printf("    %-8s %-9s %-6s %s\n", step.ID, step.AgentType, step.EstimatedDuration, step.Description)
			}
		}
		return nil
	},
}

var decisionsOverrideCmd = &cobra.Command{
	Use:   "override <decision-id> <act|skip>",
	Short: "Override a decision's verdict and clear its approval requirement",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Maker == nil {
			return fmt.Errorf("decision maker not initialized")
		}

		var shouldAct bool
		switch args[1] {
		case "act":
			shouldAct = true
		case "skip":
			shouldAct = false
		default:
			if v, err := strconv.ParseBool(args[1]); err == nil {
				shouldAct = v
			} else {
				return fmt.Errorf("verdict must be act or skip, got %q", args[1])
			}
		}

		if !Maker.OverrideDecision(args[0], shouldAct) {
			return fmt.Errorf("decision %s not found", args[0])
		}
		fmt.Printf("Decision %s overridden: act=%t, approval cleared.\n", args[0], shouldAct)
		return nil
	},
}

func init() {
	decisionsCmd.AddCommand(decisionsShowCmd)
	decisionsCmd.AddCommand(decisionsOverrideCmd)
	rootCmd.AddCommand(decisionsCmd)
}
