package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/autopilot/pkg/models"
)

var (
	approvalsChatID  int64
	approvalsProject string
	approvalsActor   string
	approvalsReason  string
	batchCategory    string
)

var approvalsCmd = &cobra.Command{
	Use:   "approvals",
	Short: "Manage pending approval requests",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Approvals == nil {
			return fmt.Errorf("approval workflow not initialized")
		}

		pending := Approvals.PendingRequests(approvalsChatID, approvalsProject)
		if len(pending) == 0 {
			fmt.Println("No pending approval requests.")
			return nil
		}

		fmt.Printf("%-12s %-14s %-8s %-20s %s\n", "ID", "CATEGORY", "RISK", "EXPIRES", "DESCRIPTION")
		for _, r := range pending {
			fmt.Printf("%-12s %-14s %-8s %-20s %s\n",
				r.ID, r.ActionCategory, r.RiskLevel, r.ExpiresAt.Format("2006-01-02 15:04:05"), r.Description)
		}
		return nil
	},
}

var approvalsApproveCmd = &cobra.Command{
	Use:   "approve <request-id>",
	Short: "Approve a pending request and execute its action",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Approvals == nil || Pipeline == nil {
			return fmt.Errorf("approval workflow not initialized")
		}

		if !Approvals.Approve(args[0], approvalsActor) {
			return fmt.Errorf("request %s is not pending", args[0])
		}
		fmt.Printf("Request %s approved by %s.\n", args[0], approvalsActor)

		wf := Pipeline.ExecuteApproved(cmd.Context(), args[0])
		if wf == nil {
			fmt.Println("Decision has expired; nothing to execute.")
			return nil
		}
		fmt.Printf("Workflow %s finished with status %s.\n", wf.ID, wf.Status)
		return nil
	},
}

var approvalsDenyCmd = &cobra.Command{
	Use:   "deny <request-id>",
	Short: "Deny a pending request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Approvals == nil {
			return fmt.Errorf("approval workflow not initialized")
		}

		if !Approvals.Deny(args[0], approvalsActor, approvalsReason) {
			return fmt.Errorf("request %s is not pending", args[0])
		}
		fmt.Printf("Request %s denied by %s.\n", args[0], approvalsActor)
		return nil
	},
}

var approvalsCancelCmd = &cobra.Command{
	Use:   "cancel <request-id>",
	Short: "Cancel a pending request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Approvals == nil {
			return fmt.Errorf("approval workflow not initialized")
		}

		if !Approvals.Cancel(args[0], approvalsActor) {
			return fmt.Errorf("request %s is not pending", args[0])
		}
		fmt.Printf("Request %s cancelled.\n", args[0])
		return nil
	},
}

var approvalsBatchCmd = &cobra.Command{
	Use:   "batch <approve|deny>",
	Short: "Resolve matching pending requests in bulk",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Approvals == nil {
			return fmt.Errorf("approval workflow not initialized")
		}

		batch := Approvals.CreateBatch(approvalsChatID, approvalsProject, models.ActionCategory(batchCategory))
		if len(batch.RequestIDs) == 0 {
			fmt.Println("No pending requests match.")
			return nil
		}

		var resolved int
		switch args[0] {
		case "approve":
			resolved = Approvals.ApproveBatch(batch.ID, approvalsActor)
		case "deny":
			resolved = Approvals.DenyBatch(batch.ID, approvalsActor, approvalsReason)
		default:
			return fmt.Errorf("batch action must be approve or deny, got %q", args[0])
		}

		fmt.Printf("Batch %s: %d of %d requests resolved.\n", batch.ID, resolved, len(batch.RequestIDs))
		return nil
	},
}

var approvalsSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Expire overdue requests and send reminders now",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Approvals == nil {
			return fmt.Errorf("approval workflow not initialized")
		}

		expired, reminded := Approvals.Sweep()
		fmt.Printf("Expired %d requests, sent %d reminders.\n", expired, reminded)
		return nil
	},
}

func init() {
	approvalsCmd.PersistentFlags().Int64Var(&approvalsChatID, "chat", 0, "chat ID the requests belong to")
	approvalsCmd.PersistentFlags().StringVar(&approvalsProject, "project", "", "project path the requests belong to")
	approvalsCmd.PersistentFlags().StringVar(&approvalsActor, "actor", "cli", "who is resolving the request")
	approvalsDenyCmd.Flags().StringVar(&approvalsReason, "reason", "", "reason for denying")
	approvalsBatchCmd.Flags().StringVar(&approvalsReason, "reason", "", "reason for denying")
	approvalsBatchCmd.Flags().StringVar(&batchCategory, "category", "", "only include requests in this category")

	approvalsCmd.AddCommand(approvalsApproveCmd)
	approvalsCmd.AddCommand(approvalsDenyCmd)
	approvalsCmd.AddCommand(approvalsCancelCmd)
	approvalsCmd.AddCommand(approvalsBatchCmd)
	approvalsCmd.AddCommand(approvalsSweepCmd)
	rootCmd.AddCommand(approvalsCmd)
}
