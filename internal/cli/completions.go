package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// completePendingRequestIDs lists pending approval request IDs.
func completePendingRequestIDs(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if Approvals == nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var ids []string
	for _, r := range Approvals.PendingRequests(0, "") {
		if toComplete == "" || strings.HasPrefix(r.ID, toComplete) {
			// Include category and description for better UX.
			ids = append(ids, r.ID+"\t"+string(r.ActionCategory)+": "+r.Description)
		}
	}

	return ids, cobra.ShellCompDirectiveNoFileComp
}

// completeDecisionIDs lists stored decision IDs.
func completeDecisionIDs(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if Maker == nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var ids []string
	for _, d := range Maker.Decisions() {
		if toComplete == "" || strings.HasPrefix(d.ID, toComplete) {
			ids = append(ids, d.ID+"\t"+d.ExpectedOutcome)
		}
	}

	return ids, cobra.ShellCompDirectiveNoFileComp
}

// completeTriggerTypes returns completions for trigger type values.
func completeTriggerTypes(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{
		"build_broken\tThe build is failing",
		"test_failure\tOne or more tests fail",
		"security_alert\tA dependency has a known vulnerability",
		"complexity_alert\tCode crossed a complexity threshold",
		"user_request\tThe user asked for something",
		"scheduled\tPeriodic maintenance analysis",
		"idle_opportunity\tThe pipeline is idle and can review",
	}, cobra.ShellCompDirectiveNoFileComp
}

// completeIntentionTypes returns completions for intention type values.
func completeIntentionTypes(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{
		"fix\tRepair a broken build or defect",
		"test\tFix or extend failing tests",
		"refactor\tRestructure complex code",
		"update\tUpgrade a vulnerable dependency",
		"implement\tBuild a requested feature",
		"review\tReview recent changes",
		"analyze\tAnalyze project health",
	}, cobra.ShellCompDirectiveNoFileComp
}

// registerPipelineCompletions wires argument and flag completions onto the
// pipeline commands.
func registerPipelineCompletions() {
	triggerCmd.ValidArgsFunction = completeTriggerTypes
	_ = intentionsCmd.RegisterFlagCompletionFunc("type", completeIntentionTypes)
	decisionsShowCmd.ValidArgsFunction = completeDecisionIDs
	decisionsOverrideCmd.ValidArgsFunction = func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) == 0 {
			return completeDecisionIDs(cmd, args, toComplete)
		}
		return []string{"act", "skip"}, cobra.ShellCompDirectiveNoFileComp
	}
	approvalsApproveCmd.ValidArgsFunction = completePendingRequestIDs
	approvalsDenyCmd.ValidArgsFunction = completePendingRequestIDs
	approvalsCancelCmd.ValidArgsFunction = completePendingRequestIDs
}

func init() {
	registerPipelineCompletions()
}
