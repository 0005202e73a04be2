package decision

import (
	"fmt"

	"github.com/valter-silva-au/autopilot/pkg/models"
)

// criticalProbabilityGate blocks action when a critical risk exceeds this
// probability and the user holds less than full permission.
const criticalProbabilityGate = 0.3

// baseRisk returns the risk every decision carries, keyed by intention type.
func baseRisk(t models.IntentionType) models.Risk {
	switch t {
	case models.IntentFix:
		return models.Risk{Level: models.RiskMedium, Description: "code change under time pressure to repair the build",
			Mitigation: "run the full test suite after the fix", Probability: 0.3}
	case models.IntentTest:
		return models.Risk{Level: models.RiskLow, Description: "test changes rarely affect production behavior",
			Mitigation: "review test diffs before merge", Probability: 0.1}
	case models.IntentRefactor:
		return models.Risk{Level: models.RiskMedium, Description: "refactoring can change behavior unintentionally",
			Mitigation: "refactor in small, tested steps", Probability: 0.35}
	case models.IntentUpdate:
		return models.Risk{Level: models.RiskMedium, Description: "dependency change affects the whole build",
			Mitigation: "pin the new version and run the test suite", Probability: 0.3}
	case models.IntentImplement:
		return models.Risk{Level: models.RiskMedium, Description: "new code paths have no production history",
			Mitigation: "gate new behavior behind review", Probability: 0.4}
	case models.IntentReview, models.IntentAnalyze:
		return models.Risk{Level: models.RiskLow, Description: "read-only activity cannot mutate the project",
			Mitigation: "none required", Probability: 0.05}
	}
	return models.Risk{Level: models.RiskMedium, Description: "unrecognized intention type",
		Mitigation: "require human review", Probability: 0.5}
}

// assessRisks builds the full risk list for an intention in the given
// context. Each risk carries an independent probability; no aggregation
// happens here beyond what MaxRiskLevel later derives.
func assessRisks(intent models.Intention, ctx models.DecisionContext) []models.Risk {
	risks := []models.Risk{baseRisk(intent.Type)}

	if ctx.ProjectHealth < 50 {
		risks = append(risks, models.Risk{
			Level:       models.RiskHigh,
			Description: fmt.Sprintf("project health is low (%d/100)", ctx.ProjectHealth),
			Mitigation:  "stabilize the project before non-urgent work",
			Probability: 0.5,
		})
	}
	if ctx.HasUncommittedChanges {
		risks = append(risks, models.Risk{
			Level:       models.RiskMedium,
			Description: "uncommitted changes in the working tree could be clobbered",
			Mitigation:  "stash or commit before acting",
			Probability: 0.4,
		})
	}
	if !ctx.TestsPassing {
		risks = append(risks, models.Risk{
			Level:       models.RiskHigh,
			Description: "test suite is failing, so regressions cannot be detected",
			Mitigation:  "repair the test suite first or verify manually",
			Probability: 0.45,
		})
	}
	if !ctx.BuildStable {
		risks = append(risks, models.Risk{
			Level:       models.RiskHigh,
			Description: "build is unstable, changes may not compile cleanly",
			Mitigation:  "verify the build locally before and after",
			Probability: 0.5,
		})
	}
	if intent.Priority == models.PriorityUrgent {
		risks = append(risks, models.Risk{
			Level:       models.RiskMedium,
			Description: "urgent priority shortens the review window",
			Mitigation:  "keep the change minimal",
			Probability: 0.3,
		})
	}

	// Type-specific additions on top of the base risk.
	switch intent.Type {
	case models.IntentUpdate:
		risks = append(risks, models.Risk{
			Level:       models.RiskHigh,
			Description: "updated dependency may introduce breaking API changes",
			Mitigation:  "read the changelog and run integration tests",
			Probability: 0.35,
		})
	case models.IntentImplement:
		risks = append(risks, models.Risk{
			Level:       models.RiskMedium,
			Description: "implementation may diverge from what the user expects",
			Mitigation:  "confirm scope with the user before large changes",
			Probability: 0.3,
		})
	}

	return risks
}

// decideShouldAct applies the action gates in order and returns the verdict
// with the reason for the first gate that blocked, or an affirmative reason.
func decideShouldAct(intent models.Intention, ctx models.DecisionContext, prefs models.Preferences, risks []models.Risk) (bool, string) {
	if prefs.Level == models.PermReadOnly {
		return false, "permission level is read_only"
	}
	if ctx.IsQuietHours && intent.Priority != models.PriorityUrgent {
		return false, "quiet hours are in effect and the intention is not urgent"
	}
	if prefs.MaxConcurrentActions > 0 && ctx.ActiveActions >= prefs.MaxConcurrentActions {
		return false, fmt.Sprintf("concurrency cap reached (%d active)", ctx.ActiveActions)
	}
	if intent.Confidence < minActionableConfidence {
		return false, fmt.Sprintf("confidence %.2f is below the actionable floor", intent.Confidence)
	}
	if !prefs.Level.AtLeast(models.PermFull) {
		for _, r := range risks {
			if r.Level == models.RiskCritical && r.Probability > criticalProbabilityGate {
				return false, fmt.Sprintf("critical risk with probability %.2f exceeds the gate", r.Probability)
			}
		}
	}
	return true, "all action gates passed"
}

// decideRequiresApproval applies the approval gates in order. The fail-safe
// default is to require approval: only when every gate declines does the
// decision auto-approve.
func decideRequiresApproval(intent models.Intention, ctx models.DecisionContext, prefs models.Preferences, maxRisk models.RiskLevel) (bool, string) {
	if prefs.Level == models.PermReadOnly || prefs.Level == models.PermAdvisory {
		return true, fmt.Sprintf("permission level %s always requires approval", prefs.Level)
	}
	for _, t := range prefs.RequireApprovalFor {
		if t == intent.Type {
			return true, fmt.Sprintf("user requires approval for %s actions", intent.Type)
		}
	}
	if !riskAutoApproved(prefs, maxRisk) {
		return true, fmt.Sprintf("risk level %s is not auto-approved", maxRisk)
	}
	if (maxRisk == models.RiskHigh || maxRisk == models.RiskCritical) && !prefs.Level.AtLeast(models.PermFull) {
		return true, fmt.Sprintf("%s risk requires approval below full permission", maxRisk)
	}
	if ctx.IsQuietHours {
		return true, "quiet hours require approval for any action"
	}
	if (intent.Type == models.IntentImplement || intent.Type == models.IntentRefactor) && !prefs.Level.AtLeast(models.PermAutonomous) {
		return true, fmt.Sprintf("%s actions require approval below autonomous permission", intent.Type)
	}
	if prefs.NotifyBeforeAction && !riskAutoApproved(prefs, maxRisk) {
		return true, "user asked to be notified before actions"
	}
	return false, "policy allows autonomous execution"
}

func riskAutoApproved(prefs models.Preferences, level models.RiskLevel) bool {
	for _, r := range prefs.AutoApproveRisk {
		if r == level {
			return true
		}
	}
	return false
}
