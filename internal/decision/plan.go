package decision

import (
	"fmt"
	"strings"
	"time"

	"github.com/valter-silva-au/autopilot/pkg/models"
)

// stepTemplate is one entry of a per-type action plan template.
type stepTemplate struct {
	description string
	agent       models.AgentType
	duration    time.Duration
	reversible  bool
}

// planTemplates maps intention types to their fixed action plan. Steps are
// chained linearly: each depends on the one before it.
var planTemplates = map[models.IntentionType][]stepTemplate{
	models.IntentFix: {
		{"diagnose the build failure", models.AgentScout, 5 * time.Minute, true},
		{"apply the fix", models.AgentBuilder, 15 * time.Minute, true},
		{"run the test suite", models.AgentTester, 10 * time.Minute, true},
	},
	models.IntentTest: {
		{"reproduce the failing tests", models.AgentTester, 10 * time.Minute, true},
		{"repair the regression", models.AgentBuilder, 20 * time.Minute, true},
		{"verify the full suite passes", models.AgentTester, 10 * time.Minute, true},
	},
	models.IntentRefactor: {
		{"map the refactoring target", models.AgentScout, 10 * time.Minute, true},
		{"apply the refactoring", models.AgentBuilder, 30 * time.Minute, true},
		{"run the test suite", models.AgentTester, 10 * time.Minute, true},
		{"review the structural changes", models.AgentReviewer, 15 * time.Minute, true},
	},
	models.IntentUpdate: {
		{"audit the dependency and its changelog", models.AgentScout, 5 * time.Minute, true},
		{"update the dependency", models.AgentBuilder, 10 * time.Minute, true},
		{"run the test suite against the new version", models.AgentTester, 15 * time.Minute, true},
	},
	models.IntentImplement: {
		{"research the affected area", models.AgentScout, 15 * time.Minute, true},
		{"implement the change", models.AgentBuilder, 45 * time.Minute, true},
		{"write and run tests", models.AgentTester, 20 * time.Minute, true},
		{"review the implementation", models.AgentReviewer, 15 * time.Minute, true},
	},
	models.IntentReview: {
		{"collect recent changes", models.AgentScout, 5 * time.Minute, true},
		{"review the changes", models.AgentReviewer, 15 * time.Minute, true},
	},
	models.IntentAnalyze: {
		{"scan the project", models.AgentScout, 10 * time.Minute, true},
		{"summarize findings", models.AgentReviewer, 10 * time.Minute, true},
	},
}

// buildActionPlan expands the per-type template into concrete steps with
// deterministic IDs. Unrecognized types get a single generic scout step.
func buildActionPlan(intent models.Intention) []models.ActionStep {
	template, ok := planTemplates[intent.Type]
	if !ok {
		return []models.ActionStep{{
			ID:                "step-1",
			Description:       fmt.Sprintf("investigate: %s", intent.Title),
			AgentType:         models.AgentScout,
			EstimatedDuration: 15 * time.Minute,
			Reversible:        true,
		}}
	}

	steps := make([]models.ActionStep, len(template))
	for i, t := range template {
		steps[i] = models.ActionStep{
			ID:                fmt.Sprintf("step-%d", i+1),
			Description:       t.description,
			AgentType:         t.agent,
			EstimatedDuration: t.duration,
			Reversible:        t.reversible,
		}
		if i > 0 {
			steps[i].Dependencies = []string{steps[i-1].ID}
		}
	}
	return steps
}

// recomputeConfidence starts from the intention's confidence and applies
// fixed multiplier bands for context and permission, clamped to [0,1].
func recomputeConfidence(intent models.Intention, ctx models.DecisionContext, prefs models.Preferences, maxRisk models.RiskLevel) float64 {
	confidence := intent.Confidence

	switch {
	case ctx.ProjectHealth > 80:
		confidence *= 1.1
	case ctx.ProjectHealth < 50:
		confidence *= 0.7
	}

	switch {
	case ctx.HistoricalSuccessRate > 0.8:
		confidence *= 1.1
	case ctx.HistoricalSuccessRate < 0.4:
		confidence *= 0.8
	}

	switch maxRisk {
	case models.RiskCritical:
		confidence *= 0.6
	case models.RiskHigh:
		confidence *= 0.8
	case models.RiskMedium:
		confidence *= 0.95
	}

	switch prefs.Level {
	case models.PermFull:
		confidence *= 1.05
	case models.PermSupervised:
		confidence *= 0.95
	case models.PermAdvisory:
		confidence *= 0.9
	case models.PermReadOnly:
		confidence *= 0.85
	}

	if ctx.UserGoalAlignment != nil {
		switch {
		case *ctx.UserGoalAlignment > 0.7:
			confidence *= 1.05
		case *ctx.UserGoalAlignment < 0.3:
			confidence *= 0.85
		}
	}

	if confidence > 1 {
		confidence = 1
	}
	if confidence < 0 {
		confidence = 0
	}
	return confidence
}

// expectedOutcome is the deterministic per-type outcome statement.
func expectedOutcome(intent models.Intention) string {
	switch intent.Type {
	case models.IntentFix:
		return "Build restored to a passing state."
	case models.IntentTest:
		return "Failing tests repaired and the suite green."
	case models.IntentRefactor:
		return "Complexity reduced with behavior preserved."
	case models.IntentUpdate:
		return "Vulnerable or outdated dependency replaced by a patched version."
	case models.IntentImplement:
		return "Requested change implemented, tested, and reviewed."
	case models.IntentReview:
		return "Recent changes reviewed with findings reported."
	case models.IntentAnalyze:
		return "Project health report produced."
	}
	return "Investigation findings reported."
}

// buildReasoning assembles the human-readable rationale. The output is
// deterministic for identical inputs so it can be golden-tested.
func buildReasoning(intent models.Intention, confidence float64, maxRisk models.RiskLevel, shouldAct bool, actReason string, requiresApproval bool, approvalReason string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Source: %s. Priority: %s. Confidence: %d%%. Max risk: %s.",
		intent.Source, intent.Priority, int(confidence*100), maxRisk)
	if shouldAct {
		fmt.Fprintf(&b, " Acting: %s.", actReason)
	} else {
		fmt.Fprintf(&b, " Not acting: %s.", actReason)
	}
	if requiresApproval {
		fmt.Fprintf(&b, " Approval required: %s.", approvalReason)
	} else {
		fmt.Fprintf(&b, " No approval needed: %s.", approvalReason)
	}
	return b.String()
}
