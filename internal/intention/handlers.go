package intention

import (
	"fmt"

	"github.com/valter-silva-au/autopilot/pkg/models"
)

// Base confidence per trigger type, before floor and priority clamping.
const (
	confBuildBroken     = 0.95
	confTestFailure     = 0.85
	confSecurityAlert   = 0.9
	confComplexityAlert = 0.6
	confUserRequest     = 0.8
	confScheduled       = 0.5
	confIdleOpportunity = 0.55
)

// handleTrigger dispatches a trigger to its handler. The switch is
// exhaustive over models.TriggerType; an unknown type falls through to nil.
func (e *Engine) handleTrigger(trigger models.Trigger) []draft {
	switch trigger.Type {
	case models.TriggerBuildBroken:
		return e.handleBuildBroken(trigger)
	case models.TriggerTestFailure:
		return e.handleTestFailure(trigger)
	case models.TriggerSecurityAlert:
		return e.handleSecurityAlert(trigger)
	case models.TriggerComplexityAlert:
		return e.handleComplexityAlert(trigger)
	case models.TriggerUserRequest:
		return e.handleUserRequest(trigger)
	case models.TriggerScheduled:
		return e.handleScheduled(trigger)
	case models.TriggerIdleOpportunity:
		return e.handleIdleOpportunity(trigger)
	}
	return nil
}

// stringField extracts a string payload field, reporting whether it was
// present and non-empty.
func stringField(trigger models.Trigger, key string) (string, bool) {
	v, ok := trigger.Data[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// handleBuildBroken produces an urgent fix intention. A broken build needs
// no further payload to be actionable.
func (e *Engine) handleBuildBroken(trigger models.Trigger) []draft {
	d := draft{
		Type:            models.IntentFix,
		Source:          models.SourceMonitor,
		Priority:        models.PriorityUrgent,
		Title:           "Fix broken build",
		Description:     fmt.Sprintf("The build in %s is broken and blocks all other work.", trigger.ProjectPath),
		Reasoning:       "A broken build blocks every downstream activity, so repairing it takes precedence.",
		SuggestedAction: "Diagnose the build failure and apply a fix.",
		Confidence:      confBuildBroken,
	}
	if errOut, ok := stringField(trigger, "error"); ok {
		d.Evidence = append(d.Evidence, models.Evidence{
			Type:        models.EvidenceBuildOutput,
			Description: "build error output",
			Value:       errOut,
			Severity:    "critical",
		})
	}
	return []draft{d}
}

// handleTestFailure requires the failing test names; without them there is
// nothing concrete to act on.
func (e *Engine) handleTestFailure(trigger models.Trigger) []draft {
	failures, ok := stringField(trigger, "failures")
	if !ok {
		return nil
	}
	return []draft{{
		Type:            models.IntentTest,
		Source:          models.SourceMonitor,
		Priority:        models.PriorityHigh,
		Title:           "Repair failing tests",
		Description:     fmt.Sprintf("Tests are failing in %s: %s", trigger.ProjectPath, failures),
		Reasoning:       "Failing tests indicate a regression that should be repaired before it compounds.",
		SuggestedAction: "Re-run the failing tests, isolate the regression, and fix it.",
		Confidence:      confTestFailure,
		Evidence: []models.Evidence{{
			Type:        models.EvidenceTestResult,
			Description: "failing tests",
			Value:       failures,
			Severity:    "high",
		}},
	}}
}

// handleSecurityAlert requires the vulnerable package name.
func (e *Engine) handleSecurityAlert(trigger models.Trigger) []draft {
	pkg, ok := stringField(trigger, "package")
	if !ok {
		return nil
	}
	severity, _ := stringField(trigger, "severity")
	priority := models.PriorityHigh
	if severity == "critical" {
		priority = models.PriorityUrgent
	}
	return []draft{{
		Type:            models.IntentUpdate,
		Source:          models.SourceMonitor,
		Priority:        priority,
		Title:           fmt.Sprintf("Update vulnerable dependency %s", pkg),
		Description:     fmt.Sprintf("Dependency %s in %s has a known vulnerability.", pkg, trigger.ProjectPath),
		Reasoning:       "Known-vulnerable dependencies expose the project until they are updated.",
		SuggestedAction: fmt.Sprintf("Update %s to a patched version and re-run the test suite.", pkg),
		Confidence:      confSecurityAlert,
		Evidence: []models.Evidence{{
			Type:        models.EvidenceVulnReport,
			Description: "vulnerable dependency",
			Value:       pkg,
			Severity:    severity,
		}},
		Metadata: map[string]string{"package": pkg},
	}}
}

// handleComplexityAlert requires the location of the hotspot.
func (e *Engine) handleComplexityAlert(trigger models.Trigger) []draft {
	location, ok := stringField(trigger, "location")
	if !ok {
		return nil
	}
	return []draft{{
		Type:            models.IntentRefactor,
		Source:          models.SourceAnalysis,
		Priority:        models.PriorityMedium,
		Title:           fmt.Sprintf("Refactor complexity hotspot at %s", location),
		Description:     fmt.Sprintf("Static analysis flagged %s as exceeding complexity limits.", location),
		Reasoning:       "High-complexity code slows future changes and hides defects.",
		SuggestedAction: fmt.Sprintf("Refactor %s to reduce complexity while keeping behavior.", location),
		Confidence:      confComplexityAlert,
		Evidence: []models.Evidence{{
			Type:        models.EvidenceMetric,
			Description: "complexity hotspot",
			Value:       location,
			Location:    location,
		}},
	}}
}

// handleUserRequest requires the request text.
func (e *Engine) handleUserRequest(trigger models.Trigger) []draft {
	request, ok := stringField(trigger, "request")
	if !ok {
		return nil
	}
	return []draft{{
		Type:            models.IntentImplement,
		Source:          models.SourceUser,
		Priority:        models.PriorityHigh,
		Title:           "Implement user request",
		Description:     request,
		Reasoning:       "The user asked for this directly, so it carries their current goal.",
		SuggestedAction: "Plan and implement the requested change.",
		Confidence:      confUserRequest,
		Evidence: []models.Evidence{{
			Type:        models.EvidenceUserMessage,
			Description: "user request",
			Value:       request,
		}},
	}}
}

// handleScheduled produces a routine analysis intention.
func (e *Engine) handleScheduled(trigger models.Trigger) []draft {
	return []draft{{
		Type:            models.IntentAnalyze,
		Source:          models.SourceSchedule,
		Priority:        models.PriorityLow,
		Title:           "Run scheduled project analysis",
		Description:     fmt.Sprintf("Periodic health analysis for %s.", trigger.ProjectPath),
		Reasoning:       "Routine analysis keeps the health picture current without user prompting.",
		SuggestedAction: "Scan the project for drift, debt, and outdated dependencies.",
		Confidence:      confScheduled,
	}}
}

// handleIdleOpportunity produces a low-priority review intention.
func (e *Engine) handleIdleOpportunity(trigger models.Trigger) []draft {
	return []draft{{
		Type:            models.IntentReview,
		Source:          models.SourceAnalysis,
		Priority:        models.PriorityLow,
		Title:           "Review recent changes",
		Description:     fmt.Sprintf("Idle capacity available to review recent changes in %s.", trigger.ProjectPath),
		Reasoning:       "Idle time is cheapest spent on review, which never mutates the project.",
		SuggestedAction: "Review the most recent commits for issues worth raising.",
		Confidence:      confIdleOpportunity,
	}}
}
