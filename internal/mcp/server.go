// Package mcp provides an MCP (Model Context Protocol) server that exposes
// the autopilot pipeline as MCP tools for AI coding assistants.
package mcp

import (
	"context"
	"fmt"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/valter-silva-au/autopilot/internal/approval"
	"github.com/valter-silva-au/autopilot/internal/decision"
	"github.com/valter-silva-au/autopilot/internal/intention"
	"github.com/valter-silva-au/autopilot/internal/observability"
	"github.com/valter-silva-au/autopilot/internal/pipeline"
	"github.com/valter-silva-au/autopilot/pkg/models"
)

// Server wraps the pipeline services and exposes them as MCP tools.
type Server struct {
	server      *gomcp.Server
	engine      *intention.Engine
	maker       *decision.Maker
	approvals   *approval.Workflow
	pipe        *pipeline.Pipeline
	metricsCalc observability.MetricsCalculator
}

// NewServer creates a new MCP server over already-constructed pipeline
// components. metricsCalc may be nil if observability is disabled.
func NewServer(engine *intention.Engine, maker *decision.Maker, approvals *approval.Workflow, pipe *pipeline.Pipeline, metricsCalc observability.MetricsCalculator, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		engine:      engine,
		maker:       maker,
		approvals:   approvals,
		pipe:        pipe,
		metricsCalc: metricsCalc,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "autopilot", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run starts the MCP server on stdio, blocking until the client disconnects
// or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type processTriggerInput struct {
	Type        string         `json:"type" jsonschema:"required,trigger type (build_broken, test_failure, security_alert, complexity_alert, user_request, scheduled, idle_opportunity)"`
	ProjectPath string         `json:"project_path,omitempty" jsonschema:"project the trigger concerns"`
	ChatID      int64          `json:"chat_id,omitempty" jsonschema:"chat the trigger belongs to"`
	Data        map[string]any `json:"data,omitempty" jsonschema:"trigger payload (e.g. failures, package, location, request)"`
}

type outcomeOutput struct {
	IntentionID string `json:"intention_id"`
	DecisionID  string `json:"decision_id"`
	RequestID   string `json:"request_id,omitempty"`
	WorkflowID  string `json:"workflow_id,omitempty"`
	Disposition string `json:"disposition"`
	Reasoning   string `json:"reasoning"`
}

type processTriggerOutput struct {
	Outcomes []outcomeOutput `json:"outcomes"`
	Count    int             `json:"count"`
}

type listIntentionsInput struct {
	Type          string  `json:"type,omitempty" jsonschema:"filter by intention type (fix, test, refactor, update, implement, review, analyze)"`
	MinConfidence float64 `json:"min_confidence,omitempty" jsonschema:"only intentions at or above this confidence"`
	ProjectPath   string  `json:"project_path,omitempty" jsonschema:"filter by project path"`
	IncludeAll    bool    `json:"include_all,omitempty" jsonschema:"include expired intentions"`
}

type intentionOutput struct {
	ID          string  `json:"id"`
	Type        string  `json:"type"`
	Source      string  `json:"source"`
	Priority    string  `json:"priority"`
	Confidence  float64 `json:"confidence"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	ProjectPath string  `json:"project_path,omitempty"`
	CreatedAt   string  `json:"created_at"`
	ExpiresAt   string  `json:"expires_at"`
}

type listIntentionsOutput struct {
	Intentions []intentionOutput `json:"intentions"`
	Count      int               `json:"count"`
}

type evaluateIntentionInput struct {
	IntentionID           string  `json:"intention_id" jsonschema:"required,the intention to evaluate"`
	ProjectHealth         int     `json:"project_health,omitempty" jsonschema:"project health score 0-100"`
	TestsPassing          bool    `json:"tests_passing,omitempty" jsonschema:"whether the test suite currently passes"`
	BuildStable           bool    `json:"build_stable,omitempty" jsonschema:"whether the build is currently stable"`
	HasUncommittedChanges bool    `json:"has_uncommitted_changes,omitempty" jsonschema:"whether the working tree is dirty"`
	IsQuietHours          bool    `json:"is_quiet_hours,omitempty" jsonschema:"whether quiet hours are in effect"`
	HistoricalSuccessRate float64 `json:"historical_success_rate,omitempty" jsonschema:"fraction of past actions that succeeded"`
	ActiveActions         int     `json:"active_actions,omitempty" jsonschema:"number of actions currently running"`
}

type decisionOutput struct {
	ID               string  `json:"id"`
	IntentionID      string  `json:"intention_id"`
	ShouldAct        bool    `json:"should_act"`
	RequiresApproval bool    `json:"requires_approval"`
	CanAutoExecute   bool    `json:"can_auto_execute"`
	Confidence       float64 `json:"confidence"`
	MaxRisk          string  `json:"max_risk"`
	Reasoning        string  `json:"reasoning"`
	ExpectedOutcome  string  `json:"expected_outcome"`
	PlanSteps        int     `json:"plan_steps"`
}

type listApprovalsInput struct {
	ChatID      int64  `json:"chat_id,omitempty" jsonschema:"filter by chat ID"`
	ProjectPath string `json:"project_path,omitempty" jsonschema:"filter by project path"`
}

type approvalOutput struct {
	ID          string `json:"id"`
	ActionID    string `json:"action_id"`
	Category    string `json:"category"`
	RiskLevel   string `json:"risk_level"`
	Description string `json:"description"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
	ExpiresAt   string `json:"expires_at"`
}

type listApprovalsOutput struct {
	Requests []approvalOutput `json:"requests"`
	Count    int              `json:"count"`
}

type resolveApprovalInput struct {
	RequestID string `json:"request_id" jsonschema:"required,the approval request to resolve"`
	Action    string `json:"action" jsonschema:"required,approve or deny"`
	Actor     string `json:"actor,omitempty" jsonschema:"who is resolving the request"`
	Reason    string `json:"reason,omitempty" jsonschema:"reason when denying"`
	Execute   bool   `json:"execute,omitempty" jsonschema:"run the approved action's workflow immediately"`
}

type resolveApprovalOutput struct {
	Message        string `json:"message"`
	WorkflowID     string `json:"workflow_id,omitempty"`
	WorkflowStatus string `json:"workflow_status,omitempty"`
}

type getStatsInput struct {
	Since string `json:"since,omitempty" jsonschema:"time window for pipeline metrics (e.g. 7d, 30d, 24h). Defaults to 7d."`
}

type getStatsOutput struct {
	Pending            int            `json:"pending"`
	Approved           int            `json:"approved"`
	Denied             int            `json:"denied"`
	Expired            int            `json:"expired"`
	Cancelled          int            `json:"cancelled"`
	ApprovalRate       float64        `json:"approval_rate"`
	MeanApprovalTime   string         `json:"mean_approval_time,omitempty"`
	IntentionsCreated  int            `json:"intentions_created"`
	DecisionsEvaluated int            `json:"decisions_evaluated"`
	ApprovalsByStatus  map[string]int `json:"approvals_by_status,omitempty"`
	WorkflowsCompleted int            `json:"workflows_completed"`
	WorkflowsFailed    int            `json:"workflows_failed"`
	EventCount         int            `json:"event_count"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "process_trigger",
		Description: "Push a trigger through the full pipeline: form intentions, evaluate decisions, gate on approval, and execute auto-approved actions. Returns one outcome per intention.",
	}, s.handleProcessTrigger)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_intentions",
		Description: "List stored intentions, sorted by priority then confidence. Filter by type, minimum confidence, or project path.",
	}, s.handleListIntentions)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "evaluate_intention",
		Description: "Evaluate a stored intention against the given project context and return the resulting decision with risks, reasoning, and plan size.",
	}, s.handleEvaluateIntention)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_approvals",
		Description: "List pending approval requests, optionally filtered by chat ID and project path.",
	}, s.handleListApprovals)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "resolve_approval",
		Description: "Approve or deny a pending approval request. Approved requests can optionally execute their workflow immediately.",
	}, s.handleResolveApproval)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_stats",
		Description: "Get approval queue statistics and aggregated pipeline metrics from the event log.",
	}, s.handleGetStats)
}

// --- Tool handlers ---

func (s *Server) handleProcessTrigger(ctx context.Context, _ *gomcp.CallToolRequest, input processTriggerInput) (*gomcp.CallToolResult, processTriggerOutput, error) {
	if input.Type == "" {
		return errorResult("type is required"), processTriggerOutput{}, nil
	}

	trigger := models.Trigger{
		Type:        models.TriggerType(input.Type),
		ProjectPath: input.ProjectPath,
		ChatID:      input.ChatID,
		Data:        input.Data,
		Timestamp:   time.Now().UTC(),
	}

	outcomes := s.pipe.Run(ctx, trigger, models.DecisionContext{
		ProjectHealth: 70,
		TestsPassing:  true,
		BuildStable:   true,
	})

	out := processTriggerOutput{
		Outcomes: make([]outcomeOutput, len(outcomes)),
		Count:    len(outcomes),
	}
	for i, o := range outcomes {
		row := outcomeOutput{
			IntentionID: o.Intention.ID,
			DecisionID:  o.Decision.ID,
			Disposition: string(o.Disposition),
			Reasoning:   o.Decision.Reasoning,
		}
		if o.Request != nil {
			row.RequestID = o.Request.ID
		}
		if o.Workflow != nil {
			row.WorkflowID = o.Workflow.ID
		}
		out.Outcomes[i] = row
	}

	return nil, out, nil
}

func (s *Server) handleListIntentions(_ context.Context, _ *gomcp.CallToolRequest, input listIntentionsInput) (*gomcp.CallToolResult, listIntentionsOutput, error) {
	filter := intention.Filter{
		MinConfidence: input.MinConfidence,
		ProjectPath:   input.ProjectPath,
		ActiveOnly:    !input.IncludeAll,
	}
	if input.Type != "" {
		filter.Types = []models.IntentionType{models.IntentionType(input.Type)}
	}

	intentions := s.engine.Intentions(filter)

	out := listIntentionsOutput{
		Intentions: make([]intentionOutput, len(intentions)),
		Count:      len(intentions),
	}
	for i, intent := range intentions {
		out.Intentions[i] = intentionOutput{
			ID:          intent.ID,
			Type:        string(intent.Type),
			Source:      string(intent.Source),
			Priority:    string(intent.Priority),
			Confidence:  intent.Confidence,
			Title:       intent.Title,
			Description: intent.Description,
			ProjectPath: intent.ProjectPath,
			CreatedAt:   intent.Timestamp.Format(time.RFC3339),
			ExpiresAt:   intent.ExpiresAt.Format(time.RFC3339),
		}
	}

	return nil, out, nil
}

func (s *Server) handleEvaluateIntention(_ context.Context, _ *gomcp.CallToolRequest, input evaluateIntentionInput) (*gomcp.CallToolResult, decisionOutput, error) {
	if input.IntentionID == "" {
		return errorResult("intention_id is required"), decisionOutput{}, nil
	}

	intent, ok := s.engine.Get(input.IntentionID)
	if !ok {
		return errorResult(fmt.Sprintf("intention %s not found", input.IntentionID)), decisionOutput{}, nil
	}

	d := s.maker.Evaluate(intent, models.DecisionContext{
		ProjectHealth:         input.ProjectHealth,
		TestsPassing:          input.TestsPassing,
		BuildStable:           input.BuildStable,
		HasUncommittedChanges: input.HasUncommittedChanges,
		IsQuietHours:          input.IsQuietHours,
		HistoricalSuccessRate: input.HistoricalSuccessRate,
		ActiveActions:         input.ActiveActions,
	})

	out := decisionOutput{
		ID:               d.ID,
		IntentionID:      d.IntentionID,
		ShouldAct:        d.ShouldAct,
		RequiresApproval: d.RequiresApproval,
		CanAutoExecute:   d.CanAutoExecute,
		Confidence:       d.Confidence,
		MaxRisk:          string(models.MaxRiskLevel(d.Risks)),
		Reasoning:        d.Reasoning,
		ExpectedOutcome:  d.ExpectedOutcome,
		PlanSteps:        len(d.ActionPlan),
	}
	return nil, out, nil
}

func (s *Server) handleListApprovals(_ context.Context, _ *gomcp.CallToolRequest, input listApprovalsInput) (*gomcp.CallToolResult, listApprovalsOutput, error) {
	pending := s.approvals.PendingRequests(input.ChatID, input.ProjectPath)

	out := listApprovalsOutput{
		Requests: make([]approvalOutput, len(pending)),
		Count:    len(pending),
	}
	for i, r := range pending {
		out.Requests[i] = approvalOutput{
			ID:          r.ID,
			ActionID:    r.ActionID,
			Category:    string(r.ActionCategory),
			RiskLevel:   string(r.RiskLevel),
			Description: r.Description,
			Status:      string(r.Status),
			CreatedAt:   r.CreatedAt.Format(time.RFC3339),
			ExpiresAt:   r.ExpiresAt.Format(time.RFC3339),
		}
	}

	return nil, out, nil
}

func (s *Server) handleResolveApproval(ctx context.Context, _ *gomcp.CallToolRequest, input resolveApprovalInput) (*gomcp.CallToolResult, resolveApprovalOutput, error) {
	if input.RequestID == "" {
		return errorResult("request_id is required"), resolveApprovalOutput{}, nil
	}

	actor := input.Actor
	if actor == "" {
		actor = "mcp"
	}

	switch input.Action {
	case "approve":
		if !s.approvals.Approve(input.RequestID, actor) {
			return errorResult(fmt.Sprintf("request %s is not pending", input.RequestID)), resolveApprovalOutput{}, nil
		}
		out := resolveApprovalOutput{
			Message: fmt.Sprintf("request %s approved by %s", input.RequestID, actor),
		}
		if input.Execute {
			if wf := s.pipe.ExecuteApproved(ctx, input.RequestID); wf != nil {
				out.WorkflowID = wf.ID
				out.WorkflowStatus = string(wf.Status)
			} else {
				out.Message += "; decision has expired, nothing to execute"
			}
		}
		return nil, out, nil

	case "deny":
		if !s.approvals.Deny(input.RequestID, actor, input.Reason) {
			return errorResult(fmt.Sprintf("request %s is not pending", input.RequestID)), resolveApprovalOutput{}, nil
		}
		return nil, resolveApprovalOutput{
			Message: fmt.Sprintf("request %s denied by %s", input.RequestID, actor),
		}, nil

	default:
		return errorResult(fmt.Sprintf("invalid action %q: must be approve or deny", input.Action)), resolveApprovalOutput{}, nil
	}
}

func (s *Server) handleGetStats(_ context.Context, _ *gomcp.CallToolRequest, input getStatsInput) (*gomcp.CallToolResult, getStatsOutput, error) {
	stats := s.approvals.Stats()

	out := getStatsOutput{
		Pending:      stats.Pending,
		Approved:     stats.Approved,
		Denied:       stats.Denied,
		Expired:      stats.Expired,
		Cancelled:    stats.Cancelled,
		ApprovalRate: stats.ApprovalRate,
	}
	if stats.MeanApprovalTime > 0 {
		out.MeanApprovalTime = stats.MeanApprovalTime.String()
	}

	if s.metricsCalc == nil {
		return nil, out, nil
	}

	sinceStr := input.Since
	if sinceStr == "" {
		sinceStr = "7d"
	}
	sinceTime, err := parseSince(sinceStr)
	if err != nil {
		return errorResult(fmt.Sprintf("parsing since duration: %s", err)), getStatsOutput{}, nil
	}

	metrics, err := s.metricsCalc.Calculate(sinceTime)
	if err != nil {
		return errorResult(fmt.Sprintf("calculating metrics: %s", err)), getStatsOutput{}, nil
	}

	out.IntentionsCreated = metrics.IntentionsCreated
	out.DecisionsEvaluated = metrics.DecisionsEvaluated
	out.ApprovalsByStatus = metrics.ApprovalsByStatus
	out.WorkflowsCompleted = metrics.WorkflowsCompleted
	out.WorkflowsFailed = metrics.WorkflowsFailed
	out.EventCount = metrics.EventCount

	return nil, out, nil
}

// --- Helpers ---

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}

// parseSince parses a human-friendly duration string like "7d", "30d", or "24h"
// into the corresponding time in the past.
func parseSince(s string) (time.Time, error) {
	now := time.Now().UTC()

	if len(s) < 2 {
		return time.Time{}, fmt.Errorf("invalid duration %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]
	var num int
	if _, err := fmt.Sscanf(numStr, "%d", &num); err != nil {
		return time.Time{}, fmt.Errorf("invalid duration %q: %w", s, err)
	}

	switch suffix {
	case 'd':
		return now.AddDate(0, 0, -num), nil
	case 'h':
		return now.Add(-time.Duration(num) * time.Hour), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported duration suffix %q (use d or h)", string(suffix))
	}
}
