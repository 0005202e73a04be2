package cli

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/valter-silva-au/autopilot/internal/intention"
)

// Dashboard panel indices.
const (
	panelApprovals = iota
	panelIntentions
	panelPipeline
	panelCount
)

type dashboardModel struct {
	activePanel int
	cursor      int
	width       int
	height      int

	// Data.
	pending    []approvalRow
	intentions []intentionRow
	pipeline   *pipelineSnapshot

	// State.
	loading bool
	status  string
	err     error
}

type approvalRow struct {
	id          string
	category    string
	risk        string
	description string
	expires     string
}

type intentionRow struct {
	id         string
	kind       string
	priority   string
	confidence float64
	title      string
}

type pipelineSnapshot struct {
	intentionsCreated  int
	decisionsEvaluated int
	approvalsRequested int
	workflowsCompleted int
	workflowsFailed    int
	eventCount         int
}

// dashDataMsg carries loaded data back to the model.
type dashDataMsg struct {
	pending    []approvalRow
	intentions []intentionRow
	pipeline   *pipelineSnapshot
	err        error
}

// dashResolvedMsg reports the outcome of an approve/deny keypress.
type dashResolvedMsg struct {
	id     string
	status string
	ok     bool
}

// Style definitions.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2)

	activePanelStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				Padding(1, 2)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			MarginBottom(1)

	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62"))

	riskCritical = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	riskHigh     = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	riskMedium   = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	riskLow      = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))

	priorityUrgent = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	priorityHigh   = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	priorityOther  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
)

func newDashboardModel() dashboardModel {
	return dashboardModel{
		activePanel: panelApprovals,
		loading:     true,
	}
}

func (m dashboardModel) Init() tea.Cmd {
	return loadDashData
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.activePanel = (m.activePanel + 1) % panelCount
			m.cursor = 0
			return m, nil
		case "shift+tab":
			m.activePanel = (m.activePanel - 1 + panelCount) % panelCount
			m.cursor = 0
			return m, nil
		case "up", "k":
			if m.activePanel == panelApprovals && m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case "down", "j":
			if m.activePanel == panelApprovals && m.cursor < len(m.pending)-1 {
				m.cursor++
			}
			return m, nil
		case "a":
			if m.activePanel == panelApprovals && m.cursor < len(m.pending) {
				return m, resolveRequest(m.pending[m.cursor].id, true)
			}
			return m, nil
		case "d":
			if m.activePanel == panelApprovals && m.cursor < len(m.pending) {
				return m, resolveRequest(m.pending[m.cursor].id, false)
			}
			return m, nil
		case "r":
			m.loading = true
			return m, loadDashData
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case dashResolvedMsg:
		if msg.ok {
			m.status = fmt.Sprintf("Request %s %s.", msg.id, msg.status)
		} else {
			m.status = fmt.Sprintf("Request %s is no longer pending.", msg.id)
		}
		m.loading = true
		return m, loadDashData

	case dashDataMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.pending = msg.pending
		m.intentions = msg.intentions
		m.pipeline = msg.pipeline
		if m.cursor >= len(m.pending) {
			m.cursor = 0
		}
		m.err = nil
		return m, nil
	}

	return m, nil
}

func (m dashboardModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	title := titleStyle.Render(" Autopilot Dashboard ")
	help := helpStyle.Render("tab: switch panel | ↑/↓: select | a: approve | d: deny | r: refresh | q: quit")

	if m.loading {
		return fmt.Sprintf("%s\n\n  Loading data...\n\n%s", title, help)
	}

	if m.err != nil {
		return fmt.Sprintf("%s\n\n  Error: %s\n\n%s", title, m.err, help)
	}

	approvalsPanel := m.renderApprovalsPanel()
	intentionsPanel := m.renderIntentionsPanel()
	pipelinePanel := m.renderPipelinePanel()

	// Available width for panels after accounting for margins.
	availableWidth := m.width - 2

	var body string
	if availableWidth > 120 {
		colWidth := availableWidth / 3
		approvalsPanel = m.applyPanelStyle(panelApprovals, approvalsPanel, colWidth-4)
		intentionsPanel = m.applyPanelStyle(panelIntentions, intentionsPanel, colWidth-4)
		pipelinePanel = m.applyPanelStyle(panelPipeline, pipelinePanel, colWidth-4)
		body = lipgloss.JoinHorizontal(lipgloss.Top, approvalsPanel, intentionsPanel, pipelinePanel)
	} else {
		panelWidth := availableWidth - 4
		if panelWidth < 20 {
			panelWidth = 20
		}
		approvalsPanel = m.applyPanelStyle(panelApprovals, approvalsPanel, panelWidth)
		intentionsPanel = m.applyPanelStyle(panelIntentions, intentionsPanel, panelWidth)
		pipelinePanel = m.applyPanelStyle(panelPipeline, pipelinePanel, panelWidth)
		body = lipgloss.JoinVertical(lipgloss.Left, approvalsPanel, intentionsPanel, pipelinePanel)
	}

	out := fmt.Sprintf("%s\n\n%s", title, body)
	if m.status != "" {
		out += "\n\n" + statusStyle.Render("  "+m.status)
	}
	return fmt.Sprintf("%s\n\n%s", out, help)
}

func (m dashboardModel) applyPanelStyle(panel int, content string, width int) string {
	style := panelStyle
	if m.activePanel == panel {
		style = activePanelStyle
	}
	return style.Width(width).Render(content)
}

func (m dashboardModel) renderApprovalsPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Pending Approvals"))
	b.WriteString("\n")

	if len(m.pending) == 0 {
		b.WriteString("  Nothing waiting for approval.")
		return b.String()
	}

	for i, row := range m.pending {
		risk := styleForRisk(row.risk).Render(fmt.Sprintf("[%s]", row.risk))
		line := fmt.Sprintf("  %-10s %-12s %s %s", row.id, row.category, risk, row.description)
		if m.activePanel == panelApprovals && i == m.cursor {
			line = cursorStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
		b.WriteString(helpStyle.Render(fmt.Sprintf("    expires %s", row.expires)))
		b.WriteString("\n")
	}

	return b.String()
}

func (m dashboardModel) renderIntentionsPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Active Intentions"))
	b.WriteString("\n")

	if len(m.intentions) == 0 {
		b.WriteString("  No active intentions.")
		return b.String()
	}

	for _, row := range m.intentions {
		prio := styleForPriority(row.priority).Render(fmt.Sprintf("%-7s", row.priority))
		b.WriteString(fmt.Sprintf("  %-10s %s %-9s %3.0f%%  %s\n",
			row.id, prio, row.kind, row.confidence*100, row.title))
	}

	return b.String()
}

func (m dashboardModel) renderPipelinePanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Pipeline (7d)"))
	b.WriteString("\n")

	if m.pipeline == nil {
		b.WriteString("  No metrics available.")
		return b.String()
	}

	p := m.pipeline
	lines := []struct {
		label string
		value int
	}{
		{"Events", p.eventCount},
		{"Intentions", p.intentionsCreated},
		{"Decisions", p.decisionsEvaluated},
		{"Approvals", p.approvalsRequested},
		{"Completed", p.workflowsCompleted},
		{"Failed", p.workflowsFailed},
	}

	for _, l := range lines {
		b.WriteString(fmt.Sprintf("  %-14s %d\n", l.label, l.value))
	}

	return b.String()
}

func styleForRisk(risk string) lipgloss.Style {
	switch risk {
	case "critical":
		return riskCritical
	case "high":
		return riskHigh
	case "medium":
		return riskMedium
	case "low":
		return riskLow
	default:
		return lipgloss.NewStyle()
	}
}

func styleForPriority(priority string) lipgloss.Style {
	switch priority {
	case "urgent":
		return priorityUrgent
	case "high":
		return priorityHigh
	default:
		return priorityOther
	}
}

func resolveRequest(id string, approve bool) tea.Cmd {
	return func() tea.Msg {
		msg := dashResolvedMsg{id: id}
		if approve {
			msg.status = "approved"
			msg.ok = Approvals.Approve(id, "dashboard")
		} else {
			msg.status = "denied"
			msg.ok = Approvals.Deny(id, "dashboard", "denied from dashboard")
		}
		return msg
	}
}

func loadDashData() tea.Msg {
	var result dashDataMsg

	if Approvals != nil {
		for _, r := range Approvals.PendingRequests(0, "") {
			result.pending = append(result.pending, approvalRow{
				id:          r.ID,
				category:    string(r.ActionCategory),
				risk:        string(r.RiskLevel),
				description: r.Description,
				expires:     r.ExpiresAt.Format("2006-01-02 15:04 UTC"),
			})
		}
	}

	if Engine != nil {
		for _, i := range Engine.Intentions(intention.Filter{ActiveOnly: true}) {
			result.intentions = append(result.intentions, intentionRow{
				id:         i.ID,
				kind:       string(i.Type),
				priority:   string(i.Priority),
				confidence: i.Confidence,
				title:      i.Title,
			})
		}
	}

	if MetricsCalc != nil {
		since := time.Now().UTC().AddDate(0, 0, -7)
		metrics, err := MetricsCalc.Calculate(since)
		if err != nil {
			result.err = fmt.Errorf("loading metrics: %w", err)
			return result
		}
		result.pipeline = &pipelineSnapshot{
			intentionsCreated:  metrics.IntentionsCreated,
			decisionsEvaluated: metrics.DecisionsEvaluated,
			approvalsRequested: metrics.ApprovalsRequested,
			workflowsCompleted: metrics.WorkflowsCompleted,
			workflowsFailed:    metrics.WorkflowsFailed,
			eventCount:         metrics.EventCount,
		}
	}

	return result
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive TUI for pending approvals, intentions, and metrics",
	Long: `Launch an interactive terminal dashboard showing pending approval
requests, active intentions, and pipeline metrics in a live view.

Navigate between panels with Tab, move the approval cursor with the arrow
keys, approve with a, deny with d, refresh with r, quit with q.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Approvals == nil {
			return fmt.Errorf("approval workflow not initialized")
		}
		p := tea.NewProgram(newDashboardModel(), tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
