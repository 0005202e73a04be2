package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	statsJSON  bool
	statsSince string
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Display pipeline and approval statistics",
	Long: `Display approval queue statistics and aggregated pipeline metrics
derived from the event log.

Covers intention/decision counts, approvals by status, approval rate and
mean approval time, and workflow outcomes.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Approvals == nil {
			return fmt.Errorf("approval workflow not initialized")
		}

		stats := Approvals.Stats()

		if statsJSON {
			out := map[string]any{"approvals": stats}
			if MetricsCalc != nil {
				sinceTime, err := parseStatsSince(statsSince)
				if err != nil {
					return fmt.Errorf("parsing --since: %w", err)
				}
				metrics, err := MetricsCalc.Calculate(sinceTime)
				if err != nil {
					return fmt.Errorf("calculating metrics: %w", err)
				}
				out["pipeline"] = metrics
			}
			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting stats as JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		fmt.Println("Approval queue")
		fmt.Printf("  %-24s %d\n", "Pending:", stats.Pending)
		fmt.Printf("  %-24s %d\n", "Approved:", stats.Approved)
		fmt.Printf("  %-24s %d\n", "Denied:", stats.Denied)
		fmt.Printf("  %-24s %d\n", "Expired:", stats.Expired)
		fmt.Printf("  %-24s %d\n", "Cancelled:", stats.Cancelled)
		fmt.Printf("  %-24s %.0f%%\n", "Approval rate:", stats.ApprovalRate*100)
		if stats.MeanApprovalTime > 0 {
			fmt.Printf("  %-24s %s\n", "Mean approval time:", stats.MeanApprovalTime.Round(time.Second))
		}
		if len(stats.ByCategory) > 0 {
			fmt.Println("\n  Requests by category:")
			for category, count := range stats.ByCategory {
				fmt.Printf("    %-20s %d\n", string(category)+":", count)
			}
		}

		if MetricsCalc == nil {
			return nil
		}

		sinceTime, err := parseStatsSince(statsSince)
		if err != nil {
			return fmt.Errorf("parsing --since: %w", err)
		}
		metrics, err := MetricsCalc.Calculate(sinceTime)
		if err != nil {
			return fmt.Errorf("calculating metrics: %w", err)
		}

		fmt.Printf("\nPipeline (since %s)\n", sinceTime.Format("2006-01-02"))
		fmt.Printf("  %-24s %d\n", "Events recorded:", metrics.EventCount)
		fmt.Printf("  %-24s %d\n", "Intentions created:", metrics.IntentionsCreated)
		fmt.Printf("  %-24s %d\n", "Intentions expired:", metrics.IntentionsExpired)
		fmt.Printf("  %-24s %d\n", "Triggers rejected:", metrics.TriggersRejected)
		fmt.Printf("  %-24s %d\n", "Decisions evaluated:", metrics.DecisionsEvaluated)
		fmt.Printf("  %-24s %d\n", "Approvals requested:", metrics.ApprovalsRequested)
		fmt.Printf("  %-24s %d\n", "Reminders sent:", metrics.RemindersSent)
		fmt.Printf("  %-24s %d\n", "Workflows started:", metrics.WorkflowsStarted)
		fmt.Printf("  %-24s %d\n", "Workflows completed:", metrics.WorkflowsCompleted)
		fmt.Printf("  %-24s %d\n", "Workflows failed:", metrics.WorkflowsFailed)

		if metrics.OldestEvent != nil {
			fmt.Printf("\n  %-24s %s\n", "Oldest event:", metrics.OldestEvent.Format(time.RFC3339))
		}
		if metrics.NewestEvent != nil {
			fmt.Printf("  %-24s %s\n", "Newest event:", metrics.NewestEvent.Format(time.RFC3339))
		}

		return nil
	},
}

// parseStatsSince parses a human-friendly duration string like "7d", "30d",
// or "24h" and returns the corresponding time in the past.
func parseStatsSince(s string) (time.Time, error) {
	now := time.Now().UTC()
	s = strings.TrimSpace(s)
	if s == "" {
		return now.AddDate(0, 0, -7), nil
	}

	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid day duration %q", s)
		}
		return now.AddDate(0, 0, -days), nil
	}

	if strings.HasSuffix(s, "h") {
		hours, err := strconv.Atoi(strings.TrimSuffix(s, "h"))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid hour duration %q", s)
		}
		return now.Add(-time.Duration(hours) * time.Hour), nil
	}

	return time.Time{}, fmt.Errorf("unsupported duration format %q (use e.g. 7d, 30d, 24h)", s)
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Output stats as JSON")
	statsCmd.Flags().StringVar(&statsSince, "since", "7d", "Time window for pipeline metrics (e.g. 7d, 30d, 24h)")
	rootCmd.AddCommand(statsCmd)
}
