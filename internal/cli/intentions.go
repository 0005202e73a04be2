package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/autopilot/internal/intention"
	"github.com/valter-silva-au/autopilot/pkg/models"
)

var (
	intentionsType    string
	intentionsMinConf float64
	intentionsProject string
	intentionsAll     bool
)

var intentionsCmd = &cobra.Command{
	Use:   "intentions",
	Short: "List intentions in the table",
	Long: `List intentions, sorted by priority and confidence.

By default only active (unexpired) intentions are shown; --all includes
expired ones still awaiting the reaper.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Engine == nil {
			return fmt.Errorf("intention engine not initialized")
		}

		filter := intention.Filter{
			MinConfidence: intentionsMinConf,
			ProjectPath:   intentionsProject,
			ActiveOnly:    !intentionsAll,
		}
		if intentionsType != "" {
			filter.Types = []models.IntentionType{models.IntentionType(intentionsType)}
		}

		intentions := Engine.Intentions(filter)
		if len(intentions) == 0 {
			fmt.Println("No intentions found.")
			return nil
		}

		fmt.Printf("%-12s %-10s %-8s %-6s %s\n", "ID", "TYPE", "PRIORITY", "CONF", "TITLE")
		for _, intent := range intentions {
			fmt.Printf("%-12s %-10s %-8s %3.0f%%  %s\n",
				intent.ID, intent.Type, intent.Priority, intent.Confidence*100, intent.Title)
		}
		return nil
	},
}

var intentionsSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Reap expired intentions and decisions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Pipeline == nil {
			return fmt.Errorf("pipeline not initialized")
		}
		intentions, decisions, approvals := Pipeline.Sweep()
		fmt.Printf("Reaped %d intention(s), %d decision(s); expired %d approval(s).\n",
			intentions, decisions, approvals)
		return nil
	},
}

func init() {
	intentionsCmd.Flags().StringVar(&intentionsType, "type", "", "filter by intention type")
	intentionsCmd.Flags().Float64Var(&intentionsMinConf, "min-confidence", 0, "minimum confidence")
	intentionsCmd.Flags().StringVar(&intentionsProject, "project", "", "filter by project path")
	intentionsCmd.Flags().BoolVar(&intentionsAll, "all", false, "include expired intentions")
	intentionsCmd.AddCommand(intentionsSweepCmd)
	rootCmd.AddCommand(intentionsCmd)
}
