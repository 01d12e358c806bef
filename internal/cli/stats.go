package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/mytasks/internal/observability"
)

var (
	statsJSON  bool
	statsSince string
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Display task activity from the event log",
	Long: `Display counts of task activity recorded in the event log: tasks created,
completed, reopened, edited and deleted, and how often tasks moved into each
state.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if MetricsCalc == nil {
			return fmt.Errorf("metrics calculator not initialized (event log may be disabled)")
		}

		sinceTime, err := observability.ParseSince(statsSince, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("parsing --since: %w", err)
		}

		metrics, err := MetricsCalc.Calculate(sinceTime)
		if err != nil {
			return fmt.Errorf("calculating metrics: %w", err)
		}

		if statsJSON {
			data, err := json.MarshalIndent(metrics, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting metrics as JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("Activity (since %s)\n\n", sinceTime.Format("2006-01-02"))
		fmt.Printf("  %-20s %d\n", "Events recorded:", metrics.EventCount)
		fmt.Printf("  %-20s %d\n", "Tasks created:", metrics.TasksCreated)
		fmt.Printf("  %-20s %d\n", "Tasks completed:", metrics.TasksCompleted)
		fmt.Printf("  %-20s %d\n", "Tasks reopened:", metrics.TasksReopened)
		fmt.Printf("  %-20s %d\n", "Tasks edited:", metrics.TasksUpdated)
		fmt.Printf("  %-20s %d\n", "Tasks deleted:", metrics.TasksDeleted)
		if metrics.LoadFailures > 0 {
			fmt.Printf("  %-20s %d\n", "Load failures:", metrics.LoadFailures)
		}

		if len(metrics.StateChanges) > 0 {
			fmt.Println("\n  Moved into state:")
			states := make([]string, 0, len(metrics.StateChanges))
			for state := range metrics.StateChanges {
				states = append(states, state)
			}
			sort.Strings(states)
			for _, state := range states {
				fmt.Printf("    %-18s %d\n", state+":", metrics.StateChanges[state])
			}
		}

		if metrics.OldestEvent != nil {
			fmt.Printf("\n  %-20s %s\n", "Oldest event:", metrics.OldestEvent.Format(time.RFC3339))
		}
		if metrics.NewestEvent != nil {
			fmt.Printf("  %-20s %s\n", "Newest event:", metrics.NewestEvent.Format(time.RFC3339))
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Output metrics as JSON")
	statsCmd.Flags().StringVar(&statsSince, "since", observability.DefaultWindow, "Time window (e.g. 7d, 30d, 24h)")
	rootCmd.AddCommand(statsCmd)
}
