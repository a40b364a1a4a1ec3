package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/duressd/duressd/pkg/metrics"
	"github.com/duressd/duressd/pkg/model"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show daemon activity statistics",
	Run: func(cmd *cobra.Command, args []string) {
		var body struct {
			Activity model.Statistics `json:"activity"`
			Counters metrics.Snapshot `json:"counters"`
		}
		if err := newClient().get("/api/stats", &body); err != nil {
			fmtErr("fetch stats: %v", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(body)
			return
		}

		fmt.Printf("Attempts: %d (%d normal, %d duress)\n",
			body.Activity.TotalAttempts, body.Activity.NormalCount, body.Activity.DuressCount)
		fmt.Printf("Alerts sent: %d\n", body.Activity.AlertsSent)
		fmt.Printf("Deliveries: %d ok, %d failed\n",
			body.Counters.AlertsDelivered, body.Counters.AlertsFailed)
		fmt.Printf("Switch triggers: %d\n", body.Counters.SwitchTriggers)
		if len(body.Activity.RecentEvents) > 0 {
			fmt.Println("Recent events:")
			for _, ev := range body.Activity.RecentEvents {
				fmt.Printf("  %s  %-9s %-5s %s\n",
					ev.Timestamp.Format(time.RFC3339), ev.Level, ev.Source, ev.Username)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
