package cli

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/duressd/duressd/pkg/model"
)

var (
	switchUsername string
	switchInterval string
)

var switchCmd = &cobra.Command{
	Use:   "switch",
	Short: "Manage dead-man's-switches",
}

var switchCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Arm a new dead-man's-switch",
	Run: func(cmd *cobra.Command, args []string) {
		var st model.SwitchStatus
		err := newClient().post("/api/switch", map[string]string{
			"username": switchUsername,
			"interval": switchInterval,
		}, &st)
		if err != nil {
			fmtErr("create switch: %v", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(st)
		} else {
			fmt.Printf("Switch armed for '%s'\n", st.Username)
			fmt.Printf("  Interval: %s\n", st.Interval)
			fmt.Printf("  Next deadline: %s\n", st.NextDeadline.Format(time.RFC3339))
		}
	},
}

var switchCheckinCmd = &cobra.Command{
	Use:   "checkin",
	Short: "Check in and restart the countdown",
	Run: func(cmd *cobra.Command, args []string) {
		var st model.SwitchStatus
		err := newClient().post("/api/switch/checkin", map[string]string{
			"username": switchUsername,
		}, &st)
		if err != nil {
			fmtErr("check in: %v", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(st)
		} else {
			fmt.Printf("Checked in for '%s'\n", st.Username)
			fmt.Printf("  Next deadline: %s\n", st.NextDeadline.Format(time.RFC3339))
		}
	},
}

var switchEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Re-arm a paused switch",
	Run: func(cmd *cobra.Command, args []string) {
		runSwitchAction("/api/switch/enable")
	},
}

var switchDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Pause a switch without losing it",
	Run: func(cmd *cobra.Command, args []string) {
		runSwitchAction("/api/switch/disable")
	},
}

var switchStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show switch status",
	Run: func(cmd *cobra.Command, args []string) {
		if switchUsername == "" {
			var list []model.SwitchStatus
			if err := newClient().get("/api/switch", &list); err != nil {
				fmtErr("list switches: %v", err)
				os.Exit(1)
			}
			if jsonOutput {
				outputJSON(list)
				return
			}
			for _, st := range list {
				printSwitchStatus(st)
			}
			return
		}

		var st model.SwitchStatus
		path := "/api/switch?username=" + url.QueryEscape(switchUsername)
		if err := newClient().get(path, &st); err != nil {
			fmtErr("switch status: %v", err)
			os.Exit(1)
		}
		if jsonOutput {
			outputJSON(st)
		} else {
			printSwitchStatus(st)
		}
	},
}

func runSwitchAction(path string) {
	var st model.SwitchStatus
	err := newClient().post(path, map[string]string{"username": switchUsername}, &st)
	if err != nil {
		fmtErr("switch action: %v", err)
		os.Exit(1)
	}

	if jsonOutput {
		outputJSON(st)
	} else {
		printSwitchStatus(st)
	}
}

func printSwitchStatus(st model.SwitchStatus) {
	fmt.Printf("Switch: %s\n", st.Username)
	fmt.Printf("  State: %s\n", colorState(st.State))
	if st.State == model.SwitchArmed {
		fmt.Printf("  Next deadline: %s (%s remaining)\n",
			st.NextDeadline.Format(time.RFC3339), st.Remaining.Round(time.Second))
	}
	if st.TriggeredAt != nil {
		fmt.Printf("  Triggered: %s\n", st.TriggeredAt.Format(time.RFC3339))
	}
}

func colorState(state model.SwitchState) string {
	switch state {
	case model.SwitchArmed:
		return color.GreenString(string(state))
	case model.SwitchPaused:
		return color.YellowString(string(state))
	default:
		return color.New(color.FgRed, color.Bold).Sprint(string(state))
	}
}

func init() {
	switchCmd.PersistentFlags().StringVar(&switchUsername, "user", "", "switch owner username")
	switchCreateCmd.Flags().StringVar(&switchInterval, "interval", "168h", "check-in interval")
	switchCmd.AddCommand(switchCreateCmd)
	switchCmd.AddCommand(switchCheckinCmd)
	switchCmd.AddCommand(switchEnableCmd)
	switchCmd.AddCommand(switchDisableCmd)
	switchCmd.AddCommand(switchStatusCmd)
	rootCmd.AddCommand(switchCmd)
}
