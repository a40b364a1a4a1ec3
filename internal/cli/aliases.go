package cli

import "github.com/spf13/cobra"

// Top-level shortcuts for the two switch operations people run daily.

var checkinCmd = &cobra.Command{
	Use:   "checkin",
	Short: "Check in on your dead-man's-switch",
	Run: func(cmd *cobra.Command, args []string) {
		switchCheckinCmd.Run(cmd, args)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show dead-man's-switch status",
	Run: func(cmd *cobra.Command, args []string) {
		switchStatusCmd.Run(cmd, args)
	},
}

func init() {
	checkinCmd.Flags().StringVar(&switchUsername, "user", "", "switch owner username")
	statusCmd.Flags().StringVar(&switchUsername, "user", "", "switch owner username")
	rootCmd.AddCommand(checkinCmd)
	rootCmd.AddCommand(statusCmd)
}
