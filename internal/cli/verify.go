package cli

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/duressd/duressd/internal/activity"
	"github.com/duressd/duressd/pkg/config"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the integrity of the on-disk activity log",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if cfg.Activity.LogPath == "" {
			fmtErr("no activity log path configured")
			os.Exit(1)
		}

		sink := activity.NewFileSink(cfg.Activity.LogPath)
		if err := sink.Verify(); err != nil {
			fmtErr("activity log verification failed: %v", err)
			os.Exit(1)
		}

		if jsonOutput {
			return outputJSON(map[string]any{"verified": true, "path": cfg.Activity.LogPath})
		}
		color.Green("Activity log chain intact: %s", cfg.Activity.LogPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
