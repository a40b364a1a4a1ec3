// Package cli implements the duressd command line interface.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	jsonOutput bool
	configPath string
	serverURL  string

	rootCmd = &cobra.Command{
		Use:   "duressd",
		Short: "duressd - duress detection and dead-man's-switch daemon",
		Long: `duressd guards a wallet behind two credentials: the normal secret opens
the real wallet, the duress code opens a decoy while alerts escalate in
the background. It also supervises dead-man's-switches that fire the
same alert pipeline when a check-in deadline is missed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:3000", "address of the running daemon")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// outputJSON prints v as JSON if --json flag is set, otherwise does nothing.
func outputJSON(v any) error {
	if !jsonOutput {
		return nil
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func fmtErr(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
