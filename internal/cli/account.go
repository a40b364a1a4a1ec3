package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/duressd/duressd/pkg/model"
)

var (
	accountSecret       string
	accountDuressCode   string
	accountContacts     []string
	accountRealBalance  float64
	accountDecoyBalance float64
)

var setupCmd = &cobra.Command{
	Use:   "setup <username>",
	Short: "Enroll an identity with a normal secret and a duress code",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var out struct {
			Username string `json:"username"`
		}
		err := newClient().post("/api/setup", map[string]any{
			"username":           args[0],
			"secret":             accountSecret,
			"duress_code":        accountDuressCode,
			"emergency_contacts": accountContacts,
			"real_balance":       accountRealBalance,
			"decoy_balance":      accountDecoyBalance,
		}, &out)
		if err != nil {
			fmtErr("setup: %v", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(out)
		} else {
			fmt.Printf("Enrolled '%s'\n", out.Username)
		}
	},
}

var loginCmd = &cobra.Command{
	Use:   "login <username>",
	Short: "Authenticate and show the unlocked wallet",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var out struct {
			Success bool          `json:"success"`
			Wallet  *model.Wallet `json:"wallet"`
		}
		err := newClient().post("/api/login", map[string]string{
			"username": args[0],
			"secret":   accountSecret,
		}, &out)
		if err != nil {
			fmtErr("login: %v", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(out)
			return
		}

		color.Green("Login successful")
		if out.Wallet != nil {
			fmt.Printf("  Address: %s\n", out.Wallet.Address)
			fmt.Printf("  Balance: %.4f\n", out.Wallet.Balance)
			fmt.Printf("  Transactions: %d\n", len(out.Wallet.Transactions))
		}
	},
}

func init() {
	setupCmd.Flags().StringVar(&accountSecret, "secret", "", "normal secret")
	setupCmd.Flags().StringVar(&accountDuressCode, "duress-code", "", "duress code")
	setupCmd.Flags().StringSliceVar(&accountContacts, "contact", nil, "emergency contact (repeatable)")
	setupCmd.Flags().Float64Var(&accountRealBalance, "real-balance", 0, "initial real wallet balance")
	setupCmd.Flags().Float64Var(&accountDecoyBalance, "decoy-balance", 0, "initial decoy wallet balance")
	loginCmd.Flags().StringVar(&accountSecret, "secret", "", "secret to attempt")
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(loginCmd)
}
