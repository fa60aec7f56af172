package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/folio/internal/gate"
)

var adminsCmd = &cobra.Command{
	Use:   "admins [email...]",
	Short: "Show the admin allowlist or check accounts against it",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		policy := gate.NewAllowlist(cfg.Admins...)
		out := cmd.OutOrStdout()

		if len(args) == 0 {
			if policy.Len() == 0 {
				fmt.Fprintln(out, "No admins configured.")
				return nil
			}
			for _, a := range cfg.Admins {
				fmt.Fprintln(out, a)
			}
			return nil
		}

		denied := 0
		for _, email := range args {
			if policy.Allowed(email) {
				fmt.Fprintf(out, "%s: allowed\n", email)
				continue
			}
			denied++
			fmt.Fprintf(out, "%s: denied\n", email)
		}
		if denied > 0 {
			return fmt.Errorf("%d of %d accounts are not on the allowlist", denied, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(adminsCmd)
}
