package cmd

import (
	"fmt"

	"github.com/nongsanviet/shopcli/internal/display"
	"github.com/spf13/cobra"
)

var vouchersCmd = &cobra.Command{
	Use:   "vouchers",
	Short: "List claimed and claimable vouchers for a cart",
	Long: "Loads the user's claimed vouchers (annotated with eligibility for the cart)\n" +
		"and platform vouchers the user qualifies for but has not claimed. The two\n" +
		"groups load independently; one failing does not hide the other.",
	Example: `  shopcli vouchers --user u-123 --amount 250000
  shopcli vouchers -u u-123 -a 250000 --shop s-01 --product-ids p1,p2 --json`,
	RunE: runVouchers,
}

func init() {
	rootCmd.AddCommand(vouchersCmd)
}

func validateCartFlags() error {
	if flagAmount.IsNegative() {
		return invalidArgsError(
			"--amount must not be negative",
			"shopcli vouchers --user u-123 --amount 250000",
		)
	}
	return nil
}

func runVouchers(cmd *cobra.Command, _ []string) error {
	if err := validateCartFlags(); err != nil {
		return err
	}

	app, err := setupApp(cmd)
	if err != nil {
		return err
	}
	userID, err := app.requireUser()
	if err != nil {
		return err
	}
	app.printToasts(cmd)

	candidates := app.reconciler().LoadCandidates(cmd.Context(), userID, currentCart())
	if candidates.MineErr != nil && candidates.PlatformErr != nil {
		return upstreamError("loading vouchers", candidates.MineErr)
	}
	if candidates.Empty() && candidates.MineErr == nil && candidates.PlatformErr == nil {
		return notFoundError(
			fmt.Sprintf("no vouchers found for user %s", userID),
			"Claim vouchers in the storefront first.",
		)
	}

	if flagJSON {
		return display.PrintVouchersJSON(cmd.OutOrStdout(), candidates)
	}
	display.PrintVouchers(cmd.OutOrStdout(), candidates)
	return nil
}
