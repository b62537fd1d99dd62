package cmd

import (
	"fmt"

	"github.com/nongsanviet/shopcli/internal/display"
	"github.com/nongsanviet/shopcli/internal/voucher"
	"github.com/spf13/cobra"
)

var applyCmd = &cobra.Command{
	Use:   "apply CODE",
	Short: "Validate a typed voucher code and compute its discount",
	Example: `  shopcli apply SUMMER10 --user u-123 --amount 250000
  shopcli apply freeship -u u-123 -a 150000 --shop s-01 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runApply,
}

var selectCmd = &cobra.Command{
	Use:   "select CODE",
	Short: "Apply one of the user's claimed vouchers",
	Long: "Loads the user's claimed vouchers for the cart and applies the one with\n" +
		"CODE. Ineligible vouchers are rejected with the server's reason without\n" +
		"any further calls.",
	Example: `  shopcli select SUMMER10 --user u-123 --amount 250000`,
	Args:    cobra.ExactArgs(1),
	RunE:    runSelect,
}

func init() {
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(selectCmd)
}

func runApply(cmd *cobra.Command, args []string) error {
	if err := validateCartFlags(); err != nil {
		return err
	}
	app, err := setupApp(cmd)
	if err != nil {
		return err
	}

	res := app.reconciler().ApplyByCode(cmd.Context(), args[0], app.userID(), currentCart())
	return printApplyOutcome(cmd, res)
}

func runSelect(cmd *cobra.Command, args []string) error {
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

	rec := app.reconciler()
	candidates := rec.LoadCandidates(cmd.Context(), userID, currentCart())
	candidate, ok := candidates.Find(args[0])
	if !ok {
		if candidates.MineErr != nil {
			return upstreamError("loading vouchers", candidates.MineErr)
		}
		return notFoundError(
			fmt.Sprintf("no vouchers found with code %s among your claimed vouchers", args[0]),
			fmt.Sprintf("shopcli apply %s --user %s --amount %s", args[0], userID, flagAmount.String()),
		)
	}

	res := rec.SelectVoucher(cmd.Context(), candidate, flagAmount)
	return printApplyOutcome(cmd, res)
}

func printApplyOutcome(cmd *cobra.Command, res voucher.ApplyResult) error {
	if flagJSON {
		if err := display.PrintApplyResultJSON(cmd.OutOrStdout(), res); err != nil {
			return err
		}
	} else {
		display.PrintApplyResult(cmd.OutOrStdout(), res)
	}
	if !res.Applied() {
		return rejectedError(res)
	}
	return nil
}
