package cmd

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/nongsanviet/shopcli/internal/display"
	"github.com/nongsanviet/shopcli/internal/events"
	"github.com/nongsanviet/shopcli/internal/voucher"
	"github.com/spf13/cobra"
)

var pickCmd = &cobra.Command{
	Use:   "pick",
	Short: "Pick a voucher for a cart interactively",
	Long: "Opens the voucher dialog: claimed vouchers and claimable platform vouchers\n" +
		"in two groups, with manual code entry. The applied voucher is printed on exit.",
	Example: `  shopcli pick --user u-123 --amount 250000
  shopcli pick -u u-123 -a 250000 --shop s-01 --product-ids p1,p2`,
	RunE: runPick,
}

func init() {
	rootCmd.AddCommand(pickCmd)
}

func runPick(cmd *cobra.Command, _ []string) error {
	if err := validateCartFlags(); err != nil {
		return err
	}
	if !flagJSON && !isInteractiveSession(cmd.InOrStdin(), cmd.OutOrStdout()) {
		return invalidArgsError(
			"`shopcli pick` requires an interactive terminal",
			"Use `shopcli vouchers --user ID --amount N --json` in pipelines.",
		)
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

	if flagJSON {
		candidates := rec.LoadCandidates(cmd.Context(), userID, currentCart())
		return display.PrintVouchersJSON(cmd.OutOrStdout(), candidates)
	}

	widget := voucher.NewWidget(rec, userID, currentCart())
	program := tea.NewProgram(
		newVoucherPickModel(cmd.Context(), widget, userID, flagAmount),
		tea.WithAltScreen(),
		tea.WithContext(cmd.Context()),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)
	unsubscribe := app.bus.Subscribe(func(e events.Event) {
		program.Send(pickEventMsg{event: e})
	})
	_, runErr := program.Run()
	unsubscribe()
	widget.Close()
	if runErr != nil {
		return runErr
	}

	if sel, ok := widget.Selection(); ok {
		display.PrintApplyResult(cmd.OutOrStdout(), sel)
		return nil
	}
	app.log.Debug().Str("state", widget.State().String()).Msg("voucher dialog closed without a selection")
	return nil
}
