package cmd

import (
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/nongsanviet/shopcli/internal/display"
	"github.com/nongsanviet/shopcli/internal/filter"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse products interactively, grouped by category",
	Example: `  shopcli browse
  shopcli browse --category "Rau củ" --sort price
  shopcli browse --shop s-01 --on-sale`,
	RunE: runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)
	registerProductFilterFlags(browseCmd.Flags())
}

func runBrowse(cmd *cobra.Command, _ []string) error {
	if err := validateProductFlags(); err != nil {
		return err
	}
	if !flagJSON && !isInteractiveSession(cmd.InOrStdin(), cmd.OutOrStdout()) {
		return invalidArgsError(
			"`shopcli browse` requires an interactive terminal",
			"Use `shopcli --category \"Rau củ\" --json` in pipelines.",
		)
	}

	app, err := setupApp(cmd)
	if err != nil {
		return err
	}

	if flagJSON {
		items, err := fetchFilteredProducts(cmd, app.client)
		if err != nil {
			return err
		}
		return display.PrintProductsJSON(cmd.OutOrStdout(), filter.Paginate(items, 1, filter.MaxPageSize))
	}

	model := newLoadingProductsTUIModel(tuiLoadConfig{
		ctx:         cmd.Context(),
		client:      app.client,
		shopID:      flagShop,
		initialOpts: currentFilterOptions(),
	})
	final, err := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithContext(cmd.Context()),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	).Run()
	if err != nil {
		return err
	}
	if m, ok := final.(productsTUIModel); ok && m.fatalErr != nil {
		return m.fatalErr
	}
	return nil
}

func isInteractiveSession(stdin io.Reader, stdout io.Writer) bool {
	inputFile, ok := stdin.(*os.File)
	if !ok {
		return false
	}
	if !term.IsTerminal(int(inputFile.Fd())) {
		return false
	}
	return isTTY(stdout)
}
