package cmd

import (
	"github.com/nongsanviet/shopcli/internal/api"
	"github.com/nongsanviet/shopcli/internal/display"
	"github.com/nongsanviet/shopcli/internal/filter"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List active categories with how many products match each",
	Example: `  shopcli categories
  shopcli categories --shop s-01 --json`,
	RunE: runCategories,
}

func init() {
	rootCmd.AddCommand(categoriesCmd)
}

func runCategories(cmd *cobra.Command, _ []string) error {
	app, err := setupApp(cmd)
	if err != nil {
		return err
	}

	var (
		categories []api.Category
		products   []api.Product
	)
	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		var err error
		categories, err = app.client.FetchCategories(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		products, err = app.client.FetchProducts(ctx, "", flagShop)
		return err
	})
	if err := g.Wait(); err != nil {
		return upstreamError("fetching categories", err)
	}

	counts := filter.CategoryCounts(products, categories)
	if len(counts) == 0 {
		return notFoundError(
			"no categories found",
			"Check that the backend has active categories.",
		)
	}

	if flagJSON {
		return display.PrintCategoriesJSON(cmd.OutOrStdout(), counts)
	}
	display.PrintCategories(cmd.OutOrStdout(), counts)
	return nil
}
