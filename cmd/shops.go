package cmd

import (
	"sort"
	"strings"

	"github.com/nongsanviet/shopcli/internal/api"
	"github.com/nongsanviet/shopcli/internal/display"
	"github.com/nongsanviet/shopcli/internal/filter"
	"github.com/spf13/cobra"
)

var flagShopCount int

var shopsCmd = &cobra.Command{
	Use:   "shops",
	Short: "Compare shops by how many filtered products they carry",
	Example: `  shopcli shops --category "Trái cây"
  shopcli shops --query "gao st25" --on-sale --count 3
  shopcli shops --category "Hải sản" --json`,
	RunE: runShops,
}

func init() {
	rootCmd.AddCommand(shopsCmd)

	registerProductFilterFlags(shopsCmd.Flags())
	shopsCmd.Flags().IntVar(&flagShopCount, "count", 5, "Number of shops to show (1-20)")
}

func runShops(cmd *cobra.Command, _ []string) error {
	if err := validateProductFlags(); err != nil {
		return err
	}
	if flagShopCount < 1 || flagShopCount > 20 {
		return invalidArgsError(
			"--count must be between 1 and 20",
			"shopcli shops --count 5",
		)
	}

	app, err := setupApp(cmd)
	if err != nil {
		return err
	}
	items, err := fetchFilteredProducts(cmd, app.client)
	if err != nil {
		return err
	}

	results := rankShops(items)
	if len(results) == 0 {
		return notFoundError(
			"no shops have products matching your filters",
			"Relax filters like --category/--query/--on-sale.",
		)
	}
	if len(results) > flagShopCount {
		results = results[:flagShopCount]
	}

	if flagJSON {
		return display.PrintShopsJSON(cmd.OutOrStdout(), results)
	}
	display.PrintShops(cmd.OutOrStdout(), results)
	return nil
}

// rankShops groups products by shop. Order: most matches, then the largest
// summed discount percent, then the cheapest product. Products without a
// shop are skipped.
func rankShops(items []api.Product) []display.ShopSummary {
	byShop := map[string]*display.ShopSummary{}
	var order []string

	for _, item := range items {
		id := strings.TrimSpace(filter.Deref(item.ShopID))
		name := filter.CleanText(filter.Deref(item.ShopName))
		if id == "" && name == "" {
			continue
		}
		key := id
		if key == "" {
			key = "name:" + strings.ToLower(name)
		}

		r, ok := byShop[key]
		if !ok {
			r = &display.ShopSummary{
				ID:          id,
				Name:        emptyIf(name, "Shop "+id),
				LowestPrice: filter.EffectivePrice(item),
				TopProduct:  productTitle(item),
			}
			byShop[key] = r
			order = append(order, key)
		}

		r.MatchedProducts++
		if filter.IsOnSale(item) {
			r.OnSale++
		}
		r.Score += filter.DiscountPercent(item)
		if price := filter.EffectivePrice(item); price.LessThan(r.LowestPrice) {
			r.LowestPrice = price
		}
	}

	results := make([]display.ShopSummary, 0, len(order))
	for _, key := range order {
		results = append(results, *byShop[key])
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].MatchedProducts != results[j].MatchedProducts {
			return results[i].MatchedProducts > results[j].MatchedProducts
		}
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].LowestPrice.LessThan(results[j].LowestPrice)
	})
	for i := range results {
		results[i].Rank = i + 1
	}
	return results
}

func productTitle(item api.Product) string {
	if name := filter.CleanText(item.Name); name != "" {
		return name
	}
	if desc := filter.CleanText(filter.Deref(item.Description)); desc != "" {
		return desc
	}
	if item.ID != "" {
		return "Sản phẩm " + item.ID
	}
	return "Sản phẩm chưa đặt tên"
}

func emptyIf(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
