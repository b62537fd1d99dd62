package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/nongsanviet/shopcli/internal/api"
	"github.com/nongsanviet/shopcli/internal/display"
	"github.com/nongsanviet/shopcli/internal/filter"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	flagCategory string
	flagQuery    string
	flagSort     string
	flagOnSale   bool
	flagMinPrice decimal.Decimal
	flagMaxPrice decimal.Decimal
	flagLimit    int
	flagPage     int
	flagPageSize int

	flagUser        string
	flagAmount      decimal.Decimal
	flagShop        string
	flagProductIDs  []string
	flagCategoryIDs []string

	flagAPIURL   string
	flagLogLevel string
	flagJSON     bool
)

var rootCmd = &cobra.Command{
	Use:   "shopcli",
	Short: "Browse the farm-produce storefront and reconcile vouchers",
	Long: "CLI client for the storefront REST backend. Lists products with\n" +
		"diacritic-tolerant category matching (\"rau cu\" finds \"Rau Củ\") and\n" +
		"works out which vouchers apply to a cart.\n\n" +
		"Agent-friendly mode: minor syntax issues are auto-corrected when intent is clear " +
		"(for example: -category rau, user=u-123, --ammount 250000).",
	Example: `  shopcli --category "Rau củ" --sort price
  shopcli --query "ca rot" --on-sale --limit 5
  shopcli categories
  shopcli vouchers --user u-123 --amount 250000
  shopcli apply SUMMER10 --user u-123 --amount 250000
  shopcli shops --category "Trái cây"`,
	RunE: runProducts,
}

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "List products (same as running shopcli with filter flags)",
	Example: `  shopcli products --category "Hải sản" --sort bestselling
  shopcli products --min-price 20000 --max-price 100000 --page 2`,
	RunE: runProducts,
}

func init() {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&flagJSON, "json", false, "Output as JSON")
	pf.StringVar(&flagAPIURL, "api-url", "", "Backend base URL (default from SHOPCLI_API_URL)")
	pf.StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVarP(&flagUser, "user", "u", "", "User ID for voucher lookups (default from SHOPCLI_USER_ID)")
	pf.VarP(newDecimalFlag(&flagAmount), "amount", "a", "Cart subtotal in VND")
	pf.StringVar(&flagShop, "shop", "", "Restrict to one shop ID")
	pf.StringSliceVar(&flagProductIDs, "product-ids", nil, "Cart product IDs (comma-separated)")
	pf.StringSliceVar(&flagCategoryIDs, "category-ids", nil, "Cart category IDs (comma-separated)")

	registerProductFilterFlags(rootCmd.Flags())
	registerPageFlags(rootCmd.Flags())

	rootCmd.AddCommand(productsCmd)
	registerProductFilterFlags(productsCmd.Flags())
	registerPageFlags(productsCmd.Flags())
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := runCLIContext(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func runCLI(args []string, stdout, stderr io.Writer) int {
	return runCLIContext(context.Background(), args, stdout, stderr)
}

func runCLIContext(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	resetCLIState()

	normalizedArgs, notes := normalizeCLIArgs(args)
	for _, note := range notes {
		fmt.Fprintf(stderr, "note: %s\n", note)
	}

	if len(normalizedArgs) == 0 {
		if err := printQuickStart(stdout, !isTTY(stdout)); err != nil {
			cliErr := classifyCLIError(err)
			fmt.Fprintln(stderr, formatCLIErrorText(cliErr))
			return cliErr.ExitCode
		}
		return ExitSuccess
	}

	if shouldAutoJSON(normalizedArgs, isTTY(stdout)) {
		normalizedArgs = append(normalizedArgs, "--json")
	}

	setCommandIO(rootCmd, stdout, stderr)
	rootCmd.SetArgs(normalizedArgs)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		cliErr := classifyCLIError(err)
		if hasJSONPreference(normalizedArgs) {
			if jerr := printCLIErrorJSON(stderr, cliErr); jerr != nil {
				fmt.Fprintln(stderr, formatCLIErrorText(classifyCLIError(jerr)))
				return ExitInternal
			}
		} else {
			fmt.Fprintln(stderr, formatCLIErrorText(cliErr))
		}
		return cliErr.ExitCode
	}
	return ExitSuccess
}

func setCommandIO(cmd *cobra.Command, stdout, stderr io.Writer) {
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	for _, child := range cmd.Commands() {
		setCommandIO(child, stdout, stderr)
	}
}

func resetCLIState() {
	flagCategory = ""
	flagQuery = ""
	flagSort = ""
	flagOnSale = false
	flagMinPrice = decimal.Zero
	flagMaxPrice = decimal.Zero
	flagLimit = 0
	flagPage = 1
	flagPageSize = 0
	flagUser = ""
	flagAmount = decimal.Zero
	flagShop = ""
	flagProductIDs = nil
	flagCategoryIDs = nil
	flagAPIURL = ""
	flagLogLevel = ""
	flagJSON = false
	flagShopCount = 5
	flagToken = ""
}

func registerProductFilterFlags(f *pflag.FlagSet) {
	f.StringVarP(&flagCategory, "category", "c", "", "Filter by category name; diacritics optional (e.g., \"Rau củ\", \"trai cay\")")
	f.StringVarP(&flagQuery, "query", "q", "", "Search product name and description")
	f.StringVar(&flagSort, "sort", "", "Sort by relevance, price, price-desc, discount, bestselling, rating, or newest")
	f.BoolVar(&flagOnSale, "on-sale", false, "Show only discounted products")
	f.Var(newDecimalFlag(&flagMinPrice), "min-price", "Minimum effective price in VND")
	f.Var(newDecimalFlag(&flagMaxPrice), "max-price", "Maximum effective price in VND")
	f.IntVarP(&flagLimit, "limit", "n", 0, "Limit number of results (0 = all)")
}

func registerPageFlags(f *pflag.FlagSet) {
	f.IntVarP(&flagPage, "page", "p", 1, "Page number (1-based)")
	f.IntVar(&flagPageSize, "page-size", 0, fmt.Sprintf("Products per page (default from SHOPCLI_PAGE_SIZE, max %d)", filter.MaxPageSize))
}

func validateProductFlags() error {
	if !filter.ValidSortMode(flagSort) {
		return invalidArgsError(
			"invalid value for --sort (use relevance, price, price-desc, discount, bestselling, rating, or newest)",
			"shopcli --sort price",
			"shopcli --sort bestselling",
		)
	}
	if flagMinPrice.IsNegative() || flagMaxPrice.IsNegative() {
		return invalidArgsError("--min-price and --max-price must not be negative")
	}
	if flagMinPrice.IsPositive() && flagMaxPrice.IsPositive() && flagMinPrice.GreaterThan(flagMaxPrice) {
		return invalidArgsError(
			"--min-price must not exceed --max-price",
			"shopcli --min-price 20000 --max-price 100000",
		)
	}
	if flagLimit < 0 {
		return invalidArgsError("--limit must not be negative", "shopcli --limit 10")
	}
	return nil
}

func currentFilterOptions() filter.Options {
	return filter.Options{
		Category: flagCategory,
		Query:    flagQuery,
		Sort:     flagSort,
		OnSale:   flagOnSale,
		MinPrice: flagMinPrice,
		MaxPrice: flagMaxPrice,
		Limit:    flagLimit,
	}
}

// fetchFilteredProducts loads the catalog and applies the filter flags.
func fetchFilteredProducts(cmd *cobra.Command, client *api.Client) ([]api.Product, error) {
	products, err := client.FetchProducts(cmd.Context(), "", flagShop)
	if err != nil {
		return nil, upstreamError("fetching products", err)
	}
	if len(products) == 0 {
		return nil, notFoundError(
			"no products found",
			"Check --shop, or that the backend has a catalog.",
		)
	}

	items := filter.Apply(products, currentFilterOptions())
	if len(items) == 0 {
		return nil, notFoundError(
			"no products match your filters",
			"Relax filters like --category/--query/--on-sale.",
			"Run `shopcli categories` to see category names.",
		)
	}
	return items, nil
}

func runProducts(cmd *cobra.Command, _ []string) error {
	if err := validateProductFlags(); err != nil {
		return err
	}
	if flagPage < 1 {
		return invalidArgsError("--page must be at least 1", "shopcli --page 2")
	}
	if flagPageSize < 0 {
		return invalidArgsError("--page-size must not be negative", "shopcli --page-size 24")
	}

	app, err := setupApp(cmd)
	if err != nil {
		return err
	}

	items, err := fetchFilteredProducts(cmd, app.client)
	if err != nil {
		return err
	}

	pageSize := flagPageSize
	if pageSize == 0 {
		pageSize = app.cfg.PageSize
	}
	page := filter.Paginate(items, flagPage, pageSize)

	if flagJSON {
		return display.PrintProductsJSON(cmd.OutOrStdout(), page)
	}
	display.PrintProducts(cmd.OutOrStdout(), page)
	return nil
}
