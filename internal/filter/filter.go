package filter

import (
	"html"
	"sort"
	"strings"

	"github.com/nongsanviet/shopcli/internal/api"
	"github.com/shopspring/decimal"
)

// Options holds all filter criteria.
type Options struct {
	Category string
	Query    string
	OnSale   bool
	MinPrice decimal.Decimal
	MaxPrice decimal.Decimal
	Sort     string
	Limit    int
}

// Apply filters a slice of products according to the given options.
func Apply(items []api.Product, opts Options) []api.Product {
	category := strings.TrimSpace(opts.Category)
	query := Normalize(opts.Query)
	hasMin := opts.MinPrice.IsPositive()
	hasMax := opts.MaxPrice.IsPositive()
	sortMode := normalizeSortMode(opts.Sort)
	var inCategory func(string) bool
	if category != "" {
		inCategory = categoryMatcherFor(category)
	}

	var result []api.Product
	for _, item := range items {
		if inCategory != nil && !inCategory(ProductCategory(item)) {
			continue
		}
		if opts.OnSale && !IsOnSale(item) {
			continue
		}
		if hasMin || hasMax {
			price := EffectivePrice(item)
			if hasMin && price.LessThan(opts.MinPrice) {
				continue
			}
			if hasMax && price.GreaterThan(opts.MaxPrice) {
				continue
			}
		}
		if query != "" && !matchesQuery(item, query) {
			continue
		}
		result = append(result, item)
		if sortMode == "" && opts.Limit > 0 && len(result) == opts.Limit {
			return result
		}
	}

	if sortMode != "" {
		sortProducts(result, sortMode)
	}
	if opts.Limit > 0 && opts.Limit < len(result) {
		result = result[:opts.Limit]
	}
	return result
}

func matchesQuery(item api.Product, normQuery string) bool {
	if strings.Contains(Normalize(CleanText(item.Name)), normQuery) {
		return true
	}
	return strings.Contains(Normalize(CleanText(Deref(item.Description))), normQuery)
}

// EffectivePrice returns the sale price when it undercuts the list price.
func EffectivePrice(p api.Product) decimal.Decimal {
	if IsOnSale(p) {
		return *p.SalePrice
	}
	return p.Price
}

// IsOnSale reports whether the product carries a positive sale price below list.
func IsOnSale(p api.Product) bool {
	return p.SalePrice != nil && p.SalePrice.IsPositive() && p.SalePrice.LessThan(p.Price)
}

// CategoryCount pairs a catalog category with the number of products the
// matcher assigns to it.
type CategoryCount struct {
	Category api.Category
	Count    int
}

// CategoryCounts counts products per active category. Top-level categories
// come first by sort order and then name, each followed by its own nested
// categories. Nested categories whose parent is missing or inactive go last.
func CategoryCounts(products []api.Product, categories []api.Category) []CategoryCount {
	var top, nested []CategoryCount
	for _, c := range categories {
		if !c.IsActive {
			continue
		}
		count := 0
		for _, p := range products {
			if IsProductInCategory(ProductCategory(p), c.Name) {
				count++
			}
		}
		if c.IsTopLevel() {
			top = append(top, CategoryCount{Category: c, Count: count})
		} else {
			nested = append(nested, CategoryCount{Category: c, Count: count})
		}
	}
	sortCategoryCounts(top)
	sortCategoryCounts(nested)

	out := make([]CategoryCount, 0, len(top)+len(nested))
	placed := make([]bool, len(nested))
	for _, parent := range top {
		out = append(out, parent)
		for i, child := range nested {
			if !placed[i] && Deref(child.Category.ParentID) == parent.Category.ID {
				out = append(out, child)
				placed[i] = true
			}
		}
	}
	for i, child := range nested {
		if !placed[i] {
			out = append(out, child)
		}
	}
	return out
}

func sortCategoryCounts(counts []CategoryCount) {
	sort.SliceStable(counts, func(i, j int) bool {
		if counts[i].Category.SortOrder != counts[j].Category.SortOrder {
			return counts[i].Category.SortOrder < counts[j].Category.SortOrder
		}
		return counts[i].Category.Name < counts[j].Category.Name
	})
}

// ProductCategory returns the product's category label, or "" when absent.
func ProductCategory(p api.Product) string {
	return Deref(p.Category)
}

// Deref safely dereferences a string pointer, returning "" for nil.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// CleanText unescapes HTML entities and normalizes whitespace.
func CleanText(s string) string {
	s = html.UnescapeString(s)
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}
