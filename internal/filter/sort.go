package filter

import (
	"sort"
	"strings"

	"github.com/nongsanviet/shopcli/internal/api"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// DiscountPercent returns how far the sale price undercuts list price, in
// whole percent. Products not on sale score zero.
func DiscountPercent(p api.Product) int64 {
	if !IsOnSale(p) || !p.Price.IsPositive() {
		return 0
	}
	saved := p.Price.Sub(*p.SalePrice)
	return saved.Mul(hundred).Div(p.Price).Floor().IntPart()
}

// SortModes lists the canonical sort mode names.
var SortModes = []string{"relevance", "price", "price-desc", "discount", "bestselling", "rating", "newest"}

// ValidSortMode reports whether raw names a known sort mode or alias.
func ValidSortMode(raw string) bool {
	v := strings.ToLower(strings.TrimSpace(raw))
	return v == "" || v == "relevance" || normalizeSortMode(v) != ""
}

// CanonicalSortMode maps aliases onto canonical sort names; relevance and
// unknown values map to "".
func CanonicalSortMode(raw string) string {
	return normalizeSortMode(raw)
}

func normalizeSortMode(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "relevance":
		return ""
	case "price", "price-asc", "cheap", "cheapest":
		return "price"
	case "price-desc", "expensive":
		return "price-desc"
	case "discount", "sale", "savings":
		return "discount"
	case "bestselling", "sold", "popular":
		return "bestselling"
	case "rating", "rated", "top":
		return "rating"
	case "newest", "new", "latest":
		return "newest"
	default:
		return ""
	}
}

func sortProducts(items []api.Product, mode string) {
	var less func(a, b api.Product) bool
	switch mode {
	case "price":
		less = func(a, b api.Product) bool { return EffectivePrice(a).LessThan(EffectivePrice(b)) }
	case "price-desc":
		less = func(a, b api.Product) bool { return EffectivePrice(a).GreaterThan(EffectivePrice(b)) }
	case "discount":
		less = func(a, b api.Product) bool { return DiscountPercent(a) > DiscountPercent(b) }
	case "bestselling":
		less = func(a, b api.Product) bool { return a.SoldCount > b.SoldCount }
	case "rating":
		less = func(a, b api.Product) bool { return a.Rating > b.Rating }
	case "newest":
		less = func(a, b api.Product) bool { return a.CreatedAt.After(b.CreatedAt.Time) }
	default:
		return
	}
	sort.SliceStable(items, func(i, j int) bool { return less(items[i], items[j]) })
}
