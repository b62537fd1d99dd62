package display

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/nongsanviet/shopcli/internal/api"
	"github.com/nongsanviet/shopcli/internal/events"
	"github.com/nongsanviet/shopcli/internal/filter"
	"github.com/nongsanviet/shopcli/internal/voucher"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Styles for terminal output.
var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	saleTag      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5")) // magenta
	priceStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))            // green
	dealStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))            // yellow
	dimStyle     = lipgloss.NewStyle().Faint(true)
	cyanStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

// ProductJSON is the JSON output shape for a product.
type ProductJSON struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Category        string          `json:"category"`
	Shop            string          `json:"shop"`
	Price           decimal.Decimal `json:"price"`
	SalePrice       decimal.Decimal `json:"salePrice"`
	OnSale          bool            `json:"onSale"`
	DiscountPercent int64           `json:"discountPercent"`
	Unit            string          `json:"unit"`
	Stock           int             `json:"stock"`
	SoldCount       int             `json:"soldCount"`
	Rating          float64         `json:"rating"`
	Description     string          `json:"description"`
	ImageURL        string          `json:"imageUrl"`
}

// ProductPageJSON wraps one page of products.
type ProductPageJSON struct {
	Items      []ProductJSON `json:"items"`
	Page       int           `json:"page"`
	PageSize   int           `json:"pageSize"`
	TotalItems int           `json:"totalItems"`
	TotalPages int           `json:"totalPages"`
}

// CategoryJSON is the JSON output shape for a category with its count.
type CategoryJSON struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Featured bool   `json:"featured"`
	TopLevel bool   `json:"topLevel"`
	Products int    `json:"products"`
}

// VoucherJSON is the JSON output shape for a voucher in either group.
type VoucherJSON struct {
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	TypeLabel   string          `json:"typeLabel"`
	Description string          `json:"description"`
	Eligible    bool            `json:"eligible"`
	Discount    decimal.Decimal `json:"discount"`
	Reason      string          `json:"reason,omitempty"`
	Unavailable string          `json:"unavailable,omitempty"`
	ExpiresAt   string          `json:"expiresAt,omitempty"`
}

// VoucherGroupsJSON keeps claimed and claimable vouchers apart.
type VoucherGroupsJSON struct {
	Mine      []VoucherJSON `json:"mine"`
	Available []VoucherJSON `json:"available"`
	Errors    []string      `json:"errors,omitempty"`
}

// ShopSummary is one ranked shop in a comparison.
type ShopSummary struct {
	Rank            int             `json:"rank"`
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	MatchedProducts int             `json:"matchedProducts"`
	OnSale          int             `json:"onSale"`
	Score           int64           `json:"score"`
	LowestPrice     decimal.Decimal `json:"lowestPrice"`
	TopProduct      string          `json:"topProduct"`
}

// Group headings for the voucher list.
const (
	MineHeading      = "Voucher của tôi"
	AvailableHeading = "Voucher có thể nhận"
)

var vndPrinter = message.NewPrinter(language.Vietnamese)

// FormatVND renders an amount in Vietnamese dong, e.g. 20.000₫.
func FormatVND(d decimal.Decimal) string {
	return vndPrinter.Sprintf("%d", d.Round(0).IntPart()) + "₫"
}

// Notes for platform vouchers that cannot be used right now.
const (
	VoucherInactiveNote  = "Ngoài thời gian áp dụng"
	VoucherExhaustedNote = "Đã hết lượt sử dụng"
)

// VoucherAvailability returns a note when v cannot be used at now, or "".
// Listings that omit the status are judged on their dates alone.
func VoucherAvailability(v api.Voucher, now time.Time) string {
	if v.UsageExhausted() {
		return VoucherExhaustedNote
	}
	if v.Status == "" {
		v.Status = api.VoucherStatusActive
	}
	if !v.ActiveAt(now) {
		return VoucherInactiveNote
	}
	return ""
}

// DescribeVoucher summarizes what a voucher gives and what it requires.
func DescribeVoucher(v api.Voucher) string {
	var parts []string
	switch api.VoucherType(strings.ToLower(string(v.Type))) {
	case api.VoucherPercentage:
		part := "Giảm " + v.Value.String() + "%"
		if v.MaxDiscountAmount != nil && v.MaxDiscountAmount.IsPositive() {
			part += " tối đa " + FormatVND(*v.MaxDiscountAmount)
		}
		parts = append(parts, part)
	case api.VoucherFixedAmount:
		parts = append(parts, "Giảm "+FormatVND(v.Value))
	case api.VoucherFreeShipping:
		parts = append(parts, v.Type.Label())
	default:
		if v.Type != "" {
			parts = append(parts, string(v.Type))
		}
	}
	if v.MinOrderAmount.IsPositive() {
		parts = append(parts, "đơn tối thiểu "+FormatVND(v.MinOrderAmount))
	}
	return strings.Join(parts, ", ")
}

// PrintProducts renders one page of products.
func PrintProducts(w io.Writer, page filter.Page[api.Product]) {
	fmt.Fprintf(w, "\n%s — %s\n\n",
		headerStyle.Render("Sản phẩm"),
		cyanStyle.Render(fmt.Sprintf("%d sản phẩm (trang %d/%d)", page.TotalItems, page.Page, page.TotalPages)),
	)

	for _, item := range page.Items {
		printProduct(w, item)
		fmt.Fprintln(w)
	}

	if page.HasNext() {
		fmt.Fprintf(w, "%s\n\n", dimStyle.Render(fmt.Sprintf("Xem tiếp: --page %d", page.Page+1)))
	}
}

// PrintProductsJSON renders a page of products as JSON.
func PrintProductsJSON(w io.Writer, page filter.Page[api.Product]) error {
	out := ProductPageJSON{
		Items:      make([]ProductJSON, 0, len(page.Items)),
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalItems: page.TotalItems,
		TotalPages: page.TotalPages,
	}
	for _, item := range page.Items {
		out.Items = append(out.Items, toProductJSON(item))
	}
	return json.NewEncoder(w).Encode(out)
}

// PrintCategories renders categories and their product counts.
func PrintCategories(w io.Writer, counts []filter.CategoryCount) {
	fmt.Fprintf(w, "\n%s\n\n", titleStyle.Render("Danh mục sản phẩm:"))
	for _, c := range counts {
		name := cyanStyle.Render(c.Category.Name)
		if c.Category.IsFeatured {
			name += " " + dealStyle.Render("★")
		}
		indent := "  "
		if !c.Category.IsTopLevel() {
			indent = "    └ "
		}
		fmt.Fprintf(w, "%s%s: %d sản phẩm\n", indent, name, c.Count)
	}
	fmt.Fprintln(w)
}

// PrintCategoriesJSON renders categories as JSON.
func PrintCategoriesJSON(w io.Writer, counts []filter.CategoryCount) error {
	out := make([]CategoryJSON, 0, len(counts))
	for _, c := range counts {
		out = append(out, CategoryJSON{
			ID:       c.Category.ID,
			Name:     c.Category.Name,
			Slug:     c.Category.Slug,
			Featured: c.Category.IsFeatured,
			TopLevel: c.Category.IsTopLevel(),
			Products: c.Count,
		})
	}
	return json.NewEncoder(w).Encode(out)
}

// PrintShops renders a shop comparison, best match first.
func PrintShops(w io.Writer, shops []ShopSummary) {
	fmt.Fprintf(w, "\n%s — %s\n\n",
		headerStyle.Render("So sánh cửa hàng"),
		cyanStyle.Render(fmt.Sprintf("%d cửa hàng phù hợp", len(shops))),
	)
	for _, s := range shops {
		label := s.Name
		if s.ID != "" {
			label += " " + dimStyle.Render("("+s.ID+")")
		}
		fmt.Fprintf(w, "  %d. %s\n", s.Rank, titleStyle.Render(label))
		fmt.Fprintf(w, "     %s\n", dimStyle.Render(fmt.Sprintf(
			"%d sản phẩm | %d đang giảm giá | điểm %d | từ %s",
			s.MatchedProducts, s.OnSale, s.Score, FormatVND(s.LowestPrice),
		)))
		fmt.Fprintf(w, "     %s %s\n\n", dimStyle.Render("Nổi bật:"), s.TopProduct)
	}
}

// PrintShopsJSON renders a shop comparison as JSON.
func PrintShopsJSON(w io.Writer, shops []ShopSummary) error {
	if shops == nil {
		shops = []ShopSummary{}
	}
	return json.NewEncoder(w).Encode(shops)
}

// PrintVouchers renders the two voucher groups under separate headings.
func PrintVouchers(w io.Writer, c voucher.Candidates) {
	fmt.Fprintf(w, "\n%s — %s\n\n",
		headerStyle.Render(MineHeading),
		cyanStyle.Render(fmt.Sprintf("%d voucher", len(c.Mine))),
	)
	if len(c.Mine) == 0 {
		fmt.Fprintf(w, "  %s\n", dimStyle.Render("Chưa có voucher nào"))
	}
	for _, m := range c.Mine {
		printClaimed(w, m)
	}

	fmt.Fprintf(w, "\n%s — %s\n\n",
		headerStyle.Render(AvailableHeading),
		cyanStyle.Render(fmt.Sprintf("%d voucher", len(c.EligiblePlatform))),
	)
	if len(c.EligiblePlatform) == 0 {
		fmt.Fprintf(w, "  %s\n", dimStyle.Render("Không có voucher nào"))
	}
	now := time.Now()
	for _, v := range c.EligiblePlatform {
		fmt.Fprintf(w, "  %s  %s\n", cyanStyle.Render(v.Code), titleStyle.Render(filter.CleanText(v.Name)))
		if desc := DescribeVoucher(v); desc != "" {
			fmt.Fprintf(w, "    %s\n", dimStyle.Render(desc))
		}
		if note := VoucherAvailability(v, now); note != "" {
			fmt.Fprintf(w, "    %s\n", warningStyle.Render(note))
		}
	}
	fmt.Fprintln(w)
}

// PrintVouchersJSON renders both voucher groups as JSON.
func PrintVouchersJSON(w io.Writer, c voucher.Candidates) error {
	out := VoucherGroupsJSON{
		Mine:      make([]VoucherJSON, 0, len(c.Mine)),
		Available: make([]VoucherJSON, 0, len(c.EligiblePlatform)),
	}
	for _, m := range c.Mine {
		out.Mine = append(out.Mine, toClaimedJSON(m))
	}
	now := time.Now()
	for _, v := range c.EligiblePlatform {
		out.Available = append(out.Available, VoucherJSON{
			Code:        v.Code,
			Name:        filter.CleanText(v.Name),
			Type:        string(v.Type),
			TypeLabel:   v.Type.Label(),
			Description: DescribeVoucher(v),
			Eligible:    true,
			Discount:    decimal.Zero,
			Unavailable: VoucherAvailability(v, now),
		})
	}
	if c.MineErr != nil {
		out.Errors = append(out.Errors, voucher.MsgLoadMineFailed)
	}
	if c.PlatformErr != nil {
		out.Errors = append(out.Errors, voucher.MsgLoadOtherFailed)
	}
	return json.NewEncoder(w).Encode(out)
}

// PrintApplyResult renders the outcome of an apply attempt.
func PrintApplyResult(w io.Writer, r voucher.ApplyResult) {
	if r.Applied() {
		fmt.Fprintf(w, "%s %s  %s\n",
			priceStyle.Render("✓"),
			titleStyle.Render(r.Code),
			priceStyle.Render("-"+FormatVND(r.Discount)),
		)
		return
	}
	label := r.Code
	if label == "" {
		label = "voucher"
	}
	fmt.Fprintf(w, "%s %s  %s\n", errorStyle.Render("✗"), titleStyle.Render(label), r.Reason)
}

// PrintApplyResultJSON renders an apply outcome as JSON.
func PrintApplyResultJSON(w io.Writer, r voucher.ApplyResult) error {
	return json.NewEncoder(w).Encode(r)
}

// PrintToast renders a bus toast as a single styled line.
func PrintToast(w io.Writer, t events.Toast) {
	switch t.Level {
	case events.ToastError:
		PrintError(w, t.Message)
	case events.ToastSuccess:
		fmt.Fprintln(w, priceStyle.Render(t.Message))
	default:
		fmt.Fprintln(w, dimStyle.Render(t.Message))
	}
}

// PrintError prints a styled error message.
func PrintError(w io.Writer, msg string) {
	fmt.Fprintln(w, errorStyle.Render(msg))
}

// PrintWarning prints a styled warning message.
func PrintWarning(w io.Writer, msg string) {
	fmt.Fprintln(w, warningStyle.Render(msg))
}

func printProduct(w io.Writer, item api.Product) {
	name := filter.CleanText(item.Name)
	if name == "" {
		name = "Sản phẩm #" + item.ID
	}

	tag := ""
	if pct := filter.DiscountPercent(item); pct > 0 {
		tag = saleTag.Render(fmt.Sprintf("-%d%%", pct)) + " "
	}
	fmt.Fprintf(w, "  %s%s\n", tag, titleStyle.Render(name))

	price := priceStyle.Render(FormatVND(filter.EffectivePrice(item)))
	if filter.IsOnSale(item) {
		price += " " + dimStyle.Render(FormatVND(item.Price))
	}
	if unit := filter.CleanText(filter.Deref(item.Unit)); unit != "" {
		price += dimStyle.Render(" / " + unit)
	}
	fmt.Fprintf(w, "    %s\n", price)

	if desc := filter.CleanText(filter.Deref(item.Description)); desc != "" {
		fmt.Fprintf(w, "    %s\n", dimStyle.Render(wordWrap(desc, 72, "    ")))
	}

	var meta []string
	if cat := filter.CleanText(filter.ProductCategory(item)); cat != "" {
		meta = append(meta, cat)
	}
	if shop := filter.CleanText(filter.Deref(item.ShopName)); shop != "" {
		meta = append(meta, shop)
	}
	if item.SoldCount > 0 {
		meta = append(meta, fmt.Sprintf("Đã bán %d", item.SoldCount))
	}
	if item.Rating > 0 {
		meta = append(meta, fmt.Sprintf("★ %.1f", item.Rating))
	}
	if len(meta) > 0 {
		fmt.Fprintf(w, "    %s\n", dimStyle.Render(strings.Join(meta, " | ")))
	}
}

func printClaimed(w io.Writer, m api.VoucherEligibilityResult) {
	code := m.Code()
	name := filter.CleanText(m.Voucher.Name)
	if m.Eligible {
		line := fmt.Sprintf("  %s  %s", cyanStyle.Render(code), titleStyle.Render(name))
		if m.DiscountAmount.IsPositive() {
			line += "  " + priceStyle.Render("-"+FormatVND(m.DiscountAmount))
		}
		fmt.Fprintln(w, line)
	} else {
		fmt.Fprintf(w, "  %s  %s\n", dimStyle.Render(code), dimStyle.Render(name))
		fmt.Fprintf(w, "    %s\n", warningStyle.Render(claimedReason(m)))
	}
	if desc := DescribeVoucher(m.Voucher); desc != "" {
		fmt.Fprintf(w, "    %s\n", dimStyle.Render(desc))
	}
	if !m.UserVoucher.ExpiresAt.IsZero() {
		fmt.Fprintf(w, "    %s\n", dimStyle.Render("HSD "+m.UserVoucher.ExpiresAt.Format("02/01/2006")))
	}
}

func claimedReason(m api.VoucherEligibilityResult) string {
	if m.Reason != nil && strings.TrimSpace(*m.Reason) != "" {
		return strings.TrimSpace(*m.Reason)
	}
	return voucher.MsgNotEligible
}

func toClaimedJSON(m api.VoucherEligibilityResult) VoucherJSON {
	out := VoucherJSON{
		Code:        m.Code(),
		Name:        filter.CleanText(m.Voucher.Name),
		Type:        string(m.Voucher.Type),
		TypeLabel:   m.Voucher.Type.Label(),
		Description: DescribeVoucher(m.Voucher),
		Eligible:    m.Eligible,
		Discount:    m.DiscountAmount,
	}
	if !m.Eligible {
		out.Reason = claimedReason(m)
	}
	if !m.UserVoucher.ExpiresAt.IsZero() {
		out.ExpiresAt = m.UserVoucher.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	return out
}

func toProductJSON(item api.Product) ProductJSON {
	sale := filter.EffectivePrice(item)
	return ProductJSON{
		ID:              item.ID,
		Name:            filter.CleanText(item.Name),
		Category:        filter.CleanText(filter.ProductCategory(item)),
		Shop:            filter.CleanText(filter.Deref(item.ShopName)),
		Price:           item.Price,
		SalePrice:       sale,
		OnSale:          filter.IsOnSale(item),
		DiscountPercent: filter.DiscountPercent(item),
		Unit:            filter.Deref(item.Unit),
		Stock:           item.Stock,
		SoldCount:       item.SoldCount,
		Rating:          item.Rating,
		Description:     filter.CleanText(filter.Deref(item.Description)),
		ImageURL:        filter.Deref(item.ImageURL),
	}
}

func wordWrap(text string, width int, indent string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len([]rune(line))+1+len([]rune(w)) > width {
			lines = append(lines, line)
			line = w
		} else {
			line += " " + w
		}
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n"+indent)
}
