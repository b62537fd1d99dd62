package display_test

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/nongsanviet/shopcli/internal/api"
	"github.com/nongsanviet/shopcli/internal/display"
	"github.com/nongsanviet/shopcli/internal/events"
	"github.com/nongsanviet/shopcli/internal/filter"
	"github.com/nongsanviet/shopcli/internal/voucher"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func vnd(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func vndPtr(v int64) *decimal.Decimal {
	d := vnd(v)
	return &d
}

func sampleProducts() []api.Product {
	return []api.Product{
		{
			ID:          "1",
			Name:        "Cải ngọt Đà Lạt",
			Category:    ptr("Rau Củ"),
			ShopName:    ptr("Nông trại Xanh"),
			Price:       vnd(20000),
			SalePrice:   vndPtr(15000),
			Unit:        ptr("bó"),
			SoldCount:   120,
			Rating:      4.5,
			Description: ptr("Rau sạch &amp; tươi"),
		},
		{
			ID:    "2",
			Name:  "Gạo ST25",
			Price: vnd(180000),
		},
	}
}

func samplePage() filter.Page[api.Product] {
	return filter.Paginate(sampleProducts(), 1, 1)
}

func sampleCandidates() voucher.Candidates {
	return voucher.Candidates{
		Mine: []api.VoucherEligibilityResult{
			{
				UserVoucher:    api.UserVoucher{VoucherCode: "SUMMER10"},
				Voucher:        api.Voucher{Code: "SUMMER10", Name: "Hè rực rỡ", Type: api.VoucherPercentage, Value: vnd(10), MaxDiscountAmount: vndPtr(50000)},
				Eligible:       true,
				DiscountAmount: vnd(20000),
			},
			{
				UserVoucher: api.UserVoucher{VoucherCode: "BIG500"},
				Voucher:     api.Voucher{Code: "BIG500", Name: "Đơn lớn", Type: api.VoucherFixedAmount, Value: vnd(50000), MinOrderAmount: vnd(500000)},
				Eligible:    false,
				Reason:      ptr("Đơn hàng chưa đủ điều kiện"),
			},
		},
		EligiblePlatform: []api.Voucher{
			{Code: "FREESHIP", Name: "Miễn phí vận chuyển", Type: api.VoucherFreeShipping},
		},
	}
}

func TestFormatVND(t *testing.T) {
	tests := []struct {
		in   decimal.Decimal
		want string
	}{
		{vnd(0), "0₫"},
		{vnd(500), "500₫"},
		{vnd(20000), "20.000₫"},
		{vnd(1500000), "1.500.000₫"},
		{vnd(-20000), "-20.000₫"},
		{decimal.RequireFromString("19999.6"), "20.000₫"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, display.FormatVND(tt.in), "FormatVND(%s)", tt.in)
	}
}

func TestDescribeVoucher(t *testing.T) {
	c := sampleCandidates()
	assert.Equal(t, "Giảm 10% tối đa 50.000₫", display.DescribeVoucher(c.Mine[0].Voucher))
	assert.Equal(t, "Giảm 50.000₫, đơn tối thiểu 500.000₫", display.DescribeVoucher(c.Mine[1].Voucher))
	assert.Equal(t, "Miễn phí vận chuyển", display.DescribeVoucher(c.EligiblePlatform[0]))
}

func TestPrintProducts_ContainsExpectedContent(t *testing.T) {
	var buf bytes.Buffer
	display.PrintProducts(&buf, samplePage())
	output := buf.String()

	assert.Contains(t, output, "2 sản phẩm (trang 1/2)")
	assert.Contains(t, output, "Cải ngọt Đà Lạt")
	assert.Contains(t, output, "-25%")
	assert.Contains(t, output, "15.000₫")
	assert.Contains(t, output, "20.000₫")
	assert.Contains(t, output, "/ bó")
	assert.Contains(t, output, "Nông trại Xanh")
	assert.Contains(t, output, "Xem tiếp: --page 2")
	// HTML entities should be unescaped
	assert.Contains(t, output, "Rau sạch & tươi")
	assert.NotContains(t, output, "&amp;")
}

func TestPrintProducts_FallbackName(t *testing.T) {
	var buf bytes.Buffer
	display.PrintProducts(&buf, filter.Paginate([]api.Product{{ID: "p-9"}}, 1, 10))
	assert.Contains(t, buf.String(), "Sản phẩm #p-9")
}

func TestPrintProductsJSON(t *testing.T) {
	var buf bytes.Buffer
	err := display.PrintProductsJSON(&buf, filter.Paginate(sampleProducts(), 1, 10))
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "\n  ")

	var out display.ProductPageJSON
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))

	require.Len(t, out.Items, 2)
	assert.Equal(t, 1, out.TotalPages)
	assert.Equal(t, "Cải ngọt Đà Lạt", out.Items[0].Name)
	assert.True(t, out.Items[0].OnSale)
	assert.Equal(t, int64(25), out.Items[0].DiscountPercent)
	assert.True(t, vnd(15000).Equal(out.Items[0].SalePrice))
	assert.Equal(t, "Rau sạch & tươi", out.Items[0].Description)
	assert.Equal(t, "", out.Items[1].Category)
	assert.False(t, out.Items[1].OnSale)
}

func TestPrintProductsJSON_EmptyPage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, display.PrintProductsJSON(&buf, filter.Paginate([]api.Product(nil), 1, 10)))
	assert.Contains(t, buf.String(), `"items":[]`)
}

func TestPrintCategories(t *testing.T) {
	counts := []filter.CategoryCount{
		{Category: api.Category{ID: "c1", Name: "Rau củ", IsFeatured: true}, Count: 10},
		{Category: api.Category{ID: "c2", Name: "Trái cây"}, Count: 3},
	}
	var buf bytes.Buffer
	display.PrintCategories(&buf, counts)
	output := buf.String()

	assert.Contains(t, output, "Rau củ")
	assert.Contains(t, output, "10 sản phẩm")
	assert.Contains(t, output, "Trái cây")
	assert.Contains(t, output, "★")
}

func TestPrintCategories_IndentsNested(t *testing.T) {
	parent := "c1"
	counts := []filter.CategoryCount{
		{Category: api.Category{ID: "c1", Name: "Rau củ", Level: 1}, Count: 4},
		{Category: api.Category{ID: "c11", Name: "Rau ăn lá", ParentID: &parent, Level: 2}, Count: 1},
	}
	var buf bytes.Buffer
	display.PrintCategories(&buf, counts)

	assert.Contains(t, buf.String(), "└ ")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("└")), bytes.Index(buf.Bytes(), []byte("Rau ăn lá")))
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("└")))
}

func TestPrintCategoriesJSON(t *testing.T) {
	counts := []filter.CategoryCount{
		{Category: api.Category{ID: "c1", Name: "Rau củ", Slug: "rau-cu"}, Count: 10},
	}
	var buf bytes.Buffer
	require.NoError(t, display.PrintCategoriesJSON(&buf, counts))

	var out []display.CategoryJSON
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "rau-cu", out[0].Slug)
	assert.Equal(t, 10, out[0].Products)
	assert.True(t, out[0].TopLevel)
}

func TestPrintVouchers_TwoGroups(t *testing.T) {
	var buf bytes.Buffer
	display.PrintVouchers(&buf, sampleCandidates())
	output := buf.String()

	assert.Contains(t, output, display.MineHeading)
	assert.Contains(t, output, display.AvailableHeading)
	assert.Contains(t, output, "SUMMER10")
	assert.Contains(t, output, "-20.000₫")
	assert.Contains(t, output, "Đơn hàng chưa đủ điều kiện")
	assert.Contains(t, output, "FREESHIP")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("BIG500")), bytes.Index(buf.Bytes(), []byte(display.AvailableHeading)))
}

func TestPrintVouchers_EmptyGroups(t *testing.T) {
	var buf bytes.Buffer
	display.PrintVouchers(&buf, voucher.Candidates{})
	assert.Contains(t, buf.String(), "Chưa có voucher nào")
	assert.Contains(t, buf.String(), "Không có voucher nào")
}

func TestPrintVouchersJSON(t *testing.T) {
	c := sampleCandidates()
	c.PlatformErr = assert.AnError

	var buf bytes.Buffer
	require.NoError(t, display.PrintVouchersJSON(&buf, c))

	var out display.VoucherGroupsJSON
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out.Mine, 2)
	require.Len(t, out.Available, 1)
	assert.True(t, out.Mine[0].Eligible)
	assert.Equal(t, "Giảm theo %", out.Mine[0].TypeLabel)
	assert.Equal(t, "Đơn hàng chưa đủ điều kiện", out.Mine[1].Reason)
	assert.Equal(t, []string{voucher.MsgLoadOtherFailed}, out.Errors)
}

func TestPrintShops(t *testing.T) {
	shops := []display.ShopSummary{
		{Rank: 1, ID: "s-01", Name: "Nông trại Xanh", MatchedProducts: 3, OnSale: 1, Score: 20, LowestPrice: vnd(12000), TopProduct: "Cải ngọt"},
		{Rank: 2, Name: "Vườn nhà", MatchedProducts: 1, LowestPrice: vnd(45000), TopProduct: "Xoài cát"},
	}
	var buf bytes.Buffer
	display.PrintShops(&buf, shops)
	output := buf.String()

	assert.Contains(t, output, "So sánh cửa hàng")
	assert.Contains(t, output, "2 cửa hàng phù hợp")
	assert.Contains(t, output, "1. Nông trại Xanh")
	assert.Contains(t, output, "(s-01)")
	assert.Contains(t, output, "3 sản phẩm | 1 đang giảm giá | điểm 20 | từ 12.000₫")
	assert.Contains(t, output, "Xoài cát")
	assert.NotContains(t, output, "matches:")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("Nông trại Xanh")), bytes.Index(buf.Bytes(), []byte("Vườn nhà")))
}

func TestPrintShopsJSON_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, display.PrintShopsJSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestVoucherAvailability(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	past := api.Timestamp{Time: now.AddDate(0, -1, 0)}
	future := api.Timestamp{Time: now.AddDate(0, 1, 0)}

	tests := []struct {
		name string
		v    api.Voucher
		want string
	}{
		{"open", api.Voucher{Status: api.VoucherStatusActive}, ""},
		{"no status in listing", api.Voucher{}, ""},
		{"within window", api.Voucher{Status: "ACTIVE", StartDate: past, EndDate: future}, ""},
		{"expired", api.Voucher{Status: api.VoucherStatusActive, EndDate: past}, display.VoucherInactiveNote},
		{"not started", api.Voucher{StartDate: future}, display.VoucherInactiveNote},
		{"paused", api.Voucher{Status: "paused"}, display.VoucherInactiveNote},
		{"used up", api.Voucher{Status: api.VoucherStatusActive, UsageLimit: 100, UsedCount: 100}, display.VoucherExhaustedNote},
		{"unlimited", api.Voucher{Status: api.VoucherStatusActive, UsageLimit: 0, UsedCount: 5000}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, display.VoucherAvailability(tt.v, now))
		})
	}
}

func TestPrintVouchers_MarksUnavailablePlatformVoucher(t *testing.T) {
	c := sampleCandidates()
	c.EligiblePlatform = append(c.EligiblePlatform, api.Voucher{Code: "SOLDOUT", Name: "Hết lượt", UsageLimit: 10, UsedCount: 10})

	var buf bytes.Buffer
	display.PrintVouchers(&buf, c)
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte(display.VoucherExhaustedNote)))

	buf.Reset()
	require.NoError(t, display.PrintVouchersJSON(&buf, c))
	var out display.VoucherGroupsJSON
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out.Available, 2)
	assert.Equal(t, "", out.Available[0].Unavailable)
	assert.Equal(t, display.VoucherExhaustedNote, out.Available[1].Unavailable)
}

func TestPrintApplyResult(t *testing.T) {
	var buf bytes.Buffer
	display.PrintApplyResult(&buf, voucher.ApplyResult{Status: voucher.StatusApplied, Code: "SUMMER10", Discount: vnd(20000)})
	assert.Contains(t, buf.String(), "SUMMER10")
	assert.Contains(t, buf.String(), "-20.000₫")

	buf.Reset()
	display.PrintApplyResult(&buf, voucher.ApplyResult{Status: voucher.StatusRejected, Reason: voucher.MsgEnterCode})
	assert.Contains(t, buf.String(), voucher.MsgEnterCode)
}

func TestPrintApplyResultJSON(t *testing.T) {
	var buf bytes.Buffer
	res := voucher.ApplyResult{Status: voucher.StatusApplied, Code: "SUMMER10", Discount: vnd(20000), Err: assert.AnError}
	require.NoError(t, display.PrintApplyResultJSON(&buf, res))

	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "applied", out["status"])
	assert.Equal(t, "SUMMER10", out["code"])
	assert.Equal(t, "20000", out["discount"])
	assert.NotContains(t, out, "Err")
	assert.NotContains(t, out, "reason")
}

func TestPrintToast(t *testing.T) {
	var buf bytes.Buffer
	display.PrintToast(&buf, events.Toast{Level: events.ToastError, Message: voucher.MsgApplyFailed})
	display.PrintToast(&buf, events.Toast{Level: events.ToastSuccess, Message: voucher.MsgApplied})
	assert.Contains(t, buf.String(), voucher.MsgApplyFailed)
	assert.Contains(t, buf.String(), voucher.MsgApplied)
}
