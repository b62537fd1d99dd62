package cmd

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/nongsanviet/shopcli/internal/api"
	"github.com/nongsanviet/shopcli/internal/display"
	"github.com/nongsanviet/shopcli/internal/events"
	"github.com/nongsanviet/shopcli/internal/voucher"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubVoucherService answers every voucher call from fixed data. Only
// SUMMER10 validates.
type stubVoucherService struct {
	mine     []api.VoucherEligibilityResult
	platform []api.Voucher
}

func (s stubVoucherService) MyVouchersForCart(context.Context, string, api.CartContext) ([]api.VoucherEligibilityResult, error) {
	return s.mine, nil
}

func (s stubVoucherService) EligibleVouchers(context.Context, string, api.CartContext) ([]api.Voucher, error) {
	return s.platform, nil
}

func (s stubVoucherService) ValidateVoucher(_ context.Context, req api.ValidateVoucherRequest) (bool, error) {
	return req.Code == "SUMMER10" || req.Code == "FREESHIP", nil
}

func (s stubVoucherService) CalculateDiscount(context.Context, string, decimal.Decimal) (decimal.Decimal, error) {
	return decimal.NewFromInt(15000), nil
}

func pickCandidates() voucher.Candidates {
	return voucher.Candidates{
		Mine: []api.VoucherEligibilityResult{
			{
				UserVoucher:    api.UserVoucher{VoucherCode: "SUMMER10"},
				Voucher:        api.Voucher{Code: "SUMMER10", Name: "Giảm 10%", Type: api.VoucherPercentage, Value: decimal.NewFromInt(10)},
				Eligible:       true,
				DiscountAmount: decimal.NewFromInt(25000),
			},
			{
				UserVoucher: api.UserVoucher{VoucherCode: "BIGSPEND"},
				Voucher:     api.Voucher{Code: "BIGSPEND", Name: "Giảm 100k", Type: api.VoucherFixedAmount},
				Reason:      strPtr("Đơn hàng tối thiểu 500.000đ"),
			},
		},
		EligiblePlatform: []api.Voucher{
			{Code: "FREESHIP", Name: "Miễn phí vận chuyển", Type: api.VoucherFreeShipping},
		},
	}
}

func newPickTestModel(t *testing.T) (voucherPickModel, *voucher.Widget, *events.Bus) {
	t.Helper()
	c := pickCandidates()
	bus := events.NewBus()
	rec := voucher.NewReconciler(stubVoucherService{mine: c.Mine, platform: c.EligiblePlatform}, bus)
	w := voucher.NewWidget(rec, "u-1", api.CartContext{Subtotal: decimal.NewFromInt(250000)})

	m := newVoucherPickModel(context.Background(), w, "u-1", decimal.NewFromInt(250000))
	next, _ := m.Update(tea.WindowSizeMsg{Width: 160, Height: 40})
	return next.(voucherPickModel), w, bus
}

func loadPick(t *testing.T, m voucherPickModel) voucherPickModel {
	t.Helper()
	next, _ := m.Update(m.loadCmd()())
	return next.(voucherPickModel)
}

func TestBuildPickItems_ClaimedThenAvailable(t *testing.T) {
	items := buildPickItems(pickCandidates())

	require.Len(t, items, 5)
	header, ok := items[0].(pickHeaderItem)
	require.True(t, ok)
	assert.Equal(t, 2, header.count)
	assert.IsType(t, pickClaimedItem{}, items[1])
	assert.IsType(t, pickClaimedItem{}, items[2])
	header2, ok := items[3].(pickHeaderItem)
	require.True(t, ok)
	assert.Equal(t, 1, header2.count)
	assert.IsType(t, pickPlatformItem{}, items[4])
	assert.Equal(t, 1, firstPickableIndex(items))
}

func TestBuildPickItems_EmptyGroupsKeepHeaders(t *testing.T) {
	items := buildPickItems(voucher.Candidates{})

	require.Len(t, items, 2)
	assert.Equal(t, -1, firstPickableIndex(items))
}

func TestPickClaimedItem_IneligibleShowsReason(t *testing.T) {
	item := pickClaimedItem{match: pickCandidates().Mine[1]}

	assert.Contains(t, item.Title(), "✗ BIGSPEND")
	assert.Equal(t, "Đơn hàng tối thiểu 500.000đ", item.Description())

	item.match.Reason = nil
	assert.Equal(t, voucher.MsgNotEligible, item.Description())
}

func TestVoucherPickModel_LoadPopulatesList(t *testing.T) {
	m, w, _ := newPickTestModel(t)

	m = loadPick(t, m)

	assert.False(t, m.loading)
	assert.Equal(t, voucher.StateLoaded, w.State())
	assert.Len(t, m.list.Items(), 5)
	selected, ok := m.list.SelectedItem().(pickClaimedItem)
	require.True(t, ok)
	assert.Equal(t, "SUMMER10", selected.match.Code())
}

func TestVoucherPickModel_StaleLoadIgnored(t *testing.T) {
	m, w, _ := newPickTestModel(t)

	stale := m.loadCmd()
	fresh := m.loadCmd()

	next, _ := m.Update(stale())
	m = next.(voucherPickModel)
	assert.True(t, m.loading)
	assert.Equal(t, voucher.StateLoading, w.State())

	next, _ = m.Update(fresh())
	m = next.(voucherPickModel)
	assert.False(t, m.loading)
	assert.Equal(t, voucher.StateLoaded, w.State())
}

func TestVoucherPickModel_EnterSelectsClaimedVoucher(t *testing.T) {
	m, w, _ := newPickTestModel(t)
	m = loadPick(t, m)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(voucherPickModel)
	require.NotNil(t, cmd)
	assert.True(t, m.applying)

	next, _ = m.Update(m.selectCmd("SUMMER10")())
	m = next.(voucherPickModel)

	assert.False(t, m.applying)
	assert.Contains(t, m.status, "Đã áp dụng SUMMER10")
	sel, ok := w.Selection()
	require.True(t, ok)
	assert.True(t, sel.Discount.Equal(decimal.NewFromInt(25000)))
}

func TestVoucherPickModel_ManualCodeRejected(t *testing.T) {
	m, w, _ := newPickTestModel(t)
	m = loadPick(t, m)

	next, _ := m.Update(keyRune('i'))
	m = next.(voucherPickModel)
	require.True(t, m.typing)

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("BOGUS")})
	m = next.(voucherPickModel)
	assert.Equal(t, "BOGUS", m.input.Value())

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(voucherPickModel)
	assert.False(t, m.typing)
	assert.True(t, m.applying)

	next, _ = m.Update(m.applyCodeCmd(m.input.Value())())
	m = next.(voucherPickModel)
	assert.Equal(t, voucher.MsgInvalidCode, m.status)
	assert.Equal(t, voucher.StateRejected, w.State())
}

func TestVoucherPickModel_TypingEscCancels(t *testing.T) {
	m, _, _ := newPickTestModel(t)
	m = loadPick(t, m)

	next, _ := m.Update(keyRune('i'))
	m = next.(voucherPickModel)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(voucherPickModel)

	assert.False(t, m.typing)
	assert.False(t, m.applying)
	assert.Nil(t, cmd)
}

func TestVoucherPickModel_ToastEvent(t *testing.T) {
	m, _, _ := newPickTestModel(t)

	next, _ := m.Update(pickEventMsg{event: events.Toast{Level: events.ToastSuccess, Message: voucher.MsgApplied}})
	m = next.(voucherPickModel)

	assert.Equal(t, voucher.MsgApplied, m.toast.Message)
	assert.Equal(t, events.ToastSuccess, m.toast.Level)
}

func TestVoucherPickModel_RemoveSelectionReloads(t *testing.T) {
	m, w, bus := newPickTestModel(t)
	var removed []string
	unsubscribe := bus.Subscribe(func(e events.Event) {
		if r, ok := e.(events.VoucherRemoved); ok {
			removed = append(removed, r.Code)
		}
	})
	defer unsubscribe()

	m = loadPick(t, m)
	next, _ := m.Update(m.selectCmd("SUMMER10")())
	m = next.(voucherPickModel)

	next, cmd := m.Update(keyRune('x'))
	m = next.(voucherPickModel)

	require.NotNil(t, cmd)
	assert.True(t, m.loading)
	assert.Equal(t, "Đã gỡ SUMMER10", m.status)
	assert.Equal(t, []string{"SUMMER10"}, removed)
	_, ok := w.Selection()
	assert.False(t, ok)
	assert.Equal(t, voucher.StateLoading, w.State())
}

func TestVoucherPickModel_QuitClosesWidget(t *testing.T) {
	m, w, _ := newPickTestModel(t)
	m = loadPick(t, m)

	_, cmd := m.Update(keyRune('q'))

	require.NotNil(t, cmd)
	assert.Equal(t, voucher.StateIdle, w.State())
}

func TestRenderPlatformDetail_UnavailableNote(t *testing.T) {
	soldOut := api.Voucher{Code: "SOLDOUT", Name: "Hết lượt", Status: api.VoucherStatusActive, UsageLimit: 5, UsedCount: 5}
	assert.Contains(t, renderPlatformDetail(soldOut, 40), display.VoucherExhaustedNote)

	open := api.Voucher{Code: "FREESHIP", Name: "Miễn phí vận chuyển", Type: api.VoucherFreeShipping}
	detail := renderPlatformDetail(open, 40)
	assert.NotContains(t, detail, display.VoucherExhaustedNote)
	assert.NotContains(t, detail, display.VoucherInactiveNote)
}
