package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/nongsanviet/shopcli/internal/api"
	"github.com/nongsanviet/shopcli/internal/display"
	"github.com/nongsanviet/shopcli/internal/events"
	"github.com/nongsanviet/shopcli/internal/filter"
	"github.com/nongsanviet/shopcli/internal/voucher"
	"github.com/shopspring/decimal"
)

var (
	tuiSuccessStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("78"))
	tuiInfoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("110"))
)

type pickLoadedMsg struct {
	ticket     voucher.Ticket
	candidates voucher.Candidates
}

type pickResultMsg struct {
	result voucher.ApplyResult
}

// pickEventMsg carries a bus event into the update loop.
type pickEventMsg struct {
	event events.Event
}

type pickHeaderItem struct {
	name  string
	count int
}

func (h pickHeaderItem) FilterValue() string { return filter.Normalize(h.name) }
func (h pickHeaderItem) Title() string       { return h.name }
func (h pickHeaderItem) Description() string { return fmt.Sprintf("%d voucher", h.count) }

type pickClaimedItem struct {
	match api.VoucherEligibilityResult
}

func (c pickClaimedItem) FilterValue() string {
	return filter.Normalize(c.match.Code() + " " + c.match.Voucher.Name)
}

func (c pickClaimedItem) Title() string {
	mark := "✓"
	if !c.match.Eligible {
		mark = "✗"
	}
	return fmt.Sprintf("%s %s  %s", mark, c.match.Code(), filter.CleanText(c.match.Voucher.Name))
}

func (c pickClaimedItem) Description() string {
	if !c.match.Eligible {
		if c.match.Reason != nil && strings.TrimSpace(*c.match.Reason) != "" {
			return strings.TrimSpace(*c.match.Reason)
		}
		return voucher.MsgNotEligible
	}
	if c.match.DiscountAmount.IsPositive() {
		return "Giảm " + display.FormatVND(c.match.DiscountAmount)
	}
	return display.DescribeVoucher(c.match.Voucher)
}

type pickPlatformItem struct {
	voucher api.Voucher
}

func (p pickPlatformItem) FilterValue() string {
	return filter.Normalize(p.voucher.Code + " " + p.voucher.Name)
}
func (p pickPlatformItem) Title() string {
	return fmt.Sprintf("+ %s  %s", p.voucher.Code, filter.CleanText(p.voucher.Name))
}
func (p pickPlatformItem) Description() string { return display.DescribeVoucher(p.voucher) }

type voucherPickModel struct {
	ctx      context.Context
	widget   *voucher.Widget
	userID   string
	subtotal decimal.Decimal

	loading  bool
	applying bool
	spinner  spinner.Model

	list   list.Model
	detail viewport.Model
	input  textinput.Model
	typing bool
	focus  tuiFocus

	toast  events.Toast
	status string

	width, height   int
	bodyHeight      int
	listPaneWidth   int
	detailPaneWidth int
	tooSmall        bool
}

func newVoucherPickModel(ctx context.Context, w *voucher.Widget, userID string, subtotal decimal.Decimal) voucherPickModel {
	delegate := list.NewDefaultDelegate()
	delegate.SetHeight(2)
	delegate.SetSpacing(1)

	lst := list.New([]list.Item{}, delegate, 0, 0)
	lst.Title = "Voucher"
	lst.SetShowStatusBar(false)
	lst.SetFilteringEnabled(true)
	lst.SetShowHelp(false)
	lst.DisableQuitKeybindings()

	input := textinput.New()
	input.Placeholder = "Nhập mã voucher"
	input.Prompt = "Mã: "
	input.CharLimit = 64

	return voucherPickModel{
		ctx:      ctx,
		widget:   w,
		userID:   userID,
		subtotal: subtotal,
		loading:  true,
		spinner:  newTUISpinner(),
		list:     lst,
		detail:   viewport.New(0, 0),
		input:    input,
		focus:    tuiFocusList,
	}
}

// loadCmd opens a new load generation and fetches under its ticket.
func (m voucherPickModel) loadCmd() tea.Cmd {
	ticket := m.widget.BeginLoad()
	ctx, w := m.ctx, m.widget
	return func() tea.Msg {
		return pickLoadedMsg{ticket: ticket, candidates: w.Load(ctx)}
	}
}

func (m voucherPickModel) selectCmd(code string) tea.Cmd {
	ctx, w := m.ctx, m.widget
	return func() tea.Msg { return pickResultMsg{result: w.Select(ctx, code)} }
}

func (m voucherPickModel) applyCodeCmd(code string) tea.Cmd {
	ctx, w := m.ctx, m.widget
	return func() tea.Msg { return pickResultMsg{result: w.ApplyCode(ctx, code)} }
}

func (m voucherPickModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadCmd())
}

func (m voucherPickModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case pickLoadedMsg:
		if !m.widget.FinishLoad(msg.ticket, msg.candidates) {
			return m, nil
		}
		m.loading = false
		m.setCandidates(msg.candidates)
		m.resize()
		return m, nil

	case pickResultMsg:
		m.applying = false
		if msg.result.Applied() {
			m.status = fmt.Sprintf("Đã áp dụng %s: -%s", msg.result.Code, display.FormatVND(msg.result.Discount))
		} else {
			m.status = msg.result.Reason
		}
		m.refreshDetail()
		return m, nil

	case pickEventMsg:
		if t, ok := msg.event.(events.Toast); ok {
			m.toast = t
		}
		return m, nil

	case spinner.TickMsg:
		if m.loading || m.applying {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	keyMsg, isKey := msg.(tea.KeyMsg)
	if !isKey {
		if m.typing {
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	key := keyMsg.String()
	if key == "ctrl+c" {
		m.widget.Close()
		return m, tea.Quit
	}

	if m.typing {
		return m.updateTyping(keyMsg)
	}

	filtering := m.list.FilterState() == list.Filtering
	if !filtering {
		switch key {
		case "q", "esc":
			if key == "esc" && m.focus == tuiFocusDetail {
				m.focus = tuiFocusList
				return m, nil
			}
			m.widget.Close()
			return m, tea.Quit
		case "tab":
			if m.focus == tuiFocusList {
				m.focus = tuiFocusDetail
			} else {
				m.focus = tuiFocusList
			}
			return m, nil
		case "r":
			if m.applying {
				return m, nil
			}
			return m.reload()
		case "x":
			if m.applying {
				return m, nil
			}
			if code := m.widget.RemoveSelection(); code != "" {
				m.status = "Đã gỡ " + code
			}
			return m.reload()
		}
	}

	if m.loading {
		return m, nil
	}

	if !filtering {
		switch key {
		case "i":
			if m.applying {
				return m, nil
			}
			m.typing = true
			m.input.SetValue("")
			return m, m.input.Focus()
		case "enter":
			return m.applySelected()
		}
		if m.focus == tuiFocusDetail {
			var cmd tea.Cmd
			m.detail, cmd = m.detail.Update(keyMsg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(keyMsg)
	m.refreshDetail()
	return m, cmd
}

func (m voucherPickModel) updateTyping(keyMsg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch keyMsg.String() {
	case "esc":
		m.typing = false
		m.input.Blur()
		return m, nil
	case "enter":
		code := m.input.Value()
		m.typing = false
		m.input.Blur()
		return m.startApply(m.applyCodeCmd(code))
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(keyMsg)
	return m, cmd
}

func (m voucherPickModel) reload() (tea.Model, tea.Cmd) {
	m.loading = true
	m.list.SetItems(nil)
	return m, tea.Batch(m.spinner.Tick, m.loadCmd())
}

func (m voucherPickModel) applySelected() (tea.Model, tea.Cmd) {
	switch item := m.list.SelectedItem().(type) {
	case pickClaimedItem:
		return m.startApply(m.selectCmd(item.match.Code()))
	case pickPlatformItem:
		return m.startApply(m.applyCodeCmd(item.voucher.Code))
	default:
		return m, nil
	}
}

func (m voucherPickModel) startApply(cmd tea.Cmd) (tea.Model, tea.Cmd) {
	if m.applying {
		return m, nil
	}
	m.applying = true
	m.status = ""
	return m, tea.Batch(m.spinner.Tick, cmd)
}

func (m *voucherPickModel) setCandidates(c voucher.Candidates) {
	m.list.SetItems(buildPickItems(c))
	if idx := firstPickableIndex(m.list.Items()); idx >= 0 {
		m.list.Select(idx)
	}
	m.refreshDetail()
}

// buildPickItems lays out claimed vouchers, then claimable ones, each under
// its own header. A group that failed to load still gets its header.
func buildPickItems(c voucher.Candidates) []list.Item {
	items := make([]list.Item, 0, len(c.Mine)+len(c.EligiblePlatform)+2)
	items = append(items, pickHeaderItem{name: display.MineHeading, count: len(c.Mine)})
	for _, m := range c.Mine {
		items = append(items, pickClaimedItem{match: m})
	}
	items = append(items, pickHeaderItem{name: display.AvailableHeading, count: len(c.EligiblePlatform)})
	for _, v := range c.EligiblePlatform {
		items = append(items, pickPlatformItem{voucher: v})
	}
	return items
}

func firstPickableIndex(items []list.Item) int {
	for i, item := range items {
		if _, header := item.(pickHeaderItem); !header {
			return i
		}
	}
	return -1
}

func (m *voucherPickModel) resize() {
	if m.width == 0 || m.height == 0 {
		return
	}
	layout, ok := computePaneLayout(m.width, m.height, 3)
	m.tooSmall = !ok
	if !ok {
		return
	}
	m.bodyHeight = layout.bodyHeight
	m.listPaneWidth = layout.listWidth
	m.detailPaneWidth = layout.detailWidth
	m.list.SetSize(layout.listInner, layout.innerHeight)
	m.detail.Width = layout.detailInner
	m.detail.Height = layout.innerHeight
	m.input.Width = max(20, m.width-12)
	m.refreshDetail()
}

func (m *voucherPickModel) refreshDetail() {
	width := max(24, m.detail.Width)
	var content string
	switch item := m.list.SelectedItem().(type) {
	case pickClaimedItem:
		content = renderClaimedDetail(item.match, width)
	case pickPlatformItem:
		content = renderPlatformDetail(item.voucher, width)
	case pickHeaderItem:
		content = tuiSectionStyle.Render(item.name) + "\n" +
			tuiMetaStyle.Render(fmt.Sprintf("%d voucher", item.count))
	default:
		content = "Không có voucher nào cho giỏ hàng này.\n\nNhấn i để nhập mã."
	}
	if sel, ok := m.widget.Selection(); ok {
		content += "\n\n" + tuiSuccessStyle.Render(fmt.Sprintf("Đang áp dụng: %s (-%s)", sel.Code, display.FormatVND(sel.Discount)))
	}
	m.detail.SetContent(content)
}

func renderClaimedDetail(r api.VoucherEligibilityResult, width int) string {
	lines := []string{
		tuiTitleStyle.Render(wrapText(filter.CleanText(r.Voucher.Name), width)),
		tuiMetaStyle.Render("Mã: " + r.Code() + "  |  " + r.Voucher.Type.Label()),
		"",
	}
	if desc := display.DescribeVoucher(r.Voucher); desc != "" {
		lines = append(lines, wrapText(desc, width))
	}
	if r.Eligible {
		discount := "đủ điều kiện"
		if r.DiscountAmount.IsPositive() {
			discount = "-" + display.FormatVND(r.DiscountAmount)
		}
		lines = append(lines, fmt.Sprintf("%s %s", tuiMetaStyle.Render("Giảm:"), tuiValueStyle.Render(discount)))
	} else {
		reason := voucher.MsgNotEligible
		if r.Reason != nil && strings.TrimSpace(*r.Reason) != "" {
			reason = strings.TrimSpace(*r.Reason)
		}
		lines = append(lines, tuiErrorStyle.Render(wrapText(reason, width)))
	}
	if !r.UserVoucher.ExpiresAt.IsZero() {
		lines = append(lines, tuiMutedStyle.Render("HSD "+r.UserVoucher.ExpiresAt.Format("02/01/2006")))
	}
	lines = append(lines, "", tuiHintStyle.Render("Enter để áp dụng"))
	return strings.Join(lines, "\n")
}

func renderPlatformDetail(v api.Voucher, width int) string {
	lines := []string{
		tuiTitleStyle.Render(wrapText(filter.CleanText(v.Name), width)),
		tuiMetaStyle.Render("Mã: " + v.Code + "  |  " + v.Type.Label()),
		"",
	}
	if desc := display.DescribeVoucher(v); desc != "" {
		lines = append(lines, wrapText(desc, width))
	}
	if !v.EndDate.IsZero() {
		lines = append(lines, tuiMutedStyle.Render("Hết hạn "+v.EndDate.Format("02/01/2006")))
	}
	if note := display.VoucherAvailability(v, time.Now()); note != "" {
		lines = append(lines, tuiErrorStyle.Render(note))
	}
	lines = append(lines, "", tuiHintStyle.Render("Chưa nhận. Enter để áp dụng bằng mã"))
	return strings.Join(lines, "\n")
}

func (m voucherPickModel) View() string {
	if m.width == 0 || m.height == 0 {
		return tuiMetaStyle.Render("Đang tải giao diện...")
	}
	if m.tooSmall {
		return tooSmallView(m.width, m.height)
	}

	var body string
	if m.loading {
		body = lipgloss.NewStyle().Padding(1, 2).Height(m.bodyHeight).
			Render(fmt.Sprintf("%s Đang tải voucher...", m.spinner.View()))
	} else {
		body = twoPaneView(m.list.View(), m.detail.View(), m.focus, m.listPaneWidth, m.detailPaneWidth, m.bodyHeight)
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.headerView(), body, m.footerView())
}

func (m voucherPickModel) headerView() string {
	top := fmt.Sprintf("shopcli pick  |  %s  |  giỏ hàng %s", m.userID, display.FormatVND(m.subtotal))
	bottom := "trạng thái: " + m.widget.State().String()
	if sel, ok := m.widget.Selection(); ok {
		bottom += "  |  đang áp dụng: " + sel.Code
	}
	return lipgloss.NewStyle().
		Width(m.width).
		Padding(0, 1).
		Render(tuiHeaderStyle.Render(top) + "\n" + tuiMetaStyle.Render(bottom))
}

func (m voucherPickModel) footerView() string {
	lines := make([]string, 0, 3)
	switch {
	case m.typing:
		lines = append(lines, m.input.View())
	case m.applying:
		lines = append(lines, m.spinner.View()+" Đang áp dụng...")
	case m.status != "":
		lines = append(lines, m.status)
	}
	if m.toast.Message != "" {
		lines = append(lines, renderToast(m.toast))
	}
	hint := "Enter apply • i type code • x remove • r reload • / filter • tab detail • q close"
	if m.typing {
		hint = "Enter apply • esc cancel"
	}
	lines = append(lines, tuiHintStyle.Render(hint))
	return lipgloss.NewStyle().Padding(0, 1).Render(strings.Join(lines, "\n"))
}

func renderToast(t events.Toast) string {
	switch t.Level {
	case events.ToastError:
		return tuiErrorStyle.Render(t.Message)
	case events.ToastSuccess:
		return tuiSuccessStyle.Render(t.Message)
	default:
		return tuiInfoStyle.Render(t.Message)
	}
}
