package cmd

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/nongsanviet/shopcli/internal/api"
	"github.com/nongsanviet/shopcli/internal/display"
	"github.com/nongsanviet/shopcli/internal/filter"
)

const (
	minTUIWidth  = 92
	minTUIHeight = 24

	otherGroup = "Khác"
)

var (
	tuiHeaderStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	tuiMetaStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	tuiHintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	tuiValueStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	tuiSaleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	tuiTitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	tuiMutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	tuiSectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	tuiErrorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
)

// productFetcher is the slice of the API client the browser needs.
type productFetcher interface {
	FetchProducts(ctx context.Context, categoryID, shopID string) ([]api.Product, error)
}

type tuiLoadConfig struct {
	ctx         context.Context
	client      productFetcher
	shopID      string
	initialOpts filter.Options
}

type tuiDataLoadedMsg struct {
	products    []api.Product
	initialOpts filter.Options
}

type tuiDataLoadErrMsg struct {
	err error
}

type tuiFocus int

const (
	tuiFocusList tuiFocus = iota
	tuiFocusDetail
)

type tuiGroupItem struct {
	name    string
	count   int
	ordinal int
}

func (g tuiGroupItem) FilterValue() string { return filter.Normalize(g.name) }
func (g tuiGroupItem) Title() string       { return fmt.Sprintf("%d. %s", g.ordinal, g.name) }
func (g tuiGroupItem) Description() string {
	return fmt.Sprintf("Danh mục • %d sản phẩm", g.count)
}

type tuiProductItem struct {
	product     api.Product
	group       string
	title       string
	description string
	filterValue string
}

func (p tuiProductItem) FilterValue() string { return p.filterValue }
func (p tuiProductItem) Title() string       { return p.title }
func (p tuiProductItem) Description() string { return p.description }

type productsTUIModel struct {
	loading  bool
	spinner  spinner.Model
	loadCmd  tea.Cmd
	fatalErr error

	allProducts []api.Product

	opts        filter.Options
	initialOpts filter.Options

	sortChoices     []string
	sortIndex       int
	categoryChoices []string
	categoryIndex   int
	limitChoices    []int
	limitIndex      int

	list   list.Model
	detail viewport.Model

	focus      tuiFocus
	showHelp   bool
	selectedID string

	groupStarts     []int
	visibleProducts int

	width, height   int
	bodyHeight      int
	listPaneWidth   int
	detailPaneWidth int
	tooSmall        bool
}

func newLoadingProductsTUIModel(cfg tuiLoadConfig) productsTUIModel {
	delegate := list.NewDefaultDelegate()
	delegate.SetHeight(2)
	delegate.SetSpacing(1)

	lst := list.New([]list.Item{}, delegate, 0, 0)
	lst.Title = "Sản phẩm"
	lst.SetStatusBarItemName("mục", "mục")
	lst.SetShowStatusBar(true)
	lst.SetFilteringEnabled(true)
	lst.SetShowHelp(false)
	lst.SetShowPagination(true)
	lst.DisableQuitKeybindings()

	detail := viewport.New(0, 0)
	detail.KeyMap.PageDown.SetKeys("f", "pgdown")
	detail.KeyMap.PageUp.SetKeys("b", "pgup")
	detail.KeyMap.HalfPageDown.SetKeys("d")
	detail.KeyMap.HalfPageUp.SetKeys("u")

	return productsTUIModel{
		loading:     true,
		spinner:     newTUISpinner(),
		loadCmd:     loadTUIDataCmd(cfg),
		initialOpts: cfg.initialOpts,
		opts:        cfg.initialOpts,
		list:        lst,
		detail:      detail,
		focus:       tuiFocusList,
	}
}

func newTUISpinner() spinner.Model {
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	return spin
}

func loadTUIDataCmd(cfg tuiLoadConfig) tea.Cmd {
	return func() tea.Msg {
		products, err := cfg.client.FetchProducts(cfg.ctx, "", cfg.shopID)
		if err != nil {
			return tuiDataLoadErrMsg{err: upstreamError("fetching products", err)}
		}
		if len(products) == 0 {
			return tuiDataLoadErrMsg{err: notFoundError("no products found", "Check --shop, or that the backend has a catalog.")}
		}
		return tuiDataLoadedMsg{products: products, initialOpts: cfg.initialOpts}
	}
}

func (m productsTUIModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadCmd)
}

func (m productsTUIModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case tuiDataLoadedMsg:
		m.loading = false
		m.allProducts = msg.products
		m.initialOpts = canonicalizeTUIOptions(msg.initialOpts)
		m.opts = m.initialOpts
		m.initializeInlineChoices()
		m.applyCurrentFilters(true)
		m.resize()
		return m, nil

	case tuiDataLoadErrMsg:
		m.loading = false
		m.fatalErr = msg.err
		return m, tea.Quit

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}

	keyMsg, isKey := msg.(tea.KeyMsg)
	if isKey {
		if keyMsg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.loading {
			if keyMsg.String() == "q" {
				return m, tea.Quit
			}
			return m, nil
		}
	}

	if m.loading {
		return m, nil
	}

	if isKey {
		filtering := m.list.FilterState() == list.Filtering
		key := keyMsg.String()

		if !filtering {
			switch key {
			case "q":
				return m, tea.Quit
			case "tab":
				if m.focus == tuiFocusList {
					m.focus = tuiFocusDetail
				} else {
					m.focus = tuiFocusList
				}
				return m, nil
			case "esc":
				if m.focus == tuiFocusDetail {
					m.focus = tuiFocusList
					return m, nil
				}
			case "?":
				m.showHelp = !m.showHelp
				m.resize()
				return m, nil
			case "s":
				m.cycleSortMode()
				return m, nil
			case "o":
				m.opts.OnSale = !m.opts.OnSale
				m.applyCurrentFilters(false)
				return m, nil
			case "c":
				m.cycleCategory()
				return m, nil
			case "l":
				m.cycleLimit()
				return m, nil
			case "r":
				m.opts = m.initialOpts
				m.syncChoiceIndexesFromOptions()
				m.applyCurrentFilters(false)
				return m, nil
			case "]", "[":
				if m.list.IsFiltered() {
					return m, m.list.NewStatusMessage("Xoá bộ lọc mờ trước khi nhảy mục.")
				}
				if key == "]" {
					m.jumpSection(1)
				} else {
					m.jumpSection(-1)
				}
				return m, nil
			}

			if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
				if m.list.IsFiltered() {
					return m, m.list.NewStatusMessage("Xoá bộ lọc mờ trước khi nhảy mục.")
				}
				m.jumpToSection(int(key[0] - '1'))
				return m, nil
			}

			if m.focus == tuiFocusDetail {
				var cmd tea.Cmd
				m.detail, cmd = m.detail.Update(msg)
				return m, cmd
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	m.refreshDetail(false)
	return m, cmd
}

func (m productsTUIModel) View() string {
	if m.loading {
		return m.loadingView()
	}
	if m.width == 0 || m.height == 0 {
		return tuiMetaStyle.Render("Đang tải giao diện...")
	}
	if m.tooSmall {
		return tooSmallView(m.width, m.height)
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.headerView(),
		twoPaneView(m.list.View(), m.detail.View(), m.focus, m.listPaneWidth, m.detailPaneWidth, m.bodyHeight),
		m.footerView(),
	)
}

func tooSmallView(width, height int) string {
	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(
			fmt.Sprintf(
				"Terminal too small (%dx%d).\nResize to at least %dx%d.",
				width, height, minTUIWidth, minTUIHeight,
			),
		)
}

func (m productsTUIModel) loadingView() string {
	width := m.width
	if width == 0 {
		width = 80
	}
	skeletonStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	lines := []string{
		tuiHeaderStyle.Render("shopcli browse"),
		tuiMetaStyle.Render("Đang chuẩn bị giao diện..."),
		"",
		fmt.Sprintf("%s Đang tải sản phẩm", m.spinner.View()),
		tuiHintStyle.Render("Nhấn q để huỷ."),
		"",
		skeletonStyle.Render("┌──────────────────────────────┬─────────────────────────────────────────┐"),
		skeletonStyle.Render("│  Danh sách sản phẩm...       │  Chi tiết sản phẩm...                   │"),
		skeletonStyle.Render("│  • danh mục                  │  • giá và khuyến mãi                    │"),
		skeletonStyle.Render("│  • bộ lọc                    │  • mô tả                                │"),
		skeletonStyle.Render("└──────────────────────────────┴─────────────────────────────────────────┘"),
	}

	return lipgloss.NewStyle().
		Width(width).
		Padding(1, 2).
		Render(strings.Join(lines, "\n"))
}

// paneLayout splits the terminal into list and detail panes. It returns
// ok=false when the terminal is below the minimum size.
type paneLayout struct {
	bodyHeight, listWidth, detailWidth int
	listInner, detailInner, innerHeight int
}

func computePaneLayout(width, height, footerH int) (paneLayout, bool) {
	if width < minTUIWidth || height < minTUIHeight {
		return paneLayout{}, false
	}
	headerH := 3
	bodyHeight := max(8, height-headerH-footerH-1)

	listWidth := max(40, int(float64(width)*0.43))
	if listWidth > width-42 {
		listWidth = width / 2
	}
	detailWidth := width - listWidth - 1
	if detailWidth < 36 {
		detailWidth = 36
		listWidth = width - detailWidth - 1
	}

	return paneLayout{
		bodyHeight:  bodyHeight,
		listWidth:   listWidth,
		detailWidth: detailWidth,
		listInner:   max(24, listWidth-4),
		detailInner: max(24, detailWidth-4),
		innerHeight: max(6, bodyHeight-2),
	}, true
}

func (m *productsTUIModel) resize() {
	if m.width == 0 || m.height == 0 || m.loading {
		return
	}

	footerH := 2
	if m.showHelp {
		footerH = 7
	}
	layout, ok := computePaneLayout(m.width, m.height, footerH)
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
	m.refreshDetail(false)
}

func (m productsTUIModel) headerView() string {
	focus := "list"
	if m.focus == tuiFocusDetail {
		focus = "detail"
	}

	top := "shopcli browse"
	bottom := fmt.Sprintf(
		"sản phẩm: %d hiển thị / %d tổng  |  lọc: %s  |  focus: %s",
		m.visibleProducts, len(m.allProducts), m.activeFilterSummary(), focus,
	)

	return lipgloss.NewStyle().
		Width(m.width).
		Padding(0, 1).
		Render(tuiHeaderStyle.Render(top) + "\n" + tuiMetaStyle.Render(bottom))
}

func twoPaneView(left, right string, focus tuiFocus, listWidth, detailWidth, height int) string {
	listBorder := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("241")).
		Padding(0, 1)
	detailBorder := listBorder

	if focus == tuiFocusList {
		listBorder = listBorder.BorderForeground(lipgloss.Color("86"))
	} else {
		detailBorder = detailBorder.BorderForeground(lipgloss.Color("86"))
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		listBorder.Width(listWidth).Height(height).Render(left),
		" ",
		detailBorder.Width(detailWidth).Height(height).Render(right),
	)
}

func (m productsTUIModel) footerView() string {
	base := "Tab switch pane • / fuzzy filter • s sort • o on-sale • c category • l limit • r reset • [/] section jump • 1-9 section • q quit"
	if m.focus == tuiFocusDetail {
		base = "Detail: j/k or ↑/↓ scroll • u/d half-page • b/f page • esc list • ? help • q quit"
	}

	if !m.showHelp {
		return lipgloss.NewStyle().Padding(0, 1).Render(tuiHintStyle.Render(base))
	}

	lines := []string{
		"Key Help",
		"list pane: ↑/↓ or j/k move • / fuzzy filter (diacritics optional) • c category • o on-sale • s sort • l limit",
		"group jumps: ] next section • [ previous section • 1..9 jump to numbered section header",
		"detail pane: j/k or ↑/↓ scroll • u/d half-page • b/f page up/down",
		"global: tab switch pane • esc list • r reset inline options • ? toggle help • q quit • ctrl+c force quit",
	}
	return lipgloss.NewStyle().
		Padding(0, 1).
		Render(tuiHintStyle.Render(strings.Join(lines, "\n")))
}

func (m *productsTUIModel) initializeInlineChoices() {
	m.opts = canonicalizeTUIOptions(m.opts)

	m.sortChoices = append([]string{""}, filter.SortModes[1:]...)
	m.categoryChoices = buildCategoryChoices(m.allProducts, m.opts.Category)
	m.limitChoices = buildLimitChoices(m.opts.Limit)

	m.syncChoiceIndexesFromOptions()
}

func (m *productsTUIModel) syncChoiceIndexesFromOptions() {
	m.sortIndex = max(0, slices.Index(m.sortChoices, filter.CanonicalSortMode(m.opts.Sort)))
	m.opts.Sort = m.sortChoices[m.sortIndex]

	m.categoryIndex = indexOfCategory(m.categoryChoices, m.opts.Category)
	if m.categoryIndex < 0 {
		m.categoryIndex = 0
		m.opts.Category = ""
	} else {
		m.opts.Category = m.categoryChoices[m.categoryIndex]
	}

	m.limitIndex = slices.Index(m.limitChoices, m.opts.Limit)
	if m.limitIndex < 0 {
		m.limitIndex = 0
		m.opts.Limit = m.limitChoices[m.limitIndex]
	}
}

func (m *productsTUIModel) cycleSortMode() {
	if len(m.sortChoices) == 0 {
		return
	}
	m.sortIndex = (m.sortIndex + 1) % len(m.sortChoices)
	m.opts.Sort = m.sortChoices[m.sortIndex]
	m.applyCurrentFilters(false)
}

func (m *productsTUIModel) cycleCategory() {
	if len(m.categoryChoices) == 0 {
		return
	}
	m.categoryIndex = (m.categoryIndex + 1) % len(m.categoryChoices)
	m.opts.Category = m.categoryChoices[m.categoryIndex]
	m.applyCurrentFilters(false)
}

func (m *productsTUIModel) cycleLimit() {
	if len(m.limitChoices) == 0 {
		return
	}
	m.limitIndex = (m.limitIndex + 1) % len(m.limitChoices)
	m.opts.Limit = m.limitChoices[m.limitIndex]
	m.applyCurrentFilters(false)
}

func (m productsTUIModel) activeFilterSummary() string {
	parts := []string{}
	if m.opts.OnSale {
		parts = append(parts, "on-sale")
	}
	if m.opts.Category != "" {
		parts = append(parts, "category:"+m.opts.Category)
	}
	if m.opts.Query != "" {
		parts = append(parts, "query:"+m.opts.Query)
	}
	if m.opts.MinPrice.IsPositive() || m.opts.MaxPrice.IsPositive() {
		parts = append(parts, "price:"+priceBand(m.opts))
	}
	if m.opts.Sort != "" {
		parts = append(parts, "sort:"+m.opts.Sort)
	}
	if m.opts.Limit > 0 {
		parts = append(parts, fmt.Sprintf("limit:%d", m.opts.Limit))
	}
	if fuzzy := strings.TrimSpace(m.list.FilterValue()); fuzzy != "" {
		parts = append(parts, "fuzzy:"+fuzzy)
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}

func priceBand(opts filter.Options) string {
	lo, hi := "", ""
	if opts.MinPrice.IsPositive() {
		lo = display.FormatVND(opts.MinPrice)
	}
	if opts.MaxPrice.IsPositive() {
		hi = display.FormatVND(opts.MaxPrice)
	}
	return lo + "-" + hi
}

func (m *productsTUIModel) applyCurrentFilters(resetSelection bool) {
	currentID := m.selectedID
	filtered := filter.Apply(m.allProducts, m.opts)
	m.visibleProducts = len(filtered)

	items, starts := buildGroupedListItems(filtered)
	m.groupStarts = starts

	m.list.Title = fmt.Sprintf("Sản phẩm • %d hiển thị", m.visibleProducts)
	m.list.SetItems(items)

	target := -1
	if !resetSelection && currentID != "" {
		target = findItemIndexByID(items, currentID)
	}
	if target < 0 {
		target = firstProductIndexFrom(items, 0)
	}
	if target < 0 && len(items) > 0 {
		target = 0
	}
	if target >= 0 {
		m.list.Select(target)
	}

	m.refreshDetail(true)
}

func (m *productsTUIModel) refreshDetail(resetScroll bool) {
	var content string
	nextID := ""

	if selected := m.list.SelectedItem(); selected != nil {
		switch item := selected.(type) {
		case tuiProductItem:
			content = renderProductDetailContent(item.product, m.detail.Width)
			nextID = stableIDForItem(item)
		case tuiGroupItem:
			content = m.renderGroupDetail(item)
			nextID = stableIDForItem(item)
		}
	}
	if content == "" {
		content = "Không có sản phẩm phù hợp với bộ lọc hiện tại.\n\nNhấn r để đặt lại bộ lọc."
	}

	if resetScroll || nextID != m.selectedID {
		m.detail.GotoTop()
	}
	m.selectedID = nextID
	m.detail.SetContent(content)
}

func (m productsTUIModel) renderGroupDetail(group tuiGroupItem) string {
	preview := m.groupPreviewTitles(group.name, 5)

	lines := []string{
		tuiSectionStyle.Render(fmt.Sprintf("Mục %d: %s", group.ordinal, group.name)),
		tuiMetaStyle.Render(fmt.Sprintf("%d sản phẩm trong mục này", group.count)),
		"",
		tuiMetaStyle.Render("Phím nhảy:"),
		"- `]` mục sau, `[` mục trước",
		"- `1..9` tới mục theo số",
	}
	if len(preview) > 0 {
		lines = append(lines, "", tuiMetaStyle.Render("Xem trước:"))
		for _, title := range preview {
			lines = append(lines, "• "+title)
		}
	}
	return strings.Join(lines, "\n")
}

func (m productsTUIModel) groupPreviewTitles(group string, limit int) []string {
	out := make([]string, 0, limit)
	for _, item := range m.list.Items() {
		p, ok := item.(tuiProductItem)
		if !ok || p.group != group {
			continue
		}
		out = append(out, p.title)
		if len(out) >= limit {
			break
		}
	}
	return out
}

func (m *productsTUIModel) jumpToSection(index int) {
	if index < 0 || index >= len(m.groupStarts) {
		return
	}
	target := firstProductIndexFrom(m.list.Items(), m.groupStarts[index])
	if target < 0 {
		target = m.groupStarts[index]
	}
	m.list.Select(target)
	m.refreshDetail(true)
}

func (m *productsTUIModel) jumpSection(delta int) {
	if len(m.groupStarts) == 0 {
		return
	}
	next := max(0, m.currentSectionIndex()) + delta
	if next < 0 {
		next = len(m.groupStarts) - 1
	}
	if next >= len(m.groupStarts) {
		next = 0
	}
	m.jumpToSection(next)
}

func (m productsTUIModel) currentSectionIndex() int {
	if len(m.groupStarts) == 0 {
		return -1
	}
	cursor := m.list.GlobalIndex()
	current := 0
	for i, start := range m.groupStarts {
		if start > cursor {
			break
		}
		current = i
	}
	return current
}

// buildGroupedListItems lays products out under numbered category headers,
// largest group first. Product order inside a group follows the input.
func buildGroupedListItems(products []api.Product) (items []list.Item, starts []int) {
	if len(products) == 0 {
		return nil, nil
	}

	groups := map[string][]api.Product{}
	for _, p := range products {
		group := productGroupLabel(p)
		groups[group] = append(groups[group], p)
	}

	type groupMeta struct {
		name  string
		count int
	}
	metas := make([]groupMeta, 0, len(groups))
	for name, ps := range groups {
		metas = append(metas, groupMeta{name: name, count: len(ps)})
	}
	sort.Slice(metas, func(i, j int) bool {
		if (metas[i].name == otherGroup) != (metas[j].name == otherGroup) {
			return metas[j].name == otherGroup
		}
		if metas[i].count != metas[j].count {
			return metas[i].count > metas[j].count
		}
		return metas[i].name < metas[j].name
	})

	items = make([]list.Item, 0, len(products)+len(metas))
	starts = make([]int, 0, len(metas))
	for idx, meta := range metas {
		starts = append(starts, len(items))
		items = append(items, tuiGroupItem{name: meta.name, count: meta.count, ordinal: idx + 1})
		for _, p := range groups[meta.name] {
			items = append(items, buildTUIProductItem(p, meta.name))
		}
	}
	return items, starts
}

// productGroupLabel resolves a product's free-form label to a canonical
// category where the matcher finds one.
func productGroupLabel(p api.Product) string {
	label := filter.CleanText(filter.ProductCategory(p))
	if label == "" {
		return otherGroup
	}
	canonical := filter.CanonicalCategories()
	if c := filter.CanonicalCategory(label); slices.Contains(canonical, c) {
		return c
	}
	for _, c := range canonical {
		if filter.IsProductInCategory(label, c) {
			return c
		}
	}
	return label
}

func buildTUIProductItem(p api.Product, group string) tuiProductItem {
	title := productTitle(p)
	price := display.FormatVND(filter.EffectivePrice(p))
	if pct := filter.DiscountPercent(p); pct > 0 {
		price = fmt.Sprintf("%s (-%d%%)", price, pct)
	}

	descParts := []string{price}
	if shop := filter.CleanText(filter.Deref(p.ShopName)); shop != "" {
		descParts = append(descParts, shop)
	}
	if p.Rating > 0 {
		descParts = append(descParts, fmt.Sprintf("★ %.1f", p.Rating))
	}

	filterTokens := []string{
		title,
		filter.CleanText(filter.Deref(p.Description)),
		filter.CleanText(filter.ProductCategory(p)),
		filter.CleanText(filter.Deref(p.ShopName)),
		group,
	}

	return tuiProductItem{
		product:     p,
		group:       group,
		title:       title,
		description: strings.Join(descParts, "  •  "),
		filterValue: filter.Normalize(strings.Join(filterTokens, " ")),
	}
}

func renderProductDetailContent(p api.Product, width int) string {
	maxWidth := max(24, width)

	desc := filter.CleanText(filter.Deref(p.Description))
	if desc == "" {
		desc = "Chưa có mô tả."
	}

	lines := []string{tuiTitleStyle.Render(wrapText(productTitle(p), maxWidth))}

	metaBits := []string{}
	if pct := filter.DiscountPercent(p); pct > 0 {
		metaBits = append(metaBits, tuiSaleStyle.Render(fmt.Sprintf("-%d%%", pct)))
	}
	if cat := filter.CleanText(filter.ProductCategory(p)); cat != "" {
		metaBits = append(metaBits, "danh mục: "+cat)
	}
	if len(metaBits) > 0 {
		lines = append(lines, tuiMetaStyle.Render(wrapText(strings.Join(metaBits, "  |  "), maxWidth)))
	}

	price := tuiValueStyle.Render(display.FormatVND(filter.EffectivePrice(p)))
	if filter.IsOnSale(p) {
		price += " " + tuiMutedStyle.Render(display.FormatVND(p.Price))
	}
	if unit := filter.CleanText(filter.Deref(p.Unit)); unit != "" {
		price += tuiMutedStyle.Render(" / " + unit)
	}

	lines = append(lines,
		"",
		fmt.Sprintf("%s %s", tuiMetaStyle.Render("Giá:"), price),
		"",
		tuiMetaStyle.Render("Mô tả:"),
		wrapText(desc, maxWidth),
		"",
	)

	if shop := filter.CleanText(filter.Deref(p.ShopName)); shop != "" {
		lines = append(lines, fmt.Sprintf("%s %s", tuiMetaStyle.Render("Cửa hàng:"), shop))
	}
	lines = append(lines, fmt.Sprintf("%s %d", tuiMetaStyle.Render("Tồn kho:"), p.Stock))
	lines = append(lines, fmt.Sprintf("%s %d", tuiMetaStyle.Render("Đã bán:"), p.SoldCount))
	if p.Rating > 0 {
		lines = append(lines, fmt.Sprintf("%s %.1f", tuiMetaStyle.Render("Đánh giá:"), p.Rating))
	}

	if imageURL := strings.TrimSpace(filter.Deref(p.ImageURL)); imageURL != "" {
		lines = append(lines, "", tuiMutedStyle.Render("Ảnh:"), tuiMutedStyle.Render(wrapText(imageURL, maxWidth)))
	}
	return strings.Join(lines, "\n")
}

// wrapText wraps on word boundaries, measuring display width so
// Vietnamese text does not wrap early.
func wrapText(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	width = max(12, width)

	line := words[0]
	lines := make([]string, 0, len(words)/6+1)
	for _, w := range words[1:] {
		if lipgloss.Width(line)+1+lipgloss.Width(w) > width {
			lines = append(lines, line)
			line = w
			continue
		}
		line += " " + w
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}

func canonicalizeTUIOptions(opts filter.Options) filter.Options {
	opts.Sort = filter.CanonicalSortMode(opts.Sort)
	if opts.Category != "" {
		opts.Category = filter.CanonicalCategory(opts.Category)
	}
	opts.Query = strings.TrimSpace(opts.Query)
	return opts
}

// buildCategoryChoices lists canonical categories that have at least one
// product, busiest first, behind an "all" entry. current is always kept.
func buildCategoryChoices(products []api.Product, current string) []string {
	counts := map[string]int{}
	for _, p := range products {
		if group := productGroupLabel(p); group != otherGroup {
			counts[group]++
		}
	}

	values := make([]string, 0, len(counts)+1)
	for name := range counts {
		values = append(values, name)
	}
	if current != "" && indexOfCategory(values, current) < 0 {
		values = append(values, current)
	}
	sort.SliceStable(values, func(i, j int) bool {
		if counts[values[i]] != counts[values[j]] {
			return counts[values[i]] > counts[values[j]]
		}
		return values[i] < values[j]
	})
	return append([]string{""}, values...)
}

func buildLimitChoices(current int) []int {
	values := []int{0, 10, 25, 50, 100}
	if current > 0 && !slices.Contains(values, current) {
		values = append(values, current)
		slices.Sort(values)
	}
	return values
}

// indexOfCategory compares names the way the matcher does, so "rau cu"
// finds "Rau củ".
func indexOfCategory(values []string, target string) int {
	key := filter.Normalize(target)
	return slices.IndexFunc(values, func(v string) bool { return filter.Normalize(v) == key })
}

func findItemIndexByID(items []list.Item, stableID string) int {
	return slices.IndexFunc(items, func(item list.Item) bool { return stableIDForItem(item) == stableID })
}

func firstProductIndexFrom(items []list.Item, start int) int {
	for i := start; i < len(items); i++ {
		if _, ok := items[i].(tuiProductItem); ok {
			return i
		}
	}
	return -1
}

func stableIDForItem(item list.Item) string {
	switch value := item.(type) {
	case tuiProductItem:
		if id := strings.TrimSpace(value.product.ID); id != "" {
			return "product:" + id
		}
		return "product:title:" + filter.Normalize(value.title)
	case tuiGroupItem:
		return "group:" + filter.Normalize(value.name)
	default:
		return ""
	}
}
