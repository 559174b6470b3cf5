package views

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"noodlemap/internal/client/api"
	"noodlemap/internal/session"
	"noodlemap/internal/thread"
	"noodlemap/internal/tui/styles"
	"noodlemap/pkg/models"
)

// DetailTab represents tabs in detail view
type DetailTab int

const (
	TabInfo DetailTab = iota
	TabReviews
)

// composeMode says what the review composer is editing
type composeMode int

const (
	composeNone composeMode = iota
	composeNew
	composeReply
	composeEdit
)

// threadItem is one visible row of the review thread: a top-level review or
// an expanded reply under it.
type threadItem struct {
	review  models.Review
	isReply bool
	parent  models.ReviewID
}

var reviewSortChoices = []sortChoice{
	{"Newest first", models.SortSpec{By: models.SortByCreatedAt, Dir: models.SortDesc}},
	{"Oldest first", models.SortSpec{By: models.SortByCreatedAt, Dir: models.SortAsc}},
	{"Highest rated", models.SortSpec{By: models.SortByRating, Dir: models.SortDesc}},
	{"Lowest rated", models.SortSpec{By: models.SortByRating, Dir: models.SortAsc}},
}

// DetailModel displays one shop plus its threaded reviews
type DetailModel struct {
	apiClient *api.Client
	sess      *session.Store

	// Current shop
	shopID   int64
	shop     *models.Shop
	notFound bool
	loading  bool
	errMsg   string

	// Review thread
	thread *thread.Controller
	snap   thread.Snapshot

	// State
	selectedTab DetailTab
	cursor      int
	sortIndex   int

	// Composer
	mode         composeMode
	editTarget   models.ReviewID
	editIsReply  bool
	replyTo      models.ReviewID
	rating       int
	contentInput textinput.Model

	// Window size
	width  int
	height int
}

// NewDetailModel creates a new detail model
func NewDetailModel(apiClient *api.Client, sess *session.Store) DetailModel {
	contentInput := textinput.New()
	contentInput.Placeholder = "Write something..."
	contentInput.CharLimit = models.MaxReviewLength
	contentInput.Width = 60

	return DetailModel{
		apiClient:    apiClient,
		sess:         sess,
		contentInput: contentInput,
	}
}

// SetShop points the view at a shop and starts loading it
func (m *DetailModel) SetShop(shopID int64, pageSize int) tea.Cmd {
	m.shopID = shopID
	m.shop = nil
	m.notFound = false
	m.loading = true
	m.errMsg = ""
	m.selectedTab = TabInfo
	m.cursor = 0
	m.sortIndex = 0
	m.mode = composeNone
	m.thread = thread.NewController(m.apiClient, shopID, pageSize)
	m.snap = thread.Snapshot{}
	return tea.Batch(m.loadShop(), m.loadReviews(0))
}

// InputActive reports whether the composer owns the keyboard
func (m DetailModel) InputActive() bool {
	return m.mode != composeNone
}

// Init initializes the model
func (m DetailModel) Init() tea.Cmd {
	if m.shopID != 0 {
		return tea.Batch(m.loadShop(), m.loadReviews(m.snap.PageNo))
	}
	return nil
}

// Update handles messages
func (m DetailModel) Update(msg tea.Msg) (DetailModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.mode != composeNone {
			return m.updateComposer(msg)
		}
		return m.updateBrowse(msg)

	case ShopDetailLoadedMsg:
		m.loading = false
		m.shop = msg.Shop
		return m, nil

	case ShopNotFoundMsg:
		m.loading = false
		m.notFound = true
		return m, nil

	case ThreadUpdatedMsg:
		m.snap = msg.Snapshot
		items := m.visibleItems()
		if m.cursor >= len(items) {
			m.cursor = 0
		}
		return m, nil

	case threadSettleMsg:
		if m.thread != nil {
			m.snap = m.thread.Snapshot()
		}
		return m, nil

	case DetailErrorMsg:
		m.loading = false
		m.errMsg = msg.Message
		return m, nil

	case reviewMutatedMsg:
		m.mode = composeNone
		m.contentInput.SetValue("")
		m.contentInput.Blur()
		m.errMsg = ""
		if m.thread != nil {
			m.snap = m.thread.Snapshot()
		}
		// reply groups refetch in the background; pick the result up shortly
		return m, tea.Batch(m.loadShopQuiet(), settleSoon())
	}

	return m, nil
}

// updateBrowse handles keys outside the composer
func (m DetailModel) updateBrowse(msg tea.KeyMsg) (DetailModel, tea.Cmd) {
	switch {
	case key.Matches(msg, key.NewBinding(key.WithKeys("tab"))):
		m.selectedTab = (m.selectedTab + 1) % 2
		m.cursor = 0
		return m, nil

	case key.Matches(msg, key.NewBinding(key.WithKeys("j", "down"))):
		if m.selectedTab == TabReviews {
			if m.cursor < len(m.visibleItems())-1 {
				m.cursor++
			}
		}
		return m, nil

	case key.Matches(msg, key.NewBinding(key.WithKeys("k", "up"))):
		if m.selectedTab == TabReviews && m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, key.NewBinding(key.WithKeys("t", "enter"))):
		if m.selectedTab != TabReviews {
			return m, nil
		}
		item, ok := m.selectedItem()
		if !ok || item.isReply {
			return m, nil
		}
		return m, m.toggleReplies(item.review.ID)

	case key.Matches(msg, key.NewBinding(key.WithKeys("s"))):
		if m.selectedTab != TabReviews {
			return m, nil
		}
		m.sortIndex = (m.sortIndex + 1) % len(reviewSortChoices)
		m.cursor = 0
		return m, m.setSort(reviewSortChoices[m.sortIndex].spec)

	case key.Matches(msg, key.NewBinding(key.WithKeys("n", "pgdown"))):
		if m.selectedTab == TabReviews && m.snap.PageNo+1 < m.snap.TotalPages {
			m.cursor = 0
			return m, m.loadReviews(m.snap.PageNo + 1)
		}
		return m, nil

	case key.Matches(msg, key.NewBinding(key.WithKeys("p", "pgup"))):
		if m.selectedTab == TabReviews && m.snap.PageNo > 0 {
			m.cursor = 0
			return m, m.loadReviews(m.snap.PageNo - 1)
		}
		return m, nil

	case key.Matches(msg, key.NewBinding(key.WithKeys("r"))):
		return m, tea.Batch(m.loadShop(), m.loadReviews(m.snap.PageNo))

	case key.Matches(msg, key.NewBinding(key.WithKeys("c"))):
		if m.selectedTab != TabReviews {
			return m, nil
		}
		if !m.sess.IsAuthenticated() {
			m.errMsg = "log in to write a review"
			return m, nil
		}
		if id := m.sess.Identity(); id != nil && id.OwnsShop(m.shopID) {
			m.errMsg = "you own this shop; reply to reviews instead"
			return m, nil
		}
		m.mode = composeNew
		m.rating = 5
		m.contentInput.SetValue("")
		m.contentInput.Focus()
		m.errMsg = ""
		return m, textinput.Blink

	case key.Matches(msg, key.NewBinding(key.WithKeys("a"))):
		if m.selectedTab != TabReviews {
			return m, nil
		}
		if !m.sess.IsAuthenticated() {
			m.errMsg = "log in to reply"
			return m, nil
		}
		item, ok := m.selectedItem()
		if !ok {
			return m, nil
		}
		// replying to a reply targets its top-level parent
		parent := item.review.ID
		if item.isReply {
			parent = item.parent
		}
		m.mode = composeReply
		m.replyTo = parent
		m.contentInput.SetValue("")
		m.contentInput.Focus()
		m.errMsg = ""
		return m, textinput.Blink

	case key.Matches(msg, key.NewBinding(key.WithKeys("e"))):
		if m.selectedTab != TabReviews {
			return m, nil
		}
		item, ok := m.selectedItem()
		if !ok {
			return m, nil
		}
		if !m.canVary(item.review) {
			m.errMsg = "you can only edit your own reviews"
			return m, nil
		}
		m.mode = composeEdit
		m.editTarget = item.review.ID
		m.editIsReply = item.isReply
		if item.review.Rating != nil {
			m.rating = *item.review.Rating
		}
		m.contentInput.SetValue(item.review.Content)
		m.contentInput.Focus()
		m.errMsg = ""
		return m, textinput.Blink

	case key.Matches(msg, key.NewBinding(key.WithKeys("d"))):
		if m.selectedTab != TabReviews {
			return m, nil
		}
		item, ok := m.selectedItem()
		if !ok {
			return m, nil
		}
		if !m.canVary(item.review) {
			m.errMsg = "you can only delete your own reviews"
			return m, nil
		}
		return m, m.deleteReview(item.review.ID)
	}

	return m, nil
}

// updateComposer handles keys while writing a review or reply
func (m DetailModel) updateComposer(msg tea.KeyMsg) (DetailModel, tea.Cmd) {
	ratingEditable := m.mode == composeNew || (m.mode == composeEdit && !m.editIsReply)

	switch {
	case key.Matches(msg, key.NewBinding(key.WithKeys("esc"))):
		m.mode = composeNone
		m.contentInput.Blur()
		return m, nil

	case key.Matches(msg, key.NewBinding(key.WithKeys("ctrl+j"))):
		if ratingEditable && m.rating > 1 {
			m.rating--
		}
		return m, nil

	case key.Matches(msg, key.NewBinding(key.WithKeys("ctrl+k"))):
		if ratingEditable && m.rating < 5 {
			m.rating++
		}
		return m, nil

	case key.Matches(msg, key.NewBinding(key.WithKeys("enter"))):
		content := strings.TrimSpace(m.contentInput.Value())
		if content == "" {
			m.errMsg = "content is required"
			return m, nil
		}
		switch m.mode {
		case composeNew:
			rating := m.rating
			return m, m.addReview(models.CreateReviewRequest{
				Rating:  &rating,
				Content: content,
			})
		case composeReply:
			parent := m.replyTo
			return m, m.addReview(models.CreateReviewRequest{
				ParentReviewID: &parent,
				Content:        content,
			})
		case composeEdit:
			req := models.UpdateReviewRequest{Content: content}
			if !m.editIsReply {
				rating := m.rating
				req.Rating = &rating
			}
			return m, m.editReview(m.editTarget, req)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.contentInput, cmd = m.contentInput.Update(msg)
	return m, cmd
}

// canVary reports whether the session user may edit or delete the review.
// The server enforces this too; the check only keeps the UI honest.
func (m DetailModel) canVary(r models.Review) bool {
	id := m.sess.Identity()
	if id == nil {
		return false
	}
	return id.ID == r.User.ID || id.IsAdmin()
}

// visibleItems flattens the page plus expanded reply groups into rows
func (m DetailModel) visibleItems() []threadItem {
	var items []threadItem
	for _, r := range m.snap.Reviews {
		items = append(items, threadItem{review: r})
		g, ok := m.snap.Replies[r.ID]
		if !ok || !g.Expanded {
			continue
		}
		for _, reply := range g.Items {
			items = append(items, threadItem{review: reply, isReply: true, parent: r.ID})
		}
	}
	return items
}

func (m DetailModel) selectedItem() (threadItem, bool) {
	items := m.visibleItems()
	if m.cursor < 0 || m.cursor >= len(items) {
		return threadItem{}, false
	}
	return items[m.cursor], true
}

// Commands

func (m DetailModel) loadShop() tea.Cmd {
	client := m.apiClient
	shopID := m.shopID
	return func() tea.Msg {
		shop, err := client.GetShop(context.Background(), shopID)
		if err != nil {
			if api.IsNotFound(err) {
				return ShopNotFoundMsg{}
			}
			return DetailErrorMsg{Message: api.MessageOf(err)}
		}
		return ShopDetailLoadedMsg{Shop: shop}
	}
}

// loadShopQuiet refreshes rating aggregates without surfacing errors
func (m DetailModel) loadShopQuiet() tea.Cmd {
	client := m.apiClient
	shopID := m.shopID
	return func() tea.Msg {
		shop, err := client.GetShop(context.Background(), shopID)
		if err != nil {
			return nil
		}
		return ShopDetailLoadedMsg{Shop: shop}
	}
}

func (m DetailModel) loadReviews(page int) tea.Cmd {
	ctrl := m.thread
	if ctrl == nil {
		return nil
	}
	return func() tea.Msg {
		_ = ctrl.LoadPage(context.Background(), page)
		return ThreadUpdatedMsg{Snapshot: ctrl.Snapshot()}
	}
}

func (m DetailModel) setSort(spec models.SortSpec) tea.Cmd {
	ctrl := m.thread
	return func() tea.Msg {
		_ = ctrl.SetSortSpec(context.Background(), spec)
		return ThreadUpdatedMsg{Snapshot: ctrl.Snapshot()}
	}
}

func (m DetailModel) toggleReplies(parentID models.ReviewID) tea.Cmd {
	ctrl := m.thread
	return func() tea.Msg {
		_ = ctrl.ToggleReplies(context.Background(), parentID)
		return ThreadUpdatedMsg{Snapshot: ctrl.Snapshot()}
	}
}

func (m DetailModel) addReview(req models.CreateReviewRequest) tea.Cmd {
	ctrl := m.thread
	return func() tea.Msg {
		if _, err := ctrl.AddReview(context.Background(), req, nil); err != nil {
			return DetailErrorMsg{Message: api.MessageOf(err)}
		}
		return reviewMutatedMsg{}
	}
}

func (m DetailModel) editReview(id models.ReviewID, req models.UpdateReviewRequest) tea.Cmd {
	ctrl := m.thread
	return func() tea.Msg {
		if _, err := ctrl.EditReview(context.Background(), id, req); err != nil {
			return DetailErrorMsg{Message: api.MessageOf(err)}
		}
		return reviewMutatedMsg{}
	}
}

func (m DetailModel) deleteReview(id models.ReviewID) tea.Cmd {
	ctrl := m.thread
	return func() tea.Msg {
		if err := ctrl.DeleteReview(context.Background(), id); err != nil {
			return DetailErrorMsg{Message: api.MessageOf(err)}
		}
		return reviewMutatedMsg{}
	}
}

// settleSoon re-snapshots after background reply refetches had a chance to
// land.
func settleSoon() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(time.Time) tea.Msg {
		return threadSettleMsg{}
	})
}

// View renders the detail view
func (m DetailModel) View() string {
	var b strings.Builder

	if m.notFound {
		b.WriteString(styles.TitleStyle.Render("🍜 Shop"))
		b.WriteString("\n\n")
		b.WriteString(styles.WarningStyle.Render("This shop no longer exists."))
		b.WriteString("\n\n")
		b.WriteString(styles.HelpStyle.Render("Press esc to go back"))
		return b.String()
	}

	if m.shop == nil {
		if m.loading {
			b.WriteString(styles.SpinnerStyle.Render("⟳ "))
			b.WriteString(styles.InfoStyle.Render("Loading..."))
		} else if m.errMsg != "" {
			b.WriteString(styles.ErrorStyle.Render("Error: " + m.errMsg))
		} else {
			b.WriteString(styles.InfoStyle.Render("No shop selected"))
		}
		return b.String()
	}

	b.WriteString(styles.TitleStyle.Render("🍜 " + m.shop.Name))
	b.WriteString("\n\n")

	infoTab := styles.TabStyle.Render("📋 Info")
	reviewsLabel := fmt.Sprintf("💬 Reviews (%d)", m.snap.TotalElements)
	reviewsTab := styles.TabStyle.Render(reviewsLabel)
	if m.selectedTab == TabInfo {
		infoTab = styles.TabActiveStyle.Render("📋 Info")
	} else {
		reviewsTab = styles.TabActiveStyle.Render(reviewsLabel)
	}
	b.WriteString(infoTab + " " + reviewsTab)
	b.WriteString("\n")
	b.WriteString(styles.RenderDivider(54))
	b.WriteString("\n\n")

	if m.selectedTab == TabInfo {
		b.WriteString(m.renderInfo())
	} else {
		b.WriteString(m.renderReviews())
	}

	if m.errMsg != "" {
		b.WriteString("\n\n")
		b.WriteString(styles.ErrorStyle.Render(m.errMsg))
	}

	b.WriteString("\n\n")
	switch {
	case m.mode != composeNone:
		b.WriteString(styles.HelpStyle.Render("Enter submit • Esc cancel • Ctrl+J/K rating"))
	case m.selectedTab == TabReviews:
		b.WriteString(styles.HelpStyle.Render("t replies • c review • a reply • e edit • d delete • s sort • n/p page • Tab info"))
	default:
		b.WriteString(styles.HelpStyle.Render("Tab reviews • r refresh • esc back"))
	}

	return b.String()
}

// renderInfo renders the shop information tab
func (m DetailModel) renderInfo() string {
	var b strings.Builder
	s := m.shop

	b.WriteString(styles.RenderStars(s.AverageRating, 5))
	b.WriteString("  ")
	b.WriteString(styles.MetaValueStyle.Render(fmt.Sprintf("%.1f avg / %.1f weighted, %d reviews",
		s.AverageRating, s.WeightedRating, s.ReviewCount)))
	b.WriteString("\n\n")

	b.WriteString(styles.RenderKeyValue("Address", s.Address))
	b.WriteString("\n")
	if s.City != "" {
		b.WriteString(styles.RenderKeyValue("City", s.City))
		b.WriteString("\n")
	}
	if s.Phone != "" {
		b.WriteString(styles.RenderKeyValue("Phone", s.Phone))
		b.WriteString("\n")
	}
	if s.OpeningHours != "" {
		b.WriteString(styles.RenderKeyValue("Hours", s.OpeningHours))
		b.WriteString("\n")
	}
	b.WriteString(styles.RenderKeyValue("Location", fmt.Sprintf("%.5f, %.5f", s.Latitude, s.Longitude)))
	b.WriteString("\n\n")

	b.WriteString(styles.MetaKeyStyle.Render("About:"))
	b.WriteString("\n")
	if s.Description != "" {
		b.WriteString(styles.CardContentStyle.Render(s.Description))
	} else {
		b.WriteString(styles.HelpStyle.Render("No description available"))
	}

	if s.Owner != nil {
		b.WriteString("\n\n")
		b.WriteString(styles.RenderKeyValue("Owner", s.Owner.Username))
	}

	return b.String()
}

// renderReviews renders the threaded review tab
func (m DetailModel) renderReviews() string {
	var b strings.Builder

	if m.mode != composeNone {
		b.WriteString(m.renderComposer())
		b.WriteString("\n")
	}

	if m.snap.Loading {
		b.WriteString(styles.SpinnerStyle.Render("⟳ "))
		b.WriteString(styles.InfoStyle.Render("Loading reviews..."))
		return b.String()
	}

	if m.snap.LoadErr != nil {
		b.WriteString(styles.ErrorStyle.Render("Error: " + m.snap.LoadErr.Error()))
		b.WriteString("\n")
	}

	items := m.visibleItems()
	if len(items) == 0 {
		b.WriteString(styles.HelpStyle.Render("No reviews yet. Press 'c' to write one!"))
		return b.String()
	}

	for i, item := range items {
		b.WriteString(m.renderItem(item, i == m.cursor))
		b.WriteString("\n")
	}

	b.WriteString(styles.HelpStyle.Render(fmt.Sprintf(
		"Page %d/%d • %s • %d reviews",
		m.snap.PageNo+1, maxInt(m.snap.TotalPages, 1),
		reviewSortChoices[m.sortIndex].label,
		m.snap.TotalElements,
	)))

	return b.String()
}

// renderItem renders one review or reply card
func (m DetailModel) renderItem(item threadItem, selected bool) string {
	var card strings.Builder
	r := item.review

	card.WriteString(styles.CardTitleStyle.Render(r.User.Username))
	if r.Rating != nil {
		card.WriteString("  ")
		card.WriteString(styles.RenderStars(float64(*r.Rating), 5))
	}
	card.WriteString("  ")
	card.WriteString(styles.HelpStyle.Render(r.CreatedAt.Format("Jan 2, 2006 15:04")))
	card.WriteString("\n")

	card.WriteString(styles.CardContentStyle.Render(r.Content))

	if len(r.Media) > 0 {
		card.WriteString("\n")
		card.WriteString(styles.ListItemDescStyle.Render(fmt.Sprintf("📷 %d attachment(s)", len(r.Media))))
	}

	if !item.isReply {
		card.WriteString("\n")
		g, loaded := m.snap.Replies[r.ID]
		switch {
		case loaded && g.Loading:
			card.WriteString(styles.SpinnerStyle.Render("⟳ loading replies..."))
		case loaded && g.Expanded:
			card.WriteString(styles.ListItemDescStyle.Render(fmt.Sprintf("▾ %d replies", r.ReplyCount)))
		case r.ReplyCount > 0:
			card.WriteString(styles.ListItemDescStyle.Render(fmt.Sprintf("▸ %d replies (t to expand)", r.ReplyCount)))
		default:
			card.WriteString(styles.ListItemDescStyle.Render("no replies"))
		}
	}

	style := styles.CardStyle
	if selected {
		style = style.BorderForeground(lipgloss.Color(styles.Pink))
	}

	rendered := style.Render(card.String())
	if item.isReply {
		// indent replies under their parent
		lines := strings.Split(rendered, "\n")
		for i, line := range lines {
			lines[i] = "    " + line
		}
		rendered = strings.Join(lines, "\n")
	}
	return rendered
}

// renderComposer renders the review/reply form
func (m DetailModel) renderComposer() string {
	var b strings.Builder

	switch m.mode {
	case composeNew:
		b.WriteString(styles.InputFocusedStyle.Render("New review"))
	case composeReply:
		b.WriteString(styles.InputFocusedStyle.Render("Reply"))
	case composeEdit:
		b.WriteString(styles.InputFocusedStyle.Render("Edit"))
	}
	b.WriteString("\n")

	if m.mode == composeNew || (m.mode == composeEdit && !m.editIsReply) {
		b.WriteString(styles.MetaKeyStyle.Render("Rating: "))
		b.WriteString(styles.RenderStars(float64(m.rating), 5))
		b.WriteString("\n")
	}

	b.WriteString(m.contentInput.View())
	b.WriteString("\n")

	return b.String()
}

// Messages

// ShopDetailLoadedMsg is sent when shop details are loaded
type ShopDetailLoadedMsg struct {
	Shop *models.Shop
}

// ShopNotFoundMsg is sent when the shop was deleted out from under us
type ShopNotFoundMsg struct{}

// ThreadUpdatedMsg carries the latest thread snapshot
type ThreadUpdatedMsg struct {
	Snapshot thread.Snapshot
}

// DetailErrorMsg is sent on detail errors
type DetailErrorMsg struct {
	Message string
}

// reviewMutatedMsg is sent after a successful add/edit/delete
type reviewMutatedMsg struct{}

// threadSettleMsg triggers a delayed re-snapshot
type threadSettleMsg struct{}
