package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"noodlemap/internal/browse"
	"noodlemap/internal/tui/styles"
	"noodlemap/pkg/models"
)

// sortChoice pairs a sort spec with its menu label.
type sortChoice struct {
	label string
	spec  models.SortSpec
}

var sortChoices = []sortChoice{
	{"Newest", models.SortSpec{By: models.SortByCreatedAt, Dir: models.SortDesc}},
	{"Best rated (weighted)", models.SortSpec{By: models.SortByWeightedRating, Dir: models.SortDesc}},
	{"Best rated (average)", models.SortSpec{By: models.SortByAverageRating, Dir: models.SortDesc}},
	{"Most reviewed", models.SortSpec{By: models.SortByReviewCount, Dir: models.SortDesc}},
}

// ShopsModel displays the paginated shop directory
type ShopsModel struct {
	browser *browse.Browser

	snap browse.Snapshot

	// State
	cursor     int
	sortMode   bool
	sortCursor int

	// City filter input
	cityInput   textinput.Model
	cityFocused bool

	// Window size
	width  int
	height int
}

// NewShopsModel creates a new shop directory model
func NewShopsModel(browser *browse.Browser) ShopsModel {
	cityInput := textinput.New()
	cityInput.Placeholder = "City"
	cityInput.CharLimit = 60
	cityInput.Width = 24

	return ShopsModel{
		browser:   browser,
		cityInput: cityInput,
	}
}

// Init initializes and loads data
func (m ShopsModel) Init() tea.Cmd {
	return m.loadPage(0)
}

// InputActive reports whether the city filter owns the keyboard
func (m ShopsModel) InputActive() bool {
	return m.cityFocused
}

// Update handles messages
func (m ShopsModel) Update(msg tea.Msg) (ShopsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.cityFocused {
			switch {
			case key.Matches(msg, key.NewBinding(key.WithKeys("esc"))):
				m.cityFocused = false
				m.cityInput.Blur()
				return m, nil

			case key.Matches(msg, key.NewBinding(key.WithKeys("enter"))):
				m.cityFocused = false
				m.cityInput.Blur()
				m.cursor = 0
				return m, m.setCity(m.cityInput.Value())
			}

			var cmd tea.Cmd
			m.cityInput, cmd = m.cityInput.Update(msg)
			return m, cmd
		}

		if m.sortMode {
			switch {
			case key.Matches(msg, key.NewBinding(key.WithKeys("esc", "s"))):
				m.sortMode = false
				return m, nil

			case key.Matches(msg, key.NewBinding(key.WithKeys("j", "down"))):
				if m.sortCursor < len(sortChoices)-1 {
					m.sortCursor++
				}
				return m, nil

			case key.Matches(msg, key.NewBinding(key.WithKeys("k", "up"))):
				if m.sortCursor > 0 {
					m.sortCursor--
				}
				return m, nil

			case key.Matches(msg, key.NewBinding(key.WithKeys("enter"))):
				m.sortMode = false
				m.cursor = 0
				return m, m.setSort(sortChoices[m.sortCursor].spec)
			}
			return m, nil
		}

		switch {
		case key.Matches(msg, key.NewBinding(key.WithKeys("s"))):
			m.sortMode = true
			return m, nil

		case key.Matches(msg, key.NewBinding(key.WithKeys("f", "/"))):
			m.cityFocused = true
			m.cityInput.Focus()
			return m, textinput.Blink

		case key.Matches(msg, key.NewBinding(key.WithKeys("j", "down"))):
			if m.cursor < len(m.snap.Shops)-1 {
				m.cursor++
			}
			return m, nil

		case key.Matches(msg, key.NewBinding(key.WithKeys("k", "up"))):
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil

		case key.Matches(msg, key.NewBinding(key.WithKeys("n", "pgdown"))):
			if m.snap.PageNo+1 < m.snap.TotalPages {
				m.cursor = 0
				return m, m.loadPage(m.snap.PageNo + 1)
			}
			return m, nil

		case key.Matches(msg, key.NewBinding(key.WithKeys("p", "pgup"))):
			if m.snap.PageNo > 0 {
				m.cursor = 0
				return m, m.loadPage(m.snap.PageNo - 1)
			}
			return m, nil

		case key.Matches(msg, key.NewBinding(key.WithKeys("r"))):
			return m, m.loadPage(m.snap.PageNo)

		case key.Matches(msg, key.NewBinding(key.WithKeys("enter"))):
			if len(m.snap.Shops) > 0 && m.cursor < len(m.snap.Shops) {
				shopID := m.snap.Shops[m.cursor].ID
				return m, func() tea.Msg {
					return SelectShopMsg{ShopID: shopID}
				}
			}
			return m, nil
		}

	case ShopListUpdatedMsg:
		m.snap = msg.Snapshot
		if m.cursor >= len(m.snap.Shops) {
			m.cursor = 0
		}
		return m, nil
	}

	return m, nil
}

// View renders the shop directory
func (m ShopsModel) View() string {
	var b strings.Builder

	if m.sortMode {
		return m.renderSortSelection()
	}

	pageInfo := fmt.Sprintf("Page %d/%d", m.snap.PageNo+1, maxInt(m.snap.TotalPages, 1))
	b.WriteString(styles.TitleStyle.Render("🍜 Noodle Shops"))
	b.WriteString("  ")
	b.WriteString(styles.SubtitleStyle.Render(pageInfo))

	if m.snap.City != "" {
		b.WriteString("  ")
		b.WriteString(styles.BadgePrimaryStyle.Render(m.snap.City))
	}
	b.WriteString("\n\n")

	if m.cityFocused {
		b.WriteString(styles.InputFocusedStyle.Render("City filter:"))
		b.WriteString(" ")
		b.WriteString(m.cityInput.View())
		b.WriteString("\n\n")
	}

	if m.snap.Loading {
		b.WriteString(styles.SpinnerStyle.Render("⟳ "))
		b.WriteString(styles.InfoStyle.Render("Loading shops..."))
		return b.String()
	}

	if m.snap.LoadErr != nil {
		b.WriteString(styles.ErrorStyle.Render("Error: " + m.snap.LoadErr.Error()))
		b.WriteString("\n")
		b.WriteString(styles.HelpStyle.Render("Press 'r' to retry"))
		return b.String()
	}

	if len(m.snap.Shops) == 0 {
		b.WriteString(styles.InfoStyle.Render("No shops found"))
		return b.String()
	}

	for i, shop := range m.snap.Shops {
		prefix := "  "
		style := styles.ListItemStyle
		if i == m.cursor {
			prefix = "▸ "
			style = styles.ListItemSelectedStyle
		}

		name := styles.ListItemTitleStyle.Render(styles.Truncate(shop.Name, 36))
		stars := styles.RenderStars(shop.AverageRating, 5)
		count := styles.ListItemDescStyle.Render(fmt.Sprintf("(%d)", shop.ReviewCount))

		line := fmt.Sprintf("%s%s %s %s", prefix, name, stars, count)
		b.WriteString(style.Render(line))

		if i == m.cursor {
			desc := shop.Address
			if shop.City != "" {
				desc += ", " + shop.City
			}
			b.WriteString("\n    ")
			b.WriteString(styles.ListItemDescStyle.Render(styles.Truncate(desc, 60)))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.RenderDivider(44))
	b.WriteString("\n")

	navHelp := "↑/↓ navigate • Enter open • s sort • f city"
	if m.snap.PageNo > 0 {
		navHelp += " • p prev"
	}
	if m.snap.PageNo+1 < m.snap.TotalPages {
		navHelp += " • n next"
	}
	navHelp += " • r refresh"
	b.WriteString(styles.HelpStyle.Render(navHelp))

	return b.String()
}

// renderSortSelection renders the sort option overlay
func (m ShopsModel) renderSortSelection() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("↕ Sort Shops"))
	b.WriteString("\n\n")

	for i, choice := range sortChoices {
		prefix := "  "
		style := styles.ListItemStyle
		if i == m.sortCursor {
			prefix = "▸ "
			style = styles.ListItemSelectedStyle
		}

		label := choice.label
		if choice.spec == m.snap.Sort {
			label = "✓ " + label
		}

		b.WriteString(style.Render(prefix + label))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.HelpStyle.Render("↑/↓ navigate • Enter select • ESC cancel"))

	return b.String()
}

// loadPage requests a page and snapshots the result. Stale responses are
// already filtered by the browser itself.
func (m ShopsModel) loadPage(page int) tea.Cmd {
	br := m.browser
	return func() tea.Msg {
		_ = br.LoadPage(context.Background(), page)
		return ShopListUpdatedMsg{Snapshot: br.Snapshot()}
	}
}

func (m ShopsModel) setSort(spec models.SortSpec) tea.Cmd {
	br := m.browser
	return func() tea.Msg {
		_ = br.SetSort(context.Background(), spec)
		return ShopListUpdatedMsg{Snapshot: br.Snapshot()}
	}
}

func (m ShopsModel) setCity(city string) tea.Cmd {
	br := m.browser
	return func() tea.Msg {
		_ = br.SetCityFilter(context.Background(), city)
		return ShopListUpdatedMsg{Snapshot: br.Snapshot()}
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Messages

// ShopListUpdatedMsg carries the latest listing snapshot
type ShopListUpdatedMsg struct {
	Snapshot browse.Snapshot
}

// SelectShopMsg is sent when a shop is opened from any listing
type SelectShopMsg struct {
	ShopID int64
}
