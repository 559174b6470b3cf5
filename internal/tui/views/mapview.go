package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"noodlemap/internal/browse"
	"noodlemap/internal/tui/styles"
	"noodlemap/pkg/models"
)

// MapModel is a keyboard-driven stand-in for a map widget: arrows pan the
// viewport, +/- zoom it, and the shop list tracks whatever is in bounds.
// Panning marks the viewport dirty; the fetch fires only after the debounce
// settles, so holding an arrow key does not spray requests.
type MapModel struct {
	viewport *browse.ViewportBrowser
	updates  chan struct{}

	snap   browse.ViewportSnapshot
	bounds models.Bounds
	cursor int

	width  int
	height int
}

// Ho Chi Minh City, a reasonable starting viewport for a noodle crawl.
var defaultBounds = models.Bounds{
	MinLat: 10.70,
	MaxLat: 10.85,
	MinLng: 106.62,
	MaxLng: 106.77,
}

// NewMapModel creates a map model around a viewport browser. The notify
// channel must be the one handed to browse.NewViewportBrowser.
func NewMapModel(viewport *browse.ViewportBrowser, updates chan struct{}) MapModel {
	return MapModel{
		viewport: viewport,
		updates:  updates,
		bounds:   defaultBounds,
	}
}

// NotifyChannel builds the notify pair for a viewport browser: the callback
// to pass to browse.NewViewportBrowser, and the channel the map model reads.
func NotifyChannel() (func(), chan struct{}) {
	ch := make(chan struct{}, 1)
	notify := func() {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return notify, ch
}

// Init starts the first viewport load and the update listener
func (m MapModel) Init() tea.Cmd {
	return tea.Batch(m.pushViewport(), m.waitForUpdate())
}

// waitForUpdate blocks until the viewport browser applies a result.
func (m MapModel) waitForUpdate() tea.Cmd {
	ch := m.updates
	return func() tea.Msg {
		<-ch
		return ViewportUpdatedMsg{}
	}
}

// Update handles messages
func (m MapModel) Update(msg tea.Msg) (MapModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		latStep := (m.bounds.MaxLat - m.bounds.MinLat) / 4
		lngStep := (m.bounds.MaxLng - m.bounds.MinLng) / 4

		switch {
		case key.Matches(msg, key.NewBinding(key.WithKeys("up", "k"))):
			m.bounds.MinLat += latStep
			m.bounds.MaxLat += latStep
			return m, m.pushViewport()

		case key.Matches(msg, key.NewBinding(key.WithKeys("down", "j"))):
			m.bounds.MinLat -= latStep
			m.bounds.MaxLat -= latStep
			return m, m.pushViewport()

		case key.Matches(msg, key.NewBinding(key.WithKeys("left", "h"))):
			m.bounds.MinLng -= lngStep
			m.bounds.MaxLng -= lngStep
			return m, m.pushViewport()

		case key.Matches(msg, key.NewBinding(key.WithKeys("right", "l"))):
			m.bounds.MinLng += lngStep
			m.bounds.MaxLng += lngStep
			return m, m.pushViewport()

		case key.Matches(msg, key.NewBinding(key.WithKeys("+", "="))):
			m.bounds = zoom(m.bounds, 0.5)
			return m, m.pushViewport()

		case key.Matches(msg, key.NewBinding(key.WithKeys("-", "_"))):
			m.bounds = zoom(m.bounds, 2)
			return m, m.pushViewport()

		case key.Matches(msg, key.NewBinding(key.WithKeys("J", "ctrl+n"))):
			if m.cursor < len(m.snap.Shops)-1 {
				m.cursor++
			}
			return m, nil

		case key.Matches(msg, key.NewBinding(key.WithKeys("K", "ctrl+p"))):
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil

		case key.Matches(msg, key.NewBinding(key.WithKeys("r"))):
			return m, m.refresh()

		case key.Matches(msg, key.NewBinding(key.WithKeys("enter"))):
			if len(m.snap.Shops) > 0 && m.cursor < len(m.snap.Shops) {
				shopID := m.snap.Shops[m.cursor].ID
				return m, func() tea.Msg {
					return SelectShopMsg{ShopID: shopID}
				}
			}
			return m, nil
		}

	case ViewportUpdatedMsg:
		m.snap = m.viewport.Snapshot()
		if m.cursor >= len(m.snap.Shops) {
			m.cursor = 0
		}
		return m, m.waitForUpdate()
	}

	return m, nil
}

// pushViewport hands the new bounds to the debouncer; the result comes back
// through the update channel once the viewport settles.
func (m MapModel) pushViewport() tea.Cmd {
	vp := m.viewport
	b := m.bounds
	return func() tea.Msg {
		vp.SetViewport(context.Background(), b)
		return nil
	}
}

func (m MapModel) refresh() tea.Cmd {
	vp := m.viewport
	return func() tea.Msg {
		_ = vp.Refresh(context.Background())
		return ViewportUpdatedMsg{}
	}
}

// View renders the map view
func (m MapModel) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("🗺  Map"))
	b.WriteString("  ")
	b.WriteString(styles.SubtitleStyle.Render(fmt.Sprintf(
		"lat %.3f..%.3f  lng %.3f..%.3f",
		m.bounds.MinLat, m.bounds.MaxLat, m.bounds.MinLng, m.bounds.MaxLng,
	)))
	b.WriteString("\n\n")

	if m.snap.Loading {
		b.WriteString(styles.SpinnerStyle.Render("⟳ "))
		b.WriteString(styles.InfoStyle.Render("Loading area..."))
		b.WriteString("\n\n")
	}

	if m.snap.LoadErr != nil {
		b.WriteString(styles.ErrorStyle.Render("Error: " + m.snap.LoadErr.Error()))
		b.WriteString("\n")
		b.WriteString(styles.HelpStyle.Render("Press 'r' to retry"))
		return b.String()
	}

	if len(m.snap.Shops) == 0 && !m.snap.Loading {
		b.WriteString(styles.InfoStyle.Render("No shops in this area"))
		b.WriteString("\n")
	}

	for i, shop := range m.snap.Shops {
		prefix := "  "
		style := styles.ListItemStyle
		if i == m.cursor {
			prefix = "▸ "
			style = styles.ListItemSelectedStyle
		}

		name := styles.ListItemTitleStyle.Render(styles.Truncate(shop.Name, 32))
		pos := styles.ListItemDescStyle.Render(fmt.Sprintf("%.3f,%.3f", shop.Latitude, shop.Longitude))
		stars := styles.RenderStars(shop.AverageRating, 5)

		b.WriteString(style.Render(fmt.Sprintf("%s%s %s %s", prefix, name, stars, pos)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.RenderDivider(44))
	b.WriteString("\n")
	b.WriteString(styles.HelpStyle.Render("arrows pan • +/- zoom • J/K pick • Enter open • r refresh"))

	return b.String()
}

func zoom(b models.Bounds, factor float64) models.Bounds {
	midLat := (b.MinLat + b.MaxLat) / 2
	midLng := (b.MinLng + b.MaxLng) / 2
	halfLat := (b.MaxLat - b.MinLat) / 2 * factor
	halfLng := (b.MaxLng - b.MinLng) / 2 * factor
	return models.Bounds{
		MinLat: midLat - halfLat,
		MaxLat: midLat + halfLat,
		MinLng: midLng - halfLng,
		MaxLng: midLng + halfLng,
	}
}

// Messages

// ViewportUpdatedMsg is sent when the viewport browser applies a result
type ViewportUpdatedMsg struct{}
