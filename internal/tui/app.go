package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"noodlemap/internal/browse"
	"noodlemap/internal/client/api"
	"noodlemap/internal/session"
	"noodlemap/internal/tui/config"
	"noodlemap/internal/tui/styles"
	"noodlemap/internal/tui/views"
)

// View represents different screens in the TUI
type View int

const (
	ViewAuth View = iota
	ViewShops
	ViewMap
	ViewDetail
	ViewAdmin
)

// Model is the root Bubble Tea model
type Model struct {
	// Configuration
	config *config.Config

	// Shared plumbing
	sess      *session.Store
	apiClient *api.Client

	// Session state changes arrive through this channel; the API client's
	// 401 path and explicit logouts both land here.
	sessionEvents chan session.State

	// Current view
	currentView  View
	previousView View

	// The view a forced login should return to
	returnView View

	// Key bindings
	keys KeyMap

	// Window dimensions
	width  int
	height int

	// View models
	authModel   views.AuthModel
	shopsModel  views.ShopsModel
	mapModel    views.MapModel
	detailModel views.DetailModel
	adminModel  views.AdminModel
}

// New creates a new TUI application
func New(cfg *config.Config) *Model {
	creds := session.NewFileCredentials(session.DefaultCredentialsPath())
	sess := session.NewStore(creds, nil)

	apiClient := api.NewClient(cfg.GetBaseURL(), sess)
	apiClient.SetOnUnauthorized(sess.HandleUnauthorized)
	sess.BindClient(apiClient)
	sess.Restore()

	sessionEvents := make(chan session.State, 4)
	sess.Subscribe(func(state session.State) {
		select {
		case sessionEvents <- state:
		default:
		}
	})

	notify, updates := views.NotifyChannel()
	viewportBrowser := browse.NewViewportBrowser(apiClient,
		time.Duration(cfg.UI.MapDebounceMs)*time.Millisecond, notify)

	startView := ViewShops

	m := &Model{
		config:        cfg,
		sess:          sess,
		apiClient:     apiClient,
		sessionEvents: sessionEvents,
		currentView:   startView,
		previousView:  startView,
		returnView:    startView,
		keys:          DefaultKeyMap(),
	}

	m.authModel = views.NewAuthModel(sess, apiClient)
	m.shopsModel = views.NewShopsModel(browse.NewBrowser(apiClient, cfg.UI.ShopPageSize))
	m.mapModel = views.NewMapModel(viewportBrowser, updates)
	m.detailModel = views.NewDetailModel(apiClient, sess)
	m.adminModel = views.NewAdminModel(apiClient)

	return m
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.shopsModel.Init(), m.waitForSession())
}

// waitForSession listens for session state transitions
func (m Model) waitForSession() tea.Cmd {
	ch := m.sessionEvents
	return func() tea.Msg {
		return sessionStateMsg{State: <-ch}
	}
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		m.authModel, _ = m.authModel.Update(msg)
		m.shopsModel, _ = m.shopsModel.Update(msg)
		m.mapModel, _ = m.mapModel.Update(msg)
		m.detailModel, _ = m.detailModel.Update(msg)
		m.adminModel, _ = m.adminModel.Update(msg)
		return m, nil

	case tea.KeyMsg:
		// Global key bindings
		switch {
		case key.Matches(msg, m.keys.Quit) && m.currentView != ViewAuth && !m.inputActive():
			return m, tea.Quit

		case key.Matches(msg, m.keys.Shops) && m.navigable():
			m.previousView = m.currentView
			m.currentView = ViewShops
			return m, m.shopsModel.Init()

		case key.Matches(msg, m.keys.Map) && m.navigable():
			m.previousView = m.currentView
			m.currentView = ViewMap
			return m, m.mapModel.Init()

		case key.Matches(msg, m.keys.Admin) && m.navigable():
			if !m.sess.IsAuthenticated() {
				// admin needs a login first; come back here afterwards
				m.returnView = ViewAdmin
				m.previousView = m.currentView
				m.currentView = ViewAuth
				return m, m.authModel.Init()
			}
			if id := m.sess.Identity(); id == nil || !id.IsAdmin() {
				return m, nil
			}
			m.previousView = m.currentView
			m.currentView = ViewAdmin
			return m, m.adminModel.Init()

		case key.Matches(msg, m.keys.Logout) && m.currentView != ViewAuth:
			m.sess.Logout()
			return m, nil

		case key.Matches(msg, m.keys.Back):
			if m.currentView == ViewDetail && !m.inputActive() {
				m.currentView = m.previousView
				return m, nil
			}
			if m.currentView == ViewAuth {
				m.currentView = m.previousView
				return m, nil
			}
		}

	case views.AuthSuccessMsg:
		// route the auth form back to wherever the login interrupted
		m.currentView = m.returnView
		m.returnView = ViewShops
		switch m.currentView {
		case ViewAdmin:
			return m, m.adminModel.Init()
		case ViewMap:
			return m, m.mapModel.Init()
		case ViewDetail:
			return m, m.detailModel.Init()
		default:
			m.currentView = ViewShops
			return m, m.shopsModel.Init()
		}

	case views.SelectShopMsg:
		m.previousView = m.currentView
		m.currentView = ViewDetail
		return m, m.detailModel.SetShop(msg.ShopID, m.config.UI.ReviewPageSize)

	case sessionStateMsg:
		if msg.State == session.StateAnonymous && m.currentView == ViewAdmin {
			// the credential was rejected or cleared under an admin screen
			m.returnView = ViewAdmin
			m.previousView = ViewShops
			m.currentView = ViewAuth
		}
		return m, m.waitForSession()
	}

	// Route to current view
	return m.updateCurrentView(msg)
}

// navigable reports whether global view-switch keys apply right now
func (m Model) navigable() bool {
	return m.currentView != ViewAuth && !m.inputActive()
}

// inputActive reports whether the focused view is in text-entry mode, in
// which case printable keys belong to the input, not to navigation.
func (m Model) inputActive() bool {
	switch m.currentView {
	case ViewAuth:
		return true
	case ViewShops:
		return m.shopsModel.InputActive()
	case ViewDetail:
		return m.detailModel.InputActive()
	}
	return false
}

// updateCurrentView routes updates to the active view
func (m Model) updateCurrentView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewAuth:
		m.authModel, cmd = m.authModel.Update(msg)
	case ViewShops:
		m.shopsModel, cmd = m.shopsModel.Update(msg)
	case ViewMap:
		m.mapModel, cmd = m.mapModel.Update(msg)
	case ViewDetail:
		m.detailModel, cmd = m.detailModel.Update(msg)
	case ViewAdmin:
		m.adminModel, cmd = m.adminModel.Update(msg)
	}

	return m, cmd
}

// View renders the UI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var content string
	switch m.currentView {
	case ViewAuth:
		content = m.authModel.View()
	case ViewShops:
		content = m.shopsModel.View()
	case ViewMap:
		content = m.mapModel.View()
	case ViewDetail:
		content = m.detailModel.View()
	case ViewAdmin:
		content = m.adminModel.View()
	default:
		content = "Unknown view"
	}

	return styles.AppStyle.Render(content + "\n\n" + m.renderStatusBar())
}

// renderStatusBar renders the bottom status bar
func (m Model) renderStatusBar() string {
	viewName := ""
	switch m.currentView {
	case ViewAuth:
		viewName = "Login"
	case ViewShops:
		viewName = "Shops"
	case ViewMap:
		viewName = "Map"
	case ViewDetail:
		viewName = "Shop"
	case ViewAdmin:
		viewName = "Accounts"
	}

	who := "guest"
	if id := m.sess.Identity(); id != nil {
		who = id.Username
		if id.IsAdmin() {
			who += " (admin)"
		}
	}

	left := styles.StatusBarActiveStyle.Render("● " + viewName)
	right := styles.StatusBarStyle.Render("User: " + who + " | 1-3 views | ctrl+l logout | q quit")

	spacing := m.width - len(left) - len(right) - 4
	if spacing < 0 {
		spacing = 0
	}
	spaces := ""
	for i := 0; i < spacing; i++ {
		spaces += " "
	}

	return left + spaces + right
}

// sessionStateMsg carries a session lifecycle transition into the program
type sessionStateMsg struct {
	State session.State
}
