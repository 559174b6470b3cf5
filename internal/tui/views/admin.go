package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"noodlemap/internal/client/api"
	"noodlemap/internal/tui/styles"
	"noodlemap/pkg/models"
)

// AdminModel lists accounts and lets an admin reassign roles
type AdminModel struct {
	apiClient *api.Client

	users         []models.UserAccount
	pageNo        int
	totalPages    int
	totalElements int
	pageSize      int

	cursor  int
	loading bool
	errMsg  string
	notice  string

	width  int
	height int
}

// NewAdminModel creates a new admin model
func NewAdminModel(apiClient *api.Client) AdminModel {
	return AdminModel{
		apiClient: apiClient,
		pageSize:  20,
	}
}

// Init initializes and loads data
func (m AdminModel) Init() tea.Cmd {
	return m.loadUsers(0)
}

// Update handles messages
func (m AdminModel) Update(msg tea.Msg) (AdminModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, key.NewBinding(key.WithKeys("j", "down"))):
			if m.cursor < len(m.users)-1 {
				m.cursor++
			}
			return m, nil

		case key.Matches(msg, key.NewBinding(key.WithKeys("k", "up"))):
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil

		case key.Matches(msg, key.NewBinding(key.WithKeys("n", "pgdown"))):
			if m.pageNo+1 < m.totalPages {
				m.cursor = 0
				return m, m.loadUsers(m.pageNo + 1)
			}
			return m, nil

		case key.Matches(msg, key.NewBinding(key.WithKeys("p", "pgup"))):
			if m.pageNo > 0 {
				m.cursor = 0
				return m, m.loadUsers(m.pageNo - 1)
			}
			return m, nil

		case key.Matches(msg, key.NewBinding(key.WithKeys("r"))):
			return m, m.loadUsers(m.pageNo)

		case key.Matches(msg, key.NewBinding(key.WithKeys("u"))):
			return m.assignRole(models.RoleUser)

		case key.Matches(msg, key.NewBinding(key.WithKeys("o"))):
			return m.assignRole(models.RoleShopOwner)

		case key.Matches(msg, key.NewBinding(key.WithKeys("a"))):
			return m.assignRole(models.RoleAdmin)
		}

	case UsersLoadedMsg:
		m.loading = false
		m.users = msg.Page.Content
		m.pageNo = msg.Page.PageNo
		m.totalPages = msg.Page.TotalPages
		m.totalElements = msg.Page.TotalElements
		if m.cursor >= len(m.users) {
			m.cursor = 0
		}
		return m, nil

	case RoleUpdatedMsg:
		m.notice = msg.Notice
		return m, m.loadUsers(m.pageNo)

	case AdminErrorMsg:
		m.loading = false
		m.errMsg = msg.Message
		return m, nil
	}

	return m, nil
}

func (m AdminModel) assignRole(role models.Role) (AdminModel, tea.Cmd) {
	if m.cursor >= len(m.users) {
		return m, nil
	}
	user := m.users[m.cursor]
	m.errMsg = ""
	m.notice = ""
	return m, m.updateRole(user.ID, role)
}

// View renders the admin view
func (m AdminModel) View() string {
	var b strings.Builder

	pageInfo := fmt.Sprintf("Page %d/%d • %d accounts", m.pageNo+1, maxInt(m.totalPages, 1), m.totalElements)
	b.WriteString(styles.TitleStyle.Render("🛠  Accounts"))
	b.WriteString("  ")
	b.WriteString(styles.SubtitleStyle.Render(pageInfo))
	b.WriteString("\n\n")

	if m.loading {
		b.WriteString(styles.SpinnerStyle.Render("⟳ "))
		b.WriteString(styles.InfoStyle.Render("Loading accounts..."))
		return b.String()
	}

	if m.errMsg != "" {
		b.WriteString(styles.ErrorStyle.Render("Error: " + m.errMsg))
		b.WriteString("\n\n")
	}
	if m.notice != "" {
		b.WriteString(styles.SuccessStyle.Render(m.notice))
		b.WriteString("\n\n")
	}

	if len(m.users) == 0 {
		b.WriteString(styles.InfoStyle.Render("No accounts"))
		return b.String()
	}

	for i, u := range m.users {
		prefix := "  "
		style := styles.ListItemStyle
		if i == m.cursor {
			prefix = "▸ "
			style = styles.ListItemSelectedStyle
		}

		name := styles.ListItemTitleStyle.Render(styles.Truncate(u.Username, 24))
		line := fmt.Sprintf("%s%s %s", prefix, name, renderRoles(u.Roles))
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.RenderDivider(44))
	b.WriteString("\n")
	b.WriteString(styles.HelpStyle.Render("↑/↓ navigate • u user • o owner • a admin • n/p page • r refresh"))

	return b.String()
}

func renderRoles(roles []models.Role) string {
	var parts []string
	for _, r := range roles {
		switch r {
		case models.RoleAdmin:
			parts = append(parts, styles.BadgeDangerStyle.Render("admin"))
		case models.RoleShopOwner:
			parts = append(parts, styles.BadgeSuccessStyle.Render("owner"))
		default:
			parts = append(parts, styles.BadgePrimaryStyle.Render("user"))
		}
	}
	return strings.Join(parts, " ")
}

// loadUsers loads a page of accounts
func (m AdminModel) loadUsers(page int) tea.Cmd {
	client := m.apiClient
	size := m.pageSize
	return func() tea.Msg {
		result, err := client.ListUsers(context.Background(), page, size)
		if err != nil {
			return AdminErrorMsg{Message: api.MessageOf(err)}
		}
		return UsersLoadedMsg{Page: *result}
	}
}

// updateRole reassigns the primary role on one account
func (m AdminModel) updateRole(userID int64, role models.Role) tea.Cmd {
	client := m.apiClient
	return func() tea.Msg {
		if err := client.UpdateUserRole(context.Background(), userID, role); err != nil {
			return AdminErrorMsg{Message: api.MessageOf(err)}
		}
		return RoleUpdatedMsg{Notice: fmt.Sprintf("role set to %s", role)}
	}
}

// Messages

// UsersLoadedMsg is sent when the account page is loaded
type UsersLoadedMsg struct {
	Page models.Page[models.UserAccount]
}

// RoleUpdatedMsg is sent after a successful role change
type RoleUpdatedMsg struct {
	Notice string
}

// AdminErrorMsg is sent on admin errors
type AdminErrorMsg struct {
	Message string
}
