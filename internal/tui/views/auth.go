package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"noodlemap/internal/client/api"
	"noodlemap/internal/session"
	"noodlemap/internal/tui/styles"
	"noodlemap/pkg/models"
)

// AuthMode represents login or register mode
type AuthMode int

const (
	ModeLogin AuthMode = iota
	ModeRegister
)

// AuthModel handles login/register forms
type AuthModel struct {
	mode      AuthMode
	sess      *session.Store
	apiClient *api.Client

	// Input fields
	usernameInput textinput.Model
	emailInput    textinput.Model
	passwordInput textinput.Model
	confirmInput  textinput.Model

	// Register-only shop owner toggle
	shopOwner bool

	// State
	focusIndex int
	loading    bool
	errMsg     string

	// Window size
	width  int
	height int
}

// NewAuthModel creates a new auth model
func NewAuthModel(sess *session.Store, apiClient *api.Client) AuthModel {
	usernameInput := textinput.New()
	usernameInput.Placeholder = "Username"
	usernameInput.CharLimit = 50
	usernameInput.Width = 30
	usernameInput.Focus()

	emailInput := textinput.New()
	emailInput.Placeholder = "Email"
	emailInput.CharLimit = 100
	emailInput.Width = 30

	passwordInput := textinput.New()
	passwordInput.Placeholder = "Password"
	passwordInput.CharLimit = 100
	passwordInput.Width = 30
	passwordInput.EchoMode = textinput.EchoPassword
	passwordInput.EchoCharacter = '•'

	confirmInput := textinput.New()
	confirmInput.Placeholder = "Confirm Password"
	confirmInput.CharLimit = 100
	confirmInput.Width = 30
	confirmInput.EchoMode = textinput.EchoPassword
	confirmInput.EchoCharacter = '•'

	return AuthModel{
		mode:          ModeLogin,
		sess:          sess,
		apiClient:     apiClient,
		usernameInput: usernameInput,
		emailInput:    emailInput,
		passwordInput: passwordInput,
		confirmInput:  confirmInput,
		focusIndex:    0,
	}
}

// Init initializes the model
func (m AuthModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages
func (m AuthModel) Update(msg tea.Msg) (AuthModel, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, key.NewBinding(key.WithKeys("tab"))):
			return m.nextField(), nil

		case key.Matches(msg, key.NewBinding(key.WithKeys("shift+tab"))):
			return m.prevField(), nil

		case key.Matches(msg, key.NewBinding(key.WithKeys("enter"))):
			if m.mode == ModeRegister && m.focusIndex == 4 {
				m.shopOwner = !m.shopOwner
				return m, nil
			}
			if m.isSubmitFocused() {
				return m.submit()
			}
			return m.nextField(), nil

		case key.Matches(msg, key.NewBinding(key.WithKeys(" "))):
			if m.mode == ModeRegister && m.focusIndex == 4 {
				m.shopOwner = !m.shopOwner
				return m, nil
			}

		case key.Matches(msg, key.NewBinding(key.WithKeys("ctrl+t"))):
			m.toggleMode()
			return m, nil
		}

	case AuthSuccessMsg:
		m.loading = false
		m.passwordInput.SetValue("")
		m.confirmInput.SetValue("")
		// Parent model handles navigation
		return m, nil

	case AuthErrorMsg:
		m.loading = false
		m.errMsg = msg.Message
		return m, nil
	}

	// Update focused input
	var cmd tea.Cmd
	switch m.focusIndex {
	case 0:
		m.usernameInput, cmd = m.usernameInput.Update(msg)
	case 1:
		if m.mode == ModeRegister {
			m.emailInput, cmd = m.emailInput.Update(msg)
		} else {
			m.passwordInput, cmd = m.passwordInput.Update(msg)
		}
	case 2:
		if m.mode == ModeRegister {
			m.passwordInput, cmd = m.passwordInput.Update(msg)
		}
	case 3:
		if m.mode == ModeRegister {
			m.confirmInput, cmd = m.confirmInput.Update(msg)
		}
	}
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// View renders the auth form
func (m AuthModel) View() string {
	var b strings.Builder

	title := "🔐 Login"
	if m.mode == ModeRegister {
		title = "📝 Register"
	}
	b.WriteString(styles.TitleStyle.Render(title))
	b.WriteString("\n\n")

	var form strings.Builder

	form.WriteString(m.renderField("Username", m.usernameInput.View(), m.focusIndex == 0))
	form.WriteString("\n")

	if m.mode == ModeRegister {
		form.WriteString(m.renderField("Email", m.emailInput.View(), m.focusIndex == 1))
		form.WriteString("\n")
		form.WriteString(m.renderField("Password", m.passwordInput.View(), m.focusIndex == 2))
		form.WriteString("\n")
		form.WriteString(m.renderField("Confirm", m.confirmInput.View(), m.focusIndex == 3))
		form.WriteString("\n")

		check := "[ ]"
		if m.shopOwner {
			check = "[x]"
		}
		ownerStyle := styles.CardContentStyle
		if m.focusIndex == 4 {
			ownerStyle = styles.InputFocusedStyle
		}
		form.WriteString(ownerStyle.Render(check + " Register as shop owner"))
		form.WriteString("\n\n")

		submitStyle := styles.ButtonStyle
		if m.focusIndex == 5 {
			submitStyle = styles.ButtonActiveStyle
		}
		form.WriteString(submitStyle.Render("  Register  "))
	} else {
		form.WriteString(m.renderField("Password", m.passwordInput.View(), m.focusIndex == 1))
		form.WriteString("\n\n")

		submitStyle := styles.ButtonStyle
		if m.focusIndex == 2 {
			submitStyle = styles.ButtonActiveStyle
		}
		form.WriteString(submitStyle.Render("  Login  "))
	}

	b.WriteString(styles.CardStyle.Render(form.String()))
	b.WriteString("\n\n")

	if m.errMsg != "" {
		b.WriteString(styles.ErrorStyle.Render("Error: " + m.errMsg))
		b.WriteString("\n\n")
	}

	if m.loading {
		b.WriteString(styles.SpinnerStyle.Render("⟳ "))
		b.WriteString(styles.InfoStyle.Render("Processing..."))
		b.WriteString("\n\n")
	}

	if m.mode == ModeLogin {
		b.WriteString(styles.HelpStyle.Render("Press Ctrl+T to switch to Register"))
	} else {
		b.WriteString(styles.HelpStyle.Render("Press Ctrl+T to switch to Login"))
	}

	return b.String()
}

// renderField renders a form field with label
func (m AuthModel) renderField(label, input string, focused bool) string {
	labelStyle := styles.MetaKeyStyle
	if focused {
		labelStyle = styles.InputFocusedStyle
	}

	return fmt.Sprintf("%s\n%s", labelStyle.Render(label+":"), input)
}

func (m AuthModel) maxFocusIndex() int {
	if m.mode == ModeRegister {
		return 5
	}
	return 2
}

// nextField moves focus to the next field
func (m AuthModel) nextField() AuthModel {
	m.focusIndex = (m.focusIndex + 1) % (m.maxFocusIndex() + 1)
	m.updateFocus()
	return m
}

// prevField moves focus to the previous field
func (m AuthModel) prevField() AuthModel {
	m.focusIndex--
	if m.focusIndex < 0 {
		m.focusIndex = m.maxFocusIndex()
	}
	m.updateFocus()
	return m
}

// updateFocus updates input focus states
func (m *AuthModel) updateFocus() {
	m.usernameInput.Blur()
	m.emailInput.Blur()
	m.passwordInput.Blur()
	m.confirmInput.Blur()

	switch m.focusIndex {
	case 0:
		m.usernameInput.Focus()
	case 1:
		if m.mode == ModeRegister {
			m.emailInput.Focus()
		} else {
			m.passwordInput.Focus()
		}
	case 2:
		if m.mode == ModeRegister {
			m.passwordInput.Focus()
		}
	case 3:
		if m.mode == ModeRegister {
			m.confirmInput.Focus()
		}
	}
}

// isSubmitFocused returns true if submit button is focused
func (m AuthModel) isSubmitFocused() bool {
	return m.focusIndex == m.maxFocusIndex()
}

// toggleMode switches between login and register
func (m *AuthModel) toggleMode() {
	if m.mode == ModeLogin {
		m.mode = ModeRegister
	} else {
		m.mode = ModeLogin
	}
	m.focusIndex = 0
	m.errMsg = ""
	m.updateFocus()
}

// submit handles form submission
func (m AuthModel) submit() (AuthModel, tea.Cmd) {
	if m.usernameInput.Value() == "" {
		m.errMsg = "username is required"
		return m, nil
	}

	if m.mode == ModeRegister && m.emailInput.Value() == "" {
		m.errMsg = "email is required"
		return m, nil
	}

	if m.passwordInput.Value() == "" {
		m.errMsg = "password is required"
		return m, nil
	}

	if m.mode == ModeRegister && m.passwordInput.Value() != m.confirmInput.Value() {
		m.errMsg = "passwords do not match"
		return m, nil
	}

	m.loading = true
	m.errMsg = ""

	if m.mode == ModeLogin {
		return m, m.doLogin()
	}
	return m, m.doRegister()
}

// doLogin runs the login through the session store so the credential is
// persisted and the identity decoded in one place.
func (m AuthModel) doLogin() tea.Cmd {
	username := m.usernameInput.Value()
	password := m.passwordInput.Value()
	sess := m.sess
	return func() tea.Msg {
		res := sess.Login(context.Background(), username, password)
		if !res.Success {
			return AuthErrorMsg{Message: res.Message}
		}
		return AuthSuccessMsg{Identity: res.Identity}
	}
}

// doRegister registers, then adopts the returned token like a login.
func (m AuthModel) doRegister() tea.Cmd {
	req := models.RegisterRequest{
		Username:  m.usernameInput.Value(),
		Email:     m.emailInput.Value(),
		Password:  m.passwordInput.Value(),
		ShopOwner: m.shopOwner,
	}
	sess := m.sess
	client := m.apiClient
	return func() tea.Msg {
		resp, err := client.Register(context.Background(), req)
		if err != nil {
			return AuthErrorMsg{Message: api.MessageOf(err)}
		}
		res := sess.AdoptToken(resp.Token)
		if !res.Success {
			return AuthErrorMsg{Message: res.Message}
		}
		return AuthSuccessMsg{Identity: res.Identity}
	}
}

// Messages

// AuthSuccessMsg is sent when auth succeeds
type AuthSuccessMsg struct {
	Identity *models.Identity
}

// AuthErrorMsg is sent when auth fails
type AuthErrorMsg struct {
	Message string
}
