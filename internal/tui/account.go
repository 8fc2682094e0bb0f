package tui

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/waabox/constitutiongpt/internal/domain"
)

const (
	actionLogout              = "logout"
	actionDeleteChat          = "delete-chat"
	actionSendMessage         = "send-message"
	actionBook                = "book"
	actionCancelAppointment   = "cancel-appointment"
	actionConfirmAppointment  = "confirm-appointment"
	actionCompleteAppointment = "complete-appointment"
	actionToggleVerified      = "toggle-verified"
	actionChangePassword      = "change-password"
)

type menuItem struct {
	label string
	view  viewState
}

// menuFor lists what u may open. Logging out is the last entry.
func menuFor(u domain.User) []menuItem {
	items := []menuItem{
		{"Ask ConstitutionGPT", viewAsk},
		{"Chat history", viewHistory},
		{"Constitution topics", viewTopics},
	}
	if !u.IsLawyer() {
		items = append(items, menuItem{"Find a lawyer", viewLawyers})
	}
	items = append(items,
		menuItem{"Messages", viewInbox},
		menuItem{"Appointments", viewAppointments},
	)
	if u.IsAdmin() {
		items = append(items, menuItem{"Verify lawyers", viewAdmin})
	}
	return append(items,
		menuItem{"Change password", viewPassword},
		menuItem{"Log out", viewLogin},
	)
}

func (m AppModel) resetLogin() AppModel {
	m.loginFields = [2]TextInput{
		NewTextInput("Username or email", false),
		NewTextInput("Password", true),
	}
	m.loginFocus = 0
	return m
}

func (m AppModel) resetPassword() AppModel {
	m.passwordFields = [3]TextInput{
		NewTextInput("Current password", true),
		NewTextInput("New password", true),
		NewTextInput("Repeat new password", true),
	}
	m.passwordFocus = 0
	return m
}

func (m AppModel) login(username, password string) tea.Cmd {
	return func() tea.Msg {
		u, err := m.backend.Login(reqCtx(), username, password)
		return LoggedInMsg{User: u, Err: err}
	}
}

func (m AppModel) logout() tea.Cmd {
	return func() tea.Msg {
		return actionResultMsg{action: actionLogout, err: m.backend.Logout(reqCtx())}
	}
}

func (m AppModel) changePassword(current, next string) tea.Cmd {
	return func() tea.Msg {
		return actionResultMsg{action: actionChangePassword, err: m.backend.ChangePassword(reqCtx(), current, next)}
	}
}

func (m AppModel) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.loading {
		return m, nil
	}
	switch msg.String() {
	case "tab", "down", "shift+tab", "up":
		m.loginFocus = 1 - m.loginFocus
	case "enter":
		if m.loginFocus == 0 {
			m.loginFocus = 1
			return m, nil
		}
		username := strings.TrimSpace(m.loginFields[0].Value())
		password := m.loginFields[1].Value()
		if username == "" || password == "" {
			m.err = errors.New("username and password are required")
			return m, nil
		}
		m.loading = true
		m.err = nil
		return m, m.login(username, password)
	case "esc":
		return m, tea.Quit
	default:
		m.loginFields[m.loginFocus] = m.loginFields[m.loginFocus].Update(msg)
	}
	return m, nil
}

func (m AppModel) renderLogin() string {
	header := " ConstitutionGPT | Sign in\n"
	if m.loading {
		return header + separator + " Signing in...\n"
	}
	var body strings.Builder
	body.WriteString("\n")
	for i, f := range m.loginFields {
		body.WriteString(f.View(i == m.loginFocus))
	}
	body.WriteString("\n")

	status := ""
	switch {
	case m.err != nil:
		status = " Error: " + m.err.Error() + "\n"
	case m.notice != "":
		status = " " + m.notice + "\n"
	}
	footer := " tab: next field   enter: sign in   esc: quit\n"
	return header + separator + body.String() + separator + status + footer
}

func (m AppModel) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "down":
		m.menu = m.menu.MoveDown()
	case "up":
		m.menu = m.menu.MoveUp()
	case "enter":
		item, ok := m.menu.Selected()
		if !ok {
			return m, nil
		}
		return m.open(item.view)
	}
	return m, nil
}

// open switches to v and starts whatever load it needs.
func (m AppModel) open(v viewState) (tea.Model, tea.Cmd) {
	m.err = nil
	m.notice = ""
	switch v {
	case viewLogin:
		m.confirm = actionLogout
		return m, nil
	case viewAsk:
		m.question = m.question.Reset()
	case viewHistory:
		m.loading = true
		m.view = v
		return m, m.loadHistory()
	case viewTopics:
		m.loading = true
		m.searching = false
		m.search = m.search.Reset()
		m.view = v
		return m, m.loadTopics("")
	case viewLawyers:
		m.loading = true
		m.filtering = false
		m.view = v
		return m, m.loadLawyers(m.city.Value())
	case viewInbox:
		m.loading = true
		m.view = v
		return m, m.loadInbox()
	case viewAppointments:
		m.loading = true
		m.view = v
		return m, m.loadAppointments()
	case viewAdmin:
		m.loading = true
		m.view = v
		return m, m.loadAdminLawyers()
	case viewPassword:
		m = m.resetPassword()
	}
	m.view = v
	return m, nil
}

func (m AppModel) renderMenu() (string, string, string) {
	body := m.menu.View("Nothing to show.", func(it menuItem) string { return it.label })
	footer := " ↑/↓: navigate   enter: open   q: quit\n"
	return " Menu\n", body, footer
}

func (m AppModel) updatePassword(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.loading {
		return m, nil
	}
	switch msg.String() {
	case "esc":
		m.err = nil
		m.view = viewMenu
		return m.resetPassword(), nil
	case "tab", "down":
		m.passwordFocus = (m.passwordFocus + 1) % len(m.passwordFields)
	case "shift+tab", "up":
		m.passwordFocus = (m.passwordFocus + len(m.passwordFields) - 1) % len(m.passwordFields)
	case "enter":
		if m.passwordFocus < len(m.passwordFields)-1 {
			m.passwordFocus++
			return m, nil
		}
		current := m.passwordFields[0].Value()
		next := m.passwordFields[1].Value()
		switch {
		case current == "" || next == "":
			m.err = errors.New("both passwords are required")
			return m, nil
		case next != m.passwordFields[2].Value():
			m.err = errors.New("new passwords do not match")
			return m, nil
		}
		m.loading = true
		m.err = nil
		return m, m.changePassword(current, next)
	default:
		m.passwordFields[m.passwordFocus] = m.passwordFields[m.passwordFocus].Update(msg)
	}
	return m, nil
}

func (m AppModel) renderPassword() (string, string, string) {
	var body strings.Builder
	for i, f := range m.passwordFields {
		body.WriteString(f.View(i == m.passwordFocus))
	}
	footer := " tab: next field   enter: save   esc: back\n"
	return " Change password\n", body.String(), footer
}

func (m AppModel) confirmPrompt() string {
	switch m.confirm {
	case actionLogout:
		return "Log out?"
	case actionDeleteChat:
		if e, ok := m.history.Selected(); ok {
			return "Delete chat \"" + truncate(firstLine(e.Question), 40) + "\"?"
		}
	case actionCancelAppointment:
		return "Cancel this appointment?"
	case actionConfirmAppointment:
		return "Confirm this appointment?"
	case actionCompleteAppointment:
		return "Mark this appointment as completed?"
	case actionToggleVerified:
		if l, ok := m.adminLawyers.Selected(); ok {
			if l.IsVerified {
				return "Revoke verification for " + l.Username + "?"
			}
			return "Verify " + l.Username + "?"
		}
	}
	return "Are you sure?"
}
