package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/waabox/constitutiongpt/internal/domain"
	"github.com/waabox/constitutiongpt/internal/session"
)

// SessionExpiredNotice is shown on the login view after the session expired.
const SessionExpiredNotice = "Your session has expired. Please log in again."

const defaultPollInterval = 5 * time.Second

// SessionExpiredMsg is delivered when the session manager broadcasts expiry.
// It is exported so that tests can inject it directly into AppModel.Update.
type SessionExpiredMsg struct {
	Reason string
}

// LoggedInMsg is sent when a login attempt completes.
type LoggedInMsg struct {
	User domain.User
	Err  error
}

// VerifiedMsg is sent when the stored credentials have been checked at startup.
type VerifiedMsg struct {
	User domain.User
	Err  error
}

// AnswerMsg carries the assistant's reply.
type AnswerMsg struct {
	Question string
	Reply    string
	Err      error
}

// HistoryLoadedMsg is sent when the chat history has been fetched.
type HistoryLoadedMsg struct {
	Entries []domain.ChatEntry
	Err     error
}

// TopicsLoadedMsg is sent when topics have been listed or searched.
type TopicsLoadedMsg struct {
	Topics []domain.Topic
	Err    error
}

// LawyersLoadedMsg is sent when the lawyer directory has been fetched.
type LawyersLoadedMsg struct {
	Lawyers []domain.Lawyer
	Err     error
}

// AdminLawyersLoadedMsg is sent when the admin lawyer list has been fetched.
type AdminLawyersLoadedMsg struct {
	Lawyers []domain.Lawyer
	Err     error
}

// InboxLoadedMsg is sent when the inbox has been fetched.
type InboxLoadedMsg struct {
	Conversations []domain.Conversation
	Err           error
}

// MessagesLoadedMsg is sent when a conversation has been fetched.
type MessagesLoadedMsg struct {
	PeerID   string
	Messages []domain.DirectMessage
	Err      error
}

// AppointmentsLoadedMsg is sent when appointments have been fetched.
type AppointmentsLoadedMsg struct {
	Appointments []domain.Appointment
	Err          error
}

// actionResultMsg is sent when a mutating call completes.
type actionResultMsg struct {
	action string
	err    error
}

// pollMsg drives the conversation refresh. Ticks from an older generation
// are dropped after leaving the conversation.
type pollMsg struct {
	gen int
}

// viewState indicates the current screen.
type viewState int

const (
	viewLogin viewState = iota
	viewMenu
	viewAsk
	viewHistory
	viewHistoryEntry
	viewTopics
	viewTopic
	viewLawyers
	viewBooking
	viewInbox
	viewConversation
	viewAppointments
	viewAdmin
	viewPassword
)

// Options configures the shell.
type Options struct {
	// Expired receives the session manager's expiry broadcasts.
	Expired <-chan session.Expired
	// PollInterval paces conversation refreshes. Defaults to 5s.
	PollInterval time.Duration
	// Restored reports that stored credentials were found at startup.
	Restored bool
}

type peer struct {
	id   string
	name string
}

// AppModel is the root Bubbletea model for ConstitutionGPT.
type AppModel struct {
	backend domain.Backend
	expired <-chan session.Expired
	poll    time.Duration

	view    viewState
	user    domain.User
	loading bool
	err     error
	notice  string
	confirm string
	width   int
	height  int

	// Login
	loginFields [2]TextInput
	loginFocus  int
	// Menu
	menu ListModel[menuItem]
	// Ask
	question     TextInput
	lastQuestion string
	reply        string
	// History
	history ListModel[domain.ChatEntry]
	// Topics
	topics    ListModel[domain.Topic]
	searching bool
	search    TextInput
	// Lawyers and booking
	lawyers       ListModel[domain.Lawyer]
	filtering     bool
	city          TextInput
	bookingFields [2]TextInput
	bookingFocus  int
	bookingLawyer domain.Lawyer
	// Inbox and conversation
	inbox    ListModel[domain.Conversation]
	peer     peer
	messages []domain.DirectMessage
	compose  TextInput
	pollGen  int
	// Appointments
	appointments ListModel[domain.Appointment]
	// Admin
	adminLawyers ListModel[domain.Lawyer]
	// Change password
	passwordFields [3]TextInput
	passwordFocus  int
}

// NewAppModel creates the root application model.
func NewAppModel(backend domain.Backend, opts Options) AppModel {
	poll := opts.PollInterval
	if poll <= 0 {
		poll = defaultPollInterval
	}
	m := AppModel{
		backend:  backend,
		expired:  opts.Expired,
		poll:     poll,
		view:     viewLogin,
		loading:  opts.Restored,
		question: NewTextInput("Question", false),
		search:   NewTextInput("Search", false),
		city:     NewTextInput("City", false),
		compose:  NewTextInput("Message", false),
	}
	m = m.resetLogin()
	m = m.resetBooking()
	m = m.resetPassword()
	return m
}

// Init starts listening for session expiry and, with stored credentials,
// verifies them.
func (m AppModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.waitForExpiry()}
	if m.loading {
		cmds = append(cmds, m.verify())
	}
	return tea.Batch(cmds...)
}

func (m AppModel) waitForExpiry() tea.Cmd {
	if m.expired == nil {
		return nil
	}
	ch := m.expired
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return SessionExpiredMsg{Reason: ev.Reason}
	}
}

func pollEvery(d time.Duration, gen int) tea.Cmd {
	return tea.Tick(d, func(_ time.Time) tea.Msg {
		return pollMsg{gen: gen}
	})
}

func reqCtx() context.Context {
	return context.Background()
}

func (m AppModel) verify() tea.Cmd {
	return func() tea.Msg {
		u, err := m.backend.VerifyToken(reqCtx())
		return VerifiedMsg{User: u, Err: err}
	}
}

// toLogin drops everything tied to the signed-in user.
func (m AppModel) toLogin(notice string) AppModel {
	m.view = viewLogin
	m.user = domain.User{}
	m.loading = false
	m.err = nil
	m.confirm = ""
	m.notice = notice
	m.searching = false
	m.filtering = false
	m.messages = nil
	m.reply = ""
	m.lastQuestion = ""
	m.pollGen++
	return m.resetLogin()
}

// fail records err, unless it means the session is gone.
func (m AppModel) fail(err error) (tea.Model, tea.Cmd) {
	m.loading = false
	if errors.Is(err, domain.ErrSessionExpired) {
		return m.toLogin(SessionExpiredNotice), nil
	}
	m.err = err
	return m, nil
}

// Update handles all incoming messages and key events.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case SessionExpiredMsg:
		return m.toLogin(SessionExpiredNotice), m.waitForExpiry()

	case VerifiedMsg:
		m.loading = false
		if msg.Err != nil {
			if errors.Is(msg.Err, domain.ErrSessionExpired) {
				return m.toLogin(SessionExpiredNotice), nil
			}
			m.err = msg.Err
			return m, nil
		}
		return m.signedIn(msg.User), nil

	case LoggedInMsg:
		m.loading = false
		if msg.Err != nil {
			m.err = msg.Err
			m.loginFields[1] = m.loginFields[1].Reset()
			return m, nil
		}
		return m.signedIn(msg.User), nil

	case AnswerMsg:
		m.loading = false
		if msg.Err != nil {
			return m.fail(msg.Err)
		}
		m.lastQuestion = msg.Question
		m.reply = msg.Reply
		return m, nil

	case HistoryLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			return m.fail(msg.Err)
		}
		m.history = m.history.Replace(msg.Entries)
		return m, nil

	case TopicsLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			return m.fail(msg.Err)
		}
		m.topics = NewListModel(msg.Topics)
		return m, nil

	case LawyersLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			return m.fail(msg.Err)
		}
		m.lawyers = NewListModel(msg.Lawyers)
		return m, nil

	case AdminLawyersLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			return m.fail(msg.Err)
		}
		m.adminLawyers = m.adminLawyers.Replace(msg.Lawyers)
		return m, nil

	case InboxLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			return m.fail(msg.Err)
		}
		m.inbox = m.inbox.Replace(msg.Conversations)
		return m, nil

	case MessagesLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			return m.fail(msg.Err)
		}
		if msg.PeerID == m.peer.id {
			m.messages = msg.Messages
		}
		return m, nil

	case AppointmentsLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			return m.fail(msg.Err)
		}
		m.appointments = m.appointments.Replace(msg.Appointments)
		return m, nil

	case pollMsg:
		if m.view != viewConversation || msg.gen != m.pollGen {
			return m, nil
		}
		return m, tea.Batch(m.loadMessages(m.peer.id), pollEvery(m.poll, m.pollGen))

	case actionResultMsg:
		return m.handleAction(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m AppModel) signedIn(u domain.User) AppModel {
	m.user = u
	m.err = nil
	m.notice = ""
	m.view = viewMenu
	m.menu = NewListModel(menuFor(u))
	return m.resetLogin()
}

func (m AppModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, tea.Quit
	}
	if m.confirm != "" {
		if key == "y" {
			return m.runConfirmed()
		}
		m.confirm = ""
		return m, nil
	}
	if m.inputActive() {
		return m.updateInput(msg)
	}
	switch key {
	case "q":
		return m, tea.Quit
	case "ctrl+r":
		return m.reload()
	}
	switch m.view {
	case viewMenu:
		return m.updateMenu(msg)
	case viewHistory:
		return m.updateHistory(msg)
	case viewHistoryEntry:
		if key == "esc" {
			m.view = viewHistory
		}
	case viewTopic:
		if key == "esc" {
			m.view = viewTopics
		}
	case viewTopics:
		return m.updateTopics(msg)
	case viewLawyers:
		return m.updateLawyers(msg)
	case viewInbox:
		return m.updateInbox(msg)
	case viewAppointments:
		return m.updateAppointments(msg)
	case viewAdmin:
		return m.updateAdmin(msg)
	}
	return m, nil
}

// inputActive reports whether key presses go to a text input.
func (m AppModel) inputActive() bool {
	switch m.view {
	case viewLogin, viewAsk, viewBooking, viewConversation, viewPassword:
		return true
	case viewTopics:
		return m.searching
	case viewLawyers:
		return m.filtering
	}
	return false
}

func (m AppModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.view {
	case viewLogin:
		return m.updateLogin(msg)
	case viewAsk:
		return m.updateAsk(msg)
	case viewBooking:
		return m.updateBooking(msg)
	case viewConversation:
		return m.updateConversation(msg)
	case viewPassword:
		return m.updatePassword(msg)
	case viewTopics:
		return m.updateSearch(msg)
	case viewLawyers:
		return m.updateCityFilter(msg)
	}
	return m, nil
}

// reload refetches whatever the current view shows.
func (m AppModel) reload() (tea.Model, tea.Cmd) {
	m.err = nil
	switch m.view {
	case viewLogin:
		if m.loading {
			return m, m.verify()
		}
	case viewHistory:
		m.loading = true
		return m, m.loadHistory()
	case viewTopics:
		m.loading = true
		return m, m.loadTopics("")
	case viewLawyers:
		m.loading = true
		return m, m.loadLawyers(m.city.Value())
	case viewInbox:
		m.loading = true
		return m, m.loadInbox()
	case viewAppointments:
		m.loading = true
		return m, m.loadAppointments()
	case viewAdmin:
		m.loading = true
		return m, m.loadAdminLawyers()
	}
	return m, nil
}

func (m AppModel) runConfirmed() (tea.Model, tea.Cmd) {
	action := m.confirm
	m.confirm = ""
	switch action {
	case actionDeleteChat:
		if e, ok := m.history.Selected(); ok {
			return m, m.deleteChat(e.ID)
		}
	case actionCancelAppointment:
		return m, m.setAppointmentStatus(domain.AppointmentCancelled)
	case actionConfirmAppointment:
		return m, m.setAppointmentStatus(domain.AppointmentConfirmed)
	case actionCompleteAppointment:
		return m, m.setAppointmentStatus(domain.AppointmentCompleted)
	case actionToggleVerified:
		if l, ok := m.adminLawyers.Selected(); ok {
			return m, m.verifyLawyer(l.ID, !l.IsVerified)
		}
	case actionLogout:
		return m, m.logout()
	}
	return m, nil
}

func (m AppModel) handleAction(msg actionResultMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	if msg.err != nil {
		return m.fail(msg.err)
	}
	m.err = nil
	switch msg.action {
	case actionLogout:
		return m.toLogin("Signed out."), nil
	case actionDeleteChat:
		m.notice = "Chat deleted."
		return m, m.loadHistory()
	case actionSendMessage:
		return m, m.loadMessages(m.peer.id)
	case actionBook:
		m.notice = fmt.Sprintf("Appointment requested with %s.", m.bookingLawyer.Username)
		m.view = viewLawyers
		m = m.resetBooking()
		return m, nil
	case actionCancelAppointment, actionConfirmAppointment, actionCompleteAppointment:
		m.notice = "Appointment updated."
		return m, m.loadAppointments()
	case actionToggleVerified:
		m.notice = "Lawyer updated."
		return m, m.loadAdminLawyers()
	case actionChangePassword:
		m.notice = "Password updated."
		m.view = viewMenu
		m = m.resetPassword()
		return m, nil
	}
	return m, nil
}

// View renders the full TUI.
func (m AppModel) View() string {
	if m.view == viewLogin {
		return m.renderLogin()
	}

	header := fmt.Sprintf(" ConstitutionGPT | %s (%s)\n", m.user.Username, m.user.Role)
	var title, body, footer string
	switch m.view {
	case viewMenu:
		title, body, footer = m.renderMenu()
	case viewAsk:
		title, body, footer = m.renderAsk()
	case viewHistory:
		title, body, footer = m.renderHistory()
	case viewHistoryEntry:
		title, body, footer = m.renderHistoryEntry()
	case viewTopics:
		title, body, footer = m.renderTopics()
	case viewTopic:
		title, body, footer = m.renderTopic()
	case viewLawyers:
		title, body, footer = m.renderLawyers()
	case viewBooking:
		title, body, footer = m.renderBooking()
	case viewInbox:
		title, body, footer = m.renderInbox()
	case viewConversation:
		title, body, footer = m.renderConversation()
	case viewAppointments:
		title, body, footer = m.renderAppointments()
	case viewAdmin:
		title, body, footer = m.renderAdmin()
	case viewPassword:
		title, body, footer = m.renderPassword()
	}
	if m.loading {
		body = " Loading...\n"
	}
	if m.confirm != "" {
		footer = " " + m.confirmPrompt() + " [y/N] \n"
	}

	status := ""
	switch {
	case m.err != nil:
		status = fmt.Sprintf(" Error: %v\n", m.err)
	case m.notice != "":
		status = " " + m.notice + "\n"
	}
	return header + separator + title + body + "\n" + separator + status + footer
}

// Run starts the Bubbletea program and blocks until it exits.
func Run(backend domain.Backend, opts Options) error {
	p := tea.NewProgram(NewAppModel(backend, opts), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running shell: %w", err)
	}
	return nil
}
