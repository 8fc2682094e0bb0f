package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/waabox/constitutiongpt/internal/domain"
)

func (m AppModel) loadInbox() tea.Cmd {
	return func() tea.Msg {
		convs, err := m.backend.Inbox(reqCtx())
		return InboxLoadedMsg{Conversations: convs, Err: err}
	}
}

func (m AppModel) loadMessages(peerID string) tea.Cmd {
	return func() tea.Msg {
		msgs, err := m.backend.Messages(reqCtx(), peerID)
		return MessagesLoadedMsg{PeerID: peerID, Messages: msgs, Err: err}
	}
}

func (m AppModel) send(receiverID, text string) tea.Cmd {
	return func() tea.Msg {
		return actionResultMsg{action: actionSendMessage, err: m.backend.SendDirectMessage(reqCtx(), receiverID, text)}
	}
}

// openConversation shows the exchange with p and starts polling it.
func (m AppModel) openConversation(p peer) (tea.Model, tea.Cmd) {
	m.peer = p
	m.messages = nil
	m.compose = m.compose.Reset()
	m.err = nil
	m.notice = ""
	m.view = viewConversation
	m.loading = true
	m.pollGen++
	return m, tea.Batch(m.loadMessages(p.id), pollEvery(m.poll, m.pollGen))
}

func (m AppModel) updateInbox(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "down":
		m.inbox = m.inbox.MoveDown()
	case "up":
		m.inbox = m.inbox.MoveUp()
	case "enter":
		c, ok := m.inbox.Selected()
		if !ok {
			return m, nil
		}
		return m.openConversation(peer{id: c.OtherUserID, name: c.OtherUsername})
	case "esc":
		m.view = viewMenu
	}
	return m, nil
}

func (m AppModel) renderInbox() (string, string, string) {
	body := m.inbox.View("No conversations yet.", func(c domain.Conversation) string {
		unread := "  "
		if c.UnreadCount > 0 {
			unread = fmt.Sprintf("%d*", c.UnreadCount)
		}
		return fmt.Sprintf("%s %-18s %-9s %s", unread, truncate(c.OtherUsername, 18), formatAge(c.LastAt), truncate(firstLine(c.LastMessage), 40))
	})
	footer := " ↑/↓: navigate   enter: open   ctrl+r: refresh   esc: back\n"
	return " Messages\n", body, footer
}

func (m AppModel) updateConversation(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.pollGen++
		m.messages = nil
		m.compose = m.compose.Reset()
		m.err = nil
		m.view = viewInbox
		m.loading = true
		return m, m.loadInbox()
	case "enter":
		text := strings.TrimSpace(m.compose.Value())
		if text == "" {
			return m, nil
		}
		m.compose = m.compose.Reset()
		return m, m.send(m.peer.id, text)
	default:
		m.compose = m.compose.Update(msg)
	}
	return m, nil
}

func (m AppModel) renderConversation() (string, string, string) {
	var body strings.Builder
	if len(m.messages) == 0 {
		body.WriteString(" No messages yet. Say hello.\n")
	}
	for _, dm := range m.messages {
		who := m.peer.name
		if dm.SenderID == m.user.ID {
			who = "you"
		}
		body.WriteString(fmt.Sprintf(" [%s] %s: %s\n", formatWhen(dm.SentAt), who, dm.Text))
	}
	body.WriteString("\n")
	body.WriteString(m.compose.View(true))
	footer := " enter: send   esc: back\n"
	return " Conversation with " + m.peer.name + "\n", body.String(), footer
}
