package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/waabox/constitutiongpt/internal/domain"
)

const textWidth = 72

func (m AppModel) ask(question string) tea.Cmd {
	return func() tea.Msg {
		reply, err := m.backend.Ask(reqCtx(), question)
		return AnswerMsg{Question: question, Reply: reply, Err: err}
	}
}

func (m AppModel) loadHistory() tea.Cmd {
	return func() tea.Msg {
		entries, err := m.backend.History(reqCtx())
		return HistoryLoadedMsg{Entries: entries, Err: err}
	}
}

func (m AppModel) deleteChat(id string) tea.Cmd {
	return func() tea.Msg {
		return actionResultMsg{action: actionDeleteChat, err: m.backend.DeleteChat(reqCtx(), id)}
	}
}

func (m AppModel) loadTopics(query string) tea.Cmd {
	return func() tea.Msg {
		var (
			topics []domain.Topic
			err    error
		)
		if query == "" {
			topics, err = m.backend.Topics(reqCtx())
		} else {
			topics, err = m.backend.SearchTopics(reqCtx(), query)
		}
		return TopicsLoadedMsg{Topics: topics, Err: err}
	}
}

func (m AppModel) updateAsk(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.loading {
		return m, nil
	}
	switch msg.String() {
	case "esc":
		m.err = nil
		m.view = viewMenu
		return m, nil
	case "enter":
		q := strings.TrimSpace(m.question.Value())
		if q == "" {
			return m, nil
		}
		m.loading = true
		m.err = nil
		m.question = m.question.Reset()
		return m, m.ask(q)
	default:
		m.question = m.question.Update(msg)
	}
	return m, nil
}

func (m AppModel) renderAsk() (string, string, string) {
	var body strings.Builder
	body.WriteString(m.question.View(true))
	if m.lastQuestion != "" {
		body.WriteString("\n")
		body.WriteString(" You: " + m.lastQuestion + "\n\n")
		body.WriteString(indent(wrap(m.reply, textWidth)))
	}
	footer := " enter: ask   esc: back\n"
	return " Ask about the Constitution\n", body.String(), footer
}

func (m AppModel) updateHistory(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "down":
		m.history = m.history.MoveDown()
	case "up":
		m.history = m.history.MoveUp()
	case "enter":
		if _, ok := m.history.Selected(); ok {
			m.view = viewHistoryEntry
		}
	case "d", "x":
		if _, ok := m.history.Selected(); ok {
			m.confirm = actionDeleteChat
		}
	case "esc":
		m.view = viewMenu
	}
	return m, nil
}

func (m AppModel) renderHistory() (string, string, string) {
	body := m.history.View("No conversations yet.", func(e domain.ChatEntry) string {
		return fmt.Sprintf("%-9s %s", formatAge(e.CreatedAt), truncate(firstLine(e.Question), 60))
	})
	footer := " ↑/↓: navigate   enter: open   d: delete   ctrl+r: refresh   esc: back\n"
	return " Chat history\n", body, footer
}

func (m AppModel) renderHistoryEntry() (string, string, string) {
	e, _ := m.history.Selected()
	var body strings.Builder
	body.WriteString(" Asked " + formatWhen(e.CreatedAt) + "\n\n")
	body.WriteString(" You: " + e.Question + "\n\n")
	body.WriteString(indent(wrap(e.Answer, textWidth)))
	return " Conversation\n", body.String(), " esc: back\n"
}

func (m AppModel) updateTopics(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "down":
		m.topics = m.topics.MoveDown()
	case "up":
		m.topics = m.topics.MoveUp()
	case "enter":
		if _, ok := m.topics.Selected(); ok {
			m.view = viewTopic
		}
	case "/":
		m.searching = true
	case "esc":
		m.view = viewMenu
	}
	return m, nil
}

func (m AppModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searching = false
		m.loading = true
		return m, m.loadTopics(strings.TrimSpace(m.search.Value()))
	case "esc":
		m.searching = false
		if m.search.Value() == "" {
			return m, nil
		}
		m.search = m.search.Reset()
		m.loading = true
		return m, m.loadTopics("")
	default:
		m.search = m.search.Update(msg)
	}
	return m, nil
}

func (m AppModel) renderTopics() (string, string, string) {
	var body strings.Builder
	if m.searching || m.search.Value() != "" {
		body.WriteString(m.search.View(m.searching))
		body.WriteString("\n")
	}
	body.WriteString(m.topics.View("No topics found.", func(t domain.Topic) string {
		return fmt.Sprintf("%-32s %s", truncate(t.Title, 32), truncate(t.Description, 40))
	}))
	footer := " ↑/↓: navigate   enter: read   /: search   esc: back\n"
	if m.searching {
		footer = " enter: search   esc: clear\n"
	}
	return " Constitution topics\n", body.String(), footer
}

func (m AppModel) renderTopic() (string, string, string) {
	t, _ := m.topics.Selected()
	var body strings.Builder
	if t.Description != "" {
		body.WriteString(" " + t.Description + "\n\n")
	}
	body.WriteString(indent(wrap(t.Content, textWidth)))
	return " " + t.Title + "\n", body.String(), " esc: back\n"
}

func indent(s string) string {
	lines := strings.SplitAfter(s, "\n")
	var out strings.Builder
	for _, l := range lines {
		if l == "" {
			continue
		}
		out.WriteString(" " + l)
	}
	return out.String()
}
