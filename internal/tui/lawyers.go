package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/waabox/constitutiongpt/internal/domain"
)

// bookingLayout is how the appointment time is typed in.
const bookingLayout = "2006-01-02 15:04"

func (m AppModel) loadLawyers(city string) tea.Cmd {
	return func() tea.Msg {
		lawyers, err := m.backend.Lawyers(reqCtx(), strings.TrimSpace(city))
		return LawyersLoadedMsg{Lawyers: lawyers, Err: err}
	}
}

func (m AppModel) book(req domain.BookingRequest) tea.Cmd {
	return func() tea.Msg {
		_, err := m.backend.BookAppointment(reqCtx(), req)
		return actionResultMsg{action: actionBook, err: err}
	}
}

func (m AppModel) resetBooking() AppModel {
	m.bookingFields = [2]TextInput{
		NewTextInput("When (YYYY-MM-DD HH:MM)", false),
		NewTextInput("What is it about", false),
	}
	m.bookingFocus = 0
	m.bookingLawyer = domain.Lawyer{}
	return m
}

func (m AppModel) updateLawyers(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "down":
		m.lawyers = m.lawyers.MoveDown()
	case "up":
		m.lawyers = m.lawyers.MoveUp()
	case "/", "f":
		m.filtering = true
	case "b", "enter":
		l, ok := m.lawyers.Selected()
		if !ok {
			return m, nil
		}
		m = m.resetBooking()
		m.bookingLawyer = l
		m.notice = ""
		m.view = viewBooking
	case "m":
		l, ok := m.lawyers.Selected()
		if !ok {
			return m, nil
		}
		return m.openConversation(peer{id: l.ID, name: l.Username})
	case "esc":
		m.view = viewMenu
	}
	return m, nil
}

func (m AppModel) updateCityFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.filtering = false
		m.loading = true
		return m, m.loadLawyers(m.city.Value())
	case "esc":
		m.filtering = false
		if m.city.Value() == "" {
			return m, nil
		}
		m.city = m.city.Reset()
		m.loading = true
		return m, m.loadLawyers("")
	default:
		m.city = m.city.Update(msg)
	}
	return m, nil
}

func (m AppModel) renderLawyers() (string, string, string) {
	var body strings.Builder
	if m.filtering || m.city.Value() != "" {
		body.WriteString(m.city.View(m.filtering))
		body.WriteString("\n")
	}
	body.WriteString(m.lawyers.View("No verified lawyers found.", func(l domain.Lawyer) string {
		return fmt.Sprintf("%-20s %-14s %s", truncate(l.Username, 20), truncate(l.City, 14), l.Phone)
	}))
	footer := " ↑/↓: navigate   b: book   m: message   f: filter by city   esc: back\n"
	if m.filtering {
		footer = " enter: filter   esc: clear\n"
	}
	return " Lawyers\n", body.String(), footer
}

func (m AppModel) updateBooking(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.loading {
		return m, nil
	}
	switch msg.String() {
	case "esc":
		m.err = nil
		m.view = viewLawyers
		return m.resetBooking(), nil
	case "tab", "down", "shift+tab", "up":
		m.bookingFocus = 1 - m.bookingFocus
	case "enter":
		if m.bookingFocus == 0 {
			m.bookingFocus = 1
			return m, nil
		}
		when, err := time.ParseInLocation(bookingLayout, strings.TrimSpace(m.bookingFields[0].Value()), time.Local)
		if err != nil {
			m.err = errors.New("time must look like 2025-01-31 14:30")
			return m, nil
		}
		desc := strings.TrimSpace(m.bookingFields[1].Value())
		if desc == "" {
			m.err = errors.New("a short description is required")
			return m, nil
		}
		m.loading = true
		m.err = nil
		return m, m.book(domain.BookingRequest{
			LawyerID:    m.bookingLawyer.ID,
			ScheduledAt: when,
			Description: desc,
		})
	default:
		m.bookingFields[m.bookingFocus] = m.bookingFields[m.bookingFocus].Update(msg)
	}
	return m, nil
}

func (m AppModel) renderBooking() (string, string, string) {
	l := m.bookingLawyer
	var body strings.Builder
	body.WriteString(fmt.Sprintf(" %s, %s\n\n", l.Username, l.City))
	for i, f := range m.bookingFields {
		body.WriteString(f.View(i == m.bookingFocus))
	}
	footer := " tab: next field   enter: book   esc: back\n"
	return " Book an appointment\n", body.String(), footer
}
