package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/waabox/constitutiongpt/internal/domain"
)

func (m AppModel) loadAppointments() tea.Cmd {
	lawyer := m.user.IsLawyer()
	return func() tea.Msg {
		var (
			list []domain.Appointment
			err  error
		)
		if lawyer {
			list, err = m.backend.LawyerAppointments(reqCtx())
		} else {
			list, err = m.backend.UserAppointments(reqCtx())
		}
		return AppointmentsLoadedMsg{Appointments: list, Err: err}
	}
}

// setAppointmentStatus moves the highlighted appointment to status.
func (m AppModel) setAppointmentStatus(status domain.AppointmentStatus) tea.Cmd {
	a, ok := m.appointments.Selected()
	if !ok {
		return nil
	}
	action := actionCancelAppointment
	switch status {
	case domain.AppointmentConfirmed:
		action = actionConfirmAppointment
	case domain.AppointmentCompleted:
		action = actionCompleteAppointment
	}
	return func() tea.Msg {
		return actionResultMsg{action: action, err: m.backend.UpdateAppointmentStatus(reqCtx(), a.ID, status)}
	}
}

func (m AppModel) updateAppointments(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a, ok := m.appointments.Selected()
	switch msg.String() {
	case "down":
		m.appointments = m.appointments.MoveDown()
	case "up":
		m.appointments = m.appointments.MoveUp()
	case "c":
		if ok && (a.Status == domain.AppointmentPending || a.Status == domain.AppointmentConfirmed) {
			m.confirm = actionCancelAppointment
		}
	case "a":
		if ok && m.user.IsLawyer() && a.Status == domain.AppointmentPending {
			m.confirm = actionConfirmAppointment
		}
	case "d":
		if ok && m.user.IsLawyer() && a.Status == domain.AppointmentConfirmed {
			m.confirm = actionCompleteAppointment
		}
	case "esc":
		m.view = viewMenu
	}
	return m, nil
}

func (m AppModel) renderAppointments() (string, string, string) {
	lawyer := m.user.IsLawyer()
	body := m.appointments.View("No appointments.", func(a domain.Appointment) string {
		who := a.LawyerName
		if lawyer {
			who = a.Username
		}
		return fmt.Sprintf("%s %-17s %-18s %-10s %s",
			statusIcon(a.Status), formatWhen(a.ScheduledAt), truncate(who, 18), a.Status, truncate(firstLine(a.Description), 30))
	})
	footer := " ↑/↓: navigate   c: cancel   ctrl+r: refresh   esc: back\n"
	if lawyer {
		footer = " ↑/↓: navigate   a: accept   d: done   c: cancel   ctrl+r: refresh   esc: back\n"
	}
	return " Appointments\n", body, footer
}

func (m AppModel) loadAdminLawyers() tea.Cmd {
	return func() tea.Msg {
		lawyers, err := m.backend.AdminLawyers(reqCtx())
		return AdminLawyersLoadedMsg{Lawyers: lawyers, Err: err}
	}
}

func (m AppModel) verifyLawyer(id string, verified bool) tea.Cmd {
	return func() tea.Msg {
		return actionResultMsg{action: actionToggleVerified, err: m.backend.VerifyLawyer(reqCtx(), id, verified)}
	}
}

func (m AppModel) updateAdmin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "down":
		m.adminLawyers = m.adminLawyers.MoveDown()
	case "up":
		m.adminLawyers = m.adminLawyers.MoveUp()
	case "v", "enter":
		if _, ok := m.adminLawyers.Selected(); ok {
			m.confirm = actionToggleVerified
		}
	case "esc":
		m.view = viewMenu
	}
	return m, nil
}

func (m AppModel) renderAdmin() (string, string, string) {
	body := m.adminLawyers.View("No lawyers registered.", func(l domain.Lawyer) string {
		mark := "○"
		if l.IsVerified {
			mark = "✓"
		}
		return fmt.Sprintf("%s %-20s %-14s %s", mark, truncate(l.Username, 20), truncate(l.City, 14), l.Email)
	})
	footer := " ↑/↓: navigate   v: toggle verification   ctrl+r: refresh   esc: back\n"
	return " Lawyer verification\n", body, footer
}
